package api

import (
	"github.com/bobaboard/bobaserver/internal/domain"
)

// Request DTOs

type UpdateUserRequest struct {
	Username  string `json:"username" validate:"required"`
	AvatarUrl string `json:"avatar_url" validate:"required"`
}

// Response DTOs

type UserResponse struct {
	Username  string `json:"username"`
	AvatarUrl string `json:"avatar_url"`
}

// BobadexResponse is the viewer's secret-identity catalogue: the total
// number of identities in the realm and the ones this user has caught.
type BobadexResponse struct {
	IdentitiesCount int                      `json:"identities_count"`
	Identities      []domain.BobadexIdentity `json:"identities"`
}

type InviteResponse struct {
	InviteeEmail string `json:"invitee_email"`
	Used         bool   `json:"used"`
	Expired      bool   `json:"expired"`
}
