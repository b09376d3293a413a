package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bobaboard/bobaserver/internal/api"
	"github.com/bobaboard/bobaserver/internal/domain"
	internal_errors "github.com/bobaboard/bobaserver/internal/errors"
)

// to mock service in tests
type UserService interface {
	Get(ctx context.Context, user domain.UserId) (*api.UserResponse, error)
	Update(ctx context.Context, user domain.UserId, username, avatarUrl string) (*api.UserResponse, error)
	DismissNotifications(ctx context.Context, user domain.UserId) error
	Bobadex(ctx context.Context, user domain.UserId) (*api.BobadexResponse, error)
	InviteDetails(ctx context.Context, nonce string) (*api.InviteResponse, error)
	AcceptInvite(ctx context.Context, nonce, externalId string) error
}

type UserStorage interface {
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
	UpdateUserData(ctx context.Context, id domain.UserId, username, avatarUrl string) error
	// UpsertDismissNotifications is a single atomic insert-or-update keyed
	// by user id, setting the dismissal instant to the storage clock's now.
	UpsertDismissNotifications(ctx context.Context, user domain.UserId) error
	// BobadexRows returns every secret identity in creation order with the
	// per-user caught flag set.
	BobadexRows(ctx context.Context, user domain.UserId) ([]domain.BobadexIdentity, error)
	GetInvite(ctx context.Context, nonce string) (domain.Invite, error)
	// RedeemInvite marks the invite used and creates the user row in one
	// transaction.
	RedeemInvite(ctx context.Context, nonce, externalId string) (domain.UserId, error)
}

type User struct {
	storage   UserStorage
	sanitizer *bluemonday.Policy
}

func NewUser(storage UserStorage) UserService {
	// usernames are plain text, strip all markup
	return &User{storage: storage, sanitizer: bluemonday.StrictPolicy()}
}

func (s *User) Get(ctx context.Context, userId domain.UserId) (*api.UserResponse, error) {
	user, err := s.storage.GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &api.UserResponse{Username: user.Username, AvatarUrl: user.Avatar}, nil
}

func (s *User) Update(ctx context.Context, userId domain.UserId, username, avatarUrl string) (*api.UserResponse, error) {
	username = strings.TrimSpace(s.sanitizer.Sanitize(username))
	if username == "" {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Username is empty after sanitization", StatusCode: http.StatusBadRequest}
	}

	if err := s.storage.UpdateUserData(ctx, userId, username, avatarUrl); err != nil {
		return nil, err
	}
	return &api.UserResponse{Username: username, AvatarUrl: avatarUrl}, nil
}

// DismissNotifications resets the viewer's notification baseline to now:
// everything created at or before this instant stops counting as new.
func (s *User) DismissNotifications(ctx context.Context, userId domain.UserId) error {
	if err := s.storage.UpsertDismissNotifications(ctx, userId); err != nil {
		return fmt.Errorf("failed to dismiss notifications: %w", err)
	}
	return nil
}

// Bobadex counts the viewer's distinct identity catches. Indexes are
// assigned by identity creation order and stay stable as the catalogue
// grows.
func (s *User) Bobadex(ctx context.Context, userId domain.UserId) (*api.BobadexResponse, error) {
	rows, err := s.storage.BobadexRows(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bobadex identities: %w", err)
	}

	caught := []domain.BobadexIdentity{}
	for i, identity := range rows {
		identity.Index = i + 1
		if identity.Caught {
			caught = append(caught, identity)
		}
	}

	return &api.BobadexResponse{IdentitiesCount: len(rows), Identities: caught}, nil
}

func (s *User) InviteDetails(ctx context.Context, nonce string) (*api.InviteResponse, error) {
	invite, err := s.storage.GetInvite(ctx, nonce)
	if err != nil {
		return nil, err
	}
	return &api.InviteResponse{InviteeEmail: invite.InviteeEmail, Used: invite.Used, Expired: invite.Expired}, nil
}

func (s *User) AcceptInvite(ctx context.Context, nonce, externalId string) error {
	invite, err := s.storage.GetInvite(ctx, nonce)
	if err != nil {
		return err
	}
	if invite.Used {
		return &internal_errors.ErrorWithStatusCode{Message: "Invite already used", StatusCode: http.StatusGone}
	}
	if invite.Expired {
		return &internal_errors.ErrorWithStatusCode{Message: "Invite expired", StatusCode: http.StatusGone}
	}

	if _, err := s.storage.RedeemInvite(ctx, nonce, externalId); err != nil {
		return fmt.Errorf("failed to redeem invite: %w", err)
	}
	return nil
}
