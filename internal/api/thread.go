package api

import (
	"github.com/bobaboard/bobaserver/internal/domain"
)

// Response DTOs

// ThreadResponse wraps a full thread with annotated posts and comments
type ThreadResponse struct {
	domain.Thread
	// Add extra API-specific fields here if needed in the future
}
