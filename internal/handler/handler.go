package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bobaboard/bobaserver/internal/config"
	"github.com/bobaboard/bobaserver/internal/domain"
	"github.com/bobaboard/bobaserver/internal/logger"
	mw "github.com/bobaboard/bobaserver/internal/middleware"
	"github.com/bobaboard/bobaserver/internal/service"
)

type Handler struct {
	feed   service.FeedService
	thread service.ThreadService
	user   service.UserService
	cfg    *config.Config
}

func New(feed service.FeedService, thread service.ThreadService, user service.UserService, cfg *config.Config) *Handler {
	return &Handler{feed, thread, user, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

// viewerId returns the resolved internal user id, nil for anonymous
// requests and for identities without a user row.
func viewerId(r *http.Request) *domain.UserId {
	viewer := mw.GetViewerFromContext(r)
	if viewer == nil {
		return nil
	}
	return viewer.UserId
}
