package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bobaboard/bobaserver/internal/service"
	"github.com/bobaboard/bobaserver/internal/utils"
)

// GetBoardActivity returns one page of a board's feed, newest activity
// first. Anonymous viewers get the feed with all new-state zeroed.
func (h *Handler) GetBoardActivity(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "board")

	opts, err := feedOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	feed, err := h.feed.BoardFeed(r.Context(), slug, viewerId(r), opts)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, feed)
}

// GetUserFeed returns one page of the viewer's own activity across boards.
func (h *Handler) GetUserFeed(w http.ResponseWriter, r *http.Request) {
	viewer := viewerId(r)
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	opts, err := feedOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	feed, err := h.feed.UserFeed(r.Context(), *viewer, opts)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, feed)
}

func feedOptions(r *http.Request) (service.FeedOptions, error) {
	query := r.URL.Query()
	opts := service.FeedOptions{
		Cursor:      query.Get("cursor"),
		UpdatedOnly: query.Get("updated_only") == "true",
		OwnOnly:     query.Get("own_only") == "true",
	}

	if raw := query.Get("page_size"); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil || pageSize <= 0 {
			return service.FeedOptions{}, errInvalidPageSize
		}
		opts.PageSize = pageSize
	}
	return opts, nil
}

var errInvalidPageSize = errorString("invalid page_size: must be a positive integer")

type errorString string

func (e errorString) Error() string { return string(e) }
