package handler

import (
	"net/http"

	"github.com/bobaboard/bobaserver/internal/api"
	"github.com/bobaboard/bobaserver/internal/utils"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	viewer := viewerId(r)
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.user.Get(r.Context(), *viewer)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	viewer := viewerId(r)
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.UpdateUserRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.user.Update(r.Context(), *viewer, body.Username, body.AvatarUrl)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, user)
}

// DismissNotifications resets the viewer's notification baseline to now.
func (h *Handler) DismissNotifications(w http.ResponseWriter, r *http.Request) {
	viewer := viewerId(r)
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.user.DismissNotifications(r.Context(), *viewer); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetBobadex returns the viewer's secret-identity catalogue.
func (h *Handler) GetBobadex(w http.ResponseWriter, r *http.Request) {
	viewer := viewerId(r)
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	bobadex, err := h.user.Bobadex(r.Context(), *viewer)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, bobadex)
}
