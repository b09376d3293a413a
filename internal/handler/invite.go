package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/bobaboard/bobaserver/internal/middleware"
	"github.com/bobaboard/bobaserver/internal/utils"
)

// GetInviteDetails returns an invite's email, used and expired state.
// Public: invitees check their invite before they have an account.
func (h *Handler) GetInviteDetails(w http.ResponseWriter, r *http.Request) {
	nonce := chi.URLParam(r, "nonce")

	invite, err := h.user.InviteDetails(r.Context(), nonce)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, invite)
}

// AcceptInvite redeems an invite for the authenticated external identity,
// creating the user row. The identity must not have a user row yet.
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	viewer := mw.GetViewerFromContext(r)
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if viewer.UserId != nil {
		http.Error(w, "Account already exists", http.StatusConflict)
		return
	}

	nonce := chi.URLParam(r, "nonce")
	if err := h.user.AcceptInvite(r.Context(), nonce, viewer.ExternalId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
