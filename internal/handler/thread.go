package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bobaboard/bobaserver/internal/utils"
)

// GetThread returns the fully expanded thread annotated for the viewer.
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")

	thread, err := h.thread.Get(r.Context(), threadId, viewerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, thread)
}

// VisitThread records the viewer's visit, resetting the thread's new-state
// baseline to now.
func (h *Handler) VisitThread(w http.ResponseWriter, r *http.Request) {
	viewer := viewerId(r)
	if viewer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	threadId := chi.URLParam(r, "thread")
	if err := h.thread.MarkVisit(r.Context(), threadId, *viewer); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
