package handler

import (
	"net/http"

	"github.com/shiftascent/shiftascent/internal/service"
)

// ShareHandler serves the public promise page. No authentication; the share
// ID is the capability.
type ShareHandler struct {
	shareService *service.ShareService
}

func NewShareHandler(shareService *service.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

func (h *ShareHandler) Show(w http.ResponseWriter, r *http.Request) {
	shared, err := h.shareService.ByShareID(r.PathValue("shareID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, shared)
}

func (h *ShareHandler) Witness(w http.ResponseWriter, r *http.Request) {
	err := h.shareService.Witness(r.PathValue("shareID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "witnessed"})
}
