package handler

import (
	"net/http"
	"time"

	"github.com/shiftascent/shiftascent/internal/ctxkeys"
	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/service"
)

type MilestoneHandler struct {
	milestoneService *service.MilestoneService
}

func NewMilestoneHandler(milestoneService *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

// tierChangeResponse is the crossed-a-band event a resolve can produce.
type tierChangeResponse struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Direction string `json:"direction"`
}

type resolveResponse struct {
	Milestone       milestoneResponse   `json:"milestone"`
	IntegrityScore  int                 `json:"integrityScore"`
	Tier            string              `json:"tier"`
	TierChange      *tierChangeResponse `json:"tierChange,omitempty"`
	GoalCompleted   bool                `json:"goalCompleted"`
	BonusTierChange *tierChangeResponse `json:"bonusTierChange,omitempty"`
}

func newTierChangeResponse(change *integrity.TierChange) *tierChangeResponse {
	if change == nil {
		return nil
	}
	return &tierChangeResponse{
		From:      change.From.ID,
		To:        change.To.ID,
		Direction: change.Direction,
	}
}

func newResolveResponse(result *service.ResolveResult) resolveResponse {
	return resolveResponse{
		Milestone:       newMilestoneResponse(result.Milestone),
		IntegrityScore:  result.User.IntegrityScore,
		Tier:            integrity.TierFor(result.User.IntegrityScore).ID,
		TierChange:      newTierChangeResponse(result.TierChange),
		GoalCompleted:   result.GoalCompleted,
		BonusTierChange: newTierChangeResponse(result.BonusTierChange),
	}
}

func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	m, err := h.milestoneService.Create(user.ID, r.PathValue("id"), req.Title)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newMilestoneResponse(m))
}

func (h *MilestoneHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	m, err := h.milestoneService.Rename(user.ID, r.PathValue("id"), r.PathValue("milestoneID"), req.Title)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newMilestoneResponse(m))
}

func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	err := h.milestoneService.Delete(user.ID, r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *MilestoneHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []string `json:"order"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	milestones, err := h.milestoneService.Reorder(user.ID, r.PathValue("id"), req.Order)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newMilestoneResponses(milestones))
}

func (h *MilestoneHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PromiseText string    `json:"promiseText"`
		Deadline    time.Time `json:"deadline"`
		Consequence string    `json:"consequence"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	m, err := h.milestoneService.Lock(user.ID, r.PathValue("id"), r.PathValue("milestoneID"), integrity.PromiseDraft{
		Text:        req.PromiseText,
		Deadline:    req.Deadline,
		Consequence: req.Consequence,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newMilestoneResponse(m))
}

func (h *MilestoneHandler) MarkKept(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	result, err := h.milestoneService.MarkKept(user.ID, r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newResolveResponse(result))
}

func (h *MilestoneHandler) MarkBroken(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	result, err := h.milestoneService.MarkBroken(user.ID, r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newResolveResponse(result))
}
