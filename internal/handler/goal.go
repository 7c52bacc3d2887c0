package handler

import (
	"net/http"
	"time"

	"github.com/shiftascent/shiftascent/internal/ctxkeys"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

type goalResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type milestoneResponse struct {
	ID              string     `json:"id"`
	Number          int        `json:"number"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	PromiseText     *string    `json:"promiseText,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Consequence     *string    `json:"consequence,omitempty"`
	LockedAt        *time.Time `json:"lockedAt,omitempty"`
	KeptAt          *time.Time `json:"keptAt,omitempty"`
	BrokenAt        *time.Time `json:"brokenAt,omitempty"`
	AutoExpired     bool       `json:"autoExpired"`
	ShareID         *string    `json:"shareId,omitempty"`
	WitnessCount    int        `json:"witnessCount"`
	NeedsReflection bool       `json:"needsReflection"`
}

func newGoalResponse(goal *model.Goal) goalResponse {
	return goalResponse{
		ID:          goal.ID,
		Title:       goal.Title,
		Description: goal.Description,
		Status:      goal.Status,
		CreatedAt:   goal.CreatedAt,
	}
}

func newMilestoneResponse(m *model.Milestone) milestoneResponse {
	return milestoneResponse{
		ID:              m.ID,
		Number:          m.Number,
		Title:           m.Title,
		Status:          m.Status,
		PromiseText:     m.PromiseText,
		Deadline:        m.Deadline,
		Consequence:     m.Consequence,
		LockedAt:        m.LockedAt,
		KeptAt:          m.KeptAt,
		BrokenAt:        m.BrokenAt,
		AutoExpired:     m.AutoExpired,
		ShareID:         m.ShareID,
		WitnessCount:    m.WitnessCount,
		NeedsReflection: m.NeedsReflection(),
	}
}

func newMilestoneResponses(ms []model.Milestone) []milestoneResponse {
	out := make([]milestoneResponse, len(ms))
	for i := range ms {
		out[i] = newMilestoneResponse(&ms[i])
	}
	return out
}

type goalDetailResponse struct {
	Goal       goalResponse        `json:"goal"`
	Milestones []milestoneResponse `json:"milestones"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	goal, err := h.goalService.Create(user.ID, req.Title, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newGoalResponse(goal))
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goals, err := h.goalService.Goals(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]goalResponse, len(goals))
	for i, g := range goals {
		out[i] = newGoalResponse(g)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *GoalHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goal, milestones, err := h.goalService.GoalWithMilestones(user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, goalDetailResponse{
		Goal:       newGoalResponse(goal),
		Milestones: newMilestoneResponses(milestones),
	})
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	goal, err := h.goalService.Update(user.ID, r.PathValue("id"), req.Title, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newGoalResponse(goal))
}

func (h *GoalHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goal, err := h.goalService.Abandon(user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newGoalResponse(goal))
}
