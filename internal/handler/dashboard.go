package handler

import (
	"errors"
	"net/http"

	"github.com/shiftascent/shiftascent/internal/ctxkeys"
	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/repository"
	"github.com/shiftascent/shiftascent/internal/service"
)

type DashboardHandler struct {
	statsService *service.StatsService
	goalService  *service.GoalService
}

func NewDashboardHandler(statsService *service.StatsService, goalService *service.GoalService) *DashboardHandler {
	return &DashboardHandler{
		statsService: statsService,
		goalService:  goalService,
	}
}

type achievementResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

type dashboardResponse struct {
	User               userResponse          `json:"user"`
	TierName           string                `json:"tierName"`
	TierTagline        string                `json:"tierTagline"`
	NextTier           *string               `json:"nextTier,omitempty"`
	ProgressToNextTier int                   `json:"progressToNextTier"`
	PromisesToNextTier int                   `json:"promisesToNextTier"`
	Percentile         int                   `json:"percentile"`
	TotalKept          int                   `json:"totalKept"`
	TotalBroken        int                   `json:"totalBroken"`
	CurrentStreak      int                   `json:"currentStreak"`
	GoalsCompleted     int                   `json:"goalsCompleted"`
	TotalWitnesses     int                   `json:"totalWitnesses"`
	FireLevel          string                `json:"fireLevel"`
	FireEmoji          string                `json:"fireEmoji"`
	Achievements       []achievementResponse `json:"achievements"`
	ActiveGoal         *goalDetailResponse   `json:"activeGoal,omitempty"`
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	dash, err := h.statsService.Dashboard(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dashboardResponse{
		User:               newUserResponse(dash.User),
		TierName:           dash.Tier.Name,
		TierTagline:        dash.Tier.Tagline,
		ProgressToNextTier: dash.ProgressToNextTier,
		PromisesToNextTier: dash.PromisesToNextTier,
		Percentile:         dash.Percentile,
		TotalKept:          dash.Stats.TotalKept,
		TotalBroken:        dash.Stats.TotalBroken,
		CurrentStreak:      dash.Stats.CurrentStreak,
		GoalsCompleted:     dash.Stats.GoalsCompleted,
		TotalWitnesses:     dash.Stats.TotalWitnesses,
		FireLevel:          dash.FireLevel.Name,
		FireEmoji:          dash.FireLevel.Emoji,
	}
	if dash.NextTier != nil {
		resp.NextTier = &dash.NextTier.Name
	}
	for _, a := range dash.Achievements {
		resp.Achievements = append(resp.Achievements, achievementResponse{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Emoji:       a.Emoji,
		})
	}

	goal, milestones, err := h.activeGoal(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	if goal != nil {
		resp.ActiveGoal = &goalDetailResponse{
			Goal:       *goal,
			Milestones: milestones,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) activeGoal(userID string) (*goalResponse, []milestoneResponse, error) {
	active, err := h.goalService.ActiveGoal(userID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	_, milestones, err := h.goalService.GoalWithMilestones(active.UserID, active.ID)
	if err != nil {
		return nil, nil, err
	}

	goal := newGoalResponse(active)
	return &goal, newMilestoneResponses(milestones), nil
}
