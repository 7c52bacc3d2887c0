package service

import (
	"log/slog"
	"time"

	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
)

// IntegrityService is the only writer of the integrity score. It applies the
// pure score transitions, persists the result, and reports tier-change
// events for the caller to display.
type IntegrityService struct {
	userRepo repository.UserRepository
}

func NewIntegrityService(userRepo repository.UserRepository) *IntegrityService {
	return &IntegrityService{userRepo: userRepo}
}

func (s *IntegrityService) OnKept(userID string) (*model.User, *integrity.TierChange, error) {
	user, err := s.userRepo.ByID(userID)
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	updated, change := integrity.OnKept(*user)
	err = s.userRepo.UpdateScore(&updated)
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	s.logChange("kept", &updated, change)
	return &updated, change, nil
}

func (s *IntegrityService) OnBroken(userID string) (*model.User, *integrity.TierChange, error) {
	user, err := s.userRepo.ByID(userID)
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	updated, change := integrity.OnBroken(*user)
	err = s.userRepo.UpdateScore(&updated)
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	s.logChange("broken", &updated, change)
	return &updated, change, nil
}

// ApplyGoalBonus awards the one-time completion bonus. The goal is mutated
// in place (BonusAwardedAt set); the caller persists it together with the
// status change.
func (s *IntegrityService) ApplyGoalBonus(userID string, goal *model.Goal) (*model.User, *integrity.TierChange, error) {
	user, err := s.userRepo.ByID(userID)
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	if goal.BonusAwarded() {
		return user, nil, nil
	}

	updatedUser, updatedGoal, change := integrity.OnGoalCompleted(*user, *goal, time.Now())
	err = s.userRepo.UpdateScore(&updatedUser)
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	*goal = updatedGoal
	s.logChange("goal_completed", &updatedUser, change)
	return &updatedUser, change, nil
}

func (s *IntegrityService) logChange(event string, user *model.User, change *integrity.TierChange) {
	if change == nil {
		slog.Info("integrity score updated", "event", event, "user_id", user.ID, "score", user.IntegrityScore)
		return
	}
	slog.Info("tier changed",
		"event", event,
		"user_id", user.ID,
		"score", user.IntegrityScore,
		"from", change.From.ID,
		"to", change.To.ID,
		"direction", change.Direction,
	)
}
