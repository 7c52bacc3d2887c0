package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
)

type GoalService struct {
	repo          repository.GoalRepository
	milestoneRepo repository.MilestoneRepository
}

func NewGoalService(repo repository.GoalRepository, milestoneRepo repository.MilestoneRepository) *GoalService {
	return &GoalService{
		repo:          repo,
		milestoneRepo: milestoneRepo,
	}
}

// Create starts a new goal. A user pursues exactly one goal at a time; a
// second active goal is a conflict.
func (s *GoalService) Create(userID, title, description string) (*model.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, integrity.Validation("title", "title is required")
	}

	_, err := s.repo.ActiveGoal(userID)
	if err == nil {
		return nil, integrity.Conflict("you already have an active goal")
	}
	if !errors.Is(err, repository.ErrGoalNotFound) {
		return nil, integrity.WrapStore(err)
	}

	now := time.Now()
	goal := &model.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      model.GoalStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.Create(goal)
	if err != nil {
		return nil, integrity.WrapStore(fmt.Errorf("failed to create goal: %w", err))
	}

	return goal, nil
}

func (s *GoalService) ByID(userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(userID, goalID)
}

func (s *GoalService) Goals(userID string) ([]*model.Goal, error) {
	return s.repo.Goals(userID)
}

func (s *GoalService) ActiveGoal(userID string) (*model.Goal, error) {
	return s.repo.ActiveGoal(userID)
}

func (s *GoalService) GoalWithMilestones(userID, goalID string) (*model.Goal, []model.Milestone, error) {
	// Verify ownership
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, nil, err
	}

	milestones, err := s.milestoneRepo.Milestones(goalID)
	if err != nil {
		return nil, nil, integrity.WrapStore(err)
	}

	return goal, milestones, nil
}

func (s *GoalService) Update(userID, goalID, title, description string) (*model.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, integrity.Validation("title", "title is required")
	}

	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if !goal.IsActive() {
		return nil, integrity.InvalidState("only an active goal can be edited")
	}

	goal.Title = title
	goal.Description = strings.TrimSpace(description)
	goal.UpdatedAt = time.Now()

	err = s.repo.Update(goal)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	return goal, nil
}

// Abandon terminates a goal without completing it. Unresolved milestones
// (planned or locked) are voided; resolved ones stay as history, so kept and
// broken counts survive. Abandonment itself carries no score penalty.
func (s *GoalService) Abandon(userID, goalID string) (*model.Goal, error) {
	goal, err := s.repo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if !goal.IsActive() {
		return nil, integrity.InvalidState("only an active goal can be abandoned")
	}

	// Planned and locked milestones die with the goal; resolved ones stay
	// so kept/broken history survives. A voided locked promise never
	// reaches the expiry sweep and costs no score.
	err = s.milestoneRepo.DeleteUnresolved(goalID)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	goal.Status = model.GoalStatusAbandoned
	goal.UpdatedAt = time.Now()

	err = s.repo.Update(goal)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	return goal, nil
}
