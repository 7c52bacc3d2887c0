package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
)

// MilestoneService drives the milestone state machine against the store.
// Every transition is validated by the pure core first, then written with a
// compare-and-set on status so concurrent sessions cannot double-resolve a
// promise: the loser's write affects zero rows and surfaces as a conflict.
type MilestoneService struct {
	repo             repository.MilestoneRepository
	goalRepo         repository.GoalRepository
	reflectionRepo   repository.ReflectionRepository
	userRepo         repository.UserRepository
	integrityService *IntegrityService
	emailService     *EmailService
}

func NewMilestoneService(
	repo repository.MilestoneRepository,
	goalRepo repository.GoalRepository,
	reflectionRepo repository.ReflectionRepository,
	userRepo repository.UserRepository,
	integrityService *IntegrityService,
	emailService *EmailService,
) *MilestoneService {
	return &MilestoneService{
		repo:             repo,
		goalRepo:         goalRepo,
		reflectionRepo:   reflectionRepo,
		userRepo:         userRepo,
		integrityService: integrityService,
		emailService:     emailService,
	}
}

// ResolveResult is what a kept/broken transition hands back to the caller:
// the milestone, the updated score, and any tier-change events to display.
type ResolveResult struct {
	Milestone       *model.Milestone
	User            *model.User
	TierChange      *integrity.TierChange
	GoalCompleted   bool
	BonusTierChange *integrity.TierChange
}

func (s *MilestoneService) Create(userID, goalID, title string) (*model.Milestone, error) {
	goal, err := s.activeGoal(userID, goalID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.repo.Milestones(goal.ID)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	now := time.Now()
	m := &model.Milestone{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		Number:    len(milestones) + 1,
		Title:     title,
		Status:    model.MilestoneStatusPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if m.Title == "" {
		return nil, integrity.Validation("title", "title is required")
	}

	err = s.repo.Create(m)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	return m, nil
}

func (s *MilestoneService) ByID(userID, goalID, id string) (*model.Milestone, error) {
	_, err := s.goalRepo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	return s.repo.ByID(goalID, id)
}

// Rename edits a milestone title. Legal only while planned.
func (s *MilestoneService) Rename(userID, goalID, id, title string) (*model.Milestone, error) {
	if title == "" {
		return nil, integrity.Validation("title", "title is required")
	}

	m, err := s.ByID(userID, goalID, id)
	if err != nil {
		return nil, err
	}

	err = integrity.CanModify(*m)
	if err != nil {
		return nil, err
	}

	m.Title = title
	err = s.repo.Update(m)
	if errors.Is(err, repository.ErrMilestoneStale) {
		return nil, integrity.InvalidState("a milestone can only be changed while planned")
	}
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	return m, nil
}

// Delete removes a planned milestone and renumbers the rest densely.
func (s *MilestoneService) Delete(userID, goalID, id string) error {
	m, err := s.ByID(userID, goalID, id)
	if err != nil {
		return err
	}

	err = integrity.CanModify(*m)
	if err != nil {
		return err
	}

	err = s.repo.Delete(goalID, id)
	if errors.Is(err, repository.ErrMilestoneStale) {
		return integrity.InvalidState("a milestone can only be deleted while planned")
	}
	if err != nil {
		return integrity.WrapStore(err)
	}

	return s.renumberAll(goalID)
}

// Reorder applies a new ordering of the goal's planned milestones. Resolved
// and locked milestones keep their position at the front; the planned ones
// follow in the requested order, and the whole list is renumbered densely.
// Concurrent reorders resolve last-write-wins at the store.
func (s *MilestoneService) Reorder(userID, goalID string, orderedIDs []string) ([]model.Milestone, error) {
	_, err := s.goalRepo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.repo.Milestones(goalID)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	planned := make(map[string]model.Milestone)
	var settled []model.Milestone
	for _, m := range milestones {
		if m.Status == model.MilestoneStatusPlanned {
			planned[m.ID] = m
		} else {
			settled = append(settled, m)
		}
	}

	if len(orderedIDs) != len(planned) {
		return nil, integrity.Validation("order", "order must list every planned milestone exactly once")
	}

	reordered := settled
	for _, id := range orderedIDs {
		m, ok := planned[id]
		if !ok {
			return nil, integrity.InvalidState("only planned milestones can be reordered")
		}
		reordered = append(reordered, m)
		delete(planned, id)
	}

	renumbered := integrity.Renumber(reordered)
	err = s.repo.SaveNumbers(renumbered)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	return renumbered, nil
}

// Lock turns a planned milestone into a time-bound promise. Fails with a
// conflict if a sibling is locked or a broken sibling awaits reflection.
func (s *MilestoneService) Lock(userID, goalID, id string, draft integrity.PromiseDraft) (*model.Milestone, error) {
	_, err := s.activeGoal(userID, goalID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.repo.Milestones(goalID)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	err = integrity.CanLock(milestones)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.ByID(goalID, id)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	shareID, err := generateShareID()
	if err != nil {
		return nil, err
	}

	locked, err := integrity.Lock(*m, draft, shareID, time.Now())
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateStatus(&locked, model.MilestoneStatusPlanned)
	if errors.Is(err, repository.ErrMilestoneStale) {
		return nil, integrity.Conflict("another commitment pending: the milestone changed under you")
	}
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	slog.Info("promise locked", "milestone_id", locked.ID, "goal_id", goalID, "deadline", draft.Deadline)
	return &locked, nil
}

// MarkKept resolves a locked promise as kept, before its deadline only, and
// rewards the score. Completing the goal's final milestone completes the
// goal and awards the one-time bonus.
func (s *MilestoneService) MarkKept(userID, goalID, id string) (*ResolveResult, error) {
	goal, err := s.activeGoal(userID, goalID)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.ByID(goalID, id)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	kept, err := integrity.MarkKept(*m, time.Now())
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateStatus(&kept, model.MilestoneStatusLocked)
	if errors.Is(err, repository.ErrMilestoneStale) {
		return nil, integrity.Conflict("the promise was already resolved in another session")
	}
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	user, change, err := s.integrityService.OnKept(userID)
	if err != nil {
		return nil, err
	}

	result := &ResolveResult{Milestone: &kept, User: user, TierChange: change}

	err = s.completeGoalIfFinished(userID, goal, result)
	if err != nil {
		slog.Error("failed to complete goal after final milestone", "error", err, "goal_id", goal.ID)
	}

	return result, nil
}

// MarkBroken resolves a locked promise as broken by explicit user action,
// before or after the deadline, and applies the escalating penalty.
func (s *MilestoneService) MarkBroken(userID, goalID, id string) (*ResolveResult, error) {
	_, err := s.activeGoal(userID, goalID)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.ByID(goalID, id)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	broken, err := integrity.MarkBroken(*m, time.Now(), false)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateStatus(&broken, model.MilestoneStatusLocked)
	if errors.Is(err, repository.ErrMilestoneStale) {
		return nil, integrity.Conflict("the promise was already resolved in another session")
	}
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	user, change, err := s.integrityService.OnBroken(userID)
	if err != nil {
		return nil, err
	}

	return &ResolveResult{Milestone: &broken, User: user, TierChange: change}, nil
}

// ExpireLocked is the sweep path: auto-break a locked milestone whose
// deadline passed. Idempotent across redundant sweeps: only the caller
// that wins the compare-and-set applies the penalty and sends the email.
func (s *MilestoneService) ExpireLocked(m model.Milestone, now time.Time) error {
	broken, err := integrity.MarkBroken(m, now, true)
	if err != nil {
		// Already resolved; nothing to do.
		return nil
	}

	err = s.repo.UpdateStatus(&broken, model.MilestoneStatusLocked)
	if errors.Is(err, repository.ErrMilestoneStale) {
		return nil
	}
	if err != nil {
		return integrity.WrapStore(err)
	}

	goal, err := s.goalRepo.ByGoalID(m.GoalID)
	if err != nil {
		return integrity.WrapStore(err)
	}

	_, _, err = s.integrityService.OnBroken(goal.UserID)
	if err != nil {
		return err
	}

	user, err := s.userRepo.ByID(goal.UserID)
	if err == nil && m.Deadline != nil {
		err = s.emailService.SendPromiseExpiredEmail(user.Email, m.Title, *m.Deadline)
	}
	if err != nil {
		slog.Warn("failed to send expiry notification", "error", err, "milestone_id", m.ID)
	}

	slog.Info("promise auto-expired", "milestone_id", m.ID, "goal_id", m.GoalID)
	return nil
}

// SubmitReflection records the mandatory reflection on a broken milestone,
// clearing the block on new locks. The milestone stays broken; a reflected
// broken milestone is terminal.
func (s *MilestoneService) SubmitReflection(userID, goalID, id string, in integrity.ReflectionInput) (*model.Reflection, error) {
	_, err := s.goalRepo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.ByID(goalID, id)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	reflection, err := integrity.BuildReflection(*m, in, uuid.New().String(), time.Now())
	if err != nil {
		return nil, err
	}

	err = s.reflectionRepo.Create(&reflection)
	if errors.Is(err, repository.ErrReflectionExists) {
		return nil, integrity.InvalidState("this milestone has already been reflected on")
	}
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	return &reflection, nil
}

func (s *MilestoneService) ReflectionByMilestone(userID, goalID, id string) (*model.Reflection, error) {
	_, err := s.goalRepo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	return s.reflectionRepo.ByMilestoneID(id)
}

func (s *MilestoneService) activeGoal(userID, goalID string) (*model.Goal, error) {
	goal, err := s.goalRepo.ByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.IsActive() {
		return nil, integrity.InvalidState("this goal is no longer active")
	}
	return goal, nil
}

func (s *MilestoneService) completeGoalIfFinished(userID string, goal *model.Goal, result *ResolveResult) error {
	milestones, err := s.repo.Milestones(goal.ID)
	if err != nil {
		return integrity.WrapStore(err)
	}
	if len(milestones) == 0 {
		return nil
	}

	for _, m := range milestones {
		if m.Status != model.MilestoneStatusKept {
			return nil
		}
	}

	goal.Status = model.GoalStatusCompleted
	user, bonusChange, err := s.integrityService.ApplyGoalBonus(userID, goal)
	if err != nil {
		return err
	}

	goal.UpdatedAt = time.Now()
	err = s.goalRepo.Update(goal)
	if err != nil {
		return integrity.WrapStore(err)
	}

	result.User = user
	result.GoalCompleted = true
	result.BonusTierChange = bonusChange

	slog.Info("goal completed", "goal_id", goal.ID, "user_id", userID)
	return nil
}

func (s *MilestoneService) renumberAll(goalID string) error {
	milestones, err := s.repo.Milestones(goalID)
	if err != nil {
		return integrity.WrapStore(err)
	}

	renumbered := integrity.Renumber(milestones)
	err = s.repo.SaveNumbers(renumbered)
	if err != nil {
		return integrity.WrapStore(err)
	}

	return nil
}

// generateShareID mints the public capability token for a locked milestone.
// The share_id column is unique, so a collision (vanishingly unlikely at 16
// random bytes) would fail the insert rather than leak another milestone.
func generateShareID() (string, error) {
	bytes := make([]byte, 16)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
