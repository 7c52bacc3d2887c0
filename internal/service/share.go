package service

import (
	"log/slog"
	"time"

	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/markdown"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
)

// ShareService serves the public promise page. The share ID is an unguessable
// capability minted at lock time; nothing else about the account leaks.
type ShareService struct {
	milestoneRepo repository.MilestoneRepository
	goalRepo      repository.GoalRepository
	userRepo      repository.UserRepository
	markdown      *markdown.Renderer
}

func NewShareService(
	milestoneRepo repository.MilestoneRepository,
	goalRepo repository.GoalRepository,
	userRepo repository.UserRepository,
	md *markdown.Renderer,
) *ShareService {
	return &ShareService{
		milestoneRepo: milestoneRepo,
		goalRepo:      goalRepo,
		userRepo:      userRepo,
		markdown:      md,
	}
}

// SharedPromise is the public projection of a locked or resolved milestone.
type SharedPromise struct {
	Title           string     `json:"title"`
	PromiseText     string     `json:"promiseText"`
	Status          string     `json:"status"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	SecondsLeft     int64      `json:"secondsLeft"`
	ConsequenceHTML string     `json:"consequenceHtml,omitempty"`
	AutoExpired     bool       `json:"autoExpired"`
	WitnessCount    int        `json:"witnessCount"`
	OwnerName       string     `json:"ownerName"`
	OwnerScore      int        `json:"ownerScore"`
	OwnerTier       string     `json:"ownerTier"`
	OwnerPercentile int        `json:"ownerPercentile"`
}

// ByShareID resolves a share token to its public projection. Planned
// milestones have no share ID yet, so anything found here is at least locked.
func (s *ShareService) ByShareID(shareID string) (*SharedPromise, error) {
	m, err := s.milestoneRepo.ByShareID(shareID)
	if err != nil {
		return nil, err
	}

	goal, err := s.goalRepo.ByGoalID(m.GoalID)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	owner, err := s.userRepo.ByID(goal.UserID)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	shared := &SharedPromise{
		Title:           m.Title,
		Status:          m.Status,
		Deadline:        m.Deadline,
		AutoExpired:     m.AutoExpired,
		WitnessCount:    m.WitnessCount,
		OwnerName:       owner.Name,
		OwnerScore:      owner.IntegrityScore,
		OwnerTier:       integrity.TierFor(owner.IntegrityScore).Name,
		OwnerPercentile: integrity.Percentile(owner.IntegrityScore),
	}

	if m.PromiseText != nil {
		shared.PromiseText = *m.PromiseText
	}
	if m.Status == model.MilestoneStatusLocked && m.Deadline != nil {
		if left := time.Until(*m.Deadline); left > 0 {
			shared.SecondsLeft = int64(left.Seconds())
		}
	}
	if m.HasConsequence() {
		html, err := s.markdown.Render(*m.Consequence)
		if err != nil {
			slog.Warn("failed to render consequence markdown", "error", err, "milestone_id", m.ID)
		} else {
			shared.ConsequenceHTML = html
		}
	}

	return shared, nil
}

// Witness counts a visit by someone who chose to watch the promise. Best
// effort and unauthenticated; repeat visits are not deduplicated.
func (s *ShareService) Witness(shareID string) error {
	m, err := s.milestoneRepo.ByShareID(shareID)
	if err != nil {
		return err
	}
	return s.milestoneRepo.IncrementWitnesses(m.ID)
}
