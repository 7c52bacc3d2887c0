package service

import (
	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
)

// StatsService assembles the dashboard projection: score, tier, streak,
// achievements. Everything here is derived from the canonical tables on
// read; nothing is cached or stored.
type StatsService struct {
	userRepo      repository.UserRepository
	goalRepo      repository.GoalRepository
	milestoneRepo repository.MilestoneRepository
}

func NewStatsService(
	userRepo repository.UserRepository,
	goalRepo repository.GoalRepository,
	milestoneRepo repository.MilestoneRepository,
) *StatsService {
	return &StatsService{
		userRepo:      userRepo,
		goalRepo:      goalRepo,
		milestoneRepo: milestoneRepo,
	}
}

// Dashboard is the full standing of a user at a point in time.
type Dashboard struct {
	User               *model.User
	Tier               integrity.Tier
	NextTier           *integrity.Tier
	ProgressToNextTier int
	PromisesToNextTier int
	Percentile         int
	Stats              integrity.Stats
	FireLevel          integrity.FireLevel
	Achievements       []integrity.Achievement
}

func (s *StatsService) Dashboard(userID string) (*Dashboard, error) {
	user, err := s.userRepo.ByID(userID)
	if err != nil {
		return nil, integrity.WrapStore(err)
	}

	stats, err := s.stats(userID)
	if err != nil {
		return nil, err
	}

	score := user.IntegrityScore
	return &Dashboard{
		User:               user,
		Tier:               integrity.TierFor(score),
		NextTier:           integrity.NextTier(score),
		ProgressToNextTier: integrity.ProgressToNextTier(score),
		PromisesToNextTier: integrity.PromisesToNextTier(score),
		Percentile:         integrity.Percentile(score),
		Stats:              stats,
		FireLevel:          integrity.StreakFireLevel(stats.CurrentStreak),
		Achievements:       integrity.UnlockedAchievements(stats),
	}, nil
}

func (s *StatsService) stats(userID string) (integrity.Stats, error) {
	var stats integrity.Stats
	var err error

	stats.TotalKept, err = s.milestoneRepo.CountKept(userID)
	if err != nil {
		return stats, integrity.WrapStore(err)
	}
	stats.TotalBroken, err = s.milestoneRepo.CountBroken(userID)
	if err != nil {
		return stats, integrity.WrapStore(err)
	}
	stats.CurrentStreak, err = s.milestoneRepo.CurrentKeptStreak(userID)
	if err != nil {
		return stats, integrity.WrapStore(err)
	}
	stats.GoalsCompleted, err = s.goalRepo.CountCompleted(userID)
	if err != nil {
		return stats, integrity.WrapStore(err)
	}
	stats.TotalWitnesses, err = s.milestoneRepo.SumWitnesses(userID)
	if err != nil {
		return stats, integrity.WrapStore(err)
	}

	return stats, nil
}
