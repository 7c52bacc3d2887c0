package service

import (
	"sort"
	"sync"
	"time"

	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/repository"
)

// store is a shared in-memory backend for the fake repositories, so derived
// reads (has_reflection, streaks) see the same data the writes produced.
type store struct {
	mu          sync.Mutex
	users       map[string]model.User
	goals       map[string]model.Goal
	milestones  map[string]model.Milestone
	reflections map[string]model.Reflection // keyed by milestone ID
}

func newStore() *store {
	return &store{
		users:       make(map[string]model.User),
		goals:       make(map[string]model.Goal),
		milestones:  make(map[string]model.Milestone),
		reflections: make(map[string]model.Reflection),
	}
}

func (s *store) withReflection(m model.Milestone) model.Milestone {
	_, ok := s.reflections[m.ID]
	m.HasReflection = ok
	return m
}

func (s *store) userGoalIDs(userID string) map[string]bool {
	ids := make(map[string]bool)
	for _, g := range s.goals {
		if g.UserID == userID {
			ids[g.ID] = true
		}
	}
	return ids
}

type fakeUserRepo struct{ s *store }

func (r *fakeUserRepo) Create(u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) ByID(id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) ByEmail(email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Update(u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) UpdateScore(u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.IntegrityScore = u.IntegrityScore
	stored.ConsecutiveBreaks = u.ConsecutiveBreaks
	r.s.users[u.ID] = stored
	return nil
}

func (r *fakeUserRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

type fakeGoalRepo struct{ s *store }

func (r *fakeGoalRepo) Create(g *model.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.goals[g.ID] = *g
	return nil
}

func (r *fakeGoalRepo) ByID(userID, goalID string) (*model.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, repository.ErrGoalNotFound
	}
	return &g, nil
}

func (r *fakeGoalRepo) ByGoalID(goalID string) (*model.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[goalID]
	if !ok {
		return nil, repository.ErrGoalNotFound
	}
	return &g, nil
}

func (r *fakeGoalRepo) Goals(userID string) ([]*model.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Goal
	for _, g := range r.s.goals {
		if g.UserID == userID {
			goal := g
			out = append(out, &goal)
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) ActiveGoal(userID string) (*model.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.goals {
		if g.UserID == userID && g.Status == model.GoalStatusActive {
			goal := g
			return &goal, nil
		}
	}
	return nil, repository.ErrGoalNotFound
}

func (r *fakeGoalRepo) CountCompleted(userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, g := range r.s.goals {
		if g.UserID == userID && g.Status == model.GoalStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeGoalRepo) Update(g *model.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.goals[g.ID]
	if !ok || stored.UserID != g.UserID {
		return repository.ErrGoalNotFound
	}
	r.s.goals[g.ID] = *g
	return nil
}

func (r *fakeGoalRepo) Delete(userID, goalID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[goalID]
	if !ok || g.UserID != userID {
		return repository.ErrGoalNotFound
	}
	delete(r.s.goals, goalID)
	return nil
}

type fakeMilestoneRepo struct{ s *store }

func (r *fakeMilestoneRepo) Create(m *model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.milestones[m.ID] = *m
	return nil
}

func (r *fakeMilestoneRepo) ByID(goalID, id string) (*model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.milestones[id]
	if !ok || m.GoalID != goalID {
		return nil, repository.ErrMilestoneNotFound
	}
	m = r.s.withReflection(m)
	return &m, nil
}

func (r *fakeMilestoneRepo) ByShareID(shareID string) (*model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.milestones {
		if m.ShareID != nil && *m.ShareID == shareID {
			m = r.s.withReflection(m)
			return &m, nil
		}
	}
	return nil, repository.ErrMilestoneNotFound
}

func (r *fakeMilestoneRepo) Milestones(goalID string) ([]model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Milestone
	for _, m := range r.s.milestones {
		if m.GoalID == goalID {
			out = append(out, r.s.withReflection(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeMilestoneRepo) LockedPastDeadline(now time.Time) ([]model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Milestone
	for _, m := range r.s.milestones {
		if m.Status == model.MilestoneStatusLocked && m.Deadline != nil && m.Deadline.Before(now) {
			out = append(out, r.s.withReflection(m))
		}
	}
	return out, nil
}

func (r *fakeMilestoneRepo) Update(m *model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.milestones[m.ID]
	if !ok || stored.Status != model.MilestoneStatusPlanned {
		return repository.ErrMilestoneStale
	}
	stored.Title = m.Title
	r.s.milestones[m.ID] = stored
	return nil
}

// UpdateStatus mirrors the production compare-and-set: the write only lands
// if the stored status matches the caller's expectation.
func (r *fakeMilestoneRepo) UpdateStatus(m *model.Milestone, expectedStatus string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.milestones[m.ID]
	if !ok || stored.Status != expectedStatus {
		return repository.ErrMilestoneStale
	}
	r.s.milestones[m.ID] = *m
	return nil
}

func (r *fakeMilestoneRepo) SaveNumbers(ms []model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range ms {
		stored, ok := r.s.milestones[m.ID]
		if !ok {
			return repository.ErrMilestoneNotFound
		}
		stored.Number = m.Number
		r.s.milestones[m.ID] = stored
	}
	return nil
}

func (r *fakeMilestoneRepo) Delete(goalID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.milestones[id]
	if !ok || m.GoalID != goalID || m.Status != model.MilestoneStatusPlanned {
		return repository.ErrMilestoneStale
	}
	delete(r.s.milestones, id)
	return nil
}

func (r *fakeMilestoneRepo) DeleteUnresolved(goalID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.milestones {
		if m.GoalID == goalID && (m.Status == model.MilestoneStatusPlanned || m.Status == model.MilestoneStatusLocked) {
			delete(r.s.milestones, id)
		}
	}
	return nil
}

func (r *fakeMilestoneRepo) IncrementWitnesses(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.milestones[id]
	if !ok {
		return repository.ErrMilestoneNotFound
	}
	m.WitnessCount++
	r.s.milestones[id] = m
	return nil
}

func (r *fakeMilestoneRepo) CountKept(userID string) (int, error) {
	return r.countByStatus(userID, model.MilestoneStatusKept), nil
}

func (r *fakeMilestoneRepo) CountBroken(userID string) (int, error) {
	return r.countByStatus(userID, model.MilestoneStatusBroken), nil
}

func (r *fakeMilestoneRepo) countByStatus(userID, status string) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	goalIDs := r.s.userGoalIDs(userID)
	count := 0
	for _, m := range r.s.milestones {
		if goalIDs[m.GoalID] && m.Status == status {
			count++
		}
	}
	return count
}

func (r *fakeMilestoneRepo) CurrentKeptStreak(userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	goalIDs := r.s.userGoalIDs(userID)
	var lastBreak time.Time
	for _, m := range r.s.milestones {
		if goalIDs[m.GoalID] && m.Status == model.MilestoneStatusBroken && m.BrokenAt != nil && m.BrokenAt.After(lastBreak) {
			lastBreak = *m.BrokenAt
		}
	}
	count := 0
	for _, m := range r.s.milestones {
		if goalIDs[m.GoalID] && m.Status == model.MilestoneStatusKept && m.KeptAt != nil && m.KeptAt.After(lastBreak) {
			count++
		}
	}
	return count, nil
}

func (r *fakeMilestoneRepo) SumWitnesses(userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	goalIDs := r.s.userGoalIDs(userID)
	sum := 0
	for _, m := range r.s.milestones {
		if goalIDs[m.GoalID] {
			sum += m.WitnessCount
		}
	}
	return sum, nil
}

type fakeReflectionRepo struct{ s *store }

func (r *fakeReflectionRepo) Create(refl *model.Reflection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reflections[refl.MilestoneID]; ok {
		return repository.ErrReflectionExists
	}
	r.s.reflections[refl.MilestoneID] = *refl
	return nil
}

func (r *fakeReflectionRepo) ByMilestoneID(milestoneID string) (*model.Reflection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	refl, ok := r.s.reflections[milestoneID]
	if !ok {
		return nil, repository.ErrReflectionNotFound
	}
	return &refl, nil
}
