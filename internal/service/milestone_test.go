package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
)

type testEnv struct {
	store      *store
	users      *fakeUserRepo
	goals      *fakeGoalRepo
	milestones *fakeMilestoneRepo
	goalSvc    *GoalService
	msSvc      *MilestoneService

	userID string
	goalID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := newStore()
	users := &fakeUserRepo{s: s}
	goals := &fakeGoalRepo{s: s}
	milestones := &fakeMilestoneRepo{s: s}
	reflections := &fakeReflectionRepo{s: s}

	emailSvc := NewEmailService("", "noreply@example.com", "http://localhost:8090", "Shift Ascent", true)
	integritySvc := NewIntegrityService(users)
	goalSvc := NewGoalService(goals, milestones)
	msSvc := NewMilestoneService(milestones, goals, reflections, users, integritySvc, emailSvc)

	user := model.User{
		ID:             uuid.New().String(),
		Email:          "ana@example.com",
		Name:           "Ana",
		IntegrityScore: model.DefaultIntegrityScore,
		CreatedAt:      time.Now(),
	}
	s.users[user.ID] = user

	goal, err := goalSvc.Create(user.ID, "Ship the side project", "")
	require.NoError(t, err)

	return &testEnv{
		store:      s,
		users:      users,
		goals:      goals,
		milestones: milestones,
		goalSvc:    goalSvc,
		msSvc:      msSvc,
		userID:     user.ID,
		goalID:     goal.ID,
	}
}

func (e *testEnv) score(t *testing.T) int {
	t.Helper()
	user, err := e.users.ByID(e.userID)
	require.NoError(t, err)
	return user.IntegrityScore
}

// seedMilestone inserts a milestone row directly, bypassing the state
// machine, so tests can start from locked or resolved states.
func (e *testEnv) seedMilestone(m model.Milestone) model.Milestone {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.GoalID = e.goalID
	e.store.milestones[m.ID] = m
	return m
}

func futureDraft(text string) integrity.PromiseDraft {
	return integrity.PromiseDraft{
		Text:     text,
		Deadline: time.Now().Add(24 * time.Hour),
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	e := newTestEnv(t)

	first, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)
	second, err := e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)

	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, model.MilestoneStatusPlanned, first.Status)
}

func TestLockBindsPromise(t *testing.T) {
	e := newTestEnv(t)
	m, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)

	locked, err := e.msSvc.Lock(e.userID, e.goalID, m.ID, integrity.PromiseDraft{
		Text:        "Outline done by tomorrow evening",
		Deadline:    time.Now().Add(24 * time.Hour),
		Consequence: "Donate $50 to a cause I dislike",
	})
	require.NoError(t, err)

	assert.Equal(t, model.MilestoneStatusLocked, locked.Status)
	require.NotNil(t, locked.ShareID)
	assert.Len(t, *locked.ShareID, 32)
	require.NotNil(t, locked.PromiseText)
	assert.Equal(t, "Outline done by tomorrow evening", *locked.PromiseText)
	require.NotNil(t, locked.LockedAt)
}

func TestLockConflictsWithLockedSibling(t *testing.T) {
	e := newTestEnv(t)
	first, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)
	second, err := e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)

	_, err = e.msSvc.Lock(e.userID, e.goalID, first.ID, futureDraft("Outline by tomorrow"))
	require.NoError(t, err)

	_, err = e.msSvc.Lock(e.userID, e.goalID, second.ID, futureDraft("Chapter by Friday"))
	assert.True(t, integrity.IsKind(err, integrity.KindConflict))
}

func TestLockBlockedByUnreflectedBreak(t *testing.T) {
	e := newTestEnv(t)
	brokenAt := time.Now().Add(-time.Hour)
	e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status:   model.MilestoneStatusBroken,
		BrokenAt: &brokenAt,
	})
	planned, err := e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)

	_, err = e.msSvc.Lock(e.userID, e.goalID, planned.ID, futureDraft("Chapter by Friday"))
	assert.True(t, integrity.IsKind(err, integrity.KindConflict))
}

func TestMarkKeptRewardsScore(t *testing.T) {
	e := newTestEnv(t)
	m, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)
	_, err = e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)
	_, err = e.msSvc.Lock(e.userID, e.goalID, m.ID, futureDraft("Outline by tomorrow"))
	require.NoError(t, err)

	result, err := e.msSvc.MarkKept(e.userID, e.goalID, m.ID)
	require.NoError(t, err)

	assert.Equal(t, model.MilestoneStatusKept, result.Milestone.Status)
	assert.Equal(t, 52, result.User.IntegrityScore)
	assert.Equal(t, 0, result.User.ConsecutiveBreaks)
	assert.False(t, result.GoalCompleted)
	assert.Equal(t, 52, e.score(t))
}

func TestMarkKeptAfterDeadlineRejected(t *testing.T) {
	e := newTestEnv(t)
	past := time.Now().Add(-time.Hour)
	text := "Outline by yesterday"
	m := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status:      model.MilestoneStatusLocked,
		PromiseText: &text,
		Deadline:    &past,
	})

	_, err := e.msSvc.MarkKept(e.userID, e.goalID, m.ID)
	assert.True(t, integrity.IsKind(err, integrity.KindDeadlineExpired))
	assert.Equal(t, model.DefaultIntegrityScore, e.score(t))
}

func TestMarkBrokenEscalatesPenalty(t *testing.T) {
	e := newTestEnv(t)
	future := time.Now().Add(24 * time.Hour)
	first := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusLocked, Deadline: &future,
	})
	second := e.seedMilestone(model.Milestone{
		Number: 2, Title: "Draft chapter one",
		Status: model.MilestoneStatusLocked, Deadline: &future,
	})

	result, err := e.msSvc.MarkBroken(e.userID, e.goalID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, result.User.IntegrityScore)
	assert.Equal(t, 1, result.User.ConsecutiveBreaks)
	assert.False(t, result.Milestone.AutoExpired)

	result, err = e.msSvc.MarkBroken(e.userID, e.goalID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, result.User.IntegrityScore)
	assert.Equal(t, 2, result.User.ConsecutiveBreaks)
}

func TestDoubleResolveConflicts(t *testing.T) {
	e := newTestEnv(t)
	m, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)
	_, err = e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)
	_, err = e.msSvc.Lock(e.userID, e.goalID, m.ID, futureDraft("Outline by tomorrow"))
	require.NoError(t, err)

	_, err = e.msSvc.MarkKept(e.userID, e.goalID, m.ID)
	require.NoError(t, err)

	// The second resolve sees a terminal milestone.
	_, err = e.msSvc.MarkBroken(e.userID, e.goalID, m.ID)
	assert.True(t, integrity.IsKind(err, integrity.KindInvalidState))
	assert.Equal(t, 52, e.score(t))
}

func TestFinalKeptMilestoneCompletesGoal(t *testing.T) {
	e := newTestEnv(t)
	keptAt := time.Now().Add(-time.Hour)
	e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusKept, KeptAt: &keptAt,
	})
	last, err := e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)
	_, err = e.msSvc.Lock(e.userID, e.goalID, last.ID, futureDraft("Chapter by Friday"))
	require.NoError(t, err)

	result, err := e.msSvc.MarkKept(e.userID, e.goalID, last.ID)
	require.NoError(t, err)

	assert.True(t, result.GoalCompleted)
	// +2 for the kept promise, +10 completion bonus.
	assert.Equal(t, 62, result.User.IntegrityScore)
	assert.Equal(t, 62, e.score(t))

	goal, err := e.goals.ByGoalID(e.goalID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, goal.Status)
	assert.True(t, goal.BonusAwarded())
}

func TestReflectionUnblocksLocking(t *testing.T) {
	e := newTestEnv(t)
	brokenAt := time.Now().Add(-time.Hour)
	broken := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusBroken, BrokenAt: &brokenAt,
	})
	planned, err := e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)

	_, err = e.msSvc.Lock(e.userID, e.goalID, planned.ID, futureDraft("Chapter by Friday"))
	require.True(t, integrity.IsKind(err, integrity.KindConflict))

	_, err = e.msSvc.SubmitReflection(e.userID, e.goalID, broken.ID, integrity.ReflectionInput{
		WhyFailed:        "I underestimated how long research takes",
		WhatWasInControl: "I could have started three days earlier",
		WhatWillChange:   "I will block mornings before checking email",
	})
	require.NoError(t, err)

	_, err = e.msSvc.Lock(e.userID, e.goalID, planned.ID, futureDraft("Chapter by Friday"))
	assert.NoError(t, err)
}

func TestReflectionRequiresProofForRealConsequence(t *testing.T) {
	e := newTestEnv(t)
	brokenAt := time.Now().Add(-time.Hour)
	consequence := "Donate $50 to a cause I dislike"
	broken := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusBroken, BrokenAt: &brokenAt,
		Consequence: &consequence,
	})

	input := integrity.ReflectionInput{
		WhyFailed:        "I underestimated how long research takes",
		WhatWasInControl: "I could have started three days earlier",
		WhatWillChange:   "I will block mornings before checking email",
	}
	_, err := e.msSvc.SubmitReflection(e.userID, e.goalID, broken.ID, input)
	require.True(t, integrity.IsKind(err, integrity.KindValidation))

	input.ConsequenceProof = "Receipt attached, donated $50 on Tuesday morning"
	input.ConsequenceProofType = model.ProofTypeText
	refl, err := e.msSvc.SubmitReflection(e.userID, e.goalID, broken.ID, input)
	require.NoError(t, err)
	require.NotNil(t, refl.ConsequenceProof)
	assert.True(t, strings.HasPrefix(*refl.ConsequenceProof, "Receipt"))
}

func TestReflectionDoubleSubmitRejected(t *testing.T) {
	e := newTestEnv(t)
	brokenAt := time.Now().Add(-time.Hour)
	broken := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusBroken, BrokenAt: &brokenAt,
	})

	input := integrity.ReflectionInput{
		WhyFailed:        "I underestimated how long research takes",
		WhatWasInControl: "I could have started three days earlier",
		WhatWillChange:   "I will block mornings before checking email",
	}
	_, err := e.msSvc.SubmitReflection(e.userID, e.goalID, broken.ID, input)
	require.NoError(t, err)

	_, err = e.msSvc.SubmitReflection(e.userID, e.goalID, broken.ID, input)
	assert.True(t, integrity.IsKind(err, integrity.KindInvalidState))
}

func TestRenameOnlyWhilePlanned(t *testing.T) {
	e := newTestEnv(t)
	m, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)

	renamed, err := e.msSvc.Rename(e.userID, e.goalID, m.ID, "Write the full outline")
	require.NoError(t, err)
	assert.Equal(t, "Write the full outline", renamed.Title)

	_, err = e.msSvc.Lock(e.userID, e.goalID, m.ID, futureDraft("Outline by tomorrow"))
	require.NoError(t, err)

	_, err = e.msSvc.Rename(e.userID, e.goalID, m.ID, "Changed my mind")
	assert.True(t, integrity.IsKind(err, integrity.KindInvalidState))
}

func TestDeleteRenumbersRemaining(t *testing.T) {
	e := newTestEnv(t)
	first, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)
	_, err = e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)
	third, err := e.msSvc.Create(e.userID, e.goalID, "Edit the draft")
	require.NoError(t, err)

	err = e.msSvc.Delete(e.userID, e.goalID, first.ID)
	require.NoError(t, err)

	remaining, err := e.milestones.Milestones(e.goalID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, 1, remaining[0].Number)
	assert.Equal(t, 2, remaining[1].Number)
	assert.Equal(t, third.ID, remaining[1].ID)
}

func TestReorderKeepsResolvedInPlace(t *testing.T) {
	e := newTestEnv(t)
	keptAt := time.Now().Add(-time.Hour)
	kept := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusKept, KeptAt: &keptAt,
	})
	a, err := e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)
	b, err := e.msSvc.Create(e.userID, e.goalID, "Edit the draft")
	require.NoError(t, err)

	reordered, err := e.msSvc.Reorder(e.userID, e.goalID, []string{b.ID, a.ID})
	require.NoError(t, err)

	require.Len(t, reordered, 3)
	assert.Equal(t, kept.ID, reordered[0].ID)
	assert.Equal(t, b.ID, reordered[1].ID)
	assert.Equal(t, a.ID, reordered[2].ID)
	for i, m := range reordered {
		assert.Equal(t, i+1, m.Number)
	}
}

func TestReorderRejectsResolvedIDs(t *testing.T) {
	e := newTestEnv(t)
	keptAt := time.Now().Add(-time.Hour)
	kept := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusKept, KeptAt: &keptAt,
	})
	a, err := e.msSvc.Create(e.userID, e.goalID, "Draft chapter one")
	require.NoError(t, err)

	_, err = e.msSvc.Reorder(e.userID, e.goalID, []string{kept.ID, a.ID})
	assert.Error(t, err)
}

func TestExpireLockedAppliesAutoBreak(t *testing.T) {
	e := newTestEnv(t)
	past := time.Now().Add(-time.Hour)
	text := "Outline by yesterday"
	m := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusLocked, PromiseText: &text, Deadline: &past,
	})

	now := time.Now()
	err := e.msSvc.ExpireLocked(*e.milestones.mustGet(m.ID), now)
	require.NoError(t, err)

	stored := e.milestones.mustGet(m.ID)
	assert.Equal(t, model.MilestoneStatusBroken, stored.Status)
	assert.True(t, stored.AutoExpired)
	assert.Equal(t, 40, e.score(t))

	// A redundant sweep pass is a no-op: the compare-and-set already lost.
	err = e.msSvc.ExpireLocked(m, now)
	require.NoError(t, err)
	assert.Equal(t, 40, e.score(t))
}

func TestAbandonedGoalRejectsResolution(t *testing.T) {
	e := newTestEnv(t)
	m, err := e.msSvc.Create(e.userID, e.goalID, "Write the outline")
	require.NoError(t, err)

	_, err = e.goalSvc.Abandon(e.userID, e.goalID)
	require.NoError(t, err)

	_, err = e.msSvc.Lock(e.userID, e.goalID, m.ID, futureDraft("Outline by tomorrow"))
	assert.True(t, integrity.IsKind(err, integrity.KindInvalidState))
}

// mustGet reads a milestone straight from the store for assertions.
func (r *fakeMilestoneRepo) mustGet(id string) *model.Milestone {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.s.withReflection(r.s.milestones[id])
	return &m
}
