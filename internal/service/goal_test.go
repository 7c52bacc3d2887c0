package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
)

func TestCreateGoalRequiresTitle(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.goalSvc.Create(e.userID, "   ", "")
	assert.True(t, integrity.IsKind(err, integrity.KindValidation))
}

func TestSingleActiveGoal(t *testing.T) {
	e := newTestEnv(t)

	// newTestEnv already created an active goal.
	_, err := e.goalSvc.Create(e.userID, "Learn the violin", "")
	assert.True(t, integrity.IsKind(err, integrity.KindConflict))

	_, err = e.goalSvc.Abandon(e.userID, e.goalID)
	require.NoError(t, err)

	goal, err := e.goalSvc.Create(e.userID, "Learn the violin", "")
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, goal.Status)
}

func TestAbandonVoidsUnresolvedKeepsHistory(t *testing.T) {
	e := newTestEnv(t)
	keptAt := time.Now().Add(-2 * time.Hour)
	brokenAt := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)
	kept := e.seedMilestone(model.Milestone{
		Number: 1, Title: "Write the outline",
		Status: model.MilestoneStatusKept, KeptAt: &keptAt,
	})
	broken := e.seedMilestone(model.Milestone{
		Number: 2, Title: "Draft chapter one",
		Status: model.MilestoneStatusBroken, BrokenAt: &brokenAt,
	})
	e.seedMilestone(model.Milestone{
		Number: 3, Title: "Edit the draft",
		Status: model.MilestoneStatusLocked, Deadline: &future,
	})
	e.seedMilestone(model.Milestone{
		Number: 4, Title: "Publish",
		Status: model.MilestoneStatusPlanned,
	})

	goal, err := e.goalSvc.Abandon(e.userID, e.goalID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusAbandoned, goal.Status)

	// Resolved milestones survive as history; planned and locked are voided.
	remaining, err := e.milestones.Milestones(e.goalID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, kept.ID, remaining[0].ID)
	assert.Equal(t, broken.ID, remaining[1].ID)

	// Abandoning costs nothing, even with a live locked promise.
	assert.Equal(t, model.DefaultIntegrityScore, e.score(t))
}

func TestAbandonTwiceRejected(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.goalSvc.Abandon(e.userID, e.goalID)
	require.NoError(t, err)

	_, err = e.goalSvc.Abandon(e.userID, e.goalID)
	assert.True(t, integrity.IsKind(err, integrity.KindInvalidState))
}

func TestUpdateOnlyActiveGoal(t *testing.T) {
	e := newTestEnv(t)
	updated, err := e.goalSvc.Update(e.userID, e.goalID, "Ship the side project v2", "bigger scope")
	require.NoError(t, err)
	assert.Equal(t, "Ship the side project v2", updated.Title)

	_, err = e.goalSvc.Abandon(e.userID, e.goalID)
	require.NoError(t, err)

	_, err = e.goalSvc.Update(e.userID, e.goalID, "Too late", "")
	assert.True(t, integrity.IsKind(err, integrity.KindInvalidState))
}
