package integrity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftascent/shiftascent/internal/model"
)

func userAt(score int) model.User {
	return model.User{ID: "u-1", IntegrityScore: score}
}

func TestOnKept(t *testing.T) {
	u, change := OnKept(userAt(50))
	assert.Equal(t, 52, u.IntegrityScore)
	assert.Equal(t, 0, u.ConsecutiveBreaks)
	assert.Nil(t, change, "52 stays inside the rising band")
}

func TestOnKeptClampsAt100(t *testing.T) {
	u, _ := OnKept(userAt(99))
	assert.Equal(t, 100, u.IntegrityScore)

	u, change := OnKept(userAt(100))
	assert.Equal(t, 100, u.IntegrityScore)
	assert.Nil(t, change)
}

func TestConsecutiveBreakEscalation(t *testing.T) {
	// Three consecutive breaks from 50: -10, -15, -20 -> 40, 25, 5.
	u := userAt(50)

	u, _ = OnBroken(u)
	assert.Equal(t, 40, u.IntegrityScore)
	assert.Equal(t, 1, u.ConsecutiveBreaks)

	u, _ = OnBroken(u)
	assert.Equal(t, 25, u.IntegrityScore)
	assert.Equal(t, 2, u.ConsecutiveBreaks)

	u, _ = OnBroken(u)
	assert.Equal(t, 5, u.IntegrityScore)
	assert.Equal(t, 3, u.ConsecutiveBreaks)

	// A fourth break stays at the chronic penalty and clamps at 0.
	u, _ = OnBroken(u)
	assert.Equal(t, 0, u.IntegrityScore)
	assert.Equal(t, 4, u.ConsecutiveBreaks)

	// Keeping a promise resets the streak.
	u, _ = OnKept(u)
	assert.Equal(t, 2, u.IntegrityScore)
	assert.Equal(t, 0, u.ConsecutiveBreaks)

	// The next break is a first break again.
	u, _ = OnBroken(u)
	assert.Equal(t, 0, u.IntegrityScore)
	assert.Equal(t, 1, u.ConsecutiveBreaks)
}

func TestOnBrokenTierChangeEvent(t *testing.T) {
	// 50 -> 40 stays within rising (40-54): no event.
	_, change := OnBroken(userAt(50))
	assert.Nil(t, change)

	// 45 -> 35 crosses rising -> mending.
	_, change = OnBroken(userAt(45))
	require.NotNil(t, change)
	assert.Equal(t, "rising", change.From.ID)
	assert.Equal(t, "mending", change.To.ID)
	assert.Equal(t, "down", change.Direction)
}

func TestOnKeptTierChangeEvent(t *testing.T) {
	// 54 -> 56 crosses rising -> steady.
	_, change := OnKept(userAt(54))
	require.NotNil(t, change)
	assert.Equal(t, "rising", change.From.ID)
	assert.Equal(t, "steady", change.To.ID)
	assert.Equal(t, "up", change.Direction)
}

func TestOnGoalCompletedBonusOnce(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	g := model.Goal{ID: "g-1", Status: model.GoalStatusCompleted}

	u, g, change := OnGoalCompleted(userAt(50), g, now)
	assert.Equal(t, 60, u.IntegrityScore)
	require.NotNil(t, g.BonusAwardedAt)
	require.NotNil(t, change)
	assert.Equal(t, "steady", change.To.ID)

	// Replaying the same completed goal is a no-op.
	u2, g2, change2 := OnGoalCompleted(u, g, now.Add(time.Hour))
	assert.Equal(t, 60, u2.IntegrityScore)
	assert.True(t, g2.BonusAwardedAt.Equal(*g.BonusAwardedAt))
	assert.Nil(t, change2)
}

func TestOnGoalCompletedClamps(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	u, _, _ := OnGoalCompleted(userAt(95), model.Goal{ID: "g-1"}, now)
	assert.Equal(t, 100, u.IntegrityScore)
}
