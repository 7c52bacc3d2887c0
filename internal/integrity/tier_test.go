package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiersPartitionFullRange(t *testing.T) {
	// Every integer score maps to exactly one band: no gaps, no overlap.
	for score := 0; score <= 100; score++ {
		matches := 0
		for _, tier := range Tiers {
			if score >= tier.Min && score <= tier.Max {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "score %d must match exactly one band", score)
	}
}

func TestTiersOrderedAndContiguous(t *testing.T) {
	require.NotEmpty(t, Tiers)
	assert.Equal(t, 0, Tiers[0].Min)
	assert.Equal(t, 100, Tiers[len(Tiers)-1].Max)

	for i := 1; i < len(Tiers); i++ {
		assert.Equal(t, Tiers[i-1].Max+1, Tiers[i].Min,
			"band %s must start right after %s", Tiers[i].ID, Tiers[i-1].ID)
	}
}

func TestTierForClampsOutOfRange(t *testing.T) {
	assert.Equal(t, Tiers[0].ID, TierFor(-5).ID)
	assert.Equal(t, Tiers[len(Tiers)-1].ID, TierFor(250).ID)
}

func TestNextTier(t *testing.T) {
	assert.Equal(t, "mending", NextTier(0).ID)
	assert.Equal(t, "legendary", NextTier(84).ID)
	assert.Nil(t, NextTier(85))
	assert.Nil(t, NextTier(100))
}

func TestProgressToNextTierMonotoneWithinBand(t *testing.T) {
	for _, tier := range Tiers {
		prev := -1
		for score := tier.Min; score <= tier.Max; score++ {
			p := ProgressToNextTier(score)
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
			assert.GreaterOrEqual(t, p, prev, "progress must not decrease within %s", tier.ID)
			prev = p
		}
	}
}

func TestProgressToNextTierTopBand(t *testing.T) {
	for score := 85; score <= 100; score++ {
		assert.Equal(t, 100, ProgressToNextTier(score))
	}
}

func TestPromisesToNextTier(t *testing.T) {
	// From 50 the next band starts at 55: a gap of 5 at +2 per kept promise
	// needs 3 more promises.
	assert.Equal(t, 3, PromisesToNextTier(50))
	assert.Equal(t, 1, PromisesToNextTier(54))
	assert.Equal(t, 0, PromisesToNextTier(85))
	assert.Equal(t, 0, PromisesToNextTier(100))
}

func TestPercentileMonotoneNonIncreasing(t *testing.T) {
	prev := 101
	for score := 0; score <= 100; score++ {
		p := Percentile(score)
		assert.GreaterOrEqual(t, p, 1)
		assert.LessOrEqual(t, p, 100)
		assert.LessOrEqual(t, p, prev, "percentile must not rise with score (score %d)", score)
		prev = p
	}
}

func TestPercentileEndpoints(t *testing.T) {
	assert.Equal(t, 100, Percentile(0))
	assert.Equal(t, 1, Percentile(100))
}

func TestStreakFireLevel(t *testing.T) {
	assert.Equal(t, 0, StreakFireLevel(0).Level)
	assert.Equal(t, 0, StreakFireLevel(-1).Level)
	assert.Equal(t, 1, StreakFireLevel(1).Level)
	assert.Equal(t, 2, StreakFireLevel(3).Level)
	assert.Equal(t, 3, StreakFireLevel(7).Level)
	assert.Equal(t, 4, StreakFireLevel(14).Level)
	assert.Equal(t, 5, StreakFireLevel(30).Level)
	assert.Equal(t, 5, StreakFireLevel(365).Level)

	// Levels never decrease as the streak grows.
	prev := 0
	for streak := 0; streak <= 40; streak++ {
		level := StreakFireLevel(streak).Level
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestUnlockedAchievementsIdempotent(t *testing.T) {
	stats := Stats{TotalKept: 5, CurrentStreak: 5, TotalBroken: 1, GoalsCompleted: 1, TotalWitnesses: 3}

	first := UnlockedAchievements(stats)
	second := UnlockedAchievements(stats)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestUnlockedAchievementsPredicates(t *testing.T) {
	assert.Empty(t, UnlockedAchievements(Stats{}))

	got := UnlockedAchievements(Stats{TotalKept: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "first_promise", got[0].ID)

	ids := func(as []Achievement) []string {
		var out []string
		for _, a := range as {
			out = append(out, a.ID)
		}
		return out
	}

	got = UnlockedAchievements(Stats{TotalKept: 25, CurrentStreak: 10, TotalBroken: 2, GoalsCompleted: 1, TotalWitnesses: 10})
	assert.ElementsMatch(t, []string{
		"first_promise", "on_a_roll", "unstoppable", "comeback", "finisher", "iron_will", "in_the_open",
	}, ids(got))
}
