package integrity

import (
	"time"

	"github.com/shiftascent/shiftascent/internal/model"
)

// Score deltas. Breaking promises back to back escalates the penalty.
const (
	keptDelta         = KeptPromiseDelta
	firstBreakDelta   = -10
	secondBreakDelta  = -15
	chronicBreakDelta = -20
	goalBonusDelta    = 10
)

// TierChange reports a score mutation that crossed a band boundary. The
// core's contract is to detect and report the transition; rendering it is
// the caller's concern.
type TierChange struct {
	From      Tier
	To        Tier
	Direction string // "up" or "down"
}

func tierChange(oldScore, newScore int) *TierChange {
	from := TierFor(oldScore)
	to := TierFor(newScore)
	if from.ID == to.ID {
		return nil
	}
	direction := "up"
	if newScore < oldScore {
		direction = "down"
	}
	return &TierChange{From: from, To: to, Direction: direction}
}

// OnKept rewards a kept promise and resets the break streak.
func OnKept(u model.User) (model.User, *TierChange) {
	old := u.IntegrityScore
	u.IntegrityScore = clampScore(old + keptDelta)
	u.ConsecutiveBreaks = 0
	return u, tierChange(old, u.IntegrityScore)
}

// OnBroken penalizes a broken promise. Consecutive breaks escalate:
// -10, then -15, then -20 for every break after that.
func OnBroken(u model.User) (model.User, *TierChange) {
	old := u.IntegrityScore
	n := u.ConsecutiveBreaks + 1

	delta := chronicBreakDelta
	switch n {
	case 1:
		delta = firstBreakDelta
	case 2:
		delta = secondBreakDelta
	}

	u.IntegrityScore = clampScore(old + delta)
	u.ConsecutiveBreaks = n
	return u, tierChange(old, u.IntegrityScore)
}

// OnGoalCompleted applies the one-time completion bonus. The goal's
// BonusAwardedAt timestamp is the idempotency marker: a second call for the
// same goal is a no-op.
func OnGoalCompleted(u model.User, g model.Goal, now time.Time) (model.User, model.Goal, *TierChange) {
	if g.BonusAwarded() {
		return u, g, nil
	}

	old := u.IntegrityScore
	u.IntegrityScore = clampScore(old + goalBonusDelta)
	awardedAt := now
	g.BonusAwardedAt = &awardedAt
	return u, g, tierChange(old, u.IntegrityScore)
}
