package model

import (
	"time"
)

const (
	MilestoneStatusPlanned = "planned"
	MilestoneStatusLocked  = "locked"
	MilestoneStatusKept    = "kept"
	MilestoneStatusBroken  = "broken"
)

type Milestone struct {
	ID     string `db:"id"`
	GoalID string `db:"goal_id"`
	Number int    `db:"number"` // 1-based dense order within the goal
	Title  string `db:"title"`
	Status string `db:"status"`

	// Promise fields, set exactly once at lock time and immutable after.
	PromiseText *string    `db:"promise_text"`
	Deadline    *time.Time `db:"deadline"`
	Consequence *string    `db:"consequence"`
	LockedAt    *time.Time `db:"locked_at"`

	KeptAt       *time.Time `db:"kept_at"`
	BrokenAt     *time.Time `db:"broken_at"`
	AutoExpired  bool       `db:"auto_expired"`
	ShareID      *string    `db:"share_id"`
	WitnessCount int        `db:"witness_count"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Computed from the reflections table, not a column.
	HasReflection bool `db:"has_reflection"`
}

func (m *Milestone) IsLocked() bool {
	return m.Status == MilestoneStatusLocked
}

func (m *Milestone) IsTerminal() bool {
	return m.Status == MilestoneStatusKept || m.Status == MilestoneStatusBroken
}

// NeedsReflection is derived, never stored: a broken milestone that has not
// been reflected on yet. It blocks new locks on the same goal.
func (m *Milestone) NeedsReflection() bool {
	return m.Status == MilestoneStatusBroken && !m.HasReflection
}

// HasConsequence reports whether the locked promise carries a real,
// non-default consequence. A real consequence requires proof at reflection.
func (m *Milestone) HasConsequence() bool {
	return m.Consequence != nil && *m.Consequence != "" && *m.Consequence != DefaultConsequence
}

// DefaultConsequence is the placeholder used when the user declines to set a
// self-imposed consequence at lock time.
const DefaultConsequence = "none"
