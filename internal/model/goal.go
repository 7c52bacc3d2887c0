package model

import (
	"time"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusAbandoned = "abandoned"
)

type Goal struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	Status         string     `db:"status"`
	BonusAwardedAt *time.Time `db:"bonus_awarded_at"` // Set exactly once when the completion bonus is applied
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (g *Goal) IsActive() bool {
	return g.Status == GoalStatusActive
}

func (g *Goal) BonusAwarded() bool {
	return g.BonusAwardedAt != nil
}
