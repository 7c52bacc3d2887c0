package model

import (
	"time"
)

// DefaultIntegrityScore is the midpoint every new account starts from.
const DefaultIntegrityScore = 50

type User struct {
	ID                string     `db:"id"`
	Email             string     `db:"email"`
	PasswordHash      *string    `db:"password_hash"` // Nullable for passwordless users
	Name              string     `db:"name"`
	IntegrityScore    int        `db:"integrity_score"`
	ConsecutiveBreaks int        `db:"consecutive_breaks"`
	PendingEmail      *string    `db:"pending_email"`
	EmailVerifiedAt   *time.Time `db:"email_verified_at"`
	CreatedAt         time.Time  `db:"created_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
