package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shiftascent/shiftascent/internal/model"
)

var (
	ErrMilestoneNotFound = errors.New("milestone not found")

	// ErrMilestoneStale signals a failed compare-and-set: the milestone's
	// status changed between read and write (another tab or the sweep won).
	ErrMilestoneStale = errors.New("milestone status changed concurrently")
)

// selectMilestone pulls the milestone row plus the derived has_reflection
// flag, so needs-reflection is always recomputed from the canonical tables.
const selectMilestone = `
	SELECT m.*, EXISTS(SELECT 1 FROM reflections r WHERE r.milestone_id = m.id) AS has_reflection
	FROM milestones m
`

type MilestoneRepository interface {
	Create(m *model.Milestone) error
	ByID(goalID, id string) (*model.Milestone, error)
	ByShareID(shareID string) (*model.Milestone, error)
	Milestones(goalID string) ([]model.Milestone, error)
	LockedPastDeadline(now time.Time) ([]model.Milestone, error)
	Update(m *model.Milestone) error
	UpdateStatus(m *model.Milestone, expectedStatus string) error
	SaveNumbers(ms []model.Milestone) error
	Delete(goalID, id string) error
	DeleteUnresolved(goalID string) error
	IncrementWitnesses(id string) error
	CountKept(userID string) (int, error)
	CountBroken(userID string) (int, error)
	CurrentKeptStreak(userID string) (int, error)
	SumWitnesses(userID string) (int, error)
}

type milestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Create(m *model.Milestone) error {
	query := `INSERT INTO milestones (id, goal_id, number, title, status, auto_expired, witness_count, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		m.ID,
		m.GoalID,
		m.Number,
		m.Title,
		m.Status,
		m.AutoExpired,
		m.WitnessCount,
		m.CreatedAt,
		m.UpdatedAt,
	)

	return err
}

func (r *milestoneRepository) ByID(goalID, id string) (*model.Milestone, error) {
	m := &model.Milestone{}
	query := selectMilestone + `WHERE m.id = $1 AND m.goal_id = $2`

	err := r.db.Get(m, query, id, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrMilestoneNotFound
	}

	return m, err
}

func (r *milestoneRepository) ByShareID(shareID string) (*model.Milestone, error) {
	m := &model.Milestone{}
	query := selectMilestone + `WHERE m.share_id = $1`

	err := r.db.Get(m, query, shareID)
	if err == sql.ErrNoRows {
		return nil, ErrMilestoneNotFound
	}

	return m, err
}

func (r *milestoneRepository) Milestones(goalID string) ([]model.Milestone, error) {
	var ms []model.Milestone
	query := selectMilestone + `WHERE m.goal_id = $1 ORDER BY m.number ASC`

	err := r.db.Select(&ms, query, goalID)
	if err != nil {
		return nil, err
	}

	return ms, nil
}

// LockedPastDeadline lists locked milestones whose deadline has passed.
// Used by the expiry sweep.
func (r *milestoneRepository) LockedPastDeadline(now time.Time) ([]model.Milestone, error) {
	var ms []model.Milestone
	query := selectMilestone + `WHERE m.status = $1 AND m.deadline < $2`

	err := r.db.Select(&ms, query, model.MilestoneStatusLocked, now)
	if err != nil {
		return nil, err
	}

	return ms, nil
}

// Update persists title changes on planned milestones. The service layer
// guards the planned-only rule; the status predicate backs it up.
func (r *milestoneRepository) Update(m *model.Milestone) error {
	query := `UPDATE milestones SET title = $1, updated_at = $2
	          WHERE id = $3 AND status = $4`

	result, err := r.db.Exec(query, m.Title, time.Now(), m.ID, model.MilestoneStatusPlanned)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMilestoneStale
	}

	return nil
}

// UpdateStatus is the compare-and-set every transition goes through: the
// write only lands if the stored status still matches what the caller read.
// Zero rows affected means another session transitioned first.
func (r *milestoneRepository) UpdateStatus(m *model.Milestone, expectedStatus string) error {
	query := `UPDATE milestones
	          SET status = $1, promise_text = $2, deadline = $3, consequence = $4,
	              locked_at = $5, kept_at = $6, broken_at = $7, auto_expired = $8,
	              share_id = $9, updated_at = $10
	          WHERE id = $11 AND status = $12`

	result, err := r.db.Exec(query,
		m.Status,
		m.PromiseText,
		m.Deadline,
		m.Consequence,
		m.LockedAt,
		m.KeptAt,
		m.BrokenAt,
		m.AutoExpired,
		m.ShareID,
		m.UpdatedAt,
		m.ID,
		expectedStatus,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMilestoneStale
	}

	return nil
}

// SaveNumbers persists a renumbered ordering in one transaction.
func (r *milestoneRepository) SaveNumbers(ms []model.Milestone) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE milestones SET number = $1, updated_at = $2 WHERE id = $3`

	now := time.Now()
	for _, m := range ms {
		_, err := tx.Exec(query, m.Number, now, m.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *milestoneRepository) Delete(goalID, id string) error {
	query := `DELETE FROM milestones WHERE id = $1 AND goal_id = $2 AND status = $3`

	result, err := r.db.Exec(query, id, goalID, model.MilestoneStatusPlanned)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMilestoneStale
	}

	return nil
}

// DeleteUnresolved removes planned and locked milestones when their goal is
// abandoned. Kept and broken rows remain as history.
func (r *milestoneRepository) DeleteUnresolved(goalID string) error {
	query := `DELETE FROM milestones WHERE goal_id = $1 AND status IN ($2, $3)`
	_, err := r.db.Exec(query, goalID, model.MilestoneStatusPlanned, model.MilestoneStatusLocked)
	return err
}

func (r *milestoneRepository) IncrementWitnesses(id string) error {
	query := `UPDATE milestones SET witness_count = witness_count + 1 WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *milestoneRepository) CountKept(userID string) (int, error) {
	return r.countByStatus(userID, model.MilestoneStatusKept)
}

func (r *milestoneRepository) CountBroken(userID string) (int, error) {
	return r.countByStatus(userID, model.MilestoneStatusBroken)
}

func (r *milestoneRepository) countByStatus(userID, status string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM milestones m
	          JOIN goals g ON g.id = m.goal_id
	          WHERE g.user_id = $1 AND m.status = $2`
	err := r.db.QueryRow(query, userID, status).Scan(&count)
	return count, err
}

// CurrentKeptStreak counts kept promises since the user's most recent break.
func (r *milestoneRepository) CurrentKeptStreak(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM milestones m
	          JOIN goals g ON g.id = m.goal_id
	          WHERE g.user_id = $1 AND m.status = 'kept'
	          AND m.kept_at > COALESCE((
	              SELECT MAX(m2.broken_at) FROM milestones m2
	              JOIN goals g2 ON g2.id = m2.goal_id
	              WHERE g2.user_id = $1 AND m2.status = 'broken'
	          ), '1970-01-01')`
	err := r.db.QueryRow(query, userID).Scan(&count)
	return count, err
}

func (r *milestoneRepository) SumWitnesses(userID string) (int, error) {
	var sum int
	query := `SELECT COALESCE(SUM(m.witness_count), 0) FROM milestones m
	          JOIN goals g ON g.id = m.goal_id
	          WHERE g.user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&sum)
	return sum, err
}
