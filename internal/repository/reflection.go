package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shiftascent/shiftascent/internal/model"
)

var (
	ErrReflectionNotFound = errors.New("reflection not found")

	// ErrReflectionExists covers a concurrent double submit: the
	// milestone_id column is unique, so only the first insert lands.
	ErrReflectionExists = errors.New("reflection already submitted")
)

type ReflectionRepository interface {
	Create(r *model.Reflection) error
	ByMilestoneID(milestoneID string) (*model.Reflection, error)
}

type reflectionRepository struct {
	db *sqlx.DB
}

func NewReflectionRepository(db *sqlx.DB) ReflectionRepository {
	return &reflectionRepository{db: db}
}

func (r *reflectionRepository) Create(refl *model.Reflection) error {
	query := `INSERT INTO reflections (id, milestone_id, why_failed, what_was_in_control, what_will_change, consequence_proof, consequence_proof_type, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		refl.ID,
		refl.MilestoneID,
		refl.WhyFailed,
		refl.WhatWasInControl,
		refl.WhatWillChange,
		refl.ConsequenceProof,
		refl.ConsequenceProofType,
		refl.SubmittedAt,
	)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrReflectionExists
		}
		return err
	}

	return nil
}

func (r *reflectionRepository) ByMilestoneID(milestoneID string) (*model.Reflection, error) {
	refl := &model.Reflection{}
	query := `SELECT * FROM reflections WHERE milestone_id = $1`

	err := r.db.Get(refl, query, milestoneID)
	if err == sql.ErrNoRows {
		return nil, ErrReflectionNotFound
	}

	return refl, err
}
