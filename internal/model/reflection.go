package model

import (
	"time"
)

const (
	ProofTypeImage = "image"
	ProofTypeText  = "text"
)

type Reflection struct {
	ID                   string    `db:"id"`
	MilestoneID          string    `db:"milestone_id"`
	WhyFailed            string    `db:"why_failed"`
	WhatWasInControl     string    `db:"what_was_in_control"`
	WhatWillChange       string    `db:"what_will_change"`
	ConsequenceProof     *string   `db:"consequence_proof"`      // file ID for images, free text otherwise
	ConsequenceProofType *string   `db:"consequence_proof_type"` // "image", "text" or NULL
	SubmittedAt          time.Time `db:"submitted_at"`
}
