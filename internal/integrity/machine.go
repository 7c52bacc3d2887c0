package integrity

import (
	"strings"
	"time"

	"github.com/shiftascent/shiftascent/internal/model"
)

// The milestone state machine. Legal edges only:
//
//	planned --Lock--> locked --MarkKept--> kept (terminal)
//	                  locked --MarkBroken--> broken --reflection--> broken, reflected (terminal)
//
// All transitions are pure: they take a milestone value and return the
// updated value or a typed error, without touching storage. The service
// layer persists results with a compare-and-set on status, so a stale read
// surfaces as a conflict instead of a double transition.

// MinReflectionChars is the minimum trimmed length for every free-text
// reflection field and for text consequence proof.
const MinReflectionChars = 20

// PromiseDraft is the commitment a user locks onto a planned milestone.
type PromiseDraft struct {
	Text        string
	Deadline    time.Time
	Consequence string
}

// CanLock checks the goal-wide lock preconditions: no sibling currently
// locked and no broken sibling still awaiting reflection.
func CanLock(siblings []model.Milestone) error {
	for _, s := range siblings {
		if s.IsLocked() {
			return Conflict("another commitment pending: a milestone is already locked")
		}
		if s.NeedsReflection() {
			return Conflict("another commitment pending: a broken promise awaits reflection")
		}
	}
	return nil
}

// Lock transitions a planned milestone to locked, binding the promise.
// The promise is a one-way commitment: once set it is immutable.
func Lock(m model.Milestone, draft PromiseDraft, shareID string, now time.Time) (model.Milestone, error) {
	if m.Status != model.MilestoneStatusPlanned {
		return m, InvalidState("only a planned milestone can be locked")
	}

	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return m, Validation("promise_text", "promise text is required")
	}
	if !draft.Deadline.After(now) {
		return m, Validation("deadline", "deadline must be in the future")
	}

	consequence := strings.TrimSpace(draft.Consequence)
	if consequence == "" {
		consequence = model.DefaultConsequence
	}

	lockedAt := now
	m.Status = model.MilestoneStatusLocked
	m.PromiseText = &text
	m.Deadline = &draft.Deadline
	m.Consequence = &consequence
	m.LockedAt = &lockedAt
	m.ShareID = &shareID
	m.UpdatedAt = now
	return m, nil
}

// MarkKept resolves a locked milestone as kept. Marking kept after the
// deadline is always rejected; the caller must route to MarkBroken instead.
func MarkKept(m model.Milestone, now time.Time) (model.Milestone, error) {
	if m.Status != model.MilestoneStatusLocked {
		return m, InvalidState("only a locked milestone can be marked kept")
	}
	if m.Deadline != nil && now.After(*m.Deadline) {
		return m, DeadlineExpired("the deadline has passed; the promise counts as broken")
	}

	keptAt := now
	m.Status = model.MilestoneStatusKept
	m.KeptAt = &keptAt
	m.UpdatedAt = now
	return m, nil
}

// MarkBroken resolves a locked milestone as broken, either by explicit user
// action or by the expiry sweep (auto=true). The milestone then requires a
// reflection before any sibling can be locked.
func MarkBroken(m model.Milestone, now time.Time, auto bool) (model.Milestone, error) {
	if m.Status != model.MilestoneStatusLocked {
		return m, InvalidState("only a locked milestone can be marked broken")
	}

	brokenAt := now
	m.Status = model.MilestoneStatusBroken
	m.BrokenAt = &brokenAt
	m.AutoExpired = auto
	m.UpdatedAt = now
	return m, nil
}

// ReflectionInput is the answer set the reflection wizard stages before one
// atomic submit.
type ReflectionInput struct {
	WhyFailed            string
	WhatWasInControl     string
	WhatWillChange       string
	ConsequenceProof     string
	ConsequenceProofType string // model.ProofTypeImage, model.ProofTypeText or ""
}

// ValidateReflection checks every submit precondition. Each failure names
// the missing field.
func ValidateReflection(m model.Milestone, in ReflectionInput) error {
	if m.Status != model.MilestoneStatusBroken {
		return InvalidState("only a broken milestone can be reflected on")
	}
	if m.HasReflection {
		return InvalidState("this milestone has already been reflected on")
	}

	if err := requireText("why_failed", in.WhyFailed); err != nil {
		return err
	}
	if err := requireText("what_was_in_control", in.WhatWasInControl); err != nil {
		return err
	}
	if err := requireText("what_will_change", in.WhatWillChange); err != nil {
		return err
	}

	if m.HasConsequence() {
		switch in.ConsequenceProofType {
		case model.ProofTypeImage:
			if strings.TrimSpace(in.ConsequenceProof) == "" {
				return Validation("consequence_proof", "proof image is required")
			}
		case model.ProofTypeText:
			if len(strings.TrimSpace(in.ConsequenceProof)) < MinReflectionChars {
				return Validation("consequence_proof", "proof description must be at least 20 characters")
			}
		default:
			return Validation("consequence_proof", "proof of the consequence is required")
		}
	}

	return nil
}

// BuildReflection validates the input and assembles the reflection record.
// The milestone stays broken; a reflected broken milestone is terminal.
func BuildReflection(m model.Milestone, in ReflectionInput, id string, now time.Time) (model.Reflection, error) {
	if err := ValidateReflection(m, in); err != nil {
		return model.Reflection{}, err
	}

	r := model.Reflection{
		ID:               id,
		MilestoneID:      m.ID,
		WhyFailed:        strings.TrimSpace(in.WhyFailed),
		WhatWasInControl: strings.TrimSpace(in.WhatWasInControl),
		WhatWillChange:   strings.TrimSpace(in.WhatWillChange),
		SubmittedAt:      now,
	}
	if m.HasConsequence() {
		proof := strings.TrimSpace(in.ConsequenceProof)
		proofType := in.ConsequenceProofType
		r.ConsequenceProof = &proof
		r.ConsequenceProofType = &proofType
	}
	return r, nil
}

// CanModify gates edit, delete and reorder: legal only while planned.
func CanModify(m model.Milestone) error {
	if m.Status != model.MilestoneStatusPlanned {
		return InvalidState("a milestone can only be changed while planned")
	}
	return nil
}

// Renumber assigns a dense 1-based sequence to milestones in slice order.
// Used after reorder and delete so numbering never has holes.
func Renumber(ms []model.Milestone) []model.Milestone {
	out := make([]model.Milestone, len(ms))
	for i, m := range ms {
		m.Number = i + 1
		out[i] = m
	}
	return out
}

func requireText(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Validation(field, "this answer is required")
	}
	if len(trimmed) < MinReflectionChars {
		return Validation(field, "answer must be at least 20 characters")
	}
	return nil
}
