package integrity

import (
	"strings"

	"github.com/shiftascent/shiftascent/internal/model"
)

// The reflection wizard is client-side staging for SubmitReflection: a fixed
// sequence of steps that each validate on their own, producing exactly one
// atomic submit once every required step passes. It holds no state the state
// machine does not already model.

// Wizard step keys, in order.
const (
	StepWhyFailed        = "why_failed"
	StepWhatWasInControl = "what_was_in_control"
	StepWhatWillChange   = "what_will_change"
	StepConsequenceProof = "consequence_proof"
)

type WizardStep struct {
	Key    string
	Prompt string
	Proof  bool // proof steps accept an image upload or >=20 chars of text
}

// WizardSteps returns the step sequence for a milestone: three reflection
// questions, plus a proof step when a real consequence was promised.
func WizardSteps(m model.Milestone) []WizardStep {
	steps := []WizardStep{
		{Key: StepWhyFailed, Prompt: "Why did this promise break?"},
		{Key: StepWhatWasInControl, Prompt: "What part of it was in your control?"},
		{Key: StepWhatWillChange, Prompt: "What will you do differently next time?"},
	}
	if m.HasConsequence() {
		steps = append(steps, WizardStep{
			Key:    StepConsequenceProof,
			Prompt: "Show proof you followed through on your consequence",
			Proof:  true,
		})
	}
	return steps
}

// ValidateStep checks one staged answer against its step's rules.
func ValidateStep(step WizardStep, value string) error {
	if step.Proof {
		if len(strings.TrimSpace(value)) < MinReflectionChars {
			return Validation(step.Key, "proof description must be at least 20 characters")
		}
		return nil
	}
	return requireText(step.Key, value)
}

// CompleteWizard checks answers against the full step sequence in order and
// assembles the single ReflectionInput for submit. Skipping a step fails
// validation naming that step; steps cannot be submitted out of order.
func CompleteWizard(m model.Milestone, answers map[string]string, proofFileID string) (ReflectionInput, error) {
	var in ReflectionInput

	for _, step := range WizardSteps(m) {
		if step.Proof {
			// An uploaded image satisfies the proof step without text.
			if proofFileID != "" {
				in.ConsequenceProof = proofFileID
				in.ConsequenceProofType = model.ProofTypeImage
				continue
			}
			value, ok := answers[step.Key]
			if !ok {
				return in, Validation(step.Key, "this step has not been completed")
			}
			if err := ValidateStep(step, value); err != nil {
				return in, err
			}
			in.ConsequenceProof = strings.TrimSpace(value)
			in.ConsequenceProofType = model.ProofTypeText
			continue
		}

		value, ok := answers[step.Key]
		if !ok {
			return in, Validation(step.Key, "this step has not been completed")
		}
		if err := ValidateStep(step, value); err != nil {
			return in, err
		}

		switch step.Key {
		case StepWhyFailed:
			in.WhyFailed = value
		case StepWhatWasInControl:
			in.WhatWasInControl = value
		case StepWhatWillChange:
			in.WhatWillChange = value
		}
	}

	return in, nil
}
