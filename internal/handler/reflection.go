package handler

import (
	"net/http"
	"time"

	"github.com/shiftascent/shiftascent/internal/ctxkeys"
	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/model"
	"github.com/shiftascent/shiftascent/internal/service"
)

// ReflectionHandler drives the wizard on a broken milestone: list the steps,
// take a proof upload, accept one atomic submit.
type ReflectionHandler struct {
	milestoneService *service.MilestoneService
	fileService      *service.FileService
}

func NewReflectionHandler(milestoneService *service.MilestoneService, fileService *service.FileService) *ReflectionHandler {
	return &ReflectionHandler{
		milestoneService: milestoneService,
		fileService:      fileService,
	}
}

type wizardStepResponse struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
	Proof  bool   `json:"proof"`
}

type reflectionResponse struct {
	ID                   string    `json:"id"`
	MilestoneID          string    `json:"milestoneId"`
	WhyFailed            string    `json:"whyFailed"`
	WhatWasInControl     string    `json:"whatWasInControl"`
	WhatWillChange       string    `json:"whatWillChange"`
	ConsequenceProof     *string   `json:"consequenceProof,omitempty"`
	ConsequenceProofType *string   `json:"consequenceProofType,omitempty"`
	SubmittedAt          time.Time `json:"submittedAt"`
}

func newReflectionResponse(refl *model.Reflection) reflectionResponse {
	return reflectionResponse{
		ID:                   refl.ID,
		MilestoneID:          refl.MilestoneID,
		WhyFailed:            refl.WhyFailed,
		WhatWasInControl:     refl.WhatWasInControl,
		WhatWillChange:       refl.WhatWillChange,
		ConsequenceProof:     refl.ConsequenceProof,
		ConsequenceProofType: refl.ConsequenceProofType,
		SubmittedAt:          refl.SubmittedAt,
	}
}

// Steps lists the wizard sequence for a milestone: three questions, plus the
// proof step when a real consequence was promised.
func (h *ReflectionHandler) Steps(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	m, err := h.milestoneService.ByID(user.ID, r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		respondError(w, err)
		return
	}

	steps := integrity.WizardSteps(*m)
	out := make([]wizardStepResponse, len(steps))
	for i, s := range steps {
		out[i] = wizardStepResponse{Key: s.Key, Prompt: s.Prompt, Proof: s.Proof}
	}
	respondJSON(w, http.StatusOK, out)
}

// ValidateStep checks a single staged answer so the client can gate "next"
// before the final submit. Nothing is persisted.
func (h *ReflectionHandler) ValidateStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step  string `json:"step"`
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	m, err := h.milestoneService.ByID(user.ID, r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		respondError(w, err)
		return
	}

	for _, step := range integrity.WizardSteps(*m) {
		if step.Key == req.Step {
			if err := integrity.ValidateStep(step, req.Value); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]bool{"valid": true})
			return
		}
	}
	respondError(w, integrity.Validation("step", "unknown wizard step"))
}

// UploadProof stores a consequence proof image ahead of submit. The returned
// file ID goes into the submit payload.
func (h *ReflectionHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	m, err := h.milestoneService.ByID(user.ID, r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		respondError(w, err)
		return
	}

	err = r.ParseMultipartForm(10 << 20)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "proof file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	record, err := h.fileService.UploadProof(user.ID, m.ID, file, header)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"fileId": record.ID,
		"url":    h.fileService.URL(record),
	})
}

// Submit completes the wizard in one atomic request. Answers are keyed by
// step; a missing or short answer fails naming the step.
func (h *ReflectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers     map[string]string `json:"answers"`
		ProofFileID string            `json:"proofFileId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := ctxkeys.User(r.Context())
	goalID, milestoneID := r.PathValue("id"), r.PathValue("milestoneID")

	m, err := h.milestoneService.ByID(user.ID, goalID, milestoneID)
	if err != nil {
		respondError(w, err)
		return
	}

	input, err := integrity.CompleteWizard(*m, req.Answers, req.ProofFileID)
	if err != nil {
		respondError(w, err)
		return
	}

	refl, err := h.milestoneService.SubmitReflection(user.ID, goalID, milestoneID, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newReflectionResponse(refl))
}

func (h *ReflectionHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	refl, err := h.milestoneService.ReflectionByMilestone(user.ID, r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newReflectionResponse(refl))
}
