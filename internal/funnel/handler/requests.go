package handler

import (
	"strings"
	"time"

	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/funnel/service"
	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
)

// CreateCandidateRequest is the HTTP request body for POST /funnel/candidates.
type CreateCandidateRequest struct {
	JobID      string `json:"job_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RawProfile string `json:"raw_profile,omitempty"`

	parsedJobID id.JobID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateCandidateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	jobID, err := id.ParseJobID(r.JobID)
	if err != nil {
		return err
	}
	r.parsedJobID = jobID
	return nil
}

// Params converts the request to service-layer input.
func (r *CreateCandidateRequest) Params() service.CreateCandidateParams {
	return service.CreateCandidateParams{
		JobID:      r.parsedJobID,
		Name:       r.Name,
		Email:      r.Email,
		RawProfile: r.RawProfile,
	}
}

// SubmitEventRequest is the HTTP request body for POST /funnel/events.
type SubmitEventRequest struct {
	Type        string `json:"type"`
	CandidateID string `json:"candidate_id"`
	EventID     string `json:"event_id,omitempty"`
	OccurredAt  string `json:"occurred_at,omitempty"`

	Profile          *models.StructuredProfile `json:"profile,omitempty"`
	ReplyText        string                    `json:"reply_text,omitempty"`
	Slots            []models.InterviewSlot    `json:"slots,omitempty"`
	Slot             *models.InterviewSlot     `json:"slot,omitempty"`
	ShortlistOutcome string                    `json:"shortlist_outcome,omitempty"`
	Decision         string                    `json:"decision,omitempty"`
	Notes            string                    `json:"notes,omitempty"`

	parsed models.Event
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	candidateID, err := id.ParseCandidateID(r.CandidateID)
	if err != nil {
		return err
	}

	occurredAt := time.Time{}
	if r.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, r.OccurredAt)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "occurred_at must be RFC 3339")
		}
	}

	ev := models.Event{
		Type:             models.EventType(strings.TrimSpace(r.Type)),
		CandidateID:      candidateID,
		ID:               strings.TrimSpace(r.EventID),
		OccurredAt:       occurredAt,
		Profile:          r.Profile,
		ReplyText:        r.ReplyText,
		Slots:            r.Slots,
		Slot:             r.Slot,
		ShortlistOutcome: models.ShortlistOutcome(r.ShortlistOutcome),
		Decision:         models.Decision(r.Decision),
		Notes:            r.Notes,
	}
	if err := ev.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid event")
	}
	r.parsed = ev
	return nil
}

// Event returns the validated domain event.
func (r *SubmitEventRequest) Event() models.Event {
	return r.parsed
}
