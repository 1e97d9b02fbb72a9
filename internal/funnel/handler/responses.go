package handler

import (
	"time"

	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/scoring"
)

// CandidateResponse is the HTTP representation of a candidate record.
type CandidateResponse struct {
	ID          string                    `json:"id"`
	JobID       string                    `json:"job_id"`
	Name        string                    `json:"name"`
	Email       string                    `json:"email"`
	Stage       string                    `json:"stage"`
	Profile     *models.StructuredProfile `json:"structured_profile,omitempty"`
	Eligibility models.Eligibility        `json:"eligibility"`
	RankScore   *float64                  `json:"rank_score,omitempty"`
	Decision    string                    `json:"decision,omitempty"`
	HoldReason  string                    `json:"hold_reason,omitempty"`

	Conversation []models.Message       `json:"conversation_log,omitempty"`
	Slots        []models.InterviewSlot `json:"interview_slots,omitempty"`

	SubmittedAt      time.Time `json:"submitted_at"`
	LastTransitionAt time.Time `json:"last_transition_at"`
	Version          int64     `json:"version"`
}

// FromRecord converts a domain record to its HTTP representation.
func FromRecord(rec *models.CandidateRecord) *CandidateResponse {
	return &CandidateResponse{
		ID:               rec.ID.String(),
		JobID:            rec.JobID.String(),
		Name:             rec.Name,
		Email:            rec.Email,
		Stage:            string(rec.Stage),
		Profile:          rec.Profile,
		Eligibility:      rec.Eligibility,
		RankScore:        rec.RankScore,
		Decision:         string(rec.Decision),
		HoldReason:       rec.HoldReason,
		Conversation:     rec.Conversation,
		Slots:            rec.Slots,
		SubmittedAt:      rec.SubmittedAt,
		LastTransitionAt: rec.LastTransitionAt,
		Version:          rec.Version,
	}
}

// EventAcceptedResponse reports what an applied event produced.
type EventAcceptedResponse struct {
	Applied  bool              `json:"applied"`
	Commands []CommandResponse `json:"commands,omitempty"`
}

// CommandResponse is the HTTP representation of a derived command.
type CommandResponse struct {
	Type         string `json:"type"`
	TemplateKind string `json:"template_kind,omitempty"`
	Recipient    string `json:"recipient,omitempty"`
	Note         string `json:"note,omitempty"`
}

// FromCommands converts derived commands for the event response. A nil
// command slice with no error means the event was a duplicate.
func FromCommands(commands []models.Command, applied bool) *EventAcceptedResponse {
	resp := &EventAcceptedResponse{Applied: applied}
	for _, cmd := range commands {
		resp.Commands = append(resp.Commands, CommandResponse{
			Type:         string(cmd.Type),
			TemplateKind: string(cmd.TemplateKind),
			Recipient:    cmd.Recipient,
			Note:         cmd.Note,
		})
	}
	return resp
}

// ShortlistResponse reports the outcome of one shortlist evaluation.
type ShortlistResponse struct {
	Decisions []ShortlistDecisionResponse `json:"decisions"`
}

// ShortlistDecisionResponse is one candidate's shortlist outcome.
type ShortlistDecisionResponse struct {
	CandidateID string `json:"candidate_id"`
	Outcome     string `json:"outcome"`
}

// FromShortlist converts shortlist decisions to the HTTP response.
func FromShortlist(decisions []scoring.ShortlistDecision) *ShortlistResponse {
	resp := &ShortlistResponse{Decisions: []ShortlistDecisionResponse{}}
	for _, d := range decisions {
		resp.Decisions = append(resp.Decisions, ShortlistDecisionResponse{
			CandidateID: d.CandidateID.String(),
			Outcome:     string(d.Outcome),
		})
	}
	return resp
}
