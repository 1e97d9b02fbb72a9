// Package collaborators defines the ports to the external services the
// funnel depends on. Implementations classify their failures with
// domain-error codes: CodeTransient for retryable outages and
// CodePermanent for failures a retry cannot fix.
package collaborators

import (
	"context"

	"hirefunnel/internal/funnel/models"
	id "hirefunnel/pkg/domain"
)

// RenderedMessage is a template rendered for one candidate.
type RenderedMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Extraction turns a raw candidate submission into a structured profile.
type Extraction interface {
	Extract(ctx context.Context, rawProfile string) (*models.StructuredProfile, error)
}

// Generation renders outbound message templates.
type Generation interface {
	Render(ctx context.Context, kind models.TemplateKind, candidateID id.CandidateID, jobID id.JobID) (RenderedMessage, error)
}

// Notification delivers rendered messages. messageID is the caller's dedup
// key; providers that support idempotency keys must pass it through so a
// redelivered send is absorbed downstream too.
type Notification interface {
	SendEmail(ctx context.Context, messageID, recipient string, msg RenderedMessage) error
	NotifyHR(ctx context.Context, messageID, subject, note string) error
}

// Calendar proposes interview slots for a candidate.
type Calendar interface {
	ProposeSlots(ctx context.Context, candidateID id.CandidateID, jobID id.JobID) ([]models.InterviewSlot, error)
}
