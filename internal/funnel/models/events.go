package models

import (
	"fmt"
	"time"

	id "hirefunnel/pkg/domain"
)

// EventType names the external facts that drive funnel transitions.
type EventType string

const (
	// EventExtractionCompleted carries the structured profile produced by the
	// extraction service.
	EventExtractionCompleted EventType = "extraction_completed"
	// EventAssessmentRequested asks the engine to evaluate mandatory criteria
	// against the stored profile.
	EventAssessmentRequested EventType = "assessment_requested"
	// EventRankingRequested asks the engine to compute the rank score for an
	// eligible record.
	EventRankingRequested EventType = "ranking_requested"
	// EventShortlistEvaluated carries the per-candidate outcome of the
	// cross-candidate shortlist cut computed by the service layer.
	EventShortlistEvaluated EventType = "shortlist_evaluated"
	// EventOutreachRequested moves a shortlisted candidate into outreach and
	// emits the outbound message command.
	EventOutreachRequested EventType = "outreach_requested"
	// EventReplyReceived carries an inbound candidate reply for
	// classification.
	EventReplyReceived EventType = "reply_received"
	// EventSlotsProposed records the slot set returned by the calendar
	// service.
	EventSlotsProposed EventType = "slots_proposed"
	// EventInterviewScheduled records a confirmed calendar slot.
	EventInterviewScheduled EventType = "interview_scheduled"
	// EventInterviewCompleted records that the interview took place.
	EventInterviewCompleted EventType = "interview_completed"
	// EventDecisionRecorded carries the final post-interview decision.
	EventDecisionRecorded EventType = "decision_recorded"
	// EventCandidateWithdrew marks an explicit withdrawal at any stage.
	EventCandidateWithdrew EventType = "candidate_withdrew"
	// EventHoldReleased lifts a hold placed by human-review routing or a
	// collaborator failure.
	EventHoldReleased EventType = "hold_released"
)

// ShortlistOutcome is the per-candidate result of the shortlist cut.
type ShortlistOutcome string

const (
	ShortlistIncluded ShortlistOutcome = "included"
	ShortlistHeld     ShortlistOutcome = "held"
	ShortlistRejected ShortlistOutcome = "rejected"
)

// Event is one external fact delivered to the orchestration engine. Callers
// deliver events at-least-once; the engine deduplicates by DedupKey.
type Event struct {
	Type        EventType      `json:"type"`
	CandidateID id.CandidateID `json:"candidate_id"`
	// ID is the caller-supplied delivery identity (message ID, webhook ID).
	// Redeliveries of the same fact must reuse it; distinct facts of the same
	// type at the same stage (e.g. a second reply) must differ.
	ID         string    `json:"id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	// Payload fields; which are set depends on Type.
	Profile          *StructuredProfile `json:"profile,omitempty"`
	ReplyText        string             `json:"reply_text,omitempty"`
	Slots            []InterviewSlot    `json:"slots,omitempty"`
	Slot             *InterviewSlot     `json:"slot,omitempty"`
	ShortlistOutcome ShortlistOutcome   `json:"shortlist_outcome,omitempty"`
	Decision         Decision           `json:"decision,omitempty"`
	Notes            string             `json:"notes,omitempty"`
}

// DedupKey identifies one application of this event to a record at a stage.
// Applying the same key twice is a no-op.
func (e Event) DedupKey(stage Stage) string {
	key := fmt.Sprintf("%s/%s/%s", e.CandidateID, stage, e.Type)
	if e.ID != "" {
		key += "/" + e.ID
	}
	return key
}

// Validate checks structural requirements that hold for every event type.
func (e Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if e.CandidateID.IsNil() {
		return fmt.Errorf("candidate_id is required")
	}
	switch e.Type {
	case EventExtractionCompleted:
		if e.Profile == nil {
			return fmt.Errorf("extraction_completed requires a profile")
		}
	case EventReplyReceived:
		if e.ReplyText == "" {
			return fmt.Errorf("reply_received requires reply_text")
		}
	case EventShortlistEvaluated:
		switch e.ShortlistOutcome {
		case ShortlistIncluded, ShortlistHeld, ShortlistRejected:
		default:
			return fmt.Errorf("shortlist_evaluated requires a valid outcome")
		}
	case EventSlotsProposed:
		if len(e.Slots) == 0 {
			return fmt.Errorf("slots_proposed requires at least one slot")
		}
	case EventInterviewScheduled:
		if e.Slot == nil {
			return fmt.Errorf("interview_scheduled requires a slot")
		}
	case EventDecisionRecorded:
		switch e.Decision {
		case DecisionAdvanced, DecisionHeld, DecisionRejected:
		default:
			return fmt.Errorf("decision_recorded requires a valid decision")
		}
	}
	return nil
}
