package models

import (
	"fmt"

	id "hirefunnel/pkg/domain"
)

// CommandType names the side effects the engine may request.
type CommandType string

const (
	CommandSendEmail      CommandType = "send_email"
	CommandProposeSlots   CommandType = "propose_slots"
	CommandNotifyHR       CommandType = "notify_hr"
	CommandRecordDecision CommandType = "record_decision"
)

// TemplateKind selects the message template the generation service renders
// for a send_email command.
type TemplateKind string

const (
	TemplateInitialContact      TemplateKind = "initial_contact"
	TemplateFollowUp            TemplateKind = "follow_up"
	TemplateScreeningQuestions  TemplateKind = "screening_questions"
	TemplateInterviewInvitation TemplateKind = "interview_invitation"
	TemplateRejectionNotice     TemplateKind = "rejection_notice"
	TemplateOffer               TemplateKind = "offer"
)

// Command is an intent emitted by a transition and consumed exactly-once by
// the dispatcher. It is persisted to the outbox in the same transaction that
// commits the record, so a crash after commit is recovered by replaying the
// outbox rather than re-deriving commands from record state.
type Command struct {
	Type        CommandType    `json:"type"`
	CandidateID id.CandidateID `json:"candidate_id"`
	JobID       id.JobID       `json:"job_id"`
	// Stage is the stage the record was in when the command was derived;
	// part of the dedup key.
	Stage Stage `json:"stage"`
	// EventID ties the command to the delivery that produced it, so a
	// legitimate repeat (a second reschedule) is distinguishable from a
	// redelivered duplicate.
	EventID string `json:"event_id,omitempty"`

	TemplateKind   TemplateKind `json:"template_kind,omitempty"`
	Recipient      string       `json:"recipient,omitempty"`
	Note           string       `json:"note,omitempty"`
	InterviewerIDs []string     `json:"interviewer_ids,omitempty"`
	Decision       Decision     `json:"decision,omitempty"`
}

// DedupKey guarantees at-most-once side effects even when the same command is
// dispatched twice by a retried orchestration.
func (c Command) DedupKey() string {
	key := fmt.Sprintf("%s/%s/%s", c.CandidateID, c.Stage, c.Type)
	if c.EventID != "" {
		key += "/" + c.EventID
	}
	return key
}

// DispatchResult is the dispatcher's verdict on one delivery attempt.
type DispatchResult string

const (
	DispatchDelivered         DispatchResult = "delivered"
	DispatchRetryLater        DispatchResult = "retry_later"
	DispatchPermanentlyFailed DispatchResult = "permanently_failed"
)
