// Package engine implements the per-candidate funnel state machine.
//
// Transition is pure and deterministic given (record, event, criteria): it
// never touches storage or collaborators, which keeps every stage rule
// independently testable. Side effects leave the engine only as emitted
// commands.
package engine

import (
	"strings"

	"hirefunnel/internal/classify"
	"hirefunnel/internal/funnel/models"
	jobmodels "hirefunnel/internal/job/models"
	"hirefunnel/internal/scoring"
	dErrors "hirefunnel/pkg/domain-errors"
)

// stageGraph lists the stages at which each event type applies. An event
// arriving outside its stages is stale, not silently applied: the caller must
// re-deliver after the record catches up or discard if superseded.
var stageGraph = map[models.EventType][]models.Stage{
	models.EventExtractionCompleted: {models.StageSourced},
	models.EventAssessmentRequested: {models.StageScreened},
	models.EventRankingRequested:    {models.StageEligibilityAssessed},
	models.EventShortlistEvaluated:  {models.StageRanked},
	models.EventOutreachRequested:   {models.StageShortlisted},
	models.EventReplyReceived: {
		models.StageOutreachSent,
		models.StageResponded,
		models.StageInterviewScheduled,
	},
	// Slot proposals and confirmations also apply at interview_scheduled so a
	// reschedule can replace the booked slot without leaving the stage.
	models.EventSlotsProposed: {
		models.StageResponded,
		models.StageInterviewScheduled,
	},
	models.EventInterviewScheduled: {
		models.StageResponded,
		models.StageInterviewScheduled,
	},
	models.EventInterviewCompleted: {models.StageInterviewScheduled},
	models.EventDecisionRecorded:   {models.StageInterviewCompleted},
	// Withdrawal and hold release apply at any non-terminal stage; handled
	// separately in applicable.
}

// HoldReasonHumanReview marks records frozen by human-review routing.
const HoldReasonHumanReview = "needs_human_review"

// HoldReasonOverCapacity marks records that cleared the score threshold but
// missed the shortlist cut.
const HoldReasonOverCapacity = "shortlist_over_capacity"

// Transition applies one event to a candidate record and returns the updated
// record plus the side-effect commands it derived. The input record is never
// mutated.
//
// Duplicate deliveries (dedup key already applied) return the record
// unchanged with no commands. Events inapplicable to the current stage return
// a stale-event error and no mutation.
func Transition(rec *models.CandidateRecord, ev models.Event, criteria jobmodels.JobCriteria) (*models.CandidateRecord, []models.Command, error) {
	if err := ev.Validate(); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid event")
	}

	from := rec.Stage
	dedupKey := ev.DedupKey(from)
	if rec.Applied(dedupKey) {
		return rec, nil, nil
	}
	// An identified event already applied at an earlier stage is the same
	// delivery arriving late, not a stale instruction: absorb it even though
	// the stage has moved on since.
	if ev.ID != "" && appliedAtAnyStage(rec, ev) {
		return rec, nil, nil
	}

	if !applicable(rec, ev.Type) {
		return nil, nil, dErrors.Newf(dErrors.CodeStaleEvent,
			"event %s is not applicable to stage %s", ev.Type, from)
	}

	next := rec.Clone()
	var commands []models.Command

	switch ev.Type {
	case models.EventExtractionCompleted:
		next.Profile = ev.Profile
		next.Stage = models.StageScreened
	case models.EventAssessmentRequested:
		commands = applyAssessment(next, criteria)
	case models.EventRankingRequested:
		score := scoring.Rank(next.Profile, criteria)
		next.RankScore = &score
		next.Stage = models.StageRanked
	case models.EventShortlistEvaluated:
		commands = applyShortlistOutcome(next, ev)
	case models.EventOutreachRequested:
		commands = applyOutreach(next, ev)
	case models.EventReplyReceived:
		commands = applyReply(next, ev)
	case models.EventSlotsProposed:
		next.Slots = ev.Slots
		commands = []models.Command{email(next, models.TemplateInterviewInvitation)}
	case models.EventInterviewScheduled:
		applyScheduled(next, ev)
	case models.EventInterviewCompleted:
		next.Stage = models.StageInterviewCompleted
	case models.EventDecisionRecorded:
		commands = applyDecision(next, ev)
	case models.EventCandidateWithdrew:
		next.Stage = models.StageWithdrawn
	case models.EventHoldReleased:
		next.HoldReason = ""
	default:
		return nil, nil, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", ev.Type)
	}

	// Every command derived by this transition shares the pre-transition
	// stage and the delivery identity, forming its dedup key.
	for i := range commands {
		commands[i].CandidateID = next.ID
		commands[i].JobID = next.JobID
		commands[i].Stage = from
		commands[i].EventID = ev.ID
	}

	next.MarkApplied(dedupKey)
	if !ev.OccurredAt.IsZero() {
		next.LastTransitionAt = ev.OccurredAt
	}
	return next, commands, nil
}

// appliedAtAnyStage reports whether an event carrying an ID was already
// consumed at some stage of the record's history. Dedup keys embed the stage
// the event was applied at, so a redelivery after the stage advanced computes
// a different key; the suffix still pins the exact delivery.
func appliedAtAnyStage(rec *models.CandidateRecord, ev models.Event) bool {
	suffix := "/" + string(ev.Type) + "/" + ev.ID
	prefix := ev.CandidateID.String() + "/"
	for key := range rec.AppliedEvents {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// applicable reports whether the event may be applied at the record's current
// stage. Terminal records accept no stage-changing events, and held records
// accept only release or withdrawal until a human unblocks them.
func applicable(rec *models.CandidateRecord, et models.EventType) bool {
	if rec.Stage.Terminal() {
		return false
	}
	switch et {
	case models.EventCandidateWithdrew:
		return true
	case models.EventHoldReleased:
		return rec.Held()
	}
	if rec.Held() {
		return false
	}
	for _, s := range stageGraph[et] {
		if s == rec.Stage {
			return true
		}
	}
	return false
}

// applyAssessment evaluates mandatory criteria. A failing verdict
// short-circuits ranking entirely: eligibility fail always dominates any
// preferred-criteria score, and the record moves straight to rejected with a
// rejection notice, skipping ranked and shortlisted.
func applyAssessment(next *models.CandidateRecord, criteria jobmodels.JobCriteria) []models.Command {
	next.Eligibility = scoring.Assess(next.Profile, criteria)
	if next.Eligibility.Verdict == models.VerdictFail {
		next.Stage = models.StageRejected
		return []models.Command{email(next, models.TemplateRejectionNotice)}
	}
	next.Stage = models.StageEligibilityAssessed
	return nil
}

func applyShortlistOutcome(next *models.CandidateRecord, ev models.Event) []models.Command {
	switch ev.ShortlistOutcome {
	case models.ShortlistIncluded:
		next.Stage = models.StageShortlisted
	case models.ShortlistHeld:
		// Cleared the threshold but missed the cut: frozen in place, not
		// rejected, so a reopened shortlist can pick the record up.
		next.HoldReason = HoldReasonOverCapacity
	case models.ShortlistRejected:
		next.Stage = models.StageRejected
		return []models.Command{email(next, models.TemplateRejectionNotice)}
	}
	return nil
}

func applyOutreach(next *models.CandidateRecord, ev models.Event) []models.Command {
	next.Stage = models.StageOutreachSent
	next.Conversation = append(next.Conversation, models.Message{
		Direction: models.DirectionOutbound,
		SentAt:    ev.OccurredAt,
		Text:      "template:" + string(models.TemplateInitialContact),
	})
	return []models.Command{email(next, models.TemplateInitialContact)}
}

// applyReply classifies an inbound reply against the conversation log and
// routes by category. Human-review and ambiguous replies freeze the record
// and notify HR; they never auto-reject or auto-advance.
func applyReply(next *models.CandidateRecord, ev models.Event) []models.Command {
	category := classify.Classify(ev.ReplyText, next.Conversation)
	next.Conversation = append(next.Conversation, models.Message{
		Direction: models.DirectionInbound,
		SentAt:    ev.OccurredAt,
		Text:      ev.ReplyText,
		Category:  category,
	})

	switch category {
	case models.CategoryInterested:
		if next.Stage == models.StageInterviewScheduled {
			// Interest confirmation after scheduling needs no action.
			return nil
		}
		next.Stage = models.StageResponded
		return []models.Command{{Type: models.CommandProposeSlots}}
	case models.CategoryNotInterested:
		next.Stage = models.StageWithdrawn
		return nil
	case models.CategoryNeedsReschedule:
		if next.Stage != models.StageInterviewScheduled {
			next.Stage = models.StageResponded
		}
		return []models.Command{{Type: models.CommandProposeSlots}}
	case models.CategoryOutOfOffice:
		// Automated reply: stage unchanged, the scheduler re-checks later.
		return nil
	default: // needs_human_review, ambiguous
		if next.Stage == models.StageOutreachSent {
			next.Stage = models.StageResponded
		}
		next.HoldReason = HoldReasonHumanReview
		return []models.Command{{
			Type: models.CommandNotifyHR,
			Note: "reply requires human review: " + string(category),
		}}
	}
}

func applyScheduled(next *models.CandidateRecord, ev models.Event) {
	slot := *ev.Slot
	slot.Status = models.SlotConfirmed
	next.Slots = append(next.Slots, slot)
	next.Stage = models.StageInterviewScheduled
}

func applyDecision(next *models.CandidateRecord, ev models.Event) []models.Command {
	next.Stage = models.StageDecided
	next.Decision = ev.Decision

	commands := []models.Command{{
		Type:     models.CommandRecordDecision,
		Decision: ev.Decision,
		Note:     ev.Notes,
	}}
	switch ev.Decision {
	case models.DecisionAdvanced:
		commands = append(commands, email(next, models.TemplateOffer))
	case models.DecisionRejected:
		commands = append(commands, email(next, models.TemplateRejectionNotice))
	case models.DecisionHeld:
		commands = append(commands, models.Command{
			Type: models.CommandNotifyHR,
			Note: "final decision held for review",
		})
	}
	return commands
}

func email(next *models.CandidateRecord, kind models.TemplateKind) models.Command {
	return models.Command{
		Type:         models.CommandSendEmail,
		TemplateKind: kind,
		Recipient:    next.Email,
	}
}
