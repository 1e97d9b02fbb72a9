package models

import (
	"time"

	id "hirefunnel/pkg/domain"
)

// Stage is one discrete step a candidate record passes through. Stages only
// advance forward or move to a terminal state; they never regress. A hold
// freezes a record in place without reversing its stage.
type Stage string

const (
	StageSourced             Stage = "sourced"
	StageScreened            Stage = "screened"
	StageEligibilityAssessed Stage = "eligibility_assessed"
	StageRanked              Stage = "ranked"
	StageShortlisted         Stage = "shortlisted"
	StageOutreachSent        Stage = "outreach_sent"
	StageResponded           Stage = "responded"
	StageInterviewScheduled  Stage = "interview_scheduled"
	StageInterviewCompleted  Stage = "interview_completed"
	StageDecided             Stage = "decided"
	StageRejected            Stage = "rejected"
	StageWithdrawn           Stage = "withdrawn"
)

// stageOrder positions each stage on the funnel path. Terminal stages sit
// past the end so any forward move into them is legal.
var stageOrder = map[Stage]int{
	StageSourced:             0,
	StageScreened:            1,
	StageEligibilityAssessed: 2,
	StageRanked:              3,
	StageShortlisted:         4,
	StageOutreachSent:        5,
	StageResponded:           6,
	StageInterviewScheduled:  7,
	StageInterviewCompleted:  8,
	StageDecided:             9,
	StageRejected:            10,
	StageWithdrawn:           10,
}

// Terminal reports whether the stage accepts no further stage-changing events.
func (s Stage) Terminal() bool {
	return s == StageDecided || s == StageRejected || s == StageWithdrawn
}

// Order returns the stage's position on the funnel path. Unknown stages
// return -1.
func (s Stage) Order() int {
	if o, ok := stageOrder[s]; ok {
		return o
	}
	return -1
}

// Verdict is the outcome of mandatory-criteria evaluation.
type Verdict string

const (
	VerdictPending Verdict = "pending"
	VerdictPass    Verdict = "pass"
	VerdictFail    Verdict = "fail"
)

// Eligibility records the mandatory-criteria verdict and, on failure, every
// failed criterion name so downstream reporting can show all gaps.
type Eligibility struct {
	Verdict Verdict  `json:"verdict"`
	Failed  []string `json:"failed,omitempty"`
}

// Decision is the final outcome recorded at the end of the funnel.
type Decision string

const (
	DecisionNone     Decision = ""
	DecisionAdvanced Decision = "advanced"
	DecisionHeld     Decision = "held"
	DecisionRejected Decision = "rejected"
)

// Direction marks whether a conversation message was sent by us or received
// from the candidate.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Message is one entry in a candidate's conversation log. Entries are
// immutable once appended.
type Message struct {
	Direction Direction `json:"direction"`
	SentAt    time.Time `json:"sent_at"`
	Text      string    `json:"text"`
	Category  Category  `json:"category,omitempty"`
}

// SlotStatus tracks an interview slot through the calendar round-trip.
type SlotStatus string

const (
	SlotProposed  SlotStatus = "proposed"
	SlotAccepted  SlotStatus = "accepted"
	SlotConfirmed SlotStatus = "confirmed"
)

// InterviewSlot is a proposed or accepted interview time window.
type InterviewSlot struct {
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	InterviewerID string     `json:"interviewer_id,omitempty"`
	Status        SlotStatus `json:"status"`
	EventID       string     `json:"event_id,omitempty"`
}

// StructuredProfile holds fields extracted once from the raw resume. It is
// immutable after population except by explicit re-extraction.
type StructuredProfile struct {
	Skills          []string `json:"skills,omitempty"`
	ExperienceYears float64  `json:"experience_years"`
	EducationLevel  string   `json:"education_level,omitempty"`
	Location        string   `json:"location,omitempty"`
	PreviousRoles   []string `json:"previous_roles,omitempty"`
}

// CandidateRecord is the single durable unit of funnel state, one per
// candidate. All mutation goes through the transition engine; stores commit
// it with an optimistic-concurrency check on Version.
type CandidateRecord struct {
	ID      id.CandidateID `json:"id"`
	JobID   id.JobID       `json:"job_id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Stage   Stage          `json:"stage"`
	Profile *StructuredProfile `json:"structured_profile,omitempty"`

	Eligibility Eligibility `json:"eligibility"`
	// RankScore is defined only when Eligibility.Verdict is pass.
	RankScore *float64 `json:"rank_score,omitempty"`

	Conversation []Message       `json:"conversation_log,omitempty"`
	Slots        []InterviewSlot `json:"interview_slots,omitempty"`

	Decision   Decision `json:"decision,omitempty"`
	HoldReason string   `json:"hold_reason,omitempty"`

	// AppliedEvents holds the dedup keys of every event already applied, so
	// redelivery under at-least-once transport is a no-op.
	AppliedEvents map[string]bool `json:"applied_events,omitempty"`

	SubmittedAt      time.Time `json:"submitted_at"`
	LastTransitionAt time.Time `json:"last_transition_at"`
	// Version increases by exactly 1 per committed update; stores enforce it
	// as a compare-and-swap guard against concurrent writers.
	Version int64 `json:"version"`
}

// Held reports whether the record is frozen awaiting human review. A held
// record keeps its stage; release requires an explicit hold_released event.
func (r *CandidateRecord) Held() bool {
	return r.HoldReason != "" && !r.Stage.Terminal()
}

// Applied reports whether an event dedup key has already been consumed.
func (r *CandidateRecord) Applied(dedupKey string) bool {
	return r.AppliedEvents[dedupKey]
}

// MarkApplied records an event dedup key as consumed.
func (r *CandidateRecord) MarkApplied(dedupKey string) {
	if r.AppliedEvents == nil {
		r.AppliedEvents = make(map[string]bool)
	}
	r.AppliedEvents[dedupKey] = true
}

// Clone returns a deep copy so transitions never mutate the caller's record.
func (r *CandidateRecord) Clone() *CandidateRecord {
	cp := *r
	if r.Profile != nil {
		p := *r.Profile
		p.Skills = append([]string(nil), r.Profile.Skills...)
		p.PreviousRoles = append([]string(nil), r.Profile.PreviousRoles...)
		cp.Profile = &p
	}
	if r.RankScore != nil {
		score := *r.RankScore
		cp.RankScore = &score
	}
	cp.Eligibility.Failed = append([]string(nil), r.Eligibility.Failed...)
	cp.Conversation = append([]Message(nil), r.Conversation...)
	cp.Slots = append([]InterviewSlot(nil), r.Slots...)
	if r.AppliedEvents != nil {
		cp.AppliedEvents = make(map[string]bool, len(r.AppliedEvents))
		for k, v := range r.AppliedEvents {
			cp.AppliedEvents[k] = v
		}
	}
	return &cp
}
