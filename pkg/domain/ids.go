// Package domain holds identifier types shared across features.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment (a CandidateID can never be passed where a JobID is expected).
package domain

import (
	"github.com/google/uuid"

	dErrors "hirefunnel/pkg/domain-errors"
)

// CandidateID identifies a candidate record.
type CandidateID uuid.UUID

// JobID identifies a job requisition and its criteria.
type JobID uuid.UUID

func (id CandidateID) String() string { return uuid.UUID(id).String() }
func (id CandidateID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id JobID) String() string { return uuid.UUID(id).String() }
func (id JobID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID in canonical UUID form for JSON documents.
func (id CandidateID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

// UnmarshalText parses the canonical UUID form.
func (id *CandidateID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = CandidateID(u)
	return nil
}

// MarshalText renders the ID in canonical UUID form for JSON documents.
func (id JobID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

// UnmarshalText parses the canonical UUID form.
func (id *JobID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = JobID(u)
	return nil
}

// NewCandidateID returns a fresh random candidate ID.
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }

// NewJobID returns a fresh random job ID.
func NewJobID() JobID { return JobID(uuid.New()) }

// ParseCandidateID validates and parses a candidate ID at a trust boundary.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseUUID(s, "candidate_id")
	if err != nil {
		return CandidateID{}, err
	}
	return CandidateID(u), nil
}

// ParseJobID validates and parses a job ID at a trust boundary.
func ParseJobID(s string) (JobID, error) {
	u, err := parseUUID(s, "job_id")
	if err != nil {
		return JobID{}, err
	}
	return JobID(u), nil
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s is required", field)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s is not a valid UUID", field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s must not be the nil UUID", field)
	}
	return u, nil
}
