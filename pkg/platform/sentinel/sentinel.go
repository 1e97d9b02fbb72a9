package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrConflict: optimistic-concurrency version mismatch on commit
// - ErrAlreadyApplied: event or command dedup key already consumed
// - ErrInvalidState: record in wrong stage for requested operation
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyApplied = errors.New("already applied")
	ErrInvalidState   = errors.New("invalid state")
	ErrUnavailable    = errors.New("unavailable")
)
