package core

import "errors"

// Validation errors are rejected before any write; state stays untouched.
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEmptyParticipantSet   = errors.New("participant set is empty")
	ErrDuplicateParticipant  = errors.New("duplicate participant")
	ErrCrossGroupParticipant = errors.New("participant is not a member of the group")
	ErrSelfTransaction       = errors.New("payer and recipient must differ")
	ErrEmptyName             = errors.New("empty name")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidFrequency      = errors.New("invalid frequency")
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrScheduleExhausted reports generation attempted on an inactive
	// recurring debt. Callers are expected never to do this, so it is
	// surfaced loudly instead of being ignored.
	ErrScheduleExhausted = errors.New("recurring debt is inactive")

	// ErrStorageConflict reports a lost optimistic-concurrency race, e.g.
	// two sweeps advancing the same next-generation date. The losing
	// writer rolls back completely and retries from a fresh read.
	ErrStorageConflict = errors.New("concurrent write conflict")
)
