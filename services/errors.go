package services

import "errors"

// Sentinel errors for the booking/payment lifecycle. Handlers and callers
// match these with errors.Is; services wrap them with context via fmt.Errorf.
var (
	// ErrInvalidStateTransition is returned when an operation is attempted
	// from a state that does not permit it. No partial mutation happens.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrSlotUnavailable is returned when a reservation race is lost or the
	// requested slot is already bound. The caller should pick another slot.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrSlotNotBound is returned when releasing a slot that has no active
	// session binding.
	ErrSlotNotBound = errors.New("slot not bound")

	// ErrRefundExceedsEligible is returned when a requested or approved
	// amount exceeds the computed refund ceiling. Never auto-corrected.
	ErrRefundExceedsEligible = errors.New("refund exceeds eligible amount")

	// ErrRequestAlreadyPending is returned on a second refund submission
	// while one is still pending for the same purchase.
	ErrRequestAlreadyPending = errors.New("refund request already pending")

	// ErrNotFound is returned for unknown entity ids.
	ErrNotFound = errors.New("not found")
)
