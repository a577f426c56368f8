package lifecycle

import "errors"

// Sentinel errors for lifecycle transitions. Callers distinguish them with
// errors.Is so the API can tell "wrong QR" apart from "job not active yet".
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrTaskNotOpen       = errors.New("task is not open")
	ErrAlreadyAssigned   = errors.New("task already assigned")
	ErrInvalidState      = errors.New("task is not in a valid state")
	ErrPrecursorMissing  = errors.New("check-in required before check-out")
	ErrTokenMismatch     = errors.New("qr token mismatch")
	ErrSettlementPending = errors.New("checkout recorded but settlement pending")
)
