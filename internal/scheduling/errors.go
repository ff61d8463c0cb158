package scheduling

import "errors"

var (
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:mm")
	ErrConflict          = errors.New("scheduling conflict")
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid appointment status")
)

// ConflictKind tells callers which booking rule rejected a request.
type ConflictKind string

const (
	ConflictUnavailableDay ConflictKind = "unavailable_day"
	ConflictOutsideHours   ConflictKind = "outside_hours"
	ConflictDoubleBooked   ConflictKind = "double_booked"
	ConflictPatientDate    ConflictKind = "patient_date"
	ConflictConcurrent     ConflictKind = "concurrent_update"
)

// ConflictError carries the human-readable reason for a rejected booking.
// It matches ErrConflict under errors.Is.
type ConflictError struct {
	Kind    ConflictKind
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func newConflict(kind ConflictKind, msg string) *ConflictError {
	return &ConflictError{Kind: kind, Message: msg}
}
