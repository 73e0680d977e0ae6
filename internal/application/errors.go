package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-scheduler/internal/timerange"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a resource with the same identity exists.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ConflictError reports the existing booking that blocked a create or a move.
// Callers can present "conflict with X at time Y" from its fields.
type ConflictError struct {
	// Candidate is the slot that was requested.
	Candidate timerange.Range
	// OccurrenceIndex identifies which occurrence of a recurring create
	// collided; it is zero for single creates and moves.
	OccurrenceIndex int
	// Conflicting is the booking already occupying the slot.
	Conflicting Appointment
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	room := ""
	if e.Conflicting.RoomID != nil {
		room = *e.Conflicting.RoomID
	}
	return fmt.Sprintf("application: conflict with appointment %s in room %s (%s - %s)",
		e.Conflicting.ID, room,
		e.Conflicting.Start.Format(time.RFC3339), e.Conflicting.End.Format(time.RFC3339))
}

// SeriesIntegrityError reports a whole-series delete whose parent linkage is
// broken: the targeted appointment references a parent that no longer exists.
type SeriesIntegrityError struct {
	AppointmentID string
	ParentID      string
}

// Error implements the error interface.
func (e *SeriesIntegrityError) Error() string {
	return fmt.Sprintf("application: appointment %s references missing series parent %s",
		e.AppointmentID, e.ParentID)
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
