package persistence

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same identity already exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a stored check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)

// RoomConflictError reports the existing booking that blocked a
// conflict-checked write. OccurrenceIndex identifies which occurrence of a
// batch collided; it is zero for single inserts and moves. CandidateStart and
// CandidateEnd describe the slot that was requested.
type RoomConflictError struct {
	OccurrenceIndex int
	CandidateStart  time.Time
	CandidateEnd    time.Time
	Conflicting     Appointment
}

// Error implements the error interface.
func (e *RoomConflictError) Error() string {
	room := ""
	if e.Conflicting.RoomID != nil {
		room = *e.Conflicting.RoomID
	}
	return fmt.Sprintf("persistence: room %s already booked by appointment %s (%s - %s)",
		room, e.Conflicting.ID,
		e.Conflicting.Start.Format(time.RFC3339), e.Conflicting.End.Format(time.RFC3339))
}

// SeriesLinkageError reports a whole-series operation whose parent linkage is
// broken: the anchor references a parent appointment that no longer exists.
type SeriesLinkageError struct {
	AppointmentID string
	ParentID      string
}

// Error implements the error interface.
func (e *SeriesLinkageError) Error() string {
	return fmt.Sprintf("persistence: appointment %s references missing series parent %s",
		e.AppointmentID, e.ParentID)
}
