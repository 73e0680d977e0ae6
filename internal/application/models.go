package application

import (
	"time"

	"github.com/example/clinic-scheduler/internal/recurrence"
	"github.com/example/clinic-scheduler/internal/timerange"
)

// AppointmentStatus tracks the lifecycle of a booking.
type AppointmentStatus string

const (
	// StatusScheduled is the state every booking is created in.
	StatusScheduled AppointmentStatus = "scheduled"
	// StatusCompleted marks a visit that took place.
	StatusCompleted AppointmentStatus = "completed"
	// StatusCancelled marks a booking that was called off. Cancelled bookings
	// no longer occupy their room.
	StatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment represents a clinic booking. A booking without a room is
// unconstrained by conflict detection; a booking without a patient is a
// placeholder slot identified only by its title.
type Appointment struct {
	ID                  string
	Title               string
	Notes               string
	Color               string
	PatientID           *string
	RoomID              *string
	Start               time.Time
	End                 time.Time
	Status              AppointmentStatus
	IsRecurring         bool
	RecurrenceRule      recurrence.Rule
	OccurrenceCount     int
	ParentAppointmentID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Range returns the appointment's occupied interval.
func (a Appointment) Range() timerange.Range {
	return timerange.Range{Start: a.Start, End: a.End}
}

// SeriesParentID returns the id of the first occurrence of the appointment's
// series. For the first occurrence itself, and for non-recurring bookings,
// that is the appointment's own id.
func (a Appointment) SeriesParentID() string {
	if a.ParentAppointmentID != nil {
		return *a.ParentAppointmentID
	}
	return a.ID
}

// AppointmentInput captures caller provided booking fields.
type AppointmentInput struct {
	Title      string
	Notes      string
	Color      string
	PatientID  *string
	RoomID     *string
	Start      time.Time
	End        time.Time
	Recurrence *RecurrenceInput
}

// RecurrenceInput describes the recurring series to generate from a create
// request. A nil RecurrenceInput creates a single booking.
type RecurrenceInput struct {
	Rule  recurrence.Rule
	Count int
}

// CreateAppointmentParams wraps the data required to create a booking or a
// recurring series.
type CreateAppointmentParams struct {
	Input AppointmentInput
}

// ProposeMoveParams wraps the data required to reschedule a booking. The
// booking's duration is preserved; only room and start change.
type ProposeMoveParams struct {
	AppointmentID string
	NewRoomID     *string
	NewStart      time.Time
}

// DeleteScope selects how much of a series a delete removes.
type DeleteScope string

const (
	// DeleteScopeSingle removes one occurrence, leaving siblings in place.
	DeleteScopeSingle DeleteScope = "single"
	// DeleteScopeSeries removes the series parent and every occurrence
	// referencing it as one atomic batch.
	DeleteScopeSeries DeleteScope = "series"
)

// Valid reports whether the scope is a known value.
func (s DeleteScope) Valid() bool {
	return s == DeleteScopeSingle || s == DeleteScopeSeries
}

// Window is the visible calendar span bookings are loaded for.
type Window struct {
	From time.Time
	To   time.Time
}

// ListAppointmentsParams wraps the data required to list a calendar window.
type ListAppointmentsParams struct {
	Window Window
	RoomID *string
}

// ConflictWarning flags two loaded bookings that occupy the same room at
// overlapping times. The scheduling operations prevent this state from being
// written; warnings surface rows that predate the engine or were edited
// outside it.
type ConflictWarning struct {
	AppointmentID     string
	WithAppointmentID string
	RoomID            *string
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Color    string
	Capacity int
	IsActive bool
}

// Room represents a treatment room. Capacity is advisory: conflict detection
// treats every room as single occupancy regardless of its value.
type Room struct {
	ID        string
	Name      string
	Color     string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Input RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	RoomID string
	Input  RoomInput
}
