package persistence

import (
	"context"
	"time"
)

// AppointmentRepository is the storage contract for clinic bookings. Write
// operations that place a booking on a room are conflict-checked inside the
// same transaction that performs the write, so a passing check can never be
// invalidated by a concurrent commit.
type AppointmentRepository interface {
	// InsertAppointments stores a batch atomically. Every element is checked
	// against existing bookings and against the earlier elements of the same
	// batch; a single collision aborts the whole insert with a
	// *RoomConflictError identifying the occurrence and the blocker.
	InsertAppointments(ctx context.Context, appointments []Appointment) error

	GetAppointment(ctx context.Context, id string) (Appointment, error)

	// MoveAppointment atomically rebinds an appointment to (roomID, start),
	// preserving its duration. The moved appointment's current placement is
	// excluded from the conflict check.
	MoveAppointment(ctx context.Context, id string, roomID *string, start time.Time) (Appointment, error)

	UpdateAppointmentStatus(ctx context.Context, id string, status string) (Appointment, error)

	DeleteAppointment(ctx context.Context, id string) error

	// DeleteSeries resolves the series parent from anchorID (walking up when
	// the anchor is a child) and removes the parent plus every child in one
	// atomic batch, returning the number of removed rows. A child whose
	// parent row is missing yields a *SeriesLinkageError.
	DeleteSeries(ctx context.Context, anchorID string) (int, error)

	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
}

// RoomRepository is the storage contract for the treatment room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) error
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]Room, error)
}
