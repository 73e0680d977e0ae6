package persistence

import "time"

// Appointment represents a clinic booking stored in persistence.
type Appointment struct {
	ID                  string
	Title               string
	Notes               string
	Color               string
	PatientID           *string
	RoomID              *string
	Start               time.Time
	End                 time.Time
	Status              string
	IsRecurring         bool
	RecurrenceRule      *string
	OccurrenceCount     *int
	ParentAppointmentID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Room represents a treatment room catalog entry.
type Room struct {
	ID        string
	Name      string
	Color     string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentFilter narrows queries issued to the appointment repository.
// StartsAfter keeps appointments ending after the instant; EndsBefore keeps
// appointments starting before it. Supplying both selects everything
// overlapping the window (StartsAfter, EndsBefore).
type AppointmentFilter struct {
	RoomID      *string
	ParentID    *string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}
