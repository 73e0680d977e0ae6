package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/recurrence"
)

var (
	roomCounter        uint64
	appointmentCounter uint64
)

var referenceTime = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures. It
// falls on a Monday at 09:00 UTC so weekly expansions stay on weekdays.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic treatment room record.
type RoomFixture struct {
	ID        string
	Name      string
	Color     string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	id := fmt.Sprintf("room-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        id,
		Name:      fmt.Sprintf("Treatment Room %03d", idx),
		Color:     "#4a90d9",
		Capacity:  1,
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomActive sets the active flag on the fixture.
func WithRoomActive(active bool) RoomOption {
	return func(f *RoomFixture) {
		f.IsActive = active
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Color:     f.Color,
		Capacity:  f.Capacity,
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Color:     f.Color,
		Capacity:  f.Capacity,
		IsActive:  f.IsActive,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.RoomInput.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:     f.Name,
		Color:    f.Color,
		Capacity: f.Capacity,
		IsActive: f.IsActive,
	}
}

// --------------------------- Appointment fixtures -------------------------

// AppointmentFixture represents a deterministic clinic booking record. The
// default booking occupies a one hour slot, each new fixture one hour after
// the previous, so fixtures in one room never overlap unless a test asks
// them to.
type AppointmentFixture struct {
	ID                  string
	Title               string
	Notes               string
	Color               string
	PatientID           *string
	RoomID              *string
	Start               time.Time
	End                 time.Time
	Status              application.AppointmentStatus
	IsRecurring         bool
	RecurrenceRule      recurrence.Rule
	OccurrenceCount     int
	ParentAppointmentID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns a deterministic appointment fixture with
// optional overrides.
func NewAppointmentFixture(opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	id := fmt.Sprintf("appointment-%03d", idx)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := AppointmentFixture{
		ID:        id,
		Title:     fmt.Sprintf("Consultation %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		Status:    application.StatusScheduled,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAppointmentID overrides the appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.ID = id
	}
}

// WithAppointmentTitle overrides the title.
func WithAppointmentTitle(title string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Title = title
	}
}

// WithAppointmentStartEnd sets the start and end times.
func WithAppointmentStartEnd(start, end time.Time) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Start = start
		f.End = end
	}
}

// WithAppointmentRoomID sets the optional room ID.
func WithAppointmentRoomID(roomID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		id := roomID
		f.RoomID = &id
	}
}

// WithoutAppointmentRoom clears the room ID.
func WithoutAppointmentRoom() AppointmentOption {
	return func(f *AppointmentFixture) {
		f.RoomID = nil
	}
}

// WithAppointmentPatientID sets the optional patient ID.
func WithAppointmentPatientID(patientID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		id := patientID
		f.PatientID = &id
	}
}

// WithAppointmentStatus sets the lifecycle status.
func WithAppointmentStatus(status application.AppointmentStatus) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Status = status
	}
}

// WithAppointmentSeries marks the fixture as the parent of a recurring series.
func WithAppointmentSeries(rule recurrence.Rule, count int) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.IsRecurring = true
		f.RecurrenceRule = rule
		f.OccurrenceCount = count
	}
}

// WithAppointmentParent links the fixture to a series parent.
func WithAppointmentParent(parentID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		id := parentID
		f.ParentAppointmentID = &id
	}
}

// Application returns the fixture as an application.Appointment value.
func (f AppointmentFixture) Application() application.Appointment {
	return application.Appointment{
		ID:                  f.ID,
		Title:               f.Title,
		Notes:               f.Notes,
		Color:               f.Color,
		PatientID:           copyStringPtr(f.PatientID),
		RoomID:              copyStringPtr(f.RoomID),
		Start:               f.Start,
		End:                 f.End,
		Status:              f.Status,
		IsRecurring:         f.IsRecurring,
		RecurrenceRule:      f.RecurrenceRule,
		OccurrenceCount:     f.OccurrenceCount,
		ParentAppointmentID: copyStringPtr(f.ParentAppointmentID),
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Appointment value.
func (f AppointmentFixture) Persistence() persistence.Appointment {
	var rule *string
	if f.IsRecurring {
		value := string(f.RecurrenceRule)
		rule = &value
	}
	var count *int
	if f.IsRecurring {
		value := f.OccurrenceCount
		count = &value
	}
	return persistence.Appointment{
		ID:                  f.ID,
		Title:               f.Title,
		Notes:               f.Notes,
		Color:               f.Color,
		PatientID:           copyStringPtr(f.PatientID),
		RoomID:              copyStringPtr(f.RoomID),
		Start:               f.Start,
		End:                 f.End,
		Status:              string(f.Status),
		IsRecurring:         f.IsRecurring,
		RecurrenceRule:      rule,
		OccurrenceCount:     count,
		ParentAppointmentID: copyStringPtr(f.ParentAppointmentID),
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// Input returns the fixture as an application.AppointmentInput.
func (f AppointmentFixture) Input() application.AppointmentInput {
	input := application.AppointmentInput{
		Title:     f.Title,
		Notes:     f.Notes,
		Color:     f.Color,
		PatientID: copyStringPtr(f.PatientID),
		RoomID:    copyStringPtr(f.RoomID),
		Start:     f.Start,
		End:       f.End,
	}
	if f.IsRecurring {
		input.Recurrence = &application.RecurrenceInput{
			Rule:  f.RecurrenceRule,
			Count: f.OccurrenceCount,
		}
	}
	return input
}

// helper to deep copy optional strings.
func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
