package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/recurrence"
	"github.com/example/clinic-scheduler/internal/scheduler"
	"github.com/example/clinic-scheduler/internal/timerange"
)

// DefaultMaxOccurrences caps recurring series length when no limit is configured.
const DefaultMaxOccurrences = 52

// BookingFilter narrows queries issued to the booking store.
type BookingFilter struct {
	RoomID *string
	From   *time.Time
	To     *time.Time
}

// BookingStore captures the persistence operations needed by the service.
// Implementations perform conflict checks inside the same transaction as the
// write and report collisions as *ConflictError.
type BookingStore interface {
	// InsertAppointments stores a batch atomically: a conflict on any element
	// aborts the whole insert.
	InsertAppointments(ctx context.Context, appointments []Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	// MoveAppointment rebinds an appointment to (roomID, start), preserving
	// its duration. The moved appointment itself never blocks the move.
	MoveAppointment(ctx context.Context, id string, roomID *string, start time.Time) (Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status AppointmentStatus) (Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	// DeleteSeries removes the series anchored at anchorID, parent and all
	// occurrences, returning the number of removed appointments.
	DeleteSeries(ctx context.Context, anchorID string) (int, error)
	ListAppointments(ctx context.Context, filter BookingFilter) ([]Appointment, error)
}

// SchedulingService orchestrates validation, conflict handling, and
// persistence for clinic bookings.
type SchedulingService struct {
	store          BookingStore
	idGenerator    func() string
	now            func() time.Time
	maxOccurrences int
	logger         zerolog.Logger
}

// NewSchedulingService constructs a scheduling service with the provided dependencies.
func NewSchedulingService(store BookingStore, idGenerator func() string, now func() time.Time) *SchedulingService {
	return NewSchedulingServiceWithLogger(store, idGenerator, now, nil)
}

// NewSchedulingServiceWithLogger constructs a scheduling service with a specified logger.
func NewSchedulingServiceWithLogger(store BookingStore, idGenerator func() string, now func() time.Time, logger *zerolog.Logger) *SchedulingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SchedulingService{
		store:          store,
		idGenerator:    idGenerator,
		now:            now,
		maxOccurrences: DefaultMaxOccurrences,
		logger:         defaultLogger(logger),
	}
}

// WithMaxOccurrences caps how long a recurring series may be. Non-positive
// limits are ignored.
func (s *SchedulingService) WithMaxOccurrences(limit int) *SchedulingService {
	if limit > 0 {
		s.maxOccurrences = limit
	}
	return s
}

func (s *SchedulingService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "SchedulingService", operation)
}

// CreateAppointment validates input and persists a booking, expanding a
// recurring request into its full series. All occurrences are stored
// atomically: one conflicting occurrence rejects the entire series.
func (s *SchedulingService) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (created []Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateAppointment")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to create appointment")
			return
		}
		logger.Info().Str("appointment_id", created[0].ID).Int("occurrences", len(created)).Msg("appointment created")
	}()

	input := params.Input
	if vErr := s.validateAppointmentInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	slot, rangeErr := timerange.New(input.Start, input.End)
	if rangeErr != nil {
		vErr := &ValidationError{}
		vErr.add("time_range", rangeErr.Error())
		err = vErr
		return
	}

	slots := []timerange.Range{slot}
	if input.Recurrence != nil {
		slots, err = recurrence.Expand(slot.Start, slot.Duration(), input.Recurrence.Rule, input.Recurrence.Count)
		if err != nil {
			err = mapRecurrenceError(err)
			return
		}
	}

	now := s.now()
	parent := Appointment{
		ID:        s.idGenerator(),
		Title:     strings.TrimSpace(input.Title),
		Notes:     strings.TrimSpace(input.Notes),
		Color:     strings.TrimSpace(input.Color),
		PatientID: normalizeOptionalString(input.PatientID),
		RoomID:    normalizeOptionalString(input.RoomID),
		Start:     slots[0].Start,
		End:       slots[0].End,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Recurrence != nil {
		parent.IsRecurring = true
		parent.RecurrenceRule = input.Recurrence.Rule
		parent.OccurrenceCount = input.Recurrence.Count
	}

	batch := make([]Appointment, 0, len(slots))
	batch = append(batch, parent)
	for _, occurrence := range slots[1:] {
		child := parent
		child.ID = s.idGenerator()
		child.Start = occurrence.Start
		child.End = occurrence.End
		parentID := parent.ID
		child.ParentAppointmentID = &parentID
		batch = append(batch, child)
	}

	if err = s.store.InsertAppointments(ctx, batch); err != nil {
		err = mapBookingStoreError(err)
		return
	}

	created = batch
	return
}

// GetAppointment loads a single booking by id.
func (s *SchedulingService) GetAppointment(ctx context.Context, id string) (appointment Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	appointment, err = s.store.GetAppointment(ctx, id)
	if err != nil {
		err = mapBookingStoreError(err)
	}
	return
}

// ProposeMove reschedules a booking to a new room and start, preserving its
// duration. The conflict check runs in the same transaction as the update, so
// two concurrent moves onto one slot resolve to a single winner.
func (s *SchedulingService) ProposeMove(ctx context.Context, params ProposeMoveParams) (moved Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "ProposeMove")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).
				Str("appointment_id", params.AppointmentID).Msg("failed to move appointment")
			return
		}
		logger.Info().Str("appointment_id", moved.ID).Time("start", moved.Start).Msg("appointment moved")
	}()

	if strings.TrimSpace(params.AppointmentID) == "" {
		vErr := &ValidationError{}
		vErr.add("appointment_id", "appointment id is required")
		err = vErr
		return
	}

	moved, err = s.store.MoveAppointment(ctx, params.AppointmentID, normalizeOptionalString(params.NewRoomID), params.NewStart)
	if err != nil {
		err = mapBookingStoreError(err)
	}
	return
}

// TransitionStatus advances a booking's lifecycle. Scheduled bookings may
// complete or cancel; completed and cancelled are terminal.
func (s *SchedulingService) TransitionStatus(ctx context.Context, id string, status AppointmentStatus) (updated Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "TransitionStatus")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).
				Str("appointment_id", id).Msg("failed to transition status")
			return
		}
		logger.Info().Str("appointment_id", updated.ID).Str("status", string(updated.Status)).Msg("status transitioned")
	}()

	if !status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("unknown status %q", status))
		err = vErr
		return
	}

	var existing Appointment
	existing, err = s.store.GetAppointment(ctx, id)
	if err != nil {
		err = mapBookingStoreError(err)
		return
	}

	if existing.Status != StatusScheduled && existing.Status != status {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("cannot transition from %s to %s", existing.Status, status))
		err = vErr
		return
	}

	updated, err = s.store.UpdateAppointmentStatus(ctx, id, status)
	if err != nil {
		err = mapBookingStoreError(err)
	}
	return
}

// DeleteAppointment removes one booking or its whole series, returning the
// number of removed appointments. Series deletion resolves the series parent
// from any member and removes parent plus occurrences atomically.
func (s *SchedulingService) DeleteAppointment(ctx context.Context, id string, scope DeleteScope) (removed int, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "DeleteAppointment")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).
				Str("appointment_id", id).Msg("failed to delete appointment")
			return
		}
		logger.Info().Str("appointment_id", id).Str("scope", string(scope)).Int("removed", removed).Msg("appointment deleted")
	}()

	if !scope.Valid() {
		vErr := &ValidationError{}
		vErr.add("scope", fmt.Sprintf("unknown delete scope %q", scope))
		err = vErr
		return
	}

	switch scope {
	case DeleteScopeSingle:
		if err = s.store.DeleteAppointment(ctx, id); err != nil {
			err = mapBookingStoreError(err)
			return
		}
		removed = 1
	case DeleteScopeSeries:
		removed, err = s.store.DeleteSeries(ctx, id)
		if err != nil {
			err = mapBookingStoreError(err)
			return
		}
	}
	return
}

// ListAppointments loads every booking overlapping the window, sorted by start
// time. Pairs of non-cancelled bookings that occupy the same room at
// overlapping times are reported as warnings; the write path prevents such
// rows, so warnings surface data edited outside the engine.
func (s *SchedulingService) ListAppointments(ctx context.Context, params ListAppointmentsParams) (appointments []Appointment, warnings []ConflictWarning, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListAppointments")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to list appointments")
			return
		}
		logger.Info().Int("result_count", len(appointments)).Int("warning_count", len(warnings)).Msg("appointments listed")
	}()

	window, rangeErr := timerange.New(params.Window.From, params.Window.To)
	if rangeErr != nil {
		vErr := &ValidationError{}
		vErr.add("window", rangeErr.Error())
		err = vErr
		return
	}

	filter := BookingFilter{RoomID: normalizeOptionalString(params.RoomID)}
	filter.From = &window.Start
	filter.To = &window.End

	appointments, err = s.store.ListAppointments(ctx, filter)
	if err != nil {
		err = mapBookingStoreError(err)
		return
	}

	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Start.Equal(appointments[j].Start) {
			return appointments[i].ID < appointments[j].ID
		}
		return appointments[i].Start.Before(appointments[j].Start)
	})

	warnings = detectWarnings(appointments)
	return
}

// detectWarnings scans loaded bookings pairwise for same-room overlaps.
// Cancelled bookings do not occupy their room and are skipped.
func detectWarnings(appointments []Appointment) []ConflictWarning {
	occupied := make([]scheduler.Booking, 0, len(appointments))
	for _, a := range appointments {
		if a.RoomID == nil || a.Status == StatusCancelled {
			continue
		}
		occupied = append(occupied, scheduler.Booking{ID: a.ID, RoomID: a.RoomID, Range: a.Range()})
	}

	var warnings []ConflictWarning
	for i, a := range occupied {
		for _, b := range occupied[i+1:] {
			if *a.RoomID == *b.RoomID && a.Range.Overlaps(b.Range) {
				warnings = append(warnings, ConflictWarning{
					AppointmentID:     a.ID,
					WithAppointmentID: b.ID,
					RoomID:            a.RoomID,
				})
			}
		}
	}
	return warnings
}

func (s *SchedulingService) validateAppointmentInput(input AppointmentInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Recurrence != nil {
		if !input.Recurrence.Rule.Valid() {
			vErr.add("recurrence_rule", fmt.Sprintf("unknown recurrence rule %q", input.Recurrence.Rule))
		}
		if input.Recurrence.Count < 1 {
			vErr.add("occurrence_count", "occurrence count must be at least 1")
		} else if input.Recurrence.Count > s.maxOccurrences {
			vErr.add("occurrence_count", fmt.Sprintf("occurrence count exceeds limit of %d", s.maxOccurrences))
		}
	}

	return vErr
}

func mapRecurrenceError(err error) error {
	vErr := &ValidationError{}
	switch {
	case errors.Is(err, recurrence.ErrInvalidRule):
		vErr.add("recurrence_rule", err.Error())
	case errors.Is(err, recurrence.ErrInvalidCount):
		vErr.add("occurrence_count", err.Error())
	case errors.Is(err, recurrence.ErrInvalidDuration):
		vErr.add("time_range", err.Error())
	default:
		return err
	}
	return vErr
}

// mapBookingStoreError translates persistence sentinels into application
// errors. Typed errors produced by store adapters, ConflictError and
// SeriesIntegrityError, pass through unchanged.
func mapBookingStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("room_id", "room does not exist")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time_range", "end must be after start")
		return vErr
	}
	return err
}
