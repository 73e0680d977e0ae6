package main

import (
	"context"
	"errors"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/recurrence"
	"github.com/example/clinic-scheduler/internal/timerange"
)

// bookingStoreAdapter bridges the repository's persistence models onto the
// application.BookingStore contract, translating typed conflict and linkage
// errors on the way out.
type bookingStoreAdapter struct {
	repo persistence.AppointmentRepository
}

func newBookingStoreAdapter(repo persistence.AppointmentRepository) *bookingStoreAdapter {
	return &bookingStoreAdapter{repo: repo}
}

func (a *bookingStoreAdapter) InsertAppointments(ctx context.Context, appointments []application.Appointment) error {
	models := make([]persistence.Appointment, 0, len(appointments))
	for _, appointment := range appointments {
		models = append(models, toPersistenceAppointment(appointment))
	}
	return mapStoreError(a.repo.InsertAppointments(ctx, models))
}

func (a *bookingStoreAdapter) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	stored, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return application.Appointment{}, mapStoreError(err)
	}
	return toApplicationAppointment(stored), nil
}

func (a *bookingStoreAdapter) MoveAppointment(ctx context.Context, id string, roomID *string, start time.Time) (application.Appointment, error) {
	stored, err := a.repo.MoveAppointment(ctx, id, roomID, start)
	if err != nil {
		return application.Appointment{}, mapStoreError(err)
	}
	return toApplicationAppointment(stored), nil
}

func (a *bookingStoreAdapter) UpdateAppointmentStatus(ctx context.Context, id string, status application.AppointmentStatus) (application.Appointment, error) {
	stored, err := a.repo.UpdateAppointmentStatus(ctx, id, string(status))
	if err != nil {
		return application.Appointment{}, mapStoreError(err)
	}
	return toApplicationAppointment(stored), nil
}

func (a *bookingStoreAdapter) DeleteAppointment(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteAppointment(ctx, id))
}

func (a *bookingStoreAdapter) DeleteSeries(ctx context.Context, anchorID string) (int, error) {
	removed, err := a.repo.DeleteSeries(ctx, anchorID)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return removed, nil
}

func (a *bookingStoreAdapter) ListAppointments(ctx context.Context, filter application.BookingFilter) ([]application.Appointment, error) {
	models, err := a.repo.ListAppointments(ctx, persistence.AppointmentFilter{
		RoomID:      filter.RoomID,
		StartsAfter: filter.From,
		EndsBefore:  filter.To,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	appointments := make([]application.Appointment, 0, len(models))
	for _, model := range models {
		appointments = append(appointments, toApplicationAppointment(model))
	}
	return appointments, nil
}

// roomRepositoryAdapter bridges persistence room models onto the
// application.RoomRepository contract.
type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

// mapStoreError converts typed repository errors into their application
// counterparts. Sentinel errors pass through for the services to map.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var conflict *persistence.RoomConflictError
	if errors.As(err, &conflict) {
		return &application.ConflictError{
			Candidate:       timerange.Range{Start: conflict.CandidateStart, End: conflict.CandidateEnd},
			OccurrenceIndex: conflict.OccurrenceIndex,
			Conflicting:     toApplicationAppointment(conflict.Conflicting),
		}
	}

	var linkage *persistence.SeriesLinkageError
	if errors.As(err, &linkage) {
		return &application.SeriesIntegrityError{
			AppointmentID: linkage.AppointmentID,
			ParentID:      linkage.ParentID,
		}
	}

	return err
}

func toApplicationAppointment(model persistence.Appointment) application.Appointment {
	appointment := application.Appointment{
		ID:                  model.ID,
		Title:               model.Title,
		Notes:               model.Notes,
		Color:               model.Color,
		PatientID:           cloneString(model.PatientID),
		RoomID:              cloneString(model.RoomID),
		Start:               model.Start,
		End:                 model.End,
		Status:              application.AppointmentStatus(model.Status),
		IsRecurring:         model.IsRecurring,
		ParentAppointmentID: cloneString(model.ParentAppointmentID),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
	if model.RecurrenceRule != nil {
		appointment.RecurrenceRule = recurrence.Rule(*model.RecurrenceRule)
	}
	if model.OccurrenceCount != nil {
		appointment.OccurrenceCount = *model.OccurrenceCount
	}
	return appointment
}

func toPersistenceAppointment(appointment application.Appointment) persistence.Appointment {
	model := persistence.Appointment{
		ID:                  appointment.ID,
		Title:               appointment.Title,
		Notes:               appointment.Notes,
		Color:               appointment.Color,
		PatientID:           cloneString(appointment.PatientID),
		RoomID:              cloneString(appointment.RoomID),
		Start:               appointment.Start,
		End:                 appointment.End,
		Status:              string(appointment.Status),
		IsRecurring:         appointment.IsRecurring,
		ParentAppointmentID: cloneString(appointment.ParentAppointmentID),
		CreatedAt:           appointment.CreatedAt,
		UpdatedAt:           appointment.UpdatedAt,
	}
	if appointment.IsRecurring {
		rule := string(appointment.RecurrenceRule)
		count := appointment.OccurrenceCount
		model.RecurrenceRule = &rule
		model.OccurrenceCount = &count
	}
	return model
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Color:     model.Color,
		Capacity:  model.Capacity,
		IsActive:  model.IsActive,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Color:     room.Color,
		Capacity:  room.Capacity,
		IsActive:  room.IsActive,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
