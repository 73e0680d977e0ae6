package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/scheduler"
	"github.com/example/clinic-scheduler/internal/timerange"
)

// BookingStore is an in-memory application.BookingStore for service and
// handler tests. Writes are conflict-checked under the store mutex, matching
// the transactional guarantee of the SQLite repository.
type BookingStore struct {
	mu           sync.Mutex
	appointments map[string]application.Appointment
}

// NewBookingStore returns an empty in-memory booking store.
func NewBookingStore() *BookingStore {
	return &BookingStore{appointments: make(map[string]application.Appointment)}
}

// Seed inserts appointments directly, bypassing conflict checks. Tests use it
// to arrange states the write path would reject.
func (s *BookingStore) Seed(appointments ...application.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, appointment := range appointments {
		s.appointments[appointment.ID] = appointment
	}
}

// Len reports the number of stored appointments.
func (s *BookingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

// InsertAppointments implements application.BookingStore.
func (s *BookingStore) InsertAppointments(ctx context.Context, appointments []application.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	occupied := s.occupiedLocked("")
	for i, appointment := range appointments {
		candidate := timerange.Range{Start: appointment.Start, End: appointment.End}
		if hit := scheduler.FindConflict(occupied, appointment.RoomID, candidate, appointment.ID); hit != nil {
			return &application.ConflictError{
				Candidate:       candidate,
				OccurrenceIndex: i,
				Conflicting:     s.appointmentByIDLocked(hit.ID, appointments[:i]),
			}
		}
		occupied = append(occupied, scheduler.Booking{
			ID:     appointment.ID,
			RoomID: appointment.RoomID,
			Range:  candidate,
		})
	}

	for _, appointment := range appointments {
		s.appointments[appointment.ID] = appointment
	}
	return nil
}

// GetAppointment implements application.BookingStore.
func (s *BookingStore) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return application.Appointment{}, application.ErrNotFound
	}
	return appointment, nil
}

// MoveAppointment implements application.BookingStore.
func (s *BookingStore) MoveAppointment(ctx context.Context, id string, roomID *string, start time.Time) (application.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[id]
	if !ok {
		return application.Appointment{}, application.ErrNotFound
	}

	end := start.Add(existing.End.Sub(existing.Start))
	candidate := timerange.Range{Start: start, End: end}
	if hit := scheduler.FindConflict(s.occupiedLocked(id), roomID, candidate, id); hit != nil {
		return application.Appointment{}, &application.ConflictError{
			Candidate:   candidate,
			Conflicting: s.appointments[hit.ID],
		}
	}

	existing.RoomID = roomID
	existing.Start = start
	existing.End = end
	s.appointments[id] = existing
	return existing, nil
}

// UpdateAppointmentStatus implements application.BookingStore.
func (s *BookingStore) UpdateAppointmentStatus(ctx context.Context, id string, status application.AppointmentStatus) (application.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[id]
	if !ok {
		return application.Appointment{}, application.ErrNotFound
	}

	existing.Status = status
	s.appointments[id] = existing
	return existing, nil
}

// DeleteAppointment implements application.BookingStore.
func (s *BookingStore) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

// DeleteSeries implements application.BookingStore.
func (s *BookingStore) DeleteSeries(ctx context.Context, anchorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	anchor, ok := s.appointments[anchorID]
	if !ok {
		return 0, application.ErrNotFound
	}

	parentID := anchorID
	if anchor.ParentAppointmentID != nil {
		parentID = *anchor.ParentAppointmentID
		if _, ok := s.appointments[parentID]; !ok {
			return 0, &application.SeriesIntegrityError{AppointmentID: anchorID, ParentID: parentID}
		}
	}

	removed := 0
	for id, appointment := range s.appointments {
		if id == parentID || (appointment.ParentAppointmentID != nil && *appointment.ParentAppointmentID == parentID) {
			delete(s.appointments, id)
			removed++
		}
	}
	return removed, nil
}

// ListAppointments implements application.BookingStore.
func (s *BookingStore) ListAppointments(ctx context.Context, filter application.BookingFilter) ([]application.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []application.Appointment
	for _, appointment := range s.appointments {
		if filter.RoomID != nil {
			if appointment.RoomID == nil || *appointment.RoomID != *filter.RoomID {
				continue
			}
		}
		if filter.From != nil && !appointment.End.After(*filter.From) {
			continue
		}
		if filter.To != nil && !appointment.Start.Before(*filter.To) {
			continue
		}
		result = append(result, appointment)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Start.Equal(result[j].Start) {
			return result[i].ID < result[j].ID
		}
		return result[i].Start.Before(result[j].Start)
	})
	return result, nil
}

// occupiedLocked snapshots every non-cancelled roomed appointment except
// excludeID as conflict detector input.
func (s *BookingStore) occupiedLocked(excludeID string) []scheduler.Booking {
	occupied := make([]scheduler.Booking, 0, len(s.appointments))
	for _, appointment := range s.appointments {
		if appointment.ID == excludeID {
			continue
		}
		if appointment.RoomID == nil || appointment.Status == application.StatusCancelled {
			continue
		}
		occupied = append(occupied, scheduler.Booking{
			ID:     appointment.ID,
			RoomID: appointment.RoomID,
			Range:  appointment.Range(),
		})
	}
	return occupied
}

// appointmentByIDLocked resolves a conflicting booking from the store or from
// the earlier elements of an in-flight batch.
func (s *BookingStore) appointmentByIDLocked(id string, staged []application.Appointment) application.Appointment {
	if appointment, ok := s.appointments[id]; ok {
		return appointment
	}
	for _, appointment := range staged {
		if appointment.ID == id {
			return appointment
		}
	}
	return application.Appointment{ID: id}
}

// RoomStore is an in-memory application.RoomRepository for room service tests.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]application.Room
}

// NewRoomStore returns an empty in-memory room store.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]application.Room)}
}

// Seed inserts rooms directly.
func (s *RoomStore) Seed(rooms ...application.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range rooms {
		s.rooms[room.ID] = room
	}
}

// CreateRoom implements application.RoomRepository.
func (s *RoomStore) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; ok {
		return application.Room{}, application.ErrAlreadyExists
	}
	for _, existing := range s.rooms {
		if existing.Name == room.Name {
			return application.Room{}, application.ErrAlreadyExists
		}
	}
	s.rooms[room.ID] = room
	return room, nil
}

// GetRoom implements application.RoomRepository.
func (s *RoomStore) GetRoom(ctx context.Context, id string) (application.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return application.Room{}, application.ErrNotFound
	}
	return room, nil
}

// UpdateRoom implements application.RoomRepository.
func (s *RoomStore) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; !ok {
		return application.Room{}, application.ErrNotFound
	}
	s.rooms[room.ID] = room
	return room, nil
}

// DeleteRoom implements application.RoomRepository.
func (s *RoomStore) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

// ListRooms implements application.RoomRepository.
func (s *RoomStore) ListRooms(ctx context.Context) ([]application.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]application.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}
