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
)

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]Room, error)
}

// RoomService orchestrates validation and persistence for the room catalog.
type RoomService struct {
	rooms       RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, idGenerator func() string, now func() time.Time, logger *zerolog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation)
}

// CreateRoom validates input and persists a new room.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to create room")
			return
		}
		logger.Info().Str("room_id", room.ID).Msg("room created")
	}()

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	room = Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Color:     strings.TrimSpace(params.Input.Color),
		Capacity:  params.Input.Capacity,
		IsActive:  params.Input.IsActive,
		CreatedAt: s.now(),
	}
	room.UpdatedAt = room.CreatedAt

	if s.rooms == nil {
		return
	}

	var persisted Room
	persisted, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = persisted
	return
}

// UpdateRoom validates input and updates an existing room.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).
				Str("room_id", params.RoomID).Msg("failed to update room")
			return
		}
		logger.Info().Str("room_id", room.ID).Msg("room updated")
	}()

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Color = strings.TrimSpace(params.Input.Color)
	updated.Capacity = params.Input.Capacity
	updated.IsActive = params.Input.IsActive
	updated.UpdatedAt = s.now()

	room, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	return
}

// GetRoom loads a single room by id.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRoomRepoError(err)
	}
	return
}

// DeleteRoom removes an existing room. Bookings referencing the room keep it
// alive through the store's foreign key, surfaced as a validation error.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom")

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).
			Str("room_id", roomID).Msg("failed to delete room")
		return err
	}

	logger.Info().Str("room_id", roomID).Msg("room deleted")
	return nil
}

// ListRooms returns the room catalog sorted by name.
func (s *RoomService) ListRooms(ctx context.Context) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to list rooms")
			return
		}
		logger.Info().Int("result_count", len(rooms)).Msg("rooms listed")
	}()

	var raw []Room
	raw, err = s.rooms.ListRooms(ctx)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	rooms = make([]Room, len(raw))
	copy(rooms, raw)

	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})

	return
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}

	return vErr
}

func mapRoomRepoError(err error) error {
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
		vErr.add("room_id", "room is referenced by existing appointments")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
