package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

const roomColumns = "id, name, color, capacity, is_active, created_at, updated_at"

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := fmt.Sprintf("INSERT INTO rooms (%s) VALUES (?, ?, ?, ?, ?, ?, ?)", roomColumns)

	isActive := 0
	if room.IsActive {
		isActive = 1
	}

	_, err := r.pool.DB().ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Color,
		room.Capacity,
		isActive,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = ?", roomColumns)
	room, err := scanRoom(r.pool.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// UpdateRoom updates an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrNotFound
	}

	isActive := 0
	if room.IsActive {
		isActive = 1
	}

	result, err := r.pool.DB().ExecContext(ctx,
		"UPDATE rooms SET name = ?, color = ?, capacity = ?, is_active = ?, updated_at = ? WHERE id = ?",
		room.Name, room.Color, room.Capacity, isActive, formatTime(room.UpdatedAt), room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteRoom removes a room by id. Rooms referenced by appointments are
// protected by the foreign key.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListRooms lists every room ordered by name then id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms ORDER BY name ASC, id ASC", roomColumns)

	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return rooms, nil
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var isActive int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Color,
		&room.Capacity,
		&isActive,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Room{}, err
	}

	room.IsActive = isActive != 0

	if room.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return room, nil
}
