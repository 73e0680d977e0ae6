package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

const appointmentColumns = `id, title, notes, color, patient_id, room_id,
	start_time, end_time, status, is_recurring, recurrence_rule,
	occurrence_count, parent_appointment_id, created_at, updated_at`

// AppointmentRepository implements persistence.AppointmentRepository using SQLite.
type AppointmentRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewAppointmentRepository creates a new SQLite appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// InsertAppointments stores a batch atomically. Each element is checked for a
// room conflict before its insert; because earlier elements of the batch are
// already visible inside the transaction, occurrences of one series also
// guard against each other.
func (r *AppointmentRepository) InsertAppointments(ctx context.Context, appointments []persistence.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}
	for _, appointment := range appointments {
		if appointment.ID == "" {
			return persistence.ErrConstraintViolation
		}
		if !appointment.End.After(appointment.Start) {
			return persistence.ErrConstraintViolation
		}
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for i, appointment := range appointments {
				conflict, err := r.findRoomConflict(tx, appointment.RoomID, appointment.Start, appointment.End, appointment.ID)
				if err != nil {
					return err
				}
				if conflict != nil {
					return &persistence.RoomConflictError{
						OccurrenceIndex: i,
						CandidateStart:  appointment.Start,
						CandidateEnd:    appointment.End,
						Conflicting:     *conflict,
					}
				}
				if err := r.insert(tx, appointment); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// GetAppointment retrieves an appointment by id.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = ?", appointmentColumns)
	appointment, err := scanAppointment(r.pool.DB().QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Appointment{}, r.mapper.MapError(err)
	}
	return appointment, nil
}

// MoveAppointment rebinds an appointment to (roomID, start), preserving its
// duration. The conflict check and the update share one transaction, so of
// two concurrent moves onto the same slot exactly one commits.
func (r *AppointmentRepository) MoveAppointment(ctx context.Context, id string, roomID *string, start time.Time) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	// Stored timestamps are whole-second RFC 3339; truncate up front so the
	// returned appointment matches the persisted row.
	start = start.UTC().Truncate(time.Second)

	var moved persistence.Appointment
	err := r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = ?", appointmentColumns)
			existing, err := scanAppointment(tx.QueryRow(query, id))
			if err != nil {
				return r.mapper.MapError(err)
			}

			end := start.Add(existing.End.Sub(existing.Start))
			conflict, err := r.findRoomConflict(tx, roomID, start, end, id)
			if err != nil {
				return err
			}
			if conflict != nil {
				return &persistence.RoomConflictError{
					CandidateStart: start,
					CandidateEnd:   end,
					Conflicting:    *conflict,
				}
			}

			now := time.Now().UTC().Truncate(time.Second)
			_, err = tx.Exec(
				"UPDATE appointments SET room_id = ?, start_time = ?, end_time = ?, updated_at = ? WHERE id = ?",
				nullString(roomID), formatTime(start), formatTime(end), formatTime(now), id,
			)
			if err != nil {
				return r.mapper.MapError(err)
			}

			moved = existing
			moved.RoomID = roomID
			moved.Start = start.UTC()
			moved.End = end.UTC()
			moved.UpdatedAt = now
			return nil
		})
	})
	if err != nil {
		return persistence.Appointment{}, err
	}
	return moved, nil
}

// UpdateAppointmentStatus sets an appointment's lifecycle status.
func (r *AppointmentRepository) UpdateAppointmentStatus(ctx context.Context, id string, status string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	var updated persistence.Appointment
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = ?", appointmentColumns)
		existing, err := scanAppointment(tx.QueryRow(query, id))
		if err != nil {
			return r.mapper.MapError(err)
		}

		now := time.Now().UTC().Truncate(time.Second)
		_, err = tx.Exec(
			"UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?",
			status, formatTime(now), id,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		updated = existing
		updated.Status = status
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return persistence.Appointment{}, err
	}
	return updated, nil
}

// DeleteAppointment removes a single appointment by id.
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM appointments WHERE id = ?", id)
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

// DeleteSeries resolves the series parent from anchorID and removes the parent
// together with every appointment referencing it, returning the number of
// removed rows.
func (r *AppointmentRepository) DeleteSeries(ctx context.Context, anchorID string) (int, error) {
	if anchorID == "" {
		return 0, persistence.ErrNotFound
	}

	var removed int
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var parentColumn sql.NullString
		err := tx.QueryRow("SELECT parent_appointment_id FROM appointments WHERE id = ?", anchorID).Scan(&parentColumn)
		if err != nil {
			return r.mapper.MapError(err)
		}

		parentID := anchorID
		if parentColumn.Valid {
			parentID = parentColumn.String

			var exists int
			err := tx.QueryRow("SELECT 1 FROM appointments WHERE id = ?", parentID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return &persistence.SeriesLinkageError{AppointmentID: anchorID, ParentID: parentID}
			}
			if err != nil {
				return r.mapper.MapError(err)
			}
		}

		result, err := tx.Exec(
			"DELETE FROM appointments WHERE id = ? OR parent_appointment_id = ?",
			parentID, parentID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		removed = int(affected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ListAppointments lists appointments matching the filter, ordered by start
// time then id.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	query, args := buildAppointmentListQuery(filter)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var appointments []persistence.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return appointments, nil
}

// findRoomConflict returns the earliest non-cancelled appointment occupying
// roomID during [start, end), excluding excludeID, or nil when the slot is
// free. A nil roomID never conflicts.
func (r *AppointmentRepository) findRoomConflict(tx *sql.Tx, roomID *string, start, end time.Time, excludeID string) (*persistence.Appointment, error) {
	if roomID == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE room_id = ? AND id != ? AND status != 'cancelled'
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC, id ASC
		LIMIT 1
	`, appointmentColumns)

	conflict, err := scanAppointment(tx.QueryRow(query, *roomID, excludeID, formatTime(end), formatTime(start)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return &conflict, nil
}

func (r *AppointmentRepository) insert(tx *sql.Tx, appointment persistence.Appointment) error {
	query := fmt.Sprintf(`
		INSERT INTO appointments (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, appointmentColumns)

	isRecurring := 0
	if appointment.IsRecurring {
		isRecurring = 1
	}

	var occurrenceCount sql.NullInt64
	if appointment.OccurrenceCount != nil {
		occurrenceCount.Int64 = int64(*appointment.OccurrenceCount)
		occurrenceCount.Valid = true
	}

	_, err := tx.Exec(query,
		appointment.ID,
		appointment.Title,
		appointment.Notes,
		appointment.Color,
		nullString(appointment.PatientID),
		nullString(appointment.RoomID),
		formatTime(appointment.Start),
		formatTime(appointment.End),
		appointment.Status,
		isRecurring,
		nullString(appointment.RecurrenceRule),
		occurrenceCount,
		nullString(appointment.ParentAppointmentID),
		formatTime(appointment.CreatedAt),
		formatTime(appointment.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var appointment persistence.Appointment
	var patientID, roomID, recurrenceRule, parentID sql.NullString
	var occurrenceCount sql.NullInt64
	var isRecurring int
	var startStr, endStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&appointment.ID,
		&appointment.Title,
		&appointment.Notes,
		&appointment.Color,
		&patientID,
		&roomID,
		&startStr,
		&endStr,
		&appointment.Status,
		&isRecurring,
		&recurrenceRule,
		&occurrenceCount,
		&parentID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Appointment{}, err
	}

	if patientID.Valid {
		appointment.PatientID = &patientID.String
	}
	if roomID.Valid {
		appointment.RoomID = &roomID.String
	}
	if recurrenceRule.Valid {
		appointment.RecurrenceRule = &recurrenceRule.String
	}
	if occurrenceCount.Valid {
		count := int(occurrenceCount.Int64)
		appointment.OccurrenceCount = &count
	}
	if parentID.Valid {
		appointment.ParentAppointmentID = &parentID.String
	}
	appointment.IsRecurring = isRecurring != 0

	if appointment.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Appointment{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if appointment.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Appointment{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if appointment.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Appointment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if appointment.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Appointment{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return appointment, nil
}

func buildAppointmentListQuery(filter persistence.AppointmentFilter) (string, []any) {
	query := fmt.Sprintf("SELECT %s FROM appointments", appointmentColumns)

	var conditions []string
	var args []any

	if filter.RoomID != nil {
		conditions = append(conditions, "room_id = ?")
		args = append(args, *filter.RoomID)
	}
	if filter.ParentID != nil {
		conditions = append(conditions, "parent_appointment_id = ?")
		args = append(args, *filter.ParentID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return query, args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
