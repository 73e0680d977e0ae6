// Package dragsession tracks the state of an interactive calendar drag. A
// session shadows one appointment from pick-up to drop, snapping and clamping
// the preview slot as the pointer moves, and commits the final position
// through the scheduling service only when the appointment is released.
package dragsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/timerange"
)

// DefaultSnap is the calendar grid resolution previews snap to.
const DefaultSnap = 15 * time.Minute

// State identifies the phase of the drag lifecycle.
type State string

const (
	// StateIdle means no appointment is being dragged.
	StateIdle State = "idle"
	// StateDragging means an appointment is picked up and following the pointer.
	StateDragging State = "dragging"
	// StateCommitting means a drop is being persisted.
	StateCommitting State = "committing"
	// StateReverting means a rejected drop is restoring the original position.
	StateReverting State = "reverting"
)

var (
	// ErrAlreadyDragging is returned when a drag begins while one is active.
	ErrAlreadyDragging = errors.New("dragsession: drag already in progress")
	// ErrNotDragging is returned when an update or drop arrives with no active drag.
	ErrNotDragging = errors.New("dragsession: no drag in progress")
)

// Mover persists a committed drop. The scheduling service satisfies this.
type Mover interface {
	ProposeMove(ctx context.Context, params application.ProposeMoveParams) (application.Appointment, error)
}

// Snapshot captures an appointment's position so a rejected drop can restore it.
type Snapshot struct {
	AppointmentID string
	RoomID        *string
	Start         time.Time
	End           time.Time
}

// Preview is the snapped and clamped slot currently shown under the pointer.
type Preview struct {
	RoomID *string
	Slot   timerange.Range
}

// DropResult reports how a drop resolved. When Committed is false the
// appointment was never modified; Restore tells the caller where to render it.
type DropResult struct {
	Committed   bool
	Appointment application.Appointment
	Conflict    *application.ConflictError
	Restore     Snapshot
}

// Session is the drag state machine for one calendar view. It is safe for use
// from concurrent UI event handlers.
type Session struct {
	mu sync.Mutex

	mover  Mover
	window timerange.Range
	snap   time.Duration

	state     State
	original  Snapshot
	candidate Preview
}

// NewSession builds a session over the visible calendar window. A
// non-positive snap falls back to DefaultSnap.
func NewSession(mover Mover, window timerange.Range, snap time.Duration) *Session {
	if snap <= 0 {
		snap = DefaultSnap
	}
	return &Session{mover: mover, window: window, snap: snap, state: StateIdle}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin picks up an appointment, capturing its position for a later revert.
// The initial preview is the appointment's current slot.
func (s *Session) Begin(appointment application.Appointment) (Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return Preview{}, ErrAlreadyDragging
	}

	s.original = Snapshot{
		AppointmentID: appointment.ID,
		RoomID:        appointment.RoomID,
		Start:         appointment.Start,
		End:           appointment.End,
	}
	s.candidate = Preview{
		RoomID: appointment.RoomID,
		Slot:   appointment.Range(),
	}
	s.state = StateDragging
	return s.candidate, nil
}

// Update moves the preview to the pointer position. The raw start is snapped
// down to the grid and the whole slot is clamped into the visible window; the
// appointment's duration never changes.
func (s *Session) Update(roomID *string, rawStart time.Time) (Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDragging {
		return Preview{}, ErrNotDragging
	}

	duration := s.original.End.Sub(s.original.Start)
	start := s.clamp(s.snapDown(rawStart), duration)

	s.candidate = Preview{
		RoomID: roomID,
		Slot:   timerange.Range{Start: start, End: start.Add(duration)},
	}
	return s.candidate, nil
}

// Drop releases the appointment at the current preview slot and persists the
// move. A conflict does not modify the appointment: the result carries the
// blocking booking and the snapshot to restore, and the error return is nil.
func (s *Session) Drop(ctx context.Context) (DropResult, error) {
	s.mu.Lock()
	if s.state != StateDragging {
		s.mu.Unlock()
		return DropResult{}, ErrNotDragging
	}
	if s.mover == nil {
		s.state = StateIdle
		s.mu.Unlock()
		return DropResult{}, fmt.Errorf("dragsession: mover not configured")
	}
	s.state = StateCommitting
	original := s.original
	candidate := s.candidate
	s.mu.Unlock()

	moved, err := s.mover.ProposeMove(ctx, application.ProposeMoveParams{
		AppointmentID: original.AppointmentID,
		NewRoomID:     candidate.RoomID,
		NewStart:      candidate.Slot.Start,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateReverting
		result := DropResult{Restore: original}

		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			result.Conflict = cErr
			return result, nil
		}
		return result, err
	}

	s.state = StateIdle
	return DropResult{Committed: true, Appointment: moved}, nil
}

// Cancel abandons the drag without touching the scheduling service and
// returns the snapshot to restore. The second return is false when no drag
// was active.
func (s *Session) Cancel() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDragging {
		return Snapshot{}, false
	}

	s.state = StateReverting
	return s.original, true
}

// Reverted signals that the caller has rendered the restored position,
// completing the revert and readying the session for the next drag.
func (s *Session) Reverted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReverting {
		s.state = StateIdle
	}
}

// snapDown floors t onto the grid anchored at the window start.
func (s *Session) snapDown(t time.Time) time.Time {
	if !t.After(s.window.Start) {
		return s.window.Start
	}
	offset := t.Sub(s.window.Start)
	return s.window.Start.Add(offset - offset%s.snap)
}

// clamp shifts start so the full slot stays inside the window. A slot longer
// than the window pins to the window start.
func (s *Session) clamp(start time.Time, duration time.Duration) time.Time {
	latest := s.window.End.Add(-duration)
	if latest.Before(s.window.Start) {
		return s.window.Start
	}
	if start.After(latest) {
		return latest
	}
	if start.Before(s.window.Start) {
		return s.window.Start
	}
	return start
}
