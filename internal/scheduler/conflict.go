package scheduler

import (
	"sort"

	"github.com/example/clinic-scheduler/internal/timerange"
)

// Booking is the minimal view of an appointment the conflict detector needs.
type Booking struct {
	ID     string
	RoomID *string
	Range  timerange.Range
}

// FindConflict returns the earliest booking on roomID whose range overlaps
// candidate, skipping excludeID, or nil when the slot is free.
//
// A nil roomID is unconstrained: an appointment without a room coexists with
// anything. Bookings without a room never conflict either. When several
// bookings overlap the candidate, the one with the earliest start (ties broken
// by ID) is reported, which keeps the result stable for a given input set.
func FindConflict(existing []Booking, roomID *string, candidate timerange.Range, excludeID string) *Booking {
	if roomID == nil {
		return nil
	}

	var conflicts []Booking
	for _, booking := range existing {
		if booking.ID == excludeID {
			continue
		}
		if booking.RoomID == nil || *booking.RoomID != *roomID {
			continue
		}
		if booking.Range.Overlaps(candidate) {
			conflicts = append(conflicts, booking)
		}
	}

	if len(conflicts) == 0 {
		return nil
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Range.Start.Equal(conflicts[j].Range.Start) {
			return conflicts[i].ID < conflicts[j].ID
		}
		return conflicts[i].Range.Start.Before(conflicts[j].Range.Start)
	})

	first := conflicts[0]
	return &first
}

// HasConflict reports whether any booking on roomID overlaps candidate.
func HasConflict(existing []Booking, roomID *string, candidate timerange.Range, excludeID string) bool {
	return FindConflict(existing, roomID, candidate, excludeID) != nil
}
