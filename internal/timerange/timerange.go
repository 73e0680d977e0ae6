package timerange

import (
	"fmt"
	"time"
)

// Range is a half-open time interval [Start, End). A booking that ends exactly
// when another starts does not overlap it.
type Range struct {
	Start time.Time
	End   time.Time
}

// InvalidRangeError reports a range whose end does not come strictly after its
// start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("timerange: end %s must be after start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// New constructs a Range, rejecting zero-length and inverted intervals.
func New(start, end time.Time) (Range, error) {
	if !end.After(start) {
		return Range{}, &InvalidRangeError{Start: start, End: end}
	}
	return Range{Start: start, End: end}, nil
}

// FromDuration constructs the Range starting at start and lasting d.
func FromDuration(start time.Time, d time.Duration) (Range, error) {
	return New(start, start.Add(d))
}

// Overlaps reports whether the two half-open intervals intersect.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether t falls inside the interval.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ContainsRange reports whether other lies entirely inside the interval.
func (r Range) ContainsRange(other Range) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// Duration returns the interval length.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// DurationMinutes returns the interval length in whole minutes.
func (r Range) DurationMinutes() int {
	return int(r.Duration() / time.Minute)
}

// IsZero reports whether both bounds are unset.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}
