package timerange

import (
	"errors"
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end time.Time) Range {
	t.Helper()
	r, err := New(start, end)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("valid range", func(t *testing.T) {
		t.Parallel()
		r, err := New(base, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Start.Equal(base) || !r.End.Equal(base.Add(time.Hour)) {
			t.Fatalf("unexpected bounds: %v", r)
		}
	})

	t.Run("zero length rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(base, base)
		var invalid *InvalidRangeError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidRangeError, got %v", err)
		}
	})

	t.Run("inverted rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(base, base.Add(-time.Minute))
		var invalid *InvalidRangeError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidRangeError, got %v", err)
		}
		if !invalid.Start.Equal(base) {
			t.Fatalf("error should carry the offending start, got %v", invalid.Start)
		}
	})
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a    Range
		b    Range
		want bool
	}{
		{
			name: "partial overlap",
			a:    mustRange(t, base, base.Add(time.Hour)),
			b:    mustRange(t, base.Add(30*time.Minute), base.Add(90*time.Minute)),
			want: true,
		},
		{
			name: "contained",
			a:    mustRange(t, base, base.Add(2*time.Hour)),
			b:    mustRange(t, base.Add(30*time.Minute), base.Add(time.Hour)),
			want: true,
		},
		{
			name: "identical",
			a:    mustRange(t, base, base.Add(time.Hour)),
			b:    mustRange(t, base, base.Add(time.Hour)),
			want: true,
		},
		{
			name: "adjacent does not overlap",
			a:    mustRange(t, base, base.Add(time.Hour)),
			b:    mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour)),
			want: false,
		},
		{
			name: "disjoint",
			a:    mustRange(t, base, base.Add(time.Hour)),
			b:    mustRange(t, base.Add(3*time.Hour), base.Add(4*time.Hour)),
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("b.Overlaps(a) = %v, want %v (overlap must be symmetric)", got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	r := mustRange(t, base, base.Add(time.Hour))

	if !r.Contains(base) {
		t.Error("start should be inside the half-open interval")
	}
	if r.Contains(base.Add(time.Hour)) {
		t.Error("end should be outside the half-open interval")
	}
	if !r.Contains(base.Add(30 * time.Minute)) {
		t.Error("midpoint should be inside")
	}
}

func TestContainsRange(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	outer := mustRange(t, base, base.Add(2*time.Hour))

	if !outer.ContainsRange(mustRange(t, base.Add(time.Hour), base.Add(2*time.Hour))) {
		t.Error("range ending exactly at the outer end should be contained")
	}
	if outer.ContainsRange(mustRange(t, base.Add(time.Hour), base.Add(3*time.Hour))) {
		t.Error("range extending past the outer end should not be contained")
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	r := mustRange(t, base, base.Add(90*time.Minute))

	if r.Duration() != 90*time.Minute {
		t.Fatalf("Duration = %v, want 90m", r.Duration())
	}
	if r.DurationMinutes() != 90 {
		t.Fatalf("DurationMinutes = %d, want 90", r.DurationMinutes())
	}
}

func TestFromDuration(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	r, err := FromDuration(base, 45*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.End.Equal(base.Add(45 * time.Minute)) {
		t.Fatalf("unexpected end: %v", r.End)
	}

	if _, err := FromDuration(base, 0); err == nil {
		t.Fatal("zero duration should be rejected")
	}
}
