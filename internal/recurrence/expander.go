package recurrence

import (
	"errors"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/timerange"
)

// Rule identifies how often a recurring appointment repeats.
type Rule string

const (
	// RuleDaily steps one day at a time.
	RuleDaily Rule = "daily"
	// RuleWeekly steps seven days at a time.
	RuleWeekly Rule = "weekly"
	// RuleBiweekly steps fourteen days at a time.
	RuleBiweekly Rule = "biweekly"
	// RuleMonthly steps one calendar month at a time, clamping to the last
	// day of months that are shorter than the previous occurrence's day.
	RuleMonthly Rule = "monthly"
)

// ErrInvalidRule indicates the recurrence rule is not supported.
var ErrInvalidRule = errors.New("recurrence: invalid rule")

// ErrInvalidCount indicates the occurrence count is not positive.
var ErrInvalidCount = errors.New("recurrence: occurrence count must be positive")

// ErrInvalidDuration indicates the appointment duration is not positive.
var ErrInvalidDuration = errors.New("recurrence: duration must be positive")

// Valid reports whether the rule is one of the supported values.
func (r Rule) Valid() bool {
	switch r {
	case RuleDaily, RuleWeekly, RuleBiweekly, RuleMonthly:
		return true
	}
	return false
}

// ParseRule normalizes a caller supplied rule string.
func ParseRule(value string) (Rule, error) {
	rule := Rule(strings.ToLower(strings.TrimSpace(value)))
	if !rule.Valid() {
		return "", ErrInvalidRule
	}
	return rule, nil
}

// Expand turns one recurrence definition into an ordered series of concrete
// time ranges.
//
// The first element always equals (firstStart, firstStart+duration). Every
// subsequent element applies the rule's step to the previous occurrence's
// start, not to the original start. Stepping from the previous occurrence
// means a monthly clamp compounds: Jan 31 -> Feb 28 -> Mar 28. The series
// never drifts off its time-of-day.
func Expand(firstStart time.Time, duration time.Duration, rule Rule, count int) ([]timerange.Range, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if !rule.Valid() {
		return nil, ErrInvalidRule
	}

	occurrences := make([]timerange.Range, 0, count)
	start := firstStart
	for i := 0; i < count; i++ {
		if i > 0 {
			start = step(start, rule)
		}
		occurrences = append(occurrences, timerange.Range{Start: start, End: start.Add(duration)})
	}

	return occurrences, nil
}

func step(prev time.Time, rule Rule) time.Time {
	switch rule {
	case RuleDaily:
		return prev.AddDate(0, 0, 1)
	case RuleWeekly:
		return prev.AddDate(0, 0, 7)
	case RuleBiweekly:
		return prev.AddDate(0, 0, 14)
	case RuleMonthly:
		return nextMonth(prev)
	}
	return prev
}

// nextMonth advances one calendar month keeping the day-of-month, clamped to
// the target month's last day. time.AddDate is unsuitable here: it normalizes
// Jan 31 + 1 month to Mar 2/3 instead of clamping to Feb.
func nextMonth(prev time.Time) time.Time {
	year, month, day := prev.Date()

	firstOfTarget := time.Date(year, month+1, 1, 0, 0, 0, 0, prev.Location())
	targetYear, targetMonth, _ := firstOfTarget.Date()

	if last := daysIn(targetYear, targetMonth, prev.Location()); day > last {
		day = last
	}

	return time.Date(targetYear, targetMonth, day,
		prev.Hour(), prev.Minute(), prev.Second(), prev.Nanosecond(), prev.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
