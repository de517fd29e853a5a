// Package recurrence describes how a recurring task repeats and computes
// its next occurrence.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is returned for one-off rules and malformed intervals.
var ErrInvalid = errors.New("invalid recurrence")

// Unit is the cadence category of a recurring task.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

// ParseUnit accepts a unit name case-insensitively. Plural forms are allowed.
func ParseUnit(s string) (Unit, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	}
	return "", fmt.Errorf("%w: unknown unit %q", ErrInvalid, s)
}

// Rule is either one-off (the zero value) or a recurring cadence of
// Interval units.
type Rule struct {
	Unit     Unit `json:"unit,omitempty"`
	Interval int  `json:"interval,omitempty"`
}

// OneOff is the rule for tasks that do not repeat.
var OneOff = Rule{}

// Every returns a recurring rule.
func Every(interval int, unit Unit) Rule {
	return Rule{Unit: unit, Interval: interval}
}

// IsRecurring reports whether r repeats.
func (r Rule) IsRecurring() bool {
	return r.Unit != ""
}

// Validate checks a recurring rule. One-off rules are always valid.
func (r Rule) Validate() error {
	if !r.IsRecurring() {
		if r.Interval != 0 {
			return fmt.Errorf("%w: interval %d without a unit", ErrInvalid, r.Interval)
		}
		return nil
	}
	switch r.Unit {
	case Day, Week, Month, Year:
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalid, r.Unit)
	}
	if r.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalid, r.Interval)
	}
	return nil
}

// String renders the rule using the preset names where they apply:
// "none", "daily", "weekly", "monthly", "yearly", or "every N <unit>s".
func (r Rule) String() string {
	if !r.IsRecurring() {
		return "none"
	}
	if r.Interval == 1 {
		switch r.Unit {
		case Day:
			return "daily"
		case Week:
			return "weekly"
		case Month:
			return "monthly"
		case Year:
			return "yearly"
		}
	}
	return fmt.Sprintf("every %d %ss", r.Interval, r.Unit)
}

// Parse builds a rule from a recurrence kind and value. Kinds are
// case-insensitive:
//
//   - "", "none", "once": one-off (value ignored)
//   - "daily", "weekly", "monthly", "yearly": interval 1 (value ignored)
//   - "days", "weeks", "months", "years": interval value, which must be positive
func Parse(kind string, value int) (Rule, error) {
	k := strings.ToLower(strings.TrimSpace(kind))
	switch k {
	case "", "none", "once":
		return OneOff, nil
	case "daily":
		return Every(1, Day), nil
	case "weekly":
		return Every(1, Week), nil
	case "monthly":
		return Every(1, Month), nil
	case "yearly":
		return Every(1, Year), nil
	case "days", "weeks", "months", "years":
		unit, _ := ParseUnit(k)
		r := Every(value, unit)
		if err := r.Validate(); err != nil {
			return OneOff, fmt.Errorf("recurrence %q: %w", kind, err)
		}
		return r, nil
	}
	return OneOff, fmt.Errorf("%w: unknown recurrence type %q", ErrInvalid, kind)
}

// FromFields builds a rule from the flat record fields. unit may be a
// unit name ("week") or a preset or plural name ("weekly", "weeks") as
// written by older task files. A non-recurring record ignores the rest.
func FromFields(isRecurring bool, unit string, interval int) (Rule, error) {
	if !isRecurring {
		return OneOff, nil
	}
	u := strings.ToLower(strings.TrimSpace(unit))
	switch Unit(u) {
	case Day, Week, Month, Year:
		r := Every(interval, Unit(u))
		return r, r.Validate()
	}
	if u == "" {
		return OneOff, fmt.Errorf("%w: recurring task without a unit", ErrInvalid)
	}
	return Parse(u, interval)
}

// Advance returns the occurrence that follows due under r.
//
// Day and week rules add a fixed number of calendar days. Month and year
// rules move the calendar month and clamp the day to the last valid day
// of the target month, so Jan 31 + 1 month is Feb 28 (or 29) and Feb 29
// + 1 year is Feb 28. Time of day and location are preserved.
func Advance(due time.Time, r Rule) (time.Time, error) {
	if !r.IsRecurring() {
		return time.Time{}, fmt.Errorf("%w: task does not recur", ErrInvalid)
	}
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}

	switch r.Unit {
	case Day:
		return due.AddDate(0, 0, r.Interval), nil
	case Week:
		return due.AddDate(0, 0, 7*r.Interval), nil
	case Month:
		return addMonthsClamped(due, r.Interval), nil
	default:
		return addMonthsClamped(due, 12*r.Interval), nil
	}
}

// Next returns the first occurrence under r strictly after now, starting
// from due. If due is already after now it is returned unchanged. A rule
// that does not recur always fails, wherever due lies.
func Next(due, now time.Time, r Rule) (time.Time, error) {
	if !r.IsRecurring() {
		return time.Time{}, fmt.Errorf("%w: task does not recur", ErrInvalid)
	}
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}
	next := due
	for !next.After(now) {
		var err error
		next, err = Advance(next, r)
		if err != nil {
			return time.Time{}, err
		}
	}
	return next, nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	total := int(month) - 1 + months
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)

	if last := daysIn(year, target, t.Location()); day > last {
		day = last
	}
	return time.Date(year, target, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day 0 of the following month normalizes to the last day of month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
