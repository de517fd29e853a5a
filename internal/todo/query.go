package todo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultUpcomingDays is the look-ahead used when none is configured.
const DefaultUpcomingDays = 7

// Window is an inclusive time range of due times.
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate rejects windows whose start is after their end.
func (w Window) Validate() error {
	if w.Start.IsZero() {
		return &ValidationError{Field: "start_time", Err: errZeroTime}
	}
	if w.End.IsZero() {
		return &ValidationError{Field: "end_time", Err: errZeroTime}
	}
	if w.End.Before(w.Start) {
		return &ValidationError{Field: "end_time", Err: errors.New("start time must be before end time")}
	}
	return nil
}

// UpcomingWindow returns the window from now to now plus days.
func UpcomingWindow(now time.Time, days int) Window {
	return Window{Start: now, End: now.Add(time.Duration(days) * 24 * time.Hour)}
}

// InWindow validates w and returns the tasks due inside it.
// An empty result is not an error.
func (s *Store) InWindow(w Window) ([]Task, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return s.Range(w.Start, w.End), nil
}

// UpcomingDays validates days and returns the tasks due within them.
func (s *Store) UpcomingDays(days int) ([]Task, error) {
	if days < 0 {
		return nil, &ValidationError{Field: "days", Err: fmt.Errorf("must not be negative, got %d", days)}
	}
	return s.Upcoming(days), nil
}

// TimeLayout is the persisted and displayed timestamp format. It always
// carries an explicit UTC offset.
const TimeLayout = time.RFC3339

// localLayouts are accepted on input without an offset and are read in
// the local time zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses an RFC 3339 timestamp, or an ISO 8601 local timestamp
// without an offset, which is interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use ISO 8601 (YYYY-MM-DDTHH:MM:SS[+HH:MM])", s)
}

// ParseAlertOffsets parses a list of Go durations separated by semicolons
// or commas, e.g. "0s;15m;1h". An empty string yields nil.
func ParseAlertOffsets(s string) ([]time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]time.Duration, 0, len(fields))
	for _, f := range fields {
		d, err := time.ParseDuration(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid alert offset %q: %w", f, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// FormatAlertOffsets joins offsets with semicolons.
func FormatAlertOffsets(offsets []time.Duration) string {
	parts := make([]string, len(offsets))
	for i, off := range offsets {
		parts[i] = off.String()
	}
	return strings.Join(parts, ";")
}
