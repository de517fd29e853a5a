// Package taskid composes and parses task identifiers.
//
// An identifier has the form "{uuid}_{unix-seconds}". The suffix is the
// task's due time, so a lookup can recover the due time from the id alone
// and binary-search the ordered store without consulting any index.
package taskid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const separator = "_"

// New returns a fresh identifier embedding due.
// Sub-second precision is dropped; callers should store due truncated
// to the second so Timestamp(New(due)) equals due.
func New(due time.Time) string {
	return uuid.NewString() + separator + strconv.FormatInt(due.Unix(), 10)
}

// Timestamp extracts the embedded due time from id, in UTC.
func Timestamp(id string) (time.Time, error) {
	i := strings.LastIndex(id, separator)
	if i <= 0 || i == len(id)-1 {
		return time.Time{}, fmt.Errorf("task id %q: missing timestamp suffix", id)
	}
	secs, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("task id %q: invalid timestamp suffix: %w", id, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Matches reports whether id embeds exactly due (to the second).
func Matches(id string, due time.Time) bool {
	ts, err := Timestamp(id)
	if err != nil {
		return false
	}
	return ts.Unix() == due.Unix() && due.Nanosecond() == 0
}
