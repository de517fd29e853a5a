package taskid

import (
	"strings"
	"testing"
	"time"
)

func TestNewEmbedsDueTime(t *testing.T) {
	due := time.Date(2030, 5, 17, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	id := New(due)
	if !strings.HasSuffix(id, "_1905233400") {
		t.Fatalf("New() = %q, want unix suffix _1905233400", id)
	}

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Timestamp(%q) error = %v", id, err)
	}
	if !ts.Equal(due) {
		t.Errorf("Timestamp() = %v, want %v", ts, due)
	}
	if !Matches(id, due) {
		t.Errorf("Matches(%q, %v) = false, want true", id, due)
	}
}

func TestNewIsUnique(t *testing.T) {
	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if New(due) == New(due) {
		t.Error("two ids for the same due time should differ")
	}
}

func TestTimestampInvalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"no separator", "abc"},
		{"trailing separator", "abc_"},
		{"leading separator only", "_123"},
		{"non numeric", "abc_12x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Timestamp(tt.id); err == nil {
				t.Errorf("Timestamp(%q) expected error", tt.id)
			}
		})
	}
}

func TestMatchesRejectsOtherTimes(t *testing.T) {
	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	id := New(due)

	if Matches(id, due.Add(time.Second)) {
		t.Error("Matches should fail for a different second")
	}
	if Matches(id, due.Add(time.Millisecond)) {
		t.Error("Matches should fail for sub-second due times")
	}
	if Matches("garbage", due) {
		t.Error("Matches should fail for malformed ids")
	}
}
