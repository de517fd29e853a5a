package recurrence

import (
	"errors"
	"testing"
	"time"
)

func date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		rule Rule
		want time.Time
	}{
		{"daily", date(2024, 3, 10, 9, 0), Every(1, Day), date(2024, 3, 11, 9, 0)},
		{"every 3 days across month", date(2024, 1, 30, 9, 0), Every(3, Day), date(2024, 2, 2, 9, 0)},
		{"weekly", date(2024, 3, 10, 9, 0), Every(1, Week), date(2024, 3, 17, 9, 0)},
		{"every 2 weeks", date(2024, 12, 25, 18, 30), Every(2, Week), date(2025, 1, 8, 18, 30)},
		{"monthly leap clamp", date(2024, 1, 31, 0, 0), Every(1, Month), date(2024, 2, 29, 0, 0)},
		{"monthly non-leap clamp", date(2023, 1, 31, 0, 0), Every(1, Month), date(2023, 2, 28, 0, 0)},
		{"monthly to 30 day month", date(2024, 3, 31, 7, 0), Every(1, Month), date(2024, 4, 30, 7, 0)},
		{"monthly december rollover", date(2024, 12, 15, 7, 0), Every(1, Month), date(2025, 1, 15, 7, 0)},
		{"every 14 months", date(2024, 11, 30, 7, 0), Every(14, Month), date(2026, 1, 30, 7, 0)},
		{"yearly", date(2024, 6, 1, 12, 0), Every(1, Year), date(2025, 6, 1, 12, 0)},
		{"yearly leap day clamp", date(2024, 2, 29, 12, 0), Every(1, Year), date(2025, 2, 28, 12, 0)},
		{"every 4 years keeps leap day", date(2024, 2, 29, 12, 0), Every(4, Year), date(2028, 2, 29, 12, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.due, tt.rule)
			if err != nil {
				t.Fatalf("Advance() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Advance(%v, %v) = %v, want %v", tt.due, tt.rule, got, tt.want)
			}
		})
	}
}

func TestAdvancePreservesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	due := time.Date(2024, 1, 31, 23, 45, 0, 0, loc)

	got, err := Advance(due, Every(1, Month))
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	want := time.Date(2024, 2, 29, 23, 45, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Errorf("Advance() = %v, want %v in %v", got, want, loc)
	}
}

func TestAdvanceInvalid(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"one-off", OneOff},
		{"zero interval", Every(0, Week)},
		{"negative interval", Every(-2, Day)},
		{"unknown unit", Rule{Unit: "fortnight", Interval: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Advance(date(2024, 1, 1, 0, 0), tt.rule)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Advance() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestNext(t *testing.T) {
	now := date(2024, 3, 20, 12, 0)

	got, err := Next(date(2024, 3, 1, 9, 0), now, Every(1, Week))
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if want := date(2024, 3, 22, 9, 0); !got.Equal(want) {
		t.Errorf("Next() = %v, want %v", got, want)
	}

	future := date(2024, 4, 1, 0, 0)
	got, err = Next(future, now, Every(1, Day))
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !got.Equal(future) {
		t.Errorf("Next() = %v, want unchanged %v", got, future)
	}

	for _, due := range []time.Time{future, date(2024, 3, 1, 9, 0)} {
		if _, err := Next(due, now, OneOff); !errors.Is(err, ErrInvalid) {
			t.Errorf("Next(%v) with one-off rule error = %v, want ErrInvalid", due, err)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		kind    string
		value   int
		want    Rule
		wantErr bool
	}{
		{"", 0, OneOff, false},
		{"none", 5, OneOff, false},
		{"daily", 0, Every(1, Day), false},
		{"Weekly", 9, Every(1, Week), false},
		{"MONTHLY", 0, Every(1, Month), false},
		{"yearly", 0, Every(1, Year), false},
		{"days", 3, Every(3, Day), false},
		{"weeks", 2, Every(2, Week), false},
		{"months", 6, Every(6, Month), false},
		{"years", 10, Every(10, Year), false},
		{"days", 0, OneOff, true},
		{"weeks", -1, OneOff, true},
		{"hourly", 1, OneOff, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := Parse(tt.kind, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q, %d) error = %v, wantErr %v", tt.kind, tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q, %d) = %+v, want %+v", tt.kind, tt.value, got, tt.want)
			}
		})
	}
}

func TestFromFields(t *testing.T) {
	tests := []struct {
		name      string
		recurring bool
		unit      string
		interval  int
		want      Rule
		wantErr   bool
	}{
		{"one-off ignores unit", false, "week", 3, OneOff, false},
		{"unit name", true, "week", 2, Every(2, Week), false},
		{"unit name upper", true, " Month ", 1, Every(1, Month), false},
		{"preset", true, "weekly", 0, Every(1, Week), false},
		{"plural", true, "days", 4, Every(4, Day), false},
		{"missing unit", true, "", 1, OneOff, true},
		{"zero interval", true, "day", 0, Every(0, Day), true},
		{"unknown", true, "fortnight", 1, OneOff, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromFields(tt.recurring, tt.unit, tt.interval)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromFields() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FromFields() = %+v, want %+v", got, tt.want)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestRuleString(t *testing.T) {
	tests := map[Rule]string{
		OneOff:          "none",
		Every(1, Day):   "daily",
		Every(1, Week):  "weekly",
		Every(1, Month): "monthly",
		Every(1, Year):  "yearly",
		Every(3, Day):   "every 3 days",
		Every(2, Month): "every 2 months",
	}
	for rule, want := range tests {
		if got := rule.String(); got != want {
			t.Errorf("%+v.String() = %q, want %q", rule, got, want)
		}
	}
}

func TestParseUnit(t *testing.T) {
	for _, s := range []string{"day", "Days", " WEEK ", "months", "year"} {
		if _, err := ParseUnit(s); err != nil {
			t.Errorf("ParseUnit(%q) error = %v", s, err)
		}
	}
	if _, err := ParseUnit("hour"); !errors.Is(err, ErrInvalid) {
		t.Errorf("ParseUnit(hour) error = %v, want ErrInvalid", err)
	}
}
