package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ServiceDate truncates t to its calendar day at midnight UTC. Every date
// column in the schema is compared against values produced here.
func ServiceDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseServiceDate parses a YYYY-MM-DD string.
func ParseServiceDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayMask is the set of weekdays a user travels on by default.
// Bit 0 is Monday, bit 6 is Sunday.
type DayMask int16

var dayNames = [7]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// WeekdayBit returns the mask bit for the weekday of t.
func WeekdayBit(t time.Time) DayMask {
	// time.Sunday == 0; shift so Monday lands on bit 0.
	idx := (int(t.Weekday()) + 6) % 7
	return DayMask(1) << idx
}

func ParseDayMask(days []string) (DayMask, error) {
	var m DayMask
	for _, d := range days {
		found := false
		for i, name := range dayNames {
			if strings.EqualFold(strings.TrimSpace(d), name) {
				m |= DayMask(1) << i
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown day %q", d)
		}
	}
	return m, nil
}

func (m DayMask) Includes(t time.Time) bool {
	return m&WeekdayBit(t) != 0
}

func (m DayMask) Days() []string {
	out := make([]string, 0, 7)
	for i, name := range dayNames {
		if m&(DayMask(1)<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

func (m DayMask) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Days())
}

func (m *DayMask) UnmarshalJSON(b []byte) error {
	var days []string
	if err := json.Unmarshal(b, &days); err != nil {
		return err
	}
	parsed, err := ParseDayMask(days)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m DayMask) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *DayMask) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*m = DayMask(v)
	case int32:
		*m = DayMask(v)
	case nil:
		*m = 0
	default:
		return fmt.Errorf("cannot scan %T into DayMask", src)
	}
	return nil
}
