package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar day at UTC midnight. It decodes from "2006-01-02" or from
// an RFC3339 timestamp, keeping the day as written.
type Date struct {
	time.Time
}

func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		*d = DateOf(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	*d = DateOf(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// TimeOrNil returns nil for an absent date.
func (d *Date) TimeOrNil() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
