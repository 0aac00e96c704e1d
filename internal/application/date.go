package application

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date is neither RFC3339 nor YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be RFC3339 or YYYY-MM-DD")

// Date is a request timestamp. It accepts a full RFC3339 timestamp or a bare
// calendar date, which is read as midnight UTC.
type Date time.Time

// ParseDate parses s as RFC3339 first and falls back to YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Date(t), nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return Date(t), nil
	}
	return Date{}, ErrInvalidDate
}

// Time returns d as a time.Time.
func (d Date) Time() time.Time { return time.Time(d) }

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d))
}

func datePtrTime(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}
