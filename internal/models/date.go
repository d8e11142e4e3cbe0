package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date stored in a PostgreSQL DATE column
type Date struct {
	time.Time
}

// NewDate returns the calendar day year-month-day
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Value implements driver.Valuer for database storage
func (d Date) Value() (driver.Value, error) {
	return d.Format(DateLayout), nil
}

// Scan implements sql.Scanner for database retrieval
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) parse(s string) error {
	// DATE columns come back as "2006-01-02" or with a time part, depending on the driver
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.parse(s)
}

// NullDate is a Date that may be NULL. JSON null and "" both decode to an
// invalid NullDate.
type NullDate struct {
	Date  Date
	Valid bool
}

// NewNullDate wraps d as a valid NullDate
func NewNullDate(d Date) NullDate {
	return NullDate{Date: d, Valid: true}
}

// ParseNullDate treats the empty string as NULL
func ParseNullDate(s string) (NullDate, error) {
	if s == "" {
		return NullDate{}, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return NullDate{}, err
	}
	return NewNullDate(d), nil
}

// Value implements driver.Valuer
func (n NullDate) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Date.Value()
}

// Scan implements sql.Scanner
func (n *NullDate) Scan(value interface{}) error {
	if value == nil {
		*n = NullDate{}
		return nil
	}
	if err := n.Date.Scan(value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullDate) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Date.MarshalJSON()
}

func (n *NullDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*n = NullDate{}
		return nil
	}
	if err := n.Date.UnmarshalJSON(data); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
