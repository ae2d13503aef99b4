// Package anniversary holds the small date-driven pieces of the page: the
// date gate, the counters and the reasons carousel.
package anniversary

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the format of the gate answer, as sent by a date input.
const DateLayout = "2006-01-02"

var (
	ErrEmptyDate = errors.New("no date given")
	ErrWrongDate = errors.New("wrong date")
)

// Gate unlocks the page for whoever knows the anniversary.
type Gate struct {
	Date time.Time
}

// NewGate parses the anniversary date in DateLayout.
func NewGate(date string) (*Gate, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse anniversary %q: %w", date, err)
	}
	return &Gate{Date: d}, nil
}

// Check compares the submitted value with the anniversary.
func (g *Gate) Check(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptyDate
	}
	if value != g.Date.Format(DateLayout) {
		return ErrWrongDate
	}
	return nil
}
