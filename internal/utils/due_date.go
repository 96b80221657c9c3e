package utils

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDueDate = errors.New("dueDate must be a real calendar date in YYYY-MM-DD format")

// NormalizeDueDate validates a YYYY-MM-DD calendar date. Empty input clears
// the date (nil, nil).
func NormalizeDueDate(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	if len(s) != len(DateLayout) {
		return nil, ErrInvalidDueDate
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil || d.Format(DateLayout) != s {
		return nil, ErrInvalidDueDate
	}
	return &s, nil
}
