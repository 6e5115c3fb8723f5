package market

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used throughout the ledger.
const DateLayout = "2006-01-02"

// ParseDate validates a YYYY-MM-DD trading date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid trading date %q: %w", date, err)
	}
	return t, nil
}

// PreviousDay returns the calendar day before the given YYYY-MM-DD date.
func PreviousDay(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -1).Format(DateLayout), nil
}
