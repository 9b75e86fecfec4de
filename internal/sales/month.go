package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthRange is the half-open interval [Start, End) covering one calendar month.
type MonthRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r MonthRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ResolveMonth parses a month number (1-12) and returns its range within year.
// December ends at January 1st of the following year.
func ResolveMonth(raw string, year int) (MonthRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MonthRange{}, fmt.Errorf("%w: month is required", ErrValidation)
	}
	month, err := strconv.Atoi(raw)
	if err != nil {
		return MonthRange{}, fmt.Errorf("%w: month %q is not a number", ErrValidation, raw)
	}
	if month < 1 || month > 12 {
		return MonthRange{}, fmt.Errorf("%w: month %d is out of range 1-12", ErrValidation, month)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return MonthRange{Start: start, End: start.AddDate(0, 1, 0)}, nil
}
