package shared

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

var ErrInvalidPeriod = errors.New("invalid period")

// OptionalDay records an issue when a non-empty value is not YYYY-MM-DD.
func (v *Validator) OptionalDay(field, raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(DayLayout, raw)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

// ParsePeriod reads month and year query parameters, defaulting each to now.
func ParsePeriod(r *http.Request, now time.Time) (int, int, error) {
	month := int(now.Month())
	year := now.Year()
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("month")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			return 0, 0, ErrInvalidPeriod
		}
		month = v
	}
	if raw := strings.TrimSpace(query.Get("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2000 || v > 2100 {
			return 0, 0, ErrInvalidPeriod
		}
		year = v
	}
	return month, year, nil
}
