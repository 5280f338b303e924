package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	//"Aug 12, 2025" and "August 12, 2025" as rendered by the portal
	postDateLayouts = []string{"Jan 2, 2006", "January 2, 2006"}
)

// DateOf truncates t to its calendar date in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return DateOf(now, loc)
}

// ParsePostDate normalizes a source posting date to a calendar date in loc.
// Bare dates are taken to be dates in loc; timestamps carrying an offset are
// converted to loc first. ok is false for empty or unknown formats, which
// callers treat as too old to notify.
func ParsePostDate(s string, loc *time.Location) (date time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	//Case 1: full timestamp with offset
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(ts, loc), true
	}

	//Case 2: ISO "2025-09-01" or "2025-09-01 10:00:00"
	if isoDateRegex.MatchString(s) {
		if d, err := time.ParseInLocation(time.DateOnly, s[:10], loc); err == nil {
			return d, true
		}
	}

	//Case 3: portal display format
	for _, layout := range postDateLayouts {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ParseCutoff picks the cutoff date: the first non-empty candidate in
// YYYY-MM-DD form, else today in loc.
func ParseCutoff(now time.Time, loc *time.Location, candidates ...string) (time.Time, error) {
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cutoff date %q (want YYYY-MM-DD): %w", raw, err)
		}
		return d, nil
	}
	return Today(now, loc), nil
}
