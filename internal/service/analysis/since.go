package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSince reads a history bound: a date (2024-01-31), an RFC 3339
// timestamp, or a look-back such as 90d, 12w, 6m or 1y counted from now.
// An empty string means no bound.
func ParseSince(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid since %q: want YYYY-MM-DD or a look-back like 90d", s)
	}
	var t time.Time
	switch unit {
	case 'd':
		t = now.AddDate(0, 0, -n)
	case 'w':
		t = now.AddDate(0, 0, -7*n)
	case 'm':
		t = now.AddDate(0, -n, 0)
	case 'y':
		t = now.AddDate(-n, 0, 0)
	default:
		return nil, fmt.Errorf("invalid since %q: unknown unit %q", s, unit)
	}
	return &t, nil
}
