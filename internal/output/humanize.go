package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Age describes t relative to ref ("3 months ago"). A zero t is "unknown".
func Age(t, ref time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(t, ref, "ago", "from now")
}

// Days renders a day count as a rough duration ("2 weeks").
func Days(days float64) string {
	if days < 1 {
		return "under a day"
	}
	d := time.Duration(days * 24 * float64(time.Hour))
	return strings.TrimSpace(humanize.RelTime(time.Time{}, time.Time{}.Add(d), "", ""))
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Percent renders a 0-1 ratio as a percentage.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// Score renders a score with one decimal.
func Score(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
