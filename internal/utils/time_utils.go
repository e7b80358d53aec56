package utils

import (
	"fmt"
	"strings"
	"time"
)

// LocaleDateLayout is the en-US short date used in exports and tables
const LocaleDateLayout = "1/2/2006"

// PurchaseDateLayout is the form date format for purchase dates
const PurchaseDateLayout = time.DateOnly

// flexibleLayouts are tried in order by ParseFlexibleTime
var flexibleLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700", // marketstack: 2020-06-22T00:00:00+0000
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ParseFlexibleTime parses the timestamp formats seen from market and news providers
func ParseFlexibleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// FormatLocaleDate renders t as M/D/YYYY, empty for the zero time
func FormatLocaleDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(LocaleDateLayout)
}

// StartOfDay returns 00:00:00 of t in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AverageHoldingDays returns the mean number of whole days between each date and now.
// Zero dates are skipped; the result is 0 when nothing is left.
func AverageHoldingDays(dates []time.Time, now time.Time) int {
	var total float64
	var n int
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		total += now.Sub(d).Hours() / 24
		n++
	}
	if n == 0 {
		return 0
	}
	return int(total / float64(n))
}

// FormatHoldingPeriod renders a day count as "N days", "N months" or "N years"
func FormatHoldingPeriod(days int) string {
	switch {
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return fmt.Sprintf("%d months", days/30)
	default:
		return fmt.Sprintf("%d years", days/365)
	}
}
