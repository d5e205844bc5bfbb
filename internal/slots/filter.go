package slots

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateFilter buckets slots by their day-distance from today.
type DateFilter string

const (
	DateToday      DateFilter = "today"
	DateTomorrow   DateFilter = "tomorrow"
	DateNext3Days  DateFilter = "next3Days"
	DateNext7Days  DateFilter = "next7Days"
	DateNext14Days DateFilter = "next14Days"
)

// ParseDateFilter validates a date-filter query value. Empty input defaults
// to the widest bucket.
func ParseDateFilter(s string) (DateFilter, error) {
	switch DateFilter(s) {
	case DateToday, DateTomorrow, DateNext3Days, DateNext7Days, DateNext14Days:
		return DateFilter(s), nil
	case "":
		return DateNext14Days, nil
	}
	return "", fmt.Errorf("unknown date filter %q", s)
}

// matches reports whether a slot dayDiff days from today falls in the bucket.
func (f DateFilter) matches(dayDiff int) bool {
	switch f {
	case DateToday:
		return dayDiff == 0
	case DateTomorrow:
		return dayDiff == 1
	case DateNext3Days:
		return dayDiff >= 0 && dayDiff <= 3
	case DateNext7Days:
		return dayDiff >= 0 && dayDiff <= 7
	case DateNext14Days:
		return dayDiff >= 0 && dayDiff <= 14
	}
	return false
}

// Apply narrows a generated slot list for display: free-text search over
// doctor name, specialty and clinic name, then the date bucket relative to
// now. The input slice is never mutated.
func Apply(list []Slot, searchTerm string, dateFilter DateFilter, now time.Time) []Slot {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	term := strings.ToLower(strings.TrimSpace(searchTerm))

	out := make([]Slot, 0, len(list))
	for _, s := range list {
		if term != "" && !matchesSearch(s, term) {
			continue
		}
		slotDate, err := time.ParseInLocation("2006-01-02", s.Date, now.Location())
		if err != nil {
			continue
		}
		if !dateFilter.matches(daysBetween(today, slotDate)) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// daysBetween counts calendar days from midnight a to midnight b. Rounding
// absorbs the 23/25-hour days a DST transition produces, so buckets follow
// the calendar rather than elapsed hours.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func matchesSearch(s Slot, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s.DoctorName), lowerTerm) ||
		strings.Contains(strings.ToLower(s.Specialty), lowerTerm) ||
		strings.Contains(strings.ToLower(s.ClinicName), lowerTerm)
}
