// Package streak computes the longest run of frequency-consecutive completions.
package streak

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/utils"
)

// Compute returns the longest run of consecutive completions in dates under
// freq. Dates are YYYY-MM-DD strings; duplicates and unparseable entries are
// ignored. The result is the longest run ever recorded, not the current one.
func Compute(dates []string, freq models.Frequency) int {
	days := parseDays(dates)
	if len(days) == 0 {
		return 0
	}

	current, longest := 1, 1
	for i := 1; i < len(days); i++ {
		if Consecutive(days[i-1], days[i], freq) {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}

	return longest
}

// Consecutive reports whether curr follows prev by exactly one frequency unit.
func Consecutive(prev, curr time.Time, freq models.Frequency) bool {
	switch freq {
	case models.FrequencyDaily:
		// partial days round up to a whole day
		return int(math.Ceil(curr.Sub(prev).Hours()/24)) == 1
	case models.FrequencyWeekly:
		return int(math.Ceil(curr.Sub(prev).Hours()/(24*7))) == 1
	case models.FrequencyMonthly:
		months := (curr.Year()-prev.Year())*12 + int(curr.Month()) - int(prev.Month())
		return months == 1
	default:
		return false
	}
}

func parseDays(dates []string) []time.Time {
	seen := make(map[string]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if _, dup := seen[d]; dup {
			continue
		}
		t, err := utils.ParseDate(d)
		if err != nil {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, t)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}
