package badges

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// CurrentStreak returns the number of consecutive UTC days with activity ending today,
// or ending yesterday when there is no activity yet today.
func CurrentStreak(days []time.Time, now time.Time) int {
	set := daySet(days)
	cursor := truncateDay(now)
	if _, ok := set[cursor]; !ok {
		cursor = cursor.Add(-day)
		if _, ok := set[cursor]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := set[cursor]; !ok {
			return streak
		}
		streak++
		cursor = cursor.Add(-day)
	}
}

// LongestStreak returns the longest run of consecutive UTC days with activity
func LongestStreak(days []time.Time) int {
	set := daySet(days)
	if len(set) == 0 {
		return 0
	}

	sorted := make([]time.Time, 0, len(set))
	for d := range set {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == day {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func daySet(days []time.Time) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		set[truncateDay(d)] = struct{}{}
	}
	return set
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
