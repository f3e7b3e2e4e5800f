package exam

import "time"

// examDay is a fixed month/day pair on the yearly exam calendar.
type examDay struct {
	Month time.Month
	Day   int
}

// calendar lists every assessment date in chronological order. Detection
// is exact-date, not a range.
var calendar = []examDay{
	{time.March, 7},
	{time.April, 4},
	{time.May, 9},
	{time.June, 6},
	{time.July, 11},
	{time.September, 5},
	{time.October, 17},
	{time.November, 14},
}

// officialMockMonths are the months whose exams are graded as official
// mock exams rather than the June/September/CSAT milestones.
var officialMockMonths = map[time.Month]bool{
	time.March:   true,
	time.April:   true,
	time.May:     true,
	time.July:    true,
	time.October: true,
}

// IsOfficialMockMonth reports whether the month's exam is an official
// mock exam.
func IsOfficialMockMonth(month time.Month) bool {
	return officialMockMonths[month]
}

// CrossedExamMonths returns the months of every exam date in (from, to],
// in chronological order. A seven-day week advance crosses at most one.
func CrossedExamMonths(from, to time.Time) []time.Month {
	var crossed []time.Month
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, day := range calendar {
			if d.Month() == day.Month && d.Day() == day.Day {
				crossed = append(crossed, day.Month)
			}
		}
	}
	return crossed
}
