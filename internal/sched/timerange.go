package sched

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// hoursPerWeek is the length of the weekly cycle in hours.
const hoursPerWeek = 7 * 24

var dayToNum = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

var dirNamePattern = regexp.MustCompile(`^(mon|tue|wed|thu|fri|sat|sun)-(\d{1,2}):(mon|tue|wed|thu|fri|sat|sun)-(\d{1,2})$`)

// TimeRange is a recurring weekly interval [start, end) expressed as a
// weekday (Monday=0..Sunday=6) and an hour (0..23) at each end. The range
// wraps past the week boundary when the start falls after the end, for
// example Friday 18:00 through Monday 06:00.
type TimeRange struct {
	StartDay  int
	StartHour int
	EndDay    int
	EndHour   int
}

func (r TimeRange) startWeekHour() int {
	return r.StartDay*24 + r.StartHour
}

func (r TimeRange) endWeekHour() int {
	return r.EndDay*24 + r.EndHour
}

// Duration returns the covered length of the range in hours. A range whose
// start equals its end is empty and has duration 0.
func (r TimeRange) Duration() int {
	start := r.startWeekHour()
	end := r.endWeekHour()

	if start <= end {
		return end - start
	}
	return hoursPerWeek - start + end
}

// Contains reports whether the given weekday (Monday=0..Sunday=6) and hour
// fall inside the range, handling week wrap-around.
func (r TimeRange) Contains(day, hour int) bool {
	now := day*24 + hour
	start := r.startWeekHour()
	end := r.endWeekHour()

	if start <= end {
		// Normal range, e.g. Monday 8:00 to Monday 17:00. An empty
		// range (start == end) contains nothing.
		return start <= now && now < end
	}

	// Wrapping range, e.g. Friday 18:00 to Monday 6:00
	return now >= start || now < end
}

// WeekdayNumber converts Go's time.Weekday (Sunday=0) to the Monday=0
// numbering used by schedule directory names.
func WeekdayNumber(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ParseDirName parses a schedule directory name of the form
// `<day>-<hour>:<day>-<hour>` (for example `mon-8:mon-17`), case
// insensitively. The second return value is false if the name doesn't
// match the expected pattern or an hour is out of range.
func ParseDirName(name string) (TimeRange, bool) {
	m := dirNamePattern.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return TimeRange{}, false
	}

	startHour, err := strconv.Atoi(m[2])
	if err != nil {
		return TimeRange{}, false
	}
	endHour, err := strconv.Atoi(m[4])
	if err != nil {
		return TimeRange{}, false
	}

	if startHour > 23 || endHour > 23 {
		return TimeRange{}, false
	}

	return TimeRange{
		StartDay:  dayToNum[m[1]],
		StartHour: startHour,
		EndDay:    dayToNum[m[3]],
		EndHour:   endHour,
	}, true
}
