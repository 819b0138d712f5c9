// Package hours parses serialized weekly opening hours and answers "open now" questions.
//
// The wire format is a pipe separated list of day entries, each entry being
// "Day,Open,Close", for example "Monday,7am,11pm|Tuesday,Open 24 hours,". The
// open time may be the Open24Hours sentinel, in which case the close time is ignored.
package hours

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Open24Hours is the sentinel open time for a day that never closes
const Open24Hours = "Open 24 hours"

const (
	entrySeparator = "|"
	fieldSeparator = ","
)

var timePattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)

// DayHours is one parsed schedule entry
type DayHours struct {
	Day    string
	Open   string
	Close  string
	Open24 bool
}

// Parse splits a serialized schedule into its entries.
// Entries with fewer than three fields are skipped.
func Parse(schedule string) []DayHours {
	if strings.TrimSpace(schedule) == "" {
		return nil
	}

	var days []DayHours
	for _, entry := range strings.Split(schedule, entrySeparator) {
		parts := strings.Split(entry, fieldSeparator)
		if len(parts) < 3 {
			continue
		}

		day := DayHours{
			Day:   strings.TrimSpace(parts[0]),
			Open:  strings.TrimSpace(parts[1]),
			Close: strings.TrimSpace(parts[2]),
		}
		if day.Open == Open24Hours {
			day.Open24 = true
			day.Close = ""
		}
		days = append(days, day)
	}

	return days
}

// Display returns a day name to human readable hours mapping, e.g. "Monday" -> "7am - 11pm"
func Display(schedule string) map[string]string {
	result := make(map[string]string)
	for _, day := range Parse(schedule) {
		if day.Open24 {
			result[day.Day] = Open24Hours
			continue
		}
		result[day.Day] = day.Open + " - " + day.Close
	}
	return result
}

// IsOpenAt reports whether the schedule is open at the given instant. The weekday
// and wall clock of now are used as is, so callers convert to the venue's time zone first.
// An empty, malformed or non-matching schedule is reported as closed.
func IsOpenAt(schedule string, now time.Time) bool {
	current := now.Hour()*60 + now.Minute()
	weekday := now.Weekday().String()

	for _, day := range Parse(schedule) {
		if !strings.EqualFold(day.Day, weekday) {
			continue
		}
		if day.Open24 {
			return true
		}

		open, ok := ParseClock(day.Open)
		if !ok {
			continue
		}
		closing, ok := ParseClock(day.Close)
		if !ok {
			continue
		}

		// crosses midnight
		if closing < open {
			return current >= open || current <= closing
		}
		return current >= open && current <= closing
	}

	return false
}

// ParseClock converts a 12-hour time such as "7am", "12pm" or "11:30pm" into minutes after midnight
func ParseClock(value string) (int, bool) {
	match := timePattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0, false
	}

	hour, err := strconv.Atoi(match[1])
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}

	minute := 0
	if match[2] != "" {
		minute, err = strconv.Atoi(match[2])
		if err != nil || minute > 59 {
			return 0, false
		}
	}

	switch strings.ToLower(match[3]) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	return hour*60 + minute, true
}
