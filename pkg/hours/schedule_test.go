package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-10-19 is a Monday
func monday(hour, minute int) time.Time {
	return time.Date(2026, time.October, 19, hour, minute, 0, 0, time.UTC)
}

func TestIsOpenAt_SameDayInterval(t *testing.T) {
	schedule := "Monday,7am,11pm"

	assert.True(t, IsOpenAt(schedule, monday(10, 0)))
	assert.True(t, IsOpenAt(schedule, monday(7, 0)))
	assert.True(t, IsOpenAt(schedule, monday(23, 0)))
	assert.False(t, IsOpenAt(schedule, monday(23, 30)))
	assert.False(t, IsOpenAt(schedule, monday(6, 59)))
}

func TestIsOpenAt_CrossesMidnight(t *testing.T) {
	schedule := "Monday,11pm,6am"

	assert.True(t, IsOpenAt(schedule, monday(23, 45)))
	assert.True(t, IsOpenAt(schedule, monday(2, 0)))
	assert.False(t, IsOpenAt(schedule, monday(12, 0)))
}

func TestIsOpenAt_Open24Hours(t *testing.T) {
	schedule := "Sunday,5am,11pm|Monday,Open 24 hours,|Tuesday,5am,11pm"

	assert.True(t, IsOpenAt(schedule, monday(3, 0)))
	assert.True(t, IsOpenAt(schedule, monday(23, 59)))
}

func TestIsOpenAt_FailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"no entry for today", "Tuesday,7am,11pm|Wednesday,7am,11pm"},
		{"garbage", "not a schedule"},
		{"unparseable times", "Monday,Closed,Closed"},
		{"missing close", "Monday,7am"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, IsOpenAt(tt.schedule, monday(12, 0)))
		})
	}
}

func TestIsOpenAt_SkipsMalformedEntryForSameDay(t *testing.T) {
	schedule := "Monday,Closed,Closed|Monday,6am,10pm"
	assert.True(t, IsOpenAt(schedule, monday(12, 0)))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		ok       bool
	}{
		{"7am", 7 * 60, true},
		{"12am", 0, true},
		{"12pm", 12 * 60, true},
		{"11pm", 23 * 60, true},
		{"6AM", 6 * 60, true},
		{"11:30pm", 23*60 + 30, true},
		{"13pm", 0, false},
		{"0am", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseClock(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAndDisplay(t *testing.T) {
	schedule := "Monday,6am,11pm|Tuesday,Open 24 hours,|broken"

	days := Parse(schedule)
	require.Len(t, days, 2)
	assert.Equal(t, DayHours{Day: "Monday", Open: "6am", Close: "11pm"}, days[0])
	assert.True(t, days[1].Open24)

	assert.Equal(t, map[string]string{
		"Monday":  "6am - 11pm",
		"Tuesday": "Open 24 hours",
	}, Display(schedule))

	assert.Empty(t, Display(""))
}
