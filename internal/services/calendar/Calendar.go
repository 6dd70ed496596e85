package calendar

import (
	"time"

	"DividendCaptureBot/internal/models"
)

// JapanCalendar models the Tokyo exchange trading calendar: weekends,
// national holidays and the year-end closure (12/31 through 1/3). The
// holiday table approximates the statutory calendar with fixed dates,
// including the happy-monday holidays and fixed stand-ins for the moving
// equinoxes. Sunday holidays are observed the following Monday.
type JapanCalendar struct{}

func NewJapanCalendar() *JapanCalendar {
	return &JapanCalendar{}
}

func (c *JapanCalendar) IsBusinessDay(date time.Time) bool {
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}

	// Year-end market closure
	if date.Month() == time.December && date.Day() == 31 {
		return false
	}
	if date.Month() == time.January && date.Day() <= 3 {
		return false
	}

	if isNationalHoliday(date) {
		return false
	}

	return true
}

// AddBusinessDays walks forward or backward from start until n business days
// have been consumed.
func (c *JapanCalendar) AddBusinessDays(start time.Time, days int) time.Time {
	current := start
	remaining := days
	step := 1
	if days < 0 {
		remaining = -days
		step = -1
	}

	for remaining > 0 {
		current = current.AddDate(0, 0, step)
		if c.IsBusinessDay(current) {
			remaining--
		}
	}
	return current
}

// BusinessDayDiff counts business days from start to end. Negative when end
// precedes start.
func (c *JapanCalendar) BusinessDayDiff(start, end time.Time) int {
	sign := 1
	if start.After(end) {
		start, end = end, start
		sign = -1
	}

	days := 0
	current := start
	for current.Before(end) {
		current = current.AddDate(0, 0, 1)
		if c.IsBusinessDay(current) {
			days++
		}
	}
	return days * sign
}

// TradingDays lists every business day in [start, end].
func (c *JapanCalendar) TradingDays(start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, &models.CalendarComputationError{
			Reason: "trading calendar end date precedes start date",
		}
	}

	var days []time.Time
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		if c.IsBusinessDay(current) {
			days = append(days, current)
		}
	}
	return days, nil
}

func isNationalHoliday(date time.Time) bool {
	if isFixedHoliday(date) || isHappyMonday(date) {
		return true
	}

	// Sunday holidays are observed the following Monday
	if date.Weekday() == time.Monday {
		prev := date.AddDate(0, 0, -1)
		if isFixedHoliday(prev) {
			return true
		}
	}

	return false
}

func isFixedHoliday(date time.Time) bool {
	type md struct{ m time.Month; d int }
	fixed := []md{
		{time.January, 1},    // New Year's Day
		{time.February, 11},  // National Foundation Day
		{time.February, 23},  // Emperor's Birthday
		{time.March, 20},     // Vernal Equinox (approximation)
		{time.April, 29},     // Showa Day
		{time.May, 3},        // Constitution Day
		{time.May, 4},        // Greenery Day
		{time.May, 5},        // Children's Day
		{time.August, 11},    // Mountain Day
		{time.September, 23}, // Autumnal Equinox (approximation)
		{time.November, 3},   // Culture Day
		{time.November, 23},  // Labour Thanksgiving Day
	}
	for _, h := range fixed {
		if date.Month() == h.m && date.Day() == h.d {
			return true
		}
	}
	return false
}

func isHappyMonday(date time.Time) bool {
	if date.Weekday() != time.Monday {
		return false
	}
	week := (date.Day()-1)/7 + 1
	switch {
	case date.Month() == time.January && week == 2: // Coming of Age Day
		return true
	case date.Month() == time.July && week == 3: // Marine Day
		return true
	case date.Month() == time.September && week == 3: // Respect for the Aged Day
		return true
	case date.Month() == time.October && week == 2: // Sports Day
		return true
	}
	return false
}
