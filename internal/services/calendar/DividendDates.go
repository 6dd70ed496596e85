package calendar

import "time"

// Dividend date arithmetic under the T+2 settlement rule: a purchase settles
// two business days later, so entitlement requires buying at least two
// business days before the record date.

// EntryDate is the day the strategy buys: daysBefore business days ahead of
// the record date.
func (c *JapanCalendar) EntryDate(recordDate time.Time, daysBefore int) time.Time {
	return c.AddBusinessDays(recordDate, -daysBefore)
}

// ExDividendDate derives the ex-date from the record date (two business days
// earlier).
func (c *JapanCalendar) ExDividendDate(recordDate time.Time) time.Time {
	return c.AddBusinessDays(recordDate, -2)
}

// RecordDateFromEx derives the record date from the ex-date.
func (c *JapanCalendar) RecordDateFromEx(exDividendDate time.Time) time.Time {
	return c.AddBusinessDays(exDividendDate, 2)
}
