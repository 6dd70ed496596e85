package execution

import (
	"time"
)

// DividendScheduler maps a record date to the expected cash payment date and
// nets the per-share amount of withholding tax.
//
// The payment date is a fiscal-year heuristic for Japanese issuers: year-end
// dividends (March record) pay around the June AGM, interim dividends
// (September record) in early December, anything else roughly 75 days after
// the record date. Real payment calendars vary by issuer; validate against
// actual data before relying on the timing.
type DividendScheduler struct {
	taxRate float64
}

func NewDividendScheduler(taxRate float64) *DividendScheduler {
	return &DividendScheduler{taxRate: taxRate}
}

// PaymentDate returns the expected payment date for a dividend with the
// given record date.
func (s *DividendScheduler) PaymentDate(recordDate time.Time) time.Time {
	switch recordDate.Month() {
	case time.March:
		return time.Date(recordDate.Year(), time.June, 25, 0, 0, 0, 0, recordDate.Location())
	case time.September:
		return time.Date(recordDate.Year(), time.December, 10, 0, 0, 0, 0, recordDate.Location())
	default:
		return recordDate.AddDate(0, 0, 75)
	}
}

// NetAmount is the per-share dividend after withholding tax.
func (s *DividendScheduler) NetAmount(grossPerShare float64) float64 {
	return grossPerShare * (1 - s.taxRate)
}
