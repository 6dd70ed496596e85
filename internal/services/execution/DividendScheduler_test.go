package execution

import (
	"math"
	"testing"
	"time"
)

func TestPaymentDate(t *testing.T) {
	s := NewDividendScheduler(0.20315)

	cases := []struct {
		name   string
		record time.Time
		want   time.Time
	}{
		{
			"march record pays late june",
			time.Date(2023, time.March, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2023, time.June, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			"september record pays early december",
			time.Date(2023, time.September, 29, 0, 0, 0, 0, time.UTC),
			time.Date(2023, time.December, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			"other months pay 75 days later",
			time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC),
			time.Date(2023, time.September, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			"december record rolls into the next year",
			time.Date(2023, time.December, 29, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		if got := s.PaymentDate(tc.record); !got.Equal(tc.want) {
			t.Errorf("%s: got %s, want %s",
				tc.name, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestNetAmount(t *testing.T) {
	s := NewDividendScheduler(0.20315)

	if got := s.NetAmount(50); math.Abs(got-39.8425) > 1e-9 {
		t.Errorf("taxed: got %f, want 39.8425", got)
	}

	untaxed := NewDividendScheduler(0)
	if got := untaxed.NetAmount(50); got != 50 {
		t.Errorf("zero tax: got %f, want 50", got)
	}
}
