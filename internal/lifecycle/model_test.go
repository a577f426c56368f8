package lifecycle

import (
	"testing"
	"time"
)

func TestComputeSettlement(t *testing.T) {
	at := time.Now()
	cases := []struct {
		price, payout, commission int64
	}{
		{200, 180, 20},
		{1000, 900, 100},
		{105, 95, 10}, // integer commission rounds down
		{9, 9, 0},
	}
	for _, tc := range cases {
		s := ComputeSettlement("task-1", "fixer-1", tc.price, at)
		if s.Payout != tc.payout || s.Commission != tc.commission {
			t.Errorf("price %d: got payout %d commission %d, want %d/%d",
				tc.price, s.Payout, s.Commission, tc.payout, tc.commission)
		}
		if s.Payout+s.Commission != s.Amount {
			t.Errorf("price %d: split does not sum to amount", tc.price)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("category %q should be valid", c)
		}
	}
	for _, c := range []Category{"", "plumbing", "TESISAT"} {
		if ValidCategory(c) {
			t.Errorf("category %q should be invalid", c)
		}
	}
}
