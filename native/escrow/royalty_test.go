package escrow

import (
	"math/big"
	"testing"
)

func TestRoyaltyAmount(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		ratePpm uint32
		want    int64
	}{
		{"five percent", 1000, 5000, 50},
		{"zero rate", 1000, 0, 0},
		{"one percent", 100_000, 1000, 1000},
		{"truncates", 10, 5000, 0},    // 5% of 10 is 0.5, truncated
		{"clamped", 1000, 105_000, 900}, // capped at 90%
		{"clamp boundary", 1000, 90_000, 900},
		{"just above clamp", 1000, 90_001, 900},
		{"full amount requested", 1000, 100_000, 900},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RoyaltyAmount(big.NewInt(tc.amount), tc.ratePpm)
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("royalty(%d, %d) = %s, want %d", tc.amount, tc.ratePpm, got, tc.want)
			}
		})
	}
}

func TestRoyaltyAmountDegenerateInputs(t *testing.T) {
	if got := RoyaltyAmount(nil, 5000); got.Sign() != 0 {
		t.Fatalf("nil amount must yield zero, got %s", got)
	}
	if got := RoyaltyAmount(big.NewInt(0), 5000); got.Sign() != 0 {
		t.Fatalf("zero amount must yield zero, got %s", got)
	}
}

func TestRoyaltyNeverExceedsNinetyPercent(t *testing.T) {
	amount := big.NewInt(123_456_789)
	ceiling := new(big.Int).Mul(amount, big.NewInt(9))
	ceiling.Div(ceiling, big.NewInt(10))
	for _, rate := range []uint32{90_000, 90_001, 100_000, 1_000_000, ^uint32(0)} {
		got := RoyaltyAmount(amount, rate)
		if got.Cmp(ceiling) > 0 {
			t.Fatalf("rate %d produced %s above the 90%% ceiling %s", rate, got, ceiling)
		}
	}
}
