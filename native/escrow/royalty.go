package escrow

import "math/big"

const (
	// RoyaltyDenominator expresses royalty rates in parts per 100,000,
	// i.e. 1000 = 1%.
	RoyaltyDenominator = 100_000
	// MaxRoyaltyPpm caps the effective royalty at 90% of the deal amount.
	// The stored rate is not clamped; the ceiling applies at calculation
	// time so an adversarial or mistaken creation rate cannot strip the
	// seller of more than the cap.
	MaxRoyaltyPpm = 90_000
)

// RoyaltyAmount computes the guarantor's cut of amount at the given
// parts-per-100,000 rate, truncating. A rate of zero is valid.
func RoyaltyAmount(amount *big.Int, ratePpm uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	if ratePpm > MaxRoyaltyPpm {
		ratePpm = MaxRoyaltyPpm
	}
	royalty := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(ratePpm)))
	return royalty.Div(royalty, big.NewInt(RoyaltyDenominator))
}
