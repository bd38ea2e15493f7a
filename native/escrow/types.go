package escrow

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"escrowcore/core/types"
)

// DealStatus represents the lifecycle states of a deal. There is no stored
// terminal state: settlement destroys the deal record instead.
type DealStatus uint8

const (
	DealCreated DealStatus = iota
	DealFunded
)

// Deal captures the persistent state of a single escrow agreement between a
// buyer, a seller and a guarantor. The identifier is content-addressed from
// the creation parameters, so equal definitions collapse onto one instance
// and no global counter is needed.
type Deal struct {
	ID             [32]byte
	DealID         uint32 // caller-supplied bookkeeping tag, not used for uniqueness
	Seller         types.Address
	Guarantor      types.Address
	Buyer          types.Address // zero until funded; set exactly once
	Amount         *big.Int
	RoyaltyPpm     uint32        // parts per 100_000, stored un-clamped
	Asset          types.Address // zero means the native coin
	WalletTemplate []byte        // token-wallet code, token deals only
	Status         DealStatus
	CreatedAt      int64
}

// IsTokenDeal reports whether the deal settles in a token rather than the
// native coin.
func (d *Deal) IsTokenDeal() bool { return d != nil && !d.Asset.IsZero() }

// IsFunded reports whether a buyer has successfully funded the deal.
func (d *Deal) IsFunded() bool { return d != nil && d.Status == DealFunded }

// Clone returns a deep copy so callers can mutate freely without touching
// the stored instance.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Amount != nil {
		clone.Amount = new(big.Int).Set(d.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	clone.WalletTemplate = append([]byte(nil), d.WalletTemplate...)
	return &clone
}

// Valid reports whether the status value is within the supported range.
func (s DealStatus) Valid() bool {
	switch s {
	case DealCreated, DealFunded:
		return true
	default:
		return false
	}
}

// SanitizeDeal validates and normalises a deal definition, returning a clone
// with a non-nil amount. The original value is not mutated.
func SanitizeDeal(d *Deal) (*Deal, error) {
	if d == nil {
		return nil, fmt.Errorf("nil deal")
	}
	clone := d.Clone()
	if clone.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("deal amount must be positive")
	}
	if clone.Seller.IsZero() || clone.Guarantor.IsZero() {
		return nil, fmt.Errorf("deal requires seller and guarantor addresses")
	}
	if clone.IsTokenDeal() && len(clone.WalletTemplate) == 0 {
		return nil, fmt.Errorf("token deal requires a wallet template")
	}
	if !clone.IsTokenDeal() && len(clone.WalletTemplate) != 0 {
		return nil, fmt.Errorf("native deal carries no wallet template")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("invalid deal status: %d", clone.Status)
	}
	return clone, nil
}

// DealAddress derives the content-addressed identifier of a deal definition.
// Two definitions share an identifier iff every creation parameter matches.
func DealAddress(seller, guarantor types.Address, amount *big.Int, royaltyPpm uint32, asset types.Address, template []byte, dealID uint32) [32]byte {
	amt := amount
	if amt == nil {
		amt = big.NewInt(0)
	}
	rate := []byte{byte(royaltyPpm >> 24), byte(royaltyPpm >> 16), byte(royaltyPpm >> 8), byte(royaltyPpm)}
	tag := []byte{byte(dealID >> 24), byte(dealID >> 16), byte(dealID >> 8), byte(dealID)}
	templateHash := ethcrypto.Keccak256(template)
	return ethcrypto.Keccak256Hash(seller[:], guarantor[:], amt.Bytes(), rate, asset[:], templateHash, tag)
}

// Snapshot is the externally visible view of a deal carried by the
// ProvideEscrowData response and the info query.
type Snapshot struct {
	ID             [32]byte
	DealID         uint32
	Seller         types.Address
	Guarantor      types.Address
	Buyer          types.Address
	Amount         *big.Int
	RoyaltyPpm     uint32
	IsFunded       bool
	Asset          types.Address
	WalletTemplate []byte
}

// Snapshot returns the read-only view of the deal.
func (d *Deal) Snapshot() Snapshot {
	clone := d.Clone()
	return Snapshot{
		ID:             clone.ID,
		DealID:         clone.DealID,
		Seller:         clone.Seller,
		Guarantor:      clone.Guarantor,
		Buyer:          clone.Buyer,
		Amount:         clone.Amount,
		RoyaltyPpm:     clone.RoyaltyPpm,
		IsFunded:       clone.IsFunded(),
		Asset:          clone.Asset,
		WalletTemplate: clone.WalletTemplate,
	}
}
