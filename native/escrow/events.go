package escrow

import (
	"encoding/hex"
	"strconv"

	"escrowcore/core/types"
)

const (
	EventTypeDealCreated       = "escrow.created"
	EventTypeDealFunded        = "escrow.funded"
	EventTypeDealWalletUpdated = "escrow.wallet_updated"
	EventTypeDealApproved      = "escrow.approved"
	EventTypeDealCancelled     = "escrow.cancelled"
)

// NewCreatedEvent returns the canonical payload for a newly initialised deal.
func NewCreatedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealCreated, d) }

// NewFundedEvent returns the canonical payload emitted when a buyer funds
// the deal.
func NewFundedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealFunded, d) }

// NewWalletUpdatedEvent returns the payload emitted when the seller replaces
// the token wallet template before funding.
func NewWalletUpdatedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealWalletUpdated, d) }

// NewApprovedEvent returns the payload emitted when the guarantor releases
// the deal to the seller.
func NewApprovedEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealApproved, d) }

// NewCancelledEvent returns the payload emitted when the guarantor refunds
// the deal to the buyer.
func NewCancelledEvent(d *Deal) *types.Event { return newDealEvent(EventTypeDealCancelled, d) }

func newDealEvent(eventType string, d *Deal) *types.Event {
	attrs := make(map[string]string)
	if d == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	clone := d.Clone()
	attrs["id"] = hex.EncodeToString(clone.ID[:])
	attrs["dealId"] = strconv.FormatUint(uint64(clone.DealID), 10)
	attrs["seller"] = clone.Seller.Hex()
	attrs["guarantor"] = clone.Guarantor.Hex()
	attrs["amount"] = clone.Amount.String()
	attrs["royaltyPpm"] = strconv.FormatUint(uint64(clone.RoyaltyPpm), 10)
	attrs["funded"] = strconv.FormatBool(clone.IsFunded())
	if !clone.Buyer.IsZero() {
		attrs["buyer"] = clone.Buyer.Hex()
	}
	if clone.IsTokenDeal() {
		attrs["asset"] = clone.Asset.Hex()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
