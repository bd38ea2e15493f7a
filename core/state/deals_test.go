package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowcore/core/types"
	"escrowcore/native/escrow"
	"escrowcore/storage"
)

func testAddress(fill byte) types.Address {
	var addr types.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func testDeal() *escrow.Deal {
	seller := testAddress(0x11)
	guarantor := testAddress(0x22)
	asset := testAddress(0x55)
	template := []byte("wallet-template-v1")
	deal := &escrow.Deal{
		DealID:         9,
		Seller:         seller,
		Guarantor:      guarantor,
		Amount:         big.NewInt(2500),
		RoyaltyPpm:     1000,
		Asset:          asset,
		WalletTemplate: template,
		Status:         escrow.DealCreated,
		CreatedAt:      1700000000,
	}
	deal.ID = escrow.DealAddress(seller, guarantor, deal.Amount, deal.RoyaltyPpm, asset, template, deal.DealID)
	return deal
}

func TestDealStoreRoundTrip(t *testing.T) {
	store := NewDealStore(storage.NewMemDB())
	deal := testDeal()
	require.NoError(t, store.DealPut(deal))

	loaded, ok := store.DealGet(deal.ID)
	require.True(t, ok)
	require.Equal(t, deal.ID, loaded.ID)
	require.Equal(t, deal.Seller, loaded.Seller)
	require.Equal(t, deal.Guarantor, loaded.Guarantor)
	require.Zero(t, deal.Amount.Cmp(loaded.Amount))
	require.Equal(t, deal.RoyaltyPpm, loaded.RoyaltyPpm)
	require.Equal(t, deal.WalletTemplate, loaded.WalletTemplate)
	require.Equal(t, deal.Status, loaded.Status)
	require.Equal(t, deal.CreatedAt, loaded.CreatedAt)
}

func TestDealStorePutNewRefusesOverwrite(t *testing.T) {
	store := NewDealStore(storage.NewMemDB())
	deal := testDeal()
	deal.Buyer = testAddress(0x33)
	deal.Status = escrow.DealFunded
	require.NoError(t, store.DealPutNew(deal))

	// A stale insert for the same identifier must fail and leave the stored
	// record untouched.
	stale := deal.Clone()
	stale.Buyer = types.Address{}
	stale.Status = escrow.DealCreated
	require.ErrorIs(t, store.DealPutNew(stale), escrow.ErrDealExists)

	loaded, ok := store.DealGet(deal.ID)
	require.True(t, ok)
	require.Equal(t, deal.Buyer, loaded.Buyer)
	require.Equal(t, escrow.DealFunded, loaded.Status)
}

func TestDealStoreRejectsInvalidDeal(t *testing.T) {
	store := NewDealStore(storage.NewMemDB())
	deal := testDeal()
	deal.Amount = big.NewInt(0)
	require.Error(t, store.DealPut(deal))
}

func TestDealStoreDeleteRemovesRecord(t *testing.T) {
	store := NewDealStore(storage.NewMemDB())
	deal := testDeal()
	require.NoError(t, store.DealPut(deal))
	require.NoError(t, store.DealDelete(deal.ID))

	_, ok := store.DealGet(deal.ID)
	require.False(t, ok)
	has, err := store.DealHas(deal.ID)
	require.NoError(t, err)
	require.False(t, has)
}

func TestDealStoreMissingDeal(t *testing.T) {
	store := NewDealStore(storage.NewMemDB())
	_, ok := store.DealGet([32]byte{0x01})
	require.False(t, ok)
}
