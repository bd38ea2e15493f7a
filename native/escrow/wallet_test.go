package escrow

import (
	"math/big"
	"testing"

	"escrowcore/core/types"
)

func TestTokenWalletAddressIsDeterministic(t *testing.T) {
	asset := newTestAddress(0x55)
	holder := newTestAddress(0x66)
	template := []byte("wallet-template-v1")

	a := TokenWalletAddress(asset, holder, template)
	b := TokenWalletAddress(asset, holder, template)
	if a != b {
		t.Fatalf("same tuple must derive the same wallet")
	}

	if TokenWalletAddress(asset, newTestAddress(0x67), template) == a {
		t.Fatalf("different holders must derive different wallets")
	}
	if TokenWalletAddress(newTestAddress(0x56), holder, template) == a {
		t.Fatalf("different assets must derive different wallets")
	}
	if TokenWalletAddress(asset, holder, []byte("v2")) == a {
		t.Fatalf("different templates must derive different wallets")
	}
}

func TestDealAddressCoversEveryParameter(t *testing.T) {
	base := func() [32]byte {
		return DealAddress(seller, guarantor, big.NewInt(1000), 5000, tokenRoot, testTemplate, 7)
	}
	if base() != base() {
		t.Fatalf("derivation must be deterministic")
	}
	variants := [][32]byte{
		DealAddress(stranger, guarantor, big.NewInt(1000), 5000, tokenRoot, testTemplate, 7),
		DealAddress(seller, stranger, big.NewInt(1000), 5000, tokenRoot, testTemplate, 7),
		DealAddress(seller, guarantor, big.NewInt(1001), 5000, tokenRoot, testTemplate, 7),
		DealAddress(seller, guarantor, big.NewInt(1000), 5001, tokenRoot, testTemplate, 7),
		DealAddress(seller, guarantor, big.NewInt(1000), 5000, types.Address{}, testTemplate, 7),
		DealAddress(seller, guarantor, big.NewInt(1000), 5000, tokenRoot, []byte("v2"), 7),
		DealAddress(seller, guarantor, big.NewInt(1000), 5000, tokenRoot, testTemplate, 8),
	}
	want := base()
	for i, got := range variants {
		if got == want {
			t.Fatalf("variant %d must change the derived address", i)
		}
	}
}

func TestAdapterSelection(t *testing.T) {
	nativeDeal := &Deal{Amount: big.NewInt(1), Seller: seller, Guarantor: guarantor}
	adapter, err := AdapterFor(nativeDeal)
	if err != nil {
		t.Fatalf("native adapter: %v", err)
	}
	msg, err := adapter.Transfer(buyer, big.NewInt(100), types.SendDefault)
	if err != nil {
		t.Fatalf("native transfer: %v", err)
	}
	if msg.To != buyer || msg.Value.Cmp(big.NewInt(100)) != 0 || len(msg.Body) != 0 {
		t.Fatalf("native transfer must pay the recipient directly")
	}

	tokenDeal := &Deal{Amount: big.NewInt(1), Seller: seller, Guarantor: guarantor, Asset: tokenRoot, WalletTemplate: testTemplate}
	adapter, err = AdapterFor(tokenDeal)
	if err != nil {
		t.Fatalf("token adapter: %v", err)
	}
	msg, err = adapter.Transfer(buyer, big.NewInt(100), types.SendDestroyAndFlush)
	if err != nil {
		t.Fatalf("token transfer: %v", err)
	}
	if msg.To != TokenWalletAddress(tokenRoot, tokenDeal.InstanceAddress(), testTemplate) {
		t.Fatalf("token transfer must instruct the escrow wallet")
	}
	if msg.Op != types.OpTokenTransfer {
		t.Fatalf("token transfer op = %#x", msg.Op)
	}
	if msg.Mode&types.SendDestroyAndFlush == 0 {
		t.Fatalf("mode must be preserved")
	}
}
