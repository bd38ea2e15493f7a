package escrow

import "escrowcore/core/types"

// Access guard: every role and precondition check an operation performs
// before touching state. All checks return the stable coded rejection the
// wire contract promises, so callers can surface the exit code unchanged.

func requireGuarantor(d *Deal, caller types.Address) error {
	if caller != d.Guarantor {
		return ErrNotGuarantor
	}
	return nil
}

func requireSeller(d *Deal, caller types.Address) error {
	if caller != d.Seller {
		return ErrNotSeller
	}
	return nil
}

func requireFunded(d *Deal) error {
	if !d.IsFunded() {
		return ErrNotFunded
	}
	return nil
}

func requireUnfunded(d *Deal) error {
	if d.IsFunded() {
		return ErrAlreadyFunded
	}
	return nil
}

func requireTokenDeal(d *Deal) error {
	if !d.IsTokenDeal() {
		return ErrWrongAssetType
	}
	return nil
}

func requireNativeDeal(d *Deal) error {
	if d.IsTokenDeal() {
		return ErrWrongAssetType
	}
	return nil
}

// requireEscrowWallet rejects token transfer notifications whose direct
// sender is not the escrow's own derived wallet. The embedded "from" field
// of a notification is attacker-controlled and never consulted here.
func requireEscrowWallet(d *Deal, caller types.Address) error {
	expected := TokenWalletAddress(d.Asset, d.InstanceAddress(), d.WalletTemplate)
	if caller != expected {
		return ErrNotFromWallet
	}
	return nil
}
