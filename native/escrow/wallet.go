package escrow

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"escrowcore/core/types"
)

// TokenWalletAddress derives the address of holder's wallet for the token
// rooted at asset, instantiated from the given wallet template. The
// derivation is deterministic: the same tuple always yields the same
// address, which is what lets the engine validate inbound transfer
// notifications against a computed value instead of trusting payload
// content.
func TokenWalletAddress(asset, holder types.Address, template []byte) types.Address {
	templateHash := ethcrypto.Keccak256(template)
	digest := ethcrypto.Keccak256(asset[:], holder[:], templateHash)
	var addr types.Address
	copy(addr[:], digest[12:])
	return addr
}
