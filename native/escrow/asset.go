package escrow

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"escrowcore/core/types"
)

// Per-transfer processing costs, in the ledger's smallest native units. An
// outbound token transfer is more expensive than a native one because it
// rides through two wallet contracts plus a notification.
var (
	nativeSendCost = big.NewInt(15_000_000)
	tokenSendCost  = big.NewInt(50_000_000)
)

// AssetAdapter builds the outbound transfer messages for one deal's
// configured asset. Implementations are stateless with respect to the deal;
// the engine owns all mutation.
type AssetAdapter interface {
	// Transfer schedules a payment of amount to the given party. Mode
	// carries the destroy-and-flush bit on the terminal transfer of a
	// settlement.
	Transfer(to types.Address, amount *big.Int, mode types.SendMode) (types.OutboundMessage, error)
	// SendCost reports the value needed to carry one transfer downstream.
	SendCost() *big.Int
}

// InstanceAddress is the deal's own address on the ledger, the tail of its
// content-addressed identifier. Token wallets owned by the escrow derive
// from this address.
func (d *Deal) InstanceAddress() types.Address {
	var addr types.Address
	if d == nil {
		return addr
	}
	copy(addr[:], d.ID[12:])
	return addr
}

// AdapterFor returns the transfer builder matching the deal's asset
// configuration.
func AdapterFor(d *Deal) (AssetAdapter, error) {
	if d == nil {
		return nil, fmt.Errorf("nil deal")
	}
	if !d.IsTokenDeal() {
		return nativeAdapter{}, nil
	}
	if len(d.WalletTemplate) == 0 {
		return nil, fmt.Errorf("token deal missing wallet template")
	}
	return tokenAdapter{
		asset:    d.Asset,
		holder:   d.InstanceAddress(),
		template: append([]byte(nil), d.WalletTemplate...),
	}, nil
}

type nativeAdapter struct{}

func (nativeAdapter) Transfer(to types.Address, amount *big.Int, mode types.SendMode) (types.OutboundMessage, error) {
	if amount == nil || amount.Sign() < 0 {
		return types.OutboundMessage{}, fmt.Errorf("invalid native transfer amount")
	}
	return types.OutboundMessage{
		To:    to,
		Value: new(big.Int).Set(amount),
		Op:    types.OpFund,
		Mode:  mode,
	}, nil
}

func (nativeAdapter) SendCost() *big.Int { return new(big.Int).Set(nativeSendCost) }

// tokenAdapter routes transfers through the escrow's own derived token
// wallet: the outbound message instructs that wallet to credit the
// recipient's counterpart wallet for the same asset and template.
type tokenAdapter struct {
	asset    types.Address
	holder   types.Address
	template []byte
}

// TokenTransferBody is the RLP body of an OpTokenTransfer instruction sent
// to the escrow's wallet.
type TokenTransferBody struct {
	QueryID     uint64
	Amount      *big.Int
	Destination types.Address
	ResponseTo  types.Address
}

func (a tokenAdapter) Transfer(to types.Address, amount *big.Int, mode types.SendMode) (types.OutboundMessage, error) {
	if amount == nil || amount.Sign() < 0 {
		return types.OutboundMessage{}, fmt.Errorf("invalid token transfer amount")
	}
	body, err := rlp.EncodeToBytes(&TokenTransferBody{
		Amount:      new(big.Int).Set(amount),
		Destination: to,
		ResponseTo:  to,
	})
	if err != nil {
		return types.OutboundMessage{}, err
	}
	return types.OutboundMessage{
		To:    TokenWalletAddress(a.asset, a.holder, a.template),
		Value: new(big.Int).Set(tokenSendCost),
		Op:    types.OpTokenTransfer,
		Body:  body,
		Mode:  mode,
	}, nil
}

func (a tokenAdapter) SendCost() *big.Int { return new(big.Int).Set(tokenSendCost) }
