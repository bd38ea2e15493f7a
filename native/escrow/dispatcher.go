package escrow

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"escrowcore/core/types"
)

// Wire bodies. RLP keeps field order significant, so these structs are part
// of the external contract.

// InitializeBody carries every fixed parameter of a deal. A zero Asset means
// the native coin; Template must be present exactly when Asset is set.
type InitializeBody struct {
	DealID     uint32
	Seller     types.Address
	Guarantor  types.Address
	Amount     *big.Int
	RoyaltyPpm uint32
	Asset      types.Address
	Template   []byte
}

// DealAddress derives the identifier this definition deploys to, applying
// the same native-template rule as the engine.
func (b *InitializeBody) DealAddress() [32]byte {
	template := b.Template
	if b.Asset.IsZero() {
		template = nil
	}
	return DealAddress(b.Seller, b.Guarantor, b.Amount, b.RoyaltyPpm, b.Asset, template, b.DealID)
}

// TokenNotifyBody is the standard incoming-transfer notification payload.
// From is reported by the sending wallet and is only trusted after the
// direct sender has been validated against the escrow's derived wallet.
type TokenNotifyBody struct {
	QueryID        uint64
	Amount         *big.Int
	From           types.Address
	ForwardPayload []byte
}

// UpdateWalletCodeBody carries a replacement token wallet template.
type UpdateWalletCodeBody struct {
	Template []byte
}

type snapshotWire struct {
	ID         [32]byte
	DealID     uint32
	Seller     types.Address
	Guarantor  types.Address
	Buyer      types.Address
	Amount     *big.Int
	RoyaltyPpm uint32
	Funded     bool
	Asset      types.Address
	Template   []byte
}

func snapshotBody(s Snapshot) *snapshotWire {
	return &snapshotWire{
		ID:         s.ID,
		DealID:     s.DealID,
		Seller:     s.Seller,
		Guarantor:  s.Guarantor,
		Buyer:      s.Buyer,
		Amount:     s.Amount,
		RoyaltyPpm: s.RoyaltyPpm,
		Funded:     s.IsFunded,
		Asset:      s.Asset,
		Template:   s.WalletTemplate,
	}
}

// DecodeSnapshot parses the body of an OpTakeEscrowData response.
func DecodeSnapshot(body []byte) (Snapshot, error) {
	var wire snapshotWire
	if err := rlp.DecodeBytes(body, &wire); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:             wire.ID,
		DealID:         wire.DealID,
		Seller:         wire.Seller,
		Guarantor:      wire.Guarantor,
		Buyer:          wire.Buyer,
		Amount:         wire.Amount,
		RoyaltyPpm:     wire.RoyaltyPpm,
		IsFunded:       wire.Funded,
		Asset:          wire.Asset,
		WalletTemplate: wire.Template,
	}, nil
}

// Dispatcher decodes inbound messages and routes them to the engine. It
// encodes no business rules of its own: authorization and state checks all
// live in the engine and its guards.
type Dispatcher struct {
	engine *Engine
}

// NewDispatcher returns a dispatcher routing into the given engine.
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// DecodeInitialize parses a creation message body. Callers that serialize
// per deal can derive the target identifier from the decoded body before
// applying it.
func (d *Dispatcher) DecodeInitialize(msg *types.InboundMessage) (*InitializeBody, error) {
	var body InitializeBody
	if err := rlp.DecodeBytes(msg.Body, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// ApplyInitialize runs a decoded creation body through the engine.
func (d *Dispatcher) ApplyInitialize(body *InitializeBody) (*Deal, error) {
	return d.engine.Initialize(body.DealID, body.Seller, body.Guarantor, body.Amount, body.RoyaltyPpm, body.Asset, body.Template)
}

// Initialize decodes and applies a creation message, returning the stored
// deal so the caller learns the content-derived identifier.
func (d *Dispatcher) Initialize(msg *types.InboundMessage) (*Deal, error) {
	body, err := d.DecodeInitialize(msg)
	if err != nil {
		return nil, err
	}
	return d.ApplyInitialize(body)
}

// Dispatch handles one inbound message addressed to an existing deal and
// returns the outbound messages the transition scheduled. A rejection comes
// back as a coded escrow error with state untouched; unrecognized opcodes
// bounce the same way without ever being treated as funding attempts.
func (d *Dispatcher) Dispatch(id [32]byte, msg *types.InboundMessage) ([]types.OutboundMessage, error) {
	switch msg.Op {
	case types.OpFund:
		return nil, d.engine.Fund(id, msg.Sender, msg.AttachedValue())
	case types.OpTokenNotify:
		var body TokenNotifyBody
		if err := rlp.DecodeBytes(msg.Body, &body); err != nil {
			return nil, err
		}
		return nil, d.engine.TokenNotify(id, msg.Sender, body.Amount, body.From)
	case types.OpUpdateWalletCode:
		var body UpdateWalletCodeBody
		if err := rlp.DecodeBytes(msg.Body, &body); err != nil {
			return nil, err
		}
		return nil, d.engine.UpdateWalletCode(id, msg.Sender, body.Template)
	case types.OpApprove:
		return d.engine.Approve(id, msg.Sender, msg.AttachedValue())
	case types.OpCancel:
		return d.engine.Cancel(id, msg.Sender)
	case types.OpProvideEscrowData:
		out, err := d.engine.ProvideEscrowData(id, msg.Sender)
		if err != nil {
			return nil, err
		}
		return []types.OutboundMessage{out}, nil
	default:
		return nil, ErrUnknownOp
	}
}
