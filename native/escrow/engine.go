package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/rlp"

	"escrowcore/core/events"
	"escrowcore/core/types"
)

var (
	errNilState     = errors.New("escrow engine: state not configured")
	errDealNotFound = errors.New("escrow engine: deal not found")

	// ErrDealExists is returned by a state backend when an insert-only put
	// finds a record already stored under the identifier.
	ErrDealExists = errors.New("escrow: deal already exists")
)

type engineState interface {
	DealPut(*Deal) error
	// DealPutNew stores the deal only if no record exists for its
	// identifier, failing with ErrDealExists otherwise. Initialization
	// relies on this so a duplicate deployment can never overwrite a live
	// record.
	DealPutNew(*Deal) error
	DealGet(id [32]byte) (*Deal, bool)
	DealDelete(id [32]byte) error
}

type dealEvent struct {
	evt *types.Event
}

func (e dealEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e dealEvent) Event() *types.Event { return e.evt }

// Engine owns every deal state transition. Each operation validates the full
// precondition set before mutating anything, so a rejected message leaves
// the deal exactly as it found it; settlement operations additionally build
// their outbound transfers before the deal record is deleted, making the
// transition atomic from the caller's point of view.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an engine with a no-op emitter. Callers can override the
// emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(dealEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadDeal(id [32]byte) (*Deal, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	deal, ok := e.state.DealGet(id)
	if !ok {
		return nil, errDealNotFound
	}
	return deal, nil
}

func (e *Engine) storeDeal(d *Deal) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.DealPut(d)
}

func sameDefinition(a, b *Deal) bool {
	return a.Seller == b.Seller &&
		a.Guarantor == b.Guarantor &&
		a.Amount.Cmp(b.Amount) == 0 &&
		a.RoyaltyPpm == b.RoyaltyPpm &&
		a.Asset == b.Asset &&
		string(a.WalletTemplate) == string(b.WalletTemplate) &&
		a.DealID == b.DealID
}

// Initialize establishes a deal in the Created state. The identifier is
// derived from the full parameter tuple; re-initialising an identical
// definition is idempotent, while a conflicting definition for the same
// identifier is rejected.
func (e *Engine) Initialize(dealID uint32, seller, guarantor types.Address, amount *big.Int, royaltyPpm uint32, asset types.Address, template []byte) (*Deal, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if asset.IsZero() {
		// Native deals carry no template; a supplied one is dropped rather
		// than rejected.
		template = nil
	}
	deal := &Deal{
		DealID:         dealID,
		Seller:         seller,
		Guarantor:      guarantor,
		Amount:         amount,
		RoyaltyPpm:     royaltyPpm,
		Asset:          asset,
		WalletTemplate: template,
		Status:         DealCreated,
		CreatedAt:      e.now(),
	}
	sanitized, err := SanitizeDeal(deal)
	if err != nil {
		return nil, err
	}
	sanitized.ID = DealAddress(sanitized.Seller, sanitized.Guarantor, sanitized.Amount, sanitized.RoyaltyPpm, sanitized.Asset, sanitized.WalletTemplate, sanitized.DealID)
	err = e.state.DealPutNew(sanitized)
	if err == nil {
		e.emit(NewCreatedEvent(sanitized))
		return sanitized.Clone(), nil
	}
	if !errors.Is(err, ErrDealExists) {
		return nil, err
	}
	// A record is already live under this identifier, possibly funded. The
	// insert-only put guarantees it was not overwritten; re-deploying an
	// identical definition is idempotent, anything else is a conflict.
	existing, ok := e.state.DealGet(sanitized.ID)
	if !ok {
		return nil, err
	}
	if !sameDefinition(existing, sanitized) {
		return nil, fmt.Errorf("escrow: identifier already exists with different definition")
	}
	return existing, nil
}

// Fund handles a native-coin funding call. The attached value must equal the
// deal amount exactly; the direct sender becomes the buyer.
func (e *Engine) Fund(id [32]byte, sender types.Address, attached *big.Int) error {
	deal, err := e.loadDeal(id)
	if err != nil {
		return err
	}
	if err := requireUnfunded(deal); err != nil {
		return err
	}
	if err := requireNativeDeal(deal); err != nil {
		return err
	}
	if attached == nil || attached.Cmp(deal.Amount) != 0 {
		return ErrWrongFundAmount
	}
	deal.Buyer = sender
	deal.Status = DealFunded
	if err := e.storeDeal(deal); err != nil {
		return err
	}
	e.emit(NewFundedEvent(deal))
	return nil
}

// TokenNotify handles an incoming transfer notification from a token wallet.
// Only the direct sender identity counts: it must equal the escrow's own
// derived wallet for the configured asset. The notified origin address (the
// wallet protocol's "from" field) then becomes the buyer.
func (e *Engine) TokenNotify(id [32]byte, sender types.Address, amount *big.Int, origin types.Address) error {
	deal, err := e.loadDeal(id)
	if err != nil {
		return err
	}
	if err := requireUnfunded(deal); err != nil {
		return err
	}
	if err := requireTokenDeal(deal); err != nil {
		return err
	}
	if err := requireEscrowWallet(deal, sender); err != nil {
		return err
	}
	if amount == nil || amount.Cmp(deal.Amount) != 0 {
		return ErrWrongFundAmount
	}
	deal.Buyer = origin
	deal.Status = DealFunded
	if err := e.storeDeal(deal); err != nil {
		return err
	}
	e.emit(NewFundedEvent(deal))
	return nil
}

// UpdateWalletCode replaces the token wallet template. Allowed only to the
// seller, only on token deals, and only before funding: a post-funding swap
// would let the seller redirect a later refund to a wallet the buyer never
// agreed to.
func (e *Engine) UpdateWalletCode(id [32]byte, sender types.Address, template []byte) error {
	deal, err := e.loadDeal(id)
	if err != nil {
		return err
	}
	if err := requireTokenDeal(deal); err != nil {
		return err
	}
	if err := requireUnfunded(deal); err != nil {
		return err
	}
	if err := requireSeller(deal, sender); err != nil {
		return err
	}
	if len(template) == 0 {
		return fmt.Errorf("escrow: empty wallet template")
	}
	deal.WalletTemplate = append([]byte(nil), template...)
	if err := e.storeDeal(deal); err != nil {
		return err
	}
	e.emit(NewWalletUpdatedEvent(deal))
	return nil
}

// ApproveCost reports the minimum attached value an Approve must carry: the
// processing cost of both downstream transfers. The check runs before any
// transfer is emitted, substituting for rollback after the deal record is
// gone.
func (e *Engine) ApproveCost(id [32]byte) (*big.Int, error) {
	deal, err := e.loadDeal(id)
	if err != nil {
		return nil, err
	}
	adapter, err := AdapterFor(deal)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(adapter.SendCost(), big.NewInt(2)), nil
}

// Approve releases the deal: the seller receives the amount less the
// royalty, the guarantor receives the royalty, and the deal record is
// destroyed with the remaining balance flushed into the final transfer.
func (e *Engine) Approve(id [32]byte, sender types.Address, attached *big.Int) ([]types.OutboundMessage, error) {
	deal, err := e.loadDeal(id)
	if err != nil {
		return nil, err
	}
	if err := requireGuarantor(deal, sender); err != nil {
		return nil, err
	}
	if err := requireFunded(deal); err != nil {
		return nil, err
	}
	adapter, err := AdapterFor(deal)
	if err != nil {
		return nil, err
	}
	required := new(big.Int).Mul(adapter.SendCost(), big.NewInt(2))
	if attached == nil || attached.Cmp(required) < 0 {
		return nil, ErrLowMessageValue
	}
	royalty := RoyaltyAmount(deal.Amount, deal.RoyaltyPpm)
	sellerShare := new(big.Int).Sub(deal.Amount, royalty)
	toSeller, err := adapter.Transfer(deal.Seller, sellerShare, types.SendDefault)
	if err != nil {
		return nil, err
	}
	toGuarantor, err := adapter.Transfer(deal.Guarantor, royalty, types.SendDestroyAndFlush)
	if err != nil {
		return nil, err
	}
	if err := e.state.DealDelete(id); err != nil {
		return nil, err
	}
	e.emit(NewApprovedEvent(deal))
	return []types.OutboundMessage{toSeller, toGuarantor}, nil
}

// Cancel refunds the full amount to the buyer and destroys the deal record,
// flushing the remaining balance into the refund transfer.
func (e *Engine) Cancel(id [32]byte, sender types.Address) ([]types.OutboundMessage, error) {
	deal, err := e.loadDeal(id)
	if err != nil {
		return nil, err
	}
	if err := requireGuarantor(deal, sender); err != nil {
		return nil, err
	}
	if err := requireFunded(deal); err != nil {
		return nil, err
	}
	adapter, err := AdapterFor(deal)
	if err != nil {
		return nil, err
	}
	refund, err := adapter.Transfer(deal.Buyer, deal.Amount, types.SendDestroyAndFlush)
	if err != nil {
		return nil, err
	}
	if err := e.state.DealDelete(id); err != nil {
		return nil, err
	}
	e.emit(NewCancelledEvent(deal))
	return []types.OutboundMessage{refund}, nil
}

// ProvideEscrowData answers a snapshot request. Any sender may ask, in any
// state, and nothing is mutated.
func (e *Engine) ProvideEscrowData(id [32]byte, sender types.Address) (types.OutboundMessage, error) {
	deal, err := e.loadDeal(id)
	if err != nil {
		return types.OutboundMessage{}, err
	}
	body, err := rlp.EncodeToBytes(snapshotBody(deal.Snapshot()))
	if err != nil {
		return types.OutboundMessage{}, err
	}
	return types.OutboundMessage{
		To:   sender,
		Op:   types.OpTakeEscrowData,
		Body: body,
	}, nil
}

// EscrowInfo returns the deal snapshot without message cost.
func (e *Engine) EscrowInfo(id [32]byte) (Snapshot, error) {
	deal, err := e.loadDeal(id)
	if err != nil {
		return Snapshot{}, err
	}
	return deal.Snapshot(), nil
}

// CalculateRoyaltyAmount returns the royalty the guarantor would receive on
// approve, with the calculation-time clamp applied.
func (e *Engine) CalculateRoyaltyAmount(id [32]byte) (*big.Int, error) {
	deal, err := e.loadDeal(id)
	if err != nil {
		return nil, err
	}
	return RoyaltyAmount(deal.Amount, deal.RoyaltyPpm), nil
}

// WalletAddress returns the escrow's derived token wallet address. Only
// token deals have one.
func (e *Engine) WalletAddress(id [32]byte) (types.Address, error) {
	deal, err := e.loadDeal(id)
	if err != nil {
		return types.Address{}, err
	}
	if !deal.IsTokenDeal() {
		return types.Address{}, ErrWrongAssetType
	}
	return TokenWalletAddress(deal.Asset, deal.InstanceAddress(), deal.WalletTemplate), nil
}
