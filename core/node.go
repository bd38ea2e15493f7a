package core

import (
	"encoding/hex"
	"log/slog"
	"math/big"
	"sync"

	"escrowcore/core/events"
	"escrowcore/core/state"
	"escrowcore/core/types"
	"escrowcore/native/escrow"
	"escrowcore/observability/metrics"
	"escrowcore/storage"
)

// Node is the central controller: it owns the deal registry and delivers
// inbound messages to deal instances one at a time. Each deal behaves as a
// single-threaded actor; distinct deals share nothing but the registry and
// may be driven concurrently.
type Node struct {
	db         storage.Database
	store      *state.DealStore
	engine     *escrow.Engine
	dispatcher *escrow.Dispatcher
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[[32]byte]*sync.Mutex
}

// NewNode wires the engine, dispatcher and registry over the given database.
func NewNode(db storage.Database, logger *slog.Logger) *Node {
	store := state.NewDealStore(db)
	engine := escrow.NewEngine()
	engine.SetState(store)
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		db:         db,
		store:      store,
		engine:     engine,
		dispatcher: escrow.NewDispatcher(engine),
		logger:     logger,
		locks:      make(map[[32]byte]*sync.Mutex),
	}
}

// Engine exposes the underlying state machine for read-only queries and for
// installing an event emitter.
func (n *Node) Engine() *escrow.Engine { return n.engine }

// SetEmitter installs an event sink on the engine.
func (n *Node) SetEmitter(emitter events.Emitter) { n.engine.SetEmitter(emitter) }

// dealLock returns the mutex serializing one deal's messages. Entries are
// never removed: a message arriving after settlement still queues on the
// same mutex, so serialization never depends on the record existing.
func (n *Node) dealLock(id [32]byte) *sync.Mutex {
	n.mu.Lock()
	defer n.mu.Unlock()
	lock, ok := n.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		n.locks[id] = lock
	}
	return lock
}

// Deploy processes an initialization message and returns the stored deal
// carrying its content-derived identifier. The target identifier is derived
// from the decoded body first so the creation runs under the same per-deal
// lock as every other message, keeping a duplicate deployment from racing a
// funding call.
func (n *Node) Deploy(msg *types.InboundMessage) (*escrow.Deal, error) {
	body, err := n.dispatcher.DecodeInitialize(msg)
	if err != nil {
		n.logger.Warn("deal deployment rejected", "error", err)
		return nil, err
	}
	lock := n.dealLock(body.DealAddress())
	lock.Lock()
	defer lock.Unlock()

	deal, err := n.dispatcher.ApplyInitialize(body)
	if err != nil {
		n.logger.Warn("deal deployment rejected", "error", err)
		return nil, err
	}
	metrics.Escrow().DealCreated()
	n.logger.Info("deal deployed",
		"id", hex.EncodeToString(deal.ID[:]),
		"dealId", deal.DealID,
		"amount", deal.Amount.String(),
	)
	return deal, nil
}

// Handle delivers one inbound message to the deal identified by id. Messages
// for the same deal are processed strictly one at a time; the returned
// outbound messages are fire-and-forget transfers already committed by the
// transition.
func (n *Node) Handle(id [32]byte, msg *types.InboundMessage) ([]types.OutboundMessage, error) {
	lock := n.dealLock(id)
	lock.Lock()
	defer lock.Unlock()

	out, err := n.dispatcher.Dispatch(id, msg)
	if err != nil {
		if code := escrow.ExitCode(err); code != 0 {
			metrics.Escrow().MessageRejected(code)
		}
		return nil, err
	}
	switch msg.Op {
	case types.OpFund, types.OpTokenNotify:
		metrics.Escrow().DealFunded()
	case types.OpApprove:
		metrics.Escrow().DealApproved()
	case types.OpCancel:
		metrics.Escrow().DealCancelled()
	}
	return out, nil
}

// EscrowInfo returns the deal snapshot without message cost.
func (n *Node) EscrowInfo(id [32]byte) (escrow.Snapshot, error) {
	return n.engine.EscrowInfo(id)
}

// CalculateRoyaltyAmount returns the royalty the guarantor would take today.
func (n *Node) CalculateRoyaltyAmount(id [32]byte) (*big.Int, error) {
	return n.engine.CalculateRoyaltyAmount(id)
}

// WalletAddress returns the escrow's derived token wallet address.
func (n *Node) WalletAddress(id [32]byte) (types.Address, error) {
	return n.engine.WalletAddress(id)
}
