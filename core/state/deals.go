package state

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"escrowcore/core/types"
	"escrowcore/native/escrow"
	"escrowcore/storage"
)

var dealRecordPrefix = []byte("escrow/deal/")

func dealRecordKey(id [32]byte) []byte {
	return append(append([]byte(nil), dealRecordPrefix...), id[:]...)
}

// dealWire is the stored form of a deal. RLP has no signed integers, so the
// creation timestamp rides as uint64.
type dealWire struct {
	ID         [32]byte
	DealID     uint32
	Seller     types.Address
	Guarantor  types.Address
	Buyer      types.Address
	Amount     *big.Int
	RoyaltyPpm uint32
	Asset      types.Address
	Template   []byte
	Status     uint8
	CreatedAt  uint64
}

// DealStore persists deal records in a key-value database keyed by the
// content-addressed identifier. It implements the engine's state interface.
// Writes are serialized so the insert-only path can never be interleaved
// with another writer between its existence check and its put.
type DealStore struct {
	mu sync.Mutex
	db storage.Database
}

// NewDealStore wraps the given database.
func NewDealStore(db storage.Database) *DealStore {
	return &DealStore{db: db}
}

// DealPut sanitizes and stores the deal, overwriting any prior record.
func (s *DealStore) DealPut(d *escrow.Deal) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("deal store: database not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(d)
}

// DealPutNew stores the deal only when no record exists under its
// identifier, failing with escrow.ErrDealExists otherwise.
func (s *DealStore) DealPutNew(d *escrow.Deal) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("deal store: database not configured")
	}
	if d == nil {
		return fmt.Errorf("deal store: nil deal")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	has, err := s.db.Has(dealRecordKey(d.ID))
	if err != nil {
		return err
	}
	if has {
		return escrow.ErrDealExists
	}
	return s.putLocked(d)
}

func (s *DealStore) putLocked(d *escrow.Deal) error {
	sanitized, err := escrow.SanitizeDeal(d)
	if err != nil {
		return err
	}
	wire := &dealWire{
		ID:         sanitized.ID,
		DealID:     sanitized.DealID,
		Seller:     sanitized.Seller,
		Guarantor:  sanitized.Guarantor,
		Buyer:      sanitized.Buyer,
		Amount:     sanitized.Amount,
		RoyaltyPpm: sanitized.RoyaltyPpm,
		Asset:      sanitized.Asset,
		Template:   sanitized.WalletTemplate,
		Status:     uint8(sanitized.Status),
		CreatedAt:  uint64(sanitized.CreatedAt),
	}
	encoded, err := rlp.EncodeToBytes(wire)
	if err != nil {
		return err
	}
	return s.db.Put(dealRecordKey(sanitized.ID), encoded)
}

// DealGet loads a deal by identifier. A settled deal is simply absent.
func (s *DealStore) DealGet(id [32]byte) (*escrow.Deal, bool) {
	if s == nil || s.db == nil {
		return nil, false
	}
	encoded, err := s.db.Get(dealRecordKey(id))
	if err != nil {
		return nil, false
	}
	var wire dealWire
	if err := rlp.DecodeBytes(encoded, &wire); err != nil {
		return nil, false
	}
	return &escrow.Deal{
		ID:             wire.ID,
		DealID:         wire.DealID,
		Seller:         wire.Seller,
		Guarantor:      wire.Guarantor,
		Buyer:          wire.Buyer,
		Amount:         wire.Amount,
		RoyaltyPpm:     wire.RoyaltyPpm,
		Asset:          wire.Asset,
		WalletTemplate: wire.Template,
		Status:         escrow.DealStatus(wire.Status),
		CreatedAt:      int64(wire.CreatedAt),
	}, true
}

// DealDelete removes a settled deal record.
func (s *DealStore) DealDelete(id [32]byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("deal store: database not configured")
	}
	return s.db.Delete(dealRecordKey(id))
}

// DealHas reports whether a record exists without decoding it.
func (s *DealStore) DealHas(id [32]byte) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("deal store: database not configured")
	}
	return s.db.Has(dealRecordKey(id))
}
