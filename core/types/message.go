package types

import (
	"encoding/hex"
	"math/big"
)

// Address is a 20-byte account identifier on the ledger.
type Address [20]byte

// Hex returns the lowercase hex encoding of the address without a prefix.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool { return a == Address{} }

// MsgOp identifies the kind of an inbound or outbound message.
type MsgOp uint32

const (
	// Deal lifecycle opcodes.
	OpInitialize        MsgOp = 0x1674a003
	OpFund              MsgOp = 0x00000000 // empty-bodied tag message
	OpUpdateWalletCode  MsgOp = 0x38d4999d
	OpApprove           MsgOp = 0xd2f171f9
	OpCancel            MsgOp = 0xcc0f2526
	OpProvideEscrowData MsgOp = 0x9f89274d
	OpTakeEscrowData    MsgOp = 0x200e8cb1

	// Standard token-wallet protocol opcodes. A wallet notifies its owner of
	// an incoming transfer with OpTokenNotify and accepts OpTokenTransfer
	// instructions from its owner.
	OpTokenNotify   MsgOp = 0x7362d09c
	OpTokenTransfer MsgOp = 0x0f8a7ea5
)

// SendMode controls how an outbound transfer is carried by the ledger.
type SendMode uint8

const (
	// SendDefault pays forwarding fees from the attached value.
	SendDefault SendMode = 0
	// SendDestroyAndFlush destroys the sending instance after the transfer
	// and folds its entire remaining balance into the message. Used only on
	// the terminal transfer of a settlement.
	SendDestroyAndFlush SendMode = 1 << 5
)

// InboundMessage is one message delivered to a deal instance. Sender is the
// direct caller as observed by the ledger; payload fields inside Body are
// never trusted for identity.
type InboundMessage struct {
	Sender Address
	Value  *big.Int
	Op     MsgOp
	Body   []byte
}

// AttachedValue returns the message value, treating nil as zero.
func (m *InboundMessage) AttachedValue() *big.Int {
	if m == nil || m.Value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(m.Value)
}

// OutboundMessage is a transfer or response scheduled by a state transition.
// Outbound messages are fire-and-forget: the issuing deal never observes
// their downstream fate.
type OutboundMessage struct {
	To    Address
	Value *big.Int
	Op    MsgOp
	Body  []byte
	Mode  SendMode
}
