package escrow

import "fmt"

// Error is a rejection of an inbound message. Every rejection carries a
// stable numeric exit code so external tooling can branch on cause; the
// codes are part of the wire contract and must not be renumbered.
type Error struct {
	Code uint16
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("escrow: %s (exit %d)", e.Msg, e.Code) }

// ExitCode extracts the numeric exit code from err, returning 0 when err is
// not an escrow rejection.
func ExitCode(err error) uint16 {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}

var (
	ErrWrongFundAmount = &Error{Code: 15301, Msg: "wrong fund amount"}
	ErrAlreadyFunded   = &Error{Code: 33704, Msg: "already funded"}
	ErrWrongAssetType  = &Error{Code: 52368, Msg: "wrong asset type for this operation"}
	ErrNotGuarantor    = &Error{Code: 21150, Msg: "caller is not the guarantor"}
	ErrNotFunded       = &Error{Code: 14215, Msg: "deal is not funded yet"}
	ErrNotFromWallet   = &Error{Code: 37726, Msg: "transfer notification not from the escrow token wallet"}
	ErrLowMessageValue = &Error{Code: 5357, Msg: "insufficient attached value for approve"}
	ErrNotSeller       = &Error{Code: 47823, Msg: "caller is not the seller"}
	ErrUnknownOp       = &Error{Code: 130, Msg: "unrecognized inbound message"}
)
