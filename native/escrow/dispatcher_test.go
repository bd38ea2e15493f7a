package escrow

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"

	"escrowcore/core/types"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *mockState) {
	t.Helper()
	engine, state := newTestEngine(t)
	return NewDispatcher(engine), state
}

func deployNative(t *testing.T, d *Dispatcher, amount int64) *Deal {
	t.Helper()
	body, err := rlp.EncodeToBytes(&InitializeBody{
		DealID:     7,
		Seller:     seller,
		Guarantor:  guarantor,
		Amount:     big.NewInt(amount),
		RoyaltyPpm: 5000,
	})
	require.NoError(t, err)
	deal, err := d.Initialize(&types.InboundMessage{Sender: seller, Op: types.OpInitialize, Body: body})
	require.NoError(t, err)
	return deal
}

func TestDispatchFundAndApprove(t *testing.T) {
	d, state := newTestDispatcher(t)
	deal := deployNative(t, d, 1000)

	out, err := d.Dispatch(deal.ID, &types.InboundMessage{
		Sender: buyer,
		Value:  big.NewInt(1000),
		Op:     types.OpFund,
	})
	require.NoError(t, err)
	require.Empty(t, out)

	out, err = d.Dispatch(deal.ID, &types.InboundMessage{
		Sender: guarantor,
		Value:  big.NewInt(1_000_000_000),
		Op:     types.OpApprove,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	_, ok := state.DealGet(deal.ID)
	require.False(t, ok, "approved deal must be gone")
}

func TestDispatchTokenNotification(t *testing.T) {
	engine, _ := newTestEngine(t)
	d := NewDispatcher(engine)
	deal := mustInitToken(t, engine, 1000, 5000)

	body, err := rlp.EncodeToBytes(&TokenNotifyBody{
		QueryID: 42,
		Amount:  big.NewInt(1000),
		From:    buyer,
	})
	require.NoError(t, err)

	// Forged direct sender bounces with the stable code even though the
	// payload names the real wallet protocol fields.
	_, err = d.Dispatch(deal.ID, &types.InboundMessage{Sender: stranger, Op: types.OpTokenNotify, Body: body})
	require.Equal(t, uint16(37726), ExitCode(err))

	_, err = d.Dispatch(deal.ID, &types.InboundMessage{Sender: escrowWallet(deal), Op: types.OpTokenNotify, Body: body})
	require.NoError(t, err)

	snapshot, err := engine.EscrowInfo(deal.ID)
	require.NoError(t, err)
	require.True(t, snapshot.IsFunded)
	require.Equal(t, buyer, snapshot.Buyer)
}

func TestDispatchUpdateWalletCode(t *testing.T) {
	engine, state := newTestEngine(t)
	d := NewDispatcher(engine)
	deal := mustInitToken(t, engine, 1000, 5000)

	body, err := rlp.EncodeToBytes(&UpdateWalletCodeBody{Template: []byte("v2")})
	require.NoError(t, err)
	_, err = d.Dispatch(deal.ID, &types.InboundMessage{Sender: seller, Op: types.OpUpdateWalletCode, Body: body})
	require.NoError(t, err)

	stored, _ := state.DealGet(deal.ID)
	require.Equal(t, []byte("v2"), stored.WalletTemplate)
}

func TestDispatchProvideEscrowData(t *testing.T) {
	d, _ := newTestDispatcher(t)
	deal := deployNative(t, d, 1000)

	out, err := d.Dispatch(deal.ID, &types.InboundMessage{Sender: stranger, Op: types.OpProvideEscrowData})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, stranger, out[0].To)
	require.Equal(t, types.OpTakeEscrowData, out[0].Op)

	snapshot, err := DecodeSnapshot(out[0].Body)
	require.NoError(t, err)
	require.Equal(t, deal.ID, snapshot.ID)
	require.False(t, snapshot.IsFunded)
}

func TestDispatchUnrecognizedOpcodeBounces(t *testing.T) {
	d, state := newTestDispatcher(t)
	deal := deployNative(t, d, 1000)

	_, err := d.Dispatch(deal.ID, &types.InboundMessage{
		Sender: buyer,
		Value:  big.NewInt(1000),
		Op:     types.MsgOp(0xdeadbeef),
	})
	require.Equal(t, uint16(130), ExitCode(err))

	// Crucially the rejected message was not treated as a funding attempt.
	stored, ok := state.DealGet(deal.ID)
	require.True(t, ok)
	require.False(t, stored.IsFunded())
}

func TestDispatchMalformedBody(t *testing.T) {
	d, _ := newTestDispatcher(t)
	deal := deployNative(t, d, 1000)

	_, err := d.Dispatch(deal.ID, &types.InboundMessage{
		Sender: buyer,
		Op:     types.OpTokenNotify,
		Body:   []byte{0xff, 0x00},
	})
	require.Error(t, err)
}
