package txbuilder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickvault/ledger-go-sdk/internal/confirm"
	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/rpc"
	"github.com/tickvault/ledger-go-sdk/internal/txqueue"
)

type fakeTick struct{ tick uint64 }

func (f fakeTick) SuggestedTargetTick(ctx context.Context, offset *uint64) (uint64, error) {
	return f.tick, nil
}

type fakeBroadcaster struct {
	resp *rpc.BroadcastTransactionResponse
	err  error
}

func (f *fakeBroadcaster) BroadcastTransaction(ctx context.Context, encoded string) (*rpc.BroadcastTransactionResponse, error) {
	return f.resp, f.err
}

type fakeConfirmer struct {
	record *rpc.TransactionRecord
	err    error
}

func (f *fakeConfirmer) Wait(ctx context.Context, req confirm.Request) (*rpc.TransactionRecord, error) {
	return f.record, f.err
}

func newTestBuilder(broadcaster *fakeBroadcaster, confirmer *fakeConfirmer) *Builder {
	return &Builder{
		Tick:         fakeTick{tick: 1000},
		Collaborator: crypto.NewEd25519Collaborator(),
		Broadcaster:  broadcaster,
		Confirmer:    confirmer,
	}
}

func testParams(t *testing.T) Params {
	t.Helper()
	collaborator := crypto.NewEd25519Collaborator()
	dstSeed := domain.Seed("destinationSeedMaterialForTestUse00")
	dstIdentity := collaborator.IdentityFromSeed(dstSeed, 0)
	srcSeed := domain.Seed("sourceSeedMaterialForTestUseOnly000")
	return Params{
		SourceSeed: &srcSeed,
		ToIdentity: dstIdentity,
		Amount:     500,
		InputType:  0,
	}
}

func TestBuildSigned_ResolvesDefaultTargetTickFromHelper(t *testing.T) {
	b := newTestBuilder(nil, nil)
	signed, err := b.BuildSigned(context.Background(), testParams(t))
	require.NoError(t, err)
	require.Equal(t, domain.Tick(1000), signed.TargetTick)
	require.NotEmpty(t, signed.TxID)
	require.NotEmpty(t, signed.Bytes)
}

func TestBuildSigned_UsesExplicitTargetTick(t *testing.T) {
	b := newTestBuilder(nil, nil)
	params := testParams(t)
	tick := uint64(55)
	params.TargetTick = &tick

	signed, err := b.BuildSigned(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, domain.Tick(55), signed.TargetTick)
}

func TestBuildSigned_RejectsTargetTickAbove32Bits(t *testing.T) {
	b := newTestBuilder(nil, nil)
	params := testParams(t)
	tick := uint64(1) << 40
	params.TargetTick = &tick

	_, err := b.BuildSigned(context.Background(), params)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindOutOfRange))
}

func TestBuildSigned_RequiresASeedSource(t *testing.T) {
	b := newTestBuilder(nil, nil)
	params := testParams(t)
	params.SourceSeed = nil

	_, err := b.BuildSigned(context.Background(), params)
	require.Error(t, err)
}

func TestSend_BroadcastsBuiltTransaction(t *testing.T) {
	broadcaster := &fakeBroadcaster{resp: &rpc.BroadcastTransactionResponse{
		PeersBroadcasted:   3,
		EncodedTransaction: "encoded",
		TransactionID:      "network-tx-id",
	}}
	b := newTestBuilder(broadcaster, nil)

	signed, result, err := b.Send(context.Background(), testParams(t))
	require.NoError(t, err)
	require.NotNil(t, signed)
	require.Equal(t, int32(3), result.PeersBroadcast)
	require.Equal(t, "network-tx-id", result.NetworkTxID)
}

func TestSendAndConfirm_WaitsUsingTheNetworkTxID(t *testing.T) {
	broadcaster := &fakeBroadcaster{resp: &rpc.BroadcastTransactionResponse{TransactionID: "network-tx-id"}}
	confirmer := &fakeConfirmer{record: &rpc.TransactionRecord{Hash: "network-tx-id"}}
	b := newTestBuilder(broadcaster, confirmer)

	signed, result, err := b.SendAndConfirm(context.Background(), testParams(t))
	require.NoError(t, err)
	require.NotNil(t, signed)
	require.Equal(t, "network-tx-id", result.NetworkTxID)
}

func TestSendAndConfirmWithReceipt_ReturnsArchiveRecord(t *testing.T) {
	broadcaster := &fakeBroadcaster{resp: &rpc.BroadcastTransactionResponse{TransactionID: "network-tx-id"}}
	confirmer := &fakeConfirmer{record: &rpc.TransactionRecord{
		Hash:      "network-tx-id",
		InputData: "",
		Signature: "",
	}}
	b := newTestBuilder(broadcaster, confirmer)

	_, _, record, err := b.SendAndConfirmWithReceipt(context.Background(), testParams(t))
	require.NoError(t, err)
	require.Equal(t, "network-tx-id", record.Hash)
}

func TestSendAndConfirm_DelegatesToQueueWhenConfigured(t *testing.T) {
	broadcaster := &fakeBroadcaster{resp: &rpc.BroadcastTransactionResponse{TransactionID: "network-tx-id"}}
	confirmer := &fakeConfirmer{record: &rpc.TransactionRecord{Hash: "network-tx-id"}}
	b := newTestBuilder(broadcaster, confirmer)
	b.Queue = txqueue.New(txqueue.PolicyWait)

	_, result, err := b.SendAndConfirm(context.Background(), testParams(t))
	require.NoError(t, err)
	require.Equal(t, "network-tx-id", result.NetworkTxID)
}

func TestSendAndConfirm_QueueRejectPolicyAllowsSequentialSends(t *testing.T) {
	broadcaster := &fakeBroadcaster{resp: &rpc.BroadcastTransactionResponse{TransactionID: "network-tx-id"}}
	confirmer := &fakeConfirmer{record: &rpc.TransactionRecord{Hash: "network-tx-id"}}
	b := newTestBuilder(broadcaster, confirmer)
	b.Queue = txqueue.New(txqueue.PolicyReject)

	params := testParams(t)
	_, _, err := b.SendAndConfirm(context.Background(), params)
	require.NoError(t, err)

	// The active slot is released once the first send completes, so a
	// second call against the same source identity should also succeed
	// rather than conflict.
	_, _, err = b.SendAndConfirm(context.Background(), params)
	require.NoError(t, err)
}
