// Package txbuilder implements the transaction builder of §4.D: signed
// transaction assembly, broadcast, and confirmation, optionally delegated
// through a per-source txqueue.Queue.
package txbuilder

import (
	"context"
	"encoding/base64"

	"github.com/tickvault/ledger-go-sdk/internal/confirm"
	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/rpc"
	"github.com/tickvault/ledger-go-sdk/internal/txqueue"
)

// TickResolver supplies a suggested target tick when Params.TargetTick is
// absent.
type TickResolver interface {
	SuggestedTargetTick(ctx context.Context, offset *uint64) (uint64, error)
}

// Broadcaster submits an already-signed, base64-encoded transaction.
type Broadcaster interface {
	BroadcastTransaction(ctx context.Context, encodedTransaction string) (*rpc.BroadcastTransactionResponse, error)
}

// Confirmer waits for a broadcast transaction to reach a terminal state.
type Confirmer interface {
	Wait(ctx context.Context, req confirm.Request) (*rpc.TransactionRecord, error)
}

// VaultResolver resolves a vault reference to the seed it protects. Only
// the read path needed by the builder is exposed here; internal/vault
// satisfies it directly.
type VaultResolver interface {
	GetSeed(ref string) (domain.Seed, error)
}

// Params parametrizes one signed transaction (§4.D).
type Params struct {
	SourceSeed     *domain.Seed
	SourceVaultRef *string

	ToIdentity domain.Identity
	Amount     uint64

	TargetTick *uint64
	InputType  uint16
	InputBytes []byte

	Confirm confirm.Request // TxID/TargetTick are filled in by the builder; set Timeout/PollInterval to override defaults.
}

// Builder implements buildSigned/send/sendAndConfirm[WithReceipt] (§4.D).
type Builder struct {
	Tick          TickResolver
	Collaborator  crypto.Collaborator
	Broadcaster   Broadcaster
	Confirmer     Confirmer
	Vault         VaultResolver
	Queue         *txqueue.Queue
}

// resolveSeed implements "resolve the seed (via vault if a vault
// reference is supplied)".
func (b *Builder) resolveSeed(params Params) (domain.Seed, error) {
	if params.SourceSeed != nil {
		return *params.SourceSeed, nil
	}
	if params.SourceVaultRef != nil {
		if b.Vault == nil {
			return "", errs.New(errs.KindOutOfRange, "sourceVaultRef given but no vault is configured")
		}
		return b.Vault.GetSeed(*params.SourceVaultRef)
	}
	return "", errs.New(errs.KindOutOfRange, "one of sourceSeed or sourceVaultRef is required")
}

// BuildSigned resolves the seed and target tick, derives key material, and
// produces a signed transaction (§4.D).
func (b *Builder) BuildSigned(ctx context.Context, params Params) (*domain.SignedTransaction, error) {
	seed, err := b.resolveSeed(params)
	if err != nil {
		return nil, err
	}

	targetTick := uint64(0)
	if params.TargetTick != nil {
		targetTick = *params.TargetTick
	} else {
		targetTick, err = b.Tick.SuggestedTargetTick(ctx, nil)
		if err != nil {
			return nil, err
		}
	}

	tickU32, ok := domain.Tick(targetTick).ToU32()
	if !ok {
		return nil, errs.New(errs.KindOutOfRange, "target tick does not fit in 32 bits")
	}

	pub := b.Collaborator.PublicKeyFromSeed(seed)
	priv := b.Collaborator.PrivateKeyFromSeed(seed)
	dstPub, err := b.Collaborator.PublicKeyFromIdentity(params.ToIdentity)
	if err != nil {
		return nil, err
	}

	fields := crypto.TxFields{
		SrcPublicKey: pub,
		DstPublicKey: dstPub,
		Amount:       params.Amount,
		Tick:         tickU32,
		InputType:    params.InputType,
		InputBytes:   params.InputBytes,
	}
	bytes, err := b.Collaborator.BuildSignedTransaction(fields, priv)
	if err != nil {
		return nil, err
	}

	return &domain.SignedTransaction{
		Bytes:          bytes,
		TxID:           b.Collaborator.TransactionID(bytes),
		TargetTick:     domain.Tick(targetTick),
		SourceIdentity: b.Collaborator.IdentityFromPublicKey(pub),
	}, nil
}

// broadcast submits signed to the network.
func (b *Builder) broadcast(ctx context.Context, signed *domain.SignedTransaction) (*domain.BroadcastResult, error) {
	encoded := base64.StdEncoding.EncodeToString(signed.Bytes)
	resp, err := b.Broadcaster.BroadcastTransaction(ctx, encoded)
	if err != nil {
		return nil, err
	}
	return &domain.BroadcastResult{
		PeersBroadcast: resp.PeersBroadcasted,
		EncodedBytes:   resp.EncodedTransaction,
		NetworkTxID:    resp.TransactionID,
	}, nil
}

// Send builds and broadcasts, without waiting for confirmation.
func (b *Builder) Send(ctx context.Context, params Params) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	signed, err := b.BuildSigned(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	result, err := b.broadcast(ctx, signed)
	if err != nil {
		return signed, nil, err
	}
	return signed, result, nil
}

// SendAndConfirm builds, broadcasts, and waits for confirmation. When a
// queue is configured it delegates to sendQueued (§4.D: "sendAndConfirm
// MUST delegate to sendQueued").
func (b *Builder) SendAndConfirm(ctx context.Context, params Params) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	signed, result, _, err := b.sendAndConfirm(ctx, params)
	return signed, result, err
}

// SendAndConfirmWithReceipt is SendAndConfirm plus the archive's record.
func (b *Builder) SendAndConfirmWithReceipt(ctx context.Context, params Params) (*domain.SignedTransaction, *domain.BroadcastResult, *domain.QueryTransaction, error) {
	return b.sendAndConfirm(ctx, params)
}

func (b *Builder) sendAndConfirm(ctx context.Context, params Params) (*domain.SignedTransaction, *domain.BroadcastResult, *domain.QueryTransaction, error) {
	if b.Queue != nil {
		return b.sendQueued(ctx, params)
	}

	signed, err := b.BuildSigned(ctx, params)
	if err != nil {
		return nil, nil, nil, err
	}
	result, err := b.broadcast(ctx, signed)
	if err != nil {
		return signed, nil, nil, err
	}

	record, err := b.confirm(ctx, params, result.NetworkTxID, uint64(signed.TargetTick))
	if err != nil {
		return signed, result, nil, err
	}
	return signed, result, record, nil
}

func (b *Builder) confirm(ctx context.Context, params Params, networkTxID string, targetTick uint64) (*domain.QueryTransaction, error) {
	req := params.Confirm
	req.TxID = networkTxID
	req.TargetTick = targetTick
	record, err := b.Confirmer.Wait(ctx, req)
	if err != nil {
		return nil, err
	}
	return toDomainRecord(record)
}

// sendQueued builds the transaction up front (so its target tick is known
// before it competes for the per-source slot), then hands broadcast and
// confirmation off to the queue's state machine.
func (b *Builder) sendQueued(ctx context.Context, params Params) (*domain.SignedTransaction, *domain.BroadcastResult, *domain.QueryTransaction, error) {
	signed, err := b.BuildSigned(ctx, params)
	if err != nil {
		return nil, nil, nil, err
	}

	exec := &queueExecutor{builder: b, params: params, signed: signed}
	item, err := b.Queue.Enqueue(ctx, string(signed.SourceIdentity), uint64(signed.TargetTick), exec)
	if err != nil {
		return signed, nil, nil, err
	}
	if item.Status == domain.StatusFailed || item.Status == domain.StatusSuperseded {
		return signed, item.Result, nil, errs.Wrap(errs.KindQueuedTransaction, "queued transaction did not confirm", item.Err)
	}
	if item.Result == nil {
		return signed, nil, nil, errs.New(errs.KindQueuedTransaction, "confirmed queue item is missing its broadcast result")
	}
	return signed, item.Result, item.Record, nil
}

// queueExecutor adapts a pre-built Builder transaction to txqueue.Executor.
type queueExecutor struct {
	builder *Builder
	params  Params
	signed  *domain.SignedTransaction
}

func (e *queueExecutor) Broadcast(ctx context.Context) (*domain.BroadcastResult, error) {
	return e.builder.broadcast(ctx, e.signed)
}

func (e *queueExecutor) Confirm(ctx context.Context, networkTxID string, targetTick uint64) (*domain.QueryTransaction, error) {
	return e.builder.confirm(ctx, e.params, networkTxID, targetTick)
}
