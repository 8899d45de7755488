// Package transfer implements the stateless transfer/procedure façade of
// §4.F: a transfer is a transaction with inputType=0 and empty
// inputBytes; a procedure call targets a contract's derived identity
// with the entry's declared inputType and caller-supplied bytes. Both
// are thin wrappers over internal/txbuilder and internal/registry —
// this package holds no state of its own.
package transfer

import (
	"context"

	"github.com/tickvault/ledger-go-sdk/internal/confirm"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/registry"
	"github.com/tickvault/ledger-go-sdk/internal/txbuilder"
)

// Request parametrizes a plain value transfer.
type Request struct {
	Builder *txbuilder.Builder

	SourceSeed     *domain.Seed
	SourceVaultRef *string
	ToIdentity     domain.Identity
	Amount         uint64
	TargetTick     *uint64
	Confirm        confirm.Request
}

func (r Request) params() txbuilder.Params {
	return txbuilder.Params{
		SourceSeed:     r.SourceSeed,
		SourceVaultRef: r.SourceVaultRef,
		ToIdentity:     r.ToIdentity,
		Amount:         r.Amount,
		TargetTick:     r.TargetTick,
		InputType:      0,
		InputBytes:     nil,
		Confirm:        r.Confirm,
	}
}

// Send builds and broadcasts a transfer, without waiting for confirmation.
func Send(ctx context.Context, req Request) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	return req.Builder.Send(ctx, req.params())
}

// SendAndConfirm builds, broadcasts, and waits for confirmation.
func SendAndConfirm(ctx context.Context, req Request) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	return req.Builder.SendAndConfirm(ctx, req.params())
}

// SendAndConfirmWithReceipt is SendAndConfirm plus the archive's record.
func SendAndConfirmWithReceipt(ctx context.Context, req Request) (*domain.SignedTransaction, *domain.BroadcastResult, *domain.QueryTransaction, error) {
	return req.Builder.SendAndConfirmWithReceipt(ctx, req.params())
}

// ProcedureRequest parametrizes a contract procedure call.
type ProcedureRequest struct {
	Contract  *registry.Contract
	EntryName string

	InputBytes []byte
	InputValue interface{}
	Codec      registry.Codec

	SourceSeed     *domain.Seed
	SourceVaultRef *string
	Amount         uint64
	TargetTick     *uint64
	Confirm        confirm.Request
}

func (r ProcedureRequest) registryRequest() registry.ProcedureRequest {
	return registry.ProcedureRequest{
		InputBytes:     r.InputBytes,
		InputValue:     r.InputValue,
		Codec:          r.Codec,
		SourceSeed:     r.SourceSeed,
		SourceVaultRef: r.SourceVaultRef,
		Amount:         r.Amount,
		TargetTick:     r.TargetTick,
		Confirm:        r.Confirm,
	}
}

// SendProcedure builds and broadcasts a procedure call, without waiting
// for confirmation.
func SendProcedure(ctx context.Context, req ProcedureRequest) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	return req.Contract.SendProcedure(ctx, req.EntryName, req.registryRequest())
}

// SendProcedureAndConfirm builds, broadcasts, and waits for confirmation.
func SendProcedureAndConfirm(ctx context.Context, req ProcedureRequest) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	return req.Contract.SendProcedureAndConfirm(ctx, req.EntryName, req.registryRequest())
}

// SendProcedureAndConfirmWithReceipt is SendProcedureAndConfirm plus the
// archive's record.
func SendProcedureAndConfirmWithReceipt(ctx context.Context, req ProcedureRequest) (*domain.SignedTransaction, *domain.BroadcastResult, *domain.QueryTransaction, error) {
	return req.Contract.SendProcedureAndConfirmWithReceipt(ctx, req.EntryName, req.registryRequest())
}
