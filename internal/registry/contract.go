package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/confirm"
	"github.com/tickvault/ledger-go-sdk/internal/contractquery"
	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/txbuilder"
)

type entryKey struct {
	kind domain.EntryKind
	name string
}

// Contract is a per-contract handle bound to a shared query helper and
// transaction builder (§4.H).
type Contract struct {
	ref     domain.ContractRef
	entries []domain.InterfaceEntry

	codecs       map[entryKey]Codec
	query        *contractquery.Helper
	builder      *txbuilder.Builder
	collaborator crypto.Collaborator
}

// Name returns the contract's declared name.
func (c *Contract) Name() string { return c.ref.Name }

// getEntry linear-scans the contract's declared entries.
func (c *Contract) getEntry(kind domain.EntryKind, name string) (*domain.InterfaceEntry, error) {
	for i := range c.entries {
		if c.entries[i].Kind == kind && c.entries[i].Name == name {
			return &c.entries[i], nil
		}
	}
	return nil, errs.New(errs.KindRegistryEntryNotFound, fmt.Sprintf("contract %q has no %s entry %q", c.ref.Name, kind, name))
}

func (c *Contract) codecFor(kind domain.EntryKind, name string) Codec {
	return c.codecs[entryKey{kind: kind, name: name}]
}

// QueryRequest parametrizes Contract.Query/QueryValue (§4.H).
type QueryRequest struct {
	InputBytes         []byte
	InputValue         interface{}
	Codec              Codec
	ExpectedOutputSize *int
	AllowSizeMismatch  bool
	Retries            int
	RetryDelay         time.Duration
}

// QueryResult is the result of Contract.Query: the raw response plus the
// codec-decoded value, when a codec was available.
type QueryResult struct {
	ResponseBytes  []byte
	ResponseBase64 string
	Attempts       int
	Decoded        interface{}
}

func (c *Contract) materializeInput(entry *domain.InterfaceEntry, req QueryRequest, codec Codec, allowSizeMismatch bool) ([]byte, error) {
	inputBytes := req.InputBytes
	if inputBytes == nil && codec != nil {
		encoded, err := codec.Encode(*entry, req.InputValue)
		if err != nil {
			return nil, errs.Wrap(errs.KindRegistryCodec, fmt.Sprintf("codec encode failed for %s", entry.Name), err)
		}
		inputBytes = encoded
	}
	if entry.InputSize != nil && uint32(len(inputBytes)) != *entry.InputSize && !allowSizeMismatch {
		return nil, errs.New(errs.KindSizeMismatch, fmt.Sprintf("entry %q expects %d input bytes, got %d", entry.Name, *entry.InputSize, len(inputBytes)))
	}
	return inputBytes, nil
}

// Query resolves the entry named name, materializes its input, delegates
// to the contract query helper, and attaches a codec-decoded value when a
// codec is available (§4.H).
func (c *Contract) Query(ctx context.Context, name string, req QueryRequest) (*QueryResult, error) {
	entry, err := c.getEntry(domain.KindFunction, name)
	if err != nil {
		return nil, err
	}

	codec := req.Codec
	if codec == nil {
		codec = c.codecFor(domain.KindFunction, name)
	}

	inputBytes, err := c.materializeInput(entry, req, codec, req.AllowSizeMismatch)
	if err != nil {
		return nil, err
	}

	expectedOutputSize := req.ExpectedOutputSize
	if expectedOutputSize == nil && entry.OutputSize != nil {
		size := int(*entry.OutputSize)
		expectedOutputSize = &size
	}

	if c.ref.ContractIndex == nil {
		return nil, errs.New(errs.KindOutOfRange, fmt.Sprintf("contract %q has no contractIndex to query", c.ref.Name))
	}

	result, err := c.query.QueryRaw(ctx, contractquery.Request{
		ContractIndex:      *c.ref.ContractIndex,
		InputType:          entry.InputType,
		InputBytes:         inputBytes,
		ExpectedOutputSize: expectedOutputSize,
		Retries:            req.Retries,
		RetryDelay:         req.RetryDelay,
	})
	if err != nil {
		return nil, err
	}

	out := &QueryResult{
		ResponseBytes:  result.ResponseBytes,
		ResponseBase64: result.ResponseBase64,
		Attempts:       result.Attempts,
	}
	if codec != nil {
		decoded, err := codec.Decode(*entry, result.ResponseBytes)
		if err != nil {
			return nil, errs.Wrap(errs.KindRegistryCodec, fmt.Sprintf("codec decode failed for %s", entry.Name), err)
		}
		out.Decoded = decoded
	}
	return out, nil
}

// QueryValue is Query but requires a codec and returns only the decoded
// value (§4.H).
func (c *Contract) QueryValue(ctx context.Context, name string, req QueryRequest) (interface{}, error) {
	if req.Codec == nil && c.codecFor(domain.KindFunction, name) == nil {
		return nil, errs.New(errs.KindRegistryCodecMissing, fmt.Sprintf("no codec available for function %q", name))
	}
	result, err := c.Query(ctx, name, req)
	if err != nil {
		return nil, err
	}
	return result.Decoded, nil
}

// resolveIdentity implements "resolve contract identity: contractId wins;
// else decode contractPublicKeyHex" (§4.H).
func (c *Contract) resolveIdentity() (domain.Identity, error) {
	if c.ref.ContractID != "" {
		return c.ref.ContractID, nil
	}
	if c.ref.ContractPublicKeyHex != "" {
		pk, err := decodeContractPublicKey(c.ref.ContractPublicKeyHex)
		if err != nil {
			return "", err
		}
		return c.collaborator.IdentityFromPublicKey(pk), nil
	}
	return "", errs.New(errs.KindOutOfRange, fmt.Sprintf("contract %q has neither contractId nor contractPublicKeyHex", c.ref.Name))
}

// ProcedureRequest parametrizes Contract.BuildProcedureTransaction and its
// send variants (§4.H).
type ProcedureRequest struct {
	InputBytes []byte
	InputValue interface{}
	Codec      Codec

	SourceSeed     *domain.Seed
	SourceVaultRef *string
	Amount         uint64
	TargetTick     *uint64
	Confirm        confirm.Request
}

func (c *Contract) buildParams(name string, req ProcedureRequest) (txbuilder.Params, error) {
	entry, err := c.getEntry(domain.KindProcedure, name)
	if err != nil {
		return txbuilder.Params{}, err
	}

	codec := req.Codec
	if codec == nil {
		codec = c.codecFor(domain.KindProcedure, name)
	}

	inputBytes, err := c.materializeInput(entry, QueryRequest{InputBytes: req.InputBytes, InputValue: req.InputValue}, codec, false)
	if err != nil {
		return txbuilder.Params{}, err
	}

	identity, err := c.resolveIdentity()
	if err != nil {
		return txbuilder.Params{}, err
	}

	return txbuilder.Params{
		SourceSeed:     req.SourceSeed,
		SourceVaultRef: req.SourceVaultRef,
		ToIdentity:     identity,
		Amount:         req.Amount,
		TargetTick:     req.TargetTick,
		InputType:      entry.InputType,
		InputBytes:     inputBytes,
		Confirm:        req.Confirm,
	}, nil
}

// BuildProcedureTransaction builds and signs, without broadcasting, a
// transaction invoking the named procedure.
func (c *Contract) BuildProcedureTransaction(ctx context.Context, name string, req ProcedureRequest) (*domain.SignedTransaction, error) {
	params, err := c.buildParams(name, req)
	if err != nil {
		return nil, err
	}
	return c.builder.BuildSigned(ctx, params)
}

// SendProcedure builds and broadcasts, without waiting for confirmation.
func (c *Contract) SendProcedure(ctx context.Context, name string, req ProcedureRequest) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	params, err := c.buildParams(name, req)
	if err != nil {
		return nil, nil, err
	}
	return c.builder.Send(ctx, params)
}

// SendProcedureAndConfirm builds, broadcasts, and waits for confirmation.
func (c *Contract) SendProcedureAndConfirm(ctx context.Context, name string, req ProcedureRequest) (*domain.SignedTransaction, *domain.BroadcastResult, error) {
	params, err := c.buildParams(name, req)
	if err != nil {
		return nil, nil, err
	}
	return c.builder.SendAndConfirm(ctx, params)
}

// SendProcedureAndConfirmWithReceipt is SendProcedureAndConfirm plus the
// archive's record for the confirmed transaction.
func (c *Contract) SendProcedureAndConfirmWithReceipt(ctx context.Context, name string, req ProcedureRequest) (*domain.SignedTransaction, *domain.BroadcastResult, *domain.QueryTransaction, error) {
	params, err := c.buildParams(name, req)
	if err != nil {
		return nil, nil, nil, err
	}
	return c.builder.SendAndConfirmWithReceipt(ctx, params)
}
