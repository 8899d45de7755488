// Package errs defines the process-wide error taxonomy for the ledger
// client core (§7 of the specification): input validation, transport,
// domain, and vault error kinds that calling code can match on.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies a category of error within the taxonomy. Kinds are
// matchable independently of the wrapped cause via errors.Is/As on *Error.
type Kind string

const (
	// Input validation kinds.
	KindOutOfRange     Kind = "out_of_range"
	KindSizeMismatch   Kind = "input_size_mismatch"
	KindInvalidAsset   Kind = "invalid_asset_name"
	KindBadHex         Kind = "bad_hex"
	KindTooManyEntries Kind = "too_many_entries"

	// Transport kinds.
	KindRPCRequestFailed Kind = "rpc_request_failed"
	KindRPCInvalidJSON   Kind = "rpc_invalid_json"
	KindStreamRequestFailed Kind = "stream_request_failed"
	KindStreamInvalidJSON   Kind = "stream_invalid_json"

	// Domain kinds.
	KindTxNotFound              Kind = "tx_not_found"
	KindTxConfirmationTimeout   Kind = "tx_confirmation_timeout"
	KindTxConfirmationAborted   Kind = "tx_confirmation_aborted"
	KindQueuedTransaction       Kind = "queued_transaction"
	KindContractQueryAborted    Kind = "contract_query_aborted"
	KindRegistryEntryNotFound   Kind = "registry_entry_not_found"
	KindRegistryCodecMissing    Kind = "registry_codec_missing"
	KindRegistryCodecValidation Kind = "registry_codec_validation"
	KindRegistryCodec           Kind = "registry_codec"
	KindRegistryConstruction    Kind = "registry_construction"

	// Vault kinds.
	KindVaultNotFound       Kind = "vault_not_found"
	KindVaultInvalidPass    Kind = "vault_invalid_passphrase"
	KindVaultEntryNotFound  Kind = "vault_entry_not_found"
	KindVaultEntryExists    Kind = "vault_entry_exists"
	KindVault               Kind = "vault"
)

// Error is the taxonomy's wrapping type. Message is a short human summary;
// Cause, when set, is the underlying error preserved for errors.Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// QueueStatus carries the terminal queue status when Kind ==
	// KindQueuedTransaction, per §7 "carries terminal status and cause".
	QueueStatus string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, &Error{Kind: K}) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error with the given kind, message, and cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err (or something it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == k
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=true.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
