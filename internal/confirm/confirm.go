// Package confirm implements the tick-bounded confirmation engine (§4.C):
// the single state machine that decides whether a broadcast transaction
// has been accepted, rejected, or lost.
package confirm

import (
	"context"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/retry"
	"github.com/tickvault/ledger-go-sdk/internal/rpc"
)

// ArchiveClient is the subset of the RPC transport the engine needs.
type ArchiveClient interface {
	GetLastProcessedTick(ctx context.Context) (uint64, error)
	GetTransactionByHash(ctx context.Context, hash string) (*rpc.TransactionRecord, error)
}

// Request parameterizes one confirmation wait.
type Request struct {
	TxID          string
	TargetTick    uint64
	Timeout       time.Duration
	PollInterval  time.Duration
}

const (
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = 1 * time.Second
)

// Engine runs the confirmation state machine against an ArchiveClient.
type Engine struct {
	client ArchiveClient
}

// New returns an Engine backed by client.
func New(client ArchiveClient) *Engine {
	return &Engine{client: client}
}

// Wait blocks until the transaction is confirmed, found absent past the
// target tick, or the wait times out or is cancelled (§4.C).
//
// ctx carries both the caller's cancellation and any supersession token —
// callers merge those via context.WithCancel before calling Wait; the
// engine itself only ever watches the one ctx it is given (§9: "no
// back-pointer from engine to queue is needed").
func (e *Engine) Wait(ctx context.Context, req Request) (*rpc.TransactionRecord, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pollInterval := req.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	start := time.Now()
	reachedTarget := false
	seenNotFoundAfterTarget := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.KindTxConfirmationAborted, "confirmation wait cancelled", err)
		}

		if time.Since(start) > timeout {
			if reachedTarget && seenNotFoundAfterTarget {
				return nil, errs.New(errs.KindTxNotFound, "transaction not found after target tick was reached")
			}
			return nil, errs.New(errs.KindTxConfirmationTimeout, "confirmation timed out")
		}

		lastProcessed, err := e.client.GetLastProcessedTick(ctx)
		if err != nil {
			return nil, err
		}

		if lastProcessed < req.TargetTick {
			if err := retry.Sleep(ctx, pollInterval); err != nil {
				return nil, errs.Wrap(errs.KindTxConfirmationAborted, "confirmation wait cancelled", err)
			}
			continue
		}

		reachedTarget = true

		record, err := e.client.GetTransactionByHash(ctx, req.TxID)
		if err != nil {
			if rpc.IsNotFound(err) {
				seenNotFoundAfterTarget = true
				if err := retry.Sleep(ctx, pollInterval); err != nil {
					return nil, errs.Wrap(errs.KindTxConfirmationAborted, "confirmation wait cancelled", err)
				}
				continue
			}
			return nil, err
		}

		return record, nil
	}
}
