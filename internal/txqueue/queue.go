// Package txqueue implements the per-source-identity transaction queue of
// §4.E: a single contended slot per source, three preemption policies, and
// an append-only per-source history.
package txqueue

import (
	"context"
	"sync"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/storage"
)

// Policy selects how a conflicting enqueue against an already-active
// source identity is resolved.
type Policy string

const (
	PolicyWait              Policy = "waitForConfirm"
	PolicyReject             Policy = "reject"
	PolicyReplaceHigherTick Policy = "replaceHigherTick"
)

// Executor performs the two suspending steps of one queue item's
// lifecycle. txbuilder.Builder implements this against an
// already-assembled domain.SignedTransaction.
type Executor interface {
	Broadcast(ctx context.Context) (*domain.BroadcastResult, error)
	Confirm(ctx context.Context, networkTxID string, targetTick uint64) (*domain.QueryTransaction, error)
}

type slot struct {
	item   *domain.QueueItem
	ctx    context.Context
	done   chan struct{}
	cancel context.CancelFunc
}

// Queue tracks one active QueueItem per source identity plus its
// append-only history (§4.E). The zero value is not usable; use New.
type Queue struct {
	mu      sync.Mutex
	policy  Policy
	active  map[string]*slot
	history map[string][]*domain.QueueItem
	store   storage.QueueHistoryStore
}

// Option configures a Queue at construction.
type Option func(*Queue)

// WithHistoryStore persists every terminal transition to store in
// addition to the in-process history list.
func WithHistoryStore(store storage.QueueHistoryStore) Option {
	return func(q *Queue) { q.store = store }
}

// New returns a Queue enforcing policy (default PolicyWait if empty).
func New(policy Policy, opts ...Option) *Queue {
	if policy == "" {
		policy = PolicyWait
	}
	q := &Queue{
		policy:  policy,
		active:  make(map[string]*slot),
		history: make(map[string][]*domain.QueueItem),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue admits one item for sourceIdentity, applying the queue's
// conflict policy against any currently active item for that identity,
// then runs exec's lifecycle to completion. It always returns a terminal
// *domain.QueueItem except when the enqueue itself is rejected by policy
// (PolicyReject, or PolicyReplaceHigherTick with a non-higher tick) or
// aborted by ctx while waiting for a slot, in which case it returns an
// error (§4.E: "never rejects for terminal statuses other than the
// enqueue-time policy rejection").
func (q *Queue) Enqueue(ctx context.Context, sourceIdentity string, targetTick uint64, exec Executor) (*domain.QueueItem, error) {
	for {
		q.mu.Lock()
		current, busy := q.active[sourceIdentity]
		if !busy {
			s := q.admit(ctx, sourceIdentity, targetTick)
			q.mu.Unlock()
			return q.run(sourceIdentity, s, exec), nil
		}

		switch q.policy {
		case PolicyReject:
			q.mu.Unlock()
			return nil, errs.New(errs.KindQueuedTransaction, "source identity has an active transaction")

		case PolicyReplaceHigherTick:
			if targetTick <= uint64(current.item.TargetTick) {
				q.mu.Unlock()
				return nil, errs.New(errs.KindQueuedTransaction, "active transaction targets an equal or higher tick")
			}
			done := current.done
			current.cancel()
			q.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, errs.Wrap(errs.KindQueuedTransaction, "cancelled while superseding active transaction", ctx.Err())
			}
			continue

		default: // PolicyWait
			done := current.done
			q.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, errs.Wrap(errs.KindQueuedTransaction, "cancelled while waiting for active transaction", ctx.Err())
			}
			continue
		}
	}
}

// admit must be called with q.mu held. It creates and installs the active
// slot for sourceIdentity and returns it.
func (q *Queue) admit(ctx context.Context, sourceIdentity string, targetTick uint64) *slot {
	itemCtx, cancel := context.WithCancel(ctx)

	item := &domain.QueueItem{
		ID:             newID(),
		SourceIdentity: domain.Identity(sourceIdentity),
		TargetTick:     domain.Tick(targetTick),
		CreatedAt:      time.Now(),
		Status:         domain.StatusPending,
	}
	s := &slot{item: item, ctx: itemCtx, done: make(chan struct{}), cancel: cancel}
	q.active[sourceIdentity] = s
	return s
}

// setStatus updates item's status under q.mu, so that a concurrent
// Active() call (which reads the same item via Clone() under the lock)
// never observes a torn write (§5: per-source transitions are atomic
// with respect to observers).
func (q *Queue) setStatus(item *domain.QueueItem, status domain.QueueStatus) {
	q.mu.Lock()
	item.Status = status
	q.mu.Unlock()
}

// run executes exec's lifecycle for the item held by s and finalizes it
// into history, closing s.done exactly once on the way out.
func (q *Queue) run(sourceIdentity string, s *slot, exec Executor) *domain.QueueItem {
	itemCtx := s.ctx
	defer s.cancel()

	item := s.item
	finalize := func(status domain.QueueStatus, result *domain.BroadcastResult, record *domain.QueryTransaction, cause error) *domain.QueueItem {
		q.mu.Lock()
		item.Status = status
		item.Result = result
		item.Record = record
		item.Err = cause
		delete(q.active, sourceIdentity)
		q.history[sourceIdentity] = append(q.history[sourceIdentity], item.Clone())
		q.mu.Unlock()

		if q.store != nil {
			// Fire-and-forget: history persistence failures never block the
			// queue's own state machine (mirrors §4.I's cursor writeback
			// discipline for the same "durable but non-blocking" shape).
			_ = q.store.Append(context.Background(), item.Clone())
		}

		close(s.done)
		return item.Clone()
	}

	if itemCtx.Err() != nil {
		return finalize(domain.StatusSuperseded, nil, nil, itemCtx.Err())
	}

	q.setStatus(item, domain.StatusSubmitted)
	result, err := exec.Broadcast(itemCtx)
	if err != nil {
		if itemCtx.Err() != nil {
			return finalize(domain.StatusSuperseded, nil, nil, itemCtx.Err())
		}
		return finalize(domain.StatusFailed, nil, nil, err)
	}

	q.setStatus(item, domain.StatusConfirming)
	record, err := exec.Confirm(itemCtx, result.NetworkTxID, uint64(item.TargetTick))
	if err != nil {
		if itemCtx.Err() != nil {
			// Cancellation during a confirmation that already observed
			// success is ignored (§5) — but exec.Confirm only returns an
			// error here, never a success plus error, so any error after
			// cancellation is treated as supersession.
			return finalize(domain.StatusSuperseded, result, nil, itemCtx.Err())
		}
		return finalize(domain.StatusFailed, result, nil, err)
	}

	return finalize(domain.StatusConfirmed, result, record, nil)
}

// Active returns a defensive copy of the currently active item for
// sourceIdentity, or nil if none.
func (q *Queue) Active(sourceIdentity string) *domain.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.active[sourceIdentity]
	if !ok {
		return nil
	}
	return s.item.Clone()
}

// History returns a defensive copy of sourceIdentity's terminal items in
// arrival order.
func (q *Queue) History(sourceIdentity string) []*domain.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.history[sourceIdentity]
	out := make([]*domain.QueueItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
