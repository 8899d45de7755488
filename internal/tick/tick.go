// Package tick implements the tick helper (§4.B): a suggested target
// tick derived from the live current tick plus a configured, bounded
// offset.
package tick

import (
	"context"

	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

// LiveTickReader is the subset of the RPC transport the helper needs.
type LiveTickReader interface {
	TickInfo(ctx context.Context) (uint64, error)
}

// Config enumerates the three guardrails of §4.B.
type Config struct {
	MinOffset     uint64
	DefaultOffset uint64
	MaxOffset     uint64
}

// Helper computes suggested target ticks against a live tick reader.
type Helper struct {
	client LiveTickReader
	cfg    Config
}

// New validates cfg (MinOffset <= MaxOffset) and returns a Helper.
func New(client LiveTickReader, cfg Config) (*Helper, error) {
	if cfg.MinOffset > cfg.MaxOffset {
		return nil, errs.New(errs.KindOutOfRange, "minOffset must be <= maxOffset")
	}
	return &Helper{client: client, cfg: cfg}, nil
}

// SuggestedTargetTick validates the effective offset before making any RPC
// call, then returns currentTick + offset.
func (h *Helper) SuggestedTargetTick(ctx context.Context, offset *uint64) (uint64, error) {
	eff := h.cfg.DefaultOffset
	if offset != nil {
		eff = *offset
	}
	if eff < h.cfg.MinOffset || eff > h.cfg.MaxOffset {
		return 0, errs.New(errs.KindOutOfRange, "tick offset outside [minOffset, maxOffset]")
	}

	current, err := h.client.TickInfo(ctx)
	if err != nil {
		return 0, err
	}
	return current + eff, nil
}
