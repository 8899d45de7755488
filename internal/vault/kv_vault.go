package vault

import (
	"context"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

// Store is the browser-flavored persistence surface: a single blob under
// a caller-chosen key, backed by whatever key/value store the host
// environment provides (§4.J: "a pluggable {read, write, remove?} store
// instead of a file path — all other invariants are identical").
type Store interface {
	Read(ctx context.Context) (data []byte, exists bool, err error)
	Write(ctx context.Context, data []byte) error
}

// Remover is an optional Store capability (the spec's "remove?"): stores
// that support erasing their blob outright can implement it.
type Remover interface {
	Remove(ctx context.Context) error
}

type kvPersistence struct {
	store Store
}

func (p *kvPersistence) load(ctx context.Context) ([]byte, bool, error) {
	return p.store.Read(ctx)
}

func (p *kvPersistence) save(ctx context.Context, data []byte) error {
	return p.store.Write(ctx, data)
}

// lock is a no-op: a key/value store has no cross-process file-lock
// analogue, so the browser flavor relies on in-process serialization only.
func (p *kvPersistence) lock(ctx context.Context, timeout time.Duration) (func() error, error) {
	return func() error { return nil }, nil
}

func (p *kvPersistence) erase(ctx context.Context) error {
	r, ok := p.store.(Remover)
	if !ok {
		return errs.New(errs.KindVault, "kv store does not implement Remover")
	}
	return r.Remove(ctx)
}

// OpenKV opens (or, with Create, initializes) a Store-backed vault using
// PBKDF2-SHA256 as the default KDF (§4.J).
func OpenKV(ctx context.Context, store Store, opts Options) (*Vault, error) {
	opts.NoLock = true
	return openCore(ctx, &kvPersistence{store: store}, defaultPBKDF2Params, opts)
}
