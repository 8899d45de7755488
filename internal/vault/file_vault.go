package vault

import (
	"context"
	"os"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

// filePersistence is the node-flavored backend: a JSON file on disk plus
// a sibling ".lock" file used as an advisory cross-process lock (§4.J).
type filePersistence struct {
	path     string
	lockPath string
}

func (p *filePersistence) load(ctx context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errs.Wrap(errs.KindVault, "read vault file", err)
	}
	return data, true, nil
}

func (p *filePersistence) save(ctx context.Context, data []byte) error {
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errs.Wrap(errs.KindVault, "write vault tmp file", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return errs.Wrap(errs.KindVault, "rename vault tmp file", err)
	}
	return nil
}

// lock implements "if a path+\".lock\" file already exists, wait up to
// timeout (retrying every 200ms), else fail" (§4.J).
func (p *filePersistence) lock(ctx context.Context, timeout time.Duration) (func() error, error) {
	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(p.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = f.Close()
			registry.add(p.lockPath)
			return func() error {
				registry.remove(p.lockPath)
				return os.Remove(p.lockPath)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, errs.Wrap(errs.KindVault, "create vault lock file", err)
		}
		if time.Now().After(deadline) {
			return nil, errs.New(errs.KindVault, "vault is locked by another process")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (p *filePersistence) erase(ctx context.Context) error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindVault, "erase vault file", err)
	}
	return nil
}

// OpenFile opens (or, with Create, initializes) a file-backed vault at
// path using scrypt as the default KDF (§4.J).
func OpenFile(ctx context.Context, path string, opts Options) (*Vault, error) {
	return openCore(ctx, &filePersistence{path: path, lockPath: path + ".lock"}, defaultScryptParams, opts)
}
