// Package vault implements the seed vault of §4.J/§6.4: an encrypted,
// versioned entry store with a node-flavored (file-backed, scrypt) and a
// browser-flavored (pluggable key/value store, PBKDF2-SHA256) backend
// sharing the same on-disk JSON layout and the same operations.
package vault

import (
	"context"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

// persistence abstracts the two vault flavors' storage and locking.
type persistence interface {
	load(ctx context.Context) (data []byte, exists bool, err error)
	save(ctx context.Context, data []byte) error
	lock(ctx context.Context, timeout time.Duration) (unlock func() error, err error)
}

// Options parametrizes OpenFile and OpenKV (§4.J "open").
type Options struct {
	Passphrase   string
	Create       bool
	KDFParams    *domain.KDFParams
	NoLock       bool // opt out of the default lock?=true (§4.J)
	LockTimeout  time.Duration
	NoAutoSave   bool // opt out of the default autoSave?=true (§4.J)
	Collaborator crypto.Collaborator
}

// Vault is an opened, decrypted-key-resident seed store.
type Vault struct {
	mu sync.Mutex

	persist      persistence
	unlock       func() error
	collaborator crypto.Collaborator

	passphrase string
	key        []byte
	kdf        domain.KDFParams
	entries    []domain.VaultEntry
	autoSave   bool
	closed     bool
}

func openCore(ctx context.Context, persist persistence, defaultKDF func() (domain.KDFParams, error), opts Options) (*Vault, error) {
	v := &Vault{persist: persist, collaborator: opts.Collaborator, passphrase: opts.Passphrase, autoSave: true}
	if opts.NoAutoSave {
		v.autoSave = false
	}

	if !opts.NoLock {
		unlock, err := persist.lock(ctx, opts.LockTimeout)
		if err != nil {
			return nil, err
		}
		v.unlock = unlock
	}

	data, exists, err := persist.load(ctx)
	if err != nil {
		v.releaseLock()
		return nil, err
	}

	if !exists {
		if !opts.Create {
			v.releaseLock()
			return nil, errs.New(errs.KindVaultNotFound, "vault does not exist")
		}
		kdfParams := opts.KDFParams
		if kdfParams == nil {
			params, err := defaultKDF()
			if err != nil {
				v.releaseLock()
				return nil, err
			}
			kdfParams = &params
		}
		v.kdf = *kdfParams
		v.entries = nil
		key, err := deriveKey(opts.Passphrase, v.kdf)
		if err != nil {
			v.releaseLock()
			return nil, err
		}
		v.key = key
		if err := v.saveLocked(ctx); err != nil {
			v.releaseLock()
			return nil, err
		}
		return v, nil
	}

	file, err := unmarshalVaultFile(data)
	if err != nil {
		v.releaseLock()
		return nil, err
	}
	if file.VaultVersion != vaultVersion {
		v.releaseLock()
		return nil, errs.New(errs.KindVault, "unsupported vault version")
	}
	v.kdf = file.KDF
	v.entries = file.Entries
	key, err := deriveKey(opts.Passphrase, v.kdf)
	if err != nil {
		v.releaseLock()
		return nil, err
	}
	v.key = key
	return v, nil
}

func (v *Vault) releaseLock() {
	if v.unlock != nil {
		_ = v.unlock()
		v.unlock = nil
	}
}

func (v *Vault) currentFileLocked() domain.VaultFile {
	return domain.VaultFile{VaultVersion: vaultVersion, KDF: v.kdf, Entries: append([]domain.VaultEntry(nil), v.entries...)}
}

func (v *Vault) saveLocked(ctx context.Context) error {
	data, err := marshalVaultFile(v.currentFileLocked())
	if err != nil {
		return err
	}
	return v.persist.save(ctx, data)
}

// Save persists the vault's current in-memory state.
func (v *Vault) Save(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saveLocked(ctx)
}

// Close releases the lock held by Open, if any.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	v.releaseLock()
	return nil
}

// eraser is the optional "delete the whole backing blob" capability: the
// file flavor always has it, the KV flavor only when its Store implements
// Remover (the spec's "remove?").
type eraser interface {
	erase(ctx context.Context) error
}

// Erase deletes the vault's entire backing store, not just its entries.
// It fails if the backend (a KV Store without Remove) does not support it.
func (v *Vault) Erase(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.persist.(eraser)
	if !ok {
		return errs.New(errs.KindVault, "vault backend does not support erase")
	}
	return e.erase(ctx)
}

func (v *Vault) findByNameLocked(name string) int {
	for i := range v.entries {
		if v.entries[i].Name == name {
			return i
		}
	}
	return -1
}

// resolveEntryLocked implements "ref resolves in order: exact name match
// → scan for identity match → fail" (§4.J invariants).
func (v *Vault) resolveEntryLocked(ref string) (*domain.VaultEntry, error) {
	if i := v.findByNameLocked(ref); i >= 0 {
		return &v.entries[i], nil
	}
	for i := range v.entries {
		if string(v.entries[i].Identity) == ref {
			return &v.entries[i], nil
		}
	}
	return nil, errs.New(errs.KindVaultEntryNotFound, "no vault entry matches "+ref)
}

// List returns a defensive copy of every entry (without secret material).
func (v *Vault) List() []domain.VaultEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.VaultEntry(nil), v.entries...)
}

// GetEntry resolves ref to its stored entry.
func (v *Vault) GetEntry(ref string) (*domain.VaultEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, err := v.resolveEntryLocked(ref)
	if err != nil {
		return nil, err
	}
	clone := *entry
	return &clone, nil
}

// GetIdentity resolves ref to its identity.
func (v *Vault) GetIdentity(ref string) (domain.Identity, error) {
	entry, err := v.GetEntry(ref)
	if err != nil {
		return "", err
	}
	return entry.Identity, nil
}

// GetSeed resolves ref and decrypts its seed. It satisfies
// txbuilder.VaultResolver.
func (v *Vault) GetSeed(ref string) (domain.Seed, error) {
	v.mu.Lock()
	entry, err := v.resolveEntryLocked(ref)
	if err != nil {
		v.mu.Unlock()
		return "", err
	}
	key := v.key
	encrypted := entry.Encrypted
	v.mu.Unlock()

	plaintext, err := open(key, encrypted)
	if err != nil {
		return "", err
	}
	return domain.Seed(plaintext), nil
}

// GetSeedSource resolves ref to a seed pointer suitable for
// txbuilder.Params.SourceSeed.
func (v *Vault) GetSeedSource(ref string) (*domain.Seed, error) {
	seed, err := v.GetSeed(ref)
	if err != nil {
		return nil, err
	}
	return &seed, nil
}

// Signer validates ref resolves to a stored entry and returns it,
// suitable for txbuilder.Params.SourceVaultRef.
func (v *Vault) Signer(ref string) (*string, error) {
	v.mu.Lock()
	_, err := v.resolveEntryLocked(ref)
	v.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// AddSeedRequest parametrizes AddSeed.
type AddSeedRequest struct {
	Name      string
	Seed      domain.Seed
	SeedIndex *uint32
	Overwrite bool
}

// AddSeed inserts or, with Overwrite, replaces the named entry (§4.J).
func (v *Vault) AddSeed(ctx context.Context, req AddSeedRequest) (*domain.VaultEntry, error) {
	if v.collaborator == nil {
		return nil, errs.New(errs.KindVault, "vault has no crypto collaborator configured")
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	seedIndex := uint32(0)
	if req.SeedIndex != nil {
		seedIndex = *req.SeedIndex
	}
	identity := v.collaborator.IdentityFromSeed(req.Seed, seedIndex)
	encrypted, err := seal(v.key, []byte(req.Seed))
	if err != nil {
		return nil, err
	}
	now := time.Now()

	if i := v.findByNameLocked(req.Name); i >= 0 {
		if !req.Overwrite {
			return nil, errs.New(errs.KindVaultEntryExists, "vault entry "+req.Name+" already exists")
		}
		v.entries[i] = domain.VaultEntry{
			Name: req.Name, Identity: identity, SeedIndex: seedIndex,
			CreatedAt: v.entries[i].CreatedAt, UpdatedAt: now, Encrypted: encrypted,
		}
	} else {
		v.entries = append(v.entries, domain.VaultEntry{
			Name: req.Name, Identity: identity, SeedIndex: seedIndex,
			CreatedAt: now, UpdatedAt: now, Encrypted: encrypted,
		})
	}

	entry := v.entries[v.findByNameLocked(req.Name)]
	if v.autoSave {
		if err := v.saveLocked(ctx); err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

// Remove deletes the entry matching ref.
func (v *Vault) Remove(ctx context.Context, ref string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, err := v.resolveEntryLocked(ref)
	if err != nil {
		return err
	}
	filtered := v.entries[:0]
	for i := range v.entries {
		if v.entries[i].Name != entry.Name {
			filtered = append(filtered, v.entries[i])
		}
	}
	v.entries = filtered
	if v.autoSave {
		return v.saveLocked(ctx)
	}
	return nil
}

// RotatePassphrase re-derives the encryption key from newPassphrase and
// re-encrypts every entry under it. All-or-nothing: a decryption failure
// mid-rotation leaves the vault untouched (§4.J invariants).
func (v *Vault) RotatePassphrase(ctx context.Context, newPassphrase string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	plaintexts := make([][]byte, len(v.entries))
	for i, e := range v.entries {
		pt, err := open(v.key, e.Encrypted)
		if err != nil {
			return err
		}
		plaintexts[i] = pt
	}

	newKDF := v.kdf
	salt, err := newSalt()
	if err != nil {
		return err
	}
	newKDF.Salt = salt
	newKey, err := deriveKey(newPassphrase, newKDF)
	if err != nil {
		return err
	}

	reencrypted := make([]domain.EncryptedSecret, len(v.entries))
	for i, pt := range plaintexts {
		enc, err := seal(newKey, pt)
		if err != nil {
			return err
		}
		reencrypted[i] = enc
	}

	for i := range v.entries {
		v.entries[i].Encrypted = reencrypted[i]
		v.entries[i].UpdatedAt = time.Now()
	}
	v.kdf = newKDF
	v.key = newKey
	v.passphrase = newPassphrase

	if v.autoSave {
		return v.saveLocked(ctx)
	}
	return nil
}

// ExportEncrypted returns the vault's encrypted file, base58-encoded.
func (v *Vault) ExportEncrypted() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	data, err := marshalVaultFile(v.currentFileLocked())
	if err != nil {
		return "", err
	}
	return base58.Encode(data), nil
}

// ExportJSON returns the vault's encrypted file as pretty-printed JSON.
func (v *Vault) ExportJSON() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	data, err := marshalVaultFile(v.currentFileLocked())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportMode selects ImportEncrypted's merge behavior.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

// ImportEncrypted decrypts blob under sourcePassphrase (or this vault's
// own passphrase, if sourcePassphrase is nil) and merges or replaces the
// current entry set (§4.J).
func (v *Vault) ImportEncrypted(ctx context.Context, blob string, mode ImportMode, sourcePassphrase *string) error {
	raw, err := base58.Decode(blob)
	if err != nil {
		return errs.Wrap(errs.KindVault, "malformed exported vault blob", err)
	}
	file, err := unmarshalVaultFile(raw)
	if err != nil {
		return err
	}
	if file.VaultVersion != vaultVersion {
		return errs.New(errs.KindVault, "unsupported imported vault version")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	passphrase := v.passphrase
	if sourcePassphrase != nil {
		passphrase = *sourcePassphrase
	}
	sourceKey, err := deriveKey(passphrase, file.KDF)
	if err != nil {
		return err
	}

	plaintexts := make([][]byte, len(file.Entries))
	for i, e := range file.Entries {
		pt, err := open(sourceKey, e.Encrypted)
		if err != nil {
			return errs.Wrap(errs.KindVaultInvalidPass, "decrypt imported entry "+e.Name, err)
		}
		plaintexts[i] = pt
	}

	imported := make([]domain.VaultEntry, len(file.Entries))
	for i, e := range file.Entries {
		enc, err := seal(v.key, plaintexts[i])
		if err != nil {
			return err
		}
		imported[i] = domain.VaultEntry{
			Name: e.Name, Identity: e.Identity, SeedIndex: e.SeedIndex,
			CreatedAt: e.CreatedAt, UpdatedAt: time.Now(), Encrypted: enc,
		}
	}

	switch mode {
	case ImportReplace:
		v.entries = imported
	default:
		for _, entry := range imported {
			if i := v.findByNameLocked(entry.Name); i >= 0 {
				entry.CreatedAt = v.entries[i].CreatedAt
				v.entries[i] = entry
			} else {
				v.entries = append(v.entries, entry)
			}
		}
	}

	if v.autoSave {
		return v.saveLocked(ctx)
	}
	return nil
}
