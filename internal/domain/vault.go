package domain

import "time"

// EncryptedSecret is the AES-256-GCM sealed form of a vault entry's seed.
type EncryptedSecret struct {
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// VaultEntry is one named seed held by a vault. Identity is derived at
// insertion time and never re-derived on read.
type VaultEntry struct {
	Name      string
	Identity  Identity
	SeedIndex uint32
	CreatedAt time.Time
	UpdatedAt time.Time
	Encrypted EncryptedSecret
}

// KDFParams describes a key-derivation function configuration persisted
// alongside the vault file (§4.J/§6.4).
type KDFParams struct {
	Name string // "scrypt" or "pbkdf2-sha256"
	N    int    // scrypt cost parameter
	R    int    // scrypt block size
	P    int    // scrypt parallelization
	Iter int    // pbkdf2 iteration count
	DKLen int
	Salt  []byte
}

// VaultFile is the on-disk/on-KV-store JSON layout, version 1.
type VaultFile struct {
	VaultVersion int
	KDF          KDFParams
	Entries      []VaultEntry
}
