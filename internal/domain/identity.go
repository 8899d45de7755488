package domain

// Identity is the 60-character textual encoding of a 32-byte public key.
type Identity string

// PublicKey is a 32-byte Ed25519-family public key.
type PublicKey [32]byte

// PrivateKey is a 32-byte seed-derived private key.
type PrivateKey [32]byte

// Seed is opaque secret text from which a keypair and identity are
// derived by the crypto collaborator (§6.1).
type Seed string
