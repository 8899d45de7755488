// Package crypto implements the §6.1 "crypto collaborator" contract: seed
// to keypair derivation, the identity codec, transaction signing, and
// transaction-id hashing. The specification treats these primitives as an
// external, trusted dependency (§1 Out of scope) — this package is the
// reference implementation this module wires against, grounded on the
// teacher's filippo.io/edwards25519 dependency.
package crypto

import "github.com/tickvault/ledger-go-sdk/internal/domain"

// TxFields is the unsigned transaction payload the collaborator signs.
type TxFields struct {
	SrcPublicKey domain.PublicKey
	DstPublicKey domain.PublicKey
	Amount       uint64
	Tick         uint32
	InputType    uint16
	InputBytes   []byte
}

// Collaborator is the crypto primitive surface consumed by the rest of
// the module (§6.1).
type Collaborator interface {
	PublicKeyFromSeed(seed domain.Seed) domain.PublicKey
	PrivateKeyFromSeed(seed domain.Seed) domain.PrivateKey
	IdentityFromSeed(seed domain.Seed, seedIndex uint32) domain.Identity
	PublicKeyFromIdentity(id domain.Identity) (domain.PublicKey, error)
	IdentityFromPublicKey(pk domain.PublicKey) domain.Identity
	BuildSignedTransaction(fields TxFields, priv domain.PrivateKey) ([]byte, error)
	TransactionID(bytes []byte) string
}
