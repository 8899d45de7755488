package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
)

// Ed25519Collaborator implements Collaborator with Ed25519-family scalar
// arithmetic from filippo.io/edwards25519 (the teacher's dependency for
// Solana key material, reused here for this ledger's own keypairs).
type Ed25519Collaborator struct{}

// NewEd25519Collaborator returns the default crypto collaborator.
func NewEd25519Collaborator() *Ed25519Collaborator { return &Ed25519Collaborator{} }

func seedScalarBytes(seed domain.Seed, seedIndex uint32) [32]byte {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], seedIndex)
	h := sha512.Sum512(append([]byte(seed), idx[:]...))
	var out [32]byte
	copy(out[:], h[:32])
	return out
}

func scalarFromClamped(b [32]byte) *edwards25519.Scalar {
	s, err := edwards25519.NewScalar().SetBytesWithClamping(b[:])
	if err != nil {
		// SetBytesWithClamping only fails on wrong-length input, which
		// cannot happen for a fixed [32]byte.
		panic(fmt.Sprintf("crypto: clamp scalar: %v", err))
	}
	return s
}

func publicFromPrivate(priv domain.PrivateKey) domain.PublicKey {
	s := scalarFromClamped(priv)
	p := (&edwards25519.Point{}).ScalarBaseMult(s)
	var out domain.PublicKey
	copy(out[:], p.Bytes())
	return out
}

// PublicKeyFromSeed derives the primary (seedIndex=0) public key for seed.
func (Ed25519Collaborator) PublicKeyFromSeed(seed domain.Seed) domain.PublicKey {
	priv := domain.PrivateKey(seedScalarBytes(seed, 0))
	return publicFromPrivate(priv)
}

// PrivateKeyFromSeed derives the primary (seedIndex=0) private scalar seed.
func (Ed25519Collaborator) PrivateKeyFromSeed(seed domain.Seed) domain.PrivateKey {
	return domain.PrivateKey(seedScalarBytes(seed, 0))
}

// IdentityFromSeed derives the identity for a given seed and seed index,
// allowing one seed to source multiple independent identities.
func (c Ed25519Collaborator) IdentityFromSeed(seed domain.Seed, seedIndex uint32) domain.Identity {
	priv := domain.PrivateKey(seedScalarBytes(seed, seedIndex))
	pub := publicFromPrivate(priv)
	return identityFromPublicKey(pub)
}

// PublicKeyFromIdentity decodes and checksum-validates id.
func (Ed25519Collaborator) PublicKeyFromIdentity(id domain.Identity) (domain.PublicKey, error) {
	return publicKeyFromIdentity(id)
}

// IdentityFromPublicKey encodes pk as a 60-character identity.
func (Ed25519Collaborator) IdentityFromPublicKey(pk domain.PublicKey) domain.Identity {
	return identityFromPublicKey(pk)
}

// BuildSignedTransaction assembles the wire bytes for fields and appends a
// deterministic 64-byte EdDSA-style signature computed from priv.
func (Ed25519Collaborator) BuildSignedTransaction(fields TxFields, priv domain.PrivateKey) ([]byte, error) {
	unsigned := marshalUnsigned(fields)

	s := scalarFromClamped(priv)
	pub := (&edwards25519.Point{}).ScalarBaseMult(s)

	nonceSeed := sha512.Sum512(append(append([]byte{}, priv[:]...), unsigned...))
	r, err := edwards25519.NewScalar().SetUniformBytes(nonceSeed[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: derive nonce scalar: %w", err)
	}
	R := (&edwards25519.Point{}).ScalarBaseMult(r)

	kInput := append(append([]byte{}, R.Bytes()...), pub.Bytes()...)
	kInput = append(kInput, unsigned...)
	kHash := sha512.Sum512(kInput)
	k, err := edwards25519.NewScalar().SetUniformBytes(kHash[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: derive challenge scalar: %w", err)
	}

	S := edwards25519.NewScalar().MultiplyAdd(k, s, r)

	sig := append(append([]byte{}, R.Bytes()...), S.Bytes()...)
	return append(unsigned, sig...), nil
}

func marshalUnsigned(f TxFields) []byte {
	buf := make([]byte, 0, 32+32+8+4+2+2+len(f.InputBytes))
	buf = append(buf, f.SrcPublicKey[:]...)
	buf = append(buf, f.DstPublicKey[:]...)
	var amount [8]byte
	binary.LittleEndian.PutUint64(amount[:], f.Amount)
	buf = append(buf, amount[:]...)
	var tick [4]byte
	binary.LittleEndian.PutUint32(tick[:], f.Tick)
	buf = append(buf, tick[:]...)
	var inputType [2]byte
	binary.LittleEndian.PutUint16(inputType[:], f.InputType)
	buf = append(buf, inputType[:]...)
	var inputSize [2]byte
	binary.LittleEndian.PutUint16(inputSize[:], uint16(len(f.InputBytes)))
	buf = append(buf, inputSize[:]...)
	buf = append(buf, f.InputBytes...)
	return buf
}

// TransactionID hashes bytes to a deterministic hex digest (§3: "txId is a
// deterministic hash of bytes"), following the pack's sha256-hex-encode
// determinism pattern.
func (Ed25519Collaborator) TransactionID(bytes []byte) string {
	h := sha256.Sum256(bytes)
	return hex.EncodeToString(h[:])
}
