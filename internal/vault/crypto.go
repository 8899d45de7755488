package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

const (
	KDFNameScrypt = "scrypt"
	KDFNamePBKDF2 = "pbkdf2-sha256"

	DefaultScryptN = 1 << 13
	DefaultScryptR = 8
	DefaultScryptP = 1
	DefaultDKLen   = 32

	DefaultPBKDF2Iterations = 200000

	saltSize = 16
)

func newSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errs.Wrap(errs.KindVault, "generate kdf salt", err)
	}
	return salt, nil
}

// defaultScryptParams returns the node-flavor KDF defaults (§4.J).
func defaultScryptParams() (domain.KDFParams, error) {
	salt, err := newSalt()
	if err != nil {
		return domain.KDFParams{}, err
	}
	return domain.KDFParams{Name: KDFNameScrypt, N: DefaultScryptN, R: DefaultScryptR, P: DefaultScryptP, DKLen: DefaultDKLen, Salt: salt}, nil
}

// defaultPBKDF2Params returns the browser-flavor KDF defaults (§4.J).
func defaultPBKDF2Params() (domain.KDFParams, error) {
	salt, err := newSalt()
	if err != nil {
		return domain.KDFParams{}, err
	}
	return domain.KDFParams{Name: KDFNamePBKDF2, Iter: DefaultPBKDF2Iterations, DKLen: DefaultDKLen, Salt: salt}, nil
}

func deriveKey(passphrase string, params domain.KDFParams) ([]byte, error) {
	switch params.Name {
	case KDFNameScrypt:
		key, err := scrypt.Key([]byte(passphrase), params.Salt, params.N, params.R, params.P, params.DKLen)
		if err != nil {
			return nil, errs.Wrap(errs.KindVault, "derive scrypt key", err)
		}
		return key, nil
	case KDFNamePBKDF2:
		return pbkdf2.Key([]byte(passphrase), params.Salt, params.Iter, params.DKLen, sha256.New), nil
	default:
		return nil, errs.New(errs.KindVault, "unsupported kdf: "+params.Name)
	}
}

func seal(key, plaintext []byte) (domain.EncryptedSecret, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return domain.EncryptedSecret{}, errs.Wrap(errs.KindVault, "init aes cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return domain.EncryptedSecret{}, errs.Wrap(errs.KindVault, "init gcm", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return domain.EncryptedSecret{}, errs.Wrap(errs.KindVault, "generate nonce", err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - gcm.Overhead()
	return domain.EncryptedSecret{
		Nonce:      nonce,
		Ciphertext: append([]byte(nil), sealed[:split]...),
		Tag:        append([]byte(nil), sealed[split:]...),
	}, nil
}

func open(key []byte, enc domain.EncryptedSecret) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindVault, "init aes cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.KindVault, "init gcm", err)
	}
	combined := append(append([]byte(nil), enc.Ciphertext...), enc.Tag...)
	plaintext, err := gcm.Open(nil, enc.Nonce, combined, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindVaultInvalidPass, "decrypt vault entry", err)
	}
	return plaintext, nil
}
