package vault

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

const vaultVersion = 1

type wireKDFParams struct {
	N          int    `json:"N,omitempty"`
	R          int    `json:"r,omitempty"`
	P          int    `json:"p,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	DKLen      int    `json:"dkLen"`
	SaltBase64 string `json:"saltBase64"`
}

type wireKDF struct {
	Name   string        `json:"name"`
	Params wireKDFParams `json:"params"`
}

type wireEncrypted struct {
	NonceBase64      string `json:"nonceBase64"`
	CiphertextBase64 string `json:"ciphertextBase64"`
	TagBase64        string `json:"tagBase64"`
}

type wireEntry struct {
	Name      string        `json:"name"`
	Identity  string        `json:"identity"`
	SeedIndex uint32        `json:"seedIndex"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Encrypted wireEncrypted `json:"encrypted"`
}

type wireVaultFile struct {
	VaultVersion int         `json:"vaultVersion"`
	KDF          wireKDF     `json:"kdf"`
	Entries      []wireEntry `json:"entries"`
}

func toWire(f domain.VaultFile) wireVaultFile {
	w := wireVaultFile{
		VaultVersion: f.VaultVersion,
		KDF: wireKDF{
			Name: f.KDF.Name,
			Params: wireKDFParams{
				N:          f.KDF.N,
				R:          f.KDF.R,
				P:          f.KDF.P,
				Iterations: f.KDF.Iter,
				DKLen:      f.KDF.DKLen,
				SaltBase64: base64.StdEncoding.EncodeToString(f.KDF.Salt),
			},
		},
		Entries: make([]wireEntry, len(f.Entries)),
	}
	for i, e := range f.Entries {
		w.Entries[i] = wireEntry{
			Name:      e.Name,
			Identity:  string(e.Identity),
			SeedIndex: e.SeedIndex,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
			Encrypted: wireEncrypted{
				NonceBase64:      base64.StdEncoding.EncodeToString(e.Encrypted.Nonce),
				CiphertextBase64: base64.StdEncoding.EncodeToString(e.Encrypted.Ciphertext),
				TagBase64:        base64.StdEncoding.EncodeToString(e.Encrypted.Tag),
			},
		}
	}
	return w
}

func fromWire(w wireVaultFile) (domain.VaultFile, error) {
	salt, err := base64.StdEncoding.DecodeString(w.KDF.Params.SaltBase64)
	if err != nil {
		return domain.VaultFile{}, errs.Wrap(errs.KindVault, "malformed kdf salt", err)
	}
	f := domain.VaultFile{
		VaultVersion: w.VaultVersion,
		KDF: domain.KDFParams{
			Name:  w.KDF.Name,
			N:     w.KDF.Params.N,
			R:     w.KDF.Params.R,
			P:     w.KDF.Params.P,
			Iter:  w.KDF.Params.Iterations,
			DKLen: w.KDF.Params.DKLen,
			Salt:  salt,
		},
		Entries: make([]domain.VaultEntry, len(w.Entries)),
	}
	for i, e := range w.Entries {
		nonce, err := base64.StdEncoding.DecodeString(e.Encrypted.NonceBase64)
		if err != nil {
			return domain.VaultFile{}, errs.Wrap(errs.KindVault, "malformed entry nonce", err)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(e.Encrypted.CiphertextBase64)
		if err != nil {
			return domain.VaultFile{}, errs.Wrap(errs.KindVault, "malformed entry ciphertext", err)
		}
		tag, err := base64.StdEncoding.DecodeString(e.Encrypted.TagBase64)
		if err != nil {
			return domain.VaultFile{}, errs.Wrap(errs.KindVault, "malformed entry tag", err)
		}
		f.Entries[i] = domain.VaultEntry{
			Name:      e.Name,
			Identity:  domain.Identity(e.Identity),
			SeedIndex: e.SeedIndex,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
			Encrypted: domain.EncryptedSecret{Nonce: nonce, Ciphertext: ciphertext, Tag: tag},
		}
	}
	return f, nil
}

func marshalVaultFile(f domain.VaultFile) ([]byte, error) {
	data, err := json.MarshalIndent(toWire(f), "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.KindVault, "marshal vault file", err)
	}
	return data, nil
}

func unmarshalVaultFile(data []byte) (domain.VaultFile, error) {
	var w wireVaultFile
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.VaultFile{}, errs.Wrap(errs.KindVault, "parse vault file", err)
	}
	return fromWire(w)
}
