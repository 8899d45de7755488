// Package registry implements the interface registry of §4.H: a
// construction-time-validated index of contract interface files that
// drives typed contract queries and procedure transactions.
package registry

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tickvault/ledger-go-sdk/internal/contractquery"
	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/txbuilder"
)

// Registry is an in-memory, validated index of contract interface files.
type Registry struct {
	byName  map[string]*Contract
	byIndex map[uint32]*Contract
}

// New constructs a Registry from files, cross-validating codecs against
// the resolved entries before returning (§4.H). query and builder are
// shared across every Contract handle the registry produces; collaborator
// is used to convert a contract's public key into an identity when it has
// no explicit contractId.
func New(ctx context.Context, files []domain.InterfaceFile, codecs map[CodecKey]Codec, query *contractquery.Helper, builder *txbuilder.Builder, collaborator crypto.Collaborator) (*Registry, error) {
	byName := make(map[string]*Contract, len(files))
	byIndex := make(map[uint32]*Contract, len(files))

	var g errgroup.Group
	contracts := make([]*Contract, len(files))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if f.Contract.Name == "" {
				return errs.New(errs.KindRegistryConstruction, "interface file has an empty contract name")
			}
			for _, e := range f.Entries {
				if e.Kind != domain.KindFunction && e.Kind != domain.KindProcedure {
					return errs.New(errs.KindRegistryConstruction, fmt.Sprintf("contract %q entry %q has unknown kind %q", f.Contract.Name, e.Name, e.Kind))
				}
			}
			contracts[i] = &Contract{
				ref:          f.Contract,
				entries:      f.Entries,
				codecs:       make(map[entryKey]Codec),
				query:        query,
				builder:      builder,
				collaborator: collaborator,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, f := range files {
		c := contracts[i]
		if _, exists := byName[f.Contract.Name]; exists {
			return nil, errs.New(errs.KindRegistryConstruction, fmt.Sprintf("duplicate contract name %q", f.Contract.Name))
		}
		byName[f.Contract.Name] = c
		if f.Contract.ContractIndex != nil {
			if _, exists := byIndex[*f.Contract.ContractIndex]; exists {
				return nil, errs.New(errs.KindRegistryConstruction, fmt.Sprintf("duplicate contractIndex %d", *f.Contract.ContractIndex))
			}
			byIndex[*f.Contract.ContractIndex] = c
		}
	}

	if len(codecs) > 0 {
		keys := make([]CodecKey, 0, len(codecs))
		for k := range codecs {
			keys = append(keys, k)
		}
		var vg errgroup.Group
		for _, k := range keys {
			k := k
			vg.Go(func() error {
				c, ok := byName[k.ContractName]
				if !ok {
					return errs.New(errs.KindRegistryCodecValidation, fmt.Sprintf("codec registered for unknown contract %q", k.ContractName))
				}
				if _, err := c.getEntry(k.Kind, k.EntryName); err != nil {
					return errs.Wrap(errs.KindRegistryCodecValidation, fmt.Sprintf("codec registered for missing entry %s/%s/%s", k.ContractName, k.Kind, k.EntryName), err)
				}
				return nil
			})
		}
		if err := vg.Wait(); err != nil {
			return nil, err
		}
		for k, codec := range codecs {
			byName[k.ContractName].codecs[entryKey{kind: k.Kind, name: k.EntryName}] = codec
		}
	}

	return &Registry{byName: byName, byIndex: byIndex}, nil
}

// Contract looks up a contract handle by declared name.
func (r *Registry) Contract(name string) (*Contract, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, errs.New(errs.KindRegistryEntryNotFound, fmt.Sprintf("no contract named %q", name))
	}
	return c, nil
}

// ContractByIndex looks up a contract handle by its numeric contractIndex.
func (r *Registry) ContractByIndex(index uint32) (*Contract, error) {
	c, ok := r.byIndex[index]
	if !ok {
		return nil, errs.New(errs.KindRegistryEntryNotFound, fmt.Sprintf("no contract with index %d", index))
	}
	return c, nil
}

func decodeContractPublicKey(hexKey string) (domain.PublicKey, error) {
	var pk domain.PublicKey
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return pk, errs.Wrap(errs.KindBadHex, "malformed contractPublicKeyHex", err)
	}
	if len(raw) != 32 {
		return pk, errs.New(errs.KindBadHex, "contractPublicKeyHex must decode to 32 bytes")
	}
	copy(pk[:], raw)
	return pk, nil
}
