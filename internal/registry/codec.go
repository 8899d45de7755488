package registry

import "github.com/tickvault/ledger-go-sdk/internal/domain"

// Codec encodes/decodes an entry's typed value to and from wire bytes
// (§4.H). Implementations must not leak their internal error types —
// wrap failures with errs.Wrap(errs.KindRegistryCodec, ...) or similar.
type Codec interface {
	Encode(entry domain.InterfaceEntry, value interface{}) ([]byte, error)
	Decode(entry domain.InterfaceEntry, data []byte) (interface{}, error)
}

// CodecKey identifies which entry a codec registration applies to.
type CodecKey struct {
	ContractName string
	Kind         domain.EntryKind
	EntryName    string
}
