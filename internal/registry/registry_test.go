package registry

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tickvault/ledger-go-sdk/internal/contractquery"
	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/rpc"
	"github.com/tickvault/ledger-go-sdk/internal/txbuilder"
)

type fakeQueryClient struct {
	response []byte
	lastReq  rpc.QuerySmartContractRequest
}

func (f *fakeQueryClient) QuerySmartContract(ctx context.Context, req rpc.QuerySmartContractRequest) (*rpc.QuerySmartContractResponse, error) {
	f.lastReq = req
	return &rpc.QuerySmartContractResponse{ResponseData: base64.StdEncoding.EncodeToString(f.response)}, nil
}

// bigEndianU32Codec encodes/decodes a uint32 as its big-endian byte form,
// standing in for a generated codec's typed encode/decode pair.
type bigEndianU32Codec struct{}

func (bigEndianU32Codec) Encode(entry domain.InterfaceEntry, value interface{}) ([]byte, error) {
	v, ok := value.(uint32)
	if !ok {
		return nil, errs.New(errs.KindOutOfRange, "expected a uint32")
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf, nil
}

func (bigEndianU32Codec) Decode(entry domain.InterfaceEntry, data []byte) (interface{}, error) {
	if len(data) != 4 {
		return nil, errs.New(errs.KindSizeMismatch, "expected 4 bytes")
	}
	return binary.BigEndian.Uint32(data), nil
}

func indexPtr(v uint32) *uint32 { return &v }
func sizePtr(v uint32) *uint32  { return &v }

func feesFile() domain.InterfaceFile {
	return domain.InterfaceFile{
		Contract: domain.ContractRef{Name: "QX", ContractIndex: indexPtr(1)},
		Entries: []domain.InterfaceEntry{
			{Kind: domain.KindFunction, Name: "Fees", InputType: 1, InputSize: sizePtr(0), OutputSize: sizePtr(4)},
			{Kind: domain.KindProcedure, Name: "IssueAsset", InputType: 2, InputSize: sizePtr(4)},
		},
	}
}

func TestNew_RejectsDuplicateContractName(t *testing.T) {
	files := []domain.InterfaceFile{feesFile(), feesFile()}
	_, err := New(context.Background(), files, nil, nil, nil, crypto.NewEd25519Collaborator())
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindRegistryConstruction))
}

func TestNew_RejectsDuplicateContractIndex(t *testing.T) {
	second := feesFile()
	second.Contract.Name = "QX2"
	files := []domain.InterfaceFile{feesFile(), second}
	_, err := New(context.Background(), files, nil, nil, nil, crypto.NewEd25519Collaborator())
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindRegistryConstruction))
}

func TestNew_RejectsCodecNamingMissingEntry(t *testing.T) {
	codecs := map[CodecKey]Codec{
		{ContractName: "QX", Kind: domain.KindFunction, EntryName: "DoesNotExist"}: bigEndianU32Codec{},
	}
	_, err := New(context.Background(), []domain.InterfaceFile{feesFile()}, codecs, nil, nil, crypto.NewEd25519Collaborator())
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindRegistryCodecValidation))
}

func TestQuery_DelegatesWithDeclaredInputTypeAndExpectedOutputSize(t *testing.T) {
	client := &fakeQueryClient{response: []byte{0, 0, 0, 7}}
	helper := contractquery.New(client)
	reg, err := New(context.Background(), []domain.InterfaceFile{feesFile()}, nil, helper, nil, crypto.NewEd25519Collaborator())
	require.NoError(t, err)

	contract, err := reg.Contract("QX")
	require.NoError(t, err)

	result, err := contract.Query(context.Background(), "Fees", QueryRequest{InputBytes: []byte{}})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 7}, result.ResponseBytes)
	require.Nil(t, result.Decoded)
	require.Equal(t, uint16(1), client.lastReq.InputType)

	// A 3-byte response is short of the declared 4-byte outputSize, so the
	// query helper uses every allowed attempt.
	client.response = []byte{0, 0, 7}
	short, err := contract.Query(context.Background(), "Fees", QueryRequest{InputBytes: []byte{}, Retries: 3, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, 3, short.Attempts)
}

func TestQuery_DecodesWithRegisteredCodec(t *testing.T) {
	client := &fakeQueryClient{response: []byte{0, 0, 0, 42}}
	helper := contractquery.New(client)
	codecs := map[CodecKey]Codec{
		{ContractName: "QX", Kind: domain.KindFunction, EntryName: "Fees"}: bigEndianU32Codec{},
	}
	reg, err := New(context.Background(), []domain.InterfaceFile{feesFile()}, codecs, helper, nil, crypto.NewEd25519Collaborator())
	require.NoError(t, err)

	contract, err := reg.Contract("QX")
	require.NoError(t, err)

	value, err := contract.QueryValue(context.Background(), "Fees", QueryRequest{InputBytes: []byte{}})
	require.NoError(t, err)
	require.Equal(t, uint32(42), value)
}

func TestQueryValue_FailsWithoutACodec(t *testing.T) {
	client := &fakeQueryClient{response: []byte{0, 0, 0, 42}}
	helper := contractquery.New(client)
	reg, err := New(context.Background(), []domain.InterfaceFile{feesFile()}, nil, helper, nil, crypto.NewEd25519Collaborator())
	require.NoError(t, err)

	contract, err := reg.Contract("QX")
	require.NoError(t, err)

	_, err = contract.QueryValue(context.Background(), "Fees", QueryRequest{InputBytes: []byte{}})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindRegistryCodecMissing))
}

func TestQuery_RejectsMismatchedInputSize(t *testing.T) {
	client := &fakeQueryClient{response: []byte{0, 0, 0, 1}}
	helper := contractquery.New(client)
	reg, err := New(context.Background(), []domain.InterfaceFile{feesFile()}, nil, helper, nil, crypto.NewEd25519Collaborator())
	require.NoError(t, err)

	contract, err := reg.Contract("QX")
	require.NoError(t, err)

	_, err = contract.Query(context.Background(), "Fees", QueryRequest{InputBytes: []byte{1, 2, 3}})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindSizeMismatch))
}

func TestGetEntry_UnknownEntryIsTypedNotFound(t *testing.T) {
	reg, err := New(context.Background(), []domain.InterfaceFile{feesFile()}, nil, nil, nil, crypto.NewEd25519Collaborator())
	require.NoError(t, err)
	contract, err := reg.Contract("QX")
	require.NoError(t, err)

	_, err = contract.getEntry(domain.KindFunction, "NoSuchEntry")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindRegistryEntryNotFound))
}

func TestBuildProcedureTransaction_ResolvesIdentityFromPublicKeyHex(t *testing.T) {
	collaborator := crypto.NewEd25519Collaborator()
	dstSeed := domain.Seed("destinationSeedMaterialForTestUse00")
	dstPub := collaborator.PublicKeyFromSeed(dstSeed)

	file := feesFile()
	file.Contract.ContractPublicKeyHex = hex.EncodeToString(dstPub[:])

	builder := &txbuilder.Builder{
		Tick:         fakeTick{tick: 1000},
		Collaborator: collaborator,
	}
	reg, err := New(context.Background(), []domain.InterfaceFile{file}, nil, nil, builder, collaborator)
	require.NoError(t, err)
	contract, err := reg.Contract("QX")
	require.NoError(t, err)

	srcSeed := domain.Seed("sourceSeedMaterialForTestUseOnly000")
	signed, err := contract.BuildProcedureTransaction(context.Background(), "IssueAsset", ProcedureRequest{
		SourceSeed: &srcSeed,
		InputBytes: []byte{0, 0, 0, 1},
	})
	require.NoError(t, err)
	require.NotEmpty(t, signed.TxID)
}

func TestBuildProcedureTransaction_RejectsSizeMismatchWithNoEscape(t *testing.T) {
	collaborator := crypto.NewEd25519Collaborator()
	file := feesFile()
	file.Contract.ContractID = collaborator.IdentityFromSeed(domain.Seed("destinationSeedMaterialForTestUse00"), 0)

	builder := &txbuilder.Builder{Tick: fakeTick{tick: 1000}, Collaborator: collaborator}
	reg, err := New(context.Background(), []domain.InterfaceFile{file}, nil, nil, builder, collaborator)
	require.NoError(t, err)
	contract, err := reg.Contract("QX")
	require.NoError(t, err)

	srcSeed := domain.Seed("sourceSeedMaterialForTestUseOnly000")
	_, err = contract.BuildProcedureTransaction(context.Background(), "IssueAsset", ProcedureRequest{
		SourceSeed: &srcSeed,
		InputBytes: []byte{1, 2, 3},
	})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindSizeMismatch))
}

type fakeTick struct{ tick uint64 }

func (f fakeTick) SuggestedTargetTick(ctx context.Context, offset *uint64) (uint64, error) {
	return f.tick, nil
}
