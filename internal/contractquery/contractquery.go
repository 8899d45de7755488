// Package contractquery implements the size-checked retry loop of §4.G
// against a live smart-contract query surface.
package contractquery

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/retry"
	"github.com/tickvault/ledger-go-sdk/internal/rpc"
)

// QueryClient is the subset of the RPC transport this package needs.
type QueryClient interface {
	QuerySmartContract(ctx context.Context, req rpc.QuerySmartContractRequest) (*rpc.QuerySmartContractResponse, error)
}

// Request parameterizes one raw contract query (§4.G).
type Request struct {
	ContractIndex      uint32
	InputType          uint16
	InputBytes         []byte // preferred over InputBase64 when both are set
	InputBase64        string
	ExpectedOutputSize *int
	Retries            int // total attempts; defaults to 1 (no retry) if <= 0
	RetryDelay         time.Duration // 0 uses retry.DefaultBackoff's initial delay
}

// Result is the raw response of a contract query (§4.G).
type Result struct {
	ResponseBytes  []byte
	ResponseBase64 string
	Attempts       int
}

// Helper runs Request against a QueryClient.
type Helper struct {
	client QueryClient
}

// New returns a Helper backed by client.
func New(client QueryClient) *Helper {
	return &Helper{client: client}
}

// QueryRaw implements §4.G's attempt/retry loop.
func (h *Helper) QueryRaw(ctx context.Context, req Request) (*Result, error) {
	inputBytes := req.InputBytes
	if inputBytes == nil && req.InputBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.InputBase64)
		if err != nil {
			return nil, errs.Wrap(errs.KindBadHex, "malformed inputBase64", err)
		}
		inputBytes = decoded
	}

	maxAttempts := req.Retries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := retry.DefaultBackoff().Initial
	if req.RetryDelay > 0 {
		delay = req.RetryDelay
	}

	wireReq := rpc.QuerySmartContractRequest{
		ContractIndex: req.ContractIndex,
		InputType:     req.InputType,
		InputSize:     uint16(len(inputBytes)),
		RequestData:   base64.StdEncoding.EncodeToString(inputBytes),
	}

	for attempt := 1; ; attempt++ {
		resp, err := h.client.QuerySmartContract(ctx, wireReq)
		if err != nil {
			return nil, err
		}

		responseBytes, err := base64.StdEncoding.DecodeString(resp.ResponseData)
		if err != nil {
			return nil, errs.Wrap(errs.KindBadHex, "malformed responseData", err)
		}

		tooShort := req.ExpectedOutputSize != nil && len(responseBytes) < *req.ExpectedOutputSize
		if tooShort && attempt < maxAttempts {
			if err := retry.Sleep(ctx, delay); err != nil {
				return nil, errs.Wrap(errs.KindContractQueryAborted, "query wait cancelled", err)
			}
			continue
		}

		return &Result{
			ResponseBytes:  responseBytes,
			ResponseBase64: resp.ResponseData,
			Attempts:       attempt,
		}, nil
	}
}
