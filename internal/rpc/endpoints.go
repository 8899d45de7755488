package rpc

import (
	"context"
	"fmt"
	"net/http"
)

// TickInfo reads the live surface's current tick.
func (c *Client) TickInfo(ctx context.Context) (uint64, error) {
	var resp TickInfoResponse
	if err := c.doJSON(ctx, http.MethodGet, c.liveBase+"/tick-info", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp.Tick), nil
}

// Balance reads the live balance for identity.
func (c *Client) Balance(ctx context.Context, identity string) (uint64, error) {
	var resp BalanceResponse
	url := fmt.Sprintf("%s/balances/%s", c.liveBase, identity)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp.Balance), nil
}

// BroadcastTransaction submits base64-encoded signed transaction bytes.
func (c *Client) BroadcastTransaction(ctx context.Context, encodedTransaction string) (*BroadcastTransactionResponse, error) {
	req := BroadcastTransactionRequest{EncodedTransaction: encodedTransaction}
	var resp BroadcastTransactionResponse
	url := c.liveBase + "/broadcast-transaction"
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QuerySmartContract issues a read-only contract query.
func (c *Client) QuerySmartContract(ctx context.Context, req QuerySmartContractRequest) (*QuerySmartContractResponse, error) {
	var resp QuerySmartContractResponse
	url := c.liveBase + "/querySmartContract"
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLastProcessedTick reads the archive's high-water mark.
func (c *Client) GetLastProcessedTick(ctx context.Context) (uint64, error) {
	var resp LastProcessedTickResponse
	url := c.queryBase + "/getLastProcessedTick"
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp.LastProcessedTick), nil
}

// GetTransactionByHash returns the confirmed record for hash, or a
// *RequestError with Status 404 (test with IsNotFound) if the tick that
// would contain it has not surfaced it.
func (c *Client) GetTransactionByHash(ctx context.Context, hash string) (*TransactionRecord, error) {
	req := GetTransactionByHashRequest{Hash: hash}
	var resp TransactionRecord
	url := c.queryBase + "/getTransactionByHash"
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransactionsForIdentity returns a filtered, paginated page of records.
func (c *Client) GetTransactionsForIdentity(ctx context.Context, req GetTransactionsForIdentityRequest) (*GetTransactionsForIdentityResponse, error) {
	var resp GetTransactionsForIdentityResponse
	url := c.queryBase + "/getTransactionsForIdentity"
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransactionsForTick returns every record processed in tick n.
func (c *Client) GetTransactionsForTick(ctx context.Context, n uint64) (*GetTransactionsForTickResponse, error) {
	var resp GetTransactionsForTickResponse
	url := fmt.Sprintf("%s/getTransactionsForTick", c.queryBase)
	req := struct {
		TickNumber uint64 `json:"tickNumber"`
	}{TickNumber: n}
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTickData returns the tick metadata and transaction id set for tick n.
func (c *Client) GetTickData(ctx context.Context, n uint64) (*TickDataResponse, error) {
	var resp TickDataResponse
	url := c.queryBase + "/getTickData"
	req := struct {
		TickNumber uint64 `json:"tickNumber"`
	}{TickNumber: n}
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProcessedTickIntervals returns the archive's known processed ranges.
func (c *Client) GetProcessedTickIntervals(ctx context.Context) (*GetProcessedTickIntervalsResponse, error) {
	var resp GetProcessedTickIntervalsResponse
	url := c.queryBase + "/getProcessedTickIntervals"
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetComputorListsForEpoch returns the computor identity set for epoch.
func (c *Client) GetComputorListsForEpoch(ctx context.Context, epoch uint32) (*ComputorListResponse, error) {
	var resp ComputorListResponse
	url := c.queryBase + "/getComputorListsForEpoch"
	req := struct {
		Epoch uint32 `json:"epoch"`
	}{Epoch: epoch}
	if err := c.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
