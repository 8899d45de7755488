package rpc

// TickInfoResponse is the live surface's GET /live/v1/tick-info result.
type TickInfoResponse struct {
	Tick Uint64 `json:"tick"`
}

// BalanceResponse is the live surface's GET /live/v1/balances/{id} result.
type BalanceResponse struct {
	Balance Uint64 `json:"balance"`
}

// BroadcastTransactionRequest is the live surface's broadcast body.
type BroadcastTransactionRequest struct {
	EncodedTransaction string `json:"encodedTransaction"`
}

// BroadcastTransactionResponse is the live surface's broadcast result.
type BroadcastTransactionResponse struct {
	PeersBroadcasted   int32  `json:"peersBroadcasted"`
	EncodedTransaction string `json:"encodedTransaction"`
	TransactionID      string `json:"transactionId"`
}

// QuerySmartContractRequest is the live surface's querySmartContract body.
type QuerySmartContractRequest struct {
	ContractIndex uint32 `json:"contractIndex"`
	InputType     uint16 `json:"inputType"`
	InputSize     uint16 `json:"inputSize"`
	RequestData   string `json:"requestData"` // base64
}

// QuerySmartContractResponse is the live surface's querySmartContract result.
type QuerySmartContractResponse struct {
	ResponseData string `json:"responseData"` // base64
}

// LastProcessedTickResponse is the query surface's getLastProcessedTick result.
type LastProcessedTickResponse struct {
	LastProcessedTick Uint64 `json:"lastProcessedTick"`
}

// GetTransactionByHashRequest is the query surface's request body.
type GetTransactionByHashRequest struct {
	Hash string `json:"hash"`
}

// TransactionRecord mirrors §3 QueryTransaction on the wire.
type TransactionRecord struct {
	Hash        string  `json:"hash"`
	Amount      Uint64  `json:"amount"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	TickNumber  Uint64  `json:"tickNumber"`
	Timestamp   Int64   `json:"timestamp"`
	InputType   uint16  `json:"inputType"`
	InputSize   uint32  `json:"inputSize"`
	InputData   string  `json:"inputData"` // base64
	Signature   string  `json:"signature"` // base64
	MoneyFlew   *bool   `json:"moneyFlew,omitempty"`
}

// GetTransactionsForIdentityRequest is the query surface's request body.
type GetTransactionsForIdentityRequest struct {
	Identity   string                 `json:"identity"`
	Filters    map[string]interface{} `json:"filters,omitempty"`
	Ranges     map[string]interface{} `json:"ranges,omitempty"`
	Pagination *Pagination            `json:"pagination,omitempty"`
}

// Pagination is a simple offset/limit page request.
type Pagination struct {
	Offset uint32 `json:"offset"`
	Limit  uint32 `json:"limit"`
}

// GetTransactionsForIdentityResponse wraps the returned page of records.
type GetTransactionsForIdentityResponse struct {
	Transactions []TransactionRecord `json:"transactions"`
	TotalCount   Uint64              `json:"totalCount"`
}

// GetTransactionsForTickResponse wraps all records for a tick.
type GetTransactionsForTickResponse struct {
	Transactions []TransactionRecord `json:"transactions"`
}

// TickDataResponse is the query surface's getTickData result.
type TickDataResponse struct {
	TickNumber      Uint64   `json:"tickNumber"`
	Epoch           uint32   `json:"epoch"`
	Timestamp       Int64    `json:"timestamp"`
	TransactionIDs  []string `json:"transactionIds"`
}

// ProcessedTickInterval describes a contiguous processed-tick range.
type ProcessedTickInterval struct {
	Epoch      uint32 `json:"epoch"`
	InitialTick Uint64 `json:"initialTick"`
	LastTick    Uint64 `json:"lastTick"`
}

// GetProcessedTickIntervalsResponse wraps the returned intervals.
type GetProcessedTickIntervalsResponse struct {
	Intervals []ProcessedTickInterval `json:"intervals"`
}

// ComputorListResponse is the query surface's getComputorListsForEpoch result.
type ComputorListResponse struct {
	Epoch      uint32   `json:"epoch"`
	Identities []string `json:"identities"`
}
