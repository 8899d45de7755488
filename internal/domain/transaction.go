package domain

import "time"

// SignedTransaction is an immutable record produced by the transaction
// builder (§4.D). TxID is a deterministic hash of Bytes.
type SignedTransaction struct {
	Bytes          []byte
	TxID           string
	TargetTick     Tick
	SourceIdentity Identity
}

// BroadcastResult is returned by the RPC transport's broadcast call.
// NetworkTxID is authoritative for confirmation even when it equals TxID
// (see the "Open question" in the specification's design notes — the two
// are never assumed equal).
type BroadcastResult struct {
	PeersBroadcast int32
	EncodedBytes   string // base64
	NetworkTxID    string
}

// QueryTransaction is the confirmed record returned by the archive.
type QueryTransaction struct {
	Hash       string
	Amount     uint64
	Source     Identity
	Destination Identity
	TickNumber Tick
	Timestamp  time.Time
	InputType  uint16
	InputSize  uint32
	InputData  []byte
	Signature  []byte
	MoneyFlew  *bool
}
