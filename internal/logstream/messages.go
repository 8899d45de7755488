package logstream

import "encoding/json"

// inboundEnvelope is the minimal shape needed to route a frame by type
// before decoding it fully (§4.I step 4).
type inboundEnvelope struct {
	Type string `json:"type"`

	SCIndex uint32 `json:"scIndex"`
	LogType uint32 `json:"logType"`

	LogID       *uint64 `json:"logId"`
	AltLogID    *uint64 `json:"id"`
	Tick        *uint32 `json:"tick"`
	AltTick     *uint32 `json:"tickNumber"`
	ErrorReason string  `json:"reason"`
}

func (e inboundEnvelope) logID() *uint64 {
	if e.LogID != nil {
		return e.LogID
	}
	return e.AltLogID
}

func (e inboundEnvelope) tick() *uint32 {
	if e.Tick != nil {
		return e.Tick
	}
	return e.AltTick
}

// Outbound frames are keyed on "action"; only inbound frames use "type"
// (§6.3).
type subscribeOneMessage struct {
	Action    string  `json:"action"`
	SCIndex   uint32  `json:"scIndex"`
	LogType   uint32  `json:"logType"`
	LastLogID *uint64 `json:"lastLogId,omitempty"`
	LastTick  *uint32 `json:"lastTick,omitempty"`
}

type subscribeEntry struct {
	SCIndex uint32 `json:"scIndex"`
	LogType uint32 `json:"logType"`
}

type subscribeBatchMessage struct {
	Action        string           `json:"action"`
	Subscriptions []subscribeEntry `json:"subscriptions"`
	LastLogID     *uint64          `json:"lastLogId,omitempty"`
	LastTick      *uint32          `json:"lastTick,omitempty"`
}

type unsubscribeOneMessage struct {
	Action  string `json:"action"`
	SCIndex uint32 `json:"scIndex"`
	LogType uint32 `json:"logType"`
}

type unsubscribeAllMessage struct {
	Action string `json:"action"`
}

type pingMessage struct {
	Action string `json:"action"`
}

// LogEvent is the routed, partially-decoded payload of a "log" frame.
type LogEvent struct {
	SCIndex uint32
	LogType uint32
	LogID   *uint64
	Tick    *uint32
	Raw     json.RawMessage
}
