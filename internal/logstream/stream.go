// Package logstream implements the long-lived WebSocket log subscription
// engine of §4.I: connect, bootstrap subscriptions, dispatch inbound
// frames by type, and write log cursors back through an injected store.
// The engine does not auto-reconnect; a caller who wants reconnection
// constructs a new Stream from the latest cursor.
package logstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/storage"
)

// Handlers are the caller's callbacks for routed frames (§4.I step 4).
// Any handler left nil is simply not invoked for its frame type.
type Handlers struct {
	OnWelcome         func(json.RawMessage)
	OnAck             func(json.RawMessage)
	OnCatchUpComplete func(json.RawMessage)
	OnPong            func(json.RawMessage)
	OnError           func(error)
	OnLog             func(LogEvent)
}

// Config parametrizes Connect.
type Config struct {
	URL    string
	Dialer Dialer

	Subscriptions []domain.LogSubscription
	LastLogID     *uint64 // top-level batched cursor, used only for the batched-subscribe path
	LastTick      *uint32

	CursorStore storage.CursorStore
	Handlers    Handlers

	PingInterval time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

const (
	defaultWriteTimeout = 10 * time.Second
	defaultReadTimeout  = 60 * time.Second
)

// Stream is one connected, bootstrapped log-subscription session.
type Stream struct {
	conn Conn

	handlers     Handlers
	cursorStore  storage.CursorStore
	writeTimeout time.Duration
	readTimeout  time.Duration

	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[string]domain.LogSubscription

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Connect dials the socket, starts the read (and, if configured, ping)
// loop, and sends the bootstrap subscribe message(s) (§4.I steps 1-3).
func Connect(ctx context.Context, cfg Config) (*Stream, error) {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = GorillaDialer{}
	}
	conn, err := dialer.Dial(ctx, cfg.URL)
	if err != nil {
		return nil, errs.Wrap(errs.KindStreamRequestFailed, "dial log stream", err)
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	s := &Stream{
		conn:         conn,
		handlers:     cfg.Handlers,
		cursorStore:  cfg.CursorStore,
		writeTimeout: writeTimeout,
		readTimeout:  readTimeout,
		subs:         make(map[string]domain.LogSubscription),
		done:         make(chan struct{}),
	}

	s.wg.Add(1)
	go s.readLoop()

	if cfg.PingInterval > 0 {
		s.wg.Add(1)
		go s.pingLoop(cfg.PingInterval)
	}

	if err := s.bootstrap(ctx, cfg); err != nil {
		s.Close(websocket.CloseNormalClosure, "bootstrap failed")
		return nil, err
	}

	return s, nil
}

// bootstrap resolves each subscription's initial cursor and sends the
// bootstrap subscribe frames once (§4.I step 3): a single batched frame
// when no subscription has a cursor and there is more than one, else one
// frame per subscription.
func (s *Stream) bootstrap(ctx context.Context, cfg Config) error {
	if len(cfg.Subscriptions) == 0 {
		return nil
	}

	cursors := make(map[string]domain.LogCursor, len(cfg.Subscriptions))
	hasPerSubCursor := false

	for _, sub := range cfg.Subscriptions {
		key := domain.CursorKey(sub.SCIndex, sub.LogType)
		s.subsMu.Lock()
		s.subs[key] = sub
		s.subsMu.Unlock()

		if sub.LastLogID != nil || sub.LastTick != nil {
			cursors[key] = domain.LogCursor{LastLogID: sub.LastLogID, LastTick: sub.LastTick}
			hasPerSubCursor = true
			continue
		}
		if cfg.CursorStore == nil {
			continue
		}
		stored, err := cfg.CursorStore.Get(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return errs.Wrap(errs.KindStreamRequestFailed, "load initial cursor", err)
		}
		cursors[key] = *stored
		hasPerSubCursor = true
	}

	if !hasPerSubCursor && len(cfg.Subscriptions) > 1 {
		entries := make([]subscribeEntry, len(cfg.Subscriptions))
		for i, sub := range cfg.Subscriptions {
			entries[i] = subscribeEntry{SCIndex: sub.SCIndex, LogType: sub.LogType}
		}
		return s.send(subscribeBatchMessage{
			Action:        "subscribe",
			Subscriptions: entries,
			LastLogID:     cfg.LastLogID,
			LastTick:      cfg.LastTick,
		})
	}

	for _, sub := range cfg.Subscriptions {
		key := domain.CursorKey(sub.SCIndex, sub.LogType)
		cursor := cursors[key]
		if err := s.send(subscribeOneMessage{
			Action:    "subscribe",
			SCIndex:   sub.SCIndex,
			LogType:   sub.LogType,
			LastLogID: cursor.LastLogID,
			LastTick:  cursor.LastTick,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stream) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(errs.KindStreamInvalidJSON, "marshal outbound frame", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return errs.Wrap(errs.KindStreamRequestFailed, "set write deadline", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errs.Wrap(errs.KindStreamRequestFailed, "write frame", err)
	}
	return nil
}

// Subscribe adds one subscription to an already-connected stream.
func (s *Stream) Subscribe(sub domain.LogSubscription) error {
	key := domain.CursorKey(sub.SCIndex, sub.LogType)
	s.subsMu.Lock()
	s.subs[key] = sub
	s.subsMu.Unlock()
	return s.send(subscribeOneMessage{
		Action:    "subscribe",
		SCIndex:   sub.SCIndex,
		LogType:   sub.LogType,
		LastLogID: sub.LastLogID,
		LastTick:  sub.LastTick,
	})
}

// SubscribeMany adds several subscriptions with an optional shared cursor.
func (s *Stream) SubscribeMany(subs []domain.LogSubscription, cursor *domain.LogCursor) error {
	entries := make([]subscribeEntry, len(subs))
	for i, sub := range subs {
		key := domain.CursorKey(sub.SCIndex, sub.LogType)
		s.subsMu.Lock()
		s.subs[key] = sub
		s.subsMu.Unlock()
		entries[i] = subscribeEntry{SCIndex: sub.SCIndex, LogType: sub.LogType}
	}
	msg := subscribeBatchMessage{Action: "subscribe", Subscriptions: entries}
	if cursor != nil {
		msg.LastLogID = cursor.LastLogID
		msg.LastTick = cursor.LastTick
	}
	return s.send(msg)
}

// Unsubscribe removes one subscription.
func (s *Stream) Unsubscribe(sub domain.LogSubscription) error {
	key := domain.CursorKey(sub.SCIndex, sub.LogType)
	s.subsMu.Lock()
	delete(s.subs, key)
	s.subsMu.Unlock()
	return s.send(unsubscribeOneMessage{Action: "unsubscribe", SCIndex: sub.SCIndex, LogType: sub.LogType})
}

// UnsubscribeAll removes every subscription.
func (s *Stream) UnsubscribeAll() error {
	s.subsMu.Lock()
	s.subs = make(map[string]domain.LogSubscription)
	s.subsMu.Unlock()
	return s.send(unsubscribeAllMessage{Action: "unsubscribeAll"})
}

// Ping sends one application-level ping frame.
func (s *Stream) Ping() error {
	return s.send(pingMessage{Action: "ping"})
}

// Close terminates the session. A parse error or transport error never
// closes the stream on its own — only an explicit Close or an external
// cancel token does (§4.I).
func (s *Stream) Close(code int, reason string) error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
		s.writeMu.Unlock()
		closeErr = s.conn.Close()
	})
	s.wg.Wait()
	return closeErr
}

// CloseOnContext closes the stream when ctx is cancelled, implementing
// the "external cancel token closes the socket" action of §4.I step 5.
func (s *Stream) CloseOnContext(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.Close(websocket.CloseNormalClosure, ctx.Err().Error())
		case <-s.done:
		}
	}()
}

func (s *Stream) readLoop() {
	defer s.wg.Done()
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			s.reportError(errs.Wrap(errs.KindStreamRequestFailed, "set read deadline", err))
			return
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.reportError(errs.Wrap(errs.KindStreamRequestFailed, "read frame", err))
			return
		}
		s.dispatch(data)
	}
}

// dispatch routes one inbound frame by its "type" field (§4.I step 4).
// A frame that fails to parse is dropped, not fatal.
func (s *Stream) dispatch(data []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch env.Type {
	case "welcome":
		if s.handlers.OnWelcome != nil {
			s.handlers.OnWelcome(data)
		}
	case "ack":
		if s.handlers.OnAck != nil {
			s.handlers.OnAck(data)
		}
	case "catchUpComplete":
		if s.handlers.OnCatchUpComplete != nil {
			s.handlers.OnCatchUpComplete(data)
		}
	case "pong":
		if s.handlers.OnPong != nil {
			s.handlers.OnPong(data)
		}
	case "error":
		s.reportError(fmt.Errorf("log stream error: %s", env.ErrorReason))
	case "log":
		s.dispatchLog(env, data)
	}
}

func (s *Stream) dispatchLog(env inboundEnvelope, raw []byte) {
	event := LogEvent{SCIndex: env.SCIndex, LogType: env.LogType, LogID: env.logID(), Tick: env.tick(), Raw: raw}
	if s.handlers.OnLog != nil {
		s.handlers.OnLog(event)
	}
	s.writeBackCursor(event)
}

// writeBackCursor persists the log's cursor. Writes are fire-and-forget:
// a store failure goes to the error handler and never blocks dispatch
// (§4.I step 4).
func (s *Stream) writeBackCursor(event LogEvent) {
	if s.cursorStore == nil || (event.LogID == nil && event.Tick == nil) {
		return
	}
	key := domain.CursorKey(event.SCIndex, event.LogType)
	cursor := domain.LogCursor{}
	if event.LogID != nil {
		cursor.LastLogID = event.LogID
	} else {
		cursor.LastTick = event.Tick
	}
	go func() {
		if err := s.cursorStore.Set(context.Background(), key, cursor); err != nil {
			s.reportError(errs.Wrap(errs.KindStreamRequestFailed, "write back cursor", err))
		}
	}()
}

func (s *Stream) reportError(err error) {
	if s.handlers.OnError != nil {
		s.handlers.OnError(err)
	}
}

func (s *Stream) pingLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.Ping(); err != nil {
				s.reportError(err)
			}
		}
	}
}
