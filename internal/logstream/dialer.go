package logstream

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the minimal socket surface Stream needs, satisfied by
// *websocket.Conn and by fakes in tests.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dialer creates the socket a Stream reads and writes through. It is
// pluggable so tests can substitute an in-memory transport instead of a
// live network connection (§4.I "socket factory pluggable for tests").
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// GorillaDialer dials with github.com/gorilla/websocket.
type GorillaDialer struct {
	HandshakeTimeout time.Duration
}

// Dial implements Dialer.
func (d GorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
