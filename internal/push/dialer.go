package push

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a message-oriented connection. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens push channel connections
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// WebSocketDialer dials a WebSocket endpoint
type WebSocketDialer struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
}

// NewWebSocketDialer creates a dialer for the ws:// or wss:// URL
func NewWebSocketDialer(url string) *WebSocketDialer {
	return &WebSocketDialer{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Dial implements Dialer.Dial
func (d *WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, d.URL, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", d.URL, err)
	}
	return conn, nil
}
