package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// LedgerStreamConfig configures the WebSocket ledger stream.
type LedgerStreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is the maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultLedgerStreamConfig returns the default stream configuration.
func DefaultLedgerStreamConfig() LedgerStreamConfig {
	return LedgerStreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// LedgerStream subscribes to the rippled ledger stream over WebSocket and
// delivers one header per ledger close.
type LedgerStream struct {
	endpoint string
	config   LedgerStreamConfig
	closed   atomic.Bool
}

// NewLedgerStream creates a ledger stream for the given ws:// endpoint.
func NewLedgerStream(endpoint string, config *LedgerStreamConfig) *LedgerStream {
	cfg := DefaultLedgerStreamConfig()
	if config != nil {
		cfg = *config
	}
	return &LedgerStream{endpoint: endpoint, config: cfg}
}

// subscribeRequest is the rippled subscribe command.
type subscribeRequest struct {
	ID      int      `json:"id"`
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}

// ledgerClosedMsg is a ledgerClosed stream message.
type ledgerClosedMsg struct {
	Type        string `json:"type"`
	LedgerHash  string `json:"ledger_hash"`
	LedgerIndex int64  `json:"ledger_index"`
	LedgerTime  int64  `json:"ledger_time"`
}

// Subscribe opens the connection and returns a channel of ledger headers.
// The channel is closed when the context is cancelled or Close is called.
// Connection drops trigger reconnects with exponential backoff.
func (s *LedgerStream) Subscribe(ctx context.Context) (<-chan domain.LedgerHeader, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.LedgerHeader, 16)
	go s.readLoop(ctx, conn, out)
	return out, nil
}

// Close stops the stream; pending reconnects are abandoned.
func (s *LedgerStream) Close() {
	s.closed.Store(true)
}

func (s *LedgerStream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	req := subscribeRequest{ID: 1, Command: "subscribe", Streams: []string{"ledger"}}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe ledger stream: %w", err)
	}
	return conn, nil
}

func (s *LedgerStream) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- domain.LedgerHeader) {
	defer close(out)
	// conn is reassigned on reconnect; close whichever is current on exit.
	defer func() { conn.Close() }()

	delay := s.config.ReconnectDelay

	for {
		if s.closed.Load() || ctx.Err() != nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			// Reconnect with backoff and resubscribe.
			conn.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				if s.closed.Load() {
					return
				}
				next, dialErr := s.dial(ctx)
				if dialErr == nil {
					conn = next
					delay = s.config.ReconnectDelay
					break
				}
				delay *= 2
				if delay > s.config.MaxReconnectDelay {
					delay = s.config.MaxReconnectDelay
				}
			}
			continue
		}

		var closed ledgerClosedMsg
		if err := json.Unmarshal(msg, &closed); err != nil || closed.Type != "ledgerClosed" {
			continue
		}

		header := domain.LedgerHeader{
			LedgerIndex: closed.LedgerIndex,
			LedgerHash:  closed.LedgerHash,
		}
		select {
		case out <- header:
		case <-ctx.Done():
			return
		}
	}
}
