package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	rpcRelayInit      = "relay_init"
	rpcSessionPropose = "wc_sessionPropose"
	rpcSessionRequest = "wc_sessionRequest"
	rpcSessionDelete  = "wc_sessionDelete"
)

// ErrTransportClosed is returned for calls on a closed relay connection
var ErrTransportClosed = errors.New("relay connection closed")

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type rpcReply struct {
	result json.RawMessage
	err    error
}

// WSTransport speaks JSON-RPC 2.0 to a relay over a websocket
type WSTransport struct {
	relayURL     string
	projectID    string
	dialer       *websocket.Dialer
	writeTimeout time.Duration
	logger       *zap.Logger

	writeMu sync.Mutex
	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan rpcReply
	closed  bool
	onClose func(error)
}

// WSOption configures a WSTransport
type WSOption func(*WSTransport)

// WithDialer overrides the websocket dialer
func WithDialer(d *websocket.Dialer) WSOption {
	return func(t *WSTransport) {
		t.dialer = d
	}
}

// WithWriteTimeout bounds each frame write
func WithWriteTimeout(d time.Duration) WSOption {
	return func(t *WSTransport) {
		t.writeTimeout = d
	}
}

// Ensure WSTransport implements RelayTransport and CloseNotifier
var (
	_ RelayTransport = (*WSTransport)(nil)
	_ CloseNotifier  = (*WSTransport)(nil)
)

// NewWSTransport creates a transport for relayURL. Nothing is dialed until Init.
func NewWSTransport(relayURL, projectID string, opts ...WSOption) *WSTransport {
	t := &WSTransport{
		relayURL:     relayURL,
		projectID:    projectID,
		dialer:       websocket.DefaultDialer,
		writeTimeout: 10 * time.Second,
		logger:       logger.Log.With(zap.String("component", "relay_transport")),
		pending:      make(map[string]chan rpcReply),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init dials the relay and performs the relay_init handshake
func (t *WSTransport) Init(ctx context.Context) error {
	u, err := url.Parse(t.relayURL)
	if err != nil {
		return fmt.Errorf("invalid relay url: %w", err)
	}
	q := u.Query()
	q.Set("projectId", t.projectID)
	u.RawQuery = q.Encode()

	conn, resp, err := t.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to dial relay (%s): %w", resp.Status, err)
		}
		return fmt.Errorf("failed to dial relay: %w", err)
	}

	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	t.conn = conn
	t.closed = false
	t.mu.Unlock()

	go t.readLoop(conn)

	if _, err := t.call(ctx, rpcRelayInit, map[string]string{"projectId": t.projectID}); err != nil {
		_ = t.Close()
		return err
	}
	return nil
}

// Propose sends wc_sessionPropose and waits for the wallet's decision
func (t *WSTransport) Propose(ctx context.Context, proposal Proposal) (RelaySession, error) {
	raw, err := t.call(ctx, rpcSessionPropose, proposal)
	if err != nil {
		return RelaySession{}, err
	}
	var session RelaySession
	if err := json.Unmarshal(raw, &session); err != nil {
		return RelaySession{}, fmt.Errorf("failed to decode relay session: %w", err)
	}
	if session.Topic == "" {
		return RelaySession{}, errors.New("relay session has no topic")
	}
	return session, nil
}

// Request routes a wallet request over an approved session
func (t *WSTransport) Request(ctx context.Context, req RelayRequest) (json.RawMessage, error) {
	return t.call(ctx, rpcSessionRequest, map[string]any{
		"topic":   req.Topic,
		"chainId": req.ChainID,
		"request": map[string]any{
			"method": req.Method,
			"params": req.Params,
		},
	})
}

// Delete ends a session
func (t *WSTransport) Delete(ctx context.Context, topic string) error {
	_, err := t.call(ctx, rpcSessionDelete, map[string]any{
		"topic": topic,
		"reason": RPCError{
			Code:    CodeUserDisconnected,
			Message: "User disconnected.",
		},
	})
	return err
}

// OnClose registers fn to run when the relay connection drops without Close
// having been called. fn runs on the read goroutine.
func (t *WSTransport) OnClose(fn func(error)) {
	t.mu.Lock()
	t.onClose = fn
	t.mu.Unlock()
}

// Close closes the websocket and fails every outstanding call
func (t *WSTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.closed = true
	pending := t.pending
	t.pending = make(map[string]chan rpcReply)
	t.mu.Unlock()

	failAll(pending, ErrTransportClosed)
	if conn == nil {
		return nil
	}

	t.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()
	return conn.Close()
}

func (t *WSTransport) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := uuid.NewString()
	reply := make(chan rpcReply, 1)

	t.mu.Lock()
	conn := t.conn
	if conn == nil || t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.pending[id] = reply
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	msg := rpcMessage{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	t.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	err := conn.WriteJSON(msg)
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}
	t.logger.Debug("relay request sent", zap.String("method", method), zap.String("id", id))

	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *WSTransport) readLoop(conn *websocket.Conn) {
	for {
		var msg rpcMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.failPending(conn, err)
			return
		}
		if msg.ID == "" {
			t.logger.Debug("ignoring relay notification", zap.String("method", msg.Method))
			continue
		}

		t.mu.Lock()
		reply, ok := t.pending[msg.ID]
		t.mu.Unlock()
		if !ok {
			t.logger.Debug("ignoring relay response for unknown request", zap.String("id", msg.ID))
			continue
		}

		r := rpcReply{result: msg.Result}
		if msg.Error != nil {
			r = rpcReply{err: msg.Error}
		}
		select {
		case reply <- r:
		default:
		}
	}
}

// failPending handles the read side of conn failing. Connections already
// replaced or closed through Close are ignored.
func (t *WSTransport) failPending(conn *websocket.Conn, cause error) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	pending := t.pending
	t.pending = make(map[string]chan rpcReply)
	onClose := t.onClose
	t.mu.Unlock()

	t.logger.Warn("relay connection lost", zap.Error(cause))
	err := fmt.Errorf("%w: %v", ErrTransportClosed, cause)
	// listeners hear about the drop before any caller is woken
	if onClose != nil {
		onClose(err)
	}
	failAll(pending, err)
}

func failAll(pending map[string]chan rpcReply, err error) {
	for _, reply := range pending {
		select {
		case reply <- rpcReply{err: err}:
		default:
		}
	}
}
