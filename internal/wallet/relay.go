package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bituzin/stacks-boost-app/internal/logger"

	"go.uber.org/zap"
)

// Relay methods offered to wallets in the session proposal
const (
	MethodGetAddresses          = "stx_getAddresses"
	MethodTransferSTX           = "stx_transferStx"
	MethodSignTransaction       = "stx_signTransaction"
	MethodSignMessage           = "stx_signMessage"
	MethodSignStructuredMessage = "stx_signStructuredMessage"
	MethodCallContract          = "stx_callContract"
)

// StacksNamespace is the CAIP namespace requested from relay wallets
const StacksNamespace = "stacks"

// CodeUserRejected is the JSON-RPC error code wallets use for a declined request
const CodeUserRejected = 4001

// CodeUserDisconnected is the reason code sent when the dapp ends a session
const CodeUserDisconnected = 6000

// RPCError is a JSON-RPC error object. Error returns the wallet's message
// unchanged so it can be shown to the user verbatim.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return "relay error " + strconv.Itoa(e.Code)
	}
	return e.Message
}

// Namespace is a CAIP-25 namespace entry
type Namespace struct {
	Chains   []string `json:"chains,omitempty"`
	Methods  []string `json:"methods"`
	Events   []string `json:"events"`
	Accounts []string `json:"accounts,omitempty"`
}

// Metadata describes this application to relay wallets
type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons"`
}

// Proposal asks a wallet to approve a session
type Proposal struct {
	Namespaces map[string]Namespace `json:"requiredNamespaces"`
	Metadata   Metadata             `json:"metadata"`
}

// RelaySession is an approved relay session
type RelaySession struct {
	Topic      string               `json:"topic"`
	Namespaces map[string]Namespace `json:"namespaces"`
}

// RelayRequest is a signed request routed over an approved session
type RelayRequest struct {
	Topic   string
	ChainID string
	Method  string
	Params  any
}

// RelayTransport carries session negotiation and requests to the relay
type RelayTransport interface {
	// Init establishes the relay connection. It must be called before Propose.
	Init(ctx context.Context) error
	// Propose blocks until the wallet approves or rejects the session.
	Propose(ctx context.Context, proposal Proposal) (RelaySession, error)
	Request(ctx context.Context, req RelayRequest) (json.RawMessage, error)
	Delete(ctx context.Context, topic string) error
	Close() error
}

// CloseNotifier is implemented by transports that can report the relay
// connection dropping on its own
type CloseNotifier interface {
	OnClose(fn func(error))
}

// RelayConfig configures a RelayAdapter
type RelayConfig struct {
	ProjectID       string
	Network         string
	ChainID         string
	ContractAddress string
	ContractName    string
	App             AppDetails
	Description     string
	URL             string
}

// Signature is returned by the message signing methods
type Signature struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey,omitempty"`
}

// SignedTransaction is returned by stx_signTransaction. TxID is only set
// when the wallet broadcast the transaction.
type SignedTransaction struct {
	Signature   string `json:"signature,omitempty"`
	Transaction string `json:"transaction"`
	TxID        string `json:"txid,omitempty"`
}

type txResult struct {
	TxID        string `json:"txid"`
	Transaction string `json:"transaction,omitempty"`
}

// RelayAdapter is the relay-based wallet backend. Connecting is a two-phase
// handshake: Init opens the relay, Connect asks the wallet for approval.
type RelayAdapter struct {
	cfg       RelayConfig
	transport RelayTransport
	state     *sessionState
	logger    *zap.Logger

	initMu sync.Mutex
	mu     sync.Mutex
	ready  bool
	lost   bool
	topic  string
}

// Ensure RelayAdapter implements Adapter
var _ Adapter = (*RelayAdapter)(nil)

// NewRelayAdapter fails with ErrMissingProjectID when no relay project id
// is configured
func NewRelayAdapter(cfg RelayConfig, transport RelayTransport) (*RelayAdapter, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, ErrMissingProjectID
	}
	if cfg.ChainID == "" {
		cfg.ChainID = StacksNamespace + ":" + cfg.Network
	}
	a := &RelayAdapter{
		cfg:       cfg,
		transport: transport,
		state:     newSessionState(),
		logger:    logger.Log.With(zap.String("wallet", string(KindRelay))),
	}
	if n, ok := transport.(CloseNotifier); ok {
		n.OnClose(a.transportLost)
	}
	return a, nil
}

// Kind reports KindRelay
func (a *RelayAdapter) Kind() Kind {
	return KindRelay
}

// Session returns the current session snapshot
func (a *RelayAdapter) Session() Session {
	return a.state.get()
}

// Subscribe registers fn for session changes
func (a *RelayAdapter) Subscribe(fn func(Session)) func() {
	return a.state.subscribe(fn)
}

// Address returns the connected account
func (a *RelayAdapter) Address() (string, bool) {
	s := a.state.get()
	return s.Address, s.Connected()
}

// Ready reports whether Init has completed
func (a *RelayAdapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Init opens the relay connection. On success the session moves from idle
// (or from error after a lost connection) to disconnected; on failure it
// moves to error.
func (a *RelayAdapter) Init(ctx context.Context) error {
	a.initMu.Lock()
	defer a.initMu.Unlock()
	if a.Ready() {
		return nil
	}

	if err := a.transport.Init(ctx); err != nil {
		a.state.fail(err.Error())
		a.logger.Error("failed to initialize relay", zap.Error(err))
		return fmt.Errorf("failed to initialize relay: %w", err)
	}
	a.mu.Lock()
	a.ready = true
	a.lost = false
	a.mu.Unlock()
	if status := a.state.get().Status; status == StatusIdle || status == StatusError {
		a.state.set(Session{Status: StatusDisconnected})
	}
	a.logger.Info("relay initialized")
	return nil
}

// Connect proposes a session to the wallet and reads back its accounts
func (a *RelayAdapter) Connect(ctx context.Context) error {
	switch a.state.get().Status {
	case StatusConnected:
		return nil
	case StatusPending:
		return fmt.Errorf("%w: connection already in progress", ErrNotReady)
	}
	if !a.Ready() {
		if !a.wasLost() {
			a.state.fail(ErrNotReady.Error())
			return ErrNotReady
		}
		// the relay dropped after a successful Init, so redial
		if err := a.Init(ctx); err != nil {
			return err
		}
	}
	a.state.set(Session{Status: StatusPending})

	session, err := a.transport.Propose(ctx, a.proposal())
	if err != nil {
		a.checkTransport(err)
		a.state.fail(err.Error())
		a.logger.Warn("relay session proposal failed", zap.Error(err))
		return fmt.Errorf("relay connection failed: %w", err)
	}

	var resp struct {
		Addresses []AddressEntry `json:"addresses"`
	}
	raw, err := a.transport.Request(ctx, RelayRequest{
		Topic:   session.Topic,
		ChainID: a.cfg.ChainID,
		Method:  MethodGetAddresses,
		Params:  struct{}{},
	})
	if err == nil {
		err = decodeResult(raw, &resp)
	}
	address := PickSTXAddress(resp.Addresses)
	if err == nil && address == "" {
		err = fmt.Errorf("%w: wallet returned no Stacks address", ErrNotConnected)
	}
	if err != nil {
		a.checkTransport(err)
		if delErr := a.transport.Delete(ctx, session.Topic); delErr != nil {
			a.logger.Debug("failed to delete unusable relay session", zap.Error(delErr))
		}
		a.state.fail(err.Error())
		return fmt.Errorf("relay connection failed: %w", err)
	}

	a.mu.Lock()
	a.topic = session.Topic
	a.mu.Unlock()
	a.state.set(Session{Status: StatusConnected, Address: address})
	a.logger.Info("wallet connected", zap.String("address", address), zap.String("topic", session.Topic))
	return nil
}

// Disconnect ends the relay session if one exists
func (a *RelayAdapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	topic := a.topic
	a.topic = ""
	a.mu.Unlock()

	if topic != "" {
		if err := a.transport.Delete(ctx, topic); err != nil {
			a.logger.Warn("failed to delete relay session", zap.String("topic", topic), zap.Error(err))
		}
	}
	a.state.set(Session{Status: StatusDisconnected})
	return nil
}

// Request sends a raw JSON-RPC request over the active session
func (a *RelayAdapter) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	a.mu.Lock()
	topic := a.topic
	a.mu.Unlock()
	if topic == "" || !a.state.get().Connected() {
		return nil, ErrNotConnected
	}
	raw, err := a.transport.Request(ctx, RelayRequest{
		Topic:   topic,
		ChainID: a.cfg.ChainID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		a.checkTransport(err)
		return nil, classifyFailure(err)
	}
	return raw, nil
}

// RequestSignedCall sends stx_callContract for the lending contract
func (a *RelayAdapter) RequestSignedCall(ctx context.Context, call ContractCall) (string, error) {
	args, err := encodeArgs(call.Args)
	if err != nil {
		return "", submissionError(err)
	}
	return a.requestTx(ctx, MethodCallContract, map[string]any{
		"contract":     a.cfg.ContractAddress + "." + a.cfg.ContractName,
		"functionName": call.FunctionName,
		"functionArgs": args,
	})
}

// TransferNative sends stx_transferStx
func (a *RelayAdapter) TransferNative(ctx context.Context, transfer Transfer) (string, error) {
	sender, ok := a.Address()
	if !ok {
		return "", ErrNotConnected
	}
	return a.requestTx(ctx, MethodTransferSTX, map[string]any{
		"sender":    sender,
		"recipient": transfer.Recipient,
		"amount":    strconv.FormatUint(transfer.Amount, 10),
		"memo":      transfer.Memo,
		"network":   a.cfg.Network,
	})
}

// SignMessage asks the wallet to sign a UTF-8 message
func (a *RelayAdapter) SignMessage(ctx context.Context, message string) (Signature, error) {
	sender, ok := a.Address()
	if !ok {
		return Signature{}, ErrNotConnected
	}
	var sig Signature
	err := a.requestInto(ctx, MethodSignMessage, map[string]any{
		"address":     sender,
		"message":     message,
		"messageType": "utf8",
		"network":     a.cfg.Network,
	}, &sig)
	return sig, err
}

// SignStructuredMessage asks the wallet for a domain-bound signature
func (a *RelayAdapter) SignStructuredMessage(ctx context.Context, message, domain any) (Signature, error) {
	var sig Signature
	err := a.requestInto(ctx, MethodSignStructuredMessage, map[string]any{
		"message": message,
		"domain":  domain,
	}, &sig)
	return sig, err
}

// SignTransaction asks the wallet to sign a serialized transaction and
// optionally broadcast it
func (a *RelayAdapter) SignTransaction(ctx context.Context, txHex string, broadcast bool) (SignedTransaction, error) {
	var signed SignedTransaction
	err := a.requestInto(ctx, MethodSignTransaction, map[string]any{
		"transaction": txHex,
		"broadcast":   broadcast,
		"network":     a.cfg.Network,
	}, &signed)
	return signed, err
}

// Close tears down the relay connection
func (a *RelayAdapter) Close() error {
	a.mu.Lock()
	a.ready = false
	a.topic = ""
	a.mu.Unlock()
	return a.transport.Close()
}

func (a *RelayAdapter) wasLost() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lost
}

// checkTransport treats a closed-transport error as the relay dropping
func (a *RelayAdapter) checkTransport(err error) {
	if errors.Is(err, ErrTransportClosed) {
		a.transportLost(err)
	}
}

// transportLost moves a ready adapter to error and forgets its session so
// the next Connect redials the relay
func (a *RelayAdapter) transportLost(err error) {
	a.mu.Lock()
	if !a.ready {
		a.mu.Unlock()
		return
	}
	a.ready = false
	a.lost = true
	topic := a.topic
	a.topic = ""
	a.mu.Unlock()

	a.state.fail(err.Error())
	a.logger.Warn("relay connection lost", zap.String("topic", topic), zap.Error(err))
}

func (a *RelayAdapter) requestTx(ctx context.Context, method string, params any) (string, error) {
	var result txResult
	if err := a.requestInto(ctx, method, params, &result); err != nil {
		return "", err
	}
	if result.TxID == "" {
		return "", submissionError(errors.New("wallet response did not include a transaction id"))
	}
	return result.TxID, nil
}

func (a *RelayAdapter) requestInto(ctx context.Context, method string, params, out any) error {
	raw, err := a.Request(ctx, method, params)
	if err != nil {
		return err
	}
	if err := decodeResult(raw, out); err != nil {
		return submissionError(err)
	}
	return nil
}

func (a *RelayAdapter) proposal() Proposal {
	icons := []string{}
	if a.cfg.App.Icon != "" {
		icons = append(icons, a.cfg.App.Icon)
	}
	return Proposal{
		Namespaces: map[string]Namespace{
			StacksNamespace: {
				Chains: []string{a.cfg.ChainID},
				Methods: []string{
					MethodGetAddresses,
					MethodTransferSTX,
					MethodSignTransaction,
					MethodSignMessage,
					MethodSignStructuredMessage,
					MethodCallContract,
				},
				Events: []string{},
			},
		},
		Metadata: Metadata{
			Name:        a.cfg.App.Name,
			Description: a.cfg.Description,
			URL:         a.cfg.URL,
			Icons:       icons,
		},
	}
}

func decodeResult(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("empty wallet response")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode wallet response: %w", err)
	}
	return nil
}
