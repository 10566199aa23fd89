package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bituzin/stacks-boost-app/internal/logger"

	"go.uber.org/zap"
)

// PostConditionModeAllow lets the contract move the caller's STX without
// explicit post conditions
const PostConditionModeAllow = "allow"

// FinishedTx is what a wallet reports when the user approves a request
type FinishedTx struct {
	TxID  string `json:"txId"`
	TxRaw string `json:"txRaw,omitempty"`
}

// ConnectOptions configures an authentication prompt
type ConnectOptions struct {
	App      AppDetails
	OnFinish func(addresses []AddressEntry)
	OnCancel func()
	OnError  func(error)
}

// ContractCallOptions configures a contract-call prompt
type ContractCallOptions struct {
	ContractAddress   string
	ContractName      string
	FunctionName      string
	FunctionArgs      []string
	Network           string
	PostConditionMode string
	App               AppDetails
	OnFinish          func(FinishedTx)
	OnCancel          func()
	OnError           func(error)
}

// STXTransferOptions configures a native transfer prompt
type STXTransferOptions struct {
	Recipient string
	Amount    string
	Memo      string
	Network   string
	App       AppDetails
	OnFinish  func(FinishedTx)
	OnCancel  func()
	OnError   func(error)
}

// ExtensionBridge is the callback-style surface of a directly attached
// wallet. Each Open*/Show* call returns once the prompt is opened; the
// outcome arrives later through exactly one of OnFinish, OnCancel or
// OnError.
type ExtensionBridge interface {
	ShowConnect(ctx context.Context, opts ConnectOptions) error
	OpenContractCall(ctx context.Context, opts ContractCallOptions) error
	OpenSTXTransfer(ctx context.Context, opts STXTransferOptions) error
	SignOut(ctx context.Context) error
}

// ExtensionConfig configures an ExtensionAdapter
type ExtensionConfig struct {
	Network         string
	ContractAddress string
	ContractName    string
	App             AppDetails
}

// ExtensionAdapter is the direct-extension wallet backend
type ExtensionAdapter struct {
	cfg    ExtensionConfig
	bridge ExtensionBridge
	state  *sessionState
	logger *zap.Logger
}

// Ensure ExtensionAdapter implements Adapter
var _ Adapter = (*ExtensionAdapter)(nil)

// NewExtensionAdapter creates an adapter in the idle state
func NewExtensionAdapter(cfg ExtensionConfig, bridge ExtensionBridge) *ExtensionAdapter {
	return &ExtensionAdapter{
		cfg:    cfg,
		bridge: bridge,
		state:  newSessionState(),
		logger: logger.Log.With(zap.String("wallet", string(KindExtension))),
	}
}

// Kind reports KindExtension
func (a *ExtensionAdapter) Kind() Kind {
	return KindExtension
}

// Session returns the current session snapshot
func (a *ExtensionAdapter) Session() Session {
	return a.state.get()
}

// Subscribe registers fn for session changes
func (a *ExtensionAdapter) Subscribe(fn func(Session)) func() {
	return a.state.subscribe(fn)
}

// Address returns the connected account
func (a *ExtensionAdapter) Address() (string, bool) {
	s := a.state.get()
	return s.Address, s.Connected()
}

// Connect opens the wallet's authentication prompt and waits for the answer
func (a *ExtensionAdapter) Connect(ctx context.Context) error {
	switch a.state.get().Status {
	case StatusConnected:
		return nil
	case StatusPending:
		return fmt.Errorf("%w: connection already in progress", ErrNotReady)
	}
	a.state.set(Session{Status: StatusPending})

	result := newFuture[[]AddressEntry]()
	err := a.bridge.ShowConnect(ctx, ConnectOptions{
		App:      a.cfg.App,
		OnFinish: func(addresses []AddressEntry) { result.resolve(addresses, nil) },
		OnCancel: func() { result.resolve(nil, cancelledError(errors.New("wallet connection cancelled"))) },
		OnError:  func(err error) { result.resolve(nil, err) },
	})
	if err != nil {
		a.state.fail(err.Error())
		a.logger.Warn("failed to open wallet connect prompt", zap.Error(err))
		return fmt.Errorf("failed to connect wallet: %w", err)
	}

	addresses, err := result.wait(ctx)
	if err != nil {
		a.state.fail(err.Error())
		return err
	}

	address := PickSTXAddress(addresses)
	if address == "" {
		a.state.fail("wallet returned no Stacks address")
		return fmt.Errorf("%w: wallet returned no Stacks address", ErrNotConnected)
	}

	a.state.set(Session{Status: StatusConnected, Address: address})
	a.logger.Info("wallet connected", zap.String("address", address))
	return nil
}

// Disconnect signs out of the wallet. Sign-out failures are logged and the
// local session is cleared regardless.
func (a *ExtensionAdapter) Disconnect(ctx context.Context) error {
	if a.state.get().Status == StatusConnected {
		if err := a.bridge.SignOut(ctx); err != nil {
			a.logger.Warn("wallet sign-out failed", zap.Error(err))
		}
	}
	a.state.set(Session{Status: StatusDisconnected})
	return nil
}

// RequestSignedCall opens a contract-call prompt and waits for the wallet's
// onFinish/onCancel callback
func (a *ExtensionAdapter) RequestSignedCall(ctx context.Context, call ContractCall) (string, error) {
	if _, ok := a.Address(); !ok {
		return "", ErrNotConnected
	}
	args, err := encodeArgs(call.Args)
	if err != nil {
		return "", submissionError(err)
	}

	result := newFuture[string]()
	err = a.bridge.OpenContractCall(ctx, ContractCallOptions{
		ContractAddress:   a.cfg.ContractAddress,
		ContractName:      a.cfg.ContractName,
		FunctionName:      call.FunctionName,
		FunctionArgs:      args,
		Network:           a.cfg.Network,
		PostConditionMode: PostConditionModeAllow,
		App:               a.cfg.App,
		OnFinish:          func(tx FinishedTx) { a.finish(result, tx) },
		OnCancel:          func() { a.cancel(result) },
		OnError:           func(err error) { a.fail(result, err) },
	})
	if err != nil {
		return "", classifyFailure(err)
	}
	return a.await(ctx, result)
}

// TransferNative opens an STX transfer prompt
func (a *ExtensionAdapter) TransferNative(ctx context.Context, transfer Transfer) (string, error) {
	if _, ok := a.Address(); !ok {
		return "", ErrNotConnected
	}

	result := newFuture[string]()
	err := a.bridge.OpenSTXTransfer(ctx, STXTransferOptions{
		Recipient: transfer.Recipient,
		Amount:    strconv.FormatUint(transfer.Amount, 10),
		Memo:      transfer.Memo,
		Network:   a.cfg.Network,
		App:       a.cfg.App,
		OnFinish:  func(tx FinishedTx) { a.finish(result, tx) },
		OnCancel:  func() { a.cancel(result) },
		OnError:   func(err error) { a.fail(result, err) },
	})
	if err != nil {
		return "", classifyFailure(err)
	}
	return a.await(ctx, result)
}

func (a *ExtensionAdapter) finish(result *future[string], tx FinishedTx) {
	var err error
	if tx.TxID == "" {
		err = submissionError(errors.New("wallet finished without a transaction id"))
	}
	if !result.resolve(tx.TxID, err) {
		a.logger.Warn("ignoring late wallet callback", zap.String("callback", "onFinish"))
	}
}

func (a *ExtensionAdapter) cancel(result *future[string]) {
	if !result.resolve("", cancelledError(errors.New("transaction cancelled"))) {
		a.logger.Warn("ignoring late wallet callback", zap.String("callback", "onCancel"))
	}
}

func (a *ExtensionAdapter) fail(result *future[string], err error) {
	if !result.resolve("", classifyFailure(err)) {
		a.logger.Warn("ignoring late wallet callback", zap.String("callback", "onError"), zap.Error(err))
	}
}

func (a *ExtensionAdapter) await(ctx context.Context, result *future[string]) (string, error) {
	txID, err := result.wait(ctx)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return "", submissionError(fmt.Errorf("gave up waiting for wallet: %w", err))
		}
		return "", err
	}
	return txID, nil
}
