package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/chain"
	httpClient "github.com/bituzin/stacks-boost-app/internal/client/http"
	"github.com/bituzin/stacks-boost-app/internal/config"
	"github.com/bituzin/stacks-boost-app/internal/helpers"
	"github.com/bituzin/stacks-boost-app/internal/journal"
	"github.com/bituzin/stacks-boost-app/internal/lifecycle"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/metrics"
	"github.com/bituzin/stacks-boost-app/internal/reconcile"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"go.uber.org/zap"
)

// ErrJournalDisabled is returned by History when no journal is configured
var ErrJournalDisabled = errors.New("transaction journal is disabled")

// History lists journaled submissions
type History interface {
	List(ctx context.Context, limit int) ([]journal.Entry, error)
}

// WalletInfo describes one registered wallet backend
type WalletInfo struct {
	Kind    wallet.Kind    `json:"kind"`
	Active  bool           `json:"active"`
	Session wallet.Session `json:"session"`
}

// Engine composes the wallet selector, the lifecycle controller and the
// reconciliation loop over one chain client
type Engine struct {
	cfg        *config.Config
	chain      chain.Querier
	lending    *chain.LendingContract
	selector   *wallet.Selector
	relay      *wallet.RelayAdapter
	controller *lifecycle.Controller
	loop       *reconcile.Loop
	history    History
	metrics    *metrics.Registry
	logger     *zap.Logger

	unsubscribe func()
}

type options struct {
	querier        chain.Querier
	bridge         wallet.ExtensionBridge
	relayTransport wallet.RelayTransport
	journal        *journal.Journal
	metrics        *metrics.Registry
	sleep          helpers.SleepFunc
	lifecycleOpts  []lifecycle.Option
	reconcileOpts  []reconcile.Option
}

// Option configures an Engine
type Option func(*options)

// WithQuerier replaces the Hiro API client
func WithQuerier(q chain.Querier) Option {
	return func(o *options) {
		o.querier = q
	}
}

// WithExtensionBridge replaces the HTTP companion bridge
func WithExtensionBridge(b wallet.ExtensionBridge) Option {
	return func(o *options) {
		o.bridge = b
	}
}

// WithRelayTransport replaces the websocket relay transport
func WithRelayTransport(t wallet.RelayTransport) Option {
	return func(o *options) {
		o.relayTransport = t
	}
}

// WithJournal records submissions and serves History
func WithJournal(j *journal.Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithMetrics wires every component to the registry
func WithMetrics(m *metrics.Registry) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSleep replaces the timer used by confirmation polling and refresh bursts
func WithSleep(sleep helpers.SleepFunc) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// WithLifecycleOptions forwards options to the controller
func WithLifecycleOptions(opts ...lifecycle.Option) Option {
	return func(o *options) {
		o.lifecycleOpts = append(o.lifecycleOpts, opts...)
	}
}

// WithReconcileOptions forwards options to the reconciliation loop
func WithReconcileOptions(opts ...reconcile.Option) Option {
	return func(o *options) {
		o.reconcileOpts = append(o.reconcileOpts, opts...)
	}
}

// New builds the engine. The relay wallet is registered only when a project
// id is configured.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		cfg:     cfg,
		metrics: o.metrics,
		logger:  logger.Log.With(zap.String("component", "engine")),
	}

	var httpOpts []httpClient.ClientOption
	if o.metrics != nil {
		httpOpts = append(httpOpts, httpClient.WithMetricsCollector(o.metrics))
	}

	e.chain = o.querier
	if e.chain == nil {
		retry := httpClient.DefaultRetryConfig()
		retry.MaxRetries = cfg.ChainMaxRetries
		chainHTTP := append([]httpClient.ClientOption{
			httpClient.WithTimeout(cfg.ChainTimeout),
			httpClient.WithRetryConfig(retry),
		}, httpOpts...)
		e.chain = chain.NewClient(cfg.APIBaseURL(),
			chain.WithRateLimit(cfg.ChainRequestsPerSecond, cfg.ChainRequestBurst),
			chain.WithHTTPOptions(chainHTTP...))
	}
	e.lending = chain.NewLendingContract(e.chain, cfg.ContractAddress, cfg.ContractName)

	adapters, err := e.buildAdapters(o, httpOpts)
	if err != nil {
		return nil, err
	}
	e.selector = wallet.NewSelector(adapters...)

	loopOpts := []reconcile.Option{}
	if o.sleep != nil {
		loopOpts = append(loopOpts, reconcile.WithSleep(o.sleep))
	}
	if o.metrics != nil {
		loopOpts = append(loopOpts, reconcile.WithObserver(o.metrics))
	}
	e.loop = reconcile.NewLoop(e.lending, append(loopOpts, o.reconcileOpts...)...)

	ctrlOpts := []lifecycle.Option{
		lifecycle.WithDepositSource(e.loop),
		lifecycle.WithOnSettled(func(txID string) {
			e.logger.Debug("refreshing position after settlement", zap.String("tx_id", txID))
			e.loop.Burst()
		}),
		lifecycle.WithExplorerURL(cfg.ExplorerTxURL),
		lifecycle.WithNetwork(cfg.IsMainnet()),
	}
	if o.sleep != nil {
		ctrlOpts = append(ctrlOpts, lifecycle.WithSleep(o.sleep))
	}
	if o.journal != nil {
		ctrlOpts = append(ctrlOpts, lifecycle.WithRecorder(o.journal))
		e.history = o.journal
	}
	if o.metrics != nil {
		ctrlOpts = append(ctrlOpts, lifecycle.WithObserver(o.metrics))
	}
	e.controller = lifecycle.NewController(e.selector, e.chain, append(ctrlOpts, o.lifecycleOpts...)...)

	e.unsubscribe = e.selector.Subscribe(e.sessionChanged)
	return e, nil
}

func (e *Engine) buildAdapters(o *options, httpOpts []httpClient.ClientOption) ([]wallet.Adapter, error) {
	bridge := o.bridge
	if bridge == nil {
		bridge = wallet.NewHTTPBridge(e.cfg.ExtensionBridgeURL, httpOpts)
	}
	adapters := []wallet.Adapter{
		wallet.NewExtensionAdapter(wallet.ExtensionConfig{
			Network:         e.cfg.Network,
			ContractAddress: e.cfg.ContractAddress,
			ContractName:    e.cfg.ContractName,
			App:             e.cfg.AppDetails(),
		}, bridge),
	}

	transport := o.relayTransport
	if transport == nil && e.cfg.WalletConnectProjectID != "" {
		transport = wallet.NewWSTransport(e.cfg.WalletConnectRelayURL, e.cfg.WalletConnectProjectID)
	}
	relay, err := wallet.NewRelayAdapter(wallet.RelayConfig{
		ProjectID:       e.cfg.WalletConnectProjectID,
		Network:         e.cfg.Network,
		ChainID:         e.cfg.ChainID(),
		ContractAddress: e.cfg.ContractAddress,
		ContractName:    e.cfg.ContractName,
		App:             e.cfg.AppDetails(),
		Description:     config.RelayDescription,
		URL:             e.cfg.AppURL,
	}, transport)
	switch {
	case errors.Is(err, wallet.ErrMissingProjectID):
		e.logger.Warn("relay wallet disabled", zap.Error(err))
	case err != nil:
		return nil, fmt.Errorf("failed to create relay wallet: %w", err)
	default:
		e.relay = relay
		adapters = append(adapters, relay)
	}
	return adapters, nil
}

// Start runs the relay handshake. A failed handshake leaves the relay wallet
// in the error state and is not fatal.
func (e *Engine) Start(ctx context.Context) {
	if e.relay == nil {
		return
	}
	if err := e.relay.Init(ctx); err != nil {
		e.logger.Warn("relay wallet initialization failed", zap.Error(err))
	}
}

// Close stops background work and releases wallet transports
func (e *Engine) Close() {
	e.unsubscribe()
	e.controller.Close()
	e.loop.Close()
	e.selector.Close()
	if e.relay != nil {
		if err := e.relay.Close(); err != nil {
			e.logger.Warn("failed to close relay wallet", zap.Error(err))
		}
	}
}

// sessionChanged keeps reconciliation bound to the active connected account
func (e *Engine) sessionChanged(kind wallet.Kind, session wallet.Session) {
	if e.metrics != nil && kind != wallet.KindNone {
		e.metrics.WalletSession(kind, session)
	}
	if session.Connected() {
		e.loop.Start(session.Address)
		return
	}
	e.loop.Stop()
}

// Config returns the engine configuration
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Wallets lists the registered backends and their sessions
func (e *Engine) Wallets() []WalletInfo {
	active := e.selector.ActiveKind()
	kinds := e.selector.Kinds()
	out := make([]WalletInfo, 0, len(kinds))
	for _, kind := range kinds {
		a, _ := e.selector.Adapter(kind)
		out = append(out, WalletInfo{Kind: kind, Active: kind == active, Session: a.Session()})
	}
	return out
}

// ActiveWallet returns the selected kind and its session
func (e *Engine) ActiveWallet() (wallet.Kind, wallet.Session) {
	return e.selector.ActiveKind(), e.selector.Session()
}

// SelectWallet switches the active backend
func (e *Engine) SelectWallet(kind wallet.Kind) error {
	return e.selector.Select(kind)
}

// Connect connects the active wallet
func (e *Engine) Connect(ctx context.Context) error {
	return e.selector.Connect(ctx)
}

// Disconnect disconnects the active wallet
func (e *Engine) Disconnect(ctx context.Context) error {
	return e.selector.Disconnect(ctx)
}

// Position returns the last reconciled lending position
func (e *Engine) Position() reconcile.Position {
	return e.loop.Position()
}

// RefreshPosition reconciles now and returns the result
func (e *Engine) RefreshPosition(ctx context.Context) reconcile.Position {
	return e.loop.Refresh(ctx)
}

// PositionOf reads the lending position of any address without touching the
// reconciled state
func (e *Engine) PositionOf(ctx context.Context, address string) (reconcile.Position, error) {
	address, err := e.resolveAddress(address)
	if err != nil {
		return reconcile.Position{}, err
	}
	deposited, err := e.lending.Deposited(ctx, address)
	if err != nil {
		return reconcile.Position{}, err
	}
	borrowed, err := e.lending.Borrowed(ctx, address)
	if err != nil {
		return reconcile.Position{}, err
	}
	return reconcile.Position{
		Address:        address,
		Deposited:      deposited,
		DepositedKnown: true,
		Borrowed:       borrowed,
		BorrowedKnown:  true,
		UpdatedAt:      time.Now(),
	}, nil
}

// Submit runs a lending action through the lifecycle controller
func (e *Engine) Submit(ctx context.Context, req lifecycle.Request) (*lifecycle.Submission, error) {
	return e.controller.Submit(ctx, req)
}

// Lifecycle returns the controller snapshot
func (e *Engine) Lifecycle() lifecycle.Snapshot {
	return e.controller.Snapshot()
}

// Balances reads the account balances of address, or of the connected
// account when address is empty
func (e *Engine) Balances(ctx context.Context, address string) (*chain.AccountBalance, error) {
	address, err := e.resolveAddress(address)
	if err != nil {
		return nil, err
	}
	return e.chain.GetAccountBalance(ctx, address)
}

// SBTCBalance extracts the configured sBTC token from balances
func (e *Engine) SBTCBalance(b *chain.AccountBalance) uint64 {
	return b.TokenBalance(e.cfg.SBTCAssetID())
}

// Transactions lists recent transactions of address, or of the connected
// account when address is empty
func (e *Engine) Transactions(ctx context.Context, address string, limit int) ([]chain.TransactionSummary, error) {
	address, err := e.resolveAddress(address)
	if err != nil {
		return nil, err
	}
	return e.chain.GetRecentTransactions(ctx, address, limit)
}

// TransactionStatus looks up a single transaction
func (e *Engine) TransactionStatus(ctx context.Context, txID string) (*chain.TransactionStatus, error) {
	return e.chain.GetTransactionStatus(ctx, txID)
}

// History lists journaled submissions
func (e *Engine) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	if e.history == nil {
		return nil, ErrJournalDisabled
	}
	return e.history.List(ctx, limit)
}

// Relay returns the relay adapter when one is registered
func (e *Engine) Relay() (*wallet.RelayAdapter, bool) {
	return e.relay, e.relay != nil
}

func (e *Engine) resolveAddress(address string) (string, error) {
	if address != "" {
		return address, nil
	}
	if connected, ok := e.selector.Address(); ok {
		return connected, nil
	}
	return "", wallet.ErrNotConnected
}
