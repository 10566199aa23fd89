package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/amount"
	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/helpers"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidAmount is returned when a required amount is missing, malformed or zero
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidRecipient is returned for a transfer recipient outside this network
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrInsufficientBalance is returned when a withdrawal exceeds the known deposit
	ErrInsufficientBalance = errors.New("amount exceeds deposited balance")
	// ErrBusy is returned while another submission is in flight
	ErrBusy = errors.New("another transaction is in progress")
	// ErrChainRejected marks a transaction the chain settled as failed
	ErrChainRejected = errors.New("transaction rejected by chain")
	// ErrUnknownAction is returned for an unsupported action name
	ErrUnknownAction = errors.New("unknown action")
)

// DefaultPollDelays is the confirmation poll schedule. Each delay is waited
// before the corresponding status query.
var DefaultPollDelays = []time.Duration{
	2 * time.Second,
	4 * time.Second,
	6 * time.Second,
	8 * time.Second,
	12 * time.Second,
}

const (
	noticeCancelled     = "Transaction cancelled."
	defaultFailure      = "Transaction failed."
	noticeInvalidAmount = "Enter a valid amount (up to 6 decimals)."
	noticeInsufficient  = "Amount exceeds your deposited balance."
	noticeNoWallet      = "Select a wallet first."
	noticeNotConnected  = "Connect a wallet first."
	noticeRecipient     = "Enter a valid recipient address."
)

// WalletSource yields the adapter that should sign the next submission
type WalletSource interface {
	Active() (wallet.Adapter, error)
}

// StatusQuerier looks up a transaction's chain status
type StatusQuerier interface {
	GetTransactionStatus(ctx context.Context, txID string) (*chain.TransactionStatus, error)
}

// DepositSource reports the most recently known deposited balance
type DepositSource interface {
	Deposited() (uint64, bool)
}

// Recorder persists submissions and their settlement
type Recorder interface {
	RecordSubmitted(ctx context.Context, sub Submission) error
	RecordSettled(ctx context.Context, txID string, status chain.TxStatus, detail string) error
}

// Observer receives lifecycle events for metrics
type Observer interface {
	Submitted(action Action, kind wallet.Kind)
	SubmitFailed(action Action, reason string)
	PollAttempt(outcome string)
	Settled(action Action, status chain.TxStatus)
}

// Controller runs the submit, poll and settle state machine. At most one
// transaction is in flight.
type Controller struct {
	wallets  WalletSource
	statuses StatusQuerier
	deposits DepositSource
	recorder Recorder
	observer Observer

	pollDelays  []time.Duration
	sleep       helpers.SleepFunc
	onSettled   func(txID string)
	explorerURL func(txID string) string
	mainnet     bool
	logger      *zap.Logger

	mu       sync.Mutex
	snapshot Snapshot
	polling  bool
	gen      uint64

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Controller
type Option func(*Controller)

// WithPollDelays overrides the confirmation poll schedule
func WithPollDelays(delays []time.Duration) Option {
	return func(c *Controller) {
		c.pollDelays = append([]time.Duration(nil), delays...)
	}
}

// WithSleep replaces the timer used between poll attempts
func WithSleep(sleep helpers.SleepFunc) Option {
	return func(c *Controller) {
		c.sleep = sleep
	}
}

// WithOnSettled registers the hook run after a successful settlement
func WithOnSettled(fn func(txID string)) Option {
	return func(c *Controller) {
		c.onSettled = fn
	}
}

// WithDepositSource enables the optimistic withdraw check
func WithDepositSource(src DepositSource) Option {
	return func(c *Controller) {
		c.deposits = src
	}
}

// WithRecorder persists every submission
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithObserver reports lifecycle events
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithExplorerURL sets the explorer link builder
func WithExplorerURL(fn func(txID string) string) Option {
	return func(c *Controller) {
		c.explorerURL = fn
	}
}

// WithNetwork selects which address namespace transfer recipients must use
func WithNetwork(mainnet bool) Option {
	return func(c *Controller) {
		c.mainnet = mainnet
	}
}

// WithLogger overrides the controller logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates an idle controller
func NewController(wallets WalletSource, statuses StatusQuerier, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		wallets:    wallets,
		statuses:   statuses,
		pollDelays: DefaultPollDelays,
		sleep:      helpers.Sleep,
		mainnet:    true,
		logger:     logger.Log.With(zap.String("component", "lifecycle")),
		snapshot:   Snapshot{State: StateIdle},
		baseCtx:    ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.clone()
}

// Busy reports whether a new submission would be rejected
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busyLocked()
}

func (c *Controller) busyLocked() bool {
	switch c.snapshot.State {
	case StateValidating, StateSubmitting:
		return true
	case StateAwaitingConfirmation:
		return c.polling
	}
	return false
}

// Submit validates req, hands it to the active wallet and, once the wallet
// returns a transaction id, starts confirmation polling in the background.
// It returns after the wallet step; settlement is observed via Snapshot.
func (c *Controller) Submit(ctx context.Context, req Request) (*Submission, error) {
	c.mu.Lock()
	if c.busyLocked() {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.gen++
	gen := c.gen
	c.snapshot = Snapshot{State: StateValidating, UpdatedAt: time.Now()}
	c.mu.Unlock()

	adapter, call, sub, err := c.validate(req)
	if err != nil {
		c.reject(gen, req.Action, err, noticeFor(err))
		return nil, err
	}

	pending := *sub
	c.transition(gen, func(s *Snapshot) {
		s.State = StateSubmitting
		s.Submission = &pending
	})
	c.logger.Info("submitting transaction",
		zap.String("action", string(sub.Action)),
		zap.String("wallet", string(sub.WalletKind)),
		zap.String("submission_id", sub.ID))

	var txID string
	if req.Action == ActionTransfer {
		txID, err = adapter.TransferNative(ctx, wallet.Transfer{
			Recipient: sub.Recipient,
			Amount:    sub.Amount,
			Memo:      req.Memo,
		})
	} else {
		txID, err = adapter.RequestSignedCall(ctx, call)
	}
	if err != nil {
		if errors.Is(err, wallet.ErrUserCancelled) {
			c.logger.Info("transaction cancelled by user", zap.String("submission_id", sub.ID))
			c.reject(gen, req.Action, err, noticeCancelled)
			return nil, err
		}
		c.logger.Warn("transaction submission failed", zap.String("submission_id", sub.ID), zap.Error(err))
		c.reject(gen, req.Action, err, err.Error())
		return nil, err
	}

	sub.TxID = txID
	sub.SubmittedAt = time.Now()
	if c.explorerURL != nil {
		sub.ExplorerURL = c.explorerURL(txID)
	}

	submitted := *sub
	c.mu.Lock()
	c.snapshot.State = StateAwaitingConfirmation
	c.snapshot.Submission = &submitted
	c.snapshot.TxStatus = chain.StatusPending
	c.snapshot.Notice = sub.Message
	c.snapshot.UpdatedAt = time.Now()
	c.polling = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.poll(gen, *sub)

	if c.observer != nil {
		c.observer.Submitted(sub.Action, sub.WalletKind)
	}
	if c.recorder != nil {
		if err := c.recorder.RecordSubmitted(ctx, *sub); err != nil {
			c.logger.Warn("failed to record submission", zap.String("tx_id", txID), zap.Error(err))
		}
	}
	c.logger.Info("transaction submitted",
		zap.String("action", string(sub.Action)),
		zap.String("tx_id", txID),
		zap.String("submission_id", sub.ID))

	out := *sub
	return &out, nil
}

// Close stops any confirmation poll and waits for it to exit
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) validate(req Request) (wallet.Adapter, wallet.ContractCall, *Submission, error) {
	var call wallet.ContractCall

	adapter, err := c.wallets.Active()
	if err != nil {
		return nil, call, nil, err
	}
	if _, ok := adapter.Address(); !ok {
		return nil, call, nil, wallet.ErrNotConnected
	}

	sub := &Submission{
		ID:         uuid.NewString(),
		Action:     req.Action,
		WalletKind: adapter.Kind(),
	}

	switch req.Action {
	case ActionDeposit, ActionWithdraw:
		amt, err := parsePositive("amount", req.Amount)
		if err != nil {
			return nil, call, nil, err
		}
		if req.Action == ActionWithdraw && c.deposits != nil {
			if deposited, known := c.deposits.Deposited(); known && amt > deposited {
				return nil, call, nil, fmt.Errorf("%w: requested %s, deposited %s",
					ErrInsufficientBalance, amount.FormatWithSymbol(amt), amount.FormatWithSymbol(deposited))
			}
		}
		sub.Amount = amt
		call = wallet.ContractCall{FunctionName: req.Action.functionName(), Args: []clarity.Value{clarity.NewUInt(amt)}}

	case ActionBorrow:
		collateral, err := parsePositive("collateral", req.Collateral)
		if err != nil {
			return nil, call, nil, err
		}
		borrow, err := parsePositive("amount", req.Amount)
		if err != nil {
			return nil, call, nil, err
		}
		sub.Amount = borrow
		sub.Collateral = collateral
		call = wallet.ContractCall{
			FunctionName: req.Action.functionName(),
			Args:         []clarity.Value{clarity.NewUInt(collateral), clarity.NewUInt(borrow)},
		}

	case ActionRepay:
		call = wallet.ContractCall{FunctionName: req.Action.functionName()}

	case ActionTransfer:
		amt, err := parsePositive("amount", req.Amount)
		if err != nil {
			return nil, call, nil, err
		}
		if err := c.checkRecipient(req.Recipient); err != nil {
			return nil, call, nil, err
		}
		sub.Amount = amt
		sub.Recipient = req.Recipient

	default:
		return nil, call, nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	sub.Message = submittedMessage(sub)
	return adapter, call, sub, nil
}

func (c *Controller) checkRecipient(recipient string) error {
	if recipient == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidRecipient)
	}
	version, _, err := clarity.ParseAddress(recipient)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	ok := clarity.IsTestnetVersion(version)
	if c.mainnet {
		ok = clarity.IsMainnetVersion(version)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not an address on this network", ErrInvalidRecipient, recipient)
	}
	return nil
}

func (c *Controller) poll(gen uint64, sub Submission) {
	defer c.wg.Done()
	ctx := c.baseCtx
	log := c.logger.With(zap.String("tx_id", sub.TxID))

	for i, delay := range c.pollDelays {
		if err := c.sleep(ctx, delay); err != nil {
			c.stopPolling(gen)
			return
		}

		status, err := c.statuses.GetTransactionStatus(ctx, sub.TxID)
		if err != nil {
			if ctx.Err() != nil {
				c.stopPolling(gen)
				return
			}
			log.Debug("confirmation poll failed", zap.Int("attempt", i+1), zap.Error(err))
			c.observePoll("error")
			c.transition(gen, func(s *Snapshot) {
				s.PollAttempts = i + 1
				s.PollError = err.Error()
			})
			continue
		}

		log.Debug("confirmation poll", zap.Int("attempt", i+1), zap.String("status", string(status.Status)))
		c.observePoll(string(status.Status))
		if !status.Status.Terminal() {
			c.transition(gen, func(s *Snapshot) {
				s.PollAttempts = i + 1
				s.PollError = ""
				s.TxStatus = status.Status
			})
			continue
		}

		c.settle(gen, sub, i+1, status)
		return
	}

	c.mu.Lock()
	if c.gen == gen {
		c.polling = false
		c.snapshot.PollExhausted = true
		c.snapshot.UpdatedAt = time.Now()
	}
	c.mu.Unlock()
	log.Warn("confirmation poll budget exhausted, transaction still pending",
		zap.Int("attempts", len(c.pollDelays)))
}

func (c *Controller) settle(gen uint64, sub Submission, attempts int, status *chain.TransactionStatus) {
	detail := ""
	state := StateSettledSuccess
	if status.Status.Failed() {
		state = StateSettledFailed
		detail = status.ResultRepr
		if detail == "" {
			detail = defaultFailure
		}
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.polling = false
	c.snapshot.State = state
	c.snapshot.TxStatus = status.Status
	c.snapshot.PollAttempts = attempts
	c.snapshot.PollError = ""
	c.snapshot.FailureDetail = detail
	c.snapshot.UpdatedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("transaction settled",
		zap.String("tx_id", sub.TxID),
		zap.String("status", string(status.Status)),
		zap.Int("attempts", attempts))

	if c.observer != nil {
		c.observer.Settled(sub.Action, status.Status)
	}
	if c.recorder != nil {
		if err := c.recorder.RecordSettled(c.baseCtx, sub.TxID, status.Status, detail); err != nil {
			c.logger.Warn("failed to record settlement", zap.String("tx_id", sub.TxID), zap.Error(err))
		}
	}
	if state == StateSettledSuccess && c.onSettled != nil {
		c.onSettled(sub.TxID)
	}
}

func (c *Controller) stopPolling(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.polling = false
	}
}

func (c *Controller) reject(gen uint64, action Action, err error, notice string) {
	c.transition(gen, func(s *Snapshot) {
		*s = Snapshot{State: StateIdle, Notice: notice, LastError: err.Error()}
	})
	if c.observer != nil {
		c.observer.SubmitFailed(action, reasonFor(err))
	}
}

func (c *Controller) transition(gen uint64, fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	fn(&c.snapshot)
	c.snapshot.UpdatedAt = time.Now()
}

func (c *Controller) observePoll(outcome string) {
	if c.observer != nil {
		c.observer.PollAttempt(outcome)
	}
}

func parsePositive(field, text string) (uint64, error) {
	v, ok := amount.Parse(text)
	if !ok || v == 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidAmount, field, text)
	}
	return v, nil
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return noticeInvalidAmount
	case errors.Is(err, ErrInsufficientBalance):
		return noticeInsufficient
	case errors.Is(err, ErrInvalidRecipient):
		return noticeRecipient
	case errors.Is(err, wallet.ErrNoWalletSelected):
		return noticeNoWallet
	case errors.Is(err, wallet.ErrNotConnected):
		return noticeNotConnected
	}
	return err.Error()
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidRecipient), errors.Is(err, ErrUnknownAction):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, wallet.ErrNoWalletSelected), errors.Is(err, wallet.ErrNotConnected):
		return "not_connected"
	case errors.Is(err, wallet.ErrUserCancelled):
		return "cancelled"
	}
	return "submission_error"
}

func submittedMessage(sub *Submission) string {
	switch sub.Action {
	case ActionRepay:
		return "Repay submitted."
	case ActionDeposit:
		return fmt.Sprintf("Deposit submitted for %s STX.", amount.Format(sub.Amount))
	case ActionWithdraw:
		return fmt.Sprintf("Withdraw submitted for %s STX.", amount.Format(sub.Amount))
	case ActionBorrow:
		return fmt.Sprintf("Borrow submitted for %s STX.", amount.Format(sub.Amount))
	case ActionTransfer:
		return fmt.Sprintf("Transfer submitted for %s STX.", amount.Format(sub.Amount))
	}
	return ""
}
