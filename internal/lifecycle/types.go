package lifecycle

import (
	"fmt"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/wallet"
)

// Action is a user-facing lending operation
type Action string

const (
	ActionDeposit  Action = "deposit"
	ActionWithdraw Action = "withdraw"
	ActionBorrow   Action = "borrow"
	ActionRepay    Action = "repay"
	ActionTransfer Action = "transfer"
)

// ParseAction maps a name onto a known Action
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionDeposit, ActionWithdraw, ActionBorrow, ActionRepay, ActionTransfer:
		return a, true
	}
	return "", false
}

// functionName is the lending contract entry point for the action
func (a Action) functionName() string {
	switch a {
	case ActionDeposit:
		return "deposit-stx"
	case ActionWithdraw:
		return "withdraw-stx"
	case ActionBorrow:
		return "borrow-stx"
	case ActionRepay:
		return "repay"
	}
	return ""
}

// State is a lifecycle state
type State string

const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateSubmitting           State = "submitting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSettledSuccess       State = "settled_success"
	StateSettledFailed        State = "settled_failed"
)

// Request is a user action. Amounts are decimal STX text.
type Request struct {
	Action     Action `json:"action"`
	Amount     string `json:"amount,omitempty"`
	Collateral string `json:"collateral,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

// Submission is a request accepted by the wallet
type Submission struct {
	ID          string      `json:"id"`
	Action      Action      `json:"action"`
	WalletKind  wallet.Kind `json:"wallet"`
	TxID        string      `json:"tx_id,omitempty"`
	Amount      uint64      `json:"amount,omitempty"`
	Collateral  uint64      `json:"collateral,omitempty"`
	Recipient   string      `json:"recipient,omitempty"`
	Message     string      `json:"message"`
	ExplorerURL string      `json:"explorer_url,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at,omitempty"`
}

// Snapshot is the observable controller state
type Snapshot struct {
	State         State          `json:"state"`
	Submission    *Submission    `json:"submission,omitempty"`
	TxStatus      chain.TxStatus `json:"tx_status,omitempty"`
	FailureDetail string         `json:"failure_detail,omitempty"`
	PollAttempts  int            `json:"poll_attempts"`
	PollError     string         `json:"poll_error,omitempty"`
	PollExhausted bool           `json:"poll_exhausted"`
	Notice        string         `json:"notice,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Err returns an ErrChainRejected error for a settled-failed snapshot
func (s Snapshot) Err() error {
	if s.State != StateSettledFailed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrChainRejected, s.FailureDetail)
}

func (s Snapshot) clone() Snapshot {
	if s.Submission != nil {
		sub := *s.Submission
		s.Submission = &sub
	}
	return s
}
