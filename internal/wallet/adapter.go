package wallet

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bituzin/stacks-boost-app/internal/clarity"
)

var (
	// ErrNoWalletSelected is returned when no adapter is active
	ErrNoWalletSelected = errors.New("no wallet selected")
	// ErrNotConnected is returned for calls that need a connected session
	ErrNotConnected = errors.New("wallet not connected")
	// ErrUserCancelled is returned when the user declines in the wallet
	ErrUserCancelled = errors.New("transaction cancelled")
	// ErrSubmission covers wallet and transport failures while submitting
	ErrSubmission = errors.New("submission failed")
	// ErrNotReady is returned when the relay has not finished initializing
	ErrNotReady = errors.New("wallet is not ready yet")
	// ErrMissingProjectID is returned when the relay adapter has no project id
	ErrMissingProjectID = errors.New("missing WALLETCONNECT_PROJECT_ID: create a project on https://dashboard.walletconnect.com")
	// ErrUnknownWallet is returned for an unsupported adapter kind
	ErrUnknownWallet = errors.New("unknown wallet kind")
)

// Adapter is the capability set shared by every wallet backend
type Adapter interface {
	Kind() Kind
	Session() Session
	Address() (string, bool)
	// Connect is a no-op when the session is already connected
	Connect(ctx context.Context) error
	// Disconnect is idempotent and always clears the address
	Disconnect(ctx context.Context) error
	// RequestSignedCall returns only once the wallet has produced a
	// transaction id or the attempt has failed.
	RequestSignedCall(ctx context.Context, call ContractCall) (string, error)
	TransferNative(ctx context.Context, transfer Transfer) (string, error)
	Subscribe(fn func(Session)) (unsubscribe func())
}

// ContractCall is a state-changing call on the lending contract
type ContractCall struct {
	FunctionName string
	Args         []clarity.Value
}

// Transfer is a native STX transfer
type Transfer struct {
	Recipient string
	Amount    uint64
	Memo      string
}

// AppDetails identifies this application to wallets
type AppDetails struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// callError keeps the wallet's message verbatim while classifying it
type callError struct {
	kind  error
	cause error
}

func (e *callError) Error() string   { return e.cause.Error() }
func (e *callError) Unwrap() []error { return []error{e.kind, e.cause} }

func submissionError(cause error) error {
	return &callError{kind: ErrSubmission, cause: cause}
}

func cancelledError(cause error) error {
	return &callError{kind: ErrUserCancelled, cause: cause}
}

var cancelPattern = regexp.MustCompile(`(?i)cancel|reject`)

// classifyFailure decides between a user cancellation and a submission error
func classifyFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUserCancelled) || errors.Is(err, ErrSubmission) {
		return err
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected {
		return cancelledError(err)
	}
	if cancelPattern.MatchString(err.Error()) {
		return cancelledError(err)
	}
	return submissionError(err)
}

func encodeArgs(args []clarity.Value) ([]string, error) {
	encoded := make([]string, 0, len(args))
	for i, arg := range args {
		h, err := clarity.EncodeHex(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		encoded = append(encoded, h)
	}
	return encoded, nil
}

// AddressEntry is one account returned by a wallet
type AddressEntry struct {
	Symbol    string `json:"symbol,omitempty"`
	Address   string `json:"address,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
}

// PickSTXAddress chooses the Stacks account from a wallet's address list:
// the entry tagged STX, else the first mainnet address, else the first
// testnet address.
func PickSTXAddress(entries []AddressEntry) string {
	for _, e := range entries {
		if e.Symbol == "STX" && e.Address != "" {
			return e.Address
		}
	}
	for _, prefix := range []string{"SP", "ST"} {
		for _, e := range entries {
			if strings.HasPrefix(e.Address, prefix) {
				return e.Address
			}
		}
	}
	return ""
}
