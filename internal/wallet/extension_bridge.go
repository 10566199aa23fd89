package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	httpClient "github.com/bituzin/stacks-boost-app/internal/client/http"
	"github.com/bituzin/stacks-boost-app/internal/logger"

	"go.uber.org/zap"
)

// Prompt states reported by the signer companion
const (
	promptPending   = "pending"
	promptFinished  = "finished"
	promptCancelled = "cancelled"
	promptFailed    = "failed"
)

type promptTicket struct {
	RequestID string `json:"requestId"`
}

type promptState struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type contractCallPayload struct {
	ContractAddress   string     `json:"contractAddress"`
	ContractName      string     `json:"contractName"`
	FunctionName      string     `json:"functionName"`
	FunctionArgs      []string   `json:"functionArgs"`
	Network           string     `json:"network"`
	PostConditionMode string     `json:"postConditionMode"`
	AppDetails        AppDetails `json:"appDetails"`
}

type stxTransferPayload struct {
	Recipient  string     `json:"recipient"`
	Amount     string     `json:"amount"`
	Memo       string     `json:"memo,omitempty"`
	Network    string     `json:"network"`
	AppDetails AppDetails `json:"appDetails"`
}

// HTTPBridge drives a local signer companion that owns the browser
// extension. Opening a prompt returns a request id; the bridge then polls
// the request until the user finishes or cancels it and fires the matching
// callback from its own goroutine.
type HTTPBridge struct {
	client       *httpClient.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// HTTPBridgeOption configures an HTTPBridge
type HTTPBridgeOption func(*HTTPBridge)

// WithPollInterval sets how often pending prompts are checked
func WithPollInterval(d time.Duration) HTTPBridgeOption {
	return func(b *HTTPBridge) {
		b.pollInterval = d
	}
}

// Ensure HTTPBridge implements ExtensionBridge
var _ ExtensionBridge = (*HTTPBridge)(nil)

// NewHTTPBridge creates a bridge for the companion at baseURL. Prompt
// requests are not retried since a retry could open a second prompt.
func NewHTTPBridge(baseURL string, clientOpts []httpClient.ClientOption, opts ...HTTPBridgeOption) *HTTPBridge {
	l := logger.Log.With(zap.String("component", "extension_bridge"))
	allOpts := append([]httpClient.ClientOption{
		httpClient.WithBaseURL(baseURL),
		httpClient.WithTimeout(30 * time.Second),
		httpClient.WithRetryConfig(nil),
		httpClient.WithLogger(l),
	}, clientOpts...)

	b := &HTTPBridge{
		client:       httpClient.NewClient(allOpts...),
		pollInterval: time.Second,
		logger:       l,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ShowConnect opens the authentication prompt
func (b *HTTPBridge) ShowConnect(ctx context.Context, opts ConnectOptions) error {
	ticket, err := b.open(ctx, "/v1/connect", map[string]any{"appDetails": opts.App})
	if err != nil {
		return err
	}
	go b.watch(ctx, ticket, func(result json.RawMessage) {
		var resp struct {
			Addresses []AddressEntry `json:"addresses"`
		}
		if err := json.Unmarshal(result, &resp); err != nil {
			notifyError(opts.OnError, fmt.Errorf("failed to decode connect result: %w", err))
			return
		}
		if opts.OnFinish != nil {
			opts.OnFinish(resp.Addresses)
		}
	}, opts.OnCancel, opts.OnError)
	return nil
}

// OpenContractCall opens the contract-call prompt
func (b *HTTPBridge) OpenContractCall(ctx context.Context, opts ContractCallOptions) error {
	ticket, err := b.open(ctx, "/v1/contract-call", contractCallPayload{
		ContractAddress:   opts.ContractAddress,
		ContractName:      opts.ContractName,
		FunctionName:      opts.FunctionName,
		FunctionArgs:      opts.FunctionArgs,
		Network:           opts.Network,
		PostConditionMode: opts.PostConditionMode,
		AppDetails:        opts.App,
	})
	if err != nil {
		return err
	}
	go b.watch(ctx, ticket, finishTx(opts.OnFinish, opts.OnError), opts.OnCancel, opts.OnError)
	return nil
}

// OpenSTXTransfer opens the native transfer prompt
func (b *HTTPBridge) OpenSTXTransfer(ctx context.Context, opts STXTransferOptions) error {
	ticket, err := b.open(ctx, "/v1/stx-transfer", stxTransferPayload{
		Recipient:  opts.Recipient,
		Amount:     opts.Amount,
		Memo:       opts.Memo,
		Network:    opts.Network,
		AppDetails: opts.App,
	})
	if err != nil {
		return err
	}
	go b.watch(ctx, ticket, finishTx(opts.OnFinish, opts.OnError), opts.OnCancel, opts.OnError)
	return nil
}

// SignOut clears the companion's stored session
func (b *HTTPBridge) SignOut(ctx context.Context) error {
	resp, err := b.client.Post(ctx, "/v1/sign-out", struct{}{})
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return resp.Body.Close()
}

func (b *HTTPBridge) open(ctx context.Context, path string, payload any) (string, error) {
	resp, err := b.client.Post(ctx, path, payload)
	if err != nil {
		return "", fmt.Errorf("failed to open wallet prompt: %w", err)
	}
	var ticket promptTicket
	if err := httpClient.DecodeJSON(resp, &ticket); err != nil {
		return "", err
	}
	if ticket.RequestID == "" {
		return "", errors.New("wallet companion returned no request id")
	}
	return ticket.RequestID, nil
}

func (b *HTTPBridge) watch(ctx context.Context, requestID string, onFinish func(json.RawMessage), onCancel func(), onError func(error)) {
	path := "/v1/requests/" + url.PathEscape(requestID)
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			notifyError(onError, ctx.Err())
			return
		case <-ticker.C:
		}

		resp, err := b.client.Get(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				notifyError(onError, ctx.Err())
				return
			}
			if httpClient.IsNotFound(err) {
				notifyError(onError, fmt.Errorf("wallet request %s expired", requestID))
				return
			}
			b.logger.Debug("wallet prompt poll failed", zap.String("request_id", requestID), zap.Error(err))
			continue
		}
		var state promptState
		if err := httpClient.DecodeJSON(resp, &state); err != nil {
			notifyError(onError, err)
			return
		}

		switch state.Status {
		case promptPending, "":
			continue
		case promptFinished:
			onFinish(state.Result)
		case promptCancelled:
			if onCancel != nil {
				onCancel()
			}
		case promptFailed:
			msg := state.Error
			if msg == "" {
				msg = "wallet request failed"
			}
			notifyError(onError, errors.New(msg))
		default:
			notifyError(onError, fmt.Errorf("unexpected wallet request status %q", state.Status))
		}
		return
	}
}

func finishTx(onFinish func(FinishedTx), onError func(error)) func(json.RawMessage) {
	return func(result json.RawMessage) {
		var tx FinishedTx
		if err := json.Unmarshal(result, &tx); err != nil {
			notifyError(onError, fmt.Errorf("failed to decode wallet result: %w", err))
			return
		}
		if onFinish != nil {
			onFinish(tx)
		}
	}
}

func notifyError(onError func(error), err error) {
	if onError != nil {
		onError(err)
	}
}
