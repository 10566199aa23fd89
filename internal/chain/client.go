package chain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	httpClient "github.com/bituzin/stacks-boost-app/internal/client/http"
	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrQueryFailed marks a read that could not be completed. It is always
// transient from the caller's point of view.
var ErrQueryFailed = errors.New("chain query failed")

const (
	// DefaultTransactionLimit matches the dashboard's recent activity list
	DefaultTransactionLimit = 5
	// MaxTransactionLimit is the indexer's page size cap
	MaxTransactionLimit = 50
)

// Querier is the read-only view of the chain used by the engine
type Querier interface {
	GetAccountBalance(ctx context.Context, address string) (*AccountBalance, error)
	GetRecentTransactions(ctx context.Context, address string, limit int) ([]TransactionSummary, error)
	GetContractMapEntry(ctx context.Context, contractAddress, contractName, mapName string, key clarity.Value) (clarity.Value, bool, error)
	GetTransactionStatus(ctx context.Context, txID string) (*TransactionStatus, error)
}

// Ensure Client implements Querier
var _ Querier = (*Client)(nil)

// Client queries the Stacks node RPC and the Hiro indexer API
type Client struct {
	api     *httpClient.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	rps         float64
	burst       int
	httpOptions []httpClient.ClientOption
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *clientOptions) {
		o.rps = rps
		o.burst = burst
	}
}

// WithHTTPOptions forwards options to the underlying HTTP client
func WithHTTPOptions(opts ...httpClient.ClientOption) Option {
	return func(o *clientOptions) {
		o.httpOptions = append(o.httpOptions, opts...)
	}
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	o := &clientOptions{rps: 5, burst: 5}
	for _, opt := range opts {
		opt(o)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if o.rps > 0 {
		burst := o.burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(o.rps), burst)
	}

	return &Client{
		api:     httpClient.NewClient(append([]httpClient.ClientOption{httpClient.WithBaseURL(baseURL)}, o.httpOptions...)...),
		limiter: limiter,
		logger:  logger.Log,
	}
}

// AccountBalance holds the native balance and fungible token balances in base units
type AccountBalance struct {
	Native uint64            `json:"native"`
	Tokens map[string]uint64 `json:"tokens"`
}

// TokenBalance returns the balance of assetID ("addr.contract::asset"), zero when absent
func (b *AccountBalance) TokenBalance(assetID string) uint64 {
	if b == nil {
		return 0
	}
	return b.Tokens[assetID]
}

// TransactionSummary is one entry of an account's recent activity
type TransactionSummary struct {
	TxID             string `json:"tx_id"`
	Status           string `json:"tx_status"`
	Type             string `json:"tx_type"`
	BurnBlockTimeISO string `json:"burn_block_time_iso,omitempty"`
}

type balancesResponse struct {
	STX *struct {
		Balance string `json:"balance"`
	} `json:"stx"`
	FungibleTokens map[string]struct {
		Balance string `json:"balance"`
	} `json:"fungible_tokens"`
}

type transactionsResponse struct {
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
	Total   int                  `json:"total"`
	Results []TransactionSummary `json:"results"`
}

type mapEntryResponse struct {
	Data  string `json:"data"`
	Proof string `json:"proof,omitempty"`
}

type txResponse struct {
	TxID     string `json:"tx_id"`
	TxStatus string `json:"tx_status"`
	TxResult *struct {
		Hex  string `json:"hex"`
		Repr string `json:"repr"`
	} `json:"tx_result"`
}

// GetAccountBalance fetches STX and fungible token balances for an address
func (c *Client) GetAccountBalance(ctx context.Context, address string) (*AccountBalance, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrQueryFailed)
	}

	var body balancesResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/extended/v1/address/%s/balances", url.PathEscape(address)), &body); err != nil {
		return nil, err
	}

	balance := &AccountBalance{Tokens: make(map[string]uint64, len(body.FungibleTokens))}
	if body.STX != nil {
		native, err := parseBaseUnits(body.STX.Balance)
		if err != nil {
			return nil, fmt.Errorf("%w: stx balance: %v", ErrQueryFailed, err)
		}
		balance.Native = native
	}
	for assetID, token := range body.FungibleTokens {
		value, err := parseBaseUnits(token.Balance)
		if err != nil {
			return nil, fmt.Errorf("%w: balance of %s: %v", ErrQueryFailed, assetID, err)
		}
		balance.Tokens[assetID] = value
	}
	return balance, nil
}

// GetRecentTransactions returns up to limit transactions, most recent first
func (c *Client) GetRecentTransactions(ctx context.Context, address string, limit int) ([]TransactionSummary, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrQueryFailed)
	}
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		limit = MaxTransactionLimit
	}

	var body transactionsResponse
	path := fmt.Sprintf("/extended/v1/address/%s/transactions", url.PathEscape(address))
	if err := c.getJSON(ctx, path, &body, httpClient.WithQueryParam("limit", strconv.Itoa(limit))); err != nil {
		return nil, err
	}

	results := body.Results
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []TransactionSummary{}
	}
	return results, nil
}

// GetContractMapEntry reads one entry of a contract data map. An explicit
// none from the node is reported as found=false with a nil error; a present
// entry is returned with its optional wrapper removed.
func (c *Client) GetContractMapEntry(ctx context.Context, contractAddress, contractName, mapName string, key clarity.Value) (clarity.Value, bool, error) {
	keyHex, err := clarity.EncodeHex(key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode map key: %w", err)
	}
	if err := c.wait(ctx); err != nil {
		return nil, false, err
	}

	path := fmt.Sprintf("/v2/map_entry/%s/%s/%s", url.PathEscape(contractAddress), url.PathEscape(contractName), url.PathEscape(mapName))
	resp, err := c.api.Post(ctx, path, keyHex, httpClient.WithQueryParam("proof", "0"))
	if err != nil {
		return nil, false, fmt.Errorf("%w: map %s.%s/%s: %v", ErrQueryFailed, contractAddress, contractName, mapName, err)
	}

	var body mapEntryResponse
	if err := httpClient.DecodeJSON(resp, &body); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	value, err := clarity.DecodeHex(body.Data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: map entry payload: %v", ErrQueryFailed, err)
	}
	switch v := value.(type) {
	case clarity.None:
		return nil, false, nil
	case clarity.Some:
		return v.Value, true, nil
	default:
		return value, true, nil
	}
}

// GetTransactionStatus reports the chain's view of a transaction. Transport
// failures return ErrQueryFailed and never a failed status; an unknown id
// is StatusNotFound.
func (c *Client) GetTransactionStatus(ctx context.Context, txID string) (*TransactionStatus, error) {
	if txID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", ErrQueryFailed)
	}

	var body txResponse
	err := c.getJSON(ctx, "/extended/v1/tx/"+url.PathEscape(txID), &body)
	if err != nil {
		if httpClient.IsNotFound(err) {
			return &TransactionStatus{TxID: txID, Status: StatusNotFound}, nil
		}
		return nil, err
	}

	status := &TransactionStatus{
		TxID:      txID,
		RawStatus: body.TxStatus,
		Status:    ClassifyStatus(body.TxStatus),
	}
	if body.TxResult != nil {
		status.ResultRepr = body.TxResult.Repr
	}
	return status, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target interface{}, opts ...httpClient.RequestOption) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	resp, err := c.api.Get(ctx, path, opts...)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrQueryFailed, path, err)
	}
	if err := httpClient.DecodeJSON(resp, target); err != nil {
		return fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrQueryFailed, err)
	}
	if waited := time.Since(start); waited > time.Second {
		c.logger.Debug("chain request paced by rate limiter", zap.Duration("waited", waited))
	}
	return nil
}

func parseBaseUnits(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
