package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/config"
	"github.com/bituzin/stacks-boost-app/internal/engine"
	"github.com/bituzin/stacks-boost-app/internal/lifecycle"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/mocks"
	"github.com/bituzin/stacks-boost-app/internal/reconcile"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testAddress      = "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7"
	testContract     = "SP1K2XGT5RNGT42N49BH936VDF8NXWNZJY15BPV4F"
	testContractName = "stackslend-v4"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	querier *mocks.MockQuerier
	bridge  *mocks.MockExtensionBridge
	engine  *engine.Engine
	router  *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	api := &testAPI{
		querier: mocks.NewMockQuerierForTest(t),
		bridge:  mocks.NewMockExtensionBridgeForTest(t),
	}

	cfg := &config.Config{
		Stage:            "test",
		Network:          config.NetworkMainnet,
		APIURL:           "https://api.hiro.so",
		ContractAddress:  testContract,
		ContractName:     testContractName,
		SBTCTokenAddress: testContract,
		SBTCTokenName:    "sbtc-deposit-dummy-v2",
		SBTCAssetName:    "sbtc",
		OracleAddress:    testContract,
		OracleName:       "mock-oracle-v4",
	}
	e, err := engine.New(cfg,
		engine.WithQuerier(api.querier),
		engine.WithExtensionBridge(api.bridge),
		engine.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
		engine.WithReconcileOptions(reconcile.WithInterval(time.Hour)))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	api.engine = e

	common := NewCommonServices(e)
	health := NewHealthHandler(common)
	network := NewNetworkHandler(common)
	wallets := NewWalletHandler(common)
	account := NewAccountHandler(common)
	actions := NewActionHandler(common)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/health", health.Health)
	router.GET("/config", network.GetNetwork)
	router.GET("/wallets", wallets.ListWallets)
	router.GET("/wallets/active", wallets.GetActiveWallet)
	router.POST("/wallets/select", wallets.SelectWallet)
	router.POST("/wallets/connect", wallets.ConnectWallet)
	router.POST("/wallets/disconnect", wallets.DisconnectWallet)
	router.GET("/position", account.GetPosition)
	router.GET("/account/balances", account.GetBalances)
	router.GET("/account/transactions", account.ListTransactions)
	router.GET("/transactions/:tx_id", account.GetTransaction)
	router.POST("/actions/:action", actions.SubmitAction)
	router.GET("/lifecycle", actions.GetLifecycle)
	router.GET("/history", actions.ListHistory)
	api.router = router
	return api
}

func (api *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// connect selects the extension wallet and connects testAddress, serving
// lending map reads with the given deposit
func (api *testAPI) connect(t *testing.T, deposited uint64) {
	t.Helper()
	api.querier.EXPECT().GetContractMapEntry(gomock.Any(), testContract, testContractName, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _, mapName string, _ clarity.Value) (clarity.Value, bool, error) {
			if mapName == chain.MapBorrows {
				return clarity.Tuple{"amount": clarity.NewUInt(0)}, true, nil
			}
			return clarity.Tuple{"amount": clarity.NewUInt(deposited)}, true, nil
		}).AnyTimes()
	api.bridge.EXPECT().ShowConnect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ConnectOptions) error {
			go opts.OnFinish([]wallet.AddressEntry{{Symbol: "STX", Address: testAddress}})
			return nil
		})

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/wallets/select", `{"kind":"extension"}`).Code)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/wallets/connect", "").Code)
	require.Eventually(t, func() bool {
		p := api.engine.Position()
		return p.DepositedKnown && p.BorrowedKnown
	}, 2*time.Second, time.Millisecond)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "mainnet", body["network"])
	assert.Equal(t, "disconnected", body["wallet_status"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestGetNetwork(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp NetworkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "network", resp.Object)
	assert.Equal(t, "stacks:mainnet", resp.ChainID)
	assert.Equal(t, testContract+"."+testContractName, resp.ContractID)
	assert.Equal(t, testContract+".sbtc-deposit-dummy-v2::sbtc", resp.SBTCAssetID)
	assert.Equal(t, testContract+".mock-oracle-v4", resp.OracleID)
	assert.Equal(t, []wallet.Kind{wallet.KindExtension}, resp.Wallets)
	assert.False(t, resp.RelayEnabled)
	assert.False(t, resp.Journal)
}

func TestWalletHandlers(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/wallets", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Equal(t, "list", list["object"])
	assert.Len(t, list["data"], 1)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "malformed body", path: "/wallets/select", body: `{`, wantStatus: http.StatusBadRequest, wantError: "Invalid request body"},
		{name: "unknown kind", path: "/wallets/select", body: `{"kind":"ledger"}`, wantStatus: http.StatusBadRequest, wantError: "Unknown wallet kind"},
		{name: "unregistered relay", path: "/wallets/select", body: `{"kind":"relay"}`, wantStatus: http.StatusBadRequest, wantError: `unknown wallet kind: "relay"`},
		{name: "connect without selection", path: "/wallets/connect", wantStatus: http.StatusConflict, wantError: "no wallet selected"},
		{name: "disconnect without selection", path: "/wallets/disconnect", wantStatus: http.StatusConflict, wantError: "no wallet selected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decode(t, w)["error"])
		})
	}
}

func TestWalletConnectAndDisconnect(t *testing.T) {
	api := newTestAPI(t)
	api.connect(t, 500000)
	api.bridge.EXPECT().SignOut(gomock.Any()).Return(nil)

	w := api.do(t, http.MethodGet, "/wallets/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	var active WalletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	assert.Equal(t, wallet.KindExtension, active.Kind)
	assert.Equal(t, testAddress, active.Session.Address)
	assert.Equal(t, wallet.StatusConnected, active.Session.Status)

	w = api.do(t, http.MethodGet, "/position", "")
	require.Equal(t, http.StatusOK, w.Code)
	position := decode(t, w)
	assert.Equal(t, "position", position["object"])
	assert.Equal(t, "0.5", position["deposited_stx"])
	assert.Equal(t, "0", position["borrowed_stx"])

	w = api.do(t, http.MethodPost, "/wallets/disconnect", "")
	require.Equal(t, http.StatusOK, w.Code)
	var disconnected WalletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &disconnected))
	assert.Equal(t, wallet.KindExtension, disconnected.Kind)
	assert.Equal(t, wallet.StatusDisconnected, disconnected.Session.Status)
	assert.Empty(t, disconnected.Session.Address)
}

func TestGetBalances(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/account/balances?address=nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/account/balances", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "wallet not connected", decode(t, w)["error"])

	api.querier.EXPECT().GetAccountBalance(gomock.Any(), testAddress).Return(&chain.AccountBalance{
		Native: 1000,
		Tokens: map[string]uint64{testContract + ".sbtc-deposit-dummy-v2::sbtc": 2500000},
	}, nil)

	w = api.do(t, http.MethodGet, "/account/balances?address="+testAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, BalanceResponse{
		Object:   "balance",
		Address:  testAddress,
		STX:      1000,
		STXText:  "0.001",
		SBTC:     2500000,
		SBTCText: "2.5",
	}, resp)
}

func TestGetBalances_ConnectedAccount(t *testing.T) {
	api := newTestAPI(t)
	api.connect(t, 0)

	api.querier.EXPECT().GetAccountBalance(gomock.Any(), testAddress).
		Return(nil, fmt.Errorf("%w: stx balance: timeout", chain.ErrQueryFailed))

	w := api.do(t, http.MethodGet, "/account/balances", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListTransactions(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/account/transactions?address="+testAddress+"&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.querier.EXPECT().GetRecentTransactions(gomock.Any(), testAddress, defaultTransactionLimit).Return(nil, nil)
	w = api.do(t, http.MethodGet, "/account/transactions?address="+testAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["data"])

	api.querier.EXPECT().GetRecentTransactions(gomock.Any(), testAddress, 2).
		Return([]chain.TransactionSummary{{TxID: "0x1", Status: "success"}, {TxID: "0x2", Status: "pending"}}, nil)
	w = api.do(t, http.MethodGet, "/account/transactions?address="+testAddress+"&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)
}

func TestGetTransaction(t *testing.T) {
	api := newTestAPI(t)

	api.querier.EXPECT().GetTransactionStatus(gomock.Any(), "0xabc").
		Return(&chain.TransactionStatus{TxID: "0xabc", Status: chain.StatusAbortByResponse, ResultRepr: "(err u1)"}, nil)
	w := api.do(t, http.MethodGet, "/transactions/0xabc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "(err u1)", decode(t, w)["result_repr"])

	api.querier.EXPECT().GetTransactionStatus(gomock.Any(), "0xdef").
		Return(nil, fmt.Errorf("%w: status 500", chain.ErrQueryFailed))
	w = api.do(t, http.MethodGet, "/transactions/0xdef", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSubmitAction_Rejections(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/actions/stake", `{"amount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `unknown action: "stake"`, decode(t, w)["error"])

	w = api.do(t, http.MethodPost, "/actions/deposit", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/actions/deposit", `{"amount":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Select a wallet first.", decode(t, w)["error"])

	api.connect(t, 500000)

	tests := []struct {
		name       string
		action     string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "zero amount", action: "deposit", body: `{"amount":"0"}`, wantStatus: http.StatusBadRequest, wantError: "Enter a valid amount (up to 6 decimals)."},
		{name: "too many decimals", action: "borrow", body: `{"amount":"1.0000001","collateral":"2"}`, wantStatus: http.StatusBadRequest, wantError: "Enter a valid amount (up to 6 decimals)."},
		{name: "withdraw above deposit", action: "withdraw", body: `{"amount":"0.6"}`, wantStatus: http.StatusBadRequest, wantError: "Amount exceeds your deposited balance."},
		{name: "bad recipient", action: "transfer", body: `{"amount":"1","recipient":"bob"}`, wantStatus: http.StatusBadRequest, wantError: "Enter a valid recipient address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/actions/"+tt.action, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decode(t, w)["error"])
		})
	}
}

func TestSubmitAction_Cancelled(t *testing.T) {
	api := newTestAPI(t)
	api.connect(t, 500000)

	api.bridge.EXPECT().OpenContractCall(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ContractCallOptions) error {
			go opts.OnCancel()
			return nil
		})

	w := api.do(t, http.MethodPost, "/actions/repay", `{"amount":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Transaction cancelled.", decode(t, w)["error"])
}

func TestSubmitAction_Settles(t *testing.T) {
	api := newTestAPI(t)
	api.connect(t, 500000)

	api.bridge.EXPECT().OpenContractCall(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ContractCallOptions) error {
			assert.Equal(t, "deposit-stx", opts.FunctionName)
			go opts.OnFinish(wallet.FinishedTx{TxID: "0xfeed"})
			return nil
		})
	api.querier.EXPECT().GetTransactionStatus(gomock.Any(), "0xfeed").
		Return(&chain.TransactionStatus{TxID: "0xfeed", Status: chain.StatusSuccess}, nil)

	w := api.do(t, http.MethodPost, "/actions/deposit", `{"amount":"1.5"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp SubmitActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "submission", resp.Object)
	require.NotNil(t, resp.Submission)
	assert.Equal(t, "0xfeed", resp.TxID)
	assert.Equal(t, uint64(1500000), resp.Amount)
	assert.Equal(t, "https://explorer.hiro.so/txid/0xfeed?chain=mainnet", resp.ExplorerURL)

	require.Eventually(t, func() bool {
		w := api.do(t, http.MethodGet, "/lifecycle", "")
		var snap lifecycle.Snapshot
		return json.Unmarshal(w.Body.Bytes(), &snap) == nil && snap.State == lifecycle.StateSettledSuccess
	}, 2*time.Second, time.Millisecond)
}

func TestSubmitAction_RepayWithoutBody(t *testing.T) {
	api := newTestAPI(t)
	api.connect(t, 500000)

	api.bridge.EXPECT().OpenContractCall(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ContractCallOptions) error {
			assert.Equal(t, "repay", opts.FunctionName)
			assert.Empty(t, opts.FunctionArgs)
			go opts.OnFinish(wallet.FinishedTx{TxID: "0xbeef"})
			return nil
		})
	api.querier.EXPECT().GetTransactionStatus(gomock.Any(), "0xbeef").
		Return(&chain.TransactionStatus{TxID: "0xbeef", Status: chain.StatusSuccess}, nil).AnyTimes()

	w := api.do(t, http.MethodPost, "/actions/repay", "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp SubmitActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Submission)
	assert.Equal(t, lifecycle.ActionRepay, resp.Action)
	assert.Equal(t, "0xbeef", resp.TxID)

	w = api.do(t, http.MethodPost, "/actions/deposit", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w)["error"])
}

func TestListHistory_JournalDisabled(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, engine.ErrJournalDisabled.Error(), decode(t, w)["error"])
}

func TestEngineErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: wallet.ErrNoWalletSelected, want: http.StatusConflict},
		{err: fmt.Errorf("%w: user rejected request", wallet.ErrUserCancelled), want: http.StatusConflict},
		{err: lifecycle.ErrBusy, want: http.StatusConflict},
		{err: fmt.Errorf("%w: amount", lifecycle.ErrInvalidAmount), want: http.StatusBadRequest},
		{err: lifecycle.ErrInsufficientBalance, want: http.StatusBadRequest},
		{err: fmt.Errorf("%w: nonce too low", wallet.ErrSubmission), want: http.StatusBadGateway},
		{err: chain.ErrQueryFailed, want: http.StatusBadGateway},
		{err: engine.ErrJournalDisabled, want: http.StatusNotFound},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, engineErrorStatus(tt.err))
		})
	}
}

func TestGetPosition_Address(t *testing.T) {
	api := newTestAPI(t)

	api.querier.EXPECT().GetContractMapEntry(gomock.Any(), testContract, testContractName, chain.MapDeposits, gomock.Any()).
		Return(clarity.Tuple{"amount": clarity.NewUInt(3000000)}, true, nil)
	api.querier.EXPECT().GetContractMapEntry(gomock.Any(), testContract, testContractName, chain.MapBorrows, gomock.Any()).
		Return(nil, false, nil)

	w := api.do(t, http.MethodGet, "/position?address="+testAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, testAddress, body["address"])
	assert.Equal(t, "3", body["deposited_stx"])
	assert.Equal(t, "0", body["borrowed_stx"])
}
