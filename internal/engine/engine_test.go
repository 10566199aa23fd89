package engine_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/config"
	"github.com/bituzin/stacks-boost-app/internal/engine"
	"github.com/bituzin/stacks-boost-app/internal/journal"
	"github.com/bituzin/stacks-boost-app/internal/lifecycle"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/metrics"
	"github.com/bituzin/stacks-boost-app/internal/mocks"
	"github.com/bituzin/stacks-boost-app/internal/reconcile"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	userAddress     = "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7"
	contractAddress = "SP1K2XGT5RNGT42N49BH936VDF8NXWNZJY15BPV4F"
	contractName    = "stackslend-v4"
)

func init() {
	logger.InitLogger("test")
}

func testConfig() *config.Config {
	return &config.Config{
		Stage:            "test",
		Network:          config.NetworkMainnet,
		APIURL:           "https://api.hiro.so",
		ContractAddress:  contractAddress,
		ContractName:     contractName,
		SBTCTokenAddress: contractAddress,
		SBTCTokenName:    "sbtc-deposit-dummy-v2",
		SBTCAssetName:    "sbtc",
	}
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type fixture struct {
	querier *mocks.MockQuerier
	bridge  *mocks.MockExtensionBridge

	mu       sync.Mutex
	mapReads map[string]int
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		querier:  mocks.NewMockQuerierForTest(t),
		bridge:   mocks.NewMockExtensionBridgeForTest(t),
		mapReads: make(map[string]int),
	}
}

func (f *fixture) reads(mapName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mapReads[mapName]
}

// servePosition answers lending map reads with fixed amounts
func (f *fixture) servePosition(deposited, borrowed uint64) {
	f.querier.EXPECT().GetContractMapEntry(gomock.Any(), contractAddress, contractName, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _, mapName string, _ clarity.Value) (clarity.Value, bool, error) {
			f.mu.Lock()
			f.mapReads[mapName]++
			f.mu.Unlock()
			amount := deposited
			if mapName == chain.MapBorrows {
				amount = borrowed
			}
			return clarity.Tuple{"amount": clarity.NewUInt(amount)}, true, nil
		}).AnyTimes()
}

func (f *fixture) connectable() {
	f.bridge.EXPECT().ShowConnect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ConnectOptions) error {
			go opts.OnFinish([]wallet.AddressEntry{{Symbol: "STX", Address: userAddress}})
			return nil
		})
}

func (f *fixture) engine(t *testing.T, opts ...engine.Option) *engine.Engine {
	base := []engine.Option{
		engine.WithQuerier(f.querier),
		engine.WithExtensionBridge(f.bridge),
		engine.WithSleep(noSleep),
		engine.WithReconcileOptions(reconcile.WithInterval(time.Hour)),
	}
	e, err := engine.New(testConfig(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestNew_RelayDisabledWithoutProjectID(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)

	wallets := e.Wallets()
	require.Len(t, wallets, 1)
	assert.Equal(t, wallet.KindExtension, wallets[0].Kind)
	assert.False(t, wallets[0].Active)
	assert.Equal(t, wallet.StatusIdle, wallets[0].Session.Status)

	_, ok := e.Relay()
	assert.False(t, ok)
	assert.ErrorIs(t, e.SelectWallet(wallet.KindRelay), wallet.ErrUnknownWallet)

	// Start is a no-op without a relay
	e.Start(context.Background())
}

func TestNew_RelayRegistered(t *testing.T) {
	f := newFixture(t)
	transport := mocks.NewMockRelayTransportForTest(t)
	transport.EXPECT().Init(gomock.Any()).Return(nil)
	transport.EXPECT().Close().Return(nil)

	cfg := testConfig()
	cfg.WalletConnectProjectID = "project-123"
	e, err := engine.New(cfg,
		engine.WithQuerier(f.querier),
		engine.WithExtensionBridge(f.bridge),
		engine.WithRelayTransport(transport))
	require.NoError(t, err)
	defer e.Close()

	relay, ok := e.Relay()
	require.True(t, ok)
	e.Start(context.Background())
	assert.True(t, relay.Ready())
	assert.Equal(t, wallet.StatusDisconnected, relay.Session().Status)
	assert.Len(t, e.Wallets(), 2)
}

func TestEngine_ConnectReconcilesAndDisconnectStops(t *testing.T) {
	f := newFixture(t)
	f.servePosition(500000, 100)
	f.connectable()
	f.bridge.EXPECT().SignOut(gomock.Any()).Return(nil)

	e := f.engine(t)

	assert.ErrorIs(t, e.Connect(context.Background()), wallet.ErrNoWalletSelected)
	require.NoError(t, e.SelectWallet(wallet.KindExtension))
	require.NoError(t, e.Connect(context.Background()))

	kind, session := e.ActiveWallet()
	assert.Equal(t, wallet.KindExtension, kind)
	assert.Equal(t, userAddress, session.Address)

	require.Eventually(t, func() bool { return e.Position().BorrowedKnown }, 2*time.Second, time.Millisecond)
	p := e.Position()
	assert.Equal(t, userAddress, p.Address)
	assert.Equal(t, uint64(500000), p.Deposited)
	assert.Equal(t, uint64(100), p.Borrowed)

	require.NoError(t, e.Disconnect(context.Background()))
	assert.Equal(t, reconcile.Position{}, e.Position())
}

func TestEngine_WithdrawCheckedAgainstReconciledDeposit(t *testing.T) {
	f := newFixture(t)
	f.servePosition(500000, 0)
	f.connectable()
	e := f.engine(t)

	require.NoError(t, e.SelectWallet(wallet.KindExtension))
	require.NoError(t, e.Connect(context.Background()))
	require.Eventually(t, func() bool { return e.Position().DepositedKnown }, 2*time.Second, time.Millisecond)

	_, err := e.Submit(context.Background(), lifecycle.Request{Action: lifecycle.ActionWithdraw, Amount: "0.6"})
	assert.ErrorIs(t, err, lifecycle.ErrInsufficientBalance)
	assert.Equal(t, "Amount exceeds your deposited balance.", e.Lifecycle().Notice)
}

func TestEngine_SettlementTriggersBurstAndJournal(t *testing.T) {
	f := newFixture(t)
	f.servePosition(500000, 0)
	f.connectable()
	f.bridge.EXPECT().OpenContractCall(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ContractCallOptions) error {
			assert.Equal(t, "deposit-stx", opts.FunctionName)
			assert.Equal(t, []string{"0x01000000000000000000000000000f4240"}, opts.FunctionArgs)
			go opts.OnFinish(wallet.FinishedTx{TxID: "0xtx1"})
			return nil
		})
	f.querier.EXPECT().GetTransactionStatus(gomock.Any(), "0xtx1").
		Return(&chain.TransactionStatus{TxID: "0xtx1", Status: chain.StatusSuccess}, nil)

	j, err := journal.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	registry := metrics.New()
	e := f.engine(t, engine.WithJournal(j), engine.WithMetrics(registry))

	require.NoError(t, e.SelectWallet(wallet.KindExtension))
	require.NoError(t, e.Connect(context.Background()))
	require.Eventually(t, func() bool { return f.reads(chain.MapBorrows) == 1 }, 2*time.Second, time.Millisecond)

	sub, err := e.Submit(context.Background(), lifecycle.Request{Action: lifecycle.ActionDeposit, Amount: "1"})
	require.NoError(t, err)
	assert.Equal(t, "https://explorer.hiro.so/txid/0xtx1?chain=mainnet", sub.ExplorerURL)

	require.Eventually(t, func() bool {
		return e.Lifecycle().State == lifecycle.StateSettledSuccess
	}, 2*time.Second, time.Millisecond)

	// initial refresh plus the four-step burst
	require.Eventually(t, func() bool { return f.reads(chain.MapBorrows) == 5 }, 2*time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		entries, err := e.History(context.Background(), 10)
		return err == nil && len(entries) == 1 && entries[0].Status == chain.StatusSuccess
	}, 2*time.Second, time.Millisecond)
}

func TestEngine_AccountQueries(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)

	_, err := e.Balances(context.Background(), "")
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	_, err = e.Transactions(context.Background(), "", 5)
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	_, err = e.History(context.Background(), 10)
	assert.ErrorIs(t, err, engine.ErrJournalDisabled)

	balances := &chain.AccountBalance{
		Native: 1000,
		Tokens: map[string]uint64{contractAddress + ".sbtc-deposit-dummy-v2::sbtc": 42},
	}
	f.querier.EXPECT().GetAccountBalance(gomock.Any(), userAddress).Return(balances, nil)
	f.querier.EXPECT().GetRecentTransactions(gomock.Any(), userAddress, 5).Return([]chain.TransactionSummary{{TxID: "0x1"}}, nil)
	f.querier.EXPECT().GetTransactionStatus(gomock.Any(), "0x1").Return(&chain.TransactionStatus{TxID: "0x1", Status: chain.StatusPending}, nil)

	got, err := e.Balances(context.Background(), userAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), e.SBTCBalance(got))

	txs, err := e.Transactions(context.Background(), userAddress, 5)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	status, err := e.TransactionStatus(context.Background(), "0x1")
	require.NoError(t, err)
	assert.Equal(t, chain.StatusPending, status.Status)
}

func TestEngine_PositionOf(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)

	_, err := e.PositionOf(context.Background(), "")
	assert.ErrorIs(t, err, wallet.ErrNotConnected)

	f.servePosition(2500000, 1000000)
	p, err := e.PositionOf(context.Background(), userAddress)
	require.NoError(t, err)
	assert.Equal(t, userAddress, p.Address)
	assert.Equal(t, uint64(2500000), p.Deposited)
	assert.Equal(t, uint64(1000000), p.Borrowed)
	assert.True(t, p.DepositedKnown && p.BorrowedKnown)

	// the reconciled position is left alone
	assert.Equal(t, reconcile.Position{}, e.Position())
}
