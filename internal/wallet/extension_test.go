package wallet_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/mocks"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	mainnetAddress  = "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7"
	testnetAddress  = "ST1K2XGT5RNGT42N49BH936VDF8NXWNZJY0N432CM"
	contractAddress = "SP1K2XGT5RNGT42N49BH936VDF8NXWNZJY15BPV4F"
	contractName    = "stackslend-v4"
)

func init() {
	logger.InitLogger("test")
}

func extensionConfig() wallet.ExtensionConfig {
	return wallet.ExtensionConfig{
		Network:         "mainnet",
		ContractAddress: contractAddress,
		ContractName:    contractName,
		App:             wallet.AppDetails{Name: "StacksLend", Icon: "/favicon.ico"},
	}
}

func connectedExtension(t *testing.T, bridge *mocks.MockExtensionBridge) *wallet.ExtensionAdapter {
	t.Helper()
	bridge.EXPECT().ShowConnect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ConnectOptions) error {
			go opts.OnFinish([]wallet.AddressEntry{
				{Symbol: "BTC", Address: "bc1qxyz"},
				{Symbol: "STX", Address: mainnetAddress},
			})
			return nil
		})

	a := wallet.NewExtensionAdapter(extensionConfig(), bridge)
	require.NoError(t, a.Connect(context.Background()))
	return a
}

func TestExtensionAdapter_Connect(t *testing.T) {
	bridge := mocks.NewMockExtensionBridgeForTest(t)
	a := wallet.NewExtensionAdapter(extensionConfig(), bridge)

	var statuses []wallet.Status
	unsubscribe := a.Subscribe(func(s wallet.Session) { statuses = append(statuses, s.Status) })
	defer unsubscribe()

	assert.Equal(t, wallet.StatusIdle, a.Session().Status)
	_, ok := a.Address()
	assert.False(t, ok)

	bridge.EXPECT().ShowConnect(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ConnectOptions) error {
			assert.Equal(t, "StacksLend", opts.App.Name)
			go opts.OnFinish([]wallet.AddressEntry{{Address: mainnetAddress}})
			return nil
		})

	require.NoError(t, a.Connect(context.Background()))
	address, ok := a.Address()
	assert.True(t, ok)
	assert.Equal(t, mainnetAddress, address)
	assert.Equal(t, []wallet.Status{wallet.StatusPending, wallet.StatusConnected}, statuses)

	// already connected: no second prompt
	require.NoError(t, a.Connect(context.Background()))
}

func TestExtensionAdapter_ConnectFailures(t *testing.T) {
	tests := []struct {
		name        string
		show        func(opts wallet.ConnectOptions) error
		wantErr     error
		errorString string
	}{
		{
			name: "user cancels",
			show: func(opts wallet.ConnectOptions) error {
				go opts.OnCancel()
				return nil
			},
			wantErr: wallet.ErrUserCancelled,
		},
		{
			name: "no stacks address",
			show: func(opts wallet.ConnectOptions) error {
				go opts.OnFinish([]wallet.AddressEntry{{Symbol: "BTC", Address: "bc1qxyz"}})
				return nil
			},
			wantErr: wallet.ErrNotConnected,
		},
		{
			name: "prompt cannot be opened",
			show: func(opts wallet.ConnectOptions) error {
				return errors.New("companion unreachable")
			},
			errorString: "companion unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := mocks.NewMockExtensionBridgeForTest(t)
			bridge.EXPECT().ShowConnect(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, opts wallet.ConnectOptions) error { return tt.show(opts) })

			a := wallet.NewExtensionAdapter(extensionConfig(), bridge)
			err := a.Connect(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errorString != "" {
				assert.Contains(t, err.Error(), tt.errorString)
			}

			session := a.Session()
			assert.Equal(t, wallet.StatusError, session.Status)
			assert.Empty(t, session.Address)
			assert.NotEmpty(t, session.ErrorMessage)
		})
	}
}

func TestExtensionAdapter_RequestSignedCall(t *testing.T) {
	tests := []struct {
		name        string
		respond     func(opts wallet.ContractCallOptions)
		want        string
		wantErr     error
		errorString string
	}{
		{
			name:    "finished",
			respond: func(opts wallet.ContractCallOptions) { opts.OnFinish(wallet.FinishedTx{TxID: "0xabc"}) },
			want:    "0xabc",
		},
		{
			name: "first callback wins",
			respond: func(opts wallet.ContractCallOptions) {
				opts.OnFinish(wallet.FinishedTx{TxID: "0xabc"})
				opts.OnCancel()
				opts.OnError(errors.New("late"))
			},
			want: "0xabc",
		},
		{
			name:        "cancelled",
			respond:     func(opts wallet.ContractCallOptions) { opts.OnCancel() },
			wantErr:     wallet.ErrUserCancelled,
			errorString: "transaction cancelled",
		},
		{
			name:        "wallet reports rejection",
			respond:     func(opts wallet.ContractCallOptions) { opts.OnError(errors.New("User rejected the request")) },
			wantErr:     wallet.ErrUserCancelled,
			errorString: "User rejected the request",
		},
		{
			name:        "wallet failure is surfaced verbatim",
			respond:     func(opts wallet.ContractCallOptions) { opts.OnError(errors.New("insufficient fee")) },
			wantErr:     wallet.ErrSubmission,
			errorString: "insufficient fee",
		},
		{
			name:    "finished without id",
			respond: func(opts wallet.ContractCallOptions) { opts.OnFinish(wallet.FinishedTx{}) },
			wantErr: wallet.ErrSubmission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := mocks.NewMockExtensionBridgeForTest(t)
			a := connectedExtension(t, bridge)

			bridge.EXPECT().OpenContractCall(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, opts wallet.ContractCallOptions) error {
					assert.Equal(t, contractAddress, opts.ContractAddress)
					assert.Equal(t, contractName, opts.ContractName)
					assert.Equal(t, "deposit-stx", opts.FunctionName)
					assert.Equal(t, []string{"0x010000000000000000000000000007a120"}, opts.FunctionArgs)
					assert.Equal(t, wallet.PostConditionModeAllow, opts.PostConditionMode)
					assert.Equal(t, "mainnet", opts.Network)
					go tt.respond(opts)
					return nil
				})

			txID, err := a.RequestSignedCall(context.Background(), wallet.ContractCall{
				FunctionName: "deposit-stx",
				Args:         []clarity.Value{clarity.NewUInt(500000)},
			})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.errorString != "" {
					assert.Equal(t, tt.errorString, err.Error())
				}
				assert.Empty(t, txID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, txID)
		})
	}
}

func TestExtensionAdapter_RequestSignedCallWaitsForWallet(t *testing.T) {
	bridge := mocks.NewMockExtensionBridgeForTest(t)
	a := connectedExtension(t, bridge)

	opened := make(chan wallet.ContractCallOptions, 1)
	bridge.EXPECT().OpenContractCall(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.ContractCallOptions) error {
			opened <- opts
			return nil
		})

	done := make(chan string, 1)
	go func() {
		txID, _ := a.RequestSignedCall(context.Background(), wallet.ContractCall{FunctionName: "repay"})
		done <- txID
	}()

	opts := <-opened
	select {
	case <-done:
		t.Fatal("call resolved before the wallet answered")
	case <-time.After(20 * time.Millisecond):
	}

	opts.OnFinish(wallet.FinishedTx{TxID: "0x01"})
	assert.Equal(t, "0x01", <-done)
}

func TestExtensionAdapter_RequestSignedCallContextDone(t *testing.T) {
	bridge := mocks.NewMockExtensionBridgeForTest(t)
	a := connectedExtension(t, bridge)

	bridge.EXPECT().OpenContractCall(gomock.Any(), gomock.Any()).Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := a.RequestSignedCall(ctx, wallet.ContractCall{FunctionName: "repay"})
	assert.ErrorIs(t, err, wallet.ErrSubmission)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtensionAdapter_NotConnected(t *testing.T) {
	bridge := mocks.NewMockExtensionBridgeForTest(t)
	a := wallet.NewExtensionAdapter(extensionConfig(), bridge)

	_, err := a.RequestSignedCall(context.Background(), wallet.ContractCall{FunctionName: "repay"})
	assert.ErrorIs(t, err, wallet.ErrNotConnected)

	_, err = a.TransferNative(context.Background(), wallet.Transfer{Recipient: mainnetAddress, Amount: 1})
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
}

func TestExtensionAdapter_TransferNative(t *testing.T) {
	bridge := mocks.NewMockExtensionBridgeForTest(t)
	a := connectedExtension(t, bridge)

	bridge.EXPECT().OpenSTXTransfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts wallet.STXTransferOptions) error {
			assert.Equal(t, contractAddress, opts.Recipient)
			assert.Equal(t, "1500000", opts.Amount)
			assert.Equal(t, "rent", opts.Memo)
			go opts.OnFinish(wallet.FinishedTx{TxID: "0xfeed"})
			return nil
		})

	txID, err := a.TransferNative(context.Background(), wallet.Transfer{
		Recipient: contractAddress,
		Amount:    1500000,
		Memo:      "rent",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txID)
}

func TestExtensionAdapter_Disconnect(t *testing.T) {
	bridge := mocks.NewMockExtensionBridgeForTest(t)
	a := connectedExtension(t, bridge)

	bridge.EXPECT().SignOut(gomock.Any()).Return(errors.New("companion gone")).Times(1)

	require.NoError(t, a.Disconnect(context.Background()))
	assert.Equal(t, wallet.Session{Status: wallet.StatusDisconnected}, a.Session())

	// second disconnect does not sign out again
	require.NoError(t, a.Disconnect(context.Background()))
	assert.Equal(t, wallet.Session{Status: wallet.StatusDisconnected}, a.Session())
}
