package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockQuerierForTest creates a new mock Querier for testing
func NewMockQuerierForTest(t *testing.T) *MockQuerier {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockQuerier(ctrl)
}

// NewMockAdapterForTest creates a new mock Adapter for testing
func NewMockAdapterForTest(t *testing.T) *MockAdapter {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockAdapter(ctrl)
}

// NewMockExtensionBridgeForTest creates a new mock ExtensionBridge for testing
func NewMockExtensionBridgeForTest(t *testing.T) *MockExtensionBridge {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockExtensionBridge(ctrl)
}

// NewMockRelayTransportForTest creates a new mock RelayTransport for testing
func NewMockRelayTransportForTest(t *testing.T) *MockRelayTransport {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRelayTransport(ctrl)
}

// NewMockWalletSourceForTest creates a new mock WalletSource for testing
func NewMockWalletSourceForTest(t *testing.T) *MockWalletSource {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockWalletSource(ctrl)
}

// NewMockStatusQuerierForTest creates a new mock StatusQuerier for testing
func NewMockStatusQuerierForTest(t *testing.T) *MockStatusQuerier {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockStatusQuerier(ctrl)
}

// NewMockDepositSourceForTest creates a new mock DepositSource for testing
func NewMockDepositSourceForTest(t *testing.T) *MockDepositSource {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockDepositSource(ctrl)
}

// NewMockRecorderForTest creates a new mock Recorder for testing
func NewMockRecorderForTest(t *testing.T) *MockRecorder {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRecorder(ctrl)
}

// NewMockPositionFetcherForTest creates a new mock PositionFetcher for testing
func NewMockPositionFetcherForTest(t *testing.T) *MockPositionFetcher {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockPositionFetcher(ctrl)
}
