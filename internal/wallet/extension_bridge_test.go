package wallet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// companion is a fake signer companion. Each opened prompt reports pending
// once and then the outcome registered for its path.
type companion struct {
	mu       sync.Mutex
	outcomes map[string]map[string]any
	requests map[string]string
	polls    map[string]int
	bodies   map[string]map[string]any
	signOuts int
}

func newCompanion() *companion {
	return &companion{
		outcomes: make(map[string]map[string]any),
		requests: make(map[string]string),
		polls:    make(map[string]int),
		bodies:   make(map[string]map[string]any),
	}
}

func (c *companion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/sign-out":
		c.signOuts++
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		c.bodies[r.URL.Path] = body
		id := "req-" + r.URL.Path[len("/v1/"):]
		c.requests[id] = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"requestId": id})
	case r.Method == http.MethodGet && len(r.URL.Path) > len("/v1/requests/"):
		id := r.URL.Path[len("/v1/requests/"):]
		path, ok := c.requests[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		c.polls[id]++
		if c.polls[id] == 1 {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
			return
		}
		_ = json.NewEncoder(w).Encode(c.outcomes[path])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (c *companion) body(path string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bodies[path]
}

func TestHTTPBridge_ExtensionFlow(t *testing.T) {
	fake := newCompanion()
	fake.outcomes["/v1/connect"] = map[string]any{
		"status": "finished",
		"result": map[string]any{"addresses": []map[string]string{{"symbol": "STX", "address": mainnetAddress}}},
	}
	fake.outcomes["/v1/contract-call"] = map[string]any{
		"status": "finished",
		"result": map[string]string{"txId": "0xbeef", "txRaw": "0x80"},
	}
	fake.outcomes["/v1/stx-transfer"] = map[string]any{"status": "cancelled"}

	server := httptest.NewServer(fake)
	defer server.Close()

	bridge := wallet.NewHTTPBridge(server.URL, nil, wallet.WithPollInterval(5*time.Millisecond))
	a := wallet.NewExtensionAdapter(extensionConfig(), bridge)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Connect(ctx))
	address, ok := a.Address()
	require.True(t, ok)
	assert.Equal(t, mainnetAddress, address)

	txID, err := a.RequestSignedCall(ctx, wallet.ContractCall{FunctionName: "repay"})
	require.NoError(t, err)
	assert.Equal(t, "0xbeef", txID)

	body := fake.body("/v1/contract-call")
	assert.Equal(t, "repay", body["functionName"])
	assert.Equal(t, "allow", body["postConditionMode"])
	assert.Equal(t, contractName, body["contractName"])

	_, err = a.TransferNative(ctx, wallet.Transfer{Recipient: contractAddress, Amount: 1})
	assert.ErrorIs(t, err, wallet.ErrUserCancelled)

	require.NoError(t, a.Disconnect(ctx))
	fake.mu.Lock()
	assert.Equal(t, 1, fake.signOuts)
	fake.mu.Unlock()
}

func TestHTTPBridge_FailedPrompt(t *testing.T) {
	fake := newCompanion()
	fake.outcomes["/v1/connect"] = map[string]any{
		"status": "finished",
		"result": map[string]any{"addresses": []map[string]string{{"address": testnetAddress}}},
	}
	fake.outcomes["/v1/contract-call"] = map[string]any{"status": "failed", "error": "Broadcast failed: NotEnoughFunds"}

	server := httptest.NewServer(fake)
	defer server.Close()

	bridge := wallet.NewHTTPBridge(server.URL, nil, wallet.WithPollInterval(5*time.Millisecond))
	a := wallet.NewExtensionAdapter(extensionConfig(), bridge)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Connect(ctx))

	_, err := a.RequestSignedCall(ctx, wallet.ContractCall{FunctionName: "repay"})
	require.Error(t, err)
	assert.ErrorIs(t, err, wallet.ErrSubmission)
	assert.Equal(t, "Broadcast failed: NotEnoughFunds", err.Error())
}

func TestHTTPBridge_CompanionDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	bridge := wallet.NewHTTPBridge(server.URL, nil)
	a := wallet.NewExtensionAdapter(extensionConfig(), bridge)

	err := a.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, wallet.StatusError, a.Session().Status)
}
