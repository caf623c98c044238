package tests

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/payflow-labs/x402-paygate-go/api"
	"github.com/payflow-labs/x402-paygate-go/config"
	"github.com/payflow-labs/x402-paygate-go/core"
	"github.com/payflow-labs/x402-paygate-go/encoding"
	"github.com/payflow-labs/x402-paygate-go/types"
)

const (
	testAssetAddress     = "0x0000000000000000000000000000000000000A55"
	testRecipientAddress = "0x0000000000000000000000000000000000000Fee"
	testResource         = "/premium"
	testPrice            = "1000"
	testTxHash           = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

var registerMockDriverOnce sync.Once

func setupMockDatabase(t *testing.T, dsnID string) (sqlmock.Sqlmock, string, func()) {
	t.Helper()

	dsn := "sqlmock_db_" + dsnID
	db, mock, err := sqlmock.NewWithDSN(dsn)
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}

	registerMockDriverOnce.Do(func() {
		driver := db.Driver()
		sql.Register("postgres", driver)
	})

	cleanup := func() {
		db.Close()
	}

	return mock, dsn, cleanup
}

// mockEthClient implements core.EthClientInterface with overridable behavior
// and call counters.
type mockEthClient struct {
	mu                 sync.Mutex
	receiptCalls       int
	transactionCalls   int
	transactionReceipt func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	transactionByHash  func(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error)
}

func (m *mockEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	m.mu.Lock()
	m.receiptCalls++
	m.mu.Unlock()
	return m.transactionReceipt(ctx, txHash)
}

func (m *mockEthClient) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
	m.mu.Lock()
	m.transactionCalls++
	m.mu.Unlock()
	return m.transactionByHash(ctx, hash)
}

func (m *mockEthClient) ReceiptCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receiptCalls
}

func setupMockEthClient(t *testing.T, client core.EthClientInterface) {
	t.Helper()

	originalNewEthClient := core.NewEthClient
	t.Cleanup(func() {
		core.NewEthClient = originalNewEthClient
	})

	core.NewEthClient = func(rpcURL string) (core.EthClientInterface, error) {
		return client, nil
	}
}

// settledOnChainClient mocks a successful settlement to the asset contract.
func settledOnChainClient() *mockEthClient {
	assetAddress := common.HexToAddress(testAssetAddress)
	return &mockEthClient{
		transactionReceipt: func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
			return &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}, nil
		},
		transactionByHash: func(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
			return ethtypes.NewTx(&ethtypes.LegacyTx{To: &assetAddress}), false, nil
		},
	}
}

func newTestConfig() config.Config {
	return config.Config{
		Network:            types.NetworkSeiTestnet,
		AssetAddress:       testAssetAddress,
		AssetDecimals:      6,
		AssetName:          "USDC",
		AssetVersion:       "1",
		RecipientAddress:   testRecipientAddress,
		RPCURL:             "http://localhost:8545",
		PriceSmallestUnits: testPrice,
		VerifyTimeout:      5 * time.Second,
		CacheTTL:           time.Hour,
	}
}

// newGate builds a resource handler plus the store backing its verifier.
func newGate(t *testing.T) (*api.ResourceHandler, *core.VerifiedPaymentStore) {
	t.Helper()

	store := core.NewVerifiedPaymentStore(time.Hour)
	t.Cleanup(store.Close)

	cfg := newTestConfig()
	verifier := core.NewVerifier(cfg, store)

	payload := map[string]any{"message": "premium content unlocked"}
	handler := api.NewResourceHandler(cfg, verifier, testResource, payload, slog.Default())

	return handler, store
}

func validProof() types.PaymentProof {
	return types.PaymentProof{
		X402Version: types.X402Version1,
		Scheme:      types.SchemeExact,
		Network:     types.NetworkSeiTestnet,
		Payload: types.ProofPayload{
			TxHash: testTxHash,
			Amount: testPrice,
			From:   "0x0000000000000000000000000000000000000001",
		},
	}
}

func encodeProof(t *testing.T, proof types.PaymentProof) string {
	t.Helper()

	encoded, err := encoding.EncodeProof(proof)
	if err != nil {
		t.Fatalf("failed to encode proof: %v", err)
	}
	return encoded
}

func requestResource(t *testing.T, handler http.Handler, proofHeader string, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()

	req := httptest.NewRequest("GET", testResource, nil)
	if proofHeader != "" {
		req.Header.Set(api.PaymentHeader, proofHeader)
	}

	handler.ServeHTTP(w, req)

	if w.Code != expectedStatus {
		t.Fatalf("expected status %d, got %d. Body: %s", expectedStatus, w.Code, w.Body.String())
	}

	return w
}

func decodeChallenge(t *testing.T, body string) types.PaymentChallenge {
	t.Helper()

	var challenge types.PaymentChallenge
	if err := json.Unmarshal([]byte(body), &challenge); err != nil {
		t.Fatalf("failed to decode challenge: %v. Body: %s", err, body)
	}
	return challenge
}

func decodeReleasedResource(t *testing.T, body string) (map[string]json.RawMessage, types.VerificationResult) {
	t.Helper()

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v. Body: %s", err, body)
	}

	raw, ok := payload["payment"]
	if !ok {
		t.Fatalf("released resource missing payment field. Body: %s", body)
	}

	var result types.VerificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to decode payment result: %v", err)
	}

	return payload, result
}
