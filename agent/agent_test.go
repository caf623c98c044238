package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payflow-labs/x402-paygate-go/api"
	"github.com/payflow-labs/x402-paygate-go/encoding"
	"github.com/payflow-labs/x402-paygate-go/types"
)

const (
	testAsset     = "0x0000000000000000000000000000000000000A55"
	testRecipient = "0x0000000000000000000000000000000000000Fee"
	testTxHash    = "0x2222222222222222222222222222222222222222222222222222222222222222"
	walletAddress = "0x0000000000000000000000000000000000000001"
)

// mockWallet records transfers and returns a fixed transaction hash.
type mockWallet struct {
	transfers []transferCall
	err       error
}

type transferCall struct {
	asset     string
	amount    string
	recipient string
}

func (w *mockWallet) Transfer(ctx context.Context, asset, amount, recipient string) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.transfers = append(w.transfers, transferCall{asset: asset, amount: amount, recipient: recipient})
	return testTxHash, nil
}

func (w *mockWallet) Address() string {
	return walletAddress
}

func testChallenge() types.PaymentChallenge {
	return types.PaymentChallenge{
		X402Version: types.X402Version1,
		Accepts: []types.PaymentOption{
			{
				Scheme:            types.SchemeExact,
				Network:           types.NetworkSeiTestnet,
				MaxAmountRequired: "1000",
				Resource:          "/premium",
				PayTo:             testRecipient,
				MaxTimeoutSeconds: 300,
				Asset:             testAsset,
				Extra: types.Extra{
					Name:      "USDC",
					Version:   "1",
					Reference: "1990abc-reference",
				},
			},
		},
	}
}

// newGateServer simulates the payment gate: 402 without a proof, 200 once the
// proof references the expected settlement.
func newGateServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(api.PaymentHeader)
		if header == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(testChallenge())
			return
		}

		proof, err := encoding.DecodeProof(header)
		if err != nil || proof.Payload.TxHash != testTxHash {
			challenge := testChallenge()
			challenge.Error = string(types.ReasonTxFailedOrNotFound)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(challenge)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": "premium content unlocked",
			"payment": types.VerificationResult{
				IsValid: true,
				TxHash:  proof.Payload.TxHash,
			},
		})
	}))
}

func TestRequestResource_DecodesChallenge(t *testing.T) {
	server := newGateServer(t)
	defer server.Close()

	a := New(server.URL, &mockWallet{})

	outcome, err := a.RequestResource(context.Background(), "/premium")
	require.NoError(t, err)

	assert.False(t, outcome.Released())
	assert.Equal(t, http.StatusPaymentRequired, outcome.StatusCode)
	require.NotNil(t, outcome.Challenge)
	require.Len(t, outcome.Challenge.Accepts, 1)
	assert.Equal(t, testRecipient, outcome.Challenge.Accepts[0].PayTo)
}

func TestPay_BuildsProofFromChallenge(t *testing.T) {
	wallet := &mockWallet{}
	a := New("http://localhost", wallet)

	proof, err := a.Pay(context.Background(), testChallenge())
	require.NoError(t, err)

	require.Len(t, wallet.transfers, 1)
	assert.Equal(t, testAsset, wallet.transfers[0].asset)
	assert.Equal(t, "1000", wallet.transfers[0].amount)
	assert.Equal(t, testRecipient, wallet.transfers[0].recipient)

	assert.Equal(t, types.X402Version1, proof.X402Version)
	assert.Equal(t, types.SchemeExact, proof.Scheme)
	assert.Equal(t, types.NetworkSeiTestnet, proof.Network)
	assert.Equal(t, testTxHash, proof.Payload.TxHash)
	assert.Equal(t, "1000", proof.Payload.Amount)
	assert.Equal(t, walletAddress, proof.Payload.From)
}

func TestPay_EmptyChallenge(t *testing.T) {
	a := New("http://localhost", &mockWallet{})

	_, err := a.Pay(context.Background(), types.PaymentChallenge{X402Version: types.X402Version1})
	require.Error(t, err)
}

func TestPay_WalletFailure(t *testing.T) {
	wallet := &mockWallet{err: errors.New("insufficient balance")}
	a := New("http://localhost", wallet)

	_, err := a.Pay(context.Background(), testChallenge())
	require.ErrorContains(t, err, "payment execution failed")
}

func TestAcquireResource_HappyPath(t *testing.T) {
	server := newGateServer(t)
	defer server.Close()

	wallet := &mockWallet{}
	a := New(server.URL, wallet)

	outcome, err := a.AcquireResource(context.Background(), "/premium")
	require.NoError(t, err)

	assert.True(t, outcome.Released())
	require.NotNil(t, outcome.Payment)
	assert.True(t, outcome.Payment.IsValid)
	assert.Equal(t, testTxHash, outcome.Payment.TxHash)
	assert.Len(t, wallet.transfers, 1)
}

func TestRetryWithProof_RejectedPaymentStaysUnreleased(t *testing.T) {
	server := newGateServer(t)
	defer server.Close()

	a := New(server.URL, &mockWallet{})

	proof := types.PaymentProof{
		X402Version: types.X402Version1,
		Scheme:      types.SchemeExact,
		Network:     types.NetworkSeiTestnet,
		Payload: types.ProofPayload{
			TxHash: "0xwrong",
			Amount: "1000",
			From:   walletAddress,
		},
	}

	outcome, err := a.RetryWithProof(context.Background(), "/premium", proof)
	require.NoError(t, err)

	// A 402 terminal state means not yet accepted, never a fault
	assert.False(t, outcome.Released())
	require.NotNil(t, outcome.Challenge)
	assert.Equal(t, string(types.ReasonTxFailedOrNotFound), outcome.Challenge.Error)
}
