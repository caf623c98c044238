// Package agent drives the x402 round trip against a payment-gated server:
// request the resource, observe the 402 challenge, pay it through a wallet,
// and retry with proof. The steps are explicit commands; there is no
// conversational dispatch.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/payflow-labs/x402-paygate-go/api"
	"github.com/payflow-labs/x402-paygate-go/encoding"
	"github.com/payflow-labs/x402-paygate-go/types"
)

// Outcome is the terminal state of one resource request.
type Outcome struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Challenge is set when the server answered 402.
	Challenge *types.PaymentChallenge

	// Payload is the protected payload when the server answered 200.
	Payload map[string]json.RawMessage

	// Payment is the verification result echoed in a 200 payload.
	Payment *types.VerificationResult
}

// Released reports whether the resource was served.
func (o *Outcome) Released() bool {
	return o.StatusCode == http.StatusOK
}

// Agent is a scripted x402 payment agent.
type Agent struct {
	baseURL string
	wallet  Wallet
	client  *resty.Client
	logger  *slog.Logger
}

// New creates an agent that talks to the gate at baseURL and pays through the
// given wallet.
func New(baseURL string, wallet Wallet) *Agent {
	return &Agent{
		baseURL: baseURL,
		wallet:  wallet,
		client:  resty.New().SetBaseURL(baseURL),
		logger:  slog.Default(),
	}
}

// RequestResource requests the resource without payment. A 402 response
// decodes into a challenge; a 200 response decodes into the payload.
func (a *Agent) RequestResource(ctx context.Context, path string) (*Outcome, error) {
	return a.get(ctx, path, "")
}

// Pay settles the first accepted payment option of the challenge through the
// wallet and builds the proof for the retry. The proof echoes the
// challenge's version, scheme and network.
func (a *Agent) Pay(ctx context.Context, challenge types.PaymentChallenge) (types.PaymentProof, error) {
	if len(challenge.Accepts) == 0 {
		return types.PaymentProof{}, fmt.Errorf("challenge carries no payment options")
	}

	option := challenge.Accepts[0]

	a.logger.Info("paying challenge",
		"asset", option.Asset,
		"amount", option.MaxAmountRequired,
		"payTo", option.PayTo,
		"reference", option.Extra.Reference,
	)

	txHash, err := a.wallet.Transfer(ctx, option.Asset, option.MaxAmountRequired, option.PayTo)
	if err != nil {
		return types.PaymentProof{}, fmt.Errorf("payment execution failed: %w", err)
	}

	return types.PaymentProof{
		X402Version: challenge.X402Version,
		Scheme:      option.Scheme,
		Network:     option.Network,
		Payload: types.ProofPayload{
			TxHash: txHash,
			Amount: option.MaxAmountRequired,
			From:   a.wallet.Address(),
		},
	}, nil
}

// RetryWithProof requests the resource again, attaching the encoded proof in
// the X-Payment header.
func (a *Agent) RetryWithProof(ctx context.Context, path string, proof types.PaymentProof) (*Outcome, error) {
	encoded, err := encoding.EncodeProof(proof)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proof: %w", err)
	}
	return a.get(ctx, path, encoded)
}

// AcquireResource runs the full round trip: request, pay the challenge, retry
// with proof. Any non-200 terminal state means the payment has not been
// accepted yet, and is returned as-is for the caller to surface.
func (a *Agent) AcquireResource(ctx context.Context, path string) (*Outcome, error) {

	outcome, err := a.RequestResource(ctx, path)
	if err != nil {
		return nil, err
	}

	// Already released, nothing to pay
	if outcome.Released() {
		return outcome, nil
	}

	if outcome.Challenge == nil {
		return outcome, fmt.Errorf("unexpected status %d without a challenge", outcome.StatusCode)
	}

	proof, err := a.Pay(ctx, *outcome.Challenge)
	if err != nil {
		return nil, err
	}

	return a.RetryWithProof(ctx, path, proof)
}

// get performs the gate request, decoding the body by status code.
func (a *Agent) get(ctx context.Context, path, encodedProof string) (*Outcome, error) {

	req := a.client.R().SetContext(ctx)
	if encodedProof != "" {
		req.SetHeader(api.PaymentHeader, encodedProof)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("resource request failed: %w", err)
	}

	outcome := &Outcome{StatusCode: resp.StatusCode()}

	switch resp.StatusCode() {
	case http.StatusPaymentRequired:
		var challenge types.PaymentChallenge
		if err := json.Unmarshal(resp.Body(), &challenge); err != nil {
			return nil, fmt.Errorf("failed to decode challenge: %w", err)
		}
		outcome.Challenge = &challenge

	case http.StatusOK:
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		outcome.Payload = payload

		if raw, ok := payload["payment"]; ok {
			var result types.VerificationResult
			if err := json.Unmarshal(raw, &result); err != nil {
				return nil, fmt.Errorf("failed to decode payment result: %w", err)
			}
			outcome.Payment = &result
		}
	}

	return outcome, nil
}
