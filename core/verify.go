package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/payflow-labs/x402-paygate-go/config"
	"github.com/payflow-labs/x402-paygate-go/encoding"
	"github.com/payflow-labs/x402-paygate-go/types"
)

// Verifier checks client-submitted payment proofs against the configured
// ledger. It owns the verified-payment store, so separate Verifier instances
// do not share state.
type Verifier struct {
	cfg   config.Config
	store *VerifiedPaymentStore
}

// NewVerifier creates a Verifier backed by the given store.
func NewVerifier(cfg config.Config, store *VerifiedPaymentStore) *Verifier {
	return &Verifier{
		cfg:   cfg,
		store: store,
	}
}

// Store returns the verified-payment store owned by this verifier.
func (v *Verifier) Store() *VerifiedPaymentStore {
	return v.store
}

// Verify decodes an X-Payment header value and confirms the claimed
// settlement on-chain. Expected failures are reported in the result with a
// nil error; a non-nil error means an internal fault and is mapped to a
// generic re-issued challenge by the caller.
//
// A transaction hash that has once been judged valid is never re-verified
// against the ledger: repeat calls are served from the store with Cached set.
func (v *Verifier) Verify(ctx context.Context, encodedProof string) (types.VerificationResult, error) {

	// Decode the proof from its transport encoding
	proof, err := encoding.DecodeProof(encodedProof)
	if err != nil {
		return types.VerificationResult{
			IsValid: false,
			Reason:  types.ReasonMalformedProof,
		}, nil
	}

	// Verify the protocol version is supported
	if proof.X402Version != types.X402Version1 {
		return types.VerificationResult{
			IsValid: false,
			Reason:  types.ReasonInvalidFormatOrNetwork,
		}, nil
	}

	// Verify the payment scheme is supported
	if proof.Scheme != types.SchemeExact {
		return types.VerificationResult{
			IsValid: false,
			Reason:  types.ReasonInvalidFormatOrNetwork,
		}, nil
	}

	// Verify the network matches the configured network
	if proof.Network != v.cfg.Network {
		return types.VerificationResult{
			IsValid: false,
			Reason:  types.ReasonInvalidFormatOrNetwork,
		}, nil
	}

	// Verify the proof carries a transaction hash
	txHash := proof.Payload.TxHash
	if txHash == "" {
		return types.VerificationResult{
			IsValid: false,
			Reason:  types.ReasonNoProofProvided,
		}, nil
	}

	// Serve repeat verifications of a known settlement from the store
	if _, ok := v.store.Get(txHash); ok {
		return types.VerificationResult{
			IsValid: true,
			TxHash:  txHash,
			Cached:  true,
		}, nil
	}

	// Get the RPC URL for the configured network
	if v.cfg.RPCURL == "" {
		// Return an error that will be handled as an internal fault
		return types.VerificationResult{}, fmt.Errorf("RPC URL is not configured")
	}

	// Dial the Ethereum RPC client
	client, err := NewEthClient(v.cfg.RPCURL)
	if err != nil {
		// Return an error that will be handled as an internal fault
		return types.VerificationResult{}, fmt.Errorf("failed to dial RPC client: %w", err)
	}

	// Create the context for ledger operations with timeout
	ctx, cancel := context.WithTimeout(ctx, v.cfg.VerifyTimeout)
	defer cancel()

	// Look up the transaction receipt on the ledger
	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		// The ledger has no record of the transaction
		if errors.Is(err, ethereum.NotFound) {
			return types.VerificationResult{
				IsValid: false,
				Reason:  types.ReasonTxFailedOrNotFound,
			}, nil
		}
		// The deadline elapsed: fail closed rather than hang
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return types.VerificationResult{
				IsValid: false,
				Reason:  types.ReasonTxFailedOrNotFound,
			}, nil
		}
		// Return an error that will be handled as an internal fault
		return types.VerificationResult{}, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	// Verify the transaction did not revert
	if receipt == nil || receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return types.VerificationResult{
			IsValid: false,
			Reason:  types.ReasonTxFailedOrNotFound,
		}, nil
	}

	// Look up the transaction to read its destination
	tx, _, err := client.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, context.Canceled) {
			return types.VerificationResult{
				IsValid: false,
				Reason:  types.ReasonTxFailedOrNotFound,
			}, nil
		}
		// Return an error that will be handled as an internal fault
		return types.VerificationResult{}, fmt.Errorf("failed to get transaction: %w", err)
	}

	// Verify the transaction destination is the configured asset contract.
	// HexToAddress normalizes casing, so the comparison is case-insensitive.
	// This confirms the transaction invoked the asset contract; it does not
	// decode the transfer event log to confirm the token recipient or amount.
	if tx == nil || tx.To() == nil || *tx.To() != common.HexToAddress(v.cfg.AssetAddress) {
		return types.VerificationResult{
			IsValid: false,
			Reason:  types.ReasonInvalidTransferDetails,
		}, nil
	}

	// Record the settlement so repeat verifications skip the ledger
	v.store.Put(VerifiedPayment{
		TxHash:     txHash,
		Amount:     proof.Payload.Amount,
		From:       proof.Payload.From,
		ObservedAt: time.Now(),
	})

	// Return the valid verification result
	return types.VerificationResult{
		IsValid: true,
		TxHash:  txHash,
		Cached:  false,
	}, nil
}
