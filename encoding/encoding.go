// Package encoding handles the transport encoding of x402 payment data:
// base64-wrapped JSON, as carried in the X-Payment header.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/payflow-labs/x402-paygate-go/types"
)

// EncodeProof converts a PaymentProof to a base64-encoded JSON string suitable
// for an X-Payment header value.
func EncodeProof(proof types.PaymentProof) (string, error) {
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("failed to marshal proof: %w", err)
	}
	return base64.StdEncoding.EncodeToString(proofJSON), nil
}

// DecodeProof converts a base64-encoded JSON string back to a PaymentProof.
//
// Returns an error if base64 decoding or JSON unmarshaling fails.
func DecodeProof(encoded string) (types.PaymentProof, error) {
	var proof types.PaymentProof

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return proof, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &proof); err != nil {
		return proof, fmt.Errorf("failed to unmarshal proof: %w", err)
	}

	return proof, nil
}
