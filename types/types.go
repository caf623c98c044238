package types

// PaymentChallenge is the body of a 402 response. It describes what must be
// paid to access one resource.
type PaymentChallenge struct {
	X402Version X402Version     `json:"x402Version"`
	Accepts     []PaymentOption `json:"accepts"`
	Error       string          `json:"error,omitempty"`
}

// PaymentOption is one acceptable way to pay.
type PaymentOption struct {
	Scheme            Scheme  `json:"scheme"`
	Network           Network `json:"network"`
	MaxAmountRequired string  `json:"maxAmountRequired"`
	Resource          string  `json:"resource"`
	Description       string  `json:"description"`
	MimeType          string  `json:"mimeType"`
	PayTo             string  `json:"payTo"`
	MaxTimeoutSeconds int64   `json:"maxTimeoutSeconds"`
	Asset             string  `json:"asset"`
	Extra             Extra   `json:"extra"`
}

// Extra carries asset metadata and the per-challenge reference token.
type Extra struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Reference string `json:"reference"`
}

// PaymentProof is the client-submitted evidence of settlement, transported
// base64-encoded in the X-Payment header.
type PaymentProof struct {
	X402Version X402Version  `json:"x402Version"`
	Scheme      Scheme       `json:"scheme"`
	Network     Network      `json:"network"`
	Payload     ProofPayload `json:"payload"`
}

// ProofPayload identifies the claimed settlement transaction.
type ProofPayload struct {
	TxHash string `json:"txHash"`
	Amount string `json:"amount"`
	From   string `json:"from"`
}

// VerificationResult is the verifier's judgment on a proof.
type VerificationResult struct {
	IsValid bool         `json:"isValid"`
	Reason  VerifyReason `json:"reason,omitempty"`
	TxHash  string       `json:"txHash,omitempty"`
	Cached  bool         `json:"cached"`
}
