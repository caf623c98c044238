package types

// X402Version is the protocol version enum.
type X402Version int

const (
	X402Version1 X402Version = 1
)

// Scheme is the payment scheme enum.
type Scheme string

const (
	SchemeExact Scheme = "exact"
)

// Network is the ledger network enum.
type Network string

const (
	NetworkSeiTestnet Network = "sei-testnet"
)

// VerifyReason is the verification failure reason enum.
type VerifyReason string

const (
	ReasonMalformedProof         VerifyReason = "malformed proof"
	ReasonInvalidFormatOrNetwork VerifyReason = "invalid payment format or network"
	ReasonTxFailedOrNotFound     VerifyReason = "transaction failed or not found"
	ReasonInvalidTransferDetails VerifyReason = "invalid transfer details"
	ReasonNoProofProvided        VerifyReason = "no valid payment proof provided"
)
