package agent

import "context"

// Wallet executes on-chain transfers on the agent's behalf. Key management,
// signing and broadcast live behind this interface.
type Wallet interface {
	// Transfer moves amountSmallestUnits of the asset to the recipient and
	// returns the transaction hash of the broadcast settlement. It fails with
	// a payment-execution error on insufficient balance, signing failure or
	// broadcast failure.
	Transfer(ctx context.Context, asset, amountSmallestUnits, recipient string) (string, error)

	// Address returns the wallet's account address, echoed into the proof as
	// the claimed payer.
	Address() string
}
