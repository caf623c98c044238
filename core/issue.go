package core

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/payflow-labs/x402-paygate-go/config"
	"github.com/payflow-labs/x402-paygate-go/types"
)

// DefaultMaxTimeoutSeconds is the advisory validity window attached to every
// issued challenge.
const DefaultMaxTimeoutSeconds = 300

// IssueChallenge builds a payment challenge for the given resource and price.
// The price must already be expressed in the asset's smallest unit. The
// returned challenge is self-describing: a client needs no side information
// beyond the challenge itself to construct a proof.
func IssueChallenge(resource string, priceSmallestUnits string, cfg config.Config) types.PaymentChallenge {
	return types.PaymentChallenge{
		X402Version: types.X402Version1,
		Accepts: []types.PaymentOption{
			{
				Scheme:            types.SchemeExact,
				Network:           cfg.Network,
				MaxAmountRequired: priceSmallestUnits,
				Resource:          resource,
				Description:       "Payment required for " + resource,
				MimeType:          "application/json",
				PayTo:             cfg.RecipientAddress,
				MaxTimeoutSeconds: DefaultMaxTimeoutSeconds,
				Asset:             cfg.AssetAddress,
				Extra: types.Extra{
					Name:      cfg.AssetName,
					Version:   cfg.AssetVersion,
					Reference: newReference(),
				},
			},
		},
	}
}

// newReference generates a reference token unique across calls within the
// process lifetime. The millisecond timestamp component is monotonically
// non-decreasing and the UUID component separates challenges issued in the
// same millisecond.
func newReference() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 16) + "-" + uuid.NewString()
}
