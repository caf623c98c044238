// Package gin provides Gin-compatible middleware for the x402 payment gate.
// It is a thin adapter: all verification logic lives in the core package.
package gin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow-labs/x402-paygate-go/api"
	"github.com/payflow-labs/x402-paygate-go/config"
	"github.com/payflow-labs/x402-paygate-go/core"
	"github.com/payflow-labs/x402-paygate-go/types"
)

// PaymentContextKey is the gin context key under which the verification
// result is stored for downstream handlers.
const PaymentContextKey = "x402_payment"

// PaymentGate returns Gin middleware that gates the wrapped handlers behind
// an x402 payment challenge for the given resource. On success the
// verification result is stored in the context under PaymentContextKey; on
// failure the chain is aborted with a 402 challenge.
func PaymentGate(cfg config.Config, verifier *core.Verifier, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := slog.Default()

		proofHeader := c.GetHeader(api.PaymentHeader)
		if proofHeader == "" {
			logger.Info("no payment header provided", "resource", resource)
			abortWithChallenge(c, cfg, resource, "")
			return
		}

		result, err := verifier.Verify(c.Request.Context(), proofHeader)
		if err != nil {
			logger.Error("payment verification fault", "resource", resource, "error", err)
			abortWithChallenge(c, cfg, resource, "payment verification unavailable")
			return
		}

		if !result.IsValid {
			logger.Info("payment rejected", "resource", resource, "reason", result.Reason)
			abortWithChallenge(c, cfg, resource, string(result.Reason))
			return
		}

		c.Set(PaymentContextKey, result)
		c.Next()
	}
}

// GetVerificationResult retrieves the verification result stored by the gate.
func GetVerificationResult(c *gin.Context) (types.VerificationResult, bool) {
	value, exists := c.Get(PaymentContextKey)
	if !exists {
		return types.VerificationResult{}, false
	}
	result, ok := value.(types.VerificationResult)
	return result, ok
}

// abortWithChallenge stops the handler chain with a fresh 402 challenge.
func abortWithChallenge(c *gin.Context, cfg config.Config, resource, reason string) {
	challenge := core.IssueChallenge(resource, cfg.PriceSmallestUnits, cfg)
	challenge.Error = reason

	c.AbortWithStatusJSON(http.StatusPaymentRequired, challenge)
}
