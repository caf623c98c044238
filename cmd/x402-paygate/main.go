// Command x402-paygate serves a protected resource behind an x402 payment
// challenge, verifying settlements against the configured EVM network.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/payflow-labs/x402-paygate-go/api"
	"github.com/payflow-labs/x402-paygate-go/config"
	"github.com/payflow-labs/x402-paygate-go/core"
)

// ProtectedResource is the path of the paid resource.
const ProtectedResource = "/premium"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	store := core.NewVerifiedPaymentStore(cfg.CacheTTL)
	store.StartSweeper(time.Minute)
	defer store.Close()

	verifier := core.NewVerifier(cfg, store)

	payload := map[string]any{
		"message":  "premium content unlocked",
		"resource": ProtectedResource,
	}

	mux := http.NewServeMux()
	mux.Handle(ProtectedResource, api.NewResourceHandler(cfg, verifier, ProtectedResource, payload, logger))
	mux.Handle("/payments", api.NewPaymentsHandler(store, logger))
	mux.Handle("/health", api.NewHealthHandler(cfg.Network))

	logger.Info("payment gate listening",
		"addr", cfg.ListenAddr,
		"network", cfg.Network,
		"resource", ProtectedResource,
		"price", cfg.PriceSmallestUnits,
	)

	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
