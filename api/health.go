package api

import (
	"log/slog"
	"net/http"

	"github.com/payflow-labs/x402-paygate-go/types"
)

// HealthResponse is the response of the health endpoint.
type HealthResponse struct {
	Status  string        `json:"status"`
	Network types.Network `json:"network"`
}

// NewHealthHandler creates the health endpoint handler.
func NewHealthHandler(network types.Network) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Network: network,
		}, slog.Default())
	})
}
