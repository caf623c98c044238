// Package api contains the HTTP handlers for the payment gate.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/payflow-labs/x402-paygate-go/config"
	"github.com/payflow-labs/x402-paygate-go/core"
)

// PaymentHeader is the request header carrying the encoded payment proof.
const PaymentHeader = "X-Payment"

// genericVerifierError is attached to re-issued challenges when verification
// hit an internal fault. Internal detail is logged, never sent to the client.
const genericVerifierError = "payment verification unavailable"

// ResourceHandler gates access to one protected resource behind an x402
// payment challenge. It is stateless per request: the only state shared
// across requests is the verifier's payment store.
type ResourceHandler struct {
	cfg      config.Config
	verifier *core.Verifier
	resource string
	payload  map[string]any
	logger   *slog.Logger
}

// NewResourceHandler creates a handler serving payload at the given resource
// path once payment is verified.
func NewResourceHandler(cfg config.Config, verifier *core.Verifier, resource string, payload map[string]any, logger *slog.Logger) *ResourceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceHandler{
		cfg:      cfg,
		verifier: verifier,
		resource: resource,
		payload:  payload,
		logger:   logger,
	}
}

// ServeHTTP implements the resource access gate.
func (h *ResourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	// Only GET is supported on the resource endpoint
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check for the payment proof header
	proofHeader := r.Header.Get(PaymentHeader)
	if proofHeader == "" {
		// No proof: issue a fresh challenge
		h.logger.Info("no payment header provided", "resource", h.resource)
		h.writeChallenge(w, "")
		return
	}

	// Verify the submitted proof
	result, err := h.verifier.Verify(r.Context(), proofHeader)
	if err != nil {
		// Internal fault: re-issue with a generic error
		h.logger.Error("payment verification fault", "resource", h.resource, "error", err)
		h.writeChallenge(w, genericVerifierError)
		return
	}

	// Invalid proof: re-issue with the failure reason
	if !result.IsValid {
		h.logger.Info("payment rejected", "resource", h.resource, "reason", result.Reason)
		h.writeChallenge(w, string(result.Reason))
		return
	}

	// Valid proof: release the resource with the verification result attached
	h.logger.Info("payment accepted", "resource", h.resource, "txHash", result.TxHash, "cached", result.Cached)

	body := make(map[string]any, len(h.payload)+1)
	for k, v := range h.payload {
		body[k] = v
	}
	body["payment"] = result

	writeJSON(w, http.StatusOK, body, h.logger)
}

// writeChallenge issues a fresh challenge, attaching the failure reason when
// the request carried a proof that did not verify.
func (h *ResourceHandler) writeChallenge(w http.ResponseWriter, reason string) {
	challenge := core.IssueChallenge(h.resource, h.cfg.PriceSmallestUnits, h.cfg)
	challenge.Error = reason

	writeJSON(w, http.StatusPaymentRequired, challenge, h.logger)
}

// writeJSON marshals v and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		// Header already written so we log the error
		logger.Error("failed to write response", "error", err)
	}
}
