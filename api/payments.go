package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/payflow-labs/x402-paygate-go/auth"
	"github.com/payflow-labs/x402-paygate-go/core"
	"github.com/payflow-labs/x402-paygate-go/utils"
)

// PaymentsHandler is the operator endpoint listing verified payments held in
// the store. It requires operator authentication when configured.
type PaymentsHandler struct {
	store  *core.VerifiedPaymentStore
	logger *slog.Logger
}

// PaymentsResponse is the response of the payments listing.
type PaymentsResponse struct {
	Count    int                    `json:"count"`
	Payments []core.VerifiedPayment `json:"payments"`
}

// NewPaymentsHandler creates a payments introspection handler over the store.
func NewPaymentsHandler(store *core.VerifiedPaymentStore, logger *slog.Logger) *PaymentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentsHandler{store: store, logger: logger}
}

// ServeHTTP lists the verified payments, most recent first.
func (h *PaymentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Authenticate the operator request
	if err := auth.Authenticate(r); err != nil {
		var se utils.StatusError
		if errors.As(err, &se) {
			http.Error(w, err.Error(), se.Status())
		} else {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	entries := h.store.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ObservedAt.After(entries[j].ObservedAt)
	})

	writeJSON(w, http.StatusOK, PaymentsResponse{
		Count:    len(entries),
		Payments: entries,
	}, h.logger)
}
