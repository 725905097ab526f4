package handler

import (
	"net/http"

	"github.com/iho/payflow/internal/usecase"
)

// LedgerHandler exposes ledger-wide checks.
type LedgerHandler struct {
	queryUC *usecase.QueryUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(queryUC *usecase.QueryUseCase) *LedgerHandler {
	return &LedgerHandler{queryUC: queryUC}
}

// Consistency verifies that transfers have conserved the total balance.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.queryUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}
