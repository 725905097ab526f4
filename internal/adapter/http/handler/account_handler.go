package handler

import (
	"net/http"

	"github.com/iho/payflow/internal/adapter/http/dto"
	"github.com/iho/payflow/internal/adapter/http/middleware"
	"github.com/iho/payflow/internal/usecase"
)

// AccountHandler handles account read endpoints.
type AccountHandler struct {
	queryUC *usecase.QueryUseCase
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(queryUC *usecase.QueryUseCase) *AccountHandler {
	return &AccountHandler{queryUC: queryUC}
}

// Balance returns the caller's current balance.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetAccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	balance, err := h.queryUC.GetBalance(r.Context(), caller.ID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get balance", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: balance})
}

// List returns transfer targets: every account except the caller's.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetAccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	summaries, err := h.queryUC.ListAccounts(r.Context(), caller.ID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}
