package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/payflow/internal/adapter/http/dto"
	"github.com/iho/payflow/internal/adapter/http/middleware"
	"github.com/iho/payflow/internal/infrastructure/metrics"
	"github.com/iho/payflow/internal/usecase"
)

// TransferHandler handles transfer and history endpoints.
type TransferHandler struct {
	transferUC *usecase.TransferUseCase
	queryUC    *usecase.QueryUseCase
	metrics    *metrics.Metrics
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC *usecase.TransferUseCase, queryUC *usecase.QueryUseCase, m *metrics.Metrics) *TransferHandler {
	return &TransferHandler{
		transferUC: transferUC,
		queryUC:    queryUC,
		metrics:    m,
	}
}

// Create moves money from the caller to the named receiver.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetAccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()

	result, err := h.transferUC.Transfer(r.Context(), req.ToUseCaseInput(caller.ID))
	if err != nil {
		if h.metrics != nil {
			h.metrics.TransfersFailed.WithLabelValues(failureReason(err)).Inc()
		}

		status := mapDomainError(err)
		writeError(w, status, "failed to create transfer", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.TransfersCompleted.Inc()
		h.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		amount, _ := req.Amount.Float64()
		h.metrics.TransferAmount.Observe(amount)
	}

	writeJSON(w, http.StatusCreated, dto.TransferResponse{
		RecordID:   result.RecordID,
		NewBalance: result.NewBalance,
	})
}

// History returns the transaction history of the account in the path.
// Only the account owner may read it.
func (h *TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetAccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	items, err := h.queryUC.GetHistory(r.Context(), accountID, caller.ID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get history", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(items))
}

// failureReason labels a transfer error for metrics.
func failureReason(err error) string {
	switch mapDomainError(err) {
	case http.StatusNotFound:
		return "receiver_not_found"
	case http.StatusBadRequest:
		return "rejected"
	default:
		return "internal"
	}
}
