package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iho/payflow/internal/adapter/http/dto"
	"github.com/iho/payflow/internal/infrastructure/auth"
	"github.com/iho/payflow/internal/infrastructure/metrics"
	"github.com/iho/payflow/internal/usecase"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	accountUC     *usecase.AccountUseCase
	jwtManager    *auth.JWTManager
	tokenDuration time.Duration
	metrics       *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountUC *usecase.AccountUseCase, jwtManager *auth.JWTManager, tokenDuration time.Duration, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		accountUC:     accountUC,
		jwtManager:    jwtManager,
		tokenDuration: tokenDuration,
		metrics:       m,
	}
}

// Register creates a new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to register", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.AccountsRegistered.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Login authenticates an account and issues a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.Authenticate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		if h.metrics != nil {
			h.metrics.AuthAttempts.WithLabelValues("failure").Inc()
		}

		status := mapDomainError(err)
		writeError(w, status, "failed to authenticate", err.Error())

		return
	}

	token, err := h.jwtManager.Generate(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.AuthAttempts.WithLabelValues("success").Inc()
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenDuration),
		Account:   dto.AccountFromDomain(account),
	})
}
