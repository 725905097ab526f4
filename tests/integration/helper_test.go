package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adaptershttp "github.com/iho/payflow/internal/adapter/http"
	"github.com/iho/payflow/internal/adapter/http/dto"
	"github.com/iho/payflow/internal/adapter/http/handler"
	postgresrepo "github.com/iho/payflow/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/payflow/internal/adapter/repository/redis"
	"github.com/iho/payflow/internal/infrastructure/auth"
	infraredis "github.com/iho/payflow/internal/infrastructure/redis"
	"github.com/iho/payflow/internal/usecase"
	"github.com/iho/payflow/tests/testutil"
)

// testServer bundles the router with the repositories behind it so tests can
// reach past the API when they need to.
type testServer struct {
	router     http.Handler
	db         *testutil.TestDB
	outboxRepo *postgresrepo.OutboxRepository
	transferUC *usecase.TransferUseCase
	queryUC    *usecase.QueryUseCase
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	t.Cleanup(testDB.Cleanup)
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	txManager := postgresrepo.NewTxManager(pool)
	accountRepo := postgresrepo.NewAccountRepository(pool)
	auditRepo := postgresrepo.NewAuditRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	ledgerRepo := postgresrepo.NewLedgerRepository(pool)
	idGen := postgresrepo.NewULIDGenerator()
	retrier := postgresrepo.NewRetrier()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	redisClient, err := infraredis.NewClient(ctx, redisURL)
	require.NoError(t, err, "failed to connect to redis")
	t.Cleanup(func() { redisClient.Close() })

	cache := redisrepo.NewCache(redisClient)
	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)

	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, idGen)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, auditRepo, outboxRepo, idGen, retrier)
	queryUC := usecase.NewQueryUseCase(accountRepo, auditRepo, ledgerRepo, cache)

	jwtManager := auth.NewJWTManager("integration-secret", time.Hour)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AuthHandler:      handler.NewAuthHandler(accountUC, jwtManager, time.Hour, nil),
		AccountHandler:   handler.NewAccountHandler(queryUC),
		TransferHandler:  handler.NewTransferHandler(transferUC, queryUC, nil),
		LedgerHandler:    handler.NewLedgerHandler(queryUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		JWTManager:       jwtManager,
		IdempotencyStore: idempotencyStore,
	})

	return &testServer{
		router:     router,
		db:         testDB,
		outboxRepo: outboxRepo,
		transferUC: transferUC,
		queryUC:    queryUC,
	}
}

// do sends a JSON request through the router.
func (s *testServer) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	return rec
}

// registerAndLogin registers an account through the API and returns the
// account ID and a bearer token for it.
func (s *testServer) registerAndLogin(t *testing.T, username, password string) (string, string) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/register", "", dto.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())

	var account dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))

	rec = s.do(t, http.MethodPost, "/login", "", dto.LoginRequest{
		Username: username,
		Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	var tokenResp dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	return account.ID, tokenResp.Token
}
