package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/easyledger/internal/handler"
	"github.com/xxxsen/easyledger/internal/middleware"
	"github.com/xxxsen/easyledger/internal/model"
	"github.com/xxxsen/easyledger/internal/pkg/response"
	"github.com/xxxsen/easyledger/internal/repo"
	"github.com/xxxsen/easyledger/internal/service"
)

type noopNotifier struct{}

func (noopNotifier) Name() string { return "noop" }

func (noopNotifier) Send(context.Context, string, string, string) error { return nil }

type brokenStore struct{}

var errStoreDown = errors.New("store unavailable")

func (brokenStore) Create(context.Context, *model.OtpRecord) error { return errStoreDown }

func (brokenStore) FindLatest(context.Context, string, string) (*model.OtpRecord, error) {
	return nil, errStoreDown
}

func (brokenStore) GetByID(context.Context, int64) (*model.OtpRecord, error) {
	return nil, errStoreDown
}

func (brokenStore) Consume(context.Context, int64, time.Time) (bool, error) {
	return false, errStoreDown
}

func (brokenStore) Ping(context.Context) error { return errStoreDown }

type storeWithPing interface {
	service.OtpStore
	handler.Pinger
}

func setupRouter(t *testing.T, store storeWithPing) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	otps := service.NewOtpService(store, noopNotifier{}, service.OtpOptions{})
	engine := gin.New()
	engine.Use(middleware.RequestID())
	handler.RegisterRoutes(engine.Group("/api/v1"), handler.RouterDeps{
		Otp:    handler.NewOtpHandler(otps),
		Health: handler.NewHealthHandler(store),
	})
	return engine
}

func seed(t *testing.T, store *repo.MemoryOtpRepo, email, code string, ttl time.Duration) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.Create(context.Background(), &model.OtpRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}))
}

func post(t *testing.T, router http.Handler, path, body string) (int, response.Body) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var out response.Body
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return resp.Code, out
}

func TestOtpSend(t *testing.T) {
	store := repo.NewMemoryOtpRepo()
	router := setupRouter(t, store)

	status, body := post(t, router, "/api/v1/otp/send", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.OK)
	require.Empty(t, body.Message)
	require.Equal(t, 1, store.Len())
}

func TestOtpSend_MissingEmail(t *testing.T) {
	store := repo.NewMemoryOtpRepo()
	router := setupRouter(t, store)

	for _, payload := range []string{`{}`, `{"email":"   "}`} {
		status, body := post(t, router, "/api/v1/otp/send", payload)
		require.Equal(t, http.StatusBadRequest, status)
		require.False(t, body.OK)
		require.Equal(t, "email required", body.Message)
	}

	status, body := post(t, router, "/api/v1/otp/send", `not json`)
	require.Equal(t, http.StatusBadRequest, status)
	require.False(t, body.OK)
	require.Zero(t, store.Len())
}

func TestOtpVerify_Flow(t *testing.T) {
	store := repo.NewMemoryOtpRepo()
	router := setupRouter(t, store)
	seed(t, store, "user@example.com", "AB12", 10*time.Minute)

	status, body := post(t, router, "/api/v1/otp/verify", `{"email":"user@example.com","code":"ZZ99"}`)
	require.Equal(t, http.StatusOK, status)
	require.False(t, body.OK)
	require.Equal(t, "Invalid code", body.Message)

	status, body = post(t, router, "/api/v1/otp/verify", `{"email":"user@example.com","code":"AB12"}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.OK)

	status, body = post(t, router, "/api/v1/otp/verify", `{"email":"user@example.com","code":"AB12"}`)
	require.Equal(t, http.StatusOK, status)
	require.False(t, body.OK)
	require.Equal(t, "Code already used", body.Message)
}

func TestOtpVerify_Expired(t *testing.T) {
	store := repo.NewMemoryOtpRepo()
	router := setupRouter(t, store)
	seed(t, store, "user@example.com", "AB12", -time.Second)

	status, body := post(t, router, "/api/v1/otp/verify", `{"email":"user@example.com","code":"AB12"}`)
	require.Equal(t, http.StatusOK, status)
	require.False(t, body.OK)
	require.Equal(t, "Code expired", body.Message)
}

func TestOtpVerify_MissingFields(t *testing.T) {
	router := setupRouter(t, repo.NewMemoryOtpRepo())

	for _, payload := range []string{`{"email":"user@example.com"}`, `{"code":"AB12"}`, `{}`} {
		status, body := post(t, router, "/api/v1/otp/verify", payload)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "email and code required", body.Message)
	}
}

func TestOtp_StoreFailureIs500(t *testing.T) {
	router := setupRouter(t, brokenStore{})

	status, body := post(t, router, "/api/v1/otp/send", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusInternalServerError, status)
	require.False(t, body.OK)
	require.Contains(t, body.Message, errStoreDown.Error())

	status, body = post(t, router, "/api/v1/otp/verify", `{"email":"user@example.com","code":"AB12"}`)
	require.Equal(t, http.StatusInternalServerError, status)
	require.False(t, body.OK)
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	resp := httptest.NewRecorder()
	setupRouter(t, repo.NewMemoryOtpRepo()).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	setupRouter(t, brokenStore{}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestOtpSend_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	otps := service.NewOtpService(repo.NewMemoryOtpRepo(), noopNotifier{}, service.OtpOptions{})
	engine := gin.New()
	handler.RegisterRoutes(engine.Group("/api/v1"), handler.RouterDeps{
		Otp:        handler.NewOtpHandler(otps),
		Health:     handler.NewHealthHandler(repo.NewMemoryOtpRepo()),
		OtpLimiter: middleware.RateLimit(0.001, 1),
	})

	status, _ := post(t, engine, "/api/v1/otp/send", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusOK, status)
	status, body := post(t, engine, "/api/v1/otp/send", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.False(t, body.OK)
}

