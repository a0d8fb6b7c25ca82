package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/fundraising-backend/internal/config"
	"github.com/ignatzorin/fundraising-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/fundraising-backend/internal/interface/http/handler"
	"github.com/ignatzorin/fundraising-backend/internal/service"
	"github.com/ignatzorin/fundraising-backend/internal/usecase/withdrawal"
)

func newTestRouter(t *testing.T, env string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:             env,
		StorageDriver:   config.StorageDriverMemory,
		RateLimitLimit:  100,
		RateLimitPeriod: time.Minute,
	}
	store := memory.NewStore()
	tokens := service.NewTokenManager("router-test-secret-at-least-32-chars", time.Hour)
	engine := withdrawal.NewEngine(store, time.Second)
	seed := handler.NewSeedHandler(service.NewSeedService(engine, store.Repositories().Ledgers, tokens))

	return SetupRouter(cfg,
		handler.NewTransactionHandler(engine),
		handler.NewHealthHandler(nil, config.StorageDriverMemory),
		seed,
		tokens,
	)
}

func call(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_SeedAndProcess(t *testing.T) {
	r := newTestRouter(t, "development")

	w := call(r, "POST", "/api/seed", "", `{"num_transactions":2}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var seeded struct {
		Data service.SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seeded))
	require.Len(t, seeded.Data.TransactionIDs, 2)
	txID := seeded.Data.TransactionIDs[0].String()

	w = call(r, "POST", "/api/transactions/"+txID+"/complete", "", `{"transaction_reference":"TXN-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := seeded.Data.EmployeeToken
	w = call(r, "POST", "/api/transactions/"+txID+"/mark-processing", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, "POST", "/api/transactions/"+txID+"/complete", token, `{"transaction_reference":"TXN-1","processing_fee":"1.50"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, "GET", "/api/transactions/"+txID+"/history", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Data, 3)
	assert.Equal(t, "complete", history.Data[2]["action"])
	assert.Equal(t, "1.50", history.Data[2]["processing_fee"])

	w = call(r, "GET", "/api/campaigns/"+seeded.Data.CampaignID.String()+"/transactions?status=approved", seeded.Data.AdminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestRouter_InvalidTransactionID(t *testing.T) {
	r := newTestRouter(t, "development")
	w := call(r, "POST", "/api/seed", "", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var seeded struct {
		Data service.SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seeded))

	w = call(r, "GET", "/api/transactions/not-a-uuid", seeded.Data.EmployeeToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, "GET", "/api/transactions/"+uuid.NewString(), seeded.Data.EmployeeToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SeedOnlyInDevelopment(t *testing.T) {
	r := newTestRouter(t, "staging")

	w := call(r, "POST", "/api/seed", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
