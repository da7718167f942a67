package paywall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendiq/riskcore/internal/credits"
	"github.com/lendiq/riskcore/internal/kv"
	"github.com/lendiq/riskcore/internal/reports"
)

func setupRouter(t *testing.T, startCredits int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := credits.NewLedger(credits.NewKVStore(kv.NewMemory()))
	if startCredits > 0 {
		_, err := ledger.Add(context.Background(), startCredits)
		require.NoError(t, err)
	}
	svc := NewService(
		ledger,
		reports.NewService(reports.NewKVStore(kv.NewMemory())),
		&fakeRiskProvider{},
		&fakeReportAPI{},
	)

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/v1"))
	return r
}

func TestPurchaseEndpoint(t *testing.T) {
	r := setupRouter(t, 2)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/tx-1/general/purchase", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Purchase PurchaseResult `json:"purchase"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Purchase.Purchased)
	assert.Equal(t, 1, body.Purchase.CreditsLeft)
}

func TestPurchaseEndpointPaymentRequired(t *testing.T) {
	r := setupRouter(t, 0)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/tx-1/general/purchase", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_credits")
}

func TestPurchaseEndpointBadMapType(t *testing.T) {
	r := setupRouter(t, 2)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports/tx-1/payday/purchase", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_map_type")
}

func TestFullReportEndpoint(t *testing.T) {
	r := setupRouter(t, 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/tx-1/general/full", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Report FullReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "tx-1", body.Report.TransactionID)
	assert.NotNil(t, body.Report.RiskData)
	assert.NotNil(t, body.Report.Details)
}
