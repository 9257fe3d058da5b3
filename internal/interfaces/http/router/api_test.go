package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appledger "github.com/vaultledger/backend/internal/application/ledger"
	"github.com/vaultledger/backend/internal/domain/ledger"
	"github.com/vaultledger/backend/internal/infrastructure/config"
	"github.com/vaultledger/backend/internal/infrastructure/lock"
	"github.com/vaultledger/backend/internal/infrastructure/persistence"
	"github.com/vaultledger/backend/internal/infrastructure/persistence/models"
	"github.com/vaultledger/backend/internal/interfaces/http/dto"
	"github.com/vaultledger/backend/internal/interfaces/http/handler"
	"github.com/vaultledger/backend/internal/interfaces/http/middleware"
	"github.com/vaultledger/backend/internal/interfaces/http/router"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	_, err = persistence.BootstrapVaults(context.Background(), db.DB, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	scope := persistence.NewGormTransactionScope(db.DB)
	locker := lock.NewMemoryLocker(5 * time.Second)
	opts := appledger.Options{}

	vaults := appledger.NewVaultService(scope, locker, opts)
	movements := appledger.NewMovementService(scope, opts)
	validator := appledger.NewIntegrityValidator(scope, opts)
	distribution := appledger.NewDistributionService(scope, locker, ledger.DefaultSplitTargets(), opts)
	returns := appledger.NewReturnService(scope, locker, ledger.DefaultSplitTargets(), opts)

	reg := prometheus.NewRegistry()
	engine, err := router.NewEngine(router.EngineConfig{
		HTTPMetrics:    middleware.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		MaxBodySize:    4 << 10,
	}, router.Handlers{
		Vault:        handler.NewVaultHandler(vaults, movements),
		Movement:     handler.NewMovementHandler(movements),
		Transfer:     handler.NewTransferHandler(appledger.NewTransferService(scope, locker, opts)),
		Distribution: handler.NewDistributionHandler(distribution, returns),
		Order:        handler.NewOrderHandler(appledger.NewDebtReconciler(scope, locker, opts)),
		Integrity:    handler.NewIntegrityHandler(validator, appledger.NewCashCutService(scope, validator, opts)),
		System:       handler.NewSystemHandler(db, "test"),
	})
	require.NoError(t, err)
	return &api{t: t, engine: engine}
}

func (a *api) do(method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func (a *api) data(resp apiResponse, out any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(resp.Data, out))
}

func TestAPI_CreditDebitAndSnapshot(t *testing.T) {
	a := newAPI(t)

	w, resp := a.do(http.MethodPost, "/api/v1/vaults/azteca/credit", map[string]any{"amount": "150.00", "memo": "float"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var movement map[string]any
	a.data(resp, &movement)
	assert.Equal(t, "150.00", movement["balance_after"])
	assert.Equal(t, "credit", movement["kind"])

	w, resp = a.do(http.MethodPost, "/api/v1/vaults/azteca/debit", map[string]any{"amount": 200})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInsufficientFunds, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	w, resp = a.do(http.MethodGet, "/api/v1/vaults/azteca", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var vault map[string]any
	a.data(resp, &vault)
	assert.Equal(t, "150.00", vault["balance"])

	w, resp = a.do(http.MethodGet, "/api/v1/vaults", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap appledger.SnapshotResponse
	a.data(resp, &snap)
	assert.Len(t, snap.Vaults, len(ledger.AllVaultIDs()))
	assert.Equal(t, "150.00", snap.Total.String())
}

func TestAPI_RequestErrors(t *testing.T) {
	a := newAPI(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"unknown vault", http.MethodGet, "/api/v1/vaults/nowhere", nil, http.StatusBadRequest, dto.ErrCodeInvalidVault},
		{"sub-cent amount", http.MethodPost, "/api/v1/vaults/profit/credit", `{"amount":"1.001"}`, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"malformed body", http.MethodPost, "/api/v1/vaults/profit/credit", `{"amount":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"missing transfer target", http.MethodPost, "/api/v1/transfers", map[string]any{"from": "profit", "amount": "1.00"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"sale id is not a uuid", http.MethodPost, "/api/v1/sales/abc/distribution", map[string]any{}, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"return without quantity", http.MethodPost, "/api/v1/sales/" + uuid.NewString() + "/returns", map[string]any{}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"return of an undistributed sale", http.MethodPost, "/api/v1/sales/" + uuid.NewString() + "/returns", map[string]any{"quantity": 1}, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown order", http.MethodGet, "/api/v1/orders/" + uuid.NewString(), nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"bad as_of", http.MethodGet, "/api/v1/integrity?as_of=yesterday", nil, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"limit out of range", http.MethodGet, "/api/v1/movements?limit=5000", nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"no cash cut yet", http.MethodGet, "/api/v1/cash-cuts/latest", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"body over the limit", http.MethodPost, "/api/v1/transfers", strings.Repeat(" ", 8<<10), http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := a.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestAPI_TransferAndMovements(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodPost, "/api/v1/vaults/boveda_monte/credit", map[string]any{"amount": "500.00"})

	w, resp := a.do(http.MethodPost, "/api/v1/transfers", map[string]any{
		"from": "boveda_monte", "to": "boveda_usa", "amount": "120.00", "memo": "cross-border",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var transfer appledger.TransferResponse
	a.data(resp, &transfer)

	w, resp = a.do(http.MethodGet, "/api/v1/movements?correlation_id="+transfer.CorrelationID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var movements []appledger.MovementResponse
	a.data(resp, &movements)
	require.Len(t, movements, 2)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Count)
	assert.Equal(t, 100, resp.Meta.Limit)

	w, resp = a.do(http.MethodGet, "/api/v1/vaults/boveda_usa/replay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var replay map[string]any
	a.data(resp, &replay)
	assert.Equal(t, true, replay["consistent"])
}

func TestAPI_DistributionAndOrders(t *testing.T) {
	a := newAPI(t)
	saleID := uuid.NewString()
	sale := map[string]any{
		"unit_sale_price": "100", "unit_cost_price": "60", "unit_freight_cost": "10", "quantity": 2,
	}

	w, resp := a.do(http.MethodPost, "/api/v1/sales/"+saleID+"/distribution", sale)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var dist appledger.DistributionResponse
	a.data(resp, &dist)
	assert.Equal(t, "120.00", dist.CostAmount.String())
	assert.Equal(t, "20.00", dist.FreightAmount.String())
	assert.Equal(t, "60.00", dist.ProfitAmount.String())

	w, resp = a.do(http.MethodPost, "/api/v1/sales/"+saleID+"/distribution", sale)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)

	w, resp = a.do(http.MethodPost, "/api/v1/sales/"+saleID+"/returns", map[string]any{"quantity": 1, "reason": "wrong size"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ret appledger.ReturnResponse
	a.data(resp, &ret)
	assert.Equal(t, "60.00", ret.CostAmount.String())
	assert.Equal(t, int64(1), ret.RemainingQuantity)

	w, resp = a.do(http.MethodPost, "/api/v1/sales/"+saleID+"/returns", map[string]any{"quantity": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)

	partyID := uuid.NewString()
	w, resp = a.do(http.MethodPost, "/api/v1/orders", map[string]any{
		"type": "SALE", "number": "S-1", "party_id": partyID, "party_name": "Ferreteria Lupita", "total": "70.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order appledger.OrderResponse
	a.data(resp, &order)

	payment := map[string]any{"vault_id": "leftie", "amount": "50.00", "direction": "incoming"}
	for _, want := range []string{"50.00", "20.00"} {
		w, resp = a.do(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/payments", payment)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var applied appledger.ApplyPaymentResponse
		a.data(resp, &applied)
		assert.Equal(t, want, applied.EffectiveAmount.String())
	}

	w, resp = a.do(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/payments", payment)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadySettled, resp.Error.Code)

	w, resp = a.do(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	a.data(resp, &order)
	assert.Len(t, order.Payments, 2)
	assert.True(t, order.AmountRemaining.IsZero())

	w, resp = a.do(http.MethodGet, "/api/v1/parties/"+partyID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var party appledger.PartyResponse
	a.data(resp, &party)
	assert.True(t, party.OutstandingBalance.IsZero())

	w, resp = a.do(http.MethodGet, "/api/v1/integrity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report map[string]any
	a.data(resp, &report)
	assert.Equal(t, 0.0, report["violation_count"])
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w, _ := a.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	a.do(http.MethodGet, "/api/v1/vaults/profit", nil)
	w, _ = a.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_server_requests_total{method="GET",route="/api/v1/vaults/:id",status="200"} 1`)
}
