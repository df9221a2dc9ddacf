package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/testutil"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	"github.com/noah-isme/dojo-admin-api/pkg/config"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		JWT:       config.JWTConfig{Secret: "test-secret", Expiration: time.Hour},
		Metrics:   config.MetricsConfig{Enabled: true},
		Reports:   config.ReportsConfig{Enabled: true},
		Billing:   config.BillingConfig{ExpiringSoonDays: 7},
	}
	db := testutil.NewDB(t)
	clk := clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svcs := NewServices(db, cfg, clk, zap.NewNop())
	return &apiClient{t: t, router: NewRouter(cfg, zap.NewNop(), svcs)}
}

func (a *apiClient) do(method, path string, payload interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(a.t, err)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// id posts payload and returns data.id of the created resource.
func (a *apiClient) id(path string, payload interface{}) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, path, payload)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var env struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data.ID
}

func (a *apiClient) login() {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/login", map[string]string{"login": testutil.SeedLogin, "password": testutil.SeedPassword})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var env struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	a.token = env.Data.AccessToken
}

func TestRouterRequiresToken(t *testing.T) {
	api := newAPIClient(t)

	w := api.do(http.MethodGet, "/clients", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/auth/login", map[string]string{"login": testutil.SeedLogin, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestRouterAttendanceFlow(t *testing.T) {
	api := newAPIClient(t)
	api.login()

	clientID := api.id("/clients", map[string]interface{}{"full_name": "Anna Petrova"})
	planID := api.id("/plans", map[string]interface{}{"name": "Single", "price": 500, "duration_days": 30, "visit_limit": 1})
	api.id("/subscriptions", map[string]interface{}{"client_id": clientID, "plan_id": planID, "start_date": "2025-03-01", "is_paid": true})

	groupID := api.id("/groups", map[string]interface{}{"name": "Kids A"})
	w := api.do(http.MethodPut, fmt.Sprintf("/groups/%d/schedule", groupID), map[string]interface{}{
		"slots": []map[string]interface{}{{"day_of_week": 0, "start_time": "18:00", "end_time": "19:00"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, fmt.Sprintf("/groups/%d/members", groupID), map[string]interface{}{"client_id": clientID, "joined_at": "2025-03-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/lessons/generate", map[string]interface{}{"group_id": groupID, "start_date": "2025-03-10", "end_date": "2025-03-17"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var generated struct {
		Data []struct {
			ID   int64  `json:"id"`
			Date string `json:"date"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generated))
	require.Len(t, generated.Data, 2)
	assert.Equal(t, "2025-03-10", generated.Data[0].Date)
	assert.Equal(t, "2025-03-17", generated.Data[1].Date)

	sheet := api.do(http.MethodGet, fmt.Sprintf("/lessons/%d/attendance", generated.Data[0].ID), nil)
	require.Equal(t, http.StatusOK, sheet.Code)
	assert.Contains(t, sheet.Body.String(), "Anna Petrova")

	mark := map[string]interface{}{"client_id": clientID, "status": "present"}
	w = api.do(http.MethodPut, fmt.Sprintf("/lessons/%d/attendance", generated.Data[0].ID), mark)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPut, fmt.Sprintf("/lessons/%d/attendance", generated.Data[1].ID), mark)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "NO_ACTIVE_SUBSCRIPTION")

	w = api.do(http.MethodGet, fmt.Sprintf("/clients/%d/attendance/summary", clientID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"present":1`)

	w = api.do(http.MethodDelete, fmt.Sprintf("/plans/%d", planID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouterReportsAndMetrics(t *testing.T) {
	api := newAPIClient(t)
	api.login()
	api.id("/clients", map[string]interface{}{"full_name": "Boris"})

	w := api.do(http.MethodGet, "/billing/debtors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = api.do(http.MethodGet, "/reports/debtors?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Client,Phone,Status,Ends\nBoris,,none,\n", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
