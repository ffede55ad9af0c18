package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ikkim/cosmetica-backend/config"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T, checks ...namedCheck) http.Handler {
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: "test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://shop.example"}},
		Cart:   config.CartConfig{SessionCookie: "cart_session"},
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncCartOp("add")

	auth := middleware.NewAuthMiddleware("router-secret", "", []string{"admin"})
	r := NewRouter(nil, nil, nil, nil, nil, nil, auth, nil, metrics.Handler(reg), cfg)
	for _, hc := range checks {
		r.AddHealthCheck(hc.name, hc.check)
	}
	return r.Setup()
}

func TestRouter_Health(t *testing.T) {
	router := setupRouterTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_HealthReportsDependencies(t *testing.T) {
	router := setupRouterTest(t,
		namedCheck{"database", func(context.Context) error { return nil }},
		namedCheck{"redis", func(context.Context) error { return errors.New("connection refused") }},
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "connection refused"}, body.Checks)
}

func TestRouter_Metrics(t *testing.T) {
	router := setupRouterTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cart_operations_total{op="add"} 1`)
}

func TestRouter_CORS(t *testing.T) {
	router := setupRouterTest(t)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allowed origin", "https://shop.example", "https://shop.example"},
		{"unknown origin", "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRouter_AdminRequiresAuth(t *testing.T) {
	router := setupRouterTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/export", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
