package infrastructure

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestHTTPServerHealthRoutes(t *testing.T) {
	var readyErr error
	srv := NewHTTPServerWithConfig(HTTPServerConfig{
		Addr:  ":0",
		Ready: func() error { return readyErr },
	}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	readyErr = errors.New("wind session is not connected")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "wind session is not connected", rec.Body.String())
}

func TestHTTPServerKeepsRequestID(t *testing.T) {
	srv := NewHTTPServerWithConfig(HTTPServerConfig{Addr: ":0"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
}

func TestHTTPServerRecovery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	srv := NewHTTPServerWithConfig(HTTPServerConfig{Addr: ":0"}, mux)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", rec.Body.String())
}

func TestHTTPServerAddrFromConfig(t *testing.T) {
	prev := config.Env
	t.Cleanup(func() { config.Env = prev })

	config.Env = &config.EnvConfig{Port: map[string]string{"datafeed_gateway_http": "18080"}}
	assert.Equal(t, ":18080", NewHTTPServerWithConfig(DefaultHTTPServerConfig("datafeed_gateway_http"), nil).server.Addr)

	config.Env = &config.EnvConfig{}
	assert.Equal(t, ":8080", NewHTTPServerWithConfig(DefaultHTTPServerConfig("missing"), nil).server.Addr)
}
