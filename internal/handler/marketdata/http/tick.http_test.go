package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTickCache struct {
	ticks map[string]entity.Tick
	err   error
}

func (c *memoryTickCache) GetLatest(_ context.Context, vtSymbol string) (entity.Tick, bool, error) {
	if c.err != nil {
		return entity.Tick{}, false, c.err
	}
	tick, ok := c.ticks[vtSymbol]
	return tick, ok, nil
}

func getLatest(cache latestTickReader, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	NewTickHTTPHandler(cache).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetLatestTick(t *testing.T) {
	cache := &memoryTickCache{ticks: map[string]entity.Tick{
		"600000.SSE": {
			Symbol:    "600000",
			Exchange:  entity.ExchangeSSE,
			Datetime:  time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
			LastPrice: 10.5,
			Volume:    500,
		},
	}}

	rec := getLatest(cache, "/market-data/v1/ticks/latest?vt_symbol=600000.SSE")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data entity.Tick `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "600000.SSE", body.Data.VtSymbol())
	assert.Equal(t, 10.5, body.Data.LastPrice)
	assert.Equal(t, 500.0, body.Data.Volume)
}

func TestGetLatestTickErrors(t *testing.T) {
	tests := []struct {
		name   string
		cache  *memoryTickCache
		target string
		code   int
	}{
		{name: "missing vt_symbol", cache: &memoryTickCache{}, target: "/market-data/v1/ticks/latest", code: http.StatusBadRequest},
		{name: "not cached", cache: &memoryTickCache{}, target: "/market-data/v1/ticks/latest?vt_symbol=IF2401.CFFEX", code: http.StatusNotFound},
		{name: "cache error", cache: &memoryTickCache{err: errors.New("redis down")}, target: "/market-data/v1/ticks/latest?vt_symbol=600000.SSE", code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, getLatest(tt.cache, tt.target).Code)
		})
	}
}
