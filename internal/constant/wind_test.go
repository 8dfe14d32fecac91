package constant

import (
	"testing"
	"time"

	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindExchangeRoundTrip(t *testing.T) {
	codes := WindExchangeCodes()
	require.Len(t, codes, 8)

	for _, code := range codes {
		exchange, ok := WindExchange(code)
		require.True(t, ok, code)

		back, ok := WindExchangeCode(exchange)
		require.True(t, ok, exchange)
		assert.Equal(t, code, back)
	}
}

func TestWindExchangeCodeUnmapped(t *testing.T) {
	_, ok := WindExchangeCode(entity.Exchange("NYSE"))
	assert.False(t, ok)

	_, ok = WindExchange("HK")
	assert.False(t, ok)
}

func TestWindBarSize(t *testing.T) {
	tests := []struct {
		interval entity.Interval
		want     string
		ok       bool
	}{
		{entity.IntervalMinute, "1", true},
		{entity.IntervalHour, "60", true},
		{entity.IntervalDaily, "", false},
		{entity.IntervalTick, "", false},
	}
	for _, tt := range tests {
		got, ok := WindBarSize(tt.interval)
		assert.Equal(t, tt.ok, ok, tt.interval)
		assert.Equal(t, tt.want, got, tt.interval)
	}
}

func TestGetTickStreamSubject(t *testing.T) {
	assert.Equal(t, "tick.wind.600000_SSE", GetTickStreamSubject(WindGatewayName, "600000.SSE"))
	assert.Equal(t, "tick.wind.*", GetTickGatewayStreamSubject(WindGatewayName))
	assert.Equal(t, "tick:latest:IF2401.CFFEX", GetLatestTickCacheKey("IF2401.CFFEX"))
}

func TestChinaTZOffset(t *testing.T) {
	_, offset := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).In(ChinaTZ).Zone()
	assert.Equal(t, 8*60*60, offset)
}
