package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTickCache struct {
	saved []entity.Tick
	err   error
}

func (c *memoryTickCache) SaveLatest(_ context.Context, tick entity.Tick) error {
	if c.err != nil {
		return c.err
	}
	c.saved = append(c.saved, tick)
	return nil
}

func tickMsg(t *testing.T, tick entity.Tick) *nats.Msg {
	t.Helper()
	payload, err := json.Marshal(entity.TickEvent{Data: tick})
	require.NoError(t, err)
	return &nats.Msg{Data: payload}
}

func TestTickStreamHandleTickEventCaches(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, constant.ChinaTZ)
	cache := &memoryTickCache{}
	stream := NewTickStream(nil, cache)
	stream.now = func() time.Time { return now }

	tick := entity.Tick{
		Symbol:      "600000",
		Exchange:    entity.ExchangeSSE,
		Datetime:    now.Add(-time.Second),
		LastPrice:   10.5,
		GatewayName: constant.WindGatewayName,
	}

	err := stream.handleTickEvent(context.Background(), tickMsg(t, tick))
	require.NoError(t, err)
	require.Len(t, cache.saved, 1)
	assert.Equal(t, "600000.SSE", cache.saved[0].VtSymbol())
	assert.Equal(t, 10.5, cache.saved[0].LastPrice)
}

func TestTickStreamHandleTickEventSkipsStale(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, constant.ChinaTZ)
	cache := &memoryTickCache{}
	stream := NewTickStream(nil, cache)
	stream.now = func() time.Time { return now }

	tick := entity.Tick{Symbol: "600000", Exchange: entity.ExchangeSSE, Datetime: now.Add(-2 * time.Minute)}

	err := stream.handleTickEvent(context.Background(), tickMsg(t, tick))
	require.NoError(t, err)
	assert.Empty(t, cache.saved)
}

func TestTickStreamHandleTickEventInvalidPayload(t *testing.T) {
	stream := NewTickStream(nil, &memoryTickCache{})

	err := stream.handleTickEvent(context.Background(), &nats.Msg{Data: []byte("{")})
	assert.Error(t, err)
}

func TestTickStreamHandleTickEventCacheError(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, constant.ChinaTZ)
	cacheErr := errors.New("redis down")
	stream := NewTickStream(nil, &memoryTickCache{err: cacheErr})
	stream.now = func() time.Time { return now }

	tick := entity.Tick{Symbol: "600000", Exchange: entity.ExchangeSSE, Datetime: now}

	// config.Env is nil in tests so no republish is attempted
	err := stream.handleTickEvent(context.Background(), tickMsg(t, tick))
	assert.ErrorIs(t, err, cacheErr)
}
