package repository

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// TickCacheRepository keeps the latest tick per vt_symbol in redis.
type TickCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTickCacheRepository(client *redis.Client, ttl time.Duration) *TickCacheRepository {
	return &TickCacheRepository{client: client, ttl: ttl}
}

func (r *TickCacheRepository) SaveLatest(ctx context.Context, tick entity.Tick) error {
	payload, err := encodeTick(tick)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, constant.GetLatestTickCacheKey(tick.VtSymbol()), payload, r.ttl).Err()
}

func (r *TickCacheRepository) GetLatest(ctx context.Context, vtSymbol string) (entity.Tick, bool, error) {
	payload, err := r.client.Get(ctx, constant.GetLatestTickCacheKey(vtSymbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.Tick{}, false, nil
		}
		return entity.Tick{}, false, err
	}

	tick, err := decodeTick(payload)
	if err != nil {
		return entity.Tick{}, false, err
	}

	return tick, true, nil
}

func (r *TickCacheRepository) Close() error {
	return r.client.Close()
}

func encodeTick(tick entity.Tick) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(tick); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTick(payload []byte) (entity.Tick, error) {
	var tick entity.Tick
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&tick); err != nil {
		return entity.Tick{}, err
	}
	return tick, nil
}
