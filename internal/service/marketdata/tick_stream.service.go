package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/krobus00/wind-gateway/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	tickStreamMaxAge   = 5 * time.Minute
	tickCacheTimeout   = "cache_tick"
	defaultTickTimeout = 2 * time.Second
	// ticks older than this are dropped by the cache worker
	tickStaleAfter = time.Minute
)

type tickCache interface {
	SaveLatest(ctx context.Context, tick entity.Tick) error
}

// TickStream publishes quote snapshots to JetStream and, on the worker side,
// keeps the latest snapshot per symbol in the cache.
type TickStream struct {
	js    nats.JetStreamContext
	cache tickCache
	now   func() time.Time
}

func NewTickStream(js nats.JetStreamContext, cache tickCache) *TickStream {
	return &TickStream{
		js:    js,
		cache: cache,
		now:   time.Now,
	}
}

func (s *TickStream) JetstreamEventInit(ctx context.Context) error {
	streamConfig := &nats.StreamConfig{
		Name:      constant.TickStreamName,
		Subjects:  []string{constant.TickStreamSubjectAll},
		Storage:   nats.MemoryStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    tickStreamMaxAge,
		Replicas:  1,
	}

	stream, err := s.js.StreamInfo(constant.TickStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.TickStreamName)
		_, err = s.js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.TickStreamName)
	_, err = s.js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		logrus.Error(err)
		return err
	}

	logrus.Infof("stream %s is ready", constant.TickStreamName)

	return nil
}

// Publish is the OnTick sink of the quote service.
func (s *TickStream) Publish(tick entity.Tick) {
	subject := constant.GetTickStreamSubject(tick.GatewayName, tick.VtSymbol())
	err := util.PublishEvent(s.js, subject, entity.TickEvent{Data: tick.Finite()})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"subject":   subject,
			"vt_symbol": tick.VtSymbol(),
		}).Errorf("failed to publish tick: %v", err)
	}
}

func (s *TickStream) JetstreamEventSubscribe(ctx context.Context) error {
	err := s.JetstreamEventInit(ctx)
	if err != nil {
		logrus.Error(err)
		return err
	}

	timeout := defaultTickTimeout
	if config.Env != nil {
		if v, ok := config.Env.NatsJetstream.TimeoutHandler[tickCacheTimeout]; ok && v > 0 {
			timeout = v
		}
	}

	_, err = s.js.QueueSubscribe(
		constant.GetTickGatewayStreamSubject(constant.WindGatewayName),
		constant.GetTickCacheQueueGroup(constant.WindGatewayName),
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(ctx, timeout, msg, s.handleTickEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
				return
			}

			err = msg.Ack()
			if err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
				return
			}
		},
		nats.ManualAck(),
		nats.DeliverNew(),
	)

	return err
}

func (s *TickStream) handleTickEvent(ctx context.Context, msg *nats.Msg) (err error) {
	logger := logrus.WithFields(logrus.Fields{
		"req": string(msg.Data),
	})

	var req entity.TickEvent
	err = json.Unmarshal(msg.Data, &req)
	if err != nil {
		logger.Error(err)
		return err
	}

	if req.Data.Datetime.Add(tickStaleAfter).Before(s.now()) {
		logger.Debug("skipping stale tick")
		return nil
	}

	defer func() {
		if err == nil {
			return
		}

		req.RetryCount++
		if config.Env == nil || req.RetryCount >= config.Env.NatsJetstream.MaxRetries {
			return
		}

		pubErr := util.PublishEvent(s.js, constant.GetTickStreamSubject(req.Data.GatewayName, req.Data.VtSymbol()), req)
		if pubErr != nil {
			logger.Error(pubErr)
		}
	}()

	err = s.cache.SaveLatest(ctx, req.Data)
	if err != nil {
		logger.Error(err)
		return err
	}

	return nil
}
