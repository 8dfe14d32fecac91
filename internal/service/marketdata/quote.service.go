package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/krobus00/wind-gateway/internal/wind"
	"github.com/sirupsen/logrus"
)

// QuoteService keeps one tick per subscribed symbol up to date from Wind push quotes.
// Every accepted update is handed to onTick as a fresh copy.
type QuoteService struct {
	client      wind.Client
	onTick      entity.TickHandler
	location    *time.Location
	gatewayName string
	now         func() time.Time

	mu         sync.Mutex
	subscribed map[string]entity.SubscribeRequest // by vt_symbol
	ticks      map[string]*entity.Tick            // by wind symbol
}

func NewQuoteService(client wind.Client, onTick entity.TickHandler) *QuoteService {
	return &QuoteService{
		client:      client,
		onTick:      onTick,
		location:    constant.ChinaTZ,
		gatewayName: constant.WindGatewayName,
		now:         time.Now,
		subscribed:  make(map[string]entity.SubscribeRequest),
		ticks:       make(map[string]*entity.Tick),
	}
}

// Connect starts the Wind session and restores every registered subscription.
// A failed start is logged, a later Subscribe retries it. The requests whose
// restore failed are returned, they stay registered for the next Connect.
func (s *QuoteService) Connect(ctx context.Context) (failed []entity.SubscribeRequest) {
	res := s.client.Start(ctx)
	if !res.OK() {
		logrus.WithFields(logrus.Fields{
			"error_code": res.ErrorCode,
			"message":    res.Message,
		}).Error("wind quote connect failed")
		return s.Subscriptions()
	}
	logrus.Info("wind quote connected")

	for _, req := range s.Subscriptions() {
		if err := s.Subscribe(ctx, req); err != nil {
			logrus.WithField("vt_symbol", req.VtSymbol()).Errorf("restore subscription: %v", err)
			failed = append(failed, req)
		}
	}

	return failed
}

func (s *QuoteService) Subscribe(ctx context.Context, req entity.SubscribeRequest) error {
	windSymbol, err := constant.WindSymbol(req.Symbol, req.Exchange)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.subscribed[req.VtSymbol()] = req
	previous, hadPrevious := s.ticks[windSymbol]
	s.ticks[windSymbol] = &entity.Tick{
		Symbol:      req.Symbol,
		Exchange:    req.Exchange,
		Datetime:    s.now().In(s.location),
		GatewayName: s.gatewayName,
	}
	s.mu.Unlock()

	// the session may have been dropped by the terminal since Connect
	if !s.client.IsConnected() {
		if res := s.client.Start(ctx); !res.OK() {
			logrus.WithField("error_code", res.ErrorCode).Warn("wind quote restart failed")
		}
	}

	res := s.client.WSQ(ctx, windSymbol, QuoteFields(), s.handleQuote)
	if !res.OK() {
		// an earlier stream for the symbol may still be live, keep feeding its record
		s.mu.Lock()
		if hadPrevious {
			s.ticks[windSymbol] = previous
		} else {
			delete(s.ticks, windSymbol)
		}
		s.mu.Unlock()
		return fmt.Errorf("wsq %s: error code %d %s", windSymbol, res.ErrorCode, res.Message)
	}

	logrus.WithField("wind_symbol", windSymbol).Info("wind quote subscribed")
	return nil
}

// OnQuoteUpdate applies one push update to the symbol's tick and publishes a copy.
// The update is rejected as a whole when it carries an unknown field.
func (s *QuoteService) OnQuoteUpdate(data wind.Data) error {
	if len(data.Codes) == 0 {
		return errors.New("wsq update without code")
	}
	windSymbol := data.Codes[0]

	s.mu.Lock()
	tick, ok := s.ticks[windSymbol]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", entity.ErrUnknownSymbol, windSymbol)
	}

	updated := *tick
	if len(data.Times) > 0 {
		updated.Datetime = wind.AttachZone(data.Times[0], s.location)
	}

	for n, field := range data.Fields {
		if n >= len(data.Data) || len(data.Data[n]) == 0 {
			continue
		}
		if err := applyQuoteField(&updated, field, data.Data[n][0]); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	*tick = updated
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(updated)
	}

	return nil
}

// Subscriptions returns the registered requests ordered by vt_symbol.
func (s *QuoteService) Subscriptions() []entity.SubscribeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs := make([]entity.SubscribeRequest, 0, len(s.subscribed))
	for _, req := range s.subscribed {
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].VtSymbol() < reqs[j].VtSymbol()
	})
	return reqs
}

// Register adds requests to the registry without subscribing, the next Connect replays them.
func (s *QuoteService) Register(reqs ...entity.SubscribeRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range reqs {
		s.subscribed[req.VtSymbol()] = req
	}
}

func (s *QuoteService) Close() error {
	return s.client.Stop()
}

func (s *QuoteService) handleQuote(data wind.Data) {
	if err := s.OnQuoteUpdate(data); err != nil {
		logrus.WithField("codes", data.Codes).Error(err)
	}
}
