package datafeed

import (
	"context"
	"fmt"
	"time"

	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/sirupsen/logrus"
)

type barQuerier interface {
	QueryBarHistory(ctx context.Context, req entity.HistoryRequest) ([]entity.Bar, error)
}

type barStore interface {
	Upsert(ctx context.Context, bars []entity.MarketBar) error
}

// DownloadService copies vendor bar history into the market_bars table.
type DownloadService struct {
	datafeed barQuerier
	store    barStore
	now      func() time.Time
}

func NewDownloadService(datafeed barQuerier, store barStore) *DownloadService {
	return &DownloadService{
		datafeed: datafeed,
		store:    store,
		now:      time.Now,
	}
}

// Download returns the number of bars written.
func (s *DownloadService) Download(ctx context.Context, req entity.HistoryRequest) (int, error) {
	logger := logrus.WithFields(logrus.Fields{
		"vt_symbol": req.VtSymbol(),
		"interval":  req.Interval,
		"start":     req.Start,
		"end":       req.End,
	})

	bars, err := s.datafeed.QueryBarHistory(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("query %s history: %w", req.VtSymbol(), err)
	}

	if len(bars) == 0 {
		logger.Warn("no bars returned")
		return 0, nil
	}

	now := s.now().UTC()
	rows := make([]entity.MarketBar, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, entity.NewMarketBar(bar, now))
	}

	if err := s.store.Upsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("store %s history: %w", req.VtSymbol(), err)
	}

	logger.WithField("count", len(rows)).Info("bars downloaded")

	return len(rows), nil
}
