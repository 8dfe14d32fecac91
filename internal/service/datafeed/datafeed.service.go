package datafeed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/krobus00/wind-gateway/internal/wind"
	"github.com/sirupsen/logrus"
)

var (
	dailyBarFields    = []string{"open", "high", "low", "close", "volume", "amt", "oi"}
	intradayBarFields = []string{"open", "high", "low", "close", "volume", "amt", "position"}
	tickFields        = []string{
		"open", "high", "low", "last", "volume", "amt", "oi",
		"bid1", "bid2", "bid3", "bid4", "bid5",
		"ask1", "ask2", "ask3", "ask4", "ask5",
	}
)

// DatafeedService answers history requests from the Wind terminal.
type DatafeedService struct {
	client      wind.Client
	location    *time.Location
	gatewayName string
}

func NewDatafeedService(client wind.Client) *DatafeedService {
	return &DatafeedService{
		client:      client,
		location:    constant.ChinaTZ,
		gatewayName: constant.WindGatewayName,
	}
}

// Init starts the Wind session, it is a no-op when already connected.
func (s *DatafeedService) Init(ctx context.Context) bool {
	if s.client.IsConnected() {
		return true
	}

	res := s.client.Start(ctx)
	if !res.OK() {
		logrus.WithFields(logrus.Fields{
			"error_code": res.ErrorCode,
			"message":    res.Message,
		}).Error("wind datafeed connect failed")
		return false
	}

	logrus.Info("wind datafeed connected")
	return true
}

func (s *DatafeedService) QueryBarHistory(ctx context.Context, req entity.HistoryRequest) ([]entity.Bar, error) {
	windSymbol, err := constant.WindSymbol(req.Symbol, req.Exchange)
	if err != nil {
		return nil, err
	}

	var (
		fields  []string
		options string
		query   func(ctx context.Context, codes string, fields []string, begin, end time.Time, options string) (wind.Data, error)
		oiField string
	)

	if req.Interval == entity.IntervalDaily {
		fields, query, oiField = dailyBarFields, s.client.WSD, "oi"
	} else {
		barSize, ok := constant.WindBarSize(req.Interval)
		if !ok {
			return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedInterval, req.Interval)
		}
		fields, query, oiField = intradayBarFields, s.client.WSI, "position"
		options = "BarSize=" + barSize
	}

	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"wind_symbol": windSymbol,
		"interval":    req.Interval,
	})

	data, err := query(ctx, windSymbol, fields, req.Start, req.End, options)
	if err != nil {
		logger.Error(err)
		return nil, err
	}

	if data.ErrorCode != 0 {
		logger.WithField("error_code", data.ErrorCode).Warn("wind bar query returned error code")
		return []entity.Bar{}, nil
	}

	bars := make([]entity.Bar, 0, data.Rows())
	for row, ts := range data.Times {
		bar := entity.Bar{
			Symbol:       req.Symbol,
			Exchange:     req.Exchange,
			Interval:     req.Interval,
			OpenPrice:    data.Value("open", row),
			HighPrice:    data.Value("high", row),
			LowPrice:     data.Value("low", row),
			ClosePrice:   data.Value("close", row),
			Volume:       data.Value("volume", row),
			Turnover:     data.Value("amt", row),
			OpenInterest: zeroIfNaN(data.Value(oiField, row)),
			GatewayName:  s.gatewayName,
		}

		if req.Interval == entity.IntervalDaily {
			bar.Datetime = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, s.location)
		} else {
			bar.Datetime = wind.AttachZone(ts, s.location)
		}

		bars = append(bars, bar)
	}

	logger.WithField("count", len(bars)).Debug("wind bar query done")

	return bars, nil
}

func (s *DatafeedService) QueryTickHistory(ctx context.Context, req entity.HistoryRequest) ([]entity.Tick, error) {
	windSymbol, err := constant.WindSymbol(req.Symbol, req.Exchange)
	if err != nil {
		return nil, err
	}

	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	logger := logrus.WithField("wind_symbol", windSymbol)

	data, err := s.client.WST(ctx, windSymbol, tickFields, req.Start, req.End, "")
	if err != nil {
		logger.Error(err)
		return nil, err
	}

	if data.ErrorCode != 0 {
		logger.WithField("error_code", data.ErrorCode).Warn("wind tick query returned error code")
		return []entity.Tick{}, nil
	}

	ticks := make([]entity.Tick, 0, data.Rows())
	for row, ts := range data.Times {
		ticks = append(ticks, entity.Tick{
			Symbol:       req.Symbol,
			Exchange:     req.Exchange,
			Datetime:     wind.AttachZone(ts, s.location),
			OpenPrice:    data.Value("open", row),
			HighPrice:    data.Value("high", row),
			LowPrice:     data.Value("low", row),
			LastPrice:    data.Value("last", row),
			Volume:       data.Value("volume", row),
			Turnover:     data.Value("amt", row),
			OpenInterest: zeroIfNaN(data.Value("oi", row)),
			BidPrice1:    data.Value("bid1", row),
			BidPrice2:    data.Value("bid2", row),
			BidPrice3:    data.Value("bid3", row),
			BidPrice4:    data.Value("bid4", row),
			BidPrice5:    data.Value("bid5", row),
			AskPrice1:    data.Value("ask1", row),
			AskPrice2:    data.Value("ask2", row),
			AskPrice3:    data.Value("ask3", row),
			AskPrice4:    data.Value("ask4", row),
			AskPrice5:    data.Value("ask5", row),
			GatewayName:  s.gatewayName,
		})
	}

	return ticks, nil
}

func (s *DatafeedService) ensureConnected(ctx context.Context) error {
	if s.client.IsConnected() || s.Init(ctx) {
		return nil
	}
	return entity.ErrNotConnected
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
