package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/sirupsen/logrus"
)

const (
	dateLayout = "2006-01-02"

	sourceWind  = "wind"
	sourceStore = "store"
)

var errStoreDisabled = errors.New("bar store is not configured")

type historyQuerier interface {
	QueryBarHistory(ctx context.Context, req entity.HistoryRequest) ([]entity.Bar, error)
	QueryTickHistory(ctx context.Context, req entity.HistoryRequest) ([]entity.Tick, error)
}

type storedBarReader interface {
	GetRange(ctx context.Context, req entity.HistoryRequest) ([]entity.MarketBar, error)
}

type BarResponse struct {
	Symbol       string     `json:"symbol"`
	Exchange     string     `json:"exchange"`
	Interval     string     `json:"interval"`
	Datetime     time.Time  `json:"datetime"`
	OpenPrice    null.Float `json:"open_price"`
	HighPrice    null.Float `json:"high_price"`
	LowPrice     null.Float `json:"low_price"`
	ClosePrice   null.Float `json:"close_price"`
	Volume       null.Float `json:"volume"`
	Turnover     null.Float `json:"turnover"`
	OpenInterest null.Float `json:"open_interest"`
	GatewayName  string     `json:"gateway_name"`
}

type TickResponse struct {
	Symbol       string       `json:"symbol"`
	Exchange     string       `json:"exchange"`
	Datetime     time.Time    `json:"datetime"`
	LastPrice    null.Float   `json:"last_price"`
	Volume       null.Float   `json:"volume"`
	Turnover     null.Float   `json:"turnover"`
	OpenInterest null.Float   `json:"open_interest"`
	OpenPrice    null.Float   `json:"open_price"`
	HighPrice    null.Float   `json:"high_price"`
	LowPrice     null.Float   `json:"low_price"`
	BidPrices    []null.Float `json:"bid_prices"`
	AskPrices    []null.Float `json:"ask_prices"`
	GatewayName  string       `json:"gateway_name"`
}

type Handler struct {
	datafeed historyQuerier
	store    storedBarReader
}

// NewDatafeedHTTPHandler serves vendor history, and bars from market_bars when store is set.
func NewDatafeedHTTPHandler(datafeed historyQuerier, store storedBarReader) *Handler {
	return &Handler{datafeed: datafeed, store: store}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/datafeed/v1/bars", h.QueryBarHistory)
	mux.HandleFunc("/datafeed/v1/ticks", h.QueryTickHistory)
}

func (h *Handler) QueryBarHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	req, err := parseHistoryRequest(r, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	var bars []entity.Bar
	switch source := r.URL.Query().Get("source"); source {
	case "", sourceWind:
		bars, err = h.datafeed.QueryBarHistory(r.Context(), req)
	case sourceStore:
		bars, err = h.storedBars(r.Context(), req)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown source " + source})
		return
	}
	if err != nil {
		writeQueryError(w, req, err)
		return
	}

	resp := make([]BarResponse, 0, len(bars))
	for _, bar := range bars {
		resp = append(resp, BarResponse{
			Symbol:       bar.Symbol,
			Exchange:     string(bar.Exchange),
			Interval:     string(bar.Interval),
			Datetime:     bar.Datetime,
			OpenPrice:    finite(bar.OpenPrice),
			HighPrice:    finite(bar.HighPrice),
			LowPrice:     finite(bar.LowPrice),
			ClosePrice:   finite(bar.ClosePrice),
			Volume:       finite(bar.Volume),
			Turnover:     finite(bar.Turnover),
			OpenInterest: finite(bar.OpenInterest),
			GatewayName:  bar.GatewayName,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *Handler) QueryTickHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	req, err := parseHistoryRequest(r, false)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	req.Interval = entity.IntervalTick

	ticks, err := h.datafeed.QueryTickHistory(r.Context(), req)
	if err != nil {
		writeQueryError(w, req, err)
		return
	}

	resp := make([]TickResponse, 0, len(ticks))
	for _, tick := range ticks {
		resp = append(resp, TickResponse{
			Symbol:       tick.Symbol,
			Exchange:     string(tick.Exchange),
			Datetime:     tick.Datetime,
			LastPrice:    finite(tick.LastPrice),
			Volume:       finite(tick.Volume),
			Turnover:     finite(tick.Turnover),
			OpenInterest: finite(tick.OpenInterest),
			OpenPrice:    finite(tick.OpenPrice),
			HighPrice:    finite(tick.HighPrice),
			LowPrice:     finite(tick.LowPrice),
			BidPrices:    finites(tick.BidPrice1, tick.BidPrice2, tick.BidPrice3, tick.BidPrice4, tick.BidPrice5),
			AskPrices:    finites(tick.AskPrice1, tick.AskPrice2, tick.AskPrice3, tick.AskPrice4, tick.AskPrice5),
			GatewayName:  tick.GatewayName,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *Handler) storedBars(ctx context.Context, req entity.HistoryRequest) ([]entity.Bar, error) {
	if h.store == nil {
		return nil, errStoreDisabled
	}
	if _, ok := constant.WindExchangeCode(req.Exchange); !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedExchange, req.Exchange)
	}

	rows, err := h.store.GetRange(ctx, req)
	if err != nil {
		return nil, err
	}

	bars := make([]entity.Bar, 0, len(rows))
	for _, row := range rows {
		bar := row.ToBar()
		bar.Datetime = bar.Datetime.In(constant.ChinaTZ)
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseHistoryRequest(r *http.Request, withInterval bool) (entity.HistoryRequest, error) {
	q := r.URL.Query()

	req := entity.HistoryRequest{
		Symbol:   strings.TrimSpace(q.Get("symbol")),
		Exchange: entity.Exchange(strings.ToUpper(strings.TrimSpace(q.Get("exchange")))),
	}
	if req.Symbol == "" || req.Exchange == "" {
		return entity.HistoryRequest{}, errors.New("symbol and exchange are required")
	}

	if withInterval {
		req.Interval = entity.Interval(strings.TrimSpace(q.Get("interval")))
		if req.Interval == "" {
			return entity.HistoryRequest{}, errors.New("interval is required")
		}
	}

	var err error
	req.Start, err = parseTime(q.Get("start"), false)
	if err != nil {
		return entity.HistoryRequest{}, fmt.Errorf("invalid start: %w", err)
	}

	req.End, err = parseTime(q.Get("end"), true)
	if err != nil {
		return entity.HistoryRequest{}, fmt.Errorf("invalid end: %w", err)
	}

	if req.End.Before(req.Start) {
		return entity.HistoryRequest{}, errors.New("end is before start")
	}

	return req, nil
}

// parseTime accepts RFC3339 or a bare date in exchange time, a bare end date covers the whole day.
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("value is required")
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.In(constant.ChinaTZ), nil
	}

	parsed, err := time.ParseInLocation(dateLayout, raw, constant.ChinaTZ)
	if err != nil {
		return time.Time{}, err
	}

	if endOfDay {
		return parsed.Add(24*time.Hour - time.Second), nil
	}

	return parsed, nil
}

func writeQueryError(w http.ResponseWriter, req entity.HistoryRequest, err error) {
	switch {
	case errors.Is(err, entity.ErrUnsupportedExchange), errors.Is(err, entity.ErrUnsupportedInterval):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, entity.ErrNotConnected), errors.Is(err, errStoreDisabled):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
	default:
		logrus.WithFields(logrus.Fields{
			"vt_symbol": req.VtSymbol(),
			"interval":  req.Interval,
		}).Error(err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "history query failed"})
	}
}

func finite(v float64) null.Float {
	return null.NewFloat(v, !math.IsNaN(v) && !math.IsInf(v, 0))
}

func finites(values ...float64) []null.Float {
	out := make([]null.Float, 0, len(values))
	for _, v := range values {
		out = append(out, finite(v))
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
