package http

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/krobus00/wind-gateway/internal/service/datafeed"
	"github.com/krobus00/wind-gateway/internal/wind"
	"github.com/krobus00/wind-gateway/internal/wind/windtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBarStore struct {
	rows []entity.MarketBar
	reqs []entity.HistoryRequest
}

func (s *memoryBarStore) GetRange(_ context.Context, req entity.HistoryRequest) ([]entity.MarketBar, error) {
	s.reqs = append(s.reqs, req)
	return s.rows, nil
}

func newTestMux(client *windtest.Client) *http.ServeMux {
	return newTestMuxWithStore(client, nil)
}

func newTestMuxWithStore(client *windtest.Client, store storedBarReader) *http.ServeMux {
	mux := http.NewServeMux()
	NewDatafeedHTTPHandler(datafeed.NewDatafeedService(client), store).Register(mux)
	return mux
}

func TestQueryBarHistory(t *testing.T) {
	client := &windtest.Client{
		Connected: true,
		Responses: map[string]wind.Data{
			"wsd": {
				Codes:  []string{"600000.SH"},
				Fields: []string{"OPEN", "HIGH", "LOW", "CLOSE", "VOLUME", "AMT", "OI"},
				Times:  []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
				Data:   [][]float64{{10}, {11}, {9}, {10.5}, {1000}, {10500}, {math.NaN()}},
			},
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/datafeed/v1/bars?symbol=600000&exchange=sse&interval=d&start=2024-01-02&end=2024-01-02", nil)
	newTestMux(client).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			Symbol       string   `json:"symbol"`
			Exchange     string   `json:"exchange"`
			Datetime     string   `json:"datetime"`
			ClosePrice   *float64 `json:"close_price"`
			OpenInterest *float64 `json:"open_interest"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "SSE", body.Data[0].Exchange)
	assert.Equal(t, "2024-01-02T00:00:00+08:00", body.Data[0].Datetime)
	require.NotNil(t, body.Data[0].ClosePrice)
	assert.Equal(t, 10.5, *body.Data[0].ClosePrice)
	require.NotNil(t, body.Data[0].OpenInterest)
	assert.Equal(t, 0.0, *body.Data[0].OpenInterest)

	query, ok := client.LastQuery()
	require.True(t, ok)
	assert.Equal(t, "wsd", query.Method)
	assert.Equal(t, "600000.SH", query.Codes)
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, constant.ChinaTZ).Equal(query.Begin))
	assert.True(t, time.Date(2024, 1, 2, 23, 59, 59, 0, constant.ChinaTZ).Equal(query.End))
}

func TestQueryBarHistoryVendorErrorIsEmpty(t *testing.T) {
	client := &windtest.Client{
		Connected: true,
		Responses: map[string]wind.Data{"wsi": {ErrorCode: -40520007}},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/datafeed/v1/bars?symbol=IF2401&exchange=CFFEX&interval=1m&start=2024-01-02T09:30:00%2B08:00&end=2024-01-02T15:00:00%2B08:00", nil)
	newTestMux(client).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestQueryBarHistoryBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "missing symbol", target: "/datafeed/v1/bars?exchange=SSE&interval=d&start=2024-01-02&end=2024-01-03"},
		{name: "missing interval", target: "/datafeed/v1/bars?symbol=600000&exchange=SSE&start=2024-01-02&end=2024-01-03"},
		{name: "invalid start", target: "/datafeed/v1/bars?symbol=600000&exchange=SSE&interval=d&start=yesterday&end=2024-01-03"},
		{name: "end before start", target: "/datafeed/v1/bars?symbol=600000&exchange=SSE&interval=d&start=2024-01-03&end=2024-01-02"},
		{name: "unsupported exchange", target: "/datafeed/v1/bars?symbol=AAPL&exchange=NASDAQ&interval=d&start=2024-01-02&end=2024-01-03"},
		{name: "unsupported interval", target: "/datafeed/v1/bars?symbol=600000&exchange=SSE&interval=1w&start=2024-01-02&end=2024-01-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &windtest.Client{Connected: true}

			rec := httptest.NewRecorder()
			newTestMux(client).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, client.Queries)
		})
	}
}

func TestQueryBarHistoryNotConnected(t *testing.T) {
	client := &windtest.Client{StartResult: wind.Result{ErrorCode: -103, Message: "terminal offline"}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/datafeed/v1/bars?symbol=600000&exchange=SSE&interval=d&start=2024-01-02&end=2024-01-03", nil)
	newTestMux(client).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQueryBarHistoryMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(&windtest.Client{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/datafeed/v1/bars", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQueryTickHistory(t *testing.T) {
	client := &windtest.Client{
		Connected: true,
		Responses: map[string]wind.Data{
			"wst": {
				Codes: []string{"600000.SH"},
				Fields: []string{
					"open", "high", "low", "last", "volume", "amt", "oi",
					"bid1", "bid2", "bid3", "bid4", "bid5",
					"ask1", "ask2", "ask3", "ask4", "ask5",
				},
				Times: []time.Time{time.Date(2024, 1, 2, 9, 30, 3, 0, time.UTC)},
				Data: [][]float64{
					{10}, {10.2}, {9.9}, {10.1}, {300}, {3030}, {math.NaN()},
					{10.09}, {10.08}, {10.07}, {10.06}, {10.05},
					{10.11}, {10.12}, {10.13}, {10.14}, {math.NaN()},
				},
			},
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/datafeed/v1/ticks?symbol=600000&exchange=SSE&start=2024-01-02&end=2024-01-02", nil)
	newTestMux(client).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []struct {
			Datetime  string     `json:"datetime"`
			LastPrice float64    `json:"last_price"`
			BidPrices []*float64 `json:"bid_prices"`
			AskPrices []*float64 `json:"ask_prices"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "2024-01-02T09:30:03+08:00", body.Data[0].Datetime)
	assert.Equal(t, 10.1, body.Data[0].LastPrice)
	require.Len(t, body.Data[0].BidPrices, 5)
	assert.Equal(t, 10.09, *body.Data[0].BidPrices[0])
	require.Len(t, body.Data[0].AskPrices, 5)
	assert.Nil(t, body.Data[0].AskPrices[4])

	query, ok := client.LastQuery()
	require.True(t, ok)
	assert.Equal(t, "wst", query.Method)
}

func TestQueryBarHistoryFromStore(t *testing.T) {
	stored := entity.NewMarketBar(entity.Bar{
		Symbol:      "600000",
		Exchange:    entity.ExchangeSSE,
		Interval:    entity.IntervalDaily,
		Datetime:    time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC),
		ClosePrice:  10.5,
		GatewayName: constant.WindGatewayName,
	}, time.Now())
	store := &memoryBarStore{rows: []entity.MarketBar{stored}}
	client := &windtest.Client{Connected: true}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/datafeed/v1/bars?source=store&symbol=600000&exchange=SSE&interval=d&start=2024-01-02&end=2024-01-02", nil)
	newTestMuxWithStore(client, store).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, client.Queries)
	require.Len(t, store.reqs, 1)
	assert.Equal(t, entity.IntervalDaily, store.reqs[0].Interval)

	var body struct {
		Data []struct {
			Datetime   string  `json:"datetime"`
			ClosePrice float64 `json:"close_price"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "2024-01-02T00:00:00+08:00", body.Data[0].Datetime)
	assert.Equal(t, 10.5, body.Data[0].ClosePrice)
}

func TestQueryBarHistoryFromStoreRejected(t *testing.T) {
	tests := []struct {
		name   string
		store  storedBarReader
		target string
		code   int
	}{
		{
			name:   "store not configured",
			target: "/datafeed/v1/bars?source=store&symbol=600000&exchange=SSE&interval=d&start=2024-01-02&end=2024-01-02",
			code:   http.StatusServiceUnavailable,
		},
		{
			name:   "unsupported exchange",
			store:  &memoryBarStore{},
			target: "/datafeed/v1/bars?source=store&symbol=AAPL&exchange=NASDAQ&interval=d&start=2024-01-02&end=2024-01-02",
			code:   http.StatusBadRequest,
		},
		{
			name:   "unknown source",
			store:  &memoryBarStore{},
			target: "/datafeed/v1/bars?source=cache&symbol=600000&exchange=SSE&interval=d&start=2024-01-02&end=2024-01-02",
			code:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestMuxWithStore(&windtest.Client{Connected: true}, tt.store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
