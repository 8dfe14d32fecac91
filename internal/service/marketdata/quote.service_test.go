package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/krobus00/wind-gateway/internal/wind"
	"github.com/krobus00/wind-gateway/internal/wind/windtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickRecorder struct {
	ticks []entity.Tick
}

func (r *tickRecorder) OnTick(tick entity.Tick) {
	r.ticks = append(r.ticks, tick)
}

func pfSubscribe() entity.SubscribeRequest {
	return entity.SubscribeRequest{Symbol: "600000", Exchange: entity.ExchangeSSE}
}

func quoteUpdate(second int, fields []string, values ...float64) wind.Data {
	data := wind.Data{
		Codes:  []string{"600000.SH"},
		Fields: fields,
		Times:  []time.Time{time.Date(2024, 1, 2, 9, 30, second, 0, time.UTC)},
	}
	for _, v := range values {
		data.Data = append(data.Data, []float64{v})
	}
	return data
}

func newConnectedService(t *testing.T) (*QuoteService, *windtest.Client, *tickRecorder) {
	t.Helper()

	client := &windtest.Client{}
	recorder := &tickRecorder{}
	svc := NewQuoteService(client, recorder.OnTick)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC) }

	svc.Connect(context.Background())
	require.True(t, client.IsConnected())

	return svc, client, recorder
}

func TestSubscribe(t *testing.T) {
	svc, client, _ := newConnectedService(t)

	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))

	require.Len(t, client.Subscriptions, 1)
	sub := client.Subscriptions[0]
	assert.Equal(t, "600000.SH", sub.Codes)
	assert.Len(t, sub.Fields, 29)
	assert.Equal(t, QuoteFields(), sub.Fields)

	assert.Equal(t, []entity.SubscribeRequest{pfSubscribe()}, svc.Subscriptions())
}

func TestSubscribeUnsupportedExchange(t *testing.T) {
	svc, client, _ := newConnectedService(t)

	err := svc.Subscribe(context.Background(), entity.SubscribeRequest{Symbol: "AAPL", Exchange: "NASDAQ"})
	assert.ErrorIs(t, err, entity.ErrUnsupportedExchange)
	assert.Empty(t, client.Subscriptions)
	assert.Empty(t, svc.Subscriptions())
}

func TestSubscribeRestartsDroppedSession(t *testing.T) {
	svc, client, _ := newConnectedService(t)
	client.Connected = false

	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))
	assert.Equal(t, 2, client.StartCalls)
	assert.True(t, client.IsConnected())
}

func TestSubscribeWSQRefused(t *testing.T) {
	svc, client, recorder := newConnectedService(t)
	client.WSQResult = wind.Result{ErrorCode: -40522005, Message: "no permission"}

	err := svc.Subscribe(context.Background(), pfSubscribe())
	require.Error(t, err)

	// kept for the next reconnect, but nothing to update until then
	assert.Len(t, svc.Subscriptions(), 1)
	err = svc.OnQuoteUpdate(quoteUpdate(1, []string{"RT_LAST"}, 10))
	assert.ErrorIs(t, err, entity.ErrUnknownSymbol)
	assert.Empty(t, recorder.ticks)
}

func TestSubscribeAgainWSQRefusedKeepsLiveRecord(t *testing.T) {
	svc, client, recorder := newConnectedService(t)
	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))
	require.True(t, client.Push(quoteUpdate(1, []string{"RT_LAST"}, 10)))

	client.WSQResult = wind.Result{ErrorCode: -1, Message: "bridge busy"}
	require.Error(t, svc.Subscribe(context.Background(), pfSubscribe()))

	// the first stream is still pushing into the record it had
	require.NoError(t, svc.OnQuoteUpdate(quoteUpdate(2, []string{"RT_LAST_VOL"}, 500)))
	require.Len(t, recorder.ticks, 2)
	assert.Equal(t, 10.0, recorder.ticks[1].LastPrice)
	assert.Equal(t, 500.0, recorder.ticks[1].Volume)
}

func TestOnQuoteUpdateRetainsFields(t *testing.T) {
	svc, client, recorder := newConnectedService(t)
	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))

	require.True(t, client.Push(quoteUpdate(1, []string{"RT_LAST"}, 10.0)))
	require.True(t, client.Push(quoteUpdate(2, []string{"RT_LAST_VOL"}, 500)))

	require.Len(t, recorder.ticks, 2)
	latest := recorder.ticks[1]
	assert.Equal(t, 10.0, latest.LastPrice)
	assert.Equal(t, 500.0, latest.Volume)
	assert.Equal(t, "600000", latest.Symbol)
	assert.Equal(t, entity.ExchangeSSE, latest.Exchange)
	assert.Equal(t, "WIND", latest.GatewayName)
	assert.Equal(t, "2024-01-02T09:30:02+08:00", latest.Datetime.Format(time.RFC3339))
}

func TestOnQuoteUpdateSnapshotsAreIndependent(t *testing.T) {
	svc, _, recorder := newConnectedService(t)
	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))

	require.NoError(t, svc.OnQuoteUpdate(quoteUpdate(1, []string{"rt_last", "rt_bid1"}, 10.0, 9.99)))
	first := recorder.ticks[0]

	require.NoError(t, svc.OnQuoteUpdate(quoteUpdate(2, []string{"rt_last", "rt_bid1"}, 10.5, 10.49)))

	assert.Equal(t, 10.0, first.LastPrice)
	assert.Equal(t, 9.99, first.BidPrice1)
	assert.Equal(t, 1, first.Datetime.Second())
	assert.Equal(t, 10.5, recorder.ticks[1].LastPrice)
}

func TestOnQuoteUpdateAllFields(t *testing.T) {
	svc, _, recorder := newConnectedService(t)
	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))

	fields := QuoteFields()
	values := make([]float64, len(fields))
	for i := range values {
		values[i] = float64(i + 1)
	}
	require.NoError(t, svc.OnQuoteUpdate(quoteUpdate(1, fields, values...)))

	tick := recorder.ticks[0]
	assert.Equal(t, 1.0, tick.LastPrice)
	assert.Equal(t, 2.0, tick.Volume)
	assert.Equal(t, 3.0, tick.OpenInterest)
	assert.Equal(t, 4.0, tick.OpenPrice)
	assert.Equal(t, 5.0, tick.HighPrice)
	assert.Equal(t, 6.0, tick.LowPrice)
	assert.Equal(t, 7.0, tick.PreClose)
	assert.Equal(t, 8.0, tick.LimitUp)
	assert.Equal(t, 9.0, tick.LimitDown)
	assert.Equal(t, 10.0, tick.BidPrice1)
	assert.Equal(t, 14.0, tick.BidPrice5)
	assert.Equal(t, 15.0, tick.AskPrice1)
	assert.Equal(t, 19.0, tick.AskPrice5)
	assert.Equal(t, 20.0, tick.BidVolume1)
	assert.Equal(t, 24.0, tick.BidVolume5)
	assert.Equal(t, 25.0, tick.AskVolume1)
	assert.Equal(t, 29.0, tick.AskVolume5)
}

func TestOnQuoteUpdateUnknownField(t *testing.T) {
	svc, _, recorder := newConnectedService(t)
	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))

	err := svc.OnQuoteUpdate(quoteUpdate(1, []string{"RT_LAST", "RT_VWAP"}, 10, 9.8))
	assert.ErrorIs(t, err, entity.ErrUnknownQuoteField)
	assert.Empty(t, recorder.ticks)

	// the rejected update left no trace
	require.NoError(t, svc.OnQuoteUpdate(quoteUpdate(2, []string{"RT_LAST_VOL"}, 1)))
	assert.Equal(t, 0.0, recorder.ticks[0].LastPrice)
}

func TestOnQuoteUpdateUnknownSymbol(t *testing.T) {
	svc, _, recorder := newConnectedService(t)

	err := svc.OnQuoteUpdate(quoteUpdate(1, []string{"RT_LAST"}, 10))
	assert.ErrorIs(t, err, entity.ErrUnknownSymbol)
	assert.Empty(t, recorder.ticks)
}

func TestConnectReplaysSubscriptions(t *testing.T) {
	svc, client, _ := newConnectedService(t)
	require.NoError(t, svc.Subscribe(context.Background(), pfSubscribe()))
	require.NoError(t, svc.Subscribe(context.Background(), entity.SubscribeRequest{Symbol: "IF2401", Exchange: entity.ExchangeCFFEX}))

	client.Connected = false
	assert.Empty(t, svc.Connect(context.Background()))

	require.Len(t, client.Subscriptions, 4)
	replayed := []string{client.Subscriptions[2].Codes, client.Subscriptions[3].Codes}
	assert.ElementsMatch(t, []string{"600000.SH", "IF2401.CFE"}, replayed)
}

func TestConnectFailureSkipsReplay(t *testing.T) {
	client := &windtest.Client{StartResult: wind.Result{ErrorCode: -1}}
	svc := NewQuoteService(client, nil)
	svc.Register(pfSubscribe())

	failed := svc.Connect(context.Background())

	assert.Equal(t, []entity.SubscribeRequest{pfSubscribe()}, failed)
	assert.False(t, client.IsConnected())
	assert.Empty(t, client.Subscriptions)
	assert.Len(t, svc.Subscriptions(), 1)
}

func TestRegisterThenConnect(t *testing.T) {
	client := &windtest.Client{}
	svc := NewQuoteService(client, nil)
	svc.Register(pfSubscribe())

	svc.Connect(context.Background())

	require.Len(t, client.Subscriptions, 1)
	assert.Equal(t, "600000.SH", client.Subscriptions[0].Codes)
}

func TestConnectReturnsFailedRestores(t *testing.T) {
	client := &windtest.Client{WSQResult: wind.Result{ErrorCode: -40522005}}
	svc := NewQuoteService(client, nil)
	svc.Register(pfSubscribe())

	failed := svc.Connect(context.Background())

	assert.True(t, client.IsConnected())
	assert.Equal(t, []entity.SubscribeRequest{pfSubscribe()}, failed)
	assert.Len(t, svc.Subscriptions(), 1)
}

func TestClose(t *testing.T) {
	svc, client, _ := newConnectedService(t)
	require.NoError(t, svc.Close())
	assert.Equal(t, 1, client.StopCalls)
	assert.False(t, client.IsConnected())
}
