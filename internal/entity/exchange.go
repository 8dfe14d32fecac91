package entity

import "time"

type Exchange string

const (
	ExchangeSSE   Exchange = "SSE"
	ExchangeSZSE  Exchange = "SZSE"
	ExchangeCFFEX Exchange = "CFFEX"
	ExchangeSHFE  Exchange = "SHFE"
	ExchangeCZCE  Exchange = "CZCE"
	ExchangeDCE   Exchange = "DCE"
	ExchangeINE   Exchange = "INE"
	ExchangeGFEX  Exchange = "GFEX"
)

type Interval string

const (
	IntervalMinute Interval = "1m"
	IntervalHour   Interval = "1h"
	IntervalDaily  Interval = "d"
	IntervalTick   Interval = "tick"
)

type HistoryRequest struct {
	Symbol   string
	Exchange Exchange
	Interval Interval
	Start    time.Time
	End      time.Time
}

func (r HistoryRequest) VtSymbol() string {
	return VtSymbol(r.Symbol, r.Exchange)
}

type SubscribeRequest struct {
	Symbol   string   `json:"symbol"`
	Exchange Exchange `json:"exchange"`
}

func (r SubscribeRequest) VtSymbol() string {
	return VtSymbol(r.Symbol, r.Exchange)
}

// VtSymbol is the platform-wide identifier of an instrument, e.g. "600000.SSE".
func VtSymbol(symbol string, exchange Exchange) string {
	return symbol + "." + string(exchange)
}
