package entity

import (
	"math"
	"time"
)

type Tick struct {
	Symbol       string    `json:"symbol"`
	Exchange     Exchange  `json:"exchange"`
	Datetime     time.Time `json:"datetime"`
	Name         string    `json:"name,omitempty"`
	Volume       float64   `json:"volume"`
	Turnover     float64   `json:"turnover"`
	OpenInterest float64   `json:"open_interest"`
	LastPrice    float64   `json:"last_price"`
	LastVolume   float64   `json:"last_volume"`
	LimitUp      float64   `json:"limit_up"`
	LimitDown    float64   `json:"limit_down"`

	OpenPrice float64 `json:"open_price"`
	HighPrice float64 `json:"high_price"`
	LowPrice  float64 `json:"low_price"`
	PreClose  float64 `json:"pre_close"`

	BidPrice1 float64 `json:"bid_price_1"`
	BidPrice2 float64 `json:"bid_price_2"`
	BidPrice3 float64 `json:"bid_price_3"`
	BidPrice4 float64 `json:"bid_price_4"`
	BidPrice5 float64 `json:"bid_price_5"`

	AskPrice1 float64 `json:"ask_price_1"`
	AskPrice2 float64 `json:"ask_price_2"`
	AskPrice3 float64 `json:"ask_price_3"`
	AskPrice4 float64 `json:"ask_price_4"`
	AskPrice5 float64 `json:"ask_price_5"`

	BidVolume1 float64 `json:"bid_volume_1"`
	BidVolume2 float64 `json:"bid_volume_2"`
	BidVolume3 float64 `json:"bid_volume_3"`
	BidVolume4 float64 `json:"bid_volume_4"`
	BidVolume5 float64 `json:"bid_volume_5"`

	AskVolume1 float64 `json:"ask_volume_1"`
	AskVolume2 float64 `json:"ask_volume_2"`
	AskVolume3 float64 `json:"ask_volume_3"`
	AskVolume4 float64 `json:"ask_volume_4"`
	AskVolume5 float64 `json:"ask_volume_5"`

	GatewayName string `json:"gateway_name"`
}

func (t Tick) VtSymbol() string {
	return VtSymbol(t.Symbol, t.Exchange)
}

// Finite returns a copy with NaN and Inf replaced by 0, JSON has no encoding for them.
func (t Tick) Finite() Tick {
	values := []*float64{
		&t.Volume, &t.Turnover, &t.OpenInterest, &t.LastPrice, &t.LastVolume,
		&t.LimitUp, &t.LimitDown, &t.OpenPrice, &t.HighPrice, &t.LowPrice, &t.PreClose,
		&t.BidPrice1, &t.BidPrice2, &t.BidPrice3, &t.BidPrice4, &t.BidPrice5,
		&t.AskPrice1, &t.AskPrice2, &t.AskPrice3, &t.AskPrice4, &t.AskPrice5,
		&t.BidVolume1, &t.BidVolume2, &t.BidVolume3, &t.BidVolume4, &t.BidVolume5,
		&t.AskVolume1, &t.AskVolume2, &t.AskVolume3, &t.AskVolume4, &t.AskVolume5,
	}
	for _, v := range values {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	return t
}

type TickEvent struct {
	RetryCount int  `json:"retry"`
	Data       Tick `json:"data"`
}
