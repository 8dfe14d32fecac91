package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Bar struct {
	Symbol       string    `json:"symbol"`
	Exchange     Exchange  `json:"exchange"`
	Interval     Interval  `json:"interval"`
	Datetime     time.Time `json:"datetime"`
	OpenPrice    float64   `json:"open_price"`
	HighPrice    float64   `json:"high_price"`
	LowPrice     float64   `json:"low_price"`
	ClosePrice   float64   `json:"close_price"`
	Volume       float64   `json:"volume"`
	Turnover     float64   `json:"turnover"`
	OpenInterest float64   `json:"open_interest"`
	GatewayName  string    `json:"gateway_name"`
}

func (b Bar) VtSymbol() string {
	return VtSymbol(b.Symbol, b.Exchange)
}

// MarketBar is the stored form of a Bar.
type MarketBar struct {
	ID           string          `db:"id"`
	Symbol       string          `db:"symbol"`
	Exchange     string          `db:"exchange"`
	Interval     string          `db:"interval"`
	Datetime     time.Time       `db:"datetime"`
	OpenPrice    decimal.Decimal `db:"open_price"`
	HighPrice    decimal.Decimal `db:"high_price"`
	LowPrice     decimal.Decimal `db:"low_price"`
	ClosePrice   decimal.Decimal `db:"close_price"`
	Volume       decimal.Decimal `db:"volume"`
	Turnover     decimal.Decimal `db:"turnover"`
	OpenInterest decimal.Decimal `db:"open_interest"`
	GatewayName  string          `db:"gateway_name"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (m MarketBar) TableName() string {
	return "market_bars"
}

func NewMarketBar(bar Bar, now time.Time) MarketBar {
	return MarketBar{
		Symbol:       bar.Symbol,
		Exchange:     string(bar.Exchange),
		Interval:     string(bar.Interval),
		Datetime:     bar.Datetime,
		OpenPrice:    finiteDecimal(bar.OpenPrice),
		HighPrice:    finiteDecimal(bar.HighPrice),
		LowPrice:     finiteDecimal(bar.LowPrice),
		ClosePrice:   finiteDecimal(bar.ClosePrice),
		Volume:       finiteDecimal(bar.Volume),
		Turnover:     finiteDecimal(bar.Turnover),
		OpenInterest: finiteDecimal(bar.OpenInterest),
		GatewayName:  bar.GatewayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (m MarketBar) ToBar() Bar {
	return Bar{
		Symbol:       m.Symbol,
		Exchange:     Exchange(m.Exchange),
		Interval:     Interval(m.Interval),
		Datetime:     m.Datetime,
		OpenPrice:    m.OpenPrice.InexactFloat64(),
		HighPrice:    m.HighPrice.InexactFloat64(),
		LowPrice:     m.LowPrice.InexactFloat64(),
		ClosePrice:   m.ClosePrice.InexactFloat64(),
		Volume:       m.Volume.InexactFloat64(),
		Turnover:     m.Turnover.InexactFloat64(),
		OpenInterest: m.OpenInterest.InexactFloat64(),
		GatewayName:  m.GatewayName,
	}
}

// finiteDecimal maps NaN and Inf to zero, decimal.NewFromFloat panics on them.
func finiteDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
