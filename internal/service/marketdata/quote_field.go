package marketdata

import (
	"fmt"
	"strings"

	"github.com/krobus00/wind-gateway/internal/entity"
)

type quoteField string

const (
	fieldLast       quoteField = "rt_last"
	fieldLastVolume quoteField = "rt_last_vol"
	fieldOI         quoteField = "rt_oi"
	fieldOpen       quoteField = "rt_open"
	fieldHigh       quoteField = "rt_high"
	fieldLow        quoteField = "rt_low"
	fieldPreClose   quoteField = "rt_pre_close"
	fieldHighLimit  quoteField = "rt_high_limit"
	fieldLowLimit   quoteField = "rt_low_limit"

	fieldBid1 quoteField = "rt_bid1"
	fieldBid2 quoteField = "rt_bid2"
	fieldBid3 quoteField = "rt_bid3"
	fieldBid4 quoteField = "rt_bid4"
	fieldBid5 quoteField = "rt_bid5"

	fieldAsk1 quoteField = "rt_ask1"
	fieldAsk2 quoteField = "rt_ask2"
	fieldAsk3 quoteField = "rt_ask3"
	fieldAsk4 quoteField = "rt_ask4"
	fieldAsk5 quoteField = "rt_ask5"

	fieldBidSize1 quoteField = "rt_bsize1"
	fieldBidSize2 quoteField = "rt_bsize2"
	fieldBidSize3 quoteField = "rt_bsize3"
	fieldBidSize4 quoteField = "rt_bsize4"
	fieldBidSize5 quoteField = "rt_bsize5"

	fieldAskSize1 quoteField = "rt_asize1"
	fieldAskSize2 quoteField = "rt_asize2"
	fieldAskSize3 quoteField = "rt_asize3"
	fieldAskSize4 quoteField = "rt_asize4"
	fieldAskSize5 quoteField = "rt_asize5"
)

var quoteFields = []quoteField{
	fieldLast, fieldLastVolume, fieldOI,
	fieldOpen, fieldHigh, fieldLow, fieldPreClose,
	fieldHighLimit, fieldLowLimit,
	fieldBid1, fieldBid2, fieldBid3, fieldBid4, fieldBid5,
	fieldAsk1, fieldAsk2, fieldAsk3, fieldAsk4, fieldAsk5,
	fieldBidSize1, fieldBidSize2, fieldBidSize3, fieldBidSize4, fieldBidSize5,
	fieldAskSize1, fieldAskSize2, fieldAskSize3, fieldAskSize4, fieldAskSize5,
}

// QuoteFields lists every field requested from wsq.
func QuoteFields() []string {
	fields := make([]string, len(quoteFields))
	for i, f := range quoteFields {
		fields[i] = string(f)
	}
	return fields
}

func applyQuoteField(tick *entity.Tick, field string, value float64) error {
	switch quoteField(strings.ToLower(field)) {
	case fieldLast:
		tick.LastPrice = value
	case fieldLastVolume:
		tick.Volume = value
	case fieldOI:
		tick.OpenInterest = value
	case fieldOpen:
		tick.OpenPrice = value
	case fieldHigh:
		tick.HighPrice = value
	case fieldLow:
		tick.LowPrice = value
	case fieldPreClose:
		tick.PreClose = value
	case fieldHighLimit:
		tick.LimitUp = value
	case fieldLowLimit:
		tick.LimitDown = value
	case fieldBid1:
		tick.BidPrice1 = value
	case fieldBid2:
		tick.BidPrice2 = value
	case fieldBid3:
		tick.BidPrice3 = value
	case fieldBid4:
		tick.BidPrice4 = value
	case fieldBid5:
		tick.BidPrice5 = value
	case fieldAsk1:
		tick.AskPrice1 = value
	case fieldAsk2:
		tick.AskPrice2 = value
	case fieldAsk3:
		tick.AskPrice3 = value
	case fieldAsk4:
		tick.AskPrice4 = value
	case fieldAsk5:
		tick.AskPrice5 = value
	case fieldBidSize1:
		tick.BidVolume1 = value
	case fieldBidSize2:
		tick.BidVolume2 = value
	case fieldBidSize3:
		tick.BidVolume3 = value
	case fieldBidSize4:
		tick.BidVolume4 = value
	case fieldBidSize5:
		tick.BidVolume5 = value
	case fieldAskSize1:
		tick.AskVolume1 = value
	case fieldAskSize2:
		tick.AskVolume2 = value
	case fieldAskSize3:
		tick.AskVolume3 = value
	case fieldAskSize4:
		tick.AskVolume4 = value
	case fieldAskSize5:
		tick.AskVolume5 = value
	default:
		return fmt.Errorf("%w: %s", entity.ErrUnknownQuoteField, field)
	}
	return nil
}
