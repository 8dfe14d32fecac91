package constant

import (
	"fmt"
	"sort"
	"time"
	_ "time/tzdata" // the Wind terminal host is usually Windows without a zoneinfo database

	"github.com/krobus00/wind-gateway/internal/entity"
)

const (
	WindGatewayName = "WIND"
	WindTimezone    = "Asia/Shanghai"
)

// ChinaTZ is the zone Wind reports every timestamp in.
var ChinaTZ = loadLocation(WindTimezone)

// wind code -> platform exchange
var windExchanges = map[string]entity.Exchange{
	"SH":  entity.ExchangeSSE,
	"SZ":  entity.ExchangeSZSE,
	"CFE": entity.ExchangeCFFEX,
	"SHF": entity.ExchangeSHFE,
	"CZC": entity.ExchangeCZCE,
	"DCE": entity.ExchangeDCE,
	"INE": entity.ExchangeINE,
	"GFE": entity.ExchangeGFEX,
}

var exchangeWindCodes = invertExchangeMap(windExchanges)

// intraday only, daily bars are served by a separate endpoint
var windBarSizes = map[entity.Interval]string{
	entity.IntervalMinute: "1",
	entity.IntervalHour:   "60",
}

func WindExchange(code string) (entity.Exchange, bool) {
	exchange, ok := windExchanges[code]
	return exchange, ok
}

func WindExchangeCode(exchange entity.Exchange) (string, bool) {
	code, ok := exchangeWindCodes[exchange]
	return code, ok
}

// WindExchangeCodes returns every supported Wind exchange code in a stable order.
func WindExchangeCodes() []string {
	codes := make([]string, 0, len(windExchanges))
	for code := range windExchanges {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func WindBarSize(interval entity.Interval) (string, bool) {
	size, ok := windBarSizes[interval]
	return size, ok
}

func invertExchangeMap(m map[string]entity.Exchange) map[entity.Exchange]string {
	inverted := make(map[entity.Exchange]string, len(m))
	for code, exchange := range m {
		if _, dup := inverted[exchange]; dup {
			panic("duplicate wind exchange mapping for " + string(exchange))
		}
		inverted[exchange] = code
	}
	return inverted
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// WindSymbol builds the Wind code of an instrument, e.g. 600000.SH.
func WindSymbol(symbol string, exchange entity.Exchange) (string, error) {
	code, ok := WindExchangeCode(exchange)
	if !ok {
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedExchange, exchange)
	}
	return symbol + "." + code, nil
}
