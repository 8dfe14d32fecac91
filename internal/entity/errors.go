package entity

import "errors"

var (
	ErrUnsupportedExchange = errors.New("unsupported exchange")
	ErrUnsupportedInterval = errors.New("unsupported interval")
	ErrUnknownSymbol       = errors.New("quote update for unsubscribed symbol")
	ErrUnknownQuoteField   = errors.New("unknown quote field")
	ErrNotConnected        = errors.New("wind session is not connected")
)
