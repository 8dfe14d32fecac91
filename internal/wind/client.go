package wind

import (
	"context"
	"time"
)

// Result is the outcome of a session level call, a non-zero ErrorCode means Wind refused it.
type Result struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message,omitempty"`
}

func (r Result) OK() bool {
	return r.ErrorCode == 0
}

// QuoteCallback is invoked on the client's delivery goroutine, one update per call.
type QuoteCallback func(data Data)

type Client interface {
	Start(ctx context.Context) Result
	Stop() error
	IsConnected() bool

	// WSI queries intraday bars.
	WSI(ctx context.Context, codes string, fields []string, begin, end time.Time, options string) (Data, error)
	// WSD queries daily bars.
	WSD(ctx context.Context, codes string, fields []string, begin, end time.Time, options string) (Data, error)
	// WST queries historical ticks.
	WST(ctx context.Context, codes string, fields []string, begin, end time.Time, options string) (Data, error)
	// WSQ subscribes to push quotes for codes.
	WSQ(ctx context.Context, codes string, fields []string, callback QuoteCallback) Result
}
