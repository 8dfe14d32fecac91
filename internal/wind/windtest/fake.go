// Package windtest provides an in-memory wind.Client for tests.
package windtest

import (
	"context"
	"sync"
	"time"

	"github.com/krobus00/wind-gateway/internal/wind"
)

type Query struct {
	Method  string
	Codes   string
	Fields  []string
	Begin   time.Time
	End     time.Time
	Options string
}

type Subscription struct {
	Codes    string
	Fields   []string
	Callback wind.QuoteCallback
}

// Client records every call. Zero value is a disconnected client whose Start succeeds.
type Client struct {
	mu sync.Mutex

	Connected   bool
	StartResult wind.Result
	StartCalls  int
	StopCalls   int

	// Responses keyed by method ("wsi", "wsd", "wst").
	Responses map[string]wind.Data
	QueryErr  error
	Queries   []Query

	WSQResult     wind.Result
	Subscriptions []Subscription
}

func (c *Client) Start(_ context.Context) wind.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.StartCalls++
	if c.StartResult.OK() {
		c.Connected = true
	}
	return c.StartResult
}

func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.StopCalls++
	c.Connected = false
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Connected
}

func (c *Client) WSI(_ context.Context, codes string, fields []string, begin, end time.Time, options string) (wind.Data, error) {
	return c.query("wsi", codes, fields, begin, end, options)
}

func (c *Client) WSD(_ context.Context, codes string, fields []string, begin, end time.Time, options string) (wind.Data, error) {
	return c.query("wsd", codes, fields, begin, end, options)
}

func (c *Client) WST(_ context.Context, codes string, fields []string, begin, end time.Time, options string) (wind.Data, error) {
	return c.query("wst", codes, fields, begin, end, options)
}

func (c *Client) WSQ(_ context.Context, codes string, fields []string, callback wind.QuoteCallback) wind.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Subscriptions = append(c.Subscriptions, Subscription{Codes: codes, Fields: fields, Callback: callback})
	return c.WSQResult
}

// Push delivers data to the latest callback registered for data.Codes[0].
func (c *Client) Push(data wind.Data) bool {
	c.mu.Lock()
	var callback wind.QuoteCallback
	for _, sub := range c.Subscriptions {
		if len(data.Codes) > 0 && sub.Codes == data.Codes[0] {
			callback = sub.Callback
		}
	}
	c.mu.Unlock()

	if callback == nil {
		return false
	}
	callback(data)
	return true
}

func (c *Client) LastQuery() (Query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.Queries) == 0 {
		return Query{}, false
	}
	return c.Queries[len(c.Queries)-1], true
}

func (c *Client) query(method, codes string, fields []string, begin, end time.Time, options string) (wind.Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Queries = append(c.Queries, Query{
		Method:  method,
		Codes:   codes,
		Fields:  append([]string(nil), fields...),
		Begin:   begin,
		End:     end,
		Options: options,
	})
	if c.QueryErr != nil {
		return wind.Data{}, c.QueryErr
	}
	return c.Responses[method], nil
}
