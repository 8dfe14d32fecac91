package wind

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	methodStart = "start"
	methodStop  = "stop"
	methodWSI   = "wsi"
	methodWSD   = "wsd"
	methodWST   = "wst"
	methodWSQ   = "wsq"

	defaultHandshakeTimeout = 10 * time.Second
	errorCodeBridge         = -1
)

var ErrBridgeClosed = errors.New("wind bridge connection closed")

type frame struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type queryParams struct {
	Codes     string   `json:"codes"`
	Fields    []string `json:"fields"`
	BeginTime string   `json:"begin_time,omitempty"`
	EndTime   string   `json:"end_time,omitempty"`
	Options   string   `json:"options,omitempty"`
}

type BridgeConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	Header           http.Header
	// Location is the zone query bounds are expressed in before being sent as naive times.
	Location *time.Location
}

// BridgeClient talks to a WindPy bridge process over a websocket. Requests are JSON frames
// correlated by id; frames without an id are pushed quotes.
type BridgeClient struct {
	cfg    BridgeConfig
	dialer *websocket.Dialer

	connMu sync.Mutex
	conn   *websocket.Conn
	done   chan struct{}

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan frame

	callbackMu sync.RWMutex
	callbacks  map[string]QuoteCallback

	connected atomic.Bool
}

func NewBridgeClient(cfg BridgeConfig) *BridgeClient {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &BridgeClient{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		pending:   make(map[string]chan frame),
		callbacks: make(map[string]QuoteCallback),
	}
}

func (c *BridgeClient) IsConnected() bool {
	return c.connected.Load()
}

// Start dials the bridge if needed and asks it to start the Wind session.
func (c *BridgeClient) Start(ctx context.Context) Result {
	if err := c.ensureConn(ctx); err != nil {
		return Result{ErrorCode: errorCodeBridge, Message: err.Error()}
	}

	var res Result
	if err := c.call(ctx, methodStart, struct{}{}, &res); err != nil {
		return Result{ErrorCode: errorCodeBridge, Message: err.Error()}
	}

	c.connected.Store(res.OK())
	return res
}

func (c *BridgeClient) Stop() error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout)
	defer cancel()

	var res Result
	if err := c.call(ctx, methodStop, struct{}{}, &res); err != nil {
		logrus.Warnf("wind bridge stop: %v", err)
	}

	c.connected.Store(false)
	return conn.Close()
}

func (c *BridgeClient) WSI(ctx context.Context, codes string, fields []string, begin, end time.Time, options string) (Data, error) {
	return c.query(ctx, methodWSI, codes, fields, begin, end, options)
}

func (c *BridgeClient) WSD(ctx context.Context, codes string, fields []string, begin, end time.Time, options string) (Data, error) {
	return c.query(ctx, methodWSD, codes, fields, begin, end, options)
}

func (c *BridgeClient) WST(ctx context.Context, codes string, fields []string, begin, end time.Time, options string) (Data, error) {
	return c.query(ctx, methodWST, codes, fields, begin, end, options)
}

func (c *BridgeClient) WSQ(ctx context.Context, codes string, fields []string, callback QuoteCallback) Result {
	if err := c.ensureConn(ctx); err != nil {
		return Result{ErrorCode: errorCodeBridge, Message: err.Error()}
	}

	c.callbackMu.Lock()
	for _, code := range strings.Split(codes, ",") {
		c.callbacks[strings.TrimSpace(code)] = callback
	}
	c.callbackMu.Unlock()

	var res Result
	err := c.call(ctx, methodWSQ, queryParams{Codes: codes, Fields: fields}, &res)
	if err != nil {
		return Result{ErrorCode: errorCodeBridge, Message: err.Error()}
	}

	return res
}

func (c *BridgeClient) query(ctx context.Context, method, codes string, fields []string, begin, end time.Time, options string) (Data, error) {
	if err := c.ensureConn(ctx); err != nil {
		return Data{}, err
	}

	params := queryParams{
		Codes:     codes,
		Fields:    fields,
		BeginTime: begin.In(c.cfg.Location).Format(naiveLayout),
		EndTime:   end.In(c.cfg.Location).Format(naiveLayout),
		Options:   options,
	}

	var wire wireData
	if err := c.call(ctx, method, params, &wire); err != nil {
		return Data{}, err
	}

	return wire.toData()
}

func (c *BridgeClient) ensureConn(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	logrus.Infof("connecting to wind bridge %s", c.cfg.URL)
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if err != nil {
		return fmt.Errorf("dial wind bridge: %w", err)
	}

	c.conn = conn
	c.done = make(chan struct{})
	go c.readLoop(conn, c.done)

	return nil
}

func (c *BridgeClient) call(ctx context.Context, method string, params any, out any) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	respCh := make(chan frame, 1)

	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.connMu.Lock()
	conn, done := c.conn, c.done
	c.connMu.Unlock()
	if conn == nil {
		return ErrBridgeClosed
	}

	payload, err := json.Marshal(frame{ID: id, Method: method, Params: rawParams})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("write %s request: %w", method, err)
	}

	select {
	case resp := <-respCh:
		if resp.Error != "" {
			return fmt.Errorf("wind bridge %s: %s", method, resp.Error)
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		return json.Unmarshal(resp.Result, out)
	case <-done:
		return ErrBridgeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readLoop is the single delivery goroutine, pushed quotes are dispatched from here in order.
func (c *BridgeClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		c.connMu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.connMu.Unlock()
		c.connected.Store(false)
		close(done)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logrus.Warnf("wind bridge read: %v", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			logrus.WithField("frame", string(message)).Errorf("decode wind bridge frame: %v", err)
			continue
		}

		if f.ID != "" {
			c.pendingMu.Lock()
			ch, ok := c.pending[f.ID]
			c.pendingMu.Unlock()
			if ok {
				ch <- f
			}
			continue
		}

		if f.Method == methodWSQ {
			c.dispatchQuote(f.Params)
		}
	}
}

func (c *BridgeClient) dispatchQuote(raw json.RawMessage) {
	var wire wireData
	if err := json.Unmarshal(raw, &wire); err != nil {
		logrus.Errorf("decode wsq push: %v", err)
		return
	}

	data, err := wire.toData()
	if err != nil {
		logrus.Errorf("decode wsq push: %v", err)
		return
	}
	if len(data.Codes) == 0 {
		return
	}

	c.callbackMu.RLock()
	callback, ok := c.callbacks[data.Codes[0]]
	c.callbackMu.RUnlock()
	if !ok {
		logrus.Warnf("wsq push for %s without callback", data.Codes[0])
		return
	}

	callback(data)
}
