package feedclient

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"main/internal/feed"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/transport"
	"main/pkg/backoff"
	"main/pkg/exception"
)

const _dialTimeout = 10 * time.Second

// Config tunes the downstream client.
type Config struct {
	URL string
	// MaxAttempts is the number of consecutive failed dials before the
	// client falls back to local simulation. It keeps dialing in the
	// background afterwards.
	MaxAttempts int
	Backoff     backoff.Policy
	Sim         feed.SimulatorConfig
	OnEvent     func(transport.ServerMessage)
}

// Client mirrors the server's reliability pattern on the consumer side: it
// reconnects with backoff, resubscribes every active market on reconnect and
// runs a local per-market simulator while the transport is unreachable, so
// the chart is never dead.
type Client struct {
	cfg Config

	mu        sync.Mutex
	desired   map[model.Market]struct{}
	local     map[model.Market]context.CancelFunc
	conn      *websocket.Conn
	writeMu   sync.Mutex
	localMode bool
	runCtx    context.Context
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.OnEvent == nil {
		return nil, exception.ErrInvalidArgument
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff.IsZero() {
		cfg.Backoff = backoff.Default()
	}
	return &Client{
		cfg:     cfg,
		desired: make(map[model.Market]struct{}),
		local:   make(map[model.Market]context.CancelFunc),
	}, nil
}

// Run drives the connection lifecycle and blocks until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	attempt := 0
	for {
		if ctx.Err() != nil {
			c.stopLocal()
			return ctx.Err()
		}

		conn, err := c.dial(ctx)
		if err != nil {
			attempt++
			if attempt >= c.cfg.MaxAttempts {
				c.enterLocalMode(ctx)
			}
			c.cfg.Backoff.Sleep(ctx, attempt)
			continue
		}

		attempt = 0
		c.exitLocalMode()
		c.setConn(conn)
		c.cfg.OnEvent(transport.ServerMessage{Type: transport.TypeConnection, Status: "connected"})
		c.resubscribe()

		err = c.readLoop(conn)
		c.setConn(nil)
		_ = conn.Close()
		if ctx.Err() != nil {
			c.stopLocal()
			return ctx.Err()
		}
		logs.Warnf("transport connection lost, err: %+v", err)
		attempt++
		if attempt >= c.cfg.MaxAttempts {
			c.enterLocalMode(ctx)
		}
		c.cfg.Backoff.Sleep(ctx, attempt)
	}
}

// Subscribe registers interest in a market, effective immediately in
// whichever mode the client is in.
func (c *Client) Subscribe(market model.Market) error {
	if !market.IsAvailable() {
		return exception.ErrFeedInvalidMarket
	}

	c.mu.Lock()
	c.desired[market] = struct{}{}
	conn := c.conn
	var start func()
	if c.localMode {
		start = c.startLocalLocked(market)
	}
	c.mu.Unlock()

	if start != nil {
		start()
	}
	if conn != nil {
		return c.send(transport.ClientMessage{Action: transport.ActionSubscribe, Market: market})
	}
	return nil
}

// Unsubscribe drops a market. In local mode the market's generator stops;
// resubscribing later starts a fresh one, never a resumed one.
func (c *Client) Unsubscribe(market model.Market) error {
	c.mu.Lock()
	delete(c.desired, market)
	if cancel, ok := c.local[market]; ok {
		cancel()
		delete(c.local, market)
	}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return c.send(transport.ClientMessage{Action: transport.ActionUnsubscribe, Market: market})
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, _dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.cfg.URL, nil)
	return conn, err
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg transport.ServerMessage
		if err := sonic.ConfigFastest.Unmarshal(raw, &msg); err != nil {
			logs.Warnf("drop unreadable server message, err: %+v", err)
			continue
		}
		c.cfg.OnEvent(msg)
	}
}

func (c *Client) resubscribe() {
	c.mu.Lock()
	markets := make([]model.Market, 0, len(c.desired))
	for market := range c.desired {
		markets = append(markets, market)
	}
	c.mu.Unlock()

	if len(markets) == 0 {
		return
	}
	if err := c.send(transport.ClientMessage{Action: transport.ActionSubscribeMultiple, Markets: markets}); err != nil {
		logs.Warnf("resubscribe failed, err: %+v", err)
	}
}

func (c *Client) send(msg transport.ClientMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	payload, err := sonic.ConfigFastest.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) enterLocalMode(ctx context.Context) {
	c.mu.Lock()
	if c.localMode || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.localMode = true
	starts := make([]func(), 0, len(c.desired))
	for market := range c.desired {
		if start := c.startLocalLocked(market); start != nil {
			starts = append(starts, start)
		}
	}
	c.mu.Unlock()

	for _, start := range starts {
		start()
	}
}

func (c *Client) exitLocalMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localMode = false
	for market, cancel := range c.local {
		cancel()
		delete(c.local, market)
	}
}

func (c *Client) stopLocal() {
	c.exitLocalMode()
}

// startLocalLocked registers a fresh simulator for the market and returns
// the function that announces and runs it. Callers hold c.mu and must call
// the returned function after releasing it: OnEvent may reenter the client.
func (c *Client) startLocalLocked(market model.Market) func() {
	if _, running := c.local[market]; running {
		return nil
	}
	if c.runCtx == nil {
		return nil
	}
	simCtx, cancel := context.WithCancel(c.runCtx)
	c.local[market] = cancel

	sim := feed.NewSimulator(market, c.cfg.Sim)
	return func() {
		c.cfg.OnEvent(transport.ServerMessage{
			Type:   transport.TypeSimulationStarted,
			Market: market,
			Status: enum.FeedStateSimulated.String(),
			Source: enum.FeedSourceSimulation.String(),
		})
		go sim.Run(simCtx, func(candle model.Candle) {
			data := candle
			c.cfg.OnEvent(transport.ServerMessage{
				Type:   transport.TypeKline,
				Market: market,
				Source: enum.FeedSourceSimulation.String(),
				Data:   &data,
			})
		})
	}
}
