package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/ws"

	"main/internal/model"
	"main/pkg/exception"
)

const (
	_binanceBaseWsUrl           = "wss://stream.binance.com:9443/ws"
	_binanceBaseWsUrlMarketOnly = "wss://data-stream.binance.vision/ws"

	_defaultConnectTimeout = 10 * time.Second
)

// Adapter streams normalized candles for one market until the connection
// terminates. The returned error carries the feed taxonomy; retrying is the
// caller's business, never the adapter's.
type Adapter interface {
	Stream(ctx context.Context, market model.Market, emit func(model.Candle)) error
}

// BinanceConfig tunes the upstream adapter.
type BinanceConfig struct {
	URL            string
	Interval       string
	ConnectTimeout time.Duration
}

// Binance holds one websocket connection per Stream call to the provider's
// public kline stream.
type Binance struct {
	cfg BinanceConfig
}

func NewBinance(cfg BinanceConfig) *Binance {
	if cfg.URL == "" {
		cfg.URL = _binanceBaseWsUrl
	}
	if cfg.Interval == "" {
		cfg.Interval = "1m"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = _defaultConnectTimeout
	}
	return &Binance{cfg: cfg}
}

type binanceSubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type binanceSubscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

// Stream connects, subscribes the market's kline topic and re-emits
// normalized candles until the upstream closes or ctx is canceled.
func (b *Binance) Stream(ctx context.Context, market model.Market, emit func(model.Candle)) error {
	wss := ws.New(ctx, b.cfg.URL)

	connectCtx, cancel := context.WithTimeout(ctx, b.cfg.ConnectTimeout)
	err := wss.Start(connectCtx)
	cancel()
	if err != nil {
		return classifyConnectErr(err)
	}
	defer wss.Close()

	if err := b.subscribeKline(ctx, wss, market); err != nil {
		return err
	}

	ch, cancelSub := wss.Subscribe()
	defer cancelSub()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return exception.ErrFeedClosed
			}

			var payload BinanceKline
			if err := m.Unmarshal(&payload); err != nil {
				logs.Warnf("drop unreadable upstream message for %s, err: %+v", market, err)
				continue
			}

			candle, err := NormalizeKline(payload)
			if err != nil {
				if err != exception.ErrFeedNotACandle {
					logs.Warnf("drop malformed kline for %s, err: %+v", market, err)
				}
				continue
			}
			emit(candle)
		}
	}
}

func (b *Binance) subscribeKline(ctx context.Context, wss *ws.WebSocket, market model.Market) error {
	topic := fmt.Sprintf("%s@kline_%s", strings.ToLower(market.Symbol()), b.cfg.Interval)
	appendIntoRegister := true
	if err := wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			payload := binanceSubscribeRequest{
				Method: "SUBSCRIBE",
				Params: []string{topic},
				ID:     1,
			}
			if err := client.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload")
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			var resp binanceSubscribeResponse
			if err := m.Unmarshal(&resp); err != nil || resp.ID != 1 {
				return false, nil
			}
			if resp.Result != nil {
				return false, errors.Errorf("subscribe rejected, err: %+v", resp.Result)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(exception.ErrFeedConnectFailed, err.Error())
	}
	return nil
}

// classifyConnectErr maps a handshake failure onto the feed taxonomy. The
// provider signals a restricted deployment region with HTTP 451.
func classifyConnectErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "451") || strings.Contains(msg, "restricted location") || strings.Contains(msg, "unavailable-for-legal-reasons") {
		return errors.Wrap(exception.ErrFeedGeoBlocked, err.Error())
	}
	return errors.Wrap(exception.ErrFeedConnectFailed, err.Error())
}
