package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestCreateOrderSignsAndDecodes(t *testing.T) {
	const secret = "test-secret"
	var captured *http.Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Write([]byte(`{
			"symbol": "BTCUSDT",
			"orderId": 42,
			"price": "0.00000000",
			"origQty": "0.50000000",
			"executedQty": "0.50000000",
			"cummulativeQuoteQty": "32500.00000000",
			"status": "FILLED",
			"type": "MARKET",
			"side": "BUY",
			"transactTime": 1700000000123
		}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), "test-key", secret).WithBaseURL(srv.URL)
	o, err := d.CreateOrder(context.Background(), "BTC/USDT", enum.OrderTypeMarket, enum.OrderSideBuy, decimal.NewFromFloat(0.5), decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, "42", o.ID)
	assert.Equal(t, enum.OrderStatusClosed, o.Status)
	assert.True(t, o.Price.Equal(decimal.NewFromInt(65000)), "market fill derives the average price, got %s", o.Price)
	assert.True(t, o.Remaining.IsZero())
	assert.Equal(t, int64(1700000000123), o.Timestamp)

	require.NotNil(t, captured)
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/api/v3/order", captured.URL.Path)
	assert.Equal(t, "test-key", captured.Header.Get("X-MBX-APIKEY"))

	// the signature must cover everything before it, and come last
	raw := captured.URL.RawQuery
	idx := strings.LastIndex(raw, "&signature=")
	require.Greater(t, idx, 0, "signature missing from %s", raw)
	payload, got := raw[:idx], raw[idx+len("&signature="):]
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), got)

	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", q.Get("symbol"))
	assert.Equal(t, "BUY", q.Get("side"))
	assert.Equal(t, "MARKET", q.Get("type"))
	assert.Equal(t, "0.5", q.Get("quantity"))
	assert.NotEmpty(t, q.Get("timestamp"))
}

func TestCreateOrderLimitParams(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"symbol":"ETHUSDT","orderId":7,"price":"3500","origQty":"2","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"SELL","transactTime":1700000000123}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), "k", "s").WithBaseURL(srv.URL)
	o, err := d.CreateOrder(context.Background(), "ETH/USDT", enum.OrderTypeLimit, enum.OrderSideSell, decimal.NewFromInt(2), decimal.NewFromInt(3500))
	require.NoError(t, err)

	assert.Equal(t, enum.OrderStatusOpen, o.Status)
	assert.True(t, o.Remaining.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "3500", query.Get("price"))
	assert.Equal(t, "GTC", query.Get("timeInForce"))
}

func TestRejectionCarriesExchangeMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2010,"msg":"Account has insufficient balance for requested action."}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), "k", "s").WithBaseURL(srv.URL)
	_, err := d.CreateOrder(context.Background(), "BTC/USDT", enum.OrderTypeMarket, enum.OrderSideBuy, decimal.NewFromInt(1), decimal.Zero)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrOrderRejected))
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestOpenOrdersDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","orderId":1,"price":"60000","origQty":"1","executedQty":"0","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","time":1700000000123},
			{"symbol":"BTCUSDT","orderId":2,"price":"70000","origQty":"1","executedQty":"0.25","cummulativeQuoteQty":"17500","status":"PARTIALLY_FILLED","type":"LIMIT","side":"SELL","time":1700000000456}
		]`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), "k", "s").WithBaseURL(srv.URL)
	orders, err := d.OpenOrders(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "1", orders[0].ID)
	assert.Equal(t, enum.OrderStatusOpen, orders[1].Status)
	assert.True(t, orders[1].Remaining.Equal(decimal.NewFromFloat(0.75)))
	assert.Equal(t, int64(1700000000456), orders[1].Timestamp)
}

func TestTradesDecodesFills(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/myTrades", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`[
			{"id":7,"orderId":42,"price":"65000","qty":"0.5","quoteQty":"32500","commission":"32.5","commissionAsset":"USDT","isBuyer":true,"time":1700000000123},
			{"id":8,"orderId":43,"price":"66000","qty":"0.1","quoteQty":"6600","commission":"6.6","commissionAsset":"USDT","isBuyer":false,"time":1700000000456}
		]`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), "k", "s").WithBaseURL(srv.URL)
	trades, err := d.Trades(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "7", trades[0].ID)
	assert.Equal(t, "42", trades[0].OrderID)
	assert.Equal(t, enum.OrderSideBuy, trades[0].Side)
	assert.True(t, trades[0].Fee.Equal(decimal.NewFromFloat(32.5)))
	assert.Equal(t, "USDT", trades[0].FeeAsset)
	assert.Equal(t, enum.OrderSideSell, trades[1].Side)
	assert.Equal(t, int64(1700000000456), trades[1].Timestamp)
}

func TestTradesRequireSymbol(t *testing.T) {
	d := NewDelegator(http.DefaultClient, "k", "s")
	_, err := d.Trades(context.Background(), "")
	assert.True(t, errors.Is(err, exception.ErrOrderInvalidParams))
}

func TestStatusMapping(t *testing.T) {
	cases := map[string]enum.OrderStatus{
		"NEW":              enum.OrderStatusOpen,
		"PARTIALLY_FILLED": enum.OrderStatusOpen,
		"FILLED":           enum.OrderStatusClosed,
		"CANCELED":         enum.OrderStatusCanceled,
		"PENDING_CANCEL":   enum.OrderStatusCanceled,
		"REJECTED":         enum.OrderStatusError,
		"EXPIRED":          enum.OrderStatusError,
	}
	for raw, want := range cases {
		assert.Equal(t, want, toOrderStatus(raw), raw)
	}
}

func TestToOrderRejectsGarbledNumbers(t *testing.T) {
	_, err := toOrder("BTC/USDT", responseOrder{Price: "oops"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrOrderDecodeBody))
}
