package paper

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestMarketOrderFillsImmediately(t *testing.T) {
	d := NewDelegator()
	ctx := context.Background()
	amount := decimal.NewFromFloat(0.5)

	o, err := d.CreateOrder(ctx, "BTC/USDT", enum.OrderTypeMarket, enum.OrderSideBuy, amount, decimal.Zero)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, enum.OrderStatusClosed, o.Status)
	assert.True(t, o.Filled.Equal(amount))
	assert.True(t, o.Remaining.IsZero())
	assert.True(t, o.Cost.Equal(o.Price.Mul(amount)))

	// fills at most ±0.5% off the base price
	base := decimal.NewFromInt(65000)
	drift := o.Price.Sub(base).Abs()
	assert.True(t, drift.LessThanOrEqual(base.Mul(decimal.NewFromFloat(0.005))), "fill price %s drifted too far", o.Price)
}

func TestLimitOrderStaysOpen(t *testing.T) {
	d := NewDelegator()
	ctx := context.Background()

	o, err := d.CreateOrder(ctx, "ETH/USDT", enum.OrderTypeLimit, enum.OrderSideSell, decimal.NewFromInt(2), decimal.NewFromInt(3500))
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusOpen, o.Status)
	assert.True(t, o.Remaining.Equal(decimal.NewFromInt(2)))

	open, err := d.OpenOrders(ctx, "ETH/USDT")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, o.ID, open[0].ID)

	// a filled market order never shows up as open
	_, err = d.CreateOrder(ctx, "ETH/USDT", enum.OrderTypeMarket, enum.OrderSideBuy, decimal.NewFromInt(1), decimal.Zero)
	require.NoError(t, err)
	open, err = d.OpenOrders(ctx, "ETH/USDT")
	require.NoError(t, err)
	assert.Len(t, open, 1)

	// symbol filter
	open, err = d.OpenOrders(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestMarketOrderRecordsTrade(t *testing.T) {
	d := NewDelegator()
	ctx := context.Background()
	amount := decimal.NewFromInt(1)

	o, err := d.CreateOrder(ctx, "ETH/USDT", enum.OrderTypeMarket, enum.OrderSideBuy, amount, decimal.Zero)
	require.NoError(t, err)

	trades, err := d.Trades(ctx, "ETH/USDT")
	require.NoError(t, err)
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, o.ID, tr.OrderID)
	assert.Equal(t, enum.OrderSideBuy, tr.Side)
	assert.True(t, tr.Cost.Equal(o.Cost))
	assert.True(t, tr.Fee.Equal(o.Cost.Mul(decimal.NewFromFloat(0.001))), "fee is 0.1%% of cost, got %s", tr.Fee)
	assert.Equal(t, "USDT", tr.FeeAsset)

	// an open limit order has no fill yet
	_, err = d.CreateOrder(ctx, "ETH/USDT", enum.OrderTypeLimit, enum.OrderSideSell, amount, decimal.NewFromInt(3500))
	require.NoError(t, err)
	trades, err = d.Trades(ctx, "ETH/USDT")
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	// symbol filter
	trades, err = d.Trades(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestCancelAndStatusLifecycle(t *testing.T) {
	d := NewDelegator()
	ctx := context.Background()

	o, err := d.CreateOrder(ctx, "BTC/USDT", enum.OrderTypeLimit, enum.OrderSideBuy, decimal.NewFromInt(1), decimal.NewFromInt(60000))
	require.NoError(t, err)

	canceled, err := d.CancelOrder(ctx, o.ID, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCanceled, canceled.Status)

	// status reflects the cancel, not the creation snapshot
	got, err := d.OrderStatus(ctx, o.ID, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCanceled, got.Status)

	_, err = d.CancelOrder(ctx, o.ID, "BTC/USDT")
	assert.Equal(t, exception.ErrOrderNotOpen, err)

	_, err = d.CancelOrder(ctx, "missing", "BTC/USDT")
	assert.Equal(t, exception.ErrOrderNotFound, err)

	_, err = d.OrderStatus(ctx, o.ID, "ETH/USDT")
	assert.Equal(t, exception.ErrOrderNotFound, err, "symbol mismatch hides the order")
}
