// Package paper is the deterministic simulated exchange used whenever no
// live credentials are configured. Market orders fill immediately at a
// simulated current price; limit orders are created open and never fill on
// their own.
package paper

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"main/internal/feed"
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Fills pay a 0.1% fee in the quote asset.
var _feeRate = decimal.NewFromFloat(0.001)

type Delegator struct {
	mu     sync.Mutex
	orders map[string]model.Order
	trades []model.Trade
	rng    *rand.Rand
}

func NewDelegator() *Delegator {
	return &Delegator{
		orders: make(map[string]model.Order),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *Delegator) CreateOrder(_ context.Context, symbol model.Market, typ enum.OrderType, side enum.OrderSide, amount, price decimal.Decimal) (model.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o := model.Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Type:      typ,
		Side:      side,
		Amount:    amount,
		Timestamp: time.Now().UnixMilli(),
	}

	switch typ {
	case enum.OrderTypeMarket:
		fill := d.currentPriceLocked(symbol)
		o.Price = fill
		o.Cost = fill.Mul(amount)
		o.Filled = amount
		o.Remaining = decimal.Zero
		o.Status = enum.OrderStatusClosed
		d.trades = append(d.trades, model.Trade{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			Symbol:    symbol,
			Side:      side,
			Price:     fill,
			Amount:    amount,
			Cost:      o.Cost,
			Fee:       o.Cost.Mul(_feeRate),
			FeeAsset:  symbol.Quote(),
			Timestamp: o.Timestamp,
		})
	case enum.OrderTypeLimit:
		o.Price = price
		o.Cost = decimal.Zero
		o.Filled = decimal.Zero
		o.Remaining = amount
		o.Status = enum.OrderStatusOpen
	default:
		return model.Order{}, exception.ErrOrderInvalidParams
	}

	d.orders[o.ID] = o
	return o, nil
}

func (d *Delegator) OpenOrders(_ context.Context, symbol model.Market) ([]model.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Order, 0, len(d.orders))
	for _, o := range d.orders {
		if o.Status != enum.OrderStatusOpen {
			continue
		}
		if symbol != "" && o.Symbol != symbol {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (d *Delegator) CancelOrder(_ context.Context, id string, symbol model.Market) (model.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.orders[id]
	if !ok || (symbol != "" && o.Symbol != symbol) {
		return model.Order{}, exception.ErrOrderNotFound
	}
	if o.Status != enum.OrderStatusOpen {
		return model.Order{}, exception.ErrOrderNotOpen
	}
	o.Status = enum.OrderStatusCanceled
	d.orders[id] = o
	return o, nil
}

// Trades returns the fills that actually happened, newest last.
func (d *Delegator) Trades(_ context.Context, symbol model.Market) ([]model.Trade, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Trade, 0, len(d.trades))
	for _, tr := range d.trades {
		if symbol != "" && tr.Symbol != symbol {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

// OrderStatus returns the actual stored order rather than a canned one, so a
// status lookup after cancel or fill reflects what really happened.
func (d *Delegator) OrderStatus(_ context.Context, id string, symbol model.Market) (model.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.orders[id]
	if !ok || (symbol != "" && o.Symbol != symbol) {
		return model.Order{}, exception.ErrOrderNotFound
	}
	return o, nil
}

// CurrentPrice exposes the simulated ticker, also used by the HTTP surface.
func (d *Delegator) CurrentPrice(symbol model.Market) decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentPriceLocked(symbol)
}

// currentPriceLocked jitters the market's base price by up to ±0.5%.
func (d *Delegator) currentPriceLocked(symbol model.Market) decimal.Decimal {
	jitter := (d.rng.Float64()*2 - 1) * 0.005
	return feed.BasePrice(symbol).Mul(decimal.NewFromFloat(1 + jitter))
}
