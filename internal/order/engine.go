package order

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Engine places single orders and executes trade signals through its
// delegator. A signal's dependent stop-loss/take-profit orders are
// best-effort: their failure never rolls back the primary order, the caller
// inspects which of them made it into the result.
type Engine struct {
	dg  Delegator
	rec Recorder
}

// NewEngine builds an engine. rec may be nil when no journal is configured.
func NewEngine(dg Delegator, rec Recorder) (*Engine, error) {
	if dg == nil {
		return nil, exception.ErrNilInstance
	}
	return &Engine{dg: dg, rec: rec}, nil
}

// Signal bundles a primary order with optional dependent percentages.
// A zero percentage means that dependent order is not wanted.
type Signal struct {
	Symbol        model.Market
	Side          enum.OrderSide
	Type          enum.OrderType
	Amount        decimal.Decimal
	Price         decimal.Decimal
	StopLossPct   float64
	TakeProfitPct float64
}

// CreateOrder validates parameters and delegates to the exchange adapter.
func (e *Engine) CreateOrder(ctx context.Context, symbol model.Market, typ enum.OrderType, side enum.OrderSide, amount, price decimal.Decimal) (model.Order, error) {
	if err := validateParams(symbol, typ, side, amount, price); err != nil {
		return model.Order{}, err
	}
	o, err := e.dg.CreateOrder(ctx, symbol, typ, side, amount, price)
	if err != nil {
		return model.Order{}, err
	}
	if e.rec != nil {
		e.rec.RecordOrder(o)
	}
	return o, nil
}

// ExecuteSignal places the primary order and then, if it filled, each
// dependent order independently. A primary failure propagates and nothing
// else is attempted; a dependent failure is logged and omitted.
func (e *Engine) ExecuteSignal(ctx context.Context, sig Signal) (model.SignalResult, error) {
	if err := validateParams(sig.Symbol, sig.Type, sig.Side, sig.Amount, sig.Price); err != nil {
		return model.SignalResult{}, err
	}
	if sig.StopLossPct < 0 || sig.TakeProfitPct < 0 {
		return model.SignalResult{}, exception.ErrOrderInvalidParams
	}

	primary, err := e.dg.CreateOrder(ctx, sig.Symbol, sig.Type, sig.Side, sig.Amount, sig.Price)
	if err != nil {
		return model.SignalResult{}, err
	}
	res := model.SignalResult{Order: primary}

	if primary.Status == enum.OrderStatusClosed {
		entry := primary.Price
		opposite := sig.Side.Opposite()

		if sig.StopLossPct > 0 {
			slPrice := dependentPrice(entry, sig.Side, -sig.StopLossPct)
			o, err := e.dg.CreateOrder(ctx, sig.Symbol, enum.OrderTypeLimit, opposite, sig.Amount, slPrice)
			if err != nil {
				logs.Warnf("stop-loss placement failed for %s, err: %+v", sig.Symbol, err)
			} else {
				res.StopLossOrder = &o
			}
		}
		if sig.TakeProfitPct > 0 {
			tpPrice := dependentPrice(entry, sig.Side, sig.TakeProfitPct)
			o, err := e.dg.CreateOrder(ctx, sig.Symbol, enum.OrderTypeLimit, opposite, sig.Amount, tpPrice)
			if err != nil {
				logs.Warnf("take-profit placement failed for %s, err: %+v", sig.Symbol, err)
			} else {
				res.TakeProfitOrder = &o
			}
		}
	}

	if e.rec != nil {
		e.rec.RecordSignal(res)
	}
	return res, nil
}

// OpenOrders lists open orders, optionally filtered by symbol.
func (e *Engine) OpenOrders(ctx context.Context, symbol model.Market) ([]model.Order, error) {
	if symbol != "" && !symbol.IsAvailable() {
		return nil, exception.ErrOrderInvalidParams
	}
	return e.dg.OpenOrders(ctx, symbol)
}

// CancelOrder cancels one open order.
func (e *Engine) CancelOrder(ctx context.Context, id string, symbol model.Market) (model.Order, error) {
	if id == "" || !symbol.IsAvailable() {
		return model.Order{}, exception.ErrOrderInvalidParams
	}
	return e.dg.CancelOrder(ctx, id, symbol)
}

// Trades lists executed fills, optionally filtered by symbol.
func (e *Engine) Trades(ctx context.Context, symbol model.Market) ([]model.Trade, error) {
	if symbol != "" && !symbol.IsAvailable() {
		return nil, exception.ErrOrderInvalidParams
	}
	return e.dg.Trades(ctx, symbol)
}

// OrderStatus fetches the current view of one order.
func (e *Engine) OrderStatus(ctx context.Context, id string, symbol model.Market) (model.Order, error) {
	if id == "" || !symbol.IsAvailable() {
		return model.Order{}, exception.ErrOrderInvalidParams
	}
	return e.dg.OrderStatus(ctx, id, symbol)
}

func validateParams(symbol model.Market, typ enum.OrderType, side enum.OrderSide, amount, price decimal.Decimal) error {
	if !symbol.IsAvailable() || !typ.IsAvailable() || !side.IsAvailable() {
		return exception.ErrOrderInvalidParams
	}
	if !amount.IsPositive() {
		return exception.ErrOrderInvalidParams
	}
	if typ == enum.OrderTypeLimit && !price.IsPositive() {
		return exception.ErrOrderInvalidParams
	}
	return nil
}

// dependentPrice offsets the entry price by pct percent in the direction that
// matters for the signal's side: for a buy, a negative pct is the stop-loss
// below entry; for a sell the sign flips.
func dependentPrice(entry decimal.Decimal, side enum.OrderSide, pct float64) decimal.Decimal {
	factor := pct / 100
	if side == enum.OrderSideSell {
		factor = -factor
	}
	return entry.Mul(decimal.NewFromFloat(1 + factor))
}
