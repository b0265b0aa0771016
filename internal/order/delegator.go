package order

import (
	"context"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
)

// Delegator is one exchange adapter. The engine holds exactly one, chosen at
// deployment time; callers never see which kind is behind it.
type Delegator interface {
	CreateOrder(ctx context.Context, symbol model.Market, typ enum.OrderType, side enum.OrderSide, amount, price decimal.Decimal) (model.Order, error)
	OpenOrders(ctx context.Context, symbol model.Market) ([]model.Order, error)
	CancelOrder(ctx context.Context, id string, symbol model.Market) (model.Order, error)
	OrderStatus(ctx context.Context, id string, symbol model.Market) (model.Order, error)
	Trades(ctx context.Context, symbol model.Market) ([]model.Trade, error)
}

// Recorder receives audit entries after successful calls. Implementations
// must not block and must never fail the order path.
type Recorder interface {
	RecordOrder(model.Order)
	RecordSignal(model.SignalResult)
}
