package model

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Order is the canonical view of an exchange order. It is created by the
// execution engine and mutated only by exchange adapter responses; once
// Status is terminal the order does not change.
type Order struct {
	ID        string           `json:"id"`
	Symbol    Market           `json:"symbol"`
	Type      enum.OrderType   `json:"type"`
	Side      enum.OrderSide   `json:"side"`
	Price     decimal.Decimal  `json:"price"`
	Amount    decimal.Decimal  `json:"amount"`
	Cost      decimal.Decimal  `json:"cost"`
	Filled    decimal.Decimal  `json:"filled"`
	Remaining decimal.Decimal  `json:"remaining"`
	Status    enum.OrderStatus `json:"status"`
	Timestamp int64            `json:"timestamp"`
}

// SignalResult bundles a primary order with its best-effort dependents.
// Absence of a dependent order means its placement was skipped or failed;
// it never implies anything about the primary order.
type SignalResult struct {
	Order           Order  `json:"order"`
	StopLossOrder   *Order `json:"stopLossOrder,omitempty"`
	TakeProfitOrder *Order `json:"takeProfitOrder,omitempty"`
}
