package model

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Trade is one executed fill. Orders aggregate fills; a market order that
// fills at once produces exactly one trade.
type Trade struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	Symbol    Market          `json:"symbol"`
	Side      enum.OrderSide  `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Cost      decimal.Decimal `json:"cost"`
	Fee       decimal.Decimal `json:"fee"`
	FeeAsset  string          `json:"feeAsset"`
	Timestamp int64           `json:"timestamp"`
}
