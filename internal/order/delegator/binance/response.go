package binance

import (
	"strconv"

	"github.com/shopspring/decimal"
	yerrors "github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

type responseError struct {
	Code int64  `json:"code"`
	Msg  string `json:"msg"`
}

type responseOrder struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	Price               string `json:"price"`
	OrigQty             string `json:"origQty"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status              string `json:"status"`
	Type                string `json:"type"`
	Side                string `json:"side"`
	TransactTime        int64  `json:"transactTime"`
	Time                int64  `json:"time"`
}

func toOrder(symbol model.Market, r responseOrder) (model.Order, error) {
	price, err := parseDecimal(r.Price)
	if err != nil {
		return model.Order{}, err
	}
	amount, err := parseDecimal(r.OrigQty)
	if err != nil {
		return model.Order{}, err
	}
	filled, err := parseDecimal(r.ExecutedQty)
	if err != nil {
		return model.Order{}, err
	}
	cost, err := parseDecimal(r.CummulativeQuoteQty)
	if err != nil {
		return model.Order{}, err
	}

	// Market orders report price 0; derive the average fill instead.
	if price.IsZero() && filled.IsPositive() {
		price = cost.Div(filled)
	}

	ts := r.TransactTime
	if ts == 0 {
		ts = r.Time
	}

	return model.Order{
		ID:        strconv.FormatInt(r.OrderID, 10),
		Symbol:    symbol,
		Type:      toOrderType(r.Type),
		Side:      toOrderSide(r.Side),
		Price:     price,
		Amount:    amount,
		Cost:      cost,
		Filled:    filled,
		Remaining: amount.Sub(filled),
		Status:    toOrderStatus(r.Status),
		Timestamp: ts,
	}, nil
}

type responseTrade struct {
	ID              int64  `json:"id"`
	OrderID         int64  `json:"orderId"`
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	QuoteQty        string `json:"quoteQty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
	IsBuyer         bool   `json:"isBuyer"`
	Time            int64  `json:"time"`
}

func toTrade(symbol model.Market, r responseTrade) (model.Trade, error) {
	price, err := parseDecimal(r.Price)
	if err != nil {
		return model.Trade{}, err
	}
	amount, err := parseDecimal(r.Qty)
	if err != nil {
		return model.Trade{}, err
	}
	cost, err := parseDecimal(r.QuoteQty)
	if err != nil {
		return model.Trade{}, err
	}
	fee, err := parseDecimal(r.Commission)
	if err != nil {
		return model.Trade{}, err
	}

	side := enum.OrderSideSell
	if r.IsBuyer {
		side = enum.OrderSideBuy
	}

	return model.Trade{
		ID:        strconv.FormatInt(r.ID, 10),
		OrderID:   strconv.FormatInt(r.OrderID, 10),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Cost:      cost,
		Fee:       fee,
		FeeAsset:  r.CommissionAsset,
		Timestamp: r.Time,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, yerrors.Wrap(exception.ErrOrderDecodeBody, s)
	}
	return d, nil
}

func toOrderStatus(s string) enum.OrderStatus {
	switch s {
	case "NEW", "PARTIALLY_FILLED":
		return enum.OrderStatusOpen
	case "FILLED":
		return enum.OrderStatusClosed
	case "CANCELED", "PENDING_CANCEL":
		return enum.OrderStatusCanceled
	default:
		return enum.OrderStatusError
	}
}

func toOrderType(s string) enum.OrderType {
	switch s {
	case "LIMIT":
		return enum.OrderTypeLimit
	default:
		return enum.OrderTypeMarket
	}
}

func toOrderSide(s string) enum.OrderSide {
	switch s {
	case "SELL":
		return enum.OrderSideSell
	default:
		return enum.OrderSideBuy
	}
}
