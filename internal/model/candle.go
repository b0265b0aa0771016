package model

import (
	"github.com/shopspring/decimal"

	"main/pkg/exception"
)

// Candle is one OHLCV interval record. Time is seconds since epoch and is
// non-decreasing within a single market's stream; an unchanged Time means an
// in-progress update to the same candle.
type Candle struct {
	Time     int64           `json:"time"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
	Complete bool            `json:"complete"`
}

// Validate checks the OHLC envelope invariant.
func (c Candle) Validate() error {
	if c.Time <= 0 {
		return exception.ErrFeedProtocol
	}
	lo := decimal.Min(c.Open, c.Close)
	hi := decimal.Max(c.Open, c.Close)
	if c.Low.GreaterThan(lo) || c.High.LessThan(hi) {
		return exception.ErrFeedProtocol
	}
	if c.Volume.IsNegative() {
		return exception.ErrFeedProtocol
	}
	return nil
}
