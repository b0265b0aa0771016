package feed

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// Seed prices for well-known base assets; anything else gets a generic
// range so unknown markets still chart something plausible.
var basePrices = map[string]decimal.Decimal{
	"BTC": decimal.NewFromInt(65000),
	"ETH": decimal.NewFromInt(3200),
	"SOL": decimal.NewFromInt(100),
}

// BasePrice returns the starting price for a market's simulated feed.
func BasePrice(market model.Market) decimal.Decimal {
	if p, ok := basePrices[market.Base()]; ok {
		return p
	}
	return decimal.NewFromInt(60000).Add(decimal.NewFromFloat(rand.Float64() * 2000))
}
