package model

import "strings"

// Market identifies a trading pair in BASE/QUOTE form, e.g. "BTC/USDT".
// Case-sensitive, used as the key for subscriptions and feed state.
type Market string

func (m Market) IsAvailable() bool {
	base, quote, ok := strings.Cut(string(m), "/")
	return ok && base != "" && quote != "" && !strings.Contains(quote, "/")
}

// Base returns the base asset, e.g. "BTC" for "BTC/USDT".
func (m Market) Base() string {
	base, _, _ := strings.Cut(string(m), "/")
	return base
}

// Quote returns the quote asset, e.g. "USDT" for "BTC/USDT".
func (m Market) Quote() string {
	_, quote, _ := strings.Cut(string(m), "/")
	return quote
}

// Symbol returns the provider wire form without the separator, e.g. "BTCUSDT".
func (m Market) Symbol() string {
	return strings.ReplaceAll(string(m), "/", "")
}
