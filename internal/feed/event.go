package feed

import (
	"main/internal/model"
	"main/internal/model/enum"
)

// Event is the unit fanned out to subscribers of a market. When Candle is
// non-nil it is a kline update; otherwise it is an out-of-band state
// notification from the market's supervisor.
type Event struct {
	Market  model.Market
	Source  enum.FeedSource
	State   enum.FeedState
	Attempt int
	Reason  string
	Candle  *model.Candle
}

// Subscriber receives events for markets it subscribed to. Deliver must not
// block; a returned error is treated as an implicit disconnect.
type Subscriber interface {
	Key() string
	Deliver(Event) error
}
