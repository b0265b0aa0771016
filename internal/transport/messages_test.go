package transport

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"main/internal/feed"
	"main/internal/model"
	"main/internal/model/enum"
)

func TestFromEventKline(t *testing.T) {
	candle := model.Candle{Time: 1700000000, Open: decimal.NewFromInt(100), High: decimal.NewFromInt(101), Low: decimal.NewFromInt(99), Close: decimal.NewFromInt(100)}
	msg := FromEvent(feed.Event{
		Market: "BTC/USDT",
		Source: enum.FeedSourceLive,
		State:  enum.FeedStateLive,
		Candle: &candle,
	})

	assert.Equal(t, TypeKline, msg.Type)
	assert.Equal(t, model.Market("BTC/USDT"), msg.Market)
	assert.Equal(t, "live", msg.Source)
	assert.Same(t, &candle, msg.Data)
}

func TestFromEventSimulationStarted(t *testing.T) {
	msg := FromEvent(feed.Event{
		Market: "ETH/USDT",
		Source: enum.FeedSourceSimulation,
		State:  enum.FeedStateSimulated,
		Reason: "connect failed",
	})

	assert.Equal(t, TypeSimulationStarted, msg.Type)
	assert.Equal(t, "simulation", msg.Source)
	assert.Equal(t, "connect failed", msg.Message)
	assert.Nil(t, msg.Data)
}

func TestFromEventStateTransitions(t *testing.T) {
	for _, state := range []enum.FeedState{enum.FeedStateConnecting, enum.FeedStateLive, enum.FeedStateError} {
		msg := FromEvent(feed.Event{Market: "BTC/USDT", Source: enum.FeedSourceLive, State: state})
		assert.Equal(t, TypeSubscription, msg.Type)
		assert.Equal(t, state.String(), msg.Status)
	}
}
