package journal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestNewSinkRequiresDB(t *testing.T) {
	_, err := NewSink(nil)
	assert.Equal(t, exception.ErrNilInstance, err)
}

func TestEntryFrom(t *testing.T) {
	o := model.Order{
		ID:     "abc",
		Symbol: "BTC/USDT",
		Type:   enum.OrderTypeLimit,
		Side:   enum.OrderSideSell,
		Price:  decimal.NewFromInt(65000),
		Amount: decimal.NewFromFloat(0.5),
		Cost:   decimal.Zero,
		Status: enum.OrderStatusOpen,
	}
	e := entryFrom(o, KindStopLoss)

	assert.Equal(t, "abc", e.OrderID)
	assert.Equal(t, "BTC/USDT", e.Symbol)
	assert.Equal(t, "sell", e.Side)
	assert.Equal(t, "limit", e.Type)
	assert.Equal(t, "65000", e.Price)
	assert.Equal(t, "0.5", e.Amount)
	assert.Equal(t, "open", e.Status)
	assert.Equal(t, KindStopLoss, e.Kind)
}

func TestRecordSignalQueuesEveryPlacedOrder(t *testing.T) {
	s := &Sink{queue: make(chan Entry, 8)}

	sl := model.Order{ID: "sl"}
	s.RecordSignal(model.SignalResult{
		Order:         model.Order{ID: "primary"},
		StopLossOrder: &sl,
	})

	require.Len(t, s.queue, 2, "primary plus the one placed dependent")
	first := <-s.queue
	second := <-s.queue
	assert.Equal(t, KindSignal, first.Kind)
	assert.Equal(t, "primary", first.OrderID)
	assert.Equal(t, KindStopLoss, second.Kind)
	assert.Equal(t, "sl", second.OrderID)
}

func TestPushDropsWhenFull(t *testing.T) {
	s := &Sink{queue: make(chan Entry, 1)}
	s.RecordOrder(model.Order{ID: "1"})
	s.RecordOrder(model.Order{ID: "2"}) // dropped, must not block

	require.Len(t, s.queue, 1)
	assert.Equal(t, "1", (<-s.queue).OrderID)
}
