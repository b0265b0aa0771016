package feed

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
)

func TestSimulatorStream(t *testing.T) {
	cfg := SimulatorConfig{
		TickInterval:   2 * time.Millisecond,
		CandleInterval: 20 * time.Millisecond,
		MaxStepPct:     0.2,
		Seed:           1,
	}
	sim := NewSimulator("BTC/USDT", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var candles []model.Candle
	sim.Run(ctx, func(c model.Candle) {
		candles = append(candles, c)
		if len(candles) >= 60 {
			cancel()
		}
	})

	require.GreaterOrEqual(t, len(candles), 60)
	assert.True(t, candles[0].Open.Equal(decimal.NewFromInt(65000)), "first candle opens at base price, got %s", candles[0].Open)

	completes := 0
	for i, c := range candles {
		require.NoError(t, c.Validate(), "candle %d breaks the OHLC envelope: %+v", i, c)
		if i > 0 {
			prev := candles[i-1]
			assert.GreaterOrEqual(t, c.Time, prev.Time, "candle time went backwards at %d", i)
			if c.Time == prev.Time && !prev.Complete {
				assert.True(t, c.Volume.GreaterThanOrEqual(prev.Volume), "intra-candle volume shrank at %d", i)
			}
		}
		if c.Complete {
			completes++
		}
	}
	assert.Greater(t, completes, 0, "expected at least one completed candle")

	// a step never moves the close by more than MaxStepPct
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		if cur.Time != prev.Time || prev.Complete {
			continue
		}
		moved := cur.Close.Sub(prev.Close).Abs()
		limit := prev.Close.Mul(decimal.NewFromFloat(cfg.MaxStepPct / 100))
		assert.True(t, moved.LessThanOrEqual(limit), "step %d moved %s, limit %s", i, moved, limit)
	}
}

func TestSimulatorContinuesFromPriorClose(t *testing.T) {
	cfg := SimulatorConfig{
		TickInterval:   2 * time.Millisecond,
		CandleInterval: 10 * time.Millisecond,
		MaxStepPct:     0.2,
		Seed:           7,
	}
	sim := NewSimulator("ETH/USDT", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var candles []model.Candle
	sim.Run(ctx, func(c model.Candle) {
		candles = append(candles, c)
		if len(candles) >= 40 {
			cancel()
		}
	})

	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		if prev.Complete && cur.Time > prev.Time {
			assert.True(t, cur.Open.Equal(prev.Close), "candle %d should open at prior close: open %s prior close %s", i, cur.Open, prev.Close)
		}
	}
}

func TestSimulatorRunsAtMostOnce(t *testing.T) {
	sim := NewSimulator("BTC/USDT", SimulatorConfig{TickInterval: time.Millisecond, Seed: 1})

	ctx, cancel := context.WithCancel(context.Background())
	first := 0
	sim.Run(ctx, func(model.Candle) {
		first++
		cancel()
	})
	require.Greater(t, first, 0)

	// second Run must return immediately without emitting
	second := 0
	sim.Run(context.Background(), func(model.Candle) { second++ })
	assert.Zero(t, second)
}
