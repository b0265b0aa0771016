package feed

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// SimulatorConfig tunes the synthetic candle stream.
type SimulatorConfig struct {
	TickInterval   time.Duration
	CandleInterval time.Duration
	MaxStepPct     float64
	Seed           int64
}

// DefaultSimulatorConfig returns the production cadence: one tick per second,
// one candle per minute, at most a 0.2% walk per tick.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		TickInterval:   time.Second,
		CandleInterval: time.Minute,
		MaxStepPct:     0.2,
	}
}

// Simulator produces a plausible endless candle stream for one market. It
// keeps walking from wherever it left off and never restarts its price.
type Simulator struct {
	market  model.Market
	cfg     SimulatorConfig
	rng     *rand.Rand
	cur     model.Candle
	started atomic.Bool
}

// NewSimulator seeds a simulator at the market's base price.
func NewSimulator(market model.Market, cfg SimulatorConfig) *Simulator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.CandleInterval <= 0 {
		cfg.CandleInterval = time.Minute
	}
	if cfg.MaxStepPct <= 0 {
		cfg.MaxStepPct = 0.2
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		market: market,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Run emits candles until ctx is done. Calling Run a second time is a no-op;
// the generator runs at most once per market.
func (s *Simulator) Run(ctx context.Context, emit func(model.Candle)) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	price := BasePrice(s.market)
	s.cur = s.openCandle(time.Now(), price)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	emit(s.cur)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			bucket := now.Truncate(s.cfg.CandleInterval).Unix()
			if bucket > s.cur.Time {
				s.cur.Complete = true
				emit(s.cur)
				s.cur = s.openCandle(now, s.cur.Close)
			} else {
				s.step()
			}
			emit(s.cur)
		}
	}
}

func (s *Simulator) openCandle(now time.Time, price decimal.Decimal) model.Candle {
	return model.Candle{
		Time:   now.Truncate(s.cfg.CandleInterval).Unix(),
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
		Volume: decimal.Zero,
	}
}

// step perturbs the close by a bounded random walk and keeps the
// high/low envelope and intra-candle volume consistent.
func (s *Simulator) step() {
	pct := (s.rng.Float64()*2 - 1) * s.cfg.MaxStepPct / 100
	next := s.cur.Close.Mul(decimal.NewFromFloat(1 + pct))
	if !next.IsPositive() {
		next = s.cur.Close
	}

	s.cur.Close = next
	if next.GreaterThan(s.cur.High) {
		s.cur.High = next
	}
	if next.LessThan(s.cur.Low) {
		s.cur.Low = next
	}
	s.cur.Volume = s.cur.Volume.Add(decimal.NewFromFloat(s.rng.Float64() * 10))
}
