// Package journal persists an audit entry after each successful order or
// signal. Recording is fire-and-forget: a full queue or a down database
// drops the entry with a warning and never fails the order path.
package journal

import (
	"context"
	"time"

	"github.com/yanun0323/logs"
	"gorm.io/gorm"

	"main/internal/model"
	"main/pkg/exception"
)

const _queueSize = 256

// Entry is one persisted audit row.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"index"`
	Symbol    string
	Side      string
	Type      string
	Price     string
	Amount    string
	Cost      string
	Status    string
	Kind      string
	CreatedAt time.Time
}

func (Entry) TableName() string { return "trade_journal" }

// Entry kinds.
const (
	KindOrder      = "order"
	KindSignal     = "signal"
	KindStopLoss   = "stop_loss"
	KindTakeProfit = "take_profit"
)

// Sink buffers entries and writes them from a single worker goroutine.
type Sink struct {
	db    *gorm.DB
	queue chan Entry
}

func NewSink(db *gorm.DB) (*Sink, error) {
	if db == nil {
		return nil, exception.ErrNilInstance
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Sink{db: db, queue: make(chan Entry, _queueSize)}, nil
}

// Run drains the queue until ctx is done.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-s.queue:
			if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
				logs.Warnf("journal write failed for order %s, err: %+v", entry.OrderID, err)
			}
		}
	}
}

// RecordOrder enqueues one order entry without blocking.
func (s *Sink) RecordOrder(o model.Order) {
	s.push(entryFrom(o, KindOrder))
}

// RecordSignal enqueues the primary and whichever dependents were placed.
func (s *Sink) RecordSignal(res model.SignalResult) {
	s.push(entryFrom(res.Order, KindSignal))
	if res.StopLossOrder != nil {
		s.push(entryFrom(*res.StopLossOrder, KindStopLoss))
	}
	if res.TakeProfitOrder != nil {
		s.push(entryFrom(*res.TakeProfitOrder, KindTakeProfit))
	}
}

func (s *Sink) push(entry Entry) {
	select {
	case s.queue <- entry:
	default:
		logs.Warnf("journal queue full, dropping entry for order %s", entry.OrderID)
	}
}

func entryFrom(o model.Order, kind string) Entry {
	return Entry{
		OrderID: o.ID,
		Symbol:  string(o.Symbol),
		Side:    o.Side.String(),
		Type:    o.Type.String(),
		Price:   o.Price.String(),
		Amount:  o.Amount.String(),
		Cost:    o.Cost.String(),
		Status:  o.Status.String(),
		Kind:    kind,
	}
}
