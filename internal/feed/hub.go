package feed

import (
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/pkg/exception"
)

// Handle is the part of a running feed the hub needs to own its lifecycle.
type Handle interface {
	Stop()
}

// Hub tracks which subscriber wants which market, reference-counts markets
// and starts or tears down one supervisor per market on the 0→1 and 1→0
// edges. Lifecycle is strictly reference-counted, never time-based.
type Hub struct {
	cfg       SupervisorConfig
	startFeed func(market model.Market, emit func(Event)) Handle

	mu      sync.Mutex
	markets map[model.Market]*marketEntry
	bySub   map[string]map[model.Market]struct{}
}

type marketEntry struct {
	feed Handle
	subs map[string]Subscriber
}

// NewHub creates an isolated hub instance.
func NewHub(cfg SupervisorConfig) *Hub {
	h := &Hub{
		cfg:     cfg,
		markets: make(map[model.Market]*marketEntry),
		bySub:   make(map[string]map[model.Market]struct{}),
	}
	h.startFeed = func(market model.Market, emit func(Event)) Handle {
		return StartSupervisor(market, h.cfg, emit)
	}
	return h
}

// Subscribe adds the (subscriber, market) pair. The first subscriber of a
// market starts its supervisor; subscribing twice from the same handle is a
// no-op.
func (h *Hub) Subscribe(sub Subscriber, market model.Market) error {
	if !market.IsAvailable() {
		return exception.ErrFeedInvalidMarket
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.markets[market]
	if !ok {
		entry = &marketEntry{subs: make(map[string]Subscriber)}
		h.markets[market] = entry
	}
	if _, dup := entry.subs[sub.Key()]; dup {
		return nil
	}
	entry.subs[sub.Key()] = sub

	if h.bySub[sub.Key()] == nil {
		h.bySub[sub.Key()] = make(map[model.Market]struct{})
	}
	h.bySub[sub.Key()][market] = struct{}{}

	if !ok {
		entry.feed = h.startFeed(market, func(ev Event) { h.dispatch(market, ev) })
	}
	return nil
}

// Unsubscribe removes the pair and tears the market's supervisor down when
// its subscriber set becomes empty.
func (h *Hub) Unsubscribe(subKey string, market model.Market) {
	h.mu.Lock()
	entry, ok := h.markets[market]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := entry.subs[subKey]; !ok {
		h.mu.Unlock()
		return
	}
	delete(entry.subs, subKey)
	if set := h.bySub[subKey]; set != nil {
		delete(set, market)
		if len(set) == 0 {
			delete(h.bySub, subKey)
		}
	}

	var feed Handle
	if len(entry.subs) == 0 {
		feed = entry.feed
		delete(h.markets, market)
	}
	h.mu.Unlock()

	// Stop waits for the supervisor goroutine, which may be mid-dispatch
	// and need the hub lock, so it must run unlocked.
	if feed != nil {
		feed.Stop()
	}
}

// Drop unsubscribes the handle from every market it was subscribed to.
// Disconnects are never left as a leak.
func (h *Hub) Drop(subKey string) {
	h.mu.Lock()
	set := h.bySub[subKey]
	markets := make([]model.Market, 0, len(set))
	for market := range set {
		markets = append(markets, market)
	}
	h.mu.Unlock()

	for _, market := range markets {
		h.Unsubscribe(subKey, market)
	}
}

// RefCount returns the number of subscribers of a market.
func (h *Hub) RefCount(market model.Market) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if entry, ok := h.markets[market]; ok {
		return len(entry.subs)
	}
	return 0
}

// dispatch fans an event out to every current subscriber of the market.
// Delivery is independent per handle; a failed send is logged and treated as
// an implicit disconnect of that handle only.
func (h *Hub) dispatch(market model.Market, ev Event) {
	h.mu.Lock()
	entry, ok := h.markets[market]
	if !ok {
		h.mu.Unlock()
		return
	}
	subs := make([]Subscriber, 0, len(entry.subs))
	for _, sub := range entry.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Deliver(ev); err != nil {
			logs.Warnf("drop subscriber %s on %s: deliver failed, err: %+v", sub.Key(), market, err)
			// Drop may tear down the supervisor emitting this very
			// event, and teardown waits for it, so detach.
			go h.Drop(sub.Key())
		}
	}
}
