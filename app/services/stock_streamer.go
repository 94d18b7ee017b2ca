package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/abhi5hek001/Buykart/pkg/logger"
	"github.com/abhi5hek001/Buykart/pkg/metrics"
	"github.com/abhi5hek001/Buykart/pkg/ws"
)

// StockUpdate is one broadcast frame of the stock stream.
type StockUpdate struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Products  []StockInfo `json:"products"`
}

// StockStreamer re-reads the aggregate stock snapshot on a fixed interval
// (through the read-through cache, so a tick inside the TTL is cheap) and
// fans it out to every subscriber (SSE handlers) and to the WebSocket hub.
// Polling, rather than hooking order commits, keeps the stream correct even
// when stock changes through paths this process never sees.
type StockStreamer struct {
	stock    *StockService
	hub      *ws.Hub
	interval time.Duration

	mu   sync.Mutex
	subs map[chan []byte]struct{}

	stopOnce sync.Once
	stop     chan struct{}
}

func NewStockStreamer(stock *StockService, hub *ws.Hub, interval time.Duration) *StockStreamer {
	return &StockStreamer{
		stock:    stock,
		hub:      hub,
		interval: interval,
		subs:     make(map[chan []byte]struct{}),
		stop:     make(chan struct{}),
	}
}

// Run polls and broadcasts until Stop is called or ctx is cancelled.
// Must be run in its own goroutine.
func (s *StockStreamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First snapshot immediately so new processes stream without waiting
	// a full interval.
	s.broadcast(ctx)

	for {
		select {
		case <-ticker.C:
			s.broadcast(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the poll loop. Safe to call multiple times.
func (s *StockStreamer) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Subscribe registers a new stream subscriber. The returned channel receives
// marshalled StockUpdate frames; slow subscribers miss frames rather than
// block the broadcast. The cancel func must be called when the client
// disconnects.
func (s *StockStreamer) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 4)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	metrics.StreamSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			metrics.StreamSubscribers.Dec()
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of active SSE subscribers.
func (s *StockStreamer) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *StockStreamer) broadcast(ctx context.Context) {
	snapshot, _, err := s.stock.GetAllStock(ctx)
	if err != nil {
		// Skip this tick; the next poll retries. Subscribers just see a
		// slightly older snapshot.
		logger.Warn("stream: stock poll failed", "error", err)
		return
	}

	frame, err := json.Marshal(StockUpdate{
		Type:      "stock",
		Timestamp: time.Now().UTC(),
		Products:  snapshot,
	})
	if err != nil {
		logger.Error("stream: marshal snapshot", "error", err)
		return
	}

	s.mu.Lock()
	for ch := range s.subs {
		select {
		case ch <- frame:
		default: // subscriber is behind, drop the frame
		}
	}
	s.mu.Unlock()

	if s.hub != nil {
		select {
		case s.hub.Broadcast <- frame:
		default:
		}
	}
}
