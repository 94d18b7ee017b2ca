package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamer(t *testing.T) (*StockStreamer, func()) {
	t.Helper()
	db := newTestDB(t)
	createProduct(t, db, "Streamed", 100000, 7)

	stock := NewStockService(repositories.NewProductRepository(db), newFakeCache())
	streamer := NewStockStreamer(stock, nil, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go streamer.Run(ctx)
	return streamer, func() {
		cancel()
		streamer.Stop()
	}
}

func TestStreamerDeliversSnapshots(t *testing.T) {
	streamer, done := newStreamer(t)
	defer done()

	frames, cancel := streamer.Subscribe()
	defer cancel()

	select {
	case frame := <-frames:
		var update StockUpdate
		require.NoError(t, json.Unmarshal(frame, &update))
		assert.Equal(t, "stock", update.Type)
		require.Len(t, update.Products, 1)
		assert.Equal(t, "Streamed", update.Products[0].Name)
		assert.Equal(t, 7, update.Products[0].Stock)
		assert.False(t, update.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot within 2s")
	}
}

func TestStreamerSubscribeUnsubscribe(t *testing.T) {
	streamer, done := newStreamer(t)
	defer done()

	_, cancelA := streamer.Subscribe()
	_, cancelB := streamer.Subscribe()
	assert.Equal(t, 2, streamer.SubscriberCount())

	cancelA()
	cancelA() // idempotent
	assert.Equal(t, 1, streamer.SubscriberCount())

	cancelB()
	assert.Equal(t, 0, streamer.SubscriberCount())
}

// A subscriber that never reads must not stall delivery to the others.
func TestStreamerSlowSubscriberDoesNotBlock(t *testing.T) {
	streamer, done := newStreamer(t)
	defer done()

	_, cancelSlow := streamer.Subscribe() // never read from
	defer cancelSlow()

	fast, cancelFast := streamer.Subscribe()
	defer cancelFast()

	received := 0
	deadline := time.After(2 * time.Second)
	for received < 3 {
		select {
		case <-fast:
			received++
		case <-deadline:
			t.Fatalf("fast subscriber starved: got %d frames", received)
		}
	}
}

func TestStreamerStopIsIdempotent(t *testing.T) {
	streamer, done := newStreamer(t)
	done()
	streamer.Stop()
	streamer.Stop()
}
