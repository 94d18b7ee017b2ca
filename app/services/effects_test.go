package services

import (
	"context"
	"testing"
	"time"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/pkg/cache"
	"github.com/abhi5hek001/Buykart/pkg/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectsAfterCommit(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "Leela")
	product := createProduct(t, db, "Tablet", 1999900, 10)
	other := createProduct(t, db, "Case", 99900, 50)

	// The buyer has a cart that must be gone after checkout.
	require.NoError(t, db.Create(&models.CartItem{
		UserID: user.ID, ProductID: product.ID, Quantity: 1,
	}).Error)

	store := newFakeCache()
	// Pre-warm so invalidation is observable as removal too.
	require.NoError(t, store.Set(context.Background(), cache.StockKey(product.ID), 10, 0))
	require.NoError(t, store.Set(context.Background(), cache.KeyStockAll, "snapshot", 0))

	pool := workerpool.New(2)
	carts := repositories.NewCartRepository(db)
	orders := repositories.NewOrderRepository(db)
	effects := NewEffects(pool, store, carts, orders)

	svc := newOrderService(db, effects)
	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          user.ID,
		ShippingAddress: testAddress,
		Lines:           []OrderLine{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Drain the pool so every effect has run.
	effects.Shutdown()

	invalidated := store.invalidatedKeys()
	assert.Contains(t, invalidated, cache.StockKey(product.ID))
	assert.Contains(t, invalidated, cache.ProductKey(product.ID))
	assert.Contains(t, invalidated, cache.KeyStockAll)
	assert.Contains(t, invalidated, cache.KeyProductList)
	assert.NotContains(t, invalidated, cache.StockKey(other.ID),
		"untouched products keep their cache entries")

	items, err := carts.ItemsByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "cart is cleared after checkout")

	// The order itself is untouched by effects.
	reloaded, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reloaded.Status)
}

// A saturated pool falls back to an inline goroutine instead of dropping
// the work or blocking checkout.
func TestEffectsRunEvenWhenPoolClosed(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "Omar")
	product := createProduct(t, db, "Pen", 9900, 5)

	require.NoError(t, db.Create(&models.CartItem{
		UserID: user.ID, ProductID: product.ID, Quantity: 1,
	}).Error)

	store := newFakeCache()
	pool := workerpool.New(1)
	pool.Shutdown() // force the inline fallback path

	carts := repositories.NewCartRepository(db)
	orders := repositories.NewOrderRepository(db)
	effects := NewEffects(pool, store, carts, orders)

	svc := newOrderService(db, effects)
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:          user.ID,
		ShippingAddress: testAddress,
		Lines:           []OrderLine{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// The inline goroutine races the assertion; poll for completion.
	assert.Eventually(t, func() bool {
		items, err := carts.ItemsByUser(context.Background(), user.ID)
		return err == nil && len(items) == 0
	}, 3*time.Second, 10*time.Millisecond, "cart should be cleared by the fallback goroutine")
}
