package services

import (
	"context"
	"time"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/app/notifications"
	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/pkg/cache"
	"github.com/abhi5hek001/Buykart/pkg/logger"
	"github.com/abhi5hek001/Buykart/pkg/notification"
	"github.com/abhi5hek001/Buykart/pkg/workerpool"
)

// effectsTimeout bounds one post-commit effects run. The order is already
// committed; this only limits how long the cleanup work may linger.
const effectsTimeout = 15 * time.Second

// Effects runs the post-commit side effects of a placed order: cache
// invalidation, cart clearing, and the confirmation email. Every step is
// best-effort and isolated — by the time Effects sees the order it is
// durable, so nothing here can fail the placement.
type Effects struct {
	pool   *workerpool.Pool
	cache  cache.Store
	carts  *repositories.CartRepository
	orders *repositories.OrderRepository
}

func NewEffects(
	pool *workerpool.Pool,
	store cache.Store,
	carts *repositories.CartRepository,
	orders *repositories.OrderRepository,
) *Effects {
	return &Effects{pool: pool, cache: store, carts: carts, orders: orders}
}

// OrderPlaced schedules the effects run for a committed order. Never blocks
// the caller: if the pool is saturated the run falls back to its own
// goroutine rather than delaying the checkout response.
func (e *Effects) OrderPlaced(order *models.Order) {
	task := func() { e.run(order) }

	if err := e.pool.Submit(task); err != nil {
		logger.Warn("effects: pool unavailable, running inline",
			"order_id", order.ID, "error", err)
		go task()
	}
}

func (e *Effects) run(order *models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), effectsTimeout)
	defer cancel()

	e.invalidateCaches(ctx, order)
	e.clearCart(ctx, order)
	e.sendConfirmation(ctx, order)
}

// invalidateCaches drops every cache entry the committed decrements made
// stale. The short TTLs would expire them anyway; invalidation just shrinks
// the staleness window.
func (e *Effects) invalidateCaches(ctx context.Context, order *models.Order) {
	keys := make([]string, 0, len(order.Items)*2+2)
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		keys = append(keys, cache.StockKey(*item.ProductID), cache.ProductKey(*item.ProductID))
	}
	keys = append(keys, cache.KeyStockAll, cache.KeyProductList)

	if err := e.cache.Invalidate(ctx, keys...); err != nil {
		logger.Warn("effects: cache invalidation failed",
			"order_id", order.ID, "error", err)
	}
}

func (e *Effects) clearCart(ctx context.Context, order *models.Order) {
	if err := e.carts.ClearByUser(ctx, order.UserID); err != nil {
		logger.Warn("effects: cart clear failed",
			"order_id", order.ID, "user_id", order.UserID, "error", err)
	}
}

// sendConfirmation reloads the order for the user's email address and fires
// the confirmation mail without waiting on delivery.
func (e *Effects) sendConfirmation(ctx context.Context, order *models.Order) {
	full, err := e.orders.FindByID(ctx, order.ID)
	if err != nil || full == nil || full.User == nil {
		logger.Warn("effects: could not load order for confirmation mail",
			"order_id", order.ID, "error", err)
		return
	}

	notification.SendAsync(full.User.Email, notifications.NewOrderConfirmed(full))
}

// Shutdown drains the pool. Called by the bootstrap on graceful stop.
func (e *Effects) Shutdown() {
	e.pool.Shutdown()
}
