package services

import (
	"context"
	"time"

	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/config"
	"github.com/abhi5hek001/Buykart/pkg/cache"
	"github.com/abhi5hek001/Buykart/pkg/logger"
	"github.com/abhi5hek001/Buykart/pkg/metrics"
)

// StockInfo is the read-model for stock queries and stream snapshots.
type StockInfo struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockService serves the read-only stock endpoints through a short-TTL
// read-through cache. The cache is advisory: every miss falls through to the
// database, and order placement never consults it. A slightly stale count is
// acceptable here because the placement transaction re-checks under a lock.
type StockService struct {
	products *repositories.ProductRepository
	cache    cache.Store
}

func NewStockService(products *repositories.ProductRepository, store cache.Store) *StockService {
	return &StockService{products: products, cache: store}
}

// GetStock returns one product's stock. fromCache reports whether the value
// was served from Redis.
func (s *StockService) GetStock(ctx context.Context, productID string) (*StockInfo, bool, error) {
	key := cache.StockKey(productID)

	var cached StockInfo
	if s.cache.Get(ctx, key, &cached) {
		metrics.CacheHits.WithLabelValues("stock").Inc()
		return &cached, true, nil
	}
	metrics.CacheMisses.WithLabelValues("stock").Inc()

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if product == nil {
		return nil, false, &NotFoundError{Resource: "product", ID: productID}
	}

	info := StockInfo{
		ProductID: product.ID,
		Name:      product.Name,
		Stock:     product.Stock,
		UpdatedAt: product.UpdatedAt,
	}
	s.warm(ctx, key, info, config.StockCacheTTL())
	return &info, false, nil
}

// GetBulkStock returns stock for the requested ids. Unknown ids are silently
// absent. fromCache is true only when every id was a cache hit.
func (s *StockService) GetBulkStock(ctx context.Context, ids []string) ([]StockInfo, bool, error) {
	result := make([]StockInfo, 0, len(ids))
	misses := make([]string, 0, len(ids))

	for _, id := range ids {
		var cached StockInfo
		if s.cache.Get(ctx, cache.StockKey(id), &cached) {
			metrics.CacheHits.WithLabelValues("stock").Inc()
			result = append(result, cached)
			continue
		}
		metrics.CacheMisses.WithLabelValues("stock").Inc()
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return result, true, nil
	}

	products, err := s.products.StockByIDs(ctx, misses)
	if err != nil {
		return nil, false, err
	}
	for _, p := range products {
		info := StockInfo{ProductID: p.ID, Name: p.Name, Stock: p.Stock, UpdatedAt: p.UpdatedAt}
		s.warm(ctx, cache.StockKey(p.ID), info, config.StockCacheTTL())
		result = append(result, info)
	}

	return result, false, nil
}

// GetAllStock returns the full stock snapshot, cached under one key.
func (s *StockService) GetAllStock(ctx context.Context) ([]StockInfo, bool, error) {
	var cached []StockInfo
	if s.cache.Get(ctx, cache.KeyStockAll, &cached) {
		metrics.CacheHits.WithLabelValues("stock_all").Inc()
		return cached, true, nil
	}
	metrics.CacheMisses.WithLabelValues("stock_all").Inc()

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}

	s.warm(ctx, cache.KeyStockAll, snapshot, config.StockCacheTTL())
	return snapshot, false, nil
}

// Snapshot reads the authoritative stock state straight from the database,
// bypassing the cache. The streamer polls this.
func (s *StockService) Snapshot(ctx context.Context) ([]StockInfo, error) {
	products, err := s.products.AllStock(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make([]StockInfo, 0, len(products))
	for _, p := range products {
		snapshot = append(snapshot, StockInfo{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return snapshot, nil
}

// warm stores a freshly read value; a cache write failure is only logged.
func (s *StockService) warm(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		logger.WithCtx(ctx).Warn("stock: cache warm failed", "key", key, "error", err)
	}
}
