package services

import (
	"context"
	"testing"

	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStockService(t *testing.T, store cache.Store) (*StockService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewStockService(repositories.NewProductRepository(db), store), db
}

func TestGetStockReadThrough(t *testing.T) {
	store := newFakeCache()
	svc, db := newStockService(t, store)
	product := createProduct(t, db, "Monitor", 1599900, 12)

	// First read: miss, served from the database, cache warmed.
	info, fromCache, err := svc.GetStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 12, info.Stock)
	assert.Equal(t, "Monitor", info.Name)

	// Second read: hit.
	info, fromCache, err = svc.GetStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 12, info.Stock)
}

func TestGetStockCacheIsNotAuthoritative(t *testing.T) {
	store := newFakeCache()
	svc, db := newStockService(t, store)
	product := createProduct(t, db, "Router", 349900, 8)

	_, _, err := svc.GetStock(context.Background(), product.ID)
	require.NoError(t, err)

	// Stock changes behind the cache's back.
	require.NoError(t, db.Model(product).Update("stock", 3).Error)

	// Cached read still shows the stale value...
	info, fromCache, err := svc.GetStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 8, info.Stock)

	// ...until invalidation, after which the database wins.
	require.NoError(t, store.Invalidate(context.Background(), cache.StockKey(product.ID)))
	info, fromCache, err = svc.GetStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 3, info.Stock)
}

func TestGetStockUnknownProduct(t *testing.T) {
	svc, _ := newStockService(t, newFakeCache())

	_, _, err := svc.GetStock(context.Background(), "PRD_20260101_BEEF")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGetStockWithDisconnectedCache(t *testing.T) {
	svc, db := newStockService(t, cache.Disconnected{})
	product := createProduct(t, db, "Speaker", 499900, 6)

	// Every read is a miss but still succeeds from the database.
	for i := 0; i < 2; i++ {
		info, fromCache, err := svc.GetStock(context.Background(), product.ID)
		require.NoError(t, err)
		assert.False(t, fromCache)
		assert.Equal(t, 6, info.Stock)
	}
}

func TestGetBulkStock(t *testing.T) {
	store := newFakeCache()
	svc, db := newStockService(t, store)
	a := createProduct(t, db, "A", 10000, 1)
	b := createProduct(t, db, "B", 20000, 2)

	// Warm only A.
	_, _, err := svc.GetStock(context.Background(), a.ID)
	require.NoError(t, err)

	infos, fromCache, err := svc.GetBulkStock(context.Background(),
		[]string{a.ID, b.ID, "PRD_20260101_0000"})
	require.NoError(t, err)
	assert.False(t, fromCache, "a single miss makes the bulk read a DB read")
	assert.Len(t, infos, 2, "unknown ids are silently absent")

	// Now everything known is cached.
	infos, fromCache, err = svc.GetBulkStock(context.Background(), []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Len(t, infos, 2)
}

func TestGetAllStockAndSnapshot(t *testing.T) {
	store := newFakeCache()
	svc, db := newStockService(t, store)
	createProduct(t, db, "One", 10000, 5)
	createProduct(t, db, "Two", 20000, 0)

	all, fromCache, err := svc.GetAllStock(context.Background())
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Len(t, all, 2)

	all, fromCache, err = svc.GetAllStock(context.Background())
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Len(t, all, 2)

	// Snapshot always bypasses the cache.
	require.NoError(t, db.Exec("UPDATE products SET stock = 99").Error)
	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, 99, snapshot[0].Stock)
	assert.Equal(t, 99, snapshot[1].Stock)
}
