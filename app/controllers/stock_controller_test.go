package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/app/services"
	"github.com/abhi5hek001/Buykart/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newStockFixture(t *testing.T) (*StockController, *services.StockStreamer, []*models.Product) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}))

	products := []*models.Product{
		{Name: "Alpha", Price: 100000, Stock: 5},
		{Name: "Beta", Price: 200000, Stock: 0},
	}
	for _, p := range products {
		require.NoError(t, db.Create(p).Error)
	}

	stockSvc := services.NewStockService(
		repositories.NewProductRepository(db), cache.Disconnected{})
	streamer := services.NewStockStreamer(stockSvc, nil, 20*time.Millisecond)
	t.Cleanup(streamer.Stop)

	return NewStockController(stockSvc, streamer, nil), streamer, products
}

func getJSON(t *testing.T, handler http.HandlerFunc, target string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestStockAllEndpoint(t *testing.T) {
	ctrl, _, _ := newStockFixture(t)

	rr, body := getJSON(t, ctrl.All, "/api/stock")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "false", string(body["from_cache"]))

	var infos []services.StockInfo
	require.NoError(t, json.Unmarshal(body["data"], &infos))
	require.Len(t, infos, 2)

	byName := make(map[string]int, len(infos))
	for _, info := range infos {
		byName[info.Name] = info.Stock
	}
	assert.Equal(t, map[string]int{"Alpha": 5, "Beta": 0}, byName)
}

func TestStockGetEndpoint(t *testing.T) {
	ctrl, _, products := newStockFixture(t)

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet,
		"/api/stock/"+products[0].ID, nil), "id", products[0].ID)
	ctrl.Get(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	var info services.StockInfo
	require.NoError(t, json.Unmarshal(body["data"], &info))
	assert.Equal(t, 5, info.Stock)

	// Unknown product.
	rr = httptest.NewRecorder()
	req = withURLParam(httptest.NewRequest(http.MethodGet,
		"/api/stock/PRD_20260101_0000", nil), "id", "PRD_20260101_0000")
	ctrl.Get(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStockBulkEndpoint(t *testing.T) {
	ctrl, _, products := newStockFixture(t)

	target := fmt.Sprintf("/api/stock/bulk?ids=%s,%s,PRD_20260101_0000",
		products[0].ID, products[1].ID)
	rr, body := getJSON(t, ctrl.Bulk, target)
	assert.Equal(t, http.StatusOK, rr.Code)

	var counts map[string]int
	require.NoError(t, json.Unmarshal(body["data"], &counts))
	assert.Equal(t, map[string]int{
		products[0].ID: 5,
		products[1].ID: 0,
	}, counts)

	// Missing ids parameter.
	rr = httptest.NewRecorder()
	ctrl.Bulk(rr, httptest.NewRequest(http.MethodGet, "/api/stock/bulk", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Only separators is treated as missing too.
	rr = httptest.NewRecorder()
	ctrl.Bulk(rr, httptest.NewRequest(http.MethodGet, "/api/stock/bulk?ids=,,", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStockStreamEndpoint(t *testing.T) {
	ctrl, streamer, _ := newStockFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	go streamer.Run(ctx)

	reqCtx, stopReq := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer stopReq()
	req := httptest.NewRequest(http.MethodGet, "/api/stock/stream", nil).WithContext(reqCtx)

	rr := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		ctrl.Stream(rr, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream handler did not return after client disconnect")
	}
	cancel()

	out := rr.Body.String()
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Contains(t, out, ": connected")
	assert.Contains(t, out, "data: ")
	assert.Contains(t, out, `"type":"stock"`)
	assert.Equal(t, 0, streamer.SubscriberCount(), "subscription released on disconnect")
}
