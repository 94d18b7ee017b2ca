package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/app/services"
	"github.com/abhi5hek001/Buykart/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type orderFixture struct {
	db      *gorm.DB
	ctrl    *OrderController
	user    *models.User
	product *models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
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

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Product{},
		&models.Order{}, &models.OrderItem{}, &models.CartItem{},
	))

	user := &models.User{Name: "Test", Email: "test@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	product := &models.Product{Name: "Widget", Price: 125000, Stock: 10}
	require.NoError(t, db.Create(product).Error)

	svc := services.NewOrderService(db,
		repositories.NewProductRepository(db),
		repositories.NewOrderRepository(db),
		repositories.NewUserRepository(db),
		nil,
	)

	return &orderFixture{
		db:      db,
		ctrl:    NewOrderController(svc),
		user:    user,
		product: product,
	}
}

// authedRequest builds a request carrying the user identity that the Auth
// middleware would normally inject.
func (f *orderFixture) authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithUserID(req.Context(), f.user.ID)
	return req.WithContext(middleware.WithRole(ctx, "user"))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestPlaceOrderEndpoint(t *testing.T) {
	f := newOrderFixture(t)

	body := fmt.Sprintf(`{
		"shipping_address": "42 MG Road, Bengaluru 560001",
		"items": [{"product_id": %q, "quantity": 2}]
	}`, f.product.ID)

	rr := httptest.NewRecorder()
	f.ctrl.Place(rr, f.authedRequest(http.MethodPost, "/api/orders", body))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	env := decode(t, rr)
	assert.True(t, env.Success)

	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, f.user.ID, order.UserID)
	assert.Equal(t, int64(250000), order.TotalAmount)
	assert.Equal(t, models.StatusPending, order.Status)
}

func TestPlaceOrderEndpointValidation(t *testing.T) {
	f := newOrderFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"items": [`},
		{"missing address", fmt.Sprintf(
			`{"items": [{"product_id": %q, "quantity": 1}]}`, f.product.ID)},
		{"short address", fmt.Sprintf(
			`{"shipping_address": "x", "items": [{"product_id": %q, "quantity": 1}]}`, f.product.ID)},
		{"no items", `{"shipping_address": "42 MG Road, Bengaluru 560001"}`},
		{"zero quantity", fmt.Sprintf(
			`{"shipping_address": "42 MG Road, Bengaluru 560001", "items": [{"product_id": %q, "quantity": 0}]}`,
			f.product.ID)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			f.ctrl.Place(rr, f.authedRequest(http.MethodPost, "/api/orders", tc.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.False(t, decode(t, rr).Success)
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestPlaceOrderEndpointUnknownProduct(t *testing.T) {
	f := newOrderFixture(t)

	body := `{
		"shipping_address": "42 MG Road, Bengaluru 560001",
		"items": [{"product_id": "PRD_20260101_DEAD", "quantity": 1}]
	}`
	rr := httptest.NewRecorder()
	f.ctrl.Place(rr, f.authedRequest(http.MethodPost, "/api/orders", body))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, decode(t, rr).Success)
}

func TestPlaceOrderEndpointInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)

	body := fmt.Sprintf(`{
		"shipping_address": "42 MG Road, Bengaluru 560001",
		"items": [{"product_id": %q, "quantity": 999}]
	}`, f.product.ID)
	rr := httptest.NewRecorder()
	f.ctrl.Place(rr, f.authedRequest(http.MethodPost, "/api/orders", body))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decode(t, rr)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "insufficient stock")
}

func TestGetOrderEndpointScoping(t *testing.T) {
	f := newOrderFixture(t)

	// Place an order as the fixture user.
	body := fmt.Sprintf(`{
		"shipping_address": "42 MG Road, Bengaluru 560001",
		"items": [{"product_id": %q, "quantity": 1}]
	}`, f.product.ID)
	rr := httptest.NewRecorder()
	f.ctrl.Place(rr, f.authedRequest(http.MethodPost, "/api/orders", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	var placed models.Order
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &placed))

	// The owner can read it.
	rr = httptest.NewRecorder()
	req := withURLParam(f.authedRequest(http.MethodGet, "/api/orders/"+placed.ID, ""), "id", placed.ID)
	f.ctrl.Get(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// A different non-admin user gets a 404, not a 403 leak.
	stranger := &models.User{Name: "Other", Email: "other@example.com", Password: "x"}
	require.NoError(t, f.db.Create(stranger).Error)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/"+placed.ID, nil)
	ctx := middleware.WithUserID(req.Context(), stranger.ID)
	req = withURLParam(req.WithContext(middleware.WithRole(ctx, "user")), "id", placed.ID)

	rr = httptest.NewRecorder()
	f.ctrl.Get(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// An admin can read anyone's order.
	req = httptest.NewRequest(http.MethodGet, "/api/orders/"+placed.ID, nil)
	ctx = middleware.WithUserID(req.Context(), stranger.ID)
	req = withURLParam(req.WithContext(middleware.WithRole(ctx, "admin")), "id", placed.ID)

	rr = httptest.NewRecorder()
	f.ctrl.Get(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	f := newOrderFixture(t)

	body := fmt.Sprintf(`{
		"shipping_address": "42 MG Road, Bengaluru 560001",
		"items": [{"product_id": %q, "quantity": 1}]
	}`, f.product.ID)
	rr := httptest.NewRecorder()
	f.ctrl.Place(rr, f.authedRequest(http.MethodPost, "/api/orders", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	var placed models.Order
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &placed))

	// Legal transition.
	rr = httptest.NewRecorder()
	req := withURLParam(f.authedRequest(http.MethodPatch,
		"/api/orders/"+placed.ID+"/status", `{"status": "confirmed"}`), "id", placed.ID)
	f.ctrl.UpdateStatus(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Skipping a stage is rejected.
	rr = httptest.NewRecorder()
	req = withURLParam(f.authedRequest(http.MethodPatch,
		"/api/orders/"+placed.ID+"/status", `{"status": "delivered"}`), "id", placed.ID)
	f.ctrl.UpdateStatus(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown status fails request validation.
	rr = httptest.NewRecorder()
	req = withURLParam(f.authedRequest(http.MethodPatch,
		"/api/orders/"+placed.ID+"/status", `{"status": "refunded"}`), "id", placed.ID)
	f.ctrl.UpdateStatus(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown order is a 404.
	rr = httptest.NewRecorder()
	req = withURLParam(f.authedRequest(http.MethodPatch,
		"/api/orders/ORD_20260101_0000/status", `{"status": "confirmed"}`), "id", "ORD_20260101_0000")
	f.ctrl.UpdateStatus(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
