// Package routes wires controllers onto the router with their middleware.
package routes

import (
	"net/http"
	"time"

	"github.com/abhi5hek001/Buykart/app/controllers"
	"github.com/abhi5hek001/Buykart/pkg/metrics"
	"github.com/abhi5hek001/Buykart/pkg/middleware"
	"github.com/abhi5hek001/Buykart/pkg/reqid"
	"github.com/abhi5hek001/Buykart/pkg/response"
	"github.com/abhi5hek001/Buykart/pkg/router"
)

// Controllers holds the handlers registered by Register.
type Controllers struct {
	Orders *controllers.OrderController
	Stock  *controllers.StockController
}

// Register mounts the full API surface:
//
//	POST   /api/orders              place an order          (auth)
//	GET    /api/orders              caller's order history  (auth)
//	GET    /api/orders/all          all orders              (auth, admin)
//	GET    /api/orders/{id}         one order               (auth)
//	PATCH  /api/orders/{id}/status  lifecycle transition    (auth, admin)
//	GET    /api/stock               full stock snapshot
//	GET    /api/stock/bulk          selected products       (?ids=a,b)
//	GET    /api/stock/stream        SSE stock stream
//	GET    /api/stock/ws            WebSocket stock stream
//	GET    /api/stock/{id}          one product's stock
//	GET    /health                  liveness probe
//	GET    /metrics                 Prometheus scrape
func Register(r *router.Router, c Controllers) {
	r.Use(
		reqid.Middleware(),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(middleware.DefaultCORSOptions()),
		metrics.Middleware(),
	)

	orders := r.Group("/api/orders", middleware.Auth)
	orders.Post("/", "orders.place", c.Orders.Place)
	orders.Get("/", "orders.mine", c.Orders.Mine)
	orders.Get("/all", "orders.all", c.Orders.All, middleware.AdminOnly)
	orders.Get("/{id}", "orders.get", c.Orders.Get)
	orders.Patch("/{id}/status", "orders.status", c.Orders.UpdateStatus, middleware.AdminOnly)

	// Public read surface; rate-limited because it is unauthenticated.
	stock := r.Group("/api/stock", middleware.RateLimit(120, time.Minute))
	stock.Get("/", "stock.all", c.Stock.All)
	stock.Get("/bulk", "stock.bulk", c.Stock.Bulk)
	stock.Get("/stream", "stock.stream", c.Stock.Stream)
	stock.Get("/ws", "stock.ws", c.Stock.WS)
	stock.Get("/{id}", "stock.get", c.Stock.Get)

	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Handle(http.MethodGet, "/metrics", "metrics", metrics.Handler())
}
