// Package server builds and runs the Buykart backend process: config,
// database, cache, the stock streamer, and the HTTP server with graceful
// shutdown. Every dependency is constructed here and injected downward;
// no package below this one owns a singleton.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhi5hek001/Buykart/app/controllers"
	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/app/routes"
	"github.com/abhi5hek001/Buykart/app/services"
	"github.com/abhi5hek001/Buykart/config"
	"github.com/abhi5hek001/Buykart/pkg/cache"
	"github.com/abhi5hek001/Buykart/pkg/database"
	"github.com/abhi5hek001/Buykart/pkg/logger"
	"github.com/abhi5hek001/Buykart/pkg/router"
	"github.com/abhi5hek001/Buykart/pkg/workerpool"
	"github.com/abhi5hek001/Buykart/pkg/ws"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 15 * time.Second
	effectsWorkers  = 8
)

// Server is the assembled backend process.
type Server struct {
	Router *router.Router

	db       *gorm.DB
	store    cache.Store
	hub      *ws.Hub
	streamer *services.StockStreamer
	effects  *services.Effects
}

// New wires the whole dependency graph. A missing Redis is downgraded to a
// warning: the process runs uncached rather than refusing to start.
func New() (*Server, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}

	store, err := cache.Connect(config.RedisAddr(), config.RedisPassword())
	if err != nil {
		logger.Warn("cache unavailable, running without it", "error", err)
	}

	products := repositories.NewProductRepository(db)
	orders := repositories.NewOrderRepository(db)
	users := repositories.NewUserRepository(db)
	carts := repositories.NewCartRepository(db)

	pool := workerpool.New(effectsWorkers)
	effects := services.NewEffects(pool, store, carts, orders)

	orderSvc := services.NewOrderService(db, products, orders, users, effects)
	stockSvc := services.NewStockService(products, store)

	hub := ws.NewHub()
	streamer := services.NewStockStreamer(stockSvc, hub, config.StockStreamInterval())

	r := router.New()
	routes.Register(r, routes.Controllers{
		Orders: controllers.NewOrderController(orderSvc),
		Stock:  controllers.NewStockController(stockSvc, streamer, hub),
	})

	return &Server{
		Router:   r,
		db:       db,
		store:    store,
		hub:      hub,
		streamer: streamer,
		effects:  effects,
	}, nil
}

// Run starts the background loops and serves HTTP until SIGINT/SIGTERM,
// then drains in-flight requests and pending effects.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go s.hub.Run()
	go s.streamer.Run(ctx)

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           s.Router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpSrv.Addr, "env", config.AppEnv())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	s.streamer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	s.effects.Shutdown()
	s.closeResources()
	return nil
}

func (s *Server) closeResources() {
	if closer, ok := s.store.(*cache.Redis); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("cache close", "error", err)
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("database close", "error", err)
		}
	}
}
