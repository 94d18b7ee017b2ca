package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abhi5hek001/Buykart/app/services"
	"github.com/abhi5hek001/Buykart/pkg/logger"
	"github.com/abhi5hek001/Buykart/pkg/response"
	"github.com/abhi5hek001/Buykart/pkg/sse"
	"github.com/abhi5hek001/Buykart/pkg/ws"
	"github.com/go-chi/chi/v5"
)

// heartbeatInterval keeps idle SSE connections from being reaped by proxies.
const heartbeatInterval = 30 * time.Second

// maxBulkIDs caps one bulk stock query.
const maxBulkIDs = 100

// StockController exposes the read-only stock endpoints and the live stream.
type StockController struct {
	stock    *services.StockService
	streamer *services.StockStreamer
	hub      *ws.Hub
}

func NewStockController(stock *services.StockService, streamer *services.StockStreamer, hub *ws.Hub) *StockController {
	return &StockController{stock: stock, streamer: streamer, hub: hub}
}

// All handles GET /api/stock.
func (c *StockController) All(w http.ResponseWriter, r *http.Request) {
	snapshot, fromCache, err := c.stock.GetAllStock(r.Context())
	if err != nil {
		c.writeStockError(w, r, err)
		return
	}
	response.Raw(w, map[string]interface{}{"data": snapshot, "from_cache": fromCache})
}

// Get handles GET /api/stock/{id}.
func (c *StockController) Get(w http.ResponseWriter, r *http.Request) {
	info, fromCache, err := c.stock.GetStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeStockError(w, r, err)
		return
	}
	response.Raw(w, map[string]interface{}{"data": info, "from_cache": fromCache})
}

// Bulk handles GET /api/stock/bulk?ids=PRD_a,PRD_b.
func (c *StockController) Bulk(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		response.Error(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}

	ids := make([]string, 0)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		response.Error(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}
	if len(ids) > maxBulkIDs {
		response.Error(w, http.StatusBadRequest, "too many ids requested")
		return
	}

	infos, fromCache, err := c.stock.GetBulkStock(r.Context(), ids)
	if err != nil {
		c.writeStockError(w, r, err)
		return
	}

	// Bulk consumers (stock badges) want a flat id → count map.
	counts := make(map[string]int, len(infos))
	for _, info := range infos {
		counts[info.ProductID] = info.Stock
	}
	response.Raw(w, map[string]interface{}{"data": counts, "from_cache": fromCache})
}

// Stream handles GET /api/stock/stream: an SSE connection receiving the
// periodic stock snapshot until the client disconnects.
func (c *StockController) Stream(w http.ResponseWriter, r *http.Request) {
	stream := sse.New(w, r)
	if stream == nil {
		return
	}

	frames, cancel := c.streamer.Subscribe()
	defer cancel()

	stream.Comment("connected")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			// Frames are pre-marshalled; RawMessage avoids double encoding.
			if err := stream.SendJSON(rawJSON(frame)); err != nil {
				logger.WithCtx(r.Context()).Warn("stock stream write failed", "error", err)
				return
			}
		case <-heartbeat.C:
			stream.Comment("keepalive")
			if stream.IsClosed() {
				return
			}
		}
	}
}

// WS handles GET /api/stock/ws, upgrading to a WebSocket fed by the hub.
func (c *StockController) WS(w http.ResponseWriter, r *http.Request) {
	ws.Upgrade(w, r, c.hub)
}

func (c *StockController) writeStockError(w http.ResponseWriter, r *http.Request, err error) {
	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		response.NotFound(w, nf.Error())
		return
	}
	logger.WithCtx(r.Context()).Error("stock request failed", "error", err)
	response.Error(w, http.StatusInternalServerError, "Internal server error")
}

// rawJSON marks an already-marshalled frame so SendJSON passes it through.
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) { return r, nil }
