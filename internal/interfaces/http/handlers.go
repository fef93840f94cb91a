package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type handlers struct {
	status   StatusProvider
	products ProductSource
	alerts   AlertCounter
	db       Pinger
}

// response is the standard envelope for ops endpoints.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *handlers) health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, response{Success: false, Error: "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Data: gin.H{"status": "ok"}})
}

func (h *handlers) monitorStatus(c *gin.Context) {
	status := h.status.Status()

	alerts24h, err := h.alerts.CountSince(c.Request.Context(), time.Now().Add(-24*time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response{Success: false, Error: "failed to count alerts"})
		return
	}

	c.JSON(http.StatusOK, response{Success: true, Data: gin.H{
		"running":            status.Running,
		"last_tick_at":       status.LastTickAt,
		"last_tick_ms":       status.LastTickDuration.Milliseconds(),
		"partitions_checked": status.PartitionsChecked,
		"partitions_failed":  status.PartitionsFailed,
		"alerts_sent":        status.AlertsSent,
		"tracked_pairs":      status.TrackedPairs,
		"alerts_24h":         alerts24h,
	}})
}

type productResponse struct {
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	InStock    bool            `json:"in_stock"`
	ProductURL string          `json:"product_url,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (h *handlers) listProducts(c *gin.Context) {
	rows, err := h.products.FindAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response{Success: false, Error: "failed to list products"})
		return
	}

	out := make([]productResponse, len(rows))
	for i, row := range rows {
		out[i] = productResponse{
			SKU:        row.SKU,
			Name:       row.Name,
			Price:      row.Price,
			Quantity:   row.Quantity,
			InStock:    row.InStock,
			ProductURL: row.ProductURL,
			UpdatedAt:  row.UpdatedAt,
		}
	}
	c.JSON(http.StatusOK, response{Success: true, Data: out})
}
