package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockwatch/backend/internal/application/monitor"
	"github.com/stockwatch/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStatus struct{ status monitor.Status }

func (f fakeStatus) Status() monitor.Status { return f.status }

type fakeProducts struct {
	rows []persistence.Product
	err  error
}

func (f fakeProducts) FindAll(context.Context) ([]persistence.Product, error) {
	return f.rows, f.err
}

type fakeAlerts struct{ count int64 }

func (f fakeAlerts) CountSince(context.Context, time.Time) (int64, error) {
	return f.count, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping() error { return f.err }

func serve(t *testing.T, server *Server, path string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, req)

	var body response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := NewServer(":0", fakeStatus{}, fakeProducts{}, fakeAlerts{}, fakePinger{}, zap.NewNop())
		rec, body := serve(t, server, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, body.Success)
	})

	t.Run("database down", func(t *testing.T) {
		server := NewServer(":0", fakeStatus{}, fakeProducts{}, fakeAlerts{}, fakePinger{err: errors.New("down")}, zap.NewNop())
		rec, body := serve(t, server, "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, body.Success)
	})
}

func TestMonitorStatus(t *testing.T) {
	status := monitor.Status{
		Running:           true,
		LastTickAt:        time.Now(),
		LastTickDuration:  1500 * time.Millisecond,
		PartitionsChecked: 3,
		PartitionsFailed:  1,
		AlertsSent:        12,
		TrackedPairs:      7,
	}
	server := NewServer(":0", fakeStatus{status: status}, fakeProducts{}, fakeAlerts{count: 4}, fakePinger{}, zap.NewNop())

	rec, body := serve(t, server, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, body.Success)

	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["running"])
	assert.Equal(t, float64(1500), data["last_tick_ms"])
	assert.Equal(t, float64(3), data["partitions_checked"])
	assert.Equal(t, float64(1), data["partitions_failed"])
	assert.Equal(t, float64(12), data["alerts_sent"])
	assert.Equal(t, float64(7), data["tracked_pairs"])
	assert.Equal(t, float64(4), data["alerts_24h"])
}

func TestListProducts(t *testing.T) {
	rows := []persistence.Product{
		{ProductID: "p1", SKU: "WHEY1", Name: "Whey 1kg", Price: decimal.NewFromInt(1999), Quantity: 5, InStock: true},
	}
	server := NewServer(":0", fakeStatus{}, fakeProducts{rows: rows}, fakeAlerts{}, fakePinger{}, zap.NewNop())

	rec, body := serve(t, server, "/api/v1/products")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, body.Success)

	items, ok := body.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "WHEY1", item["sku"])
	assert.Equal(t, "1999", item["price"])
	assert.Equal(t, true, item["in_stock"])
}

func TestListProductsError(t *testing.T) {
	server := NewServer(":0", fakeStatus{}, fakeProducts{err: errors.New("boom")}, fakeAlerts{}, fakePinger{}, zap.NewNop())
	rec, body := serve(t, server, "/api/v1/products")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, body.Success)
}
