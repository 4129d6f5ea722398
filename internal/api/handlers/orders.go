// Package handlers contains the HTTP handlers for the order view API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hedfirst/go-orderview/internal/api/middleware"
	"github.com/hedfirst/go-orderview/internal/domain/order"
	"github.com/hedfirst/go-orderview/internal/infrastructure/postgres"
	"github.com/hedfirst/go-orderview/internal/observability/metrics"
	"github.com/hedfirst/go-orderview/internal/orderview"
)

// OrderLoader loads order snapshots for a provider.
type OrderLoader interface {
	LoadSnapshot(ctx context.Context, providerID string) ([]*order.ParentOrder, error)
	LoadWithChildren(ctx context.Context, orderID string) (*order.ParentOrder, error)
}

// Enricher attaches patient details to loaded orders.
type Enricher interface {
	Enrich(ctx context.Context, orders []*order.ParentOrder) error
}

// OrdersHandler serves the filtered, sorted order views.
type OrdersHandler struct {
	loader   OrderLoader
	enricher Enricher
	metrics  *metrics.Metrics
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewOrdersHandler creates a handler. The enricher may be nil when no
// patient service is configured.
func NewOrdersHandler(loader OrderLoader, enricher Enricher, m *metrics.Metrics, logger *zap.Logger) *OrdersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrdersHandler{
		loader:   loader,
		enricher: enricher,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("orderview-api"),
	}
}

// Routes returns the router for order view endpoints.
func (h *OrdersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/orders", h.List)
	r.Get("/orders/{orderID}", h.Get)
	return r
}

// ordersResponse is the list endpoint payload.
type ordersResponse struct {
	Rows   []orderview.Row         `json:"rows"`
	Counts map[orderview.TabID]int `json:"counts"`
	Tabs   []orderview.TabID       `json:"tabs"`
}

// List handles GET /orders. Every filter token is validated up front;
// an unknown token is a 400, never silently replaced with a default.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "list_orders")
	defer span.End()
	start := time.Now()

	cfg, err := parseViewConfig(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("tab", string(cfg.Tab)),
		attribute.String("sort", string(cfg.Sort)),
	)

	providerID := r.URL.Query().Get("provider_id")
	if providerID == "" {
		providerID = middleware.GetClientID(ctx)
	}
	if providerID == "" {
		jsonError(w, http.StatusBadRequest, "provider_id is required")
		return
	}

	orders, err := h.loader.LoadSnapshot(ctx, providerID)
	if err != nil {
		h.logger.Error("failed to load order snapshot",
			zap.String("provider_id", providerID),
			zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	if h.enricher != nil {
		if err := h.enricher.Enrich(ctx, orders); err != nil {
			// Patient details are decoration; the view still renders.
			h.logger.Warn("patient enrichment unavailable", zap.Error(err))
			if h.metrics != nil {
				h.metrics.EnrichmentFallbacks.Inc()
			}
		}
	}

	counts := orderview.Counts(orders)

	visible, err := orderview.View(orders, cfg)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	expanded := parseExpansion(r.URL.Query().Get("expanded"))
	resp := ordersResponse{
		Rows:   orderview.BuildRows(visible, expanded),
		Counts: counts,
		Tabs:   orderview.VisibleTabs(counts),
	}

	if h.metrics != nil {
		h.metrics.ViewsComputed.Inc()
		h.metrics.ViewDuration.Observe(time.Since(start).Seconds())
		h.metrics.ViewOrdersReturned.Observe(float64(len(resp.Rows)))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{orderID}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "get_order")
	defer span.End()

	orderID := chi.URLParam(r, "orderID")
	o, err := h.loader.LoadWithChildren(ctx, orderID)
	if err != nil {
		if errors.Is(err, postgres.ErrOrderNotFound) {
			jsonError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to load order",
			zap.String("order_id", orderID),
			zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	if h.enricher != nil {
		if err := h.enricher.Enrich(ctx, []*order.ParentOrder{o}); err != nil {
			h.logger.Warn("patient enrichment unavailable", zap.Error(err))
			if h.metrics != nil {
				h.metrics.EnrichmentFallbacks.Inc()
			}
		}
	}
	writeJSON(w, http.StatusOK, o)
}

// parseViewConfig validates the filter and sort tokens. Absent
// parameters fall back to the defaults; present ones must parse.
func parseViewConfig(r *http.Request) (orderview.ViewConfig, error) {
	q := r.URL.Query()
	cfg := orderview.ViewConfig{
		Tab:  orderview.TabAll,
		Date: orderview.DateAll,
		Sort: orderview.SortNewest,
	}

	if s := q.Get("tab"); s != "" {
		tab, err := orderview.ParseTab(s)
		if err != nil {
			return cfg, err
		}
		cfg.Tab = tab
	}
	if s := q.Get("contains"); s != "" {
		for _, token := range strings.Split(s, ",") {
			f, err := orderview.ParseContains(token)
			if err != nil {
				return cfg, err
			}
			cfg.Contains = append(cfg.Contains, f)
		}
	}
	if s := q.Get("date"); s != "" {
		d, err := orderview.ParseDateFilter(s)
		if err != nil {
			return cfg, err
		}
		cfg.Date = d
	}
	if s := q.Get("sort"); s != "" {
		sort, err := orderview.ParseSort(s)
		if err != nil {
			return cfg, err
		}
		cfg.Sort = sort
	}
	return cfg, nil
}

func parseExpansion(s string) orderview.Expansion {
	expanded := orderview.NewExpansion()
	if s == "" {
		return expanded
	}
	for _, id := range strings.Split(s, ",") {
		if id != "" {
			expanded.Toggle(id)
		}
	}
	return expanded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
