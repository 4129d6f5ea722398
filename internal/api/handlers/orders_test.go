package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hedfirst/go-orderview/internal/domain/order"
	"github.com/hedfirst/go-orderview/internal/infrastructure/postgres"
	"github.com/hedfirst/go-orderview/internal/orderview"
)

type fakeLoader struct {
	orders []*order.ParentOrder
	err    error
}

func (f *fakeLoader) LoadSnapshot(_ context.Context, _ string) ([]*order.ParentOrder, error) {
	return f.orders, f.err
}

func (f *fakeLoader) LoadWithChildren(_ context.Context, orderID string) (*order.ParentOrder, error) {
	for _, o := range f.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, postgres.ErrOrderNotFound
}

type fakeEnricher struct {
	err   error
	calls int
}

func (f *fakeEnricher) Enrich(_ context.Context, _ []*order.ParentOrder) error {
	f.calls++
	return f.err
}

func testOrders() []*order.ParentOrder {
	base := time.Now().Add(-time.Hour)
	return []*order.ParentOrder{
		{
			ID:        "ord-1",
			Status:    order.ParentAwaitingReview,
			CreatedAt: base,
			Amount:    10000,
			Children:  []order.ChildOrder{{ID: "c1", Status: order.ChildAwaitingReview}},
		},
		{
			ID:        "ord-2",
			Status:    order.ParentActive,
			CreatedAt: base.Add(-time.Hour),
			Amount:    25000,
			Children:  []order.ChildOrder{{ID: "c2", Status: order.ChildActive}},
		},
		{
			ID:        "ord-legacy",
			Status:    order.ParentCompleted,
			CreatedAt: base.Add(-2 * time.Hour),
			Amount:    5000,
			LineItems: []order.LineItem{{ID: "li-1", Name: "Minoxidil"}},
		},
	}
}

func serve(t *testing.T, h *OrdersHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestListReturnsRowsCountsAndTabs(t *testing.T) {
	h := NewOrdersHandler(&fakeLoader{orders: testOrders()}, nil, nil, nil)

	rec := serve(t, h, "/orders?provider_id=prov-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ordersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(resp.Rows))
	}
	if resp.Rows[0].Order.ID != "ord-1" {
		t.Errorf("first row = %s, want ord-1 (newest)", resp.Rows[0].Order.ID)
	}
	if resp.Counts[orderview.TabAll] != 3 {
		t.Errorf("all count = %d, want 3", resp.Counts[orderview.TabAll])
	}
	if resp.Counts[orderview.TabNeedsReview] != 1 {
		t.Errorf("needs-review count = %d, want 1", resp.Counts[orderview.TabNeedsReview])
	}
}

func TestListCountsSurviveTabFilter(t *testing.T) {
	h := NewOrdersHandler(&fakeLoader{orders: testOrders()}, nil, nil, nil)

	rec := serve(t, h, "/orders?provider_id=prov-1&tab=needs-review")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ordersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(resp.Rows))
	}
	if resp.Counts[orderview.TabAll] != 3 {
		t.Errorf("all count = %d, want 3 even with a tab active", resp.Counts[orderview.TabAll])
	}
}

func TestListRejectsInvalidTokens(t *testing.T) {
	h := NewOrdersHandler(&fakeLoader{orders: testOrders()}, nil, nil, nil)

	targets := []string{
		"/orders?provider_id=prov-1&tab=bogus",
		"/orders?provider_id=prov-1&tab=All",
		"/orders?provider_id=prov-1&contains=pills",
		"/orders?provider_id=prov-1&contains=prescription,pills",
		"/orders?provider_id=prov-1&date=14d",
		"/orders?provider_id=prov-1&sort=cheapest",
	}
	for _, target := range targets {
		rec := serve(t, h, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestListRequiresProvider(t *testing.T) {
	h := NewOrdersHandler(&fakeLoader{orders: testOrders()}, nil, nil, nil)

	rec := serve(t, h, "/orders")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListExpandedParam(t *testing.T) {
	h := NewOrdersHandler(&fakeLoader{orders: testOrders()}, nil, nil, nil)

	rec := serve(t, h, "/orders?provider_id=prov-1&expanded=ord-1,ord-legacy")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp ordersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	byID := map[string]orderview.Row{}
	for _, row := range resp.Rows {
		byID[row.Order.ID] = row
	}
	if !byID["ord-1"].Expanded {
		t.Error("ord-1 should be expanded")
	}
	if byID["ord-legacy"].Expanded {
		t.Error("legacy order can never be expanded")
	}
	if byID["ord-legacy"].Expandable {
		t.Error("legacy order can never be expandable")
	}
}

func TestListSurvivesEnrichmentFailure(t *testing.T) {
	enricher := &fakeEnricher{err: errors.New("patient service down")}
	h := NewOrdersHandler(&fakeLoader{orders: testOrders()}, enricher, nil, nil)

	rec := serve(t, h, "/orders?provider_id=prov-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite enrichment failure", rec.Code)
	}
	if enricher.calls != 1 {
		t.Errorf("enricher calls = %d, want 1", enricher.calls)
	}
}

func TestListLoadFailure(t *testing.T) {
	h := NewOrdersHandler(&fakeLoader{err: errors.New("pool closed")}, nil, nil, nil)

	rec := serve(t, h, "/orders?provider_id=prov-1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestGetOrder(t *testing.T) {
	h := NewOrdersHandler(&fakeLoader{orders: testOrders()}, nil, nil, nil)

	rec := serve(t, h, "/orders/ord-2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var o order.ParentOrder
	if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
		t.Fatal(err)
	}
	if o.ID != "ord-2" {
		t.Errorf("order = %s, want ord-2", o.ID)
	}

	rec = serve(t, h, "/orders/no-such-order")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
