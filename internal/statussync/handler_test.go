package statussync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hedfirst/go-orderview/internal/domain/order"
	"github.com/hedfirst/go-orderview/internal/infrastructure/postgres"
	"github.com/hedfirst/go-orderview/internal/infrastructure/redpanda"
)

type fakeStore struct {
	order       *order.ParentOrder
	loadErr     error
	repaired    []order.ParentStatus
	lastEntry   *postgres.OutboxEntry
	repairedIDs []string
}

func (f *fakeStore) LoadWithChildren(_ context.Context, _ string) (*order.ParentOrder, error) {
	return f.order, f.loadErr
}

func (f *fakeStore) RepairStatus(_ context.Context, orderID string, status order.ParentStatus, entry *postgres.OutboxEntry) error {
	f.repaired = append(f.repaired, status)
	f.repairedIDs = append(f.repairedIDs, orderID)
	f.lastEntry = entry
	return nil
}

type fakeMetrics struct {
	derivations int
	repairs     int
}

func (f *fakeMetrics) DerivationRun() { f.derivations++ }
func (f *fakeMetrics) DriftRepaired() { f.repairs++ }

func eventPayload(t *testing.T, event ChildStatusEvent) []byte {
	t.Helper()
	b, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleRepairsDriftedStatus(t *testing.T) {
	store := &fakeStore{
		order: &order.ParentOrder{
			ID:     "ord-1",
			Status: order.ParentProcessing,
			Children: []order.ChildOrder{
				{ID: "c1", Status: order.ChildPaymentFailed},
				{ID: "c2", Status: order.ChildActive},
			},
		},
	}
	m := &fakeMetrics{}
	h := NewHandler(store, nil, m, nil)

	payload := eventPayload(t, ChildStatusEvent{
		EventID:    "evt-1",
		OrderID:    "ord-1",
		ChildID:    "c1",
		Status:     order.ChildPaymentFailed,
		OccurredAt: time.Now(),
	})
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(store.repaired) != 1 || store.repaired[0] != order.ParentPaymentFailed {
		t.Fatalf("repaired = %v, want [PAYMENT_FAILED]", store.repaired)
	}
	if store.lastEntry == nil {
		t.Fatal("expected an outbox entry alongside the repair")
	}
	if store.lastEntry.Topic != redpanda.TopicStatusDerived {
		t.Errorf("entry topic = %q, want %q", store.lastEntry.Topic, redpanda.TopicStatusDerived)
	}
	var derived StatusDerivedEvent
	if err := json.Unmarshal(store.lastEntry.Payload, &derived); err != nil {
		t.Fatalf("entry payload: %v", err)
	}
	if derived.Previous != order.ParentProcessing || derived.Status != order.ParentPaymentFailed {
		t.Errorf("derived event = %+v", derived)
	}
	if m.derivations != 1 || m.repairs != 1 {
		t.Errorf("metrics = %+v, want one derivation and one repair", m)
	}
}

func TestHandleLeavesMatchingStatusAlone(t *testing.T) {
	store := &fakeStore{
		order: &order.ParentOrder{
			ID:     "ord-2",
			Status: order.ParentActive,
			Children: []order.ChildOrder{
				{ID: "c1", Status: order.ChildActive},
			},
		},
	}
	m := &fakeMetrics{}
	h := NewHandler(store, nil, m, nil)

	payload := eventPayload(t, ChildStatusEvent{
		OrderID: "ord-2",
		ChildID: "c1",
		Status:  order.ChildActive,
	})
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.repaired) != 0 {
		t.Fatalf("repaired = %v, want no repairs", store.repaired)
	}
	if m.derivations != 1 {
		t.Errorf("derivations = %d, want 1", m.derivations)
	}
	if m.repairs != 0 {
		t.Errorf("repairs = %d, want 0", m.repairs)
	}
}

func TestHandleSkipsLegacyLineItemOrders(t *testing.T) {
	store := &fakeStore{
		order: &order.ParentOrder{
			ID:        "ord-legacy",
			Status:    order.ParentCompleted,
			LineItems: []order.LineItem{{ID: "li-1", Name: "Finasteride"}},
		},
	}
	h := NewHandler(store, nil, nil, nil)

	payload := eventPayload(t, ChildStatusEvent{
		OrderID: "ord-legacy",
		ChildID: "li-1",
		Status:  order.ChildPaid,
	})
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.repaired) != 0 {
		t.Fatalf("repaired = %v, want no repairs for legacy order", store.repaired)
	}
}

func TestHandleRejectsMalformedEvents(t *testing.T) {
	h := NewHandler(&fakeStore{}, nil, nil, nil)

	cases := []struct {
		name    string
		payload []byte
	}{
		{"not json", []byte("{")},
		{"missing order id", eventPayload(t, ChildStatusEvent{ChildID: "c1", Status: order.ChildPaid})},
		{"missing status", eventPayload(t, ChildStatusEvent{OrderID: "ord-1", ChildID: "c1"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := h.Handle(context.Background(), tc.payload); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
