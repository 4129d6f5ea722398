// Package statussync keeps cached parent statuses in line with their
// children. It consumes child-status events from collaborator systems,
// re-derives the parent status and repairs the stored value when it
// drifted.
package statussync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hedfirst/go-orderview/internal/domain/order"
	"github.com/hedfirst/go-orderview/internal/infrastructure/postgres"
	"github.com/hedfirst/go-orderview/internal/infrastructure/redpanda"
	"github.com/hedfirst/go-orderview/pkg/idempotency"
)

// ChildStatusEvent is the message payment, fulfillment and review
// collaborators publish when a child order moves.
type ChildStatusEvent struct {
	EventID    string            `json:"event_id"`
	OrderID    string            `json:"order_id"`
	ChildID    string            `json:"child_id"`
	Status     order.ChildStatus `json:"status"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// StatusDerivedEvent is published whenever a cached parent status is
// repaired.
type StatusDerivedEvent struct {
	OrderID   string             `json:"order_id"`
	Previous  order.ParentStatus `json:"previous"`
	Status    order.ParentStatus `json:"status"`
	DerivedAt time.Time          `json:"derived_at"`
}

// EventTypeStatusDerived names the repair event in the outbox.
const EventTypeStatusDerived = "OrderStatusDerived"

// OrderStore is the slice of the order repository the handler needs.
type OrderStore interface {
	LoadWithChildren(ctx context.Context, orderID string) (*order.ParentOrder, error)
	RepairStatus(ctx context.Context, orderID string, status order.ParentStatus, entry *postgres.OutboxEntry) error
}

// Metrics is the subset of service metrics the handler reports to.
type Metrics interface {
	DerivationRun()
	DriftRepaired()
}

// Handler processes child-status events.
type Handler struct {
	store   OrderStore
	inbox   *idempotency.Inbox
	metrics Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewHandler creates a new handler. The inbox may be nil, in which case
// events are processed without the exactly-once guard.
func NewHandler(store OrderStore, inbox *idempotency.Inbox, metrics Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   store,
		inbox:   inbox,
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer("status-sync"),
	}
}

// Handle processes one child-status event end to end.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	event, err := parseEvent(payload)
	if err != nil {
		// Malformed events never become valid; park them.
		h.logger.Error("invalid child-status event", zap.Error(err))
		return err
	}

	ctx, span := h.tracer.Start(ctx, "handle_child_status",
		trace.WithAttributes(
			attribute.String("order_id", event.OrderID),
			attribute.String("child_id", event.ChildID),
			attribute.String("status", string(event.Status)),
		))
	defer span.End()

	key := event.EventID
	if key == "" {
		key = idempotency.GenerateKey(event.OrderID, event.ChildID, string(event.Status), event.OccurredAt)
	}

	if h.inbox == nil {
		return h.rederive(ctx, event)
	}

	_, err = h.inbox.Process(ctx, key, "status-sync", payload, func(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
		return nil, h.rederive(ctx, event)
	})
	if errors.Is(err, idempotency.ErrDuplicateMessage) {
		span.SetAttributes(attribute.Bool("duplicate", true))
		return nil
	}
	return err
}

// rederive recomputes the parent status and repairs the cached value
// when it drifted. The stored status is a cache, never independent
// truth, so repairing it is always safe to repeat.
func (h *Handler) rederive(ctx context.Context, event *ChildStatusEvent) error {
	o, err := h.store.LoadWithChildren(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", event.OrderID, err)
	}

	if o.Children == nil && len(o.LineItems) > 0 {
		// Legacy line-item orders have no derivable status.
		h.logger.Debug("skipping legacy order", zap.String("order_id", o.ID))
		return nil
	}

	derived := order.Derive(o.Children)
	if h.metrics != nil {
		h.metrics.DerivationRun()
	}

	if derived == o.Status {
		return nil
	}

	payload, err := json.Marshal(StatusDerivedEvent{
		OrderID:   o.ID,
		Previous:  o.Status,
		Status:    derived,
		DerivedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal derived event: %w", err)
	}

	entry := &postgres.OutboxEntry{
		OrderID:   o.ID,
		EventType: EventTypeStatusDerived,
		Payload:   payload,
		Topic:     redpanda.TopicStatusDerived,
		Key:       o.ID,
	}

	if err := h.store.RepairStatus(ctx, o.ID, derived, entry); err != nil {
		return fmt.Errorf("repair status: %w", err)
	}

	if h.metrics != nil {
		h.metrics.DriftRepaired()
	}
	h.logger.Info("parent status re-derived",
		zap.String("order_id", o.ID),
		zap.String("previous", string(o.Status)),
		zap.String("status", string(derived)))
	return nil
}

func parseEvent(payload []byte) (*ChildStatusEvent, error) {
	var event ChildStatusEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	if event.OrderID == "" {
		return nil, errors.New("invalid event: order_id is required")
	}
	if event.Status == "" {
		return nil, errors.New("invalid event: status is required")
	}
	return &event, nil
}
