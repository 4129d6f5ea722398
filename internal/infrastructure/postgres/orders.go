// Package postgres provides PostgreSQL infrastructure for the order view
// services: the read-side order snapshot and the transactional outbox.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hedfirst/go-orderview/internal/domain/order"
)

// ErrOrderNotFound indicates the requested parent order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository reads parent orders with their children and legacy
// line items, and repairs the cached derived status.
type OrderRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewOrderRepository creates a new repository
func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) *OrderRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderRepository{pool: pool, logger: logger}
}

const parentColumns = `
	id, public_order_id, patient_id, status, created_at,
	subtotal, discount, discount_by_code, shipping_price, tax, amount
`

// LoadSnapshot returns the provider-scoped parent orders newest first,
// each carrying its children or, for legacy orders, its line items.
// Newest-first is the source ordering the view pipeline's stable sort
// relies on.
func (r *OrderRepository) LoadSnapshot(ctx context.Context, providerID string) ([]*order.ParentOrder, error) {
	query := `
		SELECT ` + parentColumns + `
		FROM parent_orders
		WHERE provider_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("query parent orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.ParentOrder
	index := make(map[string]*order.ParentOrder)
	for rows.Next() {
		o, err := scanParent(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		index[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	if err := r.attachChildren(ctx, ids, index); err != nil {
		return nil, err
	}
	if err := r.attachLineItems(ctx, ids, index); err != nil {
		return nil, err
	}

	return orders, nil
}

// LoadWithChildren loads a single parent order and its children.
func (r *OrderRepository) LoadWithChildren(ctx context.Context, orderID string) (*order.ParentOrder, error) {
	query := `
		SELECT ` + parentColumns + `
		FROM parent_orders
		WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, orderID)
	o, err := scanParentRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("query parent order: %w", err)
	}

	index := map[string]*order.ParentOrder{o.ID: o}
	if err := r.attachChildren(ctx, []string{o.ID}, index); err != nil {
		return nil, err
	}
	if err := r.attachLineItems(ctx, []string{o.ID}, index); err != nil {
		return nil, err
	}
	return o, nil
}

// RepairStatus updates the cached parent status and writes the outbox
// entry in one transaction, so the derived-status event is published
// exactly when the repair commits.
func (r *OrderRepository) RepairStatus(ctx context.Context, orderID string, status order.ParentStatus, entry *OutboxEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE parent_orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), orderID,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	if entry != nil {
		if err := WriteEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("cached status repaired",
		zap.String("order_id", orderID),
		zap.String("status", string(status)))
	return nil
}

func (r *OrderRepository) attachChildren(ctx context.Context, ids []string, index map[string]*order.ParentOrder) error {
	query := `
		SELECT id, parent_order_id, product_type, status, billing_cycle, name,
		       amount, discount, paid_at, approved_at, paused_at, shipped_at,
		       lab_results_received_at
		FROM child_orders
		WHERE parent_order_id = ANY($1)
		ORDER BY parent_order_id, created_at
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query child orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c order.ChildOrder
		err := rows.Scan(
			&c.ID, &c.ParentOrderID, &c.ProductType, &c.Status, &c.BillingCycle,
			&c.Name, &c.Amount, &c.Discount, &c.PaidAt, &c.ApprovedAt,
			&c.PausedAt, &c.ShippedAt, &c.LabResultsReceivedAt,
		)
		if err != nil {
			return fmt.Errorf("scan child order: %w", err)
		}
		if parent, ok := index[c.ParentOrderID]; ok {
			parent.Children = append(parent.Children, c)
		}
	}
	return rows.Err()
}

func (r *OrderRepository) attachLineItems(ctx context.Context, ids []string, index map[string]*order.ParentOrder) error {
	query := `
		SELECT id, parent_order_id, name, quantity, amount
		FROM order_line_items
		WHERE parent_order_id = ANY($1)
		ORDER BY parent_order_id, position
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var li order.LineItem
		var parentID string
		if err := rows.Scan(&li.ID, &parentID, &li.Name, &li.Quantity, &li.Amount); err != nil {
			return fmt.Errorf("scan line item: %w", err)
		}
		if parent, ok := index[parentID]; ok {
			parent.LineItems = append(parent.LineItems, li)
		}
	}
	return rows.Err()
}

func scanParent(rows pgx.Rows) (*order.ParentOrder, error) {
	o := &order.ParentOrder{}
	err := rows.Scan(
		&o.ID, &o.PublicOrderID, &o.PatientID, &o.Status, &o.CreatedAt,
		&o.Subtotal, &o.Discount, &o.DiscountByCode, &o.ShippingPrice, &o.Tax, &o.Amount,
	)
	if err != nil {
		return nil, fmt.Errorf("scan parent order: %w", err)
	}
	return o, nil
}

func scanParentRow(row pgx.Row) (*order.ParentOrder, error) {
	o := &order.ParentOrder{}
	err := row.Scan(
		&o.ID, &o.PublicOrderID, &o.PatientID, &o.Status, &o.CreatedAt,
		&o.Subtotal, &o.Discount, &o.DiscountByCode, &o.ShippingPrice, &o.Tax, &o.Amount,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}
