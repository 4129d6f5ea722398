// Package order defines the composite order model.
package order

import "time"

// ChildOrder is one fulfillable item inside a parent order. Monetary
// fields are integer minor-currency units (cents); Amount-Discount is
// never negative. The optional timestamps are set at most once by the
// owning workflow.
type ChildOrder struct {
	ID            string       `json:"id"`
	ParentOrderID string       `json:"parent_order_id"`
	ProductType   ProductType  `json:"product_type"`
	Status        ChildStatus  `json:"status"`
	BillingCycle  BillingCycle `json:"billing_cycle"`
	Name          string       `json:"name,omitempty"`
	Amount        int64        `json:"amount"`
	Discount      int64        `json:"discount"`

	PaidAt               *time.Time `json:"paid_at,omitempty"`
	ApprovedAt           *time.Time `json:"approved_at,omitempty"`
	PausedAt             *time.Time `json:"paused_at,omitempty"`
	ShippedAt            *time.Time `json:"shipped_at,omitempty"`
	LabResultsReceivedAt *time.Time `json:"lab_results_received_at,omitempty"`
}

// LineItem is the flat item shape carried by legacy orders that predate
// child orders. Line items have no per-item status or product type.
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Amount   int64  `json:"amount"`
}

// Patient is the enriched patient summary attached to an order by the
// patient-profile service. Nil when enrichment was unavailable.
type Patient struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// ParentOrder is the purchase container a patient completes in one
// checkout. Children are owned exclusively by the parent; legacy orders
// carry LineItems instead and have no derivable status.
type ParentOrder struct {
	ID            string       `json:"id"`
	PublicOrderID string       `json:"public_order_id"`
	PatientID     string       `json:"patient_id"`
	Status        ParentStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`

	Subtotal       int64 `json:"subtotal"`
	Discount       int64 `json:"discount"`
	DiscountByCode int64 `json:"discount_by_code"`
	ShippingPrice  int64 `json:"shipping_price"`
	Tax            int64 `json:"tax"`
	Amount         int64 `json:"amount"`

	Children  []ChildOrder `json:"children,omitempty"`
	LineItems []LineItem   `json:"line_items,omitempty"`
	Patient   *Patient     `json:"patient,omitempty"`
}

// HasChildren reports whether the order carries the child-order shape.
// Legacy orders return false even when they have line items.
func (p *ParentOrder) HasChildren() bool {
	return len(p.Children) > 0
}

// ContainsProduct reports whether at least one child has the given
// product type. Always false for legacy orders; the prescription
// approximation for those lives in the view predicates.
func (p *ParentOrder) ContainsProduct(pt ProductType) bool {
	for i := range p.Children {
		if p.Children[i].ProductType == pt {
			return true
		}
	}
	return false
}
