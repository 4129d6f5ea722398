// Package order defines the composite order model: a parent purchase
// record bundling child orders with independent lifecycles, and the
// status lattice used to derive the parent's overall status.
package order

// ChildStatus represents the lifecycle status of a single child order.
// Transitions are driven by external collaborators (payment, fulfillment,
// review); this package only reads statuses.
type ChildStatus string

const (
	ChildPending        ChildStatus = "PENDING"
	ChildPaid           ChildStatus = "PAID"
	ChildProcessed      ChildStatus = "PROCESSED"
	ChildAwaitingReview ChildStatus = "AWAITING_REVIEW"
	ChildApproved       ChildStatus = "APPROVED"
	ChildDenied         ChildStatus = "DENIED"
	ChildActive         ChildStatus = "ACTIVE"
	ChildPaused         ChildStatus = "PAUSED"
	ChildCanceled       ChildStatus = "CANCELED"
	ChildSentToPharmacy ChildStatus = "SENT_TO_PHARMACY"
	ChildOrderShipped   ChildStatus = "ORDER_SHIPPED"
	ChildCompleted      ChildStatus = "COMPLETED"
	ChildPaymentFailed  ChildStatus = "PAYMENT_FAILED"
)

// ParentStatus represents the overall status of a parent order. When the
// order has children, the stored value is a cache of Derive over them and
// must never be treated as independent truth.
type ParentStatus string

const (
	ParentNew                ParentStatus = "NEW"
	ParentProcessing         ParentStatus = "PROCESSING"
	ParentAwaitingReview     ParentStatus = "AWAITING_REVIEW"
	ParentApproved           ParentStatus = "APPROVED"
	ParentActive             ParentStatus = "ACTIVE"
	ParentCompleted          ParentStatus = "COMPLETED"
	ParentPartiallyCompleted ParentStatus = "PARTIALLY_COMPLETED"
	ParentPaused             ParentStatus = "PAUSED"
	ParentCanceled           ParentStatus = "CANCELED"
	ParentDenied             ParentStatus = "DENIED"
	ParentPaymentFailed      ParentStatus = "PAYMENT_FAILED"
)

// ProductType identifies the category of a child order. Fixed at creation.
type ProductType string

const (
	ProductService     ProductType = "SERVICE"
	ProductMembership  ProductType = "MEMBERSHIP"
	ProductLabTest     ProductType = "LAB_TEST"
	ProductPhysical    ProductType = "PHYSICAL_PRODUCT"
	ProductAppointment ProductType = "APPOINTMENT"
)

// BillingCycle identifies how a child order is billed.
type BillingCycle string

const (
	CycleOneTime  BillingCycle = "ONE_TIME_PAYMENT"
	CycleMonthly  BillingCycle = "MONTHLY"
	CycleAnnual   BillingCycle = "ANNUAL"
	CycleEvery30  BillingCycle = "EVERY_DAY_30"
	CycleEvery60  BillingCycle = "EVERY_DAY_60"
	CycleEvery90  BillingCycle = "EVERY_DAY_90"
	CycleEvery120 BillingCycle = "EVERY_DAY_120"
	CycleEvery180 BillingCycle = "EVERY_DAY_180"
)
