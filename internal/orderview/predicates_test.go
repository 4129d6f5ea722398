package orderview

import (
	"errors"
	"testing"
	"time"

	"github.com/hedfirst/go-orderview/internal/domain/order"
)

var testNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func orderAt(id string, createdAt time.Time) *order.ParentOrder {
	return &order.ParentOrder{ID: id, CreatedAt: createdAt}
}

func orderWithChildren(id string, status order.ParentStatus, children ...order.ChildOrder) *order.ParentOrder {
	return &order.ParentOrder{ID: id, Status: status, CreatedAt: testNow, Children: children}
}

func TestTabPredicates(t *testing.T) {
	awaiting := orderWithChildren("o1", order.ParentAwaitingReview)
	failed := orderWithChildren("o2", order.ParentPaymentFailed)
	denied := orderWithChildren("o3", order.ParentDenied)
	active := orderWithChildren("o4", order.ParentActive)

	tests := []struct {
		tab   TabID
		order *order.ParentOrder
		want  bool
	}{
		{TabAll, awaiting, true},
		{TabAll, active, true},
		{TabNeedsReview, awaiting, true},
		{TabNeedsReview, failed, false},
		{TabPaymentFailed, failed, true},
		{TabPaymentFailed, denied, false},
		{TabDenied, denied, true},
		{TabDenied, awaiting, false},
	}

	for _, tt := range tests {
		pred, err := TabPredicate(tt.tab)
		if err != nil {
			t.Fatalf("TabPredicate(%s): %v", tt.tab, err)
		}
		if got := pred(tt.order); got != tt.want {
			t.Errorf("tab %s on %s = %v, want %v", tt.tab, tt.order.ID, got, tt.want)
		}
	}
}

func TestLabsReadyCrossChildJoin(t *testing.T) {
	received := testNow.Add(-48 * time.Hour)

	labWithResults := order.ChildOrder{ID: "c1", ProductType: order.ProductLabTest, Status: order.ChildCompleted, LabResultsReceivedAt: &received}
	labNoResults := order.ChildOrder{ID: "c2", ProductType: order.ProductLabTest, Status: order.ChildActive}
	rxAwaiting := order.ChildOrder{ID: "c3", ProductType: order.ProductPhysical, Status: order.ChildAwaitingReview}
	rxActive := order.ChildOrder{ID: "c4", ProductType: order.ProductPhysical, Status: order.ChildActive}

	tests := []struct {
		name     string
		children []order.ChildOrder
		want     bool
	}{
		{"both legs satisfied by different children", []order.ChildOrder{labWithResults, rxAwaiting}, true},
		{"lab results missing", []order.ChildOrder{labNoResults, rxAwaiting}, false},
		{"prescription not awaiting review", []order.ChildOrder{labWithResults, rxActive}, false},
		{"lab leg missing entirely", []order.ChildOrder{rxAwaiting}, false},
		{"prescription leg missing entirely", []order.ChildOrder{labWithResults}, false},
		{"no children", nil, false},
		{"extra children do not interfere", []order.ChildOrder{rxActive, labWithResults, labNoResults, rxAwaiting}, true},
	}

	pred, err := TabPredicate(TabLabsReady)
	if err != nil {
		t.Fatalf("TabPredicate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := orderWithChildren("o", order.ParentPartiallyCompleted, tt.children...)
			if got := pred(o); got != tt.want {
				t.Errorf("labs-ready = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsPredicates(t *testing.T) {
	withTypes := func(types ...order.ProductType) *order.ParentOrder {
		children := make([]order.ChildOrder, len(types))
		for i, pt := range types {
			children[i] = order.ChildOrder{ProductType: pt}
		}
		return orderWithChildren("o", order.ParentActive, children...)
	}

	tests := []struct {
		name   string
		filter ContainsFilter
		order  *order.ParentOrder
		want   bool
	}{
		{"prescription matches physical product", ContainsPrescription, withTypes(order.ProductPhysical, order.ProductService), true},
		{"prescription no physical product", ContainsPrescription, withTypes(order.ProductService), false},
		{"membership", ContainsMembership, withTypes(order.ProductMembership), true},
		{"lab kit", ContainsLabKit, withTypes(order.ProductLabTest, order.ProductPhysical), true},
		{"appointment", ContainsAppointment, withTypes(order.ProductAppointment), true},
		{"appointment absent", ContainsAppointment, withTypes(order.ProductLabTest), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := ContainsPredicate(tt.filter)
			if err != nil {
				t.Fatalf("ContainsPredicate: %v", err)
			}
			if got := pred(tt.order); got != tt.want {
				t.Errorf("contains %s = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestContainsLegacyLineItemOrders(t *testing.T) {
	legacy := &order.ParentOrder{
		ID:        "legacy-1",
		CreatedAt: testNow,
		LineItems: []order.LineItem{{ID: "li-1", Name: "Finasteride 1mg", Quantity: 1, Amount: 2500}},
	}

	// Legacy orders cannot express product types; they pass only the
	// prescription filter.
	for _, f := range []ContainsFilter{ContainsPrescription, ContainsMembership, ContainsLabKit, ContainsAppointment} {
		pred, err := ContainsPredicate(f)
		if err != nil {
			t.Fatalf("ContainsPredicate(%s): %v", f, err)
		}
		want := f == ContainsPrescription
		if got := pred(legacy); got != want {
			t.Errorf("legacy order contains %s = %v, want %v", f, got, want)
		}
	}

	// A legacy order with no line items at all matches nothing.
	empty := &order.ParentOrder{ID: "legacy-2", CreatedAt: testNow}
	pred, _ := ContainsPredicate(ContainsPrescription)
	if pred(empty) {
		t.Error("empty legacy order should not match prescription")
	}
}

func TestDatePredicateWindows(t *testing.T) {
	// now is 10:30 on Mar 15; local midnight is Mar 15 00:00.
	midnight := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	todayEarly := orderAt("today-early", midnight.Add(30*time.Minute))
	yesterdayLate := orderAt("yesterday-late", midnight.Add(-1*time.Hour)) // Mar 14 23:00
	yesterdayEarly := orderAt("yesterday-early", midnight.Add(-24*time.Hour))
	twoDaysAgo := orderAt("two-days", midnight.Add(-36*time.Hour))
	sixDaysAgo := orderAt("six-days", midnight.AddDate(0, 0, -6))
	tenDaysAgo := orderAt("ten-days", midnight.AddDate(0, 0, -10))
	fortyDaysAgo := orderAt("forty-days", midnight.AddDate(0, 0, -40))

	tests := []struct {
		filter DateFilterID
		order  *order.ParentOrder
		want   bool
	}{
		{DateToday, todayEarly, true},
		{DateToday, yesterdayLate, false},
		{DateYesterday, yesterdayLate, true},
		{DateYesterday, yesterdayEarly, true}, // band start is inclusive
		{DateYesterday, todayEarly, false},    // band end is exclusive
		{DateYesterday, twoDaysAgo, false},    // older orders must not match
		{DateLast7, sixDaysAgo, true},
		{DateLast7, tenDaysAgo, false},
		{DateLast30, tenDaysAgo, true},
		{DateLast30, fortyDaysAgo, false},
		{DateAll, fortyDaysAgo, true},
	}

	for _, tt := range tests {
		pred, err := DatePredicate(tt.filter, testNow)
		if err != nil {
			t.Fatalf("DatePredicate(%s): %v", tt.filter, err)
		}
		if got := pred(tt.order); got != tt.want {
			t.Errorf("date %s on %s = %v, want %v", tt.filter, tt.order.ID, got, tt.want)
		}
	}
}

func TestInvalidTokensRejected(t *testing.T) {
	if _, err := ParseTab("Needs-Review"); !errors.Is(err, ErrInvalidFilterToken) {
		t.Errorf("case-variant tab accepted, err = %v", err)
	}
	if _, err := ParseContains("prescriptions"); !errors.Is(err, ErrInvalidFilterToken) {
		t.Errorf("unknown contains accepted, err = %v", err)
	}
	if _, err := ParseDateFilter("14d"); !errors.Is(err, ErrInvalidFilterToken) {
		t.Errorf("unknown date accepted, err = %v", err)
	}
	if _, err := ParseSort("amount-low"); !errors.Is(err, ErrInvalidFilterToken) {
		t.Errorf("unknown sort accepted, err = %v", err)
	}

	if tab, err := ParseTab("needs-review"); err != nil || tab != TabNeedsReview {
		t.Errorf("ParseTab(needs-review) = %v, %v", tab, err)
	}
}
