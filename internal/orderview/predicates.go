package orderview

import (
	"fmt"
	"time"

	"github.com/hedfirst/go-orderview/internal/domain/order"
)

// Predicate is a pure boolean test over a single parent order.
type Predicate func(*order.ParentOrder) bool

// childRequirement is one leg of a cross-child join rule: the order must
// have at least one child matching every field that is set.
type childRequirement struct {
	productType order.ProductType
	status      order.ChildStatus // empty matches any status
	labResults  bool              // require LabResultsReceivedAt to be set
}

func (r childRequirement) matchedBy(c *order.ChildOrder) bool {
	if c.ProductType != r.productType {
		return false
	}
	if r.status != "" && c.Status != r.status {
		return false
	}
	if r.labResults && c.LabResultsReceivedAt == nil {
		return false
	}
	return true
}

// labsReadyRule: a lab kit with results received plus a physical product
// held for review. Each leg may be satisfied by a different child.
var labsReadyRule = []childRequirement{
	{productType: order.ProductLabTest, labResults: true},
	{productType: order.ProductPhysical, status: order.ChildAwaitingReview},
}

func matchesJoinRule(o *order.ParentOrder, rule []childRequirement) bool {
	for _, req := range rule {
		found := false
		for i := range o.Children {
			if req.matchedBy(&o.Children[i]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TabPredicate returns the membership predicate for a tab.
func TabPredicate(tab TabID) (Predicate, error) {
	switch tab {
	case TabAll:
		return func(*order.ParentOrder) bool { return true }, nil
	case TabNeedsReview:
		return statusIs(order.ParentAwaitingReview), nil
	case TabPaymentFailed:
		return statusIs(order.ParentPaymentFailed), nil
	case TabDenied:
		return statusIs(order.ParentDenied), nil
	case TabLabsReady:
		return func(o *order.ParentOrder) bool {
			return matchesJoinRule(o, labsReadyRule)
		}, nil
	}
	return nil, fmt.Errorf("%w: tab %q", ErrInvalidFilterToken, tab)
}

func statusIs(s order.ParentStatus) Predicate {
	return func(o *order.ParentOrder) bool { return o.Status == s }
}

var containsProductTypes = map[ContainsFilter]order.ProductType{
	ContainsPrescription: order.ProductPhysical,
	ContainsMembership:   order.ProductMembership,
	ContainsLabKit:       order.ProductLabTest,
	ContainsAppointment:  order.ProductAppointment,
}

// ContainsPredicate returns a predicate testing whether the order has at
// least one child of the filter's product type. Legacy orders carrying
// line items instead of children cannot express product types; they are
// treated as containing physical products only, so they match just the
// prescription filter. That approximation is intentional.
func ContainsPredicate(f ContainsFilter) (Predicate, error) {
	pt, ok := containsProductTypes[f]
	if !ok {
		return nil, fmt.Errorf("%w: contains %q", ErrInvalidFilterToken, f)
	}
	return func(o *order.ParentOrder) bool {
		if !o.HasChildren() {
			return len(o.LineItems) > 0 && f == ContainsPrescription
		}
		return o.ContainsProduct(pt)
	}, nil
}

// DatePredicate returns a predicate testing the order's creation time
// against the window identified by filter, anchored at now truncated to
// local midnight. "yesterday" is the half-open band [midnight-24h,
// midnight): it excludes anything created today and anything older than
// one day, unlike the other windows which are plain cutoffs.
func DatePredicate(filter DateFilterID, now time.Time) (Predicate, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch filter {
	case DateAll:
		return func(*order.ParentOrder) bool { return true }, nil
	case DateToday:
		return createdNotBefore(midnight), nil
	case DateYesterday:
		start := midnight.AddDate(0, 0, -1)
		return func(o *order.ParentOrder) bool {
			return !o.CreatedAt.Before(start) && o.CreatedAt.Before(midnight)
		}, nil
	case DateLast7:
		return createdNotBefore(midnight.AddDate(0, 0, -7)), nil
	case DateLast30:
		return createdNotBefore(midnight.AddDate(0, 0, -30)), nil
	}
	return nil, fmt.Errorf("%w: date %q", ErrInvalidFilterToken, filter)
}

func createdNotBefore(cutoff time.Time) Predicate {
	return func(o *order.ParentOrder) bool { return !o.CreatedAt.Before(cutoff) }
}
