// Package orderview implements the read-side view engine over a snapshot
// of parent orders: tab, contains and date filtering, sorting, per-tab
// counts and row-expansion metadata for the operator order list.
package orderview

import (
	"errors"
	"fmt"
)

// ErrInvalidFilterToken indicates an unknown tab, contains, date or sort
// token. Unknown tokens are rejected rather than defaulted: a silent
// default could hide orders from an operator reviewing them.
var ErrInvalidFilterToken = errors.New("invalid filter token")

// TabID identifies one of the predicate-defined view tabs.
type TabID string

const (
	TabAll           TabID = "all"
	TabNeedsReview   TabID = "needs-review"
	TabPaymentFailed TabID = "payment-failed"
	TabLabsReady     TabID = "labs-ready"
	TabDenied        TabID = "denied"
)

// Tabs lists all tabs in display order.
var Tabs = []TabID{TabAll, TabNeedsReview, TabPaymentFailed, TabLabsReady, TabDenied}

// ContainsFilter selects orders that include at least one child of a
// given product category.
type ContainsFilter string

const (
	ContainsPrescription ContainsFilter = "prescription"
	ContainsMembership   ContainsFilter = "membership"
	ContainsLabKit       ContainsFilter = "lab-kit"
	ContainsAppointment  ContainsFilter = "appointment"
)

// DateFilterID identifies a relative creation-date window.
type DateFilterID string

const (
	DateToday     DateFilterID = "today"
	DateYesterday DateFilterID = "yesterday"
	DateLast7     DateFilterID = "7d"
	DateLast30    DateFilterID = "30d"
	DateAll       DateFilterID = "all"
)

// SortID identifies the output ordering.
type SortID string

const (
	SortNewest         SortID = "newest"
	SortOldest         SortID = "oldest"
	SortAmountHigh     SortID = "amount-high"
	SortWaitingLongest SortID = "waiting-longest"
)

// ParseTab validates a tab token. Tokens are case-sensitive.
func ParseTab(s string) (TabID, error) {
	switch TabID(s) {
	case TabAll, TabNeedsReview, TabPaymentFailed, TabLabsReady, TabDenied:
		return TabID(s), nil
	}
	return "", fmt.Errorf("%w: tab %q", ErrInvalidFilterToken, s)
}

// ParseContains validates a contains-filter token.
func ParseContains(s string) (ContainsFilter, error) {
	switch ContainsFilter(s) {
	case ContainsPrescription, ContainsMembership, ContainsLabKit, ContainsAppointment:
		return ContainsFilter(s), nil
	}
	return "", fmt.Errorf("%w: contains %q", ErrInvalidFilterToken, s)
}

// ParseDateFilter validates a date-window token.
func ParseDateFilter(s string) (DateFilterID, error) {
	switch DateFilterID(s) {
	case DateToday, DateYesterday, DateLast7, DateLast30, DateAll:
		return DateFilterID(s), nil
	}
	return "", fmt.Errorf("%w: date %q", ErrInvalidFilterToken, s)
}

// ParseSort validates a sort token.
func ParseSort(s string) (SortID, error) {
	switch SortID(s) {
	case SortNewest, SortOldest, SortAmountHigh, SortWaitingLongest:
		return SortID(s), nil
	}
	return "", fmt.Errorf("%w: sort %q", ErrInvalidFilterToken, s)
}
