package orderview

import (
	"fmt"
	"sort"
	"time"

	"github.com/hedfirst/go-orderview/internal/domain/order"
)

// ViewConfig is the immutable filter and sort state for one pipeline
// run. The presentation layer holds it; the pipeline only reads it.
type ViewConfig struct {
	Tab      TabID
	Contains []ContainsFilter
	Date     DateFilterID
	Sort     SortID
	// Now anchors the relative date windows. The zero value means the
	// wall clock; tests pin it.
	Now time.Time
}

// View transforms the raw order snapshot into the exact ordered subset
// an operator sees: tab filter, contains filters (OR across the selected
// tokens), date filter, then a stable sort. The input slice is never
// mutated and the result is a fresh slice. Unknown tokens fail with
// ErrInvalidFilterToken before any filtering happens.
func View(orders []*order.ParentOrder, cfg ViewConfig) ([]*order.ParentOrder, error) {
	tabPred, err := TabPredicate(cfg.Tab)
	if err != nil {
		return nil, err
	}

	containsPreds := make([]Predicate, 0, len(cfg.Contains))
	for _, f := range cfg.Contains {
		p, err := ContainsPredicate(f)
		if err != nil {
			return nil, err
		}
		containsPreds = append(containsPreds, p)
	}

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	datePred, err := DatePredicate(cfg.Date, now)
	if err != nil {
		return nil, err
	}

	less, err := comparator(cfg.Sort)
	if err != nil {
		return nil, err
	}

	result := make([]*order.ParentOrder, 0, len(orders))
	for _, o := range orders {
		if !tabPred(o) {
			continue
		}
		if len(containsPreds) > 0 && !matchesAny(o, containsPreds) {
			continue
		}
		if !datePred(o) {
			continue
		}
		result = append(result, o)
	}

	// Stable: the snapshot arrives createdAt-descending from the store
	// and ties must keep that relative order.
	sort.SliceStable(result, func(i, j int) bool {
		return less(result[i], result[j])
	})

	return result, nil
}

func matchesAny(o *order.ParentOrder, preds []Predicate) bool {
	for _, p := range preds {
		if p(o) {
			return true
		}
	}
	return false
}

// comparator maps a sort token to its less function. "waiting-longest"
// and "oldest" are intentionally the same ordering: both mean longest
// time since creation first.
func comparator(s SortID) (func(a, b *order.ParentOrder) bool, error) {
	switch s {
	case SortNewest:
		return func(a, b *order.ParentOrder) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}, nil
	case SortOldest, SortWaitingLongest:
		return func(a, b *order.ParentOrder) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}, nil
	case SortAmountHigh:
		return func(a, b *order.ParentOrder) bool {
			return a.Amount > b.Amount
		}, nil
	}
	return nil, fmt.Errorf("%w: sort %q", ErrInvalidFilterToken, s)
}
