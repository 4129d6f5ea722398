package orderview

import "github.com/hedfirst/go-orderview/internal/domain/order"

// Counts computes the per-tab badge counts over the provider-scoped
// snapshot, upstream of tab filtering: each count answers "how many
// orders would appear if I selected this tab", independent of the tab
// currently active.
func Counts(orders []*order.ParentOrder) map[TabID]int {
	counts := make(map[TabID]int, len(Tabs))
	for _, tab := range Tabs {
		pred, err := TabPredicate(tab)
		if err != nil {
			continue // Tabs only holds known tabs
		}
		n := 0
		for _, o := range orders {
			if pred(o) {
				n++
			}
		}
		counts[tab] = n
	}
	return counts
}

// VisibleTabs returns the tabs to render, in display order. Tabs with a
// zero count are hidden except "all", which is always shown.
func VisibleTabs(counts map[TabID]int) []TabID {
	visible := make([]TabID, 0, len(Tabs))
	for _, tab := range Tabs {
		if tab == TabAll || counts[tab] > 0 {
			visible = append(visible, tab)
		}
	}
	return visible
}
