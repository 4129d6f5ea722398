package orderview

import "github.com/hedfirst/go-orderview/internal/domain/order"

// Expansion is the set of expanded order IDs. It is owned by the
// presentation layer and mutated only between pipeline runs; the
// pipeline itself never touches it.
type Expansion map[string]struct{}

// NewExpansion returns an empty expansion set.
func NewExpansion() Expansion {
	return make(Expansion)
}

// Toggle flips the expansion state of an order ID.
func (e Expansion) Toggle(id string) {
	if _, ok := e[id]; ok {
		delete(e, id)
	} else {
		e[id] = struct{}{}
	}
}

// Contains reports whether the ID is expanded.
func (e Expansion) Contains(id string) bool {
	_, ok := e[id]
	return ok
}

// Row is one display row: the order plus whether its children can be
// and currently are rendered.
type Row struct {
	Order      *order.ParentOrder `json:"order"`
	Expandable bool               `json:"expandable"`
	Expanded   bool               `json:"expanded"`
}

// BuildRows assembles the final row sequence from pipeline output. An
// order is expandable iff it carries a non-empty children list; legacy
// line-item orders are never expandable. Expansion state never changes
// membership or position in the sequence.
func BuildRows(orders []*order.ParentOrder, expanded Expansion) []Row {
	rows := make([]Row, len(orders))
	for i, o := range orders {
		expandable := o.HasChildren()
		rows[i] = Row{
			Order:      o,
			Expandable: expandable,
			Expanded:   expandable && expanded.Contains(o.ID),
		}
	}
	return rows
}
