package order

import "testing"

func childrenWith(statuses ...ChildStatus) []ChildOrder {
	children := make([]ChildOrder, len(statuses))
	for i, s := range statuses {
		children[i] = ChildOrder{ID: "child-" + string(rune('a'+i)), Status: s}
	}
	return children
}

func TestDeriveEmptyChildren(t *testing.T) {
	if got := Derive(nil); got != ParentCompleted {
		t.Errorf("Derive(nil) = %s, want %s", got, ParentCompleted)
	}
	if got := Derive([]ChildOrder{}); got != ParentCompleted {
		t.Errorf("Derive(empty) = %s, want %s", got, ParentCompleted)
	}
}

func TestDerivePriority(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ChildStatus
		want     ParentStatus
	}{
		{"single payment failure dominates", []ChildStatus{ChildCompleted, ChildPaymentFailed, ChildActive}, ParentPaymentFailed},
		{"payment failure beats awaiting review", []ChildStatus{ChildAwaitingReview, ChildPaymentFailed}, ParentPaymentFailed},
		{"payment failure beats all denied", []ChildStatus{ChildDenied, ChildPaymentFailed, ChildDenied}, ParentPaymentFailed},
		{"awaiting review beats paused", []ChildStatus{ChildPaused, ChildAwaitingReview}, ParentAwaitingReview},
		{"paid awaiting active reviews", []ChildStatus{ChildPaid, ChildAwaitingReview, ChildActive}, ParentAwaitingReview},
		{"all denied", []ChildStatus{ChildDenied, ChildDenied}, ParentDenied},
		{"single denied", []ChildStatus{ChildDenied}, ParentDenied},
		{"denied plus active falls through", []ChildStatus{ChildDenied, ChildActive}, ParentPartiallyCompleted},
		{"any paused", []ChildStatus{ChildCompleted, ChildPaused}, ParentPaused},
		{"paused beats completion", []ChildStatus{ChildPaused, ChildCompleted, ChildCompleted}, ParentPaused},
		{"all completed", []ChildStatus{ChildCompleted, ChildCompleted}, ParentCompleted},
		{"completed and processed", []ChildStatus{ChildCompleted, ChildProcessed}, ParentCompleted},
		{"all processed", []ChildStatus{ChildProcessed}, ParentCompleted},
		{"active mix counts as active", []ChildStatus{ChildActive, ChildCompleted, ChildProcessed}, ParentActive},
		{"all active", []ChildStatus{ChildActive, ChildActive}, ParentActive},
		{"pending falls through", []ChildStatus{ChildPending, ChildCompleted}, ParentPartiallyCompleted},
		{"shipped falls through", []ChildStatus{ChildOrderShipped, ChildActive}, ParentPartiallyCompleted},
		{"canceled mix falls through", []ChildStatus{ChildCanceled, ChildActive}, ParentPartiallyCompleted},
		{"sent to pharmacy falls through", []ChildStatus{ChildSentToPharmacy}, ParentPartiallyCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(childrenWith(tt.statuses...)); got != tt.want {
				t.Errorf("Derive(%v) = %s, want %s", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	children := childrenWith(ChildPaid, ChildAwaitingReview, ChildActive)

	first := Derive(children)
	for i := 0; i < 10; i++ {
		if got := Derive(children); got != first {
			t.Fatalf("run %d: Derive = %s, want %s", i, got, first)
		}
	}
	if first != ParentAwaitingReview {
		t.Errorf("Derive = %s, want %s", first, ParentAwaitingReview)
	}
}

func TestDeriveOrderIndependent(t *testing.T) {
	forward := childrenWith(ChildPaymentFailed, ChildDenied, ChildActive, ChildPaused)
	reversed := childrenWith(ChildPaused, ChildActive, ChildDenied, ChildPaymentFailed)

	if a, b := Derive(forward), Derive(reversed); a != b {
		t.Errorf("order-dependent derivation: %s vs %s", a, b)
	}
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	children := childrenWith(ChildPaid, ChildPaused)
	before := make([]ChildOrder, len(children))
	copy(before, children)

	Derive(children)

	for i := range children {
		if children[i] != before[i] {
			t.Errorf("child %d mutated: %+v -> %+v", i, before[i], children[i])
		}
	}
}
