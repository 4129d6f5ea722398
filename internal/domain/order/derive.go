package order

// Derive computes a parent order's overall status from its children.
// The result depends only on the multiset of child statuses: the rules
// below are evaluated in strict priority order and the first match wins.
//
//  1. any PAYMENT_FAILED                    -> PAYMENT_FAILED
//  2. any AWAITING_REVIEW                   -> AWAITING_REVIEW
//  3. all DENIED                            -> DENIED
//  4. any PAUSED                            -> PAUSED
//  5. all COMPLETED|PROCESSED               -> COMPLETED
//  6. all ACTIVE|COMPLETED|PROCESSED        -> ACTIVE
//  7. otherwise                             -> PARTIALLY_COMPLETED
//
// A parent with no children is trivially done. Derive never mutates its
// input and is total over any non-nil slice.
func Derive(children []ChildOrder) ParentStatus {
	if len(children) == 0 {
		return ParentCompleted
	}

	var anyPaymentFailed, anyAwaitingReview, anyPaused bool
	allDenied := true
	allDone := true
	allActiveOrDone := true

	for i := range children {
		switch children[i].Status {
		case ChildPaymentFailed:
			anyPaymentFailed = true
		case ChildAwaitingReview:
			anyAwaitingReview = true
		case ChildPaused:
			anyPaused = true
		}

		if children[i].Status != ChildDenied {
			allDenied = false
		}

		done := children[i].Status == ChildCompleted || children[i].Status == ChildProcessed
		if !done {
			allDone = false
			if children[i].Status != ChildActive {
				allActiveOrDone = false
			}
		}
	}

	switch {
	case anyPaymentFailed:
		return ParentPaymentFailed
	case anyAwaitingReview:
		return ParentAwaitingReview
	case allDenied:
		return ParentDenied
	case anyPaused:
		return ParentPaused
	case allDone:
		return ParentCompleted
	case allActiveOrDone:
		return ParentActive
	default:
		return ParentPartiallyCompleted
	}
}
