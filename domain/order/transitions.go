package order

// transitions is the only place that decides which status changes are legal.
// Cancelled and Returned are terminal.
var transitions = map[Status][]Status{
	StatusCreated:         {StatusPaymentReceived, StatusCancelled},
	StatusPaymentReceived: {StatusInvoiced},
	StatusInvoiced:        {StatusReturned},
	StatusCancelled:       nil,
	StatusReturned:        nil,
}

// IsAllowed reports whether an order in current may move to candidate.
func IsAllowed(current, candidate Status) bool {
	for _, next := range transitions[current] {
		if next == candidate {
			return true
		}
	}
	return false
}

// AllowedFrom lists the statuses reachable in one step from current.
func AllowedFrom(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}
