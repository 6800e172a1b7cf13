package leave

// transitions is the complete request lifecycle; anything absent is rejected.
var transitions = map[Status][]Status{
	StatusPending:             {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:            {StatusCancellationPending},
	StatusCancellationPending: {StatusCancelled, StatusApproved},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}
