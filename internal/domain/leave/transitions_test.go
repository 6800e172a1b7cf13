package leave

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusPending, StatusCancelled},
		{StatusApproved, StatusCancellationPending},
		{StatusCancellationPending, StatusCancelled},
		{StatusCancellationPending, StatusApproved},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]Status{
		{StatusApproved, StatusRejected},
		{StatusApproved, StatusCancelled},
		{StatusRejected, StatusApproved},
		{StatusCancelled, StatusPending},
		{StatusPending, StatusCancellationPending},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}

	if !StatusRejected.Terminal() || !StatusCancelled.Terminal() || StatusPending.Terminal() {
		t.Fatal("unexpected terminal classification")
	}
}
