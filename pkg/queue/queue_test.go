package queue

import (
	"testing"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/event"
	"github.com/routesim/netsim/pkg/id"
)

func TestBasicFIFO(t *testing.T) {
	q := NewBasic()
	q.Push(event.NewOSPFStart(1, 2))
	q.Push(event.NewOSPFStart(3, 4))

	first, ok := q.Pop()
	if !ok || first.Src != id.RouterID(1) {
		t.Fatalf("expected first-pushed event first, got %+v", first)
	}
	second, ok := q.Pop()
	if !ok || second.Src != id.RouterID(3) {
		t.Fatalf("expected second event second, got %+v", second)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

// TestPrioritySessionFIFO verifies that events sharing a session key are
// never reordered relative to each other, even when a lower-priority
// event from a different session is pushed in between.
func TestPrioritySessionFIFO(t *testing.T) {
	q := NewPriority(func(e event.Event) int {
		if e.Kind == event.KindTimeout {
			return 0
		}
		return 1
	})

	sessionA1 := event.NewBGPUpdate(1, 2, nil, bgproute.RIBEntry{})
	sessionA2 := event.NewBGPWithdraw(1, 2, nil)
	other := event.NewTimeout(9, "retransmit")

	q.Push(sessionA1)
	q.Push(other)
	q.Push(sessionA2)

	first, _ := q.Pop()
	if first.Kind != event.KindTimeout {
		t.Fatalf("expected higher-priority timeout first, got %v", first.Kind)
	}
	second, _ := q.Pop()
	if second.Kind != event.KindBGPUpdate {
		t.Fatalf("session order violated: expected update before withdraw, got %v", second.Kind)
	}
	third, _ := q.Pop()
	if third.Kind != event.KindBGPWithdraw {
		t.Fatalf("session order violated: expected withdraw last, got %v", third.Kind)
	}
}
