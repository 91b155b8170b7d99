package events_test

import (
	"testing"

	"github.com/ardanlabs/utxocoin/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	evts := events.New()

	t.Log("Given the need to fan out node events.")
	{
		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")

		if again := evts.Acquire("one"); again != ch1 {
			t.Fatalf("\t%s\tShould return the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould return the same channel for the same id.", success)

		evts.Send("block mined")

		for i, ch := range []<-chan string{ch1, ch2} {
			if msg := <-ch; msg != "block mined" {
				t.Fatalf("\t%s\tSubscriber %d: Should receive the event, got %q.", failed, i, msg)
			}
		}
		t.Logf("\t%s\tShould deliver the event to every subscriber.", success)

		for range 200 {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block when a subscriber falls behind.", success)

		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a subscriber: %v", failed, err)
		}

		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould not release an unknown subscriber.", failed)
		}
		t.Logf("\t%s\tShould not release an unknown subscriber.", success)

		evts.Shutdown()

		if evts.Len() != 0 {
			t.Fatalf("\t%s\tShould remove every subscriber on shutdown.", failed)
		}

		for range ch2 {
		}
		t.Logf("\t%s\tShould close every channel on shutdown.", success)
	}
}
