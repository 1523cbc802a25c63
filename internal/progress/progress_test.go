package progress

import "testing"

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusIdle:           "idle",
		StatusReadingIndexes: "reading_indexes",
		StatusDeepIndexing:   "deep_indexing",
		StatusDone:           "done",
		StatusError:          "error",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", st, got, want)
		}
	}
}

func TestIncrementIndexed(t *testing.T) {
	s := New()
	if s.Indexed() != 0 {
		t.Fatalf("got %d, want 0", s.Indexed())
	}
	if v := s.IncrementIndexed(); v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
	if v := s.IncrementIndexed(); v != 2 {
		t.Fatalf("got %d, want 2", v)
	}
}

func TestSetErrorSetsStatus(t *testing.T) {
	s := New()
	s.SetStatus(StatusDeepIndexing)
	s.SetError("boom")
	if s.Status() != StatusError {
		t.Fatalf("got status %v, want error", s.Status())
	}
	if s.Error() != "boom" {
		t.Fatalf("got error %q, want boom", s.Error())
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	s := New()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.SetTotal(10)
	select {
	case snap := <-ch:
		if snap.Total != 10 {
			t.Fatalf("got total=%d, want 10", snap.Total)
		}
	default:
		t.Fatal("expected a snapshot on subscribe channel")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := New()
	ch, unsubscribe := s.Subscribe()
	unsubscribe()

	s.SetTotal(5)
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestSlowSubscriberDropsUpdatesWithoutBlocking(t *testing.T) {
	s := New()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	for i := 0; i < 100; i++ {
		s.SetTotal(uint64(i))
	}
	// Must not have blocked; draining once is enough to prove liveness.
	<-ch
}
