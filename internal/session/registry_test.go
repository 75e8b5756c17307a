package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()

	s1, created := r.GetOrCreate("CA1", "+1555")
	if !created {
		t.Fatal("expected first GetOrCreate to create")
	}
	s2, created := r.GetOrCreate("CA1", "+1666")
	if created {
		t.Fatal("expected second GetOrCreate to be a no-op")
	}
	if s1 != s2 {
		t.Fatal("expected the same session object")
	}
	if s2.PhoneNumber() != "+1555" {
		t.Errorf("second start must not reseed phone, got %s", s2.PhoneNumber())
	}
}

func TestRegistry_GetAndRemove(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing id to not be found")
	}

	r.GetOrCreate("CA1", "+1555")
	if _, ok := r.Get("CA1"); !ok {
		t.Error("expected CA1 to be found")
	}

	r.Remove("CA1")
	if _, ok := r.Get("CA1"); ok {
		t.Error("expected CA1 gone after Remove")
	}
	// Removing an unknown id is safe.
	r.Remove("CA1")
}

func TestRegistry_ConcurrentStartRace(t *testing.T) {
	r := NewRegistry()

	const racers = 32
	var wg sync.WaitGroup
	sessions := make([]*CallSession, racers)
	createdCount := make([]bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], createdCount[i] = r.GetOrCreate("CA-race", "+1555")
		}(i)
	}
	wg.Wait()

	creations := 0
	for i := 1; i < racers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("racing GetOrCreate returned different sessions")
		}
	}
	for _, c := range createdCount {
		if c {
			creations++
		}
	}
	if creations != 1 {
		t.Errorf("expected exactly one creation, got %d", creations)
	}
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry()

	const calls = 20
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("CA-%d", i)
			s, _ := r.GetOrCreate(id, fmt.Sprintf("+1%d", i))
			for turn := 0; turn < 5; turn++ {
				s.AppendTranscript(SpeakerCustomer, fmt.Sprintf("%s says %d", id, turn))
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != calls {
		t.Fatalf("expected %d sessions, got %d", calls, r.Len())
	}
	for i := 0; i < calls; i++ {
		id := fmt.Sprintf("CA-%d", i)
		s, ok := r.Get(id)
		if !ok {
			t.Fatalf("session %s missing", id)
		}
		entries := s.Transcript()
		if len(entries) != 5 {
			t.Fatalf("session %s: expected 5 entries, got %d", id, len(entries))
		}
		for _, e := range entries {
			if want := id + " says"; len(e.Text) < len(want) || e.Text[:len(want)] != want {
				t.Errorf("session %s observed foreign entry %q", id, e.Text)
			}
		}
	}
}
