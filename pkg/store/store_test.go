package store

import (
	"reflect"
	"sync"
	"testing"
)

func TestUnseenListIsEmpty(t *testing.T) {
	s := New()

	if tasks := s.Tasks("nobody", "nothing"); len(tasks) != 0 {
		t.Errorf("expected empty list for unseen pair, got %v", tasks)
	}
}

func TestAddPreservesOrderAndCasing(t *testing.T) {
	s := New()

	s.Add("ss", "personal", "Buy Milk")
	s.Add("ss", "personal", "walk the dog")
	s.Add("ss", "personal", "Buy Milk")

	got := s.Tasks("ss", "personal")
	want := []string{"Buy Milk", "walk the dog", "Buy Milk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRemove(t *testing.T) {
	t.Run("removes first matching occurrence only", func(t *testing.T) {
		s := New()
		s.Add("u", "c", "one")
		s.Add("u", "c", "two")
		s.Add("u", "c", "one")

		if !s.Remove("u", "c", "one") {
			t.Fatal("expected removal to succeed")
		}

		got := s.Tasks("u", "c")
		want := []string{"two", "one"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("matching is case and whitespace insensitive", func(t *testing.T) {
		s := New()
		s.Add("u", "c", "Buy Milk")

		if !s.Remove("u", "c", "  buy milk ") {
			t.Error("expected normalized match to succeed")
		}
		if tasks := s.Tasks("u", "c"); len(tasks) != 0 {
			t.Errorf("expected empty list, got %v", tasks)
		}
	})

	t.Run("absent task leaves list unchanged", func(t *testing.T) {
		s := New()
		s.Add("u", "c", "keep")

		if s.Remove("u", "c", "gone") {
			t.Error("expected removal to report no match")
		}
		if got := s.Tasks("u", "c"); !reflect.DeepEqual(got, []string{"keep"}) {
			t.Errorf("list changed: %v", got)
		}
	})

	t.Run("unseen pair reports no match", func(t *testing.T) {
		s := New()
		if s.Remove("ghost", "c", "anything") {
			t.Error("expected no match for unseen pair")
		}
	})
}

func TestListsAreIsolatedPerUserAndCategory(t *testing.T) {
	s := New()
	s.Add("alice", "work", "report")
	s.Add("alice", "home", "dishes")
	s.Add("bob", "work", "review")

	if got := s.Tasks("alice", "work"); !reflect.DeepEqual(got, []string{"report"}) {
		t.Errorf("alice/work = %v", got)
	}
	if got := s.Tasks("bob", "work"); !reflect.DeepEqual(got, []string{"review"}) {
		t.Errorf("bob/work = %v", got)
	}
	if got := s.Tasks("bob", "home"); len(got) != 0 {
		t.Errorf("bob/home = %v", got)
	}
}

func TestTasksReturnsCopy(t *testing.T) {
	s := New()
	s.Add("u", "c", "original")

	got := s.Tasks("u", "c")
	got[0] = "mutated"

	if s.Tasks("u", "c")[0] != "original" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestChangeHooks(t *testing.T) {
	var events []ChangeEvent
	s := New(WithChangeHook(func(ev ChangeEvent) {
		events = append(events, ev)
	}))

	s.Add("u", "c", "task")
	s.Remove("u", "c", "task")
	s.Remove("u", "c", "task") // no match, no event

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Op != OpAdd || events[0].Task != "task" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Op != OpRemove || len(events[1].Tasks) != 0 {
		t.Errorf("unexpected second event: %+v", events[1])
	}
}

func TestAddHookAfterConstruction(t *testing.T) {
	s := New()
	s.Add("u", "c", "before hook")

	var events []ChangeEvent
	s.AddHook(func(ev ChangeEvent) {
		events = append(events, ev)
	})

	s.Add("u", "c", "after hook")

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Op != OpAdd || events[0].Task != "after hook" {
		t.Errorf("unexpected event: %+v", events[0])
	}
	if len(events[0].Tasks) != 2 {
		t.Errorf("expected 2 tasks in event state, got %d", len(events[0].Tasks))
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New()
	s.Add("u", "c", "task")

	snap := s.Snapshot()
	snap["u"]["c"][0] = "mutated"
	delete(snap, "u")

	if s.Tasks("u", "c")[0] != "task" {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Add("u", "c", "task")
				s.Tasks("u", "c")
				s.Remove("u", "c", "task")
			}
		}()
	}
	wg.Wait()

	if n := len(s.Tasks("u", "c")); n != 0 {
		t.Errorf("expected balanced add/remove, %d tasks left", n)
	}
}
