package roulette

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	if _, ok := q.PopFront(); ok {
		t.Fatal("pop on empty queue should report absence")
	}

	q.Push(RedemptionEvent{ID: "1", Username: "a"})
	q.Push(RedemptionEvent{ID: "2", Username: "b"})
	q.Push(RedemptionEvent{ID: "1", Username: "a"})
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	var got []string
	for {
		e, ok := q.PopFront()
		if !ok {
			break
		}
		got = append(got, e.ID)
	}
	// 重複もそのまま残る
	if fmt.Sprint(got) != "[1 2 1]" {
		t.Fatalf("pop order = %v, want [1 2 1]", got)
	}
	if q.Len() != 0 {
		t.Fatalf("Len after drain = %d, want 0", q.Len())
	}
}

func TestQueue_ConcurrentPushKeepsEveryEvent(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(RedemptionEvent{ID: fmt.Sprintf("%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()
	if q.Len() != 800 {
		t.Fatalf("Len = %d, want 800", q.Len())
	}

	// 各ワーカー内の順序は保たれる
	last := map[int]int{}
	for {
		e, ok := q.PopFront()
		if !ok {
			break
		}
		var w, i int
		if _, err := fmt.Sscanf(e.ID, "%d-%d", &w, &i); err != nil {
			t.Fatalf("unexpected id %q: %v", e.ID, err)
		}
		if prev, seen := last[w]; seen && i <= prev {
			t.Fatalf("worker %d: %d popped after %d", w, i, prev)
		}
		last[w] = i
	}
}

func TestQueue_Pending(t *testing.T) {
	q := NewQueue()
	q.Push(RedemptionEvent{ID: "x"})
	q.Push(RedemptionEvent{ID: "y"})
	pending := q.Pending()
	if len(pending) != 2 || pending[0].ID != "x" {
		t.Fatalf("Pending = %+v, want [x y]", pending)
	}
	if q.Len() != 2 {
		t.Fatalf("Pending consumed the queue: Len = %d", q.Len())
	}
}

func TestNewRedemptionEvent_BlankSafe(t *testing.T) {
	e := NewRedemptionEvent(RedemptionEvent{Username: "   "})
	if e.Username != AnonymousUsername {
		t.Errorf("Username = %q, want %q", e.Username, AnonymousUsername)
	}
	if e.ID == "" {
		t.Error("ID should be generated")
	}
	if e.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	kept := NewRedemptionEvent(RedemptionEvent{ID: " abc ", Username: " Bob "})
	if kept.ID != "abc" || kept.Username != "Bob" {
		t.Fatalf("got id=%q username=%q, want abc/Bob", kept.ID, kept.Username)
	}
}
