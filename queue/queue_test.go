package queue

import (
	"sync"
	"testing"
)

func TestBFSDrainsInFIFOOrder(t *testing.T) {
	q := New[int](1)
	q.Push(Entry[int]{State: 1})
	q.Push(Entry[int]{State: 2})
	q.Push(Entry[int]{State: 3})

	for _, want := range []int{1, 2, 3} {
		e, ok := q.Pop()
		if !ok || e.State != want {
			t.Fatalf("expected %d, got %v (ok=%v)", want, e.State, ok)
		}
	}
}

func TestDFSDrainsInLIFOOrder(t *testing.T) {
	q := New[int](1, WithDiscipline(DFS))
	q.Push(Entry[int]{State: 1})
	q.Push(Entry[int]{State: 2})
	q.Push(Entry[int]{State: 3})

	for _, want := range []int{3, 2, 1} {
		e, ok := q.Pop()
		if !ok || e.State != want {
			t.Fatalf("expected %d, got %v (ok=%v)", want, e.State, ok)
		}
	}
}

func TestPopTerminatesWhenAllWorkersIdle(t *testing.T) {
	q := New[int](2)
	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := q.Pop()
			results[i] = ok
		}(i)
	}
	wg.Wait()
	if results[0] || results[1] {
		t.Fatalf("Pop should report ok=false once every worker is idle on an empty queue")
	}
}

func TestStrictBFSDoesNotSkipAhead(t *testing.T) {
	q := New[int](1, WithStrictBFS())
	q.Push(Entry[int]{State: 10, Depth: 0})
	e, ok := q.Pop()
	if !ok || e.State != 10 {
		t.Fatalf("expected the depth-0 entry first, got %v", e)
	}
	q.Push(Entry[int]{State: 20, Depth: 1})
	q.Push(Entry[int]{State: 30, Depth: 1})
	seen := map[int]bool{}
	for i := 0; i < 2; i++ {
		e, ok := q.Pop()
		if !ok {
			t.Fatalf("expected two more entries")
		}
		seen[e.State] = true
	}
	if !seen[20] || !seen[30] {
		t.Fatalf("expected both depth-1 entries to be drained, got %v", seen)
	}
}

func TestCloseUnblocksPendingPop(t *testing.T) {
	q := New[int](1)
	done := make(chan bool)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()
	q.Close()
	if ok := <-done; ok {
		t.Fatalf("Pop should return ok=false after Close")
	}
}
