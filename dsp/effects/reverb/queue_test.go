package reverb

import (
	"runtime"
	"sync"
	"testing"
)

func TestRetireQueueOrderAndCapacity(t *testing.T) {
	q, err := NewRetireQueue(3)
	if err != nil {
		t.Fatal(err)
	}

	if q.Cap() != 4 {
		t.Fatalf("capacity %d, want 4", q.Cap())
	}

	rooms := make([]*Room, 5)
	for i := range rooms {
		rooms[i] = &Room{}
	}

	for i := range 4 {
		if !q.Push(rooms[i]) {
			t.Fatalf("push %d rejected", i)
		}
	}

	if q.Push(rooms[4]) {
		t.Fatal("push into a full queue succeeded")
	}

	if q.Len() != 4 {
		t.Fatalf("len %d, want 4", q.Len())
	}

	for i := range 4 {
		if got := q.Pop(); got != rooms[i] {
			t.Fatalf("pop %d returned the wrong room", i)
		}
	}

	if q.Pop() != nil {
		t.Fatal("pop from an empty queue returned a room")
	}
}

func TestRetireQueueConcurrent(t *testing.T) {
	q, err := NewRetireQueue(2)
	if err != nil {
		t.Fatal(err)
	}

	const count = 10000

	rooms := make([]*Room, count)
	for i := range rooms {
		rooms[i] = &Room{}
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for _, r := range rooms {
			for !q.Push(r) {
				runtime.Gosched()
			}
		}
	}()

	for i := 0; i < count; {
		r := q.Pop()
		if r == nil {
			runtime.Gosched()
			continue
		}

		if r != rooms[i] {
			t.Errorf("item %d out of order", i)
		}

		i++
	}

	wg.Wait()
}

func TestNewRetireQueueValidation(t *testing.T) {
	if _, err := NewRetireQueue(0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}
