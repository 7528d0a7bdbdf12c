package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/cogtrain/internal/domain/model"
)

func outcome(user string) model.Outcome {
	return model.Outcome{UserID: user, GameID: "stroop", Context: model.Mid, Action: model.Hard, Reward: 1}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, outcome("u1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue()
	if got.UserID != "u1" || got.Action != model.Hard {
		t.Errorf("unexpected outcome %+v", got)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, outcome("u1")) || !q.Enqueue(ctx, outcome("u2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, outcome("u3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	const producers, perProducer = 10, 100

	var consumed sync.WaitGroup
	consumed.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for range q.Dequeue() {
				consumed.Done()
			}
		}()
	}

	var produced sync.WaitGroup
	for i := 0; i < producers; i++ {
		produced.Add(1)
		go func(id int) {
			defer produced.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, outcome(fmt.Sprintf("u%d-%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	produced.Wait()
	consumed.Wait()

	if l := q.Len(); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
	_ = q.Close()
}

func TestInMemoryQueue_CloseKeepsQueuedOutcomes(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	q.Enqueue(ctx, outcome("u1"))
	q.Enqueue(ctx, outcome("u2"))
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if q.Enqueue(ctx, outcome("u3")) {
		t.Error("expected enqueue to fail after closing")
	}

	var drained []string
	for o := range q.Dequeue() {
		drained = append(drained, o.UserID)
	}
	if len(drained) != 2 || drained[0] != "u1" || drained[1] != "u2" {
		t.Errorf("drained %v, want [u1 u2]", drained)
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got %v", err)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Enqueue(context.Background(), outcome("u1"))
	if q.Enqueue(ctx, outcome("u2")) {
		t.Error("expected enqueue to fail on a full queue with a cancelled context")
	}
}
