package queue

import (
	"context"
	"testing"
	"time"

	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
)

func mergeCommand(identity string) Command {
	return Command{
		Kind:    KindMergeBatch,
		Batch:   []*model.PerformanceRecord{{Identity: identity}},
		Weights: scoring.DefaultWeights(),
		Now:     time.Now(),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, mergeCommand("S1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	cmdChan := q.Dequeue(ctx)
	cmd := <-cmdChan
	if cmd.Kind != KindMergeBatch {
		t.Errorf("expected merge command, got kind %d", cmd.Kind)
	}
	if len(cmd.Batch) != 1 || cmd.Batch[0].Identity != "S1" {
		t.Errorf("expected batch with S1, got %+v", cmd.Batch)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, mergeCommand("S1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, mergeCommand("S2")) {
		t.Error("expected enqueue to succeed")
	}

	// Full queue must reject rather than block.
	if q.Enqueue(ctx, mergeCommand("S3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_RescoreCommand(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	reply := make(chan Result, 1)
	if !q.Enqueue(ctx, Command{Kind: KindRescore, Weights: scoring.Weights{Attendance: 1}, Reply: reply}) {
		t.Error("expected enqueue to succeed")
	}

	cmd := <-q.Dequeue(ctx)
	if cmd.Kind != KindRescore {
		t.Errorf("expected rescore command, got kind %d", cmd.Kind)
	}
	if cmd.Weights.Attendance != 1 {
		t.Errorf("expected weights to travel with the command, got %+v", cmd.Weights)
	}
	if cmd.Reply == nil {
		t.Error("expected reply channel to travel with the command")
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, mergeCommand("S1")) {
		t.Error("expected enqueue to succeed")
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if q.Enqueue(ctx, mergeCommand("S2")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Buffered commands drain, then the channel closes.
	cmdChan := q.Dequeue(ctx)
	timeout := time.After(time.Second)
	drained := 0
	for {
		select {
		case _, ok := <-cmdChan:
			if !ok {
				if drained != 1 {
					t.Errorf("expected 1 drained command, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to close within timeout")
		}
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	if !q.Enqueue(context.Background(), mergeCommand("S1")) {
		t.Error("expected enqueue to succeed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmdChan := q.Dequeue(ctx)
	cancel()

	// The forwarding goroutine stops once it observes cancellation; either the
	// buffered command arrives first or the channel closes.
	select {
	case <-cmdChan:
	case <-time.After(time.Second):
		t.Fatal("expected dequeue channel activity after cancellation")
	}
}
