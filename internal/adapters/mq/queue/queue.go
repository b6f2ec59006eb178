// Package queue defines the contract for submitting roster commands to the
// single batch applier.
//
// Serializing every mutation (batch merges and rescore passes) through one
// bounded queue gives the roster exactly one writer while callers block on a
// per-command reply channel, so each command stays one atomic logical step
// from the caller's perspective.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
	"github.com/cohortlab/vigil/pkg/metrics"
)

// Default queue configuration constants.
const defaultQueueCapacity = 256

// Kind discriminates roster commands.
type Kind int

// Command kinds.
const (
	KindMergeBatch Kind = iota
	KindRescore
)

// Result is delivered on a command's reply channel once applied.
type Result struct {
	Created  int
	Updated  int
	Rescored int
	Err      error
}

// Command is one unit of roster mutation work.
type Command struct {
	Kind    Kind
	Batch   []*model.PerformanceRecord // merge batches only
	Weights scoring.Weights
	Now     time.Time
	Reply   chan Result // buffered by the producer; the applier never blocks on it
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a command to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, c Command) bool

	// Dequeue returns a channel that receives commands as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Command

	// Len returns the current number of queued commands.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	commands chan Command
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory command queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.commands = make(chan Command, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a command to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Command) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.commands <- c:
		metrics.RecordQueueEnqueue()
		q.publishGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives commands as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Command {
	out := make(chan Command)
	go func() {
		defer close(out)
		for c := range q.commands {
			select {
			case out <- c:
				metrics.RecordQueueDequeue()
				q.publishGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued commands.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.commands)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.commands)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) publishGauges() {
	size := len(q.commands)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
