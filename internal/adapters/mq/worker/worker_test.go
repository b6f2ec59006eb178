package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cohortlab/vigil/internal/adapters/mq/queue"
	"github.com/cohortlab/vigil/internal/adapters/repository"
	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
	"github.com/cohortlab/vigil/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// recordingRoster captures the commands the applier forwards to the roster.
type recordingRoster struct {
	merges   int
	rescores int
	lastNow  time.Time
	lastW    scoring.Weights
}

func (r *recordingRoster) Merge(ctx context.Context, batch []*model.PerformanceRecord, weights scoring.Weights, now time.Time) repository.MergeStats {
	r.merges++
	r.lastNow = now
	r.lastW = weights
	return repository.MergeStats{Created: len(batch)}
}

func (r *recordingRoster) Rescore(ctx context.Context, weights scoring.Weights) int {
	r.rescores++
	r.lastW = weights
	return 7
}

func submit(t *testing.T, q queue.Queue, cmd queue.Command) queue.Result {
	t.Helper()
	cmd.Reply = make(chan queue.Result, 1)
	if !q.Enqueue(context.Background(), cmd) {
		t.Fatal("expected enqueue to succeed")
	}
	select {
	case res := <-cmd.Reply:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for applier reply")
		return queue.Result{}
	}
}

func TestApplier_MergeCommand(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	roster := &recordingRoster{}
	a := NewApplier(q, roster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	res := submit(t, q, queue.Command{
		Kind:    queue.KindMergeBatch,
		Batch:   []*model.PerformanceRecord{{Identity: "S1"}, {Identity: "S2"}},
		Weights: scoring.DefaultWeights(),
		Now:     now,
	})

	if res.Err != nil {
		t.Errorf("expected no error, got %v", res.Err)
	}
	if res.Created != 2 {
		t.Errorf("expected 2 created, got %d", res.Created)
	}
	if roster.merges != 1 {
		t.Errorf("expected 1 merge, got %d", roster.merges)
	}
	if !roster.lastNow.Equal(now) {
		t.Errorf("expected command timestamp to be used, got %v", roster.lastNow)
	}
}

func TestApplier_MergeCommandWithoutTimestamp(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	roster := &recordingRoster{}
	fixed := time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC)
	a := NewApplier(q, roster, WithClock(func() time.Time { return fixed }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	submit(t, q, queue.Command{
		Kind:  queue.KindMergeBatch,
		Batch: []*model.PerformanceRecord{{Identity: "S1"}},
	})

	if !roster.lastNow.Equal(fixed) {
		t.Errorf("expected applier clock to fill the timestamp, got %v", roster.lastNow)
	}
}

func TestApplier_RescoreCommand(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	roster := &recordingRoster{}
	a := NewApplier(q, roster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	w := scoring.Weights{Attendance: 1}
	res := submit(t, q, queue.Command{Kind: queue.KindRescore, Weights: w})

	if res.Err != nil {
		t.Errorf("expected no error, got %v", res.Err)
	}
	if res.Rescored != 7 {
		t.Errorf("expected 7 rescored, got %d", res.Rescored)
	}
	if roster.rescores != 1 {
		t.Errorf("expected 1 rescore, got %d", roster.rescores)
	}
	if roster.lastW != w {
		t.Errorf("expected weights to reach the roster, got %+v", roster.lastW)
	}
}

func TestApplier_UnknownCommand(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	roster := &recordingRoster{}
	a := NewApplier(q, roster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	res := submit(t, q, queue.Command{Kind: queue.Kind(99)})
	if res.Err == nil {
		t.Error("expected an error for an unknown command kind")
	}
	if roster.merges != 0 || roster.rescores != 0 {
		t.Error("expected no roster calls for an unknown command kind")
	}
}

func TestApplier_SequentialApplication(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(16))
	roster := &recordingRoster{}
	a := NewApplier(q, roster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	for i := 0; i < 10; i++ {
		submit(t, q, queue.Command{
			Kind:  queue.KindMergeBatch,
			Batch: []*model.PerformanceRecord{{Identity: "S1"}},
		})
	}

	if roster.merges != 10 {
		t.Errorf("expected 10 sequential merges, got %d", roster.merges)
	}
}

func TestApplier_Shutdown(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	roster := &recordingRoster{}
	a := NewApplier(q, roster)

	go a.Run(context.Background())

	// Let the loop start before stopping it.
	submit(t, q, queue.Command{Kind: queue.KindRescore})

	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

func TestApplier_StopsWhenQueueCloses(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	roster := &recordingRoster{}
	a := NewApplier(q, roster)

	done := make(chan struct{})
	go func() {
		a.Run(context.Background())
		close(done)
	}()

	submit(t, q, queue.Command{Kind: queue.KindRescore})
	if err := q.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the applier to stop after queue close")
	}
}

func TestApplier_ReplyNeverBlocks(t *testing.T) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(4))
	roster := &recordingRoster{}
	a := NewApplier(q, roster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	// A command with no reply channel must not wedge the loop.
	if !q.Enqueue(ctx, queue.Command{Kind: queue.KindRescore}) {
		t.Fatal("expected enqueue to succeed")
	}

	// The loop is still alive if a follow-up command completes.
	res := submit(t, q, queue.Command{Kind: queue.KindRescore})
	if res.Rescored != 7 {
		t.Errorf("expected the loop to keep processing, got %+v", res)
	}
}
