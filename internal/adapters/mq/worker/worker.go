// Package worker runs the single roster applier: the one goroutine allowed to
// mutate roster state. Commands arrive through the batch queue and each reply
// channel is completed exactly once, success or shutdown.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/cohortlab/vigil/internal/adapters/mq/queue"
	"github.com/cohortlab/vigil/internal/adapters/repository"
	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
	"github.com/cohortlab/vigil/pkg/logger"
)

// applierShutdownTimeout bounds how long Shutdown waits for the loop to drain.
const applierShutdownTimeout = 30 * time.Second

// Merger is the roster surface the applier mutates.
type Merger interface {
	Merge(ctx context.Context, batch []*model.PerformanceRecord, weights scoring.Weights, now time.Time) repository.MergeStats
	Rescore(ctx context.Context, weights scoring.Weights) int
}

// Dequeuer defines how the applier receives commands.
type Dequeuer interface {
	Dequeue(ctx context.Context) <-chan queue.Command
}

// Applier is the single writer for the roster.
type Applier struct {
	queue  Dequeuer
	roster Merger
	clock  func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Applier.
type Option func(*Applier)

// WithClock sets the timestamp source used for merge trail entries when a
// command carries no timestamp of its own.
func WithClock(clock func() time.Time) Option {
	return func(a *Applier) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the applier.
func WithLogger(l logger.Logger) Option {
	return func(a *Applier) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewApplier creates the roster applier.
func NewApplier(q Dequeuer, roster Merger, opts ...Option) *Applier {
	a := &Applier{
		queue:    q,
		roster:   roster,
		clock:    time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run processes commands until the queue closes or ctx is canceled.
func (a *Applier) Run(ctx context.Context) {
	defer close(a.done)

	if a.logger == nil {
		a.logger = logger.Get().Named("applier")
	}

	commands := a.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			a.apply(ctx, cmd)
		}
	}
}

// Shutdown gracefully stops the applier.
func (a *Applier) Shutdown(ctx context.Context) error {
	close(a.shutdown)

	waitCtx, cancel := context.WithTimeout(ctx, applierShutdownTimeout)
	defer cancel()

	select {
	case <-a.done:
		return nil
	case <-waitCtx.Done():
		a.logger.Warn(ctx, "applier shutdown timed out")
		return fmt.Errorf("applier shutdown timed out: %w", waitCtx.Err())
	}
}

// apply executes one command and completes its reply channel.
func (a *Applier) apply(ctx context.Context, cmd queue.Command) {
	var res queue.Result

	switch cmd.Kind {
	case queue.KindMergeBatch:
		now := cmd.Now
		if now.IsZero() {
			now = a.clock()
		}
		stats := a.roster.Merge(ctx, cmd.Batch, cmd.Weights, now)
		res.Created = stats.Created
		res.Updated = stats.Updated
		a.logger.Debug(ctx, "applied merge batch",
			logger.Int("records", len(cmd.Batch)),
			logger.Int("created", stats.Created),
			logger.Int("updated", stats.Updated),
		)
	case queue.KindRescore:
		res.Rescored = a.roster.Rescore(ctx, cmd.Weights)
		a.logger.Debug(ctx, "applied rescore pass",
			logger.Int("records", res.Rescored),
		)
	default:
		res.Err = fmt.Errorf("unknown command kind %d", cmd.Kind)
		a.logger.Error(ctx, "dropping unknown command", logger.Int("kind", int(cmd.Kind)))
	}

	if cmd.Reply != nil {
		select {
		case cmd.Reply <- res:
		default:
			// Producer went away; never block the applier on a reply.
		}
	}
}
