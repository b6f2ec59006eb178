// Package app provides the core business service that implements the
// dependencies required by the HTTP API: the ingestion-normalization-
// scoring-merge pipeline over an in-memory roster.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/cohortlab/vigil/internal/adapters/mq/queue"
	"github.com/cohortlab/vigil/internal/adapters/mq/worker"
	"github.com/cohortlab/vigil/internal/adapters/repository"
	"github.com/cohortlab/vigil/internal/domain/dedupe"
	"github.com/cohortlab/vigil/internal/domain/model"
	"github.com/cohortlab/vigil/internal/domain/scoring"
	"github.com/cohortlab/vigil/internal/domain/types"
	"github.com/cohortlab/vigil/internal/ingest"
	"github.com/cohortlab/vigil/pkg/logger"
	"github.com/cohortlab/vigil/pkg/metrics"
)

// Service owns the roster pipeline: normalizer, fingerprint guard, command
// queue, and the single applier goroutine that is the roster's only writer.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster     repository.Store
	uploads    dedupe.Tracker
	batchQueue queue.Queue
	applier    *worker.Applier
	normalizer *ingest.Normalizer

	// Configuration
	weights    scoring.Weights
	queueSize  int
	dedupeSize int
	clock      func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the capacity of the roster command queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the upload fingerprint cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithWeights sets the weight configuration active at startup.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the timestamp source used for merge trail entries.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:    scoring.DefaultWeights(),
		queueSize:  256,
		dedupeSize: 1024,
		clock:      time.Now,
		logger:     nil, // resolved at Start
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting roster service...")

	s.roster = repository.NewRoster(ctx)
	s.uploads = dedupe.NewInMemoryTracker(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.batchQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)
	s.normalizer = ingest.New(
		ingest.WithLogger(s.logger.Named("ingest")),
		ingest.WithClock(s.clock),
	)
	s.applier = worker.NewApplier(
		s.batchQueue,
		s.roster,
		worker.WithClock(s.clock),
		worker.WithLogger(s.logger.Named("applier")),
	)
	go s.applier.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "roster service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping roster service...")

	if s.batchQueue != nil {
		_ = s.batchQueue.Close()
	}
	if s.applier != nil {
		if err := s.applier.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "applier did not stop cleanly", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "roster service stopped")
}

// Ingest runs one extract file through the pipeline: normalize, fingerprint-
// check, then merge through the applier. The call returns once the merge has
// been applied, so the batch is one atomic logical step for the caller.
//
// An empty receipt (Parsed == 0) means nothing usable was found; reacting to
// that is the caller's concern, not an error.
func (s *Service) Ingest(ctx context.Context, fileText string) (types.IngestReceipt, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIngestLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !s.isStarted() {
		return types.IngestReceipt{}, ErrNotStarted
	}

	records := s.normalizer.Rows(ctx, fileText)
	receipt := types.IngestReceipt{Parsed: len(records)}
	if len(records) == 0 {
		return receipt, nil
	}

	fp := dedupe.Fingerprint(fileText)
	if s.uploads.SeenAndRecord(ctx, fp) {
		metrics.RecordDuplicateUpload()
		receipt.Duplicate = true
		s.logger.Info(ctx, "duplicate upload skipped",
			logger.Int("records", len(records)),
		)
		return receipt, nil
	}

	res, err := s.submit(ctx, queue.Command{
		Kind:    queue.KindMergeBatch,
		Batch:   records,
		Weights: s.Weights(ctx),
		Now:     s.clock(),
	})
	if err != nil {
		// Allow the same file to be retried after a failed submit.
		s.uploads.Unrecord(ctx, fp)
		return receipt, err
	}

	receipt.Created = res.Created
	receipt.Updated = res.Updated
	s.logger.Info(ctx, "ingested batch",
		logger.Int("parsed", receipt.Parsed),
		logger.Int("created", receipt.Created),
		logger.Int("updated", receipt.Updated),
	)
	return receipt, nil
}

// SetWeights swaps the active weight configuration and runs a synchronous
// rescore pass over the roster. Historical trails are untouched; only the
// derived indicators change. Returns the number of records rescored.
func (s *Service) SetWeights(ctx context.Context, w scoring.Weights) (int, error) {
	if !s.isStarted() {
		return 0, ErrNotStarted
	}

	s.mu.Lock()
	s.weights = w
	s.mu.Unlock()

	res, err := s.submit(ctx, queue.Command{
		Kind:    queue.KindRescore,
		Weights: w,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "weights updated; roster rescored",
		logger.Int("records", res.Rescored),
	)
	return res.Rescored, nil
}

// Weights returns the active weight configuration.
func (s *Service) Weights(ctx context.Context) scoring.Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights
}

// Roster returns summaries of up to limit records in insertion order.
// A non-positive limit returns everything.
func (s *Service) Roster(ctx context.Context, limit int) ([]types.RecordSummary, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}

	records := s.roster.List(ctx)
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	out := make([]types.RecordSummary, len(records))
	for i := range records {
		out[i] = summarize(&records[i])
	}
	return out, nil
}

// Record returns the full record for an identity.
func (s *Service) Record(ctx context.Context, identity string) (model.PerformanceRecord, error) {
	if !s.isStarted() {
		return model.PerformanceRecord{}, ErrNotStarted
	}
	return s.roster.Get(ctx, identity)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"weights":    s.weights,
	}
	if s.started {
		rosterSize := s.roster.Count(ctx)
		stats["rosterSize"] = rosterSize
		stats["queueLength"] = s.batchQueue.Len(ctx)
		stats["uploadsTracked"] = s.uploads.Size()

		metrics.UpdateRosterSize(rosterSize)
	}
	return stats
}

// submit enqueues a command with a fresh reply channel and waits for the
// applier to complete it.
func (s *Service) submit(ctx context.Context, cmd queue.Command) (queue.Result, error) {
	cmd.Reply = make(chan queue.Result, 1)
	if !s.batchQueue.Enqueue(ctx, cmd) {
		if s.batchQueue.IsClosed() {
			return queue.Result{}, queue.ErrQueueClosed
		}
		return queue.Result{}, ErrBackpressure
	}
	select {
	case res := <-cmd.Reply:
		return res, res.Err
	case <-ctx.Done():
		return queue.Result{}, ctx.Err()
	}
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func summarize(rec *model.PerformanceRecord) types.RecordSummary {
	return types.RecordSummary{
		Identity:       rec.Identity,
		DisplayName:    rec.DisplayName,
		Cohort:         string(rec.Cohort),
		AttendanceRate: rec.AttendanceRate,
		MissedSessions: rec.MissedSessions,
		RiskScore:      rec.RiskScore,
		AcademicPoints: rec.AcademicPoints,
	}
}
