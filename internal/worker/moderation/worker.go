// Package moderation contains the worker that drains the request queue,
// scores each request, and hands the result to enforcement.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modwatch/sentinel/internal/enforce"
	"github.com/modwatch/sentinel/internal/queue"
	"github.com/modwatch/sentinel/internal/scoring"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/modwatch/sentinel/internal/worker/core"
	"github.com/redis/rueidis"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	emptyQueueWait = 1 * time.Second
	errorWait      = 5 * time.Second
)

// Worker drains the priority lanes and runs the scoring and enforcement
// pipeline for each claimed item. Failed items go back through the queue
// with backoff; exhausted items receive a fallback decision so callers
// polling for a result always get one.
type Worker struct {
	queue       *queue.Manager
	scorer      *scoring.Scorer
	engine      *enforce.Engine
	reporter    *core.StatusReporter
	batchSize   int
	concurrency int
	itemTimeout time.Duration
	logger      *zap.Logger
}

// New creates a moderation worker.
func New(
	queueMgr *queue.Manager, scorer *scoring.Scorer, engine *enforce.Engine,
	statusClient rueidis.Client, cfg *config.Moderation, logger *zap.Logger,
) *Worker {
	return &Worker{
		queue:       queueMgr,
		scorer:      scorer,
		engine:      engine,
		reporter:    core.NewStatusReporter(statusClient, "moderation", logger),
		batchSize:   cfg.BatchSize,
		concurrency: cfg.WorkerCount,
		itemTimeout: time.Duration(cfg.SyncTimeout) * time.Millisecond,
		logger:      logger.Named("moderation_worker"),
	}
}

// Start runs the worker loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Moderation worker started", zap.String("workerID", w.reporter.GetWorkerID()))
	w.reporter.Start(ctx)

	defer w.reporter.Stop()

	for {
		if ctx.Err() != nil {
			w.logger.Info("Moderation worker stopped")
			return
		}

		w.reporter.SetHealthy(true)
		w.reporter.UpdateStatus("claiming batch")

		items, err := w.queue.NextBatch(ctx, w.batchSize)
		if err != nil {
			if errors.Is(err, queue.ErrEmptyBatch) {
				w.reporter.UpdateStatus("idle")
				w.wait(ctx, emptyQueueWait)

				continue
			}

			w.logger.Error("Failed to claim batch", zap.Error(err))
			w.reporter.SetHealthy(false)
			w.wait(ctx, errorWait)

			continue
		}

		w.reporter.UpdateStatus(fmt.Sprintf("processing %d items", len(items)))
		w.processBatch(ctx, items)
		w.reporter.IncrementProcessed(len(items))
	}
}

// processBatch runs claimed items through the pipeline concurrently.
func (w *Worker) processBatch(ctx context.Context, items []*queue.Item) {
	p := pool.New().WithContext(ctx).WithMaxGoroutines(w.concurrency)

	for _, item := range items {
		p.Go(func(ctx context.Context) error {
			w.processItem(ctx, item)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		w.logger.Error("Batch processing interrupted", zap.Error(err))
	}
}

// processItem scores one request and decides enforcement. A scoring
// failure sends the item back through the queue with backoff; once the
// queue dead-letters it, the fallback safe assessment becomes the
// caller-visible decision.
func (w *Worker) processItem(ctx context.Context, item *queue.Item) {
	itemCtx, cancel := context.WithTimeout(ctx, w.itemTimeout)
	defer cancel()

	req := item.Request

	assessment, err := w.scorer.Score(itemCtx, req)
	if err != nil {
		w.logger.Warn("Scoring failed",
			zap.String("requestID", req.ID),
			zap.Int("attempts", item.Attempts),
			zap.Error(err))

		retryErr := w.queue.Retry(ctx, item, err)
		if retryErr == nil {
			return
		}

		if !errors.Is(retryErr, queue.ErrDeadLettered) {
			w.logger.Error("Failed to reschedule item",
				zap.String("requestID", req.ID), zap.Error(retryErr))
			w.reporter.SetHealthy(false)

			return
		}

		// Exhausted: serve the fallback so the submitter is unblocked.
		assessment = scoring.Fallback(req.ID, "scoring attempts exhausted")
	}

	if _, err := w.engine.Decide(ctx, req, assessment); err != nil {
		w.logger.Error("Enforcement failed",
			zap.String("requestID", req.ID), zap.Error(err))
		w.reporter.SetHealthy(false)

		return
	}

	if assessment.ServiceAvailable {
		if err := w.queue.SetStatus(ctx, req.ID, queue.StatusComplete); err != nil {
			w.logger.Warn("Failed to set final status",
				zap.String("requestID", req.ID), zap.Error(err))
		}
	}
}

// wait sleeps for the duration unless the context ends first.
func (w *Worker) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
