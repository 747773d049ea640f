package moderation

import (
	"context"
	"sync/atomic"

	"github.com/modwatch/sentinel/internal/database/types/enum"
	"github.com/modwatch/sentinel/internal/worker/core"
	"go.uber.org/zap"
)

// counters tracks submission volume since startup.
type counters struct {
	submitted atomic.Int64
	completed atomic.Int64
	queued    atomic.Int64
}

// Stats is a point-in-time snapshot of pipeline state.
type Stats struct {
	Submitted      int64                 `json:"submitted"`
	Completed      int64                 `json:"completed"`
	Queued         int64                 `json:"queued"`
	DegradedStages int64                 `json:"degradedStages"`
	Degraded       bool                  `json:"degraded"`
	QueueLengths   map[enum.Priority]int `json:"queueLengths"`
	DeadLetters    int                   `json:"deadLetters"`
	Workers        []core.Status         `json:"workers"`
}

// GetStats assembles a snapshot of counters, queue depths, scoring
// degradation, and worker heartbeats.
func (s *Service) GetStats(ctx context.Context) *Stats {
	stats := &Stats{
		Submitted:      s.counters.submitted.Load(),
		Completed:      s.counters.completed.Load(),
		Queued:         s.counters.queued.Load(),
		DegradedStages: s.scorer.DegradedStages(),
		QueueLengths:   make(map[enum.Priority]int, 4),
	}

	stats.Degraded = stats.DegradedStages > s.cfg.Moderation.DegradedThreshold

	for _, priority := range enum.PrioritiesByRank() {
		length, err := s.queue.Length(ctx, priority)
		if err != nil {
			s.logger.Warn("Failed to read queue length",
				zap.String("priority", priority.String()), zap.Error(err))

			continue
		}

		stats.QueueLengths[priority] = length
	}

	deadLetters, err := s.queue.DeadLetterLength(ctx)
	if err != nil {
		s.logger.Warn("Failed to read dead-letter length", zap.Error(err))
	} else {
		stats.DeadLetters = deadLetters
	}

	if s.monitor != nil {
		workers, err := s.monitor.GetAllStatuses(ctx)
		if err != nil {
			s.logger.Warn("Failed to read worker statuses", zap.Error(err))
		} else {
			// Heartbeats outlive their workers; only live ones count.
			for _, worker := range workers {
				if worker.IsStale() {
					continue
				}

				stats.Workers = append(stats.Workers, worker)
			}
		}
	}

	return stats
}
