package scoring

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/modwatch/sentinel/internal/setup/config"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Scorer runs the three category extractors concurrently per request and
// aggregates their signals into a RiskAssessment. The classifier and
// sentiment stages are the only blocking points; each carries a per-stage
// timeout after which its contribution defaults to zero, degrading the
// assessment rather than failing the request.
type Scorer struct {
	extractor  *Extractor
	classifier *SpamClassifier
	sentiment  *SentimentScorer
	aggregator *Aggregator

	stageTimeout       time.Duration
	classifierBoost    float64
	sentimentBoost     float64
	sentimentThreshold float64

	sem      *semaphore.Weighted
	degraded atomic.Int64
	logger   *zap.Logger
}

// NewScorer trains the classifier and wires the extractor set.
func NewScorer(cfg *config.Moderation, logger *zap.Logger) *Scorer {
	aggregator := NewAggregator(
		Thresholds(cfg.Thresholds),
		LevelBounds(cfg.RiskLevels),
		logger,
	)

	return &Scorer{
		extractor:          NewExtractor(),
		classifier:         NewSpamClassifier(),
		sentiment:          NewSentimentScorer(),
		aggregator:         aggregator,
		stageTimeout:       time.Duration(cfg.StageTimeout) * time.Millisecond,
		classifierBoost:    cfg.ClassifierBoost,
		sentimentBoost:     cfg.SentimentBoost,
		sentimentThreshold: cfg.SentimentThreshold,
		sem:                semaphore.NewWeighted(cfg.MaxConcurrentScores),
		logger:             logger.Named("scorer"),
	}
}

// Aggregator exposes the scorer's aggregator so callers share one
// fallback-construction and bucketing path.
func (s *Scorer) Aggregator() *Aggregator {
	return s.aggregator
}

// DegradedStages returns how many scoring stages have been skipped due to
// timeouts since startup.
func (s *Scorer) DegradedStages() int64 {
	return s.degraded.Load()
}

// Score produces the RiskAssessment for one request. Category extractors
// run concurrently; a failure inside a single category is contained and
// contributes zero rather than aborting the assessment. The only error
// returned is context cancellation, which callers treat as a failed
// attempt eligible for retry.
func (s *Scorer) Score(ctx context.Context, req *types.ModerationRequest) (*types.RiskAssessment, error) {
	start := time.Now()
	content := req.Content

	var sig CategorySignals

	p := pool.New().WithContext(ctx)

	p.Go(func(ctx context.Context) error {
		sig.Toxicity = s.scoreToxicity(ctx, content)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		sig.Spam = s.scoreSpam(ctx, content)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		sig.NSFW = s.contained("nsfw", func() Signal { return s.extractor.NSFW(content) })
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("scoring interrupted: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring interrupted: %w", err)
	}

	return s.aggregator.Aggregate(req.ID, sig, time.Since(start)), nil
}

// scoreToxicity combines the pattern signal with the sentiment polarity
// stage. Strongly negative polarity adds a fixed increment.
func (s *Scorer) scoreToxicity(ctx context.Context, content string) Signal {
	signal := s.contained("toxicity", func() Signal { return s.extractor.Toxicity(content) })

	polarity, ok := s.runStage(ctx, "sentiment", func() float64 {
		return s.sentiment.Polarity(content)
	})
	if ok && polarity < s.sentimentThreshold {
		signal.Score += s.sentimentBoost
		signal.Flags = append(signal.Flags, fmt.Sprintf("toxicity/sentiment: polarity %.2f", polarity))
	}

	signal.Score = clampSignal(signal.Score)

	return signal
}

// scoreSpam combines the pattern signal with the statistical classifier
// stage. A spam prediction adds a fixed increment.
func (s *Scorer) scoreSpam(ctx context.Context, content string) Signal {
	signal := s.contained("spam", func() Signal { return s.extractor.Spam(content) })

	prediction, ok := s.runStage(ctx, "classifier", func() float64 {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return 0
		}
		defer s.sem.Release(1)

		if s.classifier.Predict(content) {
			return 1
		}

		return 0
	})
	if ok && prediction > 0 {
		signal.Score += s.classifierBoost
		signal.Flags = append(signal.Flags, "spam/classifier: statistical match")
	}

	signal.Score = clampSignal(signal.Score)

	return signal
}

// contained runs one extractor and converts a panic into a zero
// contribution. Fail-open: a broken category never blocks content flow.
func (s *Scorer) contained(category string, fn func() Signal) (signal Signal) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Extractor crashed",
				zap.String("category", category),
				zap.Any("panic", r))

			signal = Signal{Flags: []string{category + "/error: extractor skipped"}}
		}
	}()

	return fn()
}

// runStage executes a blocking stage under the per-stage timeout. On
// timeout or cancellation the stage is skipped, its contribution is zero,
// and the degradation counter advances.
func (s *Scorer) runStage(ctx context.Context, name string, fn func() float64) (float64, bool) {
	result := make(chan float64, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Stage crashed", zap.String("stage", name), zap.Any("panic", r))
				result <- 0
			}
		}()

		result <- fn()
	}()

	timer := time.NewTimer(s.stageTimeout)
	defer timer.Stop()

	select {
	case v := <-result:
		return v, true
	case <-timer.C:
	case <-ctx.Done():
	}

	s.degraded.Add(1)
	s.logger.Warn("Stage skipped", zap.String("stage", name))

	return 0, false
}

func clampSignal(v float64) float64 {
	if v > 1 {
		return 1
	}

	return v
}
