package scoring

import (
	govader "github.com/jonreiter/govader"
)

// SentimentScorer wraps a VADER polarity analyzer. Strongly negative
// polarity is treated as a toxicity signal; positive or neutral polarity
// contributes nothing.
type SentimentScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewSentimentScorer creates a sentiment polarity scorer.
func NewSentimentScorer() *SentimentScorer {
	return &SentimentScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity returns the compound polarity in [-1, 1] for the content.
func (s *SentimentScorer) Polarity(content string) float64 {
	if content == "" {
		return 0
	}

	return s.analyzer.PolarityScores(content).Compound
}
