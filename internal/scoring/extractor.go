package scoring

import (
	"github.com/modwatch/sentinel/pkg/utils"
)

// Signal is one category's contribution to a risk assessment.
type Signal struct {
	Score float64
	Flags []string
}

// CategorySignals bundles the three per-category signals for aggregation.
type CategorySignals struct {
	Toxicity Signal
	Spam     Signal
	NSFW     Signal
}

// Extractor produces per-category risk signals from content using
// weighted pattern groups. All methods are pure functions of their
// input, so extractors can run concurrently per request and category.
type Extractor struct{}

// NewExtractor creates a pattern-based signal extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Toxicity scores violence, hate, harassment, and profanity indicators.
func (e *Extractor) Toxicity(content string) Signal {
	return scoreGroups("toxicity", content, toxicityGroups, nil)
}

// Spam scores urgency, promotional language, word repetition, and emoji density.
func (e *Extractor) Spam(content string) Signal {
	return scoreGroups("spam", content, spamGroups, spamFuncGroups)
}

// NSFW scores explicit terms and adult domain references.
func (e *Extractor) NSFW(content string) Signal {
	return scoreGroups("nsfw", content, nsfwGroups, nil)
}

func scoreGroups(category, content string, groups []PatternGroup, funcGroups []funcGroup) Signal {
	var signal Signal

	for i := range groups {
		score, flags := groups[i].score(category, content)
		signal.Score += score
		signal.Flags = append(signal.Flags, flags...)
	}

	for _, g := range funcGroups {
		matches, token := g.Matcher(content)
		if matches > 0 {
			signal.Score += float64(matches) * g.Weight
			signal.Flags = append(signal.Flags, category+"/"+g.Name+": "+token)
		}
	}

	signal.Score = utils.Clamp01(signal.Score)

	return signal
}
