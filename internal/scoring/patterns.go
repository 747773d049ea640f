package scoring

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternGroup is one weighted family of indicators for a category.
// Scoring is matchCount * weight, summed across groups, then clamped.
type PatternGroup struct {
	Name    string
	Weight  float64
	Pattern *regexp.Regexp
}

// matcherFunc handles indicators that RE2 cannot express, such as
// consecutive-word repetition (no backreferences) and emoji density.
type matcherFunc func(content string) (matches int, token string)

// funcGroup is a weighted indicator backed by a matcher function.
type funcGroup struct {
	Name    string
	Weight  float64
	Matcher matcherFunc
}

var toxicityGroups = []PatternGroup{
	{
		Name:    "violence",
		Weight:  0.4,
		Pattern: regexp.MustCompile(`(?i)\b(kill|die|murder|shoot|stab|attack|beat you|hurt you)\b`),
	},
	{
		Name:    "hate",
		Weight:  0.3,
		Pattern: regexp.MustCompile(`(?i)\b(hate|despise|disgust(?:s|ing)?)\b`),
	},
	{
		Name:    "harassment",
		Weight:  0.25,
		Pattern: regexp.MustCompile(`(?i)\b(stupid|idiots?|losers?|dumb|morons?|pathetic|worthless)\b`),
	},
	{
		Name:    "profanity",
		Weight:  0.2,
		Pattern: regexp.MustCompile(`(?i)\b(fuck(?:ing|ed)?|shit(?:ty)?|bitch(?:es)?|assholes?|bastards?|damn)\b`),
	},
}

var spamGroups = []PatternGroup{
	{
		Name:    "urgency",
		Weight:  0.2,
		Pattern: regexp.MustCompile(`(?i)\b(now|hurry|urgent|act fast|limited time|click here|last chance|don'?t miss)\b`),
	},
	{
		Name:    "promotional",
		Weight:  0.25,
		Pattern: regexp.MustCompile(`(?i)\b(free|buy|cheap|discount|offer|giveaway|winner|prize|money|promo|sale|subscribe)\b`),
	},
}

var spamFuncGroups = []funcGroup{
	{
		Name:    "excessive-repetition",
		Weight:  0.3,
		Matcher: matchWordRepetition,
	},
	{
		Name:    "excessive-emoji",
		Weight:  0.3,
		Matcher: matchEmojiDensity,
	},
}

var nsfwGroups = []PatternGroup{
	{
		Name:    "explicit-term",
		Weight:  0.5,
		Pattern: regexp.MustCompile(`(?i)\b(porn|nudes?|naked|xxx|nsfw|viagra|onlyfans|hentai|explicit)\b`),
	},
	{
		Name:    "adult-domain",
		Weight:  0.4,
		Pattern: regexp.MustCompile(`(?i)\b[\w-]+\.(?:xxx|adult|sex)\b|\b(?:pornhub|xvideos|onlyfans)\.com\b`),
	},
}

// score runs one pattern group over the content. Flags carry only the
// group identity and the matched token, never the full content.
func (g *PatternGroup) score(category, content string) (float64, []string) {
	matches := g.Pattern.FindAllString(content, -1)
	if len(matches) == 0 {
		return 0, nil
	}

	flags := make([]string, 0, len(matches))
	for _, m := range matches {
		flags = append(flags, fmt.Sprintf("%s/%s: %s", category, g.Name, strings.ToLower(m)))
	}

	return float64(len(matches)) * g.Weight, flags
}

// matchWordRepetition detects the same word appearing three or more times
// in a row, a common spam amplification trick.
func matchWordRepetition(content string) (int, string) {
	words := strings.Fields(strings.ToLower(content))

	run := 1
	for i := 1; i < len(words); i++ {
		word := strings.Trim(words[i], "!?.,:;")
		prev := strings.Trim(words[i-1], "!?.,:;")

		if word != "" && word == prev {
			run++
			if run == 3 {
				return 1, word
			}
		} else {
			run = 1
		}
	}

	return 0, ""
}

// matchEmojiDensity fires when the content carries three or more emoji runes.
func matchEmojiDensity(content string) (int, string) {
	count := 0

	for _, r := range content {
		if (r >= 0x1F000 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF) {
			count++
		}
	}

	if count >= 3 {
		return 1, fmt.Sprintf("%d emoji", count)
	}

	return 0, ""
}
