package scoring

import (
	"strings"
	"unicode"

	"github.com/jbrukh/bayesian"
)

const (
	classSpam       bayesian.Class = "spam"
	classLegitimate bayesian.Class = "legitimate"
)

// spamCorpus and legitimateCorpus form the small labeled training set for
// the supplemental statistical classifier. The corpus is intentionally
// compact; the classifier only supplements the pattern groups, it never
// replaces them.
var spamCorpus = []string{
	"free money giveaway click here now to claim your prize",
	"buy cheap viagra online limited time offer",
	"congratulations you are a winner claim your free prize today",
	"act fast huge discount sale ends now buy today",
	"earn money from home click this link subscribe now",
	"hot singles in your area click here free registration",
	"limited time promo code free shipping buy now cheap deals",
	"double your money guaranteed investment opportunity act now",
	"you have been selected for a free gift card click to redeem",
	"cheap cheap cheap best prices online order now",
}

var legitimateCorpus = []string{
	"hello everyone hope you are having a great day",
	"thanks for the help with the build earlier",
	"does anyone want to queue up for a match tonight",
	"the new update looks really good so far",
	"good morning all see you at the event later",
	"can someone explain how the crafting system works",
	"congrats on hitting level fifty that took a while",
	"i uploaded the screenshots from yesterday to the gallery",
	"welcome to the server please read the rules channel",
	"what time does the tournament start this weekend",
}

// SpamClassifier wraps a naive Bayes text classifier trained at startup
// on the embedded corpus. Prediction is read-only and safe for
// concurrent use once trained.
type SpamClassifier struct {
	classifier *bayesian.Classifier
}

// NewSpamClassifier trains a classifier on the embedded labeled corpus.
func NewSpamClassifier() *SpamClassifier {
	c := bayesian.NewClassifier(classSpam, classLegitimate)

	for _, doc := range spamCorpus {
		c.Learn(tokenize(doc), classSpam)
	}

	for _, doc := range legitimateCorpus {
		c.Learn(tokenize(doc), classLegitimate)
	}

	return &SpamClassifier{classifier: c}
}

// Predict reports whether the content is more likely spam than legitimate.
func (s *SpamClassifier) Predict(content string) bool {
	tokens := tokenize(content)
	if len(tokens) == 0 {
		return false
	}

	_, likely, _ := s.classifier.LogScores(tokens)

	return likely == 0 // index of classSpam in constructor order
}

// tokenize lowercases and strips punctuation so training and prediction
// see the same token space.
func tokenize(content string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}

		return ' '
	}, content)

	return strings.Fields(cleaned)
}
