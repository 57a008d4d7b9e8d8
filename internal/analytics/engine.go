// Package analytics derives deterministic text metrics from plain text:
// sentiment, readability, lexical diversity, keywords and raw structure.
package analytics

import (
	"math"

	"github.com/nDmitry/stackfeed/internal/entity"
	"golang.org/x/text/unicode/norm"
)

const DefaultKeywordCount = 10

// Engine is stateless and safe for concurrent use.
type Engine struct {
	keywordCount int
}

func New(keywordCount int) *Engine {
	if keywordCount <= 0 {
		keywordCount = DefaultKeywordCount
	}

	return &Engine{keywordCount: keywordCount}
}

// Analyze computes all metrics for text. It never fails: empty text yields
// zero counts, no keywords and a neutral sentiment.
func (e *Engine) Analyze(text string) entity.ContentAnalytics {
	text = norm.NFC.String(text)
	sentences := splitSentences(text)

	tokenized := make([][]token, len(sentences))
	distinct := map[string]struct{}{}
	words, syl := 0, 0

	for i, s := range sentences {
		tokenized[i] = tokenize(s)

		for _, t := range tokenized[i] {
			words++
			syl += syllables(t.folded)
			distinct[t.folded] = struct{}{}
		}
	}

	result := entity.ContentAnalytics{
		Sentiment:   sentiment(text, words),
		Readability: readability(words, len(sentences), syl),
		Keywords:    keywords(tokenized, words, e.keywordCount),
		Structure: entity.Structure{
			Words:     words,
			Sentences: len(sentences),
			Syllables: syl,
		},
	}

	if words > 0 {
		result.LexicalDiversity = round(float64(len(distinct))/float64(words), 3)
		result.Structure.AverageSentenceLength = round(float64(words)/float64(len(sentences)), 2)
	}

	return result
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p

	if r == 0 {
		// Avoid -0 in the output
		return 0
	}

	return r
}
