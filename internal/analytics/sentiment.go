package analytics

import (
	"math"
	"sync"

	"github.com/jonreiter/govader"
	"github.com/nDmitry/stackfeed/internal/entity"
)

// analyzer loads the valence lexicon once per process. PolarityScores only
// reads it, so the analyzer is shared by every Engine.
var analyzer = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// sentiment scores text with the VADER lexicon and rules. Text without
// words is fully neutral.
func sentiment(text string, words int) entity.Sentiment {
	if words == 0 {
		return entity.Sentiment{Neutral: 1}
	}

	scores := analyzer().PolarityScores(text)

	positive := round(scores.Positive, 3)
	// Rounding must not push the fractions past 1
	negative := math.Min(round(scores.Negative, 3), round(1-positive, 3))

	return entity.Sentiment{
		Positive: positive,
		Negative: negative,
		Neutral:  math.Max(0, round(1-positive-negative, 3)),
		Compound: round(math.Max(-1, math.Min(1, scores.Compound)), 4),
	}
}
