package crawler

import (
	"math"
	"slices"
	"time"

	"github.com/nDmitry/stackfeed/internal/entity"
)

// Cadence computes the mean gap in days between consecutive posts. Feeds
// are not guaranteed to be chronological, so timestamps are sorted newest
// first before the gaps are taken. Posts without a timestamp are ignored.
func Cadence(posts []entity.PostSummary) entity.Cadence {
	var stamps []time.Time

	for _, p := range posts {
		if p.PublishedAt != nil {
			stamps = append(stamps, *p.PublishedAt)
		}
	}

	if len(stamps) < 2 {
		return entity.Cadence{Status: entity.CadenceInsufficientData, Samples: len(stamps)}
	}

	slices.SortFunc(stamps, func(a, b time.Time) int {
		return b.Compare(a)
	})

	// The consecutive gaps of a sorted series sum to its span
	span := stamps[0].Sub(stamps[len(stamps)-1])
	days := round(span.Hours()/24/float64(len(stamps)-1), 3)

	return entity.Cadence{Status: entity.CadenceOK, MeanGapDays: &days, Samples: len(stamps)}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
