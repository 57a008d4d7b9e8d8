package analytics

import (
	"cmp"
	"math"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/nDmitry/stackfeed/internal/entity"
)

const minKeywordRunes = 3

// keywords ranks terms by TF-IDF with every sentence treated as a document.
// tf is the share of all words taken by the term, idf is smoothed as
// ln((1+S)/(1+df))+1. Equal weights are ordered lexicographically.
func keywords(sentences [][]token, totalWords, limit int) []entity.Keyword {
	if totalWords == 0 || limit <= 0 {
		return []entity.Keyword{}
	}

	counts := map[string]int{}
	df := map[string]int{}

	for _, tokens := range sentences {
		seen := map[string]struct{}{}

		for _, t := range tokens {
			if !candidate(t.folded) {
				continue
			}

			counts[t.folded]++

			if _, ok := seen[t.folded]; !ok {
				seen[t.folded] = struct{}{}
				df[t.folded]++
			}
		}
	}

	n := float64(len(sentences))
	ranked := make([]entity.Keyword, 0, len(counts))

	for term, c := range counts {
		tf := float64(c) / float64(totalWords)
		idf := math.Log((1+n)/(1+float64(df[term]))) + 1

		ranked = append(ranked, entity.Keyword{Term: term, Weight: round(tf*idf, 6)})
	}

	slices.SortFunc(ranked, func(a, b entity.Keyword) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}

		return cmp.Compare(a.Term, b.Term)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

func candidate(term string) bool {
	if utf8.RuneCountInString(term) < minKeywordRunes {
		return false
	}

	if _, ok := stopwords[term]; ok {
		return false
	}

	for _, r := range term {
		if !unicode.IsDigit(r) {
			return true
		}
	}

	return false
}
