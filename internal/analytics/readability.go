package analytics

import (
	"strings"

	"github.com/nDmitry/stackfeed/internal/entity"
)

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiouy", r)
}

func isConsonant(r rune) bool {
	return r >= 'a' && r <= 'z' && !isVowel(r)
}

// syllables estimates the syllable count of a case-folded word
func syllables(word string) int {
	w := []rune(stripDiacritics(word))
	n := 0
	inGroup := false

	for _, r := range w {
		v := isVowel(r)

		if v && !inGroup {
			n++
		}

		inGroup = v
	}

	if n == 0 {
		return 1
	}

	l := len(w)

	switch {
	case l >= 2 && w[l-1] == 'e' && isConsonant(w[l-2]):
		// Silent final e, except consonant + le as in "table"
		if !(w[l-2] == 'l' && l >= 3 && isConsonant(w[l-3])) {
			n--
		}
	case l >= 3 && w[l-2] == 'e' && w[l-1] == 'd' && isConsonant(w[l-3]):
		if w[l-3] != 't' && w[l-3] != 'd' {
			n--
		}
	case l >= 3 && w[l-2] == 'e' && w[l-1] == 's' && isConsonant(w[l-3]):
		if !sibilantBefore(w[:l-2]) {
			n--
		}
	}

	return max(n, 1)
}

// sibilantBefore reports whether stem ends in s, x, z, ch, sh, g or c,
// after which -es is pronounced.
func sibilantBefore(stem []rune) bool {
	last := stem[len(stem)-1]

	switch last {
	case 's', 'x', 'z', 'g', 'c':
		return true
	case 'h':
		return len(stem) >= 2 && (stem[len(stem)-2] == 'c' || stem[len(stem)-2] == 's')
	}

	return false
}

// readability computes the Flesch scores from raw counts. Both are 0 when
// there are no words or no sentences.
func readability(words, sentences, syllables int) entity.Readability {
	if words == 0 || sentences == 0 {
		return entity.Readability{}
	}

	wps := float64(words) / float64(sentences)
	spw := float64(syllables) / float64(words)

	return entity.Readability{
		Ease:  round(206.835-1.015*wps-84.6*spw, 2),
		Grade: round(0.39*wps+11.8*spw-15.59, 2),
	}
}
