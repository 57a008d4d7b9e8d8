package analytics

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// token is a word of the text in its case-folded form
type token struct {
	folded string
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isCJKTerminal(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func isCloser(r rune) bool {
	return strings.ContainsRune(`"'”’»)]`, r)
}

func isOpener(r rune) bool {
	return strings.ContainsRune(`"'“‘«([`, r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

// startsSentence reports whether r can open a new sentence: an upper-case
// or caseless letter, or a digit.
func startsSentence(r rune) bool {
	if unicode.IsDigit(r) || unicode.IsUpper(r) || unicode.IsTitle(r) {
		return true
	}

	return unicode.IsLetter(r) && !unicode.IsLower(r)
}

// splitSentences splits NFC-normalized text into sentences. Sentences
// without a single word are dropped.
func splitSentences(text string) []string {
	rs := []rune(text)

	var (
		out   []string
		start int
	)

	flush := func(end int) {
		s := strings.TrimSpace(string(rs[start:end]))

		if len(words(s)) > 0 {
			out = append(out, s)
		}

		start = end
	}

	for i := 0; i < len(rs); i++ {
		if isCJKTerminal(rs[i]) {
			j := skip(rs, i+1, func(r rune) bool { return isCJKTerminal(r) || isCloser(r) })
			flush(j)
			i = j - 1

			continue
		}

		if !isTerminal(rs[i]) {
			continue
		}

		j := skip(rs, i+1, isTerminal)
		j = skip(rs, j, isCloser)

		if j == len(rs) {
			flush(j)
			break
		}

		if !unicode.IsSpace(rs[j]) {
			i = j - 1
			continue
		}

		k := skip(rs, j, unicode.IsSpace)
		k = skip(rs, k, isOpener)

		if k == len(rs) || startsSentence(rs[k]) {
			flush(j)
		}

		i = j - 1
	}

	if start < len(rs) {
		flush(len(rs))
	}

	return out
}

func skip(rs []rune, i int, f func(rune) bool) int {
	for i < len(rs) && f(rs[i]) {
		i++
	}

	return i
}

// words returns runs of letters, marks and digits. An apostrophe between
// two letters stays inside the word and is normalized to '.
func words(text string) []string {
	rs := []rune(text)

	var (
		out     []string
		current strings.Builder
	)

	emit := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for i, r := range rs {
		switch {
		case isWordRune(r):
			current.WriteRune(r)
		case isApostrophe(r) && current.Len() > 0 && i > 0 && unicode.IsLetter(rs[i-1]) &&
			i+1 < len(rs) && unicode.IsLetter(rs[i+1]):
			current.WriteRune('\'')
		default:
			emit()
		}
	}

	emit()

	return out
}

// tokenize returns the case-folded words of text
func tokenize(text string) []token {
	fold := cases.Fold()
	ws := words(text)
	out := make([]token, len(ws))

	for i, w := range ws {
		out[i] = token{folded: fold.String(w)}
	}

	return out
}

// stripDiacritics maps "café" to "cafe" so syllable rules see Latin vowels
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)

	if err != nil {
		return s
	}

	return out
}
