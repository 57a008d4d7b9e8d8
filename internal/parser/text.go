package parser

import (
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
)

const (
	maxExcerptLength = 280
	ellipsis         = "…"
	punctuation      = ",.;:!? "
)

var (
	strictPolicy        = bluemonday.StrictPolicy()
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// plainText strips every tag from fragment and collapses whitespace
func plainText(fragment string) string {
	text := strictPolicy.Sanitize(fragment)
	text = html.UnescapeString(text)

	return collapseSpaces(text)
}

func collapseSpaces(text string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(text, " "))
}

// excerpt turns a feed description into a short plain-text excerpt.
// Empty descriptions stay absent.
func excerpt(fragment string) *string {
	text := plainText(fragment)

	if text == "" {
		return nil
	}

	text = truncateAtWordBoundary(text, maxExcerptLength)

	return &text
}

// truncateAtWordBoundary truncates text at a word boundary
func truncateAtWordBoundary(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	lastWordEnd := 0
	currentCount := 0

	for i, r := range text {
		currentCount++

		if unicode.IsSpace(r) {
			lastWordEnd = i
		}

		if currentCount >= limit {
			var truncated string

			if lastWordEnd > 0 {
				truncated = text[:lastWordEnd]
			} else {
				// No word boundary, cut at the limit
				truncated = text[:i]
			}

			return strings.TrimRight(truncated, punctuation) + ellipsis
		}
	}

	return text
}

// parseTimestamp parses s in any of the common feed and HTML date layouts.
// Unparseable or empty input yields nil, never a default.
func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)

	if s == "" {
		return nil
	}

	t, err := dateparse.ParseIn(s, time.UTC)

	if err != nil {
		return nil
	}

	return utc(&t)
}

func utc(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}

	u := t.UTC()

	return &u
}

// optional returns nil for blank strings
func optional(s string) *string {
	s = collapseSpaces(s)

	if s == "" {
		return nil
	}

	return &s
}
