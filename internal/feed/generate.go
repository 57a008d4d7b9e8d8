// Package feed re-syndicates crawl results as RSS or Atom.
package feed

import (
	"fmt"
	"strings"

	"github.com/gorilla/feeds"
	"github.com/nDmitry/stackfeed/internal/entity"
)

// Generator renders crawl results with gorilla/feeds
type Generator struct{}

// Generate creates a feed from a crawl result and returns it as a byte array
func (g *Generator) Generate(result *entity.CrawlResult, params *entity.FeedParams) ([]byte, error) {
	pub := result.Publication

	feed := &feeds.Feed{
		Title:       pub.Title,
		Link:        &feeds.Link{Href: pub.URL},
		Description: pub.Description,
	}

	if len(pub.Authors) > 0 {
		feed.Author = &feeds.Author{Name: pub.Authors[0]}
	}

	if result.Author != nil && result.Author.AvatarURL != nil {
		feed.Image = &feeds.Image{Url: *result.Author.AvatarURL, Title: pub.Title, Link: pub.URL}
	}

	for _, p := range result.Posts {
		s := p.Summary

		if shouldExcludePost(s.Title+" "+deref(s.Excerpt), params.ExcludeWords, params.ExcludeCaseSensitive) {
			continue
		}

		item := &feeds.Item{
			Id:          s.ID,
			Title:       s.Title,
			Link:        &feeds.Link{Href: s.ID},
			Description: deref(s.Excerpt),
			Content:     analyticsSummary(p),
		}

		if s.Author != nil {
			item.Author = &feeds.Author{Name: *s.Author}
		}

		if s.PublishedAt != nil {
			item.Created = *s.PublishedAt

			if feed.Created.IsZero() || s.PublishedAt.After(feed.Created) {
				feed.Created = *s.PublishedAt
			}
		}

		feed.Items = append(feed.Items, item)
	}

	if feed.Created.IsZero() {
		feed.Created = result.FetchedAt
	}

	var content string
	var err error

	switch params.Format {
	case entity.FormatRSS:
		content, err = feed.ToRss()
	case entity.FormatAtom:
		content, err = feed.ToAtom()
	default:
		return nil, fmt.Errorf("unsupported feed format: %s", params.Format)
	}

	if err != nil {
		return nil, fmt.Errorf("could not marshal publication %s to feed: %w", pub.Handle, err)
	}

	return []byte(content), nil
}

// analyticsSummary renders the analytics of a post as a short HTML block
func analyticsSummary(p entity.CrawledPost) string {
	if p.Analytics == nil {
		return ""
	}

	a := p.Analytics
	terms := make([]string, 0, len(a.Keywords))

	for _, k := range a.Keywords {
		terms = append(terms, k.Term)
	}

	var b strings.Builder

	b.WriteString("<ul>")

	if p.Digest != nil {
		fmt.Fprintf(&b, "<li>%d words, %d min read</li>", p.Digest.Words, p.Digest.MinutesToRead)
	}

	fmt.Fprintf(&b, "<li>Sentiment %.3f</li>", a.Sentiment.Compound)
	fmt.Fprintf(&b, "<li>Reading ease %.1f, grade %.1f</li>", a.Readability.Ease, a.Readability.Grade)

	if len(terms) > 0 {
		fmt.Fprintf(&b, "<li>Keywords: %s</li>", strings.Join(terms, ", "))
	}

	b.WriteString("</ul>")

	return b.String()
}

// shouldExcludePost checks if a post should be excluded based on exclude words
func shouldExcludePost(content string, excludeWords []string, caseSensitive bool) bool {
	if len(excludeWords) == 0 {
		return false
	}

	if !caseSensitive {
		content = strings.ToLower(content)
	}

	for _, word := range excludeWords {
		if !caseSensitive {
			word = strings.ToLower(word)
		}

		if strings.Contains(content, word) {
			return true
		}
	}

	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
