// Package parser turns raw upstream payloads (syndication feeds, article and
// profile pages, notes JSON) into entity records. It never performs I/O.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	jsonfeed "github.com/mmcdole/gofeed/json"
	"github.com/mmcdole/gofeed/rss"
	"github.com/nDmitry/stackfeed/internal/entity"
)

// ErrUnknownFeedType is wrapped by the ParseError returned for documents
// that are neither RSS, Atom nor JSON Feed.
var ErrUnknownFeedType = errors.New("no recognizable item or entry container")

// FeedDocument is a parsed publication feed.
type FeedDocument struct {
	Metadata entity.PublicationMetadata
	// In feed order.
	Posts []entity.PostSummary
	// Items dropped for lacking an absolute link.
	SkipCount int
}

// dialect parses one syndication format into the common gofeed model
type dialect func(r io.Reader) (*gofeed.Feed, error)

var dialects = map[gofeed.FeedType]dialect{
	gofeed.FeedTypeRSS: func(r io.Reader) (*gofeed.Feed, error) {
		f, err := (&rss.Parser{}).Parse(r)

		if err != nil {
			return nil, err
		}

		return (&gofeed.DefaultRSSTranslator{}).Translate(f)
	},
	gofeed.FeedTypeAtom: func(r io.Reader) (*gofeed.Feed, error) {
		f, err := (&atom.Parser{}).Parse(r)

		if err != nil {
			return nil, err
		}

		return (&gofeed.DefaultAtomTranslator{}).Translate(f)
	},
	gofeed.FeedTypeJSON: func(r io.Reader) (*gofeed.Feed, error) {
		f, err := (&jsonfeed.Parser{}).Parse(r)

		if err != nil {
			return nil, err
		}

		return (&gofeed.DefaultJSONTranslator{}).Translate(f)
	},
}

// ParseFeed parses an RSS, Atom or JSON feed. Items without a usable
// absolute link are skipped and counted, all other gaps leave the
// corresponding field empty.
func ParseFeed(raw []byte, sourceURL string) (*FeedDocument, error) {
	feedType := gofeed.DetectFeedType(bytes.NewReader(raw))
	parse, ok := dialects[feedType]

	if !ok {
		return nil, &entity.ParseError{Source: sourceURL, Err: ErrUnknownFeedType}
	}

	feed, err := parse(bytes.NewReader(raw))

	if err != nil {
		return nil, &entity.ParseError{Source: sourceURL, Err: fmt.Errorf("could not parse feed: %w", err)}
	}

	doc := &FeedDocument{
		Metadata: entity.PublicationMetadata{
			Title:       collapseSpaces(feed.Title),
			Description: plainText(feed.Description),
			URL:         publicationURL(feed, sourceURL),
			Authors:     []string{},
		},
		Posts: make([]entity.PostSummary, 0, len(feed.Items)),
	}

	for _, p := range feed.Authors {
		doc.Metadata.Authors = appendName(doc.Metadata.Authors, p)
	}

	for _, item := range feed.Items {
		if item == nil {
			doc.SkipCount++
			continue
		}

		post, ok := summarize(item)

		if !ok {
			doc.SkipCount++
			continue
		}

		if len(feed.Authors) == 0 && post.Author != nil && !slices.Contains(doc.Metadata.Authors, *post.Author) {
			doc.Metadata.Authors = append(doc.Metadata.Authors, *post.Author)
		}

		doc.Posts = append(doc.Posts, post)
	}

	return doc, nil
}

func summarize(item *gofeed.Item) (entity.PostSummary, bool) {
	post := entity.PostSummary{
		ID:          itemLink(item),
		Title:       plainText(item.Title),
		PublishedAt: itemTime(item),
	}

	if post.Validate() != nil {
		return entity.PostSummary{}, false
	}

	description := item.Description

	if description == "" {
		description = item.Content
	}

	post.Excerpt = excerpt(description)

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		post.Author = optional(item.Authors[0].Name)
	}

	for _, c := range item.Categories {
		c = collapseSpaces(c)

		if c != "" && !slices.Contains(post.Tags, c) {
			post.Tags = append(post.Tags, c)
		}
	}

	return post, true
}

func itemLink(item *gofeed.Item) string {
	candidates := append([]string{item.Link}, item.Links...)
	candidates = append(candidates, item.GUID)

	first := ""

	for _, c := range candidates {
		c = strings.TrimSpace(c)

		if entity.IsAbsoluteURL(c) {
			return c
		}

		if first == "" {
			first = c
		}
	}

	// Relative or opaque, the summary fails validation
	return first
}

func itemTime(item *gofeed.Item) *time.Time {
	if t := utc(item.PublishedParsed); t != nil {
		return t
	}

	if t := parseTimestamp(item.Published); t != nil {
		return t
	}

	if t := utc(item.UpdatedParsed); t != nil {
		return t
	}

	return parseTimestamp(item.Updated)
}

func publicationURL(feed *gofeed.Feed, sourceURL string) string {
	if entity.IsAbsoluteURL(feed.Link) {
		return strings.TrimRight(feed.Link, "/")
	}

	return strings.TrimSuffix(sourceURL, "/feed")
}

func appendName(names []string, p *gofeed.Person) []string {
	if p == nil {
		return names
	}

	name := collapseSpaces(p.Name)

	if name == "" || slices.Contains(names, name) {
		return names
	}

	return append(names, name)
}
