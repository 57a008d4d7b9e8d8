package parser

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/nDmitry/stackfeed/internal/entity"
	"golang.org/x/net/html"
)

const (
	wordsPerMinute = 220

	boilerplateSelector = "nav, header, footer, aside, script, style, noscript, form, iframe, svg, button"
	blockSelector       = "p, h1, h2, h3, h4, h5, h6, li, pre, blockquote"
)

// Platform containers, most specific first
var bodySelectors = []string{
	"div.available-content",
	"div.body.markup",
	"article",
}

// ParseArticle extracts the body and metadata of a post page. It never
// fails: a page without an isolatable body yields an empty, degraded record.
func ParseArticle(raw []byte, sourceURL string) entity.PostContent {
	content := entity.PostContent{PostSummary: entity.PostSummary{ID: sourceURL}}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))

	if err != nil {
		content.MarkMissing("body")
		content.MarkMissing("title")

		return content
	}

	post := nextData(doc).object("post")

	content.ID = canonicalURL(doc, sourceURL)
	content.Title = articleTitle(doc, post)
	content.Excerpt = articleSubtitle(doc, post)
	content.PublishedAt = articlePublished(doc, post)
	content.Author = articleAuthor(doc, post)

	for _, t := range post.list("postTags") {
		if name := asObject(t).str("name"); name != "" {
			content.Tags = append(content.Tags, name)
		}
	}

	if content.Title == "" {
		content.MarkMissing("title")
	}

	paragraphs := articleBody(doc, post, sourceURL)
	content.Body = strings.Join(paragraphs, "\n")
	content.Digest = digest(content.Body, len(paragraphs))

	if content.Body == "" {
		content.MarkMissing("body")
	}

	return content
}

func articleBody(doc *goquery.Document, post object, sourceURL string) []string {
	if bodyHTML := post.str("body_html"); bodyHTML != "" {
		if fragment, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML)); err == nil {
			if p := paragraphs(fragment.Selection); len(p) > 0 {
				return p
			}
		}
	}

	doc.Find(boilerplateSelector).Remove()
	doc.Find("br").ReplaceWithHtml(" ")

	if collapseSpaces(doc.Find("body").Text()) == "" {
		return nil
	}

	for _, sel := range bodySelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if p := paragraphs(node); len(p) > 0 {
				return p
			}
		}
	}

	if p := readable(doc, sourceURL); len(p) > 0 {
		return p
	}

	return largestTextBlock(doc)
}

// readable runs the readability extractor over the boilerplate-free page
func readable(doc *goquery.Document, sourceURL string) []string {
	page, err := doc.Html()

	if err != nil {
		return nil
	}

	pageURL, err := url.Parse(sourceURL)

	if err != nil {
		return nil
	}

	article, err := readability.FromReader(strings.NewReader(page), pageURL)

	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		return nil
	}

	fragment, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))

	if err != nil {
		return nil
	}

	return paragraphs(fragment.Selection)
}

// largestTextBlock picks the element whose direct block children carry the
// most text. Ties go to the element that comes first in the document.
func largestTextBlock(doc *goquery.Document) []string {
	var (
		order  []*html.Node
		totals = map[*html.Node]int{}
	)

	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		parent := s.Parent()

		if parent.Length() == 0 {
			return
		}

		node := parent.Get(0)

		if _, seen := totals[node]; !seen {
			order = append(order, node)
		}

		totals[node] += len(collapseSpaces(s.Text()))
	})

	var (
		best     *html.Node
		bestSize int
	)

	for _, n := range order {
		if totals[n] > bestSize {
			best, bestSize = n, totals[n]
		}
	}

	if best == nil {
		if text := collapseSpaces(doc.Find("body").Text()); text != "" {
			return []string{text}
		}

		return nil
	}

	return paragraphs(doc.FindNodes(best))
}

// paragraphs returns the text of the outermost block elements within sel,
// or the whole text of sel as one paragraph when it has no blocks.
func paragraphs(sel *goquery.Selection) []string {
	var out []string

	sel.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsUntilSelection(sel).Filter(blockSelector).Length() > 0 {
			return
		}

		s.Find("br").ReplaceWithHtml(" ")

		if text := collapseSpaces(s.Text()); text != "" {
			out = append(out, text)
		}
	})

	if len(out) == 0 {
		if text := collapseSpaces(sel.Text()); text != "" {
			out = append(out, text)
		}
	}

	return out
}

func digest(body string, paragraphs int) entity.Digest {
	words := len(strings.Fields(body))

	d := entity.Digest{Words: words, Paragraphs: paragraphs}

	if words > 0 {
		d.MinutesToRead = max(1, (words+wordsPerMinute-1)/wordsPerMinute)
	}

	return d
}

func canonicalURL(doc *goquery.Document, sourceURL string) string {
	for _, sel := range []string{`link[rel="canonical"]`, `meta[property="og:url"]`} {
		node := doc.Find(sel).First()
		href := node.AttrOr("href", node.AttrOr("content", ""))

		if entity.IsAbsoluteURL(href) {
			return href
		}
	}

	return sourceURL
}

func articleTitle(doc *goquery.Document, post object) string {
	if t := post.str("title"); t != "" {
		return collapseSpaces(t)
	}

	for _, sel := range []string{`h1[data-element="post-title"]`, "h1.post-title", "article h1"} {
		if t := collapseSpaces(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}

	if t := collapseSpaces(doc.Find(`meta[property="og:title"]`).AttrOr("content", "")); t != "" {
		return t
	}

	return collapseSpaces(doc.Find("title").First().Text())
}

func articleSubtitle(doc *goquery.Document, post object) *string {
	if s := post.str("subtitle", "description"); s != "" {
		return excerpt(s)
	}

	if s := collapseSpaces(doc.Find("h3.subtitle").First().Text()); s != "" {
		return excerpt(s)
	}

	return excerpt(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
}

func articlePublished(doc *goquery.Document, post object) *time.Time {
	if t := parseTimestamp(post.str("post_date", "publishedAt")); t != nil {
		return t
	}

	if t := parseTimestamp(doc.Find(`meta[property="article:published_time"]`).AttrOr("content", "")); t != nil {
		return t
	}

	return parseTimestamp(doc.Find("time[datetime]").First().AttrOr("datetime", ""))
}

func articleAuthor(doc *goquery.Document, post object) *string {
	for _, b := range post.list("publishedBylines") {
		if name := asObject(b).str("name"); name != "" {
			return optional(name)
		}
	}

	if name := post.object("author").str("name"); name != "" {
		return optional(name)
	}

	return optional(doc.Find(`meta[name="author"]`).AttrOr("content", ""))
}
