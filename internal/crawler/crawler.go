// Package crawler composes the client, parser and analytics engine into
// publication-level operations.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nDmitry/stackfeed/internal/analytics"
	"github.com/nDmitry/stackfeed/internal/client"
	"github.com/nDmitry/stackfeed/internal/entity"
	"github.com/nDmitry/stackfeed/internal/metrics"
	"github.com/nDmitry/stackfeed/internal/parser"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

const DefaultWorkers = 4

// Options configure an Orchestrator. Zero values fall back to the defaults.
type Options struct {
	Workers int
	Logger  *slog.Logger
}

// Orchestrator runs crawls against one Fetcher. It holds no mutable state
// of its own and is safe for concurrent use.
type Orchestrator struct {
	fetcher   client.Fetcher
	endpoints *client.Endpoints
	engine    *analytics.Engine
	workers   int
	logger    *slog.Logger
	now       func() time.Time
}

func New(f client.Fetcher, endpoints *client.Endpoints, engine *analytics.Engine, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Orchestrator{
		fetcher:   f,
		endpoints: endpoints,
		engine:    engine,
		workers:   opts.Workers,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// Crawl assembles a CrawlResult for a publication. Only a failure to fetch
// or parse the feed is returned as an error, every other part degrades.
func (o *Orchestrator) Crawl(ctx context.Context, params entity.CrawlParams) (*entity.CrawlResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	doc, err := o.Posts(ctx, params.Handle, params.PostLimit)

	if err != nil {
		return nil, err
	}

	result := &entity.CrawlResult{
		Publication: doc.Metadata,
		Posts:       make([]entity.CrawledPost, len(doc.Posts)),
		Notes:       []entity.Note{},
		Manifest: entity.Manifest{
			Entries: []entity.ManifestEntry{{
				Part:   "feed",
				Status: entity.PartStatusOK,
				Detail: fmt.Sprintf("%d posts", len(doc.Posts)),
			}},
			SkippedFeedItems: doc.SkipCount,
		},
	}

	var (
		g           errgroup.Group
		authorEntry entity.ManifestEntry
		notesEntry  entity.ManifestEntry
		postEntries = make([]*entity.ManifestEntry, len(doc.Posts))
	)

	g.SetLimit(o.workers)

	g.Go(func() error {
		result.Author, authorEntry = o.crawlAuthor(ctx, params.Handle)
		return nil
	})

	g.Go(func() error {
		result.Notes, notesEntry = o.crawlNotes(ctx, params.Handle, params.NoteLimit)
		return nil
	})

	for i, post := range doc.Posts {
		result.Posts[i] = entity.CrawledPost{Summary: post}

		if !params.RunAnalytics {
			continue
		}

		g.Go(func() error {
			postEntries[i] = o.crawlPost(ctx, &result.Posts[i])
			return nil
		})
	}

	_ = g.Wait()

	result.Manifest.Entries = append(result.Manifest.Entries, authorEntry, notesEntry)

	for _, e := range postEntries {
		if e != nil {
			result.Manifest.Entries = append(result.Manifest.Entries, *e)
		}
	}

	result.Cadence = Cadence(doc.Posts)

	if result.Cadence.MeanGapDays != nil && *result.Cadence.MeanGapDays > 0 {
		perWeek := round(7 / *result.Cadence.MeanGapDays, 3)
		result.Publication.EstimatedPostsPerWeek = &perWeek
	}

	result.FetchedAt = o.now().UTC()

	o.logger.Info("Crawl finished",
		"handle", params.Handle,
		"posts", len(result.Posts),
		"notes", len(result.Notes),
		"degraded", result.Manifest.Degraded())

	return result, nil
}

func (o *Orchestrator) crawlAuthor(ctx context.Context, handle string) (*entity.AuthorProfile, entity.ManifestEntry) {
	entry := entity.ManifestEntry{Part: "author", Status: entity.PartStatusOK}
	profile, err := o.AuthorProfile(ctx, handle)

	switch {
	case err != nil:
		o.degrade("author", handle, err)
		entry.Status, entry.Detail = entity.PartStatusDegraded, err.Error()
	case profile == nil:
		entry.Status, entry.Detail = entity.PartStatusSkipped, "no about page"
	case profile.Degraded:
		metrics.RecordDegradation("author")
		entry.Status, entry.Detail = entity.PartStatusDegraded, "missing "+strings.Join(profile.Missing, ", ")
	}

	return profile, entry
}

func (o *Orchestrator) crawlNotes(ctx context.Context, handle string, limit int) ([]entity.Note, entity.ManifestEntry) {
	entry := entity.ManifestEntry{Part: "notes", Status: entity.PartStatusOK}

	if limit == 0 {
		entry.Status = entity.PartStatusSkipped
		return []entity.Note{}, entry
	}

	notes, err := o.Notes(ctx, handle, limit)

	if err != nil {
		o.degrade("notes", handle, err)
		entry.Status, entry.Detail = entity.PartStatusDegraded, err.Error()

		return []entity.Note{}, entry
	}

	entry.Detail = fmt.Sprintf("%d notes", len(notes))

	return notes, entry
}

// crawlPost fetches one post and attaches its analytics in place. A failure
// leaves the summary alone and records why.
func (o *Orchestrator) crawlPost(ctx context.Context, post *entity.CrawledPost) *entity.ManifestEntry {
	entry := &entity.ManifestEntry{Part: "post " + post.Summary.ID, Status: entity.PartStatusOK}

	content, err := o.fetchArticle(ctx, post.Summary.ID)

	if err == nil && content.Body == "" {
		err = errors.New("no extractable body")
	}

	if err != nil {
		o.degrade("post", post.Summary.ID, err)

		reason := err.Error()
		post.Degradation = &reason
		entry.Status, entry.Detail = entity.PartStatusDegraded, reason

		return entry
	}

	a := o.engine.Analyze(content.Body)
	post.Analytics = &a
	post.Digest = &content.Digest

	return entry
}

func (o *Orchestrator) degrade(part, subject string, err error) {
	metrics.RecordDegradation(part)
	o.logger.Warn("Crawl part degraded", "part", part, "subject", subject, "error", err)
}

// Posts fetches the publication feed, truncated to limit in feed order
func (o *Orchestrator) Posts(ctx context.Context, handle string, limit int) (*parser.FeedDocument, error) {
	if err := entity.ValidateHandle(handle); err != nil {
		return nil, err
	}

	key, err := client.NewRequestKey(o.endpoints.Feed(handle), client.AcceptFeed)

	if err != nil {
		return nil, fmt.Errorf("could not build feed request: %w", err)
	}

	raw, err := o.fetcher.Fetch(ctx, key)

	if err != nil {
		return nil, fmt.Errorf("could not fetch feed of %s: %w", handle, err)
	}

	doc, err := parser.ParseFeed(raw.Body, raw.URL)

	if err != nil {
		return nil, err
	}

	doc.Metadata.Handle = handle

	if doc.Metadata.URL == "" {
		doc.Metadata.URL = o.endpoints.Base(handle)
	}

	if limit > 0 && len(doc.Posts) > limit {
		doc.Posts = doc.Posts[:limit]
	}

	return doc, nil
}

// Post fetches and extracts a single post of any publication
func (o *Orchestrator) Post(ctx context.Context, rawURL string) (*entity.PostContent, error) {
	if !entity.IsAbsoluteURL(rawURL) {
		return nil, &entity.ConfigurationError{Field: "url", Reason: "must be an absolute http(s) URL"}
	}

	if _, ok := o.endpoints.HandleOf(rawURL); !ok {
		return nil, &entity.ConfigurationError{Field: "url", Reason: "is not a publication URL"}
	}

	return o.fetchArticle(ctx, rawURL)
}

func (o *Orchestrator) fetchArticle(ctx context.Context, rawURL string) (*entity.PostContent, error) {
	key, err := client.NewRequestKey(rawURL, client.AcceptHTML)

	if err != nil {
		return nil, &entity.ConfigurationError{Field: "url", Reason: err.Error()}
	}

	raw, err := o.fetcher.Fetch(ctx, key)

	if err != nil {
		return nil, fmt.Errorf("could not fetch post: %w", err)
	}

	content := parser.ParseArticle(raw.Body, rawURL)

	if content.Degraded {
		o.logger.Warn("Post content degraded", "url", rawURL, "missing", content.Missing)
	}

	return &content, nil
}

// AuthorProfile fetches the about page of a publication. A missing page
// yields a nil profile and no error.
func (o *Orchestrator) AuthorProfile(ctx context.Context, handle string) (*entity.AuthorProfile, error) {
	if err := entity.ValidateHandle(handle); err != nil {
		return nil, err
	}

	key, err := client.NewRequestKey(o.endpoints.About(handle), client.AcceptHTML)

	if err != nil {
		return nil, fmt.Errorf("could not build profile request: %w", err)
	}

	raw, err := o.fetcher.Fetch(ctx, key)

	if err != nil {
		if entity.StatusCode(err) == http.StatusNotFound {
			return nil, nil
		}

		return nil, fmt.Errorf("could not fetch profile of %s: %w", handle, err)
	}

	profile := parser.ParseAuthorProfile(raw.Body, raw.URL)

	if profile.Handle == "" {
		profile.Handle = handle
	}

	return &profile, nil
}

// Notes fetches up to limit notes in upstream order. Publications whose
// notes are hidden or absent yield an empty list.
func (o *Orchestrator) Notes(ctx context.Context, handle string, limit int) ([]entity.Note, error) {
	if err := entity.ValidateHandle(handle); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > entity.NoteLimitMax {
		return nil, &entity.ConfigurationError{Field: "note_limit", Reason: fmt.Sprintf("must be between 1 and %d", entity.NoteLimitMax)}
	}

	key, err := client.NewRequestKey(o.endpoints.Notes(handle, limit), client.AcceptJSON)

	if err != nil {
		return nil, fmt.Errorf("could not build notes request: %w", err)
	}

	// Hidden notes redirect to a sign-in page
	key.NoRedirect = true

	raw, err := o.fetcher.Fetch(ctx, key)

	if err != nil {
		switch entity.StatusCode(err) {
		case http.StatusFound, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return []entity.Note{}, nil
		}

		return nil, fmt.Errorf("could not fetch notes of %s: %w", handle, err)
	}

	notes, err := parser.ParseNotes(raw.Body, handle)

	if err != nil {
		return nil, err
	}

	if len(notes) > limit {
		notes = notes[:limit]
	}

	return notes, nil
}

// SearchNotes returns the notes whose body contains query, ignoring case
func (o *Orchestrator) SearchNotes(ctx context.Context, handle, query string, limit int) ([]entity.Note, error) {
	query = strings.TrimSpace(query)

	if query == "" {
		return nil, &entity.ConfigurationError{Field: "q", Reason: "is required"}
	}

	notes, err := o.Notes(ctx, handle, limit)

	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(query)
	matches := []entity.Note{}

	for _, n := range notes {
		if strings.Contains(fold.String(n.Body), needle) {
			matches = append(matches, n)
		}
	}

	return matches, nil
}

// Analyze runs the analytics engine over free text
func (o *Orchestrator) Analyze(text string) entity.ContentAnalytics {
	return o.engine.Analyze(text)
}
