package entity

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

const (
	FormatAtom = "atom"
	FormatRSS  = "rss"
)

const (
	PostLimitDefault = 5
	PostLimitMax     = 50
	NoteLimitDefault = 10
	NoteLimitMax     = 50
)

var handleRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// CrawlParams represents validated input of a crawl
type CrawlParams struct {
	// Handle is the publication subdomain, e.g. "platformer"
	Handle string

	// PostLimit is the number of feed posts to keep, in feed order
	PostLimit int

	// NoteLimit is the number of notes to fetch, 0 skips notes
	NoteLimit int

	// RunAnalytics fetches every post and attaches its analytics
	RunAnalytics bool
}

// Validate returns a ConfigurationError for an unusable handle or limit
func (p *CrawlParams) Validate() error {
	if err := ValidateHandle(p.Handle); err != nil {
		return err
	}

	if p.PostLimit <= 0 || p.PostLimit > PostLimitMax {
		return &ConfigurationError{Field: "post_limit", Reason: fmt.Sprintf("must be between 1 and %d", PostLimitMax)}
	}

	if p.NoteLimit < 0 || p.NoteLimit > NoteLimitMax {
		return &ConfigurationError{Field: "note_limit", Reason: fmt.Sprintf("must be between 0 and %d", NoteLimitMax)}
	}

	return nil
}

// ValidateHandle checks a publication handle
func ValidateHandle(handle string) error {
	if handle == "" {
		return &ConfigurationError{Field: "handle", Reason: "is required"}
	}

	if !handleRegex.MatchString(handle) {
		return &ConfigurationError{Field: "handle", Reason: fmt.Sprintf("%q is not a valid publication handle", handle)}
	}

	return nil
}

// NewCrawlParamsFromRequest parses and validates request parameters and creates new CrawlParams
func NewCrawlParamsFromRequest(r *http.Request) (*CrawlParams, error) {
	qp := r.URL.Query()

	params := &CrawlParams{
		Handle:       strings.ToLower(r.PathValue("handle")),
		PostLimit:    PostLimitDefault,
		NoteLimit:    NoteLimitDefault,
		RunAnalytics: true,
	}

	var err error

	if params.PostLimit, err = intParam(qp.Get("post_limit"), "post_limit", PostLimitDefault); err != nil {
		return nil, err
	}

	if params.NoteLimit, err = intParam(qp.Get("note_limit"), "note_limit", NoteLimitDefault); err != nil {
		return nil, err
	}

	if analyse := qp.Get("analyse"); analyse != "" {
		params.RunAnalytics = analyse == "1" || strings.EqualFold(analyse, "true")
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

// LimitFromRequest parses an optional "limit" query parameter bounded by max
func LimitFromRequest(r *http.Request, def, max int) (int, error) {
	limit, err := intParam(r.URL.Query().Get("limit"), "limit", def)

	if err != nil {
		return 0, err
	}

	if limit <= 0 || limit > max {
		return 0, &ConfigurationError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d", max)}
	}

	return limit, nil
}

func intParam(raw, field string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)

	if err != nil {
		return 0, &ConfigurationError{Field: field, Reason: "must be a valid integer"}
	}

	return v, nil
}
