package entity

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	FeedCacheTTLDefault = 15   // minutes
	FeedCacheTTLMax     = 1440 // minutes, rendered feeds are kept for a day at most
)

// FeedParams represents validated request parameters for re-syndicating a crawl
type FeedParams struct {
	// Handle is the publication subdomain
	Handle string

	// Format is the feed format, either "atom" or "rss"
	Format string

	// PostLimit is the number of posts to include
	PostLimit int

	// ExcludeWords drops a post if its title or excerpt matches any of them
	ExcludeWords []string

	// ExcludeCaseSensitive determines if exclusion matching is case-sensitive
	ExcludeCaseSensitive bool

	// CacheTTL is the rendered feed time-to-live in minutes
	// A value of 0 means no caching
	CacheTTL int
}

// NewFeedParamsFromRequest parses and validates request parameters and creates new FeedParams
// nolint: cyclop
func NewFeedParamsFromRequest(r *http.Request) (*FeedParams, error) {
	handle := strings.ToLower(r.PathValue("handle"))

	if err := ValidateHandle(handle); err != nil {
		return nil, err
	}

	qp := r.URL.Query()

	format := qp.Get("format")

	if format == "" {
		format = FormatRSS
	} else if format != FormatRSS && format != FormatAtom {
		return nil, &ConfigurationError{Field: "format", Reason: fmt.Sprintf("must be %s or %s", FormatRSS, FormatAtom)}
	}

	postLimit, err := intParam(qp.Get("post_limit"), "post_limit", PostLimitDefault)

	if err != nil {
		return nil, err
	}

	if postLimit <= 0 || postLimit > PostLimitMax {
		return nil, &ConfigurationError{Field: "post_limit", Reason: fmt.Sprintf("must be between 1 and %d", PostLimitMax)}
	}

	var excludeWords []string

	if exclude := qp.Get("exclude"); exclude != "" {
		for _, word := range strings.Split(exclude, "|") {
			if word = strings.TrimSpace(word); word != "" {
				excludeWords = append(excludeWords, word)
			}
		}
	}

	excludeCaseSensitive := false

	if caseSensitive := qp.Get("exclude_case_sensitive"); caseSensitive != "" {
		excludeCaseSensitive = caseSensitive == "1" || strings.EqualFold(caseSensitive, "true")
	}

	cacheTTL := FeedCacheTTLDefault

	if ttlStr := qp.Get("cache_ttl"); ttlStr != "" {
		cacheTTL, err = strconv.Atoi(ttlStr)

		if err != nil {
			return nil, &ConfigurationError{Field: "cache_ttl", Reason: "must be a valid integer"}
		}

		if cacheTTL < 0 {
			return nil, &ConfigurationError{Field: "cache_ttl", Reason: "must be non-negative"}
		}

		cacheTTL = min(cacheTTL, FeedCacheTTLMax)
	}

	return &FeedParams{
		Handle:               handle,
		Format:               format,
		PostLimit:            postLimit,
		ExcludeWords:         excludeWords,
		ExcludeCaseSensitive: excludeCaseSensitive,
		CacheTTL:             cacheTTL,
	}, nil
}
