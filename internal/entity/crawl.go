package entity

import "time"

const (
	CadenceOK               = "ok"
	CadenceInsufficientData = "insufficient data"
)

// Cadence is the mean gap between consecutive publications.
type Cadence struct {
	Status string `json:"status"`
	// Nil unless Status is CadenceOK.
	MeanGapDays *float64 `json:"mean_gap_days,omitempty"`
	// Number of timestamped posts the estimate is based on.
	Samples int `json:"samples"`
}

// CrawledPost is a post summary with its optional analytics.
type CrawledPost struct {
	Summary   PostSummary       `json:"summary"`
	Analytics *ContentAnalytics `json:"analytics,omitempty"`
	Digest    *Digest           `json:"digest,omitempty"`
	// Set when the post was degraded to summary only.
	Degradation *string `json:"degradation,omitempty"`
}

// ManifestEntry records the outcome of one part of a crawl.
type ManifestEntry struct {
	Part   string `json:"part"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const (
	PartStatusOK       = "ok"
	PartStatusDegraded = "degraded"
	PartStatusSkipped  = "skipped"
)

// Manifest lists what succeeded and what degraded during a crawl.
type Manifest struct {
	Entries []ManifestEntry `json:"entries"`
	// Feed items dropped by the parser because they were malformed.
	SkippedFeedItems int `json:"skipped_feed_items"`
}

// Degraded reports whether any part of the crawl degraded.
func (m Manifest) Degraded() bool {
	for _, e := range m.Entries {
		if e.Status == PartStatusDegraded {
			return true
		}
	}

	return false
}

// CrawlResult is the composite answer of a crawl. It is built once and
// never mutated after being returned.
type CrawlResult struct {
	Publication PublicationMetadata `json:"publication"`
	Posts       []CrawledPost       `json:"posts"`
	Notes       []Note              `json:"notes"`
	Author      *AuthorProfile      `json:"author,omitempty"`
	Cadence     Cadence             `json:"cadence"`
	Manifest    Manifest            `json:"manifest"`
	FetchedAt   time.Time           `json:"fetched_at"`
}
