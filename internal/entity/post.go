package entity

import (
	"fmt"
	"net/url"
	"time"
)

// PostSummary is a single post as announced by a publication feed.
type PostSummary struct {
	// Canonical absolute URL of the post, doubles as its identifier.
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Excerpt *string `json:"excerpt,omitempty"`
	// Always UTC when present.
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// Validate checks that the summary is identified by an absolute http(s) URL.
func (p PostSummary) Validate() error {
	if !IsAbsoluteURL(p.ID) {
		return fmt.Errorf("post id %q is not an absolute URL", p.ID)
	}

	return nil
}

// Digest describes the structure of an extracted article body.
type Digest struct {
	Words      int `json:"words"`
	Paragraphs int `json:"paragraphs"`
	// Rounded up, 0 for an empty body.
	MinutesToRead int `json:"minutes_to_read"`
}

// PostContent is the full article behind a PostSummary.
type PostContent struct {
	PostSummary

	// Plain text, paragraphs separated by a single newline. Never nil,
	// empty when extraction failed.
	Body   string `json:"body"`
	Digest Digest `json:"digest"`

	DegradedContent
}

// AuthorProfile is the best-effort profile of a publication author.
type AuthorProfile struct {
	Handle            string   `json:"handle"`
	DisplayName       *string  `json:"display_name,omitempty"`
	Bio               *string  `json:"bio,omitempty"`
	AvatarURL         *string  `json:"avatar_url,omitempty"`
	SocialLinks       []string `json:"social_links"`
	PostCountEstimate *int     `json:"post_count_estimate,omitempty"`

	DegradedContent
}

// Note is a short-form post. Upstream order is not guaranteed to be chronological.
type Note struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Author    string     `json:"author"`
	Body      string     `json:"body"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// PublicationMetadata describes a publication as a whole.
type PublicationMetadata struct {
	Handle                string   `json:"handle"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	URL                   string   `json:"url"`
	Authors               []string `json:"authors"`
	EstimatedPostsPerWeek *float64 `json:"estimated_posts_per_week,omitempty"`
}

// IsAbsoluteURL reports whether raw is an absolute http or https URL with a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)

	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
