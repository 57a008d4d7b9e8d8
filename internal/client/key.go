package client

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	AcceptFeed = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8"
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptJSON = "application/json"
)

// RequestKey identifies an upstream request. Two keys with the same String
// are served by the same cache entry.
type RequestKey struct {
	URL    string
	Accept string

	// NoRedirect hands a 3xx back as an UpstreamStatusError instead of
	// following it
	NoRedirect bool
}

// NewRequestKey normalizes rawURL: lower-cased scheme and host, no fragment,
// sorted query and "/" for an empty path.
func NewRequestKey(rawURL, accept string) (RequestKey, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))

	if err != nil {
		return RequestKey{}, fmt.Errorf("could not parse request URL %q: %w", rawURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return RequestKey{}, fmt.Errorf("request URL %q is not an absolute http(s) URL", rawURL)
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	if u.Path == "" {
		u.Path = "/"
	}

	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}

	return RequestKey{URL: u.String(), Accept: accept}, nil
}

func (k RequestKey) String() string {
	id := "GET " + k.URL + " accept=" + k.Accept

	if k.NoRedirect {
		id += " redirect=no"
	}

	return id
}
