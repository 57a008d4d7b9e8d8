package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultURLTemplate = "https://{handle}.substack.com"
	handlePlaceholder  = "{handle}"
)

// Endpoints builds upstream URLs for a publication handle from a template
// such as "https://{handle}.substack.com".
type Endpoints struct {
	template string
	owner    *regexp.Regexp
}

func NewEndpoints(template string) (*Endpoints, error) {
	template = strings.TrimRight(template, "/")

	if strings.Count(template, handlePlaceholder) != 1 {
		return nil, fmt.Errorf("URL template %q must contain %s exactly once", template, handlePlaceholder)
	}

	if _, err := NewRequestKey(strings.Replace(template, handlePlaceholder, "h", 1), ""); err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	pattern := strings.Replace(regexp.QuoteMeta(template), regexp.QuoteMeta(handlePlaceholder), `([a-z0-9][a-z0-9-]*)`, 1)

	return &Endpoints{
		template: template,
		owner:    regexp.MustCompile(`(?i)^` + pattern + `(?:/|$)`),
	}, nil
}

// Base returns the publication home URL
func (e *Endpoints) Base(handle string) string {
	return strings.Replace(e.template, handlePlaceholder, handle, 1)
}

func (e *Endpoints) Feed(handle string) string {
	return e.Base(handle) + "/feed"
}

func (e *Endpoints) About(handle string) string {
	return e.Base(handle) + "/about"
}

func (e *Endpoints) Notes(handle string, limit int) string {
	return e.Base(handle) + "/api/v1/notes?limit=" + strconv.Itoa(limit)
}

// HandleOf returns the handle of the publication rawURL belongs to
func (e *Endpoints) HandleOf(rawURL string) (string, bool) {
	m := e.owner.FindStringSubmatch(rawURL)

	if m == nil {
		return "", false
	}

	return strings.ToLower(m[1]), true
}
