package parser

import (
	"bytes"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/nDmitry/stackfeed/internal/entity"
)

var (
	postCountRegex = regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+posts?\b`)

	// Profile fields of the embedded author object that hold a social link
	socialFields = []string{"twitter_url", "website", "mastodon_url", "threads_url", "bluesky_url", "instagram_url", "linkedin_url"}

	socialHosts = []string{
		"twitter.com", "x.com", "threads.net", "bsky.app", "instagram.com",
		"linkedin.com", "youtube.com", "github.com", "facebook.com", "tiktok.com",
	}
)

// ParseAuthorProfile extracts what it can from an about or profile page.
// The embedded page data wins over markup, absent fields stay nil.
func ParseAuthorProfile(raw []byte, sourceURL string) entity.AuthorProfile {
	profile := entity.AuthorProfile{SocialLinks: []string{}}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))

	if err != nil {
		profile.MarkMissing("display_name")
		profile.MarkMissing("bio")

		return profile
	}

	props := nextData(doc)
	publication := props.object("publication")
	author := props.object("author")

	if author == nil {
		author = publication.object("author")
	}

	profile.Handle = author.str("handle")
	profile.DisplayName = optional(author.str("name"))
	profile.Bio = optional(author.str("bio"))

	if avatar := author.str("imageUrl", "profileImageUrl", "photo_url"); entity.IsAbsoluteURL(avatar) {
		profile.AvatarURL = &avatar
	}

	var links []string

	for _, field := range socialFields {
		links = append(links, author.str(field))
	}

	if n, ok := author.int("postCount"); ok {
		profile.PostCountEstimate = &n
	} else if n, ok := publication.int("post_count"); ok {
		profile.PostCountEstimate = &n
	}

	el := rootElement(doc, sourceURL)

	if profile.DisplayName == nil {
		profile.DisplayName = optional(firstNonEmpty(
			el.ChildText(".profile-name"),
			el.ChildText(`[data-testid="profile-name"]`),
			el.ChildAttr(`meta[name="author"]`, "content"),
		))
	}

	if profile.Bio == nil {
		profile.Bio = optional(firstNonEmpty(
			el.ChildText(".profile-bio"),
			el.ChildText(`[data-testid="profile-bio"]`),
			el.ChildText(".about-author .bio"),
		))
	}

	if profile.AvatarURL == nil {
		for _, sel := range []string{"img.profile-avatar", ".author-avatar img", "img.avatar"} {
			if src := absoluteURL(el, el.ChildAttr(sel, "src")); entity.IsAbsoluteURL(src) {
				profile.AvatarURL = &src
				break
			}
		}
	}

	el.ForEach("a[href]", func(_ int, a *colly.HTMLElement) {
		href := absoluteURL(a, a.Attr("href"))

		if isSocialLink(href) || strings.Contains(" "+a.Attr("rel")+" ", " me ") {
			links = append(links, href)
		}
	})

	if profile.PostCountEstimate == nil {
		if m := postCountRegex.FindStringSubmatch(el.Text); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				profile.PostCountEstimate = &n
			}
		}
	}

	profile.SocialLinks = normalizeLinks(links)

	if profile.DisplayName == nil {
		profile.MarkMissing("display_name")
	}

	if profile.Bio == nil {
		profile.MarkMissing("bio")
	}

	return profile
}

// rootElement wraps the document in a colly element so the profile can be
// read with the same helpers a collector callback gets.
func rootElement(doc *goquery.Document, sourceURL string) *colly.HTMLElement {
	u, err := url.Parse(sourceURL)

	if err != nil {
		u = &url.URL{}
	}

	resp := &colly.Response{
		Request: &colly.Request{URL: u},
		Headers: &http.Header{},
	}

	root := doc.Selection

	if html := doc.Find("html"); html.Length() > 0 {
		root = html
	}

	return colly.NewHTMLElementFromSelectionNode(resp, root, root.Get(0), 0)
}

// absoluteURL resolves raw against the page URL. Blank input stays blank.
func absoluteURL(el *colly.HTMLElement, raw string) string {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return ""
	}

	return el.Request.AbsoluteURL(raw)
}

// normalizeLinks keeps absolute http(s) URLs only, deduplicated and sorted
func normalizeLinks(links []string) []string {
	out := []string{}

	for _, l := range links {
		l = strings.TrimSpace(l)

		if !entity.IsAbsoluteURL(l) || slices.Contains(out, l) {
			continue
		}

		out = append(out, l)
	}

	slices.Sort(out)

	return out
}

func isSocialLink(href string) bool {
	u, err := url.Parse(href)

	if err != nil {
		return false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, h := range socialHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}

	return strings.Contains(host, "mastodon")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
