package parser

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/nDmitry/stackfeed/internal/entity"
)

const noteURLTemplate = "https://substack.com/@%s/note/c-%s"

// ErrNoNotes is wrapped by the ParseError for pages without embedded notes.
var ErrNoNotes = errors.New("no notes container")

// ParseNotes parses the notes endpoint payload ({"items": [{"comment": {...}}]})
// or, for an HTML page, the notes embedded in its page data. Items that are
// not objects or carry no id are skipped. Upstream order is kept as is.
func ParseNotes(raw []byte, handle string) ([]entity.Note, error) {
	trimmed := bytes.TrimSpace(raw)

	if bytes.HasPrefix(trimmed, []byte("{")) {
		root, ok := decodeObject(trimmed)

		if !ok {
			return nil, &entity.ParseError{Source: "notes of " + handle, Err: errors.New("invalid JSON payload")}
		}

		notes := []entity.Note{}

		for _, item := range root.list("items") {
			if note, ok := noteFromComment(asObject(item).object("comment"), handle); ok {
				notes = append(notes, note)
			}
		}

		return notes, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))

	if err != nil {
		return nil, &entity.ParseError{Source: "notes of " + handle, Err: err}
	}

	props := nextData(doc)
	items := props.list("notes")

	if items == nil {
		items = props.object("initialState").list("notes")
	}

	if items == nil {
		return nil, &entity.ParseError{Source: "notes of " + handle, Err: ErrNoNotes}
	}

	notes := []entity.Note{}

	for _, item := range items {
		if note, ok := noteFromPage(asObject(item), handle); ok {
			notes = append(notes, note)
		}
	}

	return notes, nil
}

func noteFromComment(c object, handle string) (entity.Note, bool) {
	id := c.str("id")

	if id == "" {
		return entity.Note{}, false
	}

	return entity.Note{
		ID:        id,
		URL:       fmt.Sprintf(noteURLTemplate, url.PathEscape(handle), url.PathEscape(id)),
		Author:    firstNonEmpty(c.str("name"), handle),
		Body:      plainText(c.str("body")),
		CreatedAt: parseTimestamp(c.str("date")),
	}, true
}

func noteFromPage(item object, handle string) (entity.Note, bool) {
	id := item.str("id", "note_id")

	if id == "" {
		return entity.Note{}, false
	}

	link := item.str("permalink")

	if !entity.IsAbsoluteURL(link) {
		link = fmt.Sprintf(noteURLTemplate, url.PathEscape(handle), url.PathEscape(id))
	}

	return entity.Note{
		ID:        id,
		URL:       link,
		Author:    firstNonEmpty(item.object("user").str("name"), handle),
		Body:      plainText(item.str("body", "body_html")),
		CreatedAt: parseTimestamp(item.str("published_at", "created_at")),
	}, true
}
