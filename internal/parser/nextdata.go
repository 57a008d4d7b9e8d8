package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// object is a loosely typed JSON object as embedded by the platform's pages
type object map[string]any

// nextData returns props.pageProps of the page's __NEXT_DATA__ script, or nil
func nextData(doc *goquery.Document) object {
	script := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())

	if script == "" {
		return nil
	}

	root, ok := decodeObject([]byte(script))

	if !ok {
		return nil
	}

	return root.object("props").object("pageProps")
}

func decodeObject(raw []byte) (object, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any

	if err := dec.Decode(&v); err != nil {
		return nil, false
	}

	m, ok := v.(map[string]any)

	return m, ok
}

func asObject(v any) object {
	m, _ := v.(map[string]any)
	return m
}

func (o object) object(key string) object {
	if o == nil {
		return nil
	}

	return asObject(o[key])
}

// str returns the first non-blank string or number found under keys
func (o object) str(keys ...string) string {
	for _, k := range keys {
		switch v := o[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}

	return ""
}

func (o object) int(key string) (int, bool) {
	n, ok := o[key].(json.Number)

	if !ok {
		return 0, false
	}

	i, err := n.Int64()

	if err != nil || i < 0 {
		return 0, false
	}

	return int(i), true
}

func (o object) list(key string) []any {
	l, _ := o[key].([]any)
	return l
}
