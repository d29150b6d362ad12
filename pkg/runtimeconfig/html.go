package runtimeconfig

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoHead is returned when the document has no closing head tag to
// insert before.
var ErrNoHead = errors.New("no </head> tag found")

// InsertScriptTag returns doc with a script tag referencing src placed
// immediately before the first </head>. If any script already references a
// file with the same base name, doc is returned untouched and inserted is
// false. Everything outside the insertion point is preserved byte for byte.
func InsertScriptTag(doc []byte, src string) (out []byte, inserted bool, err error) {
	want := scriptBase(src)
	z := html.NewTokenizer(bytes.NewReader(doc))

	offset := 0
	headEnd := -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return doc, false, z.Err()
		}
		// Raw is invalidated by TagName/TagAttr, so take its length first.
		n := len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "script" || !hasAttr {
				break
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" && scriptBase(string(val)) == want {
					return doc, false, nil
				}
				if !more {
					break
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "head" && headEnd < 0 {
				headEnd = offset
			}
		}
		offset += n
	}

	if headEnd < 0 {
		return doc, false, ErrNoHead
	}

	tag := `<script src="` + html.EscapeString(src) + `"></script>`
	var buf bytes.Buffer
	buf.Grow(len(doc) + len(tag))
	buf.Write(doc[:headEnd])
	buf.WriteString(tag)
	buf.Write(doc[headEnd:])
	return buf.Bytes(), true, nil
}

func scriptBase(src string) string {
	src = strings.TrimSpace(src)
	if u, err := url.Parse(src); err == nil {
		src = u.Path
	}
	return path.Base(src)
}
