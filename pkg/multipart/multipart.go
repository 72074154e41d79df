// Package multipart decodes multipart/form-data request bodies into the
// shape backends expect: text fields folded into one object-like string and
// file parts collected by field name.
//
// Only the subset browsers send for simple forms is supported. Text values
// are not escaped, so the folded string is not valid JSON in general;
// backends parse it leniently.
package multipart

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"mercator-hq/miarh/pkg/backend"
)

// DefaultContentType applies to parts without a Content-Type header.
const DefaultContentType = "text/plain"

// ErrNoBoundary is returned when the boundary token is empty.
var ErrNoBoundary = errors.New("multipart boundary is empty")

var (
	crlfcrlf    = []byte("\r\n\r\n")
	disposition = []byte("Content-Disposition")
)

// Result is a decoded multipart body.
type Result struct {
	// BodyString holds the text fields as {"name": value ,"other": "v" }.
	// A leading file part leaves the brace out, so it reads ,"name": value }.
	BodyString string

	// Files maps field names to uploaded files.
	Files map[string]backend.File
}

// Part is one parsed multipart section.
type Part struct {
	Name        string
	Filename    string
	IsFile      bool
	ContentType string
	Value       []byte
}

// Decode splits body on boundary and folds its parts. The preamble before
// the first boundary and the epilogue after the last are ignored, as are
// parts that are neither files nor text/plain values.
func Decode(body []byte, boundary string) (*Result, error) {
	parts, err := Split(body, boundary)
	if err != nil {
		return nil, err
	}

	res := &Result{Files: make(map[string]backend.File)}
	var sb strings.Builder
	// File parts take a position too: the brace opens only when the first
	// folded part is a text field, and every later text field gets a comma.
	idx := 0
	for _, p := range parts {
		switch {
		case p.IsFile:
			res.Files[p.Name] = backend.File{Name: p.Filename, Content: p.Value}
		case p.ContentType == DefaultContentType && utf8.Valid(p.Value):
			if idx == 0 {
				sb.WriteString("{")
			} else {
				sb.WriteString(",")
			}
			writeField(&sb, p.Name, string(p.Value))
		default:
			continue
		}
		idx++
	}
	sb.WriteString("}")
	res.BodyString = sb.String()
	return res, nil
}

// writeField appends `"name": value ` with numeric values left unquoted.
func writeField(sb *strings.Builder, name, value string) {
	sb.WriteString(`"`)
	sb.WriteString(name)
	sb.WriteString(`": `)
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		sb.WriteString(value)
	} else {
		sb.WriteString(`"`)
		sb.WriteString(value)
		sb.WriteString(`"`)
	}
	sb.WriteString(" ")
}

// Split returns the parts between consecutive occurrences of "--"+boundary.
// Parts without a header block or a Content-Disposition name are skipped.
func Split(body []byte, boundary string) ([]Part, error) {
	if boundary == "" {
		return nil, ErrNoBoundary
	}
	delim := []byte("--" + boundary)

	var parts []Part
	start := bytes.Index(body, delim)
	for start >= 0 {
		next := bytes.Index(body[start+len(delim):], delim)
		if next < 0 {
			break
		}
		end := start + len(delim) + next
		if p, ok := parsePart(body[start:end]); ok {
			parts = append(parts, p)
		}
		start = end
	}
	return parts, nil
}

// parsePart parses one segment running from its boundary line up to, but
// not including, the next boundary.
func parsePart(seg []byte) (Part, bool) {
	valStart := bytes.Index(seg, crlfcrlf)
	if valStart < 0 {
		return Part{}, false
	}
	valStart += len(crlfcrlf)
	// The value ends with the CRLF preceding the next boundary.
	valEnd := len(seg) - 2
	if valEnd < valStart {
		return Part{}, false
	}

	p := Part{ContentType: DefaultContentType}
	named := false
	meta := seg[:valStart]
	for {
		i := bytes.Index(meta, disposition)
		if i < 0 {
			break
		}
		meta = meta[i:]
		end := bytes.Index(meta, crlfcrlf)
		if end < 0 {
			end = len(meta)
		}
		named = parseDisposition(string(meta[:end]), &p) || named
		meta = meta[len(disposition):]
	}
	if !named {
		return Part{}, false
	}

	p.Value = seg[valStart:valEnd]
	return p, true
}

// parseDisposition reads name, filename and Content-Type from a header
// block starting at Content-Disposition.
func parseDisposition(meta string, p *Part) bool {
	name, ok := quoted(meta, ` name="`)
	if !ok {
		return false
	}
	p.Name = name
	p.Filename, p.IsFile = quoted(meta, ` filename="`)

	p.ContentType = DefaultContentType
	if _, after, found := strings.Cut(meta, "Content-Type: "); found {
		ct, _, _ := strings.Cut(after, "\r\n")
		if ct = strings.TrimSpace(ct); ct != "" {
			p.ContentType = ct
		}
	}
	return true
}

// quoted returns the text between key and the next double quote.
func quoted(s, key string) (string, bool) {
	_, after, found := strings.Cut(s, key)
	if !found {
		return "", false
	}
	v, _, _ := strings.Cut(after, `"`)
	return v, true
}
