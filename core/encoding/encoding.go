// Package encoding resolves the text encoding of SingStar melody files.
//
// Melody XML files come in a mix of UTF-8 and legacy single-byte
// encodings, often with a declaration that does not match the actual
// bytes. The resolver reads the whole source once, sniffs the declared
// encoding from the first line, and hands the chosen charset plus raw
// bytes to the parser, which may still retry under the fallback.
package encoding

import (
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/bohning/usdb-syncer-addons/core/errors"
)

// previewLimit is how many leading bytes are inspected for an encoding
// declaration.
const previewLimit = 150

// Charset identifies a supported text encoding. The zero value is not
// valid; use UTF8, Fallback, or Lookup.
type Charset struct {
	Name string
	cm   xenc.Encoding // nil means UTF-8 (no transform)
}

// UTF8 returns the default charset.
func UTF8() Charset { return Charset{Name: "utf-8"} }

// Fallback returns the legacy single-byte charset retried when the
// default fails. Windows-1252 is a superset of Latin-1 and covers the
// punctuation these files actually contain.
func Fallback() Charset { return Charset{Name: "windows-1252", cm: charmap.Windows1252} }

// IsFallback reports whether c is the legacy fallback charset.
func (c Charset) IsFallback() bool { return c.Name == Fallback().Name }

// Lookup maps a declared encoding name to a supported charset.
func Lookup(name string) (Charset, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return UTF8(), true
	case "iso-8859-1", "iso8859-1", "latin-1", "latin1":
		return Charset{Name: "iso-8859-1", cm: charmap.ISO8859_1}, true
	case "windows-1252", "cp1252", "cp-1252":
		return Fallback(), true
	}
	return Charset{}, false
}

// Decode transcodes data to a UTF-8 string under the charset.
func (c Charset) Decode(data []byte) (string, error) {
	if c.cm == nil {
		if !utf8.Valid(data) {
			return "", errors.NewDecode(nil, c.Name)
		}
		return string(data), nil
	}
	out, err := c.cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.NewDecode(err, c.Name)
	}
	return string(out), nil
}

var declPattern = regexp.MustCompile(`(?i)encoding\s*=\s*["']([^"']+)["']`)

// Resolve reads the entire byte source and determines the charset to
// parse it under. Zero bytes is fatal; everything else degrades to the
// default charset with log diagnostics.
func Resolve(r io.Reader, log *slog.Logger) ([]byte, Charset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Charset{}, errors.Wrap(err, "reading input")
	}
	if len(data) == 0 {
		return nil, Charset{}, errors.ErrEmptyInput
	}

	preview := previewLine(data, log)
	if preview == "" {
		return data, UTF8(), nil
	}

	m := declPattern.FindStringSubmatch(preview)
	if m == nil {
		log.Info("no encoding declaration found, assuming default", "default", UTF8().Name)
		return data, UTF8(), nil
	}
	cs, ok := Lookup(m[1])
	if !ok {
		log.Warn("unrecognized encoding declaration, falling back to default",
			"declared", m[1], "default", UTF8().Name)
		return data, UTF8(), nil
	}
	log.Info("encoding declaration found", "encoding", cs.Name)
	return data, cs, nil
}

// previewLine decodes the first line of the leading bytes, speculatively
// under UTF-8 and then under the fallback. An undecodable preview is not
// fatal; the declaration sniff just comes up empty.
func previewLine(data []byte, log *slog.Logger) string {
	head := data
	if len(head) > previewLimit {
		head = head[:previewLimit]
		// A rune may be cut at the boundary; drop the partial tail so a
		// valid UTF-8 document is not misjudged.
		for len(head) > 0 && !utf8.Valid(head) {
			head = head[:len(head)-1]
			if len(head) < previewLimit-utf8.UTFMax {
				break
			}
		}
	}

	text, err := UTF8().Decode(head)
	if err != nil {
		text, err = Fallback().Decode(head)
		if err != nil {
			log.Warn("preview undecodable under default and fallback encodings")
			return ""
		}
	}
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	return text
}

// RewriteDeclaration replaces the encoding value in an XML declaration
// with utf-8. Decoded text is always UTF-8 by the time it reaches the
// parser, and a stale declaration would make the decoder reject it.
func RewriteDeclaration(text string) string {
	end := strings.Index(text, "?>")
	if !strings.HasPrefix(text, "<?xml") || end < 0 {
		return text
	}
	decl := declPattern.ReplaceAllString(text[:end], `encoding="utf-8"`)
	return decl + text[end:]
}
