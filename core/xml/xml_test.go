package xml

import (
	"io"
	"log/slog"
	"testing"

	"github.com/bohning/usdb-syncer-addons/core/encoding"
	"github.com/bohning/usdb-syncer-addons/core/errors"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestParsePlainDocument verifies a non-namespaced melody parses and
// exposes root attributes.
func TestParsePlainDocument(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<MELODY Tempo="96" Resolution="Semiquaver" Version="1">
  <SENTENCE><NOTE MidiNote="60" Duration="4" Lyric="la"/></SENTENCE>
</MELODY>`)
	doc, err := Parse(data, encoding.UTF8(), discard())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Prefix() != "" {
		t.Errorf("Prefix = %q, want empty", doc.Prefix())
	}
	root := doc.Root()
	if root == nil || root.Name() != "MELODY" {
		t.Fatalf("root = %v, want MELODY", root.Name())
	}
	if got := root.Attr("Tempo"); got != "96" {
		t.Errorf("Tempo = %q, want 96", got)
	}
	sentences := doc.ChildElements(root, "SENTENCE")
	if len(sentences) != 1 {
		t.Fatalf("got %d sentences, want 1", len(sentences))
	}
	notes := doc.ChildElements(sentences[0], "NOTE")
	if len(notes) != 1 || notes[0].Attr("Lyric") != "la" {
		t.Errorf("note traversal failed: %v", notes)
	}
}

// TestParseNamespacedDocument verifies prefixed documents are queried
// identically to plain ones.
func TestParseNamespacedDocument(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<ss:MELODY xmlns:ss="http://www.singstargame.com" Tempo="120" Version="2">
  <ss:TRACK Artist="Ann">
    <ss:SENTENCE><ss:NOTE MidiNote="62" Duration="2" Lyric="hey"/></ss:SENTENCE>
  </ss:TRACK>
</ss:MELODY>`)
	doc, err := Parse(data, encoding.UTF8(), discard())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Prefix() != "ss" {
		t.Errorf("Prefix = %q, want ss", doc.Prefix())
	}
	root := doc.Root()
	tracks := doc.ChildElements(root, "TRACK")
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tracks))
	}
	if got := tracks[0].Attr("Artist"); got != "Ann" {
		t.Errorf("Artist = %q, want Ann", got)
	}
	sentences := doc.ChildElements(tracks[0], "SENTENCE")
	if len(sentences) != 1 {
		t.Fatalf("got %d sentences, want 1", len(sentences))
	}
	if notes := doc.ChildElements(sentences[0], "NOTE"); len(notes) != 1 {
		t.Errorf("got %d notes, want 1", len(notes))
	}
}

// TestParseMalformedRecovers verifies lenient parsing tolerates the
// kind of damage real files carry.
func TestParseMalformedRecovers(t *testing.T) {
	data := []byte(`<MELODY Tempo="100"><SENTENCE><NOTE MidiNote="60" Duration="1" Lyric="a & b"/></SENTENCE></MELODY>`)
	doc, err := Parse(data, encoding.UTF8(), discard())
	if err != nil {
		t.Fatalf("lenient parse should recover: %v", err)
	}
	if doc.Root() == nil {
		t.Fatal("recovered document should have a root")
	}
}

// TestParseLegacyBytesFallback verifies a Windows-1252 body that fails
// UTF-8 decoding is retried under the fallback.
func TestParseLegacyBytesFallback(t *testing.T) {
	body := `<MELODY Tempo="100"><SENTENCE><NOTE MidiNote="60" Duration="1" Lyric="B?hm"/></SENTENCE></MELODY>`
	data := []byte(body)
	for i := range data {
		if data[i] == '?' {
			data[i] = 0xF6 // ö in Windows-1252, invalid as UTF-8
		}
	}
	doc, err := Parse(data, encoding.UTF8(), discard())
	if err != nil {
		t.Fatalf("fallback retry should succeed: %v", err)
	}
	if doc.Charset.Name != encoding.Fallback().Name {
		t.Errorf("charset = %q, want fallback", doc.Charset.Name)
	}
}

// TestParseDeclaredMatchingEncoding verifies the round-trip property: a
// document whose declaration matches its bytes parses without fallback.
func TestParseDeclaredMatchingEncoding(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?><MELODY Tempo="90"/>`)
	doc, err := Parse(data, encoding.UTF8(), discard())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Charset.Name != "utf-8" {
		t.Errorf("charset = %q, fallback should not have triggered", doc.Charset.Name)
	}
}

// TestParseHopeless verifies total garbage fails with the parse sentinel.
func TestParseHopeless(t *testing.T) {
	_, err := Parse([]byte{0x00, 0x01, 0x02}, encoding.Fallback(), discard())
	if err == nil {
		return // lenient parser may still produce an empty tree
	}
	if !errors.Is(err, errors.ErrParse) && !errors.Is(err, errors.ErrDecode) {
		t.Errorf("want ErrParse or ErrDecode, got %v", err)
	}
}

// TestHasAttr verifies presence is distinguished from emptiness.
func TestHasAttr(t *testing.T) {
	data := []byte(`<MELODY Duet=""/>`)
	doc, err := Parse(data, encoding.UTF8(), discard())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	root := doc.Root()
	if !root.HasAttr("Duet") {
		t.Error("Duet attribute should be present")
	}
	if root.HasAttr("Tempo") {
		t.Error("Tempo attribute should be absent")
	}
}
