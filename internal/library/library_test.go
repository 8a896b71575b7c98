package library

import (
	"path/filepath"
	"testing"
	"time"
)

func open(t *testing.T) *Library {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "songs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// TestRecordAndLookup verifies the round trip of one entry.
func TestRecordAndLookup(t *testing.T) {
	l := open(t)
	e := &Entry{
		SourcePath:  "/songs/a/melody_1.xml",
		Fingerprint: Fingerprint([]byte("<MELODY/>")),
		Artist:      "Ann",
		Title:       "Song",
		Language:    "English",
		BPM:         240,
		Duet:        true,
		Version:     2,
		TxtPath:     "/songs/a/Ann - Song.txt",
		ConvertedAt: time.Now(),
	}
	if err := l.Record(e); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	got, ok, err := l.Lookup(e.SourcePath)
	if err != nil || !ok {
		t.Fatalf("Lookup = (%v, %v)", ok, err)
	}
	if got.Artist != "Ann" || got.Title != "Song" || !got.Duet || got.BPM != 240 {
		t.Errorf("entry mismatch: %+v", got)
	}
	if got.Fingerprint != e.Fingerprint {
		t.Errorf("fingerprint mismatch")
	}
}

// TestLookupMissing verifies a miss is not an error.
func TestLookupMissing(t *testing.T) {
	l := open(t)
	_, ok, err := l.Lookup("/nowhere")
	if err != nil {
		t.Fatalf("Lookup errored: %v", err)
	}
	if ok {
		t.Error("Lookup should miss")
	}
}

// TestRecordUpsert verifies re-recording a path replaces the row.
func TestRecordUpsert(t *testing.T) {
	l := open(t)
	e := &Entry{SourcePath: "/p", Fingerprint: "f1", Artist: "A", Title: "T", TxtPath: "/t", ConvertedAt: time.Now()}
	if err := l.Record(e); err != nil {
		t.Fatal(err)
	}
	e.Fingerprint = "f2"
	if err := l.Record(e); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := l.Lookup("/p")
	if !ok || got.Fingerprint != "f2" {
		t.Errorf("upsert failed: %+v", got)
	}
	all, err := l.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("got %d rows, want 1", len(all))
	}
}

// TestFingerprintStable verifies equal bytes share a fingerprint and
// different bytes do not.
func TestFingerprintStable(t *testing.T) {
	a := Fingerprint([]byte("abc"))
	b := Fingerprint([]byte("abc"))
	c := Fingerprint([]byte("abd"))
	if a != b {
		t.Error("fingerprint should be deterministic")
	}
	if a == c {
		t.Error("different bytes should differ")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}
