package language

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/bohning/usdb-syncer-addons/core/song"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resultWithLyrics(words ...string) *song.Result {
	line := &song.Line{}
	for i, w := range words {
		line.Notes = append(line.Notes, &song.Note{Start: i, Duration: 1, Pitch: 60, Text: w + " "})
	}
	return &song.Result{
		Track1: &song.Track{Lines: []*song.Line{line}},
		Track2: &song.Track{},
	}
}

// TestDetectEnglish verifies confident detection of an unambiguous text.
func TestDetectEnglish(t *testing.T) {
	words := strings.Fields(`the quick brown fox jumps over the lazy dog and
		everybody knows that this song is written in the english language
		with many common english words that should leave no doubt at all`)
	got := Detect(resultWithLyrics(words...), discard())
	if got != "English" {
		t.Errorf("Detect = %q, want English", got)
	}
}

// TestDetectEmptyLyrics verifies empty input yields no language.
func TestDetectEmptyLyrics(t *testing.T) {
	if got := Detect(resultWithLyrics(), discard()); got != "" {
		t.Errorf("Detect = %q, want empty", got)
	}
}

// TestDetectHoldMarkersIgnored verifies hold markers alone carry no
// language signal.
func TestDetectHoldMarkersIgnored(t *testing.T) {
	if got := Detect(resultWithLyrics("~", "~", "~"), discard()); got != "" {
		t.Errorf("Detect = %q, want empty for marker-only text", got)
	}
}
