package melody

import (
	"reflect"
	"testing"

	"github.com/bohning/usdb-syncer-addons/core/song"
)

func lineOf(texts ...string) *song.Line {
	l := &song.Line{}
	for i, t := range texts {
		l.Notes = append(l.Notes, &song.Note{Start: i, Duration: 1, Pitch: 60, Text: t})
	}
	return l
}

func texts(l *song.Line) []string {
	out := make([]string, len(l.Notes))
	for i, n := range l.Notes {
		out[i] = n.Text
	}
	return out
}

// TestTildeRunSpacing verifies the boundary space lands once, on the
// last note of each hold run.
func TestTildeRunSpacing(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			"single run",
			[]string{"la ", "~", "~", "~"},
			[]string{"la ", "~", "~", "~ "},
		},
		{
			"two runs",
			[]string{"la ", "~", "do ", "~", "~"},
			[]string{"la ", "~ ", "do ", "~", "~ "},
		},
		{
			"no holds",
			[]string{"la ", "do "},
			[]string{"la ", "do "},
		},
		{
			"already spaced",
			[]string{"la ", "~", "~ "},
			[]string{"la ", "~", "~ "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := lineOf(tt.in...)
			spaceTildeRuns(l.Notes)
			if got := texts(l); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestTildeRunSpacingIdempotent verifies applying the pass twice equals
// applying it once.
func TestTildeRunSpacingIdempotent(t *testing.T) {
	l := lineOf("la ", "~", "~", "mi ", "~")
	spaceTildeRuns(l.Notes)
	once := texts(l)
	spaceTildeRuns(l.Notes)
	if got := texts(l); !reflect.DeepEqual(got, once) {
		t.Errorf("second application changed texts: %q -> %q", once, got)
	}
}

// TestSyllableSplitLove verifies the held "love-" scenario: the word
// splits after its first vowel and the remainder rides the hold.
func TestSyllableSplitLove(t *testing.T) {
	l := lineOf("love-", "~")
	RefineLine(l)
	want := []string{"lo", "~ve "}
	if got := texts(l); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestSyllableSplitLongRun verifies intermediate holds reset to bare
// markers and only the last carries the remainder.
func TestSyllableSplitLongRun(t *testing.T) {
	l := lineOf("heart ", "~", "~", "~")
	RefineLine(l)
	// "ea" is a diphthong: split after it.
	want := []string{"hea", "~", "~", "~rt "}
	if got := texts(l); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestSyllableSplitNoVowel verifies consonant-only text stays unsplit.
func TestSyllableSplitNoVowel(t *testing.T) {
	l := lineOf("pst ", "~", "~")
	RefineLine(l)
	want := []string{"pst ", "~", "~ "}
	if got := texts(l); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestSyllableSplitDiphthongPriority verifies diphthongs win over the
// single vowel at the same position.
func TestSyllableSplitDiphthongPriority(t *testing.T) {
	l := lineOf("loud ", "~")
	RefineLine(l)
	want := []string{"lou", "~d "}
	if got := texts(l); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestSyllableSplitVowelAtEnd verifies a word ending on its first vowel
// leaves only a bare remainder marker.
func TestSyllableSplitVowelAtEnd(t *testing.T) {
	l := lineOf("la ", "~")
	RefineLine(l)
	want := []string{"la", "~ "}
	if got := texts(l); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestSplitRunLengthBound verifies the split never grows a run's
// concatenated text beyond the source word plus one space.
func TestSplitRunLengthBound(t *testing.T) {
	words := []string{"love-", "heart ", "screamed ", "oo ", "why "}
	for _, w := range words {
		l := lineOf(w, "~", "~")
		orig := len([]rune(texts(l)[0]))
		RefineLine(l)
		run := texts(l)[1:]
		total := 0
		for _, s := range run {
			total += len([]rune(s))
		}
		if total > orig+1 {
			t.Errorf("%q: run text %q totals %d runes, bound %d", w, run, total, orig+1)
		}
	}
}

// TestRefineMixedLine verifies heuristics leave surrounding words alone.
func TestRefineMixedLine(t *testing.T) {
	l := lineOf("I ", "love-", "~", "~", "you ")
	RefineLine(l)
	want := []string{"I ", "lo", "~", "~ve ", "you "}
	if got := texts(l); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}
