package melody

import (
	"strings"

	"github.com/bohning/usdb-syncer-addons/core/song"
)

// Two-character vowel sequences treated as one syllable nucleus.
// Membership is case-sensitive; a capitalized pair at a word start is
// handled by the single-vowel check instead.
var diphthongs = map[string]bool{
	"ai": true, "au": true, "ay": true,
	"ea": true, "ee": true, "ei": true, "eu": true, "ey": true,
	"ie": true, "oa": true, "oe": true, "oi": true, "oo": true,
	"ou": true, "oy": true, "ue": true, "ui": true,
}

const vowels = "aeiouyäöüàáâéèêíìîóòôúùûAEIOUYÄÖÜ"

// RefineLine applies the lyric heuristics to one completed line, in
// fixed order: tilde-run spacing, then syllable splitting across held
// notes. The note slice is mutated in place and must not be shared with
// another line.
func RefineLine(l *song.Line) {
	spaceTildeRuns(l.Notes)
	splitSyllables(l.Notes)
}

// isHold reports whether a note is a bare continuation marker.
func isHold(n *song.Note) bool {
	return strings.TrimSpace(n.Text) == "~"
}

// spaceTildeRuns normalizes every maximal run of hold notes so the
// word-boundary space appears exactly once, on the run's last note.
// Applying it twice is a no-op.
func spaceTildeRuns(notes []*song.Note) {
	for i := 0; i < len(notes); {
		if !isHold(notes[i]) {
			i++
			continue
		}
		j := i
		for j+1 < len(notes) && isHold(notes[j+1]) {
			j++
		}
		for k := i; k < j; k++ {
			notes[k].Text = "~"
		}
		notes[j].Text = "~ "
		i = j + 1
	}
}

// splitSyllables reconstructs word boundaries for words sung across
// held notes: the text before a hold run is split at its earliest vowel
// or diphthong, the left part stays on the originating note, and the
// remainder rides the run's last note as "~rest ". A melisma on the
// vowel of "love" then carries "lo" followed by "~ve ".
func splitSyllables(notes []*song.Note) {
	for i := 0; i < len(notes); i++ {
		if isHold(notes[i]) {
			continue
		}
		word := strings.TrimSpace(notes[i].Text)
		if word == "" || i+1 >= len(notes) || !isHold(notes[i+1]) {
			continue
		}
		runStart := i + 1
		runEnd := runStart
		for runEnd+1 < len(notes) && isHold(notes[runEnd+1]) {
			runEnd++
		}

		end, ok := nucleusEnd(word)
		if ok {
			rest := strings.TrimSpace(word[end:])
			rest = strings.TrimSuffix(rest, "-")
			notes[i].Text = word[:end]
			for k := runStart; k < runEnd; k++ {
				notes[k].Text = "~"
			}
			notes[runEnd].Text = "~" + rest + " "
		}
		i = runEnd
	}
}

// nucleusEnd returns the byte offset just past the earliest vowel or
// diphthong in word. Diphthongs are checked before single vowels at
// each position.
func nucleusEnd(word string) (int, bool) {
	runes := []rune(word)
	offset := 0
	for i, r := range runes {
		if i+1 < len(runes) && diphthongs[string(runes[i:i+2])] {
			return offset + len(string(r)) + len(string(runes[i+1])), true
		}
		if strings.ContainsRune(vowels, r) {
			return offset + len(string(r)), true
		}
		offset += len(string(r))
	}
	return 0, false
}
