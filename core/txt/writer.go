// Package txt assembles and serializes the UltraStar song document and
// implements the finishing pipeline the converter runs before handing
// a result back.
package txt

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bohning/usdb-syncer-addons/core/song"
)

// Note type prefixes in the UltraStar line format.
var notePrefix = map[song.NoteKind]string{
	song.Regular:   ":",
	song.Golden:    "*",
	song.Rap:       "R",
	song.GoldenRap: "G",
	song.Freestyle: "F",
}

// Write serializes the result as an UltraStar TXT document: the header
// block, one or two player sections, and the terminator. Player
// sections appear whenever a second track carries notes, duet flag or
// not; the flat layout is reserved for genuinely single-track songs.
func Write(w io.Writer, r *song.Result) error {
	var b strings.Builder
	writeHeaders(&b, r)

	if r.IsDuet() || hasLines(r.Track2) {
		b.WriteString("P1\n")
		writeTrack(&b, r.Track1)
		b.WriteString("P2\n")
		writeTrack(&b, r.Track2)
	} else {
		writeTrack(&b, r.Track1)
	}
	b.WriteString("E\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeaders(b *strings.Builder, r *song.Result) {
	m := &r.Meta
	header(b, "VERSION", "1.0.0")
	header(b, "ARTIST", m.Artist)
	header(b, "TITLE", m.Title)
	header(b, "MP3", r.Assets.Audio)
	header(b, "AUDIO", r.Assets.Audio)
	header(b, "COVER", r.Assets.Cover)
	header(b, "BACKGROUND", r.Assets.Background)
	if m.HasBPM {
		header(b, "BPM", FormatBPM(m.BPM))
	}
	header(b, "GAP", strconv.Itoa(m.GapMillis))
	header(b, "GENRE", m.Genre)
	header(b, "YEAR", m.Year)
	header(b, "LANGUAGE", m.Language)
	if m.Duet {
		header(b, "EDITION", "Duet")
		header(b, "P1", m.Player1)
		header(b, "P2", m.Player2)
	}
	header(b, "CREATOR", r.Creator)
	if m.HasMedley() {
		header(b, "MEDLEYSTARTBEAT", strconv.Itoa(m.MedleyStart))
		header(b, "MEDLEYENDBEAT", strconv.Itoa(m.MedleyEnd))
	}
}

func header(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "#%s:%s\n", key, value)
}

func hasLines(t *song.Track) bool {
	return t != nil && !t.IsEmpty()
}

func writeTrack(b *strings.Builder, t *song.Track) {
	if t == nil {
		return
	}
	for _, line := range t.Lines {
		for _, n := range line.Notes {
			fmt.Fprintf(b, "%s %d %d %d %s\n", notePrefix[n.Kind], n.Start, n.Duration, n.Pitch, n.Text)
		}
		if line.HasBreak {
			if line.HasBreakIn {
				fmt.Fprintf(b, "- %d %d\n", line.BreakOut, line.BreakIn)
			} else {
				fmt.Fprintf(b, "- %d\n", line.BreakOut)
			}
		}
	}
}

// FormatBPM renders a BPM value with at most two decimals, trailing
// zeros trimmed.
func FormatBPM(bpm float64) string {
	rounded := math.Round(bpm*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
