package txt

import (
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/bohning/usdb-syncer-addons/core/song"
)

// Pitch bounds for the clamp pass. SingStar files occasionally carry
// pitches outside the MIDI range the target format renders.
const (
	minPitch = 1
	maxPitch = 127
)

// Finish runs the finishing passes on the assembled document, in fixed
// order. Every pass is idempotent and mutates the result in place.
func Finish(r *song.Result, log *slog.Logger) {
	ShiftGap(r, log)
	RepairOverlaps(r, log)
	ClampPitches(r, log)
	FixApostrophes(r)
	RestyleBreaks(r)
	CapitalizeLines(r)
	FixQuotationMarks(r)
}

func tracks(r *song.Result) []*song.Track {
	return []*song.Track{r.Track1, r.Track2}
}

// ShiftGap moves the song so the first note starts at beat 0 and folds
// the removed lead-in into the GAP header (milliseconds, via the BPM).
func ShiftGap(r *song.Result, log *slog.Logger) {
	first := math.MaxInt
	for _, t := range tracks(r) {
		if t == nil || len(t.Lines) == 0 {
			continue
		}
		if s := t.Lines[0].Notes[0].Start; s < first {
			first = s
		}
	}
	if first == math.MaxInt || first == 0 {
		return
	}
	for _, t := range tracks(r) {
		if t == nil {
			continue
		}
		for _, line := range t.Lines {
			for _, n := range line.Notes {
				n.Start -= first
			}
			if line.HasBreak {
				line.BreakOut -= first
			}
			if line.HasBreakIn {
				line.BreakIn -= first
			}
		}
	}
	if r.Meta.HasMedley() {
		r.Meta.MedleyStart -= first
		r.Meta.MedleyEnd -= first
	}
	if r.Meta.HasBPM && r.Meta.BPM > 0 {
		// UltraStar beats are quarter beats: one beat lasts
		// 60000/(4*BPM) milliseconds.
		r.Meta.GapMillis += int(math.Round(float64(first) * 15000 / r.Meta.BPM))
	}
	log.Info("shifted song start", "beats", first, "gap_ms", r.Meta.GapMillis)
}

// RepairOverlaps truncates notes that overlap their successor in the
// track, including the last note of a line running into the next line.
// Touching notes are left alone.
func RepairOverlaps(r *song.Result, log *slog.Logger) {
	for _, t := range tracks(r) {
		if t == nil {
			continue
		}
		var prev *song.Note
		for _, line := range t.Lines {
			for _, n := range line.Notes {
				if prev != nil && prev.End() > n.Start {
					truncated := n.Start - prev.Start
					if truncated < 1 {
						truncated = 1
					}
					log.Warn("overlapping notes repaired",
						"start", prev.Start, "duration", prev.Duration, "truncated", truncated)
					prev.Duration = truncated
				}
				prev = n
			}
		}
	}
}

// ClampPitches forces every pitch into the renderable MIDI range.
func ClampPitches(r *song.Result, log *slog.Logger) {
	for _, t := range tracks(r) {
		if t == nil {
			continue
		}
		for _, line := range t.Lines {
			for _, n := range line.Notes {
				if n.Pitch < minPitch {
					log.Warn("pitch clamped", "pitch", n.Pitch, "to", minPitch)
					n.Pitch = minPitch
				} else if n.Pitch > maxPitch {
					log.Warn("pitch clamped", "pitch", n.Pitch, "to", maxPitch)
					n.Pitch = maxPitch
				}
			}
		}
	}
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "´", "'", "`", "'")

// FixApostrophes normalizes apostrophe variants in all lyric text.
func FixApostrophes(r *song.Result) {
	for _, t := range tracks(r) {
		if t == nil {
			continue
		}
		for _, line := range t.Lines {
			for _, n := range line.Notes {
				n.Text = apostrophes.Replace(n.Text)
			}
		}
	}
}

// RestyleBreaks forward-fills each break's in-time with the start of
// the following line.
func RestyleBreaks(r *song.Result) {
	for _, t := range tracks(r) {
		if t == nil {
			continue
		}
		for i, line := range t.Lines {
			if !line.HasBreak || i+1 >= len(t.Lines) {
				continue
			}
			next := t.Lines[i+1]
			if len(next.Notes) == 0 {
				continue
			}
			line.BreakIn = next.Notes[0].Start
			line.HasBreakIn = true
		}
	}
}

// CapitalizeLines upper-cases the first letter of each line, skipping
// hold markers.
func CapitalizeLines(r *song.Result) {
	for _, t := range tracks(r) {
		if t == nil {
			continue
		}
		for _, line := range t.Lines {
			for _, n := range line.Notes {
				trimmed := strings.TrimSpace(n.Text)
				if trimmed == "" || trimmed == "~" {
					continue
				}
				n.Text = capitalizeFirst(n.Text)
				break
			}
		}
	}
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
		if r != ' ' && r != '\'' && r != '"' && r != '(' {
			break
		}
	}
	return string(runes)
}

// Quotation mark styles keyed by detected language. Anything not listed
// uses plain typewriter quotes unchanged.
var quoteStyles = map[string][2]string{
	"German": {"„", "“"},
	"French": {"« ", " »"},
}

// FixQuotationMarks replaces straight double quotes with the quotation
// marks of the detected language, alternating open/close across each
// track. Without a confident language the pass does nothing.
func FixQuotationMarks(r *song.Result) {
	style, ok := quoteStyles[r.Meta.Language]
	if !ok {
		return
	}
	for _, t := range tracks(r) {
		if t == nil {
			continue
		}
		open := true
		for _, line := range t.Lines {
			for _, n := range line.Notes {
				if !strings.Contains(n.Text, `"`) {
					continue
				}
				var b strings.Builder
				for _, c := range n.Text {
					if c != '"' {
						b.WriteRune(c)
						continue
					}
					if open {
						b.WriteString(style[0])
					} else {
						b.WriteString(style[1])
					}
					open = !open
				}
				n.Text = b.String()
			}
		}
	}
}
