package melody

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/bohning/usdb-syncer-addons/core/song"
	"github.com/bohning/usdb-syncer-addons/core/xml"
)

// Singer designations carried by sentence elements.
const (
	singerSolo1 = "Solo 1"
	singerSolo2 = "Solo 2"
	singerGroup = "Group"
)

// Medley marker types. The last marker observed wins, so a corrected
// marker later in the file takes effect.
const (
	markerMedleyBegin = "MedleyNormalBegin"
	markerMedleyEnd   = "MedleyNormalEnd"
)

type builder struct {
	doc    *xml.Document
	meta   *song.Metadata
	log    *slog.Logger
	track1 *song.Track
	track2 *song.Track

	// cursor is the running beat position. It spans the whole song in
	// V1 and resets per track in V2/V4.
	cursor int
}

// BuildTracks walks the document's sentences and notes into one or two
// singer tracks, dispatching on the schema version for the traversal
// shape. Medley beats are recorded into meta as a side effect.
func BuildTracks(doc *xml.Document, meta *song.Metadata, log *slog.Logger) (*song.Track, *song.Track) {
	b := &builder{
		doc:    doc,
		meta:   meta,
		log:    log,
		track1: &song.Track{},
		track2: &song.Track{},
	}
	root := doc.Root()
	if root == nil {
		return b.track1, b.track2
	}

	if meta.Version.Nested() {
		b.buildNested(root)
	} else {
		b.buildFlat(root)
	}
	clearTrailingBreak(b.track1)
	clearTrailingBreak(b.track2)
	return b.track1, b.track2
}

// buildFlat handles V1: sentences directly under the root, one beat
// cursor for the whole song, and a carried singer token that routes
// duet lines.
func (b *builder) buildFlat(root *xml.Node) {
	singer := singerSolo1
	for _, sentence := range b.doc.ChildElements(root, "SENTENCE") {
		if sentence.HasAttr("Singer") {
			singer = sentence.Attr("Singer")
		}
		line := b.buildLine(sentence)
		if line == nil {
			continue
		}
		b.route(singer, line)
	}
}

// buildNested handles V2/V4: track elements under the root, each with
// its own beat cursor. Routing is positional; the first track is track
// 1 and every further track collapses into track 2. The singer token is
// still carried per track but plays no routing role in these schemas.
func (b *builder) buildNested(root *xml.Node) {
	for i, track := range b.doc.ChildElements(root, "TRACK") {
		b.cursor = 0
		singer := singerSolo1
		for _, sentence := range b.doc.ChildElements(track, "SENTENCE") {
			if sentence.HasAttr("Singer") {
				singer = sentence.Attr("Singer")
				b.log.Debug("singer designation on nested sentence", "singer", singer)
			}
			line := b.buildLine(sentence)
			if line == nil {
				continue
			}
			if i == 0 {
				b.track1.Lines = append(b.track1.Lines, line)
			} else {
				b.track2.Lines = append(b.track2.Lines, line)
			}
		}
	}
}

// route assigns a V1 line to its track(s). Group lines are duplicated
// so later in-place refinement of one track cannot bleed into the
// other.
func (b *builder) route(singer string, line *song.Line) {
	if !b.meta.Duet {
		b.track1.Lines = append(b.track1.Lines, line)
		return
	}
	switch singer {
	case singerSolo2:
		b.track2.Lines = append(b.track2.Lines, line)
	case singerGroup:
		b.track1.Lines = append(b.track1.Lines, line)
		b.track2.Lines = append(b.track2.Lines, copyLine(line))
	default:
		b.track1.Lines = append(b.track1.Lines, line)
	}
}

func copyLine(l *song.Line) *song.Line {
	dup := &song.Line{BreakOut: l.BreakOut, HasBreak: l.HasBreak}
	dup.Notes = make([]*song.Note, len(l.Notes))
	for i, n := range l.Notes {
		note := *n
		dup.Notes[i] = &note
	}
	return dup
}

// buildLine processes one sentence's notes. A sentence that retains no
// notes yields nil; otherwise the line's final note is guaranteed to
// end in exactly one trailing space and the line carries a break marker
// with its ending beat.
func (b *builder) buildLine(sentence *xml.Node) *song.Line {
	var notes []*song.Note
	for _, note := range b.doc.ChildElements(sentence, "NOTE") {
		b.processNote(note, &notes)
	}
	if len(notes) == 0 {
		return nil
	}
	last := notes[len(notes)-1]
	last.Text = strings.TrimRight(last.Text, " ") + " "
	return &song.Line{Notes: notes, BreakOut: b.cursor, HasBreak: true}
}

// processNote extracts one note element: medley markers first, then the
// numeric attributes, then the lyric. Degenerate notes are dropped but
// a positive duration always advances the cursor.
func (b *builder) processNote(note *xml.Node, out *[]*song.Note) {
	b.extractMarkers(note)

	rawDuration := note.Attr("Duration")
	duration, err := strconv.Atoi(strings.TrimSpace(rawDuration))
	if err != nil {
		b.log.Warn("unparsable note duration, skipping note", "duration", rawDuration)
		return
	}
	if duration <= 0 {
		return
	}

	start := b.cursor
	b.cursor += duration

	rawPitch := note.Attr("MidiNote")
	pitch, err := strconv.Atoi(strings.TrimSpace(rawPitch))
	if err != nil {
		b.log.Warn("unparsable note pitch, skipping note", "pitch", rawPitch)
		return
	}
	if pitch <= 0 {
		return // rest
	}

	freestyle := note.Attr("FreeStyle") == "Yes"
	rap := note.Attr("Rap") == "Yes"
	golden := note.Attr("Bonus") == "Yes"

	text := cleanLyric(note.Attr("Lyric"))
	if text == "" && !freestyle {
		return
	}

	*out = append(*out, &song.Note{
		Kind:     classify(golden, rap, freestyle),
		Start:    start,
		Duration: duration,
		Pitch:    pitch,
		Text:     text,
	})
}

// extractMarkers records medley begin/end beats from marker children.
func (b *builder) extractMarkers(note *xml.Node) {
	for _, marker := range b.doc.ChildElements(note, "MARKER") {
		switch marker.Attr("Type") {
		case markerMedleyBegin:
			b.meta.MedleyStart = b.cursor
			b.meta.HasMedleyStart = true
		case markerMedleyEnd:
			b.meta.MedleyEnd = b.cursor
			b.meta.HasMedleyEnd = true
		}
	}
}

// classify maps the three note flags onto the five note kinds.
// Free-style wins unless the note is also rap; rap splits on golden.
func classify(golden, rap, freestyle bool) song.NoteKind {
	switch {
	case freestyle && !rap:
		return song.Freestyle
	case rap && golden:
		return song.GoldenRap
	case rap:
		return song.Rap
	case golden:
		return song.Golden
	}
	return song.Regular
}

// cleanLyric normalizes one raw lyric fragment:
//   - a bare hyphen is the hold marker "~"
//   - " -" marks continuation into the next note; the marker goes, no
//     boundary space is added
//   - a genuine trailing hyphen inside a hyphenated word stays verbatim
//   - anything else ends a word and gains a single trailing space
func cleanLyric(s string) string {
	switch {
	case s == "-":
		return "~"
	case strings.HasSuffix(s, " -"):
		return strings.TrimSuffix(s, " -")
	case s == "":
		return ""
	case strings.HasSuffix(s, "-") && endsHyphenatedWord(s):
		return s
	}
	return s + " "
}

func endsHyphenatedWord(s string) bool {
	runes := []rune(strings.TrimSuffix(s, "-"))
	if len(runes) == 0 {
		return false
	}
	last := runes[len(runes)-1]
	return isLetter(last)
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 0x7f
}

// clearTrailingBreak removes the break marker from a track's last line;
// no break follows the final line.
func clearTrailingBreak(t *song.Track) {
	if len(t.Lines) == 0 {
		return
	}
	last := t.Lines[len(t.Lines)-1]
	last.HasBreak = false
	last.BreakOut = 0
}
