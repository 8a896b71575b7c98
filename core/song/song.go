// Package song defines the normalized lyric/timing model produced by
// the SingStar conversion engine. All converter stages import these
// types rather than defining their own.
package song

// SchemaVersion identifies the melody schema revision, which determines
// the traversal shape (sentences at the root vs. nested in tracks).
type SchemaVersion int

// Schema version constants. The set is closed; unknown declarations
// fall back to V1.
const (
	V1 SchemaVersion = 1
	V2 SchemaVersion = 2
	V4 SchemaVersion = 4
)

// IsValid returns true for a known schema version.
func (v SchemaVersion) IsValid() bool {
	return v == V1 || v == V2 || v == V4
}

// Nested reports whether sentences are nested inside track elements.
func (v SchemaVersion) Nested() bool {
	return v == V2 || v == V4
}

// Resolution is the beat resolution multiplier applied to the raw tempo.
type Resolution int

// Resolution constants.
const (
	Semiquaver     Resolution = 1
	Demisemiquaver Resolution = 2
)

// String returns the attribute spelling of the resolution.
func (r Resolution) String() string {
	switch r {
	case Semiquaver:
		return "Semiquaver"
	case Demisemiquaver:
		return "Demisemiquaver"
	}
	return "Unknown"
}

// NoteKind is the scoring/display category of a note.
type NoteKind int

// Note kind constants.
const (
	Regular NoteKind = iota
	Golden
	Rap
	GoldenRap
	Freestyle
)

// String returns a human-readable kind name.
func (k NoteKind) String() string {
	switch k {
	case Regular:
		return "regular"
	case Golden:
		return "golden"
	case Rap:
		return "rap"
	case GoldenRap:
		return "golden-rap"
	case Freestyle:
		return "freestyle"
	}
	return "unknown"
}

// Note is one retained note. Invariants: Duration > 0, Pitch > 0, and
// Start is monotonically non-decreasing within a line.
type Note struct {
	Kind     NoteKind
	Start    int
	Duration int
	Pitch    int
	// Text is the cleaned lyric fragment, possibly the continuation
	// marker "~", usually carrying its own trailing word-boundary space.
	Text string
}

// End returns the beat right after the note.
func (n *Note) End() int { return n.Start + n.Duration }

// Line is an ordered run of notes sung without a break. A line with no
// retained notes is never emitted.
type Line struct {
	Notes []*Note
	// BreakOut is the out-time carried by the trailing line break; the
	// in-time is forward-filled by the finishing pipeline. Zero or
	// negative on the final line of a track, where no break follows.
	BreakOut int
	HasBreak bool

	// BreakIn is the next line's in-time, filled by the finishing
	// pipeline's break restyling pass.
	BreakIn    int
	HasBreakIn bool
}

// End returns the beat right after the last note, or 0 for an empty line.
func (l *Line) End() int {
	if len(l.Notes) == 0 {
		return 0
	}
	return l.Notes[len(l.Notes)-1].End()
}

// Track is the ordered lines of one singer.
type Track struct {
	Lines []*Line
}

// IsEmpty reports whether the track holds no lines.
func (t *Track) IsEmpty() bool { return len(t.Lines) == 0 }

// Metadata is everything recovered about the song besides the notes.
type Metadata struct {
	Artist string
	Title  string

	// RawTempo is the tempo attribute as written; BPM is RawTempo
	// multiplied by the resolution. HasBPM is false when either input
	// was unavailable (a degraded, caller-visible state).
	RawTempo   float64
	Resolution Resolution
	BPM        float64
	HasBPM     bool

	Genre string
	Year  string

	// GapMillis is the silence before the first beat, produced by the
	// finishing pipeline's timestamp shift.
	GapMillis int

	// Language is filled by the detector after the lyrics exist, and
	// only when detection is confident.
	Language string

	Duet    bool
	Player1 string
	Player2 string

	// Medley beats are emitted as a pair or not at all.
	MedleyStart    int
	MedleyEnd      int
	HasMedleyStart bool
	HasMedleyEnd   bool

	Version SchemaVersion
}

// HasMedley reports whether both medley beats were recovered.
func (m *Metadata) HasMedley() bool { return m.HasMedleyStart && m.HasMedleyEnd }

// AssetFiles are the companion filenames derived from artist and title.
type AssetFiles struct {
	Audio      string
	Cover      string
	Background string
}

// Result is the complete conversion output handed to the finishing
// pipeline. Constructed once per input document, never shared between
// sessions.
type Result struct {
	Meta   Metadata
	Track1 *Track
	Track2 *Track
	Assets AssetFiles

	// Creator is the optional credit identity stamped into the output.
	Creator string
}

// IsDuet reports whether the result carries a second singer track.
func (r *Result) IsDuet() bool { return r.Meta.Duet }
