// Package melody extracts singing tracks and song metadata from parsed
// SingStar melody documents and refines the recovered lyrics.
package melody

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/bohning/usdb-syncer-addons/core/song"
	"github.com/bohning/usdb-syncer-addons/core/xml"
)

// Artist and title never appear as structured attributes; the authoring
// tool buried them in free-text comments near the top of the file.
// Matching runs against the decoded text, not the tree, because broken
// comments do not survive parsing.
var (
	artistPattern = regexp.MustCompile(`(?i)Artist:\s*(.*?)\s*-->`)
	titlePattern  = regexp.MustCompile(`(?i)Title:\s*(.*?)\s*-->`)
)

// Fixed placeholders used when the comments are missing entirely.
const (
	DefaultArtist = "Artist"
	DefaultTitle  = "Title"
)

var (
	featPattern    = regexp.MustCompile(`\b(?i:ft|feat)\.?\s`)
	missingSpace   = regexp.MustCompile(`(\p{Ll})([\p{Lu}0-9])`)
	apostrophes    = strings.NewReplacer("’", "'", "‘", "'", "´", "'", "`", "'")
	resolutionByID = map[string]song.Resolution{
		"Semiquaver":     song.Semiquaver,
		"Demisemiquaver": song.Demisemiquaver,
	}
)

// ExtractArtistTitle recovers artist and title from the decoded document
// text, falling back to fixed placeholders.
func ExtractArtistTitle(text string, log *slog.Logger) (artist, title string) {
	artist = DefaultArtist
	title = DefaultTitle
	if m := artistPattern.FindStringSubmatch(text); m != nil && m[1] != "" {
		artist = CleanFreeText(m[1])
	} else {
		log.Warn("no artist comment found, using placeholder")
	}
	if m := titlePattern.FindStringSubmatch(text); m != nil && m[1] != "" {
		title = CleanFreeText(m[1])
	} else {
		log.Warn("no title comment found, using placeholder")
	}
	return artist, title
}

// CleanFreeText normalizes a recovered artist or title string: literal
// ampersand entities, featuring credits, apostrophe variants, and word
// boundaries lost to squeezed-together camel case. All-caps runs
// (acronyms, band names) stay intact.
func CleanFreeText(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = featPattern.ReplaceAllString(s, "feat. ")
	s = apostrophes.Replace(s)
	s = missingSpace.ReplaceAllString(s, "$1 $2")
	return strings.TrimSpace(s)
}

// ExtractMetadata reads root-level attributes and the comment-recovered
// artist/title into a Metadata record. Missing tempo or resolution is a
// degraded state, not a failure: BPM stays unset and the condition is
// logged as an error for the caller to surface.
func ExtractMetadata(doc *xml.Document, log *slog.Logger) *song.Metadata {
	meta := &song.Metadata{Version: song.V1, Resolution: song.Demisemiquaver}
	meta.Artist, meta.Title = ExtractArtistTitle(doc.Text, log)

	root := doc.Root()
	if root == nil {
		log.Error("document has no root element, metadata incomplete")
		return meta
	}

	meta.Version = schemaVersion(root, log)
	meta.Genre = root.Attr("Genre")
	meta.Year = root.Attr("Year")
	meta.Duet = root.Attr("Duet") == "Yes"

	resolution, haveResolution := extractResolution(root, log)
	meta.Resolution = resolution
	tempo, haveTempo := extractTempo(root, log)
	meta.RawTempo = tempo
	if haveTempo && haveResolution {
		meta.BPM = tempo * float64(resolution)
		meta.HasBPM = true
	} else {
		log.Error("tempo or resolution unavailable, BPM left unset",
			"have_tempo", haveTempo, "have_resolution", haveResolution)
	}

	if meta.Duet {
		extractSingers(doc, meta, log)
	}
	return meta
}

func schemaVersion(root *xml.Node, log *slog.Logger) song.SchemaVersion {
	raw := root.Attr("Version")
	if raw == "" {
		return song.V1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err == nil && song.SchemaVersion(n).IsValid() {
		return song.SchemaVersion(n)
	}
	log.Warn("unrecognized schema version, treating as version 1", "version", raw)
	return song.V1
}

func extractResolution(root *xml.Node, log *slog.Logger) (song.Resolution, bool) {
	raw := root.Attr("Resolution")
	if raw == "" {
		return song.Demisemiquaver, false
	}
	if r, ok := resolutionByID[raw]; ok {
		return r, true
	}
	log.Warn("unrecognized resolution, defaulting to Demisemiquaver", "resolution", raw)
	return song.Demisemiquaver, true
}

func extractTempo(root *xml.Node, log *slog.Logger) (float64, bool) {
	raw := root.Attr("Tempo")
	if raw == "" {
		return 0, false
	}
	tempo, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		log.Warn("unparsable tempo attribute", "tempo", raw)
		return 0, false
	}
	return tempo, true
}

// extractSingers reads per-track artist attributes in document order.
// A duet with no recoverable names has the flag forced off; exactly one
// name keeps the flag with only player 1 set. Both are surfaced as
// warnings, never errors.
func extractSingers(doc *xml.Document, meta *song.Metadata, log *slog.Logger) {
	var names []string
	for _, track := range doc.ChildElements(doc.Root(), "TRACK") {
		if !track.HasAttr("Artist") {
			log.Warn("duet track without artist attribute")
			continue
		}
		if name := strings.TrimSpace(track.Attr("Artist")); name != "" {
			names = append(names, CleanFreeText(name))
		} else {
			log.Warn("duet track with empty artist attribute")
		}
	}
	switch {
	case len(names) == 0:
		log.Warn("duet flag set but no singer names recoverable, disabling duet")
		meta.Duet = false
	case len(names) == 1:
		log.Warn("duet flag set but only one singer name recovered", "player1", names[0])
		meta.Player1 = names[0]
	default:
		meta.Player1 = names[0]
		meta.Player2 = names[1]
	}
}
