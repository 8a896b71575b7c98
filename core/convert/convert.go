// Package convert sequences the SingStar conversion engine: encoding
// resolution, parsing, metadata and track extraction, lyric refinement,
// language detection, document assembly, and the finishing pipeline.
//
// A session converts exactly one document and owns all of its state;
// independent sessions may run concurrently.
package convert

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/bohning/usdb-syncer-addons/core/encoding"
	"github.com/bohning/usdb-syncer-addons/core/errors"
	"github.com/bohning/usdb-syncer-addons/core/language"
	"github.com/bohning/usdb-syncer-addons/core/melody"
	"github.com/bohning/usdb-syncer-addons/core/song"
	"github.com/bohning/usdb-syncer-addons/core/txt"
	"github.com/bohning/usdb-syncer-addons/core/xml"
)

// CreditFunc looks up the optional identity stamped into the creator
// field. Returning false is not an error.
type CreditFunc func() (string, bool)

// Options configures a conversion session.
type Options struct {
	// Log receives all diagnostics; nil uses the default logger.
	Log *slog.Logger
	// Credit, when set, supplies the creator identity.
	Credit CreditFunc
}

// Convert runs the full conversion of one melody document. The outcome
// is either a fully populated result or an error; a degraded result
// (no BPM, corrected duet flag) is still a success and its quality
// signals live in the log.
func Convert(r io.Reader, opts Options) (*song.Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session", uuid.NewString())

	raw, cs, err := encoding.Resolve(r, log)
	if err != nil {
		return nil, err
	}
	doc, err := xml.Parse(raw, cs, log)
	if err != nil {
		return nil, err
	}

	meta := melody.ExtractMetadata(doc, log)
	track1, track2 := melody.BuildTracks(doc, meta, log)
	for _, track := range []*song.Track{track1, track2} {
		for _, line := range track.Lines {
			melody.RefineLine(line)
		}
	}

	result := &song.Result{Meta: *meta, Track1: track1, Track2: track2}
	if result.Meta.Duet && !strings.HasSuffix(result.Meta.Title, "(Duet)") {
		result.Meta.Title += " (Duet)"
	}
	result.Assets = DeriveAssets(result.Meta.Artist, result.Meta.Title)
	result.Meta.Language = language.Detect(result, log)

	if opts.Credit != nil {
		if creator, ok := opts.Credit(); ok {
			result.Creator = creator
		}
	}

	txt.Finish(result, log)
	log.Info("conversion finished",
		"artist", result.Meta.Artist, "title", result.Meta.Title,
		"duet", result.Meta.Duet, "language", result.Meta.Language,
		"lines", len(track1.Lines)+len(track2.Lines))
	return result, nil
}

// ConvertFile converts one melody file from disk.
func ConvertFile(path string, opts Options) (*song.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return Convert(f, opts)
}

// DeriveAssets builds the companion filenames from artist and title.
func DeriveAssets(artist, title string) song.AssetFiles {
	base := SanitizeFilename(artist + " - " + title)
	return song.AssetFiles{
		Audio:      base + ".mp3",
		Cover:      base + " [CO].jpg",
		Background: base + " [BG].jpg",
	}
}

// SanitizeFilename strips characters that are unsafe in filenames on
// any of the platforms the target ecosystem runs on.
func SanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
