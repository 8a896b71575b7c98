// Package language identifies the lyric language of an assembled song.
package language

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/bohning/usdb-syncer-addons/core/song"
)

// Detect runs statistical language identification over the concatenated
// lyric text of both tracks. Low-confidence results leave the language
// absent so no language-keyed normalization runs downstream.
func Detect(r *song.Result, log *slog.Logger) string {
	text := lyricText(r)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		log.Info("language detection not confident, leaving language unset",
			"guess", info.Lang.String(), "confidence", info.Confidence)
		return ""
	}
	name := capitalize(info.Lang.String())
	log.Info("language detected", "language", name, "confidence", info.Confidence)
	return name
}

// lyricText concatenates the finished lyric text of the whole document,
// with hold markers stripped so they do not skew the statistics.
func lyricText(r *song.Result) string {
	var b strings.Builder
	for _, track := range []*song.Track{r.Track1, r.Track2} {
		if track == nil {
			continue
		}
		for _, line := range track.Lines {
			for _, note := range line.Notes {
				t := strings.TrimPrefix(strings.TrimSpace(note.Text), "~")
				if t == "" {
					continue
				}
				b.WriteString(t)
				b.WriteByte(' ')
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
