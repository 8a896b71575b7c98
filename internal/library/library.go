// Package library maintains the SQLite index of converted songs.
//
// Every successful conversion is recorded with a BLAKE3 fingerprint of
// its source bytes, so batch re-runs can skip melody files that have
// not changed since the last conversion.
package library

import (
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"github.com/bohning/usdb-syncer-addons/core/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	source_path    TEXT PRIMARY KEY,
	fingerprint    TEXT NOT NULL,
	artist         TEXT NOT NULL,
	title          TEXT NOT NULL,
	language       TEXT NOT NULL DEFAULT '',
	bpm            REAL NOT NULL DEFAULT 0,
	duet           INTEGER NOT NULL DEFAULT 0,
	schema_version INTEGER NOT NULL DEFAULT 1,
	txt_path       TEXT NOT NULL,
	converted_at   TEXT NOT NULL
);
`

// Entry is one converted song.
type Entry struct {
	SourcePath  string
	Fingerprint string
	Artist      string
	Title       string
	Language    string
	BPM         float64
	Duet        bool
	Version     int
	TxtPath     string
	ConvertedAt time.Time
}

// Library is an open song index.
type Library struct {
	db *sql.DB
}

// Open opens (creating if needed) the index database at path.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening library database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating library schema")
	}
	return &Library{db: db}, nil
}

// Close releases the database handle.
func (l *Library) Close() error {
	return l.db.Close()
}

// Fingerprint returns the hex BLAKE3 digest of source bytes.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the recorded entry for a source path, if any.
func (l *Library) Lookup(sourcePath string) (*Entry, bool, error) {
	row := l.db.QueryRow(`
		SELECT source_path, fingerprint, artist, title, language, bpm,
		       duet, schema_version, txt_path, converted_at
		FROM songs WHERE source_path = ?`, sourcePath)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "looking up song")
	}
	return e, true, nil
}

// Record inserts or replaces the entry for its source path.
func (l *Library) Record(e *Entry) error {
	duet := 0
	if e.Duet {
		duet = 1
	}
	_, err := l.db.Exec(`
		INSERT INTO songs (source_path, fingerprint, artist, title, language,
		                   bpm, duet, schema_version, txt_path, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			artist = excluded.artist,
			title = excluded.title,
			language = excluded.language,
			bpm = excluded.bpm,
			duet = excluded.duet,
			schema_version = excluded.schema_version,
			txt_path = excluded.txt_path,
			converted_at = excluded.converted_at`,
		e.SourcePath, e.Fingerprint, e.Artist, e.Title, e.Language,
		e.BPM, duet, e.Version, e.TxtPath, e.ConvertedAt.UTC().Format(time.RFC3339))
	return errors.Wrap(err, "recording song")
}

// All returns every entry, ordered by artist then title.
func (l *Library) All() ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT source_path, fingerprint, artist, title, language, bpm,
		       duet, schema_version, txt_path, converted_at
		FROM songs ORDER BY artist, title`)
	if err != nil {
		return nil, errors.Wrap(err, "listing songs")
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "reading song row")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e         Entry
		duet      int
		converted string
	)
	err := s.Scan(&e.SourcePath, &e.Fingerprint, &e.Artist, &e.Title,
		&e.Language, &e.BPM, &duet, &e.Version, &e.TxtPath, &converted)
	if err != nil {
		return nil, err
	}
	e.Duet = duet != 0
	e.ConvertedAt, _ = time.Parse(time.RFC3339, converted)
	return &e, nil
}
