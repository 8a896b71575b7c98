// Command singstar-convert batch-converts SingStar melody XML files to
// UltraStar TXT songs.
package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/bohning/usdb-syncer-addons/core/convert"
	"github.com/bohning/usdb-syncer-addons/core/song"
	"github.com/bohning/usdb-syncer-addons/core/txt"
	"github.com/bohning/usdb-syncer-addons/internal/library"
	"github.com/bohning/usdb-syncer-addons/internal/logging"
	"github.com/bohning/usdb-syncer-addons/internal/scan"
)

const version = "0.2.0"

// CLI defines the command-line interface for singstar-convert.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Minimum log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	Convert ConvertCmd `cmd:"" help:"Convert all SingStar songs below a directory"`
	Scan    ScanCmd    `cmd:"" help:"List the melody files a conversion would process"`
	List    ListCmd    `cmd:"" help:"List the conversion library"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd converts every melody file below the chosen directory.
type ConvertCmd struct {
	Dir       string `arg:"" help:"Directory containing a SingStar song export" type:"existingdir"`
	Overwrite bool   `help:"Re-convert songs whose source has not changed"`
	Jobs      int    `default:"4" help:"Concurrent conversion sessions"`
	Library   string `help:"Song index database path (empty disables the index)"`
	Creator   string `help:"Identity stamped into the #CREATOR header" env:"USDB_CREATOR"`
}

// Run converts the songs, skipping unchanged sources via the library
// fingerprints unless --overwrite is set.
func (c *ConvertCmd) Run(log *slog.Logger) error {
	songRoot, err := scan.FindSongRoot(c.Dir)
	if err != nil {
		return err
	}
	melodies, err := scan.Melodies(songRoot)
	if err != nil {
		return err
	}
	if len(melodies) == 0 {
		return fmt.Errorf("no melody files found under %s", songRoot)
	}
	log.Info("starting conversion", "song_root", songRoot, "songs", len(melodies))

	var lib *library.Library
	if c.Library != "" {
		lib, err = library.Open(c.Library)
		if err != nil {
			return err
		}
		defer lib.Close()
	}

	opts := convert.Options{Log: log}
	if c.Creator != "" {
		creator := c.Creator
		opts.Credit = func() (string, bool) { return creator, true }
	}

	jobs := c.Jobs
	if jobs < 1 {
		jobs = 1
	}
	var g errgroup.Group
	g.SetLimit(jobs)

	results := make([]error, len(melodies))
	for i, melody := range melodies {
		g.Go(func() error {
			results[i] = c.convertOne(melody, lib, opts, log)
			return nil
		})
	}
	g.Wait()

	converted, failed := 0, 0
	for i, err := range results {
		if err != nil {
			failed++
			log.Error("conversion failed", "melody", melodies[i], "error", err)
		} else {
			converted++
		}
	}
	log.Info("conversion finished", "converted", converted, "failed", failed)
	if converted == 0 && failed > 0 {
		return fmt.Errorf("all %d conversions failed", failed)
	}
	return nil
}

// convertOne converts a single melody file. A song skipped as
// unchanged returns nil and counts as converted in the summary.
func (c *ConvertCmd) convertOne(melody string, lib *library.Library, opts convert.Options, log *slog.Logger) error {
	data, err := os.ReadFile(melody)
	if err != nil {
		return err
	}
	fingerprint := library.Fingerprint(data)

	if lib != nil && !c.Overwrite {
		if entry, ok, err := lib.Lookup(melody); err == nil && ok &&
			entry.Fingerprint == fingerprint && fileExists(entry.TxtPath) {
			log.Info("skipping unchanged song", "melody", melody, "txt", entry.TxtPath)
			return nil
		}
	}

	result, err := convert.Convert(bytes.NewReader(data), opts)
	if err != nil {
		return err
	}

	base := convert.SanitizeFilename(result.Meta.Artist + " - " + result.Meta.Title)
	txtPath := filepath.Join(filepath.Dir(melody), base+".txt")
	if err := writeTxt(txtPath, result); err != nil {
		return err
	}
	log.Info("song converted", "melody", melody, "txt", txtPath)

	if lib != nil {
		entry := &library.Entry{
			SourcePath:  melody,
			Fingerprint: fingerprint,
			Artist:      result.Meta.Artist,
			Title:       result.Meta.Title,
			Language:    result.Meta.Language,
			BPM:         result.Meta.BPM,
			Duet:        result.Meta.Duet,
			Version:     int(result.Meta.Version),
			TxtPath:     txtPath,
			ConvertedAt: time.Now(),
		}
		if err := lib.Record(entry); err != nil {
			log.Warn("could not record song in library", "error", err)
		}
	}
	return nil
}

func writeTxt(path string, result *song.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := txt.Write(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ScanCmd lists what a conversion run would process.
type ScanCmd struct {
	Dir string `arg:"" help:"Directory to scan" type:"existingdir"`
}

// Run prints the song root and its melody files.
func (c *ScanCmd) Run(log *slog.Logger) error {
	songRoot, err := scan.FindSongRoot(c.Dir)
	if err != nil {
		return err
	}
	melodies, err := scan.Melodies(songRoot)
	if err != nil {
		return err
	}
	fmt.Printf("song root: %s\n", songRoot)
	for _, m := range melodies {
		fmt.Println(m)
	}
	fmt.Printf("%d songs\n", len(melodies))
	return nil
}

// ListCmd prints the conversion library.
type ListCmd struct {
	Library string `arg:"" help:"Song index database path" type:"existingfile"`
}

// Run lists the recorded songs.
func (c *ListCmd) Run(log *slog.Logger) error {
	lib, err := library.Open(c.Library)
	if err != nil {
		return err
	}
	defer lib.Close()

	entries, err := lib.All()
	if err != nil {
		return err
	}
	for _, e := range entries {
		duet := ""
		if e.Duet {
			duet = " [duet]"
		}
		fmt.Printf("%s - %s%s (%s)\n", e.Artist, e.Title, duet, e.TxtPath)
	}
	fmt.Printf("%d songs\n", len(entries))
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run prints the version.
func (c *VersionCmd) Run(log *slog.Logger) error {
	fmt.Printf("singstar-convert %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("singstar-convert"),
		kong.Description("SingStar melody XML to UltraStar TXT converter"),
		kong.UsageOnError(),
	)
	log := logging.Init(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	if err := ctx.Run(log); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
