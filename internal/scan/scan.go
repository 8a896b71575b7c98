// Package scan locates SingStar song data below a user-chosen root.
//
// A SingStar install keeps one `songs_*_0.xml` catalog next to a
// directory per song, each holding a `melody_*.xml`. macOS exports are
// littered with AppleDouble `._` files that must be ignored.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrNoSongs is returned when no catalog file exists below the root.
var ErrNoSongs = fmt.Errorf("no SingStar songs found")

// ErrAmbiguous is returned when catalogs exist in more than one
// directory and the caller must pick a more specific root.
var ErrAmbiguous = fmt.Errorf("multiple SingStar song directories found")

// FindSongRoot walks the tree below root and returns the single
// directory containing `songs_*_0.xml` catalog files.
func FindSongRoot(root string) (string, error) {
	dirs := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if d.IsDir() || appleDouble(d.Name()) {
			return nil
		}
		if ok, _ := filepath.Match("songs_*_0.xml", d.Name()); ok {
			dirs[filepath.Dir(path)] = true
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	switch len(dirs) {
	case 0:
		return "", ErrNoSongs
	case 1:
		for dir := range dirs {
			return dir, nil
		}
	}
	return "", ErrAmbiguous
}

// Melodies lists the per-song melody files one level below the song
// root, in lexical order.
func Melodies(songRoot string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(songRoot, "*", "melody_*.xml"))
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		if !appleDouble(filepath.Base(m)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func appleDouble(name string) bool {
	return strings.HasPrefix(name, "._")
}
