// Package collage implements the shared TOML shape collages and
// playlists both use (spec.md §3 "Collage"/"Playlist"): an ordered
// sequence of { uuid, description_meta, missing? } entries, read via
// koanf the same way internal/datafile and internal/config load TOML,
// written atomically via pelletier/go-toml/v2.
package collage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	pelletier "github.com/pelletier/go-toml/v2"
)

// Entry is one member of a collage or playlist, identified by UUID
// (release_id for a collage, track_id for a playlist).
type Entry struct {
	UUID            string `koanf:"uuid" toml:"uuid"`
	DescriptionMeta string `koanf:"description_meta" toml:"description_meta"`
	Missing         bool   `koanf:"missing" toml:"missing,omitempty"`
}

// File is the parsed body of a "{source}/!collages/{name}.toml" or
// "{source}/!playlists/{name}.toml" sidecar.
type File struct {
	Releases []Entry `koanf:"releases" toml:"releases,omitempty"`
	Tracks   []Entry `koanf:"tracks" toml:"tracks,omitempty"`
}

// Entries returns whichever of Releases/Tracks is populated — a
// collage reader/writer only ever uses Releases, a playlist one only
// ever uses Tracks, but Reconcile and the position calculator operate
// generically over "the ordered entry list."
func (f File) Entries() []Entry {
	if len(f.Releases) > 0 {
		return f.Releases
	}
	return f.Tracks
}

// Kind distinguishes which field Read/Write populate.
type Kind int

const (
	KindCollage Kind = iota
	KindPlaylist
)

// Read parses a collage or playlist TOML file. A missing file returns
// an empty File and no error — reconciliation treats "file does not
// exist yet" as "empty sequence," not a failure.
func Read(path string, kind Kind) (File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return File{}, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return File{}, fmt.Errorf("collage: parse %s: %w", path, err)
	}

	var f File
	if err := k.Unmarshal("", &f); err != nil {
		return File{}, fmt.Errorf("collage: unmarshal %s: %w", path, err)
	}
	return normalizeKind(f, kind), nil
}

// Write persists f atomically (temp file + rename) under path,
// creating parent directories ("!collages"/"!playlists") as needed.
func Write(path string, f File, kind Kind) error {
	f = normalizeKind(f, kind)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("collage: mkdir %s: %w", dir, err)
	}

	b, err := pelletier.Marshal(f)
	if err != nil {
		return fmt.Errorf("collage: marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".collage-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("collage: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("collage: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("collage: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("collage: rename into place: %w", err)
	}
	return nil
}

// ModTime reports path's last-modified time, used by the synchronizer
// to decide whether a collage/playlist file needs reconciliation
// (spec.md §4.6.5 "whose mtime changed").
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("collage: stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

func normalizeKind(f File, kind Kind) File {
	switch kind {
	case KindCollage:
		return File{Releases: f.Entries()}
	case KindPlaylist:
		return File{Tracks: f.Entries()}
	default:
		return f
	}
}
