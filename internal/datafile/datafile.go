// Package datafile implements the Datafile Codec (spec.md §4.3): the
// per-release ".rose.{uuid}.toml" sidecar that carries release state
// not suitable for audio tags. Reads go through koanf + the TOML
// parser, the same load shape internal/config.Load uses; writes go
// directly through pelletier/go-toml/v2 (koanf has no generic writer)
// with a temp-file-then-rename swap, matching the atomic-write idiom
// internal/config's tests already exercise via t.TempDir.
package datafile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	pelletier "github.com/pelletier/go-toml/v2"

	"github.com/azuline/rose-sub000/internal/idgen"
	"github.com/azuline/rose-sub000/internal/lockmgr"
)

const filePrefix = ".rose."
const fileSuffix = ".toml"

const lockTTL = 5 * time.Second

// DataFile is the content of a release's ".rose.{uuid}.toml" sidecar
// (spec.md §3 "Datafile"): { new: bool, added_at: ISO8601 }.
type DataFile struct {
	New     bool   `koanf:"new" toml:"new"`
	AddedAt string `koanf:"added_at" toml:"added_at"`
}

// FileName returns the sidecar's file name for a given release UUID.
func FileName(id string) string {
	return filePrefix + id + fileSuffix
}

// Read scans releaseDir's entries for a name matching ".rose.{uuid}.toml".
// On multiple matches the lexicographically first wins and a warning is
// logged (spec.md §4.3, §7 "disagreeing tags"). On no match, found is
// false and the caller mints a new UUID. Missing fields are defaulted
// (New: true, AddedAt: now); changed reports whether any default was
// applied, so the caller knows to rewrite the file under a lock.
func Read(releaseDir string) (id string, df DataFile, found bool, changed bool, err error) {
	entries, err := os.ReadDir(releaseDir)
	if err != nil {
		return "", DataFile{}, false, false, fmt.Errorf("datafile: read dir %s: %w", releaseDir, err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if uid, ok := parseFileName(e.Name()); ok {
			candidates = append(candidates, uid)
		}
	}
	if len(candidates) == 0 {
		return "", DataFile{}, false, false, nil
	}
	sort.Strings(candidates)
	id = candidates[0]
	if len(candidates) > 1 {
		slog.Warn("multiple datafiles in release directory, using lexicographically first",
			"dir", releaseDir, "chosen", id, "candidates", candidates)
	}

	path := filepath.Join(releaseDir, FileName(id))
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return "", DataFile{}, false, false, fmt.Errorf("datafile: parse %s: %w", path, err)
	}

	if err := k.Unmarshal("", &df); err != nil {
		return "", DataFile{}, false, false, fmt.Errorf("datafile: unmarshal %s: %w", path, err)
	}

	if !k.Exists("new") {
		df.New = true
		changed = true
	}
	if !k.Exists("added_at") || df.AddedAt == "" {
		df.AddedAt = time.Now().UTC().Format(time.RFC3339)
		changed = true
	}

	return id, df, true, changed, nil
}

// Write acquires a per-release advisory lock and writes df atomically
// (temp file + rename) under FileName(id), minting id if it is empty.
// If the release already carries a datafile under a different UUID
// (a rename-in-place upgrade), oldID names the file to remove.
func Write(locks *lockmgr.Manager, releaseDir string, id string, oldID string, df DataFile) (string, error) {
	if id == "" {
		id = idgen.New().String()
	}

	lock, err := locks.Acquire(lockmgr.ReleaseLockName(id), lockTTL)
	if err != nil {
		return "", fmt.Errorf("datafile: acquire lock for %s: %w", id, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort release, TTL reclaims it otherwise

	if df.AddedAt == "" {
		df.AddedAt = time.Now().UTC().Format(time.RFC3339)
	}

	b, err := pelletier.Marshal(df)
	if err != nil {
		return "", fmt.Errorf("datafile: marshal: %w", err)
	}

	finalPath := filepath.Join(releaseDir, FileName(id))
	tmp, err := os.CreateTemp(releaseDir, ".rose.*.toml.tmp")
	if err != nil {
		return "", fmt.Errorf("datafile: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("datafile: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("datafile: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("datafile: rename into place: %w", err)
	}

	if oldID != "" && oldID != id {
		oldPath := filepath.Join(releaseDir, FileName(oldID))
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("datafile: remove superseded %s: %w", oldPath, err)
		}
	}

	return id, nil
}

func parseFileName(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if id == "" || !idgen.IsValid(id) {
		return "", false
	}
	return id, true
}
