package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/azuline/rose-sub000/internal/collage"
)

// reconcileCollagesAndPlaylists implements spec.md §4.6.5: for every
// "!collages"/"!playlists" TOML file, reconcile its entries against the
// cache, persist the membership, and rewrite the file if any
// description_meta changed — the synchronizer's one source-tree write
// outside of id writeback and optional rename.
func (s *Scanner) reconcileCollagesAndPlaylists() error {
	if err := s.reconcileDir(
		filepath.Join(s.Config.SourceDir, "!collages"), collage.KindCollage,
		s.Cache.ReleaseDescription, s.Cache.UpsertCollage,
	); err != nil {
		return fmt.Errorf("reconcile collages: %w", err)
	}
	upsertPlaylist := func(name, sourceMtime string, entries []collage.Entry) error {
		// Reconciliation never touches cover_path; internal/vfs's
		// SetPlaylistCoverArt operation owns that field independently.
		return s.Cache.UpsertPlaylist(name, sourceMtime, "", entries)
	}
	if err := s.reconcileDir(
		filepath.Join(s.Config.SourceDir, "!playlists"), collage.KindPlaylist,
		s.Cache.TrackDescription, upsertPlaylist,
	); err != nil {
		return fmt.Errorf("reconcile playlists: %w", err)
	}
	return nil
}

type descriptionLookup func(id string) (string, bool, error)
type upsertMembership func(name, sourceMtime string, entries []collage.Entry) error

func (s *Scanner) reconcileDir(dir string, kind collage.Kind, lookupFn descriptionLookup, upsertFn upsertMembership) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name := strings.TrimSuffix(e.Name(), ".toml")

		if err := s.reconcileFile(path, name, kind, lookupFn, upsertFn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) reconcileFile(path, name string, kind collage.Kind, lookupFn descriptionLookup, upsertFn upsertMembership) error {
	mtime, err := collage.ModTime(path)
	if err != nil {
		return err
	}

	f, err := collage.Read(path, kind)
	if err != nil {
		return err
	}

	var lookupErr error
	lookup := func(uuid string) (string, bool) {
		desc, exists, err := lookupFn(uuid)
		if err != nil {
			lookupErr = err
			return "", false
		}
		return desc, exists
	}

	reconciled, changed := collage.Reconcile(f.Entries(), lookup)
	if lookupErr != nil {
		return lookupErr
	}

	stamp := mtime.Format("2006-01-02T15:04:05Z07:00")
	if err := upsertFn(name, stamp, reconciled); err != nil {
		return err
	}

	if changed {
		out := f
		if kind == collage.KindCollage {
			out.Releases = reconciled
		} else {
			out.Tracks = reconciled
		}
		if err := collage.Write(path, out, kind); err != nil {
			return fmt.Errorf("rewrite %s with refreshed descriptions: %w", path, err)
		}
	}
	return nil
}
