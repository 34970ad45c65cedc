package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/azuline/rose-sub000/internal/model"
	"github.com/azuline/rose-sub000/internal/pathtemplate"
)

// maybeRenameRelease implements spec.md §4.6.3 step 7: when renaming is
// enabled, render the release directory name and each track file name
// from the configured templates and rename on disk, suffixing " [2]",
// " [3]", … on collision. release and tracks are updated in place with
// their new SourcePath so the caller's subsequent fingerprinting and
// cache write see the post-rename state. Grounded on
// internal/pathtemplate's Render/Sanitize pair, the same combination
// internal/rename/rename.go used for its one-shot renamer.
func (s *Scanner) maybeRenameRelease(release *model.Release, tracks []*model.Track) (renamed bool, err error) {
	if !s.Config.Rename.Enabled {
		return false, nil
	}

	oldDir := release.SourcePath
	newDir, err := s.renameReleaseDir(release)
	if err != nil {
		return false, fmt.Errorf("rename release directory: %w", err)
	}
	if newDir != oldDir {
		renamed = true
		for _, t := range tracks {
			t.SourcePath = filepath.Join(newDir, filepath.Base(t.SourcePath))
		}
	}

	trackRenamed, err := s.renameTracks(release, tracks)
	if err != nil {
		return renamed, fmt.Errorf("rename tracks: %w", err)
	}
	renamed = renamed || trackRenamed

	if renamed {
		if err := cleanupEmptyDirs(release.SourcePath); err != nil {
			return renamed, fmt.Errorf("clean up emptied subdirectories: %w", err)
		}
	}
	return renamed, nil
}

func (s *Scanner) renameReleaseDir(release *model.Release) (string, error) {
	fields := pathtemplate.ReleaseFields(release)
	rendered, err := pathtemplate.Render(s.Config.Rename.ReleaseFolder, fields)
	if err != nil {
		return "", err
	}
	name, err := pathtemplate.Sanitize(rendered, s.Config.Rename.MaxFilenameBytes)
	if err != nil {
		return "", err
	}

	parent := filepath.Dir(release.SourcePath)
	newDir, err := uniquePath(parent, name, release.SourcePath)
	if err != nil {
		return "", err
	}
	if newDir == release.SourcePath {
		return release.SourcePath, nil
	}
	if err := os.Rename(release.SourcePath, newDir); err != nil {
		return "", err
	}
	release.SourcePath = newDir
	return newDir, nil
}

func (s *Scanner) renameTracks(release *model.Release, tracks []*model.Track) (bool, error) {
	renamed := false
	for _, t := range tracks {
		fields := pathtemplate.WithTrackTotal(pathtemplate.TrackFields(t, release), len(tracks))
		rendered, err := pathtemplate.Render(s.Config.Rename.TrackFilename, fields)
		if err != nil {
			return renamed, err
		}
		ext := filepath.Ext(t.SourcePath)
		name, err := pathtemplate.Sanitize(rendered+ext, s.Config.Rename.MaxFilenameBytes)
		if err != nil {
			return renamed, err
		}

		dir := filepath.Dir(t.SourcePath)
		newPath, err := uniquePath(dir, name, t.SourcePath)
		if err != nil {
			return renamed, err
		}
		if newPath == t.SourcePath {
			continue
		}
		if err := os.Rename(t.SourcePath, newPath); err != nil {
			return renamed, err
		}
		t.SourcePath = newPath
		renamed = true
	}
	return renamed, nil
}

// uniquePath returns parent/name, or parent/name with a " [2]", " [3]",
// … suffix inserted before the extension if something other than
// current already occupies that path.
func uniquePath(parent, name, current string) (string, error) {
	candidate := filepath.Join(parent, name)
	if candidate == current {
		return candidate, nil
	}
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	} else if err != nil {
		return "", err
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate = filepath.Join(parent, fmt.Sprintf("%s [%d]%s", stem, n, ext))
		if candidate == current {
			return candidate, nil
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
}

// cleanupEmptyDirs removes every empty subdirectory of dir (step 7's
// "cleaning up emptied subdirectories"). Tracks are read only from dir
// itself and renameTracks renames them within dir, so the directories
// removed here were already empty before the rename pass.
func cleanupEmptyDirs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		subEntries, err := os.ReadDir(sub)
		if err != nil {
			return err
		}
		if len(subEntries) == 0 {
			if err := os.Remove(sub); err != nil {
				return err
			}
		}
	}
	return nil
}
