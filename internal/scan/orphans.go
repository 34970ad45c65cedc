package scan

import (
	"path/filepath"

	"github.com/azuline/rose-sub000/internal/cache"
)

// orphans implements the "orphan sweep" half of spec.md §4.6.3's
// closing steps: any cached release/track whose source_path is no
// longer on disk is deleted. scannedDirs is the set of directories this
// pass actually walked (a targeted Dirs scan never considers releases
// outside that set orphaned); upserts carries the fresh state for those
// directories so a release that still exists isn't flagged.
func (s *Scanner) orphans(scannedDirs []string, upserts []cache.ReleaseUpsert) (deletedReleases, deletedTracks []string, err error) {
	scanned := make(map[string]bool, len(scannedDirs))
	for _, d := range scannedDirs {
		scanned[d] = true
	}

	keepReleasePaths := make(map[string]bool, len(upserts))
	keepTrackPaths := make(map[string]bool)
	for _, u := range upserts {
		keepReleasePaths[u.Release.SourcePath] = true
		for _, t := range u.Tracks {
			keepTrackPaths[t.SourcePath] = true
		}
	}

	releaseStamps, err := s.Cache.ReleaseSourcePaths()
	if err != nil {
		return nil, nil, err
	}
	for path, stamp := range releaseStamps {
		if !scanned[path] {
			continue
		}
		if !keepReleasePaths[path] {
			deletedReleases = append(deletedReleases, stamp.ID)
		}
	}

	trackStamps, err := s.Cache.AllTrackSourcePaths()
	if err != nil {
		return nil, nil, err
	}
	for path, stamp := range trackStamps {
		dir := filepath.Dir(path)
		if !scanned[dir] {
			continue
		}
		if !keepTrackPaths[path] {
			deletedTracks = append(deletedTracks, stamp.ID)
		}
	}

	return deletedReleases, deletedTracks, nil
}
