package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/azuline/rose-sub000/internal/codec"
	"github.com/azuline/rose-sub000/internal/datafile"
	"github.com/azuline/rose-sub000/internal/model"
)

// errHalfWritten marks a directory with no datafile but a track already
// carrying a release id: a concurrent tool's in-progress write that
// this pass should leave alone (spec.md §4.6.3 step 1).
var errHalfWritten = errors.New("scan: half-written release directory, skipping")

// processRelease implements spec.md §4.6.3 steps 1-8 for a single
// release directory, directly modeled on internal/library/scanner.go's
// per-source refresh loop.
func (s *Scanner) processRelease(dir string, force bool) (*releaseResult, error) {
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat release dir: %w", err)
	}

	audioFiles, otherFiles, err := listReleaseFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list release dir: %w", err)
	}

	id, df, found, dfChanged, err := datafile.Read(dir)
	if err != nil {
		return nil, fmt.Errorf("read datafile: %w", err)
	}

	oldID := ""
	if !found {
		if len(audioFiles) > 0 {
			probe, err := codec.Read(filepath.Join(dir, audioFiles[0]))
			if err == nil && probe.ReleaseID != "" && !force {
				return nil, errHalfWritten
			}
		}
		id = ""
	}

	fingerprint, err := fingerprintRelease(dirInfo, dir, audioFiles)
	if err != nil {
		return nil, fmt.Errorf("fingerprint release dir: %w", err)
	}

	if !force && !dfChanged {
		stamps, err := s.Cache.ReleaseSourcePaths()
		if err != nil {
			return nil, fmt.Errorf("load cached release stamps: %w", err)
		}
		if stamp, ok := stamps[dir]; ok && stamp.SourceMtime == fingerprint {
			return &releaseResult{skipped: true}, nil
		}
	}

	if id == "" || dfChanged {
		writtenID, err := datafile.Write(s.Cache.Locks, dir, id, oldID, df)
		if err != nil {
			return nil, fmt.Errorf("write datafile: %w", err)
		}
		id = writtenID
	}

	tracks, err := s.readTracks(dir, id, audioFiles, force)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("release directory has no supported audio files: %s", dir)
	}

	release := s.computeReleaseFields(id, dir, df, tracks, otherFiles)

	renamed, err := s.maybeRenameRelease(release, tracks)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	if renamed {
		dirInfo, err = os.Stat(release.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("stat renamed release dir: %w", err)
		}
		names := make([]string, len(tracks))
		for i, t := range tracks {
			names[i] = filepath.Base(t.SourcePath)
		}
		sort.Strings(names)
		fingerprint, err = fingerprintRelease(dirInfo, release.SourcePath, names)
		if err != nil {
			return nil, fmt.Errorf("fingerprint renamed release dir: %w", err)
		}
	}

	return &releaseResult{
		release:     release,
		tracks:      tracks,
		sourceMtime: fingerprint,
	}, nil
}

// readTracks implements step 4: read every audio file through the
// codec, minting and writing back a track id and/or correcting a
// disagreeing release id. force is currently unused here — the codec
// read itself is required every pass to detect id-writeback needs —
// but kept in the signature so a future cached-tag fast path (skip the
// read entirely when mtime is unchanged) doesn't change call sites.
func (s *Scanner) readTracks(dir, releaseID string, audioFiles []string, force bool) ([]*model.Track, error) {
	var tracks []*model.Track
	for _, name := range audioFiles {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("scan: skipping unreadable track", "path", path, "error", err)
			continue
		}
		mtime := fingerprintFile(info)

		tags, err := codec.Read(path)
		if err != nil {
			slog.Warn("scan: skipping malformed track", "path", path, "error", err)
			continue
		}

		needsWriteback := false
		if tags.TrackID == "" {
			tags.TrackID = newID()
			needsWriteback = true
		}
		if tags.ReleaseID != releaseID {
			tags.ReleaseID = releaseID
			needsWriteback = true
		}
		if needsWriteback {
			if err := codec.Write(path, tags); err != nil {
				slog.Warn("scan: failed writing back track/release id", "path", path, "error", err)
			}
		}

		metahash, err := codec.Metahash(tags)
		if err != nil {
			return nil, fmt.Errorf("compute metahash for %s: %w", path, err)
		}

		tracks = append(tracks, &model.Track{
			ID:              tags.TrackID,
			SourcePath:      path,
			SourceMtime:     mtime,
			Title:           tags.Title,
			ReleaseID:       releaseID,
			TrackNumber:     tags.TrackNumber,
			DiscNumber:      tags.DiscNumber,
			DurationSeconds: tags.DurationSeconds,
			Metahash:        metahash,
			TrackArtists:    tags.TrackArtists,
		})
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].SourcePath < tracks[j].SourcePath })
	return tracks, nil
}

// computeReleaseFields implements step 5: derive release-scoped fields
// from the first track (by source path order) and aggregate disctotal,
// plus step 6's cover art detection.
func (s *Scanner) computeReleaseFields(id, dir string, df datafile.DataFile, tracks []*model.Track, otherFiles []string) *model.Release {
	first, err := codec.Read(tracks[0].SourcePath)
	var tags *codec.AudioTags
	if err == nil {
		tags = first
	} else {
		tags = &codec.AudioTags{}
	}

	checkAgreement(tracks, tags, dir)

	addedAt, err := time.Parse(time.RFC3339, df.AddedAt)
	if err != nil {
		addedAt = time.Now().UTC()
	}

	return &model.Release{
		ID:              id,
		SourcePath:      dir,
		Title:           tags.ReleaseTitle,
		ReleaseType:     tags.ReleaseType,
		ReleaseDate:     tags.ReleaseDate,
		OriginalDate:    tags.OriginalDate,
		CompositionDate: tags.CompositionDate,
		CatalogNumber:   tags.CatalogNumber,
		Edition:         tags.Edition,
		New:             df.New,
		DiscTotal:       model.DiscTotal(tracks),
		AddedAt:         addedAt,
		CoverArtPath:    findCoverArt(dir, otherFiles, s.Config.CoverArt),
		Metahash:        tracks[0].Metahash,
		ReleaseArtists:  tags.ReleaseArtists,
		Genres:          tags.Genres,
		SecondaryGenres: tags.SecondaryGenres,
		Descriptors:     tags.Descriptors,
		Labels:          tags.Labels,
	}
}

// checkAgreement logs step 5's first-file-wins warning. The release
// fields already come from the first track's tags; only the release
// title of the other tracks is compared against it and logged here.
func checkAgreement(tracks []*model.Track, first *codec.AudioTags, dir string) {
	for _, t := range tracks[1:] {
		other, err := codec.Read(t.SourcePath)
		if err != nil {
			continue
		}
		if other.ReleaseTitle != first.ReleaseTitle {
			slog.Warn("scan: release title disagreement, first file wins",
				"dir", dir, "first", first.ReleaseTitle, "other", other.ReleaseTitle, "track", t.SourcePath)
		}
	}
}

func listReleaseFiles(dir string) (audio, other []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if codec.IsSupported(e.Name()) {
			audio = append(audio, e.Name())
		} else {
			other = append(other, e.Name())
		}
	}
	sort.Strings(audio)
	sort.Strings(other)
	return audio, other, nil
}

// fingerprintRelease hashes the directory mtime plus every audio
// file's mtime and size (spec.md §4.6.3 step 2), so any change in
// either trips the freshness check.
func fingerprintRelease(dirInfo os.FileInfo, dir string, audioFiles []string) (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "dir:%d\n", dirInfo.ModTime().UnixNano())
	for _, name := range audioFiles {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s:%s\n", name, fingerprintFile(info))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fingerprintFile(info os.FileInfo) string {
	return fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size())
}
