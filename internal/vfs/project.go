// Package vfs implements the Virtual Filesystem Projector (spec.md
// §4.8): a read/write view over the cache and source tree exposed as
// eight top-level directories. project.go is the stateless logical
// core — it knows nothing about FUSE, inodes, or syscalls — directly
// generalizing internal/library/source.go's Node/Level read-only
// listing into a read-write one addressed by entity ID rather than a
// fixed artist/album/track hierarchy. internal/vfs/fuse.go is the only
// caller that needs to know a kernel is involved.
package vfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/azuline/rose-sub000/internal/cache"
	"github.com/azuline/rose-sub000/internal/collage"
	"github.com/azuline/rose-sub000/internal/config"
	"github.com/azuline/rose-sub000/internal/datafile"
	"github.com/azuline/rose-sub000/internal/genre"
	"github.com/azuline/rose-sub000/internal/lockmgr"
	"github.com/azuline/rose-sub000/internal/model"
	"github.com/azuline/rose-sub000/internal/pathtemplate"
	"github.com/azuline/rose-sub000/internal/scan"
)

// ErrNotFound is returned by read operations addressing an ID or name
// the cache has no row for.
var ErrNotFound = errors.New("vfs: not found")

// vfsLockTTL bounds how long a single projector write may hold a
// per-entity lock, long enough to cover a worst-case scan refresh
// without starving a concurrent syscall indefinitely.
const vfsLockTTL = 2 * time.Minute

// recentlyAddedWindow is how far back "Releases - Recently Added"
// looks; spec.md §4.8 names the view but leaves "recently" undefined,
// so this picks a month, documented as an open-question decision in
// DESIGN.md.
const recentlyAddedWindow = 30 * 24 * time.Hour

// The eight top-level view directory names, in spec.md §4.8's order.
const (
	ViewReleases       = "1. Releases"
	ViewReleasesNew    = "2. Releases - New"
	ViewReleasesRecent = "3. Releases - Recently Added"
	ViewArtists        = "4. Artists"
	ViewGenres         = "5. Genres"
	ViewLabels         = "6. Labels"
	ViewCollages       = "7. Collages"
	ViewPlaylists      = "8. Playlists"
)

// TopLevelViews lists every top-level view in display order.
func TopLevelViews() []string {
	return []string{
		ViewReleases, ViewReleasesNew, ViewReleasesRecent,
		ViewArtists, ViewGenres, ViewLabels, ViewCollages, ViewPlaylists,
	}
}

// Projector is the logical core's dependency set: the cache to read,
// the scanner to drive refresh-after-write, and the configuration
// governing naming templates and per-dimension filters.
type Projector struct {
	Cache   *cache.Cache
	Scanner *scan.Scanner
	Config  *config.Config
}

// New constructs a Projector over already-open dependencies.
func New(c *cache.Cache, s *scan.Scanner, cfg *config.Config) *Projector {
	return &Projector{Cache: c, Scanner: s, Config: cfg}
}

// ListReleases returns every release, the contents of "1. Releases".
func (p *Projector) ListReleases() ([]*model.Release, error) {
	return p.Cache.ListReleases()
}

// ListNewReleases returns releases with new=true, the contents of
// "2. Releases - New".
func (p *Projector) ListNewReleases() ([]*model.Release, error) {
	all, err := p.Cache.ListReleases()
	if err != nil {
		return nil, err
	}
	var out []*model.Release
	for _, r := range all {
		if r.New {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListRecentlyAddedReleases returns releases added within
// recentlyAddedWindow, newest first — "3. Releases - Recently Added".
func (p *Projector) ListRecentlyAddedReleases() ([]*model.Release, error) {
	all, err := p.Cache.ListReleases()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-recentlyAddedWindow)
	var out []*model.Release
	for _, r := range all {
		if r.AddedAt.After(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

// ListArtistNames returns every artist name passing the configured
// whitelist/blacklist, the directory names under "4. Artists".
func (p *Projector) ListArtistNames() ([]string, error) {
	facets, err := p.Cache.ArtistFacets()
	if err != nil {
		return nil, err
	}
	return filterFacetNames(facets, p.Config.VFS.Artists), nil
}

// ListReleasesByArtist returns the releases under "4. Artists/{name}".
func (p *Projector) ListReleasesByArtist(name string) ([]*model.Release, error) {
	return p.Cache.ReleasesByArtist(name)
}

// ListLabelNames mirrors ListArtistNames for "6. Labels".
func (p *Projector) ListLabelNames() ([]string, error) {
	facets, err := p.Cache.LabelFacets()
	if err != nil {
		return nil, err
	}
	return filterFacetNames(facets, p.Config.VFS.Labels), nil
}

// ListReleasesByLabel returns the releases under "6. Labels/{name}".
func (p *Projector) ListReleasesByLabel(name string) ([]*model.Release, error) {
	return p.Cache.ReleasesByLabel(name)
}

// ListGenreNames mirrors ListArtistNames for "5. Genres".
func (p *Projector) ListGenreNames() ([]string, error) {
	facets, err := p.Cache.GenreFacets()
	if err != nil {
		return nil, err
	}
	return filterFacetNames(facets, p.Config.VFS.Genres), nil
}

// ListReleasesByGenre returns the releases under "5. Genres/{name}":
// every release tagged name directly, plus every release tagged a
// genre descended from name (spec.md §4.8 "including parents" — a
// release under a child genre also appears under its ancestors').
func (p *Projector) ListReleasesByGenre(name string) ([]*model.Release, error) {
	facets, err := p.Cache.GenreFacets()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]*model.Release)
	for _, f := range facets {
		if !strings.EqualFold(f.Value, name) && !genre.IsDescendantOf(f.Value, name) {
			continue
		}
		releases, err := p.Cache.ReleasesByGenre(f.Value)
		if err != nil {
			return nil, err
		}
		for _, r := range releases {
			seen[r.ID] = r
		}
	}

	out := make([]*model.Release, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// ListCollageNames returns every collage, the directory names under
// "7. Collages".
func (p *Projector) ListCollageNames() ([]string, error) {
	return p.Cache.ListCollageNames()
}

// ListReleasesInCollage returns a collage's member releases in
// position order. A member ID the cache has since lost (a missing
// release) is skipped rather than erroring, mirroring the "missing"
// flag's own meaning in internal/collage.
func (p *Projector) ListReleasesInCollage(name string) ([]*model.Release, error) {
	ids, err := p.Cache.CollageReleaseIDs(name)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Release, 0, len(ids))
	for _, id := range ids {
		r, err := p.Cache.Release(id)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListPlaylistNames returns every playlist, the directory names under
// "8. Playlists".
func (p *Projector) ListPlaylistNames() ([]string, error) {
	return p.Cache.ListPlaylistNames()
}

// ListTracksInPlaylist mirrors ListReleasesInCollage for playlists.
func (p *Projector) ListTracksInPlaylist(name string) ([]*model.Track, error) {
	ids, err := p.Cache.PlaylistTrackIDs(name)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Track, 0, len(ids))
	for _, id := range ids {
		t, err := p.Cache.Track(id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListTracksOfRelease returns a release's tracks in disc/track order,
// the contents of any release directory in any view.
func (p *Projector) ListTracksOfRelease(releaseID string) ([]*model.Track, error) {
	return p.Cache.TracksOfRelease(releaseID)
}

// ReleaseDirName renders r's directory name under the VFS's naming
// templates (spec.md §4.8 "Release directory names are rendered by
// per-view templates").
func (p *Projector) ReleaseDirName(r *model.Release) (string, error) {
	fields := pathtemplate.ReleaseFields(r)
	rendered, err := pathtemplate.Render(p.Config.VFS.ReleaseFolder, fields)
	if err != nil {
		return "", fmt.Errorf("vfs: render release folder: %w", err)
	}
	return pathtemplate.Sanitize(rendered, p.Config.Rename.MaxFilenameBytes)
}

// TrackFileName renders t's file name within release r, given the
// release's total track count for the disc.
func (p *Projector) TrackFileName(t *model.Track, r *model.Release, trackTotal int) (string, error) {
	fields := pathtemplate.WithTrackTotal(pathtemplate.TrackFields(t, r), trackTotal)
	rendered, err := pathtemplate.Render(p.Config.VFS.TrackFilename, fields)
	if err != nil {
		return "", fmt.Errorf("vfs: render track filename: %w", err)
	}
	name, err := pathtemplate.Sanitize(rendered+filepath.Ext(t.SourcePath), p.Config.Rename.MaxFilenameBytes)
	if err != nil {
		return "", err
	}
	return name, nil
}

// DatafileName returns the ".rose.{uuid}.toml" sidecar name for a release.
func (p *Projector) DatafileName(releaseID string) string {
	return datafile.FileName(releaseID)
}

// ReadTrackBytes reads a track's full audio file content, the source
// of truth any view's track file reads passthrough to.
func (p *Projector) ReadTrackBytes(trackID string) ([]byte, error) {
	t, err := p.Cache.Track(trackID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return os.ReadFile(t.SourcePath)
}

// WriteTrackBytes passes a write through to a track's source file and
// schedules a refresh for the owning release (spec.md §4.8.1 "writes
// to track file content").
func (p *Projector) WriteTrackBytes(ctx context.Context, trackID string, data []byte) error {
	t, err := p.Cache.Track(trackID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	if err := os.WriteFile(t.SourcePath, data, 0o644); err != nil {
		return fmt.Errorf("vfs: write track %s: %w", trackID, err)
	}
	return p.refreshRelease(ctx, t.ReleaseID)
}

// ReadDatafileBytes reads a release's ".rose.{uuid}.toml" sidecar raw,
// exposed read-only per spec.md §4.8.
func (p *Projector) ReadDatafileBytes(releaseID string) ([]byte, error) {
	r, err := p.Cache.Release(releaseID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return os.ReadFile(filepath.Join(r.SourcePath, datafile.FileName(releaseID)))
}

// ToggleNew flips a release's new flag (spec.md §4.8.1 "mv
// /1. Releases/R /1. Releases/{NEW} R"). datafile.Write already
// serializes on the release's lock, so no outer lock is taken here.
func (p *Projector) ToggleNew(ctx context.Context, releaseID string) error {
	r, err := p.Cache.Release(releaseID)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrNotFound
	}

	id, df, found, _, err := datafile.Read(r.SourcePath)
	if err != nil {
		return err
	}
	if !found {
		id, df = releaseID, datafile.DataFile{New: true, AddedAt: time.Now().UTC().Format(time.RFC3339)}
	}
	df.New = !df.New

	if _, err := datafile.Write(p.Cache.Locks, r.SourcePath, id, "", df); err != nil {
		return fmt.Errorf("vfs: toggle new for %s: %w", releaseID, err)
	}
	return p.refreshRelease(ctx, releaseID)
}

// SetCoverArt writes data as a release's cover art file, replacing any
// existing one, and refreshes the cache (spec.md §4.8.1 "cp img
// /1. Releases/R/cover.jpg").
func (p *Projector) SetCoverArt(ctx context.Context, releaseID string, data []byte, ext string) error {
	r, err := p.Cache.Release(releaseID)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrNotFound
	}

	lock, err := p.Cache.Locks.Acquire(lockmgr.ReleaseLockName(releaseID), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for %s: %w", releaseID, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	if r.CoverArtPath != "" {
		if err := os.Remove(r.CoverArtPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("vfs: remove existing cover art: %w", err)
		}
	}

	stem := "cover"
	if len(p.Config.CoverArt.Stems) > 0 {
		stem = p.Config.CoverArt.Stems[0]
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	dest := filepath.Join(r.SourcePath, stem+"."+ext)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("vfs: write cover art: %w", err)
	}
	return p.refreshRelease(ctx, releaseID)
}

// RemoveCoverArt deletes a release's cover art file (spec.md §4.8.1
// "rm /1. Releases/R/cover.jpg").
func (p *Projector) RemoveCoverArt(ctx context.Context, releaseID string) error {
	r, err := p.Cache.Release(releaseID)
	if err != nil {
		return err
	}
	if r == nil || r.CoverArtPath == "" {
		return nil
	}

	lock, err := p.Cache.Locks.Acquire(lockmgr.ReleaseLockName(releaseID), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for %s: %w", releaseID, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	if err := os.Remove(r.CoverArtPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vfs: remove cover art: %w", err)
	}
	return p.refreshRelease(ctx, releaseID)
}

// RenameRelease renames a release's source directory to newName
// (sanitized), refreshing the cache afterward (spec.md §4.8.1).
func (p *Projector) RenameRelease(ctx context.Context, releaseID, newName string) error {
	r, err := p.Cache.Release(releaseID)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrNotFound
	}

	name, err := pathtemplate.Sanitize(newName, p.Config.Rename.MaxFilenameBytes)
	if err != nil {
		return fmt.Errorf("vfs: sanitize release name %q: %w", newName, err)
	}

	lock, err := p.Cache.Locks.Acquire(lockmgr.ReleaseLockName(releaseID), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for %s: %w", releaseID, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	parent := filepath.Dir(r.SourcePath)
	newPath := uniquePath(parent, name, r.SourcePath)
	if newPath == r.SourcePath {
		return nil
	}
	if err := os.Rename(r.SourcePath, newPath); err != nil {
		return fmt.Errorf("vfs: rename release directory: %w", err)
	}
	return p.refreshPath(ctx, newPath)
}

// DeleteRelease moves a release's source directory under
// "{source}/.trash" and removes its cache row (spec.md §4.8.1 "rmdir
// /1. Releases/R").
func (p *Projector) DeleteRelease(ctx context.Context, releaseID string) error {
	r, err := p.Cache.Release(releaseID)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrNotFound
	}

	lock, err := p.Cache.Locks.Acquire(lockmgr.ReleaseLockName(releaseID), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for %s: %w", releaseID, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	trashDir := filepath.Join(p.Config.SourceDir, ".trash")
	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return fmt.Errorf("vfs: create trash directory: %w", err)
	}
	dest := uniquePath(trashDir, filepath.Base(r.SourcePath), "")
	if err := os.Rename(r.SourcePath, dest); err != nil {
		return fmt.Errorf("vfs: trash release directory: %w", err)
	}
	return p.Cache.DeleteRelease(releaseID)
}

// AddReleaseToCollage adds releaseID to collage name, creating the
// collage if it does not yet exist (spec.md §4.8.1 "cp -r R
// /7. Collages/X/"). Idempotent: re-adding an existing member is a
// no-op.
func (p *Projector) AddReleaseToCollage(collageName, releaseID string) error {
	lock, err := p.Cache.Locks.Acquire(lockmgr.CollageLockName(collageName), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for collage %s: %w", collageName, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	path := p.collagePath(collageName)
	f, err := collage.Read(path, collage.KindCollage)
	if err != nil {
		return err
	}
	for _, e := range f.Releases {
		if e.UUID == releaseID {
			return nil
		}
	}
	f.Releases = append(f.Releases, collage.Entry{UUID: releaseID})
	return p.writeCollage(collageName, path, f)
}

// RemoveReleaseFromCollage removes releaseID from collage name
// (spec.md §4.8.1 "rmdir /7. Collages/X/R").
func (p *Projector) RemoveReleaseFromCollage(collageName, releaseID string) error {
	lock, err := p.Cache.Locks.Acquire(lockmgr.CollageLockName(collageName), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for collage %s: %w", collageName, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	path := p.collagePath(collageName)
	f, err := collage.Read(path, collage.KindCollage)
	if err != nil {
		return err
	}
	kept := f.Releases[:0]
	for _, e := range f.Releases {
		if e.UUID != releaseID {
			kept = append(kept, e)
		}
	}
	f.Releases = kept
	return p.writeCollage(collageName, path, f)
}

// CreateCollage creates an empty collage (spec.md §4.8.1 "mkdir
// /7. Collages/X").
func (p *Projector) CreateCollage(name string) error {
	return p.writeCollage(name, p.collagePath(name), collage.File{})
}

// RenameCollage renames a collage's TOML file and cache row (spec.md
// §4.8.1 "mv /7. Collages/X /7. Collages/Y").
func (p *Projector) RenameCollage(oldName, newName string) error {
	oldPath, newPath := p.collagePath(oldName), p.collagePath(newName)
	f, err := collage.Read(oldPath, collage.KindCollage)
	if err != nil {
		return err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("vfs: rename collage file: %w", err)
	}
	if err := p.Cache.DeleteCollage(oldName); err != nil {
		return err
	}
	mtime, err := collage.ModTime(newPath)
	if err != nil {
		return err
	}
	return p.Cache.UpsertCollage(newName, mtime.UTC().Format(time.RFC3339), f.Releases)
}

// DeleteCollage removes a collage's TOML file and cache row (spec.md
// §4.8.1 "rmdir /7. Collages/X").
func (p *Projector) DeleteCollage(name string) error {
	path := p.collagePath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vfs: remove collage file: %w", err)
	}
	return p.Cache.DeleteCollage(name)
}

// AddTrackToPlaylist adds trackID to playlist name (spec.md §4.8.1
// "cp T /8. Playlists/P/").
func (p *Projector) AddTrackToPlaylist(playlistName, trackID string) error {
	lock, err := p.Cache.Locks.Acquire(lockmgr.PlaylistLockName(playlistName), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for playlist %s: %w", playlistName, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	path := p.playlistPath(playlistName)
	f, err := collage.Read(path, collage.KindPlaylist)
	if err != nil {
		return err
	}
	for _, e := range f.Tracks {
		if e.UUID == trackID {
			return nil
		}
	}
	f.Tracks = append(f.Tracks, collage.Entry{UUID: trackID})
	return p.writePlaylist(playlistName, path, f, "")
}

// RemoveTrackFromPlaylist removes trackID from playlist name.
func (p *Projector) RemoveTrackFromPlaylist(playlistName, trackID string) error {
	lock, err := p.Cache.Locks.Acquire(lockmgr.PlaylistLockName(playlistName), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for playlist %s: %w", playlistName, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	path := p.playlistPath(playlistName)
	f, err := collage.Read(path, collage.KindPlaylist)
	if err != nil {
		return err
	}
	kept := f.Tracks[:0]
	for _, e := range f.Tracks {
		if e.UUID != trackID {
			kept = append(kept, e)
		}
	}
	f.Tracks = kept
	return p.writePlaylist(playlistName, path, f, "")
}

// CreatePlaylist creates an empty playlist.
func (p *Projector) CreatePlaylist(name string) error {
	return p.writePlaylist(name, p.playlistPath(name), collage.File{}, "")
}

// RenamePlaylist renames a playlist's TOML file (and any cover art
// sharing its stem) and cache row (spec.md §4.8.1 "mv ... (and
// adjacent files sharing the stem)").
func (p *Projector) RenamePlaylist(oldName, newName string) error {
	oldPath, newPath := p.playlistPath(oldName), p.playlistPath(newName)
	f, err := collage.Read(oldPath, collage.KindPlaylist)
	if err != nil {
		return err
	}
	coverPath, hasCover, err := p.Cache.PlaylistCoverPath(oldName)
	if err != nil {
		return err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("vfs: rename playlist file: %w", err)
	}

	newCoverPath := ""
	if hasCover && coverPath != "" {
		newCoverPath = filepath.Join(filepath.Dir(coverPath), newName+filepath.Ext(coverPath))
		if err := os.Rename(coverPath, newCoverPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("vfs: rename playlist cover art: %w", err)
		}
	}

	if err := p.Cache.DeletePlaylist(oldName); err != nil {
		return err
	}
	mtime, err := collage.ModTime(newPath)
	if err != nil {
		return err
	}
	return p.Cache.UpsertPlaylist(newName, mtime.UTC().Format(time.RFC3339), newCoverPath, f.Tracks)
}

// DeletePlaylist removes a playlist's TOML file and cache row.
func (p *Projector) DeletePlaylist(name string) error {
	path := p.playlistPath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vfs: remove playlist file: %w", err)
	}
	return p.Cache.DeletePlaylist(name)
}

// SetPlaylistCoverArt writes data as a playlist's cover art file.
func (p *Projector) SetPlaylistCoverArt(playlistName string, data []byte, ext string) error {
	lock, err := p.Cache.Locks.Acquire(lockmgr.PlaylistLockName(playlistName), vfsLockTTL)
	if err != nil {
		return fmt.Errorf("vfs: acquire lock for playlist %s: %w", playlistName, err)
	}
	defer lock.Release() //nolint:errcheck // best-effort, TTL reclaims it otherwise

	if existing, ok, err := p.Cache.PlaylistCoverPath(playlistName); err == nil && ok && existing != "" {
		os.Remove(existing)
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	dest := filepath.Join(filepath.Dir(p.playlistPath(playlistName)), playlistName+"."+ext)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("vfs: write playlist cover art: %w", err)
	}

	mtime, err := collage.ModTime(p.playlistPath(playlistName))
	if err != nil {
		return err
	}
	entries, err := p.Cache.PlaylistTrackIDs(playlistName)
	if err != nil {
		return err
	}
	asEntries := make([]collage.Entry, len(entries))
	for i, id := range entries {
		asEntries[i] = collage.Entry{UUID: id}
	}
	return p.Cache.UpsertPlaylist(playlistName, mtime.UTC().Format(time.RFC3339), dest, asEntries)
}

// ResolveReleaseByRenderedName finds the release whose rendered
// directory name equals name — the reverse lookup "cp -r R
// /7. Collages/X/" needs, since the syscall only carries R's rendered
// name, not its ID. O(n) over every release; acceptable at library
// scale, a known scaling limitation recorded in DESIGN.md.
func (p *Projector) ResolveReleaseByRenderedName(name string) (*model.Release, error) {
	releases, err := p.Cache.ListReleases()
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		rendered, err := p.ReleaseDirName(r)
		if err != nil {
			continue
		}
		if rendered == name {
			return r, nil
		}
	}
	return nil, nil
}

// ResolveTrackByRenderedName mirrors ResolveReleaseByRenderedName for
// "cp T /8. Playlists/P/".
func (p *Projector) ResolveTrackByRenderedName(name string) (*model.Track, error) {
	releases, err := p.Cache.ListReleases()
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		tracks, err := p.Cache.TracksOfRelease(r.ID)
		if err != nil {
			continue
		}
		for _, t := range tracks {
			total := model.TrackTotal(tracks, t.DiscNumber)
			rendered, err := p.TrackFileName(t, r, total)
			if err != nil {
				continue
			}
			if rendered == name {
				return t, nil
			}
		}
	}
	return nil, nil
}

func (p *Projector) writeCollage(name, path string, f collage.File) error {
	if err := collage.Write(path, f, collage.KindCollage); err != nil {
		return err
	}
	mtime, err := collage.ModTime(path)
	if err != nil {
		return err
	}
	return p.Cache.UpsertCollage(name, mtime.UTC().Format(time.RFC3339), f.Releases)
}

func (p *Projector) writePlaylist(name, path string, f collage.File, coverPath string) error {
	if err := collage.Write(path, f, collage.KindPlaylist); err != nil {
		return err
	}
	mtime, err := collage.ModTime(path)
	if err != nil {
		return err
	}
	return p.Cache.UpsertPlaylist(name, mtime.UTC().Format(time.RFC3339), coverPath, f.Tracks)
}

func (p *Projector) collagePath(name string) string {
	return filepath.Join(p.Config.SourceDir, "!collages", name+".toml")
}

func (p *Projector) playlistPath(name string) string {
	return filepath.Join(p.Config.SourceDir, "!playlists", name+".toml")
}

// refreshRelease scans releaseID's directory, the "schedule cache
// refresh for the owning release" step spec.md §4.8.1/§4.8.3 requires
// to complete before a write-triggering syscall returns.
func (p *Projector) refreshRelease(ctx context.Context, releaseID string) error {
	r, err := p.Cache.Release(releaseID)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}
	return p.refreshPath(ctx, r.SourcePath)
}

func (p *Projector) refreshPath(ctx context.Context, path string) error {
	_, err := p.Scanner.Scan(ctx, scan.Options{Dirs: []string{path}, Force: true})
	return err
}

// uniquePath returns parent/name, suffixing " [2]", " [3]", … if
// something other than current already occupies that path. Mirrors
// internal/scan/rename.go's unexported helper of the same shape; kept
// as a small local copy since internal/scan does not export it.
func uniquePath(parent, name, current string) string {
	candidate := filepath.Join(parent, name)
	if candidate == current {
		return candidate
	}
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate = filepath.Join(parent, fmt.Sprintf("%s [%d]%s", stem, n, ext))
		if candidate == current {
			return candidate
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func filterFacetNames(facets []cache.FacetValue, filter config.VFSFilter) []string {
	var out []string
	for _, f := range facets {
		if facetAllowed(f.Value, filter) {
			out = append(out, f.Value)
		}
	}
	return out
}

func facetAllowed(name string, filter config.VFSFilter) bool {
	if len(filter.Whitelist) > 0 {
		return containsFold(filter.Whitelist, name)
	}
	if len(filter.Blacklist) > 0 {
		return !containsFold(filter.Blacklist, name)
	}
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
