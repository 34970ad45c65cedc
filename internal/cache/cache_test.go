package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/azuline/rose-sub000/internal/collage"
	"github.com/azuline/rose-sub000/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.sqlite3")
	c, err := Open(path, "test-tool-version", "test-config-hash")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite3")
	c1, err := Open(path, "v1", "cfg1")
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	c1.Close()

	c2, err := Open(path, "v1", "cfg1")
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer c2.Close()
}

func TestOpenResetsOnConfigHashChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite3")
	c1, err := Open(path, "v1", "cfg1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	r := &model.Release{ID: "r1", SourcePath: "/music/r1", Title: "Test", AddedAt: time.Now()}
	if err := c1.UpsertRelease(r, "m1"); err != nil {
		t.Fatalf("UpsertRelease() error = %v", err)
	}
	c1.Close()

	c2, err := Open(path, "v1", "cfg2")
	if err != nil {
		t.Fatalf("Open() with new config hash error = %v", err)
	}
	defer c2.Close()

	releases, err := c2.ListReleases()
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("ListReleases() = %v, want empty after config_hash-triggered reset", releases)
	}
}

func TestUpsertAndListRelease(t *testing.T) {
	c := openTestCache(t)
	r := &model.Release{
		ID:          "r1",
		SourcePath:  "/music/r1",
		Title:       "Album Title",
		ReleaseType: model.ReleaseAlbum,
		New:         true,
		DiscTotal:   1,
		AddedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Genres:      []string{"Rock", "Indie"},
	}
	r.ReleaseArtists.Main = []string{"Artist One"}

	if err := c.UpsertRelease(r, "mtime-1"); err != nil {
		t.Fatalf("UpsertRelease() error = %v", err)
	}

	releases, err := c.ListReleases()
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	if len(releases) != 1 {
		t.Fatalf("len(ListReleases()) = %d, want 1", len(releases))
	}
	got := releases[0]
	if got.Title != "Album Title" || len(got.Genres) != 2 || got.ReleaseArtists.Main[0] != "Artist One" {
		t.Errorf("ListReleases()[0] = %+v", got)
	}
}

func TestDeleteRelease(t *testing.T) {
	c := openTestCache(t)
	r := &model.Release{ID: "r1", SourcePath: "/music/r1", Title: "T", AddedAt: time.Now()}
	if err := c.UpsertRelease(r, "m1"); err != nil {
		t.Fatalf("UpsertRelease() error = %v", err)
	}
	if err := c.DeleteRelease("r1"); err != nil {
		t.Fatalf("DeleteRelease() error = %v", err)
	}
	releases, err := c.ListReleases()
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("ListReleases() = %v, want empty after delete", releases)
	}
}

func TestUpsertTrackAndSearch(t *testing.T) {
	c := openTestCache(t)
	r := &model.Release{ID: "r1", SourcePath: "/music/r1", Title: "Album", AddedAt: time.Now()}
	if err := c.UpsertRelease(r, "m1"); err != nil {
		t.Fatalf("UpsertRelease() error = %v", err)
	}

	tr := &model.Track{ID: "t1", SourcePath: "/music/r1/01.flac", ReleaseID: "r1", Title: "Opening Theme"}
	tr.TrackArtists.Main = []string{"Composer Name"}
	if err := c.UpsertTrack(tr); err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}

	tracks, err := c.TracksOfRelease("r1")
	if err != nil {
		t.Fatalf("TracksOfRelease() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "Opening Theme" {
		t.Fatalf("TracksOfRelease() = %+v", tracks)
	}

	matches, err := c.SearchTracks("Opening")
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(matches) != 1 || matches[0].TrackID != "t1" {
		t.Errorf("SearchTracks(\"Opening\") = %+v, want [t1]", matches)
	}

	noMatches, err := c.SearchTracks("nonexistentword")
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(noMatches) != 0 {
		t.Errorf("SearchTracks(unmatched) = %+v, want empty", noMatches)
	}
}

func TestDeleteTrackRemovesFTSRow(t *testing.T) {
	c := openTestCache(t)
	r := &model.Release{ID: "r1", SourcePath: "/music/r1", Title: "Album", AddedAt: time.Now()}
	if err := c.UpsertRelease(r, "m1"); err != nil {
		t.Fatalf("UpsertRelease() error = %v", err)
	}
	tr := &model.Track{ID: "t1", SourcePath: "/music/r1/01.flac", ReleaseID: "r1", Title: "Unique Word"}
	if err := c.UpsertTrack(tr); err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}
	if err := c.DeleteTrack("t1"); err != nil {
		t.Fatalf("DeleteTrack() error = %v", err)
	}
	matches, err := c.SearchTracks("Unique")
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("SearchTracks() after delete = %+v, want empty", matches)
	}
}

func TestCollageRoundTripAndDescriptionLookup(t *testing.T) {
	c := openTestCache(t)
	r := &model.Release{ID: "r1", SourcePath: "/music/r1", Title: "Album", AddedAt: time.Now()}
	r.ReleaseArtists.Main = []string{"Someone"}
	if err := c.UpsertRelease(r, "m1"); err != nil {
		t.Fatalf("UpsertRelease() error = %v", err)
	}

	entries := []collage.Entry{{UUID: "r1", DescriptionMeta: "stale"}}
	if err := c.UpsertCollage("best-of", "cm1", entries); err != nil {
		t.Fatalf("UpsertCollage() error = %v", err)
	}

	ids, err := c.CollageReleaseIDs("best-of")
	if err != nil {
		t.Fatalf("CollageReleaseIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "r1" {
		t.Fatalf("CollageReleaseIDs() = %v, want [r1]", ids)
	}

	desc, exists, err := c.ReleaseDescription("r1")
	if err != nil {
		t.Fatalf("ReleaseDescription() error = %v", err)
	}
	if !exists || desc != "Someone - Album" {
		t.Errorf("ReleaseDescription() = %q, %v, want \"Someone - Album\", true", desc, exists)
	}

	if err := c.DeleteCollage("best-of"); err != nil {
		t.Fatalf("DeleteCollage() error = %v", err)
	}
	ids, err = c.CollageReleaseIDs("best-of")
	if err != nil {
		t.Fatalf("CollageReleaseIDs() after delete error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("CollageReleaseIDs() after delete = %v, want empty", ids)
	}
}

func TestPlaylistRoundTrip(t *testing.T) {
	c := openTestCache(t)
	r := &model.Release{ID: "r1", SourcePath: "/music/r1", Title: "Album", AddedAt: time.Now()}
	if err := c.UpsertRelease(r, "m1"); err != nil {
		t.Fatalf("UpsertRelease() error = %v", err)
	}
	tr := &model.Track{ID: "t1", SourcePath: "/music/r1/01.flac", ReleaseID: "r1", Title: "Song"}
	if err := c.UpsertTrack(tr); err != nil {
		t.Fatalf("UpsertTrack() error = %v", err)
	}

	entries := []collage.Entry{{UUID: "t1", DescriptionMeta: "Song"}, {UUID: "missing-id", Missing: true}}
	if err := c.UpsertPlaylist("favorites", "pm1", "", entries); err != nil {
		t.Fatalf("UpsertPlaylist() error = %v", err)
	}

	ids, err := c.PlaylistTrackIDs("favorites")
	if err != nil {
		t.Fatalf("PlaylistTrackIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "t1" {
		t.Fatalf("PlaylistTrackIDs() = %v", ids)
	}

	desc, exists, err := c.TrackDescription("t1")
	if err != nil {
		t.Fatalf("TrackDescription() error = %v", err)
	}
	if !exists || desc != "Song" {
		t.Errorf("TrackDescription() = %q, %v", desc, exists)
	}
}
