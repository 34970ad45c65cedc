package vfs

import (
	"strings"
	"testing"

	"github.com/azuline/rose-sub000/internal/config"
	"github.com/azuline/rose-sub000/internal/model"
)

func testProjector(cfg *config.Config) *Projector {
	return &Projector{Config: cfg}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SourceDir = "/music"
	return &cfg
}

func TestReleaseDirName_RendersArtistsAndTitle(t *testing.T) {
	p := testProjector(testConfig())
	r := &model.Release{
		ID:    "release-1",
		Title: "The Dark Side of the Moon",
	}
	r.ReleaseArtists.SetRole(model.RoleMain, []string{"Pink Floyd"})

	name, err := p.ReleaseDirName(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(name, "Pink Floyd") || !strings.Contains(name, "The Dark Side of the Moon") {
		t.Fatalf("name = %q, want it to contain artist and title", name)
	}
}

func TestReleaseDirName_SanitizesIllegalCharacters(t *testing.T) {
	p := testProjector(testConfig())
	r := &model.Release{
		ID:    "release-2",
		Title: "A/B: Side One?",
	}
	r.ReleaseArtists.SetRole(model.RoleMain, []string{"Artist"})

	name, err := p.ReleaseDirName(r)
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(name, "/:?") {
		t.Fatalf("name = %q, want filesystem-illegal characters stripped", name)
	}
}

func TestTrackFileName_IncludesTrackNumberAndExtension(t *testing.T) {
	p := testProjector(testConfig())
	r := &model.Release{ID: "release-1", Title: "Album"}
	tr := &model.Track{
		ID:          "track-1",
		SourcePath:  "/music/Album/01.flac",
		Title:       "Intro",
		TrackNumber: "1",
		DiscNumber:  "1",
	}

	name, err := p.TrackFileName(tr, r, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(name, "1.") || !strings.HasSuffix(name, ".flac") {
		t.Fatalf("name = %q, want a leading track number and preserved .flac extension", name)
	}
}

func TestTrackFileName_DiffersAcrossTracksWithSameTitle(t *testing.T) {
	p := testProjector(testConfig())
	r := &model.Release{ID: "release-1", Title: "Album"}
	a := &model.Track{ID: "a", SourcePath: "a.flac", Title: "Interlude", TrackNumber: "2", DiscNumber: "1"}
	b := &model.Track{ID: "b", SourcePath: "b.flac", Title: "Interlude", TrackNumber: "5", DiscNumber: "1"}

	nameA, err := p.TrackFileName(a, r, 2)
	if err != nil {
		t.Fatal(err)
	}
	nameB, err := p.TrackFileName(b, r, 2)
	if err != nil {
		t.Fatal(err)
	}
	if nameA == nameB {
		t.Fatalf("expected distinct track numbers to render distinct file names, both = %q", nameA)
	}
}

func TestCollagePathAndPlaylistPath_ScopedUnderSourceDir(t *testing.T) {
	p := testProjector(testConfig())

	collage := p.collagePath("Favorites")
	if !strings.HasPrefix(collage, "/music/!collages/") || !strings.HasSuffix(collage, "Favorites.toml") {
		t.Fatalf("collagePath = %q", collage)
	}

	playlist := p.playlistPath("Road Trip")
	if !strings.HasPrefix(playlist, "/music/!playlists/") || !strings.HasSuffix(playlist, "Road Trip.toml") {
		t.Fatalf("playlistPath = %q", playlist)
	}
}

func TestDatafileName_StableForSameRelease(t *testing.T) {
	p := testProjector(testConfig())
	a := p.DatafileName("release-1")
	b := p.DatafileName("release-1")
	if a != b {
		t.Fatalf("DatafileName not stable: %q vs %q", a, b)
	}
	if p.DatafileName("release-2") == a {
		t.Fatal("expected distinct releases to get distinct datafile names")
	}
}
