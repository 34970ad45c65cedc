package cache

import (
	"testing"
	"time"

	"github.com/azuline/rose-sub000/internal/model"
)

func TestApplyScanBatchesUpsertsAndDeletes(t *testing.T) {
	c := openTestCache(t)

	stale := &model.Release{ID: "stale", SourcePath: "/music/stale", Title: "Stale", AddedAt: time.Now()}
	if err := c.UpsertRelease(stale, "m0"); err != nil {
		t.Fatalf("seed UpsertRelease() error = %v", err)
	}

	fresh := &model.Release{ID: "fresh", SourcePath: "/music/fresh", Title: "Fresh", AddedAt: time.Now()}
	track := &model.Track{ID: "t1", SourcePath: "/music/fresh/01.flac", ReleaseID: "fresh", Title: "Song"}

	err := c.ApplyScan(
		[]ReleaseUpsert{{Release: fresh, SourceMtime: "m1", Tracks: []*model.Track{track}}},
		[]string{"stale"},
		nil,
	)
	if err != nil {
		t.Fatalf("ApplyScan() error = %v", err)
	}

	releases, err := c.ListReleases()
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	if len(releases) != 1 || releases[0].ID != "fresh" {
		t.Fatalf("ListReleases() = %+v, want only \"fresh\"", releases)
	}

	tracks, err := c.TracksOfRelease("fresh")
	if err != nil {
		t.Fatalf("TracksOfRelease() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "t1" {
		t.Fatalf("TracksOfRelease() = %+v", tracks)
	}
}
