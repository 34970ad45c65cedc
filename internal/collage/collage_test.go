package collage

import (
	"path/filepath"
	"testing"
)

func TestReadMissingFileIsEmpty(t *testing.T) {
	f, err := Read(filepath.Join(t.TempDir(), "nope.toml"), KindCollage)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(f.Entries()) != 0 {
		t.Errorf("Entries() = %v, want empty", f.Entries())
	}
}

func TestWriteThenReadRoundTripsCollage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best-of.toml")
	want := File{Releases: []Entry{
		{UUID: "r1", DescriptionMeta: "Artist - Title"},
		{UUID: "r2", DescriptionMeta: "Other - Thing", Missing: true},
	}}

	if err := Write(path, want, KindCollage); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(path, KindCollage)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got.Releases) != 2 {
		t.Fatalf("len(Releases) = %d, want 2", len(got.Releases))
	}
	if got.Releases[0].UUID != "r1" || got.Releases[1].Missing != true {
		t.Errorf("Releases = %+v", got.Releases)
	}
}

func TestWriteThenReadRoundTripsPlaylist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.toml")
	want := File{Tracks: []Entry{{UUID: "t1", DescriptionMeta: "Artist - Song"}}}

	if err := Write(path, want, KindPlaylist); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(path, KindPlaylist)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].UUID != "t1" {
		t.Errorf("Tracks = %+v", got.Tracks)
	}
}

func TestReconcileMarksMissingAndRefreshesDescription(t *testing.T) {
	entries := []Entry{
		{UUID: "exists", DescriptionMeta: "Old Name"},
		{UUID: "gone", DescriptionMeta: "Still Here"},
	}
	lookup := func(id string) (string, bool) {
		if id == "exists" {
			return "New Name", true
		}
		return "", false
	}

	out, changed := Reconcile(entries, lookup)
	if !changed {
		t.Error("changed = false, want true")
	}
	if out[0].DescriptionMeta != "New Name" || out[0].Missing {
		t.Errorf("entry[0] = %+v", out[0])
	}
	if !out[1].Missing || out[1].DescriptionMeta != "Still Here" {
		t.Errorf("entry[1] = %+v, description should be untouched", out[1])
	}
}

func TestReconcileNoOpWhenNothingChanges(t *testing.T) {
	entries := []Entry{{UUID: "exists", DescriptionMeta: "Name"}}
	lookup := func(id string) (string, bool) { return "Name", true }

	_, changed := Reconcile(entries, lookup)
	if changed {
		t.Error("changed = true, want false (nothing differs)")
	}
}

func TestPositionCalculatorMoveUp(t *testing.T) {
	c := NewPositionCalculator([]int{3}, 5, -2)
	if !c.CanMove() {
		t.Fatal("CanMove() = false, want true")
	}
	got := c.NewPositions([]int{3})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("NewPositions() = %v, want [1]", got)
	}
}

func TestPositionCalculatorOutOfBounds(t *testing.T) {
	c := NewPositionCalculator([]int{0}, 5, -1)
	if c.CanMove() {
		t.Error("CanMove() = true, want false (would go negative)")
	}

	c2 := NewPositionCalculator([]int{4}, 5, 1)
	if c2.CanMove() {
		t.Error("CanMove() = true, want false (would exceed count)")
	}
}

func TestPositionCalculatorShiftRangesMoveDown(t *testing.T) {
	c := NewPositionCalculator([]int{1}, 5, 2)
	ranges := c.ShiftRanges()
	if len(ranges) != 1 {
		t.Fatalf("len(ShiftRanges()) = %d, want 1", len(ranges))
	}
	r := ranges[0]
	if r.Start != 2 || r.End != 4 || r.Delta != -1 {
		t.Errorf("ShiftRanges()[0] = %+v", r)
	}
}
