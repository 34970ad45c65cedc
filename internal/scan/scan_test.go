package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/azuline/rose-sub000/internal/config"
)

func TestFingerprintRelease_ChangesWithFileEdit(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "01.flac")
	if err := os.WriteFile(audioPath, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirInfo, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	before, err := fingerprintRelease(dirInfo, dir, []string{"01.flac"})
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(audioPath, []byte("one-but-longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	after, err := fingerprintRelease(dirInfo, dir, []string{"01.flac"})
	if err != nil {
		t.Fatal(err)
	}

	if before == after {
		t.Fatal("expected fingerprint to change after editing a tracked file's size")
	}
}

func TestFingerprintRelease_StableWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "01.flac"), []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirInfo, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}

	a, err := fingerprintRelease(dirInfo, dir, []string{"01.flac"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := fingerprintRelease(dirInfo, dir, []string{"01.flac"})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected a stable fingerprint across repeated calls with no change")
	}
}

func TestListReleaseFiles_SplitsAudioFromOther(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"01.flac", "02.mp3", "cover.jpg", ".hidden", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	audio, other, err := listReleaseFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	wantAudio := []string{"01.flac", "02.mp3"}
	if len(audio) != len(wantAudio) {
		t.Fatalf("audio = %v, want %v", audio, wantAudio)
	}
	for i, name := range wantAudio {
		if audio[i] != name {
			t.Fatalf("audio[%d] = %q, want %q", i, audio[i], name)
		}
	}

	wantOther := []string{"cover.jpg", "notes.txt"}
	if len(other) != len(wantOther) {
		t.Fatalf("other = %v, want %v (subdirs and dotfiles must be excluded)", other, wantOther)
	}
}

func TestFindCoverArt(t *testing.T) {
	cfg := config.CoverArtConfig{
		Stems:      []string{"cover", "folder"},
		Extensions: []string{"jpg", "png"},
	}

	t.Run("matches configured stem and extension", func(t *testing.T) {
		got := findCoverArt("/release", []string{"notes.txt", "cover.jpg", "booklet.pdf"}, cfg)
		want := filepath.Join("/release", "cover.jpg")
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := findCoverArt("/release", []string{"FOLDER.PNG"}, cfg)
		want := filepath.Join("/release", "FOLDER.PNG")
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})

	t.Run("no match returns empty", func(t *testing.T) {
		got := findCoverArt("/release", []string{"notes.txt", "booklet.pdf"}, cfg)
		if got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})
}

func TestResolveDirs_ExplicitDirsRelativeToSourceRoot(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SourceDir = "/music"
	s := &Scanner{Config: &cfg}

	dirs, err := s.resolveDirs([]string{"release-a", "/other/release-b"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/music/release-a", "/other/release-b"}
	for i, d := range want {
		if dirs[i] != d {
			t.Fatalf("dirs[%d] = %q, want %q", i, dirs[i], d)
		}
	}
}

func TestResolveDirs_WholeLibraryExcludesIgnoredAndSpecialDirs(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"release-a", "release-b", "!collages", "!playlists", "skip-me"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "stray-file.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.SourceDir = root
	cfg.Ignore = []string{"skip-me"}
	s := &Scanner{Config: &cfg}

	dirs, err := s.resolveDirs(nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{filepath.Join(root, "release-a"), filepath.Join(root, "release-b")}
	if len(dirs) != len(want) {
		t.Fatalf("dirs = %v, want %v", dirs, want)
	}
	for i, d := range want {
		if dirs[i] != d {
			t.Fatalf("dirs[%d] = %q, want %q", i, dirs[i], d)
		}
	}
}

func TestUniquePath_SuffixesOnCollision(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Title.flac"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := uniquePath(dir, "Title.flac", filepath.Join(dir, "other-current.flac"))
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "Title [2].flac")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUniquePath_NoCollisionWhenCurrentIsTarget(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "Title.flac")
	if err := os.WriteFile(current, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := uniquePath(dir, "Title.flac", current)
	if err != nil {
		t.Fatal(err)
	}
	if got != current {
		t.Fatalf("got %q, want %q (renaming a file to its own name is a no-op)", got, current)
	}
}

func TestCleanupEmptyDirs_RemovesOnlyEmptySubdirs(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty-disc-1")
	nonEmpty := filepath.Join(dir, "disc-2")
	if err := os.Mkdir(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(nonEmpty, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nonEmpty, "01.flac"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := cleanupEmptyDirs(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Fatalf("expected %q to be removed, stat err = %v", empty, err)
	}
	if _, err := os.Stat(nonEmpty); err != nil {
		t.Fatalf("expected %q to survive, got err = %v", nonEmpty, err)
	}
}
