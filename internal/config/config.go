// Package config loads the Library's configuration from
// ~/.config/rose/config.toml, mirroring the load shape
// internal/config used for waves.toml: koanf + the TOML parser, file
// paths checked in priority order, defaults applied after unmarshal.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "rose"

// CoverArtConfig mirrors codec.CoverArtConfig's shape. DefaultConfig
// declares the stem/extension defaults the scanner uses;
// codec.DefaultCoverArtConfig keeps its own separate default list.
type CoverArtConfig struct {
	Stems      []string `koanf:"stems"`
	Extensions []string `koanf:"extensions"`
}

// RenameConfig holds the per-view path templates used by
// internal/pathtemplate and internal/scan's optional source rename.
type RenameConfig struct {
	Enabled          bool   `koanf:"enabled"`
	ReleaseFolder    string `koanf:"release_folder"`
	TrackFilename    string `koanf:"track_filename"`
	MaxFilenameBytes int    `koanf:"max_filename_bytes"`
}

// VFSFilter is a per-dimension (artist/genre/label) view filter
// (spec.md §4.8.4): at most one of Whitelist/Blacklist may be
// non-empty for a given dimension.
type VFSFilter struct {
	Whitelist []string `koanf:"whitelist"`
	Blacklist []string `koanf:"blacklist"`
}

// VFSConfig configures the Virtual Filesystem Projector (spec.md
// §4.8): where it mounts and which artists/genres/labels get their own
// top-level view directory.
type VFSConfig struct {
	MountDir string `koanf:"mount_dir"`
	// ReleaseFolder/TrackFilename render every view's release directory
	// and track file names; spec.md §4.8 allows per-view templates, but
	// one global pair (rendered the same way internal/scan's optional
	// rename does) covers every view without a template per dimension.
	ReleaseFolder string    `koanf:"release_folder"`
	TrackFilename string    `koanf:"track_filename"`
	Artists       VFSFilter `koanf:"artists"`
	Genres        VFSFilter `koanf:"genres"`
	Labels        VFSFilter `koanf:"labels"`
}

// LoggingConfig configures internal/logging's process-wide slog setup.
type LoggingConfig struct {
	Format     string `koanf:"format"` // "text" or "json"
	Level      string `koanf:"level"`  // "debug", "info", "warn", "error"
	LogFile    string `koanf:"log_file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
}

// Config is the Library's full runtime configuration.
type Config struct {
	SourceDir       string         `koanf:"source_dir"`
	Ignore          []string       `koanf:"ignore"`
	MaxParallelism  int            `koanf:"max_parallelism"`
	CoverArt        CoverArtConfig `koanf:"cover_art"`
	Rename          RenameConfig   `koanf:"rename"`
	StoredRulesPath string         `koanf:"stored_rules_path"`
	VFS             VFSConfig      `koanf:"vfs"`
	Logging         LoggingConfig  `koanf:"logging"`
}

// DefaultConfig returns the configuration a fresh install starts from,
// the same role getConfigPaths/Load defaults played for waves.toml.
func DefaultConfig() Config {
	return Config{
		Ignore:         []string{"!collages", "!playlists"},
		MaxParallelism: 4,
		CoverArt: CoverArtConfig{
			Stems:      []string{"cover", "folder", "album", "front"},
			Extensions: []string{"jpg", "jpeg", "png"},
		},
		Rename: RenameConfig{
			Enabled:          false,
			ReleaseFolder:    "{releaseartists|artistsfmt} - {releasedate} - {title}",
			TrackFilename:    "{tracknumber}. {title}",
			MaxFilenameBytes: 180,
		},
		VFS: VFSConfig{
			ReleaseFolder: "{releaseartists|artistsfmt} - {title}",
			TrackFilename: "{tracknumber}. {title}",
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SlogLevel parses Logging.Level into a slog.Level, falling back to
// Info for anything unrecognized.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads ~/.config/rose/config.toml if present, falling back to
// DefaultConfig for anything unset, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", path, err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.SourceDir != "" {
		cfg.SourceDir = expandPath(cfg.SourceDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate hand-rolls the sanity checks Load needs, the same bespoke
// shape config.go used rather than a schema-validation library — the
// spec explicitly puts config schema validation detail out of scope
// (spec.md §1), so this stays intentionally small.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("config: source_dir is required")
	}
	if c.MaxParallelism <= 0 {
		return errors.New("config: max_parallelism must be positive")
	}
	if c.Rename.MaxFilenameBytes <= 0 {
		return errors.New("config: rename.max_filename_bytes must be positive")
	}
	for dim, f := range map[string]VFSFilter{"artists": c.VFS.Artists, "genres": c.VFS.Genres, "labels": c.VFS.Labels} {
		if len(f.Whitelist) > 0 && len(f.Blacklist) > 0 {
			return fmt.Errorf("config: vfs.%s cannot set both whitelist and blacklist", dim)
		}
	}
	return nil
}

// configHashFields is the subset of configuration spec.md §4.6.2 says
// must participate in the cache-reset predicate: source dir,
// cover-art stems/extensions, ignore list, max filename bytes,
// rename-on-scan flag, and templates.
type configHashFields struct {
	SourceDir        string   `json:"source_dir"`
	Ignore           []string `json:"ignore"`
	CoverArtStems    []string `json:"cover_art_stems"`
	CoverArtExts     []string `json:"cover_art_extensions"`
	RenameEnabled    bool     `json:"rename_enabled"`
	MaxFilenameBytes int      `json:"max_filename_bytes"`
	ReleaseFolder    string   `json:"release_folder"`
	TrackFilename    string   `json:"track_filename"`
}

// ConfigHash hashes configHashFields so internal/cache.Open can decide
// whether a config change invalidates the cache (spec.md §4.6.2).
func (c *Config) ConfigHash() (string, error) {
	b, err := json.Marshal(configHashFields{
		SourceDir:        c.SourceDir,
		Ignore:           c.Ignore,
		CoverArtStems:    c.CoverArt.Stems,
		CoverArtExts:     c.CoverArt.Extensions,
		RenameEnabled:    c.Rename.Enabled,
		MaxFilenameBytes: c.Rename.MaxFilenameBytes,
		ReleaseFolder:    c.Rename.ReleaseFolder,
		TrackFilename:    c.Rename.TrackFilename,
	})
	if err != nil {
		return "", fmt.Errorf("config: hash: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func configPaths() []string {
	paths := []string{}
	if p, err := xdg.ConfigFile(filepath.Join(appName, "config.toml")); err == nil {
		paths = append(paths, p)
	}
	paths = append(paths, "config.toml")
	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
