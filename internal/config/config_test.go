package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/library/albums",
			expected: filepath.Join(home, "music", "library", "albums"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/albums",
			expected: "music/albums",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestConfigPaths(t *testing.T) {
	paths := configPaths()
	if len(paths) == 0 {
		t.Fatal("configPaths() returned empty slice")
	}
	if last := paths[len(paths)-1]; last != "config.toml" {
		t.Errorf("last config path = %q, want %q", last, "config.toml")
	}
}

func TestDefaultConfigValidateNeedsSourceDir(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() on a config with no source_dir should error")
	}

	cfg.SourceDir = "/music"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with a source_dir set = %v, want nil", err)
	}
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero max_parallelism", func(c *Config) { c.MaxParallelism = 0 }},
		{"negative max_parallelism", func(c *Config) { c.MaxParallelism = -1 }},
		{"zero max_filename_bytes", func(c *Config) { c.Rename.MaxFilenameBytes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SourceDir = "/music"
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should have errored")
			}
		})
	}
}

func TestValidateRejectsConflictingVFSFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourceDir = "/music"
	cfg.VFS.Genres = VFSFilter{Whitelist: []string{"Rock"}, Blacklist: []string{"Noise"}}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject a dimension with both whitelist and blacklist set")
	}

	cfg.VFS.Genres = VFSFilter{Whitelist: []string{"Rock"}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with only a whitelist set = %v, want nil", err)
	}
}

func TestConfigHashStableAndSensitiveToInputs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourceDir = "/music"

	h1, err := cfg.ConfigHash()
	if err != nil {
		t.Fatalf("ConfigHash() error = %v", err)
	}
	h2, err := cfg.ConfigHash()
	if err != nil {
		t.Fatalf("ConfigHash() error = %v", err)
	}
	if h1 != h2 {
		t.Error("ConfigHash() is not stable across repeated calls")
	}

	cfg.Ignore = append(cfg.Ignore, "!drafts")
	h3, err := cfg.ConfigHash()
	if err != nil {
		t.Fatalf("ConfigHash() error = %v", err)
	}
	if h1 == h3 {
		t.Error("ConfigHash() did not change when ignore list changed")
	}
}
