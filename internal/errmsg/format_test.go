//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpScanRun,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpScanRun,
			err:      errors.New("permission denied"),
			expected: "Failed to scan source directory: permission denied",
		},
		{
			name:     "cache open operation",
			op:       OpCacheOpen,
			err:      errors.New("disk full"),
			expected: "Failed to open cache: disk full",
		},
		{
			name:     "rule apply operation",
			op:       OpRuleApply,
			err:      errors.New("no matching tracks"),
			expected: "Failed to apply rule: no matching tracks",
		},
		{
			name:     "codec write operation",
			op:       OpCodecWrite,
			err:      errors.New("unsupported format"),
			expected: "Failed to write audio tags: unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpDatafileRead,
			context:  "R1",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpDatafileRead,
			context:  "R1",
			err:      errors.New("malformed toml"),
			expected: "Failed to read release datafile 'R1': malformed toml",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpDatafileRead,
			context:  "",
			err:      errors.New("malformed toml"),
			expected: "Failed to read release datafile: malformed toml",
		},
		{
			name:     "vfs rename with context",
			op:       OpVFSRename,
			context:  "R1",
			err:      errors.New("target exists"),
			expected: "Failed to rename release 'R1': target exists",
		},
		{
			name:     "lock acquire with context",
			op:       OpLockAcquire,
			context:  "release:abc",
			err:      errors.New("lock held"),
			expected: "Failed to acquire lock 'release:abc': lock held",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpCacheOpen, OpCacheReset,
		OpScanRun, OpScanRelease, OpScanReconcile,
		OpDatafileRead, OpDatafileWrite,
		OpCodecRead, OpCodecWrite,
		OpLockAcquire, OpLockRelease,
		OpRuleParse, OpRulePreview, OpRuleApply, OpRuleStored,
		OpCollageRead, OpCollageWrite, OpPlaylistRead, OpPlaylistWrite,
		OpVFSListReleases, OpVFSRename, OpVFSDelete, OpVFSSetCoverArt, OpVFSAddToPlaylist,
		OpConfigLoad, OpConfigValidate,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			result := Format(op, testErr)
			if result == "" {
				t.Error("Format should return non-empty string for non-nil error")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
