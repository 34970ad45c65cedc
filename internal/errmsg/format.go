// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Cache operations
	OpCacheOpen  Op = "open cache"
	OpCacheReset Op = "reset cache"

	// Scan operations
	OpScanRun       Op = "scan source directory"
	OpScanRelease   Op = "scan release"
	OpScanReconcile Op = "reconcile collages and playlists"

	// Datafile operations
	OpDatafileRead  Op = "read release datafile"
	OpDatafileWrite Op = "write release datafile"

	// Codec operations
	OpCodecRead  Op = "read audio tags"
	OpCodecWrite Op = "write audio tags"

	// Lock operations
	OpLockAcquire Op = "acquire lock"
	OpLockRelease Op = "release lock"

	// Rules engine operations
	OpRuleParse   Op = "parse rule"
	OpRulePreview Op = "preview rule"
	OpRuleApply   Op = "apply rule"
	OpRuleStored  Op = "run stored rules"

	// Collage/playlist operations
	OpCollageRead    Op = "read collage"
	OpCollageWrite   Op = "write collage"
	OpPlaylistRead   Op = "read playlist"
	OpPlaylistWrite  Op = "write playlist"

	// Virtual filesystem operations
	OpVFSListReleases Op = "list releases"
	OpVFSRename       Op = "rename release"
	OpVFSDelete       Op = "delete release"
	OpVFSSetCoverArt  Op = "set cover art"
	OpVFSAddToPlaylist Op = "add track to playlist"

	// Configuration
	OpConfigLoad     Op = "load configuration"
	OpConfigValidate Op = "validate configuration"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
