package scan

import (
	"path/filepath"
	"strings"

	"github.com/azuline/rose-sub000/internal/config"
)

// findCoverArt implements spec.md §4.6.3 step 6: the cover is the
// first directory entry (already lexically sorted by listReleaseFiles)
// whose stem is in the configured stem set (case-insensitive) and whose
// extension is in the configured extension set.
func findCoverArt(dir string, otherFiles []string, cfg config.CoverArtConfig) string {
	stems := make(map[string]bool, len(cfg.Stems))
	for _, s := range cfg.Stems {
		stems[strings.ToLower(s)] = true
	}
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	for _, name := range otherFiles {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		if stems[stem] && exts[ext] {
			return filepath.Join(dir, name)
		}
	}
	return ""
}
