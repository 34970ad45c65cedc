package codec

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// CoverArtConfig controls folder-fallback cover art discovery (the stem
// and extension sets are configurable; spec.md section 5 lists them
// among the fields that feed the cache-reset config hash).
type CoverArtConfig struct {
	Stems      []string // e.g. "cover", "folder", "album", "front"
	Extensions []string // e.g. ".jpg", ".jpeg", ".png"
}

// DefaultCoverArtConfig mirrors the teacher's hardcoded coverArtFilenames
// list in internal/tags/cover.go.
func DefaultCoverArtConfig() CoverArtConfig {
	return CoverArtConfig{
		Stems:      []string{"cover", "folder", "album", "front", "artwork"},
		Extensions: []string{".jpg", ".jpeg", ".png"},
	}
}

// ExtractCoverArt reads cover art for an audio file: first the embedded
// picture frame via dhowden/tag's generic reader, then a folder-image
// fallback using cfg's stem/extension sets. Generalizes
// internal/tags/cover.go's ExtractCoverArt from a fixed filename list to
// a configurable one.
func ExtractCoverArt(path string, cfg CoverArtConfig) (data []byte, mimeType string, err error) {
	if data, mimeType, err = extractEmbeddedArt(path); err != nil {
		return nil, "", err
	}
	if data != nil {
		return data, mimeType, nil
	}
	return findFolderArt(filepath.Dir(path), cfg)
}

func extractEmbeddedArt(path string) (data []byte, mimeType string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Probe failure here is not fatal — callers fall back to folder
		// art, the same behavior the teacher's ExtractCoverArt has when
		// dhowden/tag can't parse the container.
		return nil, "", nil
	}
	pic := m.Picture()
	if pic == nil {
		return nil, "", nil
	}
	return pic.Data, pic.MIMEType, nil
}

func findFolderArt(dir string, cfg CoverArtConfig) (data []byte, mimeType string, err error) {
	for _, stem := range cfg.Stems {
		for _, ext := range cfg.Extensions {
			for _, candidate := range []string{stem + ext, strings.ToUpper(stem) + ext} {
				imgPath := filepath.Join(dir, candidate)
				if b, readErr := os.ReadFile(imgPath); readErr == nil {
					return b, mimeTypeForExt(ext), nil
				}
			}
		}
	}
	return nil, "", nil
}

func mimeTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
