// Package codec presents a single normalized AudioTags record for every
// supported audio format, dispatching to a per-format implementation by
// file extension (spec.md section 4.2). It generalizes the teacher's
// internal/tags package from a flat, single-artist-string Tag to the
// spec's role-tagged, UUID-carrying record.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/azuline/rose-sub000/internal/model"
)

// ErrUnsupportedFormat is returned by For when the extension has no
// registered codec.
var ErrUnsupportedFormat = errors.New("codec: unsupported format")

// AudioTags is the normalized tag record every format codec reads into
// and writes out of (spec.md section 4.2).
type AudioTags struct {
	Title           string
	ReleaseTitle    string
	ReleaseType     model.ReleaseType
	ReleaseDate     string
	OriginalDate    string
	CompositionDate string
	CatalogNumber   string
	Edition         string
	TrackNumber     string
	DiscNumber      string
	DurationSeconds float64

	TrackArtists   model.ArtistMapping
	ReleaseArtists model.ArtistMapping

	Genres          []string
	SecondaryGenres []string
	ParentGenres    []string // derived on read, never written
	Descriptors     []string
	Labels          []string

	ReleaseID string // UUID string, empty if unset
	TrackID   string // UUID string, empty if unset

	CoverArt     []byte
	CoverArtMIME string
}

// Codec reads and writes AudioTags for one audio container format.
type Codec interface {
	Read(path string) (*AudioTags, error)
	Write(path string, tags *AudioTags) error
}

// Factory constructs a Codec. The registry maps extensions to factories
// and is filled by each format subpackage's package-level init()
// calling Register; codec itself does not import those subpackages
// (they import codec for AudioTags), so a program must import them
// (internal/scan/register.go does) before For can find a format.
type Factory func() Codec

var registry = map[string]Factory{}

// Register associates a lowercase, dot-prefixed extension with a codec
// factory. Called from each format subpackage's package-level init.
func Register(ext string, f Factory) {
	registry[ext] = f
}

// For returns the codec responsible for path's extension.
func For(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return f(), nil
}

// IsSupported reports whether path's extension has a registered codec,
// the check internal/scan's directory walk uses to separate audio
// files from cover art and other sidecar files (spec.md §4.6.3 step 4).
func IsSupported(path string) bool {
	_, ok := registry[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Read dispatches to the codec for path's extension and reads its tags.
func Read(path string) (*AudioTags, error) {
	c, err := For(path)
	if err != nil {
		return nil, err
	}
	return c.Read(path)
}

// Write dispatches to the codec for path's extension and writes tags.
func Write(path string, tags *AudioTags) error {
	c, err := For(path)
	if err != nil {
		return err
	}
	return c.Write(path, tags)
}
