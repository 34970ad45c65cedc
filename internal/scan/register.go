package scan

// Blank imports trigger each format codec's package-level init(),
// registering it with internal/codec's registry. internal/scan (and
// cmd/rose) are the two consumers of codec.For, so each wires the
// registration once rather than leaving it to whichever package
// happens to import first.
import (
	_ "github.com/azuline/rose-sub000/internal/codec/flac"
	_ "github.com/azuline/rose-sub000/internal/codec/id3"
	_ "github.com/azuline/rose-sub000/internal/codec/mp4"
	_ "github.com/azuline/rose-sub000/internal/codec/vorbis"
)
