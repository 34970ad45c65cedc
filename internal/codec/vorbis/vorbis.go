// Package vorbis implements codec.Codec for Ogg Vorbis/Opus files via
// go.senan.xyz/taglib, generalizing internal/tags/write_opus.go (and the
// taglib read path shared with internal/tags/read_m4a.go) from the
// teacher's flat Tag struct to the spec's role-tagged AudioTags.
package vorbis

import (
	"fmt"

	"go.senan.xyz/taglib"

	"github.com/azuline/rose-sub000/internal/codec"
	"github.com/azuline/rose-sub000/internal/model"
)

func init() {
	codec.Register(".ogg", func() codec.Codec { return Codec{} })
	codec.Register(".opus", func() codec.Codec { return Codec{} })
}

const (
	keySecondaryGenre = "SECONDARYGENRE"
	keyDescriptor     = "DESCRIPTOR"
	keyCatalogNumber  = "CATALOGNUMBER"
	keyEdition        = "EDITION"
	keyReleaseID      = "ROSERELEASEID"
	keyTrackID        = "ROSEID"
	keyConductor      = "CONDUCTOR"
)

// Codec is the Vorbis-comment implementation of codec.Codec.
type Codec struct{}

func get(tags map[string][]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := tags[k]; ok && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func (Codec) Read(path string) (*codec.AudioTags, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("vorbis: read %s: %w", path, err)
	}

	t := &codec.AudioTags{
		ReleaseTitle:  get(raw, taglib.Album),
		ReleaseDate:   get(raw, taglib.Date, "year"),
		OriginalDate:  get(raw, taglib.OriginalDate),
		CatalogNumber: get(raw, keyCatalogNumber),
		Edition:       get(raw, keyEdition),
		Title:         get(raw, taglib.Title),
		TrackNumber:   get(raw, taglib.TrackNumber),
		DiscNumber:    get(raw, taglib.DiscNumber),

		ReleaseType: model.NormalizeReleaseType(get(raw, "releasetype")),

		Genres:          codec.SplitMultiValue(get(raw, taglib.Genre)),
		SecondaryGenres: codec.SplitMultiValue(get(raw, keySecondaryGenre)),
		Labels:          codec.SplitMultiValue(get(raw, "organization", "label", "recordlabel")),
		Descriptors:     codec.SplitMultiValue(get(raw, keyDescriptor)),

		ReleaseID: get(raw, "rosereleaseid"),
		TrackID:   get(raw, "roseid"),
	}

	t.ReleaseArtists = codec.ParseArtistString(get(raw, taglib.AlbumArtist))
	t.TrackArtists = codec.ParseArtistString(get(raw, taglib.Artist))
	if conductor := get(raw, keyConductor); conductor != "" {
		t.TrackArtists.Conductor = []string{conductor}
	}

	return t, nil
}

func (Codec) Write(path string, t *codec.AudioTags) error {
	tags := map[string][]string{}
	set := func(key, value string) {
		if value != "" {
			tags[key] = []string{value}
		}
	}

	set(taglib.Artist, codec.FormatArtistString(t.TrackArtists))
	set(taglib.AlbumArtist, codec.FormatArtistString(t.ReleaseArtists))
	set(taglib.Album, t.ReleaseTitle)
	set(taglib.Title, t.Title)
	set(taglib.Genre, codec.JoinMultiValue(t.Genres))
	set(taglib.TrackNumber, t.TrackNumber)
	set(taglib.DiscNumber, t.DiscNumber)
	set(taglib.Date, t.ReleaseDate)
	set(taglib.OriginalDate, t.OriginalDate)
	set("releasetype", string(t.ReleaseType))
	set(keySecondaryGenre, codec.JoinMultiValue(t.SecondaryGenres))
	set("organization", codec.JoinMultiValue(t.Labels))
	set(keyDescriptor, codec.JoinMultiValue(t.Descriptors))
	set(keyCatalogNumber, t.CatalogNumber)
	set(keyEdition, t.Edition)
	set("rosereleaseid", t.ReleaseID)
	set("roseid", t.TrackID)
	if len(t.TrackArtists.Conductor) > 0 {
		set(keyConductor, t.TrackArtists.Conductor[0])
	}

	if err := taglib.WriteTags(path, tags, taglib.Clear); err != nil {
		return fmt.Errorf("vorbis: write tags %s: %w", path, err)
	}
	if len(t.CoverArt) > 0 {
		if err := taglib.WriteImage(path, t.CoverArt); err != nil {
			return fmt.Errorf("vorbis: write cover art %s: %w", path, err)
		}
	}
	return nil
}
