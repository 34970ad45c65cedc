// Package mp4 implements codec.Codec for M4A/MP4 files: reads via
// go.senan.xyz/taglib (the teacher's fallback reader in
// internal/tags/read_m4a.go — more tolerant of ffmpeg-muxed atoms than a
// hand-rolled atom walker) and writes via Sorrow446/go-mp4tag (the
// teacher's internal/tags/write_m4a.go), generalized to the spec's
// role-tagged AudioTags.
package mp4

import (
	"fmt"
	"strconv"

	mp4tag "github.com/Sorrow446/go-mp4tag"
	"go.senan.xyz/taglib"

	"github.com/azuline/rose-sub000/internal/codec"
	"github.com/azuline/rose-sub000/internal/model"
)

func init() {
	codec.Register(".m4a", func() codec.Codec { return Codec{} })
	codec.Register(".mp4", func() codec.Codec { return Codec{} })
}

// Codec is the MP4/M4A implementation of codec.Codec.
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
		return nil, fmt.Errorf("mp4: read %s: %w", path, err)
	}

	t := &codec.AudioTags{
		ReleaseTitle:    get(raw, taglib.Album),
		ReleaseDate:     get(raw, taglib.Date, "©day"),
		OriginalDate:    get(raw, taglib.OriginalDate, "ORIGINALDATE"),
		CompositionDate: get(raw, "COMPOSITIONDATE"),
		CatalogNumber:   get(raw, taglib.CatalogNumber, "CATALOGNUMBER"),
		Edition:         get(raw, "EDITION"),
		Title:           get(raw, taglib.Title),
		TrackNumber:     firstComponent(get(raw, taglib.TrackNumber)),
		DiscNumber:      firstComponent(get(raw, taglib.DiscNumber)),

		ReleaseType: model.NormalizeReleaseType(get(raw, taglib.ReleaseType, "RELEASETYPE")),

		Genres:          codec.SplitMultiValue(get(raw, taglib.Genre)),
		SecondaryGenres: codec.SplitMultiValue(get(raw, "SECONDARYGENRE")),
		Labels:          codec.SplitMultiValue(get(raw, taglib.Label, "LABEL")),
		Descriptors:     codec.SplitMultiValue(get(raw, "DESCRIPTOR")),

		ReleaseID: get(raw, "net.sunsetglow.rose:RELEASEID", "RELEASEID"),
		TrackID:   get(raw, "net.sunsetglow.rose:ID", "ROSEID"),
	}

	t.ReleaseArtists = codec.ParseArtistString(get(raw, taglib.AlbumArtist))
	t.TrackArtists = codec.ParseArtistString(get(raw, taglib.Artist))
	if conductor := get(raw, "CONDUCTOR"); conductor != "" {
		t.TrackArtists.Conductor = []string{conductor}
	}

	return t, nil
}

func (Codec) Write(path string, t *codec.AudioTags) error {
	m, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("mp4: open %s: %w", path, err)
	}
	defer m.Close()

	custom := map[string]string{}
	addCustom := func(key, value string) {
		if value != "" {
			custom[key] = value
		}
	}
	addCustom("ORIGINALDATE", t.OriginalDate)
	addCustom("COMPOSITIONDATE", t.CompositionDate)
	addCustom("RELEASETYPE", string(t.ReleaseType))
	addCustom("SECONDARYGENRE", codec.JoinMultiValue(t.SecondaryGenres))
	addCustom("DESCRIPTOR", codec.JoinMultiValue(t.Descriptors))
	addCustom("CATALOGNUMBER", t.CatalogNumber)
	addCustom("EDITION", t.Edition)
	addCustom("net.sunsetglow.rose:RELEASEID", t.ReleaseID)
	addCustom("net.sunsetglow.rose:ID", t.TrackID)
	if len(t.TrackArtists.Conductor) > 0 {
		addCustom("CONDUCTOR", t.TrackArtists.Conductor[0])
	}

	trackNum, _ := strconv.Atoi(t.TrackNumber)
	discNum, _ := strconv.Atoi(t.DiscNumber)

	tags := &mp4tag.MP4Tags{
		Title:       t.Title,
		Artist:      codec.FormatArtistString(t.TrackArtists),
		Album:       t.ReleaseTitle,
		AlbumArtist: codec.FormatArtistString(t.ReleaseArtists),
		TrackNumber: safeInt16(trackNum),
		DiscNumber:  safeInt16(discNum),
		Date:        t.ReleaseDate,
		CustomGenre: codec.JoinMultiValue(t.Genres),
		Custom:      custom,
	}
	if t.Labels != nil {
		tags.Custom["LABEL"] = codec.JoinMultiValue(t.Labels)
	}
	if len(t.CoverArt) > 0 {
		tags.Pictures = []*mp4tag.MP4Picture{{Data: t.CoverArt}}
	}

	if err := m.Write(tags, nil); err != nil {
		return fmt.Errorf("mp4: write %s: %w", path, err)
	}
	return nil
}

func firstComponent(s string) string {
	for i, r := range s {
		if r == '/' {
			return s[:i]
		}
	}
	return s
}

func safeInt16(n int) int16 {
	if n > 32767 {
		return 32767
	}
	if n < -32768 {
		return -32768
	}
	return int16(n)
}
