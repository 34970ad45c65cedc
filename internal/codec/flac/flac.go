// Package flac implements codec.Codec for FLAC files via Vorbis comments
// (go-flac/flacvorbis) and embedded pictures (go-flac/flacpicture),
// generalizing internal/tags/write_flac.go from the teacher's flat Tag
// struct to the spec's role-tagged AudioTags.
package flac

import (
	"fmt"

	goflac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"

	"github.com/azuline/rose-sub000/internal/codec"
	"github.com/azuline/rose-sub000/internal/model"
)

func init() {
	codec.Register(".flac", func() codec.Codec { return Codec{} })
}

const (
	keySecondaryGenre = "SECONDARYGENRE"
	keyDescriptor     = "DESCRIPTOR"
	keyReleaseID      = "ROSERELEASEID"
	keyTrackID        = "ROSEID"
	keyConductor      = "CONDUCTOR"
)

// Codec is the FLAC implementation of codec.Codec.
type Codec struct{}

func (Codec) Read(path string) (*codec.AudioTags, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("flac: parse %s: %w", path, err)
	}

	var cmt *flacvorbis.MetaDataBlockVorbisComment
	var pic *flacpicture.MetadataBlockPicture
	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			if c, err := flacvorbis.ParseFromMetaDataBlock(*meta); err == nil {
				cmt = c
			}
		case goflac.Picture:
			if p, err := flacpicture.ParseFromMetaDataBlock(*meta); err == nil {
				pic = p
			}
		}
	}
	if cmt == nil {
		cmt = flacvorbis.New()
	}

	t := &codec.AudioTags{
		ReleaseTitle:  first(cmt, "ALBUM"),
		ReleaseDate:   first(cmt, "DATE"),
		OriginalDate:  first(cmt, "ORIGINALDATE"),
		CatalogNumber: first(cmt, "CATALOGNUMBER"),
		Edition:       first(cmt, "EDITION"),
		Title:         first(cmt, "TITLE"),
		TrackNumber:   first(cmt, "TRACKNUMBER"),
		DiscNumber:    first(cmt, "DISCNUMBER"),

		ReleaseType: model.NormalizeReleaseType(first(cmt, "RELEASETYPE")),

		Genres:          codec.SplitMultiValue(first(cmt, "GENRE")),
		SecondaryGenres: codec.SplitMultiValue(first(cmt, keySecondaryGenre)),
		Labels:          codec.SplitMultiValue(first(cmt, "LABEL")),
		Descriptors:     codec.SplitMultiValue(first(cmt, keyDescriptor)),

		ReleaseID: first(cmt, keyReleaseID),
		TrackID:   first(cmt, keyTrackID),
	}

	t.ReleaseArtists = codec.ParseArtistString(first(cmt, "ALBUMARTIST"))
	t.TrackArtists = codec.ParseArtistString(first(cmt, "ARTIST"))
	if conductor := first(cmt, keyConductor); conductor != "" {
		t.TrackArtists.Conductor = []string{conductor}
	}

	if pic != nil {
		t.CoverArt = pic.ImageData
		t.CoverArtMIME = pic.MIME
	}

	return t, nil
}

func (Codec) Write(path string, t *codec.AudioTags) error {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("flac: parse %s: %w", path, err)
	}

	cmts := flacvorbis.New()
	add := func(key, value string) error {
		if value == "" {
			return nil
		}
		return cmts.Add(key, value)
	}

	if err := add("ARTIST", codec.FormatArtistString(t.TrackArtists)); err != nil {
		return fmt.Errorf("flac: add artist: %w", err)
	}
	if err := add("ALBUMARTIST", codec.FormatArtistString(t.ReleaseArtists)); err != nil {
		return fmt.Errorf("flac: add albumartist: %w", err)
	}
	if err := add("ALBUM", t.ReleaseTitle); err != nil {
		return fmt.Errorf("flac: add album: %w", err)
	}
	if err := add("TITLE", t.Title); err != nil {
		return fmt.Errorf("flac: add title: %w", err)
	}
	if err := add("GENRE", codec.JoinMultiValue(t.Genres)); err != nil {
		return fmt.Errorf("flac: add genre: %w", err)
	}
	if err := add("TRACKNUMBER", t.TrackNumber); err != nil {
		return fmt.Errorf("flac: add tracknumber: %w", err)
	}
	if err := add("DISCNUMBER", t.DiscNumber); err != nil {
		return fmt.Errorf("flac: add discnumber: %w", err)
	}
	if err := add("DATE", t.ReleaseDate); err != nil {
		return fmt.Errorf("flac: add date: %w", err)
	}
	if err := add("ORIGINALDATE", t.OriginalDate); err != nil {
		return fmt.Errorf("flac: add originaldate: %w", err)
	}
	if err := add("RELEASETYPE", string(t.ReleaseType)); err != nil {
		return fmt.Errorf("flac: add releasetype: %w", err)
	}
	if err := add(keySecondaryGenre, codec.JoinMultiValue(t.SecondaryGenres)); err != nil {
		return fmt.Errorf("flac: add secondarygenre: %w", err)
	}
	if err := add("LABEL", codec.JoinMultiValue(t.Labels)); err != nil {
		return fmt.Errorf("flac: add label: %w", err)
	}
	if err := add(keyDescriptor, codec.JoinMultiValue(t.Descriptors)); err != nil {
		return fmt.Errorf("flac: add descriptor: %w", err)
	}
	if err := add("CATALOGNUMBER", t.CatalogNumber); err != nil {
		return fmt.Errorf("flac: add catalognumber: %w", err)
	}
	if err := add("EDITION", t.Edition); err != nil {
		return fmt.Errorf("flac: add edition: %w", err)
	}
	if err := add(keyReleaseID, t.ReleaseID); err != nil {
		return fmt.Errorf("flac: add release id: %w", err)
	}
	if err := add(keyTrackID, t.TrackID); err != nil {
		return fmt.Errorf("flac: add track id: %w", err)
	}
	if len(t.TrackArtists.Conductor) > 0 {
		if err := add(keyConductor, t.TrackArtists.Conductor[0]); err != nil {
			return fmt.Errorf("flac: add conductor: %w", err)
		}
	}

	replaceMeta(f, goflac.VorbisComment, cmts.Marshal())

	if len(t.CoverArt) > 0 {
		pic, err := flacpicture.NewFromImageData(
			flacpicture.PictureTypeFrontCover, "Front Cover", t.CoverArt, t.CoverArtMIME,
		)
		if err != nil {
			return fmt.Errorf("flac: build picture: %w", err)
		}
		removeMeta(f, goflac.Picture)
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("flac: save %s: %w", path, err)
	}
	return nil
}

func first(cmt *flacvorbis.MetaDataBlockVorbisComment, key string) string {
	values, err := cmt.Get(key)
	if err != nil || len(values) == 0 {
		return ""
	}
	return values[0]
}

func replaceMeta(f *goflac.File, t goflac.MetaDataBlockType, block goflac.MetaDataBlock) {
	removeMeta(f, t)
	f.Meta = append(f.Meta, &block)
}

func removeMeta(f *goflac.File, t goflac.MetaDataBlockType) {
	kept := f.Meta[:0]
	for _, m := range f.Meta {
		if m.Type != t {
			kept = append(kept, m)
		}
	}
	f.Meta = kept
}
