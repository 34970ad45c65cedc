// Package id3 implements the codec.Codec interface for MP3 files via
// ID3v2 frames, generalizing internal/tags/read_mp3.go and
// internal/tags/write_mp3.go from the teacher's flat Tag struct to the
// spec's role-tagged AudioTags.
package id3

import (
	"errors"
	"fmt"
	"os"

	"github.com/bogem/id3v2/v2"

	"github.com/azuline/rose-sub000/internal/codec"
	"github.com/azuline/rose-sub000/internal/model"
)

func init() {
	codec.Register(".mp3", func() codec.Codec { return Codec{} })
}

// Codec is the ID3v2 implementation of codec.Codec.
type Codec struct{}

const (
	frameReleaseType   = "RELEASETYPE"
	frameRoseReleaseID = "ROSERELEASEID"
	frameRoseID        = "ROSEID"
)

func (Codec) Read(path string) (*codec.AudioTags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("id3: open %s: %w", path, err)
	}
	defer tag.Close()

	t := &codec.AudioTags{
		Title:        textFrame(tag, "TIT2"),
		ReleaseTitle: tag.Album(),
		ReleaseDate:  firstNonEmpty(textFrame(tag, "TDRC"), textFrame(tag, "TYER")),
		OriginalDate: textFrame(tag, "TDOR"),
		TrackNumber:  firstNumberComponent(textFrame(tag, "TRCK")),
		DiscNumber:   firstNumberComponent(textFrame(tag, "TPOS")),
		Edition:      txxxFrame(tag, "EDITION"),

		ReleaseType: model.NormalizeReleaseType(txxxFrame(tag, frameReleaseType)),

		Genres:          codec.SplitMultiValue(tag.Genre()),
		SecondaryGenres: codec.SplitMultiValue(txxxFrame(tag, "SECONDARYGENRE")),
		Labels:          codec.SplitMultiValue(firstNonEmpty(textFrame(tag, "TPUB"), txxxFrame(tag, "LABEL"))),
		Descriptors:     codec.SplitMultiValue(txxxFrame(tag, "DESCRIPTOR")),
		CatalogNumber:   txxxFrame(tag, "CATALOGNUMBER"),

		ReleaseID: txxxFrame(tag, frameRoseReleaseID),
		TrackID:   txxxFrame(tag, frameRoseID),
	}

	t.TrackArtists = codec.ParseArtistString(textFrame(tag, "TPE1"))
	t.TrackArtists.Conductor = splitConductor(textFrame(tag, "TPE3"))
	t.ReleaseArtists = codec.ParseArtistString(tag.Artist())
	if t.ReleaseArtists.Main == nil {
		t.ReleaseArtists = codec.ParseArtistString(textFrame(tag, "TPE2"))
	}

	if pics := tag.GetFrames(tag.CommonID("Attached picture")); len(pics) > 0 {
		if pic, ok := pics[0].(id3v2.PictureFrame); ok {
			t.CoverArt = pic.Picture
			t.CoverArtMIME = pic.MimeType
		}
	}

	return t, nil
}

func (Codec) Write(path string, t *codec.AudioTags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		if stripErr := stripTag(path); stripErr != nil {
			return fmt.Errorf("id3: strip unsupported tag: %w", stripErr)
		}
		tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	}
	if err != nil {
		return fmt.Errorf("id3: open %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.DeleteAllFrames()

	tag.SetTitle(t.Title)
	tag.SetAlbum(t.ReleaseTitle)
	tag.SetGenre(codec.JoinMultiValue(t.Genres))
	tag.SetArtist(codec.FormatArtistString(t.ReleaseArtists))

	setText(tag, "TIT2", t.Title)
	setText(tag, "TPE1", codec.FormatArtistString(t.TrackArtists))
	setText(tag, "TPE2", codec.FormatArtistString(t.ReleaseArtists))
	if len(t.TrackArtists.Conductor) > 0 {
		setText(tag, "TPE3", joinConductor(t.TrackArtists.Conductor))
	}
	setText(tag, "TDRC", t.ReleaseDate)
	setText(tag, "TDOR", t.OriginalDate)
	setText(tag, "TRCK", t.TrackNumber)
	setText(tag, "TPOS", t.DiscNumber)
	setText(tag, "TPUB", codec.JoinMultiValue(t.Labels))

	addTXXX(tag, frameReleaseType, string(t.ReleaseType))
	addTXXX(tag, "SECONDARYGENRE", codec.JoinMultiValue(t.SecondaryGenres))
	addTXXX(tag, "DESCRIPTOR", codec.JoinMultiValue(t.Descriptors))
	addTXXX(tag, "CATALOGNUMBER", t.CatalogNumber)
	addTXXX(tag, "EDITION", t.Edition)
	addTXXX(tag, frameRoseReleaseID, t.ReleaseID)
	addTXXX(tag, frameRoseID, t.TrackID)

	if len(t.CoverArt) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    t.CoverArtMIME,
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     t.CoverArt,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("id3: save %s: %w", path, err)
	}
	return nil
}

func setText(tag *id3v2.Tag, frameID, value string) {
	if value == "" {
		return
	}
	tag.AddTextFrame(frameID, id3v2.EncodingUTF8, value)
}

func addTXXX(tag *id3v2.Tag, description, value string) {
	if value == "" {
		return
	}
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: description,
		Value:       value,
	})
}

func textFrame(tag *id3v2.Tag, frameID string) string {
	frames := tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}

func txxxFrame(tag *id3v2.Tag, description string) string {
	for _, frame := range tag.GetFrames("TXXX") {
		if txxx, ok := frame.(id3v2.UserDefinedTextFrame); ok && txxx.Description == description {
			return txxx.Value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstNumberComponent retains only the first component of "n/total"
// track/disc number strings (spec.md section 4.2).
func firstNumberComponent(s string) string {
	for i, r := range s {
		if r == '/' {
			return s[:i]
		}
	}
	return s
}

func splitConductor(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func joinConductor(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// stripTag removes an unsupported (pre-2.3) ID3v2 header so a fresh one
// can be written, the same synchsafe-size parse the teacher's
// stripID3v2Tag performs in internal/tags/write_mp3.go.
func stripTag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if len(data) < 10 || string(data[:3]) != "ID3" {
		return nil
	}
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	tagSize := size + 10
	if data[5]&0x10 != 0 {
		tagSize += 10
	}
	if tagSize >= len(data) {
		return fmt.Errorf("ID3v2 tag size (%d) exceeds file size (%d)", tagSize, len(data))
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	return os.WriteFile(path, data[tagSize:], info.Mode())
}
