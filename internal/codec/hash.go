package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// canonicalTags is the JSON-stable projection of AudioTags hashed by
// Metahash: normalized-schema fields only (not CoverArt, which is large
// and orthogonal to tag dirtiness), with slice fields sorted so that
// reordering a set-semantics field doesn't change the hash.
type canonicalTags struct {
	Title           string   `json:"title"`
	ReleaseTitle    string   `json:"release_title"`
	ReleaseType     string   `json:"release_type"`
	ReleaseDate     string   `json:"release_date"`
	OriginalDate    string   `json:"original_date"`
	CompositionDate string   `json:"composition_date"`
	CatalogNumber   string   `json:"catalog_number"`
	Edition         string   `json:"edition"`
	TrackNumber     string   `json:"track_number"`
	DiscNumber      string   `json:"disc_number"`
	TrackArtist     string   `json:"track_artist"`
	ReleaseArtist   string   `json:"release_artist"`
	Genres          []string `json:"genres"`
	SecondaryGenres []string `json:"secondary_genres"`
	Descriptors     []string `json:"descriptors"`
	Labels          []string `json:"labels"`
}

// Dump produces the canonical JSON encoding of tags used by Metahash.
func Dump(tags *AudioTags) ([]byte, error) {
	c := canonicalTags{
		Title:           tags.Title,
		ReleaseTitle:    tags.ReleaseTitle,
		ReleaseType:     string(tags.ReleaseType),
		ReleaseDate:     tags.ReleaseDate,
		OriginalDate:    tags.OriginalDate,
		CompositionDate: tags.CompositionDate,
		CatalogNumber:   tags.CatalogNumber,
		Edition:         tags.Edition,
		TrackNumber:     tags.TrackNumber,
		DiscNumber:      tags.DiscNumber,
		TrackArtist:     FormatArtistString(tags.TrackArtists),
		ReleaseArtist:   FormatArtistString(tags.ReleaseArtists),
		Genres:          sortedCopy(tags.Genres),
		SecondaryGenres: sortedCopy(tags.SecondaryGenres),
		Descriptors:     sortedCopy(tags.Descriptors),
		Labels:          sortedCopy(tags.Labels),
	}
	return json.Marshal(c)
}

// Metahash is a stable hash of a track's or release's normalized tag
// content, used for fast dirty detection (spec.md section 3) — the same
// shape the teacher uses source_mtime for, extended here to a full
// content hash so in-place tag edits are detected even when mtime is
// unreliable (e.g. after a filesystem copy that preserves mtimes).
func Metahash(tags *AudioTags) (string, error) {
	b, err := Dump(tags)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func sortedCopy(values []string) []string {
	if values == nil {
		return nil
	}
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
