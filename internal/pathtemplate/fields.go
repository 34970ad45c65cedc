package pathtemplate

import (
	"strconv"

	"github.com/azuline/rose-sub000/internal/genre"
	"github.com/azuline/rose-sub000/internal/model"
)

// ReleaseFields builds the template vocabulary for a release directory
// name, including the derived parent_genres/parent_secondary_genres
// fields (spec.md section 4.4).
func ReleaseFields(r *model.Release) Fields {
	return Fields{
		"id":              r.ID,
		"title":           r.Title,
		"releasetype":     r.ReleaseType,
		"releasedate":     r.ReleaseDate,
		"originaldate":    r.OriginalDate,
		"compositiondate": r.CompositionDate,
		"catalognumber":   r.CatalogNumber,
		"edition":         r.Edition,
		"new":             r.New,
		"disctotal":       strconv.Itoa(r.DiscTotal),
		"releaseartists":  r.ReleaseArtists,
		"genres":          r.Genres,
		"secondarygenres": r.SecondaryGenres,
		"parent_genres":           parentsOfAll(r.Genres),
		"parent_secondary_genres": parentsOfAll(r.SecondaryGenres),
		"descriptors":             r.Descriptors,
		"labels":                  r.Labels,
	}
}

// TrackFields builds the template vocabulary for a track file name,
// layering the owning release's fields beneath the track's own so a
// track template can reference "{title}" (track) and "{releasedate}"
// (release) in the same expression.
func TrackFields(t *model.Track, r *model.Release) Fields {
	f := ReleaseFields(r)
	f["releasetitle"] = r.Title
	f["id"] = t.ID
	f["title"] = t.Title
	f["tracknumber"] = t.TrackNumber
	f["discnumber"] = t.DiscNumber
	f["tracktotal"] = "" // caller overwrites once sibling tracks are known
	f["trackartists"] = t.TrackArtists
	return f
}

// WithTrackTotal returns a copy of f with "tracktotal" set, for callers
// that already have the full release track list.
func WithTrackTotal(f Fields, tracktotal int) Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out["tracktotal"] = strconv.Itoa(tracktotal)
	return out
}

func parentsOfAll(genres []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range genres {
		for _, p := range genre.ParentsOf(g) {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
