package rules

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/azuline/rose-sub000/internal/cache"
	"github.com/azuline/rose-sub000/internal/config"
	"github.com/azuline/rose-sub000/internal/model"
)

// Candidate is one track that survived the exact re-filter (spec.md
// §4.7.3 steps 1-3): the full cached track and its owning release,
// plus the two match-only aggregates (tracktotal/disctotal) computed
// over the release's full track list.
type Candidate struct {
	Track      *model.Track
	Release    *model.Release
	DiscTotal  int
	TrackTotal int
}

// Plan implements spec.md §4.7.3 steps 1-3: an FTS fast-path search
// over tracks_fts narrows the candidate set the way internal/cache's
// SearchTracks already does for the rest of the tool, an exact
// re-filter in Go re-evaluates the matcher's anchors/case-sensitivity
// against the full cached row (FTS's trigram tokenizer can't honor
// either), and the ignore filter drops anything under a release
// directory the synchronizer itself would skip.
func Plan(c *cache.Cache, cfg *config.Config, m Matcher) ([]Candidate, error) {
	matches, err := c.SearchTracks(ftsSeed(m))
	if err != nil {
		return nil, err
	}

	releases := map[string]*model.Release{}
	tracksOf := map[string][]*model.Track{}

	var out []Candidate
	for _, tm := range matches {
		release, ok := releases[tm.ReleaseID]
		if !ok {
			release, err = c.Release(tm.ReleaseID)
			if err != nil {
				return nil, err
			}
			releases[tm.ReleaseID] = release
		}
		if release == nil || isIgnoredRelease(release, cfg) {
			continue
		}

		tracks, ok := tracksOf[tm.ReleaseID]
		if !ok {
			tracks, err = c.TracksOfRelease(tm.ReleaseID)
			if err != nil {
				return nil, err
			}
			tracksOf[tm.ReleaseID] = tracks
		}

		var track *model.Track
		for _, t := range tracks {
			if t.ID == tm.TrackID {
				track = t
				break
			}
		}
		if track == nil {
			continue
		}

		discTotal := model.DiscTotal(tracks)
		trackTotal := model.TrackTotal(tracks, track.DiscNumber)
		if !matcherMatchesCached(m, track, release, discTotal, trackTotal) {
			continue
		}

		out = append(out, Candidate{Track: track, Release: release, DiscTotal: discTotal, TrackTotal: trackTotal})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Track.SourcePath < out[j].Track.SourcePath })
	return out, nil
}

// ftsSeed extracts the literal substring the FTS fast-path searches
// for. A pattern anchored at both ends is still a valid substring
// search; an empty pattern (a bare tag-existence matcher) falls back
// to SearchTracks's unfiltered listing.
func ftsSeed(m Matcher) string {
	return strings.TrimSpace(m.Pattern)
}

// matcherMatchesCached re-evaluates m against the cached row exactly,
// the way plan.go's in-Go re-filter always has final say over FTS's
// coarse trigram pass.
func matcherMatchesCached(m Matcher, track *model.Track, release *model.Release, discTotal, trackTotal int) bool {
	for _, tag := range m.Tags {
		for _, fr := range tag.Expand() {
			for _, v := range getCachedValue(fr, track, release, discTotal, trackTotal) {
				if matchValue(m, v) {
					return true
				}
			}
		}
	}
	return false
}

// getCachedValue mirrors actions.go's getField but reads from the
// cache's already-hydrated model.Track/model.Release rather than a
// freshly re-read AudioTags, and additionally understands the two
// match-only aggregates no single track file carries on its own.
func getCachedValue(fr FieldRef, track *model.Track, release *model.Release, discTotal, trackTotal int) []string {
	switch fr.Name {
	case "tracktitle":
		return single(track.Title)
	case "releasetitle":
		return single(release.Title)
	case "releasetype":
		return single(string(release.ReleaseType))
	case "releasedate":
		return single(release.ReleaseDate)
	case "originaldate":
		return single(release.OriginalDate)
	case "compositiondate":
		return single(release.CompositionDate)
	case "catalognumber":
		return single(release.CatalogNumber)
	case "edition":
		return single(release.Edition)
	case "tracknumber":
		return single(track.TrackNumber)
	case "discnumber":
		return single(track.DiscNumber)
	case "tracktotal":
		return single(intString(trackTotal))
	case "disctotal":
		return single(intString(discTotal))
	case "genre":
		return release.Genres
	case "secondarygenre":
		return release.SecondaryGenres
	case "descriptor":
		return release.Descriptors
	case "label":
		return release.Labels
	case "trackartist":
		return track.TrackArtists.ByRole(roleOf(fr))
	case "releaseartist":
		return release.ReleaseArtists.ByRole(roleOf(fr))
	default:
		return nil
	}
}

func roleOf(fr FieldRef) (role model.ArtistRole) {
	return model.ArtistRole(fr.Role)
}

// isIgnoredRelease reports whether release's directory basename
// matches one of the configured ignore patterns as a filepath.Match
// glob (spec.md §4.6.3 "Input"). internal/scan's resolveDirs compares
// the same Config.Ignore entries by exact name instead, so a pattern
// with glob characters excludes releases here but not from a scan.
func isIgnoredRelease(release *model.Release, cfg *config.Config) bool {
	base := filepath.Base(release.SourcePath)
	for _, pattern := range cfg.Ignore {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}
