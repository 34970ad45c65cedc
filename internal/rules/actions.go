package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/azuline/rose-sub000/internal/codec"
	"github.com/azuline/rose-sub000/internal/model"
	"github.com/azuline/rose-sub000/internal/strset"
)

// getField reads fr's current value(s) out of a single track file's
// tags, the same AudioTags record internal/scan's readTracks reads
// every pass.
func getField(fr FieldRef, tags *codec.AudioTags) []string {
	switch fr.Name {
	case "tracktitle":
		return single(tags.Title)
	case "releasetitle":
		return single(tags.ReleaseTitle)
	case "releasetype":
		return single(string(tags.ReleaseType))
	case "releasedate":
		return single(tags.ReleaseDate)
	case "originaldate":
		return single(tags.OriginalDate)
	case "compositiondate":
		return single(tags.CompositionDate)
	case "catalognumber":
		return single(tags.CatalogNumber)
	case "edition":
		return single(tags.Edition)
	case "tracknumber":
		return single(tags.TrackNumber)
	case "discnumber":
		return single(tags.DiscNumber)
	case "genre":
		return tags.Genres
	case "secondarygenre":
		return tags.SecondaryGenres
	case "descriptor":
		return tags.Descriptors
	case "label":
		return tags.Labels
	case "trackartist":
		return tags.TrackArtists.ByRole(model.ArtistRole(fr.Role))
	case "releaseartist":
		return tags.ReleaseArtists.ByRole(model.ArtistRole(fr.Role))
	default:
		return nil
	}
}

// setField writes values back into a single track file's tags for fr,
// collapsing to a lone string for single-value fields (the caller is
// responsible for having produced at most one value in that case).
func setField(fr FieldRef, tags *codec.AudioTags, values []string) {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	switch fr.Name {
	case "tracktitle":
		tags.Title = first
	case "releasetitle":
		tags.ReleaseTitle = first
	case "releasetype":
		tags.ReleaseType = model.NormalizeReleaseType(first)
	case "releasedate":
		tags.ReleaseDate = first
	case "originaldate":
		tags.OriginalDate = first
	case "compositiondate":
		tags.CompositionDate = first
	case "catalognumber":
		tags.CatalogNumber = first
	case "edition":
		tags.Edition = first
	case "tracknumber":
		tags.TrackNumber = first
	case "discnumber":
		tags.DiscNumber = first
	case "genre":
		tags.Genres = values
	case "secondarygenre":
		tags.SecondaryGenres = values
	case "descriptor":
		tags.Descriptors = values
	case "label":
		tags.Labels = values
	case "trackartist":
		tags.TrackArtists.SetRole(model.ArtistRole(fr.Role), values)
	case "releaseartist":
		tags.ReleaseArtists.SetRole(model.ArtistRole(fr.Role), values)
	}
}

func single(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// applyAction runs one action against one concrete field of one
// track's tags (spec.md §4.7.3 step 4's "preview computation"): it
// returns the field's full new value list and whether anything
// actually changed. The match-only aggregates (discTotal/trackTotal)
// are accepted but not read here; matching on tracktotal/disctotal
// happens in Plan's matcherMatchesCached before any action runs.
func applyAction(fr FieldRef, action Action, m Matcher, tags *codec.AudioTags, discTotal, trackTotal int) (after []string, changed bool, err error) {
	meta := fr.Meta()
	before := getField(fr, tags)

	switch action.Kind {
	case ActionAdd:
		next := append(append([]string{}, before...), action.Args[0])
		next = strset.Dedup(next)
		return next, !equalValues(before, next), nil

	case ActionDelete:
		var next []string
		for _, v := range before {
			if matchValue(m, v) {
				continue
			}
			next = append(next, v)
		}
		return next, !equalValues(before, next), nil

	case ActionReplace:
		var next []string
		for _, v := range before {
			if !matchValue(m, v) {
				next = append(next, v)
				continue
			}
			next = append(next, expandReplacement(action.Args[0], meta.MultiValue)...)
		}
		if meta.MultiValue {
			next = strset.Dedup(next)
		}
		return next, !equalValues(before, next), nil

	case ActionSed:
		re, reErr := regexp.Compile(action.Args[0])
		if reErr != nil {
			return nil, false, fmt.Errorf("rules: sed pattern %q: %w", action.Args[0], reErr)
		}
		var next []string
		for _, v := range before {
			if !matchValue(m, v) {
				next = append(next, v)
				continue
			}
			next = append(next, re.ReplaceAllString(v, action.Args[1]))
		}
		if meta.MultiValue {
			next = strset.Dedup(next)
		}
		return next, !equalValues(before, next), nil

	case ActionSplit:
		var next []string
		for _, v := range before {
			if !matchValue(m, v) {
				next = append(next, v)
				continue
			}
			for _, part := range strings.Split(v, action.Args[0]) {
				next = append(next, part)
			}
		}
		next = strset.Dedup(next)
		return next, !equalValues(before, next), nil

	default:
		return nil, false, fmt.Errorf("rules: unhandled action kind %q", action.Kind)
	}
}

// expandReplacement implements spec.md §4.7.3's "a replacement
// containing ';' expands to multiple values" for multi-value tags;
// single-value tags never split on ';'.
func expandReplacement(replacement string, multiValue bool) []string {
	if !multiValue || !strings.Contains(replacement, ";") {
		return []string{replacement}
	}
	var out []string
	for _, part := range strings.Split(replacement, ";") {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func equalValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
