package codec

import (
	"strings"

	"github.com/azuline/rose-sub000/internal/model"
)

// Artist-tag grammar (spec.md section 4.2):
//
//	artist-tag := [composer ' performed by '] [djmixer ' pres. '] main
//	              [' feat. ' guest] [' remixed by ' remixer] [' produced by ' producer]
//	<name-list> := name (';' name)*
//
// Formatting always emits in this canonical order; parsing is greedy
// left-to-right against the fixed delimiter set. Conductor never appears
// in this string — it rides in its own tag frame.
const (
	markerPerformedBy = " performed by "
	markerPres        = " pres. "
	markerFeat        = " feat. "
	markerRemixedBy   = " remixed by "
	markerProducedBy  = " produced by "
)

// FormatArtistString renders an ArtistMapping's main/guest/remixer/
// producer/composer/djmixer roles as a single delimiter-driven string.
func FormatArtistString(a model.ArtistMapping) string {
	var b strings.Builder
	if len(a.Composer) > 0 {
		b.WriteString(joinNameList(a.Composer))
		b.WriteString(markerPerformedBy)
	}
	if len(a.DJMixer) > 0 {
		b.WriteString(joinNameList(a.DJMixer))
		b.WriteString(markerPres)
	}
	b.WriteString(joinNameList(a.Main))
	if len(a.Guest) > 0 {
		b.WriteString(markerFeat)
		b.WriteString(joinNameList(a.Guest))
	}
	if len(a.Remixer) > 0 {
		b.WriteString(markerRemixedBy)
		b.WriteString(joinNameList(a.Remixer))
	}
	if len(a.Producer) > 0 {
		b.WriteString(markerProducedBy)
		b.WriteString(joinNameList(a.Producer))
	}
	return b.String()
}

// ParseArtistString parses a single artist-tag string into an
// ArtistMapping, greedily matching markers left to right. Conductor is
// never populated here; callers read it from its own frame.
func ParseArtistString(s string) model.ArtistMapping {
	var am model.ArtistMapping

	rest := s
	if idx := strings.Index(rest, markerPerformedBy); idx >= 0 {
		am.Composer = splitNameList(rest[:idx])
		rest = rest[idx+len(markerPerformedBy):]
	}
	if idx := strings.Index(rest, markerPres); idx >= 0 {
		am.DJMixer = splitNameList(rest[:idx])
		rest = rest[idx+len(markerPres):]
	}

	type slot struct {
		marker string
		role   *[]string
	}
	slots := []slot{
		{markerFeat, &am.Guest},
		{markerRemixedBy, &am.Remixer},
		{markerProducedBy, &am.Producer},
	}

	mainEnd := len(rest)
	for _, s := range slots {
		if idx := strings.Index(rest, s.marker); idx >= 0 && idx < mainEnd {
			mainEnd = idx
		}
	}
	am.Main = splitNameList(rest[:mainEnd])
	cur := rest[mainEnd:]

	for len(slots) > 0 {
		bestIdx, bestSlot := -1, -1
		for i, s := range slots {
			if idx := strings.Index(cur, s.marker); idx >= 0 && (bestIdx == -1 || idx < bestIdx) {
				bestIdx, bestSlot = idx, i
			}
		}
		if bestSlot == -1 {
			break
		}
		marker := slots[bestSlot].marker
		afterMarker := cur[bestIdx+len(marker):]

		nextIdx := len(afterMarker)
		for i, s := range slots {
			if i == bestSlot {
				continue
			}
			if idx := strings.Index(afterMarker, s.marker); idx >= 0 && idx < nextIdx {
				nextIdx = idx
			}
		}
		*slots[bestSlot].role = splitNameList(afterMarker[:nextIdx])
		cur = afterMarker[nextIdx:]
		slots = append(slots[:bestSlot], slots[bestSlot+1:]...)
	}

	return am
}

func joinNameList(names []string) string {
	return strings.Join(names, ";")
}

func splitNameList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
