package pathtemplate

import (
	"fmt"
	"strings"

	"github.com/azuline/rose-sub000/internal/model"
)

// filterFunc transforms a resolved field value into another value. The
// last filter in a placeholder's chain is expected to settle on a string;
// the last filter in a {for} source is expected to settle on []string.
type filterFunc func(v any) (any, error)

var filters = map[string]filterFunc{
	"artistsfmt":      filterArtistsFmt,
	"artistsarrayfmt": filterArtistsArrayFmt,
	"arrayfmt":        filterArrayFmt,
	"releasetypefmt":  filterReleaseTypeFmt,
	"sortorder":       filterSortOrder,
	"lastname":        filterLastName,
}

func asArtistMapping(v any) (model.ArtistMapping, error) {
	switch a := v.(type) {
	case model.ArtistMapping:
		return a, nil
	case *model.ArtistMapping:
		return *a, nil
	default:
		return model.ArtistMapping{}, fmt.Errorf("pathtemplate: expected ArtistMapping, got %T", v)
	}
}

// filterArtistsFmt renders the canonical artist-tag grammar (spec.md
// section 4.2): composer ' performed by ', djmixer ' pres. ', main,
// ' feat. ' guest, ' remixed by ' remixer, ' produced by ' producer.
func filterArtistsFmt(v any) (any, error) {
	a, err := asArtistMapping(v)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	if len(a.Composer) > 0 {
		b.WriteString(joinNames(a.Composer))
		b.WriteString(" performed by ")
	}
	if len(a.DJMixer) > 0 {
		b.WriteString(joinNames(a.DJMixer))
		b.WriteString(" pres. ")
	}
	b.WriteString(joinNames(a.Main))
	if len(a.Guest) > 0 {
		b.WriteString(" feat. ")
		b.WriteString(joinNames(a.Guest))
	}
	if len(a.Remixer) > 0 {
		b.WriteString(" remixed by ")
		b.WriteString(joinNames(a.Remixer))
	}
	if len(a.Producer) > 0 {
		b.WriteString(" produced by ")
		b.WriteString(joinNames(a.Producer))
	}
	return b.String(), nil
}

func joinNames(names []string) string {
	return strings.Join(names, "; ")
}

// filterArtistsArrayFmt flattens an ArtistMapping to its ordered credit
// names (no role markup), for use as a {for} loop source.
func filterArtistsArrayFmt(v any) (any, error) {
	a, err := asArtistMapping(v)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range a.Credits() {
		out = append(out, c.Name)
	}
	return out, nil
}

// filterArrayFmt joins a string sequence as "x, y & z" (Oxford-less,
// final element joined with "&").
func filterArrayFmt(v any) (any, error) {
	vals, err := asStringSlice(v)
	if err != nil {
		return nil, err
	}
	return joinOxford(vals), nil
}

func joinOxford(vals []string) string {
	switch len(vals) {
	case 0:
		return ""
	case 1:
		return vals[0]
	case 2:
		return vals[0] + " & " + vals[1]
	default:
		return strings.Join(vals[:len(vals)-1], ", ") + " & " + vals[len(vals)-1]
	}
}

func asStringSlice(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case string:
		return []string{s}, nil
	default:
		return nil, fmt.Errorf("pathtemplate: expected a string sequence, got %T", v)
	}
}

// filterReleaseTypeFmt capitalizes a release-type enum value for display
// ("soundtrack" -> "Soundtrack", "djmix" -> "DJ-Mix").
func filterReleaseTypeFmt(v any) (any, error) {
	var s string
	switch t := v.(type) {
	case model.ReleaseType:
		s = string(t)
	case string:
		s = t
	default:
		return nil, fmt.Errorf("pathtemplate: expected a release type, got %T", v)
	}
	switch s {
	case "djmix":
		return "DJ-Mix", nil
	case "ep":
		return "EP", nil
	case "":
		return "", nil
	default:
		return strings.ToUpper(s[:1]) + s[1:], nil
	}
}

// filterSortOrder converts "First Middle Last" to "Last, First Middle".
func filterSortOrder(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("pathtemplate: expected a string, got %T", v)
	}
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return s, nil
	}
	last := fields[len(fields)-1]
	rest := strings.Join(fields[:len(fields)-1], " ")
	return last + ", " + rest, nil
}

// filterLastName returns the final whitespace-separated token of s.
func filterLastName(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("pathtemplate: expected a string, got %T", v)
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[len(fields)-1], nil
}
