// Package model holds the normalized domain types shared by the codec,
// cache, rules engine, and VFS projector: the schema spec.md section 3
// describes as the single source of truth for releases and tracks.
package model

import "time"

// ArtistRole is one of the seven credit roles a name can hold on a
// release or track (spec.md section 3 / GLOSSARY ArtistMapping).
type ArtistRole string

const (
	RoleMain     ArtistRole = "main"
	RoleGuest    ArtistRole = "guest"
	RoleRemixer  ArtistRole = "remixer"
	RoleProducer ArtistRole = "producer"
	RoleComposer ArtistRole = "composer"
	RoleConductor ArtistRole = "conductor"
	RoleDJMixer  ArtistRole = "djmixer"
)

// roleOrder is the canonical formatting order used by the artist grammar
// (spec.md section 4.2): composer, djmixer, main, guest, remixer, producer.
// Conductor never appears in the formatted string; it rides its own frame.
var roleOrder = []ArtistRole{RoleComposer, RoleDJMixer, RoleMain, RoleGuest, RoleRemixer, RoleProducer}

// RoleOrder returns the canonical artist-string role ordering.
func RoleOrder() []ArtistRole {
	return roleOrder
}

// Credit is a single (name, role) pair within an ArtistMapping.
type Credit struct {
	Name string
	Role ArtistRole
}

// ArtistMapping is the 7-role view of an artist credit. Order within a
// role is preserved; a name may appear under more than one role.
type ArtistMapping struct {
	Main      []string
	Guest     []string
	Remixer   []string
	Producer  []string
	Composer  []string
	Conductor []string
	DJMixer   []string
}

// ByRole returns the name slice for the given role.
func (a *ArtistMapping) ByRole(role ArtistRole) []string {
	switch role {
	case RoleMain:
		return a.Main
	case RoleGuest:
		return a.Guest
	case RoleRemixer:
		return a.Remixer
	case RoleProducer:
		return a.Producer
	case RoleComposer:
		return a.Composer
	case RoleConductor:
		return a.Conductor
	case RoleDJMixer:
		return a.DJMixer
	}
	return nil
}

// SetRole replaces the name slice for the given role.
func (a *ArtistMapping) SetRole(role ArtistRole, names []string) {
	switch role {
	case RoleMain:
		a.Main = names
	case RoleGuest:
		a.Guest = names
	case RoleRemixer:
		a.Remixer = names
	case RoleProducer:
		a.Producer = names
	case RoleComposer:
		a.Composer = names
	case RoleConductor:
		a.Conductor = names
	case RoleDJMixer:
		a.DJMixer = names
	}
}

// Credits flattens the mapping into an ordered (name, role) sequence,
// role by role in RoleOrder() order plus conductor last. This is the
// shape the cache's link tables and the rules engine's tag vocabulary
// (trackartist/releaseartist/artist aliases) operate over.
func (a *ArtistMapping) Credits() []Credit {
	var out []Credit
	for _, role := range append(append([]ArtistRole{}, roleOrder...), RoleConductor) {
		for _, name := range a.ByRole(role) {
			out = append(out, Credit{Name: name, Role: role})
		}
	}
	return out
}

// IsEmpty reports whether the mapping has no credits in any role.
func (a *ArtistMapping) IsEmpty() bool {
	return len(a.Credits()) == 0
}

// ReleaseType enumerates the spec's fixed release-type vocabulary
// (spec.md section 3).
type ReleaseType string

const (
	ReleaseAlbum       ReleaseType = "album"
	ReleaseSingle      ReleaseType = "single"
	ReleaseEP          ReleaseType = "ep"
	ReleaseCompilation ReleaseType = "compilation"
	ReleaseAnthology   ReleaseType = "anthology"
	ReleaseSoundtrack  ReleaseType = "soundtrack"
	ReleaseLive        ReleaseType = "live"
	ReleaseRemix       ReleaseType = "remix"
	ReleaseDJMix       ReleaseType = "djmix"
	ReleaseMixtape     ReleaseType = "mixtape"
	ReleaseBootleg     ReleaseType = "bootleg"
	ReleaseDemo        ReleaseType = "demo"
	ReleaseOther       ReleaseType = "other"
	ReleaseUnknown     ReleaseType = "unknown"
)

var releaseTypes = map[ReleaseType]bool{
	ReleaseAlbum: true, ReleaseSingle: true, ReleaseEP: true, ReleaseCompilation: true,
	ReleaseAnthology: true, ReleaseSoundtrack: true, ReleaseLive: true, ReleaseRemix: true,
	ReleaseDJMix: true, ReleaseMixtape: true, ReleaseBootleg: true, ReleaseDemo: true,
	ReleaseOther: true, ReleaseUnknown: true,
}

// NormalizeReleaseType case-insensitively matches s against the enum,
// falling back to ReleaseUnknown (spec.md section 4.2).
func NormalizeReleaseType(s string) ReleaseType {
	rt := ReleaseType(toLowerASCII(s))
	if releaseTypes[rt] {
		return rt
	}
	return ReleaseUnknown
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Release is a directory immediately beneath the source root (spec.md
// section 3).
type Release struct {
	ID              string // UUID, stable across renames
	SourcePath      string
	Title           string
	ReleaseType     ReleaseType
	ReleaseDate     string // optional; year or ISO date
	OriginalDate    string
	CompositionDate string
	CatalogNumber   string
	Edition         string
	New             bool
	DiscTotal       int // derived: count of distinct discnumbers
	AddedAt         time.Time
	CoverArtPath    string
	Metahash        string

	ReleaseArtists  ArtistMapping
	Genres          []string
	SecondaryGenres []string
	Descriptors     []string
	Labels          []string
}

// Track is a supported audio file within a release.
type Track struct {
	ID              string // UUID, stable
	SourcePath      string
	SourceMtime     string
	Title           string
	ReleaseID       string
	TrackNumber     string
	DiscNumber      string
	DurationSeconds float64
	Metahash        string

	TrackArtists ArtistMapping
}

// TrackTotal computes the derived tracktotal for a disc: the count of
// tracks sharing discnumber among tracks. Never stored per-track
// (spec.md section 3).
func TrackTotal(tracks []*Track, discnumber string) int {
	n := 0
	for _, t := range tracks {
		if t.DiscNumber == discnumber {
			n++
		}
	}
	return n
}

// DiscTotal computes the derived disctotal for a release: the count of
// distinct discnumbers among tracks.
func DiscTotal(tracks []*Track) int {
	seen := make(map[string]bool)
	for _, t := range tracks {
		seen[t.DiscNumber] = true
	}
	return len(seen)
}
