package genre

// parentTable is a vendored parent/child genre table, keyed by lowercased
// genre name, mapping to the display-cased names of its immediate parents.
// Modeled on the album/track note-type var tables in internal/rename —
// a small static lookup rather than a database, since the hierarchy never
// changes at runtime.
var parentTable = map[string][]string{
	"dance-pop":          {"Pop"},
	"synth-pop":          {"Pop"},
	"indie pop":          {"Pop"},
	"k-pop":              {"Pop"},
	"j-pop":              {"Pop"},
	"pop":                {"Popular Music"},
	"contemporary r&b":   {"R&B"},
	"neo soul":           {"R&B"},
	"r&b":                {"Popular Music"},
	"trap":               {"Hip Hop"},
	"boom bap":           {"Hip Hop"},
	"conscious hip hop":  {"Hip Hop"},
	"hip hop":            {"Popular Music"},
	"deep house":         {"House"},
	"tech house":         {"House"},
	"progressive house":  {"House"},
	"house":              {"Electronic"},
	"techno":             {"Electronic"},
	"drum and bass":      {"Electronic"},
	"ambient":            {"Electronic"},
	"idm":                {"Electronic"},
	"electronic":         {"Popular Music"},
	"post-punk":          {"Punk"},
	"hardcore punk":      {"Punk"},
	"pop punk":           {"Punk", "Pop"},
	"punk":               {"Rock"},
	"indie rock":         {"Rock"},
	"alternative rock":   {"Rock"},
	"shoegaze":           {"Alternative Rock"},
	"post-rock":          {"Alternative Rock"},
	"rock":               {"Popular Music"},
	"bebop":              {"Jazz"},
	"free jazz":          {"Jazz"},
	"jazz fusion":        {"Jazz"},
	"jazz":               {"Popular Music"},
	"country pop":        {"Country", "Pop"},
	"country":            {"Popular Music"},
	"popular music":      nil,
	"classical":          nil,
	"baroque":            {"Classical"},
	"romantic":           {"Classical"},
	"folk":               {"Popular Music"},
	"singer-songwriter":  {"Folk"},
	"metal":              {"Rock"},
	"heavy metal":        {"Metal"},
	"black metal":        {"Metal"},
	"death metal":        {"Metal"},
}
