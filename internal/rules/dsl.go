// Package rules implements the Rules Engine (spec.md §4.7): a small
// matcher/action DSL for bulk-editing tags across the library, an
// FTS-backed search planner, and the preview/apply/refresh pipeline
// that drives it. The grammar is parsed by a hand-rolled recursive
// scanner in the style of internal/pathtemplate/parse.go's
// rune-by-rune segment walk — no parser library appears anywhere in
// the corpus for a comparable small DSL.
package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag is one parsed tag token from a matcher or action's tag list,
// e.g. "tracktitle" or "trackartist[main]". Role is empty for every
// tag except the artist aliases, which carry an optional explicit
// role and otherwise expand to every role on Expand.
type Tag struct {
	Name string
	Role string
}

func (t Tag) String() string {
	if t.Role == "" {
		return t.Name
	}
	return t.Name + "[" + t.Role + "]"
}

var artistBaseNames = map[string]bool{"trackartist": true, "releaseartist": true, "artist": true}

// roleNames enumerates the seven credit roles a matcher/action's
// bracketed artist tag may name explicitly (spec.md section 3).
var roleNames = []string{"main", "guest", "remixer", "producer", "composer", "conductor", "djmixer"}

func isValidRole(r string) bool {
	for _, name := range roleNames {
		if name == r {
			return true
		}
	}
	return false
}

// fieldMeta describes one non-artist tag's shape: whether it carries
// more than one value, and whether it is match-only (derived,
// computed from sibling tracks, and therefore never a valid action
// target — spec.md §4.7.1's "tracktotal/disctotal match-only").
type fieldMeta struct {
	MultiValue bool
	MatchOnly  bool
}

var fieldMetaTable = map[string]fieldMeta{
	"tracktitle":      {},
	"releasetitle":    {},
	"releasetype":     {},
	"releasedate":     {},
	"originaldate":    {},
	"compositiondate": {},
	"catalognumber":   {},
	"edition":         {},
	"tracknumber":     {},
	"discnumber":      {},
	"tracktotal":      {MatchOnly: true},
	"disctotal":       {MatchOnly: true},
	"genre":           {MultiValue: true},
	"secondarygenre":  {MultiValue: true},
	"descriptor":      {MultiValue: true},
	"label":           {MultiValue: true},
	"trackartist":     {MultiValue: true},
	"releaseartist":   {MultiValue: true},
}

// ParseTag parses one tag token out of a comma-separated tag list.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tag{}, fmt.Errorf("rules: empty tag")
	}
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Tag{}, fmt.Errorf("rules: unterminated role bracket in tag %q", s)
		}
		base := s[:i]
		role := s[i+1 : len(s)-1]
		if !artistBaseNames[base] {
			return Tag{}, fmt.Errorf("rules: %q does not take a role", base)
		}
		if role != "" && !isValidRole(role) {
			return Tag{}, fmt.Errorf("rules: unknown role %q", role)
		}
		return Tag{Name: base, Role: role}, nil
	}
	if artistBaseNames[s] {
		return Tag{Name: s}, nil
	}
	if _, ok := fieldMetaTable[s]; !ok {
		return Tag{}, fmt.Errorf("rules: unknown tag %q", s)
	}
	return Tag{Name: s}, nil
}

// ParseTagList parses a comma-separated tag list ("tags" in the
// grammar spec.md §4.7.1 gives a matcher/action).
func ParseTagList(s string) ([]Tag, error) {
	var tags []Tag
	for _, part := range strings.Split(s, ",") {
		t, err := ParseTag(part)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("rules: empty tag list")
	}
	return tags, nil
}

// FieldRef is one concrete, non-aliased field a tag expands to: e.g.
// Tag{"artist", ""} expands to 14 FieldRefs (7 roles × {track,release}).
type FieldRef struct {
	Name string // e.g. "tracktitle", "genre", "trackartist"
	Role string // role for the two artist fields, "" otherwise
}

func (f FieldRef) String() string {
	if f.Role == "" {
		return f.Name
	}
	return f.Name + "[" + f.Role + "]"
}

// Meta returns the shape (multi-value, match-only) of the concrete
// field f names.
func (f FieldRef) Meta() fieldMeta {
	return fieldMetaTable[f.Name]
}

// Expand resolves a possibly-aliased tag into the concrete fields it
// denotes: a plain non-artist tag expands to itself; "trackartist"/
// "releaseartist" with no role expand to all seven roles on that one
// entity; "artist" with no role expands to all seven roles on both
// entities; any of the three with an explicit role expand to just
// that role (both entities for "artist[role]").
func (t Tag) Expand() []FieldRef {
	switch t.Name {
	case "trackartist":
		return artistFields("trackartist", t.Role)
	case "releaseartist":
		return artistFields("releaseartist", t.Role)
	case "artist":
		return append(artistFields("trackartist", t.Role), artistFields("releaseartist", t.Role)...)
	default:
		return []FieldRef{{Name: t.Name}}
	}
}

func artistFields(entity, role string) []FieldRef {
	if role != "" {
		return []FieldRef{{Name: entity, Role: role}}
	}
	out := make([]FieldRef, 0, len(roleNames))
	for _, r := range roleNames {
		out = append(out, FieldRef{Name: entity, Role: r})
	}
	return out
}

// Matcher is a parsed "tags : pattern [: flags]" expression (spec.md
// §4.7.1). Anchors bind to the pattern itself ("^" / "$", each
// escapable as "\^" / "\$"); flags currently recognize only "i" for
// case-insensitive comparison.
type Matcher struct {
	Tags            []Tag
	Pattern         string
	AnchorStart     bool
	AnchorEnd       bool
	CaseInsensitive bool
}

// ParseMatcher parses a full matcher expression.
func ParseMatcher(s string) (Matcher, error) {
	parts := splitUnescaped(s, ':')
	if len(parts) < 2 || len(parts) > 3 {
		return Matcher{}, fmt.Errorf("rules: matcher %q must have the form tags:pattern[:flags]", s)
	}
	tags, err := ParseTagList(parts[0])
	if err != nil {
		return Matcher{}, err
	}
	pattern, anchorStart, anchorEnd := parseAnchors(parts[1])
	flags := ""
	if len(parts) == 3 {
		flags = parts[2]
	}
	return Matcher{
		Tags:            tags,
		Pattern:         pattern,
		AnchorStart:     anchorStart,
		AnchorEnd:       anchorEnd,
		CaseInsensitive: strings.Contains(flags, "i"),
	}, nil
}

// ActionKind is one of the five tag transforms spec.md §4.7.2 names.
type ActionKind string

const (
	ActionReplace ActionKind = "replace"
	ActionSed     ActionKind = "sed"
	ActionSplit   ActionKind = "split"
	ActionAdd     ActionKind = "add"
	ActionDelete  ActionKind = "delete"
)

// actionArity is each action kind's required argument count (spec.md
// §4.7.2: replace/split/add take 1, sed takes 2, delete takes 0).
var actionArity = map[ActionKind]int{
	ActionReplace: 1,
	ActionSed:     2,
	ActionSplit:   1,
	ActionAdd:     1,
	ActionDelete:  0,
}

// Action is a parsed "[tags : pattern [: flags]] / kind [: args]"
// expression. Matcher is nil when the action targets the rule's own
// top-level matcher tags rather than naming its own.
type Action struct {
	Matcher *Matcher
	Kind    ActionKind
	Args    []string
}

// ParseAction parses a single action expression.
func ParseAction(s string) (Action, error) {
	parts := splitUnescaped(s, '/')
	if len(parts) == 1 {
		parts = []string{"", parts[0]}
	}
	if len(parts) != 2 {
		return Action{}, fmt.Errorf("rules: action %q must have at most one unescaped '/'", s)
	}

	var matcher *Matcher
	if strings.TrimSpace(parts[0]) != "" {
		m, err := ParseMatcher(parts[0])
		if err != nil {
			return Action{}, err
		}
		matcher = &m
	}

	kindParts := splitUnescaped(parts[1], ':')
	kind := ActionKind(strings.TrimSpace(kindParts[0]))
	arity, ok := actionArity[kind]
	if !ok {
		return Action{}, fmt.Errorf("rules: unknown action kind %q", kind)
	}
	args := kindParts[1:]
	if len(args) != arity {
		return Action{}, fmt.Errorf("rules: action %q takes %d argument(s), got %d", kind, arity, len(args))
	}

	return Action{Matcher: matcher, Kind: kind, Args: args}, nil
}

// Rule is a full matcher plus its ordered action list (spec.md §4.7.1:
// "an action's tag list defaults to the rule's own matcher tags when
// omitted").
type Rule struct {
	Matcher Matcher
	Actions []Action
}

// ParseRule parses a matcher expression and its ordered action
// expressions into a validated Rule.
func ParseRule(matcherExpr string, actionExprs []string) (Rule, error) {
	m, err := ParseMatcher(matcherExpr)
	if err != nil {
		return Rule{}, err
	}
	if len(actionExprs) == 0 {
		return Rule{}, fmt.Errorf("rules: a rule needs at least one action")
	}

	actions := make([]Action, 0, len(actionExprs))
	for _, expr := range actionExprs {
		a, err := ParseAction(expr)
		if err != nil {
			return Rule{}, err
		}
		actions = append(actions, a)
	}

	rule := Rule{Matcher: m, Actions: actions}
	if err := validateRule(rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// effectiveTags returns the tags an action operates against: its own,
// or the rule matcher's when the action declared none.
func effectiveTags(rule Rule, action Action) []Tag {
	if action.Matcher != nil && len(action.Matcher.Tags) > 0 {
		return action.Matcher.Tags
	}
	return rule.Matcher.Tags
}

// validateRule enforces spec.md §4.7.1's two action-target
// restrictions: split/add only apply to multi-value tags, and
// tracktotal/disctotal are match-only and can never be an action's
// target.
func validateRule(rule Rule) error {
	for _, action := range rule.Actions {
		for _, tag := range effectiveTags(rule, action) {
			for _, fr := range tag.Expand() {
				meta := fr.Meta()
				if meta.MatchOnly {
					return fmt.Errorf("rules: %s is match-only and cannot be the target of a %s action", fr, action.Kind)
				}
				if (action.Kind == ActionSplit || action.Kind == ActionAdd) && !meta.MultiValue {
					return fmt.Errorf("rules: %s action on %s requires a multi-value tag", action.Kind, fr)
				}
			}
		}
	}
	return nil
}

// splitUnescaped splits s on every occurrence of delim that is not
// immediately doubled, treating a doubled delim as one literal
// character (spec.md §4.7.1: "':' and '/' are escaped by doubling").
// Splitting byte-wise is safe here because neither delimiter byte (':'
// or '/') ever appears as a continuation byte of a multi-byte UTF-8
// rune.
func splitUnescaped(s string, delim byte) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != delim {
			cur.WriteByte(c)
			continue
		}
		if i+1 < len(s) && s[i+1] == delim {
			cur.WriteByte(delim)
			i++
			continue
		}
		parts = append(parts, cur.String())
		cur.Reset()
	}
	parts = append(parts, cur.String())
	return parts
}

// parseAnchors strips a leading unescaped "^" and trailing unescaped
// "$" from a matcher pattern, then unescapes "\^"/"\$" back to literal
// characters.
func parseAnchors(s string) (pattern string, anchorStart, anchorEnd bool) {
	if strings.HasPrefix(s, "^") {
		anchorStart = true
		s = s[1:]
	}
	if strings.HasSuffix(s, "$") && !strings.HasSuffix(s, `\$`) {
		anchorEnd = true
		s = s[:len(s)-1]
	}
	s = strings.ReplaceAll(s, `\^`, "^")
	s = strings.ReplaceAll(s, `\$`, "$")
	return s, anchorStart, anchorEnd
}

// matchValue reports whether value satisfies m's pattern and anchors.
func matchValue(m Matcher, value string) bool {
	v, p := value, m.Pattern
	if m.CaseInsensitive {
		v = strings.ToLower(v)
		p = strings.ToLower(p)
	}
	switch {
	case m.AnchorStart && m.AnchorEnd:
		return v == p
	case m.AnchorStart:
		return strings.HasPrefix(v, p)
	case m.AnchorEnd:
		return strings.HasSuffix(v, p)
	default:
		return strings.Contains(v, p)
	}
}

// intString is a small helper shared by plan.go for rendering the
// tracktotal/disctotal aggregates as the single string value a
// Matcher compares against.
func intString(n int) string {
	return strconv.Itoa(n)
}
