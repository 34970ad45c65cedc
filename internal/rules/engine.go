package rules

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/azuline/rose-sub000/internal/cache"
	"github.com/azuline/rose-sub000/internal/codec"
	"github.com/azuline/rose-sub000/internal/config"
	"github.com/azuline/rose-sub000/internal/scan"
)

// Engine wires the Rules Engine's dependencies: the cache Plan reads
// through, the Scanner that re-reads affected release directories and
// reconciles collages/playlists after a write (spec.md §4.7.3 step 7
// "refresh"), and the configuration governing the ignore filter.
// Modeled on internal/retag/commands.go's FileCmd → lib.AddTracks
// callback shape, generalized from "one file, one callback" to "N
// affected directories, one batched rescan."
type Engine struct {
	Cache   *cache.Cache
	Scanner *scan.Scanner
	Config  *config.Config
}

// New constructs an Engine over an already-open cache, scanner, and
// configuration.
func New(c *cache.Cache, s *scan.Scanner, cfg *config.Config) *Engine {
	return &Engine{Cache: c, Scanner: s, Config: cfg}
}

// Change describes one field's before/after values on one track, the
// unit both the dry-run preview and the confirmation prompt render.
type Change struct {
	TrackID    string
	ReleaseID  string
	SourcePath string
	Field      string
	Before     []string
	After      []string
}

// Preview is the full set of changes a rule would make (spec.md
// §4.7.3 step 4's "preview computation").
type Preview struct {
	Rule    Rule
	Changes []Change
}

// TrackCount returns the number of distinct tracks a preview touches.
func (p *Preview) TrackCount() int {
	seen := map[string]bool{}
	for _, c := range p.Changes {
		seen[c.TrackID] = true
	}
	return len(seen)
}

// Run executes rule's plan → preview → apply → refresh pipeline
// (spec.md §4.7.3-4.7.4). When dryRun is true, apply and refresh are
// skipped entirely and the returned Preview describes what would
// change without touching any file.
func (e *Engine) Run(ctx context.Context, rule Rule, dryRun bool) (*Preview, error) {
	candidates, err := Plan(e.Cache, e.Config, rule.Matcher)
	if err != nil {
		return nil, fmt.Errorf("rules: plan: %w", err)
	}

	preview := &Preview{Rule: rule}
	affectedDirs := map[string]bool{}

	for _, cand := range candidates {
		tags, err := codec.Read(cand.Track.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("rules: read %s: %w", cand.Track.SourcePath, err)
		}

		changedFile := false
		for _, action := range rule.Actions {
			m := rule.Matcher
			if action.Matcher != nil {
				m = *action.Matcher
			}
			for _, tag := range effectiveTags(rule, action) {
				for _, fr := range tag.Expand() {
					before := getField(fr, tags)
					after, changed, err := applyAction(fr, action, m, tags, cand.DiscTotal, cand.TrackTotal)
					if err != nil {
						return nil, fmt.Errorf("rules: apply %s to %s: %w", action.Kind, cand.Track.SourcePath, err)
					}
					if !changed {
						continue
					}
					setField(fr, tags, after)
					changedFile = true
					preview.Changes = append(preview.Changes, Change{
						TrackID:    cand.Track.ID,
						ReleaseID:  cand.Release.ID,
						SourcePath: cand.Track.SourcePath,
						Field:      fr.String(),
						Before:     before,
						After:      after,
					})
				}
			}
		}

		if changedFile && !dryRun {
			if err := codec.Write(cand.Track.SourcePath, tags); err != nil {
				return preview, fmt.Errorf("rules: write %s: %w", cand.Track.SourcePath, err)
			}
			affectedDirs[cand.Release.SourcePath] = true
		}
	}

	if dryRun || len(affectedDirs) == 0 {
		return preview, nil
	}

	dirs := make([]string, 0, len(affectedDirs))
	for d := range affectedDirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	if _, err := e.Scanner.Scan(ctx, scan.Options{Dirs: dirs, Force: true}); err != nil {
		return preview, fmt.Errorf("rules: refresh affected releases: %w", err)
	}
	return preview, nil
}

// RunStored runs every rule in rules in order, applying (never
// dry-running) each before moving to the next, so a later rule's Plan
// sees every earlier rule's writes already reflected in the cache
// (spec.md §4.7.4: "stored rules run in declaration order, each
// seeing the predecessor's effects").
func (e *Engine) RunStored(ctx context.Context, rules []Rule) ([]*Preview, error) {
	previews := make([]*Preview, 0, len(rules))
	for i, rule := range rules {
		p, err := e.Run(ctx, rule, false)
		if err != nil {
			return previews, fmt.Errorf("rules: stored rule %d: %w", i, err)
		}
		previews = append(previews, p)
	}
	return previews, nil
}

// StoredRule is one rule's on-disk TOML shape (spec.md §4.7.4), loaded
// the same koanf+go-toml/v2 way internal/config and internal/datafile
// already load their own files.
type StoredRule struct {
	Matcher string   `koanf:"matcher" toml:"matcher"`
	Actions []string `koanf:"actions" toml:"actions"`
}

type storedRulesFile struct {
	Rules []StoredRule `koanf:"rules"`
}

// LoadStoredRules reads config.Config.StoredRulesPath and parses each
// entry into a validated Rule. A missing or empty path yields no
// rules and no error.
func LoadStoredRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}
	var parsed storedRulesFile
	if err := k.Unmarshal("", &parsed); err != nil {
		return nil, fmt.Errorf("rules: unmarshal %s: %w", path, err)
	}

	rules := make([]Rule, 0, len(parsed.Rules))
	for i, sr := range parsed.Rules {
		rule, err := ParseRule(sr.Matcher, sr.Actions)
		if err != nil {
			return nil, fmt.Errorf("rules: stored rule %d in %s: %w", i, path, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// PrintPreview renders a preview in the plain "path (field): before ->
// after" shape the CLI confirmation prompt shows the user before
// Confirm reads their answer (spec.md §6 "Rule-engine CLI contract").
func PrintPreview(w io.Writer, p *Preview) {
	for _, c := range p.Changes {
		fmt.Fprintf(w, "%s (%s): %v -> %v\n", c.SourcePath, c.Field, c.Before, c.After)
	}
	fmt.Fprintf(w, "%d change(s) across %d track(s)\n", len(p.Changes), p.TrackCount())
}

// Confirm reads a single y/n line from r, the small bufio.Scanner
// confirmation prompt spec.md §6 calls for in place of a dedicated
// prompt library.
func Confirm(r io.Reader, w io.Writer) (bool, error) {
	fmt.Fprint(w, "Apply these changes? [y/N] ")
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	resp := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return resp == "y" || resp == "yes", nil
}
