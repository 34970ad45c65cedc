package cache

import (
	"fmt"
	"strings"
)

// TrackMatch is a single search hit returned by SearchTracks:
// enough identity to let a rule's exact re-filter stage pull the full
// row and enough context to let the rule's matcher re-check tag values
// without a second trip to the track_artists link table.
type TrackMatch struct {
	TrackID     string
	ReleaseID   string
	Title       string
	TrackNumber string
	DiscNumber  string
}

// SearchTracks runs the FTS fast-path spec.md §4.7.1 describes for the
// rules engine's matcher compiler: any literal substring in the
// matcher is pushed into tracks_fts (trigram-tokenized, so substring
// matches work without wildcard syntax) to cheaply shrink the
// candidate set before the exact, field-aware re-filter the rules
// package applies in Go. needle is matched against the concatenated
// search_text column built by reindexTrackFTS.
func (c *Cache) SearchTracks(needle string) ([]TrackMatch, error) {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return c.allTracks()
	}

	rows, err := c.db.Query(`
		SELECT t.id, t.release_id, t.title, t.tracknumber, t.discnumber
		FROM tracks_fts
		JOIN tracks t ON t.id = tracks_fts.track_id
		WHERE tracks_fts.search_text MATCH ?
	`, escapeFTSQuery(needle))
	if err != nil {
		return nil, fmt.Errorf("cache: search tracks: %w", err)
	}
	defer rows.Close()
	return scanTrackMatches(rows)
}

func (c *Cache) allTracks() ([]TrackMatch, error) {
	rows, err := c.db.Query(`SELECT id, release_id, title, tracknumber, discnumber FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("cache: list all tracks: %w", err)
	}
	defer rows.Close()
	return scanTrackMatches(rows)
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTrackMatches(rows rowsScanner) ([]TrackMatch, error) {
	var out []TrackMatch
	for rows.Next() {
		var m TrackMatch
		if err := rows.Scan(&m.TrackID, &m.ReleaseID, &m.Title, &m.TrackNumber, &m.DiscNumber); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// escapeFTSQuery quotes needle as a single FTS5 string literal so
// punctuation in a user-supplied matcher value (parentheses, hyphens,
// colons) is never parsed as FTS5 query syntax.
func escapeFTSQuery(needle string) string {
	return `"` + strings.ReplaceAll(needle, `"`, `""`) + `"`
}
