package cache

import (
	"fmt"

	"github.com/azuline/rose-sub000/internal/model"
)

// FacetValue is one distinct value within an artist/genre/label facet
// paired with how many releases carry it — the listing
// internal/vfs's Artists/, Genres/, and Labels/ top-level views
// project into directory entries (spec.md §4.8).
type FacetValue struct {
	Value        string
	ReleaseCount int
}

// ArtistFacets returns every distinct release-scoped artist credit
// (any role, since the VFS artist view groups a release under every
// name credited on it, not just its main artist).
func (c *Cache) ArtistFacets() ([]FacetValue, error) {
	return c.facets(`
		SELECT value, COUNT(DISTINCT release_id) FROM release_artists
		GROUP BY value COLLATE NOCASE ORDER BY value COLLATE NOCASE
	`)
}

// GenreFacets returns every distinct genre, primary or secondary.
func (c *Cache) GenreFacets() ([]FacetValue, error) {
	return c.facets(`
		SELECT value, COUNT(DISTINCT release_id) FROM (
			SELECT release_id, value FROM genres
			UNION ALL
			SELECT release_id, value FROM secondary_genres
		) GROUP BY value COLLATE NOCASE ORDER BY value COLLATE NOCASE
	`)
}

// LabelFacets returns every distinct release label.
func (c *Cache) LabelFacets() ([]FacetValue, error) {
	return c.facets(`
		SELECT value, COUNT(DISTINCT release_id) FROM labels
		GROUP BY value COLLATE NOCASE ORDER BY value COLLATE NOCASE
	`)
}

func (c *Cache) facets(query string) ([]FacetValue, error) {
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("cache: facets: %w", err)
	}
	defer rows.Close()
	var out []FacetValue
	for rows.Next() {
		var f FacetValue
		if err := rows.Scan(&f.Value, &f.ReleaseCount); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const releaseColumns = `releases.id, releases.source_path, releases.title, releases.releasetype, releases.releasedate,
	releases.originaldate, releases.compositiondate, releases.catalognumber, releases.edition, releases.new,
	releases.disctotal, releases.added_at, releases.metahash, releases.cover_path`

// ReleasesByArtist returns every release carrying name as a credit in
// any role (case-insensitive), in title order.
func (c *Cache) ReleasesByArtist(name string) ([]*model.Release, error) {
	return c.releasesByJoin(
		`JOIN release_artists ra ON ra.release_id = releases.id WHERE ra.value = ? COLLATE NOCASE`, name,
	)
}

// ReleasesByGenre mirrors ReleasesByArtist for primary/secondary genres.
func (c *Cache) ReleasesByGenre(name string) ([]*model.Release, error) {
	return c.releasesByJoin(`
		JOIN (
			SELECT release_id, value FROM genres
			UNION ALL
			SELECT release_id, value FROM secondary_genres
		) g ON g.release_id = releases.id WHERE g.value = ? COLLATE NOCASE
	`, name)
}

// ReleasesByLabel mirrors ReleasesByArtist for labels.
func (c *Cache) ReleasesByLabel(name string) ([]*model.Release, error) {
	return c.releasesByJoin(
		`JOIN labels l ON l.release_id = releases.id WHERE l.value = ? COLLATE NOCASE`, name,
	)
}

func (c *Cache) releasesByJoin(joinAndWhere, arg string) ([]*model.Release, error) {
	rows, err := c.db.Query(fmt.Sprintf(`
		SELECT %s FROM releases
		%s
		GROUP BY releases.id
		ORDER BY releases.title
	`, releaseColumns, joinAndWhere), arg)
	if err != nil {
		return nil, fmt.Errorf("cache: releases by facet: %w", err)
	}
	defer rows.Close()

	var out []*model.Release
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		if err := c.hydrateReleaseLinks(r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
