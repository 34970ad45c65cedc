package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/azuline/rose-sub000/internal/model"
)

// ListReleases returns every cached release in title order, the shape
// internal/vfs's ListReleases operation projects into directory
// entries.
func (c *Cache) ListReleases() ([]*model.Release, error) {
	rows, err := c.db.Query(`
		SELECT id, source_path, title, releasetype, releasedate, originaldate,
			compositiondate, catalognumber, edition, new, disctotal,
			added_at, metahash, cover_path
		FROM releases ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("cache: list releases: %w", err)
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

// Release fetches a single release by ID, or (nil, nil) if absent.
func (c *Cache) Release(id string) (*model.Release, error) {
	row := c.db.QueryRow(`
		SELECT id, source_path, title, releasetype, releasedate, originaldate,
			compositiondate, catalognumber, edition, new, disctotal,
			added_at, metahash, cover_path
		FROM releases WHERE id = ?
	`, id)
	r, err := scanRelease(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: release %s: %w", id, err)
	}
	if err := c.hydrateReleaseLinks(r); err != nil {
		return nil, err
	}
	return r, nil
}

// TracksOfRelease returns a release's tracks ordered by (discnumber,
// tracknumber), the same ordering internal/vfs's track listing uses.
func (c *Cache) TracksOfRelease(releaseID string) ([]*model.Track, error) {
	rows, err := c.db.Query(`
		SELECT id, source_path, release_id, title, tracknumber, discnumber,
			duration_seconds, source_mtime, metahash
		FROM tracks WHERE release_id = ?
		ORDER BY discnumber, tracknumber
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("cache: tracks of release %s: %w", releaseID, err)
	}
	defer rows.Close()

	var out []*model.Track
	for rows.Next() {
		t := &model.Track{}
		if err := rows.Scan(
			&t.ID, &t.SourcePath, &t.ReleaseID, &t.Title, &t.TrackNumber, &t.DiscNumber,
			&t.DurationSeconds, &t.SourceMtime, &t.Metahash,
		); err != nil {
			return nil, err
		}
		if err := c.hydrateTrackArtists(t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Track fetches a single track by ID, or (nil, nil) if absent.
func (c *Cache) Track(id string) (*model.Track, error) {
	row := c.db.QueryRow(`
		SELECT id, source_path, release_id, title, tracknumber, discnumber,
			duration_seconds, source_mtime, metahash
		FROM tracks WHERE id = ?
	`, id)
	t := &model.Track{}
	err := row.Scan(
		&t.ID, &t.SourcePath, &t.ReleaseID, &t.Title, &t.TrackNumber, &t.DiscNumber,
		&t.DurationSeconds, &t.SourceMtime, &t.Metahash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: track %s: %w", id, err)
	}
	if err := c.hydrateTrackArtists(t); err != nil {
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRelease(row rowScanner) (*model.Release, error) {
	r := &model.Release{}
	var releaseDate, originalDate, compositionDate, catalogNumber, edition, coverPath sql.NullString
	var addedAt string
	var releaseType string
	if err := row.Scan(
		&r.ID, &r.SourcePath, &r.Title, &releaseType, &releaseDate, &originalDate,
		&compositionDate, &catalogNumber, &edition, &r.New, &r.DiscTotal,
		&addedAt, &r.Metahash, &coverPath,
	); err != nil {
		return nil, err
	}
	r.ReleaseType = model.NormalizeReleaseType(releaseType)
	r.ReleaseDate = releaseDate.String
	r.OriginalDate = originalDate.String
	r.CompositionDate = compositionDate.String
	r.CatalogNumber = catalogNumber.String
	r.Edition = edition.String
	r.CoverArtPath = coverPath.String
	if t, err := time.Parse(time.RFC3339, addedAt); err == nil {
		r.AddedAt = t
	}
	return r, nil
}

func (c *Cache) hydrateReleaseLinks(r *model.Release) error {
	mapping, err := c.artistMapping("release_artists", "release_id", r.ID)
	if err != nil {
		return err
	}
	r.ReleaseArtists = mapping

	var err2 error
	if r.Genres, err2 = c.valueLinks("genres", "release_id", r.ID); err2 != nil {
		return err2
	}
	if r.SecondaryGenres, err2 = c.valueLinks("secondary_genres", "release_id", r.ID); err2 != nil {
		return err2
	}
	if r.Descriptors, err2 = c.valueLinks("descriptors", "release_id", r.ID); err2 != nil {
		return err2
	}
	if r.Labels, err2 = c.valueLinks("labels", "release_id", r.ID); err2 != nil {
		return err2
	}
	return nil
}

func (c *Cache) hydrateTrackArtists(t *model.Track) error {
	mapping, err := c.artistMapping("track_artists", "track_id", t.ID)
	if err != nil {
		return err
	}
	t.TrackArtists = mapping
	return nil
}

func (c *Cache) artistMapping(table, fkColumn, entityID string) (model.ArtistMapping, error) {
	rows, err := c.db.Query(
		fmt.Sprintf(`SELECT value, role FROM %s WHERE %s = ? ORDER BY position`, table, fkColumn), entityID,
	)
	if err != nil {
		return model.ArtistMapping{}, fmt.Errorf("cache: read %s for %s: %w", table, entityID, err)
	}
	defer rows.Close()

	var mapping model.ArtistMapping
	for rows.Next() {
		var value, role string
		if err := rows.Scan(&value, &role); err != nil {
			return model.ArtistMapping{}, err
		}
		r := model.ArtistRole(role)
		mapping.SetRole(r, append(mapping.ByRole(r), value))
	}
	return mapping, rows.Err()
}

func (c *Cache) valueLinks(table, fkColumn, entityID string) ([]string, error) {
	rows, err := c.db.Query(
		fmt.Sprintf(`SELECT value FROM %s WHERE %s = ? ORDER BY position`, table, fkColumn), entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("cache: read %s for %s: %w", table, entityID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
