package cache

import (
	"database/sql"
	"fmt"

	"github.com/azuline/rose-sub000/internal/db"
	"github.com/azuline/rose-sub000/internal/model"
)

// UpsertRelease replaces a release row and all of its link-table rows
// (artists, genres, secondary genres, descriptors, labels) in a single
// transaction, grounded on internal/db.WithTx for the same
// delete-then-reinsert shape the teacher uses for playlist_tracks in
// internal/playlists. sourceMtime is the freshness fingerprint
// internal/scan computes for the release (a hash over the directory
// mtime and each audio file's name, mtime and size), stored as-is.
func (c *Cache) UpsertRelease(r *model.Release, sourceMtime string) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		return upsertReleaseTx(tx, r, sourceMtime)
	})
}

// upsertReleaseTx is the tx-scoped body UpsertRelease and the scan
// batch applier (batch.go) both call, so a full scan's releases and
// tracks land in exactly one transaction per spec.md §4.6.3's "batch
// apply all upserts and deletes in a single transaction."
func upsertReleaseTx(tx *sql.Tx, r *model.Release, sourceMtime string) error {
	_, err := tx.Exec(`
		INSERT INTO releases (
			id, source_path, title, releasetype, releasedate, originaldate,
			compositiondate, catalognumber, edition, new, disctotal,
			added_at, source_mtime, metahash, cover_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			title = excluded.title,
			releasetype = excluded.releasetype,
			releasedate = excluded.releasedate,
			originaldate = excluded.originaldate,
			compositiondate = excluded.compositiondate,
			catalognumber = excluded.catalognumber,
			edition = excluded.edition,
			new = excluded.new,
			disctotal = excluded.disctotal,
			source_mtime = excluded.source_mtime,
			metahash = excluded.metahash,
			cover_path = excluded.cover_path
	`,
		r.ID, r.SourcePath, r.Title, string(r.ReleaseType), r.ReleaseDate, r.OriginalDate,
		r.CompositionDate, r.CatalogNumber, r.Edition, r.New, r.DiscTotal,
		r.AddedAt.Format("2006-01-02T15:04:05Z07:00"), sourceMtime, r.Metahash, nullableString(r.CoverArtPath),
	)
	if err != nil {
		return fmt.Errorf("cache: upsert release %s: %w", r.ID, err)
	}

	if err := replaceArtistLinks(tx, "release_artists", "release_id", r.ID, r.ReleaseArtists); err != nil {
		return err
	}
	if err := replaceValueLinks(tx, "genres", "release_id", r.ID, r.Genres); err != nil {
		return err
	}
	if err := replaceValueLinks(tx, "secondary_genres", "release_id", r.ID, r.SecondaryGenres); err != nil {
		return err
	}
	if err := replaceValueLinks(tx, "descriptors", "release_id", r.ID, r.Descriptors); err != nil {
		return err
	}
	if err := replaceValueLinks(tx, "labels", "release_id", r.ID, r.Labels); err != nil {
		return err
	}
	return nil
}

func deleteReleaseTx(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM releases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("cache: delete release %s: %w", id, err)
	}
	return nil
}

// DeleteRelease removes a release and (via ON DELETE CASCADE) its
// tracks and link-table rows.
func (c *Cache) DeleteRelease(id string) error {
	_, err := c.db.Exec(`DELETE FROM releases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cache: delete release %s: %w", id, err)
	}
	return nil
}

// ReleaseSourcePaths returns every known release's (id, source_path,
// source_mtime), the shape internal/scan's freshness check walks
// against the directory listing to find additions/removals/staleness.
func (c *Cache) ReleaseSourcePaths() (map[string]ReleaseStamp, error) {
	rows, err := c.db.Query(`SELECT id, source_path, source_mtime, metahash FROM releases`)
	if err != nil {
		return nil, fmt.Errorf("cache: list release paths: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ReleaseStamp)
	for rows.Next() {
		var id, path, mtime, metahash string
		if err := rows.Scan(&id, &path, &mtime, &metahash); err != nil {
			return nil, err
		}
		out[path] = ReleaseStamp{ID: id, SourceMtime: mtime, Metahash: metahash}
	}
	return out, rows.Err()
}

// ReleaseStamp is the subset of a cached release row needed to decide
// whether a directory on disk is stale relative to the cache.
type ReleaseStamp struct {
	ID          string
	SourceMtime string
	Metahash    string
}

// ReleaseDescription renders the "{albumartists} - {title}" label
// collage/playlist entries store (spec.md §4.6.5), satisfying the
// collage.Lookup signature when the caller also checks existence.
func (c *Cache) ReleaseDescription(id string) (string, bool, error) {
	var title string
	row := c.db.QueryRow(`SELECT title FROM releases WHERE id = ?`, id)
	if err := row.Scan(&title); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache: release description %s: %w", id, err)
	}

	artistRows, err := c.db.Query(
		`SELECT value FROM release_artists WHERE release_id = ? AND role = 'main' ORDER BY position`, id,
	)
	if err != nil {
		return "", false, err
	}
	defer artistRows.Close()
	var names []string
	for artistRows.Next() {
		var name string
		if err := artistRows.Scan(&name); err != nil {
			return "", false, err
		}
		names = append(names, name)
	}
	if err := artistRows.Err(); err != nil {
		return "", false, err
	}

	if len(names) == 0 {
		return title, true, nil
	}
	joined := names[0]
	for _, n := range names[1:] {
		joined += ", " + n
	}
	return joined + " - " + title, true, nil
}

func replaceArtistLinks(tx *sql.Tx, table, fkColumn, entityID string, mapping model.ArtistMapping) error {
	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, fkColumn), entityID); err != nil {
		return fmt.Errorf("cache: clear %s for %s: %w", table, entityID, err)
	}
	stmt := fmt.Sprintf(
		`INSERT INTO %s (%s, value, role, position) VALUES (?, ?, ?, ?)`, table, fkColumn,
	)
	for i, credit := range mapping.Credits() {
		if _, err := tx.Exec(stmt, entityID, credit.Name, string(credit.Role), i); err != nil {
			return fmt.Errorf("cache: insert %s row for %s: %w", table, entityID, err)
		}
	}
	return nil
}

func replaceValueLinks(tx *sql.Tx, table, fkColumn, entityID string, values []string) error {
	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, fkColumn), entityID); err != nil {
		return fmt.Errorf("cache: clear %s for %s: %w", table, entityID, err)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (%s, value, position) VALUES (?, ?, ?)`, table, fkColumn)
	for i, v := range values {
		if _, err := tx.Exec(stmt, entityID, v, i); err != nil {
			return fmt.Errorf("cache: insert %s row for %s: %w", table, entityID, err)
		}
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
