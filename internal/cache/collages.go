package cache

import (
	"database/sql"
	"fmt"

	"github.com/azuline/rose-sub000/internal/collage"
	"github.com/azuline/rose-sub000/internal/db"
)

// UpsertCollage replaces a collage's row and its ordered release
// membership, mirroring the source-of-truth TOML file the synchronizer
// just read (internal/collage.Read).
func (c *Cache) UpsertCollage(name, sourceMtime string, entries []collage.Entry) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO collages (name, source_mtime) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET source_mtime = excluded.source_mtime
		`, name, sourceMtime)
		if err != nil {
			return fmt.Errorf("cache: upsert collage %s: %w", name, err)
		}
		if _, err := tx.Exec(`DELETE FROM collage_releases WHERE collage = ?`, name); err != nil {
			return fmt.Errorf("cache: clear collage_releases for %s: %w", name, err)
		}
		stmt := `INSERT INTO collage_releases (collage, release_id, position, missing, description_meta)
			VALUES (?, ?, ?, ?, ?)`
		for i, e := range entries {
			if _, err := tx.Exec(stmt, name, e.UUID, i, e.Missing, e.DescriptionMeta); err != nil {
				return fmt.Errorf("cache: insert collage_releases row for %s: %w", name, err)
			}
		}
		return nil
	})
}

// DeleteCollage removes a collage row and (via cascade) its membership.
func (c *Cache) DeleteCollage(name string) error {
	_, err := c.db.Exec(`DELETE FROM collages WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("cache: delete collage %s: %w", name, err)
	}
	return nil
}

// UpsertPlaylist mirrors UpsertCollage for playlist_tracks. An empty
// coverPath leaves any existing cover_path untouched (COALESCE against
// the pre-existing row) rather than clearing it, so a reconciliation
// pass — which has no opinion on cover art — never undoes
// internal/vfs's SetPlaylistCoverArt.
func (c *Cache) UpsertPlaylist(name, sourceMtime, coverPath string, entries []collage.Entry) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playlists (name, source_mtime, cover_path) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				source_mtime = excluded.source_mtime,
				cover_path = COALESCE(excluded.cover_path, playlists.cover_path)
		`, name, sourceMtime, nullableString(coverPath))
		if err != nil {
			return fmt.Errorf("cache: upsert playlist %s: %w", name, err)
		}
		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist = ?`, name); err != nil {
			return fmt.Errorf("cache: clear playlist_tracks for %s: %w", name, err)
		}
		stmt := `INSERT INTO playlist_tracks (playlist, track_id, position, missing, description_meta)
			VALUES (?, ?, ?, ?, ?)`
		for i, e := range entries {
			if _, err := tx.Exec(stmt, name, e.UUID, i, e.Missing, e.DescriptionMeta); err != nil {
				return fmt.Errorf("cache: insert playlist_tracks row for %s: %w", name, err)
			}
		}
		return nil
	})
}

// DeletePlaylist removes a playlist row and (via cascade) its membership.
func (c *Cache) DeletePlaylist(name string) error {
	_, err := c.db.Exec(`DELETE FROM playlists WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("cache: delete playlist %s: %w", name, err)
	}
	return nil
}

// CollageReleaseIDs returns a collage's member release IDs in position
// order, including ones currently marked missing.
func (c *Cache) CollageReleaseIDs(name string) ([]string, error) {
	rows, err := c.db.Query(
		`SELECT release_id FROM collage_releases WHERE collage = ? ORDER BY position`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("cache: list collage releases for %s: %w", name, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// PlaylistTrackIDs mirrors CollageReleaseIDs for playlists.
func (c *Cache) PlaylistTrackIDs(name string) ([]string, error) {
	rows, err := c.db.Query(
		`SELECT track_id FROM playlist_tracks WHERE playlist = ? ORDER BY position`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("cache: list playlist tracks for %s: %w", name, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListCollageNames returns every known collage name, the listing
// internal/vfs's top-level Collages/ view projects into directories.
func (c *Cache) ListCollageNames() ([]string, error) {
	return c.names(`SELECT name FROM collages ORDER BY name`)
}

// ListPlaylistNames mirrors ListCollageNames for the Playlists/ view.
func (c *Cache) ListPlaylistNames() ([]string, error) {
	return c.names(`SELECT name FROM playlists ORDER BY name`)
}

// PlaylistCoverPath returns a playlist's cover art source path, or
// ("", false) if it has none set.
func (c *Cache) PlaylistCoverPath(name string) (string, bool, error) {
	var coverPath sql.NullString
	err := c.db.QueryRow(`SELECT cover_path FROM playlists WHERE name = ?`, name).Scan(&coverPath)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: playlist cover path %s: %w", name, err)
	}
	return coverPath.String, coverPath.Valid, nil
}

func (c *Cache) names(query string) ([]string, error) {
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("cache: list names: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
