package cache

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/azuline/rose-sub000/internal/db"
	"github.com/azuline/rose-sub000/internal/model"
)

// UpsertTrack replaces a track row, its artist links, and its FTS
// shadow row in one transaction.
func (c *Cache) UpsertTrack(t *model.Track) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		return upsertTrackTx(tx, t)
	})
}

// upsertTrackTx is the tx-scoped body shared with the scan batch
// applier in batch.go.
func upsertTrackTx(tx *sql.Tx, t *model.Track) error {
	_, err := tx.Exec(`
		INSERT INTO tracks (
			id, source_path, release_id, title, tracknumber, discnumber,
			duration_seconds, source_mtime, metahash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			release_id = excluded.release_id,
			title = excluded.title,
			tracknumber = excluded.tracknumber,
			discnumber = excluded.discnumber,
			duration_seconds = excluded.duration_seconds,
			source_mtime = excluded.source_mtime,
			metahash = excluded.metahash
	`,
		t.ID, t.SourcePath, t.ReleaseID, t.Title, t.TrackNumber, t.DiscNumber,
		t.DurationSeconds, t.SourceMtime, t.Metahash,
	)
	if err != nil {
		return fmt.Errorf("cache: upsert track %s: %w", t.ID, err)
	}

	if err := replaceArtistLinks(tx, "track_artists", "track_id", t.ID, t.TrackArtists); err != nil {
		return err
	}
	return reindexTrackFTS(tx, t)
}

// DeleteTrack removes a track row, its artist links (cascade), and its
// FTS shadow row.
func (c *Cache) DeleteTrack(id string) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		return deleteTrackTx(tx, id)
	})
}

func deleteTrackTx(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("cache: delete track %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM tracks_fts WHERE track_id = ?`, id); err != nil {
		return fmt.Errorf("cache: delete fts row for %s: %w", id, err)
	}
	return nil
}

// TrackSourcePaths mirrors ReleaseSourcePaths for tracks, keyed by
// source path, so internal/scan can diff a release directory's file
// listing against what the cache already knows.
func (c *Cache) TrackSourcePaths(releaseID string) (map[string]ReleaseStamp, error) {
	rows, err := c.db.Query(
		`SELECT id, source_path, source_mtime, metahash FROM tracks WHERE release_id = ?`, releaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("cache: list track paths for %s: %w", releaseID, err)
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

// TrackDescription renders "{artists} - {title}" for playlist entries,
// satisfying collage.Lookup for Kind == KindPlaylist.
func (c *Cache) TrackDescription(id string) (string, bool, error) {
	var title string
	row := c.db.QueryRow(`SELECT title FROM tracks WHERE id = ?`, id)
	if err := row.Scan(&title); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache: track description %s: %w", id, err)
	}

	rows, err := c.db.Query(
		`SELECT value FROM track_artists WHERE track_id = ? AND role = 'main' ORDER BY position`, id,
	)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", false, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}

	if len(names) == 0 {
		return title, true, nil
	}
	return strings.Join(names, ", ") + " - " + title, true, nil
}

// reindexTrackFTS rebuilds the single FTS shadow row for a track,
// concatenating the searchable surface (title + all credited artist
// names) the way internal/library/fts.go denormalizes per-entity text
// into library_search_fts before indexing.
func reindexTrackFTS(tx *sql.Tx, t *model.Track) error {
	if _, err := tx.Exec(`DELETE FROM tracks_fts WHERE track_id = ?`, t.ID); err != nil {
		return fmt.Errorf("cache: clear fts row for %s: %w", t.ID, err)
	}
	var fields []string
	fields = append(fields, t.Title)
	for _, credit := range t.TrackArtists.Credits() {
		fields = append(fields, credit.Name)
	}
	searchText := strings.Join(fields, " ")
	_, err := tx.Exec(
		`INSERT INTO tracks_fts (search_text, track_id) VALUES (?, ?)`, searchText, t.ID,
	)
	if err != nil {
		return fmt.Errorf("cache: insert fts row for %s: %w", t.ID, err)
	}
	return nil
}
