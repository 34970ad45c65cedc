package cache

import "database/sql"

// ToolVersion participates in the cache-reset predicate (spec.md
// §4.6.2); bump it whenever a cache-incompatible change ships.
const ToolVersion = "1"

// schemaHash is a fixed fingerprint of the DDL below; bump it whenever
// the schema changes so a stale on-disk cache is detected and rebuilt
// even if the running binary's ToolVersion string was not bumped.
const schemaHash = "2026-01-rose-sub000-v1"

// createSchema creates every table/index the cache needs, matching
// the teacher's additive "CREATE TABLE IF NOT EXISTS" idiom in
// internal/state/schema.go — but without its ALTER-TABLE migration
// ladder, because spec.md §3 treats the cache as disposable ("never
// authoritative"); any shape change bumps schemaHash and Open drops
// and recreates instead of migrating in place.
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS releases (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			releasetype TEXT NOT NULL,
			releasedate TEXT,
			originaldate TEXT,
			compositiondate TEXT,
			catalognumber TEXT,
			edition TEXT,
			new INTEGER NOT NULL DEFAULT 1,
			disctotal INTEGER NOT NULL DEFAULT 1,
			added_at TEXT NOT NULL,
			source_mtime TEXT NOT NULL,
			metahash TEXT NOT NULL,
			cover_path TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_releases_title ON releases(title);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL UNIQUE,
			release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			tracknumber TEXT NOT NULL DEFAULT '',
			discnumber TEXT NOT NULL DEFAULT '',
			duration_seconds REAL NOT NULL DEFAULT 0,
			source_mtime TEXT NOT NULL,
			metahash TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_release_id ON tracks(release_id);

		CREATE TABLE IF NOT EXISTS release_artists (
			release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
			value TEXT NOT NULL,
			role TEXT NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_release_artists_release ON release_artists(release_id);
		CREATE INDEX IF NOT EXISTS idx_release_artists_value ON release_artists(value COLLATE NOCASE);

		CREATE TABLE IF NOT EXISTS track_artists (
			track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
			value TEXT NOT NULL,
			role TEXT NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_track_artists_track ON track_artists(track_id);
		CREATE INDEX IF NOT EXISTS idx_track_artists_value ON track_artists(value COLLATE NOCASE);

		CREATE TABLE IF NOT EXISTS genres (
			release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
			value TEXT NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_genres_release ON genres(release_id);
		CREATE INDEX IF NOT EXISTS idx_genres_value ON genres(value COLLATE NOCASE);

		CREATE TABLE IF NOT EXISTS secondary_genres (
			release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
			value TEXT NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_secondary_genres_release ON secondary_genres(release_id);

		CREATE TABLE IF NOT EXISTS descriptors (
			release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
			value TEXT NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_descriptors_release ON descriptors(release_id);

		CREATE TABLE IF NOT EXISTS labels (
			release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
			value TEXT NOT NULL,
			position INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_labels_release ON labels(release_id);

		CREATE TABLE IF NOT EXISTS collages (
			name TEXT PRIMARY KEY,
			source_mtime TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS collage_releases (
			collage TEXT NOT NULL REFERENCES collages(name) ON DELETE CASCADE,
			release_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			missing INTEGER NOT NULL DEFAULT 0,
			description_meta TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_collage_releases_collage ON collage_releases(collage, position);

		CREATE TABLE IF NOT EXISTS playlists (
			name TEXT PRIMARY KEY,
			source_mtime TEXT NOT NULL,
			cover_path TEXT
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist TEXT NOT NULL REFERENCES playlists(name) ON DELETE CASCADE,
			track_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			missing INTEGER NOT NULL DEFAULT 0,
			description_meta TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist ON playlist_tracks(playlist, position);

		CREATE VIRTUAL TABLE IF NOT EXISTS tracks_fts USING fts5(
			search_text,
			track_id UNINDEXED,
			tokenize='trigram'
		);
	`)
	return err
}
