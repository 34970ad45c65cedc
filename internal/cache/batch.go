package cache

import (
	"database/sql"
	"fmt"

	"github.com/azuline/rose-sub000/internal/db"
	"github.com/azuline/rose-sub000/internal/model"
)

// ReleaseUpsert bundles a release with its tracks and on-disk
// fingerprint for ApplyScan, the unit internal/scan accumulates one of
// per release directory during its walk (spec.md §4.6.3 step 8:
// "accumulate upsert and delete rows in memory").
type ReleaseUpsert struct {
	Release     *model.Release
	SourceMtime string
	Tracks      []*model.Track
}

// ApplyScan performs the batch-apply step of spec.md §4.6.3: every
// accumulated release/track upsert and every explicit deletion lands in
// one transaction, so a scan either fully commits or (on any single
// write failure, per §4.6.6) leaves the cache exactly as it was.
// deletedReleaseIDs/deletedTrackIDs are rows the caller determined are
// no longer on disk (the orphan sweep already computed against
// ReleaseSourcePaths/TrackSourcePaths).
func (c *Cache) ApplyScan(upserts []ReleaseUpsert, deletedReleaseIDs, deletedTrackIDs []string) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		for _, id := range deletedTrackIDs {
			if err := deleteTrackTx(tx, id); err != nil {
				return err
			}
		}
		for _, id := range deletedReleaseIDs {
			if err := deleteReleaseTx(tx, id); err != nil {
				return err
			}
		}
		for _, u := range upserts {
			if err := upsertReleaseTx(tx, u.Release, u.SourceMtime); err != nil {
				return err
			}
			for _, t := range u.Tracks {
				if err := upsertTrackTx(tx, t); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// AllTrackSourcePaths mirrors TrackSourcePaths but across every
// release, the shape the orphan sweep needs to find track rows whose
// release directory vanished entirely alongside ones whose individual
// file vanished.
func (c *Cache) AllTrackSourcePaths() (map[string]ReleaseStamp, error) {
	rows, err := c.db.Query(`SELECT id, source_path, source_mtime, metahash FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("cache: list all track paths: %w", err)
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
