// Package lockmgr implements the Lock Manager (spec.md §4.5): named
// advisory locks backed by a single table in the cache database,
// grounded on internal/db.WithTx for the transaction shape the rest
// of this module already uses for batched writes.
package lockmgr

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/azuline/rose-sub000/internal/db"
)

// ErrHeld is returned by TryAcquire when a live lock already exists.
var ErrHeld = errors.New("lockmgr: lock is held")

// Naming convention for lock names (spec.md §4.5): "release:{uuid}",
// "collage:{name}", "playlist:{name}", "cache-update".
func ReleaseLockName(id string) string     { return "release:" + id }
func CollageLockName(name string) string   { return "collage:" + name }
func PlaylistLockName(name string) string  { return "playlist:" + name }

const CacheUpdateLockName = "cache-update"

// Manager owns the locks table inside the shared cache database handle.
type Manager struct {
	db *sql.DB
}

// New wraps an already-open cache database handle. CreateTable must be
// called once before use (internal/cache.Open does this as part of
// schema setup).
func New(sqlDB *sql.DB) *Manager {
	return &Manager{db: sqlDB}
}

// CreateTable creates the locks table if it does not already exist.
func CreateTable(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS locks (
			name TEXT PRIMARY KEY,
			valid_until REAL NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("lockmgr: create table: %w", err)
	}
	return nil
}

// Lock is a held advisory lock; call Release (or let Refresh expire)
// when done. Holders of long operations should call Refresh
// periodically to extend valid_until before it lapses.
type Lock struct {
	mgr  *Manager
	name string
}

// Acquire blocks until it can claim name, retrying until any existing
// live holder's TTL expires (spec.md §4.5: "on a conflicting live row
// it sleeps until that row's expiry and retries").
func (m *Manager) Acquire(name string, ttl time.Duration) (*Lock, error) {
	for {
		lock, err := m.TryAcquire(name, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrHeld) {
			return nil, err
		}
		wait, waitErr := m.timeUntilExpiry(name)
		if waitErr != nil {
			return nil, waitErr
		}
		if wait > 0 {
			time.Sleep(wait)
		}
	}
}

// TryAcquire attempts to claim name once, returning ErrHeld immediately
// if a live row already exists rather than retrying.
func (m *Manager) TryAcquire(name string, ttl time.Duration) (*Lock, error) {
	now := nowSeconds()
	validUntil := now + ttl.Seconds()

	err := db.WithTx(m.db, func(tx *sql.Tx) error {
		var existing float64
		row := tx.QueryRow(`SELECT valid_until FROM locks WHERE name = ?`, name)
		switch scanErr := row.Scan(&existing); {
		case errors.Is(scanErr, sql.ErrNoRows):
			_, insertErr := tx.Exec(
				`INSERT INTO locks (name, valid_until) VALUES (?, ?)`, name, validUntil,
			)
			return insertErr
		case scanErr != nil:
			return scanErr
		case existing > now:
			return ErrHeld
		default:
			_, updateErr := tx.Exec(
				`UPDATE locks SET valid_until = ? WHERE name = ?`, validUntil, name,
			)
			return updateErr
		}
	})
	if err != nil {
		return nil, err
	}
	return &Lock{mgr: m, name: name}, nil
}

// Release deletes the lock's row immediately, making it available to
// the next acquirer without waiting for TTL expiry.
func (l *Lock) Release() error {
	_, err := l.mgr.db.Exec(`DELETE FROM locks WHERE name = ?`, l.name)
	if err != nil {
		return fmt.Errorf("lockmgr: release %s: %w", l.name, err)
	}
	return nil
}

// Refresh extends valid_until for a long-running operation, the
// periodic renewal spec.md §4.5 describes for "holders refresh
// valid_until periodically for long operations."
func (l *Lock) Refresh(ttl time.Duration) error {
	validUntil := nowSeconds() + ttl.Seconds()
	_, err := l.mgr.db.Exec(
		`UPDATE locks SET valid_until = ? WHERE name = ?`, validUntil, l.name,
	)
	if err != nil {
		return fmt.Errorf("lockmgr: refresh %s: %w", l.name, err)
	}
	return nil
}

func (m *Manager) timeUntilExpiry(name string) (time.Duration, error) {
	var validUntil float64
	row := m.db.QueryRow(`SELECT valid_until FROM locks WHERE name = ?`, name)
	switch err := row.Scan(&validUntil); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("lockmgr: query expiry for %s: %w", name, err)
	}
	remaining := validUntil - nowSeconds()
	if remaining <= 0 {
		return 0, nil
	}
	return time.Duration(remaining * float64(time.Second)), nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
