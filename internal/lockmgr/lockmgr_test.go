package lockmgr

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	if err := CreateTable(sqlDB); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return sqlDB
}

func TestAcquireRelease(t *testing.T) {
	mgr := New(setupTestDB(t))

	lock, err := mgr.TryAcquire(ReleaseLockName("abc"), time.Minute)
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}

	if _, err := mgr.TryAcquire(ReleaseLockName("abc"), time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("second TryAcquire() error = %v, want ErrHeld", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	if _, err := mgr.TryAcquire(ReleaseLockName("abc"), time.Minute); err != nil {
		t.Fatalf("TryAcquire() after release error = %v", err)
	}
}

func TestAcquireRetriesUntilExpiry(t *testing.T) {
	mgr := New(setupTestDB(t))

	if _, err := mgr.TryAcquire(CacheUpdateLockName, 50*time.Millisecond); err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}

	start := time.Now()
	lock, err := mgr.Acquire(CacheUpdateLockName, time.Minute)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Acquire() returned after %v, expected to wait for expiry", elapsed)
	}
	_ = lock.Release()
}

func TestRefreshExtendsExpiry(t *testing.T) {
	mgr := New(setupTestDB(t))

	lock, err := mgr.TryAcquire(PlaylistLockName("favorites"), 30*time.Millisecond)
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if err := lock.Refresh(time.Minute); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := mgr.TryAcquire(PlaylistLockName("favorites"), time.Minute); !errors.Is(err, ErrHeld) {
		t.Errorf("TryAcquire() after refresh error = %v, want ErrHeld (lock should still be live)", err)
	}
}

func TestDistinctNamesDoNotConflict(t *testing.T) {
	mgr := New(setupTestDB(t))

	if _, err := mgr.TryAcquire(CollageLockName("best-of"), time.Minute); err != nil {
		t.Fatalf("TryAcquire(collage) error = %v", err)
	}
	if _, err := mgr.TryAcquire(CollageLockName("worst-of"), time.Minute); err != nil {
		t.Fatalf("TryAcquire(other collage) error = %v", err)
	}
}
