// Package scan implements the Read-Cache Synchronizer's scan pass
// (spec.md §4.6.3): it walks the source tree, reconciles each release
// directory's on-disk tags against the cache, and batch-applies the
// result. Modeled on internal/library/scanner.go's refresh structure —
// discovery phase, baseline diff, bounded worker pool, single-transaction
// batch apply — generalized from a music player's read-only mirror to a
// bidirectional synchronizer that can also mint IDs and write tags back.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/azuline/rose-sub000/internal/cache"
	"github.com/azuline/rose-sub000/internal/config"
	"github.com/azuline/rose-sub000/internal/lockmgr"
	"github.com/azuline/rose-sub000/internal/model"
)

// shardThreshold is the release count at which Scan partitions work
// across a worker pool instead of running inline (spec.md §4.6.4).
const shardThreshold = 50

// cacheUpdateLockTTL bounds how long a single scan pass may hold the
// "cache-update" advisory lock before another caller's Acquire treats
// it as abandoned and steals it.
const cacheUpdateLockTTL = 5 * time.Minute

// Scanner owns the dependencies a scan pass needs: the cache to read
// and write, the configuration governing ignore rules/cover art/rename
// templates, and the Lock Manager serializing concurrent scans.
type Scanner struct {
	Cache  *cache.Cache
	Config *config.Config
}

// New constructs a Scanner over an already-open cache and config.
func New(c *cache.Cache, cfg *config.Config) *Scanner {
	return &Scanner{Cache: c, Config: cfg}
}

// Options controls one Scan invocation.
type Options struct {
	// Dirs restricts the scan to these release directories (absolute or
	// source-root-relative); empty means every immediate subdirectory of
	// the source root save the ignore list and !collages/!playlists.
	Dirs []string
	// Force disables the freshness skip (step 2) and the half-written
	// directory skip (step 1), re-reading every file unconditionally.
	Force bool
	// Progress, if non-nil, receives one update per release processed.
	Progress chan<- Progress
}

// Report summarizes one Scan call, returned even on partial failure
// (spec.md §4.6.6: per-release failures are logged and skipped, only a
// database write failure aborts the whole pass).
type Report struct {
	Scanned int
	Updated int
	Skipped int
	Failed  int
	Errors  []ReleaseError
}

// ReleaseError pairs a release directory with the error that caused it
// to be skipped.
type ReleaseError struct {
	Dir string
	Err error
}

// Scan runs one synchronization pass over dirs (or the whole source
// root when opts.Dirs is empty).
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Report, error) {
	lock, err := s.Cache.Locks.Acquire(lockmgr.CacheUpdateLockName, cacheUpdateLockTTL)
	if err != nil {
		return nil, fmt.Errorf("scan: acquire cache-update lock: %w", err)
	}
	defer lock.Release()

	dirs, err := s.resolveDirs(opts.Dirs)
	if err != nil {
		return nil, fmt.Errorf("scan: resolve directories: %w", err)
	}

	report := &Report{}
	results := make([]*releaseResult, len(dirs))

	process := func(i int) {
		select {
		case <-ctx.Done():
			results[i] = &releaseResult{dir: dirs[i], err: ctx.Err()}
			return
		default:
		}
		res, err := s.processRelease(dirs[i], opts.Force)
		if errors.Is(err, errHalfWritten) {
			results[i] = &releaseResult{dir: dirs[i], skipped: true}
			return
		}
		if err != nil {
			results[i] = &releaseResult{dir: dirs[i], err: err}
			return
		}
		res.dir = dirs[i]
		results[i] = res
		if opts.Progress != nil {
			opts.Progress <- Progress{Phase: PhaseScanning, Current: i + 1, Total: len(dirs), Dir: dirs[i]}
		}
	}

	if len(dirs) >= shardThreshold && s.Config.MaxParallelism > 1 {
		s.runSharded(dirs, process)
	} else {
		// Below the threshold, run inline on the calling goroutine. This
		// also covers the FUSE-triggered rescan path, which must never
		// fork a worker pool from a request thread (spec.md §4.6.4/§5).
		for i := range dirs {
			process(i)
		}
	}

	var upserts []cache.ReleaseUpsert
	for _, res := range results {
		if res == nil {
			continue
		}
		report.Scanned++
		switch {
		case res.err != nil:
			report.Failed++
			report.Errors = append(report.Errors, ReleaseError{Dir: res.dir, Err: res.err})
		case res.skipped:
			report.Skipped++
		default:
			report.Updated++
			upserts = append(upserts, cache.ReleaseUpsert{
				Release:     res.release,
				SourceMtime: res.sourceMtime,
				Tracks:      res.tracks,
			})
		}
	}

	deletedReleases, deletedTracks, err := s.orphans(dirs, upserts)
	if err != nil {
		return report, fmt.Errorf("scan: compute orphans: %w", err)
	}

	if len(upserts) > 0 || len(deletedReleases) > 0 || len(deletedTracks) > 0 {
		if err := s.Cache.ApplyScan(upserts, deletedReleases, deletedTracks); err != nil {
			return report, fmt.Errorf("scan: apply batch: %w", err)
		}
	}

	if err := s.reconcileCollagesAndPlaylists(); err != nil {
		return report, fmt.Errorf("scan: reconcile collages/playlists: %w", err)
	}

	return report, nil
}

func (s *Scanner) runSharded(dirs []string, process func(i int)) {
	n := s.Config.MaxParallelism
	if n < 1 {
		n = 1
	}
	workCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				process(i)
			}
		}()
	}
	for i := range dirs {
		workCh <- i
	}
	close(workCh)
	wg.Wait()
}

// resolveDirs expands opts.Dirs (if given) or lists the source root's
// immediate subdirectories, excluding !collages, !playlists, and the
// configured ignore list (spec.md §4.6.3 "Input").
func (s *Scanner) resolveDirs(requested []string) ([]string, error) {
	if len(requested) > 0 {
		out := make([]string, len(requested))
		for i, d := range requested {
			if filepath.IsAbs(d) {
				out[i] = d
			} else {
				out[i] = filepath.Join(s.Config.SourceDir, d)
			}
		}
		return out, nil
	}

	entries, err := os.ReadDir(s.Config.SourceDir)
	if err != nil {
		return nil, err
	}

	ignore := make(map[string]bool, len(s.Config.Ignore)+2)
	ignore["!collages"] = true
	ignore["!playlists"] = true
	for _, name := range s.Config.Ignore {
		ignore[name] = true
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || ignore[e.Name()] {
			continue
		}
		dirs = append(dirs, filepath.Join(s.Config.SourceDir, e.Name()))
	}
	sort.Strings(dirs)
	return dirs, nil
}

type releaseResult struct {
	dir         string
	release     *model.Release
	tracks      []*model.Track
	sourceMtime string
	skipped     bool
	err         error
}

// Progress reports per-release scan advancement to a caller-supplied
// channel (ported from internal/library/scanner.go's ScanProgress,
// since a long scan with no feedback would regress the teacher's UX
// even though spec.md is silent on progress reporting).
type Progress struct {
	Phase   Phase
	Current int
	Total   int
	Dir     string
}

// Phase enumerates the stages Progress can report.
type Phase int

const (
	PhaseDiscovering Phase = iota
	PhaseScanning
	PhaseReconciling
)
