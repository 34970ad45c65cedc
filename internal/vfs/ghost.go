package vfs

import (
	"sync"
	"time"
)

// Ghost windows spec.md §4.8.2 defines: a collage-target directory
// stays ghosted for 5s after a release is added to it, a
// newly-written playlist-target file stays ghosted for 2s after its
// writer closes it.
const (
	CollageTargetGhostWindow  = 5 * time.Second
	PlaylistTargetGhostWindow = 2 * time.Second
)

// ghostKind distinguishes the two windows' behavior: a collage ghost
// hides the target's real contents and swallows writes into it; a
// playlist ghost does the opposite — it keeps a file looking present
// after the projection would otherwise make it vanish.
type ghostKind int

const (
	ghostCollageTarget ghostKind = iota
	ghostPlaylistTarget
)

// Ghosts tracks the virtual filesystem's two expiring-policy windows
// (spec.md §4.8.2). fuse.go consults the collage-target entries ahead
// of the real projection (a collage member's Lookup and the ghosted
// release directory's Readdir/Lookup/Create); playlist-target entries
// are recorded but fuse.go does not consult them.
type Ghosts struct {
	mu      sync.Mutex
	entries map[string]ghostKind
	timers  map[string]*time.Timer
}

// NewGhosts constructs an empty ghost table.
func NewGhosts() *Ghosts {
	return &Ghosts{
		entries: make(map[string]ghostKind),
		timers:  make(map[string]*time.Timer),
	}
}

// MarkCollageTarget ghosts path for CollageTargetGhostWindow: reads
// against it return an empty listing and writes into it are discarded
// until the window lapses (spec.md §4.8.2).
func (g *Ghosts) MarkCollageTarget(path string) {
	g.mark(path, ghostCollageTarget, CollageTargetGhostWindow)
}

// MarkPlaylistTarget records path as a playlist-target ghost for
// PlaylistTargetGhostWindow. fuse.go does not read this mark: a file
// copied into a playlist stays visible because the playlist listing
// renders the track under the same file name Create resolved it by.
func (g *Ghosts) MarkPlaylistTarget(path string) {
	g.mark(path, ghostPlaylistTarget, PlaylistTargetGhostWindow)
}

func (g *Ghosts) mark(path string, kind ghostKind, window time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t, ok := g.timers[path]; ok {
		t.Stop()
	}
	g.entries[path] = kind
	g.timers[path] = time.AfterFunc(window, func() {
		g.clear(path)
	})
}

func (g *Ghosts) clear(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, path)
	delete(g.timers, path)
}

// IsCollageTargetGhost reports whether path is currently within its
// collage-target ghost window.
func (g *Ghosts) IsCollageTargetGhost(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	kind, ok := g.entries[path]
	return ok && kind == ghostCollageTarget
}

// IsPlaylistTargetGhost reports whether path is currently within its
// playlist-target ghost window.
func (g *Ghosts) IsPlaylistTargetGhost(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	kind, ok := g.entries[path]
	return ok && kind == ghostPlaylistTarget
}

// Clear removes any ghost entry for path immediately, used when a
// write completes and the caller wants the real projection visible
// right away rather than waiting out the window.
func (g *Ghosts) Clear(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.timers[path]; ok {
		t.Stop()
	}
	delete(g.entries, path)
	delete(g.timers, path)
}
