package vfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/azuline/rose-sub000/internal/model"
)

// FS holds the state every node in the tree shares: the logical
// projector the translator dispatches into, and the ghost-window
// tracker (spec.md §4.8.2) consulted ahead of the real projection.
type FS struct {
	Projector *Projector
	Ghosts    *Ghosts
}

// Mount starts the FUSE server at mountDir. Syscalls are dispatched on
// go-fuse's own background worker pool, bounded by MaxBackground — the
// "worker pool bounded by configured parallelism" spec.md §4.8.3 asks
// for, reusing the synchronizer's MaxParallelism setting rather than
// hand-rolling a second pool for the same concern.
func Mount(mountDir string, projector *Projector) (*fuse.Server, error) {
	root := &rootNode{fsys: &FS{Projector: projector, Ghosts: NewGhosts()}}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:        "rose",
			Name:          "rose",
			MaxBackground: projector.Config.MaxParallelism,
		},
	}
	server, err := fs.Mount(mountDir, root, opts)
	if err != nil {
		return nil, fmt.Errorf("vfs: mount %s: %w", mountDir, err)
	}
	return server, nil
}

func ghostPath(scope, id string) string {
	return scope + "/" + id
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// listKind distinguishes a release-listing directory backed by a real
// query (artist/genre/label/plain release views, read-only membership
// aside from toggling new) from one backed by collage membership
// (mkdir/rmdir add/remove a member).
type listKind int

const (
	listKindPlain listKind = iota
	listKindCollage
)

// rootNode dispatches into the 8 top-level views (spec.md §4.8).
type rootNode struct {
	fs.Inode
	fsys *FS
}

var (
	_ fs.NodeReaddirer = (*rootNode)(nil)
	_ fs.NodeLookuper  = (*rootNode)(nil)
)

func (r *rootNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries := make([]fuse.DirEntry, 0, len(TopLevelViews()))
	for _, v := range TopLevelViews() {
		entries = append(entries, fuse.DirEntry{Name: v, Mode: syscall.S_IFDIR})
	}
	return fs.NewListDirStream(entries), 0
}

func (r *rootNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	switch name {
	case ViewReleases:
		n := newReleaseListNode(r.fsys, r.fsys.Projector.ListReleases, listKindPlain, "")
		return r.NewInode(ctx, n, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	case ViewReleasesNew:
		n := newReleaseListNode(r.fsys, r.fsys.Projector.ListNewReleases, listKindPlain, "")
		return r.NewInode(ctx, n, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	case ViewReleasesRecent:
		n := newReleaseListNode(r.fsys, r.fsys.Projector.ListRecentlyAddedReleases, listKindPlain, "")
		return r.NewInode(ctx, n, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	case ViewArtists:
		return r.NewInode(ctx, &facetNamesNode{fsys: r.fsys, dim: dimArtist}, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	case ViewGenres:
		return r.NewInode(ctx, &facetNamesNode{fsys: r.fsys, dim: dimGenre}, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	case ViewLabels:
		return r.NewInode(ctx, &facetNamesNode{fsys: r.fsys, dim: dimLabel}, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	case ViewCollages:
		return r.NewInode(ctx, &collagesNode{fsys: r.fsys}, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	case ViewPlaylists:
		return r.NewInode(ctx, &playlistsNode{fsys: r.fsys}, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
	default:
		return nil, syscall.ENOENT
	}
}

// releaseListNode projects a set of releases as child directories,
// named by their rendered release folder (spec.md §4.8). It backs
// views 1-3 directly, an artist/genre/label facet directory, and a
// single collage's membership — the kind field distinguishes plain
// (read-only membership, rename toggles new/renames title) from
// collage (mkdir/rmdir add/remove a member).
type releaseListNode struct {
	fs.Inode
	fsys        *FS
	list        func() ([]*model.Release, error)
	kind        listKind
	collageName string

	mu     sync.Mutex
	byName map[string]*model.Release
}

func newReleaseListNode(fsys *FS, list func() ([]*model.Release, error), kind listKind, collageName string) *releaseListNode {
	return &releaseListNode{fsys: fsys, list: list, kind: kind, collageName: collageName}
}

var (
	_ fs.NodeReaddirer = (*releaseListNode)(nil)
	_ fs.NodeLookuper  = (*releaseListNode)(nil)
	_ fs.NodeMkdirer   = (*releaseListNode)(nil)
	_ fs.NodeRmdirer   = (*releaseListNode)(nil)
	_ fs.NodeRenamer   = (*releaseListNode)(nil)
)

func (n *releaseListNode) refresh() (map[string]*model.Release, error) {
	releases, err := n.list()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*model.Release, len(releases))
	for _, r := range releases {
		name, err := n.fsys.Projector.ReleaseDirName(r)
		if err != nil {
			continue
		}
		byName[name] = r
	}
	n.mu.Lock()
	n.byName = byName
	n.mu.Unlock()
	return byName, nil
}

func (n *releaseListNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	byName, err := n.refresh()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(byName))
	for name := range byName {
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFDIR})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *releaseListNode) lookupRelease(name string) (*model.Release, bool) {
	n.mu.Lock()
	r, ok := n.byName[name]
	n.mu.Unlock()
	if ok {
		return r, true
	}
	byName, err := n.refresh()
	if err != nil {
		return nil, false
	}
	r, ok = byName[name]
	return r, ok
}

func (n *releaseListNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	r, ok := n.lookupRelease(name)
	if !ok {
		return nil, syscall.ENOENT
	}
	var ghost string
	if n.kind == listKindCollage {
		ghost = ghostPath(n.collageName, r.ID)
		if n.fsys.Ghosts.IsCollageTargetGhost(ghost) {
			return nil, syscall.ENOENT
		}
	}
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	node := &releaseDirNode{fsys: n.fsys, release: r}
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// Mkdir backs "cp -r R /7. Collages/X/" — the kernel creates the new
// directory before copying R's files into it, so R must be resolved
// from its rendered name (spec.md §4.8.1).
func (n *releaseListNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if n.kind != listKindCollage {
		return nil, syscall.EPERM
	}
	r, err := n.fsys.Projector.ResolveReleaseByRenderedName(name)
	if err != nil {
		return nil, syscall.EIO
	}
	if r == nil {
		return nil, syscall.ENOENT
	}
	if err := n.fsys.Projector.AddReleaseToCollage(n.collageName, r.ID); err != nil {
		return nil, syscall.EIO
	}
	path := ghostPath(n.collageName, r.ID)
	n.fsys.Ghosts.MarkCollageTarget(path)
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	node := &releaseDirNode{fsys: n.fsys, release: r, ghostPath: path}
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

func (n *releaseListNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	r, ok := n.lookupRelease(name)
	if !ok {
		return syscall.ENOENT
	}
	var err error
	if n.kind == listKindCollage {
		err = n.fsys.Projector.RemoveReleaseFromCollage(n.collageName, r.ID)
	} else {
		err = n.fsys.Projector.DeleteRelease(ctx, r.ID)
	}
	if err != nil {
		return syscall.EIO
	}
	return 0
}

// Rename backs both "mv R {NEW} R" (toggle new) and a genuine title
// rename (spec.md §4.8.1). Collage membership isn't renameable in
// place — remove and re-add instead.
func (n *releaseListNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if n.kind == listKindCollage {
		return syscall.EPERM
	}
	r, ok := n.lookupRelease(name)
	if !ok {
		return syscall.ENOENT
	}
	const newMarker = "{NEW} "
	var err error
	switch {
	case newName == newMarker+name:
		err = n.fsys.Projector.ToggleNew(ctx, r.ID)
	case name == newMarker+newName:
		err = n.fsys.Projector.ToggleNew(ctx, r.ID)
	default:
		err = n.fsys.Projector.RenameRelease(ctx, r.ID, newName)
	}
	if err != nil {
		return syscall.EIO
	}
	return 0
}

// facetDimension selects which cache facet a facetNamesNode projects.
type facetDimension int

const (
	dimArtist facetDimension = iota
	dimGenre
	dimLabel
)

// facetNamesNode backs the Artists/Genres/Labels top-level views: its
// children are per-value directories, each a releaseListNode scoped to
// that value (spec.md §4.8).
type facetNamesNode struct {
	fs.Inode
	fsys *FS
	dim  facetDimension
}

var (
	_ fs.NodeReaddirer = (*facetNamesNode)(nil)
	_ fs.NodeLookuper  = (*facetNamesNode)(nil)
)

func (n *facetNamesNode) names() ([]string, error) {
	switch n.dim {
	case dimArtist:
		return n.fsys.Projector.ListArtistNames()
	case dimGenre:
		return n.fsys.Projector.ListGenreNames()
	default:
		return n.fsys.Projector.ListLabelNames()
	}
}

func (n *facetNamesNode) releasesFor(name string) ([]*model.Release, error) {
	switch n.dim {
	case dimArtist:
		return n.fsys.Projector.ListReleasesByArtist(name)
	case dimGenre:
		return n.fsys.Projector.ListReleasesByGenre(name)
	default:
		return n.fsys.Projector.ListReleasesByLabel(name)
	}
}

func (n *facetNamesNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.names()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFDIR})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *facetNamesNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	names, err := n.names()
	if err != nil {
		return nil, syscall.EIO
	}
	if !containsExact(names, name) {
		return nil, syscall.ENOENT
	}
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	value := name
	node := newReleaseListNode(n.fsys, func() ([]*model.Release, error) { return n.releasesFor(value) }, listKindPlain, "")
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// collagesNode backs the top-level Collages/ view: its children are
// per-collage releaseListNodes of kind collage.
type collagesNode struct {
	fs.Inode
	fsys *FS
}

var (
	_ fs.NodeReaddirer = (*collagesNode)(nil)
	_ fs.NodeLookuper  = (*collagesNode)(nil)
	_ fs.NodeMkdirer   = (*collagesNode)(nil)
	_ fs.NodeRmdirer   = (*collagesNode)(nil)
	_ fs.NodeRenamer   = (*collagesNode)(nil)
)

func (n *collagesNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.fsys.Projector.ListCollageNames()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFDIR})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *collagesNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	names, err := n.fsys.Projector.ListCollageNames()
	if err != nil {
		return nil, syscall.EIO
	}
	if !containsExact(names, name) {
		return nil, syscall.ENOENT
	}
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	collageName := name
	node := newReleaseListNode(n.fsys, func() ([]*model.Release, error) {
		return n.fsys.Projector.ListReleasesInCollage(collageName)
	}, listKindCollage, collageName)
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// Mkdir backs "mkdir /7. Collages/X" — create an empty collage.
func (n *collagesNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if err := n.fsys.Projector.CreateCollage(name); err != nil {
		return nil, syscall.EIO
	}
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	collageName := name
	node := newReleaseListNode(n.fsys, func() ([]*model.Release, error) {
		return n.fsys.Projector.ListReleasesInCollage(collageName)
	}, listKindCollage, collageName)
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// Rmdir backs "rmdir /7. Collages/X" — trash the collage TOML.
func (n *collagesNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	if err := n.fsys.Projector.DeleteCollage(name); err != nil {
		return syscall.EIO
	}
	return 0
}

// Rename backs "mv /7. Collages/X /7. Collages/Y".
func (n *collagesNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if _, ok := newParent.(*collagesNode); !ok {
		return syscall.EXDEV
	}
	if err := n.fsys.Projector.RenameCollage(name, newName); err != nil {
		return syscall.EIO
	}
	return 0
}

// playlistsNode backs the top-level Playlists/ view.
type playlistsNode struct {
	fs.Inode
	fsys *FS
}

var (
	_ fs.NodeReaddirer = (*playlistsNode)(nil)
	_ fs.NodeLookuper  = (*playlistsNode)(nil)
	_ fs.NodeMkdirer   = (*playlistsNode)(nil)
	_ fs.NodeRmdirer   = (*playlistsNode)(nil)
	_ fs.NodeRenamer   = (*playlistsNode)(nil)
)

func (n *playlistsNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.fsys.Projector.ListPlaylistNames()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFDIR})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *playlistsNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	names, err := n.fsys.Projector.ListPlaylistNames()
	if err != nil {
		return nil, syscall.EIO
	}
	if !containsExact(names, name) {
		return nil, syscall.ENOENT
	}
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	node := &playlistTracksNode{fsys: n.fsys, name: name}
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

func (n *playlistsNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if err := n.fsys.Projector.CreatePlaylist(name); err != nil {
		return nil, syscall.EIO
	}
	out.Attr.Mode = 0o755 | syscall.S_IFDIR
	node := &playlistTracksNode{fsys: n.fsys, name: name}
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

func (n *playlistsNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	if err := n.fsys.Projector.DeletePlaylist(name); err != nil {
		return syscall.EIO
	}
	return 0
}

func (n *playlistsNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if _, ok := newParent.(*playlistsNode); !ok {
		return syscall.EXDEV
	}
	if err := n.fsys.Projector.RenamePlaylist(name, newName); err != nil {
		return syscall.EIO
	}
	return 0
}

// playlistTracksNode projects a single playlist's ordered tracks as
// files named by their rendered track filename (spec.md §4.8).
type playlistTracksNode struct {
	fs.Inode
	fsys *FS
	name string

	mu     sync.Mutex
	byName map[string]*model.Track
}

var (
	_ fs.NodeReaddirer = (*playlistTracksNode)(nil)
	_ fs.NodeLookuper  = (*playlistTracksNode)(nil)
	_ fs.NodeUnlinker  = (*playlistTracksNode)(nil)
	_ fs.NodeCreater   = (*playlistTracksNode)(nil)
)

func (n *playlistTracksNode) refresh() (map[string]*model.Track, error) {
	tracks, err := n.fsys.Projector.ListTracksInPlaylist(n.name)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*model.Track, len(tracks))
	for _, t := range tracks {
		r, err := n.fsys.Projector.Cache.Release(t.ReleaseID)
		if err != nil || r == nil {
			continue
		}
		all, err := n.fsys.Projector.ListTracksOfRelease(r.ID)
		if err != nil {
			continue
		}
		total := model.TrackTotal(all, t.DiscNumber)
		name, err := n.fsys.Projector.TrackFileName(t, r, total)
		if err != nil {
			continue
		}
		byName[name] = t
	}
	n.mu.Lock()
	n.byName = byName
	n.mu.Unlock()
	return byName, nil
}

func (n *playlistTracksNode) lookupTrack(name string) (*model.Track, bool) {
	n.mu.Lock()
	t, ok := n.byName[name]
	n.mu.Unlock()
	if ok {
		return t, true
	}
	byName, err := n.refresh()
	if err != nil {
		return nil, false
	}
	t, ok = byName[name]
	return t, ok
}

func (n *playlistTracksNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	byName, err := n.refresh()
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(byName))
	for name := range byName {
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFREG})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *playlistTracksNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	t, ok := n.lookupTrack(name)
	if !ok {
		return nil, syscall.ENOENT
	}
	out.Attr.Mode = 0o644 | syscall.S_IFREG
	node := &trackFileNode{fsys: n.fsys, trackID: t.ID}
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG}), 0
}

// Create backs "cp T /8. Playlists/P/": the kernel creates the
// destination file under whatever name the copy uses, which must be
// resolved back to an already-known track (spec.md §4.8.1/§4.8.2).
func (n *playlistTracksNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	t, err := n.fsys.Projector.ResolveTrackByRenderedName(name)
	if err != nil {
		return nil, nil, 0, syscall.EIO
	}
	if t == nil {
		return nil, nil, 0, syscall.ENOENT
	}
	if err := n.fsys.Projector.AddTrackToPlaylist(n.name, t.ID); err != nil {
		return nil, nil, 0, syscall.EIO
	}
	n.fsys.Ghosts.MarkPlaylistTarget(ghostPath(n.name, t.ID))
	out.Attr.Mode = 0o644 | syscall.S_IFREG
	node := &trackFileNode{fsys: n.fsys, trackID: t.ID}
	return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG}), nil, 0, 0
}

func (n *playlistTracksNode) Unlink(ctx context.Context, name string) syscall.Errno {
	t, ok := n.lookupTrack(name)
	if !ok {
		return syscall.ENOENT
	}
	if err := n.fsys.Projector.RemoveTrackFromPlaylist(n.name, t.ID); err != nil {
		return syscall.EIO
	}
	return 0
}

// releaseDirNode projects a single release's directory: its tracks,
// cover art (if any), and sidecar datafile (spec.md §4.8). ghostPath
// is set only when this node was just created by a collage Mkdir, in
// which case its contents stay hidden until the ghost window lapses.
type releaseDirNode struct {
	fs.Inode
	fsys      *FS
	release   *model.Release
	ghostPath string
}

var (
	_ fs.NodeReaddirer = (*releaseDirNode)(nil)
	_ fs.NodeLookuper  = (*releaseDirNode)(nil)
	_ fs.NodeCreater   = (*releaseDirNode)(nil)
	_ fs.NodeUnlinker  = (*releaseDirNode)(nil)
)

func (n *releaseDirNode) ghosted() bool {
	return n.ghostPath != "" && n.fsys.Ghosts.IsCollageTargetGhost(n.ghostPath)
}

func (n *releaseDirNode) coverName() string {
	if n.release.CoverArtPath == "" {
		return ""
	}
	return "cover" + filepath.Ext(n.release.CoverArtPath)
}

func (n *releaseDirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	if n.ghosted() {
		return fs.NewListDirStream(nil), 0
	}
	tracks, err := n.fsys.Projector.ListTracksOfRelease(n.release.ID)
	if err != nil {
		return nil, syscall.EIO
	}
	entries := make([]fuse.DirEntry, 0, len(tracks)+2)
	for _, t := range tracks {
		total := model.TrackTotal(tracks, t.DiscNumber)
		name, err := n.fsys.Projector.TrackFileName(t, n.release, total)
		if err != nil {
			continue
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: syscall.S_IFREG})
	}
	if cover := n.coverName(); cover != "" {
		entries = append(entries, fuse.DirEntry{Name: cover, Mode: syscall.S_IFREG})
	}
	entries = append(entries, fuse.DirEntry{Name: n.fsys.Projector.DatafileName(n.release.ID), Mode: syscall.S_IFREG})
	return fs.NewListDirStream(entries), 0
}

func (n *releaseDirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if n.ghosted() {
		return nil, syscall.ENOENT
	}
	if name == n.fsys.Projector.DatafileName(n.release.ID) {
		out.Attr.Mode = 0o444 | syscall.S_IFREG
		node := &datafileFileNode{fsys: n.fsys, releaseID: n.release.ID}
		return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG}), 0
	}
	if cover := n.coverName(); cover != "" && name == cover {
		out.Attr.Mode = 0o644 | syscall.S_IFREG
		node := &coverFileNode{fsys: n.fsys, releaseID: n.release.ID, ext: strings.TrimPrefix(filepath.Ext(cover), ".")}
		return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG}), 0
	}
	tracks, err := n.fsys.Projector.ListTracksOfRelease(n.release.ID)
	if err != nil {
		return nil, syscall.EIO
	}
	for _, t := range tracks {
		total := model.TrackTotal(tracks, t.DiscNumber)
		rendered, err := n.fsys.Projector.TrackFileName(t, n.release, total)
		if err != nil {
			continue
		}
		if rendered == name {
			out.Attr.Mode = 0o644 | syscall.S_IFREG
			node := &trackFileNode{fsys: n.fsys, trackID: t.ID}
			return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG}), 0
		}
	}
	return nil, syscall.ENOENT
}

// Create backs "cp img .../cover.jpg" when the release has no cover
// yet, and absorbs writes into a ghosted collage-target directory
// (spec.md §4.8.1/§4.8.2).
func (n *releaseDirNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	if n.ghosted() {
		out.Attr.Mode = 0o644 | syscall.S_IFREG
		node := &discardFileNode{}
		return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG}), nil, 0, 0
	}
	if strings.HasPrefix(name, "cover.") {
		out.Attr.Mode = 0o644 | syscall.S_IFREG
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		node := &coverFileNode{fsys: n.fsys, releaseID: n.release.ID, ext: ext}
		return n.NewInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG}), nil, 0, 0
	}
	return nil, nil, 0, syscall.EPERM
}

// Unlink backs "rm .../cover.jpg" — remove the cover.
func (n *releaseDirNode) Unlink(ctx context.Context, name string) syscall.Errno {
	if cover := n.coverName(); cover != "" && name == cover {
		if err := n.fsys.Projector.RemoveCoverArt(ctx, n.release.ID); err != nil {
			return syscall.EIO
		}
		return 0
	}
	return syscall.EPERM
}

// trackFileNode passes a release track's audio file straight through
// to storage (spec.md §4.8: "writes to track content ... passthrough +
// scheduled refresh").
type trackFileNode struct {
	fs.Inode
	fsys    *FS
	trackID string
}

var (
	_ fs.NodeGetattrer = (*trackFileNode)(nil)
	_ fs.NodeOpener    = (*trackFileNode)(nil)
	_ fs.NodeReader    = (*trackFileNode)(nil)
	_ fs.NodeWriter    = (*trackFileNode)(nil)
)

func (n *trackFileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, err := n.fsys.Projector.ReadTrackBytes(n.trackID)
	if err != nil {
		return syscall.EIO
	}
	out.Mode = 0o644 | syscall.S_IFREG
	out.Size = uint64(len(data))
	return 0
}

func (n *trackFileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, 0, 0
}

func (n *trackFileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.fsys.Projector.ReadTrackBytes(n.trackID)
	if err != nil {
		return nil, syscall.EIO
	}
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), 0
}

// Write rereads the whole file, splices in data at off, and writes it
// back through the projector, which schedules the refresh spec.md
// §4.8.1 requires before the syscall returns. Simple and correct at
// the library's scale; a streaming writer would need per-handle
// buffering this translator doesn't attempt.
func (n *trackFileNode) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	existing, err := n.fsys.Projector.ReadTrackBytes(n.trackID)
	if err != nil {
		existing = nil
	}
	need := off + int64(len(data))
	if int64(len(existing)) < need {
		grown := make([]byte, need)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[off:], data)
	if err := n.fsys.Projector.WriteTrackBytes(ctx, n.trackID, existing); err != nil {
		return 0, syscall.EIO
	}
	return uint32(len(data)), 0
}

// coverFileNode buffers a cover-art write in memory and commits it
// through SetCoverArt on Flush, so a single kernel write (or a few)
// becomes one storage write rather than one per chunk.
type coverFileNode struct {
	fs.Inode
	fsys      *FS
	releaseID string
	ext       string

	mu  sync.Mutex
	buf []byte
}

var (
	_ fs.NodeGetattrer = (*coverFileNode)(nil)
	_ fs.NodeOpener    = (*coverFileNode)(nil)
	_ fs.NodeReader    = (*coverFileNode)(nil)
	_ fs.NodeWriter    = (*coverFileNode)(nil)
	_ fs.NodeFlusher   = (*coverFileNode)(nil)
)

func (n *coverFileNode) sourceBytes() []byte {
	r, err := n.fsys.Projector.Cache.Release(n.releaseID)
	if err != nil || r == nil || r.CoverArtPath == "" {
		return nil
	}
	data, _ := os.ReadFile(r.CoverArtPath)
	return data
}

func (n *coverFileNode) currentBytes() []byte {
	n.mu.Lock()
	buf := n.buf
	n.mu.Unlock()
	if buf != nil {
		return buf
	}
	return n.sourceBytes()
}

func (n *coverFileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0o644 | syscall.S_IFREG
	out.Size = uint64(len(n.currentBytes()))
	return 0
}

func (n *coverFileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, 0, 0
}

func (n *coverFileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data := n.currentBytes()
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), 0
}

func (n *coverFileNode) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	n.mu.Lock()
	defer n.mu.Unlock()
	need := off + int64(len(data))
	if int64(len(n.buf)) < need {
		grown := make([]byte, need)
		copy(grown, n.buf)
		n.buf = grown
	}
	copy(n.buf[off:], data)
	return uint32(len(data)), 0
}

func (n *coverFileNode) Flush(ctx context.Context, f fs.FileHandle) syscall.Errno {
	n.mu.Lock()
	buf := n.buf
	n.buf = nil
	n.mu.Unlock()
	if buf == nil {
		return 0
	}
	if err := n.fsys.Projector.SetCoverArt(ctx, n.releaseID, buf, n.ext); err != nil {
		return syscall.EIO
	}
	return 0
}

// datafileFileNode exposes a release's .rose.{uuid}.toml sidecar
// read-only through the projection.
type datafileFileNode struct {
	fs.Inode
	fsys      *FS
	releaseID string
}

var (
	_ fs.NodeGetattrer = (*datafileFileNode)(nil)
	_ fs.NodeOpener    = (*datafileFileNode)(nil)
	_ fs.NodeReader    = (*datafileFileNode)(nil)
)

func (n *datafileFileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, err := n.fsys.Projector.ReadDatafileBytes(n.releaseID)
	if err != nil {
		return syscall.EIO
	}
	out.Mode = 0o444 | syscall.S_IFREG
	out.Size = uint64(len(data))
	return 0
}

func (n *datafileFileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *datafileFileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.fsys.Projector.ReadDatafileBytes(n.releaseID)
	if err != nil {
		return nil, syscall.EIO
	}
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), 0
}

// discardFileNode backs writes into a ghosted collage-target
// directory: the kernel believes it wrote a file, but there is nothing
// to persist since the release already exists at its real location
// (spec.md §4.8.2).
type discardFileNode struct {
	fs.Inode
}

var (
	_ fs.NodeGetattrer = (*discardFileNode)(nil)
	_ fs.NodeWriter    = (*discardFileNode)(nil)
)

func (n *discardFileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = 0o644 | syscall.S_IFREG
	return 0
}

func (n *discardFileNode) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	return uint32(len(data)), 0
}
