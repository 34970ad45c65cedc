// Package rotatelog implements a size-based rotating log file writer.
// No rotation library appears in any example repo's go.mod, so this
// stays a small hand-rolled io.WriteCloser against the standard
// library rather than reaching for an out-of-corpus dependency.
package rotatelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer rotates the underlying file once it exceeds MaxBytes,
// keeping up to MaxBackups previous generations as path.1, path.2, ...
// (path.1 is always the most recent backup).
type Writer struct {
	mu         sync.Mutex
	path       string
	maxBytes   int64
	maxBackups int
	file       *os.File
	size       int64
}

// New opens (creating if necessary) the log file at path, ready to
// rotate once it grows past maxBytes. maxBytes <= 0 disables
// size-based rotation; maxBackups <= 0 keeps no backups, truncating on
// rotation instead.
func New(path string, maxBytes int64, maxBackups int) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("rotatelog: mkdir %s: %w", filepath.Dir(path), err)
	}
	w := &Writer{path: path, maxBytes: maxBytes, maxBackups: maxBackups}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) open() error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("rotatelog: open %s: %w", w.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("rotatelog: stat %s: %w", w.path, err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Write implements io.Writer, rotating first if p would push the
// current file past maxBytes.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxBytes > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("rotatelog: write %s: %w", w.path, err)
	}
	return n, nil
}

func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("rotatelog: close %s: %w", w.path, err)
	}

	if w.maxBackups <= 0 {
		if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("rotatelog: remove %s: %w", w.path, err)
		}
		return w.open()
	}

	oldest := fmt.Sprintf("%s.%d", w.path, w.maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotatelog: remove %s: %w", oldest, err)
	}
	for i := w.maxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", w.path, i)
		dst := fmt.Sprintf("%s.%d", w.path, i+1)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("rotatelog: rotate %s -> %s: %w", src, dst, err)
		}
	}
	if err := os.Rename(w.path, w.path+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotatelog: rotate %s -> %s.1: %w", w.path, w.path, err)
	}
	return w.open()
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("rotatelog: close %s: %w", w.path, err)
	}
	return nil
}
