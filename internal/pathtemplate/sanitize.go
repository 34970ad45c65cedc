package pathtemplate

import (
	"errors"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyName is returned by Sanitize when the input reduces to nothing
// usable as a path component.
var ErrEmptyName = errors.New("pathtemplate: sanitized name is empty")

// reservedChars are replaced with "_": path separators plus the
// characters Windows and POSIX both reject or treat specially,
// generalizing reIllegalFileChars in internal/rename/rename.go from a
// fixed "replace with ' - '" behavior to the spec's "_" replacement.
const reservedChars = "/\\:*?\"<>|"

// maxExtBytes is the longest trailing extension Sanitize will preserve
// intact when truncating (spec.md section 4.1 and its boundary behavior
// in section "Testable Properties").
const maxExtBytes = 6

// Sanitize replaces reserved characters with "_", rejects a result that
// is empty or "." or "..", and truncates to maxBytes while preserving a
// trailing extension of at most maxExtBytes bytes (including the dot).
// Unicode normalization happens first so truncation never splits a
// combining-character sequence.
func Sanitize(name string, maxBytes int) (string, error) {
	name = norm.NFC.String(name)

	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(reservedChars, r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(b.String())

	switch cleaned {
	case "", ".", "..":
		return "", ErrEmptyName
	}

	if maxBytes <= 0 || len(cleaned) <= maxBytes {
		return cleaned, nil
	}
	return truncatePreservingExt(cleaned, maxBytes), nil
}

func truncatePreservingExt(name string, maxBytes int) string {
	ext := path.Ext(name)
	if len(ext) > maxExtBytes {
		ext = ""
	}
	budget := maxBytes - len(ext)
	if budget < 1 {
		budget = maxBytes
		ext = ""
	}
	stem := name[:len(name)-len(ext)]
	stem = truncateRuneSafe(stem, budget)
	return stem + ext
}

// truncateRuneSafe cuts s to at most n bytes without splitting a UTF-8
// rune boundary.
func truncateRuneSafe(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
