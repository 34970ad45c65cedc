package codec

import "strings"

// multiValueSeparators is the fixed split-on-any-of set for multi-value
// fields read from a single-string tag frame (genres, labels,
// descriptors), per spec.md section 4.2.
var multiValueSeparators = []string{" \\ ", " / ", ";", " vs. "}

// JoinMultiValue serializes a multi-value field for writing to a single
// tag frame, using ";" as the canonical join delimiter.
func JoinMultiValue(values []string) string {
	return strings.Join(values, ";")
}

// SplitMultiValue parses a single tag-frame string into a multi-value
// sequence, splitting on any separator in multiValueSeparators and
// trimming whitespace around each piece. Empty pieces are dropped.
func SplitMultiValue(s string) []string {
	if s == "" {
		return nil
	}
	pieces := []string{s}
	for _, sep := range multiValueSeparators {
		var next []string
		for _, p := range pieces {
			next = append(next, strings.Split(p, sep)...)
		}
		pieces = next
	}
	var out []string
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
