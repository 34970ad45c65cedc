// Package strset provides a small ordered, deduplicated string sequence.
//
// Release/track attributes like genres, labels, and descriptors are
// case-preserving sequences with first-occurrence-wins deduplication
// (spec.md section 3); this mirrors the ad hoc dedup-by-contains loops
// that internal/rename used to build over the note-type lists.
package strset

import "strings"

// Ordered is an ordered sequence of strings, deduplicated case-insensitively
// while preserving the casing and position of the first occurrence.
type Ordered struct {
	values []string
	seen   map[string]int // lowercased value -> index in values
}

// NewOrdered builds an Ordered set from an initial slice of values.
func NewOrdered(values ...string) *Ordered {
	o := &Ordered{seen: make(map[string]int, len(values))}
	for _, v := range values {
		o.Add(v)
	}
	return o
}

// Add appends v if not already present (case-insensitively). It returns
// true if v was newly added.
func (o *Ordered) Add(v string) bool {
	if o.seen == nil {
		o.seen = make(map[string]int)
	}
	key := strings.ToLower(v)
	if _, ok := o.seen[key]; ok {
		return false
	}
	o.seen[key] = len(o.values)
	o.values = append(o.values, v)
	return true
}

// Remove drops every value equal to v (case-insensitively).
func (o *Ordered) Remove(v string) {
	key := strings.ToLower(v)
	if _, ok := o.seen[key]; !ok {
		return
	}
	filtered := o.values[:0]
	o.seen = make(map[string]int, len(o.values))
	for _, existing := range o.values {
		if strings.ToLower(existing) == key {
			continue
		}
		o.seen[strings.ToLower(existing)] = len(filtered)
		filtered = append(filtered, existing)
	}
	o.values = filtered
}

// Contains reports whether v is present (case-insensitively).
func (o *Ordered) Contains(v string) bool {
	_, ok := o.seen[strings.ToLower(v)]
	return ok
}

// Values returns the sequence in insertion order. The returned slice must
// not be mutated.
func (o *Ordered) Values() []string {
	return o.values
}

// Len returns the number of distinct values.
func (o *Ordered) Len() int {
	return len(o.values)
}

// Dedup returns values with first-occurrence-wins deduplication, dropping
// empty strings. Used by the rules engine after an action produces a new
// multi-value list (spec.md section 4.7.3).
func Dedup(values []string) []string {
	o := &Ordered{seen: make(map[string]int, len(values))}
	for _, v := range values {
		if v == "" {
			continue
		}
		o.Add(v)
	}
	return o.Values()
}
