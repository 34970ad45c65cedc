package collage

// Lookup resolves a UUID against current cache state, returning the
// entity's freshly-rendered description label and whether it still
// exists. internal/scan supplies this backed by the cache plus
// internal/pathtemplate.
type Lookup func(uuid string) (descriptionMeta string, exists bool)

// Reconcile implements spec.md §4.6.5: for each entry, if the UUID
// still resolves, clear Missing and refresh DescriptionMeta from the
// current template render; if not, set Missing and leave
// DescriptionMeta untouched (preserving the last-known label). Entry
// order and position are preserved either way. changed reports
// whether anything in the file differs from before, so the caller
// knows whether the cosmetic rewrite (§4.6.5's "only case where the
// synchronizer writes to source files") is actually needed.
func Reconcile(entries []Entry, lookup Lookup) (reconciled []Entry, changed bool) {
	reconciled = make([]Entry, len(entries))
	for i, e := range entries {
		desc, exists := lookup(e.UUID)
		out := e
		if exists {
			if out.Missing {
				out.Missing = false
				changed = true
			}
			if out.DescriptionMeta != desc {
				out.DescriptionMeta = desc
				changed = true
			}
		} else if !out.Missing {
			out.Missing = true
			changed = true
		}
		reconciled[i] = out
	}
	return reconciled, changed
}
