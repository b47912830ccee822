package ecs

import (
	"cmp"
	"slices"

	"github.com/rotisserie/eris"
)

// Bundle is a set of components of distinct types, as returned by Despawn.
type Bundle []Component

// bundleEntry is a component paired with its resolved id. Entry slices handed to archetypes are
// sorted by id.
type bundleEntry struct {
	id    componentID
	value Component
}

// resolveBundle validates comps and returns them sorted by component id.
func (w *World) resolveBundle(comps []Component) ([]bundleEntry, error) {
	entries := make([]bundleEntry, len(comps))
	for i, c := range comps {
		id, err := w.components.idOf(c)
		if err != nil {
			return nil, err
		}
		entries[i] = bundleEntry{id: id, value: c}
	}
	sortEntries(entries)
	for i := 1; i < len(entries); i++ {
		if entries[i].id == entries[i-1].id {
			return nil, eris.Wrapf(ErrDuplicateComponent, "component %q", entries[i].value.Name())
		}
	}
	return entries, nil
}

func sortEntries(entries []bundleEntry) {
	slices.SortFunc(entries, func(a, b bundleEntry) int { return cmp.Compare(a.id, b.id) })
}

func entryIDs(entries []bundleEntry) []componentID {
	ids := make([]componentID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

func entryValues(entries []bundleEntry) Bundle {
	values := make(Bundle, len(entries))
	for i, e := range entries {
		values[i] = e.value
	}
	return values
}
