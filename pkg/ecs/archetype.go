package ecs

import (
	"iter"
	"slices"

	"github.com/argus-labs/world-engine/pkg/assert"
	"github.com/kelindar/bitmap"
)

type archetypeID = int

// archetype stores every entity that has exactly the same set of component types. Members and
// column rows share one order: the entity at dense position i of members owns row i of every
// column.
type archetype struct {
	id        archetypeID
	signature bitmap.Bitmap   // Set of component ids owned by this archetype
	ids       []componentID   // Sorted component ids, parallel to columns
	members   SparseSet[none] // Entity id to row
	columns   []abstractColumn
}

type none = struct{}

func newArchetype(aid archetypeID, ids []componentID, columns []abstractColumn) *archetype {
	assert.That(len(ids) == len(columns), "archetype needs one column per component type")
	assert.That(slices.IsSorted(ids), "archetype component ids must be sorted")

	var signature bitmap.Bitmap
	for _, id := range ids {
		signature.Set(id)
	}
	return &archetype{
		id:        aid,
		signature: signature,
		ids:       ids,
		members:   NewSparseSet[none](),
		columns:   columns,
	}
}

func (a *archetype) len() int {
	return a.members.Len()
}

func (a *archetype) contains(eid EntityID) bool {
	return a.members.Contains(eid)
}

func (a *archetype) hasType(id componentID) bool {
	return a.signature.Contains(id)
}

// exact reports whether the archetype owns exactly the given (sorted) component ids.
func (a *archetype) exact(ids []componentID) bool {
	return slices.Equal(a.ids, ids)
}

// superset reports whether every component in other is owned by the archetype.
func (a *archetype) superset(other bitmap.Bitmap) bool {
	want := other.Count()
	if want == 0 {
		return true
	}
	inter := other.Clone(nil)
	inter.And(a.signature)
	return inter.Count() == want
}

// disjoint reports whether the archetype owns none of the components in other.
func (a *archetype) disjoint(other bitmap.Bitmap) bool {
	if other.Count() == 0 {
		return true
	}
	inter := other.Clone(nil)
	inter.And(a.signature)
	return inter.Count() == 0
}

func (a *archetype) column(id componentID) (abstractColumn, bool) {
	i, ok := slices.BinarySearch(a.ids, id)
	if !ok {
		return nil, false
	}
	return a.columns[i], true
}

// entities iterates over members in row order.
func (a *archetype) entities() iter.Seq2[int, EntityID] {
	return func(yield func(int, EntityID) bool) {
		for row, eid := range a.members.Keys() {
			if !yield(row, eid) {
				return
			}
		}
	}
}

// -------------------------------------------------------------------------------------------------
// Entity operations
// -------------------------------------------------------------------------------------------------

// insert writes entries for eid. A new member must receive a value for every owned column. For an
// existing member the entries replace stored values, and the previous values are returned aligned
// with entries (nil where nothing was replaced). Entries for types the archetype does not own are
// skipped.
func (a *archetype) insert(eid EntityID, entries []bundleEntry) []Component {
	row, existing := a.members.Index(eid)
	if !existing {
		row = a.members.Len()
		a.members.Insert(eid, none{})
	}

	replaced := make([]Component, len(entries))
	written := 0
	for i, e := range entries {
		col, owned := a.column(e.id)
		if !owned {
			continue
		}
		if prev, ok := col.replaceAt(row, e.value); ok {
			replaced[i] = prev
		}
		written++
	}

	if !existing {
		assert.That(written == len(a.columns),
			"entity %d inserted into archetype %d with %d of %d components", eid, a.id, written, len(a.columns))
	}
	a.assertAligned()
	return replaced
}

// replace overwrites one owned component of an existing member and returns the previous value.
func (a *archetype) replace(eid EntityID, e bundleEntry) Component {
	row, ok := a.members.Index(eid)
	assert.That(ok, "entity %d is not a member of archetype %d", eid, a.id)
	col, owned := a.column(e.id)
	assert.That(owned, "archetype %d does not own component %d", a.id, e.id)
	prev, replaced := col.replaceAt(row, e.value)
	assert.That(replaced, "row %d of archetype %d has no value to replace", row, a.id)
	return prev
}

// remove takes eid out of the archetype and returns its components sorted by id.
func (a *archetype) remove(eid EntityID) ([]bundleEntry, bool) {
	row, ok := a.members.Index(eid)
	if !ok {
		return nil, false
	}

	entries := make([]bundleEntry, len(a.columns))
	for i, col := range a.columns {
		entries[i] = bundleEntry{id: a.ids[i], value: col.swapRemove(row)}
	}
	a.members.Remove(eid)
	a.assertAligned()
	return entries, true
}

func (a *archetype) assertAligned() {
	if !assert.Enabled {
		return
	}
	for _, col := range a.columns {
		assert.That(col.len() == a.members.Len(),
			"column %s has %d rows but archetype %d has %d members",
			col.componentName(), col.len(), a.id, a.members.Len())
	}
}

// getComponent returns the value of T stored for eid.
func getComponent[T Component](a *archetype, id componentID, eid EntityID) (T, bool) {
	var zero T
	row, ok := a.members.Index(eid)
	if !ok {
		return zero, false
	}
	col, ok := a.column(id)
	if !ok {
		return zero, false
	}
	typed, ok := col.(*column[T])
	assert.That(ok, "column %s does not hold %T", col.componentName(), zero)
	return typed.get(row), true
}
