package ecs

import (
	"iter"
	"slices"

	"github.com/argus-labs/world-engine/pkg/assert"
)

// ChangeKind describes what happened to a tracked component on an entity since the last time its
// changes were consumed.
type ChangeKind uint8

const (
	// Added means the entity gained the component.
	Added ChangeKind = iota + 1
	// Modified means the component was replaced. The value before the first replacement is kept.
	Modified
	// Removed means the entity lost the component, including by being despawned.
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// changeRecord is the net change for one entity. prev indexes the set's previous column and is
// meaningful for Modified and Removed.
type changeRecord struct {
	kind ChangeKind
	prev int
}

// changeSet is one generation of records for a single component type.
type changeSet struct {
	records  SparseSet[changeRecord]
	previous abstractColumn
}

func newChangeSet(proto abstractColumn) *changeSet {
	return &changeSet{records: NewSparseSet[changeRecord](), previous: proto.newEmpty()}
}

// changeTracker keeps a change set per tracked component type. Records are folded so that each
// entity carries at most one net change per generation.
type changeTracker struct {
	sets map[componentID]*changeSet
}

func newChangeTracker() changeTracker {
	return changeTracker{sets: make(map[componentID]*changeSet)}
}

func (ct *changeTracker) track(id componentID, proto abstractColumn) {
	if _, ok := ct.sets[id]; ok {
		return
	}
	ct.sets[id] = newChangeSet(proto)
}

func (ct *changeTracker) tracked(id componentID) bool {
	_, ok := ct.sets[id]
	return ok
}

// recordInsert folds an insertion of component id on eid. replaced is the value that was
// overwritten, or nil.
func (ct *changeTracker) recordInsert(id componentID, eid EntityID, replaced Component) {
	set, ok := ct.sets[id]
	if !ok {
		return
	}

	rec := set.records.GetPtr(eid)
	if rec == nil {
		if replaced != nil {
			set.records.Insert(eid, changeRecord{kind: Modified, prev: set.previous.push(replaced)})
		} else {
			set.records.Insert(eid, changeRecord{kind: Added, prev: -1})
		}
		return
	}

	switch rec.kind {
	case Added, Modified:
		// The earliest record already describes the net change.
	case Removed:
		assert.That(replaced == nil,
			"component %s on entity %d was replaced after being removed", set.previous.componentName(), eid)
		rec.kind = Modified
	}
}

// recordRemove folds a removal of component id from eid. removed is the value that was taken out.
func (ct *changeTracker) recordRemove(id componentID, eid EntityID, removed Component) {
	set, ok := ct.sets[id]
	if !ok {
		return
	}

	rec := set.records.GetPtr(eid)
	if rec == nil {
		set.records.Insert(eid, changeRecord{kind: Removed, prev: set.previous.push(removed)})
		return
	}

	switch rec.kind {
	case Added:
		set.records.Remove(eid)
	case Modified:
		rec.kind = Removed
	case Removed:
		assert.That(false, "component %s removed twice from entity %d", set.previous.componentName(), eid)
	}
}

// consume hands out the current generation for id and starts a new one.
func (ct *changeTracker) consume(id componentID) (*changeSet, bool) {
	set, ok := ct.sets[id]
	if !ok {
		return nil, false
	}
	ct.sets[id] = newChangeSet(set.previous)
	return set, true
}

// references reports whether any generation still holds a record for eid.
func (ct *changeTracker) references(eid EntityID) bool {
	for _, set := range ct.sets {
		if set.records.Contains(eid) {
			return true
		}
	}
	return false
}

// Change is the net change of a component on one entity. Previous is set for Modified and Removed,
// Current for Added and Modified while the entity still has the component.
type Change[T Component] struct {
	ID          EntityID
	Kind        ChangeKind
	Previous    T
	HasPrevious bool
	Current     T
	HasCurrent  bool
}

// TrackChanges starts recording changes to component type T. Only changes made after this call are
// recorded. Calling it again has no effect.
func TrackChanges[T Component](w *World) error {
	id, err := registerComponent[T](w)
	if err != nil {
		return err
	}
	w.changes.track(id, w.components.prototypes[id])
	return nil
}

// QueryChanged consumes the changes recorded for T since the previous call and returns them. The
// changes are consumed by the call itself, whether or not the result is iterated, and the next call
// only sees changes made after this one. Current values are captured by the call, so the result
// does not reflect later mutations. The result is empty when T is not tracked.
func QueryChanged[T Component](w *World) iter.Seq[Change[T]] {
	id, ok := componentIDOf[T](w)
	if !ok {
		return func(func(Change[T]) bool) {}
	}
	set, ok := w.changes.consume(id)
	if !ok {
		return func(func(Change[T]) bool) {}
	}
	w.entities.releaseRetired(w.changes.references)

	previous, ok := set.previous.(*column[T])
	assert.That(ok, "change set for %s holds the wrong type", set.previous.componentName())

	changes := make([]Change[T], 0, set.records.Len())
	for eid, rec := range set.records.All() {
		change := Change[T]{ID: eid, Kind: rec.kind}
		if rec.kind == Modified || rec.kind == Removed {
			change.Previous, change.HasPrevious = previous.get(rec.prev), true
		}
		if rec.kind != Removed {
			change.Current, change.HasCurrent = Get[T](w, eid)
		}
		changes = append(changes, change)
	}
	return slices.Values(changes)
}
