package ecs

import (
	"slices"

	"github.com/argus-labs/world-engine/pkg/assert"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// World owns all entities, components, resources and pending updates. A world is not safe for
// concurrent use. While a query is iterating, structural changes must go through Buffer; making
// them directly panics.
type World struct {
	components componentManager
	registry   registry
	entities   entityManager
	changes    changeTracker
	resources  resourceStore
	updates    []worldUpdate
	readers    int
	held       []heldWrite // Write handle values waiting for other iterations to finish
	logger     zerolog.Logger
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithLogger sets the logger used for debug output. The default discards everything.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger.With().Str("component", "ecs").Logger()
	}
}

// NewWorld returns an empty world.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		components: newComponentManager(),
		entities:   newEntityManager(),
		changes:    newChangeTracker(),
		resources:  newResourceStore(),
		logger:     zerolog.Nop(),
	}
	w.registry = newRegistry(&w.components)
	for _, opt := range opts {
		opt(w)
	}
	w.registry.logger = w.logger
	return w
}

// Spawn creates an entity with the given components and returns its id.
func (w *World) Spawn(comps ...Component) (EntityID, error) {
	w.assertExclusive("spawn")
	entries, err := w.resolveBundle(comps)
	if err != nil {
		return 0, err
	}
	id, err := w.entities.allocate()
	if err != nil {
		return 0, err
	}
	w.spawnEntries(id, entries)
	return id, nil
}

func (w *World) spawnEntries(id EntityID, entries []bundleEntry) {
	arch := w.registry.getOrCreate(entryIDs(entries))
	arch.insert(id, entries)
	w.registry.setLocation(id, arch.id)
	for _, e := range entries {
		w.changes.recordInsert(e.id, id, nil)
	}
	logEntity(w.logger, zerolog.TraceLevel, "spawned entity", id, arch.id, entries)
}

// Despawn removes an entity and returns its components. It returns false if the entity does not
// exist.
func (w *World) Despawn(id EntityID) (Bundle, bool) {
	w.assertExclusive("despawn")
	entries, ok := w.despawn(id)
	if !ok {
		return nil, false
	}
	return entryValues(entries), true
}

func (w *World) despawn(id EntityID) ([]bundleEntry, bool) {
	arch, ok := w.registry.findForEntity(id)
	if !ok {
		return nil, false
	}
	entries, ok := arch.remove(id)
	assert.That(ok, "entity %d missing from its archetype %d", id, arch.id)
	w.registry.clearLocation(id)

	for _, e := range entries {
		w.changes.recordRemove(e.id, id, e.value)
	}
	w.entities.release(id, w.changes.references(id))
	logEntity(w.logger, zerolog.TraceLevel, "despawned entity", id, arch.id, entries)
	return entries, true
}

// Alive reports whether id names a spawned entity.
func (w *World) Alive(id EntityID) bool {
	_, ok := w.registry.locations.Get(id)
	return ok
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.registry.entityCount()
}

// Insert adds components to an entity, replacing values of types it already has.
func (w *World) Insert(id EntityID, comps ...Component) error {
	w.assertExclusive("insert components")
	entries, err := w.resolveBundle(comps)
	if err != nil {
		return err
	}
	changes := make([]componentChange, len(entries))
	for i, e := range entries {
		changes[i] = componentChange{id: e.id, value: e.value}
	}
	if !w.modifyEntity(id, changes) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	return nil
}

// Remove removes the given component types from an entity. Types the entity does not have are
// ignored.
func (w *World) Remove(id EntityID, keys ...TypeKey) error {
	w.assertExclusive("remove components")
	if !w.Alive(id) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	w.modifyEntity(id, w.removals(keys))
	return nil
}

// Remove removes component T from an entity and returns the removed value.
func Remove[T Component](w *World, id EntityID) (T, bool) {
	var zero T
	w.assertExclusive("remove a component")
	cid, ok := componentIDOf[T](w)
	if !ok {
		return zero, false
	}
	prev, ok := Get[T](w, id)
	if !ok {
		return zero, false
	}
	w.modifyEntity(id, []componentChange{{id: cid}})
	return prev, true
}

// Get returns a copy of component T of an entity.
func Get[T Component](w *World, id EntityID) (T, bool) {
	var zero T
	cid, ok := componentIDOf[T](w)
	if !ok {
		return zero, false
	}
	arch, ok := w.registry.findForEntity(id)
	if !ok {
		return zero, false
	}
	return getComponent[T](arch, cid, id)
}

// Has reports whether an entity has component T.
func Has[T Component](w *World, id EntityID) bool {
	cid, ok := componentIDOf[T](w)
	if !ok {
		return false
	}
	arch, ok := w.registry.findForEntity(id)
	return ok && arch.hasType(cid)
}

// removals resolves keys to removal changes, skipping types that were never registered.
func (w *World) removals(keys []TypeKey) []componentChange {
	changes := make([]componentChange, 0, len(keys))
	for _, key := range keys {
		if cid, ok := w.components.lookup(string(key)); ok {
			changes = append(changes, componentChange{id: cid})
		}
	}
	return changes
}

// modifyEntity applies changes to an entity in order. Insertions of owned types and removals of
// absent types are handled in place. From the first change that alters the entity's type on, the
// entity is taken out of its archetype, the rest of the changes are applied to the harvested
// components, and the result is stored in the archetype matching the new type. It returns false if
// the entity does not exist.
func (w *World) modifyEntity(id EntityID, changes []componentChange) bool {
	arch, ok := w.registry.findForEntity(id)
	if !ok {
		return false
	}

	i := 0
	for ; i < len(changes); i++ {
		c := changes[i]
		if c.value == nil {
			if arch.hasType(c.id) {
				break
			}
			continue
		}
		if !arch.hasType(c.id) {
			break
		}
		prev := arch.replace(id, bundleEntry{id: c.id, value: c.value})
		w.changes.recordInsert(c.id, id, prev)
	}
	if i == len(changes) {
		return true
	}

	entries, ok := arch.remove(id)
	assert.That(ok, "entity %d missing from its archetype %d", id, arch.id)
	for _, c := range changes[i:] {
		at := slices.IndexFunc(entries, func(e bundleEntry) bool { return e.id == c.id })
		switch {
		case c.value != nil && at >= 0:
			prev := entries[at].value
			entries[at].value = c.value
			w.changes.recordInsert(c.id, id, prev)
		case c.value != nil:
			entries = append(entries, bundleEntry{id: c.id, value: c.value})
			w.changes.recordInsert(c.id, id, nil)
		case at >= 0:
			removed := entries[at].value
			entries = slices.Delete(entries, at, at+1)
			w.changes.recordRemove(c.id, id, removed)
		}
	}
	sortEntries(entries)

	dst := w.registry.getOrCreate(entryIDs(entries))
	dst.insert(id, entries)
	w.registry.setLocation(id, dst.id)
	w.logger.Trace().
		Uint32("entity", uint32(id)).
		Int("from", arch.id).
		Int("to", dst.id).
		Msg("moved entity")
	return true
}

// heldWrite is a value stored through a Write handle while another iteration was running.
type heldWrite struct {
	entity EntityID
	change componentChange
}

// beginRead and endRead bracket query iteration. Writes held back during iteration are applied
// when the last iteration ends.
func (w *World) beginRead() { w.readers++ }

func (w *World) endRead() {
	w.readers--
	if w.readers > 0 || len(w.held) == 0 {
		return
	}
	held := w.held
	w.held = nil
	for _, h := range held {
		w.modifyEntity(h.entity, []componentChange{h.change})
	}
	w.logger.Trace().Int("writes", len(held)).Msg("applied held writes")
}

// commitWrite stores a value set through a Write handle. The calling iteration counts as a
// reader; when it is the only one the value is stored right away, otherwise it is held until
// every iteration has ended.
func (w *World) commitWrite(eid EntityID, change componentChange) {
	if w.readers > 1 {
		w.held = append(w.held, heldWrite{entity: eid, change: change})
		return
	}
	w.modifyEntity(eid, []componentChange{change})
}

func (w *World) assertExclusive(op string) {
	assert.That(w.readers == 0, "cannot %s while %d queries are iterating; use the world's Buffer", op, w.readers)
}
