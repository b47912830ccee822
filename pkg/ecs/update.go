package ecs

import (
	"reflect"
	"time"

	"github.com/rs/zerolog"
)

type updateKind uint8

const (
	updateSpawn updateKind = iota
	updateDespawn
	updateModify
	updateInsertResource
	updateRemoveResource
)

// componentChange is one step of an entity modification: an insertion when value is non-nil,
// otherwise a removal of id.
type componentChange struct {
	id    componentID
	value Component
}

// worldUpdate is a queued mutation. Spawns carry an id reserved when the update was queued.
type worldUpdate struct {
	kind     updateKind
	entity   EntityID
	entries  []bundleEntry
	changes  []componentChange
	resource reflect.Type
	boxed    any
}

func (w *World) enqueue(u worldUpdate) {
	w.updates = append(w.updates, u)
}

// Pending returns the number of queued updates.
func (w *World) Pending() int {
	return len(w.updates)
}

// Discard drops every queued update. Ids reserved by queued spawns are returned to the allocator.
func (w *World) Discard() {
	for _, u := range w.updates {
		if u.kind == updateSpawn {
			w.entities.unreserve(u.entity)
		}
	}
	w.logger.Debug().Int("updates", len(w.updates)).Msg("discarded pending updates")
	w.updates = nil
}

// Flush applies queued updates. Spawns and despawns take effect in queue order. Modifications are
// grouped by entity and each entity's group is replayed once, in queue order, after the spawns and
// despawns; modifications to an entity that a later despawn removed are dropped. Resource updates
// apply last, so the last queued write per type wins.
func (w *World) Flush() {
	w.assertExclusive("flush")
	if len(w.updates) == 0 {
		return
	}

	start := time.Now()
	updates := w.updates
	w.updates = nil

	var (
		modifies  = NewSparseSet[[]componentChange]()
		resources []worldUpdate
		spawned   int
		despawned int
	)
	for _, u := range updates {
		switch u.kind {
		case updateSpawn:
			w.entities.claim(u.entity)
			w.spawnEntries(u.entity, u.entries)
			spawned++
		case updateDespawn:
			if _, ok := w.despawn(u.entity); ok {
				despawned++
			}
			modifies.Remove(u.entity)
		case updateModify:
			if group := modifies.GetPtr(u.entity); group != nil {
				*group = append(*group, u.changes...)
			} else {
				modifies.Insert(u.entity, u.changes)
			}
		case updateInsertResource, updateRemoveResource:
			resources = append(resources, u)
		}
	}

	for eid, changes := range modifies.All() {
		w.modifyEntity(eid, changes)
	}
	for _, u := range resources {
		if u.kind == updateInsertResource {
			w.resources.insert(u.resource, u.boxed)
		} else {
			w.resources.remove(u.resource)
		}
	}
	w.entities.releaseRetired(w.changes.references)

	if w.logger.GetLevel() <= zerolog.DebugLevel {
		w.logger.Debug().
			Int("updates", len(updates)).
			Int("spawned", spawned).
			Int("despawned", despawned).
			Int("modified", modifies.Len()).
			Int("resources", len(resources)).
			Dur("duration", time.Since(start)).
			Msg("flushed pending updates")
	}
}
