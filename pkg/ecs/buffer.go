package ecs

import (
	"reflect"
)

// Buffer queues structural changes to a world so they can be requested while queries are
// iterating. Nothing queued is visible until World.Flush.
type Buffer struct {
	world *World
}

// Buffer returns the world's update queue.
func (w *World) Buffer() *Buffer {
	return &Buffer{world: w}
}

// Spawn queues a new entity and returns the id it will have once flushed.
func (b *Buffer) Spawn(comps ...Component) (EntityID, error) {
	entries, err := b.world.resolveBundle(comps)
	if err != nil {
		return 0, err
	}
	id, err := b.world.entities.reserve()
	if err != nil {
		return 0, err
	}
	b.world.enqueue(worldUpdate{kind: updateSpawn, entity: id, entries: entries})
	return id, nil
}

// Despawn queues the removal of an entity. Despawning an entity that no longer exists when the
// buffer is flushed is a no-op.
func (b *Buffer) Despawn(id EntityID) {
	b.world.enqueue(worldUpdate{kind: updateDespawn, entity: id})
}

// Insert queues the insertion of components on an entity.
func (b *Buffer) Insert(id EntityID, comps ...Component) error {
	entries, err := b.world.resolveBundle(comps)
	if err != nil {
		return err
	}
	changes := make([]componentChange, len(entries))
	for i, e := range entries {
		changes[i] = componentChange{id: e.id, value: e.value}
	}
	b.world.enqueue(worldUpdate{kind: updateModify, entity: id, changes: changes})
	return nil
}

// Remove queues the removal of component types from an entity.
func (b *Buffer) Remove(id EntityID, keys ...TypeKey) {
	changes := b.world.removals(keys)
	if len(changes) == 0 {
		return
	}
	b.world.enqueue(worldUpdate{kind: updateModify, entity: id, changes: changes})
}

// BufferInsertResource queues storing value as the resource of type T.
func BufferInsertResource[T any](b *Buffer, value T) {
	b.world.enqueue(worldUpdate{kind: updateInsertResource, resource: reflect.TypeFor[T](), boxed: &value})
}

// BufferRemoveResource queues removing the resource of type T.
func BufferRemoveResource[T any](b *Buffer) {
	b.world.enqueue(worldUpdate{kind: updateRemoveResource, resource: reflect.TypeFor[T]()})
}
