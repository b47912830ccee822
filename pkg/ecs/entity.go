package ecs

import (
	"math"

	"github.com/argus-labs/world-engine/pkg/assert"
)

// EntityID identifies an entity within a world. Ids of despawned entities are reused.
type EntityID uint32

// MaxEntityID is the largest id the allocator hands out.
const MaxEntityID = math.MaxUint32 - 1

// entityManager allocates entity ids. Freed ids are reused first-in first-out. An id released
// while the change tracker still holds a record for it waits in retired until the records have
// been consumed, so a reused id is never confused with the entity it used to name.
type entityManager struct {
	nextID   EntityID
	free     []EntityID
	reserved SparseSet[none] // Ids handed out by the buffer whose spawn has not been applied
	retired  []EntityID
}

func newEntityManager() entityManager {
	return entityManager{reserved: NewSparseSet[none]()}
}

func (em *entityManager) allocate() (EntityID, error) {
	if len(em.free) > 0 {
		id := em.free[0]
		em.free = em.free[1:]
		return id, nil
	}
	if em.nextID > MaxEntityID {
		return 0, ErrEntityLimitReached
	}
	id := em.nextID
	em.nextID++
	return id, nil
}

// reserve allocates an id for a spawn that will be applied later.
func (em *entityManager) reserve() (EntityID, error) {
	id, err := em.allocate()
	if err != nil {
		return 0, err
	}
	em.reserved.Insert(id, none{})
	return id, nil
}

// claim marks a reserved id as spawned.
func (em *entityManager) claim(id EntityID) {
	_, ok := em.reserved.Remove(id)
	assert.That(ok, "entity %d was not reserved", id)
}

// unreserve returns a reserved id whose spawn was discarded.
func (em *entityManager) unreserve(id EntityID) {
	if _, ok := em.reserved.Remove(id); ok {
		em.free = append(em.free, id)
	}
}

func (em *entityManager) isReserved(id EntityID) bool {
	return em.reserved.Contains(id)
}

// release frees the id of a despawned entity. When held is true the id is parked until
// releaseRetired is called.
func (em *entityManager) release(id EntityID, held bool) {
	if held {
		em.retired = append(em.retired, id)
		return
	}
	em.free = append(em.free, id)
}

// releaseRetired frees parked ids for which stillHeld returns false.
func (em *entityManager) releaseRetired(stillHeld func(EntityID) bool) {
	kept := em.retired[:0]
	for _, id := range em.retired {
		if stillHeld(id) {
			kept = append(kept, id)
			continue
		}
		em.free = append(em.free, id)
	}
	em.retired = kept
}
