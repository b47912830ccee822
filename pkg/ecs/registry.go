package ecs

import (
	"github.com/argus-labs/world-engine/pkg/assert"
	"github.com/rs/zerolog"
)

// registry owns every archetype of a world along with the caches that locate them: archetypes by
// exact signature, matching archetypes by query pattern, and the archetype of each live entity.
type registry struct {
	components  *componentManager
	archetypes  []*archetype
	bySignature map[string]archetypeID
	queries     map[string]*queryCacheEntry
	locations   SparseSet[archetypeID]
	logger      zerolog.Logger
}

type queryCacheEntry struct {
	pattern    queryPattern
	archetypes []archetypeID
}

func newRegistry(components *componentManager) registry {
	return registry{
		components:  components,
		bySignature: make(map[string]archetypeID),
		queries:     make(map[string]*queryCacheEntry),
		locations:   NewSparseSet[archetypeID](),
		logger:      zerolog.Nop(),
	}
}

// getOrCreate returns the archetype owning exactly ids, which must be sorted and unique. A newly
// created archetype is appended to every cached query result it matches.
func (r *registry) getOrCreate(ids []componentID) *archetype {
	key := signatureKey(ids)
	if aid, ok := r.bySignature[key]; ok {
		return r.archetypes[aid]
	}

	columns := make([]abstractColumn, len(ids))
	for i, id := range ids {
		columns[i] = r.components.newColumn(id)
	}
	aid := len(r.archetypes)
	arch := newArchetype(aid, ids, columns)
	r.archetypes = append(r.archetypes, arch)
	r.bySignature[key] = aid

	extended := 0
	for _, entry := range r.queries {
		if entry.pattern.matches(arch) {
			entry.archetypes = append(entry.archetypes, aid)
			extended++
		}
	}
	r.logger.Debug().
		Int("archetype_id", aid).
		Str("signature", key).
		Int("queries_extended", extended).
		Msg("created archetype")
	return arch
}

// lookup returns the archetype owning exactly ids without creating it.
func (r *registry) lookup(ids []componentID) (*archetype, bool) {
	aid, ok := r.bySignature[signatureKey(ids)]
	if !ok {
		return nil, false
	}
	return r.archetypes[aid], true
}

// query returns the ids of archetypes matching p in creation order. Results are memoized per
// pattern key and extended as archetypes are created.
func (r *registry) query(p *queryPattern) []archetypeID {
	if entry, ok := r.queries[p.key]; ok {
		return entry.archetypes
	}

	entry := &queryCacheEntry{pattern: *p}
	if !p.unsatisfiable() {
		for _, arch := range r.archetypes {
			if p.matches(arch) {
				entry.archetypes = append(entry.archetypes, arch.id)
			}
		}
	}
	r.queries[p.key] = entry
	return entry.archetypes
}

// findForEntity returns the archetype holding eid.
func (r *registry) findForEntity(eid EntityID) (*archetype, bool) {
	aid, ok := r.locations.Get(eid)
	if !ok {
		return nil, false
	}
	arch := r.archetypes[aid]
	assert.That(arch.contains(eid), "entity %d is recorded in archetype %d but not stored there", eid, aid)
	return arch, true
}

func (r *registry) setLocation(eid EntityID, aid archetypeID) {
	r.locations.Insert(eid, aid)
}

func (r *registry) clearLocation(eid EntityID) {
	_, ok := r.locations.Remove(eid)
	assert.That(ok, "entity %d has no recorded archetype", eid)
}

func (r *registry) entityCount() int {
	return r.locations.Len()
}
