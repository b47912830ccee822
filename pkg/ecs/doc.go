// Package ecs is an in-memory archetype entity component system.
//
// Entities are plain ids. Each entity's components are stored in the archetype that matches its
// exact set of component types, one dense column per type, so queries walk contiguous memory and
// skip whole archetypes that cannot match.
//
// A World is single-threaded. Direct mutations (Spawn, Despawn, Insert, Remove) require that no
// query is iterating. Inside an iteration, changes are queued on World.Buffer and applied by
// World.Flush, and component values are updated through Write fields, which take effect as the
// iterator advances.
//
// Component types can opt into change tracking with TrackChanges. QueryChanged then reports, for
// each entity touched since the previous call, the net change: Added, Modified (with the value
// before the first modification) or Removed (with the removed value).
package ecs
