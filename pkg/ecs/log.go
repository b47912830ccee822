package ecs

import (
	"github.com/rs/zerolog"
)

func componentArray(entries []bundleEntry) *zerolog.Array {
	arr := zerolog.Arr()
	for _, e := range entries {
		arr = arr.Dict(zerolog.Dict().
			Uint32("component_id", e.id).
			Str("component_name", e.value.Name()))
	}
	return arr
}

// logEntity logs an entity together with its archetype and components.
func logEntity(
	logger zerolog.Logger, level zerolog.Level, msg string,
	eid EntityID, aid archetypeID, entries []bundleEntry,
) {
	if logger.GetLevel() > level {
		return
	}
	logger.WithLevel(level).
		Uint32("entity_id", uint32(eid)).
		Int("archetype_id", aid).
		Array("components", componentArray(entries)).
		Msg(msg)
}

// LogSummary logs the registered components and archetypes of the world at the given level.
func (w *World) LogSummary(level zerolog.Level) {
	components := zerolog.Arr()
	for id := range w.components.count() {
		cid := componentID(id) //nolint:gosec // bounded by registration
		components = components.Dict(zerolog.Dict().
			Uint32("component_id", cid).
			Str("component_name", w.components.name(cid)).
			Bool("tracked", w.changes.tracked(cid)))
	}
	w.logger.WithLevel(level).
		Int("total_components", w.components.count()).
		Array("components", components).
		Int("total_archetypes", len(w.registry.archetypes)).
		Int("total_entities", w.Len()).
		Int("pending_updates", len(w.updates)).
		Msg("world summary")
}
