package ecs

import (
	"cmp"
	"slices"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
)

// ComponentSchemas returns the JSON schema of every registered component, keyed by name.
func (w *World) ComponentSchemas() (map[string]json.RawMessage, error) {
	reflector := &jsonschema.Reflector{
		Anonymous:      true, // Don't add $id based on package path
		ExpandedStruct: true, // Inline the struct fields directly
	}

	schemas := make(map[string]json.RawMessage, w.components.count())
	for name, id := range w.components.catalog {
		data, err := json.Marshal(reflector.ReflectFromType(w.components.types[id]))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to marshal schema of %q", name)
		}
		schemas[name] = data
	}
	return schemas, nil
}

type entityDescription struct {
	ID         EntityID       `json:"id"`
	Archetype  int            `json:"archetype"`
	Components map[string]any `json:"components"`
}

// DescribeEntity returns a JSON document with an entity's id, archetype and component values.
func (w *World) DescribeEntity(id EntityID) ([]byte, error) {
	arch, ok := w.registry.findForEntity(id)
	if !ok {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	row, _ := arch.members.Index(id)

	desc := entityDescription{ID: id, Archetype: arch.id, Components: make(map[string]any, len(arch.columns))}
	for _, col := range arch.columns {
		desc.Components[col.componentName()] = col.getAbstract(row)
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to marshal entity %d", id)
	}
	return data, nil
}

// ArchetypeInfo summarizes one archetype for diagnostics.
type ArchetypeInfo struct {
	ID         int      `json:"id"`
	Components []string `json:"components"`
	Entities   int      `json:"entities"`
}

// Archetypes lists every archetype in creation order.
func (w *World) Archetypes() []ArchetypeInfo {
	infos := make([]ArchetypeInfo, len(w.registry.archetypes))
	for i, arch := range w.registry.archetypes {
		names := make([]string, len(arch.ids))
		for j, cid := range arch.ids {
			names[j] = w.components.name(cid)
		}
		slices.SortFunc(names, cmp.Compare[string])
		infos[i] = ArchetypeInfo{ID: arch.id, Components: names, Entities: arch.len()}
	}
	return infos
}
