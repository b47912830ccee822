package ecs

import (
	"testing"

	. "github.com/argus-labs/world-engine/pkg/ecs/internal/testutils"
	"github.com/argus-labs/world-engine/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestComponents(t *testing.T, w *World) []componentID {
	t.Helper()
	ids := make([]componentID, 0, 4)
	for _, register := range []func(*World) (componentID, error){
		registerComponent[Position],
		registerComponent[Velocity],
		registerComponent[Health],
		registerComponent[PlayerTag],
	} {
		id, err := register(w)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestRegistry_GetOrCreateIsIdempotent(t *testing.T) {
	t.Parallel()
	w := NewWorld()
	ids := registerTestComponents(t, w)

	a := w.registry.getOrCreate([]componentID{ids[0], ids[2]})
	b := w.registry.getOrCreate([]componentID{ids[0], ids[2]})
	assert.Same(t, a, b)

	empty := w.registry.getOrCreate(nil)
	assert.NotEqual(t, a.id, empty.id)
	assert.Empty(t, empty.columns)
	assert.Len(t, w.registry.archetypes, 2)
}

// Property: for every combination of required and excluded types, the cached query result equals
// a linear scan over all archetypes, whether the query was cached before or after the archetypes
// were created.
func TestRegistry_QueryCacheMatchesScan(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)
	w := NewWorld()
	ids := registerTestComponents(t, w)

	var early []queryPattern
	for g := testutils.NewGen(); !g.Done(); {
		var b patternBuilder
		for _, id := range ids {
			switch g.Intn(2) {
			case 1:
				b.require(id)
			case 2:
				b.exclude(id)
			}
		}
		p := b.build()
		w.registry.query(&p)
		early = append(early, p)
	}
	require.Len(t, early, 81)

	for range 16 {
		subset := normalizeIDs(testutils.RandSubset(prng, ids))
		w.registry.getOrCreate(subset)
	}

	for _, p := range early {
		var want []archetypeID
		for _, arch := range w.registry.archetypes {
			if p.matches(arch) {
				want = append(want, arch.id)
			}
		}
		assert.Equal(t, want, w.registry.query(&p), "pattern %q", p.key)
	}
}

func TestQueryPattern_Normalization(t *testing.T) {
	t.Parallel()

	a := patternBuilder{required: []componentID{3, 1, 3}, excluded: []componentID{2}}
	b := patternBuilder{required: []componentID{1, 3}, excluded: []componentID{2, 2}}
	pa, pb := a.build(), b.build()
	assert.Equal(t, pa.key, pb.key)
	assert.Equal(t, []componentID{1, 3}, pa.required)

	c := patternBuilder{required: []componentID{1}, excluded: []componentID{1}}
	pc := c.build()
	assert.True(t, pc.unsatisfiable())
	assert.False(t, pa.unsatisfiable())
}

func TestRegistry_FindForEntity(t *testing.T) {
	t.Parallel()
	w := NewWorld()
	registerTestComponents(t, w)

	id, err := w.Spawn(Position{}, Health{})
	require.NoError(t, err)

	arch, ok := w.registry.findForEntity(id)
	require.True(t, ok)
	assert.True(t, arch.contains(id))

	_, ok = w.registry.findForEntity(id + 1)
	assert.False(t, ok)
}
