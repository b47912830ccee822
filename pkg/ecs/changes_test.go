package ecs_test

import (
	"slices"
	"testing"

	"github.com/argus-labs/world-engine/pkg/ecs"
	. "github.com/argus-labs/world-engine/pkg/ecs/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectChanges[T ecs.Component](w *ecs.World) []ecs.Change[T] {
	return slices.Collect(ecs.QueryChanged[T](w))
}

func TestChanges_ModifiedKeepsEarliestPrevious(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	id, err := w.Spawn(Position{X: 1, Y: 2})
	require.NoError(t, err)
	require.NoError(t, ecs.TrackChanges[Position](w))

	require.NoError(t, w.Insert(id, Position{X: 3, Y: 4}))
	require.NoError(t, w.Insert(id, Position{X: 5, Y: 6}))

	changes := collectChanges[Position](w)
	require.Len(t, changes, 1)
	assert.Equal(t, ecs.Change[Position]{
		ID:          id,
		Kind:        ecs.Modified,
		Previous:    Position{X: 1, Y: 2},
		HasPrevious: true,
		Current:     Position{X: 5, Y: 6},
		HasCurrent:  true,
	}, changes[0])

	assert.Empty(t, collectChanges[Position](w), "changes are consumed")
}

func TestChanges_Folding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  func(t *testing.T, w *ecs.World, id ecs.EntityID)
		want []ecs.Change[Health]
	}{
		{
			name: "added then modified stays added",
			run: func(t *testing.T, w *ecs.World, id ecs.EntityID) {
				require.NoError(t, w.Insert(id, Health{Value: 1}))
				require.NoError(t, w.Insert(id, Health{Value: 2}))
			},
			want: []ecs.Change[Health]{{Kind: ecs.Added, Current: Health{Value: 2}, HasCurrent: true}},
		},
		{
			name: "added then removed leaves nothing",
			run: func(t *testing.T, w *ecs.World, id ecs.EntityID) {
				require.NoError(t, w.Insert(id, Health{Value: 1}))
				_, ok := ecs.Remove[Health](w, id)
				require.True(t, ok)
			},
			want: nil,
		},
		{
			name: "removed then added becomes modified",
			run: func(t *testing.T, w *ecs.World, id ecs.EntityID) {
				require.NoError(t, w.Insert(id, Health{Value: 1}))
				ecs.QueryChanged[Health](w)
				_, ok := ecs.Remove[Health](w, id)
				require.True(t, ok)
				require.NoError(t, w.Insert(id, Health{Value: 7}))
			},
			want: []ecs.Change[Health]{{
				Kind: ecs.Modified, Previous: Health{Value: 1}, HasPrevious: true,
				Current: Health{Value: 7}, HasCurrent: true,
			}},
		},
		{
			name: "modified then removed keeps original",
			run: func(t *testing.T, w *ecs.World, id ecs.EntityID) {
				require.NoError(t, w.Insert(id, Health{Value: 1}))
				ecs.QueryChanged[Health](w)
				require.NoError(t, w.Insert(id, Health{Value: 2}))
				require.NoError(t, w.Remove(id, ecs.KeyOf[Health]()))
			},
			want: []ecs.Change[Health]{{Kind: ecs.Removed, Previous: Health{Value: 1}, HasPrevious: true}},
		},
		{
			name: "despawn records removal",
			run: func(t *testing.T, w *ecs.World, id ecs.EntityID) {
				require.NoError(t, w.Insert(id, Health{Value: 4}))
				ecs.QueryChanged[Health](w)
				_, ok := w.Despawn(id)
				require.True(t, ok)
			},
			want: []ecs.Change[Health]{{Kind: ecs.Removed, Previous: Health{Value: 4}, HasPrevious: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := newTestWorld(t)
			require.NoError(t, ecs.TrackChanges[Health](w))
			id, err := w.Spawn(Position{})
			require.NoError(t, err)

			tt.run(t, w, id)

			got := collectChanges[Health](w)
			for i := range tt.want {
				tt.want[i].ID = id
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChanges_SpawnRecordsAdded(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	require.NoError(t, ecs.TrackChanges[Position](w))

	id, err := w.Spawn(Position{X: 1}, Health{})
	require.NoError(t, err)

	changes := collectChanges[Position](w)
	require.Len(t, changes, 1)
	assert.Equal(t, id, changes[0].ID)
	assert.Equal(t, ecs.Added, changes[0].Kind)
	assert.False(t, changes[0].HasPrevious)

	assert.Empty(t, collectChanges[Health](w), "untracked types report nothing")
}

func TestChanges_WriteHandleRecordsModification(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	id, _ := w.Spawn(Position{X: 1}, Velocity{X: 1})
	require.NoError(t, ecs.TrackChanges[Position](w))

	q, err := ecs.NewQuery[mover](w)
	require.NoError(t, err)
	for range 3 {
		for _, m := range q.Iter() {
			p, v := m.Pos.Get(), m.Vel.Get()
			m.Pos.Set(Position{X: p.X + v.X})
		}
	}

	changes := collectChanges[Position](w)
	require.Len(t, changes, 1)
	assert.Equal(t, id, changes[0].ID)
	assert.Equal(t, ecs.Modified, changes[0].Kind)
	assert.Equal(t, Position{X: 1}, changes[0].Previous)
	assert.Equal(t, Position{X: 4}, changes[0].Current)
}

func TestChanges_DespawnedIDIsHeldUntilConsumed(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	require.NoError(t, ecs.TrackChanges[Health](w))

	id, err := w.Spawn(Health{Value: 1})
	require.NoError(t, err)
	ecs.QueryChanged[Health](w)
	w.Despawn(id)

	other, err := w.Spawn(Position{})
	require.NoError(t, err)
	assert.NotEqual(t, id, other, "id still referenced by a change record")

	changes := collectChanges[Health](w)
	require.Len(t, changes, 1)
	assert.Equal(t, ecs.Removed, changes[0].Kind)

	reused, err := w.Spawn(Position{})
	require.NoError(t, err)
	assert.Equal(t, id, reused)
}

func TestChanges_TrackingIsNotRetroactive(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	id, _ := w.Spawn(Health{Value: 1})
	require.NoError(t, w.Insert(id, Health{Value: 2}))

	require.NoError(t, ecs.TrackChanges[Health](w))
	assert.Empty(t, collectChanges[Health](w))

	require.NoError(t, ecs.TrackChanges[Health](w), "tracking twice is a no-op")
}

func TestChanges_QueryChangedCapturesCurrentValues(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	require.NoError(t, ecs.TrackChanges[Health](w))

	id, err := w.Spawn(Health{Value: 1})
	require.NoError(t, err)

	changes := ecs.QueryChanged[Health](w)
	require.NoError(t, w.Insert(id, Health{Value: 2}))
	w.Flush()

	got := slices.Collect(changes)
	require.Len(t, got, 1)
	assert.Equal(t, ecs.Added, got[0].Kind)
	assert.Equal(t, Health{Value: 1}, got[0].Current, "value as of the call, not as of iteration")

	// The call consumed the Added record; the later insert is the only change left.
	next := collectChanges[Health](w)
	require.Len(t, next, 1)
	assert.Equal(t, ecs.Modified, next[0].Kind)
	assert.Equal(t, Health{Value: 1}, next[0].Previous)
	assert.Equal(t, Health{Value: 2}, next[0].Current)
}
