package ecs_test

import (
	"testing"

	"github.com/argus-labs/world-engine/pkg/ecs"
	. "github.com/argus-labs/world-engine/pkg/ecs/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_SpawnDuringIteration(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	parent, _ := w.Spawn(Health{Value: 3})

	q, err := ecs.NewQuery[struct {
		ID ecs.EntityID
		HP ecs.Read[Health]
	}](w)
	require.NoError(t, err)

	var children []ecs.EntityID
	for _, item := range q.Iter() {
		for range item.HP.Get().Value {
			child, err := w.Buffer().Spawn(Health{Value: 0}, PlayerTag{Tag: "child"})
			require.NoError(t, err)
			children = append(children, child)
		}
	}
	assert.Equal(t, 3, w.Pending())
	for _, child := range children {
		assert.False(t, w.Alive(child), "queued spawns are invisible until flushed")
		assert.NotEqual(t, parent, child)
	}

	w.Flush()
	assert.Equal(t, 0, w.Pending())
	for _, child := range children {
		assert.True(t, w.Alive(child))
		tag, ok := ecs.Get[PlayerTag](w, child)
		require.True(t, ok)
		assert.Equal(t, "child", tag.Tag)
	}
}

func TestBuffer_ModifyThenDespawnIsDropped(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	require.NoError(t, ecs.TrackChanges[Health](w))
	id, _ := w.Spawn(Position{})
	ecs.QueryChanged[Health](w)

	b := w.Buffer()
	require.NoError(t, b.Insert(id, Health{Value: 5}))
	b.Despawn(id)
	w.Flush()

	assert.False(t, w.Alive(id))
	assert.Empty(t, collectChanges[Health](w), "the dropped insert left no change record")
}

func TestBuffer_ModificationsAreCoalescedInOrder(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)
	require.NoError(t, ecs.TrackChanges[Health](w))
	id, _ := w.Spawn(Position{}, Health{Value: 1})
	ecs.QueryChanged[Health](w)

	b := w.Buffer()
	require.NoError(t, b.Insert(id, Health{Value: 2}, Velocity{X: 1}))
	b.Remove(id, ecs.KeyOf[Velocity]())
	require.NoError(t, b.Insert(id, Health{Value: 3}))
	b.Remove(id, ecs.KeyOf[Position]())
	w.Flush()

	assert.False(t, ecs.Has[Position](w, id))
	assert.False(t, ecs.Has[Velocity](w, id))
	hp, ok := ecs.Get[Health](w, id)
	require.True(t, ok)
	assert.Equal(t, 3, hp.Value)

	changes := collectChanges[Health](w)
	require.Len(t, changes, 1)
	assert.Equal(t, ecs.Modified, changes[0].Kind)
	assert.Equal(t, Health{Value: 1}, changes[0].Previous)
}

func TestBuffer_SpawnThenModifyInSameFlush(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	b := w.Buffer()
	require.NoError(t, b.Insert(0, Velocity{X: 9}))
	id, err := b.Spawn(Position{X: 1})
	require.NoError(t, err)
	require.Equal(t, ecs.EntityID(0), id)
	w.Flush()

	vel, ok := ecs.Get[Velocity](w, id)
	require.True(t, ok, "modifications run after spawns")
	assert.Equal(t, 9, vel.X)
}

func TestBuffer_ResourcesLastWriteWins(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	b := w.Buffer()
	ecs.BufferInsertResource(b, Counter{Value: 1})
	ecs.BufferInsertResource(b, Counter{Value: 2})
	_, ok := ecs.GetResource[Counter](w)
	assert.False(t, ok)

	w.Flush()
	c, ok := ecs.GetResource[Counter](w)
	require.True(t, ok)
	assert.Equal(t, 2, c.Value)

	ecs.BufferRemoveResource[Counter](b)
	w.Flush()
	_, ok = ecs.GetResource[Counter](w)
	assert.False(t, ok)
}

func TestBuffer_Discard(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	b := w.Buffer()
	reserved, err := b.Spawn(Position{})
	require.NoError(t, err)
	b.Despawn(reserved)
	w.Discard()
	assert.Equal(t, 0, w.Pending())

	w.Flush()
	assert.False(t, w.Alive(reserved))

	id, err := w.Spawn(Health{})
	require.NoError(t, err)
	assert.Equal(t, reserved, id, "discarded reservations are returned to the allocator")
}

func TestBuffer_ValidatesAtQueueTime(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t)

	_, err := w.Buffer().Spawn(unregistered{})
	require.ErrorIs(t, err, ecs.ErrComponentNotRegistered)
	require.ErrorIs(t, w.Buffer().Insert(0, Position{}, Position{}), ecs.ErrDuplicateComponent)
	assert.Equal(t, 0, w.Pending())
}
