package ecs

import (
	"testing"

	"github.com/argus-labs/world-engine/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------------------------------------------------------------------------------
// Model-based fuzzing
//
// Applies random insert/get/remove sequences to a SparseSet and to a Go map and asserts that both
// agree, and that the dense and sparse halves of the set stay consistent after every operation.
// -------------------------------------------------------------------------------------------------

type sparseOp uint8

const (
	sparseOpInsert sparseOp = 55
	sparseOpRemove sparseOp = 35
	sparseOpGet    sparseOp = 10
)

func TestSparseSet_ModelBasedFuzz(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)

	impl := NewSparseSet[int]()
	model := make(map[EntityID]int)

	const (
		opsMax = 1 << 14
		maxKey = 5_000
	)

	for range opsMax {
		key := EntityID(prng.IntN(maxKey))

		switch testutils.RandWeightedOp(prng, []sparseOp{sparseOpInsert, sparseOpRemove, sparseOpGet}) {
		case sparseOpInsert:
			value := prng.Int()
			_, existed := model[key]
			isNew := impl.Insert(key, value)
			model[key] = value

			// Property: Insert reports a new key exactly when the model did not have it.
			assert.Equal(t, !existed, isNew, "Insert(%d) newness mismatch", key)

		case sparseOpRemove:
			if len(model) > 0 && prng.Float64() < 0.8 {
				key = testutils.RandMapKey(prng, model)
			}
			gotImpl, okImpl := impl.Remove(key)
			gotModel, okModel := model[key]
			delete(model, key)

			// Property: Remove returns the stored value and existence the model reports.
			assert.Equal(t, okModel, okImpl, "Remove(%d) existence mismatch", key)
			assert.Equal(t, gotModel, gotImpl, "Remove(%d) value mismatch", key)
			assert.False(t, impl.Contains(key), "Remove(%d) then Contains", key)

		case sparseOpGet:
			if len(model) > 0 && prng.Float64() < 0.8 {
				key = testutils.RandMapKey(prng, model)
			}
			gotImpl, okImpl := impl.Get(key)
			gotModel, okModel := model[key]

			// Property: Get agrees with the model.
			assert.Equal(t, okModel, okImpl, "Get(%d) existence mismatch", key)
			assert.Equal(t, gotModel, gotImpl, "Get(%d) value mismatch", key)
		}

		// Property: the dense key slice and the sparse index are inverse of each other.
		require.Equal(t, len(model), impl.Len())
		for i, k := range impl.Keys() {
			idx, ok := impl.Index(k)
			require.True(t, ok)
			require.Equal(t, i, idx)
		}
	}

	for key, want := range model {
		got, ok := impl.Get(key)
		assert.True(t, ok, "key %d should exist", key)
		assert.Equal(t, want, got, "key %d value mismatch", key)
	}
}

func TestSparseSet_ZeroValue(t *testing.T) {
	t.Parallel()

	var s SparseSet[string]
	_, ok := s.Get(3)
	assert.False(t, ok)
	assert.Nil(t, s.GetPtr(3))

	s.Insert(1000, "far")
	got, ok := s.Get(1000)
	require.True(t, ok)
	assert.Equal(t, "far", got)
}

func TestSparseSet_RemoveMovesLastIntoHole(t *testing.T) {
	t.Parallel()

	s := NewSparseSet[string]()
	s.Insert(1, "a")
	s.Insert(2, "b")
	s.Insert(3, "c")

	v, ok := s.Remove(1)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, []EntityID{3, 2}, s.Keys())

	var values []string
	for _, v := range s.All() {
		values = append(values, v)
	}
	assert.Equal(t, []string{"c", "b"}, values)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(2))
}
