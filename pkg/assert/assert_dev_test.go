//go:build !release

package assert_test

import (
	"testing"

	"github.com/argus-labs/world-engine/pkg/assert"
	"github.com/stretchr/testify/require"
)

func TestThat(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() { assert.That(true, "never") })

	defer func() {
		r := recover()
		v, ok := r.(*assert.Violation)
		require.True(t, ok, "expected *assert.Violation, got %T", r)
		require.Equal(t, "entity 7 is missing", v.Message)
		require.Contains(t, v.Error(), "invariant violated")
	}()
	assert.That(false, "entity %d is missing", 7)
}
