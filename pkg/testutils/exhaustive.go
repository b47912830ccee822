package testutils

import "github.com/argus-labs/world-engine/pkg/assert"

const maxGenDepth = 32

type genSlot struct {
	value, bound uint32
}

// Gen enumerates every sequence of choices a test body can make. Each pass through the loop
//
//	for g := testutils.NewGen(); !g.Done(); { ... }
//
// replays the previous sequence with the rightmost choice that can still grow incremented and
// every choice after it reset to zero, so the loop visits each combination exactly once.
// See <https://matklad.github.io/2021/11/07/generate-all-the-things.html>.
type Gen struct {
	started bool
	slots   [maxGenDepth]genSlot
	pos     int
	depth   int
}

func NewGen() *Gen {
	return &Gen{}
}

// Done advances to the next combination and reports whether all of them have been visited.
func (g *Gen) Done() bool {
	if !g.started {
		g.started = true
		return false
	}
	for i := g.depth - 1; i >= 0; i-- {
		if g.slots[i].value < g.slots[i].bound {
			g.slots[i].value++
			g.depth = i + 1
			g.pos = 0
			return false
		}
	}
	return true
}

func (g *Gen) next(bound uint32) uint32 {
	assert.That(g.pos < maxGenDepth, "exhaustive generator exceeded depth %d", maxGenDepth)
	if g.pos == g.depth {
		g.slots[g.pos] = genSlot{}
		g.depth++
	}
	g.slots[g.pos].bound = bound
	g.pos++
	return g.slots[g.pos-1].value
}

// Intn returns a value in [0, bound].
func (g *Gen) Intn(bound int) int {
	return int(g.next(uint32(bound))) //nolint:gosec // bound is small in tests
}

// Bool returns false on one pass and true on another.
func (g *Gen) Bool() bool {
	return g.Intn(1) == 1
}

// Pick returns one element of items per pass.
func Pick[T any](g *Gen, items []T) T {
	assert.That(len(items) > 0, "cannot pick from an empty slice")
	return items[g.Intn(len(items)-1)]
}
