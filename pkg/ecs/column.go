package ecs

import (
	"github.com/argus-labs/world-engine/pkg/assert"
)

const columnInitialCapacity = 16

// abstractColumn is the type-erased view of a column used by archetypes and the change tracker,
// which hold columns of many component types side by side.
type abstractColumn interface {
	len() int
	componentID() componentID
	componentName() string
	// newEmpty returns an empty column of the same component type.
	newEmpty() abstractColumn
	// push appends c and returns its row.
	push(c Component) int
	// replaceAt stores c at row. When row is one past the end c is appended instead and the
	// second result is false.
	replaceAt(row int, c Component) (Component, bool)
	swapRemove(row int) Component
	getAbstract(row int) Component
	clear()
}

var _ abstractColumn = (*column[Component])(nil)

// column is the dense storage for one component type.
type column[T Component] struct {
	id         componentID
	name       string
	components []T
}

func newColumn[T Component](id componentID) *column[T] {
	var zero T
	return &column[T]{
		id:         id,
		name:       zero.Name(),
		components: make([]T, 0, columnInitialCapacity),
	}
}

func (c *column[T]) len() int                 { return len(c.components) }
func (c *column[T]) componentID() componentID { return c.id }
func (c *column[T]) componentName() string    { return c.name }

func (c *column[T]) newEmpty() abstractColumn {
	return &column[T]{id: c.id, name: c.name, components: make([]T, 0, columnInitialCapacity)}
}

func (c *column[T]) get(row int) T {
	return c.components[row]
}

func (c *column[T]) push(component Component) int {
	c.components = append(c.components, c.cast(component))
	return len(c.components) - 1
}

func (c *column[T]) replaceAt(row int, component Component) (Component, bool) {
	value := c.cast(component)
	if row == len(c.components) {
		c.components = append(c.components, value)
		return nil, false
	}
	assert.That(row >= 0 && row < len(c.components), "row %d out of bounds in column %s", row, c.name)
	prev := c.components[row]
	c.components[row] = value
	return prev, true
}

func (c *column[T]) swapRemove(row int) Component {
	assert.That(row >= 0 && row < len(c.components), "row %d out of bounds in column %s", row, c.name)
	removed := c.components[row]
	last := len(c.components) - 1
	c.components[row] = c.components[last]
	var zero T
	c.components[last] = zero
	c.components = c.components[:last]
	return removed
}

func (c *column[T]) getAbstract(row int) Component {
	return c.get(row)
}

func (c *column[T]) clear() {
	clear(c.components)
	c.components = c.components[:0]
}

func (c *column[T]) cast(component Component) T {
	concrete, ok := component.(T)
	assert.That(ok, "column %s received a value of type %T", c.name, component)
	return concrete
}
