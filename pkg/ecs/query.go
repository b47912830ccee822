package ecs

import (
	"iter"
	"reflect"

	"github.com/argus-labs/world-engine/pkg/assert"
	"github.com/rotisserie/eris"
)

// fetcher is implemented by the field types of a query struct. register reports the component
// the field reads, if any. reset prepares a fresh field for one call to Iter, and bind points it
// at one entity's row during that iteration.
type fetcher interface {
	register(w *World) (id componentID, requires bool, err error)
	reset(id componentID)
	bind(arch *archetype, row int, eid EntityID)
	release(w *World, eid EntityID)
}

var (
	_ fetcher = (*Read[Component])(nil)
	_ fetcher = (*Write[Component])(nil)
	_ fetcher = (*EntityID)(nil)
)

// binding points a fetch field at one row of one archetype's column for T.
type binding[T Component] struct {
	id   componentID
	arch *archetype
	col  *column[T]
	row  int
}

func (b *binding[T]) point(arch *archetype, row int) {
	if b.arch != arch {
		col, ok := arch.column(b.id)
		assert.That(ok, "archetype %d matched a query but has no column for component %d", arch.id, b.id)
		typed, ok := col.(*column[T])
		assert.That(ok, "column %s does not hold the requested type", col.componentName())
		b.arch, b.col = arch, typed
	}
	b.row = row
}

// Read gives read-only access to component T of the current entity. A query field of type Read[T]
// restricts the query to entities that have T.
type Read[T Component] struct {
	binding[T]
}

// Get returns the component value.
func (r Read[T]) Get() T {
	assert.That(r.col != nil, "Read used outside of query iteration")
	return r.col.get(r.row)
}

func (r *Read[T]) register(w *World) (componentID, bool, error) {
	id, err := registerComponent[T](w)
	return id, true, err
}

func (r *Read[T]) reset(id componentID) {
	r.binding = binding[T]{id: id}
}

func (r *Read[T]) bind(arch *archetype, row int, _ EntityID) {
	r.point(arch, row)
}

func (r *Read[T]) release(*World, EntityID) {}

// Write gives access to component T of the current entity. Values passed to Set are stored when
// the iterator advances to the next entity. While another query is iterating the world, stored
// values are held back until the last iteration finishes, so no iteration sees another one's
// writes part way through.
type Write[T Component] struct {
	binding[T]
	state *writeState[T]
}

// writeState is shared by every copy of a Write yielded by one call to Iter.
type writeState[T Component] struct {
	pending T
	dirty   bool
	live    bool
}

// Get returns the value staged by Set, or the stored value if nothing has been staged.
func (r Write[T]) Get() T {
	assert.That(r.col != nil, "Write used outside of query iteration")
	if r.state.dirty {
		return r.state.pending
	}
	return r.col.get(r.row)
}

// Set stages a new value for the component. It must be called before the iterator advances.
func (r Write[T]) Set(value T) {
	assert.That(r.state != nil && r.state.live, "Write.Set called outside of query iteration")
	r.state.pending = value
	r.state.dirty = true
}

func (r *Write[T]) register(w *World) (componentID, bool, error) {
	id, err := registerComponent[T](w)
	return id, true, err
}

func (r *Write[T]) reset(id componentID) {
	r.binding = binding[T]{id: id}
	r.state = &writeState[T]{}
}

func (r *Write[T]) bind(arch *archetype, row int, _ EntityID) {
	r.point(arch, row)
	r.state.live = true
}

func (r *Write[T]) release(w *World, eid EntityID) {
	r.state.live = false
	if !r.state.dirty {
		return
	}
	value := r.state.pending
	var zero T
	r.state.pending, r.state.dirty = zero, false
	w.commitWrite(eid, componentChange{id: r.id, value: value})
}

func (e *EntityID) register(*World) (componentID, bool, error) { return 0, false, nil }

func (e *EntityID) reset(componentID) { *e = 0 }

func (e *EntityID) bind(_ *archetype, _ int, eid EntityID) { *e = eid }

func (e *EntityID) release(*World, EntityID) {}

// Query iterates over entities matching a fetch struct F and a set of filters. Each exported field
// of F must be a Read[T], a Write[T] or an EntityID.
//
// Example:
//
//	q, err := ecs.NewQuery[struct {
//		ID  ecs.EntityID
//		Pos ecs.Write[Position]
//		Vel ecs.Read[Velocity]
//	}](w, ecs.Without[Frozen]())
//	for _, m := range q.Iter() {
//		p, v := m.Pos.Get(), m.Vel.Get()
//		m.Pos.Set(Position{X: p.X + v.X, Y: p.Y + v.Y})
//	}
type Query[F any] struct {
	world   *World
	pattern queryPattern
	ids     []componentID // Component id of each field of F, zero for EntityID fields
}

// NewQuery validates F and builds the query pattern. Component types mentioned by F or by the
// filters are registered with the world if they are not already.
func NewQuery[F any](w *World, filters ...Filter) (*Query[F], error) {
	typ := reflect.TypeFor[F]()
	if typ.Kind() != reflect.Struct {
		return nil, eris.Wrapf(ErrInvalidQuery, "%s is not a struct", typ)
	}

	q := &Query[F]{world: w}
	var sample F
	value := reflect.ValueOf(&sample).Elem()
	var b patternBuilder
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			return nil, eris.Wrapf(ErrInvalidQuery, "field %s of %s is not exported", field.Name, typ)
		}
		f, ok := value.Field(i).Addr().Interface().(fetcher)
		if !ok {
			return nil, eris.Wrapf(ErrInvalidQuery,
				"field %s of %s must be Read[T], Write[T] or EntityID, got %s", field.Name, typ, field.Type)
		}
		id, requires, err := f.register(w)
		if err != nil {
			return nil, eris.Wrapf(err, "field %s of %s", field.Name, typ)
		}
		if requires {
			b.require(id)
		}
		q.ids = append(q.ids, id)
	}
	for _, filter := range filters {
		if err := filter.apply(w, &b); err != nil {
			return nil, err
		}
	}

	q.pattern = b.build()
	w.registry.query(&q.pattern)
	return q, nil
}

// Iter yields every matching entity. Archetypes are visited in creation order and entities in
// storage order, so two iterations without mutations in between yield the same sequence. The
// world must not be changed directly while iterating; queue changes through its Buffer. Each call
// has its own fetch value, so a query may be iterated inside its own loop.
func (q *Query[F]) Iter() iter.Seq2[EntityID, F] {
	return func(yield func(EntityID, F) bool) {
		w := q.world
		var result F
		fields := q.fetchers(&result)
		w.beginRead()
		defer w.endRead()

		for _, aid := range w.registry.query(&q.pattern) {
			arch := w.registry.archetypes[aid]
			for row, eid := range arch.entities() {
				for _, f := range fields {
					f.bind(arch, row, eid)
				}
				more := yield(eid, result)
				for _, f := range fields {
					f.release(w, eid)
				}
				if !more {
					return
				}
			}
		}
	}
}

// fetchers resets the fields of result and returns them in field order.
func (q *Query[F]) fetchers(result *F) []fetcher {
	value := reflect.ValueOf(result).Elem()
	fields := make([]fetcher, len(q.ids))
	for i, id := range q.ids {
		f := value.Field(i).Addr().Interface().(fetcher) //nolint:errcheck // checked by NewQuery
		f.reset(id)
		fields[i] = f
	}
	return fields
}

// Count returns the number of matching entities.
func (q *Query[F]) Count() int {
	n := 0
	for _, aid := range q.world.registry.query(&q.pattern) {
		n += q.world.registry.archetypes[aid].len()
	}
	return n
}

// First returns the first matching entity in iteration order.
func (q *Query[F]) First() (EntityID, F, bool) {
	for eid, item := range q.Iter() {
		return eid, item, true
	}
	var zero F
	return 0, zero, false
}

// Matches reports whether an entity matches the query.
func (q *Query[F]) Matches(id EntityID) bool {
	arch, ok := q.world.registry.findForEntity(id)
	return ok && q.pattern.matches(arch)
}

// Each iterates over entities that have component T and match filters, yielding copies of T.
func Each[T Component](w *World, filters ...Filter) (iter.Seq2[EntityID, T], error) {
	q, err := NewQuery[struct{ Value Read[T] }](w, filters...)
	if err != nil {
		return nil, err
	}
	return func(yield func(EntityID, T) bool) {
		for id, item := range q.Iter() {
			if !yield(id, item.Value.Get()) {
				return
			}
		}
	}, nil
}
