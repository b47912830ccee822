package ecs

// Filter narrows a query by component presence without fetching data.
type Filter interface {
	apply(w *World, b *patternBuilder) error
}

type withFilter[T Component] struct{}

// With matches entities that have component T.
func With[T Component]() Filter { return withFilter[T]{} }

func (withFilter[T]) apply(w *World, b *patternBuilder) error {
	id, err := registerComponent[T](w)
	if err != nil {
		return err
	}
	b.require(id)
	return nil
}

type withoutFilter[T Component] struct{}

// Without matches entities that do not have component T.
func Without[T Component]() Filter { return withoutFilter[T]{} }

func (withoutFilter[T]) apply(w *World, b *patternBuilder) error {
	id, err := registerComponent[T](w)
	if err != nil {
		return err
	}
	b.exclude(id)
	return nil
}

type andFilter []Filter

// And matches entities that satisfy every filter. Passing several filters to NewQuery is
// equivalent; And exists for composing filters as values.
func And(filters ...Filter) Filter { return andFilter(filters) }

func (f andFilter) apply(w *World, b *patternBuilder) error {
	for _, filter := range f {
		if err := filter.apply(w, b); err != nil {
			return err
		}
	}
	return nil
}
