package ecs

import "reflect"

// resourceStore holds at most one value per Go type. Values are boxed as *T so GetResourceMut can
// hand out a stable pointer.
type resourceStore struct {
	items map[reflect.Type]any
}

func newResourceStore() resourceStore {
	return resourceStore{items: make(map[reflect.Type]any)}
}

func (rs *resourceStore) insert(typ reflect.Type, boxed any) {
	rs.items[typ] = boxed
}

func (rs *resourceStore) remove(typ reflect.Type) bool {
	_, ok := rs.items[typ]
	delete(rs.items, typ)
	return ok
}

// InsertResource stores value as the world's resource of type T, replacing any previous one.
func InsertResource[T any](w *World, value T) {
	w.assertExclusive("insert a resource")
	w.resources.insert(reflect.TypeFor[T](), &value)
}

// GetResource returns a copy of the resource of type T.
func GetResource[T any](w *World) (T, bool) {
	ptr, ok := GetResourceMut[T](w)
	if !ok {
		var zero T
		return zero, false
	}
	return *ptr, true
}

// GetResourceMut returns a pointer to the resource of type T. The pointer stays valid until the
// resource is replaced or removed.
func GetResourceMut[T any](w *World) (*T, bool) {
	boxed, ok := w.resources.items[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return boxed.(*T), true //nolint:errcheck // keyed by T
}

// RemoveResource deletes the resource of type T and reports whether it existed.
func RemoveResource[T any](w *World) bool {
	w.assertExclusive("remove a resource")
	return w.resources.remove(reflect.TypeFor[T]())
}
