package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

// Component is a value attached to an entity. Name identifies the component type within a world
// and must be stable and unique per Go type.
type Component interface {
	Name() string
}

// TypeKey names a component type without carrying a value. Obtain one with KeyOf.
type TypeKey string

// KeyOf returns the key of component type T.
func KeyOf[T Component]() TypeKey {
	var zero T
	return TypeKey(zero.Name())
}

type componentID = uint32

// componentManager assigns dense ids to component types and remembers how to build columns for
// them. Ids are assigned in registration order and never reused.
type componentManager struct {
	catalog    map[string]componentID
	types      []reflect.Type
	prototypes []abstractColumn
}

func newComponentManager() componentManager {
	return componentManager{catalog: make(map[string]componentID)}
}

// register adds a component type. Registering the same type again returns the existing id.
func (cm *componentManager) register(
	name string, typ reflect.Type, newProto func(componentID) abstractColumn,
) (componentID, error) {
	if name == "" {
		return 0, eris.Wrapf(ErrEmptyComponentName, "type %s", typ)
	}
	if id, ok := cm.catalog[name]; ok {
		if cm.types[id] != typ {
			return 0, eris.Wrapf(ErrComponentNameCollision, "%q is %s, not %s", name, cm.types[id], typ)
		}
		return id, nil
	}

	id := componentID(len(cm.types)) //nolint:gosec // bounded by the number of Go types
	cm.catalog[name] = id
	cm.types = append(cm.types, typ)
	cm.prototypes = append(cm.prototypes, newProto(id))
	return id, nil
}

func (cm *componentManager) lookup(name string) (componentID, bool) {
	id, ok := cm.catalog[name]
	return id, ok
}

// idOf resolves the id of a component value, checking that its Go type matches the registered one.
func (cm *componentManager) idOf(c Component) (componentID, error) {
	if c == nil {
		return 0, ErrNilComponent
	}
	name := c.Name()
	id, ok := cm.catalog[name]
	if !ok {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %q", name)
	}
	if typ := reflect.TypeOf(c); cm.types[id] != typ {
		return 0, eris.Wrapf(ErrComponentNameCollision, "%q is %s, not %s", name, cm.types[id], typ)
	}
	return id, nil
}

func (cm *componentManager) newColumn(id componentID) abstractColumn {
	return cm.prototypes[id].newEmpty()
}

func (cm *componentManager) name(id componentID) string {
	return cm.prototypes[id].componentName()
}

func (cm *componentManager) count() int {
	return len(cm.types)
}

// RegisterComponent registers component type T with the world. Spawning or inserting a component
// whose type was never registered fails with ErrComponentNotRegistered. Building a query or filter
// that mentions T registers it implicitly.
func RegisterComponent[T Component](w *World) (TypeKey, error) {
	id, err := registerComponent[T](w)
	if err != nil {
		return "", err
	}
	return TypeKey(w.components.name(id)), nil
}

func registerComponent[T Component](w *World) (componentID, error) {
	var zero T
	return w.components.register(zero.Name(), reflect.TypeFor[T](), func(id componentID) abstractColumn {
		return newColumn[T](id)
	})
}

// componentIDOf returns the id of T if it has been registered.
func componentIDOf[T Component](w *World) (componentID, bool) {
	var zero T
	id, ok := w.components.lookup(zero.Name())
	if !ok || w.components.types[id] != reflect.TypeFor[T]() {
		return 0, false
	}
	return id, true
}
