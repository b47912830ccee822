package ecs

import "github.com/rotisserie/eris"

var (
	ErrEntityNotFound         = eris.New("entity does not exist")
	ErrComponentNotRegistered = eris.New("component is not registered")
	ErrComponentNameCollision = eris.New("component name is registered to a different type")
	ErrEmptyComponentName     = eris.New("component name cannot be empty")
	ErrDuplicateComponent     = eris.New("bundle contains a component type more than once")
	ErrNilComponent           = eris.New("bundle contains a nil component")
	ErrEntityLimitReached     = eris.New("no entity ids left to allocate")
	ErrInvalidQuery           = eris.New("invalid query type")
)
