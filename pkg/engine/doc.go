// Package engine drives an ecs.World by running registered systems once per step.
//
// Configuration is read from ENGINE_* environment variables (see Config) unless WithConfig is
// given.
package engine
