package engine

import (
	"context"
	"io"
	"time"

	"github.com/argus-labs/world-engine/pkg/ecs"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Context is passed to a system on every step.
type Context struct {
	World  *ecs.World
	Logger *zerolog.Logger // Tagged with the system name
	Step   uint64
}

// Buffer returns the world's update queue.
func (c Context) Buffer() *ecs.Buffer {
	return c.World.Buffer()
}

// System is a function run once per step.
type System func(ctx Context) error

type registeredSystem struct {
	name   string
	fn     System
	logger zerolog.Logger
}

// Engine runs registered systems against a world in registration order. Updates the systems queue
// on the world's Buffer are flushed once per step, or after each system when configured to.
type Engine struct {
	world   *ecs.World
	systems []registeredSystem
	names   map[string]struct{}
	cfg     Config
	logger  zerolog.Logger
	step    uint64

	// Set by options.
	hasConfig bool
	hasLogger bool
	output    io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig uses cfg instead of loading the configuration from the environment.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
		e.hasConfig = true
	}
}

// WithLogger uses logger instead of building one from the configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.hasLogger = true
	}
}

// WithOutput sets where the configured logger writes. It has no effect together with WithLogger.
func WithOutput(out io.Writer) Option {
	return func(e *Engine) {
		e.output = out
	}
}

// New creates an engine with an empty world.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{names: make(map[string]struct{})}
	for _, opt := range opts {
		opt(e)
	}

	if e.hasConfig {
		if err := e.cfg.validate(); err != nil {
			return nil, eris.Wrap(err, "invalid engine config")
		}
	} else {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, err
		}
		e.cfg = cfg
	}
	if !e.hasLogger {
		e.logger = e.cfg.newLogger(e.output)
	}

	e.world = ecs.NewWorld(ecs.WithLogger(e.logger))
	e.logger.Debug().
		Bool("continue_on_error", e.cfg.ContinueOnError).
		Bool("flush_each_system", e.cfg.FlushEachSystem).
		Dur("tick_interval", e.cfg.TickInterval).
		Msg("engine created")
	return e, nil
}

// World returns the engine's world.
func (e *Engine) World() *ecs.World {
	return e.world
}

// StepCount returns the number of completed steps.
func (e *Engine) StepCount() uint64 {
	return e.step
}

// AddSystem appends a system. Systems run in the order they were added.
func (e *Engine) AddSystem(name string, fn System) error {
	if name == "" {
		return eris.New("system name cannot be empty")
	}
	if fn == nil {
		return eris.Errorf("system %s is nil", name)
	}
	if _, ok := e.names[name]; ok {
		return eris.Errorf("system %s is already registered", name)
	}
	e.names[name] = struct{}{}
	e.systems = append(e.systems, registeredSystem{
		name:   name,
		fn:     fn,
		logger: e.logger.With().Str("system", name).Logger(),
	})
	return nil
}

// Step runs every system once and flushes the updates they queued. When a system fails and
// ContinueOnError is off, the updates still queued are discarded and the error is returned. Direct
// world mutations made before the failure are kept.
func (e *Engine) Step() error {
	start := time.Now()
	failed := 0
	for i := range e.systems {
		sys := &e.systems[i]
		err := sys.fn(Context{World: e.world, Logger: &sys.logger, Step: e.step})
		if err != nil {
			err = eris.Wrapf(err, "system %s failed at step %d", sys.name, e.step)
			if !e.cfg.ContinueOnError {
				e.world.Discard()
				return err
			}
			sys.logger.Error().Err(err).Uint64("step", e.step).Msg("system failed")
			failed++
		}
		if e.cfg.FlushEachSystem {
			e.world.Flush()
		}
	}
	e.world.Flush()

	e.logger.Debug().
		Uint64("step", e.step).
		Int("systems", len(e.systems)).
		Int("failed", failed).
		Int("entities", e.world.Len()).
		Dur("duration", time.Since(start)).
		Msg("step completed")
	e.step++
	return nil
}

// Run executes steps until n steps have completed, a step fails, or ctx is done. A non-positive n
// runs until ctx is done.
func (e *Engine) Run(ctx context.Context, n int) error {
	var tick <-chan time.Time
	if e.cfg.TickInterval > 0 {
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	e.logger.Info().Int("steps", n).Int("systems", len(e.systems)).Msg("engine running")
	for i := 0; n <= 0 || i < n; i++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "engine stopped")
		}
		if err := e.Step(); err != nil {
			return err
		}
		if tick != nil && (n <= 0 || i+1 < n) {
			select {
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "engine stopped")
			case <-tick:
			}
		}
	}
	e.logger.Info().Uint64("step", e.step).Msg("engine finished")
	return nil
}
