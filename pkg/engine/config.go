package engine

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Config struct {
	// Log level ("trace", "debug", "info", "warn", "error").
	LogLevel string `env:"ENGINE_LOG_LEVEL" envDefault:"info"`

	// Log format ("json", "pretty").
	LogFormat string `env:"ENGINE_LOG_FORMAT" envDefault:"json"`

	// ContinueOnError keeps running the remaining systems of a step after one fails.
	ContinueOnError bool `env:"ENGINE_CONTINUE_ON_ERROR" envDefault:"false"`

	// FlushEachSystem applies buffered updates after every system instead of once per step.
	FlushEachSystem bool `env:"ENGINE_FLUSH_EACH_SYSTEM" envDefault:"false"`

	// TickInterval is the minimum time between steps in Run. Zero runs steps back to back.
	TickInterval time.Duration `env:"ENGINE_TICK_INTERVAL" envDefault:"0s"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse engine config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate engine config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'trace', 'debug', 'info', 'warn', or 'error')", cfg.LogLevel)
	}
	if ParseLogFormat(cfg.LogFormat) == LogFormatUndefined {
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.LogFormat)
	}
	if cfg.TickInterval < 0 {
		return eris.New("tick interval cannot be negative")
	}
	return nil
}

// newLogger builds the engine logger described by cfg. A nil out writes to stderr.
func (cfg *Config) newLogger(out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if ParseLogFormat(cfg.LogFormat) == LogFormatPretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	// validate has already rejected unknown levels.
	level, _ := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// LogFormat represents the log output format.
type LogFormat uint8

const (
	LogFormatUndefined LogFormat = iota // Used as the zero value
	LogFormatJSON                       // Outputs structured JSON logs
	LogFormatPretty                     // Outputs human-readable console logs
)

func (f LogFormat) String() string {
	switch f {
	case LogFormatJSON:
		return "json"
	case LogFormatPretty:
		return "pretty"
	case LogFormatUndefined:
		return "undefined"
	default:
		return "undefined"
	}
}

// ParseLogFormat converts a string to LogFormat.
func ParseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	case "pretty":
		return LogFormatPretty
	default:
		return LogFormatUndefined
	}
}
