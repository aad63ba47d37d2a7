// Package config loads runtime and logging settings for the sig tools.
package config

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/omnicraft/sig"
)

type Config struct {
	Runtime RuntimeConfig `koanf:"runtime"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type RuntimeConfig struct {
	// Name labels logs and metrics. Empty picks a random one.
	Name           string `koanf:"name"`
	MaxFlushPasses int    `koanf:"max_flush_passes" validate:"min=1,max=1000000"`
	GoroutineCheck bool   `koanf:"goroutine_check"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
	// Output is stderr, stdout or none.
	Output string `koanf:"output" validate:"oneof=stderr stdout none"`
	// File, when set, also receives every record as JSON.
	File string `koanf:"file"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			MaxFlushPasses: sig.DefaultMaxFlushPasses,
			GoroutineCheck: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// RuntimeOptions turns the runtime settings into options for sig.NewRuntime.
// reg is only used when metrics are enabled.
func (c *Config) RuntimeOptions(reg prometheus.Registerer) []sig.Option {
	opts := []sig.Option{
		sig.WithMaxFlushPasses(c.Runtime.MaxFlushPasses),
		sig.WithGoroutineCheck(c.Runtime.GoroutineCheck),
	}
	if c.Runtime.Name != "" {
		opts = append(opts, sig.WithName(c.Runtime.Name))
	}
	if c.Metrics.Enabled && reg != nil {
		opts = append(opts, sig.WithMetrics(reg))
	}
	return opts
}
