package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix of environment overrides, e.g. SIG_LOG_LEVEL.
	EnvPrefix = "SIG_"
	Delimiter = "."
)

// Load reads defaults, then the file at path if any, then environment
// variables, each layer overriding the previous one.
func Load(path string) (*Config, error) {
	k := koanf.New(Delimiter)

	if err := k.Load(confmap.Provider(defaults(), Delimiter), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, Delimiter, envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"runtime.name":             d.Runtime.Name,
		"runtime.max_flush_passes": d.Runtime.MaxFlushPasses,
		"runtime.goroutine_check":  d.Runtime.GoroutineCheck,
		"log.level":                d.Log.Level,
		"log.format":               d.Log.Format,
		"log.output":               d.Log.Output,
		"log.file":                 d.Log.File,
		"metrics.enabled":          d.Metrics.Enabled,
	}
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if _, err := os.Stat(path); err != nil {
		return err
	}

	return k.Load(file.Provider(path), parser)
}

// envKey maps SIG_RUNTIME_MAX_FLUSH_PASSES to runtime.max_flush_passes:
// the first underscore separates the section from the field.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", Delimiter, 1)
}
