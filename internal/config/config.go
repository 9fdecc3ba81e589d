package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// MaxInstances is the largest collection the 16-bit index space allows.
const MaxInstances = 65535

type Config struct {
	Collection CollectionConfig `toml:"collection"`
	Resources  ResourcesConfig  `toml:"resources"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Loop       LoopConfig       `toml:"loop"`
	Input      InputConfig      `toml:"input"`
	Logging    LoggingConfig    `toml:"logging"`
	Debug      DebugConfig      `toml:"debug"`
	Spawn      []SpawnConfig    `toml:"spawn"`
}

type CollectionConfig struct {
	Name         string `toml:"name"`
	MaxInstances int    `toml:"max_instances"`
}

type ResourcesConfig struct {
	Root string `toml:"root"` // directory served to the resource factory
}

type ScriptingConfig struct {
	LibDir string `toml:"lib_dir"` // shared .lua files loaded into globals
}

type LoopConfig struct {
	TickRate   time.Duration `toml:"tick_rate"`
	MaxTicks   int           `toml:"max_ticks"`   // 0 = run until signal
	StatsEvery int           `toml:"stats_every"` // ticks between stats lines, 0 = off
}

type InputConfig struct {
	QueueSize  int  `toml:"queue_size"`   // buffered actions before Push drops
	MaxPerTick int  `toml:"max_per_tick"` // actions dispatched per tick
	Stdin      bool `toml:"stdin"`        // read "action [value [x y]]" lines from stdin
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DebugConfig struct {
	Profile    string `toml:"profile"`     // "", "cpu" or "mem"
	ProfileDir string `toml:"profile_dir"` // where profile files are written
}

// SpawnConfig is one instance created at boot. Parent names the id of an
// earlier spawn entry.
type SpawnConfig struct {
	Prototype string     `toml:"prototype"`
	ID        string     `toml:"id"`
	Parent    string     `toml:"parent"`
	Position  [3]float32 `toml:"position"`
	Rotation  [4]float32 `toml:"rotation"` // x, y, z, w; all zero means identity
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found, combined.
func (c *Config) Validate() error {
	var err error
	if c.Collection.MaxInstances < 1 || c.Collection.MaxInstances > MaxInstances {
		err = multierr.Append(err, fmt.Errorf("collection.max_instances %d out of range 1..%d",
			c.Collection.MaxInstances, MaxInstances))
	}
	if c.Loop.TickRate <= 0 {
		err = multierr.Append(err, errors.New("loop.tick_rate must be positive"))
	}
	if c.Loop.MaxTicks < 0 {
		err = multierr.Append(err, errors.New("loop.max_ticks must not be negative"))
	}
	if c.Input.QueueSize < 1 {
		err = multierr.Append(err, errors.New("input.queue_size must be positive"))
	}
	if c.Input.MaxPerTick < 1 {
		err = multierr.Append(err, errors.New("input.max_per_tick must be positive"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format %q unknown", c.Logging.Format))
	}
	switch c.Debug.Profile {
	case "", "cpu", "mem":
	default:
		err = multierr.Append(err, fmt.Errorf("debug.profile %q unknown", c.Debug.Profile))
	}
	if len(c.Spawn) > c.Collection.MaxInstances {
		err = multierr.Append(err, fmt.Errorf("%d spawn entries exceed max_instances", len(c.Spawn)))
	}

	seen := make(map[string]bool, len(c.Spawn))
	for i, s := range c.Spawn {
		if s.Prototype == "" {
			err = multierr.Append(err, fmt.Errorf("spawn[%d]: prototype missing", i))
		}
		if s.Parent != "" && !seen[s.Parent] {
			err = multierr.Append(err, fmt.Errorf("spawn[%d]: parent %q not declared before it", i, s.Parent))
		}
		if s.ID != "" {
			if seen[s.ID] {
				err = multierr.Append(err, fmt.Errorf("spawn[%d]: duplicate id %q", i, s.ID))
			}
			seen[s.ID] = true
		}
	}
	return err
}

func defaults() *Config {
	return &Config{
		Collection: CollectionConfig{
			Name:         "main",
			MaxInstances: 1024,
		},
		Resources: ResourcesConfig{
			Root: "assets",
		},
		Scripting: ScriptingConfig{
			LibDir: "scripts",
		},
		Loop: LoopConfig{
			TickRate:   16 * time.Millisecond,
			StatsEvery: 300,
		},
		Input: InputConfig{
			QueueSize:  64,
			MaxPerTick: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Debug: DebugConfig{
			ProfileDir: ".",
		},
	}
}
