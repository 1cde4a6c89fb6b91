package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/planes/engine/internal/core/ecs"
	coresys "github.com/planes/engine/internal/core/system"
)

type Config struct {
	ECS     ECSConfig     `toml:"ecs"`
	Loop    LoopConfig    `toml:"loop"`
	Data    DataConfig    `toml:"data"`
	Scripts ScriptsConfig `toml:"scripts"`
	Logging LoggingConfig `toml:"logging"`
	Profile ProfileConfig `toml:"profile"`
}

// ECSConfig holds the two construction-time constants of the world.
type ECSConfig struct {
	MaxEntities       int `toml:"max_entities"`
	MaxComponentKinds int `toml:"max_component_kinds"` // at most 64
}

type LoopConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	Frames   int           `toml:"frames"` // 0 = run until interrupted
}

type DataConfig struct {
	SpawnTable string `toml:"spawn_table"` // optional YAML spawn list
}

type ScriptsConfig struct {
	Dir     string         `toml:"dir"`
	Systems []ScriptSystem `toml:"systems"`
}

// ScriptSystem binds a Lua function to the components it requires.
type ScriptSystem struct {
	Name       string   `toml:"name"`
	Function   string   `toml:"function"`
	Components []string `toml:"components"`
	Phase      string   `toml:"phase"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`     // "json" or "console"
	Caller     bool   `toml:"caller"`     // annotate entries with file:line
	Stacktrace bool   `toml:"stacktrace"` // attach stacks to error entries
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem" or "allocs"
	Path string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the ranges the world and loop rely on.
func (c *Config) Validate() error {
	if c.ECS.MaxEntities <= 0 {
		return fmt.Errorf("ecs.max_entities must be positive, got %d", c.ECS.MaxEntities)
	}
	if c.ECS.MaxComponentKinds <= 0 || c.ECS.MaxComponentKinds > ecs.MaxComponentKinds {
		return fmt.Errorf("ecs.max_component_kinds must be in [1, %d], got %d",
			ecs.MaxComponentKinds, c.ECS.MaxComponentKinds)
	}
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("loop.tick_rate must be positive, got %s", c.Loop.TickRate)
	}
	if c.Loop.Frames < 0 {
		return fmt.Errorf("loop.frames must not be negative, got %d", c.Loop.Frames)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "allocs":
	default:
		return fmt.Errorf("profile.mode %q is not one of cpu, mem, allocs", c.Profile.Mode)
	}
	seen := make(map[string]bool, len(c.Scripts.Systems))
	for _, s := range c.Scripts.Systems {
		if s.Name == "" || s.Function == "" {
			return fmt.Errorf("scripts.systems: name and function are required")
		}
		if seen[s.Name] {
			return fmt.Errorf("scripts.systems: duplicate name %q", s.Name)
		}
		seen[s.Name] = true
		if _, ok := coresys.ParsePhase(s.Phase); !ok {
			return fmt.Errorf("scripts.systems %s: unknown phase %q", s.Name, s.Phase)
		}
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		ECS: ECSConfig{
			MaxEntities:       5000,
			MaxComponentKinds: ecs.MaxComponentKinds,
		},
		Loop: LoopConfig{
			TickRate: 16 * time.Millisecond,
		},
		Scripts: ScriptsConfig{
			Dir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
