package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/planes/engine/internal/component"
	"github.com/planes/engine/internal/config"
	"github.com/planes/engine/internal/core/ecs"
	"github.com/planes/engine/internal/core/event"
	"github.com/planes/engine/internal/prefab"
	"github.com/planes/engine/internal/scripting"
	"github.com/planes/engine/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/planes.toml"
	if p := os.Getenv("PLANES_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if stop := startProfile(cfg.Profile); stop != nil {
		defer stop()
	}

	// 3. World, components, lifecycle events
	bus := event.NewBus()
	w, err := ecs.NewWorld(ecs.Options{
		MaxEntities:       cfg.ECS.MaxEntities,
		MaxComponentKinds: cfg.ECS.MaxComponentKinds,
		Events:            bus,
		Logger:            log,
	})
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if err := component.RegisterAll(w); err != nil {
		return err
	}
	deleted := 0
	event.Subscribe(bus, func(ecs.EntityDeleted) { deleted++ })

	// 4. Systems. Within a phase, scripted systems run before builtins.
	eng, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer eng.Close()
	if err := system.RegisterScripted(w, eng, cfg.Scripts.Systems); err != nil {
		return err
	}
	if err := system.RegisterBuiltin(w); err != nil {
		return err
	}

	// 5. Spawn table
	if cfg.Data.SpawnTable != "" {
		if err := spawn(w, cfg.Data.SpawnTable, log); err != nil {
			return err
		}
	}
	log.Info("world ready",
		zap.Int("entities", w.Len()),
		zap.Int("systems", w.Systems().Len()),
		zap.Duration("tick_rate", cfg.Loop.TickRate),
	)

	// 6. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ticker.C:
			if err := w.Tick(cfg.Loop.TickRate); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
			frame++
			if cfg.Loop.Frames > 0 && frame >= cfg.Loop.Frames {
				log.Info("frame limit reached",
					zap.Int("frames", frame),
					zap.Int("entities", w.Len()),
					zap.Int("deleted", deleted),
				)
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()),
				zap.Int("frames", frame),
				zap.Int("entities", w.Len()),
			)
			return nil
		}
	}
}

func spawn(w *ecs.World, path string, log *zap.Logger) error {
	table, err := prefab.LoadTable(path)
	if err != nil {
		return err
	}
	l := prefab.NewLoader(log)
	prefab.Bind[component.Position](l, component.PositionName)
	prefab.Bind[component.Velocity](l, component.VelocityName)
	prefab.Bind[component.Health](l, component.HealthName)
	prefab.Bind[component.Lifetime](l, component.LifetimeName)
	if _, err := l.Spawn(w, table); err != nil {
		return fmt.Errorf("spawn table %s: %w", path, err)
	}
	return nil
}

// startProfile starts pkg/profile per [profile]; the returned func stops it.
func startProfile(cfg config.ProfileConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "allocs":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook)
	return p.Stop
}

// newLogger builds the process logger from [logging]. An unknown level
// falls back to info.
func newLogger(cfg config.LoggingConfig, opts ...zap.Option) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
	}
	zapCfg.DisableCaller = !cfg.Caller
	zapCfg.DisableStacktrace = !cfg.Stacktrace
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build(opts...)
}
