package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/width"

	"github.com/l1jgo/gameobject/internal/component"
	"github.com/l1jgo/gameobject/internal/config"
	"github.com/l1jgo/gameobject/internal/core/hash"
	coresys "github.com/l1jgo/gameobject/internal/core/system"
	"github.com/l1jgo/gameobject/internal/gameobject"
	"github.com/l1jgo/gameobject/internal/resource"
	"github.com/l1jgo/gameobject/internal/scripting"
	"github.com/l1jgo/gameobject/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, maxInstances int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              goboot  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        game object collection host        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mcollection:\033[0m %s \033[90m(capacity: %d)\033[0m\n\n", name, maxInstances)
}

// displayWidth counts terminal columns; wide runes take two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ──────────────────────────────────────────────────────

func run() (err error) {
	// 1. Load config
	cfgPath := "config/goboot.toml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	} else if p := os.Getenv("GOBOOT_CONFIG"); p != "" {
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

	printBanner(cfg.Collection.Name, cfg.Collection.MaxInstances)

	if p := startProfile(cfg.Debug); p != nil {
		defer p.Stop()
		log.Info("profiling", zap.String("mode", cfg.Debug.Profile), zap.String("dir", cfg.Debug.ProfileDir))
	}

	// 3. Resources and scripting
	printSection("resources")
	factory := resource.NewFSFactory(os.DirFS(cfg.Resources.Root), log)
	defer func() { err = multierr.Append(err, factory.Close()) }()

	engine, err := scripting.NewEngine(cfg.Scripting.LibDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()

	if err := multierr.Combine(
		gameobject.RegisterResourceTypes(factory),
		component.RegisterResourceTypes(factory),
		engine.RegisterResourceTypes(factory),
	); err != nil {
		return fmt.Errorf("resource types: %w", err)
	}
	printOK(fmt.Sprintf("serving %s", cfg.Resources.Root))
	fmt.Println()

	// 4. Collection
	printSection("collection")
	rt := gameobject.NewRuntime(log)
	defer rt.Close()

	coll, err := gameobject.NewCollection(rt, cfg.Collection.Name, factory, cfg.Collection.MaxInstances, log)
	if err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	// Runs before factory.Close so instances release their prototypes first.
	defer func() { err = multierr.Append(err, coll.Close()) }()

	if err := engine.RegisterComponentType(coll, factory); err != nil {
		return fmt.Errorf("component types: %w", err)
	}
	if err := component.RegisterComponentTypes(coll, factory); err != nil {
		return fmt.Errorf("component types: %w", err)
	}
	printOK("component types registered")

	// 5. Systems
	runner := coresys.NewRunner()
	inputSys := system.NewInputSystem(coll, cfg.Input.QueueSize, cfg.Input.MaxPerTick, log)
	spawnSys := system.NewSpawnSystem(coll, log)
	collSys := system.NewCollectionSystem(coll, log)
	engine.SetSpawnQueue(spawnSys)
	runner.Register(inputSys)
	runner.Register(spawnSys)
	runner.Register(collSys)
	runner.Register(system.NewStatsSystem(coll, factory, cfg.Loop.StatsEvery, log))

	spawnSys.Queue(cfg.Spawn...)
	runner.TickPhase(coresys.PhasePreUpdate, 0)
	printStat("spawned", spawnSys.Spawned())
	printStat("spawn failures", spawnSys.Failed())
	printStat("resources loaded", factory.Loaded())
	fmt.Println()

	if cfg.Input.Stdin {
		go readActions(os.Stdin, inputSys.Push, log)
		printOK("reading input actions from stdin")
	}

	// 6. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Loop.TickRate))
	fmt.Println()

	ticks := 0
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
			ticks++
			if cfg.Loop.MaxTicks > 0 && ticks >= cfg.Loop.MaxTicks {
				log.Info("tick limit reached", zap.Int("ticks", ticks))
				return shutdown(coll, collSys, log)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return shutdown(coll, collSys, log)
		}
	}
}

// readActions feeds one action per input line until r is exhausted.
func readActions(r io.Reader, push func(gameobject.InputAction) bool, log *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		a, err := parseAction(line)
		if err != nil {
			log.Warn("bad input line", zap.String("line", line), zap.Error(err))
			continue
		}
		if !push(a) {
			log.Warn("input queue full, action dropped", zap.String("line", line))
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn("input reader stopped", zap.Error(err))
	}
}

// parseAction reads "name [value [x y]]". A missing value means a full press;
// zero is a release.
func parseAction(line string) (gameobject.InputAction, error) {
	fields := strings.Fields(line)
	a := gameobject.InputAction{ActionID: hash.String(fields[0]), Value: 1}
	nums := make([]float32, 0, 3)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return a, fmt.Errorf("%q is not a number", f)
		}
		nums = append(nums, float32(v))
	}
	switch len(nums) {
	case 0:
	case 3:
		a.X, a.Y = nums[1], nums[2]
		fallthrough
	case 1:
		a.Value = nums[0]
	default:
		return a, fmt.Errorf("want 0, 1 or 3 numbers, got %d", len(nums))
	}
	if a.Value < 0 || a.Value > 1 {
		return a, fmt.Errorf("value %g outside [0, 1]", a.Value)
	}
	a.Pressed = a.Value > 0
	a.Released = a.Value == 0
	return a, nil
}

func shutdown(coll *gameobject.Collection, collSys *system.CollectionSystem, log *zap.Logger) error {
	log.Info("stopping",
		zap.Uint64("frames", collSys.Frames()),
		zap.Uint64("failed_frames", collSys.FailedFrames()),
		zap.Int("instances", coll.InstanceCount()))
	return coll.DeleteAll()
}

// startProfile returns nil when profiling is off.
func startProfile(cfg config.DebugConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Profile {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.ProfileDir), profile.NoShutdownHook, profile.Quiet)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
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
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
