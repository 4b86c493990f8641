package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/StoreStation/worldcore/pkg/ai"
	"github.com/StoreStation/worldcore/pkg/combat"
	"github.com/StoreStation/worldcore/pkg/config"
	"github.com/StoreStation/worldcore/pkg/entity"
	"github.com/StoreStation/worldcore/pkg/event"
	"github.com/StoreStation/worldcore/pkg/placement"
	"github.com/StoreStation/worldcore/pkg/sim"
	"github.com/StoreStation/worldcore/pkg/spatial"
	"github.com/StoreStation/worldcore/pkg/structure"
	"github.com/StoreStation/worldcore/pkg/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worldcore:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML config file (built-in defaults when empty)")
	seed := flag.Int64("seed", 0, "World seed (0 = config seed, random if that is 0 too)")
	radius := flag.Int("radius", -1, "Chunk radius of the region populated at startup (-1 = config)")
	ticks := flag.Int("ticks", 600, "Ticks to simulate (0 = until interrupted)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = config)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if *radius >= 0 {
		cfg.Radius = *radius
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := cfg.ApplyCatalog(structure.DefaultCatalog())
	if err != nil {
		return err
	}
	events := event.NewAsync(event.LogSink{Log: log.Named("events")}, 4096)
	defer func() {
		events.Close()
		if n := events.Dropped(); n > 0 {
			log.Warn("events dropped", zap.Uint64("count", n))
		}
	}()

	terrain := world.NewTerrain(cfg.Seed)
	w := world.NewWorld(terrain)
	index := spatial.New(spatial.DefaultCellSize)
	gen := structure.NewGenerator(structure.Deps{
		Seed:    cfg.Seed,
		Catalog: catalog,
		Biomes:  world.NewBiomeMap(terrain),
		Noise:   world.NewNoiseField(cfg.Seed),
		Terrain: terrain,
		Index:   index,
		Logger:  log.Named("generator"),
	})
	applier := placement.NewApplier(w, index, placement.Options{
		Catalog: catalog,
		Events:  events,
		Logger:  log.Named("placement"),
	})
	pipeline := placement.NewPipeline(gen, applier, cfg.Workers)

	log.Info("worldcore starting",
		zap.Int64("seed", cfg.Seed),
		zap.Int("radius", cfg.Radius),
		zap.Int("workers", cfg.Workers))

	chunks := square(cfg.Radius)
	start := time.Now()
	placed, err := pipeline.PopulateRegion(ctx, chunks)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("interrupted during population")
			return nil
		}
		log.Warn("region population had errors", zap.Error(err))
	}
	log.Info("region populated",
		zap.Int("chunks", len(chunks)),
		zap.Int("structures", placed),
		zap.Duration("took", time.Since(start)))
	for _, k := range structure.Kinds() {
		if n := countKind(index, k); n > 0 {
			log.Info("structures by kind", zap.Stringer("kind", k), zap.Int("count", n))
		}
	}

	store := entity.NewStore()
	coord := combat.New(store, cfg.CombatConfig(), events, log.Named("combat"))
	engine := ai.NewEngine(store, coord, cfg.AI(), events, log.Named("ai"))
	fight, err := sim.SpawnEndFight(store, coord, cfg.Arena, cfg.Seed)
	if err != nil {
		return fmt.Errorf("spawn end fight: %w", err)
	}

	loop := sim.NewLoop(engine, pipeline, cfg.TickRate, log.Named("sim"))
	for _, c := range ring(cfg.Radius + 1) {
		loop.RequestChunk(c)
	}
	if err := loop.Run(ctx, *ticks); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fields := []zap.Field{zap.Uint64("ticks", engine.CurrentTick()), zap.Int("structures", index.Len())}
	if d, ok := store.Dragon(fight.Dragon); ok {
		fields = append(fields,
			zap.String("phase", entity.PhaseName(d.Phase)),
			zap.Float64("health", d.Health),
			zap.Int("crystals", len(d.Crystals)))
		if dying, ok := d.Phase.(entity.Dying); ok {
			fields = append(fields, zap.Float64("death_progress", dying.Progress()))
		}
	} else {
		fields = append(fields, zap.String("phase", "defeated"))
	}
	log.Info("worldcore stopped", fields...)
	return nil
}

// square returns the chunks within Chebyshev distance r of the origin, row
// by row.
func square(r int) []world.ChunkPos {
	out := make([]world.ChunkPos, 0, (2*r+1)*(2*r+1))
	for z := -r; z <= r; z++ {
		for x := -r; x <= r; x++ {
			out = append(out, world.ChunkPos{X: int32(x), Z: int32(z)})
		}
	}
	return out
}

// ring returns the chunks at exactly Chebyshev distance r from the origin.
func ring(r int) []world.ChunkPos {
	var out []world.ChunkPos
	for _, c := range square(r) {
		if max(abs(int(c.X)), abs(int(c.Z))) == r {
			out = append(out, c)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func countKind(index *spatial.Index, k structure.Kind) int {
	n := 0
	for _, s := range index.All() {
		if s.Kind == k {
			n++
		}
	}
	return n
}
