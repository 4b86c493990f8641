// Package sim drives the world core on a fixed tick: chunk population
// requests are drained through the placement pipeline and every entity is
// stepped by the AI engine.
package sim

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/StoreStation/worldcore/pkg/ai"
	"github.com/StoreStation/worldcore/pkg/placement"
	"github.com/StoreStation/worldcore/pkg/world"
)

// DefaultTickRate is the number of ticks per second.
const DefaultTickRate = 20

// maxChunksPerTick bounds the population work done inside one tick.
const maxChunksPerTick = 4

// Loop runs the simulation.
type Loop struct {
	engine   *ai.Engine
	pipeline *placement.Pipeline
	tickRate int
	log      *zap.Logger

	mu      sync.Mutex
	pending []world.ChunkPos
	queued  map[world.ChunkPos]bool
	done    map[world.ChunkPos]bool
}

// NewLoop creates a Loop. pipeline may be nil when no chunks are populated.
func NewLoop(engine *ai.Engine, pipeline *placement.Pipeline, tickRate int, log *zap.Logger) *Loop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		engine:   engine,
		pipeline: pipeline,
		tickRate: tickRate,
		log:      log,
		queued:   make(map[world.ChunkPos]bool),
		done:     make(map[world.ChunkPos]bool),
	}
}

// RequestChunk queues c for population. Chunks already queued or populated
// are ignored.
func (l *Loop) RequestChunk(c world.ChunkPos) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queued[c] || l.done[c] {
		return
	}
	l.queued[c] = true
	l.pending = append(l.pending, c)
}

// Pending returns the number of queued chunks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *Loop) takeChunks() []world.ChunkPos {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := min(len(l.pending), maxChunksPerTick)
	batch := append([]world.ChunkPos(nil), l.pending[:n]...)
	l.pending = l.pending[n:]
	for _, c := range batch {
		delete(l.queued, c)
		l.done[c] = true
	}
	return batch
}

// Step runs one tick: up to maxChunksPerTick queued chunks are populated,
// then the AI engine ticks.
func (l *Loop) Step(ctx context.Context) (ai.Report, error) {
	if l.pipeline != nil {
		for _, c := range l.takeChunks() {
			placed, err := l.pipeline.Populate(c)
			if err != nil {
				l.log.Warn("chunk population failed", zap.Stringer("chunk", c), zap.Error(err))
			}
			if len(placed) > 0 {
				l.log.Debug("chunk populated", zap.Stringer("chunk", c), zap.Int("structures", len(placed)))
			}
		}
	}
	return l.engine.Tick(ctx)
}

// Run steps the loop at the tick rate until ctx is done or maxTicks ticks
// have run. maxTicks <= 0 runs until ctx is done.
func (l *Loop) Run(ctx context.Context, maxTicks int) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.tickRate))
	defer ticker.Stop()

	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rep, err := l.Step(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if rep.Errors > 0 {
				l.log.Warn("tick had failing entities", zap.Uint64("tick", rep.Tick), zap.Int("errors", rep.Errors))
			}
		}
	}
	return nil
}
