// Package placement writes generated structures into the world and registers
// them in the structure index, one structure at a time and all-or-nothing.
package placement

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/StoreStation/worldcore/pkg/event"
	"github.com/StoreStation/worldcore/pkg/spatial"
	"github.com/StoreStation/worldcore/pkg/structure"
	"github.com/StoreStation/worldcore/pkg/world"
)

// Stage names the step of a placement that failed.
type Stage string

const (
	StageReserve  Stage = "reserve"
	StageClear    Stage = "clear"
	StageBlocks   Stage = "blocks"
	StageSpawners Stage = "spawners"
	StageLoot     Stage = "loot"
)

// Error reports a structure that could not be placed. The structure is not
// registered and the world is left as it was.
type Error struct {
	ID    uuid.UUID
	Kind  structure.Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("place %s %s: %s: %v", e.Kind, e.ID, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Rejected reports whether err is a placement refused by the index because a
// structure of the same kind got there first.
func Rejected(err error) bool {
	return errors.Is(err, spatial.ErrTooClose) || errors.Is(err, spatial.ErrDuplicate)
}

// World is the part of the world state the applier writes to.
type World interface {
	Edit(fn func(tx *world.Tx) error) error
	UpdateNeighborsInArea(min, size world.BlockPos)
}

// Applier commits structures into a world and an index.
type Applier struct {
	world   World
	index   *spatial.Index
	catalog *structure.Catalog
	events  event.Sink
	log     *zap.Logger
}

// Options configures an Applier. Catalog supplies minimum distances to
// ApplyAll; Events and Logger default to discarding.
type Options struct {
	Catalog *structure.Catalog
	Events  event.Sink
	Logger  *zap.Logger
}

// NewApplier creates an Applier writing to w and registering in index.
func NewApplier(w World, index *spatial.Index, opts Options) *Applier {
	if opts.Events == nil {
		opts.Events = event.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Applier{
		world:   w,
		index:   index,
		catalog: opts.Catalog,
		events:  opts.Events,
		log:     opts.Logger,
	}
}

// Apply places s. The index slot is reserved first so concurrent placements
// of the same kind cannot both pass the distance check; the reservation is
// committed only after every block, spawner and chest has been written.
func (a *Applier) Apply(s *structure.Structure, minDistance int) error {
	res, err := a.index.Reserve(s, minDistance)
	if err != nil {
		return a.fail(s, StageReserve, err)
	}

	stage := StageBlocks
	deferred := world.SetOptions{DeferNeighborUpdate: true}
	err = a.world.Edit(func(tx *world.Tx) error {
		if s.ClearVolume {
			stage = StageClear
			tx.Clear(s.Bounds())
		}
		stage = StageBlocks
		for _, b := range s.Blocks {
			if err := tx.SetBlock(b.Pos, b.State, deferred); err != nil {
				return err
			}
		}
		stage = StageSpawners
		for _, sp := range s.Spawners {
			if err := tx.PlaceSpawner(sp); err != nil {
				return err
			}
		}
		stage = StageLoot
		for _, l := range s.Loot {
			if err := tx.PlaceLootChest(l.Pos, l.LootTable); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		res.Release()
		return a.fail(s, stage, err)
	}

	box := s.Bounds()
	a.world.UpdateNeighborsInArea(box.Min, box.Size())
	res.Commit()

	a.events.Emit(event.Event{
		Kind:      event.StructurePlaced,
		Structure: s.ID,
		Pos:       blockVec(s.Origin),
		Detail:    s.Kind.String(),
	})
	a.log.Debug("structure placed",
		zap.Stringer("kind", s.Kind),
		zap.Stringer("chunk", s.Chunk),
		zap.Stringer("origin", s.Origin),
		zap.Int("blocks", len(s.Blocks)),
	)
	return nil
}

// ApplyAll places structures in order. A failure affects only that
// structure; the errors are joined.
func (a *Applier) ApplyAll(structs []*structure.Structure) error {
	var errs []error
	for _, s := range structs {
		if err := a.Apply(s, a.minDistance(s.Kind)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Applier) minDistance(k structure.Kind) int {
	if a.catalog == nil || !a.catalog.Has(k) {
		return 0
	}
	return a.catalog.Lookup(k).MinDistance
}

func (a *Applier) fail(s *structure.Structure, stage Stage, err error) error {
	perr := &Error{ID: s.ID, Kind: s.Kind, Stage: stage, Err: err}
	a.events.Emit(event.Event{
		Kind:      event.StructureRejected,
		Structure: s.ID,
		Pos:       blockVec(s.Origin),
		Detail:    string(stage),
	})
	if Rejected(err) {
		a.log.Debug("structure rejected by index", zap.Stringer("kind", s.Kind), zap.Stringer("chunk", s.Chunk), zap.Error(err))
	} else {
		a.log.Warn("structure placement failed", zap.Stringer("kind", s.Kind), zap.Stringer("chunk", s.Chunk), zap.String("stage", string(stage)), zap.Error(err))
	}
	return perr
}

func blockVec(p world.BlockPos) mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
}
