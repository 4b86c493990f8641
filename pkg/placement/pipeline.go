package placement

import (
	"context"
	"errors"

	"github.com/StoreStation/worldcore/pkg/structure"
	"github.com/StoreStation/worldcore/pkg/world"
)

// Pipeline generates chunks and places what they produce.
type Pipeline struct {
	gen     *structure.Generator
	applier *Applier
	workers int
}

// NewPipeline joins a generator and an applier. workers bounds concurrent
// chunk generation in PopulateRegion; <= 0 means unbounded.
func NewPipeline(gen *structure.Generator, applier *Applier, workers int) *Pipeline {
	return &Pipeline{gen: gen, applier: applier, workers: workers}
}

// place applies s with its kind's minimum distance. Index rejections report
// false with a nil error.
func (p *Pipeline) place(s *structure.Structure) (bool, error) {
	err := p.applier.Apply(s, p.gen.Catalog().Lookup(s.Kind).MinDistance)
	switch {
	case err == nil:
		return true, nil
	case Rejected(err):
		return false, nil
	default:
		return false, err
	}
}

// Populate generates chunk c and places its structures. It returns the
// structures that were placed; index rejections are not errors.
func (p *Pipeline) Populate(c world.ChunkPos) ([]*structure.Structure, error) {
	var placed []*structure.Structure
	var errs []error
	for _, s := range p.gen.GenerateChunk(c) {
		ok, err := p.place(s)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			placed = append(placed, s)
		}
	}
	return placed, errors.Join(errs...)
}

// PopulateRegion generates chunks concurrently and places their structures
// in chunk order. It returns the number of structures placed.
func (p *Pipeline) PopulateRegion(ctx context.Context, chunks []world.ChunkPos) (int, error) {
	placed := 0
	err := p.gen.GenerateRegion(ctx, chunks, p.workers, func(s *structure.Structure) error {
		ok, err := p.place(s)
		if ok {
			placed++
		}
		return err
	})
	return placed, err
}
