package structure

import (
	"fmt"

	"github.com/StoreStation/worldcore/pkg/world"
)

// KindError reports a structure kind the catalog or builder table does not
// know about. It signals a configuration defect and is never retried.
type KindError struct {
	Kind   Kind
	Name   string // set when parsing failed before a Kind existed
	Reason string
}

func (e *KindError) Error() string {
	name := e.Name
	if name == "" {
		name = e.Kind.String()
	}
	return fmt.Sprintf("structure kind %q: %s", name, e.Reason)
}

// GenerationError reports a structure that could not be built for a chunk.
// The structure is omitted from that chunk's result.
type GenerationError struct {
	Chunk  world.ChunkPos
	Kind   Kind
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate %s at chunk %v: %s: %v", e.Kind, e.Chunk, e.Reason, e.Err)
	}
	return fmt.Sprintf("generate %s at chunk %v: %s", e.Kind, e.Chunk, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
