package ai

import (
	"errors"
	"fmt"

	"github.com/StoreStation/worldcore/pkg/entity"
)

var (
	// ErrWrongKind means an update was requested for an entity of another
	// variant, e.g. UpdateDragon on a shulker.
	ErrWrongKind = errors.New("wrong entity kind")
	// ErrNoPhase means a boss carries a nil or unrecognised phase.
	ErrNoPhase = errors.New("unrecognised phase")
)

// Error reports an AI step that could not run. It affects only Entity.
type Error struct {
	Entity entity.ID
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
