// Package entity holds the live entities of a boss fight: players, the
// dragon, its end crystals, shulkers and their projectiles.
package entity

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// ID identifies an entity.
type ID = uuid.UUID

// ErrNotFound is returned when an entity ID is not in the store.
var ErrNotFound = errors.New("entity not found")

// Kind is the entity variant behind an ID.
type Kind uint8

const (
	KindNone Kind = iota
	KindPlayer
	KindDragon
	KindCrystal
	KindShulker
	KindProjectile
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPlayer:
		return "player"
	case KindDragon:
		return "dragon"
	case KindCrystal:
		return "crystal"
	case KindShulker:
		return "shulker"
	case KindProjectile:
		return "projectile"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Effect is a timed status effect such as levitation.
type Effect struct {
	Name      string
	Amplifier int
	ExpiresAt uint64 // tick
}

// Player is a participant in the fight.
type Player struct {
	ID        ID
	Name      string
	Pos       mgl64.Vec3
	Health    float64
	MaxHealth float64
	Dead      bool
	Spectator bool
	Effects   map[string]Effect
}

// Targetable reports whether mobs may pick the player as a target.
func (p *Player) Targetable() bool {
	return !p.Dead && !p.Spectator
}

func (p *Player) clone() *Player {
	c := *p
	if p.Effects != nil {
		c.Effects = make(map[string]Effect, len(p.Effects))
		for k, v := range p.Effects {
			c.Effects[k] = v
		}
	}
	return &c
}

// Dragon is the boss.
type Dragon struct {
	ID        ID
	Pos       mgl64.Vec3
	Home      mgl64.Vec3 // centre of the circling path and the perch
	Health    float64
	MaxHealth float64
	Phase     Phase
	Target    uuid.NullUUID
	// Crystals are the end crystals healing this dragon.
	Crystals []ID
	// Invulnerable is the crystal shield; cleared when a crystal is lost if
	// the fight is configured that way.
	Invulnerable   bool
	LastDamageTick uint64
	// PerchDamage accumulates damage taken since the last landing.
	PerchDamage float64
}

func (d *Dragon) clone() *Dragon {
	c := *d
	c.Crystals = append([]ID(nil), d.Crystals...)
	return &c
}

// Crystal is an end crystal. Boss is a weak reference to the dragon it heals.
type Crystal struct {
	ID     ID
	Pos    mgl64.Vec3
	Active bool
	Boss   uuid.NullUUID
}

// Shulker is a turret mob firing homing projectiles.
type Shulker struct {
	ID        ID
	Pos       mgl64.Vec3
	Health    float64
	MaxHealth float64
	Open      bool
	// Peek is how far the shell is open, in [0, 1].
	Peek             float64
	NextFireTick     uint64
	NextTeleportTick uint64
}

// Projectile is a homing shulker bullet.
type Projectile struct {
	ID        ID
	Owner     ID
	Pos       mgl64.Vec3
	Target    ID
	Accuracy  float64 // fraction of the remaining distance covered per tick
	MaxSpeed  float64 // blocks per tick
	Damage    float64
	ExpiresAt uint64
}
