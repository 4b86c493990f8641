// Package ai computes per-tick behaviour for the dragon, shulkers and their
// projectiles. Step functions are pure: they read a snapshot and return an
// Action. The Engine commits actions to the store.
package ai

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/StoreStation/worldcore/pkg/entity"
	"github.com/StoreStation/worldcore/pkg/rng"
)

// ActionKind is what an entity does this tick.
type ActionKind uint8

const (
	ActionIdle ActionKind = iota
	ActionMove
	ActionAttack
	ActionBreathe
	ActionLand
	ActionFire
	ActionClose
	ActionOpen
	ActionDespawn
	ActionExpire
	ActionHit
	ActionTeleport
)

var actionNames = [...]string{
	ActionIdle:     "idle",
	ActionMove:     "move",
	ActionAttack:   "attack",
	ActionBreathe:  "breathe",
	ActionLand:     "land",
	ActionFire:     "fire",
	ActionClose:    "close",
	ActionOpen:     "open",
	ActionDespawn:  "despawn",
	ActionExpire:   "expire",
	ActionHit:      "hit",
	ActionTeleport: "teleport",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return "action(" + strconv.Itoa(int(k)) + ")"
}

// Action is the outcome of one entity's step.
type Action struct {
	Entity      entity.ID
	Kind        ActionKind
	Destination mgl64.Vec3
	// Moves reports whether Destination replaces the entity's position.
	Moves  bool
	Target entity.ID
	Damage float64
	Radius float64
	// Next is the phase after this tick. nil leaves the phase unchanged.
	Next entity.Phase
	// Open and Peek are the shulker shell state after this tick.
	Open  bool
	Peek  float64
	Spawn *entity.Projectile
	XP    int
}

// StepDragon computes the dragon's action for tick.
func StepDragon(snap *entity.State, d *entity.Dragon, tick uint64, cfg Config) (Action, error) {
	c := cfg.Dragon
	a := Action{Entity: d.ID}
	if d.Health <= 0 && !entity.IsDying(d.Phase) {
		a.Next = entity.Dying{Remaining: c.DeathTicks, Total: c.DeathTicks}
		return a, nil
	}

	switch p := d.Phase.(type) {
	case entity.Circling:
		return stepCircling(snap, d, p, c), nil
	case entity.Charging:
		return stepCharging(snap, d, p, c), nil
	case entity.Perching:
		return stepPerching(snap, d, p, c), nil
	case entity.Breathing:
		p.Remaining--
		if p.Remaining <= 0 {
			a.Next = entity.Circling{}
			return a, nil
		}
		a.Kind = ActionBreathe
		a.Destination = p.Point
		a.Damage = c.BreathDamage
		a.Radius = c.BreathRadius
		a.Next = p
		return a, nil
	case entity.Dying:
		p.Remaining--
		if p.Remaining <= 0 {
			a.Kind = ActionDespawn
			a.XP = c.Experience
			return a, nil
		}
		a.Kind = ActionMove
		a.Moves = true
		a.Destination = d.Pos.Add(mgl64.Vec3{0, c.DeathRise, 0})
		a.Next = p
		return a, nil
	default:
		return Action{}, &Error{Entity: d.ID, Op: "step dragon", Err: ErrNoPhase}
	}
}

// circlingDefaults fills zero patrol parameters from the config. Phases
// entered from combat carry no parameters.
func circlingDefaults(p entity.Circling, c DragonConfig) entity.Circling {
	if p.Radius == 0 {
		p.Radius = c.CircleRadius
	}
	if p.Height == 0 {
		p.Height = c.CircleHeight
	}
	if p.Speed == 0 {
		p.Speed = c.CircleSpeed
	}
	return p
}

func stepCircling(snap *entity.State, d *entity.Dragon, p entity.Circling, c DragonConfig) Action {
	p = circlingDefaults(p, c)
	p.Angle = math.Mod(p.Angle+p.Speed, 2*math.Pi)
	p.Ticks++
	a := Action{
		Entity:      d.ID,
		Kind:        ActionMove,
		Moves:       true,
		Destination: d.Home.Add(mgl64.Vec3{math.Cos(p.Angle) * p.Radius, p.Height, math.Sin(p.Angle) * p.Radius}),
		Next:        p,
	}
	if p.Ticks < c.CircleTicks {
		return a
	}
	if tgt := snap.NearestPlayer(d.Pos, c.AggroRange); tgt != nil {
		a.Target = tgt.ID
		a.Next = entity.Charging{Target: tgt.ID, Speed: c.ChargeSpeed}
		return a
	}
	a.Next = entity.Perching{Pos: d.Home, Remaining: c.PerchTicks}
	return a
}

func stepCharging(snap *entity.State, d *entity.Dragon, p entity.Charging, c DragonConfig) Action {
	a := Action{Entity: d.ID}
	tgt := snap.Players[p.Target]
	if tgt == nil || !tgt.Targetable() || tgt.Pos.Sub(d.Pos).Len() > c.AggroRange {
		a.Next = entity.Circling{}
		return a
	}
	p.Ticks++
	if c.ChargeTicks > 0 && p.Ticks > c.ChargeTicks {
		a.Next = entity.Circling{}
		return a
	}
	speed := p.Speed
	if speed == 0 {
		speed = c.ChargeSpeed
	}
	a.Kind = ActionMove
	a.Moves = true
	a.Target = tgt.ID
	a.Destination = moveToward(d.Pos, tgt.Pos, speed)
	a.Next = p
	if a.Destination.Sub(tgt.Pos).Len() <= c.ContactRange {
		a.Kind = ActionAttack
		a.Damage = c.ContactDamage
		a.Next = entity.Perching{Pos: d.Home, Remaining: c.PerchTicks}
	}
	return a
}

func stepPerching(snap *entity.State, d *entity.Dragon, p entity.Perching, c DragonConfig) Action {
	a := Action{Entity: d.ID}
	if !p.Landed {
		a.Moves = true
		if d.Pos.Sub(p.Pos).Len() <= c.LandSpeed {
			p.Landed = true
			a.Kind = ActionLand
			a.Destination = p.Pos
		} else {
			a.Kind = ActionMove
			a.Destination = moveToward(d.Pos, p.Pos, c.LandSpeed)
		}
		a.Next = p
		return a
	}
	p.Remaining--
	if p.Remaining <= 0 {
		a.Next = entity.Circling{}
		return a
	}
	if tgt := snap.NearestPlayer(p.Pos, c.BreathRange); tgt != nil {
		a.Kind = ActionBreathe
		a.Target = tgt.ID
		a.Destination = tgt.Pos
		a.Next = entity.Breathing{Point: tgt.Pos, Remaining: c.BreathTicks}
		return a
	}
	a.Next = p
	return a
}

// StepShulker computes a shulker's action for tick.
func StepShulker(snap *entity.State, sh *entity.Shulker, tick uint64, cfg Config) (Action, error) {
	c := cfg.Shulker
	a := Action{Entity: sh.ID}
	tgt := snap.NearestPlayer(sh.Pos, c.Range)
	if tgt == nil {
		a.Kind = ActionClose
		a.Peek = approach(sh.Peek, 0, c.PeekSpeed)
		return a, nil
	}

	if sh.MaxHealth > 0 && sh.Health < sh.MaxHealth/2 && tick >= sh.NextTeleportTick && c.TeleportRange > 0 {
		s := rng.New(rng.Mix(idSeed(sh.ID) ^ tick))
		r := c.TeleportRange
		a.Kind = ActionTeleport
		a.Moves = true
		a.Destination = sh.Pos.Add(mgl64.Vec3{float64(s.Range(-r, r)), 0, float64(s.Range(-r, r))})
		a.Peek = 0
		return a, nil
	}

	a.Kind = ActionOpen
	a.Open = true
	a.Peek = approach(sh.Peek, 1, c.PeekSpeed)
	a.Target = tgt.ID
	if tick >= sh.NextFireTick {
		pc := cfg.Projectile
		a.Kind = ActionFire
		a.Spawn = &entity.Projectile{
			ID:        projectileID(sh.ID, tick),
			Owner:     sh.ID,
			Pos:       sh.Pos.Add(mgl64.Vec3{0, 0.5, 0}),
			Target:    tgt.ID,
			Accuracy:  pc.Accuracy,
			MaxSpeed:  pc.MaxSpeed,
			Damage:    pc.Damage,
			ExpiresAt: tick + pc.Lifetime,
		}
	}
	return a, nil
}

// StepProjectile homes a projectile toward its target's current position.
func StepProjectile(snap *entity.State, p *entity.Projectile, tick uint64, cfg Config) (Action, error) {
	a := Action{Entity: p.ID, Target: p.Target}
	tgt := snap.Players[p.Target]
	if tick >= p.ExpiresAt || tgt == nil || !tgt.Targetable() {
		a.Kind = ActionExpire
		return a, nil
	}
	contact := cfg.Projectile.ContactDistance
	if tgt.Pos.Sub(p.Pos).Len() > contact {
		step := tgt.Pos.Sub(p.Pos).Mul(p.Accuracy)
		if p.MaxSpeed > 0 && step.Len() > p.MaxSpeed {
			step = step.Normalize().Mul(p.MaxSpeed)
		}
		a.Moves = true
		a.Destination = p.Pos.Add(step)
		if a.Destination.Sub(tgt.Pos).Len() > contact {
			a.Kind = ActionMove
			return a, nil
		}
	}
	a.Kind = ActionHit
	a.Damage = p.Damage
	return a, nil
}

// moveToward moves from toward to by at most step.
func moveToward(from, to mgl64.Vec3, step float64) mgl64.Vec3 {
	d := to.Sub(from)
	if l := d.Len(); l <= step || l == 0 {
		return to
	}
	return from.Add(d.Normalize().Mul(step))
}

func approach(v, target, step float64) float64 {
	if v < target {
		return math.Min(target, v+step)
	}
	return math.Max(target, v-step)
}

func idSeed(id entity.ID) uint64 {
	return binary.BigEndian.Uint64(id[:8]) ^ binary.BigEndian.Uint64(id[8:])
}

// projectileID derives a stable projectile ID from its shooter and tick.
func projectileID(owner entity.ID, tick uint64) entity.ID {
	return uuid.NewSHA1(owner, strconv.AppendUint(nil, tick, 10))
}
