// Package combat resolves effects that touch more than one entity in a tick:
// damage that forces a boss phase change, crystal destruction and boss
// healing. Every operation runs in a single store transaction.
package combat

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/StoreStation/worldcore/pkg/entity"
	"github.com/StoreStation/worldcore/pkg/event"
)

// SourceKind classifies where damage came from.
type SourceKind uint8

const (
	SourceUnknown SourceKind = iota
	SourcePlayer
	SourceExplosion
	SourceProjectile
	SourceBoss
)

func (k SourceKind) String() string {
	switch k {
	case SourcePlayer:
		return "player"
	case SourceExplosion:
		return "explosion"
	case SourceProjectile:
		return "projectile"
	case SourceBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// Source is the origin of damage. Entity may be uuid.Nil.
type Source struct {
	Kind   SourceKind
	Entity entity.ID
}

// Rejection reasons reported in DamageResult.Rejected.
const (
	RejectNotFound     = "not found"
	RejectInvulnerable = "invulnerable"
	RejectDying        = "dying"
	RejectDead         = "dead"
	RejectAmount       = "amount not positive and finite"
	RejectImmune       = "not damageable"
)

// DamageResult describes what a damage request did.
type DamageResult struct {
	Applied      bool
	Rejected     string
	Amount       float64 // damage actually dealt after reductions
	Health       float64 // health after the request
	Killed       bool
	PhaseChanged bool
}

// Config holds the tunables of the coordinator.
type Config struct {
	// HealPerCrystal is the health each active linked crystal restores per
	// tick.
	HealPerCrystal float64 `yaml:"per_crystal" validate:"gte=0"`
	// CrystalBacklash is dealt to the boss when a player destroys one of its
	// crystals.
	CrystalBacklash float64 `yaml:"crystal_backlash" validate:"gte=0"`
	ExplosionRadius float64 `yaml:"explosion_radius" validate:"gte=0"`
	ExplosionDamage float64 `yaml:"explosion_damage" validate:"gte=0"`
	// ShieldUntilCrystalLost drops the boss's invulnerability when any of its
	// crystals is destroyed.
	ShieldUntilCrystalLost bool `yaml:"shield_until_crystal_lost"`
	// PerchTakeoffDamage is the damage a perched boss absorbs before taking
	// off again.
	PerchTakeoffDamage float64 `yaml:"perch_takeoff_damage" validate:"gte=0"`
	DeathTicks         int     `yaml:"-"`
	// ClosedShulkerFactor scales damage dealt to a closed shulker.
	ClosedShulkerFactor float64 `yaml:"closed_shulker_factor" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		HealPerCrystal:      1,
		CrystalBacklash:     10,
		ExplosionRadius:     6,
		ExplosionDamage:     12,
		PerchTakeoffDamage:  50,
		DeathTicks:          200,
		ClosedShulkerFactor: 0.25,
	}
}

// Coordinator applies cross-entity effects to a store.
type Coordinator struct {
	store  *entity.Store
	cfg    Config
	events event.Sink
	log    *zap.Logger
}

// New creates a Coordinator. A nil sink discards events and a nil logger
// discards output.
func New(store *entity.Store, cfg Config, events event.Sink, log *zap.Logger) *Coordinator {
	if events == nil {
		events = event.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{store: store, cfg: cfg, events: events, log: log}
}

// Config returns the coordinator's tuning.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// HandleDamage applies amount to entity id. Damage to a crystal destroys it.
// NaN and infinite amounts are rejected like non-positive ones.
func (c *Coordinator) HandleDamage(id entity.ID, amount float64, src Source, tick uint64) DamageResult {
	if !(amount > 0) || math.IsInf(amount, 1) {
		return DamageResult{Rejected: RejectAmount}
	}
	var res DamageResult
	var evs []event.Event
	var crystal bool
	c.store.Update(func(st *entity.State) error {
		if st.Kind(id) == entity.KindCrystal {
			crystal = true
			return nil
		}
		res = c.damage(st, id, amount, src, tick, &evs)
		return nil
	})
	if crystal {
		if c.DestroyCrystal(id, src, tick) {
			return DamageResult{Applied: true, Amount: amount, Killed: true}
		}
		return DamageResult{Rejected: RejectDead}
	}
	c.emit(evs)
	if res.Rejected != "" {
		c.log.Debug("damage rejected", zap.Stringer("entity", id), zap.String("reason", res.Rejected))
	}
	return res
}

// damage applies one damage request inside an open transaction.
func (c *Coordinator) damage(st *entity.State, id entity.ID, amount float64, src Source, tick uint64, evs *[]event.Event) DamageResult {
	switch st.Kind(id) {
	case entity.KindDragon:
		return c.damageDragon(st.Dragons[id], amount, src, tick, evs)
	case entity.KindShulker:
		sh := st.Shulkers[id]
		if !sh.Open && c.cfg.ClosedShulkerFactor > 0 {
			amount *= c.cfg.ClosedShulkerFactor
		}
		sh.Health = math.Max(0, sh.Health-amount)
		res := DamageResult{Applied: true, Amount: amount, Health: sh.Health}
		*evs = append(*evs, damageEvent(id, src, tick, amount, sh.Pos))
		if sh.Health == 0 {
			delete(st.Shulkers, id)
			res.Killed = true
		}
		return res
	case entity.KindPlayer:
		p := st.Players[id]
		if p.Dead {
			return DamageResult{Rejected: RejectDead}
		}
		p.Health = math.Max(0, p.Health-amount)
		res := DamageResult{Applied: true, Amount: amount, Health: p.Health}
		*evs = append(*evs, damageEvent(id, src, tick, amount, p.Pos))
		if p.Health == 0 {
			p.Dead = true
			res.Killed = true
		}
		return res
	case entity.KindProjectile:
		return DamageResult{Rejected: RejectImmune}
	default:
		return DamageResult{Rejected: RejectNotFound}
	}
}

func (c *Coordinator) damageDragon(d *entity.Dragon, amount float64, src Source, tick uint64, evs *[]event.Event) DamageResult {
	if entity.IsDying(d.Phase) {
		return DamageResult{Rejected: RejectDying, Health: d.Health}
	}
	if d.Invulnerable {
		return DamageResult{Rejected: RejectInvulnerable, Health: d.Health}
	}

	d.Health = math.Max(0, d.Health-amount)
	d.LastDamageTick = tick
	res := DamageResult{Applied: true, Amount: amount, Health: d.Health}
	*evs = append(*evs, damageEvent(d.ID, src, tick, amount, d.Pos))

	if d.Health == 0 {
		from := entity.PhaseName(d.Phase)
		d.Phase = entity.Dying{Remaining: c.cfg.DeathTicks, Total: c.cfg.DeathTicks}
		d.Target = uuid.NullUUID{}
		res.Killed = true
		res.PhaseChanged = true
		*evs = append(*evs, phaseEvent(d, tick, from))
		return res
	}

	switch d.Phase.(type) {
	case entity.Perching, entity.Breathing:
		d.PerchDamage += amount
		if c.cfg.PerchTakeoffDamage > 0 && d.PerchDamage >= c.cfg.PerchTakeoffDamage {
			from := entity.PhaseName(d.Phase)
			d.Phase = entity.Circling{}
			d.PerchDamage = 0
			res.PhaseChanged = true
			*evs = append(*evs, phaseEvent(d, tick, from))
		}
	}
	return res
}

// DestroyCrystal removes an active crystal, unlinks it from its boss, applies
// the explosion and emits the events. It reports false, changing nothing,
// when the crystal is missing or already inactive.
func (c *Coordinator) DestroyCrystal(id entity.ID, src Source, tick uint64) bool {
	var evs []event.Event
	destroyed := false
	c.store.Update(func(st *entity.State) error {
		cr := st.Crystals[id]
		if cr == nil || !cr.Active {
			return nil
		}
		cr.Active = false
		delete(st.Crystals, id)

		if cr.Boss.Valid {
			if d := st.Dragons[cr.Boss.UUID]; d != nil {
				d.Crystals = removeID(d.Crystals, id)
				if c.cfg.ShieldUntilCrystalLost {
					d.Invulnerable = false
				}
				if src.Kind == SourcePlayer && c.cfg.CrystalBacklash > 0 {
					c.damageDragon(d, c.cfg.CrystalBacklash, Source{Kind: SourceExplosion, Entity: id}, tick, &evs)
				}
			}
		}

		evs = append([]event.Event{{
			Kind:   event.CrystalDestroyed,
			Tick:   tick,
			Entity: id,
			Other:  cr.Boss.UUID,
			Pos:    cr.Pos,
			Detail: src.Kind.String(),
		}}, evs...)

		if c.cfg.ExplosionRadius > 0 {
			evs = append(evs, event.Event{Kind: event.Explosion, Tick: tick, Entity: id, Pos: cr.Pos, Amount: c.cfg.ExplosionRadius})
			for _, p := range st.PlayersInRange(cr.Pos, c.cfg.ExplosionRadius) {
				dmg := explosionDamage(c.cfg.ExplosionDamage, c.cfg.ExplosionRadius, p.Pos.Sub(cr.Pos).Len())
				if dmg > 0 {
					c.damage(st, p.ID, dmg, Source{Kind: SourceExplosion, Entity: id}, tick, &evs)
				}
			}
		}
		destroyed = true
		return nil
	})
	if !destroyed {
		c.log.Debug("crystal already destroyed", zap.Stringer("crystal", id))
		return false
	}
	c.emit(evs)
	return true
}

// explosionDamage falls off linearly from full damage at the centre to zero
// at the radius.
func explosionDamage(full, radius, dist float64) float64 {
	if radius <= 0 || dist >= radius {
		return 0
	}
	return full * (1 - dist/radius)
}

// ApplyHealing heals a boss by HealPerCrystal for every active crystal
// linked to it, clamped to its maximum health, and returns the amount
// healed. Dying bosses do not heal.
func (c *Coordinator) ApplyHealing(bossID entity.ID) float64 {
	healed := 0.0
	c.store.Update(func(st *entity.State) error {
		d := st.Dragons[bossID]
		if d == nil || entity.IsDying(d.Phase) {
			return nil
		}
		active := 0
		for _, cid := range d.Crystals {
			cr := st.Crystals[cid]
			if cr != nil && cr.Active && cr.Boss.Valid && cr.Boss.UUID == d.ID {
				active++
			}
		}
		if active == 0 {
			return nil
		}
		next := math.Min(d.MaxHealth, d.Health+float64(active)*c.cfg.HealPerCrystal)
		healed = math.Max(0, next-d.Health)
		d.Health = math.Max(d.Health, next)
		return nil
	})
	return healed
}

// LinkCrystal makes crystal heal boss, unlinking it from any previous boss.
func (c *Coordinator) LinkCrystal(bossID, crystalID entity.ID) error {
	return c.store.Update(func(st *entity.State) error {
		d := st.Dragons[bossID]
		if d == nil {
			return fmt.Errorf("boss %s: %w", bossID, entity.ErrNotFound)
		}
		cr := st.Crystals[crystalID]
		if cr == nil {
			return fmt.Errorf("crystal %s: %w", crystalID, entity.ErrNotFound)
		}
		if cr.Boss.Valid && cr.Boss.UUID != bossID {
			if old := st.Dragons[cr.Boss.UUID]; old != nil {
				old.Crystals = removeID(old.Crystals, crystalID)
			}
		}
		cr.Boss = uuid.NullUUID{UUID: bossID, Valid: true}
		for _, id := range d.Crystals {
			if id == crystalID {
				return nil
			}
		}
		d.Crystals = append(d.Crystals, crystalID)
		return nil
	})
}

// ApplyEffect gives a player a status effect, replacing one of the same name.
func (c *Coordinator) ApplyEffect(playerID entity.ID, e entity.Effect) error {
	return c.store.Update(func(st *entity.State) error {
		p := st.Players[playerID]
		if p == nil {
			return fmt.Errorf("player %s: %w", playerID, entity.ErrNotFound)
		}
		if p.Effects == nil {
			p.Effects = make(map[string]entity.Effect)
		}
		p.Effects[e.Name] = e
		return nil
	})
}

// ExpireEffects removes effects whose expiry tick has passed and returns how
// many were removed.
func (c *Coordinator) ExpireEffects(tick uint64) int {
	var evs []event.Event
	c.store.Update(func(st *entity.State) error {
		for _, id := range entity.SortedIDs(st.Players) {
			p := st.Players[id]
			names := maps.Keys(p.Effects)
			slices.Sort(names)
			for _, name := range names {
				if p.Effects[name].ExpiresAt <= tick {
					delete(p.Effects, name)
					evs = append(evs, event.Event{Kind: event.EffectExpired, Tick: tick, Entity: id, Detail: name})
				}
			}
		}
		return nil
	})
	c.emit(evs)
	return len(evs)
}

func (c *Coordinator) emit(evs []event.Event) {
	for _, e := range evs {
		c.events.Emit(e)
	}
}

func damageEvent(id entity.ID, src Source, tick uint64, amount float64, pos mgl64.Vec3) event.Event {
	return event.Event{Kind: event.Damage, Tick: tick, Entity: id, Other: src.Entity, Pos: pos, Detail: src.Kind.String(), Amount: amount}
}

func phaseEvent(d *entity.Dragon, tick uint64, from string) event.Event {
	return event.Event{Kind: event.PhaseChanged, Tick: tick, Entity: d.ID, Pos: d.Pos, Detail: from + "->" + entity.PhaseName(d.Phase)}
}

func removeID(ids []entity.ID, id entity.ID) []entity.ID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
