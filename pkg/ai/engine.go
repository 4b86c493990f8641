package ai

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/StoreStation/worldcore/pkg/combat"
	"github.com/StoreStation/worldcore/pkg/entity"
	"github.com/StoreStation/worldcore/pkg/event"
)

// Report summarises one Tick.
type Report struct {
	Tick    uint64
	Actions int
	Errors  int
	// Stale counts actions dropped because the entity changed between the
	// snapshot and the commit.
	Stale int
}

// Engine runs the AI of every dragon, shulker and projectile in a store.
type Engine struct {
	store  *entity.Store
	coord  *combat.Coordinator
	cfg    Config
	events event.Sink
	log    *zap.Logger

	mu   sync.Mutex // serialises ticks and single-entity updates
	tick atomic.Uint64
}

// NewEngine creates an Engine. A nil sink discards events and a nil logger
// discards output.
func NewEngine(store *entity.Store, coord *combat.Coordinator, cfg Config, events event.Sink, log *zap.Logger) *Engine {
	if events == nil {
		events = event.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Engine{store: store, coord: coord, cfg: cfg, events: events, log: log}
}

// CurrentTick returns the tick the next update runs at.
func (e *Engine) CurrentTick() uint64 {
	return e.tick.Load()
}

// Config returns the engine's tuning.
func (e *Engine) Config() Config {
	return e.cfg
}

// HandleDamage applies damage at the current tick.
func (e *Engine) HandleDamage(id entity.ID, amount float64, src combat.Source) combat.DamageResult {
	return e.coord.HandleDamage(id, amount, src, e.CurrentTick())
}

// Tick computes every entity's action from one snapshot, commits them in ID
// order, heals bosses, expires effects and advances the clock. A failing
// entity is logged and skipped.
func (e *Engine) Tick(ctx context.Context) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tick := e.tick.Load()
	rep := Report{Tick: tick}
	snap := e.store.Snapshot()

	ids := make([]entity.ID, 0, len(snap.Dragons)+len(snap.Shulkers)+len(snap.Projectiles))
	ids = append(ids, entity.SortedIDs(snap.Dragons)...)
	ids = append(ids, entity.SortedIDs(snap.Shulkers)...)
	ids = append(ids, entity.SortedIDs(snap.Projectiles)...)
	slices.SortFunc(ids, entity.CompareIDs)

	actions := make([]Action, len(ids))
	errs := make([]error, len(ids))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Workers)
	for i, id := range ids {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			actions[i], errs[i] = e.step(snap, id, tick)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return rep, err
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	for i, a := range actions {
		if errs[i] != nil {
			rep.Errors++
			e.log.Warn("ai step failed", zap.Uint64("tick", tick), zap.Error(errs[i]))
			continue
		}
		if e.commit(snap, a, tick) {
			rep.Actions++
		} else {
			rep.Stale++
		}
	}

	for _, id := range entity.SortedIDs(snap.Dragons) {
		e.coord.ApplyHealing(id)
	}
	e.coord.ExpireEffects(tick)
	e.tick.Add(1)
	return rep, nil
}

// UpdateDragon runs one dragon's step and commits it at the current tick,
// followed by its healing.
func (e *Engine) UpdateDragon(id entity.ID) error {
	return e.update(id, entity.KindDragon, "update dragon")
}

// UpdateShulker runs one shulker's step and commits it at the current tick.
func (e *Engine) UpdateShulker(id entity.ID) error {
	return e.update(id, entity.KindShulker, "update shulker")
}

// UpdateProjectile runs one projectile's step and commits it at the current
// tick.
func (e *Engine) UpdateProjectile(id entity.ID) error {
	return e.update(id, entity.KindProjectile, "update projectile")
}

func (e *Engine) update(id entity.ID, want entity.Kind, op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tick := e.tick.Load()
	snap := e.store.Snapshot()
	if got := snap.Kind(id); got != want {
		err := &Error{Entity: id, Op: op, Err: kindError(got, want)}
		e.log.Warn("ai update failed", zap.Error(err))
		return err
	}
	a, err := e.step(snap, id, tick)
	if err != nil {
		e.log.Warn("ai update failed", zap.Error(err))
		return err
	}
	e.commit(snap, a, tick)
	if want == entity.KindDragon {
		e.coord.ApplyHealing(id)
	}
	return nil
}

func kindError(got, want entity.Kind) error {
	if got == entity.KindNone {
		return entity.ErrNotFound
	}
	return fmt.Errorf("%w: %s is a %s", ErrWrongKind, want, got)
}

func (e *Engine) step(snap *entity.State, id entity.ID, tick uint64) (Action, error) {
	switch snap.Kind(id) {
	case entity.KindDragon:
		return StepDragon(snap, snap.Dragons[id], tick, e.cfg)
	case entity.KindShulker:
		return StepShulker(snap, snap.Shulkers[id], tick, e.cfg)
	case entity.KindProjectile:
		return StepProjectile(snap, snap.Projectiles[id], tick, e.cfg)
	case entity.KindNone:
		return Action{}, &Error{Entity: id, Op: "step", Err: entity.ErrNotFound}
	default:
		return Action{}, &Error{Entity: id, Op: "step", Err: fmt.Errorf("%w: %s has no behaviour", ErrWrongKind, snap.Kind(id))}
	}
}

// commit applies a to the store and reports whether it took effect.
func (e *Engine) commit(snap *entity.State, a Action, tick uint64) bool {
	switch snap.Kind(a.Entity) {
	case entity.KindDragon:
		return e.commitDragon(snap.Dragons[a.Entity].Phase, a, tick)
	case entity.KindShulker:
		return e.commitShulker(a, tick)
	case entity.KindProjectile:
		return e.commitProjectile(a, tick)
	}
	return false
}

func (e *Engine) commitDragon(seen entity.Phase, a Action, tick uint64) bool {
	var evs []event.Event
	applied := false
	e.store.Update(func(st *entity.State) error {
		d := st.Dragons[a.Entity]
		if d == nil || entity.PhaseName(d.Phase) != entity.PhaseName(seen) {
			return nil
		}
		applied = true
		if a.Moves {
			d.Pos = a.Destination
		}
		if a.Kind == ActionDespawn {
			delete(st.Dragons, d.ID)
			evs = append(evs, event.Event{Kind: event.BossDefeated, Tick: tick, Entity: d.ID, Pos: d.Pos, Amount: float64(a.XP)})
			return nil
		}
		if a.Next == nil {
			return nil
		}
		from := entity.PhaseName(d.Phase)
		d.Phase = a.Next
		switch n := a.Next.(type) {
		case entity.Charging:
			d.Target = uuid.NullUUID{UUID: n.Target, Valid: true}
		case entity.Perching:
			if from != n.Name() {
				d.PerchDamage = 0
			}
			d.Target = uuid.NullUUID{}
		case entity.Circling, entity.Dying:
			d.Target = uuid.NullUUID{}
		}
		if to := entity.PhaseName(a.Next); to != from {
			evs = append(evs, event.Event{Kind: event.PhaseChanged, Tick: tick, Entity: d.ID, Pos: d.Pos, Detail: from + "->" + to})
		}
		return nil
	})
	if !applied {
		e.log.Debug("dragon action dropped", zap.Stringer("dragon", a.Entity), zap.Stringer("action", a.Kind))
		return false
	}
	for _, ev := range evs {
		e.events.Emit(ev)
	}

	src := combat.Source{Kind: combat.SourceBoss, Entity: a.Entity}
	switch {
	case a.Kind == ActionAttack:
		e.coord.HandleDamage(a.Target, a.Damage, src, tick)
	case a.Kind == ActionBreathe && a.Damage > 0:
		var hit []entity.ID
		e.store.View(func(st *entity.State) {
			for _, p := range st.PlayersInRange(a.Destination, a.Radius) {
				hit = append(hit, p.ID)
			}
		})
		for _, id := range hit {
			e.coord.HandleDamage(id, a.Damage, src, tick)
		}
	}
	return true
}

func (e *Engine) commitShulker(a Action, tick uint64) bool {
	var evs []event.Event
	applied := false
	e.store.Update(func(st *entity.State) error {
		sh := st.Shulkers[a.Entity]
		if sh == nil {
			return nil
		}
		applied = true
		wasOpen := sh.Open
		if a.Kind == ActionTeleport {
			from := sh.Pos
			sh.Pos = a.Destination
			sh.Open = false
			sh.Peek = 0
			sh.NextTeleportTick = tick + e.cfg.Shulker.TeleportCooldown
			evs = append(evs, event.Event{Kind: event.ShulkerTeleported, Tick: tick, Entity: sh.ID, Pos: from, Detail: fmt.Sprintf("%.0f %.0f %.0f", a.Destination.X(), a.Destination.Y(), a.Destination.Z())})
		} else {
			sh.Open = a.Open
			sh.Peek = a.Peek
		}
		switch {
		case sh.Open && !wasOpen:
			evs = append(evs, event.Event{Kind: event.ShulkerOpened, Tick: tick, Entity: sh.ID, Other: a.Target, Pos: sh.Pos})
		case !sh.Open && wasOpen:
			evs = append(evs, event.Event{Kind: event.ShulkerClosed, Tick: tick, Entity: sh.ID, Pos: sh.Pos})
		}
		if a.Spawn != nil && st.Kind(a.Spawn.ID) == entity.KindNone {
			p := *a.Spawn
			st.Projectiles[p.ID] = &p
			sh.NextFireTick = tick + e.cfg.Shulker.FireCooldown
			evs = append(evs, event.Event{Kind: event.ProjectileFired, Tick: tick, Entity: p.ID, Other: p.Target, Pos: p.Pos})
		}
		return nil
	})
	for _, ev := range evs {
		e.events.Emit(ev)
	}
	return applied
}

func (e *Engine) commitProjectile(a Action, tick uint64) bool {
	var evs []event.Event
	var owner entity.ID
	applied := false
	e.store.Update(func(st *entity.State) error {
		p := st.Projectiles[a.Entity]
		if p == nil {
			return nil
		}
		applied = true
		owner = p.Owner
		if a.Moves {
			p.Pos = a.Destination
		}
		switch a.Kind {
		case ActionExpire:
			delete(st.Projectiles, p.ID)
			evs = append(evs, event.Event{Kind: event.ProjectileExpired, Tick: tick, Entity: p.ID, Other: p.Target, Pos: p.Pos})
		case ActionHit:
			delete(st.Projectiles, p.ID)
			evs = append(evs, event.Event{Kind: event.ProjectileHit, Tick: tick, Entity: p.ID, Other: p.Target, Pos: p.Pos, Amount: a.Damage})
		}
		return nil
	})
	if !applied {
		return false
	}
	for _, ev := range evs {
		e.events.Emit(ev)
	}
	if a.Kind != ActionHit {
		return true
	}

	e.coord.HandleDamage(a.Target, a.Damage, combat.Source{Kind: combat.SourceProjectile, Entity: owner}, tick)
	pc := e.cfg.Projectile
	if pc.Effect != "" {
		err := e.coord.ApplyEffect(a.Target, entity.Effect{Name: pc.Effect, ExpiresAt: tick + pc.EffectTicks})
		if err != nil {
			e.log.Debug("effect not applied", zap.Stringer("target", a.Target), zap.Error(err))
		}
	}
	return true
}
