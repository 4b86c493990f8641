package combat

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/StoreStation/worldcore/pkg/entity"
	"github.com/StoreStation/worldcore/pkg/event"
)

type fight struct {
	store  *entity.Store
	coord  *Coordinator
	events *event.Recorder
	dragon entity.ID
}

func newFight(t *testing.T, cfg Config, health float64, phase entity.Phase, crystals int) *fight {
	t.Helper()
	f := &fight{store: entity.NewStore(), events: &event.Recorder{}, dragon: uuid.New()}
	f.coord = New(f.store, cfg, f.events, nil)
	if err := f.store.AddDragon(entity.Dragon{ID: f.dragon, Health: health, MaxHealth: 200, Phase: phase}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < crystals; i++ {
		id := uuid.New()
		f.store.AddCrystal(entity.Crystal{ID: id, Pos: mgl64.Vec3{float64(40 + i), 80, 0}, Active: true})
		if err := f.coord.LinkCrystal(f.dragon, id); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fight) health(t *testing.T) float64 {
	t.Helper()
	d, ok := f.store.Dragon(f.dragon)
	if !ok {
		t.Fatal("dragon missing")
	}
	return d.Health
}

func TestHealingOneCrystal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HealPerCrystal = 2
	f := newFight(t, cfg, 10, entity.Circling{}, 1)

	if got := f.coord.ApplyHealing(f.dragon); got != 2 {
		t.Errorf("healed %v, want 2", got)
	}
	if h := f.health(t); h != 12 {
		t.Errorf("health = %v, want 12", h)
	}
}

func TestHealingAccumulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HealPerCrystal = 1.5
	tests := []struct {
		crystals int
		health   float64
		want     float64
	}{
		{0, 50, 50},
		{1, 50, 51.5},
		{4, 50, 56},
		{10, 50, 65},
		{10, 195, 200},
		{3, 200, 200},
	}
	for _, tt := range tests {
		f := newFight(t, cfg, tt.health, entity.Circling{}, tt.crystals)
		f.coord.ApplyHealing(f.dragon)
		if h := f.health(t); h != tt.want {
			t.Errorf("%d crystals from %v: health = %v, want %v", tt.crystals, tt.health, h, tt.want)
		}
	}
}

func TestHealingIgnoresInactiveAndDying(t *testing.T) {
	cfg := DefaultConfig()
	f := newFight(t, cfg, 100, entity.Circling{}, 2)
	d, _ := f.store.Dragon(f.dragon)
	f.store.Update(func(st *entity.State) error {
		st.Crystals[d.Crystals[0]].Active = false
		return nil
	})
	if got := f.coord.ApplyHealing(f.dragon); got != cfg.HealPerCrystal {
		t.Errorf("healed %v with one active crystal, want %v", got, cfg.HealPerCrystal)
	}

	dying := newFight(t, cfg, 0, entity.Dying{Remaining: 10, Total: 10}, 3)
	if got := dying.coord.ApplyHealing(dying.dragon); got != 0 {
		t.Errorf("dying dragon healed %v", got)
	}
}

func TestLethalDamageForcesDying(t *testing.T) {
	phases := []entity.Phase{
		entity.Circling{Radius: 30},
		entity.Charging{Target: uuid.New(), Speed: 1, Ticks: 20},
		entity.Perching{Landed: true, Remaining: 40},
		entity.Breathing{Remaining: 20},
	}
	for _, p := range phases {
		f := newFight(t, DefaultConfig(), 2, p, 0)
		res := f.coord.HandleDamage(f.dragon, 5, Source{Kind: SourcePlayer}, 7)
		if !res.Applied || !res.Killed || !res.PhaseChanged || res.Health != 0 {
			t.Errorf("from %s: result = %+v", p.Name(), res)
		}
		d, _ := f.store.Dragon(f.dragon)
		if d.Health != 0 {
			t.Errorf("from %s: health = %v, want 0", p.Name(), d.Health)
		}
		if _, ok := d.Phase.(entity.Dying); !ok {
			t.Errorf("from %s: phase = %s, want dying", p.Name(), entity.PhaseName(d.Phase))
		}
		if d.LastDamageTick != 7 {
			t.Errorf("LastDamageTick = %d, want 7", d.LastDamageTick)
		}
	}
}

func TestDamageRejected(t *testing.T) {
	f := newFight(t, DefaultConfig(), 100, entity.Circling{}, 0)
	f.store.Update(func(st *entity.State) error {
		st.Dragons[f.dragon].Invulnerable = true
		return nil
	})
	if res := f.coord.HandleDamage(f.dragon, 30, Source{Kind: SourcePlayer}, 1); res.Applied || res.Rejected != RejectInvulnerable {
		t.Errorf("invulnerable: %+v", res)
	}

	dying := newFight(t, DefaultConfig(), 0, entity.Dying{Remaining: 5, Total: 10}, 0)
	if res := dying.coord.HandleDamage(dying.dragon, 30, Source{}, 1); res.Rejected != RejectDying {
		t.Errorf("dying: %+v", res)
	}
	if res := f.coord.HandleDamage(uuid.New(), 30, Source{}, 1); res.Rejected != RejectNotFound {
		t.Errorf("missing: %+v", res)
	}
	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if res := f.coord.HandleDamage(f.dragon, amount, Source{}, 1); res.Applied || res.Rejected != RejectAmount {
			t.Errorf("amount %v: %+v", amount, res)
		}
	}
	if h := f.health(t); h != 100 {
		t.Errorf("health changed to %v", h)
	}

	open := newFight(t, DefaultConfig(), 100, entity.Circling{}, 0)
	if res := open.coord.HandleDamage(open.dragon, math.NaN(), Source{Kind: SourcePlayer}, 1); res.Applied {
		t.Errorf("NaN applied to vulnerable dragon: %+v", res)
	}
	if h := open.health(t); h != 100 || math.IsNaN(h) {
		t.Errorf("health after NaN = %v, want 100", h)
	}
}

func TestPerchTakeoff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerchTakeoffDamage = 20
	f := newFight(t, cfg, 150, entity.Perching{Landed: true, Remaining: 100}, 0)

	res := f.coord.HandleDamage(f.dragon, 12, Source{Kind: SourcePlayer}, 1)
	if res.PhaseChanged {
		t.Fatal("took off before threshold")
	}
	res = f.coord.HandleDamage(f.dragon, 12, Source{Kind: SourcePlayer}, 2)
	if !res.PhaseChanged {
		t.Fatal("did not take off after 24 damage")
	}
	d, _ := f.store.Dragon(f.dragon)
	if _, ok := d.Phase.(entity.Circling); !ok || d.PerchDamage != 0 {
		t.Errorf("phase = %s, perch damage %v", entity.PhaseName(d.Phase), d.PerchDamage)
	}
}

func TestDestroyCrystal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShieldUntilCrystalLost = true
	cfg.CrystalBacklash = 10
	f := newFight(t, cfg, 100, entity.Circling{}, 2)
	f.store.Update(func(st *entity.State) error {
		st.Dragons[f.dragon].Invulnerable = true
		return nil
	})
	d, _ := f.store.Dragon(f.dragon)
	target := d.Crystals[0]
	cr, _ := f.store.Crystal(target)

	near := entity.Player{ID: uuid.New(), Pos: cr.Pos.Add(mgl64.Vec3{1, 0, 0}), Health: 20, MaxHealth: 20}
	far := entity.Player{ID: uuid.New(), Pos: cr.Pos.Add(mgl64.Vec3{50, 0, 0}), Health: 20, MaxHealth: 20}
	f.store.AddPlayer(near)
	f.store.AddPlayer(far)

	if !f.coord.DestroyCrystal(target, Source{Kind: SourcePlayer, Entity: near.ID}, 3) {
		t.Fatal("DestroyCrystal returned false")
	}
	if _, ok := f.store.Crystal(target); ok {
		t.Error("crystal still in store")
	}
	d, _ = f.store.Dragon(f.dragon)
	for _, id := range d.Crystals {
		if id == target {
			t.Error("boss still links destroyed crystal")
		}
	}
	if len(d.Crystals) != 1 {
		t.Errorf("boss links %d crystals, want 1", len(d.Crystals))
	}
	if d.Invulnerable {
		t.Error("shield not cleared")
	}
	if d.Health != 90 {
		t.Errorf("boss health = %v, want backlash to 90", d.Health)
	}
	if p, _ := f.store.Player(near.ID); p.Health >= 20 {
		t.Errorf("near player health = %v, want explosion damage", p.Health)
	}
	if p, _ := f.store.Player(far.ID); p.Health != 20 {
		t.Errorf("far player health = %v, want 20", p.Health)
	}
	if len(f.events.OfKind(event.CrystalDestroyed)) != 1 || len(f.events.OfKind(event.Explosion)) != 1 {
		t.Errorf("events = %+v", f.events.Events())
	}

	// A second destruction is a silent no-op.
	before := len(f.events.Events())
	if f.coord.DestroyCrystal(target, Source{Kind: SourcePlayer}, 4) {
		t.Error("second DestroyCrystal returned true")
	}
	if len(f.events.Events()) != before {
		t.Error("no-op emitted events")
	}
}

func TestDestroyCrystalByExplosionNoBacklash(t *testing.T) {
	f := newFight(t, DefaultConfig(), 100, entity.Circling{}, 1)
	d, _ := f.store.Dragon(f.dragon)
	f.coord.DestroyCrystal(d.Crystals[0], Source{Kind: SourceExplosion}, 1)
	if h := f.health(t); h != 100 {
		t.Errorf("health = %v, want no backlash", h)
	}
}

func TestHandleDamageOnCrystal(t *testing.T) {
	f := newFight(t, DefaultConfig(), 100, entity.Circling{}, 1)
	d, _ := f.store.Dragon(f.dragon)
	res := f.coord.HandleDamage(d.Crystals[0], 1, Source{Kind: SourcePlayer}, 1)
	if !res.Killed {
		t.Errorf("result = %+v, want crystal destroyed", res)
	}
	d, _ = f.store.Dragon(f.dragon)
	if len(d.Crystals) != 0 {
		t.Error("crystal still linked")
	}
}

func TestShulkerDamage(t *testing.T) {
	store := entity.NewStore()
	c := New(store, DefaultConfig(), nil, nil)
	closed := entity.Shulker{ID: uuid.New(), Health: 30, MaxHealth: 30}
	open := entity.Shulker{ID: uuid.New(), Health: 30, MaxHealth: 30, Open: true}
	store.AddShulker(closed)
	store.AddShulker(open)

	if res := c.HandleDamage(closed.ID, 8, Source{Kind: SourcePlayer}, 1); res.Amount != 2 || res.Health != 28 {
		t.Errorf("closed shulker: %+v", res)
	}
	if res := c.HandleDamage(open.ID, 8, Source{Kind: SourcePlayer}, 1); res.Amount != 8 || res.Health != 22 {
		t.Errorf("open shulker: %+v", res)
	}
	if res := c.HandleDamage(open.ID, 100, Source{Kind: SourcePlayer}, 2); !res.Killed || res.Health != 0 {
		t.Errorf("lethal: %+v", res)
	}
	if store.Kind(open.ID) != entity.KindNone {
		t.Error("dead shulker not removed")
	}
}

func TestPlayerDeath(t *testing.T) {
	store := entity.NewStore()
	c := New(store, DefaultConfig(), nil, nil)
	p := entity.Player{ID: uuid.New(), Health: 5, MaxHealth: 20}
	store.AddPlayer(p)

	if res := c.HandleDamage(p.ID, 9, Source{Kind: SourceBoss}, 1); !res.Killed || res.Health != 0 {
		t.Errorf("result = %+v", res)
	}
	got, _ := store.Player(p.ID)
	if !got.Dead {
		t.Error("player not marked dead")
	}
	if res := c.HandleDamage(p.ID, 1, Source{}, 2); res.Rejected != RejectDead {
		t.Errorf("damage to dead player: %+v", res)
	}
}

func TestLinkCrystalMovesBetweenBosses(t *testing.T) {
	f := newFight(t, DefaultConfig(), 100, entity.Circling{}, 1)
	d, _ := f.store.Dragon(f.dragon)
	cid := d.Crystals[0]

	other := uuid.New()
	f.store.AddDragon(entity.Dragon{ID: other, Health: 100, MaxHealth: 200, Phase: entity.Circling{}})
	if err := f.coord.LinkCrystal(other, cid); err != nil {
		t.Fatal(err)
	}
	d, _ = f.store.Dragon(f.dragon)
	if len(d.Crystals) != 0 {
		t.Error("old boss kept the crystal")
	}
	cr, _ := f.store.Crystal(cid)
	if !cr.Boss.Valid || cr.Boss.UUID != other {
		t.Errorf("crystal boss = %v", cr.Boss)
	}
	if err := f.coord.LinkCrystal(uuid.New(), cid); err == nil {
		t.Error("linking to a missing boss succeeded")
	}
}

func TestEffects(t *testing.T) {
	store := entity.NewStore()
	var rec event.Recorder
	c := New(store, DefaultConfig(), &rec, nil)
	p := entity.Player{ID: uuid.New(), Health: 20}
	store.AddPlayer(p)

	c.ApplyEffect(p.ID, entity.Effect{Name: "levitation", ExpiresAt: 10})
	c.ApplyEffect(p.ID, entity.Effect{Name: "poison", ExpiresAt: 30})
	if err := c.ApplyEffect(uuid.New(), entity.Effect{Name: "x"}); err == nil {
		t.Error("ApplyEffect on missing player succeeded")
	}

	if n := c.ExpireEffects(9); n != 0 {
		t.Errorf("expired %d at tick 9", n)
	}
	if n := c.ExpireEffects(10); n != 1 {
		t.Errorf("expired %d at tick 10, want 1", n)
	}
	got, _ := store.Player(p.ID)
	if _, ok := got.Effects["poison"]; !ok || len(got.Effects) != 1 {
		t.Errorf("effects = %v", got.Effects)
	}
	if len(rec.OfKind(event.EffectExpired)) != 1 {
		t.Error("no expiry event")
	}
}

func TestExplosionDamageFalloff(t *testing.T) {
	tests := []struct {
		dist, want float64
	}{
		{0, 12},
		{3, 6},
		{6, 0},
		{9, 0},
	}
	for _, tt := range tests {
		if got := explosionDamage(12, 6, tt.dist); got != tt.want {
			t.Errorf("explosionDamage(12, 6, %v) = %v, want %v", tt.dist, got, tt.want)
		}
	}
}
