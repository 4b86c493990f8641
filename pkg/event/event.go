// Package event carries notifications out of the world core: placed
// structures, destroyed crystals, explosions and boss phase changes.
package event

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind identifies an event.
type Kind uint8

const (
	StructurePlaced Kind = iota + 1
	StructureRejected
	CrystalDestroyed
	Explosion
	PhaseChanged
	BossDefeated
	ProjectileFired
	ProjectileHit
	ProjectileExpired
	ShulkerOpened
	ShulkerClosed
	ShulkerTeleported
	Damage
	EffectExpired
)

var kindNames = map[Kind]string{
	StructurePlaced:   "structure_placed",
	StructureRejected: "structure_rejected",
	CrystalDestroyed:  "crystal_destroyed",
	Explosion:         "explosion",
	PhaseChanged:      "phase_changed",
	BossDefeated:      "boss_defeated",
	ProjectileFired:   "projectile_fired",
	ProjectileHit:     "projectile_hit",
	ProjectileExpired: "projectile_expired",
	ShulkerOpened:     "shulker_opened",
	ShulkerClosed:     "shulker_closed",
	ShulkerTeleported: "shulker_teleported",
	Damage:            "damage",
	EffectExpired:     "effect_expired",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// Event is one notification. Fields that do not apply to a kind are zero.
type Event struct {
	Kind      Kind
	Tick      uint64
	Entity    uuid.UUID // subject entity
	Other     uuid.UUID // counterpart: attacker, target or boss
	Structure uuid.UUID
	Pos       mgl64.Vec3
	Detail    string
	Amount    float64
}

// Sink receives events. Emit must not block the caller for long; the world
// core emits while ticking.
type Sink interface {
	Emit(Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// LogSink writes events to a zap logger at debug level.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Emit(e Event) {
	if s.Log == nil {
		return
	}
	fields := []zap.Field{zap.Stringer("event", e.Kind), zap.Uint64("tick", e.Tick)}
	if e.Entity != uuid.Nil {
		fields = append(fields, zap.Stringer("entity", e.Entity))
	}
	if e.Other != uuid.Nil {
		fields = append(fields, zap.Stringer("other", e.Other))
	}
	if e.Structure != uuid.Nil {
		fields = append(fields, zap.Stringer("structure", e.Structure))
	}
	if e.Detail != "" {
		fields = append(fields, zap.String("detail", e.Detail))
	}
	if e.Amount != 0 {
		fields = append(fields, zap.Float64("amount", e.Amount))
	}
	s.Log.Debug("world event", fields...)
}

// Multi fans events out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Async forwards events to another sink from its own goroutine. Emit never
// blocks: when the buffer is full the event is dropped and counted.
type Async struct {
	next Sink
	ch   chan Event
	done chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewAsync starts forwarding to next with a buffer of size events.
func NewAsync(next Sink, size int) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		next: next,
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.ch {
		a.next.Emit(e)
	}
}

func (a *Async) Emit(e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return
	}
	select {
	case a.ch <- e:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Close stops accepting events and waits until the buffered ones have been
// forwarded.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}
