package entity

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// State is a set of entities keyed by ID. A State handed out by Snapshot is
// a private copy; the one passed to Update is the live working copy.
type State struct {
	Players     map[ID]*Player
	Dragons     map[ID]*Dragon
	Crystals    map[ID]*Crystal
	Shulkers    map[ID]*Shulker
	Projectiles map[ID]*Projectile
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		Players:     make(map[ID]*Player),
		Dragons:     make(map[ID]*Dragon),
		Crystals:    make(map[ID]*Crystal),
		Shulkers:    make(map[ID]*Shulker),
		Projectiles: make(map[ID]*Projectile),
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := &State{
		Players:     make(map[ID]*Player, len(s.Players)),
		Dragons:     make(map[ID]*Dragon, len(s.Dragons)),
		Crystals:    make(map[ID]*Crystal, len(s.Crystals)),
		Shulkers:    make(map[ID]*Shulker, len(s.Shulkers)),
		Projectiles: make(map[ID]*Projectile, len(s.Projectiles)),
	}
	for id, p := range s.Players {
		c.Players[id] = p.clone()
	}
	for id, d := range s.Dragons {
		c.Dragons[id] = d.clone()
	}
	for id, cr := range s.Crystals {
		v := *cr
		c.Crystals[id] = &v
	}
	for id, sh := range s.Shulkers {
		v := *sh
		c.Shulkers[id] = &v
	}
	for id, p := range s.Projectiles {
		v := *p
		c.Projectiles[id] = &v
	}
	return c
}

// Kind reports which variant id belongs to.
func (s *State) Kind(id ID) Kind {
	switch {
	case s.Players[id] != nil:
		return KindPlayer
	case s.Dragons[id] != nil:
		return KindDragon
	case s.Crystals[id] != nil:
		return KindCrystal
	case s.Shulkers[id] != nil:
		return KindShulker
	case s.Projectiles[id] != nil:
		return KindProjectile
	default:
		return KindNone
	}
}

// Remove deletes id from whichever map holds it.
func (s *State) Remove(id ID) bool {
	switch s.Kind(id) {
	case KindPlayer:
		delete(s.Players, id)
	case KindDragon:
		delete(s.Dragons, id)
	case KindCrystal:
		delete(s.Crystals, id)
	case KindShulker:
		delete(s.Shulkers, id)
	case KindProjectile:
		delete(s.Projectiles, id)
	default:
		return false
	}
	return true
}

// PlayersInRange returns the targetable players within r of pos, nearest
// first, ties broken by ID.
func (s *State) PlayersInRange(pos mgl64.Vec3, r float64) []*Player {
	var out []*Player
	for _, p := range s.Players {
		if p.Targetable() && p.Pos.Sub(pos).Len() <= r {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Player) int {
		da, db := a.Pos.Sub(pos).Len(), b.Pos.Sub(pos).Len()
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return CompareIDs(a.ID, b.ID)
	})
	return out
}

// NearestPlayer returns the nearest targetable player within r, or nil.
func (s *State) NearestPlayer(pos mgl64.Vec3, r float64) *Player {
	if in := s.PlayersInRange(pos, r); len(in) > 0 {
		return in[0]
	}
	return nil
}

// CompareIDs orders IDs by their bytes.
func CompareIDs(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// SortedIDs returns the keys of m in ascending order.
func SortedIDs[V any](m map[ID]V) []ID {
	ids := maps.Keys(m)
	slices.SortFunc(ids, CompareIDs)
	return ids
}

// Store guards a State. Updates run against a copy that replaces the live
// state only when the update succeeds, so a failed update changes nothing.
type Store struct {
	mu sync.RWMutex
	st *State
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{st: NewState()}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Clone()
}

// View calls fn with the live state under the read lock. fn must not retain
// or modify it.
func (s *Store) View(fn func(st *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.st)
}

// Update applies fn atomically. If fn returns an error the state is left
// unchanged.
func (s *Store) Update(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.Clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Kind reports which variant id belongs to.
func (s *Store) Kind(id ID) Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Kind(id)
}

// Remove deletes an entity.
func (s *Store) Remove(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Remove(id)
}

func (s *Store) add(id ID, put func(st *State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k := s.st.Kind(id); k != KindNone {
		return fmt.Errorf("entity %s already present as %s", id, k)
	}
	put(s.st)
	return nil
}

// AddPlayer stores a copy of p.
func (s *Store) AddPlayer(p Player) error {
	return s.add(p.ID, func(st *State) { st.Players[p.ID] = p.clone() })
}

// AddDragon stores a copy of d.
func (s *Store) AddDragon(d Dragon) error {
	return s.add(d.ID, func(st *State) { st.Dragons[d.ID] = d.clone() })
}

// AddCrystal stores a copy of c.
func (s *Store) AddCrystal(c Crystal) error {
	return s.add(c.ID, func(st *State) { st.Crystals[c.ID] = &c })
}

// AddShulker stores a copy of sh.
func (s *Store) AddShulker(sh Shulker) error {
	return s.add(sh.ID, func(st *State) { st.Shulkers[sh.ID] = &sh })
}

// AddProjectile stores a copy of p.
func (s *Store) AddProjectile(p Projectile) error {
	return s.add(p.ID, func(st *State) { st.Projectiles[p.ID] = &p })
}

// Player returns a copy of the player with the given ID.
func (s *Store) Player(id ID) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.st.Players[id]; ok {
		return *p.clone(), true
	}
	return Player{}, false
}

// Dragon returns a copy of the dragon with the given ID.
func (s *Store) Dragon(id ID) (Dragon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.st.Dragons[id]; ok {
		return *d.clone(), true
	}
	return Dragon{}, false
}

// Crystal returns a copy of the crystal with the given ID.
func (s *Store) Crystal(id ID) (Crystal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.st.Crystals[id]; ok {
		return *c, true
	}
	return Crystal{}, false
}

// Shulker returns a copy of the shulker with the given ID.
func (s *Store) Shulker(id ID) (Shulker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sh, ok := s.st.Shulkers[id]; ok {
		return *sh, true
	}
	return Shulker{}, false
}

// Projectile returns a copy of the projectile with the given ID.
func (s *Store) Projectile(id ID) (Projectile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.st.Projectiles[id]; ok {
		return *p, true
	}
	return Projectile{}, false
}
