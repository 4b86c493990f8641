package entity

import "github.com/go-gl/mathgl/mgl64"

// Phase is the behaviour state of a boss. The set of variants is closed:
// Circling, Charging, Perching, Breathing and Dying.
type Phase interface {
	Name() string
	phase()
}

// Circling orbits the boss's home point.
type Circling struct {
	Angle  float64 // radians
	Radius float64
	Height float64
	Speed  float64 // radians per tick
	Ticks  int     // ticks spent circling
}

// Charging flies at a target.
type Charging struct {
	Target ID
	Speed  float64 // blocks per tick
	Ticks  int     // ticks left before giving up
}

// Perching descends to, then rests on, a perch point.
type Perching struct {
	Pos       mgl64.Vec3
	Landed    bool
	Remaining int // ticks left once landed
}

// Breathing breathes fire around a point while perched.
type Breathing struct {
	Point     mgl64.Vec3
	Remaining int
}

// Dying plays the death sequence. Damage is ignored.
type Dying struct {
	Remaining int
	Total     int
}

func (Circling) Name() string  { return "circling" }
func (Charging) Name() string  { return "charging" }
func (Perching) Name() string  { return "perching" }
func (Breathing) Name() string { return "breathing" }
func (Dying) Name() string     { return "dying" }

func (Circling) phase()  {}
func (Charging) phase()  {}
func (Perching) phase()  {}
func (Breathing) phase() {}
func (Dying) phase()     {}

// Progress returns how far the death sequence has run, in [0, 1].
func (d Dying) Progress() float64 {
	if d.Total <= 0 {
		return 1
	}
	p := 1 - float64(d.Remaining)/float64(d.Total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// PhaseName returns the name of p, or "none" for a nil phase.
func PhaseName(p Phase) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

// IsDying reports whether p is the death sequence.
func IsDying(p Phase) bool {
	_, ok := p.(Dying)
	return ok
}
