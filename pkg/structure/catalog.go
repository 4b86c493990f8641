package structure

import (
	"errors"
	"fmt"
)

// Placement describes where a structure kind may sit relative to the terrain.
type Placement uint8

const (
	OnSurface Placement = iota
	Underground
	Underwater
)

// SizeRange bounds the randomly chosen footprint of a structure.
type SizeRange struct {
	MinW, MaxW int
	MinH, MaxH int
	MinD, MaxD int
}

// Entry is the static metadata for one structure kind.
type Entry struct {
	Kind Kind
	// Biomes lists compatible biome keys. A nil or empty list matches any biome.
	Biomes      []string
	MinDistance int     // minimum distance to another instance of the kind, in chunks
	Probability float64 // base spawn probability per chunk
	Size        SizeRange
	Placement   Placement
	// SearchRadius is how far, in blocks, the placement search may move the
	// structure away from its base position.
	SearchRadius int
	// MaxSlope is the largest surface height difference tolerated under the
	// footprint of a surface structure.
	MaxSlope    int
	ClearVolume bool
}

// AllowsBiome reports whether the kind may generate in the given biome.
func (e Entry) AllowsBiome(key string) bool {
	if e.Wildcard() {
		return true
	}
	for _, b := range e.Biomes {
		if b == key {
			return true
		}
	}
	return false
}

// Wildcard reports whether the entry accepts every biome.
func (e Entry) Wildcard() bool {
	return len(e.Biomes) == 0
}

func (e Entry) validate() error {
	if !e.Kind.Valid() {
		return &KindError{Kind: e.Kind, Reason: "unknown structure kind"}
	}
	if e.Probability < 0 || e.Probability > 1 {
		return fmt.Errorf("%s: probability %v outside [0,1]", e.Kind, e.Probability)
	}
	if e.MinDistance < 0 {
		return fmt.Errorf("%s: negative minimum distance", e.Kind)
	}
	s := e.Size
	if s.MinW < 1 || s.MinH < 1 || s.MinD < 1 || s.MaxW < s.MinW || s.MaxH < s.MinH || s.MaxD < s.MinD {
		return fmt.Errorf("%s: invalid size range %+v", e.Kind, s)
	}
	return nil
}

// ErrDuplicateKind is returned when a catalog lists the same kind twice.
var ErrDuplicateKind = errors.New("duplicate structure kind")

// Catalog is the read-only registry of structure kinds. Iteration order is
// declaration order.
type Catalog struct {
	entries []Entry
	byKind  map[Kind]int
}

// NewCatalog builds a catalog from entries in declaration order.
func NewCatalog(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byKind:  make(map[Kind]int, len(entries)),
	}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byKind[e.Kind]; dup {
			return nil, fmt.Errorf("%s: %w", e.Kind, ErrDuplicateKind)
		}
		e.Biomes = append([]string(nil), e.Biomes...)
		c.byKind[e.Kind] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Entries returns a copy of the entries in declaration order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Has reports whether the catalog contains kind k.
func (c *Catalog) Has(k Kind) bool {
	_, ok := c.byKind[k]
	return ok
}

// Lookup returns the entry for k. Asking for a kind the catalog does not
// contain is a programming error and panics.
func (c *Catalog) Lookup(k Kind) Entry {
	i, ok := c.byKind[k]
	if !ok {
		panic(&KindError{Kind: k, Reason: "not in catalog"})
	}
	return c.entries[i]
}

// WithOverride returns a copy of the catalog where fn has modified the entry
// for k.
func (c *Catalog) WithOverride(k Kind, fn func(*Entry)) (*Catalog, error) {
	if !c.Has(k) {
		return nil, &KindError{Kind: k, Reason: "not in catalog"}
	}
	entries := c.Entries()
	e := &entries[c.byKind[k]]
	e.Biomes = append([]string(nil), e.Biomes...)
	fn(e)
	return NewCatalog(entries...)
}

// DefaultCatalog returns the built-in structure registry.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Entry{
			Kind:         Village,
			Biomes:       []string{"plains", "desert", "savanna", "taiga", "snowy_tundra"},
			MinDistance:  32,
			Probability:  0.02,
			Size:         SizeRange{MinW: 28, MaxW: 34, MinH: 14, MaxH: 14, MinD: 28, MaxD: 34},
			Placement:    OnSurface,
			SearchRadius: 8,
			MaxSlope:     6,
			ClearVolume:  true,
		},
		Entry{
			Kind:         Dungeon,
			MinDistance:  4,
			Probability:  0.08,
			Size:         SizeRange{MinW: 7, MaxW: 9, MinH: 5, MaxH: 5, MinD: 7, MaxD: 9},
			Placement:    Underground,
			SearchRadius: 6,
			ClearVolume:  true,
		},
		Entry{
			Kind:         Stronghold,
			MinDistance:  32,
			Probability:  0.005,
			Size:         SizeRange{MinW: 24, MaxW: 30, MinH: 10, MaxH: 10, MinD: 24, MaxD: 30},
			Placement:    Underground,
			SearchRadius: 8,
			ClearVolume:  true,
		},
		Entry{
			Kind:         Temple,
			Biomes:       []string{"desert", "jungle"},
			MinDistance:  24,
			Probability:  0.01,
			Size:         SizeRange{MinW: 15, MaxW: 21, MinH: 12, MaxH: 12, MinD: 15, MaxD: 21},
			Placement:    OnSurface,
			SearchRadius: 8,
			MaxSlope:     4,
			ClearVolume:  true,
		},
		Entry{
			Kind:         Mansion,
			Biomes:       []string{"dark_forest"},
			MinDistance:  64,
			Probability:  0.003,
			Size:         SizeRange{MinW: 28, MaxW: 34, MinH: 16, MaxH: 16, MinD: 28, MaxD: 34},
			Placement:    OnSurface,
			SearchRadius: 12,
			MaxSlope:     6,
			ClearVolume:  true,
		},
		Entry{
			Kind:         Monument,
			Biomes:       []string{"ocean", "deep_ocean"},
			MinDistance:  32,
			Probability:  0.01,
			Size:         SizeRange{MinW: 29, MaxW: 29, MinH: 12, MaxH: 12, MinD: 29, MaxD: 29},
			Placement:    Underwater,
			SearchRadius: 8,
			ClearVolume:  true,
		},
		Entry{
			Kind:         Ruins,
			MinDistance:  8,
			Probability:  0.03,
			Size:         SizeRange{MinW: 7, MaxW: 13, MinH: 5, MaxH: 5, MinD: 7, MaxD: 13},
			Placement:    OnSurface,
			SearchRadius: 6,
			MaxSlope:     8,
		},
		Entry{
			Kind:         CaveSystem,
			MinDistance:  6,
			Probability:  0.05,
			Size:         SizeRange{MinW: 16, MaxW: 32, MinH: 12, MaxH: 20, MinD: 16, MaxD: 32},
			Placement:    Underground,
			SearchRadius: 4,
		},
		Entry{
			Kind:         EndCity,
			Biomes:       []string{"the_end"},
			MinDistance:  20,
			Probability:  0.02,
			Size:         SizeRange{MinW: 13, MaxW: 17, MinH: 24, MaxH: 32, MinD: 13, MaxD: 17},
			Placement:    OnSurface,
			SearchRadius: 8,
			MaxSlope:     6,
			ClearVolume:  true,
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}
