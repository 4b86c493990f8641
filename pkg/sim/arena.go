package sim

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/StoreStation/worldcore/pkg/combat"
	"github.com/StoreStation/worldcore/pkg/entity"
)

// Arena describes the end fight set up by SpawnEndFight.
type Arena struct {
	CenterY      float64 `yaml:"center_y"`
	Crystals     int     `yaml:"crystals" validate:"gte=0"`
	PillarRadius float64 `yaml:"pillar_radius" validate:"gt=0"`
	DragonHealth float64 `yaml:"dragon_health" validate:"gt=0"`
	Shielded     bool    `yaml:"shielded"`
	Shulkers     int     `yaml:"shulkers" validate:"gte=0"`
	Players      int     `yaml:"players" validate:"gte=0"`
}

// DefaultArena returns the stock arena: ten pillars around the fountain.
func DefaultArena() Arena {
	return Arena{
		CenterY:      64,
		Crystals:     10,
		PillarRadius: 42,
		DragonHealth: 200,
		Shulkers:     2,
		Players:      2,
	}
}

// Fight lists the entities SpawnEndFight created.
type Fight struct {
	Dragon   entity.ID
	Crystals []entity.ID
	Shulkers []entity.ID
	Players  []entity.ID
}

var arenaSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("worldcore/arena"))

func arenaID(seed int64, name string, i int) entity.ID {
	return uuid.NewSHA1(arenaSpace, []byte(strconv.FormatInt(seed, 10)+":"+name+":"+strconv.Itoa(i)))
}

// SpawnEndFight seeds store with a dragon, its crystals on pillars around the
// origin, shulker turrets and players. IDs derive from seed.
func SpawnEndFight(store *entity.Store, coord *combat.Coordinator, a Arena, seed int64) (Fight, error) {
	var f Fight
	home := mgl64.Vec3{0, a.CenterY, 0}

	f.Dragon = arenaID(seed, "dragon", 0)
	err := store.AddDragon(entity.Dragon{
		ID:           f.Dragon,
		Pos:          home.Add(mgl64.Vec3{0, 30, 0}),
		Home:         home,
		Health:       a.DragonHealth,
		MaxHealth:    a.DragonHealth,
		Phase:        entity.Circling{},
		Invulnerable: a.Shielded,
	})
	if err != nil {
		return f, fmt.Errorf("spawn dragon: %w", err)
	}

	for i := 0; i < a.Crystals; i++ {
		angle := 2 * math.Pi * float64(i) / float64(a.Crystals)
		height := a.CenterY + 12 + 3*float64(i%3)
		c := entity.Crystal{
			ID:     arenaID(seed, "crystal", i),
			Pos:    mgl64.Vec3{math.Cos(angle) * a.PillarRadius, height, math.Sin(angle) * a.PillarRadius},
			Active: true,
		}
		if err := store.AddCrystal(c); err != nil {
			return f, fmt.Errorf("spawn crystal %d: %w", i, err)
		}
		if err := coord.LinkCrystal(f.Dragon, c.ID); err != nil {
			return f, err
		}
		f.Crystals = append(f.Crystals, c.ID)
	}

	for i := 0; i < a.Shulkers; i++ {
		angle := 2*math.Pi*float64(i)/float64(max(a.Shulkers, 1)) + math.Pi/4
		sh := entity.Shulker{
			ID:        arenaID(seed, "shulker", i),
			Pos:       mgl64.Vec3{math.Cos(angle) * 12, a.CenterY, math.Sin(angle) * 12},
			Health:    30,
			MaxHealth: 30,
		}
		if err := store.AddShulker(sh); err != nil {
			return f, fmt.Errorf("spawn shulker %d: %w", i, err)
		}
		f.Shulkers = append(f.Shulkers, sh.ID)
	}

	for i := 0; i < a.Players; i++ {
		p := entity.Player{
			ID:        arenaID(seed, "player", i),
			Name:      "player" + strconv.Itoa(i),
			Pos:       mgl64.Vec3{float64(4 * i), a.CenterY, 8},
			Health:    20,
			MaxHealth: 20,
		}
		if err := store.AddPlayer(p); err != nil {
			return f, fmt.Errorf("spawn player %d: %w", i, err)
		}
		f.Players = append(f.Players, p.ID)
	}
	return f, nil
}
