package structure

import (
	"fmt"

	"github.com/StoreStation/worldcore/pkg/rng"
	"github.com/StoreStation/worldcore/pkg/world"
)

// buildContext is what a builder sees: the layout to write into, the
// structure's own random stream, and its chosen biome and size.
type buildContext struct {
	l     *layout
	rng   *rng.Stream
	biome *world.Biome
	size  Size
	eyes  int
}

type builder func(ctx *buildContext) error

// builderFor returns the builder of a kind. Every kind has one; a kind
// without a builder is a configuration defect.
func builderFor(k Kind) (builder, error) {
	switch k {
	case Village:
		return buildVillage, nil
	case Dungeon:
		return buildDungeon, nil
	case Stronghold:
		return buildStronghold, nil
	case Temple:
		return buildTemple, nil
	case Mansion:
		return buildMansion, nil
	case Monument:
		return buildMonument, nil
	case Ruins:
		return buildRuins, nil
	case CaveSystem:
		return buildCaveSystem, nil
	case EndCity:
		return buildEndCity, nil
	default:
		return nil, &KindError{Kind: k, Reason: "no builder"}
	}
}

var dungeonMobs = []string{"zombie", "skeleton", "spider"}

// buildDungeon is a cobblestone room with a single spawner and one or two
// chests against the walls.
func buildDungeon(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D

	l.roomRandom(0, 0, 0, w-1, h-1, d-1, s, world.Cobblestone, world.MossyCobble, world.MossyCobble)
	l.set(w/2, 1, d/2, world.MobSpawner)
	l.spawner(w/2, 1, d/2, dungeonMobs[s.Intn(len(dungeonMobs))], 200)

	walls := [][2]int{{1, d / 2}, {w - 2, d / 2}, {w / 2, 1}, {w / 2, d - 2}}
	n := s.Range(1, 2)
	for i := 0; i < n; i++ {
		j := s.Intn(len(walls))
		p := walls[j]
		walls = append(walls[:j], walls[j+1:]...)
		l.set(p[0], 1, p[1], world.Chest)
		l.chest(p[0], 1, p[1], "simple_dungeon")
	}
	return nil
}

// portalFrame is a frame offset from the pool centre and its facing.
type portalFrame struct {
	dx, dz int
	facing uint16
}

// buildStronghold is a stone brick hall split into a portal room and a
// library. Each of the twelve portal frames holds an eye with a small chance.
func buildStronghold(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D
	bricks := []uint16{world.StoneBrick, world.StoneBrick, world.MossyBrick, world.CrackedBrick, world.MonsterEgg}

	l.roomRandom(0, 0, 0, w-1, h-1, d-1, s, bricks...)
	mid := w / 2
	for z := 1; z < d-1; z++ {
		for y := 1; y < h-1; y++ {
			l.set(mid, y, z, bricks[s.Intn(len(bricks))])
		}
	}
	// Doorway between the halves.
	l.fill(mid, 1, d/2-1, mid, 3, d/2+1, world.Air)
	l.fill(mid, 4, d/2-1, mid, 4, d/2+1, world.IronBars)

	// Portal room: lava pool ringed by twelve frames on a raised dais.
	px, pz := mid/2, d/2
	l.fill(px-3, 1, pz-3, px+3, 1, pz+3, world.StoneBrick)
	l.fill(px-1, 1, pz-1, px+1, 1, pz+1, world.Lava)
	var frames []portalFrame
	for i := -1; i <= 1; i++ {
		frames = append(frames,
			portalFrame{i, -2, 0},
			portalFrame{i, 2, 2},
			portalFrame{-2, i, 3},
			portalFrame{2, i, 1},
		)
	}
	for _, f := range frames {
		state := world.EndPortalFrame | f.facing
		if s.Chance(0.1) {
			state |= world.EndPortalEyeBit
			ctx.eyes++
		}
		l.set(px+f.dx, 2, pz+f.dz, state)
	}
	// Silverfish spawner on the stair landing facing the pool.
	l.fill(px-1, 1, pz+4, px+1, 1, pz+5, world.StoneBrick)
	l.set(px, 2, pz+5, world.MobSpawner)
	l.spawner(px, 2, pz+5, "silverfish", 200)

	// Library: bookshelves along the outer walls of the other half.
	for z := 1; z < d-1; z++ {
		for y := 1; y <= min(h-2, 4); y++ {
			l.set(w-2, y, z, world.Bookshelf)
		}
	}
	for x := mid + 2; x < w-2; x += 3 {
		for y := 1; y <= 3; y++ {
			l.set(x, y, 1, world.Bookshelf)
			l.set(x, y, d-2, world.Bookshelf)
		}
	}
	l.set(w-3, 1, d/2, world.Chest)
	l.chest(w-3, 1, d/2, "stronghold_library")

	// Corridor chest by the doorway.
	l.set(mid-1, 1, 1, world.Chest)
	l.chest(mid-1, 1, 1, "stronghold_corridor")
	for _, z := range []int{2, d - 3} {
		l.set(mid-1, 3, z, world.Torch)
		l.set(mid+1, 3, z, world.Torch)
	}
	return nil
}

// buildTemple picks the desert pyramid or the jungle temple by biome.
func buildTemple(ctx *buildContext) error {
	key := ""
	if ctx.biome != nil {
		key = ctx.biome.Key
	}
	switch key {
	case world.BiomeDesert.Key:
		return buildDesertPyramid(ctx)
	case world.BiomeJungle.Key:
		return buildJungleTemple(ctx)
	default:
		return fmt.Errorf("no temple variant for biome %q", key)
	}
}

func buildDesertPyramid(ctx *buildContext) error {
	l := ctx.l
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D

	for y := 0; y < h; y++ {
		x0, z0, x1, z1 := y, y, w-1-y, d-1-y
		if x0 > x1 || z0 > z1 {
			break
		}
		for x := x0; x <= x1; x++ {
			for z := z0; z <= z1; z++ {
				if y == 0 || x == x0 || x == x1 || z == z0 || z == z1 {
					l.set(x, y, z, world.Sandstone)
				} else {
					l.set(x, y, z, world.Air)
				}
			}
		}
	}
	// Coloured band and entrance on the front face.
	for x := 2; x < w-2; x += 2 {
		l.set(x, 2, 2, world.OrangeWool)
	}
	l.fill(w/2, 1, 0, w/2, 2, 3, world.Air)

	// Treasure floor: a wool cross with a chest on each arm, TNT underneath.
	cx, cz := w/2, d/2
	for i := -2; i <= 2; i++ {
		l.set(cx+i, 0, cz, world.OrangeWool)
		l.set(cx, 0, cz+i, world.OrangeWool)
	}
	l.set(cx, 0, cz, world.ChiseledSand)
	for _, o := range [][2]int{{2, 0}, {-2, 0}, {0, 2}, {0, -2}} {
		l.set(cx+o[0], 0, cz+o[1], world.TNT)
		l.set(cx+o[0], 1, cz+o[1], world.Chest)
		l.chest(cx+o[0], 1, cz+o[1], "desert_pyramid")
	}
	return nil
}

func buildJungleTemple(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, d := ctx.size.W, ctx.size.D
	h := min(ctx.size.H, 10)

	l.roomRandom(0, 0, 0, w-1, h/2, d-1, s, world.Cobblestone, world.MossyCobble, world.MossyCobble)
	l.roomRandom(2, h/2, 2, w-3, h-1, d-3, s, world.Cobblestone, world.MossyCobble)
	l.fill(w/2, 1, 0, w/2, 2, 0, world.Air)
	l.fill(w/2-1, h/2, d/2-1, w/2+1, h/2, d/2+1, world.Air)

	for z := 1; z < d-1; z++ {
		if s.Chance(0.25) {
			l.set(1, 2, z, world.Vines)
		}
	}
	l.set(1, 1, 1, world.Chest)
	l.chest(1, 1, 1, "jungle_temple")
	l.set(w-3, h/2+1, d-4, world.Chest)
	l.chest(w-3, h/2+1, d-4, "jungle_temple")
	return nil
}

// buildMansion stacks two dark oak floors with a cross of corridors on each.
func buildMansion(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D
	storey := (h - 2) / 2

	for f := 0; f < 2; f++ {
		y0 := f * storey
		l.room(0, y0, 0, w-1, y0+storey, d-1, world.DarkOakPlanks)
		for _, c := range [][2]int{{0, 0}, {w - 1, 0}, {0, d - 1}, {w - 1, d - 1}} {
			l.fill(c[0], y0, c[1], c[0], y0+storey, c[1], world.DarkOakLog)
		}
		// Interior walls with a corridor through the middle.
		for x := 1; x < w-1; x++ {
			for y := y0 + 1; y < y0+storey; y++ {
				if x < w/2-1 || x > w/2+1 {
					l.set(x, y, d/2, world.DarkOakPlanks)
				}
			}
		}
		for z := 1; z < d-1; z++ {
			for y := y0 + 1; y < y0+storey; y++ {
				if z < d/2-1 || z > d/2+1 {
					l.set(w/2, y, z, world.DarkOakPlanks)
				}
			}
		}
		for x := 2; x < w-2; x += 4 {
			l.set(x, y0+2, 0, world.Glass)
			l.set(x, y0+2, d-1, world.Glass)
		}
	}
	l.fill(w/2-1, 1, 0, w/2+1, 3, 0, world.Air)
	roof := 2 * storey
	l.fill(0, roof+1, 0, w-1, min(roof+1, h-1), d-1, world.Cobblestone)

	rooms := [][2]int{{w / 4, d / 4}, {3 * w / 4, d / 4}, {w / 4, 3 * d / 4}, {3 * w / 4, 3 * d / 4}}
	n := s.Range(2, 3)
	for i := 0; i < n; i++ {
		j := s.Intn(len(rooms))
		r := rooms[j]
		rooms = append(rooms[:j], rooms[j+1:]...)
		y := 1 + s.Intn(2)*storey
		l.set(r[0], y, r[1], world.Chest)
		l.chest(r[0], y, r[1], "woodland_mansion")
	}
	return nil
}

// buildMonument is a prismarine hall with a lit core and guardian spawners in
// the corners.
func buildMonument(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D

	l.roomRandom(0, 0, 0, w-1, h-1, d-1, s, world.Prismarine, world.Prismarine, world.PrismarineDark)
	l.fill(1, 1, 1, w-2, h-2, d-2, world.StillWater)

	cx, cz := w/2, d/2
	l.room(cx-3, 1, cz-3, cx+3, 7, cz+3, world.PrismarineDark)
	l.fill(cx-2, 2, cz-2, cx+2, 6, cz+2, world.StillWater)
	l.fill(cx-1, 3, cz-1, cx+1, 5, cz+1, world.GoldBlock)
	for _, c := range [][2]int{{cx - 3, cz - 3}, {cx + 3, cz - 3}, {cx - 3, cz + 3}, {cx + 3, cz + 3}} {
		l.set(c[0], 8, c[1], world.SeaLantern)
	}
	for _, c := range [][2]int{{3, 3}, {w - 4, 3}, {3, d - 4}, {w - 4, d - 4}} {
		l.set(c[0], 1, c[1], world.MobSpawner)
		l.spawner(c[0], 1, c[1], "guardian", 400)
	}
	l.set(cx, 1, 1, world.MobSpawner)
	l.spawner(cx, 1, 1, "elder_guardian", 1200)
	return nil
}

// buildRuins scatters broken walls around a chest.
func buildRuins(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D

	for x := 0; x < w; x++ {
		for z := 0; z < d; z++ {
			edge := x == 0 || x == w-1 || z == 0 || z == d-1
			if !edge {
				if s.Chance(0.4) {
					l.set(x, 0, z, world.Cobblestone)
				}
				continue
			}
			height := s.Intn(h)
			for y := 0; y < height; y++ {
				if s.Chance(0.3) {
					l.set(x, y, z, world.MossyCobble)
				} else {
					l.set(x, y, z, world.StoneBrick)
				}
			}
		}
	}
	l.set(w/2, 1, d/2, world.Chest)
	l.chest(w/2, 1, d/2, "ruins")
	return nil
}

// buildCaveSystem carves air along random-walk tunnels. It places no
// spawners or chests.
func buildCaveSystem(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D

	worms := s.Range(2, 4)
	for i := 0; i < worms; i++ {
		x, y, z := s.Intn(w), 2+s.Intn(max(h-4, 1)), s.Intn(d)
		radius := s.Range(1, 2)
		steps := s.Range(w, 2*w)
		for n := 0; n < steps; n++ {
			for dx := -radius; dx <= radius; dx++ {
				for dy := -radius; dy <= radius; dy++ {
					for dz := -radius; dz <= radius; dz++ {
						if dx*dx+dy*dy+dz*dz <= radius*radius {
							l.set(x+dx, y+dy, z+dz, world.Air)
						}
					}
				}
			}
			x = clampInt(x+s.Range(-1, 1), 0, w-1)
			y = clampInt(y+s.Range(-1, 1), 1, h-2)
			z = clampInt(z+s.Range(-1, 1), 0, d-1)
		}
	}
	if s.Chance(0.2) {
		l.set(w/2, 1, d/2, world.Lava)
	}
	return nil
}

// buildEndCity stacks purpur tower storeys with a shulker spawner on each and
// the treasure chest at the top.
func buildEndCity(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	w, h, d := ctx.size.W, ctx.size.H, ctx.size.D
	const storey = 6

	l.fill(0, 0, 0, w-1, 0, d-1, world.EndBricks)
	top := 0
	for y0 := 0; y0+storey < h; y0 += storey {
		inset := min(y0/storey, (min(w, d)-5)/2)
		l.room(inset, y0, inset, w-1-inset, y0+storey, d-1-inset, world.Purpur)
		for _, c := range [][2]int{{inset, inset}, {w - 1 - inset, inset}, {inset, d - 1 - inset}, {w - 1 - inset, d - 1 - inset}} {
			l.fill(c[0], y0+1, c[1], c[0], y0+storey-1, c[1], world.PurpurPillar)
		}
		l.set(w/2, y0+1, d/2, world.MobSpawner)
		l.spawner(w/2, y0+1, d/2, "shulker", 300+s.Intn(100))
		l.set(inset+1, y0+storey-1, inset+1, world.EndRod)
		top = y0 + storey
	}
	l.fill(w/2-1, 1, 0, w/2+1, 3, 0, world.Air)
	l.set(w/2+1, top-storey+1, d/2, world.Chest)
	l.chest(w/2+1, top-storey+1, d/2, "end_city_treasure")
	return nil
}
