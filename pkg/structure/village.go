package structure

import "github.com/StoreStation/worldcore/pkg/world"

// villagePalette is the block set a village is built from.
type villagePalette struct {
	log, planks, path, slab, stairs, fence, deco1, deco2 uint16
}

func paletteFor(b *world.Biome) villagePalette {
	if b == nil || !b.HasVillageStyle() {
		b = world.BiomePlains
	}
	p := villagePalette{
		log:    b.VillageLog,
		planks: b.VillagePlanks,
		path:   b.VillagePath,
		slab:   b.VillageSlab,
		stairs: b.VillageStairs,
		fence:  b.VillageFence,
		deco1:  b.VillageDeco1,
		deco2:  b.VillageDeco2,
	}
	if p.fence == 0 {
		p.fence = world.Fence
	}
	return p
}

// buildVillage lays out a well at the centre, gravel paths along both axes,
// houses and farms in the four quadrants, and lamp posts along the paths.
// dy=0 is the ground layer.
func buildVillage(ctx *buildContext) error {
	l, s := ctx.l, ctx.rng
	pal := paletteFor(ctx.biome)
	w, d := ctx.size.W, ctx.size.D
	cx, cz := w/2, d/2

	isPath := func(dx, dy, dz int) bool {
		id := world.BlockID(l.get(dx, dy, dz))
		return id == 0 || id == world.BlockID(pal.path)
	}
	placeDecoration := func(dx, dy, dz int, state uint16) {
		if l.get(dx, dy, dz) == world.Air && isPath(dx, dy-1, dz) {
			l.set(dx, dy, dz, state)
		}
	}

	// ------------------------------------------------------------------
	// 1. Paths: main cross through the centre
	// ------------------------------------------------------------------
	for x := 0; x < w; x++ {
		for o := -1; o <= 1; o++ {
			l.set(x, 0, cz+o, pal.path)
		}
	}
	for z := 0; z < d; z++ {
		for o := -1; o <= 1; o++ {
			l.set(cx+o, 0, z, pal.path)
		}
	}

	// ------------------------------------------------------------------
	// 2. Well: 4x4 stone brick with corner pillars and a slab roof
	// ------------------------------------------------------------------
	for dx := -3; dx <= 2; dx++ {
		for dz := -3; dz <= 2; dz++ {
			l.set(cx+dx, 0, cz+dz, pal.path)
		}
	}
	for dx := -2; dx <= 1; dx++ {
		for dz := -2; dz <= 1; dz++ {
			isCorner := (dx == -2 || dx == 1) && (dz == -2 || dz == 1)
			isInner := (dx == -1 || dx == 0) && (dz == -1 || dz == 0)

			l.set(cx+dx, 1, cz+dz, world.StoneBrick)
			switch {
			case isCorner:
				l.fill(cx+dx, 2, cz+dz, cx+dx, 4, cz+dz, world.CobbleWall)
			case isInner:
				l.set(cx+dx, 2, cz+dz, world.StillWater)
			default:
				l.set(cx+dx, 2, cz+dz, world.StoneBrick)
			}
			l.set(cx+dx, 5, cz+dz, world.StoneSlab)
		}
	}

	// ------------------------------------------------------------------
	// 3. Quadrants: houses and farms
	// ------------------------------------------------------------------
	slots := []struct {
		x, z  int
		front bool // door on the dz=0 wall
	}{
		{cx + 4, cz + 4, true},
		{cx - 9, cz + 4, true},
		{cx + 4, cz - 9, false},
		{cx - 9, cz - 9, false},
	}
	for i := len(slots) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		slots[i], slots[j] = slots[j], slots[i]
	}

	houses := s.Range(2, 3)
	blacksmith := s.Chance(0.5)
	for i, slot := range slots {
		if i < houses {
			buildHouse(l, slot.x, slot.z, slot.front, pal)
			if i == 0 {
				table := "village_house"
				if blacksmith {
					table = "village_blacksmith"
				}
				l.chest(slot.x+3, 1, slot.z+2, table)
			}
			continue
		}
		crops := []uint16{world.Wheat, 141 << 4, 142 << 4} // wheat, carrot, potato
		buildFarm(l, slot.x+2, slot.z+2, pal.log, crops[s.Intn(len(crops))])
	}

	// ------------------------------------------------------------------
	// 4. Decorations: lamp posts along the main paths, flowers
	// ------------------------------------------------------------------
	for _, dist := range []int{6, 12} {
		for _, p := range [][2]int{{cx + dist, cz + 2}, {cx - dist, cz - 2}, {cx + 2, cz + dist}, {cx - 2, cz - dist}} {
			if l.get(p[0], 1, p[1]) != world.Air {
				continue
			}
			l.fill(p[0], 1, p[1], p[0], 3, p[1], pal.fence)
			l.set(p[0], 4, p[1], world.Torch|5)
		}
	}
	for i := 0; i < w; i += 3 {
		for j := 0; j < d; j += 3 {
			if !s.Chance(0.15) {
				continue
			}
			flower := pal.deco1
			if s.Bool() {
				flower = pal.deco2
			}
			placeDecoration(i, 1, j, flower)
		}
	}
	return nil
}

// buildHouse places a 5x5 plank house with a pitched roof. front selects the
// wall carrying the door.
func buildHouse(l *layout, hx, hz int, front bool, pal villagePalette) {
	const w, h = 5, 3
	doorZ := w - 1
	if front {
		doorZ = 0
	}
	for dx := 0; dx < w; dx++ {
		for dz := 0; dz < w; dz++ {
			l.set(hx+dx, 0, hz+dz, world.Cobblestone)
			isWallX := dx == 0 || dx == w-1
			isWallZ := dz == 0 || dz == w-1
			isCorner := isWallX && isWallZ

			for dy := 1; dy <= h; dy++ {
				switch {
				case isCorner:
					l.set(hx+dx, dy, hz+dz, pal.log)
				case isWallX || isWallZ:
					block := pal.planks
					if dz == doorZ && dx == 2 && dy <= 2 {
						block = world.WoodenDoor
						if dy == 2 {
							block |= 8 // top half
						}
					} else if dy == 2 && ((isWallX && dz == 2) || (isWallZ && (dx == 1 || dx == 3))) {
						block = world.Glass
					}
					l.set(hx+dx, dy, hz+dz, block)
				default:
					l.set(hx+dx, dy, hz+dz, world.Air)
				}
			}
		}
	}

	// Pitched roof, ridge along x.
	for dx := 0; dx < w; dx++ {
		l.set(hx+dx, h+1, hz, pal.stairs|2)
		l.set(hx+dx, h+1, hz+w-1, pal.stairs|3)
		l.set(hx+dx, h+2, hz+1, pal.stairs|2)
		l.set(hx+dx, h+2, hz+3, pal.stairs|3)
		l.set(hx+dx, h+3, hz+2, pal.slab)
	}
	// Gables
	for _, dx := range []int{0, w - 1} {
		l.set(hx+dx, h+1, hz+1, pal.planks)
		l.set(hx+dx, h+1, hz+2, pal.planks)
		l.set(hx+dx, h+1, hz+3, pal.planks)
		l.set(hx+dx, h+2, hz+2, pal.planks)
	}
	l.set(hx+2, 3, hz+doorZ+torchSide(front), world.Torch)
}

func torchSide(front bool) int {
	if front {
		return 1
	}
	return -1
}

// buildFarm creates a 7x7 farm centred on (fx, fz) with a water trench.
func buildFarm(l *layout, fx, fz int, border, crop uint16) {
	for dx := -3; dx <= 3; dx++ {
		for dz := -3; dz <= 3; dz++ {
			isBorder := dx == -3 || dx == 3 || dz == -3 || dz == 3
			switch {
			case isBorder:
				l.set(fx+dx, 0, fz+dz, border)
			case dx == 0:
				l.set(fx+dx, 0, fz+dz, world.StillWater)
			default:
				l.set(fx+dx, 0, fz+dz, world.Farmland)
				l.set(fx+dx, 1, fz+dz, crop|7) // fully grown
			}
		}
	}
}
