package world

// Block states are encoded as blockID << 4 | metadata.
const (
	Air            uint16 = 0
	Stone          uint16 = 1 << 4
	Grass          uint16 = 2 << 4
	Dirt           uint16 = 3 << 4
	Cobblestone    uint16 = 4 << 4
	Planks         uint16 = 5 << 4
	Bedrock        uint16 = 7 << 4
	Water          uint16 = 8 << 4
	StillWater     uint16 = 9 << 4
	Lava           uint16 = 11 << 4
	Sand           uint16 = 12 << 4
	Gravel         uint16 = 13 << 4
	Log            uint16 = 17 << 4
	Glass          uint16 = 20 << 4
	Sandstone      uint16 = 24 << 4
	ChiseledSand   uint16 = 24<<4 | 1
	SmoothSand     uint16 = 24<<4 | 2
	OrangeWool     uint16 = 35<<4 | 1
	GoldBlock      uint16 = 41 << 4
	StoneSlab      uint16 = 44 << 4
	TNT            uint16 = 46 << 4
	Bookshelf      uint16 = 47 << 4
	MossyCobble    uint16 = 48 << 4
	Obsidian       uint16 = 49 << 4
	Torch          uint16 = 50 << 4
	MobSpawner     uint16 = 52 << 4
	OakStairs      uint16 = 53 << 4
	Chest          uint16 = 54 << 4
	Farmland       uint16 = 60 << 4
	Wheat          uint16 = 59 << 4
	WoodenDoor     uint16 = 64 << 4
	SnowBlock      uint16 = 80 << 4
	Fence          uint16 = 85 << 4
	MonsterEgg     uint16 = 97<<4 | 2 // infested stone brick
	StoneBrick     uint16 = 98 << 4
	MossyBrick     uint16 = 98<<4 | 1
	CrackedBrick   uint16 = 98<<4 | 2
	IronBars       uint16 = 101 << 4
	Vines          uint16 = 106 << 4
	EndPortalFrame uint16 = 120 << 4
	EndStone       uint16 = 121 << 4
	CobbleWall     uint16 = 139 << 4
	DarkOakLog     uint16 = 162<<4 | 1
	DarkOakPlanks  uint16 = 5<<4 | 5
	Prismarine     uint16 = 168 << 4
	PrismarineDark uint16 = 168<<4 | 2
	SeaLantern     uint16 = 169 << 4
	EndRod         uint16 = 198 << 4
	Purpur         uint16 = 201 << 4
	PurpurPillar   uint16 = 202 << 4
	EndBricks      uint16 = 206 << 4
)

// EndPortalEyeBit marks an end portal frame holding an eye of ender.
const EndPortalEyeBit uint16 = 0x4

// BlockID extracts the block id from a block state.
func BlockID(state uint16) uint16 {
	return state >> 4
}
