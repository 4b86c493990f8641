package ai

// DragonConfig tunes the dragon phase machine. Speeds are per tick.
type DragonConfig struct {
	CircleRadius float64 `yaml:"circle_radius" validate:"gt=0"`
	CircleHeight float64 `yaml:"circle_height" validate:"gte=0"`
	CircleSpeed  float64 `yaml:"circle_speed" validate:"gt=0"` // radians per tick
	// CircleTicks is how long the dragon patrols before picking a target or
	// heading for the perch.
	CircleTicks int `yaml:"circle_ticks" validate:"gt=0"`

	ChargeSpeed float64 `yaml:"charge_speed" validate:"gt=0"`
	ChargeTicks int     `yaml:"charge_ticks" validate:"gt=0"`
	AggroRange  float64 `yaml:"aggro_range" validate:"gte=0"`

	ContactRange  float64 `yaml:"contact_range" validate:"gte=0"`
	ContactDamage float64 `yaml:"contact_damage" validate:"gte=0"`

	PerchTicks int     `yaml:"perch_ticks" validate:"gt=0"`
	LandSpeed  float64 `yaml:"land_speed" validate:"gt=0"`

	BreathRange  float64 `yaml:"breath_range" validate:"gte=0"`
	BreathRadius float64 `yaml:"breath_radius" validate:"gte=0"`
	BreathDamage float64 `yaml:"breath_damage" validate:"gte=0"`
	BreathTicks  int     `yaml:"breath_ticks" validate:"gt=0"`

	DeathTicks int     `yaml:"death_ticks" validate:"gt=0"`
	DeathRise  float64 `yaml:"death_rise" validate:"gte=0"`
	Experience int     `yaml:"experience" validate:"gte=0"`
}

// ShulkerConfig tunes shulker turrets. Cooldowns are in ticks.
type ShulkerConfig struct {
	Range            float64 `yaml:"range" validate:"gt=0"`
	FireCooldown     uint64  `yaml:"fire_cooldown"`
	PeekSpeed        float64 `yaml:"peek_speed" validate:"gte=0,lte=1"`
	TeleportCooldown uint64  `yaml:"teleport_cooldown"`
	TeleportRange    int     `yaml:"teleport_range" validate:"gte=0"`
}

// ProjectileConfig tunes homing projectiles fired by shulkers.
type ProjectileConfig struct {
	Accuracy        float64 `yaml:"accuracy" validate:"gt=0,lte=1"`
	MaxSpeed        float64 `yaml:"max_speed" validate:"gt=0"`
	ContactDistance float64 `yaml:"contact_distance" validate:"gt=0"`
	Lifetime        uint64  `yaml:"lifetime" validate:"gt=0"`
	Damage          float64 `yaml:"damage" validate:"gte=0"`
	Effect          string  `yaml:"effect"`
	EffectTicks     uint64  `yaml:"effect_ticks"`
}

// Config is the full AI tuning.
type Config struct {
	Dragon     DragonConfig
	Shulker    ShulkerConfig
	Projectile ProjectileConfig
	// Workers bounds the goroutines computing actions in one tick.
	Workers int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Dragon: DragonConfig{
			CircleRadius:  40,
			CircleHeight:  20,
			CircleSpeed:   0.05,
			CircleTicks:   200,
			ChargeSpeed:   1.2,
			ChargeTicks:   100,
			AggroRange:    64,
			ContactRange:  3,
			ContactDamage: 10,
			PerchTicks:    200,
			LandSpeed:     1,
			BreathRange:   20,
			BreathRadius:  4,
			BreathDamage:  3,
			BreathTicks:   60,
			DeathTicks:    200,
			DeathRise:     0.1,
			Experience:    12000,
		},
		Shulker: ShulkerConfig{
			Range:            16,
			FireCooldown:     40,
			PeekSpeed:        0.05,
			TeleportCooldown: 100,
			TeleportRange:    8,
		},
		Projectile: ProjectileConfig{
			Accuracy:        0.15,
			MaxSpeed:        0.6,
			ContactDistance: 0.5,
			Lifetime:        300,
			Damage:          4,
			Effect:          "levitation",
			EffectTicks:     200,
		},
		Workers: 4,
	}
}
