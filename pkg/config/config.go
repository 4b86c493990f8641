// Package config loads worldcore settings from YAML and turns them into the
// tuning structs of the generator, AI and combat packages.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/StoreStation/worldcore/pkg/ai"
	"github.com/StoreStation/worldcore/pkg/combat"
	"github.com/StoreStation/worldcore/pkg/sim"
	"github.com/StoreStation/worldcore/pkg/structure"
	"github.com/StoreStation/worldcore/pkg/world"
)

// LoggingConfig selects the log level and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// StructureOverride changes catalog fields for one kind. Nil fields keep the
// built-in value.
type StructureOverride struct {
	Kind         structure.Kind `yaml:"kind" validate:"structure_kind"`
	Probability  *float64       `yaml:"probability" validate:"omitempty,gte=0,lte=1"`
	MinDistance  *int           `yaml:"min_distance" validate:"omitempty,gte=0"`
	SearchRadius *int           `yaml:"search_radius" validate:"omitempty,gte=0"`
	Biomes       []string       `yaml:"biomes" validate:"dive,biome"`
}

// Config is the full process configuration.
type Config struct {
	Seed     int64 `yaml:"seed"`
	Workers  int   `yaml:"workers" validate:"gt=0"`
	TickRate int   `yaml:"tick_rate" validate:"gt=0"`
	// Radius is the chunk radius of the region populated at startup.
	Radius int `yaml:"radius" validate:"gte=0"`

	Logging    LoggingConfig       `yaml:"logging"`
	Structures []StructureOverride `yaml:"structures" validate:"dive"`

	Dragon     ai.DragonConfig     `yaml:"dragon"`
	Shulker    ai.ShulkerConfig    `yaml:"shulker"`
	Projectile ai.ProjectileConfig `yaml:"projectile"`
	Combat     combat.Config       `yaml:"combat"`
	Arena      sim.Arena           `yaml:"arena"`
}

// Default returns the built-in configuration.
func Default() Config {
	a := ai.DefaultConfig()
	return Config{
		Workers:    4,
		TickRate:   sim.DefaultTickRate,
		Radius:     8,
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Dragon:     a.Dragon,
		Shulker:    a.Shulker,
		Projectile: a.Projectile,
		Combat:     combat.DefaultConfig(),
		Arena:      sim.DefaultArena(),
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// validate checks the struct tags. Field names in its errors are the YAML
// keys.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	custom := map[string]validator.Func{
		"biome": func(fl validator.FieldLevel) bool {
			_, ok := world.BiomeByKey(fl.Field().String())
			return ok
		},
		"structure_kind": func(fl validator.FieldLevel) bool {
			return structure.Kind(fl.Field().Uint()).Valid()
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		for _, fe := range ve {
			errs = append(errs, fieldError(fe))
		}
	}

	seen := make(map[structure.Kind]bool)
	for i, o := range c.Structures {
		if seen[o.Kind] {
			errs = append(errs, fmt.Errorf("structures[%d]: %s listed twice", i, o.Kind))
		}
		seen[o.Kind] = true
	}
	return errors.Join(errs...)
}

// fieldError turns a tag failure into "dragon.circle_radius must be > 0, got 0".
func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "gt":
		return fmt.Errorf("%s must be > %s, got %v", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Errorf("%s must be >= %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Errorf("%s must be <= %s, got %v", field, fe.Param(), fe.Value())
	case "biome":
		return fmt.Errorf("%s: unknown biome %q", field, fe.Value())
	case "structure_kind":
		k, _ := fe.Value().(structure.Kind)
		return fmt.Errorf("%s: %w", field, &structure.KindError{Kind: k, Reason: "unknown structure kind"})
	default:
		return fmt.Errorf("%s fails %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// AI returns the AI tuning.
func (c Config) AI() ai.Config {
	return ai.Config{
		Dragon:     c.Dragon,
		Shulker:    c.Shulker,
		Projectile: c.Projectile,
		Workers:    c.Workers,
	}
}

// CombatConfig returns the coordinator tuning. The death sequence length is
// shared with the dragon.
func (c Config) CombatConfig() combat.Config {
	cc := c.Combat
	cc.DeathTicks = c.Dragon.DeathTicks
	return cc
}

// ApplyCatalog returns base with the structure overrides applied.
func (c Config) ApplyCatalog(base *structure.Catalog) (*structure.Catalog, error) {
	cat := base
	for _, o := range c.Structures {
		next, err := cat.WithOverride(o.Kind, func(e *structure.Entry) {
			if o.Probability != nil {
				e.Probability = *o.Probability
			}
			if o.MinDistance != nil {
				e.MinDistance = *o.MinDistance
			}
			if o.SearchRadius != nil {
				e.SearchRadius = *o.SearchRadius
			}
			if o.Biomes != nil {
				e.Biomes = append([]string(nil), o.Biomes...)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", o.Kind, err)
		}
		cat = next
	}
	return cat, nil
}

// NewLogger builds the process logger. "json" selects the production
// encoder; anything else a coloured console. Unknown levels fall back to info.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
