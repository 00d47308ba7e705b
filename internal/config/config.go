package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/roach88/roadsnap/internal/engine"
	"github.com/roach88/roadsnap/internal/geojsonio"
	"github.com/roach88/roadsnap/internal/proximity"
)

//go:embed schema.cue
var schemaCUE string

// DefaultEnvPrefix is the environment variable prefix.
const DefaultEnvPrefix = "ROADSNAP_"

// Config is the full roadsnap configuration.
type Config struct {
	Snap   SnapConfig   `koanf:"snap" json:"snap"`
	Import ImportConfig `koanf:"import" json:"import"`
}

// SnapConfig holds the snapping parameters.
type SnapConfig struct {
	Radius       float64 `koanf:"radius" json:"radius"`
	MinLength    float64 `koanf:"min_length" json:"min_length"`
	MaxNeighbors int     `koanf:"max_neighbors" json:"max_neighbors"`
	ReloadStatus bool    `koanf:"reload_status" json:"reload_status"`
}

// ImportConfig holds GeoJSON import settings.
type ImportConfig struct {
	IDField string `koanf:"id_field" json:"id_field"`
	Clean   bool   `koanf:"clean" json:"clean"`
}

// Engine converts the snap section to an engine configuration.
func (c Config) Engine() engine.Config {
	return engine.Config{
		Radius:       c.Snap.Radius,
		MinLength:    c.Snap.MinLength,
		MaxNeighbors: c.Snap.MaxNeighbors,
		ReloadStatus: c.Snap.ReloadStatus,
	}
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Snap: SnapConfig{
			Radius:       engine.DefaultRadius,
			MinLength:    engine.DefaultMinLength,
			MaxNeighbors: proximity.DefaultMaxNeighbors,
		},
		Import: ImportConfig{
			IDField: geojsonio.DefaultIDField,
			Clean:   true,
		},
	}
}

func defaultMap() map[string]any {
	d := Defaults()
	return map[string]any{
		"snap": map[string]any{
			"radius":        d.Snap.Radius,
			"min_length":    d.Snap.MinLength,
			"max_neighbors": d.Snap.MaxNeighbors,
			"reload_status": d.Snap.ReloadStatus,
		},
		"import": map[string]any{
			"id_field": d.Import.IDField,
			"clean":    d.Import.Clean,
		},
	}
}

// Loader merges configuration sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file path. Empty means no file.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverride sets a dotted key with the highest precedence, e.g. from a
// command-line flag.
func WithOverride(key string, value any) Option {
	return func(l *Loader) {
		l.overrides[key] = value
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load merges all sources, decodes and validates the result.
func (l *Loader) Load() (Config, error) {
	if err := l.k.Load(mapProvider(defaultMap()), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	for key, val := range l.overrides {
		if err := l.k.Set(key, val); err != nil {
			return Config{}, fmt.Errorf("set %s: %w", key, err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps ROADSNAP_SNAP_MIN_LENGTH to snap.min_length.
func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// ErrInvalid wraps schema validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.Encode(cfg)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
