package engine

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/fusen/engine/math"
	"github.com/spaghettifunk/fusen/engine/systems"
)

// Provider kinds.
const (
	ProviderKindScripted  = "scripted"
	ProviderKindDirectory = "directory"
)

// Environment overrides, applied after the config file.
const (
	EnvLogLevel     = "FUSEN_LOG_LEVEL"
	EnvProviderKind = "FUSEN_PROVIDER_KIND"
	EnvWatchDir     = "FUSEN_WATCH_DIR"
)

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Session     SessionConfig     `toml:"session"`
	Placement   PlacementConfig   `toml:"placement"`
	Provider    ProviderConfig    `toml:"provider"`
}

func (c *Config) Validate() error {
	if err := c.Application.Validate(); err != nil {
		return fmt.Errorf("application: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Placement.Validate(); err != nil {
		return fmt.Errorf("placement: %w", err)
	}
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	return nil
}

type ApplicationConfig struct {
	// The application name used in logs.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
}

func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error", "fatal")),
	)
}

type SessionConfig struct {
	// Number of workers building static meshes concurrently.
	BuildWorkers int `toml:"build_workers"`
	// Pending builds and finished results buffered before submitters block.
	BuildQueueSize int `toml:"build_queue_size"`
}

func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BuildWorkers, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.BuildQueueSize, validation.Min(0)),
	)
}

type PlacementConfig struct {
	MarkerRadius float32 `toml:"marker_radius"`
	// RGBA, every channel in [0, 1].
	MarkerColor []float32 `toml:"marker_color"`
}

func (c *PlacementConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MarkerRadius, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.MarkerColor, validation.Required, validation.Length(4, 4),
			validation.Each(validation.Min(0.0), validation.Max(1.0))),
	)
}

func (c *PlacementConfig) Color() math.Vec4 {
	if len(c.MarkerColor) != 4 {
		return math.NewVec4(0, 0, 1, 1)
	}
	return math.NewVec4(c.MarkerColor[0], c.MarkerColor[1], c.MarkerColor[2], c.MarkerColor[3])
}

type ProviderConfig struct {
	Kind string `toml:"kind"`
	// Directory of anchor files, for the directory provider.
	WatchDir string `toml:"watch_dir"`
}

func (c *ProviderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(ProviderKindScripted, ProviderKindDirectory)),
		validation.Field(&c.WatchDir, validation.When(c.Kind == ProviderKindDirectory, validation.Required)),
	)
}

func NewDefaultConfig() *Config {
	placement := systems.DefaultPlacementConfig()
	return &Config{
		Application: ApplicationConfig{
			Name:     "Fusen",
			LogLevel: "info",
		},
		Session: SessionConfig{
			BuildWorkers:   4,
			BuildQueueSize: 64,
		},
		Placement: PlacementConfig{
			MarkerRadius: placement.MarkerRadius,
			MarkerColor: []float32{
				placement.MarkerColor.X,
				placement.MarkerColor.Y,
				placement.MarkerColor.Z,
				placement.MarkerColor.W,
			},
		},
		Provider: ProviderConfig{
			Kind:     ProviderKindScripted,
			WatchDir: "./anchors",
		},
	}
}

// LoadConfig overlays the TOML file at path on the defaults, then applies
// environment overrides and validates the result. An empty path skips the
// file.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Application.LogLevel = v
	}
	if v := os.Getenv(EnvProviderKind); v != "" {
		c.Provider.Kind = v
	}
	if v := os.Getenv(EnvWatchDir); v != "" {
		c.Provider.WatchDir = v
	}
}

func (c *Config) systemManagerConfig() systems.SystemManagerConfig {
	return systems.SystemManagerConfig{
		BuildWorkers:   c.Session.BuildWorkers,
		BuildQueueSize: c.Session.BuildQueueSize,
		Placement: systems.PlacementSystemConfig{
			MarkerRadius: c.Placement.MarkerRadius,
			MarkerColor:  c.Placement.Color(),
		},
	}
}
