package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"tilemap/internal/camera"
	"tilemap/internal/geometry"
	"tilemap/pkg/tiles"
)

// Config holds application configuration
type Config struct {
	Window    Window    `mapstructure:"window" json:"window"`
	World     World     `mapstructure:"world" json:"world"`
	Atlas     Atlas     `mapstructure:"atlas" json:"atlas"`
	Quad      Quad      `mapstructure:"quad" json:"quad"`
	Zoom      Zoom      `mapstructure:"zoom" json:"zoom"`
	Rendering Rendering `mapstructure:"rendering" json:"rendering"`
	Log       Log       `mapstructure:"log" json:"log"`
}

// Window contains the host window parameters
type Window struct {
	Width  int    `mapstructure:"width" json:"width"`
	Height int    `mapstructure:"height" json:"height"`
	Title  string `mapstructure:"title" json:"title"`
}

// World contains the synthetic world raster parameters
type World struct {
	Width  int `mapstructure:"width" json:"width"`
	Height int `mapstructure:"height" json:"height"`

	// Pattern is a list of [x, y] atlas cells cycled over the world
	Pattern [][]int `mapstructure:"pattern" json:"pattern"`
}

// Atlas describes where the tilemap image comes from and how it is split
type Atlas struct {
	// Source is "embedded:<name>", a file path or an http(s) URL
	Source string `mapstructure:"source" json:"source"`

	// Format forces a decoder; empty detects it
	Format string `mapstructure:"format" json:"format"`

	Columns int `mapstructure:"columns" json:"columns"`
	Rows    int `mapstructure:"rows" json:"rows"`

	// CacheDir keeps downloaded atlases
	CacheDir string `mapstructure:"cache_dir" json:"cache_dir"`
}

// Quad places the rendered quad in normalized device coordinates
type Quad struct {
	OffsetX float32 `mapstructure:"offset_x" json:"offset_x"`
	OffsetY float32 `mapstructure:"offset_y" json:"offset_y"`
	Width   float32 `mapstructure:"width" json:"width"`
	Height  float32 `mapstructure:"height" json:"height"`
}

// Zoom selects the zoom curve
type Zoom struct {
	// Policy is "inverse_square" or "fixed"
	Policy string  `mapstructure:"policy" json:"policy"`
	Min    float32 `mapstructure:"min" json:"min"`
	Max    float32 `mapstructure:"max" json:"max"`
}

// Rendering contains per-frame rendering parameters
type Rendering struct {
	// ClearColor is RGBA in [0,1]
	ClearColor [4]float64 `mapstructure:"clear_color" json:"clear_color"`
	VSync      bool       `mapstructure:"vsync" json:"vsync"`
}

// Log contains logger parameters
type Log struct {
	Level      string `mapstructure:"level" json:"level"`
	File       string `mapstructure:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "Tilemap",
		},
		World: World{
			Width:   1000,
			Height:  1000,
			Pattern: [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		},
		Atlas: Atlas{
			Source:   "embedded:tilemap.png",
			Columns:  2,
			Rows:     2,
			CacheDir: ".atlas_cache",
		},
		Quad: Quad{
			OffsetX: -0.5,
			OffsetY: -0.5,
			Width:   1,
			Height:  1,
		},
		Zoom: Zoom{
			Policy: "inverse_square",
			Max:    1e4, // 10ms after start
		},
		Rendering: Rendering{
			ClearColor: [4]float64{0, 0, 0, 0},
			VSync:      true,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("window.width", c.Window.Width)
	v.SetDefault("window.height", c.Window.Height)
	v.SetDefault("window.title", c.Window.Title)
	v.SetDefault("world.width", c.World.Width)
	v.SetDefault("world.height", c.World.Height)
	v.SetDefault("world.pattern", c.World.Pattern)
	v.SetDefault("atlas.source", c.Atlas.Source)
	v.SetDefault("atlas.format", c.Atlas.Format)
	v.SetDefault("atlas.columns", c.Atlas.Columns)
	v.SetDefault("atlas.rows", c.Atlas.Rows)
	v.SetDefault("atlas.cache_dir", c.Atlas.CacheDir)
	v.SetDefault("quad.offset_x", c.Quad.OffsetX)
	v.SetDefault("quad.offset_y", c.Quad.OffsetY)
	v.SetDefault("quad.width", c.Quad.Width)
	v.SetDefault("quad.height", c.Quad.Height)
	v.SetDefault("zoom.policy", c.Zoom.Policy)
	v.SetDefault("zoom.min", c.Zoom.Min)
	v.SetDefault("zoom.max", c.Zoom.Max)
	v.SetDefault("rendering.clear_color", c.Rendering.ClearColor)
	v.SetDefault("rendering.vsync", c.Rendering.VSync)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the renderer cannot work around
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world size %dx%d", c.World.Width, c.World.Height)
	}
	if c.Quad.Width == 0 || c.Quad.Height == 0 {
		return fmt.Errorf("config: empty quad %vx%v", c.Quad.Width, c.Quad.Height)
	}
	if err := c.Grid().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	p, err := c.Pattern()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := p.Validate(c.Grid()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.ZoomPolicy(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Grid returns the atlas grid
func (c *Config) Grid() tiles.Grid {
	return tiles.Grid{Columns: c.Atlas.Columns, Rows: c.Atlas.Rows}
}

// Pattern returns the world pattern
func (c *Config) Pattern() (tiles.Pattern, error) {
	return tiles.FromPairs(c.World.Pattern)
}

// QuadGeometry builds the quad from its offset and size
func (c *Config) QuadGeometry() geometry.Quad {
	return geometry.NewQuad(
		[2]float32{c.Quad.OffsetX, c.Quad.OffsetY},
		[2]float32{c.Quad.Width, c.Quad.Height},
	)
}

// ZoomPolicy builds the configured zoom curve
func (c *Config) ZoomPolicy() (camera.ZoomPolicy, error) {
	return camera.PolicyByName(c.Zoom.Policy, c.Zoom.Min, c.Zoom.Max)
}
