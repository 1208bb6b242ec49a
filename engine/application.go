package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/math"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Show the window. A hidden window still owns a GL context.
	Visible bool `toml:"visible"`
	// One of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level"`

	// Directory scanned and watched for *.mesh.toml files. Empty disables assets.
	AssetsDir string `toml:"assets_dir"`
	// Mesh assets uploaded at startup. Empty means every indexed mesh.
	Meshes           []string `toml:"meshes"`
	MaxGeometryCount uint32   `toml:"max_geometry_count"`

	// Run against the headless device instead of opening a window.
	Headless bool `toml:"headless"`
	// Frames rendered before a headless run stops. Zero runs until stopped.
	HeadlessFrames uint64 `toml:"headless_frames"`

	ClearColor [4]float32 `toml:"clear_color"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:        100,
		StartPosY:        100,
		StartWidth:       1280,
		StartHeight:      720,
		Name:             "Anima",
		Visible:          true,
		LogLevel:         "info",
		AssetsDir:        "assets",
		MaxGeometryCount: 4096,
		HeadlessFrames:   60,
		ClearColor:       [4]float32{0.1, 0.1, 0.12, 1},
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults. Keys
// missing from the file keep their default value.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, c := range config.ClearColor {
		config.ClearColor[i] = math.Clamp(c, 0, 1)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.MaxGeometryCount == 0 {
		return fmt.Errorf("max_geometry_count must be > 0")
	}
	if !c.Headless && (c.StartWidth == 0 || c.StartHeight == 0) {
		return fmt.Errorf("start_width and start_height must be > 0")
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
