package engine

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/kaelos/prism/engine/core"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel
	// Directory holding the compiled builtin shaders. Watched for
	// changes when hot reload is enabled.
	ShaderDir string
	// Rebuild pipelines when shader binaries change on disk.
	HotReloadShaders bool
	// Path to the window icon image. Optional.
	IconPath string
}

// DefaultApplicationConfig is the configuration used when no file is
// present.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:        100,
		StartPosY:        100,
		StartWidth:       1280,
		StartHeight:      720,
		Name:             "Prism",
		LogLevel:         core.LogLevel("info"),
		ShaderDir:        "assets/shaders",
		HotReloadShaders: true,
	}
}

// LoadApplicationConfig reads a TOML configuration file, overlaying it on
// the defaults. A missing file is not an error.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogDebug("no config at %s, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
