// Package config reads the TOML settings of the geometry pipeline.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/overrides"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
	"github.com/spaghettifunk/rtgeom/engine/systems"
)

const (
	DefaultFramesInFlight = 2
	MaxFramesInFlight     = 3
)

type CollectorConfig struct {
	StaticVertexBufferSize  uint64 `toml:"static_vertex_buffer_size"`
	DynamicVertexBufferSize uint64 `toml:"dynamic_vertex_buffer_size"`
}

type OverridesConfig struct {
	Disable         bool      `toml:"disable"`
	TexturesPath    string    `toml:"textures_path"`
	Postfixes       [3]string `toml:"postfixes"`
	OriginalIsSRGB  [3]bool   `toml:"original_is_srgb"`
	OverridenIsSRGB [3]bool   `toml:"overriden_is_srgb"`
	Loader          string    `toml:"loader"`
	Watch           bool      `toml:"watch"`
	JobWorkers      int       `toml:"job_workers"`
}

type Config struct {
	LogLevel       string          `toml:"log_level"`
	FramesInFlight uint32          `toml:"frames_in_flight"`
	Collector      CollectorConfig `toml:"collector"`
	Overrides      OverridesConfig `toml:"overrides"`
}

/**
 * @brief The configuration used when no file is given. Vertex buffers hold
 * the maximum vertex count of their change frequency.
 */
func Default() *Config {
	return &Config{
		LogLevel:       string(core.LogLevelInfo),
		FramesInFlight: DefaultFramesInFlight,
		Collector: CollectorConfig{
			StaticVertexBufferSize:  uint64(metadata.MAX_STATIC_VERTEX_COUNT) * metadata.ShVertexSize,
			DynamicVertexBufferSize: uint64(metadata.MAX_DYNAMIC_VERTEX_COUNT) * metadata.ShVertexSize,
		},
		Overrides: OverridesConfig{
			TexturesPath:    "textures",
			Postfixes:       [3]string{"", "_rme", "_n"},
			OriginalIsSRGB:  [3]bool{true, false, false},
			OverridenIsSRGB: [3]bool{true, false, false},
			Loader:          "ktx2",
			JobWorkers:      2,
		},
	}
}

/**
 * @brief Reads a TOML file on top of Default. Keys absent from the file keep
 * their default value; unknown keys are an error.
 */
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", core.ErrInvalidConfig, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", core.ErrInvalidConfig, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidConfig, err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.FramesInFlight == 0 || c.FramesInFlight > MaxFramesInFlight {
		return fmt.Errorf("%w: frames_in_flight must be in [1, %d], got %d", core.ErrInvalidConfig, MaxFramesInFlight, c.FramesInFlight)
	}
	if c.Collector.StaticVertexBufferSize == 0 {
		return fmt.Errorf("%w: collector.static_vertex_buffer_size must be > 0", core.ErrInvalidConfig)
	}
	if c.Collector.DynamicVertexBufferSize == 0 {
		return fmt.Errorf("%w: collector.dynamic_vertex_buffer_size must be > 0", core.ErrInvalidConfig)
	}
	if _, err := overrides.NewLoader(c.Overrides.Loader); err != nil {
		return fmt.Errorf("%w: overrides.loader: %s", core.ErrInvalidConfig, err.Error())
	}
	if c.Overrides.JobWorkers < 1 {
		return fmt.Errorf("%w: overrides.job_workers must be > 0", core.ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Level() core.LogLevel {
	l, _ := core.ParseLogLevel(c.LogLevel)
	return l
}

func (c *Config) FrameSystem() *systems.FrameSystemConfig {
	return &systems.FrameSystemConfig{
		FramesInFlight:          c.FramesInFlight,
		StaticVertexBufferSize:  c.Collector.StaticVertexBufferSize,
		DynamicVertexBufferSize: c.Collector.DynamicVertexBufferSize,
	}
}

func (c *Config) TextureSystem() *systems.TextureSystemConfig {
	return &systems.TextureSystemConfig{
		Overrides: overrides.OverrideInfo{
			Disable:         c.Overrides.Disable,
			TexturesPath:    c.Overrides.TexturesPath,
			Postfixes:       c.Overrides.Postfixes,
			OriginalIsSRGB:  c.Overrides.OriginalIsSRGB,
			OverridenIsSRGB: c.Overrides.OverridenIsSRGB,
		},
		LoaderName: c.Overrides.Loader,
		Watch:      c.Overrides.Watch,
	}
}
