package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/rtgeom/engine/core"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level = "debug"
frames_in_flight = 3

[collector]
dynamic_vertex_buffer_size = 65536

[overrides]
loader = "png"
postfixes = ["", "_orm", "_normal"]
watch = true
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	def := Default()
	if cfg.Level() != core.LogLevelDebug || cfg.FramesInFlight != 3 {
		t.Errorf("log level %q, frames %d", cfg.LogLevel, cfg.FramesInFlight)
	}
	if cfg.Collector.DynamicVertexBufferSize != 65536 {
		t.Errorf("dynamic size = %d", cfg.Collector.DynamicVertexBufferSize)
	}
	if cfg.Collector.StaticVertexBufferSize != def.Collector.StaticVertexBufferSize {
		t.Error("missing key did not keep its default")
	}
	if cfg.Overrides.Postfixes[2] != "_normal" || cfg.Overrides.TexturesPath != def.Overrides.TexturesPath {
		t.Errorf("overrides = %+v", cfg.Overrides)
	}

	ts := cfg.TextureSystem()
	if ts.LoaderName != "png" || !ts.Watch || ts.Overrides.Postfixes[1] != "_orm" || !ts.Overrides.OriginalIsSRGB[0] {
		t.Errorf("texture system config = %+v", ts)
	}
	fs := cfg.FrameSystem()
	if fs.FramesInFlight != 3 || fs.DynamicVertexBufferSize != 65536 {
		t.Errorf("frame system config = %+v", fs)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"unknown log level", `log_level = "loud"`, "unknown log level"},
		{"zero frames", `frames_in_flight = 0`, "frames_in_flight"},
		{"too many frames", `frames_in_flight = 4`, "frames_in_flight"},
		{"zero static size", "[collector]\nstatic_vertex_buffer_size = 0", "static_vertex_buffer_size"},
		{"zero dynamic size", "[collector]\ndynamic_vertex_buffer_size = 0", "dynamic_vertex_buffer_size"},
		{"unknown loader", "[overrides]\nloader = \"dds\"", "overrides.loader"},
		{"no workers", "[overrides]\njob_workers = 0", "job_workers"},
		{"unknown key", `colour = "red"`, "colour"},
		{"syntax", `log_level = `, "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.toml))
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("frames_in_flight = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FramesInFlight != 1 {
		t.Errorf("frames = %d", cfg.FramesInFlight)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.toml"))
	if err != nil {
		t.Fatalf("sample config: %v", err)
	}
	if cfg.Overrides.Loader == "" {
		t.Error("sample config has no loader")
	}
}
