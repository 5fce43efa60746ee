package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "BEHAVE_CONFIG"

// Config holds application configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Driver    DriverConfig    `yaml:"driver"`
	Inspector InspectorConfig `yaml:"inspector"`
}

type LogConfig struct {
	Level   string   `yaml:"level"`
	Outputs []string `yaml:"outputs"`
}

// DriverConfig controls the frame loop.
type DriverConfig struct {
	// FrameRate is ticks per second; 0 ticks as fast as possible.
	FrameRate int `yaml:"frame_rate"`
	Workers   int `yaml:"workers"`
	// MaxFrames stops the run after this many frames; 0 means no limit.
	MaxFrames uint64 `yaml:"max_frames"`
	// Mode overrides the run mode of loaded documents: hold or repeat.
	Mode string `yaml:"mode"`
}

type InspectorConfig struct {
	Addr   string `yaml:"addr"`
	Buffer int    `yaml:"buffer"`
}

// Default returns default configuration
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:   "info",
			Outputs: []string{"stderr"},
		},
		Driver: DriverConfig{
			FrameRate: 30,
			Workers:   4,
			MaxFrames: 0,
		},
		Inspector: InspectorConfig{
			Addr:   "127.0.0.1:7070",
			Buffer: 256,
		},
	}
}

// Decode overlays YAML from r on the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Load reads path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path, falling back to $BEHAVE_CONFIG when path is empty.
func Resolve(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	return Load(path)
}

func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Driver.FrameRate < 0 {
		errs = append(errs, fmt.Errorf("driver.frame_rate must not be negative"))
	}
	if c.Driver.Workers < 0 {
		errs = append(errs, fmt.Errorf("driver.workers must not be negative"))
	}
	if _, _, err := c.RunMode(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel is the parsed log level.
func (c Config) LogLevel() log.Level {
	l, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return l
}

// FrameInterval is the time between frames, zero for an unthrottled loop.
func (c Config) FrameInterval() time.Duration {
	if c.Driver.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Driver.FrameRate)
}

// RunMode reports the configured override, if any.
func (c Config) RunMode() (mode bt.RunMode, set bool, err error) {
	switch c.Driver.Mode {
	case "":
		return bt.HoldAtEnd, false, nil
	case "hold":
		return bt.HoldAtEnd, true, nil
	case "repeat":
		return bt.Repeat, true, nil
	default:
		return 0, false, fmt.Errorf("driver.mode: unknown run mode %q", c.Driver.Mode)
	}
}
