package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/loom/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "loom.json"

	// DefaultAddr is the default listen address of loom serve.
	DefaultAddr = "localhost:3000"

	// DefaultFrameInterval is the default slice cadence.
	DefaultFrameInterval = "16ms"

	// DefaultSliceBudget is the default time granted per slice.
	DefaultSliceBudget = "5ms"

	// DefaultYieldThreshold is the default minimum slice time for a unit.
	DefaultYieldThreshold = "1ms"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "loom"

	// DefaultSnapshotDir is the default local snapshot directory.
	DefaultSnapshotDir = "snapshots"
)

// Config represents loom.json.
type Config struct {
	// Scheduler controls how render work is sliced.
	Scheduler SchedulerConfig `json:"scheduler"`

	// Log configures the structured logger.
	Log LogConfig `json:"log"`

	// Metrics configures the Prometheus observer.
	Metrics MetricsConfig `json:"metrics"`

	// Serve configures loom serve.
	Serve ServeConfig `json:"serve"`

	// Snapshot configures where rendered snapshots are written.
	Snapshot SnapshotConfig `json:"snapshot"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig holds duration strings such as "16ms".
type SchedulerConfig struct {
	// FrameInterval is the time between slices.
	FrameInterval string `json:"frameInterval,omitempty"`

	// SliceBudget is the work time granted per slice.
	SliceBudget string `json:"sliceBudget,omitempty"`

	// YieldThreshold is the minimum remaining slice time to start a unit.
	YieldThreshold string `json:"yieldThreshold,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	// Enabled exposes /metrics in loom serve.
	Enabled bool `json:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// ServeConfig configures the live server.
type ServeConfig struct {
	// Addr is the host:port to listen on.
	Addr string `json:"addr,omitempty"`
}

// SnapshotConfig configures snapshot publishing. When Bucket is set,
// snapshots are uploaded to S3 instead of written to Dir.
type SnapshotConfig struct {
	Dir    string `json:"dir,omitempty"`
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			FrameInterval:  DefaultFrameInterval,
			SliceBudget:    DefaultSliceBudget,
			YieldThreshold: DefaultYieldThreshold,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Serve: ServeConfig{
			Addr: DefaultAddr,
		},
		Snapshot: SnapshotConfig{
			Dir: DefaultSnapshotDir,
		},
	}
}

// Load reads loom.json from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Create " + ConfigFileName + " or drop --config to use the defaults")
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E102").
			WithSuggestion("Check that " + path + " is valid JSON").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E107").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E107").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Scheduler.FrameInterval == "" {
		c.Scheduler.FrameInterval = DefaultFrameInterval
	}
	if c.Scheduler.SliceBudget == "" {
		c.Scheduler.SliceBudget = DefaultSliceBudget
	}
	if c.Scheduler.YieldThreshold == "" {
		c.Scheduler.YieldThreshold = DefaultYieldThreshold
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	durations := []struct {
		key, value string
	}{
		{"scheduler.frameInterval", c.Scheduler.FrameInterval},
		{"scheduler.sliceBudget", c.Scheduler.SliceBudget},
		{"scheduler.yieldThreshold", c.Scheduler.YieldThreshold},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return errors.New("E103").
				WithDetail(d.key + " is not a duration: " + d.value).
				Wrap(err)
		}
	}

	interval, budget, threshold := c.FrameInterval(), c.SliceBudget(), c.YieldThreshold()
	switch {
	case interval <= 0 || budget <= 0:
		return errors.New("E104").WithSuggestion("Use positive frameInterval and sliceBudget values")
	case budget > interval:
		return errors.New("E104").WithSuggestion("Lower sliceBudget to at most frameInterval (" + c.Scheduler.FrameInterval + ")")
	case threshold < 0 || threshold >= budget:
		return errors.New("E104").WithSuggestion("Lower yieldThreshold below sliceBudget (" + c.Scheduler.SliceBudget + ")")
	}

	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E105").WithSuggestion("Unknown log level " + c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E105").WithSuggestion("Unknown log format " + c.Log.Format)
	}

	if _, _, err := net.SplitHostPort(c.Serve.Addr); err != nil {
		return errors.New("E106").Wrap(err)
	}

	if c.Snapshot.Dir == "" && c.Snapshot.Bucket == "" {
		return errors.New("E312")
	}
	return nil
}

// FrameInterval returns scheduler.frameInterval, or its default when unset
// or invalid.
func (c *Config) FrameInterval() time.Duration {
	return duration(c.Scheduler.FrameInterval, DefaultFrameInterval)
}

// SliceBudget returns scheduler.sliceBudget, or its default when unset or
// invalid.
func (c *Config) SliceBudget() time.Duration {
	return duration(c.Scheduler.SliceBudget, DefaultSliceBudget)
}

// YieldThreshold returns scheduler.yieldThreshold, or its default when
// unset or invalid.
func (c *Config) YieldThreshold() time.Duration {
	return duration(c.Scheduler.YieldThreshold, DefaultYieldThreshold)
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// SnapshotPath returns the snapshot directory, relative to the config file
// unless absolute.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.Dir) {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshot.Dir)
}

func duration(value, fallback string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "error":
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return slog.LevelInfo, false
		}
		return level, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the nearest directory holding
// loom.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E101").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the nearest loom.json above the working
// directory, or the defaults when there is none.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}
	return Load(root)
}
