// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/joe/resync-progress/internal/estimator"
	"github.com/joe/resync-progress/internal/history"
	"github.com/joe/resync-progress/internal/logger"
)

// Exported constants.
const (
	DefaultUnits       = 1 << 18
	DefaultUnitSizeKiB = 4
	DefaultRate        = 2560
	DefaultMarks       = history.DefaultCapacity
	DefaultLogLevel    = "info"
	// DefaultDeviceName names the single device built from flags.
	DefaultDeviceName = "r0"
	kibShift          = 10
)

// Exported variables.
var (
	ErrNoUnits          = errors.New("units must be greater than zero")
	ErrBadUnitSize      = errors.New("unit size must be a power of two KiB")
	ErrBadTick          = errors.New("tick must be at least one second")
	ErrTooFewMarks      = errors.New("marks must be at least 2")
	ErrBadFilter        = errors.New("invalid device filter")
	ErrNoDevices        = errors.New("devices file lists no devices")
	ErrDuplicateDevice  = errors.New("duplicate device")
	ErrUnnamedDevice    = errors.New("device name is required")
	ErrDevicesFileParse = errors.New("cannot parse devices file")
)

// Config holds the application configuration
type Config struct {
	Units       uint64                  `arg:"-u,--units" help:"Work units (bitmap bits) in the simulated operation"`
	UnitSizeKiB uint64                  `arg:"--unit-size-kib" help:"Size of one work unit in KiB (power of two)"`
	Rate        uint64                  `arg:"-r,--rate" help:"Simulated throughput in units per second"`
	TargetRate  uint64                  `arg:"--target-rate" help:"Configured rate ceiling in units per second (0 = --rate)"`
	Kind        estimator.OperationKind `arg:"-k,--kind" help:"Operation kind: sync-source|sync-target|verify-source|verify-target (aliases: ss|st|vs|vt)"`
	Tick        time.Duration           `arg:"--tick" help:"Interval between samples"`
	Marks       int                     `arg:"--marks" help:"Samples kept per device"`
	Detail      bool                    `arg:"-d,--detail" help:"Show the very-short average and bitmap position"`
	Plain       bool                    `arg:"--plain" help:"Print plain text reports instead of the live view"`
	Arithmetic  estimator.Arithmetic    `arg:"--arithmetic" help:"Per-mille arithmetic: wide|shifted"`
	DevicesFile string                  `arg:"-f,--devices-file" help:"YAML file describing the devices to simulate"`
	Filter      string                  `arg:"--filter" help:"Only show devices whose names match this glob (supports **)"`
	LogFile     string                  `arg:"--log-file" help:"Write logs to this file (stderr in plain mode when unset)"`
	LogLevel    string                  `arg:"--log-level" help:"Log level: debug|info|warn|error"`

	devices []DeviceSpec
}

// DeviceSpec describes one simulated device.
type DeviceSpec struct {
	Name        string                  `yaml:"name"`
	Minor       int                     `yaml:"minor"`
	Kind        estimator.OperationKind `yaml:"kind"`
	Units       uint64                  `yaml:"units"`
	UnitSizeKiB uint64                  `yaml:"unit_size_kib"`
	Rate        uint64                  `yaml:"rate"`
	TargetRate  uint64                  `yaml:"target_rate"`
	// FailEvery fails one unit in FailEvery; zero never fails.
	FailEvery uint64 `yaml:"fail_every"`
	// DirtyEvery re-dirties one unit in DirtyEvery; zero never re-dirties.
	DirtyEvery uint64 `yaml:"dirty_every"`
	// StartPaused starts the operation paused.
	StartPaused bool `yaml:"start_paused"`
}

type devicesFile struct {
	Devices []DeviceSpec `yaml:"devices"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Live progress, speed and ETA for replicated block device resyncs"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "resync-progress 1.0.0"
}

// Default returns a config with every flag at its default.
func Default() *Config {
	return &Config{
		Units:       DefaultUnits,
		UnitSizeKiB: DefaultUnitSizeKiB,
		Rate:        DefaultRate,
		Kind:        estimator.SyncTarget,
		Tick:        estimator.DefaultTickInterval,
		Marks:       DefaultMarks,
		Arithmetic:  estimator.WideArithmetic,
		LogLevel:    DefaultLogLevel,
	}
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := Default()

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// PostProcessConfig validates a parsed config and loads the devices it describes.
func PostProcessConfig(cfg *Config) (*Config, error) {
	if cfg.Tick < time.Second {
		return nil, fmt.Errorf("%w: %s", ErrBadTick, cfg.Tick)
	}

	if cfg.Marks < history.MinCapacity {
		return nil, fmt.Errorf("%w: %d", ErrTooFewMarks, cfg.Marks)
	}

	if cfg.Filter != "" && !doublestar.ValidatePattern(cfg.Filter) {
		return nil, fmt.Errorf("%w: %q", ErrBadFilter, cfg.Filter)
	}

	if cfg.DevicesFile != "" {
		devices, err := LoadDevices(cfg.DevicesFile)
		if err != nil {
			return nil, err
		}

		cfg.devices = devices

		return cfg, nil
	}

	spec := DeviceSpec{
		Name:        DefaultDeviceName,
		Kind:        cfg.Kind,
		Units:       cfg.Units,
		UnitSizeKiB: cfg.UnitSizeKiB,
		Rate:        cfg.Rate,
		TargetRate:  cfg.TargetRate,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cfg.devices = []DeviceSpec{spec.withDefaults()}

	return cfg, nil
}

// Devices returns the devices to simulate, in the order they were configured.
func (cfg *Config) Devices() []DeviceSpec {
	return cfg.devices
}

// LoggerConfig maps the log flags onto the logger's settings. Without a log
// file, plain mode logs to stderr and the live view discards logs.
func (cfg *Config) LoggerConfig() logger.Config {
	output := cfg.LogFile
	if output == "" {
		output = logger.OutputDiscard
		if cfg.Plain {
			output = logger.OutputStderr
		}
	}

	return logger.Config{Level: cfg.LogLevel, Output: output}
}

// EstimateOptions returns the estimator options the flags select.
func (cfg *Config) EstimateOptions() estimator.Options {
	return estimator.Options{
		Detailed:     cfg.Detail,
		TickInterval: cfg.Tick,
		Arithmetic:   cfg.Arithmetic,
	}
}

// LoadDevices reads a YAML devices file.
func LoadDevices(path string) ([]DeviceSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("cannot read devices file: %w", err)
	}

	return ParseDevices(data)
}

// ParseDevices decodes and validates a devices document:
//
//	devices:
//	  - name: r0/data
//	    minor: 0
//	    kind: sync-target
//	    units: 262144
//	    rate: 2560
func ParseDevices(data []byte) ([]DeviceSpec, error) {
	var file devicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDevicesFileParse, err)
	}

	if len(file.Devices) == 0 {
		return nil, ErrNoDevices
	}

	names := make(map[string]bool, len(file.Devices))
	minors := make(map[int]bool, len(file.Devices))
	devices := make([]DeviceSpec, 0, len(file.Devices))

	for _, spec := range file.Devices {
		if err := spec.Validate(); err != nil {
			return nil, err
		}

		if names[spec.Name] {
			return nil, fmt.Errorf("%w: name %s", ErrDuplicateDevice, spec.Name)
		}

		if minors[spec.Minor] {
			return nil, fmt.Errorf("%w: minor %d", ErrDuplicateDevice, spec.Minor)
		}

		names[spec.Name] = true
		minors[spec.Minor] = true

		devices = append(devices, spec.withDefaults())
	}

	return devices, nil
}

// Validate checks a device spec; a zero unit size means the default.
func (spec DeviceSpec) Validate() error {
	if spec.Name == "" {
		return fmt.Errorf("%w (minor %d)", ErrUnnamedDevice, spec.Minor)
	}

	if spec.Units == 0 {
		return fmt.Errorf("%s: %w", spec.Name, ErrNoUnits)
	}

	if spec.UnitSizeKiB != 0 && bits.OnesCount64(spec.UnitSizeKiB) != 1 {
		return fmt.Errorf("%s: %w: %d", spec.Name, ErrBadUnitSize, spec.UnitSizeKiB)
	}

	return nil
}

// UnitShift returns log2 of the bytes in one work unit.
func (spec DeviceSpec) UnitShift() uint {
	size := spec.UnitSizeKiB
	if size == 0 {
		size = DefaultUnitSizeKiB
	}

	return uint(bits.TrailingZeros64(size)) + kibShift
}

func (spec DeviceSpec) withDefaults() DeviceSpec {
	if spec.UnitSizeKiB == 0 {
		spec.UnitSizeKiB = DefaultUnitSizeKiB
	}

	if spec.TargetRate == 0 {
		spec.TargetRate = spec.Rate
	}

	return spec
}
