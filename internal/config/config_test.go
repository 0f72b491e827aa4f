//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexflint/go-arg"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/resync-progress/internal/config"
	"github.com/joe/resync-progress/internal/estimator"
	"github.com/joe/resync-progress/internal/logger"
)

// parse runs args through go-arg and PostProcessConfig without touching os.Args.
func parse(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cfg := config.Default()

	parser, err := arg.NewParser(arg.Config{}, cfg)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	if err := parser.Parse(args); err != nil {
		return nil, err
	}

	return config.PostProcessConfig(cfg)
}

func TestConfigDescription(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	desc := cfg.Description()
	if desc == "" {
		t.Error("Description() should not be empty")
	}
}

func TestConfigVersion(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	version := cfg.Version()
	if version == "" {
		t.Error("Version() should not be empty")
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := parse(t)
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(cfg.Tick).To(Equal(3 * time.Second))
	g.Expect(cfg.Marks).To(Equal(8))
	g.Expect(cfg.Arithmetic).To(Equal(estimator.WideArithmetic))

	devices := cfg.Devices()
	g.Expect(devices).To(HaveLen(1))
	g.Expect(devices[0]).To(Equal(config.DeviceSpec{
		Name:        config.DefaultDeviceName,
		Kind:        estimator.SyncTarget,
		Units:       config.DefaultUnits,
		UnitSizeKiB: config.DefaultUnitSizeKiB,
		Rate:        config.DefaultRate,
		TargetRate:  config.DefaultRate,
	}))
	g.Expect(devices[0].UnitShift()).To(Equal(uint(12)))
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := parse(t,
		"--units", "1000", "--unit-size-kib", "64", "--rate", "10", "--target-rate", "20",
		"--kind", "vs", "--tick", "5s", "--marks", "4", "--detail", "--plain",
		"--arithmetic", "shifted", "--filter", "r*/**")
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(cfg.Detail).To(BeTrue())
	g.Expect(cfg.Plain).To(BeTrue())
	g.Expect(cfg.EstimateOptions()).To(Equal(estimator.Options{
		Detailed:     true,
		TickInterval: 5 * time.Second,
		Arithmetic:   estimator.ShiftedArithmetic,
	}))

	spec := cfg.Devices()[0]
	g.Expect(spec.Kind).To(Equal(estimator.VerifySource))
	g.Expect(spec.Units).To(Equal(uint64(1000)))
	g.Expect(spec.TargetRate).To(Equal(uint64(20)))
	g.Expect(spec.UnitShift()).To(Equal(uint(16)))
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "zero units", args: []string{"--units", "0"}, wantErr: config.ErrNoUnits},
		{name: "odd unit size", args: []string{"--unit-size-kib", "3"}, wantErr: config.ErrBadUnitSize},
		{name: "sub-second tick", args: []string{"--tick", "500ms"}, wantErr: config.ErrBadTick},
		{name: "one mark", args: []string{"--marks", "1"}, wantErr: config.ErrTooFewMarks},
		{name: "bad filter", args: []string{"--filter", "r0/["}, wantErr: config.ErrBadFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := parse(t, tt.args...)
			g.Expect(err).To(MatchError(tt.wantErr))
		})
	}
}

func TestParse_BadKind(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := parse(t, "--kind", "resync")
	g.Expect(err).To(HaveOccurred())
}

func TestLoggerConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{name: "live view discards", cfg: config.Config{}, want: logger.OutputDiscard},
		{name: "plain logs to stderr", cfg: config.Config{Plain: true}, want: logger.OutputStderr},
		{name: "file wins", cfg: config.Config{Plain: true, LogFile: "/tmp/x.log"}, want: "/tmp/x.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.cfg.LoggerConfig().Output; got != tt.want {
				t.Errorf("LoggerConfig().Output = %q, want %q", got, tt.want)
			}
		})
	}
}

const devicesYAML = `
devices:
  - name: r0/data
    minor: 0
    kind: sync-target
    units: 262144
    rate: 2560
  - name: r1/logs
    minor: 1
    kind: VerifyS
    units: 1000
    unit_size_kib: 1
    rate: 100
    target_rate: 50
    fail_every: 10
    start_paused: true
`

func TestParseDevices(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	devices, err := config.ParseDevices([]byte(devicesYAML))
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(devices).To(HaveLen(2))

	g.Expect(devices[0].Kind).To(Equal(estimator.SyncTarget))
	g.Expect(devices[0].UnitSizeKiB).To(Equal(uint64(config.DefaultUnitSizeKiB)))
	g.Expect(devices[0].TargetRate).To(Equal(uint64(2560)))

	g.Expect(devices[1].Kind).To(Equal(estimator.VerifySource))
	g.Expect(devices[1].UnitShift()).To(Equal(uint(10)))
	g.Expect(devices[1].TargetRate).To(Equal(uint64(50)))
	g.Expect(devices[1].FailEvery).To(Equal(uint64(10)))
	g.Expect(devices[1].StartPaused).To(BeTrue())
}

func TestParseDevices_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{name: "empty", doc: "devices: []", wantErr: config.ErrNoDevices},
		{name: "not yaml", doc: "devices: [", wantErr: config.ErrDevicesFileParse},
		{
			name:    "unnamed",
			doc:     "devices:\n  - minor: 0\n    units: 10\n",
			wantErr: config.ErrUnnamedDevice,
		},
		{
			name:    "duplicate name",
			doc:     "devices:\n  - {name: a, minor: 0, units: 1}\n  - {name: a, minor: 1, units: 1}\n",
			wantErr: config.ErrDuplicateDevice,
		},
		{
			name:    "duplicate minor",
			doc:     "devices:\n  - {name: a, minor: 0, units: 1}\n  - {name: b, minor: 0, units: 1}\n",
			wantErr: config.ErrDuplicateDevice,
		},
		{
			name:    "no units",
			doc:     "devices:\n  - {name: a, minor: 0}\n",
			wantErr: config.ErrNoUnits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := config.ParseDevices([]byte(tt.doc))
			g.Expect(err).To(MatchError(tt.wantErr))
		})
	}
}

func TestParse_DevicesFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "devices.yaml")
	g.Expect(os.WriteFile(path, []byte(devicesYAML), 0o600)).To(Succeed())

	cfg, err := parse(t, "--devices-file", path)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.Devices()).To(HaveLen(2))

	_, err = parse(t, "--devices-file", filepath.Join(t.TempDir(), "missing.yaml"))
	g.Expect(err).To(MatchError(os.ErrNotExist))
}
