// Package main is the entry point for the resync-progress monitor.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/resync-progress/internal/config"
	"github.com/joe/resync-progress/internal/driver"
	"github.com/joe/resync-progress/internal/logger"
	"github.com/joe/resync-progress/internal/report"
	"github.com/joe/resync-progress/internal/tui"
	pkgerrors "github.com/joe/resync-progress/pkg/errors"
)

func main() {
	// Parse configuration
	cfg, err := config.ParseFlags()
	if err != nil {
		exitWithError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, cfg, os.Stdout)

	stop()

	if err != nil {
		exitWithError(err)
	}
}

// exitWithError prints err with suggestions for fixing it and exits.
func exitWithError(err error) {
	enriched := newEnricher().Enrich(err, "")

	fmt.Fprintf(os.Stderr, "Error: %v\n", enriched)

	if suggestions := pkgerrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprintf(os.Stderr, "Try these solutions:\n%s\n", suggestions)
	}

	os.Exit(1)
}

func newEnricher() pkgerrors.Enricher {
	return pkgerrors.NewEnricher(map[pkgerrors.ErrorCategory][]error{
		pkgerrors.CategoryFlags: {
			config.ErrNoUnits,
			config.ErrBadUnitSize,
			config.ErrBadTick,
			config.ErrTooFewMarks,
			config.ErrBadFilter,
			doublestar.ErrBadPattern,
		},
		pkgerrors.CategoryDevicesFile: {
			config.ErrNoDevices,
			config.ErrDuplicateDevice,
			config.ErrUnnamedDevice,
			config.ErrDevicesFileParse,
			driver.ErrDuplicateMinor,
			driver.ErrDuplicateName,
		},
	})
}

func run(ctx context.Context, cfg *config.Config, stdout *os.File) error {
	log, closer, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return err
	}

	defer func() { _ = closer.Close() }()

	reg, workloads, err := buildDevices(cfg, log, time.Now())
	if err != nil {
		return err
	}

	devices, err := reg.Match(cfg.Filter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- reg.RunAll(ctx, driver.SystemClock{}, cfg.Tick, func(d *driver.Device) driver.Workload {
			return workloads[d.Minor]
		})
	}()

	// Only use the live view if stdout is a TTY
	if !cfg.Plain && term.IsTerminal(int(stdout.Fd())) {
		model := tui.NewModel(devices, tui.Options{Estimate: cfg.EstimateOptions(), Logger: log})

		err = tui.Run(ctx, model, true)

		cancel()
		<-done

		return err
	}

	return printReports(ctx, stdout, devices, cfg, done)
}

// buildDevices registers one device per spec and starts its operation.
func buildDevices(cfg *config.Config, log zerolog.Logger, now time.Time) (*driver.Registry, map[int]driver.Workload, error) {
	reg := driver.NewRegistry()
	workloads := make(map[int]driver.Workload, len(cfg.Devices()))

	for _, spec := range cfg.Devices() {
		d := driver.NewDevice(spec.Name, spec.Minor, driver.DeviceOptions{
			Capacity:  cfg.Marks,
			UnitShift: spec.UnitShift(),
			Logger:    log,
		})

		if err := reg.Add(d); err != nil {
			return nil, nil, err
		}

		_, err := d.StartOperation(driver.Operation{
			Kind:       spec.Kind,
			Total:      spec.Units,
			TargetRate: spec.TargetRate,
		}, now)
		if err != nil {
			return nil, nil, fmt.Errorf("device %s: %w", spec.Name, err)
		}

		if spec.StartPaused {
			if err := d.Pause(now); err != nil {
				return nil, nil, fmt.Errorf("device %s: %w", spec.Name, err)
			}
		}

		workloads[spec.Minor] = &driver.SimulatedWorkload{
			Rate:       spec.Rate,
			FailEvery:  spec.FailEvery,
			DirtyEvery: spec.DirtyEvery,
		}
	}

	return reg, workloads, nil
}

// printReports writes a report every tick until the operations finish.
func printReports(ctx context.Context, w io.Writer, devices []*driver.Device, cfg *config.Config, done <-chan error) error {
	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	opts := cfg.EstimateOptions()

	for {
		select {
		case err := <-done:
			opts.Now = time.Now()
			if werr := report.Write(w, devices, opts); werr != nil {
				return werr
			}

			return ignoreCanceled(err)
		case now := <-ticker.C:
			opts.Now = now
			if err := report.Write(w, devices, opts); err != nil {
				return err
			}

			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		case <-ctx.Done():
			// RunAll returns promptly once ctx is done.
			return ignoreCanceled(<-done)
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
