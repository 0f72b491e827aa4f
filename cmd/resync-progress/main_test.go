package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/resync-progress/internal/config"
	"github.com/joe/resync-progress/internal/driver"
	"github.com/joe/resync-progress/internal/logger"
	pkgerrors "github.com/joe/resync-progress/pkg/errors"
)

func TestBuildDevices(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.PostProcessConfig(config.Default())
	g.Expect(err).ShouldNot(HaveOccurred())

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	reg, workloads, err := buildDevices(cfg, logger.NewTestLogger(), now)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(reg.Len()).To(Equal(1))
	g.Expect(workloads).To(HaveKey(0))

	d, err := reg.Get(0)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(d.Name).To(Equal(config.DefaultDeviceName))
	g.Expect(d.Active()).To(BeTrue())
	g.Expect(d.State().Total).To(Equal(uint64(config.DefaultUnits)))
}

func TestPrintReports_FinalReportWhenDone(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.PostProcessConfig(config.Default())
	g.Expect(err).ShouldNot(HaveOccurred())

	d := driver.NewDevice("r0", 0, driver.DeviceOptions{Logger: logger.NewTestLogger()})

	done := make(chan error, 1)
	done <- nil

	var buf bytes.Buffer

	err = printReports(context.Background(), &buf, []*driver.Device{d}, cfg, done)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(buf.String()).To(Equal(" 0: r0 cs:Idle\n"))
}

func TestPrintReports_Canceled(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.PostProcessConfig(config.Default())
	g.Expect(err).ShouldNot(HaveOccurred())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	done <- context.Canceled

	var buf bytes.Buffer

	err = printReports(ctx, &buf, nil, cfg, done)
	g.Expect(err).ShouldNot(HaveOccurred())
}

func TestNewEnricher_Categories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want pkgerrors.ErrorCategory
	}{
		{name: "flag", err: fmt.Errorf("%w: 1", config.ErrTooFewMarks), want: pkgerrors.CategoryFlags},
		{name: "devices file", err: config.ErrNoDevices, want: pkgerrors.CategoryDevicesFile},
		{name: "registry", err: fmt.Errorf("%w: 3", driver.ErrDuplicateMinor), want: pkgerrors.CategoryDevicesFile},
		{name: "log file", err: errors.New("open /root/x.log: permission denied"), want: pkgerrors.CategoryPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			var actionable pkgerrors.ActionableError
			g.Expect(errors.As(newEnricher().Enrich(tt.err, ""), &actionable)).To(BeTrue())
			g.Expect(actionable.Category()).To(Equal(tt.want))
		})
	}
}
