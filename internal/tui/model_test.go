package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joe/resync-progress/internal/driver"
	"github.com/joe/resync-progress/internal/estimator"
	"github.com/joe/resync-progress/internal/logger"
)

var _ = Describe("Model", func() {
	var (
		start   time.Time
		now     time.Time
		devices []*driver.Device
		model   *Model
		colors  bool
	)

	newModel := func(quitWhenDone bool) *Model {
		return NewModel(devices, Options{
			Clock:        func() time.Time { return now },
			QuitWhenDone: quitWhenDone,
			Logger:       logger.NewTestLogger(),
		})
	}

	BeforeEach(func() {
		colors = GetColorsDisabled()
		SetColorsDisabledForTesting(true)

		start = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		now = start.Add(30 * time.Second)

		opts := driver.DeviceOptions{Logger: logger.NewTestLogger()}
		devices = []*driver.Device{
			driver.NewDevice("r0/data", 0, opts),
			driver.NewDevice("r1/logs", 1, opts),
		}

		_, err := devices[0].StartOperation(driver.Operation{Kind: estimator.SyncTarget, Total: 1000, TargetRate: 10}, start)
		Expect(err).ShouldNot(HaveOccurred())
		devices[0].Complete(500)

		model = newModel(false)
	})

	AfterEach(func() {
		SetColorsDisabledForTesting(colors)
	})

	Describe("View", func() {
		It("renders a box per device", func() {
			view := model.View()

			Expect(view).To(ContainSubstring("0: r0/data"))
			Expect(view).To(ContainSubstring("1: r1/logs"))
			Expect(view).To(ContainSubstring("[" + strings.Repeat("=", 19) + ">" + strings.Repeat(".", 20) + "]"))
			Expect(view).To(ContainSubstring("sync'ed: 50.0% (2000/4000)K"))
			Expect(view).To(ContainSubstring("want: 40 K/sec"))
			Expect(view).To(ContainSubstring("cs:Idle"))
		})

		It("shows the position line only in detail mode", func() {
			Expect(model.View()).NotTo(ContainSubstring("sector pos"))

			model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})

			Expect(model.View()).To(ContainSubstring("sector pos"))
		})

		It("marks a finished device", func() {
			devices[0].Complete(500)
			devices[0].Finish()

			model.Update(TickMsg(now))

			Expect(model.View()).To(ContainSubstring("finished"))
		})

		It("explains inconsistent counters", func() {
			devices[0].AddOutstanding(10_000)
			model.Update(TickMsg(now))

			view := model.View()
			Expect(view).To(ContainSubstring("rs_left="))
			Expect(view).To(ContainSubstring("verify pass"))
		})

		It("reports a stall", func() {
			now = start.Add(10 * time.Minute)
			model.Update(TickMsg(now))

			Expect(model.View()).To(ContainSubstring("(stalled)"))
		})
	})

	Describe("Keys", func() {
		It("quits on q", func() {
			_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

			Expect(model.Quitting()).To(BeTrue())
			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(tea.Quit()))
		})

		It("quits on ctrl+c", func() {
			_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

			Expect(model.Quitting()).To(BeTrue())
			Expect(cmd).NotTo(BeNil())
		})

		It("moves the selection within bounds", func() {
			down := tea.KeyMsg{Type: tea.KeyDown}
			up := tea.KeyMsg{Type: tea.KeyUp}

			model.Update(down)
			Expect(model.Selected()).To(Equal(1))

			model.Update(down)
			Expect(model.Selected()).To(Equal(1))

			model.Update(up)
			model.Update(up)
			Expect(model.Selected()).To(Equal(0))
		})

		It("pauses and resumes the selected device", func() {
			pause := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}

			model.Update(pause)
			Expect(devices[0].Paused()).To(BeTrue())
			Expect(model.View()).To(ContainSubstring("(paused)"))

			now = now.Add(5 * time.Second)
			model.Update(pause)
			Expect(devices[0].Paused()).To(BeFalse())
			Expect(devices[0].State().PausedDuration).To(Equal(5 * time.Second))
		})

		It("ignores pause on an idle device", func() {
			model.Update(tea.KeyMsg{Type: tea.KeyDown})
			model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})

			Expect(devices[1].Paused()).To(BeFalse())
		})
	})

	Describe("Refresh", func() {
		It("keeps ticking while devices are active", func() {
			model = newModel(true)

			_, cmd := model.Update(TickMsg(now))

			Expect(model.Quitting()).To(BeFalse())
			Expect(cmd).NotTo(BeNil())
		})

		It("quits once every device is idle when asked to", func() {
			model = newModel(true)
			devices[0].Finish()

			_, cmd := model.Update(TickMsg(now))

			Expect(model.Quitting()).To(BeTrue())
			Expect(cmd()).To(Equal(tea.Quit()))
		})

		It("resizes the bars with the window", func() {
			model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
			Expect(model.bars[0].Width).To(Equal(70))

			model.Update(tea.WindowSizeMsg{Width: 10, Height: 24})
			Expect(model.bars[0].Width).To(Equal(MinProgressBarWidth))

			model.Update(tea.WindowSizeMsg{Width: 500, Height: 24})
			Expect(model.bars[0].Width).To(Equal(MaxProgressBarWidth))
		})
	})
})

func TestModel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Monitor Suite")
}
