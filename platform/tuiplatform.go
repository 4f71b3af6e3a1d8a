package platform

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/exp/maps"

	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/events"
	"lautenbacher.net/statusled/logging"
	"lautenbacher.net/statusled/output"
)

const refreshInterval = 250 * time.Millisecond

// userPalette is cycled through with the u key.
var userPalette = []effect.Color{
	effect.RGB(1, 1, 1),
	effect.RGB(0.6, 0, 1),
	effect.RGB(0, 1, 1),
	effect.RGB(1, 1, 0),
}

type keyAction struct {
	label string
	do    func()
}

type TUIPlatform struct {
	bus          *events.Bus
	view         StatusView
	ossignalChan chan os.Signal

	tviewapp     *tview.Application
	intro        *tview.TextView
	swatch       *tview.TextView
	history      *tview.TextView
	logView      *tview.TextView
	logFlushOnce sync.Once
	readyChan    chan bool
	running      atomic.Bool
	stopChan     chan struct{}
	wg           sync.WaitGroup

	mu        sync.Mutex
	levels    effect.Color
	errorOn   bool
	warningOn bool
	remote    bool
	local     bool
	progress  int
	userIndex int

	keys map[rune]keyAction
}

func NewTUIPlatform(bus *events.Bus, view StatusView, ossignalchan chan os.Signal) *TUIPlatform {
	inst := &TUIPlatform{
		bus:          bus,
		view:         view,
		ossignalChan: ossignalchan,
		readyChan:    make(chan bool),
		stopChan:     make(chan struct{}),
	}
	inst.keys = inst.keyMap()
	return inst
}

func (s *TUIPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *TUIPlatform) Sink() output.Writer {
	return s
}

// Write stores the levels for the swatch and redraws it when they change.
func (s *TUIPlatform) Write(levels effect.Color) {
	s.mu.Lock()
	changed := levels != s.levels
	s.levels = levels
	s.mu.Unlock()
	if changed && s.running.Load() {
		s.tviewapp.QueueUpdateDraw(s.drawStatus)
	}
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()

	s.wg.Add(1)
	go s.refresh()
	return nil
}

func (s *TUIPlatform) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.running.Store(false)
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

// refresh redraws state and history which change without a level change.
func (s *TUIPlatform) refresh() {
	defer s.wg.Done()
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			slog.Debug("Ending TUI refresh go-routine")
			return
		case <-ticker.C:
			if s.running.Load() {
				s.tviewapp.QueueUpdateDraw(s.drawStatus)
			}
		}
	}
}

func (s *TUIPlatform) keyMap() map[rune]keyAction {
	return map[rune]keyAction{
		'e': {"toggle error", func() {
			s.mu.Lock()
			s.errorOn = !s.errorOn
			ev := events.HealthEvent{Error: s.errorOn, Warning: s.warningOn}
			s.mu.Unlock()
			s.bus.Publish(ev)
		}},
		'w': {"toggle warning", func() {
			s.mu.Lock()
			s.warningOn = !s.warningOn
			ev := events.HealthEvent{Error: s.errorOn, Warning: s.warningOn}
			s.mu.Unlock()
			s.bus.Publish(ev)
		}},
		'o': {"OTA begin", func() {
			s.mu.Lock()
			s.progress = 0
			s.mu.Unlock()
			s.bus.Publish(events.OtaBeginEvent{})
		}},
		'p': {"OTA progress", func() {
			s.mu.Lock()
			s.progress = min(s.progress+10, 100)
			ev := events.OtaProgressEvent{Percent: s.progress}
			s.mu.Unlock()
			s.bus.Publish(ev)
		}},
		'x': {"OTA end", func() { s.bus.Publish(events.OtaEndEvent{}) }},
		'X': {"OTA error", func() { s.bus.Publish(events.OtaErrorEvent{Reason: "simulated"}) }},
		'r': {"toggle remote link", func() {
			s.mu.Lock()
			s.remote = !s.remote
			ev := events.RemoteLinkEvent{Connected: s.remote}
			s.mu.Unlock()
			s.bus.Publish(ev)
		}},
		'l': {"toggle local network", func() {
			s.mu.Lock()
			s.local = !s.local
			ev := events.LocalNetworkEvent{Connected: s.local}
			s.mu.Unlock()
			s.bus.Publish(ev)
		}},
		'u': {"next user color", func() {
			s.mu.Lock()
			c := userPalette[s.userIndex%len(userPalette)]
			s.userIndex++
			s.mu.Unlock()
			s.bus.Publish(events.UserColorEvent{Color: c, Brightness: 1})
		}},
		'U': {"clear user color", func() { s.bus.Publish(events.UserClearEvent{}) }},
		'c': {"reload config", func() { s.bus.Publish(events.ReloadRequestedEvent{}) }},
		'q': {"quit", func() { s.ossignalChan <- os.Interrupt }},
	}
}

// handleRune runs the action bound to key and reports whether there was
// one.
func (s *TUIPlatform) handleRune(key rune) bool {
	action, exists := s.keys[key]
	if !exists {
		return false
	}
	slog.Debug("Key pressed", "key", string(key), "action", action.label)
	action.do()
	return true
}

// legend lists the key bindings ordered by key.
func (s *TUIPlatform) legend() string {
	keys := maps.Keys(s.keys)
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("[#ff0000]%c[-] %s", k, s.keys[k].label))
	}
	var buf strings.Builder
	for i, p := range parts {
		if i > 0 {
			if i%4 == 0 {
				buf.WriteString("\n")
			} else {
				buf.WriteString(" | ")
			}
		}
		buf.WriteString(p)
	}
	return buf.String()
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.legend())
	s.intro.SetBorder(true).SetTitle(" Status LED Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	s.swatch = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.swatch.SetBorder(true).SetTitle(" Light ")
	s.swatch.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	s.history = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.history.SetBorder(true).SetTitle(" Transitions ")
	s.history.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	middle := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(s.swatch, 0, 1, false).
		AddItem(s.history, 0, 1, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(middle, 9, 0, false).
		AddItem(s.logView, 0, 1, true)

	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logging.SetOutput(tview.ANSIWriter(s.logView))
			s.running.Store(true)
			close(s.readyChan)
		})
	})

	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyRune:
			if s.handleRune(event.Rune()) {
				return nil
			}
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

// drawStatus must run on the TUI goroutine via QueueUpdateDraw.
func (s *TUIPlatform) drawStatus() {
	s.mu.Lock()
	levels := s.levels
	s.mu.Unlock()
	s.swatch.SetText(s.statusText(levels))
	s.history.SetText(s.historyText())
}

func (s *TUIPlatform) statusText(levels effect.Color) string {
	var buf strings.Builder
	block := colorTag(levels) + strings.Repeat("█", 12) + "[-]"
	for i := 0; i < 3; i++ {
		buf.WriteString(" " + block + "\n")
	}
	fmt.Fprintf(&buf, " R %.3f  G %.3f  B %.3f\n", levels.R, levels.G, levels.B)
	if s.view != nil {
		st := s.view.State()
		fmt.Fprintf(&buf, " [yellow]%s[-] (from %s, status %s)\n", st.Current, st.Previous, st.Status)
	}
	return buf.String()
}

func (s *TUIPlatform) historyText() string {
	if s.view == nil {
		return ""
	}
	history := s.view.History()
	var buf strings.Builder
	for i := len(history) - 1; i >= 0 && len(history)-i <= 7; i-- {
		tr := history[i]
		fmt.Fprintf(&buf, " %10d ms  %s → %s\n", tr.At, tr.From, tr.To)
	}
	return buf.String()
}

// colorTag returns a tview color tag for levels. The brightest channel is
// stretched to full scale so dim colors stay visible. Black stays black.
func colorTag(levels effect.Color) string {
	maxLevel := math.Max(levels.R, math.Max(levels.G, levels.B))
	if maxLevel <= 0 {
		return "[#000000]"
	}
	factor := 255 / maxLevel
	const epsilon = 1e-9
	channel := func(v float64) byte {
		return byte(math.Round(math.Min(v*factor, 255) + epsilon))
	}
	return fmt.Sprintf("[#%02x%02x%02x]", channel(levels.R), channel(levels.G), channel(levels.B))
}
