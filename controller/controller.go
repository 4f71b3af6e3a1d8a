package controller

import (
	"log/slog"
	"sync"

	"github.com/gammazero/deque"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/output"
	"lautenbacher.net/statusled/status"
)

// DefaultHistorySize is the number of transitions kept by History.
const DefaultHistorySize = 16

// Settings are the global knobs applied on every tick.
type Settings struct {
	Brightness float64
	Resolver   status.Options
	// HistorySize bounds History, zero means DefaultHistorySize.
	HistorySize int
}

// RenderState is the per light state carried from one tick to the next.
type RenderState struct {
	Current        status.StatusState
	Previous       status.StatusState
	LastTransition uint32
	OutputOn       bool
	// Where the status chain settled, independent of the user override,
	// and when it got there.
	Status      status.StatusState
	StatusSince uint32
	Levels      effect.Color
}

// Transition is one recorded change of the displayed state.
type Transition struct {
	From status.StatusState
	To   status.StatusState
	At   uint32
}

type userColor struct {
	color      effect.Color
	brightness float64
}

// Controller resolves the state on every tick, renders its effect and
// writes the levels to the output. Any number of controllers may share
// one Conditions instance.
type Controller struct {
	mu         sync.Mutex
	conditions *status.Conditions
	health     status.HealthSource
	out        output.Writer
	table      effect.Table
	settings   Settings
	state      RenderState
	user       userColor
	history    deque.Deque[Transition]
	historyLen int
	logger     *slog.Logger
}

// New creates a controller. Before the first tick the light is considered
// to show NoDisplay.
func New(conditions *status.Conditions, health status.HealthSource, out output.Writer,
	table effect.Table, settings Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		conditions: conditions,
		health:     health,
		out:        out,
		table:      table,
		settings:   settings,
		state:      RenderState{Current: status.NoDisplay, Previous: status.NoDisplay, Status: status.NoDisplay},
		historyLen: historySize(settings),
		logger:     logger.With("module", "controller"),
	}
}

// Tick runs one control loop pass at time now and returns the resulting
// render state. Exactly one write reaches the output per call.
func (c *Controller) Tick(now uint32) RenderState {
	in := c.conditions.Snapshot(c.health) // One consistent read per tick

	c.mu.Lock()
	defer c.mu.Unlock()

	opts := c.settings.Resolver
	// Track the status chain on its own, it anchors the suppression window.
	if chain := status.ResolveStatus(in, opts, now); chain != c.state.Status {
		c.state.Status = chain
		c.state.StatusSince = now
	}
	next := status.Resolve(in, opts, status.History{Previous: c.state.Status, Since: c.state.StatusSince}, now)
	c.observe(next, now)

	frame := c.render(next, in.UserOverrideActive, now)
	if frame.Edge {
		c.logger.Debug("Phase edge", "state", next, "on", frame.On)
	}
	c.state.OutputOn = frame.On
	c.state.Levels = frame.Levels
	c.out.Write(frame.Levels) // The sink drops unchanged levels
	return c.state
}

// observe records a change of the displayed state and resets the effect
// phase so the new state starts from a clean edge.
func (c *Controller) observe(next status.StatusState, now uint32) {
	if next == c.state.Current {
		return
	}
	c.logger.Info("Status changed", "from", c.state.Current, "to", next)
	c.record(Transition{From: c.state.Current, To: next, At: now})
	c.state.Previous = c.state.Current
	c.state.Current = next
	c.state.LastTransition = now
	c.state.OutputOn = false
}

// render picks the descriptor for state. A user override without an active
// user color (user priority after ClearUserColor or before the first
// SetUserColor) is dark.
func (c *Controller) render(state status.StatusState, userActive bool, now uint32) effect.Frame {
	global := c.settings.Brightness
	switch {
	case state == status.NoDisplay, state == status.UserOverride && !userActive:
		return effect.Render(effect.Descriptor{}, now, global, c.state.OutputOn)
	case state == status.UserOverride:
		d := effect.Descriptor{
			Enabled:       true,
			Color:         c.user.color,
			Brightness:    c.user.brightness,
			HasBrightness: true,
			Kind:          effect.Solid,
		}
		return effect.Render(d, now, global, c.state.OutputOn)
	default:
		return effect.Render(c.table.Lookup(state), now, global, c.state.OutputOn)
	}
}

func (c *Controller) record(tr Transition) {
	c.history.PushBack(tr)
	for c.history.Len() > c.historyLen {
		c.history.PopFront()
	}
}

// State returns the render state of the last tick.
func (c *Controller) State() RenderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns the most recent transitions, oldest first.
func (c *Controller) History() []Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	ret := make([]Transition, c.history.Len())
	for i := range ret {
		ret[i] = c.history.At(i)
	}
	return ret
}

func historySize(settings Settings) int {
	if settings.HistorySize < 1 {
		return DefaultHistorySize
	}
	return settings.HistorySize
}

// resizeHistory drops the oldest transitions beyond n. Callers hold mu.
func (c *Controller) resizeHistory(n int) {
	c.historyLen = n
	for c.history.Len() > c.historyLen {
		c.history.PopFront()
	}
}

// Reconfigure swaps the descriptor table and global settings. The new
// values take effect on the next tick.
func (c *Controller) Reconfigure(table effect.Table, settings Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = table
	c.settings = settings
	c.resizeHistory(historySize(settings))
	c.logger.Info("Configuration applied",
		"brightness", settings.Brightness,
		"priority", settings.Resolver.Policy,
		"idle_enabled", settings.Resolver.IdleEnabled,
		"history", c.historyLen)
}
