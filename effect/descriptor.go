package effect

import (
	"strings"

	"lautenbacher.net/statusled/status"
)

// Kind is the time based effect used to show a state.
type Kind int

const (
	Solid Kind = iota
	Blink
	Pulse
)

func (k Kind) String() string {
	switch k {
	case Blink:
		return "blink"
	case Pulse:
		return "pulse"
	default:
		return "none"
	}
}

// ParseEffect maps an effect name to its Kind. Unknown names fall back to
// Solid.
func ParseEffect(name string) Kind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "blink":
		return Blink
	case "pulse":
		return Pulse
	default:
		return Solid
	}
}

// Default blink timing in milliseconds for states without canonical timing.
const (
	DefaultBlinkPeriod uint32 = 1000
	DefaultBlinkOnTime uint32 = 500
	PulsePeriod        uint32 = 2000
)

// Descriptor describes how one state is shown.
type Descriptor struct {
	Enabled bool
	Color   Color
	// Brightness replaces the global brightness as the per state scale
	// when HasBrightness is set.
	Brightness    float64
	HasBrightness bool
	Kind          Kind
	// Blink timing in milliseconds, zero selects the default timing.
	Period uint32
	OnTime uint32
}

// blinkTiming returns the effective period and on duration.
func (d Descriptor) blinkTiming() (uint32, uint32) {
	if d.Period == 0 {
		return DefaultBlinkPeriod, DefaultBlinkOnTime
	}
	return d.Period, d.OnTime
}

// ErrorTiming is the canonical error blink: 60% duty.
func ErrorTiming(period uint32) (uint32, uint32) {
	return period, period * 3 / 5
}

// WarningTiming is the canonical warning blink: one sixth duty.
func WarningTiming(period uint32) (uint32, uint32) {
	return period, period / 6
}

// Table maps every state to its descriptor. NoDisplay and UserOverride
// entries are never rendered from the table.
type Table [status.NumStates]Descriptor

// Lookup returns the descriptor for state. Out of range states yield a
// disabled descriptor.
func (t *Table) Lookup(state status.StatusState) Descriptor {
	if !state.Valid() {
		return Descriptor{}
	}
	return t[state]
}

// Set replaces the descriptor of a state.
func (t *Table) Set(state status.StatusState, d Descriptor) {
	if state.Valid() {
		t[state] = d
	}
}

// DefaultTable returns the factory colors and effects.
func DefaultTable(errorBlink, warningBlink uint32) Table {
	var t Table
	solid := func(c Color) Descriptor {
		return Descriptor{Enabled: true, Color: c, Kind: Solid}
	}
	blink := func(c Color, period, on uint32) Descriptor {
		return Descriptor{Enabled: true, Color: c, Kind: Blink, Period: period, OnTime: on}
	}
	red := RGB(1, 0, 0)
	green := RGB(0, 1, 0.1)
	blue := RGB(0, 0, 1)

	ep, eon := ErrorTiming(errorBlink)
	wp, won := WarningTiming(warningBlink)
	t[status.Idle] = solid(green)
	t[status.RemoteLinkConnected] = solid(green)
	t[status.LocalNetworkConnected] = solid(RGB(0.7, 0.7, 0.7))
	t[status.Booting] = solid(red)
	t[status.Warning] = blink(RGB(1, 0.5, 0), wp, won)
	t[status.Error] = blink(red, ep, eon)
	t[status.OtaProgress] = blink(blue, 0, 0)
	t[status.OtaBegin] = solid(blue)
	t[status.OtaError] = blink(red, 0, 0)
	return t
}
