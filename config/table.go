package config

import (
	"time"

	"lautenbacher.net/statusled/controller"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/status"
)

func millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}

// Table converts the configured events into the descriptor table used by
// the controller.
func (c *Config) Table() effect.Table {
	var t effect.Table
	for state, e := range c.eventsByState() {
		t.Set(state, e.descriptor())
	}

	// Error and Warning blink with the canonical duty cycle unless the
	// event sets its own timing.
	if d := t.Lookup(status.Error); d.Kind == effect.Blink && c.Events.Error.BlinkPeriod == 0 {
		d.Period, d.OnTime = effect.ErrorTiming(millis(c.ErrorBlinkSpeed))
		t.Set(status.Error, d)
	}
	if d := t.Lookup(status.Warning); d.Kind == effect.Blink && c.Events.Warning.BlinkPeriod == 0 {
		d.Period, d.OnTime = effect.WarningTiming(millis(c.WarningBlinkSpeed))
		t.Set(status.Warning, d)
	}
	return t
}

func (e *EventConfig) descriptor() effect.Descriptor {
	d := effect.Descriptor{
		Enabled: e.Enabled,
		Kind:    effect.ParseEffect(e.Effect),
	}
	if len(e.Color) == 3 {
		d.Color = effect.RGB(e.Color[0], e.Color[1], e.Color[2])
	}
	if e.Brightness != nil && *e.Brightness != 1.0 {
		d.Brightness = *e.Brightness
		d.HasBrightness = true
	}
	if e.BlinkPeriod > 0 {
		d.Period = millis(e.BlinkPeriod)
		d.OnTime = millis(e.BlinkOnTime)
		if d.OnTime == 0 {
			d.OnTime = d.Period / 2
		}
	}
	return d
}

// Settings returns the global knobs of the controller.
func (c *Config) Settings() controller.Settings {
	// Validate has already rejected unknown modes.
	policy, _ := status.ParsePolicy(c.PriorityMode)
	return controller.Settings{
		Brightness:  c.Brightness,
		HistorySize: c.HistorySize,
		Resolver: status.Options{
			Policy:      policy,
			IdleEnabled: c.OKStateEnabled,
		},
	}
}
