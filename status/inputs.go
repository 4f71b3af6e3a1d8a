package status

import (
	"sync"
	"time"
)

// Clock returns a monotonic millisecond reading. It is allowed to wrap at
// 2^32, all window checks use unsigned subtraction.
type Clock func() uint32

// NewMonotonicClock returns a Clock counting milliseconds since the call.
func NewMonotonicClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}

// ConditionInputs is one consistent snapshot of every condition the
// resolver looks at.
type ConditionInputs struct {
	ErrorActive   bool
	WarningActive bool

	OtaActive     bool
	OtaPhaseStart uint32
	OtaFailed     bool

	RemoteLinkConnected   bool
	LocalNetworkConnected bool

	BootStart uint32

	UserOverrideActive bool
	UserOverrideSince  uint32
}

// Conditions owns the mutable condition inputs. Event callbacks mutate it
// from any goroutine, the controller takes a Snapshot once per tick.
type Conditions struct {
	mu    sync.Mutex
	clock Clock
	in    ConditionInputs
}

// NewConditions starts the boot window at the current clock reading with
// every flag cleared.
func NewConditions(clock Clock) *Conditions {
	return &Conditions{
		clock: clock,
		in:    ConditionInputs{BootStart: clock()},
	}
}

// Snapshot returns a copy of the inputs with the health flags read from
// health. A nil health source reports no error and no warning.
func (c *Conditions) Snapshot(health HealthSource) ConditionInputs {
	c.mu.Lock()
	in := c.in
	c.mu.Unlock()
	if health != nil {
		in.ErrorActive = health.ErrorActive()
		in.WarningActive = health.WarningActive()
	}
	return in
}

// OnOtaBegin marks an OTA update as running and restarts the OTA phase.
// A previous OTA failure is forgotten.
func (c *Conditions) OnOtaBegin() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.OtaActive = true
	c.in.OtaPhaseStart = now
	c.in.OtaFailed = false
}

// OnOtaProgress keeps the OTA flag raised. Progress reports that arrive
// without a preceding begin still count as a running update.
func (c *Conditions) OnOtaProgress() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.OtaActive = true
}

// OnOtaEnd finishes the update. It also withdraws a reported failure, after
// that the light falls back to whatever the status chain shows.
func (c *Conditions) OnOtaEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.OtaActive = false
	c.in.OtaFailed = false
}

// OnOtaError latches the OTA failure until the next OnOtaBegin or OnOtaEnd.
func (c *Conditions) OnOtaError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.OtaFailed = true
	c.in.OtaActive = false
}

func (c *Conditions) OnRemoteLinkConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.RemoteLinkConnected = connected
}

func (c *Conditions) OnLocalNetworkConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.LocalNetworkConnected = connected
}

// ActivateUserOverride records that the user set a color. The activation
// time is refreshed on every call.
func (c *Conditions) ActivateUserOverride() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.UserOverrideActive = true
	c.in.UserOverrideSince = now
}

// ClearUserOverride hands the light back to status display.
func (c *Conditions) ClearUserOverride() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.in.UserOverrideActive = false
}
