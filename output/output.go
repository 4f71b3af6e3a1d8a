package output

import (
	"sync"

	"lautenbacher.net/statusled/effect"
)

// Actuator is one analog output channel accepting a level in [0,1].
type Actuator interface {
	SetLevel(level float64)
}

// Writer receives the rendered levels once per tick.
type Writer interface {
	Write(levels effect.Color)
}

// RGB drives three independent actuators. A nil channel is skipped.
// Levels are forwarded only when they differ from the last write.
type RGB struct {
	Red   Actuator
	Green Actuator
	Blue  Actuator

	mu      sync.Mutex
	last    effect.Color
	written bool
}

// NewRGB returns a sink for the three channels, any of which may be nil.
func NewRGB(red, green, blue Actuator) *RGB {
	return &RGB{Red: red, Green: green, Blue: blue}
}

func (s *RGB) Write(levels effect.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written && levels == s.last {
		return
	}
	s.last = levels
	s.written = true
	if s.Red != nil {
		s.Red.SetLevel(levels.R)
	}
	if s.Green != nil {
		s.Green.SetLevel(levels.G)
	}
	if s.Blue != nil {
		s.Blue.SetLevel(levels.B)
	}
}

// Last returns the levels most recently forwarded to the actuators.
func (s *RGB) Last() effect.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Reset forces the next Write through to the actuators.
func (s *RGB) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = false
}

// ActuatorFunc adapts a function to the Actuator interface.
type ActuatorFunc func(level float64)

func (f ActuatorFunc) SetLevel(level float64) {
	f(level)
}
