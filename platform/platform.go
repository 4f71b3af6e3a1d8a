package platform

import (
	"fmt"
	"os"

	"lautenbacher.net/statusled/config"
	"lautenbacher.net/statusled/controller"
	"lautenbacher.net/statusled/events"
	"lautenbacher.net/statusled/output"
)

// Platform abstracts away the real PWM hardware from the simulation.
type Platform interface {
	// Start opens the hardware or starts the TUI.
	Start() error

	// Stop turns the light off and releases all resources.
	Stop()

	// Sink is where the controller writes its levels. Only valid after
	// Start returned without error.
	Sink() output.Writer

	// Ready is closed once the platform is able to show output.
	Ready() <-chan bool
}

// StatusView is what the simulation shows next to the color swatch.
type StatusView interface {
	State() controller.RenderState
	History() []controller.Transition
}

// New returns the platform selected by conf.Platform.
func New(conf config.HardwareConfig, bus *events.Bus, view StatusView, ossignal chan os.Signal) (Platform, error) {
	switch conf.Platform {
	case config.PlatformRPi:
		return NewRaspberryPiPlatform(conf)
	case config.PlatformTUI:
		return NewTUIPlatform(bus, view, ossignal), nil
	case config.PlatformHeadless:
		return NewHeadlessPlatform(), nil
	default:
		return nil, fmt.Errorf("unknown platform %q", conf.Platform)
	}
}
