package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
	"lautenbacher.net/statusled/controller"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/status"
)

const CONFILE = "config.yml"

const (
	PlatformRPi      = "rpi"
	PlatformTUI      = "tui"
	PlatformHeadless = "headless"

	LibraryRPIO   = "rpio"
	LibraryPeriph = "periph.io"
)

// EventConfig describes how one status is shown. A nil Brightness or a
// value of exactly 1.0 means the global brightness applies. Zero blink
// timings fall back to the defaults of the effect package.
type EventConfig struct {
	Enabled     bool          `yaml:"Enabled"`
	Color       []float64     `yaml:"Color"`
	Brightness  *float64      `yaml:"Brightness,omitempty"`
	Effect      string        `yaml:"Effect"`
	BlinkPeriod time.Duration `yaml:"BlinkPeriod,omitempty"`
	BlinkOnTime time.Duration `yaml:"BlinkOnTime,omitempty"`
}

type EventsConfig struct {
	Error         EventConfig `yaml:"Error"`
	Warning       EventConfig `yaml:"Warning"`
	OK            EventConfig `yaml:"OK"`
	Boot          EventConfig `yaml:"Boot"`
	WifiConnected EventConfig `yaml:"WifiConnected"`
	ApiConnected  EventConfig `yaml:"ApiConnected"`
	OtaBegin      EventConfig `yaml:"OtaBegin"`
	OtaProgress   EventConfig `yaml:"OtaProgress"`
	OtaError      EventConfig `yaml:"OtaError"`
}

// HardwareConfig selects the output platform. Pins are BCM numbers, a
// negative pin leaves that channel unconnected.
type HardwareConfig struct {
	Platform     string `yaml:"Platform"`
	GPIOLibrary  string `yaml:"GPIOLibrary"`
	PinRed       int    `yaml:"PinRed"`
	PinGreen     int    `yaml:"PinGreen"`
	PinBlue      int    `yaml:"PinBlue"`
	PWMFrequency int    `yaml:"PWMFrequency"`
	ActiveLow    bool   `yaml:"ActiveLow"`
}

type NightDimConfig struct {
	Enabled   bool    `yaml:"Enabled"`
	Latitude  float64 `yaml:"Latitude"`
	Longitude float64 `yaml:"Longitude"`
	Factor    float64 `yaml:"Factor"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type Config struct {
	ErrorBlinkSpeed   time.Duration  `yaml:"ErrorBlinkSpeed"`
	WarningBlinkSpeed time.Duration  `yaml:"WarningBlinkSpeed"`
	Brightness        float64        `yaml:"Brightness"`
	PriorityMode      string         `yaml:"PriorityMode"`
	OKStateEnabled    bool           `yaml:"OKStateEnabled"`
	TickInterval      time.Duration  `yaml:"TickInterval"`
	HistorySize       int            `yaml:"HistorySize"`
	Events            EventsConfig   `yaml:"Events"`
	Hardware          HardwareConfig `yaml:"Hardware"`
	NightDim          NightDimConfig `yaml:"NightDim"`
	Logging           LoggingConfig  `yaml:"Logging"`
}

func event(enabled bool, c effect.Color, kind effect.Kind) EventConfig {
	return EventConfig{
		Enabled: enabled,
		Color:   []float64{c.R, c.G, c.B},
		Effect:  kind.String(),
	}
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	red := effect.RGB(1, 0, 0)
	green := effect.RGB(0, 1, 0.1)
	blue := effect.RGB(0, 0, 1)
	return &Config{
		ErrorBlinkSpeed:   250 * time.Millisecond,
		WarningBlinkSpeed: 1500 * time.Millisecond,
		Brightness:        0.5,
		PriorityMode:      status.StatusPriority.String(),
		OKStateEnabled:    true,
		TickInterval:      20 * time.Millisecond,
		HistorySize:       controller.DefaultHistorySize,
		Events: EventsConfig{
			Error:         event(true, red, effect.Blink),
			Warning:       event(true, effect.RGB(1, 0.5, 0), effect.Blink),
			OK:            event(true, green, effect.Solid),
			Boot:          event(true, red, effect.Solid),
			WifiConnected: event(true, effect.RGB(0.7, 0.7, 0.7), effect.Solid),
			ApiConnected:  event(true, effect.RGB(0, 1, 0.1), effect.Solid),
			OtaBegin:      event(true, blue, effect.Solid),
			OtaProgress:   event(true, blue, effect.Blink),
			OtaError:      event(true, red, effect.Blink),
		},
		Hardware: HardwareConfig{
			Platform:     PlatformTUI,
			GPIOLibrary:  LibraryPeriph,
			PinRed:       12,
			PinGreen:     13,
			PinBlue:      18,
			PWMFrequency: 1000,
		},
		NightDim: NightDimConfig{Factor: 0.3},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text", File: "/tmp/statusled-tui.log"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// ReadConfig decodes cfile over the defaults and validates the result.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// eventsByState maps the configured events onto the states they describe.
func (c *Config) eventsByState() map[status.StatusState]*EventConfig {
	return map[status.StatusState]*EventConfig{
		status.Error:                 &c.Events.Error,
		status.Warning:               &c.Events.Warning,
		status.Idle:                  &c.Events.OK,
		status.Booting:               &c.Events.Boot,
		status.LocalNetworkConnected: &c.Events.WifiConnected,
		status.RemoteLinkConnected:   &c.Events.ApiConnected,
		status.OtaBegin:              &c.Events.OtaBegin,
		status.OtaProgress:           &c.Events.OtaProgress,
		status.OtaError:              &c.Events.OtaError,
	}
}

// Validate checks all values and returns the first problem found. Events
// are checked in state order so the reported error is stable.
func (c *Config) Validate() error {
	if !effect.InUnit(c.Brightness) {
		return fmt.Errorf("Brightness must be between 0 and 1, got %v", c.Brightness)
	}
	if _, err := status.ParsePolicy(c.PriorityMode); err != nil {
		return err
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TickInterval must be positive, got %v", c.TickInterval)
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("HistorySize must be at least 1, got %d", c.HistorySize)
	}
	if c.ErrorBlinkSpeed <= 0 || c.WarningBlinkSpeed <= 0 {
		return errors.New("ErrorBlinkSpeed and WarningBlinkSpeed must be positive")
	}

	events := c.eventsByState()
	states := maps.Keys(events)
	slices.Sort(states)
	for _, state := range states {
		if err := events[state].validate(); err != nil {
			return fmt.Errorf("event %s: %w", state, err)
		}
	}

	switch c.Hardware.Platform {
	case PlatformRPi, PlatformTUI, PlatformHeadless:
	default:
		return fmt.Errorf("Hardware.Platform must be one of %q, %q or %q, got %q",
			PlatformRPi, PlatformTUI, PlatformHeadless, c.Hardware.Platform)
	}
	if c.Hardware.Platform == PlatformRPi {
		switch c.Hardware.GPIOLibrary {
		case LibraryRPIO, LibraryPeriph:
		default:
			return fmt.Errorf("Hardware.GPIOLibrary must be %q or %q, got %q",
				LibraryRPIO, LibraryPeriph, c.Hardware.GPIOLibrary)
		}
		if c.Hardware.PWMFrequency <= 0 {
			return fmt.Errorf("Hardware.PWMFrequency must be positive, got %d", c.Hardware.PWMFrequency)
		}
	}

	if c.NightDim.Enabled {
		if !effect.InUnit(c.NightDim.Factor) {
			return fmt.Errorf("NightDim.Factor must be between 0 and 1, got %v", c.NightDim.Factor)
		}
		if c.NightDim.Latitude < -90 || c.NightDim.Latitude > 90 {
			return fmt.Errorf("NightDim.Latitude must be between -90 and 90, got %v", c.NightDim.Latitude)
		}
		if c.NightDim.Longitude < -180 || c.NightDim.Longitude > 180 {
			return fmt.Errorf("NightDim.Longitude must be between -180 and 180, got %v", c.NightDim.Longitude)
		}
	}
	return nil
}

func (e *EventConfig) validate() error {
	if len(e.Color) != 3 {
		return fmt.Errorf("Color must have 3 components, got %d", len(e.Color))
	}
	for i, v := range e.Color {
		if !effect.InUnit(v) {
			return fmt.Errorf("Color[%d] must be between 0 and 1, got %v", i, v)
		}
	}
	if e.Brightness != nil && !effect.InUnit(*e.Brightness) {
		return fmt.Errorf("Brightness must be between 0 and 1, got %v", *e.Brightness)
	}
	if e.BlinkPeriod < 0 || e.BlinkOnTime < 0 {
		return errors.New("blink timings must not be negative")
	}
	if e.BlinkPeriod > 0 && e.BlinkOnTime >= e.BlinkPeriod {
		return fmt.Errorf("BlinkOnTime %v must be shorter than BlinkPeriod %v", e.BlinkOnTime, e.BlinkPeriod)
	}
	if e.BlinkPeriod == 0 && e.BlinkOnTime > 0 {
		return errors.New("BlinkOnTime needs a BlinkPeriod")
	}
	return nil
}
