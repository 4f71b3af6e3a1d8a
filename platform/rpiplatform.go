package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	"lautenbacher.net/statusled/config"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/logging"
	"lautenbacher.net/statusled/output"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// pwmBackend hides the GPIO library in use. A pin handed out by pwm takes
// duty values in [0,1].
type pwmBackend interface {
	open() error
	pwm(pin int, frequency int) (func(duty float64) error, error)
	close() error
}

type RaspberryPiPlatform struct {
	conf      config.HardwareConfig
	backend   pwmBackend
	sink      *output.RGB
	readyChan chan bool
	logger    *slog.Logger
}

func NewRaspberryPiPlatform(conf config.HardwareConfig) (*RaspberryPiPlatform, error) {
	var backend pwmBackend
	switch conf.GPIOLibrary {
	case config.LibraryRPIO:
		backend = &rpioBackend{}
	case config.LibraryPeriph:
		backend = &periphBackend{}
	default:
		return nil, fmt.Errorf("unknown GPIO library: %s", conf.GPIOLibrary)
	}
	return newRaspberryPiPlatform(conf, backend), nil
}

func newRaspberryPiPlatform(conf config.HardwareConfig, backend pwmBackend) *RaspberryPiPlatform {
	return &RaspberryPiPlatform{
		conf:      conf,
		backend:   backend,
		readyChan: make(chan bool),
		logger:    logging.For("rpi"),
	}
}

func (s *RaspberryPiPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *RaspberryPiPlatform) Sink() output.Writer {
	return s.sink
}

func (s *RaspberryPiPlatform) Start() error {
	s.logger.Info("Initialise GPIO PWM...", "library", s.conf.GPIOLibrary)
	if err := s.backend.open(); err != nil {
		return fmt.Errorf("failed to init %s: %w", s.conf.GPIOLibrary, err)
	}

	channels := make([]output.Actuator, 3)
	for i, pin := range []int{s.conf.PinRed, s.conf.PinGreen, s.conf.PinBlue} {
		if pin < 0 {
			continue
		}
		set, err := s.backend.pwm(pin, s.conf.PWMFrequency)
		if err != nil {
			s.backend.close()
			return fmt.Errorf("failed to set up pwm on pin %d: %w", pin, err)
		}
		channels[i] = &pwmChannel{pin: pin, set: set, activeLow: s.conf.ActiveLow, logger: s.logger}
	}
	s.sink = output.NewRGB(channels[0], channels[1], channels[2])
	s.sink.Write(effect.Black)

	close(s.readyChan)
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	if s.sink != nil {
		s.sink.Reset()
		s.sink.Write(effect.Black)
	}
	if err := s.backend.close(); err != nil {
		s.logger.Error("Error closing GPIO", "error", err)
	}
}

// pwmChannel is one color channel. With activeLow the pin sinks current,
// so full level is a duty of zero.
type pwmChannel struct {
	pin       int
	set       func(float64) error
	activeLow bool
	logger    *slog.Logger
}

func (c *pwmChannel) SetLevel(level float64) {
	duty := effect.Clamp01(level)
	if c.activeLow {
		duty = 1 - duty
	}
	if err := c.set(duty); err != nil {
		c.logger.Error("Error writing pwm", "pin", c.pin, "error", err)
	}
}

// rpio only drives the hardware PWM pins 12, 13, 18 and 19. 12/18 and
// 13/19 share a channel.
type rpioBackend struct {
	mu   sync.Mutex
	pins []rpio.Pin
}

// rpioCycle is the duty resolution. The PWM clock runs at frequency times
// rpioCycle.
const rpioCycle uint32 = 1024

func (b *rpioBackend) open() error {
	return rpio.Open()
}

func (b *rpioBackend) pwm(pin int, frequency int) (func(float64) error, error) {
	switch pin {
	case 12, 13, 18, 19:
	default:
		return nil, fmt.Errorf("pin %d has no hardware pwm", pin)
	}
	p := rpio.Pin(pin)
	p.Mode(rpio.Pwm)
	p.Freq(frequency * int(rpioCycle))
	p.DutyCycle(0, rpioCycle)

	b.mu.Lock()
	b.pins = append(b.pins, p)
	b.mu.Unlock()

	return func(duty float64) error {
		p.DutyCycle(uint32(duty*float64(rpioCycle)+0.5), rpioCycle)
		return nil
	}, nil
}

func (b *rpioBackend) close() error {
	b.mu.Lock()
	for _, p := range b.pins {
		p.DutyCycle(0, rpioCycle)
		p.Input()
	}
	b.pins = nil
	b.mu.Unlock()
	return rpio.Close()
}

// periph.io falls back to DMA driven PWM on pins without a hardware
// channel.
type periphBackend struct {
	mu   sync.Mutex
	pins []gpio.PinIO
}

func (b *periphBackend) open() error {
	_, err := host.Init()
	return err
}

func (b *periphBackend) pwm(pin int, frequency int) (func(float64) error, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return nil, fmt.Errorf("failed to find pin %d", pin)
	}
	freq := physic.Frequency(frequency) * physic.Hertz
	if err := p.PWM(0, freq); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.pins = append(b.pins, p)
	b.mu.Unlock()

	return func(duty float64) error {
		return p.PWM(gpio.Duty(duty*float64(gpio.DutyMax)+0.5), freq)
	}, nil
}

func (b *periphBackend) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for _, p := range b.pins {
		errs = append(errs, p.Halt())
	}
	b.pins = nil
	return errors.Join(errs...)
}
