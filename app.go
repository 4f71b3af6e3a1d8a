package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"lautenbacher.net/statusled/config"
	"lautenbacher.net/statusled/controller"
	"lautenbacher.net/statusled/events"
	"lautenbacher.net/statusled/logging"
	"lautenbacher.net/statusled/output"
	pl "lautenbacher.net/statusled/platform"
	"lautenbacher.net/statusled/status"
)

// platformFactory builds the output platform. The view is valid for the
// platform's whole life, the controller behind it appears after Start.
type platformFactory func(conf config.HardwareConfig, bus *events.Bus, view pl.StatusView, ossignal chan os.Signal) (pl.Platform, error)

// App owns the control loop and everything feeding it.
type App struct {
	cfile      string
	conf       *config.Config
	clock      status.Clock
	conditions *status.Conditions
	health     *status.HealthBits
	bus        *events.Bus
	ctrl       *controller.Controller
	view       atomic.Pointer[controller.Controller]
	platform   pl.Platform
	watcher    *config.Watcher
	ossignal   chan os.Signal
	reload     chan struct{}
	unbind     func()
	logger     *slog.Logger
}

func NewApp(cfile string, conf *config.Config, clock status.Clock, ossignal chan os.Signal) *App {
	return &App{
		cfile:      cfile,
		conf:       conf,
		clock:      clock,
		conditions: status.NewConditions(clock),
		health:     &status.HealthBits{},
		bus:        events.New(),
		ossignal:   ossignal,
		reload:     make(chan struct{}, 1),
		logger:     logging.For("app"),
	}
}

// Bus is where condition sources publish their events.
func (a *App) Bus() *events.Bus {
	return a.bus
}

// State and History make the App the platform's StatusView before the
// controller exists.
func (a *App) State() controller.RenderState {
	if ctrl := a.view.Load(); ctrl != nil {
		return ctrl.State()
	}
	return controller.RenderState{}
}

func (a *App) History() []controller.Transition {
	if ctrl := a.view.Load(); ctrl != nil {
		return ctrl.History()
	}
	return nil
}

// Start brings up the platform, the controller, the event bindings and
// the config watcher.
func (a *App) Start(newPlatform platformFactory) error {
	platform, err := newPlatform(a.conf.Hardware, a.bus, a, a.ossignal)
	if err != nil {
		return fmt.Errorf("can't create platform: %w", err)
	}
	if err := platform.Start(); err != nil {
		return fmt.Errorf("can't start platform: %w", err)
	}
	a.platform = platform

	sink := platform.Sink()
	if nd := a.conf.NightDim; nd.Enabled {
		a.logger.Info("Night dimming enabled", "latitude", nd.Latitude, "longitude", nd.Longitude, "factor", nd.Factor)
		sink = output.NewNightDimmer(sink, nd.Latitude, nd.Longitude, nd.Factor, time.Now)
	}
	a.ctrl = controller.New(a.conditions, a.health, sink, a.conf.Table(), a.conf.Settings(), slog.Default())
	a.view.Store(a.ctrl)
	a.unbind = events.Bind(a.bus, a.conditions, a.health, a.ctrl, slog.Default())
	unsubReload := a.bus.Subscribe(func(events.ReloadRequestedEvent) { a.requestReload() })
	unbind := a.unbind
	a.unbind = func() {
		unbind()
		unsubReload()
	}

	if a.cfile != "" {
		w, err := config.Watch(a.cfile, config.DefaultDebounce, slog.Default())
		if err != nil {
			a.logger.Warn("Config watcher not available, reload with SIGHUP only", "error", err)
		} else {
			a.watcher = w
		}
	}
	return nil
}

func (a *App) requestReload() {
	select {
	case a.reload <- struct{}{}:
	default:
	}
}

// Run ticks the controller until ctx is done or a termination signal
// arrives.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.conf.TickInterval)
	defer ticker.Stop()

	a.logger.Info("Control loop started", "tick", a.conf.TickInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// file changes are picked up between ticks, only the latest counts
			if a.watcher != nil {
				if conf, ok := a.watcher.Updates().Take(); ok {
					a.apply(conf, ticker)
				}
			}
			a.ctrl.Tick(a.clock())
		case <-a.reload:
			a.reloadNow(ticker)
		case sig := <-a.ossignal:
			if sig == syscall.SIGHUP {
				a.reloadNow(ticker)
				continue
			}
			a.logger.Info("Received signal, shutting down", "signal", sig)
			return nil
		}
	}
}

func (a *App) reloadNow(ticker *time.Ticker) {
	if a.cfile == "" {
		return
	}
	conf, err := config.ReadConfig(a.cfile)
	if err != nil {
		a.logger.Error("Config reload failed, keeping current config", "error", err)
		return
	}
	a.apply(conf, ticker)
}

// apply switches to conf. Hardware, night dimming and logging settings
// only take effect on restart.
func (a *App) apply(conf *config.Config, ticker *time.Ticker) {
	if conf.Hardware != a.conf.Hardware ||
		conf.NightDim != a.conf.NightDim ||
		conf.Logging != a.conf.Logging {
		a.logger.Warn("Hardware, NightDim and Logging changes need a restart")
	}
	if conf.TickInterval != a.conf.TickInterval {
		ticker.Reset(conf.TickInterval)
	}
	a.ctrl.Reconfigure(conf.Table(), conf.Settings())
	a.conf = conf
}

// Stop releases everything Start acquired. The light ends dark.
func (a *App) Stop() {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("Error stopping config watcher", "error", err)
		}
	}
	if a.unbind != nil {
		a.unbind()
	}
	if a.platform != nil {
		a.platform.Stop()
	}
}
