package events

import (
	"log/slog"

	"lautenbacher.net/statusled/controller"
	"lautenbacher.net/statusled/status"
)

// Bind routes condition events into conditions, health and ctrl. Each
// event type updates exactly one condition. The returned function removes
// every subscription made here.
func Bind(bus *Bus, conditions *status.Conditions, health *status.HealthBits,
	ctrl *controller.Controller, logger *slog.Logger) func() {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "events")

	unsubs := []func(){
		// a single subscriber keeps the OTA lifecycle in publish order
		bus.Subscribe(func(e OtaEvent) {
			switch ota := e.Event.(type) {
			case OtaBeginEvent:
				logger.Info("OTA begin")
				conditions.OnOtaBegin()
			case OtaProgressEvent:
				logger.Debug("OTA progress", "percent", ota.Percent)
				conditions.OnOtaProgress()
			case OtaEndEvent:
				logger.Info("OTA end")
				conditions.OnOtaEnd()
			case OtaErrorEvent:
				logger.Warn("OTA failed", "reason", ota.Reason)
				conditions.OnOtaError()
			}
		}),
		bus.Subscribe(func(e RemoteLinkEvent) {
			logger.Info("Remote link", "connected", e.Connected)
			conditions.OnRemoteLinkConnected(e.Connected)
		}),
		bus.Subscribe(func(e LocalNetworkEvent) {
			logger.Info("Local network", "connected", e.Connected)
			conditions.OnLocalNetworkConnected(e.Connected)
		}),
		bus.Subscribe(func(e HealthEvent) {
			logger.Info("Health changed", "error", e.Error, "warning", e.Warning)
			health.SetError(e.Error)
			health.SetWarning(e.Warning)
		}),
		bus.Subscribe(func(e UserColorEvent) {
			ctrl.SetUserColor(e.Color, e.Brightness)
		}),
		bus.Subscribe(func(UserClearEvent) {
			ctrl.ClearUserColor()
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
