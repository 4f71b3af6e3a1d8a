package status

// Fixed resolver windows in milliseconds.
const (
	OtaBeginWindow    uint32 = 500
	BootWindow        uint32 = 10000
	SuppressionWindow uint32 = 30000
)

// Options are the setup time knobs of the resolver.
type Options struct {
	Policy      PriorityPolicy
	IdleEnabled bool
}

// History tells the resolver which state the status chain settled on last
// and since when. It is the anchor of the user suppression window.
type History struct {
	Previous StatusState
	Since    uint32
}

// elapsed is the wrap tolerant distance from then to now.
func elapsed(now, then uint32) uint32 {
	return now - then
}

// after reports whether a lies later than b on the wrapping clock.
func after(a, b uint32) bool {
	return int32(a-b) > 0
}

// Resolve returns the single highest priority state for one tick. The
// inputs are read exactly once, callers pass a Snapshot. An OTA failure
// beats the user override under either policy.
func Resolve(in ConditionInputs, opts Options, hist History, now uint32) StatusState {
	if !in.OtaFailed && userWins(in, opts, hist, now) {
		return UserOverride
	}
	return ResolveStatus(in, opts, now)
}

// userWins decides whether the user's manual color preempts the status
// chain. Under UserPriority the user owns the light even before a color
// was set, status is never shown.
func userWins(in ConditionInputs, opts Options, hist History, now uint32) bool {
	if opts.Policy == UserPriority {
		return true
	}
	if !in.UserOverrideActive || hist.Previous != Idle {
		return false
	}
	anchor := hist.Since
	if after(in.UserOverrideSince, anchor) {
		anchor = in.UserOverrideSince
	}
	return elapsed(now, anchor) < SuppressionWindow
}

// ResolveStatus is the status chain without the user override. First match
// wins, an OTA failure is the single highest priority condition.
func ResolveStatus(in ConditionInputs, opts Options, now uint32) StatusState {
	switch {
	case in.OtaFailed:
		return OtaError
	case in.OtaActive:
		if elapsed(now, in.OtaPhaseStart) < OtaBeginWindow {
			return OtaBegin
		}
		return OtaProgress
	case in.ErrorActive:
		return Error
	case in.WarningActive:
		return Warning
	case elapsed(now, in.BootStart) < BootWindow:
		return Booting
	case in.RemoteLinkConnected:
		return RemoteLinkConnected
	case in.LocalNetworkConnected:
		return LocalNetworkConnected
	case opts.IdleEnabled:
		return Idle
	default:
		return NoDisplay
	}
}
