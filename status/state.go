package status

import (
	"fmt"
	"strings"
)

// StatusState is the resolved display state of the light. The numeric
// order is the priority order, a higher value outranks a lower one.
type StatusState int

const (
	// NoDisplay means the output must be fully off. It is only produced
	// when the idle display is disabled.
	NoDisplay StatusState = iota
	Idle
	UserOverride
	RemoteLinkConnected
	LocalNetworkConnected
	Booting
	Warning
	Error
	OtaProgress
	OtaBegin
	OtaError
)

// NumStates is the number of distinct states including NoDisplay.
const NumStates = int(OtaError) + 1

var stateNames = [NumStates]string{
	NoDisplay:             "NoDisplay",
	Idle:                  "Idle",
	UserOverride:          "UserOverride",
	RemoteLinkConnected:   "RemoteLinkConnected",
	LocalNetworkConnected: "LocalNetworkConnected",
	Booting:               "Booting",
	Warning:               "Warning",
	Error:                 "Error",
	OtaProgress:           "OtaProgress",
	OtaBegin:              "OtaBegin",
	OtaError:              "OtaError",
}

func (s StatusState) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("StatusState(%d)", int(s))
}

// Valid reports whether s is one of the declared states.
func (s StatusState) Valid() bool {
	return s >= NoDisplay && s <= OtaError
}

// States returns all states in ascending priority order.
func States() []StatusState {
	ret := make([]StatusState, NumStates)
	for i := range ret {
		ret[i] = StatusState(i)
	}
	return ret
}

// ParseState looks up a state by its name, case insensitive.
func ParseState(name string) (StatusState, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return StatusState(i), nil
		}
	}
	return NoDisplay, fmt.Errorf("unknown status state %q", name)
}

// PriorityPolicy selects whether status indications or the user's manual
// color wins.
type PriorityPolicy int

const (
	StatusPriority PriorityPolicy = iota
	UserPriority
)

func (p PriorityPolicy) String() string {
	if p == UserPriority {
		return "user"
	}
	return "status"
}

// ParsePolicy accepts "status" or "user".
func ParsePolicy(s string) (PriorityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "status", "":
		return StatusPriority, nil
	case "user":
		return UserPriority, nil
	default:
		return StatusPriority, fmt.Errorf("unknown priority mode %q, must be \"status\" or \"user\"", s)
	}
}
