package events

import "lautenbacher.net/statusled/effect"

// Event type constants for kelindar/event.
const (
	TypeOtaBegin uint32 = iota + 1
	TypeOtaProgress
	TypeOtaEnd
	TypeOtaError
	TypeRemoteLink
	TypeLocalNetwork
	TypeHealth
	TypeUserColor
	TypeUserClear
	TypeReloadRequested
	TypeOta
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// OtaBeginEvent starts a firmware update and clears a previous failure.
type OtaBeginEvent struct{}

func (e OtaBeginEvent) Type() uint32 { return TypeOtaBegin }

// OtaProgressEvent reports that an update is still running.
type OtaProgressEvent struct {
	Percent int
}

func (e OtaProgressEvent) Type() uint32 { return TypeOtaProgress }

// OtaEndEvent reports a finished update.
type OtaEndEvent struct{}

func (e OtaEndEvent) Type() uint32 { return TypeOtaEnd }

// OtaErrorEvent reports a failed update. The failure stays visible until
// the next OtaBeginEvent or OtaEndEvent.
type OtaErrorEvent struct {
	Reason string
}

func (e OtaErrorEvent) Type() uint32 { return TypeOtaError }

// OtaEvent carries one of the four OTA events. The bus publishes every OTA
// event in this envelope, so a single subscriber sees begin, progress, end
// and error in publish order.
type OtaEvent struct {
	Event Event
}

func (e OtaEvent) Type() uint32 { return TypeOta }

type RemoteLinkEvent struct {
	Connected bool
}

func (e RemoteLinkEvent) Type() uint32 { return TypeRemoteLink }

type LocalNetworkEvent struct {
	Connected bool
}

func (e LocalNetworkEvent) Type() uint32 { return TypeLocalNetwork }

// HealthEvent carries the complete application health flags.
type HealthEvent struct {
	Error   bool
	Warning bool
}

func (e HealthEvent) Type() uint32 { return TypeHealth }

// UserColorEvent is a manual color request.
type UserColorEvent struct {
	Color      effect.Color
	Brightness float64
}

func (e UserColorEvent) Type() uint32 { return TypeUserColor }

type UserClearEvent struct{}

func (e UserClearEvent) Type() uint32 { return TypeUserClear }

// ReloadRequestedEvent asks the application to re-read its configuration.
type ReloadRequestedEvent struct{}

func (e ReloadRequestedEvent) Type() uint32 { return TypeReloadRequested }
