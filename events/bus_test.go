package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"lautenbacher.net/statusled/controller"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/status"
)

const waitFor = time.Second
const pollEvery = 5 * time.Millisecond

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan RemoteLinkEvent, 1)
	unsub := bus.Subscribe(func(e RemoteLinkEvent) { received <- e })
	defer unsub()

	bus.Publish(RemoteLinkEvent{Connected: true})
	select {
	case e := <-received:
		assert.True(t, e.Connected)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan OtaErrorEvent, 1)
	unsub := bus.Subscribe(func(e OtaErrorEvent) { received <- e })

	bus.Publish(OtaErrorEvent{Reason: "first"})
	<-received
	unsub()

	bus.Publish(OtaErrorEvent{Reason: "second"})
	select {
	case <-received:
		t.Fatal("should not receive after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_OtaEventsKeepOrder(t *testing.T) {
	bus := New()
	got := make(chan uint32, 64)
	defer bus.Subscribe(func(e OtaEvent) { got <- e.Event.Type() })()

	var want []uint32
	for i := 0; i < 10; i++ {
		for _, ev := range []Event{OtaBeginEvent{}, OtaProgressEvent{Percent: i}, OtaErrorEvent{}, OtaEndEvent{}} {
			bus.Publish(ev)
			want = append(want, ev.Type())
		}
	}
	for i, typ := range want {
		select {
		case g := <-got:
			assert.Equal(t, typ, g, "event %d", i)
		case <-time.After(waitFor):
			t.Fatalf("timeout waiting for event %d", i)
		}
	}
}

func TestBind_OtaErrorAfterBegin(t *testing.T) {
	conditions := status.NewConditions(func() uint32 { return 0 })
	health := &status.HealthBits{}
	ctrl := controller.New(conditions, health, nopWriter{}, effect.DefaultTable(250, 1500),
		controller.Settings{Brightness: 1}, nil)
	bus := New()
	defer Bind(bus, conditions, health, ctrl, nil)()

	// begin published right before error must never win
	for i := 0; i < 20; i++ {
		bus.Publish(OtaBeginEvent{})
		bus.Publish(OtaErrorEvent{Reason: "checksum"})
	}
	bus.Publish(OtaProgressEvent{Percent: 100})
	assert.Eventually(t, func() bool { return conditions.Snapshot(health).OtaActive }, waitFor, pollEvery)
	assert.True(t, conditions.Snapshot(health).OtaFailed, "progress keeps the failure of the preceding error")
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(int) {})
	assert.NotNil(t, unsub)
	assert.NotPanics(t, unsub)
}

func TestEventTypesAreDistinct(t *testing.T) {
	all := []Event{
		OtaBeginEvent{}, OtaProgressEvent{}, OtaEndEvent{}, OtaErrorEvent{},
		RemoteLinkEvent{}, LocalNetworkEvent{}, HealthEvent{},
		UserColorEvent{}, UserClearEvent{}, ReloadRequestedEvent{}, OtaEvent{},
	}
	seen := map[uint32]bool{}
	for _, e := range all {
		assert.False(t, seen[e.Type()], "duplicate type %d", e.Type())
		seen[e.Type()] = true
	}
}

type nopWriter struct{}

func (nopWriter) Write(effect.Color) {}

func TestBind(t *testing.T) {
	var now uint32 = 1000
	conditions := status.NewConditions(func() uint32 { return now })
	health := &status.HealthBits{}
	ctrl := controller.New(conditions, health, nopWriter{}, effect.DefaultTable(250, 1500),
		controller.Settings{Brightness: 1}, nil)

	bus := New()
	unbind := Bind(bus, conditions, health, ctrl, nil)
	defer unbind()

	snapshot := func() status.ConditionInputs { return conditions.Snapshot(health) }

	bus.Publish(OtaBeginEvent{})
	assert.Eventually(t, func() bool { return snapshot().OtaActive }, waitFor, pollEvery)
	assert.Equal(t, uint32(1000), snapshot().OtaPhaseStart)

	bus.Publish(OtaErrorEvent{Reason: "checksum"})
	assert.Eventually(t, func() bool { return snapshot().OtaFailed }, waitFor, pollEvery)
	assert.False(t, snapshot().OtaActive)

	bus.Publish(RemoteLinkEvent{Connected: true})
	assert.Eventually(t, func() bool { return snapshot().RemoteLinkConnected }, waitFor, pollEvery)

	bus.Publish(LocalNetworkEvent{Connected: true})
	assert.Eventually(t, func() bool { return snapshot().LocalNetworkConnected }, waitFor, pollEvery)

	bus.Publish(HealthEvent{Warning: true})
	assert.Eventually(t, health.WarningActive, waitFor, pollEvery)
	assert.False(t, health.ErrorActive())

	bus.Publish(UserColorEvent{Color: effect.RGB(0, 0, 1), Brightness: 0.5})
	assert.Eventually(t, func() bool { return snapshot().UserOverrideActive }, waitFor, pollEvery)
	c, b := ctrl.UserColor()
	assert.Equal(t, effect.RGB(0, 0, 1), c)
	assert.Equal(t, 0.5, b)

	bus.Publish(UserClearEvent{})
	assert.Eventually(t, func() bool { return !snapshot().UserOverrideActive }, waitFor, pollEvery)
}
