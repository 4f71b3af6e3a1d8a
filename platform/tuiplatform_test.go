package platform

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/statusled/controller"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/events"
	"lautenbacher.net/statusled/status"
)

type fakeView struct {
	state   controller.RenderState
	history []controller.Transition
}

func (v *fakeView) State() controller.RenderState      { return v.state }
func (v *fakeView) History() []controller.Transition { return v.history }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		var zero T
		return zero
	}
}

func TestTUIKeys_Health(t *testing.T) {
	bus := events.New()
	got := make(chan events.HealthEvent, 4)
	defer bus.Subscribe(func(e events.HealthEvent) { got <- e })()

	s := NewTUIPlatform(bus, nil, make(chan os.Signal, 1))
	require.True(t, s.handleRune('e'))
	assert.Equal(t, events.HealthEvent{Error: true}, receive(t, got))
	require.True(t, s.handleRune('w'))
	assert.Equal(t, events.HealthEvent{Error: true, Warning: true}, receive(t, got))
	require.True(t, s.handleRune('e'))
	assert.Equal(t, events.HealthEvent{Warning: true}, receive(t, got))
}

func TestTUIKeys_OtaProgressCounts(t *testing.T) {
	bus := events.New()
	got := make(chan events.OtaProgressEvent, 4)
	defer bus.Subscribe(func(e events.OtaProgressEvent) { got <- e })()

	s := NewTUIPlatform(bus, nil, make(chan os.Signal, 1))
	s.handleRune('p')
	s.handleRune('p')
	assert.Equal(t, 10, receive(t, got).Percent)
	assert.Equal(t, 20, receive(t, got).Percent)
}

func TestTUIKeys_UserColorCycles(t *testing.T) {
	bus := events.New()
	got := make(chan events.UserColorEvent, len(userPalette)+1)
	defer bus.Subscribe(func(e events.UserColorEvent) { got <- e })()

	s := NewTUIPlatform(bus, nil, make(chan os.Signal, 1))
	for range userPalette {
		s.handleRune('u')
	}
	s.handleRune('u')
	for _, c := range userPalette {
		assert.Equal(t, c, receive(t, got).Color)
	}
	assert.Equal(t, userPalette[0], receive(t, got).Color)
}

func TestTUIKeys_Quit(t *testing.T) {
	sig := make(chan os.Signal, 1)
	s := NewTUIPlatform(events.New(), nil, sig)
	s.handleRune('q')
	assert.Equal(t, os.Interrupt, <-sig)
	assert.False(t, s.handleRune('#'))
}

func TestTUILegend_Sorted(t *testing.T) {
	s := NewTUIPlatform(events.New(), nil, nil)
	legend := s.legend()
	assert.Less(t, strings.Index(legend, "U[-] clear"), strings.Index(legend, "X[-] OTA error"))
	assert.Less(t, strings.Index(legend, "c[-] reload"), strings.Index(legend, "e[-] toggle error"))
	assert.Contains(t, legend, "q[-] quit")
}

func TestColorTag(t *testing.T) {
	assert.Equal(t, "[#000000]", colorTag(effect.Black))
	assert.Equal(t, "[#ff0000]", colorTag(effect.RGB(0.2, 0, 0)))
	assert.Equal(t, "[#ff8000]", colorTag(effect.RGB(1, 0.5, 0)))
}

func TestStatusText(t *testing.T) {
	view := &fakeView{
		state: controller.RenderState{Current: status.Warning, Previous: status.Idle, Status: status.Warning},
		history: []controller.Transition{
			{From: status.NoDisplay, To: status.Booting, At: 0},
			{From: status.Booting, To: status.Idle, At: 10000},
		},
	}
	s := NewTUIPlatform(events.New(), view, nil)
	text := s.statusText(effect.RGB(1, 0.5, 0))
	assert.Contains(t, text, "R 1.000  G 0.500  B 0.000")
	assert.Contains(t, text, "Warning")

	history := s.historyText()
	assert.Less(t, strings.Index(history, "Booting → Idle"), strings.Index(history, "NoDisplay → Booting"),
		"newest transition first")
}

func TestTUIWriteBeforeStart(t *testing.T) {
	s := NewTUIPlatform(events.New(), nil, nil)
	assert.NotPanics(t, func() { s.Sink().Write(effect.RGB(1, 0, 0)) })
	assert.Equal(t, effect.RGB(1, 0, 0), s.levels)
}
