package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/statusled/config"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/events"
	"lautenbacher.net/statusled/output"
	pl "lautenbacher.net/statusled/platform"
	"lautenbacher.net/statusled/status"
)

type MockPlatform struct {
	mu      sync.Mutex
	writes  []effect.Color
	ready   chan bool
	started bool
	stopped bool
	gotView pl.StatusView
	gotBus  *events.Bus
}

func newMockPlatform() *MockPlatform {
	return &MockPlatform{ready: make(chan bool)}
}

func (m *MockPlatform) Start() error {
	m.started = true
	close(m.ready)
	return nil
}

func (m *MockPlatform) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockPlatform) Sink() output.Writer { return m }

func (m *MockPlatform) Ready() <-chan bool { return m.ready }

func (m *MockPlatform) Write(levels effect.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, levels)
}

func (m *MockPlatform) last() (effect.Color, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writes) == 0 {
		return effect.Color{}, false
	}
	return m.writes[len(m.writes)-1], true
}

const appConfig = `
Brightness: 0.5
TickInterval: 5ms
Hardware:
  Platform: "headless"
`

func writeConfig(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, config.CONFILE)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

type testApp struct {
	app      *App
	platform *MockPlatform
	ossignal chan os.Signal
	now      *atomic.Uint32
	cancel   context.CancelFunc
	done     chan error
}

func startTestApp(t *testing.T, cfile string) *testApp {
	t.Helper()
	conf, err := config.ReadConfig(cfile)
	require.NoError(t, err)

	now := &atomic.Uint32{}
	ossignal := make(chan os.Signal, 1)
	app := NewApp(cfile, conf, now.Load, ossignal)
	mock := newMockPlatform()
	require.NoError(t, app.Start(func(_ config.HardwareConfig, bus *events.Bus, view pl.StatusView, _ chan os.Signal) (pl.Platform, error) {
		mock.gotView = view
		mock.gotBus = bus
		return mock, nil
	}))

	// Past the boot window the idle color shows.
	now.Store(status.BootWindow + 1000)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	ta := &testApp{app: app, platform: mock, ossignal: ossignal, now: now, cancel: cancel, done: done}
	t.Cleanup(func() {
		cancel()
		<-done
		app.Stop()
	})
	return ta
}

func (ta *testApp) greenLevel() float64 {
	c, _ := ta.platform.last()
	return c.G
}

func TestAppShowsIdle(t *testing.T) {
	ta := startTestApp(t, writeConfig(t, t.TempDir(), appConfig))

	assert.True(t, ta.platform.started)
	assert.Same(t, ta.app.Bus(), ta.platform.gotBus)
	assert.Eventually(t, func() bool {
		return ta.app.State().Current == status.Idle
	}, 2*time.Second, 5*time.Millisecond)
	// Green 1.0 scaled by the global brightness twice.
	assert.Eventually(t, func() bool {
		return ta.greenLevel() > 0.249 && ta.greenLevel() < 0.251
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, ta.app.State(), ta.platform.gotView.State())
}

func TestAppFollowsEvents(t *testing.T) {
	ta := startTestApp(t, writeConfig(t, t.TempDir(), appConfig))

	ta.app.Bus().Publish(events.OtaErrorEvent{Reason: "test"})
	assert.Eventually(t, func() bool {
		return ta.app.State().Current == status.OtaError
	}, 2*time.Second, 5*time.Millisecond)

	ta.app.Bus().Publish(events.OtaBeginEvent{})
	assert.Eventually(t, func() bool {
		return ta.app.State().Current == status.OtaBegin
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAppReloadOnSIGHUP(t *testing.T) {
	dir := t.TempDir()
	cfile := writeConfig(t, dir, appConfig)
	ta := startTestApp(t, cfile)
	require.Eventually(t, func() bool { return ta.greenLevel() > 0.2 }, 2*time.Second, 5*time.Millisecond)

	writeConfig(t, dir, strings.Replace(appConfig, "Brightness: 0.5", "Brightness: 1.0", 1))
	ta.ossignal <- syscall.SIGHUP
	assert.Eventually(t, func() bool { return ta.greenLevel() == 1.0 }, 2*time.Second, 5*time.Millisecond)
}

func TestAppReloadRequestedEvent(t *testing.T) {
	dir := t.TempDir()
	cfile := writeConfig(t, dir, appConfig)
	ta := startTestApp(t, cfile)
	require.Eventually(t, func() bool { return ta.greenLevel() > 0.2 }, 2*time.Second, 5*time.Millisecond)

	writeConfig(t, dir, strings.Replace(appConfig, "Brightness: 0.5", "Brightness: 0.1", 1))
	ta.app.Bus().Publish(events.ReloadRequestedEvent{})
	assert.Eventually(t, func() bool {
		g := ta.greenLevel()
		return g > 0.0099 && g < 0.0101
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAppKeepsConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	cfile := writeConfig(t, dir, appConfig)
	ta := startTestApp(t, cfile)
	require.Eventually(t, func() bool { return ta.greenLevel() > 0.2 }, 2*time.Second, 5*time.Millisecond)

	writeConfig(t, dir, strings.Replace(appConfig, "Brightness: 0.5", "Brightness: 5", 1))
	ta.ossignal <- syscall.SIGHUP
	time.Sleep(100 * time.Millisecond)
	assert.InDelta(t, 0.25, ta.greenLevel(), 1e-9)
}

func TestAppStopsOnInterrupt(t *testing.T) {
	ta := startTestApp(t, writeConfig(t, t.TempDir(), appConfig))
	ta.ossignal <- os.Interrupt
	select {
	case err := <-ta.done:
		assert.NoError(t, err)
		ta.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after interrupt")
	}
}

func TestStatesCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"states"})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, status.NumStates)
	assert.True(t, strings.HasSuffix(lines[0], "OtaError"))
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "NoDisplay"))
}

func TestStatesCommand_Named(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"states", "idle", "OtaBegin", "warning"})
	require.NoError(t, root.Execute())
	assert.Equal(t, " 9 OtaBegin\n 6 Warning\n 1 Idle\n", out.String())

	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"states", "sparkle"})
	assert.Error(t, root.Execute())
}

func TestValidateCommand(t *testing.T) {
	cfile := writeConfig(t, t.TempDir(), appConfig)
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"validate", "--config", cfile})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "brightness 0.50, priority status")
	assert.Contains(t, out.String(), "Error                  blink")
	assert.Contains(t, out.String(), "period 250ms on 150ms")
	assert.Contains(t, out.String(), "UserOverride           off")
}

func TestValidateCommand_Invalid(t *testing.T) {
	cfile := writeConfig(t, t.TempDir(), "Brightness: 3\n")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"validate", "-c", cfile})
	assert.Error(t, root.Execute())
}
