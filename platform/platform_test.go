package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/statusled/config"
	"lautenbacher.net/statusled/effect"
	"lautenbacher.net/statusled/events"
)

func TestNew_SelectsPlatform(t *testing.T) {
	conf := config.Default().Hardware

	conf.Platform = config.PlatformHeadless
	p, err := New(conf, events.New(), nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &HeadlessPlatform{}, p)

	conf.Platform = config.PlatformTUI
	p, err = New(conf, events.New(), nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &TUIPlatform{}, p)

	conf.Platform = config.PlatformRPi
	conf.GPIOLibrary = config.LibraryRPIO
	p, err = New(conf, events.New(), nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &RaspberryPiPlatform{}, p)

	conf.Platform = "esp"
	_, err = New(conf, events.New(), nil, nil)
	assert.Error(t, err)
}

func TestHeadlessPlatform(t *testing.T) {
	s := NewHeadlessPlatform()
	require.NoError(t, s.Start())
	<-s.Ready()
	s.Sink().Write(effect.RGB(0, 1, 0))
	assert.Equal(t, effect.RGB(0, 1, 0), s.sink.Last())
	s.Stop()
}
