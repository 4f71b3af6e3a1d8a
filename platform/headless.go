package platform

import (
	"lautenbacher.net/statusled/logging"
	"lautenbacher.net/statusled/output"
)

// HeadlessPlatform has no output device. Level changes go to the debug
// log.
type HeadlessPlatform struct {
	sink      *output.RGB
	readyChan chan bool
}

func NewHeadlessPlatform() *HeadlessPlatform {
	logger := logging.For("headless")
	channel := func(name string) output.Actuator {
		return output.ActuatorFunc(func(level float64) {
			logger.Debug("Level", "channel", name, "level", level)
		})
	}
	return &HeadlessPlatform{
		sink:      output.NewRGB(channel("red"), channel("green"), channel("blue")),
		readyChan: make(chan bool),
	}
}

func (s *HeadlessPlatform) Start() error {
	close(s.readyChan)
	return nil
}

func (s *HeadlessPlatform) Stop() {}

func (s *HeadlessPlatform) Sink() output.Writer {
	return s.sink
}

func (s *HeadlessPlatform) Ready() <-chan bool {
	return s.readyChan
}
