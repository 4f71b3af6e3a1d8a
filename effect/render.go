package effect

import "math"

// Frame is the result of rendering one tick.
type Frame struct {
	Levels Color
	// On is the phase flag carried to the next tick. For pulses it only
	// tells whether the pulse is in its brighter half.
	On bool
	// Edge is set when On differs from the previous tick's flag.
	Edge bool
}

// Render computes the output levels of d at time now. wasOn is the phase
// flag returned by the previous tick for the same state.
func Render(d Descriptor, now uint32, global float64, wasOn bool) Frame {
	var f Frame
	if !d.Enabled {
		f = Frame{Levels: Black}
	} else {
		scale := global
		if d.HasBrightness {
			scale = d.Brightness
		}
		switch d.Kind {
		case Blink:
			f = renderBlink(d, now, scale, global)
		case Pulse:
			f = renderPulse(d, now, scale, global)
		default:
			f = renderSolid(d, scale, global)
		}
	}
	f.Edge = f.On != wasOn
	return f
}

// The global brightness is applied on top of the per state scale, so a
// state without override is dimmed by global squared.
func renderSolid(d Descriptor, scale, global float64) Frame {
	return Frame{Levels: d.Color.Scale(scale * global), On: true}
}

func renderBlink(d Descriptor, now uint32, scale, global float64) Frame {
	period, onTime := d.blinkTiming()
	if now%period < onTime {
		return Frame{Levels: d.Color.Scale(scale * global), On: true}
	}
	return Frame{Levels: Black}
}

func renderPulse(d Descriptor, now uint32, scale, global float64) Frame {
	factor := PulseFactor(now)
	return Frame{Levels: d.Color.Scale(scale * global * factor), On: factor > 0.5}
}

// PulseFactor is the sine envelope of the pulse effect in [0,1].
func PulseFactor(now uint32) float64 {
	phase := float64(now%PulsePeriod) / float64(PulsePeriod)
	return (math.Sin(phase*2*math.Pi) + 1) / 2
}
