package xtouch

import (
	"github.com/ringsurface/corebridge/ring"
)

// Sink implements ring.Sink: each ring.Event is rendered onto the channel
// strip at its RingIndex (spec.md §6). Events for a ring index outside
// [0, numChannels) are dropped rather than panicking, since the window
// width is configured independently of the physical channel count.
func (x *Surface) Sink(e ring.Event) {
	switch e.Kind {
	case ring.KindMute:
		x.withChannel(e.Mute.RingIndex, func(c *ChannelStrip) {
			logSurfaceErr(c.Mute.SetLED(boolToLED(e.Mute.Value)))
		})
	case ring.KindSolo:
		x.withChannel(e.Solo.RingIndex, func(c *ChannelStrip) {
			logSurfaceErr(c.Solo.SetLED(boolToLED(e.Solo.Value)))
		})
	case ring.KindArm:
		x.withChannel(e.Arm.RingIndex, func(c *ChannelStrip) {
			logSurfaceErr(c.Rec.SetLED(boolToLED(e.Arm.Value)))
		})
	case ring.KindVolume:
		x.withChannel(e.Volume.RingIndex, func(c *ChannelStrip) {
			logSurfaceErr(c.Fader.Set(normalizedToPitchBend(e.Volume.Normalized)))
		})
	case ring.KindPanning:
		x.withChannel(e.Panning.RingIndex, func(c *ChannelStrip) {
			logSurfaceErr(c.Encoder.SetLEDRingRelative(e.Panning.Normalized))
		})
	case ring.KindSend:
		x.withChannel(e.Send.RingIndex, func(c *ChannelStrip) {
			logSurfaceErr(c.Encoder.SetLEDRingRelative(e.Send.Normalized))
		})
	case ring.KindInfo:
		x.withChannel(e.Info.RingIndex, func(c *ChannelStrip) {
			logSurfaceErr(c.Scribble.Send(colorToScribble(e.Info.Color), e.Info.Name, ""))
		})
	case ring.KindSelected:
		x.setSelectLEDs(e.Selected.RingIndex)
	case ring.KindPlayingClip:
		// no dedicated display for the playing clip on this model; the
		// scribble strip stays on the track name.
	case ring.KindParam:
		x.withChannel(0, func(c *ChannelStrip) {
			logSurfaceErr(c.Encoder.SetLEDRingRelative(e.Param.Normalized))
		})
	case ring.KindTransport:
		logSurfaceErr(x.Transport.Click.SetToggle(e.Transport.Recording))
	}
}

func (x *Surface) withChannel(ringIndex int, fn func(*ChannelStrip)) {
	if ringIndex < 0 || ringIndex >= len(x.Channels) {
		return
	}
	fn(x.Channels[ringIndex])
}

func (x *Surface) setSelectLEDs(selectedRingIndex int) {
	for i, c := range x.Channels {
		logSurfaceErr(c.Select.SetLED(boolToLED(i == selectedRingIndex)))
	}
}

func normalizedToPitchBend(v float64) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(v * 0x3FFF)
}

func colorToScribble(c ring.RGB) ScribbleColor {
	// Pick the nearest of the unit's 8 scribble colors by dominant channel;
	// the hardware has no true-color display.
	const lo, hi = 80, 128
	switch {
	case c.R > hi && c.G < lo && c.B < lo:
		return ScribbleRed
	case c.G > hi && c.R < lo && c.B < lo:
		return ScribbleGreen
	case c.B > hi && c.R < lo && c.G < lo:
		return ScribbleBlue
	case c.R > hi && c.G > hi && c.B < lo:
		return ScribbleYellow
	case c.R > hi && c.B > hi && c.G < lo:
		return ScribblePink
	case c.G > hi && c.B > hi && c.R < lo:
		return ScribbleCyan
	case c.R > hi && c.G > hi && c.B > hi:
		return ScribbleWhite
	default:
		return ScribbleOff
	}
}

func logSurfaceErr(err error) {
	if err != nil {
		surfaceLog.Error("failed to write to surface", "err", err)
	}
}
