package xtouch

import "github.com/ringsurface/corebridge/ring"

// bindCommands wires the channel strips, the PLAY/STOP/RECORD/Click transport
// buttons and the bank buttons to the matching ring.RingManager command
// (spec.md §6's inbound half of the sink contract); REW/FF and the
// Navigation arrows are left unbound. Each binding is
// fire-and-forget: errors are logged, never surfaced back to the hardware,
// since a dropped fader move simply waits for the next push to reconcile.

func (x *Surface) bindCommands() {
	for i, c := range x.Channels {
		ringIndex := i

		c.Mute.Bind(func(pressed bool) error {
			if !pressed {
				return nil
			}
			return x.mgr.ToggleMute(ringIndex)
		})
		c.Solo.Bind(func(pressed bool) error {
			if !pressed {
				return nil
			}
			return x.mgr.ToggleSolo(ringIndex)
		})
		c.Rec.Bind(func(pressed bool) error {
			if !pressed {
				return nil
			}
			return x.mgr.ToggleArm(ringIndex)
		})
		c.Select.Bind(func(pressed bool) error {
			if !pressed {
				return nil
			}
			return x.mgr.SelectTrackInRing(ringIndex)
		})
		c.Fader.Bind(func(raw uint16) error {
			return x.mgr.SetActivePropertyValue(ringIndex, pitchBendToByte(raw))
		})
		c.Encoder.Bind(func(delta int) error {
			const step = 1.0 / 128
			return x.mgr.AdjustActivePropertyValue(ringIndex, float64(delta), step)
		})
		c.EncoderButton.Bind(func(pressed bool) error {
			if !pressed {
				return nil
			}
			return x.mgr.ResetActivePropertyValue(ringIndex)
		})
	}

	x.Transport.PLAY.Bind(func(pressed bool) error {
		if !pressed {
			return nil
		}
		return x.mgr.StartPlaying()
	})
	x.Transport.STOP.Bind(func(pressed bool) error {
		if !pressed {
			return nil
		}
		return x.mgr.StopPlaying()
	})
	x.Transport.RECORD.Bind(func(pressed bool) error {
		if !pressed {
			return nil
		}
		return x.mgr.ToggleRecordMode()
	})
	x.Transport.Click.OnToggle(func(on bool) error {
		return x.mgr.SetClick(on)
	})

	x.Page.BankRight.Bind(func(pressed bool) error {
		if !pressed {
			return nil
		}
		return x.mgr.NavigateRing(ring.NavRight)
	})
	x.Page.BankLeft.Bind(func(pressed bool) error {
		if !pressed {
			return nil
		}
		return x.mgr.NavigateRing(ring.NavLeft)
	})
}

// pitchBendToByte maps a 14-bit fader position down to the [0,255] raw byte
// SetActivePropertyValue expects (spec.md §4.5).
func pitchBendToByte(raw uint16) int {
	return int(raw >> 6)
}
