package xtouch

import (
	"github.com/ringsurface/corebridge/surface"
)

type LEDState uint8

const (
	LEDOff LEDState = iota
	LEDOn
	LEDFlashing
)

// Button is a single note-on/note-off control with an LED, addressed by
// MIDI channel and key. The teacher's draft assumed a BindNote/PathNote API
// that package surface's MidiDevice never defines; Button is built directly
// on MidiDevice.Note instead, which already splits on/off into two
// endpoints with their own Bind.
type Button struct {
	d *surface.MidiDevice

	channel uint8
	key     uint8

	isPressed bool
}

func newButton(d *surface.MidiDevice, channel, key uint8) *Button {
	b := &Button{d: d, channel: channel, key: key}
	n := d.Note(channel, key)
	n.On.Bind(func(velocity uint8) error {
		b.isPressed = true
		return nil
	})
	n.Off.Bind(func() error {
		b.isPressed = false
		return nil
	})
	return b
}

// Bind runs callback whenever the button transitions; true on press, false
// on release.
func (b *Button) Bind(callback func(pressed bool) error) {
	n := b.d.Note(b.channel, b.key)
	n.On.Bind(func(uint8) error { return callback(true) })
	n.Off.Bind(func() error { return callback(false) })
}

func (b *Button) IsPressed() bool {
	return b.isPressed
}

func (b *Button) SetLED(state LEDState) error {
	var velocity uint8
	switch state {
	case LEDOff:
		velocity = 0
	case LEDFlashing:
		velocity = 1
	case LEDOn:
		velocity = 127
	}
	return b.d.Note(b.channel, b.key).On.Set(velocity)
}

// ToggleButton layers a latch on top of Button: each press flips the toggle
// and fires callbacks with the new state, rather than the raw press/release.
type ToggleButton struct {
	b         *Button
	isToggled bool
	callbacks []func(bool) error
}

func newToggleButton(d *surface.MidiDevice, channel, key uint8, callbacks ...func(bool) error) *ToggleButton {
	t := &ToggleButton{b: newButton(d, channel, key), callbacks: callbacks}
	t.b.Bind(func(pressed bool) error {
		if !pressed {
			return nil
		}
		t.isToggled = !t.isToggled
		for _, cb := range t.callbacks {
			if err := cb(t.isToggled); err != nil {
				return err
			}
		}
		return nil
	})
	return t
}

// OnToggle registers an additional callback to run, with the new state,
// whenever the button is pressed.
func (t *ToggleButton) OnToggle(callback func(bool) error) {
	t.callbacks = append(t.callbacks, callback)
}

func (t *ToggleButton) SetToggle(val bool) error {
	t.isToggled = val
	return t.b.SetLED(boolToLED(val))
}

func (t *ToggleButton) IsToggled() bool {
	return t.isToggled
}

func boolToLED(v bool) LEDState {
	if v {
		return LEDOn
	}
	return LEDOff
}
