package surface

import (
	"testing"

	midi "gitlab.com/gomidi/midi/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsurface/corebridge/surface/surfacetesting"
)

func newTestDevice() (*MidiDevice, *surfacetesting.MockMIDIPort, *surfacetesting.MockMIDIPort) {
	in := surfacetesting.NewMockMIDIPort()
	out := surfacetesting.NewMockMIDIPort()
	return NewMidiDevice(in, out), in, out
}

func TestCCSetSendsControlChange(t *testing.T) {
	d, _, out := newTestDevice()
	require.NoError(t, d.CC(0, 16).Set(64))

	sent := out.GetSentMessages()
	require.Len(t, sent, 1)
	var channel, controller, value uint8
	require.True(t, sent[0].GetControlChange(&channel, &controller, &value))
	assert.Equal(t, uint8(0), channel)
	assert.Equal(t, uint8(16), controller)
	assert.Equal(t, uint8(64), value)
}

func TestCCBindDispatchesOnMatchingMessage(t *testing.T) {
	d, _, _ := newTestDevice()
	var got uint8
	var calls int
	unsub := d.CC(2, 20).Bind(func(value uint8) error {
		got = value
		calls++
		return nil
	})

	d.dispatch(midi.ControlChange(2, 20, 99), 0)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint8(99), got)

	// a CC on a different channel must not fire this binding
	d.dispatch(midi.ControlChange(3, 20, 5), 0)
	assert.Equal(t, 1, calls)

	unsub()
	d.dispatch(midi.ControlChange(2, 20, 1), 0)
	assert.Equal(t, 1, calls, "unsubscribed binding must not fire")
}

func TestNoteOnOffDispatch(t *testing.T) {
	d, _, _ := newTestDevice()
	n := d.Note(0, 60)
	var pressed, released bool
	n.On.Bind(func(uint8) error { pressed = true; return nil })
	n.Off.Bind(func() error { released = true; return nil })

	d.dispatch(midi.NoteOn(0, 60, 127), 0)
	assert.True(t, pressed)
	assert.False(t, released)

	d.dispatch(midi.NoteOff(0, 60), 0)
	assert.True(t, released)
}

func TestPitchBendSetAndDispatch(t *testing.T) {
	d, _, out := newTestDevice()
	require.NoError(t, d.PitchBend(1).Set(0x3000))

	sent := out.GetSentMessages()
	require.Len(t, sent, 1)
	var channel uint8
	var relative int16
	var absolute uint16
	require.True(t, sent[0].GetPitchBend(&channel, &relative, &absolute))
	assert.Equal(t, uint8(1), channel)

	var gotAbs uint16
	d.PitchBend(1).Bind(func(v uint16) error { gotAbs = v; return nil })
	d.dispatch(midi.Pitchbend(1, 1000), 0)
	assert.Equal(t, uint16(0x2000+1000), gotAbs)
}
