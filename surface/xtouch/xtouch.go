// Package xtouch maps a Behringer X-Touch (or X-Touch Extender) control
// surface onto package ring's Sink/command contract: eight channel strips
// mirror eight ring residents, and Transport/Page map onto transport
// control and ring navigation.
package xtouch

import (
	"fmt"
	"math"
	"sync"
	"time"

	midi "gitlab.com/gomidi/midi/v2"

	"github.com/ringsurface/corebridge/internal/logging"
	"github.com/ringsurface/corebridge/ring"
	"github.com/ringsurface/corebridge/surface"
)

var surfaceLog = logging.Get(logging.SurfaceOut)

const (
	handshakePingMessage     = "\xF0\x00\x20\x32\x58\x54\x00\xF7"
	handshakeResponseMessage = "\xF0\x00\x00\x66\x14\x00\xF7"

	pingInterval    = 2 * time.Second
	responseTimeout = 4 * time.Second
)

// Fader is a motorized fader reporting its position as 14-bit pitch bend.
type Fader struct {
	d         *surface.MidiDevice
	channelNo uint8
}

func (f *Fader) Bind(callback func(uint16) error) {
	f.d.PitchBend(f.channelNo).Bind(callback)
}

func (f *Fader) Set(val uint16) error {
	return f.d.PitchBend(f.channelNo).Set(val)
}

type ScribbleColor int

const (
	ScribbleOff    ScribbleColor = 0x00
	ScribbleRed    ScribbleColor = 0x01
	ScribbleGreen  ScribbleColor = 0x02
	ScribbleYellow ScribbleColor = 0x03
	ScribbleBlue   ScribbleColor = 0x04
	ScribblePink   ScribbleColor = 0x05
	ScribbleCyan   ScribbleColor = 0x06
	ScribbleWhite  ScribbleColor = 0x07
)

var scribbleHeader = []byte{0x00, 0x00, 0x66, 0x58}

// Scribble writes the two-line OLED strip above a channel's fader.
type Scribble struct {
	d       *surface.MidiDevice
	channel uint8
}

// Send writes color plus up to 7 characters on each of the top and bottom
// lines; longer strings are truncated to fit the physical display.
func (s *Scribble) Send(color ScribbleColor, top, bottom string) error {
	const lineWidth = 7
	b := make([]byte, 0, len(scribbleHeader)+2+2*lineWidth)
	b = append(b, scribbleHeader...)
	b = append(b, s.channel, byte(color))
	b = append(b, padOrTruncate(top, lineWidth)...)
	b = append(b, padOrTruncate(bottom, lineWidth)...)
	return s.d.SysEx.Set(midi.SysEx(b))
}

func padOrTruncate(s string, width int) []byte {
	b := []byte(s)
	if len(b) > width {
		return b[:width]
	}
	out := make([]byte, width)
	copy(out, b)
	for i := len(b); i < width; i++ {
		out[i] = ' '
	}
	return out
}

// Meter drives a channel's LED level meter via aftertouch on channel 0, the
// encoding the X-Touch protocol uses for the 8 physical meters.
type Meter struct {
	d       *surface.MidiDevice
	channel uint8
}

func (m *Meter) Send(level float64) error {
	if level < 0 || level > 1.0 {
		return fmt.Errorf("meter level %v out of range [0,1]", level)
	}
	return m.d.Aftertouch(0).Set(m.channel*16 + uint8(math.Round(8*level)))
}

// XTouch wraps a generic MIDI surface with the X-Touch SysEx handshake
// protocol: the host must answer the unit's ping within responseTimeout or
// the unit falls back to standalone mode.
type XTouch struct {
	base *surface.MidiDevice

	handshakeMu       sync.RWMutex
	handshakeActive   bool
	lastResponse      time.Time
	handshakeStopChan chan struct{}
}

func (x *XTouch) startHandshake() {
	x.handshakeMu.Lock()
	if x.handshakeActive {
		x.handshakeMu.Unlock()
		return
	}
	x.handshakeStopChan = make(chan struct{})
	x.handshakeActive = true
	x.lastResponse = time.Now()
	x.handshakeMu.Unlock()

	x.base.SysEx.Match([]byte(handshakeResponseMessage)).Bind(func([]byte) error {
		x.handshakeMu.Lock()
		x.lastResponse = time.Now()
		x.handshakeMu.Unlock()
		return nil
	})

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := x.base.SysEx.Set([]byte(handshakePingMessage)); err != nil {
					surfaceLog.Error("failed to send handshake ping", "err", err)
				}
				x.handshakeMu.RLock()
				stale := time.Since(x.lastResponse) > responseTimeout
				x.handshakeMu.RUnlock()
				if stale {
					surfaceLog.Warn("no handshake response within timeout; giving up")
					return
				}
			case <-x.handshakeStopChan:
				return
			}
		}
	}()
}

func (x *XTouch) stopHandshake() {
	x.handshakeMu.Lock()
	defer x.handshakeMu.Unlock()
	if !x.handshakeActive {
		return
	}
	close(x.handshakeStopChan)
	x.handshakeActive = false
}

// Run starts the handshake and the underlying MIDI dispatch loop.
func (x *XTouch) Run() {
	x.startHandshake()
	x.base.Run()
}

func (x *XTouch) Stop() {
	x.stopHandshake()
}

func (x *XTouch) newFader(channelNo uint8) *Fader {
	return &Fader{d: x.base, channelNo: channelNo}
}

func (x *XTouch) newEncoder(channelNo, id uint8) *Encoder {
	return newEncoder(x.base, channelNo, id)
}

func (x *XTouch) newScribble(channel uint8) *Scribble {
	return &Scribble{d: x.base, channel: channel}
}

func (x *XTouch) newMeter(channel uint8) *Meter {
	return &Meter{d: x.base, channel: channel}
}

func (x *XTouch) newButton(channel, key uint8) *Button {
	return newButton(x.base, channel, key)
}

func (x *XTouch) newToggleButton(channel, key uint8, callbacks ...func(bool) error) *ToggleButton {
	return newToggleButton(x.base, channel, key, callbacks...)
}

// ChannelStrip is everything physically replicated eight times on the unit,
// one per ring resident.
type ChannelStrip struct {
	Encoder       *Encoder
	EncoderButton *Button
	Scribble      *Scribble
	Rec           *Button
	Solo          *Button
	Mute          *Button
	Select        *Button
	Meter         *Meter
	Fader         *Fader
}

func (x *XTouch) newChannelStrip(id uint8) *ChannelStrip {
	return &ChannelStrip{
		Encoder:       x.newEncoder(0, id),
		EncoderButton: x.newButton(0, id+16),
		Scribble:      x.newScribble(id),
		Rec:           x.newButton(0, id),
		Solo:          x.newButton(0, id+8),
		Mute:          x.newButton(0, id+16),
		Select:        x.newButton(0, id+24),
		Meter:         x.newMeter(id),
		Fader:         x.newFader(id),
	}
}

type Transport struct {
	Click  *ToggleButton
	REW    *Button
	FF     *Button
	STOP   *Button
	PLAY   *Button
	RECORD *Button
}

func (x *XTouch) newTransport() *Transport {
	return &Transport{
		Click:  x.newToggleButton(0, 89),
		REW:    x.newButton(0, 91),
		FF:     x.newButton(0, 92),
		STOP:   x.newButton(0, 93),
		PLAY:   x.newButton(0, 94),
		RECORD: x.newButton(0, 95),
	}
}

// Page holds the two bank buttons, which shift the ring window left/right
// by one track through RingManager.NavigateRing.
type Page struct {
	BankLeft  *Button
	BankRight *Button
}

func (x *XTouch) newPage() *Page {
	return &Page{
		BankLeft:  x.newButton(0, 46),
		BankRight: x.newButton(0, 47),
	}
}

// Navigation holds the four arrow buttons. None of them is bound to a
// RingManager command; pressing them changes neither the track offset nor
// the scene offset.
type Navigation struct {
	Up    *Button
	Down  *Button
	Left  *Button
	Right *Button
}

func (x *XTouch) newNavigation() *Navigation {
	return &Navigation{
		Up:    x.newButton(0, 96),
		Down:  x.newButton(0, 97),
		Left:  x.newButton(0, 98),
		Right: x.newButton(0, 99),
	}
}

// Surface is a fully assembled X-Touch (8 channel strips) wired to a
// ring.RingManager: New builds both the outbound Sink (spec.md §6) and the
// inbound command bindings in one step.
type Surface struct {
	*XTouch

	Channels   []*ChannelStrip
	Transport  *Transport
	Page       *Page
	Navigation *Navigation

	mgr *ring.RingManager
}

const numChannels = 8

// New builds a Surface over dev (an already-constructed surface.MidiDevice)
// and wires it bidirectionally to mgr: mgr's Sink should be set to the
// returned Surface's Sink method, and the Surface's hardware callbacks call
// back into mgr's command API.
func New(dev *surface.MidiDevice, mgr *ring.RingManager) *Surface {
	x := &Surface{
		XTouch: &XTouch{base: dev},
		mgr:    mgr,
	}
	for i := 0; i < numChannels; i++ {
		x.Channels = append(x.Channels, x.newChannelStrip(uint8(i)))
	}
	x.Transport = x.newTransport()
	x.Page = x.newPage()
	x.Navigation = x.newNavigation()

	x.bindCommands()
	return x
}
