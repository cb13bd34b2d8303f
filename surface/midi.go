// Package surface is the hardware half of the bridge: a generic MIDI
// control-surface device (this file) plus per-model mappings (surface/xtouch)
// that turn a ring.Event stream into MIDI output and turn physical control
// movement into ring.RingManager command calls, per spec.md §6's
// sendMessage(record) sink contract.
package surface

import (
	"fmt"
	"strings"
	"sync"
	"time"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/ringsurface/corebridge/internal/logging"
)

var surfaceInLog = logging.Get(logging.SurfaceIn)
var surfaceOutLog = logging.Get(logging.SurfaceOut)

// MidiDevice is a generic control surface reachable over a pair of MIDI
// ports: incoming Control Change, Pitch Bend, Note On/Off, Aftertouch, and
// SysEx messages are dispatched to whichever endpoints were bound to them;
// outgoing messages are written directly through the matching Set call.
type MidiDevice struct {
	inPort  drivers.In
	outPort drivers.Out

	SysEx *sysEx

	mu         sync.RWMutex
	cc         map[*cC]struct{}
	pitchBend  map[*pitchBend]struct{}
	noteOn     map[*noteOn]struct{}
	noteOff    map[*noteOff]struct{}
	aftertouch map[*afterTouch]struct{}
	sysex      map[*sysExMatch]struct{}
}

func NewMidiDevice(inPort drivers.In, outPort drivers.Out) *MidiDevice {
	d := &MidiDevice{
		inPort:     inPort,
		outPort:    outPort,
		cc:         make(map[*cC]struct{}),
		pitchBend:  make(map[*pitchBend]struct{}),
		noteOn:     make(map[*noteOn]struct{}),
		noteOff:    make(map[*noteOff]struct{}),
		aftertouch: make(map[*afterTouch]struct{}),
		sysex:      make(map[*sysExMatch]struct{}),
	}
	d.SysEx = &sysEx{device: d}
	return d
}

func (f *MidiDevice) CC(channel, controller uint8) *cC {
	return &cC{device: f, channel: channel, controller: controller}
}

func (f *MidiDevice) PitchBend(channel uint8) *pitchBend {
	return &pitchBend{device: f, channel: channel}
}

func (f *MidiDevice) Note(channel, key uint8) *note {
	return &note{
		On:  &noteOn{device: f, channel: channel, key: key},
		Off: &noteOff{device: f, channel: channel, key: key},
	}
}

func (f *MidiDevice) Aftertouch(channel uint8) *afterTouch {
	return &afterTouch{device: f, channel: channel}
}

type cC struct {
	device     *MidiDevice
	channel    uint8
	controller uint8
	callback   func(value uint8) error
}

func (ep *cC) Bind(callback func(value uint8) error) func() {
	ep.device.mu.Lock()
	ep.device.cc[ep] = struct{}{}
	ep.device.mu.Unlock()
	ep.callback = callback
	return func() {
		ep.device.mu.Lock()
		delete(ep.device.cc, ep)
		ep.device.mu.Unlock()
	}
}

// callback is set by Bind; kept as a plain field (not passed through the map
// key) so the same *cC can be re-bound without losing its address identity.
var _ = fmt.Sprintf

func (ep *cC) Set(value uint8) error {
	surfaceOutLog.Debug("sending control change", "channel", ep.channel, "controller", ep.controller, "value", value)
	return ep.device.outPort.Send(midi.ControlChange(ep.channel, ep.controller, value))
}

type pitchBend struct {
	device   *MidiDevice
	channel  uint8
	callback func(uint16) error
}

func (ep *pitchBend) Bind(callback func(uint16) error) func() {
	ep.device.mu.Lock()
	ep.device.pitchBend[ep] = struct{}{}
	ep.device.mu.Unlock()
	ep.callback = callback
	return func() {
		ep.device.mu.Lock()
		delete(ep.device.pitchBend, ep)
		ep.device.mu.Unlock()
	}
}

func (ep *pitchBend) Set(value uint16) error {
	surfaceOutLog.Debug("sending pitch bend", "channel", ep.channel, "value", value)
	return ep.device.outPort.Send(midi.Pitchbend(ep.channel, int16(value)-0x2000))
}

type note struct {
	On  *noteOn
	Off *noteOff
}

type noteOn struct {
	device   *MidiDevice
	channel  uint8
	key      uint8
	callback func(uint8) error
}

func (ep *noteOn) Bind(callback func(uint8) error) func() {
	ep.device.mu.Lock()
	ep.device.noteOn[ep] = struct{}{}
	ep.device.mu.Unlock()
	ep.callback = callback
	return func() {
		ep.device.mu.Lock()
		delete(ep.device.noteOn, ep)
		ep.device.mu.Unlock()
	}
}

func (ep *noteOn) Set(velocity uint8) error {
	surfaceOutLog.Debug("sending note on", "channel", ep.channel, "key", ep.key, "velocity", velocity)
	return ep.device.outPort.Send(midi.NoteOn(ep.channel, ep.key, velocity))
}

type noteOff struct {
	device   *MidiDevice
	channel  uint8
	key      uint8
	callback func() error
}

func (ep *noteOff) Bind(callback func() error) func() {
	ep.device.mu.Lock()
	ep.device.noteOff[ep] = struct{}{}
	ep.device.mu.Unlock()
	ep.callback = callback
	return func() {
		ep.device.mu.Lock()
		delete(ep.device.noteOff, ep)
		ep.device.mu.Unlock()
	}
}

func (ep *noteOff) Set() error {
	surfaceOutLog.Debug("sending note off", "channel", ep.channel, "key", ep.key)
	return ep.device.outPort.Send(midi.NoteOff(ep.channel, ep.key))
}

type afterTouch struct {
	device   *MidiDevice
	channel  uint8
	callback func(uint8) error
}

func (ep *afterTouch) Bind(callback func(uint8) error) func() {
	ep.device.mu.Lock()
	ep.device.aftertouch[ep] = struct{}{}
	ep.device.mu.Unlock()
	ep.callback = callback
	return func() {
		ep.device.mu.Lock()
		delete(ep.device.aftertouch, ep)
		ep.device.mu.Unlock()
	}
}

func (ep *afterTouch) Set(value uint8) error {
	surfaceOutLog.Debug("sending aftertouch", "channel", ep.channel, "value", value)
	return ep.device.outPort.Send(midi.AfterTouch(ep.channel, value))
}

type sysEx struct {
	device *MidiDevice
}

func (ep *sysEx) Match(pattern []byte) *sysExMatch {
	return &sysExMatch{pattern: pattern, device: ep.device}
}

func (ep *sysEx) Set(value []byte) error {
	surfaceOutLog.Debug("sending sysex", "bytes", byteSliceToHexLiteral(value))
	return ep.device.outPort.Send(value)
}

type sysExMatch struct {
	pattern  []byte
	device   *MidiDevice
	callback func([]byte) error
}

func (ep *sysExMatch) Bind(callback func([]byte) error) func() {
	ep.device.mu.Lock()
	ep.device.sysex[ep] = struct{}{}
	ep.device.mu.Unlock()
	ep.callback = callback
	return func() {
		ep.device.mu.Lock()
		delete(ep.device.sysex, ep)
		ep.device.mu.Unlock()
	}
}

func byteSliceToHexLiteral(b []byte) string {
	var sb strings.Builder
	sb.WriteString("[]byte{")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02x", v)
	}
	sb.WriteString("}")
	return sb.String()
}

// Run opens both ports and starts dispatching incoming messages in a new
// goroutine; it returns immediately.
func (d *MidiDevice) Run() {
	surfaceInLog.Info("starting MIDI surface", "inPort", d.inPort.String(), "outPort", d.outPort.String())
	go d.run()
}

func (d *MidiDevice) run() {
	if err := d.inPort.Open(); err != nil {
		surfaceInLog.Error("failed to open MIDI in port", "err", err)
		return
	}
	defer d.inPort.Close()
	if err := d.outPort.Open(); err != nil {
		surfaceInLog.Error("failed to open MIDI out port", "err", err)
		return
	}
	defer d.outPort.Close()

	stop, err := midi.ListenTo(d.inPort, d.dispatch, midi.UseSysEx())
	if err != nil {
		surfaceInLog.Error("failed to listen on MIDI in port", "err", err)
		return
	}
	defer stop()

	// block for the lifetime of the process; nothing stops this loop once
	// it is listening.
	select {}
}

func (d *MidiDevice) dispatch(msg midi.Message, timestampms int32) {
	switch msg.Type() {
	case midi.ControlChangeMsg:
		var channel, control, value uint8
		if !msg.GetControlChange(&channel, &control, &value) {
			surfaceInLog.Error("failed to parse control change message")
			return
		}
		surfaceInLog.Debug("received control change", "channel", channel, "control", control, "value", value)
		d.mu.RLock()
		for cc := range d.cc {
			if cc.channel == channel && cc.controller == control && cc.callback != nil {
				if err := cc.callback(value); err != nil {
					surfaceInLog.Error("control change callback failed", "err", err)
				}
			}
		}
		d.mu.RUnlock()
	case midi.PitchBendMsg:
		var channel uint8
		var relative int16
		var absolute uint16
		if !msg.GetPitchBend(&channel, &relative, &absolute) {
			surfaceInLog.Error("failed to parse pitch bend message")
			return
		}
		surfaceInLog.Debug("received pitch bend", "channel", channel, "absolute", absolute)
		d.mu.RLock()
		for pb := range d.pitchBend {
			if pb.channel == channel && pb.callback != nil {
				if err := pb.callback(absolute); err != nil {
					surfaceInLog.Error("pitch bend callback failed", "err", err)
				}
			}
		}
		d.mu.RUnlock()
	case midi.NoteOnMsg:
		var channel, key, velocity uint8
		if !msg.GetNoteOn(&channel, &key, &velocity) {
			surfaceInLog.Error("failed to parse note on message")
			return
		}
		surfaceInLog.Debug("received note on", "channel", channel, "key", key, "velocity", velocity)
		d.mu.RLock()
		for n := range d.noteOn {
			if n.key == key && n.channel == channel && n.callback != nil {
				if err := n.callback(velocity); err != nil {
					surfaceInLog.Error("note on callback failed", "err", err)
				}
			}
		}
		d.mu.RUnlock()
	case midi.NoteOffMsg:
		var channel, key, velocity uint8
		if !msg.GetNoteOff(&channel, &key, &velocity) {
			surfaceInLog.Error("failed to parse note off message")
			return
		}
		surfaceInLog.Debug("received note off", "channel", channel, "key", key)
		d.mu.RLock()
		for n := range d.noteOff {
			if n.key == key && n.channel == channel && n.callback != nil {
				if err := n.callback(); err != nil {
					surfaceInLog.Error("note off callback failed", "err", err)
				}
			}
		}
		d.mu.RUnlock()
	case midi.AfterTouchMsg:
		var channel, pressure uint8
		if !msg.GetAfterTouch(&channel, &pressure) {
			surfaceInLog.Error("failed to parse aftertouch message")
			return
		}
		d.mu.RLock()
		for at := range d.aftertouch {
			if at.channel == channel && at.callback != nil {
				if err := at.callback(pressure); err != nil {
					surfaceInLog.Error("aftertouch callback failed", "err", err)
				}
			}
		}
		d.mu.RUnlock()
	case midi.SysExMsg:
		var data []byte
		if !msg.GetSysEx(&data) {
			surfaceInLog.Error("failed to parse sysex message")
			return
		}
		surfaceInLog.Debug("received sysex", "length", len(data))
		d.mu.RLock()
		for sx := range d.sysex {
			if sx.callback == nil || len(data) < len(sx.pattern) {
				continue
			}
			matched := true
			for i, b := range sx.pattern {
				if data[i] != b {
					matched = false
					break
				}
			}
			if matched {
				if err := sx.callback(data); err != nil {
					surfaceInLog.Error("sysex callback failed", "err", err)
				}
			}
		}
		d.mu.RUnlock()
	}
}

var _ = time.Second
