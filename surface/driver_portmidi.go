//go:build portmidi

// This file provides a second MIDI backend for hosts without CoreMIDI/rtmidi
// support, selected at build time rather than rtmididrv — mirroring the
// teacher's getMidiPorts() fallback-by-name approach, but at the driver
// level instead of the port-name level.
package surface

import (
	"fmt"
	"sync"

	"github.com/rakyll/portmidi"
	"gitlab.com/gomidi/midi/v2/drivers"
)

func init() {
	if err := portmidi.Initialize(); err != nil {
		surfaceOutLog.Error("failed to initialize portmidi", "err", err)
	}
}

// portMidiPort adapts a *portmidi.Stream to drivers.In / drivers.Out.
type portMidiPort struct {
	mu     sync.Mutex
	id     portmidi.DeviceID
	name   string
	stream *portmidi.Stream
	isOpen bool
	isIn   bool
}

func (p *portMidiPort) Number() int { return int(p.id) }

func (p *portMidiPort) String() string { return p.name }

func (p *portMidiPort) Underlying() interface{} { return p.stream }

func (p *portMidiPort) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isOpen
}

func (p *portMidiPort) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isOpen {
		return nil
	}
	var stream *portmidi.Stream
	var err error
	if p.isIn {
		stream, err = portmidi.NewInputStream(p.id, 1024)
	} else {
		stream, err = portmidi.NewOutputStream(p.id, 1024, 0)
	}
	if err != nil {
		return fmt.Errorf("opening portmidi stream %q: %w", p.name, err)
	}
	p.stream = stream
	p.isOpen = true
	return nil
}

func (p *portMidiPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isOpen {
		return nil
	}
	err := p.stream.Close()
	p.isOpen = false
	return err
}

func (p *portMidiPort) Send(data []byte) error {
	if len(data) < 2 || len(data) > 3 {
		return fmt.Errorf("portmidi output only supports 2-3 byte channel messages, got %d bytes", len(data))
	}
	status := int64(data[0])
	var d1, d2 int64
	d1 = int64(data[1])
	if len(data) == 3 {
		d2 = int64(data[2])
	}
	return p.stream.WriteShort(status, d1, d2)
}

// Listen polls the input stream on its own goroutine until stopped,
// delivering raw event bytes to onMsg.
func (p *portMidiPort) Listen(onMsg func(msg []byte, milliseconds int32), config drivers.ListenConfig) (func(), error) {
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			events, err := p.stream.Read(1024)
			if err != nil {
				surfaceOutLog.Error("portmidi read failed", "err", err)
				return
			}
			for _, ev := range events {
				onMsg(shortMsgBytes(ev), int32(ev.Timestamp))
			}
		}
	}()
	return func() { close(stop) }, nil
}

func shortMsgBytes(ev portmidi.Event) []byte {
	status := byte(ev.Status)
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return []byte{status, byte(ev.Data1)}
	default:
		return []byte{status, byte(ev.Data1), byte(ev.Data2)}
	}
}

// FindPortMidiInPort and FindPortMidiOutPort search the portmidi device
// list by name, the same contract as midi.FindInPort/midi.FindOutPort.
func FindPortMidiInPort(name string) (drivers.In, error) {
	id, err := findDevice(name, true)
	if err != nil {
		return nil, err
	}
	return &portMidiPort{id: id, name: name, isIn: true}, nil
}

func FindPortMidiOutPort(name string) (drivers.Out, error) {
	id, err := findDevice(name, false)
	if err != nil {
		return nil, err
	}
	return &portMidiPort{id: id, name: name, isIn: false}, nil
}

func findDevice(name string, wantIn bool) (portmidi.DeviceID, error) {
	count := portmidi.CountDevices()
	for i := 0; i < count; i++ {
		id := portmidi.DeviceID(i)
		info := portmidi.Info(id)
		if info == nil || info.Name != name {
			continue
		}
		if wantIn && info.IsInputAvailable {
			return id, nil
		}
		if !wantIn && info.IsOutputAvailable {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no portmidi device named %q (input=%v)", name, wantIn)
}
