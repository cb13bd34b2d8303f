// Command bridge wires package ring to a live DAW connection over OSC and a
// live X-Touch control surface over MIDI, following the teacher's
// apps/selah/main.go wiring style: look up ports with a fallback chain,
// construct each side, launch their run loops, then block.
package main

import (
	"fmt"
	"os"

	"github.com/hypebeast/go-osc/osc"
	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/ringsurface/corebridge/config"
	"github.com/ringsurface/corebridge/daw"
	"github.com/ringsurface/corebridge/internal/logging"
	"github.com/ringsurface/corebridge/ring"
	"github.com/ringsurface/corebridge/surface"
	"github.com/ringsurface/corebridge/surface/xtouch"
)

var log = logging.Get(logging.Meta)

func findMidiPorts(cfg config.Config) (drivers.In, drivers.Out, error) {
	var in drivers.In
	var out drivers.Out
	var err error
	for _, name := range cfg.SurfaceInPorts {
		in, err = midi.FindInPort(name)
		if err == nil {
			break
		}
		log.Warn("MIDI in port not found, trying next candidate", "wanted", name)
	}
	if in == nil {
		return nil, nil, fmt.Errorf("no MIDI in port found among %v", cfg.SurfaceInPorts)
	}
	for _, name := range cfg.SurfaceOutPorts {
		out, err = midi.FindOutPort(name)
		if err == nil {
			break
		}
		log.Warn("MIDI out port not found, trying next candidate", "wanted", name)
	}
	if out == nil {
		return nil, nil, fmt.Errorf("no MIDI out port found among %v", cfg.SurfaceOutPorts)
	}
	return in, out, nil
}

func main() {
	defer midi.CloseDriver()

	cfg := config.Default()

	midiIn, midiOut, err := findMidiPorts(cfg)
	if err != nil {
		log.Error("failed to locate MIDI surface ports", "err", err)
		os.Exit(1)
	}

	dispatcher := daw.NewDispatcher()
	client := daw.NewOSCClient(
		osc.NewClient(cfg.RPCSendHost, cfg.RPCSendPort),
		&osc.Server{
			Addr:       fmt.Sprintf("%s:%d", cfg.RPCListenHost, cfg.RPCListenPort),
			Dispatcher: dispatcher,
		},
		dispatcher,
	)
	song := daw.NewSong(client)

	metaServer := &osc.Server{
		Addr:       fmt.Sprintf("%s:%d", cfg.MetaListenHost, cfg.MetaListenPort),
		Dispatcher: logging.RuntimeOSCDispatcher(),
	}

	device := surface.NewMidiDevice(midiIn, midiOut)

	var surf *xtouch.Surface
	mgr := ring.New(song, func(e ring.Event) { surf.Sink(e) })
	surf = xtouch.New(device, mgr)

	if err := mgr.Init(); err != nil {
		log.Error("failed to initialize ring manager", "err", err)
		os.Exit(1)
	}
	if err := mgr.SetupRing(cfg.RingWidth, cfg.RingScenes, cfg.RingTrackOffset, cfg.RingSceneOffset); err != nil {
		log.Error("failed to set up ring", "err", err)
		os.Exit(1)
	}

	go func() {
		if err := client.Run(); err != nil {
			log.Error("DAW RPC transport exited", "err", err)
		}
	}()
	log.Info("DAW RPC transport is running")

	go func() {
		if err := metaServer.ListenAndServe(); err != nil {
			log.Error("meta control listener exited", "err", err)
		}
	}()
	log.Info("meta control listener is running", "addr", metaServer.Addr)

	surf.Run()
	log.Info("X-Touch surface is running")

	select {}
}
