// Package config holds the connection and ring-default parameters needed to
// stand up a bridge instance. The core (package ring) takes none of this
// directly — it is injected with a daw.Client and a sink function, per
// spec.md §9 ("no module-level singletons"). Config exists for the
// cmd/bridge wiring entrypoint and for anything else that needs to turn
// environment variables into that injected pair.
package config

import (
	"os"
	"strconv"
)

// Config is populated from the environment with sensible defaults, mirroring
// the teacher's compiled-in constants (OSC_REAPER_IP, MIDI_IN, ...) but
// resolved at runtime, so the cmd/bridge binary can be redeployed without
// recompiling.
type Config struct {
	// RPC transport: where the DAW-side collaborator listens, and where we
	// listen for its push notifications.
	RPCSendHost   string
	RPCSendPort   int
	RPCListenHost string
	RPCListenPort int

	// Meta control: a separate OSC listener for runtime log-level control
	// (/meta/logging/{category}/level), independent of the RPC transport.
	MetaListenHost string
	MetaListenPort int

	// Surface: MIDI port names to search for, in priority order.
	SurfaceInPorts  []string
	SurfaceOutPorts []string

	// Ring defaults applied at startup via RingManager.SetupRing.
	RingWidth       int
	RingScenes      int
	RingTrackOffset int
	RingSceneOffset int
}

func Default() Config {
	return Config{
		RPCSendHost:     envString("COREBRIDGE_RPC_SEND_HOST", "127.0.0.1"),
		RPCSendPort:     envInt("COREBRIDGE_RPC_SEND_PORT", 9000),
		RPCListenHost:   envString("COREBRIDGE_RPC_LISTEN_HOST", "0.0.0.0"),
		RPCListenPort:   envInt("COREBRIDGE_RPC_LISTEN_PORT", 9001),
		MetaListenHost:  envString("COREBRIDGE_META_LISTEN_HOST", "0.0.0.0"),
		MetaListenPort:  envInt("COREBRIDGE_META_LISTEN_PORT", 9002),
		SurfaceInPorts:  []string{"X-Touch INT", "IAC Driver Bus 1"},
		SurfaceOutPorts: []string{"X-Touch INT", "IAC Driver Bus 2"},
		RingWidth:       8,
		RingScenes:      0,
		RingTrackOffset: 0,
		RingSceneOffset: 0,
	}
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
