// Package logging provides per-category structured loggers for corebridge.
//
// Every subsystem pulls its logger via Get(category) instead of holding a
// package-level *slog.Logger, so log verbosity can be tuned per concern
// (e.g. silence rpc_out chatter while debugging surface_in) without
// recompiling.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"
)

type Category string

const (
	Meta      Category = "meta"
	Core      Category = "core"
	RPCIn     Category = "rpc_in"
	RPCOut    Category = "rpc_out"
	SurfaceIn Category = "surface_in"
	SurfaceOut Category = "surface_out"
)

func parseCategory(s string) (Category, bool) {
	switch Category(s) {
	case Meta, Core, RPCIn, RPCOut, SurfaceIn, SurfaceOut:
		return Category(s), true
	default:
		return "", false
	}
}

var (
	mu               sync.RWMutex
	loggers          = map[Category]*slog.Logger{}
	categoryLevels   = map[Category]*slog.LevelVar{}
	defaultLevels    = map[Category]slog.Level{
		Meta:       slog.LevelInfo,
		Core:       slog.LevelInfo,
		RPCIn:      slog.LevelWarn,
		RPCOut:     slog.LevelWarn,
		SurfaceIn:  slog.LevelWarn,
		SurfaceOut: slog.LevelWarn,
	}
)

// Get returns the logger for category, creating it (with its default level)
// on first use. The returned logger always carries a "category" attribute.
func Get(category Category) *slog.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	lvl, ok := categoryLevels[category]
	if !ok {
		lvl = new(slog.LevelVar)
		lvl.Set(defaultLevels[category])
		categoryLevels[category] = lvl
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	l := slog.New(handler).With("category", string(category))
	loggers[category] = l
	return l
}

// SetCategoryLevel adjusts the runtime level for category. It is safe to
// call concurrently with Get.
func SetCategoryLevel(category Category, level slog.Level) {
	Get(category) // ensure the LevelVar exists
	mu.Lock()
	defer mu.Unlock()
	categoryLevels[category].Set(level)
}

// RuntimeOSCDispatcher returns an osc.Dispatcher that handles messages of
// the form /meta/logging/{category}/level (integer argument, slog.Level
// values) and adjusts the corresponding category's verbosity. It is
// intentionally independent of the DAW RPC dispatcher in package daw: log
// control must keep working even if the RPC dispatcher itself is broken.
func RuntimeOSCDispatcher() osc.Dispatcher {
	return runtimeDispatcher{}
}

type runtimeDispatcher struct{}

func (runtimeDispatcher) Dispatch(packet osc.Packet) {
	msg, ok := packet.(*osc.Message)
	if !ok {
		return
	}
	handleSetCategoryLevel(msg)
}

func handleSetCategoryLevel(msg *osc.Message) {
	segs := strings.Split(strings.TrimPrefix(msg.Address, "/"), "/")
	if len(segs) != 4 || segs[0] != "meta" || segs[1] != "logging" || segs[3] != "level" {
		return
	}
	cat, ok := parseCategory(segs[2])
	if !ok {
		Get(Meta).Warn("unrecognized log category in runtime control message", "category", segs[2])
		return
	}
	if len(msg.Arguments) == 0 {
		return
	}
	level, ok := msg.Arguments[0].(int32)
	if !ok {
		Get(Meta).Error("invalid level type in runtime control message",
			"expected", "int32", "got", fmt.Sprintf("%T", msg.Arguments[0]))
		return
	}
	Get(Meta).Info("adjusting category level via runtime control", "category", cat, "level", level)
	SetCategoryLevel(cat, slog.Level(level))
}
