package daw

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ringsurface/corebridge/internal/logging"
)

var rpcInLog = logging.Get(logging.RPCIn)

// Dispatcher routes incoming OSC messages from the DAW-side collaborator to
// registered handlers by wildcard address pattern, and supports removing a
// single handler — the teacher's devices/reaper.Dispatcher only supported
// appending handlers for the lifetime of the process, which is insufficient
// here: SubscriptionGroup (package ring) must be able to unsubscribe a
// single track's listeners without tearing down every other handler on the
// same address pattern.
type Dispatcher struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []handlerEntry
}

type handlerEntry struct {
	id      uint64
	pattern string
	fn      func(*osc.Message)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AddMsgHandler registers fn to run for every message whose address matches
// pattern (see matchAddr) and returns a function that removes it.
func (d *Dispatcher) AddMsgHandler(pattern string, fn func(*osc.Message)) func() {
	d.mu.Lock()
	id := atomic.AddUint64(&d.nextID, 1)
	d.handlers = append(d.handlers, handlerEntry{id: id, pattern: pattern, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, h := range d.handlers {
			if h.id == id {
				d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
				return
			}
		}
	}
}

// snapshot returns a copy of the current handler list so Dispatch never
// holds the lock while invoking callbacks, which may themselves register or
// remove handlers (e.g. a listener that rebuilds subscriptions on the spot).
func (d *Dispatcher) snapshot() []handlerEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]handlerEntry, len(d.handlers))
	copy(out, d.handlers)
	return out
}

// Dispatch implements osc.Dispatcher. Bundles are dispatched immediately in
// declaration order; this module does not schedule on the bundle's timetag
// since the core never batches or time-aligns (spec Non-goals).
func (d *Dispatcher) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		d.dispatchMessage(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			d.dispatchMessage(m)
		}
		for _, b := range p.Bundles {
			d.Dispatch(b)
		}
	}
}

func (d *Dispatcher) dispatchMessage(msg *osc.Message) {
	for _, h := range d.snapshot() {
		match, captures := matchAddr(h.pattern, msg.Address)
		if !match {
			continue
		}
		m := msg
		if len(captures) > 0 {
			clone := *msg
			clone.Arguments = append(append([]any{}, msg.Arguments...), toAnySlice(captures)...)
			m = &clone
		}
		rpcInLog.Debug("dispatching rpc message", "pattern", h.pattern, "address", msg.Address)
		h.fn(m)
	}
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// matchAddr checks whether messageAddr matches the path pattern. Each "@" in
// path is a single-segment wildcard whose matched text is returned, in
// order, as captures. A trailing "*" segment matches any (possibly zero)
// number of additional trailing segments without capturing them.
func matchAddr(path, messageAddr string) (bool, []string) {
	pathSegs := strings.Split(strings.Trim(path, "/"), "/")
	addrSegs := strings.Split(strings.Trim(messageAddr, "/"), "/")

	endsWithStar := len(pathSegs) > 0 && pathSegs[len(pathSegs)-1] == "*"
	matchLen := len(pathSegs)
	if endsWithStar {
		matchLen--
		if len(addrSegs) < matchLen {
			return false, nil
		}
	} else if len(pathSegs) != len(addrSegs) {
		return false, nil
	}

	var captures []string
	for i := 0; i < matchLen; i++ {
		seg := pathSegs[i]
		if seg == "@" {
			captures = append(captures, addrSegs[i])
			continue
		}
		if seg != addrSegs[i] {
			return false, nil
		}
	}
	return true, captures
}
