package ring

import (
	"strings"
	"sync"

	"github.com/ringsurface/corebridge/internal/logging"
)

var coreLog = logging.Get(logging.Core)

// SubscriptionGroup is a keyed registry of unsubscribe thunks with
// selective teardown by exact key and by key prefix (spec.md §4.1). Keys
// follow a hierarchical "a:b:c" convention so "everything under track X"
// can be torn down in one call without walking every other track.
//
// Re-adding an existing key first invokes the prior unsubscribe: duplicate
// keys mean a re-subscribe, not two independent listeners.
type SubscriptionGroup struct {
	mu      sync.Mutex
	entries map[string]func()
}

func NewSubscriptionGroup() *SubscriptionGroup {
	return &SubscriptionGroup{entries: make(map[string]func())}
}

// Add registers unsub under key, invoking and discarding any prior
// unsubscribe already stored there. Errors from the prior unsubscribe are
// not possible here (unsubscribe is a plain func()); callers that need to
// react to the unsubscribe action failing should make that the prior
// closure's own concern and log internally.
func (g *SubscriptionGroup) Add(key string, unsub func()) {
	g.mu.Lock()
	prev, had := g.entries[key]
	g.entries[key] = unsub
	g.mu.Unlock()
	if had && prev != nil {
		callUnsub(key, prev)
	}
}

// Remove unsubscribes and drops key. No-op if key is absent.
func (g *SubscriptionGroup) Remove(key string) {
	g.mu.Lock()
	unsub, ok := g.entries[key]
	if ok {
		delete(g.entries, key)
	}
	g.mu.Unlock()
	if ok && unsub != nil {
		callUnsub(key, unsub)
	}
}

// RemoveByPrefix unsubscribes and drops every key beginning with prefix.
// The intended call site is "unsubscribe everything for track X" via
// prefix "track:{id}".
func (g *SubscriptionGroup) RemoveByPrefix(prefix string) {
	g.mu.Lock()
	var matched []string
	for k := range g.entries {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	g.mu.Unlock()
	for _, k := range matched {
		g.Remove(k)
	}
}

// Clear tears down every entry. It snapshots and clears the map first so
// concurrent Has/Size calls observe an empty group immediately, then
// invokes every unsubscribe. Unsubscribes run concurrently since they are
// independent teardown actions with no shared state of their own.
func (g *SubscriptionGroup) Clear() {
	g.mu.Lock()
	snapshot := g.entries
	g.entries = make(map[string]func())
	g.mu.Unlock()

	var wg sync.WaitGroup
	for k, unsub := range snapshot {
		if unsub == nil {
			continue
		}
		wg.Add(1)
		go func(key string, u func()) {
			defer wg.Done()
			callUnsub(key, u)
		}(k, unsub)
	}
	wg.Wait()
}

func (g *SubscriptionGroup) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *SubscriptionGroup) Has(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[key]
	return ok
}

// Keys returns a snapshot of every key currently registered, for test
// assertions (e.g. "ringSubs has keys prefixed track:a and track:b only").
func (g *SubscriptionGroup) Keys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.entries))
	for k := range g.entries {
		out = append(out, k)
	}
	return out
}

func callUnsub(key string, unsub func()) {
	defer func() {
		if r := recover(); r != nil {
			coreLog.Error("unsubscribe panicked", "key", key, "recovered", r)
		}
	}()
	unsub()
}
