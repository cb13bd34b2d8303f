package dawtesting

import (
	"context"
	"fmt"
	"sync"

	"github.com/ringsurface/corebridge/daw"
)

type key struct{ object, property string }

// FakeClient is an in-memory daw.Client: Get reads from a settable table of
// canned values, Set records writes for assertions, and AddListener lets
// tests simulate DAW push notifications via Push. It has no concept of a
// wire format; it exists purely to drive package ring's logic deterministically.
type FakeClient struct {
	mu        sync.Mutex
	values    map[key]any
	listeners map[key][]func(any)
	writes    []Write
	calls     []Call
	failGet   map[key]error
	failSet   map[key]error
}

type Write struct {
	Object, Property string
	Value             any
}

type Call struct {
	Object, Method string
	Args           []any
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		values:    make(map[key]any),
		listeners: make(map[key][]func(any)),
		failGet:   make(map[key]error),
		failSet:   make(map[key]error),
	}
}

// SetValue seeds the canned value Get(object, property) will return.
func (f *FakeClient) SetValue(object, property string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key{object, property}] = value
}

// FailGet makes the next Get (and every subsequent one) for this property
// return err, simulating an RPC read failure (spec.md §7.1).
func (f *FakeClient) FailGet(object, property string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet[key{object, property}] = err
}

func (f *FakeClient) FailSet(object, property string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key{object, property}] = err
}

func (f *FakeClient) Get(ctx context.Context, object, property string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failGet[key{object, property}]; ok {
		return nil, err
	}
	v, ok := f.values[key{object, property}]
	if !ok {
		return nil, fmt.Errorf("dawtesting: no value seeded for %s/%s", object, property)
	}
	return v, nil
}

func (f *FakeClient) Set(ctx context.Context, object, property string, value any) error {
	f.mu.Lock()
	if err, ok := f.failSet[key{object, property}]; ok {
		f.mu.Unlock()
		return err
	}
	f.writes = append(f.writes, Write{object, property, value})
	f.mu.Unlock()
	return nil
}

func (f *FakeClient) Call(ctx context.Context, object, method string, args ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{object, method, args})
	f.mu.Unlock()
	return nil
}

func (f *FakeClient) AddListener(object, property string, cb func(any)) (daw.Unsubscribe, error) {
	k := key{object, property}
	f.mu.Lock()
	f.listeners[k] = append(f.listeners[k], cb)
	idx := len(f.listeners[k]) - 1
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		cbs := f.listeners[k]
		if idx < len(cbs) {
			cbs[idx] = nil
		}
	}, nil
}

// Push simulates the DAW sending a change notification for object/property,
// updating the canned Get value to match (so a subsequent explicit Get sees
// the pushed value too) and invoking every live listener in registration
// order.
func (f *FakeClient) Push(object, property string, value any) {
	f.mu.Lock()
	k := key{object, property}
	f.values[k] = value
	cbs := append([]func(any){}, f.listeners[k]...)
	f.mu.Unlock()
	for _, cb := range cbs {
		if cb != nil {
			cb(value)
		}
	}
}

func (f *FakeClient) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write{}, f.writes...)
}

func (f *FakeClient) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call{}, f.calls...)
}

func (f *FakeClient) ListenerCount(object, property string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, cb := range f.listeners[key{object, property}] {
		if cb != nil {
			n++
		}
	}
	return n
}
