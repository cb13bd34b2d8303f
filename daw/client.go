// Package daw models the reactive RPC surface spec.md §6 requires of the
// DAW-side collaborator: per remote object, an async get(prop), set(prop,
// value), and addListener(prop, cb) -> unsubscribe. It is transport-agnostic
// at the Client interface level; transport.go supplies the one concrete
// implementation this module ships, built on OSC the way the teacher's
// devices.OscDevice and devices/reaper.Dispatcher do for a single DAW
// (Reaper) — generalized here to the song/Track/MixerDevice/DeviceParameter/
// Clip object model the spec names.
package daw

import (
	"context"
	"errors"
	"fmt"
)

// Unsubscribe removes a previously registered listener. Calling it more
// than once is a no-op.
type Unsubscribe func()

// ErrWriteFailed wraps a transport-level send failure. Per spec.md §7, the
// core never retries: it logs and moves on, trusting the next push
// notification (if the write in fact landed) to resynchronize the cache.
var ErrWriteFailed = errors.New("daw: write failed")

// ErrReadFailed wraps a transport-level read (request/response) failure.
var ErrReadFailed = errors.New("daw: read failed")

// ErrUnsupportedColorShape is returned by Track.Color when the remote value
// is neither a packed integer nor a {red,green,blue} object — the third
// shape spec.md §9's open question anticipates.
var ErrUnsupportedColorShape = errors.New("daw: unsupported color shape")

// RGB is the normalized form of a DAW track or clip color, regardless of
// which wire shape it arrived in.
type RGB struct {
	R, G, B uint8
}

// Scalar enumerates the value types the DAW RPC moves across the wire,
// mirroring the teacher's devices.BaseTypes constraint.
type Scalar interface {
	~int64 | ~float64 | ~string | ~bool
}

// Client is the reactive RPC surface injected into the core. A concrete
// implementation (OSCClient, in transport.go) owns the actual wire protocol;
// package ring and package daw's object wrappers never talk to the wire
// directly.
type Client interface {
	// Get fetches the current value of object's property. It never returns
	// a value from any local cache — the per-track builder (ring's buildTrack)
	// depends on this being a true round trip (spec.md §4.3).
	Get(ctx context.Context, object, property string) (any, error)

	// Set writes a new value. The call is fire-and-forget from the core's
	// point of view (spec.md §4.5): a returned error means the transport
	// could not even send the request, not that the DAW rejected the value.
	Set(ctx context.Context, object, property string, value any) error

	// AddListener registers cb to run every time object's property value
	// pushes a change notification. The returned Unsubscribe must be safe
	// to call from any goroutine and must not itself block on delivery of
	// in-flight callbacks.
	AddListener(object, property string, cb func(any)) (Unsubscribe, error)

	// Call invokes a method on object (e.g. "fire", "startPlaying") with no
	// return value expected.
	Call(ctx context.Context, object, method string, args ...any) error
}

// ref addresses a single remote object by its path, e.g. "track/3" or
// "song/view". Typed wrappers (Track, Song, MixerDevice, ...) embed a ref
// and add named accessors over it.
type ref struct {
	client Client
	path   string
}

func (r ref) prop(name string) string { return r.path + "/" + name }

func (r ref) get(ctx context.Context, name string) (any, error) {
	v, err := r.client.Get(ctx, r.path, name)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrReadFailed, r.prop(name), err)
	}
	return v, nil
}

func (r ref) set(ctx context.Context, name string, value any) error {
	if err := r.client.Set(ctx, r.path, name, value); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrWriteFailed, r.prop(name), err)
	}
	return nil
}

func (r ref) bind(name string, cb func(any)) (Unsubscribe, error) {
	return r.client.AddListener(r.path, name, cb)
}

// Property is a typed handle on a single scalar property of a remote
// object, generalizing the Bind/Set pattern the teacher's code generator
// produces (cmd/reaperoscgen/templates.go's endpointTemplate) into a single
// generic type instead of one generated struct per property.
type Property[T Scalar] struct {
	ref  ref
	name string
}

func newProperty[T Scalar](r ref, name string) Property[T] {
	return Property[T]{ref: r, name: name}
}

// Get performs an explicit round trip; it never trusts a value cached
// elsewhere (spec.md §4.3: "never trust any cached snapshot").
func (p Property[T]) Get(ctx context.Context) (T, error) {
	var zero T
	v, err := p.ref.get(ctx, p.name)
	if err != nil {
		return zero, err
	}
	t, ok := coerce[T](v)
	if !ok {
		return zero, fmt.Errorf("%w: property %s returned %T, want %T", ErrReadFailed, p.ref.prop(p.name), v, zero)
	}
	return t, nil
}

// Set is a fire-and-forget write; see spec.md §4.5 and §7.
func (p Property[T]) Set(ctx context.Context, value T) error {
	return p.ref.set(ctx, p.name, value)
}

// Bind registers a listener for this property and returns its Unsubscribe.
// Any type mismatch on an incoming push is logged and dropped rather than
// propagated, matching the "absorb malformed input" posture of spec.md §7.
func (p Property[T]) Bind(cb func(T) error) (Unsubscribe, error) {
	return p.ref.bind(p.name, func(v any) {
		t, ok := coerce[T](v)
		if !ok {
			rpcInLog.Warn("dropping malformed property push", "property", p.ref.prop(p.name), "value", fmt.Sprintf("%v", v))
			return
		}
		if err := cb(t); err != nil {
			rpcInLog.Error("listener callback failed", "property", p.ref.prop(p.name), "err", err)
		}
	})
}

func coerce[T Scalar](v any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int64:
		switch n := v.(type) {
		case int64:
			return any(n).(T), true
		case int32:
			return any(int64(n)).(T), true
		case int:
			return any(int64(n)).(T), true
		case float64:
			return any(int64(n)).(T), true
		case float32:
			return any(int64(n)).(T), true
		}
	case float64:
		switch n := v.(type) {
		case float64:
			return any(n).(T), true
		case float32:
			return any(float64(n)).(T), true
		case int64:
			return any(float64(n)).(T), true
		case int32:
			return any(float64(n)).(T), true
		case int:
			return any(float64(n)).(T), true
		}
	case string:
		if s, ok := v.(string); ok {
			return any(s).(T), true
		}
	case bool:
		switch b := v.(type) {
		case bool:
			return any(b).(T), true
		case int32:
			return any(b != 0).(T), true
		case int64:
			return any(b != 0).(T), true
		}
	}
	return zero, false
}
