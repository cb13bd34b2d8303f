package daw

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ringsurface/corebridge/internal/logging"
)

var rpcOutLog = logging.Get(logging.RPCOut)

// OscSender is the subset of *osc.Client this package depends on, so tests
// can substitute a fake without a real socket —
// grounded on the teacher's devices.OscDevice.Client field.
type OscSender interface {
	Send(msg *osc.Message) error
}

// OscServer is the subset of *osc.Server this package depends on.
type OscServer interface {
	ListenAndServe() error
}

// OSCClient is the one Client implementation this module ships: a
// request/response-over-push-notification transport, generalizing the
// teacher's devices.OscDevice from one hardcoded DAW (Reaper, over a fixed
// address grammar) to the object/property addressing spec.md §6 describes.
//
// Address convention: a property lives at "/{object}/{property}"; writes
// and push notifications both use that address; an explicit Get sends a
// request to "/{object}/{property}/get" and waits (bounded by ctx) for the
// next push on "/{object}/{property}".
type OSCClient struct {
	sender     OscSender
	server     OscServer
	dispatcher *Dispatcher

	mu      sync.Mutex
	waiters map[string][]chan any
}

func NewOSCClient(sender OscSender, server OscServer, dispatcher *Dispatcher) *OSCClient {
	c := &OSCClient{
		sender:     sender,
		server:     server,
		dispatcher: dispatcher,
		waiters:    make(map[string][]chan any),
	}
	return c
}

// Run starts the embedded OSC server. It blocks; callers typically run it in
// a goroutine, matching the teacher's devices.OscDevice.Run / XTouch.Run
// convention.
func (c *OSCClient) Run() error {
	return c.server.ListenAndServe()
}

func addr(object, property string) string {
	return "/" + object + "/" + property
}

func (c *OSCClient) Get(ctx context.Context, object, property string) (any, error) {
	a := addr(object, property)
	ch := make(chan any, 1)

	c.mu.Lock()
	c.waiters[a] = append(c.waiters[a], ch)
	c.mu.Unlock()

	defer c.removeWaiter(a, ch)

	// Watch the address for the duration of the request, so the reply
	// reaches the waiter even when no AddListener subscription covers it.
	unwatch := c.dispatcher.AddMsgHandler(a, func(msg *osc.Message) {
		c.deliverToWaiters(a, firstArg(msg))
	})
	defer unwatch()

	rpcOutLog.Debug("requesting value", "address", a)
	if err := c.sender.Send(osc.NewMessage(a + "/get")); err != nil {
		return nil, fmt.Errorf("sending get request to %s: %w", a, err)
	}

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s: %w", a, ctx.Err())
	}
}

func (c *OSCClient) removeWaiter(a string, ch chan any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	waiters := c.waiters[a]
	for i, w := range waiters {
		if w == ch {
			c.waiters[a] = append(waiters[:i], waiters[i+1:]...)
			return
		}
	}
}

func (c *OSCClient) Set(ctx context.Context, object, property string, value any) error {
	a := addr(object, property)
	rpcOutLog.Debug("sending value", "address", a, "value", value)
	if err := c.sender.Send(osc.NewMessage(a, value)); err != nil {
		return fmt.Errorf("sending %s: %w", a, err)
	}
	return nil
}

func (c *OSCClient) Call(ctx context.Context, object, method string, args ...any) error {
	a := addr(object, method)
	rpcOutLog.Debug("calling method", "address", a, "args", args)
	if err := c.sender.Send(osc.NewMessage(a, args...)); err != nil {
		return fmt.Errorf("calling %s: %w", a, err)
	}
	return nil
}

func (c *OSCClient) AddListener(object, property string, cb func(any)) (Unsubscribe, error) {
	a := addr(object, property)
	unsub := c.dispatcher.AddMsgHandler(a, func(msg *osc.Message) {
		v := firstArg(msg)
		c.deliverToWaiters(a, v)
		cb(v)
	})
	var once int32
	return func() {
		if atomic.CompareAndSwapInt32(&once, 0, 1) {
			unsub()
		}
	}, nil
}

func (c *OSCClient) deliverToWaiters(a string, v any) {
	c.mu.Lock()
	waiters := c.waiters[a]
	c.waiters[a] = nil
	c.mu.Unlock()
	for _, ch := range waiters {
		select {
		case ch <- v:
		default:
		}
	}
}

func firstArg(msg *osc.Message) any {
	if len(msg.Arguments) == 0 {
		return nil
	}
	return msg.Arguments[0]
}
