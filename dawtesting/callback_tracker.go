// Package dawtesting provides an in-memory fake of the daw.Client RPC
// surface plus a CallbackTracker for asserting listener call counts and
// ordering, grounded on the teacher's devices/devicestesting package.
package dawtesting

import (
	"fmt"
	"sync"
	"testing"
)

// CallbackTracker records how many times, and in what order, registered
// callbacks fire — used to assert the end-to-end scenarios in spec.md §8
// without depending on timing.
type CallbackTracker struct {
	t                 *testing.T
	mu                sync.Mutex
	totalCalls        int
	callsByHandle     map[int]int
	callOrder         []int
	descriptions      map[int]string
	nextID            int
	registrationOrder []int
}

func NewCallbackTracker(t *testing.T) *CallbackTracker {
	return &CallbackTracker{
		t:             t,
		callsByHandle: make(map[int]int),
		descriptions:  make(map[int]string),
	}
}

func (ct *CallbackTracker) RegisterCallback(description string) int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	handle := ct.nextID
	ct.nextID++
	ct.descriptions[handle] = description
	ct.callsByHandle[handle] = 0
	ct.registrationOrder = append(ct.registrationOrder, handle)
	return handle
}

func (ct *CallbackTracker) recordCall(handle int) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.totalCalls++
	ct.callsByHandle[handle]++
	ct.callOrder = append(ct.callOrder, handle)
}

// Wrap wraps a push-notification callback so the tracker observes every
// invocation before delegating to it.
func Wrap(tracker *CallbackTracker, handle int, cb func(any)) func(any) {
	return func(v any) {
		tracker.recordCall(handle)
		cb(v)
	}
}

func (ct *CallbackTracker) AssertCalled(n int, msgAndArgs ...any) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.totalCalls != n {
		ct.t.Errorf("%s: expected %d total calls, got %d", formatMessage(msgAndArgs...), n, ct.totalCalls)
	}
}

func (ct *CallbackTracker) AssertCallbackCalled(handle, expected int, msgAndArgs ...any) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	actual := ct.callsByHandle[handle]
	if actual != expected {
		ct.t.Errorf("%s: callback %d (%s): expected %d calls, got %d",
			formatMessage(msgAndArgs...), handle, ct.descriptions[handle], expected, actual)
	}
}

func (ct *CallbackTracker) AssertNotCalled(handle int, msgAndArgs ...any) {
	ct.AssertCallbackCalled(handle, 0, msgAndArgs...)
}

func formatMessage(msgAndArgs ...any) string {
	if len(msgAndArgs) == 0 {
		return "assertion failed"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
	}
	return fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...)
}
