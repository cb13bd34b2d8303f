package daw

import (
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
)

func TestMatchAddr(t *testing.T) {
	tests := []struct {
		path           string
		addr           string
		expectMatch    bool
		expectCaptures []string
	}{
		{"song/track/@/name", "song/track/42/name", true, []string{"42"}},
		{"song/track/@/send/@/value", "song/track/3/send/1/value", true, []string{"3", "1"}},
		{"song/track/@/name", "song/return_track/42/name", false, nil},
		{"song/track/@/name", "song/track/42", false, nil},
		{"song/track/@/*", "song/track/42/name", true, []string{"42"}},
		{"song/track/@/*", "song/track/42/name/extra", true, []string{"42"}},
		{"song/track/@/*", "song/track/42", true, []string{"42"}},
	}
	for _, tt := range tests {
		ok, caps := matchAddr(tt.path, tt.addr)
		assert.Equal(t, tt.expectMatch, ok, "path=%q addr=%q", tt.path, tt.addr)
		if tt.expectMatch {
			assert.Equal(t, tt.expectCaptures, caps)
		}
	}
}

func TestDispatcherAddAndRemove(t *testing.T) {
	d := NewDispatcher()
	var calls int
	unsub := d.AddMsgHandler("song/track/@/mute", func(m *osc.Message) {
		calls++
	})

	d.Dispatch(osc.NewMessage("/song/track/3/mute", true))
	assert.Equal(t, 1, calls)

	unsub()
	d.Dispatch(osc.NewMessage("/song/track/3/mute", true))
	assert.Equal(t, 1, calls, "handler should not fire after unsubscribe")
}

func TestDispatcherCaptures(t *testing.T) {
	d := NewDispatcher()
	var gotTrack, gotSend string
	d.AddMsgHandler("song/track/@/send/@/value", func(m *osc.Message) {
		gotTrack = m.Arguments[len(m.Arguments)-2].(string)
		gotSend = m.Arguments[len(m.Arguments)-1].(string)
	})
	d.Dispatch(osc.NewMessage("/song/track/7/send/2/value", 0.5))
	assert.Equal(t, "7", gotTrack)
	assert.Equal(t, "2", gotSend)
}
