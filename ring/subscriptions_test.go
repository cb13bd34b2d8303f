package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionGroupAddReplacesPrior(t *testing.T) {
	g := NewSubscriptionGroup()
	var calls int
	g.Add("a", func() { calls++ })
	require.Equal(t, 1, g.Size())

	g.Add("a", func() { calls += 10 })
	assert.Equal(t, 1, calls, "re-adding the same key must invoke the prior unsubscribe")
	assert.Equal(t, 1, g.Size())
}

func TestSubscriptionGroupRemove(t *testing.T) {
	g := NewSubscriptionGroup()
	called := false
	g.Add("a", func() { called = true })

	g.Remove("a")
	assert.True(t, called)
	assert.False(t, g.Has("a"))

	// removing an absent key is a no-op, not a panic
	g.Remove("a")
}

func TestSubscriptionGroupRemoveByPrefix(t *testing.T) {
	g := NewSubscriptionGroup()
	var removed []string
	g.Add("track:a:mute", func() { removed = append(removed, "track:a:mute") })
	g.Add("track:a:solo", func() { removed = append(removed, "track:a:solo") })
	g.Add("track:b:mute", func() { removed = append(removed, "track:b:mute") })

	g.RemoveByPrefix("track:a:")

	assert.ElementsMatch(t, []string{"track:a:mute", "track:a:solo"}, removed)
	assert.Equal(t, 1, g.Size())
	assert.True(t, g.Has("track:b:mute"))
}

func TestSubscriptionGroupClearIsConcurrentAndComplete(t *testing.T) {
	g := NewSubscriptionGroup()
	n := 50
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		g.Add(string(rune('a'+i%26))+string(rune(i)), func() { done <- struct{}{} })
	}
	require.Equal(t, n, g.Size())

	g.Clear()

	assert.Equal(t, 0, g.Size())
	for i := 0; i < n; i++ {
		<-done
	}
}

func TestSubscriptionGroupKeys(t *testing.T) {
	g := NewSubscriptionGroup()
	g.Add("x", func() {})
	g.Add("y", func() {})
	assert.ElementsMatch(t, []string{"x", "y"}, g.Keys())
}

func TestCallUnsubRecoversPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		callUnsub("k", func() { panic("boom") })
	})
}
