package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsurface/corebridge/daw"
	"github.com/ringsurface/corebridge/dawtesting"
)

// harness wires a FakeClient seeded with a four-track session (t1..t4), one
// return track (r1), and a master track, behind a RingManager with an
// event sink that just appends to a slice for assertions.
type harness struct {
	t      *testing.T
	client *dawtesting.FakeClient
	song   *daw.Song
	mgr    *RingManager
	events []Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc := dawtesting.NewFakeClient()

	fc.SetValue("song", "tracks", []string{"t1", "t2", "t3", "t4"})
	fc.SetValue("song", "return_tracks", []string{"r1"})
	fc.SetValue("song", "visible_tracks", []string{"t1", "t2", "t3", "t4"})
	fc.SetValue("song", "master_track", "master")
	fc.SetValue("song", "is_playing", false)
	fc.SetValue("song", "record_mode", false)
	fc.SetValue("song/view", "selected_track", "")
	fc.SetValue("song/view", "selected_parameter", "")

	seedTrack(fc, "t1", "Kick", int64(0xFF0000), false, false, false, true, false, 0.8, 0.0, []float64{0.1})
	seedTrack(fc, "t2", "Snare", int64(0x00FF00), false, true, false, true, false, 0.7, 0.1, []float64{0.2})
	seedTrack(fc, "t3", "Bass", int64(0x0000FF), false, false, false, true, false, 0.6, -0.2, []float64{0.3})
	seedTrack(fc, "t4", "Synth (MIDI)", int64(0x123456), true, false, false, true, false, 0, 0, []float64{0})

	song := daw.NewSong(fc)

	h := &harness{t: t, client: fc, song: song}
	h.mgr = New(song, func(e Event) { h.events = append(h.events, e) })
	return h
}

func seedTrack(fc *dawtesting.FakeClient, id, name string, color int64, isMidi, mute, solo, canBeArmed, arm bool, volume, panning float64, sends []float64) {
	path := "track/" + id
	fc.SetValue(path, "name", name)
	fc.SetValue(path, "color", color)
	fc.SetValue(path, "has_midi_input", isMidi)
	fc.SetValue(path, "has_audio_input", !isMidi)
	fc.SetValue(path, "mute", mute)
	fc.SetValue(path, "solo", solo)
	fc.SetValue(path, "can_be_armed", canBeArmed)
	fc.SetValue(path, "arm", arm)
	fc.SetValue(path+"/mixer", "volume", volume)
	fc.SetValue(path+"/mixer", "panning", panning)
	for i, v := range sends {
		fc.SetValue(path+"/mixer", sendPropNameForTest(i), v)
	}
}

func sendPropNameForTest(i int) string {
	return "sends/" + string(rune('0'+i))
}

func (h *harness) eventsOfKind(kind EventKind) []Event {
	var out []Event
	for _, e := range h.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestInitAndSetupRingBuildsWindow(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(2, 8, 0, 0))

	assert.Equal(t, []string{"t1", "t2"}, h.mgr.currentRingTrackIds)
	assert.Equal(t, 0, h.mgr.ringIndexByTrackId["t1"])
	assert.Equal(t, 1, h.mgr.ringIndexByTrackId["t2"])

	infos := h.eventsOfKind(KindInfo)
	require.Len(t, infos, 2)
	assert.Equal(t, "Kick", infos[0].Info.Name)
	assert.Equal(t, "Snare", infos[1].Info.Name)

	mutes := h.eventsOfKind(KindMute)
	require.Len(t, mutes, 2)
	assert.False(t, mutes[0].Mute.Value) // t1: not muted
	assert.True(t, mutes[1].Mute.Value)  // t2: muted

	calls := h.client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "session.setupSessionBox", calls[0].Method)
	assert.Equal(t, "session.setSessionOffset", calls[1].Method)
}

func TestSetOffsetDiffsWindow(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(2, 8, 0, 0))
	h.events = nil

	require.NoError(t, h.mgr.SetOffset(1, 0))

	assert.Equal(t, []string{"t2", "t3"}, h.mgr.currentRingTrackIds)
	assert.True(t, h.mgr.trackStatesHasOnlyResident("t2", "t3"))
}

// trackStatesHasOnlyResident is a tiny test-only assertion helper, not part
// of the exported surface.
func (m *RingManager) trackStatesHasOnlyResident(ids ...string) bool {
	if len(m.trackStates) != len(ids) {
		return false
	}
	for _, id := range ids {
		if _, ok := m.trackStates[id]; !ok {
			return false
		}
	}
	return true
}

func TestNavigateRingClampsAtBoundary(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(2, 8, 0, 0))

	require.NoError(t, h.mgr.NavigateRing(NavLeft))
	assert.Equal(t, 0, h.mgr.trackOffset, "navigating left at offset 0 is a no-op")

	require.NoError(t, h.mgr.NavigateRing(NavRight))
	assert.Equal(t, 1, h.mgr.trackOffset)

	require.NoError(t, h.mgr.NavigateRing(NavRight))
	assert.Equal(t, 2, h.mgr.trackOffset, "max offset is len(tracks)-width = 4-2 = 2")

	require.NoError(t, h.mgr.NavigateRing(NavRight))
	assert.Equal(t, 2, h.mgr.trackOffset, "navigating right at the max offset is a no-op")
}

func TestToggleMuteRoundTrips(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(2, 8, 0, 0))
	h.events = nil

	require.NoError(t, h.mgr.ToggleMute(0))

	writes := h.client.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "track/t1", writes[0].Object)
	assert.Equal(t, "mute", writes[0].Property)
	assert.Equal(t, true, writes[0].Value)

	// no event yet: the write is fire-and-forget until the DAW pushes back
	assert.Empty(t, h.eventsOfKind(KindMute))

	h.client.Push("track/t1", "mute", true)
	mutes := h.eventsOfKind(KindMute)
	require.Len(t, mutes, 1)
	assert.Equal(t, 0, mutes[0].Mute.RingIndex)
	assert.True(t, mutes[0].Mute.Value)
}

func TestAdjustActivePropertyValueVolumeUsesStepUnscaled(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(4, 8, 0, 0))

	h.mgr.SetActiveProperty(Volume())
	require.NoError(t, h.mgr.AdjustActivePropertyValue(0, 1, 0.1)) // t1: volume 0.8

	writes := h.client.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "track/t1/mixer", writes[0].Object)
	assert.Equal(t, "volume", writes[0].Property)
	assert.InDelta(t, 0.9, writes[0].Value, 1e-9)
}

func TestAdjustActivePropertyValuePanningUsesStepTimesTwo(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(4, 8, 0, 0))

	h.mgr.SetActiveProperty(Panning())
	// t3: panning -0.2. Native-space step is delta*step*2, applied directly
	// to the cached native value -- not normalized and converted twice.
	require.NoError(t, h.mgr.AdjustActivePropertyValue(2, 1, 0.1))

	writes := h.client.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "track/t3/mixer", writes[0].Object)
	assert.Equal(t, "panning", writes[0].Property)
	assert.InDelta(t, 0.0, writes[0].Value, 1e-9)
}

func TestAdjustActivePropertyValueSendUsesStepUnscaled(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(4, 8, 0, 0))

	h.mgr.SetActiveProperty(Send(0))
	require.NoError(t, h.mgr.AdjustActivePropertyValue(1, -1, 0.05)) // t2: send[0] 0.2

	writes := h.client.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "track/t2/mixer", writes[0].Object)
	assert.InDelta(t, 0.15, writes[0].Value, 1e-9)
}

func TestRequestFullStateReemitsWithoutMutation(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(2, 8, 0, 0))
	before := len(h.mgr.currentRingTrackIds)

	h.events = nil
	h.mgr.RequestFullState()

	assert.Equal(t, before, len(h.mgr.currentRingTrackIds))
	assert.NotEmpty(t, h.eventsOfKind(KindInfo))
	assert.NotEmpty(t, h.eventsOfKind(KindTransport))
}

func TestDestroyClearsState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Init())
	require.NoError(t, h.mgr.SetupRing(2, 8, 0, 0))

	h.mgr.Destroy()

	assert.Empty(t, h.mgr.currentRingTrackIds)
	assert.Empty(t, h.mgr.trackStates)
	assert.Equal(t, 0, h.mgr.ringSubs.Size())
	assert.Equal(t, 0, h.mgr.globalSubs.Size())
}
