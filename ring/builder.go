package ring

import (
	"strconv"

	"github.com/ringsurface/corebridge/daw"
)

// This file is component C3 from spec.md §2: given a track id entering the
// ring, fetch its initial scalar state with explicit RPC gets (never trust
// a cached snapshot that may predate this subscription) and register the
// listeners that keep TrackState current for as long as the track stays
// resident.

// buildTrack fetches a newly-entered track's initial state and wires its
// listeners under ringSubs, keyed "track:{id}:*" so RemoveByPrefix tears the
// whole set down in one call when the track leaves the window (spec.md
// §4.3's error policy: a failed property fetch is logged and that property
// is left at its zero value rather than aborting the whole track).
func (m *RingManager) buildTrack(id string) {
	ctx, cancel := m.ctx()
	defer cancel()

	track := m.song.Track(id)
	isMaster := id == m.masterTrackID

	st := &TrackState{ID: id, IsMaster: isMaster, Sends: make([]float64, m.numSends)}

	if name, err := track.Name().Get(ctx); err != nil {
		coreLog.Error("failed to read track name", "track", id, "err", err)
	} else {
		st.Name = name
	}

	if color, err := track.Color(ctx); err != nil {
		coreLog.Error("failed to read track color", "track", id, "err", err)
	} else {
		st.Color = color
	}

	hasMidiInput, err := track.HasMidiInput().Get(ctx)
	if err != nil {
		coreLog.Error("failed to read has_midi_input", "track", id, "err", err)
	}
	hasAudioInput, err := track.HasAudioInput().Get(ctx)
	if err != nil {
		coreLog.Error("failed to read has_audio_input", "track", id, "err", err)
	}
	isMidi := hasMidiInput && !hasAudioInput
	st.IsMidi = isMidi

	m.trackStates[id] = st
	m.mixerCache[id] = &mixerHandle{volume: track.Mixer.Volume(), panning: track.Mixer.Panning()}

	m.ringSubs.Add("track:"+id+":name", m.subscribeName(track))
	m.ringSubs.Add("track:"+id+":color", m.subscribeColor(track))

	if isMaster {
		return
	}

	if mute, err := track.Mute().Get(ctx); err != nil {
		coreLog.Error("failed to read mute", "track", id, "err", err)
	} else {
		st.Mute = mute
	}
	m.ringSubs.Add("track:"+id+":mute", m.subscribeMute(track))

	if solo, err := track.Solo().Get(ctx); err != nil {
		coreLog.Error("failed to read solo", "track", id, "err", err)
	} else {
		st.Solo = solo
	}
	m.ringSubs.Add("track:"+id+":solo", m.subscribeSolo(track))

	canBeArmed, err := track.CanBeArmed().Get(ctx)
	if err != nil {
		coreLog.Error("failed to read can_be_armed", "track", id, "err", err)
	}
	st.CanBeArmed = canBeArmed
	if canBeArmed {
		if arm, err := track.Arm().Get(ctx); err != nil {
			coreLog.Error("failed to read arm", "track", id, "err", err)
		} else {
			st.Arm = arm
		}
		m.ringSubs.Add("track:"+id+":arm", m.subscribeArm(track))
	}

	if !isMidi {
		if vol, err := track.Mixer.Volume().Get(ctx); err != nil {
			coreLog.Error("failed to read volume", "track", id, "err", err)
		} else {
			st.Volume = vol
		}
		m.ringSubs.Add("track:"+id+":volume", m.subscribeVolume(track))

		if pan, err := track.Mixer.Panning().Get(ctx); err != nil {
			coreLog.Error("failed to read panning", "track", id, "err", err)
		} else {
			st.Panning = pan
		}
		m.ringSubs.Add("track:"+id+":panning", m.subscribePanning(track))
	}

	m.buildSends(track, st)
}

func (m *RingManager) buildSends(track *daw.Track, st *TrackState) {
	ctx, cancel := m.ctx()
	defer cancel()

	handle := m.mixerCache[st.ID]
	handle.sends = make([]daw.Property[float64], m.numSends)

	for i := 0; i < m.numSends; i++ {
		send := track.Mixer.Send(i)
		handle.sends[i] = send
		if v, err := send.Get(ctx); err != nil {
			coreLog.Error("failed to read send", "track", st.ID, "send", i, "err", err)
		} else {
			st.Sends[i] = v
		}
		m.ringSubs.Add(sendKey(st.ID, i), m.subscribeSend(track, i))
	}
}

func sendKey(trackID string, i int) string {
	return "track:" + trackID + ":send:" + strconv.Itoa(i)
}

func (m *RingManager) subscribeName(track *daw.Track) func() {
	id := track.ID
	unsub, err := track.Name().Bind(func(name string) error {
		m.onNameChanged(id, name)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to name", "track", id, "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribeColor(track *daw.Track) func() {
	id := track.ID
	unsub, err := track.OnColorChanged(func(c RGB) error {
		m.onColorChanged(id, c)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to color", "track", id, "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribeMute(track *daw.Track) func() {
	id := track.ID
	unsub, err := track.Mute().Bind(func(v bool) error {
		m.onMuteChanged(id, v)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to mute", "track", id, "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribeSolo(track *daw.Track) func() {
	id := track.ID
	unsub, err := track.Solo().Bind(func(v bool) error {
		m.onSoloChanged(id, v)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to solo", "track", id, "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribeArm(track *daw.Track) func() {
	id := track.ID
	unsub, err := track.Arm().Bind(func(v bool) error {
		m.onArmChanged(id, v)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to arm", "track", id, "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribeVolume(track *daw.Track) func() {
	id := track.ID
	unsub, err := track.Mixer.Volume().Bind(func(v float64) error {
		m.onVolumeChanged(id, v)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to volume", "track", id, "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribePanning(track *daw.Track) func() {
	id := track.ID
	unsub, err := track.Mixer.Panning().Bind(func(v float64) error {
		m.onPanningChanged(id, v)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to panning", "track", id, "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribeSend(track *daw.Track, sendIdx int) func() {
	id := track.ID
	unsub, err := track.Mixer.Send(sendIdx).Bind(func(v float64) error {
		m.onSendChanged(id, sendIdx, v)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to send", "track", id, "send", sendIdx, "err", err)
		return func() {}
	}
	return func() { unsub() }
}
