package ring

// This file is the inbound half of spec.md §6: operations the hardware
// surface's command dispatch calls in response to a physical control being
// touched. None of them mutate TrackState directly; each writes through to
// the DAW and waits for the resulting push notification (handled in
// state.go) to update the cache and emit the confirming event. This keeps
// the cache authoritative from exactly one source, per spec.md's invariant
// I1.

// trackIDAt resolves a ring index to the resident track id, or ok=false if
// the index is out of range or the slot is empty.
func (m *RingManager) trackIDAt(ringIndex int) (string, bool) {
	if ringIndex < 0 || ringIndex >= len(m.currentRingTrackIds) {
		return "", false
	}
	return m.currentRingTrackIds[ringIndex], true
}

func (m *RingManager) ToggleMute(ringIndex int) error {
	id, ok := m.trackIDAt(ringIndex)
	if !ok {
		return nil
	}
	st := m.trackStates[id]
	if st == nil || st.IsMaster {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.Track(id).Mute().Set(ctx, !st.Mute)
}

func (m *RingManager) ToggleSolo(ringIndex int) error {
	id, ok := m.trackIDAt(ringIndex)
	if !ok {
		return nil
	}
	st := m.trackStates[id]
	if st == nil || st.IsMaster {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.Track(id).Solo().Set(ctx, !st.Solo)
}

func (m *RingManager) ToggleArm(ringIndex int) error {
	id, ok := m.trackIDAt(ringIndex)
	if !ok {
		return nil
	}
	st := m.trackStates[id]
	if st == nil || st.IsMaster || !st.CanBeArmed {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.Track(id).Arm().Set(ctx, !st.Arm)
}

// SetVolume writes a raw volume value (spec.md's volume Normalized == Value,
// so callers pass the fader position directly).
func (m *RingManager) SetVolume(ringIndex int, value float64) error {
	id, ok := m.trackIDAt(ringIndex)
	if !ok {
		return nil
	}
	handle, ok := m.mixerCache[id]
	if !ok {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return handle.volume.Set(ctx, value)
}

// SetPanning writes a panning value given in the surface's normalized [0,1]
// range, converting back to the DAW's [-1,1] range (the inverse of
// panningEvent's nv = (v+1)/2).
func (m *RingManager) SetPanning(ringIndex int, normalized float64) error {
	id, ok := m.trackIDAt(ringIndex)
	if !ok {
		return nil
	}
	handle, ok := m.mixerCache[id]
	if !ok {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return handle.panning.Set(ctx, normalized*2-1)
}

func (m *RingManager) SetSend(ringIndex, sendIndex int, value float64) error {
	id, ok := m.trackIDAt(ringIndex)
	if !ok {
		return nil
	}
	handle, ok := m.mixerCache[id]
	if !ok || sendIndex < 0 || sendIndex >= len(handle.sends) {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return handle.sends[sendIndex].Set(ctx, value)
}

// StartPlaying and StopPlaying mirror a transport PLAY/STOP button.
func (m *RingManager) StartPlaying() error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.StartPlaying(ctx)
}

func (m *RingManager) StopPlaying() error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.StopPlaying(ctx)
}

// ToggleRecordMode mirrors a transport RECORD button.
func (m *RingManager) ToggleRecordMode() error {
	ctx, cancel := m.ctx()
	defer cancel()
	recording, err := m.song.RecordMode().Get(ctx)
	if err != nil {
		return err
	}
	return m.song.RecordMode().Set(ctx, !recording)
}

// SetClick toggles the metronome. This is a supplemented transport
// passthrough, independent of the focus subsystem's resync state machine.
func (m *RingManager) SetClick(on bool) error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.SetClick(ctx, on)
}

// NudgeTransport mirrors a jog wheel, nudging playback position by delta in
// the DAW's own units.
func (m *RingManager) NudgeTransport(delta int64) error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.NudgeTransport(ctx, delta)
}

// SelectTrackInRing asks the DAW to select the track currently resident at
// ringIndex. The selected-track push this triggers drives the focus
// subsystem (C5), not this method directly.
func (m *RingManager) SelectTrackInRing(ringIndex int) error {
	id, ok := m.trackIDAt(ringIndex)
	if !ok {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.Track(id).Select(ctx)
}
