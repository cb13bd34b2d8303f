package ring

// This file is component C4 from spec.md §2: the per-track state cache and
// the outbound emitter that walks it to produce a deterministic snapshot.
// Every listener-driven mutation here is a cache write followed by exactly
// one Event pushed to the sink (rebuildSendsFor only resizes the cache and
// emits nothing); nothing here performs RPC, so it is safe to call from a
// listener callback that already holds no locks of its own (spec.md §5).

func (m *RingManager) emit(e Event) {
	if m.sink == nil {
		return
	}
	m.sink(e)
}

func (m *RingManager) ringIndexOf(trackID string) (int, bool) {
	idx, ok := m.ringIndexByTrackId[trackID]
	return idx, ok
}

func (m *RingManager) onMuteChanged(trackID string, v bool) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	st.Mute = v
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(muteEvent(idx, v))
	}
}

func (m *RingManager) onSoloChanged(trackID string, v bool) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	st.Solo = v
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(soloEvent(idx, v))
	}
}

func (m *RingManager) onArmChanged(trackID string, v bool) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	st.Arm = v
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(armEvent(idx, v))
	}
}

func (m *RingManager) onVolumeChanged(trackID string, v float64) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	st.Volume = v
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(volumeEvent(idx, v))
	}
}

func (m *RingManager) onPanningChanged(trackID string, v float64) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	st.Panning = v
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(panningEvent(idx, v))
	}
}

func (m *RingManager) onSendChanged(trackID string, sendIdx int, v float64) {
	st, ok := m.trackStates[trackID]
	if !ok || sendIdx < 0 || sendIdx >= len(st.Sends) {
		return
	}
	st.Sends[sendIdx] = v
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(sendEvent(idx, sendIdx, v))
	}
}

func (m *RingManager) onNameChanged(trackID string, name string) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	st.Name = name
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(infoEvent(idx, st.Name, st.Color, st.IsMidi))
	}
}

func (m *RingManager) onColorChanged(trackID string, color RGB) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	st.Color = color
	if idx, ok := m.ringIndexOf(trackID); ok {
		m.emit(infoEvent(idx, st.Name, st.Color, st.IsMidi))
	}
}

// rebuildSendsFor resizes a resident track's cached Sends slice to numSends,
// preserving values already known and defaulting new slots to 0 until their
// first explicit Get. It does not touch the mixerHandle's Property list or
// the send listeners; the return_tracks listener rebuilds those through
// buildSends.
func (m *RingManager) rebuildSendsFor(trackID string) {
	st, ok := m.trackStates[trackID]
	if !ok {
		return
	}
	resized := make([]float64, m.numSends)
	copy(resized, st.Sends)
	st.Sends = resized
}

// sendFullSync walks currentRingTrackIds in ring-index order and re-emits
// every event in the table from spec.md §4.4 for each resident track,
// skipping volume/panning for MIDI tracks (spec.md's MIDI exclusion rule).
// This is the only place a full snapshot is produced; every listener-driven
// mutator in this file emits a single incremental event.
func (m *RingManager) sendFullSync() {
	for idx, id := range m.currentRingTrackIds {
		st, ok := m.trackStates[id]
		if !ok {
			continue
		}
		m.emit(infoEvent(idx, st.Name, st.Color, st.IsMidi))
		if st.IsMaster {
			continue
		}
		m.emit(muteEvent(idx, st.Mute))
		m.emit(soloEvent(idx, st.Solo))
		if st.CanBeArmed {
			m.emit(armEvent(idx, st.Arm))
		}
		if !st.IsMidi {
			m.emit(volumeEvent(idx, st.Volume))
			m.emit(panningEvent(idx, st.Panning))
		}
		for si, v := range st.Sends {
			m.emit(sendEvent(idx, si, v))
		}
	}
}
