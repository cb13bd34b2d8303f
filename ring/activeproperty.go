package ring

// This file adapts the teacher's mode-manager concept into spec.md §4.5's
// active-property mode: a single selector shared by the whole surface
// saying which property a generic fader/encoder bank currently controls,
// plus the value-mapping rules for writing to whichever property that is.

// SetActiveProperty assigns the property a subsequent SendActivePropertyState
// or SetActivePropertyValue targets.
func (m *RingManager) SetActiveProperty(p ActiveProperty) {
	m.focus.activeProperty = p
}

func (m *RingManager) ActiveProperty() ActiveProperty {
	return m.focus.activeProperty
}

// SendActivePropertyState emits the current active property's value for
// every ring resident (vol/pan/send), or a single RT_PARAM if the active
// property is the selected parameter (spec.md §4.5).
func (m *RingManager) SendActivePropertyState() {
	p := m.focus.activeProperty

	if p.Kind() == PropSelectedParameter {
		m.emit(paramEventFor(m.focus.paramName, m.focus.paramValue, m.focus.paramMin, m.focus.paramMax))
		return
	}

	for idx, id := range m.currentRingTrackIds {
		st := m.trackStates[id]
		if st == nil {
			continue
		}
		switch p.Kind() {
		case PropVolume:
			if !st.IsMidi {
				m.emit(volumeEvent(idx, st.Volume))
			}
		case PropPanning:
			if !st.IsMidi {
				m.emit(panningEvent(idx, st.Panning))
			}
		case PropSend:
			si := p.SendIndex()
			if si >= 0 && si < len(st.Sends) {
				m.emit(sendEvent(idx, si, st.Sends[si]))
			}
		}
	}
}

// SetActivePropertyValue maps an incoming raw control byte [0,255] to the
// active property's native range and writes it (spec.md §4.5). Writes to
// selected_parameter are dropped while the focus subsystem's parameter
// switch guard is held (I6: never scale against a stale [min, max]).
func (m *RingManager) SetActivePropertyValue(ringIndex int, rawByte int) error {
	norm := clampFloat(float64(rawByte), 0, 255) / 255

	p := m.focus.activeProperty
	switch p.Kind() {
	case PropVolume:
		return m.SetVolume(ringIndex, norm)
	case PropPanning:
		return m.SetPanning(ringIndex, norm)
	case PropSend:
		return m.SetSend(ringIndex, p.SendIndex(), norm)
	case PropSelectedParameter:
		if m.focus.selectedParamSwitching {
			return nil
		}
		return m.setSelectedParameterValue(m.focus.paramMin + norm*(m.focus.paramMax-m.focus.paramMin))
	default:
		return nil
	}
}

// AdjustActivePropertyValue reads the cached value for ringIndex's active
// property, applies delta*step (panning's range is twice as wide so its
// step is doubled; selected_parameter scales by its own [min,max] span),
// clamps to the native range, and writes (spec.md §4.5). Reading from the
// cache rather than the live control position means a track change mid-turn
// never produces a value jump.
func (m *RingManager) AdjustActivePropertyValue(ringIndex int, delta float64, step float64) error {
	p := m.focus.activeProperty

	id, ok := m.trackIDAt(ringIndex)
	if !ok && p.Kind() != PropSelectedParameter {
		return nil
	}

	switch p.Kind() {
	case PropVolume:
		st := m.trackStates[id]
		if st == nil {
			return nil
		}
		return m.SetVolume(ringIndex, clampFloat(st.Volume+delta*step, 0, 1))
	case PropPanning:
		st := m.trackStates[id]
		handle, ok := m.mixerCache[id]
		if st == nil || !ok {
			return nil
		}
		native := clampFloat(st.Panning+delta*step*2, -1, 1)
		ctx, cancel := m.ctx()
		defer cancel()
		return handle.panning.Set(ctx, native)
	case PropSend:
		st := m.trackStates[id]
		si := p.SendIndex()
		if st == nil || si < 0 || si >= len(st.Sends) {
			return nil
		}
		return m.SetSend(ringIndex, si, clampFloat(st.Sends[si]+delta*step, 0, 1))
	case PropSelectedParameter:
		return m.AdjustSelectedParameter(delta, step)
	default:
		return nil
	}
}

// AdjustSelectedParameter applies delta*step*(max-min) to the cached
// parameter value and writes the clamped result. Dropped under the
// switching guard, per spec.md §4.5.
func (m *RingManager) AdjustSelectedParameter(delta, step float64) error {
	if m.focus.selectedParamSwitching || m.focus.selectedParamID == "" {
		return nil
	}
	span := m.focus.paramMax - m.focus.paramMin
	next := clampFloat(m.focus.paramValue+delta*step*span, m.focus.paramMin, m.focus.paramMax)
	return m.setSelectedParameterValue(next)
}

// ResetActivePropertyValue writes each property's documented rest value
// (spec.md §4.5): volume to 0.85, panning to center, send to 0, and the
// selected parameter to its clamped default.
func (m *RingManager) ResetActivePropertyValue(ringIndex int) error {
	p := m.focus.activeProperty
	switch p.Kind() {
	case PropVolume:
		return m.SetVolume(ringIndex, 0.85)
	case PropPanning:
		return m.SetPanning(ringIndex, 0.5)
	case PropSend:
		return m.SetSend(ringIndex, p.SendIndex(), 0)
	case PropSelectedParameter:
		return m.ResetSelectedParameter()
	default:
		return nil
	}
}

// ResetSelectedParameter writes the selected parameter's default_value,
// clamped to [min, max] in case the DAW's default sits outside the current
// bounds (spec.md §4.5).
func (m *RingManager) ResetSelectedParameter() error {
	if m.focus.selectedParamSwitching || m.focus.selectedParamID == "" {
		return nil
	}
	return m.setSelectedParameterValue(clampFloat(m.focus.paramDefault, m.focus.paramMin, m.focus.paramMax))
}

func (m *RingManager) setSelectedParameterValue(value float64) error {
	if m.focus.selectedParam == nil {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return m.focus.selectedParam.Value().Set(ctx, value)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
