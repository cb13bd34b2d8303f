package ring

import "github.com/ringsurface/corebridge/daw"

// This file is component C5 from spec.md §2: everything tracking the DAW's
// notion of focus rather than the ring window -- the selected track, its
// playing clip, the selected device parameter, and transport state. It uses
// its own SubscriptionGroup (globalSubs) because none of it is torn down by
// a ring resync; only Destroy or a focus change itself replaces an entry.

// focusState holds C5's own bookkeeping. m is set once by New; it is a
// plain pointer back, not a separate lifecycle, because focus logic needs
// read access to the ring's index map (to compute SelectedEvent.RingIndex).
type focusState struct {
	m *RingManager

	selectedTrackID string

	selectedParamID        string
	selectedParam          *daw.DeviceParameter
	selectedParamSwitching bool
	paramName              string
	paramValue             float64
	paramMin               float64
	paramMax               float64
	paramDefault           float64

	activeProperty ActiveProperty

	playing   bool
	recording bool
}

func (f *focusState) init() error {
	m := f.m

	unsubTrack, err := m.song.View.OnSelectedTrackChanged(f.handleSelectedTrackChanged)
	if err != nil {
		coreLog.Error("failed to subscribe to selected_track", "err", err)
	} else {
		m.globalSubs.Add("focus:selected_track", func() { unsubTrack() })
	}

	unsubParam, err := m.song.View.OnSelectedParameterChanged(f.handleSelectedParameterChanged)
	if err != nil {
		coreLog.Error("failed to subscribe to selected_parameter", "err", err)
	} else {
		m.globalSubs.Add("focus:selected_parameter", func() { unsubParam() })
	}

	unsubPlaying, err := m.song.IsPlaying().Bind(func(v bool) error {
		f.playing = v
		m.emit(transportEvent(f.playing, f.recording))
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to is_playing", "err", err)
	} else {
		m.globalSubs.Add("focus:is_playing", func() { unsubPlaying() })
	}

	unsubRecording, err := m.song.RecordMode().Bind(func(v bool) error {
		f.recording = v
		m.emit(transportEvent(f.playing, f.recording))
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to record_mode", "err", err)
	} else {
		m.globalSubs.Add("focus:record_mode", func() { unsubRecording() })
	}

	ctx, cancel := m.ctx()
	defer cancel()
	if v, err := m.song.IsPlaying().Get(ctx); err == nil {
		f.playing = v
	}
	if v, err := m.song.RecordMode().Get(ctx); err == nil {
		f.recording = v
	}

	if track, err := m.song.View.SelectedTrack(ctx); err == nil {
		f.handleSelectedTrackChanged(track)
	}
	if param, err := m.song.View.SelectedParameter(ctx); err == nil {
		f.handleSelectedParameterChanged(param)
	}

	return nil
}

func (f *focusState) teardown() {
	f.selectedTrackID = ""
	f.selectedParamID = ""
	f.selectedParam = nil
	f.selectedParamSwitching = false
	f.paramName, f.paramValue, f.paramMin, f.paramMax, f.paramDefault = "", 0, 0, 0, 0
}

func (f *focusState) emitCurrentTransport() {
	f.m.emit(transportEvent(f.playing, f.recording))
}

// handleSelectedTrackChanged follows the selection when it lands outside
// the current window (spec.md §4.5: "follow" by clamping trackOffset to the
// selected track's absolute index and re-running the diff), then replaces
// the playing-clip subscription and emits RT_SELECTED.
func (f *focusState) handleSelectedTrackChanged(track *daw.Track) {
	m := f.m
	m.globalSubs.Remove("focus:playing_clip")

	if track == nil {
		f.selectedTrackID = ""
		m.emit(selectedEvent(-1, -1, "", RGB{}))
		return
	}
	f.selectedTrackID = track.ID

	ctx, cancel := m.ctx()
	defer cancel()

	name, err := track.Name().Get(ctx)
	if err != nil {
		coreLog.Error("failed to read selected track name", "track", track.ID, "err", err)
	}
	color, err := track.Color(ctx)
	if err != nil {
		coreLog.Error("failed to read selected track color", "track", track.ID, "err", err)
	}

	absIndex := -1
	if tracks, err := m.song.Tracks(ctx); err == nil {
		for i, t := range tracks {
			if t.ID == track.ID {
				absIndex = i
				break
			}
		}
	}

	ringIndex, resident := m.ringIndexByTrackId[track.ID]
	if !resident && absIndex >= 0 {
		newOffset := clamp(absIndex, 0, maxOffset(len(m.visibleTracks), m.width))
		if err := m.SetOffset(newOffset, m.sceneOffset); err != nil {
			coreLog.Error("failed to follow selected track", "track", track.ID, "err", err)
		}
		ringIndex, resident = m.ringIndexByTrackId[track.ID]
	}
	if !resident {
		ringIndex = -1
	}
	m.emit(selectedEvent(absIndex, ringIndex, name, color))

	f.subscribePlayingClip(track)
	f.emitPlayingClip(track)
}

func (f *focusState) subscribePlayingClip(track *daw.Track) {
	m := f.m
	unsub, err := track.OnPlayingSlotIndexChanged(func(int64) error {
		f.emitPlayingClip(track)
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to playing_slot_index", "track", track.ID, "err", err)
		return
	}
	m.globalSubs.Add("focus:playing_clip", func() { unsub() })
}

func (f *focusState) emitPlayingClip(track *daw.Track) {
	m := f.m
	ctx, cancel := m.ctx()
	defer cancel()

	clip, err := track.PlayingClip(ctx)
	if err != nil {
		coreLog.Error("failed to read playing clip", "track", track.ID, "err", err)
		return
	}
	if clip == nil {
		m.emit(playingClipEvent("", RGB{}))
		return
	}
	name, err := clip.Name().Get(ctx)
	if err != nil {
		coreLog.Error("failed to read playing clip name", "track", track.ID, "err", err)
	}
	color, err := clip.Color(ctx)
	if err != nil {
		coreLog.Error("failed to read playing clip color", "track", track.ID, "err", err)
	}
	m.emit(playingClipEvent(name, color))
}

type paramFetch struct {
	val float64
	err error
}

// handleSelectedParameterChanged implements the Idle/Switching state
// machine from spec.md §4.5. selectedParamSwitching guards writes
// (setActivePropertyValue/adjustSelectedParameter) for the duration of the
// five-way fetch; only once all five succeed are the cached bounds and the
// live value listener published, so a concurrent write can never be scaled
// against a half-updated [min, max].
func (f *focusState) handleSelectedParameterChanged(param *daw.DeviceParameter) {
	m := f.m
	m.globalSubs.Remove("focus:param_value")

	f.selectedParamSwitching = true
	defer func() { f.selectedParamSwitching = false }()

	if param == nil {
		f.selectedParamID = ""
		f.selectedParam = nil
		f.paramName, f.paramValue, f.paramMin, f.paramMax, f.paramDefault = "", 0, 0, 0, 0
		m.emit(paramEvent("", 0, 0, 0, 0))
		return
	}
	f.selectedParamID = param.ID
	f.selectedParam = param

	ctx, cancel := m.ctx()
	defer cancel()

	nameCh := make(chan struct {
		v   string
		err error
	}, 1)
	valueCh := make(chan paramFetch, 1)
	minCh := make(chan paramFetch, 1)
	maxCh := make(chan paramFetch, 1)
	defaultCh := make(chan paramFetch, 1)

	go func() {
		v, err := param.Name().Get(ctx)
		nameCh <- struct {
			v   string
			err error
		}{v, err}
	}()
	go func() {
		v, err := param.Value().Get(ctx)
		valueCh <- paramFetch{v, err}
	}()
	go func() {
		v, err := param.Min().Get(ctx)
		minCh <- paramFetch{v, err}
	}()
	go func() {
		v, err := param.Max().Get(ctx)
		maxCh <- paramFetch{v, err}
	}()
	go func() {
		v, err := param.DefaultValue().Get(ctx)
		defaultCh <- paramFetch{v, err}
	}()

	nameResult := <-nameCh
	valueResult := <-valueCh
	minResult := <-minCh
	maxResult := <-maxCh
	defaultResult := <-defaultCh

	if nameResult.err != nil || valueResult.err != nil || minResult.err != nil || maxResult.err != nil || defaultResult.err != nil {
		coreLog.Error("failed to read selected parameter; resetting to null", "param", param.ID,
			"nameErr", nameResult.err, "valueErr", valueResult.err, "minErr", minResult.err,
			"maxErr", maxResult.err, "defaultErr", defaultResult.err)
		f.selectedParamID = ""
		f.selectedParam = nil
		f.paramName, f.paramValue, f.paramMin, f.paramMax, f.paramDefault = "", 0, 0, 0, 0
		m.emit(paramEvent("", 0, 0, 0, 0))
		return
	}

	f.paramName = nameResult.v
	f.paramValue = valueResult.val
	f.paramMin = minResult.val
	f.paramMax = maxResult.val
	f.paramDefault = defaultResult.val

	m.emit(paramEventFor(f.paramName, f.paramValue, f.paramMin, f.paramMax))

	f.bindParamLiveUpdates(param)
}

func (f *focusState) bindParamLiveUpdates(param *daw.DeviceParameter) {
	m := f.m
	paramID := param.ID

	unsubValue, err := param.Value().Bind(func(v float64) error {
		if f.selectedParamID != paramID {
			return nil
		}
		f.paramValue = v
		m.emit(paramEventFor(f.paramName, f.paramValue, f.paramMin, f.paramMax))
		return nil
	})
	if err != nil {
		coreLog.Error("failed to subscribe to parameter value", "param", paramID, "err", err)
		return
	}
	m.globalSubs.Add("focus:param_value", func() { unsubValue() })
}

func paramEventFor(name string, value, min, max float64) Event {
	normalized := 0.0
	if max != min {
		normalized = (value - min) / (max - min)
	}
	return paramEvent(name, value, normalized, min, max)
}
