package daw

import (
	"context"
	"fmt"
)

// Song is the root remote object: song.tracks, song.return_tracks,
// song.visible_tracks, song.scenes, song.master_track, song.is_playing,
// song.record_mode, song.startPlaying/stopPlaying, and the session-box
// methods, per spec.md §6.
type Song struct {
	client Client
	ref    ref
	View   *View
}

func NewSong(client Client) *Song {
	s := &Song{client: client, ref: ref{client: client, path: "song"}}
	s.View = &View{client: client, ref: ref{client: client, path: "song/view"}}
	return s
}

func (s *Song) IsPlaying() Property[bool]  { return newProperty[bool](s.ref, "is_playing") }
func (s *Song) RecordMode() Property[bool] { return newProperty[bool](s.ref, "record_mode") }
func (s *Song) Scenes() Property[int64]    { return newProperty[int64](s.ref, "scenes") }

func (s *Song) StartPlaying(ctx context.Context) error {
	return s.ref.client.Call(ctx, s.ref.path, "startPlaying")
}

func (s *Song) StopPlaying(ctx context.Context) error {
	return s.ref.client.Call(ctx, s.ref.path, "stopPlaying")
}

// SetClick enables or disables the metronome. This is a transport
// passthrough control, not part of the ring's resync state machine.
func (s *Song) SetClick(ctx context.Context, on bool) error {
	return s.ref.client.Call(ctx, s.ref.path, "setClick", on)
}

// NudgeTransport bumps playback position forward (delta > 0) or backward
// (delta < 0) by the DAW's own jog granularity, mirroring a jog wheel.
func (s *Song) NudgeTransport(ctx context.Context, delta int64) error {
	return s.ref.client.Call(ctx, s.ref.path, "nudgeTransport", delta)
}

// SetupSessionBox asks the DAW to align its own session box with our ring's
// width and height (scenes), so its push notifications stay scoped to the
// same window we're about to subscribe over (spec.md §4.2).
func (s *Song) SetupSessionBox(ctx context.Context, width, height int64) error {
	return s.ref.client.Call(ctx, s.ref.path, "session.setupSessionBox", width, height)
}

func (s *Song) SetSessionOffset(ctx context.Context, trackOffset, sceneOffset int64) error {
	return s.ref.client.Call(ctx, s.ref.path, "session.setSessionOffset", trackOffset, sceneOffset)
}

// Track returns a handle on the track with the given opaque id. It performs
// no RPC of its own; it's a cheap local reference, matching spec.md's
// "opaque stable string id" data model.
func (s *Song) Track(id string) *Track {
	return newTrack(s.client, id)
}

func (s *Song) MasterTrack(ctx context.Context) (*Track, error) {
	v, err := s.ref.get(ctx, "master_track")
	if err != nil {
		return nil, err
	}
	id, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: master_track returned %T", ErrReadFailed, v)
	}
	return s.Track(id), nil
}

// Tracks fetches the full, ordered track id list including hidden tracks.
// Per spec.md §9's open question, the ring prefers VisibleTracks for
// fold-awareness and only refreshes this at init, on the tracks listener,
// and before navigation.
func (s *Song) Tracks(ctx context.Context) ([]*Track, error) {
	return s.trackList(ctx, "tracks")
}

func (s *Song) ReturnTracks(ctx context.Context) ([]*Track, error) {
	return s.trackList(ctx, "return_tracks")
}

func (s *Song) VisibleTracks(ctx context.Context) ([]*Track, error) {
	return s.trackList(ctx, "visible_tracks")
}

func (s *Song) trackList(ctx context.Context, prop string) ([]*Track, error) {
	v, err := s.ref.get(ctx, prop)
	if err != nil {
		return nil, err
	}
	ids, ok := toStringSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T, want list of ids", ErrReadFailed, prop, v)
	}
	out := make([]*Track, len(ids))
	for i, id := range ids {
		out[i] = s.Track(id)
	}
	return out, nil
}

// OnTracksChanged subscribes to the tracks list as a whole. Per spec.md
// §4.2, this is one of the listeners that drives the ring diff engine.
func (s *Song) OnTracksChanged(cb func([]*Track)) (Unsubscribe, error) {
	return s.onTrackListChanged("tracks", cb)
}

func (s *Song) OnReturnTracksChanged(cb func([]*Track)) (Unsubscribe, error) {
	return s.onTrackListChanged("return_tracks", cb)
}

func (s *Song) onTrackListChanged(prop string, cb func([]*Track)) (Unsubscribe, error) {
	return s.ref.bind(prop, func(v any) {
		ids, ok := toStringSlice(v)
		if !ok {
			rpcInLog.Warn("dropping malformed track list push", "property", prop)
			return
		}
		tracks := make([]*Track, len(ids))
		for i, id := range ids {
			tracks[i] = s.Track(id)
		}
		cb(tracks)
	})
}

func toStringSlice(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// View models song.view: the selected track, the selected device parameter,
// and the selected scene.
type View struct {
	client Client
	ref    ref
}

func (v *View) SelectedScene() Property[int64] { return newProperty[int64](v.ref, "selected_scene") }

func (v *View) SelectedTrack(ctx context.Context) (*Track, error) {
	val, err := v.ref.get(ctx, "selected_track")
	if err != nil {
		return nil, err
	}
	id, ok := val.(string)
	if !ok || id == "" {
		return nil, nil
	}
	return newTrack(v.client, id), nil
}

func (v *View) OnSelectedTrackChanged(cb func(*Track)) (Unsubscribe, error) {
	return v.ref.bind("selected_track", func(val any) {
		id, _ := val.(string)
		if id == "" {
			cb(nil)
			return
		}
		cb(newTrack(v.client, id))
	})
}

// SelectedParameter returns the currently selected device parameter, or nil
// if none is selected.
func (v *View) SelectedParameter(ctx context.Context) (*DeviceParameter, error) {
	val, err := v.ref.get(ctx, "selected_parameter")
	if err != nil {
		return nil, err
	}
	id, ok := val.(string)
	if !ok || id == "" {
		return nil, nil
	}
	return newDeviceParameter(v.client, id), nil
}

func (v *View) OnSelectedParameterChanged(cb func(*DeviceParameter)) (Unsubscribe, error) {
	return v.ref.bind("selected_parameter", func(val any) {
		id, _ := val.(string)
		if id == "" {
			cb(nil)
			return
		}
		cb(newDeviceParameter(v.client, id))
	})
}
