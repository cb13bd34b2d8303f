package daw

import (
	"context"
	"fmt"
)

// Track is a remote entity identified by an opaque stable string id, per
// spec.md's data model. It exposes the subset of the real Track object the
// core cares about: name, color, mute/solo/arm, midi/audio input flags,
// playing clip slot, and its mixer device.
type Track struct {
	ID     string
	client Client
	ref    ref
	Mixer  *MixerDevice
}

func newTrack(client Client, id string) *Track {
	t := &Track{ID: id, client: client, ref: ref{client: client, path: "track/" + id}}
	t.Mixer = newMixerDevice(client, id)
	return t
}

func (t *Track) Name() Property[string]       { return newProperty[string](t.ref, "name") }
func (t *Track) Mute() Property[bool]         { return newProperty[bool](t.ref, "mute") }
func (t *Track) Solo() Property[bool]         { return newProperty[bool](t.ref, "solo") }
func (t *Track) Arm() Property[bool]          { return newProperty[bool](t.ref, "arm") }
func (t *Track) CanBeArmed() Property[bool]   { return newProperty[bool](t.ref, "can_be_armed") }
func (t *Track) HasMidiInput() Property[bool]  { return newProperty[bool](t.ref, "has_midi_input") }
func (t *Track) HasAudioInput() Property[bool] { return newProperty[bool](t.ref, "has_audio_input") }
func (t *Track) PlayingSlotIndex() Property[int64] {
	return newProperty[int64](t.ref, "playing_slot_index")
}

func (t *Track) Fire(ctx context.Context, slotIndex int64) error {
	return t.ref.client.Call(ctx, t.ref.path, "fire", slotIndex)
}

// Select writes the track-selected state. There is no corresponding scalar
// property named "select" on the real object model; selection is driven
// through song.view.selected_track (see View.OnSelectedTrackChanged). This
// method exists for symmetry with the teacher's Track.Select endpoint and
// simply asks the DAW to make this track the selected one.
func (t *Track) Select(ctx context.Context) error {
	return t.ref.client.Call(ctx, t.ref.path, "select")
}

// Color fetches and normalizes the track color. Per spec.md §9's open
// question, the wire value may be either a packed 0xRRGGBB integer or a
// {red,green,blue} object; a third shape is reported as
// ErrUnsupportedColorShape rather than guessed at.
func (t *Track) Color(ctx context.Context) (RGB, error) {
	v, err := t.ref.get(ctx, "color")
	if err != nil {
		return RGB{}, err
	}
	return normalizeColor(v)
}

func (t *Track) OnColorChanged(cb func(RGB) error) (Unsubscribe, error) {
	return t.ref.bind("color", func(v any) {
		rgb, err := normalizeColor(v)
		if err != nil {
			rpcInLog.Warn("dropping malformed color push", "track", t.ID, "err", err)
			return
		}
		if err := cb(rgb); err != nil {
			rpcInLog.Error("color listener callback failed", "track", t.ID, "err", err)
		}
	})
}

func normalizeColor(v any) (RGB, error) {
	switch c := v.(type) {
	case int64:
		return rgbFromPacked(c), nil
	case int32:
		return rgbFromPacked(int64(c)), nil
	case int:
		return rgbFromPacked(int64(c)), nil
	case map[string]any:
		r, rok := toByte(c["red"])
		g, gok := toByte(c["green"])
		b, bok := toByte(c["blue"])
		if rok && gok && bok {
			return RGB{R: r, G: g, B: b}, nil
		}
	}
	return RGB{}, fmt.Errorf("%w: %T", ErrUnsupportedColorShape, v)
}

func rgbFromPacked(c int64) RGB {
	return RGB{
		R: uint8((c >> 16) & 0xFF),
		G: uint8((c >> 8) & 0xFF),
		B: uint8(c & 0xFF),
	}
}

func toByte(v any) (uint8, bool) {
	switch n := v.(type) {
	case int64:
		return uint8(n), true
	case int32:
		return uint8(n), true
	case int:
		return uint8(n), true
	case float64:
		return uint8(n), true
	default:
		return 0, false
	}
}
