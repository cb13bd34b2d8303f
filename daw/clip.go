package daw

import (
	"context"
	"strconv"
)

// Clip mirrors the real object's name and color; the core only ever looks
// at the clip currently playing on the selected track (spec.md's
// playingClipName/playingClipColor).
type Clip struct {
	client Client
	ref    ref
}

func newClip(client Client, trackID string, slotIndex int64) *Clip {
	path := "track/" + trackID + "/clip_slot/" + strconv.FormatInt(slotIndex, 10)
	return &Clip{client: client, ref: ref{client: client, path: path}}
}

func (c *Clip) Name() Property[string] { return newProperty[string](c.ref, "name") }

// HasClip reports whether this clip slot actually holds a clip, per
// spec.md's track clip_slots property. An empty slot (has_clip == false)
// is treated the same as no slot playing at all.
func (c *Clip) HasClip() Property[bool] { return newProperty[bool](c.ref, "has_clip") }

func (c *Clip) Color(ctx context.Context) (RGB, error) {
	v, err := c.ref.get(ctx, "color")
	if err != nil {
		return RGB{}, err
	}
	return normalizeColor(v)
}

func (c *Clip) OnColorChanged(cb func(RGB) error) (Unsubscribe, error) {
	return c.ref.bind("color", func(v any) {
		rgb, err := normalizeColor(v)
		if err != nil {
			return
		}
		_ = cb(rgb)
	})
}

// PlayingClip returns the clip for a track's playing_slot_index, or nil if
// no slot is playing (index < 0) or the slot at that index holds no clip
// (has_clip == false), matching spec.md §4.5's "empty when slot < 0 or
// empty slot".
func (t *Track) PlayingClip(ctx context.Context) (*Clip, error) {
	idx, err := t.PlayingSlotIndex().Get(ctx)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, nil
	}
	clip := newClip(t.client, t.ID, idx)
	hasClip, err := clip.HasClip().Get(ctx)
	if err != nil {
		return nil, err
	}
	if !hasClip {
		return nil, nil
	}
	return clip, nil
}

func (t *Track) OnPlayingSlotIndexChanged(cb func(int64) error) (Unsubscribe, error) {
	return t.PlayingSlotIndex().Bind(cb)
}
