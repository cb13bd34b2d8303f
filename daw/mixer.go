package daw

import "strconv"

// MixerDevice mirrors the real object's volume, panning, and ordered sends
// (one scalar per return track), per spec.md's data model.
type MixerDevice struct {
	client Client
	ref    ref
}

func newMixerDevice(client Client, trackID string) *MixerDevice {
	return &MixerDevice{client: client, ref: ref{client: client, path: "track/" + trackID + "/mixer"}}
}

func (m *MixerDevice) Volume() Property[float64]  { return newProperty[float64](m.ref, "volume") }
func (m *MixerDevice) Panning() Property[float64] { return newProperty[float64](m.ref, "panning") }

// Send returns the property handle for the send at index i. Sends are
// rebuilt whenever return_tracks changes (spec.md's MixerHandle cache), so
// callers should not hold onto a Send handle across such a change.
func (m *MixerDevice) Send(i int) Property[float64] {
	return newProperty[float64](m.ref, sendPropName(i))
}

func sendPropName(i int) string {
	return "sends/" + strconv.Itoa(i)
}
