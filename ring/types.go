package ring

import (
	"strconv"

	"github.com/ringsurface/corebridge/daw"
)

// RGB is the normalized track/clip color, re-exported from package daw so
// callers of package ring never need to import daw directly just to read an
// InfoEvent or SelectedEvent.
type RGB = daw.RGB

// TrackState is the cached subset of a track's properties the core renders,
// per spec.md's data model. It is the "complete TrackState" invariant I1
// refers to.
type TrackState struct {
	ID         string
	Name       string
	Color      RGB
	IsMidi     bool
	Mute       bool
	Solo       bool
	Arm        bool
	CanBeArmed bool
	Volume     float64
	Panning    float64
	Sends      []float64
	IsMaster   bool
}

// mixerHandle caches the remote-object handles used to write to a track's
// mixer without re-traversing it on every call (spec.md's MixerHandle
// cache). It is invalidated when the track leaves the ring or return_tracks
// changes.
type mixerHandle struct {
	volume  daw.Property[float64]
	panning daw.Property[float64]
	sends   []daw.Property[float64]
}

// ActiveProperty is the tagged variant spec.md §9 calls for in place of
// stringly-typed "send:N" parsing at call sites.
type ActiveProperty struct {
	kind     activePropertyKind
	sendIdx  int
}

type activePropertyKind int

const (
	PropVolume activePropertyKind = iota
	PropPanning
	PropSend
	PropSelectedParameter
)

func Volume() ActiveProperty            { return ActiveProperty{kind: PropVolume} }
func Panning() ActiveProperty           { return ActiveProperty{kind: PropPanning} }
func Send(index int) ActiveProperty     { return ActiveProperty{kind: PropSend, sendIdx: index} }
func SelectedParameter() ActiveProperty { return ActiveProperty{kind: PropSelectedParameter} }

func (p ActiveProperty) Kind() activePropertyKind { return p.kind }
func (p ActiveProperty) SendIndex() int           { return p.sendIdx }

func (p ActiveProperty) String() string {
	switch p.kind {
	case PropVolume:
		return "volume"
	case PropPanning:
		return "panning"
	case PropSend:
		return "send:" + strconv.Itoa(p.sendIdx)
	case PropSelectedParameter:
		return "selected_parameter"
	default:
		return "unknown"
	}
}
