// Package ring implements the core of the bridge (spec.md §2): a stateful
// subscription engine that maintains a differential set of event listeners
// over a sliding window ("ring") of DAW tracks, keeps a per-entity cache
// consistent with a remote system it does not control, and forwards user
// intents from a hardware surface back to the DAW.
//
// RingManager is not safe for concurrent use. Per spec.md §5, all mutation
// of its state happens on a single logical worker; callers (the external
// command-dispatch collaborator) are expected to serialize calls the same
// way a cooperative single-threaded RPC loop would.
package ring

import (
	"context"
	"time"

	"github.com/ringsurface/corebridge/daw"
)

// DefaultRPCTimeout bounds every round trip this package makes to the DAW.
// spec.md §5 says the core enforces no per-operation timeout because the
// transport is assumed reliable; this default exists only to keep a wedged
// transport from hanging test suites and the single worker forever, and can
// be overridden via WithRPCTimeout.
const DefaultRPCTimeout = 5 * time.Second

// RingManager is the engine described across spec.md §2-§5. Construct one
// with New, call Init, then SetupRing.
type RingManager struct {
	song       *daw.Song
	sink       Sink
	rpcTimeout time.Duration

	ringSubs   *SubscriptionGroup
	globalSubs *SubscriptionGroup

	width       int
	scenes      int
	trackOffset int
	sceneOffset int

	// visibleTracks is refreshed at Init, whenever the tracks listener
	// fires, and immediately before NavigateRing -- spec.md §9's open
	// question on fold/unfold awareness.
	visibleTracks []*daw.Track

	currentRingTrackIds []string
	ringIndexByTrackId  map[string]int
	trackStates         map[string]*TrackState
	mixerCache          map[string]*mixerHandle

	numSends      int    // len(return_tracks), used to size new mixer handles
	masterTrackID string // song.master_track, read once at Init

	focus focusState

	destroyed bool
}

type Option func(*RingManager)

func WithRPCTimeout(d time.Duration) Option {
	return func(m *RingManager) { m.rpcTimeout = d }
}

// New constructs a RingManager. It performs no RPC; call Init to wire the
// focus subsystem and global listeners (spec.md §3's Lifecycle).
func New(song *daw.Song, sink Sink, opts ...Option) *RingManager {
	m := &RingManager{
		song:               song,
		sink:               sink,
		rpcTimeout:         DefaultRPCTimeout,
		ringSubs:           NewSubscriptionGroup(),
		globalSubs:         NewSubscriptionGroup(),
		ringIndexByTrackId: make(map[string]int),
		trackStates:        make(map[string]*TrackState),
		mixerCache:         make(map[string]*mixerHandle),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.focus.m = m
	return m
}

func (m *RingManager) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.rpcTimeout)
}

// Init creates the focus subscriptions and global list listeners but leaves
// the ring empty (spec.md §3's Lifecycle). Call SetupRing afterward to
// populate it.
func (m *RingManager) Init() error {
	if err := m.refreshReturnTrackCount(); err != nil {
		coreLog.Warn("initial return_tracks read failed; sends will be sized on first resync", "err", err)
	}
	if err := m.refreshVisibleTracks(); err != nil {
		coreLog.Warn("initial visible_tracks read failed", "err", err)
	}
	if err := m.refreshMasterTrack(); err != nil {
		coreLog.Warn("initial master_track read failed; IsMaster will be wrong until a later read succeeds", "err", err)
	}

	m.globalSubs.Add("song:tracks", m.subscribeTracksChanged())
	m.globalSubs.Add("song:return_tracks", m.subscribeReturnTracksChanged())

	return m.focus.init()
}

func (m *RingManager) subscribeTracksChanged() func() {
	unsub, err := m.song.OnTracksChanged(func(_ []*daw.Track) {
		_ = m.refreshVisibleTracks()
		_ = m.syncRingListeners()
	})
	if err != nil {
		coreLog.Error("failed to subscribe to tracks list", "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) subscribeReturnTracksChanged() func() {
	unsub, err := m.song.OnReturnTracksChanged(func(_ []*daw.Track) {
		_ = m.refreshReturnTrackCount()
		// sends are rebuilt for every resident track, per spec.md's
		// MixerHandle cache invalidation rule.
		for id, st := range m.trackStates {
			m.rebuildSendsFor(id)
			if st.IsMaster {
				continue
			}
			m.ringSubs.RemoveByPrefix("track:" + id + ":send:")
			m.buildSends(m.song.Track(id), st)
		}
		m.sendFullSync()
	})
	if err != nil {
		coreLog.Error("failed to subscribe to return_tracks list", "err", err)
		return func() {}
	}
	return func() { unsub() }
}

func (m *RingManager) refreshReturnTrackCount() error {
	ctx, cancel := m.ctx()
	defer cancel()
	rt, err := m.song.ReturnTracks(ctx)
	if err != nil {
		return err
	}
	m.numSends = len(rt)
	return nil
}

func (m *RingManager) refreshMasterTrack() error {
	ctx, cancel := m.ctx()
	defer cancel()
	master, err := m.song.MasterTrack(ctx)
	if err != nil {
		return err
	}
	m.masterTrackID = master.ID
	return nil
}

func (m *RingManager) refreshVisibleTracks() error {
	ctx, cancel := m.ctx()
	defer cancel()
	tracks, err := m.song.VisibleTracks(ctx)
	if err != nil {
		return err
	}
	m.visibleTracks = tracks
	return nil
}

// SetupRing installs the window dimensions, asks the DAW to align its
// session box with ours, and runs the first diff (spec.md §4.2).
func (m *RingManager) SetupRing(width, scenes, trackOffset, sceneOffset int) error {
	m.width = width
	m.scenes = scenes
	m.trackOffset = trackOffset
	m.sceneOffset = sceneOffset

	ctx, cancel := m.ctx()
	defer cancel()
	if err := m.song.SetupSessionBox(ctx, int64(width), int64(scenes)); err != nil {
		coreLog.Error("failed to set up session box", "err", err)
	}
	if err := m.song.SetSessionOffset(ctx, int64(trackOffset), int64(sceneOffset)); err != nil {
		coreLog.Error("failed to set session offset", "err", err)
	}

	return m.syncRingListeners()
}

// SetOffset repositions the window without changing its dimensions.
func (m *RingManager) SetOffset(trackOffset, sceneOffset int) error {
	m.trackOffset = trackOffset
	m.sceneOffset = sceneOffset

	ctx, cancel := m.ctx()
	defer cancel()
	if err := m.song.SetSessionOffset(ctx, int64(trackOffset), int64(sceneOffset)); err != nil {
		coreLog.Error("failed to set session offset", "err", err)
	}

	return m.syncRingListeners()
}

type NavDirection int

const (
	NavLeft NavDirection = iota
	NavRight
)

// NavigateRing refreshes the visible-track list (fold/unfold may have
// changed it), clamps the offset by one step in dir, and if the offset
// actually changed, calls SetOffset and asks the DAW to select the track
// now at ring index 0 (spec.md §4.2). At the boundary (P9) it is a no-op:
// no diff, no emission.
func (m *RingManager) NavigateRing(dir NavDirection) error {
	if err := m.refreshVisibleTracks(); err != nil {
		coreLog.Warn("visible_tracks refresh before navigation failed; using stale list", "err", err)
	}

	delta := 1
	if dir == NavLeft {
		delta = -1
	}
	newOffset := clamp(m.trackOffset+delta, 0, maxOffset(len(m.visibleTracks), m.width))
	if newOffset == m.trackOffset {
		return nil
	}
	if err := m.SetOffset(newOffset, m.sceneOffset); err != nil {
		return err
	}

	if len(m.currentRingTrackIds) == 0 {
		return nil
	}
	ctx, cancel := m.ctx()
	defer cancel()
	return m.song.Track(m.currentRingTrackIds[0]).Select(ctx)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxOffset(numTracks, width int) int {
	if numTracks-width < 0 {
		return 0
	}
	return numTracks - width
}

// syncRingListeners is the window diff engine, component C2 from spec.md
// §4.2, run any time the window's contents could have changed: after
// SetupRing/SetOffset, and whenever the tracks list itself changes.
//
//  1. Compute the new window W = visibleTracks[trackOffset : trackOffset+width].
//  2. Removed = currentRingTrackIds - W; tear each down before anything else
//     is touched, so a track that re-enters at a different index starts clean.
//  3. Replace currentRingTrackIds and rebuild ringIndexByTrackId from W,
//     so every event emitted by step 4's listeners uses the new indices.
//  4. Added = W - the previous currentRingTrackIds; build each in ring order.
//  5. Re-run sendFullSync so the surface always holds a complete, consistent
//     snapshot after any window change (spec.md's invariant I1).
func (m *RingManager) syncRingListeners() error {
	window := m.windowTrackIDs()

	oldSet := make(map[string]struct{}, len(m.currentRingTrackIds))
	for _, id := range m.currentRingTrackIds {
		oldSet[id] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(window))
	for _, id := range window {
		newSet[id] = struct{}{}
	}

	for _, id := range m.currentRingTrackIds {
		if _, stillPresent := newSet[id]; stillPresent {
			continue
		}
		m.ringSubs.RemoveByPrefix("track:" + id + ":")
		delete(m.trackStates, id)
		delete(m.mixerCache, id)
	}

	m.currentRingTrackIds = window
	m.ringIndexByTrackId = make(map[string]int, len(window))
	for idx, id := range window {
		m.ringIndexByTrackId[id] = idx
	}

	for _, id := range window {
		if _, alreadyResident := oldSet[id]; alreadyResident {
			continue
		}
		m.buildTrack(id)
	}

	m.sendFullSync()
	return nil
}

func (m *RingManager) windowTrackIDs() []string {
	start := m.trackOffset
	if start > len(m.visibleTracks) {
		start = len(m.visibleTracks)
	}
	end := start + m.width
	if end > len(m.visibleTracks) {
		end = len(m.visibleTracks)
	}
	window := make([]string, 0, end-start)
	for _, t := range m.visibleTracks[start:end] {
		window = append(window, t.ID)
	}
	return window
}

// Destroy tears down every subscription in every group and clears all
// caches (spec.md §3's Lifecycle). Reuse after Destroy is undefined.
func (m *RingManager) Destroy() {
	m.ringSubs.Clear()
	m.globalSubs.Clear()
	m.focus.teardown()
	m.currentRingTrackIds = nil
	m.ringIndexByTrackId = make(map[string]int)
	m.trackStates = make(map[string]*TrackState)
	m.mixerCache = make(map[string]*mixerHandle)
	m.destroyed = true
}

// RequestFullState re-emits a complete snapshot without any state change,
// per the "reads C4 and emits synthesized events" control-flow path in
// spec.md §2.
func (m *RingManager) RequestFullState() {
	m.sendFullSync()
	m.focus.emitCurrentTransport()
}
