// Package lyricsync keeps the current lyric line aligned with playback
// position.
package lyricsync

import (
	"errors"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/amm926616/april/internal/lyrics"
)

// WindowSize is the number of lines exposed around the current one.
const WindowSize = 5

// DefaultInterval is the default debounce threshold in seconds.
const DefaultInterval = 0.3

// Display text for states without a current line.
const (
	IntroText    = "(Instrumental Intro)"
	NoLyricsText = "No lyrics found"
)

var (
	ErrNotLoaded  = errors.New("lyricsync: no lyrics loaded")
	ErrNoPlayback = errors.New("lyricsync: no playback attached")
)

// State is the resolver's position relative to the lyric timeline.
type State int

const (
	Unloaded State = iota
	Loaded
	Intro
	Resolved
	EndOfTrack
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Intro:
		return "intro"
	case Resolved:
		return "resolved"
	case EndOfTrack:
		return "end"
	default:
		return "unknown"
	}
}

// Playback is the player surface the resolver drives during navigation.
type Playback interface {
	PositionMs() int64
	SeekTo(ms int64) error
	Paused() bool
	// SetResumePosition records where a paused player resumes from.
	SetResumePosition(ms int64)
}

// Cursor is the resolver's view of playback time.
type Cursor struct {
	Current       float64
	LastEvaluated float64
	Interval      float64
	// Index is the resolved line, -1 before the first line or when nothing
	// has been resolved yet.
	Index int
}

// Snapshot is an immutable view handed to listeners.
type Snapshot struct {
	State   State
	Index   int
	Time    float64 // start of the current line; first line during Intro
	Current string
	Next    string
	Window  [WindowSize]string
}

// Listener receives a snapshot whenever the resolved line changes.
type Listener func(Snapshot)

// Options configures a Resolver.
type Options struct {
	// Interval is the debounce threshold in seconds; zero means
	// DefaultInterval, negative disables debouncing.
	Interval float64
	Playback Playback
	Logger   *slog.Logger
}

// Resolver maps a playback position to a lyric line. Methods are safe to call
// from multiple goroutines, but position updates are meant to come from one
// stream at a time. Listeners run on the caller's goroutine after the
// internal lock is released.
type Resolver struct {
	mu        sync.Mutex
	lines     []lyrics.Line
	times     []float64
	state     State
	cursor    Cursor
	evaluated bool
	rendered  bool
	recompute int
	loadGen   int

	playback Playback
	logger   *slog.Logger

	listeners map[int]Listener
	nextID    int

	connGen int
	connOn  bool
}

func New(opts Options) *Resolver {
	interval := opts.Interval
	switch {
	case interval == 0:
		interval = DefaultInterval
	case interval < 0:
		interval = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		state:     Unloaded,
		cursor:    Cursor{Interval: interval, Index: -1},
		playback:  opts.Playback,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// SetPlayback attaches the player used for navigation seeks.
func (r *Resolver) SetPlayback(p Playback) {
	r.mu.Lock()
	r.playback = p
	r.mu.Unlock()
}

// Load replaces the lyric track and resets the cursor. A nil or empty track
// leaves the resolver Unloaded. Listeners are notified of the reset.
func (r *Resolver) Load(t *lyrics.Track) {
	r.mu.Lock()
	r.lines = nil
	r.times = nil
	r.state = Unloaded
	if t.Len() > 0 {
		r.lines = append([]lyrics.Line(nil), t.Lines...)
		r.times = t.Times()
		r.state = Loaded
	}
	r.cursor = Cursor{Interval: r.cursor.Interval, Index: -1}
	r.evaluated = false
	r.rendered = false
	r.recompute = 0
	r.loadGen++
	snap, ls := r.snapshotLocked(), r.listenersLocked()
	r.mu.Unlock()
	notify(ls, snap)
}

// OnPositionChanged feeds a playback position in seconds. It returns true when
// the position was far enough from the last evaluated one to trigger a
// recomputation. The first position after Load is always evaluated.
func (r *Resolver) OnPositionChanged(t float64) bool {
	r.mu.Lock()
	snap, ls, ok := r.evaluateLocked(t)
	r.mu.Unlock()
	notify(ls, snap)
	return ok
}

func (r *Resolver) evaluateLocked(t float64) (Snapshot, []Listener, bool) {
	r.cursor.Current = t
	if r.state == Unloaded {
		return Snapshot{}, nil, false
	}
	if r.evaluated && math.Abs(t-r.cursor.LastEvaluated) < r.cursor.Interval {
		return Snapshot{}, nil, false
	}
	r.evaluated = true
	r.cursor.LastEvaluated = t
	r.recompute++

	prev := r.cursor.Index
	ub := sort.Search(len(r.times), func(i int) bool { return r.times[i] > t })
	r.setIndexLocked(ub - 1)

	if r.rendered && r.cursor.Index == prev {
		return Snapshot{}, nil, true
	}
	r.rendered = true
	return r.snapshotLocked(), r.listenersLocked(), true
}

// setIndexLocked moves to idx (-1 for Intro) and derives the state.
func (r *Resolver) setIndexLocked(idx int) {
	r.cursor.Index = idx
	switch {
	case idx < 0:
		r.state = Intro
	case idx >= len(r.times)-1:
		r.state = EndOfTrack
	default:
		r.state = Resolved
	}
}

// Resolve returns the index i with times[i] <= t < times[i+1], -1 when t is
// before the first timestamp, or len(times)-1 at or past the last one.
func Resolve(times []float64, t float64) int {
	return sort.Search(len(times), func(i int) bool { return times[i] > t }) - 1
}

// Snapshot returns the current view.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Window returns the lines from index-2 to index+2.
func (r *Resolver) Window() [WindowSize]string {
	return r.Snapshot().Window
}

// Cursor returns a copy of the playback cursor.
func (r *Resolver) Cursor() Cursor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Recomputations counts evaluations since the last Load.
func (r *Resolver) Recomputations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recompute
}

func (r *Resolver) snapshotLocked() Snapshot {
	s := Snapshot{State: r.state, Index: r.cursor.Index}
	switch r.state {
	case Unloaded:
		s.Current = NoLyricsText
		return s
	case Loaded:
		s.Next = r.lines[0].Text
		s.Time = r.times[0]
		return s
	case Intro:
		s.Current = IntroText
		s.Time = r.times[0]
	default:
		s.Current = r.lines[s.Index].Text
		s.Time = r.times[s.Index]
	}
	if n := s.Index + 1; n < len(r.lines) {
		s.Next = r.lines[n].Text
	}
	half := WindowSize / 2
	for i := range s.Window {
		j := s.Index - half + i
		if j >= 0 && j < len(r.lines) {
			s.Window[i] = r.lines[j].Text
		}
	}
	return s
}

// Subscribe registers l and returns an id for Unsubscribe.
func (r *Resolver) Subscribe(l Listener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.listeners[r.nextID] = l
	return r.nextID
}

// Unsubscribe removes a listener. Unknown ids are ignored.
func (r *Resolver) Unsubscribe(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
}

func (r *Resolver) listenersLocked() []Listener {
	ids := make([]int, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = r.listeners[id]
	}
	return out
}

func notify(ls []Listener, s Snapshot) {
	for _, l := range ls {
		l(s)
	}
}
