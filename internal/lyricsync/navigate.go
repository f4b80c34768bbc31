package lyricsync

import (
	"context"
	"log/slog"
)

// AdvanceToNext seeks to the line after the current one. From the intro it
// goes to the first line; past the last line it wraps to the first.
func (r *Resolver) AdvanceToNext() error {
	return r.navigate(func(idx, n int) int {
		next := idx + 1
		if idx < 0 || next >= n {
			return 0
		}
		return next
	})
}

// AdvanceToPrevious seeks to the line before the current one. From the intro
// it goes to the first line; before the first line it wraps to the last.
func (r *Resolver) AdvanceToPrevious() error {
	return r.navigate(func(idx, n int) int {
		if idx < 0 {
			return 0
		}
		if idx == 0 {
			return n - 1
		}
		return idx - 1
	})
}

// JumpToLineStart seeks to the start of the current line, or to the first
// line during the intro.
func (r *Resolver) JumpToLineStart() error {
	return r.navigate(func(idx, n int) int {
		if idx < 0 {
			return 0
		}
		return idx
	})
}

// navigate seeks playback to line target(index, lineCount) and then moves
// the cursor there. A failed seek leaves the cursor alone. If a new track was
// loaded while seeking, the result is dropped.
func (r *Resolver) navigate(target func(idx, n int) int) error {
	r.mu.Lock()
	if r.state == Unloaded {
		r.mu.Unlock()
		return ErrNotLoaded
	}
	pb := r.playback
	if pb == nil {
		r.mu.Unlock()
		return ErrNoPlayback
	}
	gen := r.loadGen
	idx := target(r.cursor.Index, len(r.times))
	ts := r.times[idx]
	r.mu.Unlock()

	ms := int64(ts * 1000)
	if err := pb.SeekTo(ms); err != nil {
		r.logger.Warn("lyric seek failed", slog.Int64("ms", ms), slog.Any("err", err))
		return err
	}
	if pb.Paused() {
		pb.SetResumePosition(ms)
	}

	r.mu.Lock()
	if gen != r.loadGen {
		r.mu.Unlock()
		return nil
	}
	prev := r.cursor.Index
	r.setIndexLocked(idx)
	r.cursor.Current = ts
	r.cursor.LastEvaluated = ts
	r.evaluated = true
	var (
		snap Snapshot
		ls   []Listener
	)
	if !r.rendered || idx != prev {
		r.rendered = true
		snap, ls = r.snapshotLocked(), r.listenersLocked()
	}
	r.mu.Unlock()
	notify(ls, snap)
	return nil
}

// Connect starts consuming positions (in seconds) from ch on a dispatcher
// goroutine until ctx ends, ch closes or Disconnect is called. A previous
// connection is replaced. When playback is attached its current position is
// evaluated immediately.
func (r *Resolver) Connect(ctx context.Context, ch <-chan float64) {
	r.mu.Lock()
	r.connGen++
	gen := r.connGen
	r.connOn = true
	pb := r.playback
	r.mu.Unlock()

	if pb != nil {
		r.onStream(gen, float64(pb.PositionMs())/1000)
	}

	go func() {
		defer r.detach(gen)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-ch:
				if !ok {
					return
				}
				if !r.onStream(gen, t) {
					return
				}
			}
		}
	}()
}

// Disconnect detaches from the position stream. Calling it while detached is
// a no-op.
func (r *Resolver) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connOn {
		return
	}
	r.connOn = false
	r.connGen++
}

// Connected reports whether a position stream is attached.
func (r *Resolver) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connOn
}

// onStream applies t if gen is still the live connection.
func (r *Resolver) onStream(gen int, t float64) bool {
	r.mu.Lock()
	if gen != r.connGen {
		r.mu.Unlock()
		return false
	}
	snap, ls, _ := r.evaluateLocked(t)
	r.mu.Unlock()
	notify(ls, snap)
	return true
}

func (r *Resolver) detach(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen == r.connGen {
		r.connOn = false
	}
}
