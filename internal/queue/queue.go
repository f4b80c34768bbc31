package queue

import (
	"errors"
	"math/rand"

	"github.com/amm926616/april/internal/library"
)

type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

var (
	ErrEmpty      = errors.New("queue: empty")
	ErrEndOfQueue = errors.New("queue: end of queue")
	ErrRange      = errors.New("queue: index out of range")
)

// Queue is an ordered list of library tracks with a play position.
// Tracks are referenced by their index in the library arena.
type Queue struct {
	items      []library.TrackID
	current    int
	repeatMode RepeatMode
	shuffled   bool
	original   []library.TrackID
	rng        *rand.Rand
}

func New() *Queue {
	return &Queue{current: -1}
}

// Seeded makes shuffle deterministic.
func (q *Queue) Seeded(seed int64) *Queue {
	q.rng = rand.New(rand.NewSource(seed))
	return q
}

func (q *Queue) Items() []library.TrackID {
	out := make([]library.TrackID, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) CurrentIndex() int { return q.current }

func (q *Queue) Current() (library.TrackID, error) {
	if q.current < 0 || q.current >= len(q.items) {
		return 0, ErrEmpty
	}
	return q.items[q.current], nil
}

// Replace swaps the queue contents and positions it on start.
// Shuffle is cleared.
func (q *Queue) Replace(ids []library.TrackID, start int) error {
	if len(ids) == 0 {
		q.Clear()
		return nil
	}
	if start < 0 || start >= len(ids) {
		return ErrRange
	}
	q.items = append([]library.TrackID(nil), ids...)
	q.current = start
	q.shuffled = false
	q.original = nil
	return nil
}

func (q *Queue) Add(ids ...library.TrackID) {
	q.items = append(q.items, ids...)
	if q.shuffled {
		q.original = append(q.original, ids...)
	}
	if q.current == -1 && len(q.items) > 0 {
		q.current = 0
	}
}

// Jump moves to the first occurrence of id.
func (q *Queue) Jump(id library.TrackID) bool {
	for i, it := range q.items {
		if it == id {
			q.current = i
			return true
		}
	}
	return false
}

func (q *Queue) ToggleShuffle() bool {
	q.shuffled = !q.shuffled
	cur, err := q.Current()
	if q.shuffled {
		q.original = append([]library.TrackID(nil), q.items...)
		shuffle := rand.Shuffle
		if q.rng != nil {
			shuffle = q.rng.Shuffle
		}
		shuffle(len(q.items), func(i, j int) {
			q.items[i], q.items[j] = q.items[j], q.items[i]
		})
	} else if q.original != nil {
		q.items = q.original
		q.original = nil
	}
	if err == nil {
		q.Jump(cur)
	}
	return q.shuffled
}

func (q *Queue) IsShuffled() bool { return q.shuffled }

func (q *Queue) CycleRepeat() RepeatMode {
	q.repeatMode = (q.repeatMode + 1) % 3
	return q.repeatMode
}

func (q *Queue) RepeatMode() RepeatMode { return q.repeatMode }

// Next advances and returns the new current track. With repeat off the
// last track yields ErrEndOfQueue and the position is unchanged.
func (q *Queue) Next() (library.TrackID, error) {
	if len(q.items) == 0 {
		return 0, ErrEmpty
	}
	switch {
	case q.repeatMode == RepeatOne:
		if q.current == -1 {
			q.current = 0
		}
	case q.current < len(q.items)-1:
		q.current++
	case q.repeatMode == RepeatAll:
		q.current = 0
	default:
		return 0, ErrEndOfQueue
	}
	return q.items[q.current], nil
}

// Prev steps back; with repeat-all the first track wraps to the last.
func (q *Queue) Prev() (library.TrackID, error) {
	if len(q.items) == 0 {
		return 0, ErrEmpty
	}
	switch {
	case q.current > 0:
		q.current--
	case q.repeatMode == RepeatAll:
		q.current = len(q.items) - 1
	}
	return q.items[q.current], nil
}

func (q *Queue) Clear() {
	q.items = nil
	q.original = nil
	q.shuffled = false
	q.current = -1
}
