package player

import "context"

// SplitPositions fans a controller's events into a stream of time-pos values
// in seconds and a stream of every other event. Both outputs close when in
// closes or ctx ends. A slow position reader only ever misses stale values.
func SplitPositions(ctx context.Context, in <-chan Event) (<-chan float64, <-chan Event) {
	positions := make(chan float64, 1)
	rest := make(chan Event, 16)
	go func() {
		defer close(positions)
		defer close(rest)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				if ev.TimePos != nil {
					select {
					case <-positions:
					default:
					}
					positions <- *ev.TimePos
					continue
				}
				select {
				case rest <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return positions, rest
}
