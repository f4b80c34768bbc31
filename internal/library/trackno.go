package library

import (
	"math"
	"strconv"
	"strings"
)

// TrackNumberUnknown sorts after every real track number.
const TrackNumberUnknown = math.MaxInt

// ExtractTrackNumber parses a raw track tag. "N/M" yields N, a plain number
// yields itself, anything else yields TrackNumberUnknown. Spaces are
// tolerated around N in the slash form only.
func ExtractTrackNumber(raw string) int {
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	if raw == "" || !isDigits(raw) {
		return TrackNumberUnknown
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return TrackNumberUnknown
	}
	return n
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
