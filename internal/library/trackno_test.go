package library

import "testing"

func TestExtractTrackNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"03/12", 3},
		{"7", 7},
		{"", TrackNumberUnknown},
		{"1/6", 1},
		{"11/12", 11},
		{" 4 ", TrackNumberUnknown},
		{" 7", TrackNumberUnknown},
		{" 2 /9", 2},
		{"A1", TrackNumberUnknown},
		{"x/10", TrackNumberUnknown},
		{"/10", TrackNumberUnknown},
		{UnknownTrackNumber, TrackNumberUnknown},
		{"-3", TrackNumberUnknown},
		{"99999999999999999999999", TrackNumberUnknown},
	}
	for _, tc := range cases {
		if got := ExtractTrackNumber(tc.raw); got != tc.want {
			t.Errorf("ExtractTrackNumber(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{0: "0:00", 59: "0:59", 61: "1:01", 600: "10:00", -5: "0:00"}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
