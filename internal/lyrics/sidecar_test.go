package lyrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestSidecarPath(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "song.mp3")
	if _, err := SidecarPath(audio); !errors.Is(err, ErrNoLyrics) {
		t.Fatalf("expected ErrNoLyrics, got %v", err)
	}
	lrc := filepath.Join(dir, "song.lrc")
	if err := os.WriteFile(lrc, []byte("[00:01.00]hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := SidecarPath(audio)
	if err != nil || got != lrc {
		t.Fatalf("SidecarPath = %q, %v", got, err)
	}
}

func TestDecodeText(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("[00:01.00]你好")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("[00:01.00]héllo"), "[00:01.00]héllo"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "[00:01.00]x"...), "[00:01.00]x"},
		{"utf16le", []byte{0xFF, 0xFE, 'a', 0, 'b', 0}, "ab"},
		{"gbk", []byte(gbk), "[00:01.00]你好"},
	}
	for _, tc := range cases {
		got, err := DecodeText(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLoaderDeliversLatest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp3")
	b := filepath.Join(dir, "b.mp3")
	if err := os.WriteFile(filepath.Join(dir, "b.lrc"), []byte("\xEF\xBB\xBF[00:01.00]Hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	defer l.Close()
	l.Load(context.Background(), a)
	seq := l.Load(context.Background(), b)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case r := <-l.Results():
			if !l.IsCurrent(r.Seq) {
				continue
			}
			if r.Seq != seq || r.Err != nil {
				t.Fatalf("result = %+v", r)
			}
			if r.Value.AudioPath != b || r.Value.Track.Len() != 1 || r.Value.Track.Lines[0].Text != "Hello" {
				t.Fatalf("loaded = %+v", r.Value)
			}
			return
		case <-deadline:
			t.Fatalf("no result")
		}
	}
}

func TestLoaderMissingSidecarIsNotAnError(t *testing.T) {
	l := NewLoader()
	defer l.Close()
	l.Load(context.Background(), filepath.Join(t.TempDir(), "none.mp3"))
	select {
	case r := <-l.Results():
		if r.Err != nil || r.Value.Track != nil {
			t.Fatalf("result = %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no result")
	}
}
