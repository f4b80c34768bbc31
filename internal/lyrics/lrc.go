// Package lyrics parses timestamped LRC lyric files.
package lyrics

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	lineRe = regexp.MustCompile(`^\[(\d{2}):(\d{2}\.\d+)\](.*)`)
	tagRe  = regexp.MustCompile(`^\[([A-Za-z]+):([^\]]*)\]\s*$`)
)

// Line is one timed lyric.
type Line struct {
	Time float64 // seconds from track start
	Text string
}

// Track holds lines sorted by strictly increasing Time, plus header tags
// such as ti, ar and al.
type Track struct {
	Lines []Line
	Tags  map[string]string
}

// Len returns the number of timed lines.
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Lines)
}

// Times returns the timestamps in order.
func (t *Track) Times() []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, len(t.Lines))
	for i, l := range t.Lines {
		out[i] = l.Time
	}
	return out
}

// maxLineLen bounds a single LRC line. Longer lines are dropped.
const maxLineLen = 1 << 20

// Parse parses LRC text. Lines that are not "[mm:ss.xx]text" or whose text
// is empty are skipped. When a timestamp repeats, the later line wins.
func Parse(text string) *Track {
	p := newParser()
	for _, line := range strings.Split(text, "\n") {
		p.add(line)
	}
	return p.track()
}

// ParseReader parses LRC from r, checking ctx between lines.
func ParseReader(ctx context.Context, r io.Reader) (*Track, error) {
	p := newParser()
	br := bufio.NewReaderSize(r, 64*1024)
	for n := 1; ; n++ {
		if n%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			p.add(line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read lrc: %w", err)
		}
	}
	return p.track(), nil
}

type parser struct {
	byTime map[float64]string
	tags   map[string]string
}

func newParser() *parser {
	return &parser{byTime: make(map[float64]string), tags: make(map[string]string)}
}

func (p *parser) add(line string) {
	if len(line) > maxLineLen {
		return
	}
	line = strings.TrimRight(line, "\r\n")
	if m := lineRe.FindStringSubmatch(line); m != nil {
		text := strings.TrimSpace(m[3])
		if text == "" {
			return
		}
		mins, _ := strconv.ParseFloat(m[1], 64)
		sec, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return
		}
		p.byTime[mins*60+sec] = text
		return
	}
	if m := tagRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		p.tags[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
	}
}

func (p *parser) track() *Track {
	t := &Track{Lines: make([]Line, 0, len(p.byTime)), Tags: p.tags}
	for ts, text := range p.byTime {
		t.Lines = append(t.Lines, Line{Time: ts, Text: text})
	}
	sort.Slice(t.Lines, func(i, j int) bool { return t.Lines[i].Time < t.Lines[j].Time })
	return t
}

// Encode renders a track back to LRC. Header tags come first in key order.
// Parsing the output yields the same lines.
func Encode(t *Track) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	keys := make([]string, 0, len(t.Tags))
	for k := range t.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "[%s:%s]\n", k, t.Tags[k])
	}
	for _, l := range t.Lines {
		fmt.Fprintf(&b, "[%s]%s\n", FormatTimestamp(l.Time), l.Text)
	}
	return b.String()
}

// FormatTimestamp renders seconds as mm:ss.xx, widening the fraction when
// two digits would not parse back to the same value.
func FormatTimestamp(t float64) string {
	if t < 0 {
		t = 0
	}
	mins := math.Floor(t / 60)
	sec := t - mins*60
	var s string
	for _, prec := range []int{2, 3, 6, -1} {
		s = strconv.FormatFloat(sec, 'f', prec, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		if dot := strings.IndexByte(s, '.'); dot < 2 {
			s = strings.Repeat("0", 2-dot) + s
		}
		if back, err := strconv.ParseFloat(s, 64); err == nil && back < 60 && mins*60+back == t {
			break
		}
	}
	return fmt.Sprintf("%02d:%s", int(mins), s)
}
