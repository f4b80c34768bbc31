// Package player drives an mpv process over its JSON IPC socket.
package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotConnected is returned by commands sent before Start succeeded or
// after Stop.
var ErrNotConnected = errors.New("mpv not connected")

// Event is one state update from mpv. Only the fields that changed are set.
type Event struct {
	TimePos  *float64
	Duration *float64
	Paused   *bool
	Ended    bool // the file played to its end
	Err      error
}

// Options configures the Controller.
type Options struct {
	MPVPath string
	IPCPath string
	Logger  *slog.Logger
	// DisableProcess connects to an already running mpv instead of
	// spawning one.
	DisableProcess bool
}

// Controller owns the mpv process and its IPC connection. It caches the last
// reported position and pause state so Playback queries need no round trip.
type Controller struct {
	opts   Options
	cmd    *exec.Cmd
	conn   net.Conn
	mu     sync.Mutex
	events chan Event

	stateMu  sync.Mutex
	posMs    int64
	paused   bool
	resumeMs int64 // -1 when unset
}

func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IPCPath == "" {
		opts.IPCPath = filepath.Join(os.TempDir(), "april-mpv.sock")
	}
	return &Controller{
		opts:     opts,
		events:   make(chan Event, 32),
		resumeMs: -1,
	}
}

// Start launches mpv (unless disabled), connects to the IPC socket and
// begins emitting events.
func (c *Controller) Start(ctx context.Context) error {
	if !c.opts.DisableProcess {
		c.cmd = exec.CommandContext(ctx, c.opts.MPVPath,
			"--idle=yes",
			"--no-terminal",
			"--no-video",
			"--input-ipc-server="+c.opts.IPCPath,
		)
		if err := c.cmd.Start(); err != nil {
			return fmt.Errorf("start mpv: %w", err)
		}
		c.opts.Logger.Debug("mpv started", slog.Int("pid", c.cmd.Process.Pid))
	}
	if err := c.connect(ctx); err != nil {
		return err
	}
	for i, prop := range []string{"time-pos", "duration", "pause"} {
		if err := c.command("observe_property", i+1, prop); err != nil {
			return fmt.Errorf("observe %s: %w", prop, err)
		}
	}
	go c.readLoop(c.conn)
	return nil
}

// connect dials the socket, backing off while mpv creates it.
func (c *Controller) connect(ctx context.Context) error {
	var d net.Dialer
	delay := 50 * time.Millisecond
	var err error
	for attempt := 1; attempt <= 10; attempt++ {
		var conn net.Conn
		conn, err = d.DialContext(ctx, "unix", c.opts.IPCPath)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("connect mpv ipc: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay = min(delay*2, 500*time.Millisecond)
	}
	c.opts.Logger.Error("mpv ipc unreachable", slog.String("ipc_path", c.opts.IPCPath), slog.Any("err", err))
	return fmt.Errorf("connect mpv ipc: %w", err)
}

// Events returns the event channel. It closes when the IPC connection ends.
func (c *Controller) Events() <-chan Event { return c.events }

func (c *Controller) command(args ...any) error {
	b, err := json.Marshal(map[string]any{"command": args})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_, err = c.conn.Write(append(b, '\n'))
	return err
}

// Play loads a local file into mpv, replacing the current one.
func (c *Controller) Play(path string) error {
	c.stateMu.Lock()
	c.posMs = 0
	c.resumeMs = -1
	c.stateMu.Unlock()
	if err := c.command("loadfile", path, "replace"); err != nil {
		c.opts.Logger.Error("mpv loadfile failed", slog.String("path", path), slog.Any("err", err))
		return err
	}
	return nil
}

// TogglePause sets the pause state. Unpausing applies a pending resume
// position first.
func (c *Controller) TogglePause(paused bool) error {
	if !paused {
		c.stateMu.Lock()
		resume := c.resumeMs
		c.resumeMs = -1
		c.stateMu.Unlock()
		if resume >= 0 {
			if err := c.SeekTo(resume); err != nil {
				return err
			}
		}
	}
	if err := c.command("set_property", "pause", paused); err != nil {
		return err
	}
	c.stateMu.Lock()
	c.paused = paused
	c.stateMu.Unlock()
	return nil
}

// Seek moves playback relative to the current position.
func (c *Controller) Seek(deltaSeconds float64) error {
	return c.command("seek", deltaSeconds, "relative")
}

// SeekTo moves playback to an absolute position in milliseconds.
func (c *Controller) SeekTo(ms int64) error {
	ms = max(ms, 0)
	if err := c.command("seek", float64(ms)/1000, "absolute"); err != nil {
		c.opts.Logger.Warn("mpv seek failed", slog.Int64("ms", ms), slog.Any("err", err))
		return err
	}
	c.stateMu.Lock()
	c.posMs = ms
	c.stateMu.Unlock()
	return nil
}

// PositionMs returns the last known playback position.
func (c *Controller) PositionMs() int64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.posMs
}

// Paused reports the last known pause state.
func (c *Controller) Paused() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.paused
}

// SetResumePosition records where playback continues after the next unpause.
func (c *Controller) SetResumePosition(ms int64) {
	c.stateMu.Lock()
	c.resumeMs = ms
	c.stateMu.Unlock()
}

// Stop asks mpv to quit, closes the connection and reaps the process. It is
// safe to call more than once.
func (c *Controller) Stop() error {
	_ = c.command("quit")
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
		c.cmd = nil
	}
	return nil
}

type ipcMessage struct {
	Event  string `json:"event"`
	Name   string `json:"name"`
	Data   any    `json:"data"`
	Reason string `json:"reason"`
}

func (c *Controller) readLoop(conn net.Conn) {
	defer close(c.events)
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			c.events <- Event{Err: fmt.Errorf("decode mpv message: %w", err)}
			continue
		}
		switch msg.Event {
		case "property-change":
			if ev, ok := c.propertyChange(msg); ok {
				c.events <- ev
			}
		case "end-file":
			// "stop" follows a loadfile replace; only "eof" means the track finished.
			c.events <- Event{Ended: msg.Reason == "eof"}
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.events <- Event{Err: err}
	}
}

func (c *Controller) propertyChange(msg ipcMessage) (Event, bool) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	switch msg.Name {
	case "time-pos":
		if v, ok := msg.Data.(float64); ok {
			c.posMs = int64(v * 1000)
			return Event{TimePos: &v}, true
		}
	case "duration":
		if v, ok := msg.Data.(float64); ok {
			return Event{Duration: &v}, true
		}
	case "pause":
		if b, ok := msg.Data.(bool); ok {
			c.paused = b
			return Event{Paused: &b}, true
		}
	}
	return Event{}, false
}
