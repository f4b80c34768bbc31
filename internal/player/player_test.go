package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeMPV accepts one IPC connection and records the commands it receives.
type fakeMPV struct {
	conn     net.Conn
	commands chan []any
}

func startFake(t *testing.T) (*Controller, *fakeMPV) {
	t.Helper()
	socketPath := filepath.Join(os.TempDir(), "april-player-test.sock")
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, _ := ln.Accept()
		accepted <- conn
	}()

	ctrl := New(Options{
		MPVPath:        "mpv",
		IPCPath:        socketPath,
		DisableProcess: true,
	})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start controller: %v", err)
	}
	fake := &fakeMPV{conn: <-accepted, commands: make(chan []any, 32)}
	t.Cleanup(func() { fake.conn.Close() })
	go func() {
		sc := bufio.NewScanner(fake.conn)
		for sc.Scan() {
			var msg struct {
				Command []any `json:"command"`
			}
			if json.Unmarshal(sc.Bytes(), &msg) == nil {
				fake.commands <- msg.Command
			}
		}
	}()
	return ctrl, fake
}

func (f *fakeMPV) emit(t *testing.T, evt map[string]any) {
	t.Helper()
	b, _ := json.Marshal(evt)
	if _, err := f.conn.Write(append(b, '\n')); err != nil {
		t.Errorf("write event: %v", err)
	}
}

// next returns the next command that is not an observe_property.
func (f *fakeMPV) next(t *testing.T) []any {
	t.Helper()
	for {
		select {
		case cmd := <-f.commands:
			if len(cmd) > 0 && cmd[0] == "observe_property" {
				continue
			}
			return cmd
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for command")
			return nil
		}
	}
}

func TestControllerPlayAndEvents(t *testing.T) {
	ctrl, fake := startFake(t)

	if err := ctrl.Play("/tmp/test.mp3"); err != nil {
		t.Fatalf("play: %v", err)
	}
	if cmd := fake.next(t); cmd[0] != "loadfile" || cmd[1] != "/tmp/test.mp3" {
		t.Fatalf("unexpected command %v", cmd)
	}

	go func() {
		fake.emit(t, map[string]any{"event": "property-change", "name": "time-pos", "data": 12.5})
		fake.emit(t, map[string]any{"event": "end-file", "reason": "eof"})
	}()

	timeout := time.After(2 * time.Second)
	receivedPos := false
loop:
	for {
		select {
		case evt := <-ctrl.Events():
			if evt.Err != nil {
				t.Fatalf("event err: %v", evt.Err)
			}
			if evt.TimePos != nil && *evt.TimePos == 12.5 {
				receivedPos = true
			}
			if evt.Ended {
				break loop
			}
		case <-timeout:
			t.Fatalf("timeout waiting for events")
		}
	}
	if !receivedPos {
		t.Fatalf("expected time-pos event")
	}
	if got := ctrl.PositionMs(); got != 12500 {
		t.Fatalf("PositionMs = %d", got)
	}
}

func TestSeekToAndResumePosition(t *testing.T) {
	ctrl, fake := startFake(t)

	if err := ctrl.SeekTo(5000); err != nil {
		t.Fatalf("seek: %v", err)
	}
	cmd := fake.next(t)
	if cmd[0] != "seek" || cmd[1] != 5.0 || cmd[2] != "absolute" {
		t.Fatalf("unexpected seek %v", cmd)
	}
	if ctrl.PositionMs() != 5000 {
		t.Fatalf("position not tracked")
	}

	if err := ctrl.TogglePause(true); err != nil {
		t.Fatal(err)
	}
	fake.next(t)
	if !ctrl.Paused() {
		t.Fatalf("should be paused")
	}
	ctrl.SetResumePosition(9000)
	if err := ctrl.TogglePause(false); err != nil {
		t.Fatal(err)
	}
	if cmd := fake.next(t); cmd[0] != "seek" || cmd[1] != 9.0 {
		t.Fatalf("expected resume seek, got %v", cmd)
	}
	if cmd := fake.next(t); cmd[0] != "set_property" || cmd[2] != false {
		t.Fatalf("expected unpause, got %v", cmd)
	}
}

func TestSplitPositions(t *testing.T) {
	in := make(chan Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pos, rest := SplitPositions(ctx, in)

	v := 3.25
	in <- Event{TimePos: &v}
	in <- Event{Ended: true}
	close(in)

	if got := <-pos; got != 3.25 {
		t.Fatalf("position = %v", got)
	}
	if ev := <-rest; !ev.Ended {
		t.Fatalf("expected end event, got %+v", ev)
	}
	if _, ok := <-rest; ok {
		t.Fatalf("rest should close with input")
	}
}

func TestCommandsBeforeStart(t *testing.T) {
	ctrl := New(Options{DisableProcess: true})
	if err := ctrl.Play("/tmp/a.mp3"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("play err = %v", err)
	}
	if err := ctrl.SeekTo(1000); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("seek err = %v", err)
	}
	if ctrl.PositionMs() != 0 {
		t.Fatalf("failed seek moved position to %d", ctrl.PositionMs())
	}
	if err := ctrl.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Stop(); err != nil {
		t.Fatal(err)
	}
}
