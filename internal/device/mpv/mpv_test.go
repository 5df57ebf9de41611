package mpv

import (
	"bufio"
	"encoding/json"
	"math"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tessro/jukebox/internal/core"
)

// fakeMPV answers every command on the server side of a pipe and lets the
// test inject events.
type fakeMPV struct {
	t    *testing.T
	conn net.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	got     [][]any
	failOn  string

	// entryIDs makes loadfile replies carry playlist_entry_id like mpv 0.38+.
	entryIDs  bool
	lastEntry int64
}

func newFakeMPV(t *testing.T) (*fakeMPV, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	f := &fakeMPV{t: t, conn: server}
	go f.serve()
	t.Cleanup(func() { _ = server.Close() })
	return f, client
}

func (f *fakeMPV) serve() {
	scanner := bufio.NewScanner(f.conn)
	for scanner.Scan() {
		var req struct {
			Command   []any `json:"command"`
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		f.mu.Lock()
		f.got = append(f.got, req.Command)
		fail := f.failOn != "" && len(req.Command) > 0 && req.Command[0] == f.failOn
		var data map[string]any
		if f.entryIDs && len(req.Command) > 0 && req.Command[0] == "loadfile" {
			f.lastEntry++
			data = map[string]any{"playlist_entry_id": f.lastEntry}
		}
		f.mu.Unlock()

		status := "success"
		if fail {
			status = "invalid parameter"
		}
		resp := map[string]any{"request_id": req.RequestID, "error": status}
		if data != nil {
			resp["data"] = data
		}
		f.write(resp)
	}
}

func (f *fakeMPV) write(v any) {
	data, _ := json.Marshal(v)
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, _ = f.conn.Write(append(data, '\n'))
}

func (f *fakeMPV) commands() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]any, len(f.got))
	copy(out, f.got)
	return out
}

func (f *fakeMPV) last() []any {
	cmds := f.commands()
	if len(cmds) == 0 {
		return nil
	}
	return cmds[len(cmds)-1]
}

func newTestPlayer(t *testing.T) (*Player, *fakeMPV) {
	t.Helper()
	f, conn := newFakeMPV(t)
	p, err := New(conn, WithProgressInterval(0), WithReplyTimeout(time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, f
}

func nextEvent(t *testing.T, p *Player) core.DeviceEvent {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for device event")
		return core.DeviceEvent{}
	}
}

func TestNewObservesProperties(t *testing.T) {
	_, f := newTestPlayer(t)
	cmds := f.commands()
	if len(cmds) != 2 {
		t.Fatalf("commands = %v", cmds)
	}
	if cmds[0][0] != "observe_property" || cmds[0][2] != "time-pos" {
		t.Errorf("first command = %v", cmds[0])
	}
	if cmds[1][2] != "duration" {
		t.Errorf("second command = %v", cmds[1])
	}
}

func TestLoadLifecycle(t *testing.T) {
	p, f := newTestPlayer(t)

	if err := p.Load("load-1", "https://cdn.example/a.mp3"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cmds := f.commands()
	pause := cmds[len(cmds)-2]
	if pause[0] != "set_property" || pause[1] != "pause" || pause[2] != true {
		t.Errorf("pause command = %v", pause)
	}
	load := cmds[len(cmds)-1]
	if load[0] != "loadfile" || load[1] != "https://cdn.example/a.mp3" || load[2] != "replace" {
		t.Errorf("load command = %v", load)
	}

	f.write(map[string]any{"event": "start-file", "playlist_entry_id": 1})
	f.write(map[string]any{"event": "property-change", "id": observeDuration, "name": "duration", "data": 180.5})
	f.write(map[string]any{"event": "file-loaded"})

	ev := nextEvent(t, p)
	if ev.Type != core.DeviceLoaded || ev.LoadID != "load-1" {
		t.Fatalf("event = %+v, want loaded load-1", ev)
	}
	if ev.Duration != 180500*time.Millisecond {
		t.Errorf("Duration = %v", ev.Duration)
	}

	f.write(map[string]any{"event": "property-change", "id": observeTimePos, "name": "time-pos", "data": 12.25})
	ev = nextEvent(t, p)
	if ev.Type != core.DeviceProgress || ev.Elapsed != 12250*time.Millisecond || ev.LoadID != "load-1" {
		t.Errorf("progress event = %+v", ev)
	}

	f.write(map[string]any{"event": "end-file", "reason": "eof", "playlist_entry_id": 1})
	ev = nextEvent(t, p)
	if ev.Type != core.DeviceEnded || ev.LoadID != "load-1" {
		t.Errorf("event = %+v, want ended", ev)
	}
}

func TestEndFileError(t *testing.T) {
	p, f := newTestPlayer(t)
	_ = p.Load("load-2", "/music/broken.mp3")

	f.write(map[string]any{"event": "start-file", "playlist_entry_id": 7})
	f.write(map[string]any{"event": "end-file", "reason": "error", "file_error": "loading failed", "playlist_entry_id": 7})

	ev := nextEvent(t, p)
	if ev.Type != core.DeviceFailed || ev.LoadID != "load-2" {
		t.Fatalf("event = %+v, want failed", ev)
	}
	if ev.Err == nil || !strings.Contains(ev.Err.Error(), "loading failed") {
		t.Errorf("Err = %v", ev.Err)
	}
}

func TestReplacedFileStopIsIgnored(t *testing.T) {
	p, f := newTestPlayer(t)
	_ = p.Load("first", "a.mp3")
	f.write(map[string]any{"event": "start-file", "playlist_entry_id": 1})

	_ = p.Load("second", "b.mp3")
	f.write(map[string]any{"event": "end-file", "reason": "stop", "playlist_entry_id": 1})
	f.write(map[string]any{"event": "start-file", "playlist_entry_id": 2})
	f.write(map[string]any{"event": "file-loaded"})

	ev := nextEvent(t, p)
	if ev.Type != core.DeviceLoaded || ev.LoadID != "second" {
		t.Errorf("event = %+v, want loaded second", ev)
	}
}

func TestBackToBackLoads(t *testing.T) {
	for _, entryIDs := range []bool{false, true} {
		name := "start-file order"
		if entryIDs {
			name = "entry id in reply"
		}
		t.Run(name, func(t *testing.T) {
			p, f := newTestPlayer(t)
			f.mu.Lock()
			f.entryIDs = entryIDs
			f.mu.Unlock()

			if err := p.Load("first", "a.mp3"); err != nil {
				t.Fatal(err)
			}
			if err := p.Load("second", "b.mp3"); err != nil {
				t.Fatal(err)
			}

			f.write(map[string]any{"event": "start-file", "playlist_entry_id": 1})
			f.write(map[string]any{"event": "end-file", "reason": "stop", "playlist_entry_id": 1})
			f.write(map[string]any{"event": "start-file", "playlist_entry_id": 2})
			f.write(map[string]any{"event": "file-loaded"})
			f.write(map[string]any{"event": "end-file", "reason": "eof", "playlist_entry_id": 2})

			ev := nextEvent(t, p)
			if ev.Type != core.DeviceLoaded || ev.LoadID != "second" {
				t.Errorf("event = %+v, want loaded second", ev)
			}
			ev = nextEvent(t, p)
			if ev.Type != core.DeviceEnded || ev.LoadID != "second" {
				t.Errorf("event = %+v, want ended second", ev)
			}
		})
	}
}

func TestStaleFileLoadedKeepsItsLoadID(t *testing.T) {
	p, f := newTestPlayer(t)
	f.mu.Lock()
	f.entryIDs = true
	f.mu.Unlock()

	_ = p.Load("first", "a.mp3")
	_ = p.Load("second", "b.mp3")

	f.write(map[string]any{"event": "start-file", "playlist_entry_id": 1})
	f.write(map[string]any{"event": "file-loaded"})

	ev := nextEvent(t, p)
	if ev.Type != core.DeviceLoaded || ev.LoadID != "first" {
		t.Errorf("event = %+v, want loaded first", ev)
	}
}

func TestTransportCommands(t *testing.T) {
	p, f := newTestPlayer(t)

	tests := []struct {
		name string
		run  func() error
		want []any
	}{
		{"play", p.Play, []any{"set_property", "pause", false}},
		{"pause", p.Pause, []any{"set_property", "pause", true}},
		{"seek", func() error { return p.Seek(90 * time.Second) }, []any{"seek", 90.0, "absolute"}},
		{"volume", func() error { return p.SetVolume(0.5) }, []any{"set_property", "volume", 50.0}},
	}
	for _, tt := range tests {
		if err := tt.run(); err != nil {
			t.Errorf("%s: error = %v", tt.name, err)
			continue
		}
		got := f.last()
		if len(got) != len(tt.want) {
			t.Errorf("%s: command = %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: command = %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestCommandError(t *testing.T) {
	p, f := newTestPlayer(t)
	f.mu.Lock()
	f.failOn = "seek"
	f.mu.Unlock()

	if err := p.Seek(time.Second); err == nil {
		t.Error("expected error from failed seek")
	}
}

func TestCloseClosesEvents(t *testing.T) {
	_, conn := newFakeMPV(t)
	p, err := New(conn)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Logf("Close() = %v", err)
	}
	select {
	case _, ok := <-p.Events():
		if ok {
			t.Error("expected closed event channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel not closed")
	}
}

func TestSecondsToDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{0, 0},
		{1.5, 1500 * time.Millisecond},
		{-1, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := SecondsToDuration(tt.in); got != tt.want {
			t.Errorf("SecondsToDuration(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestArgs(t *testing.T) {
	args := strings.Join(Args("/tmp/x.sock"), " ")
	for _, want := range []string{"--idle=yes", "--no-video", "--input-ipc-server=/tmp/x.sock"} {
		if !strings.Contains(args, want) {
			t.Errorf("Args() = %q, missing %q", args, want)
		}
	}
}
