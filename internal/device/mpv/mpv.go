// Package mpv drives an mpv process over its JSON IPC socket.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tessro/jukebox/internal/core"
	jerrors "github.com/tessro/jukebox/internal/errors"
)

var commandContext = exec.CommandContext

const (
	// DefaultProgressInterval limits how often progress events are emitted.
	DefaultProgressInterval = 500 * time.Millisecond

	defaultReplyTimeout = 3 * time.Second
	dialTimeout         = 5 * time.Second
	eventBuffer         = 64

	observeTimePos  = 1
	observeDuration = 2
)

// Option configures a Player.
type Option func(*Player)

// WithBinary overrides the mpv executable.
func WithBinary(binary string) Option {
	return func(p *Player) {
		if binary != "" {
			p.binary = binary
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProgressInterval sets the minimum gap between progress events.
func WithProgressInterval(d time.Duration) Option {
	return func(p *Player) {
		if d >= 0 {
			p.progressInterval = d
		}
	}
}

// WithReplyTimeout bounds how long a command waits for mpv to answer.
func WithReplyTimeout(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.replyTimeout = d
		}
	}
}

// Player implements core.Device on top of mpv.
type Player struct {
	binary           string
	logger           *slog.Logger
	progressInterval time.Duration
	replyTimeout     time.Duration

	cmd        *exec.Cmd
	socketPath string
	conn       io.ReadWriteCloser

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu       sync.Mutex
	pending  map[int64]*call
	unbound  []string
	current  string
	entries  map[int64]string
	duration time.Duration
	lastTick time.Time

	events    chan core.DeviceEvent
	closed    chan struct{}
	closeOnce sync.Once
	readDone  chan struct{}
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type reply struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// call is an outstanding request. loadID is set for loadfile requests.
type call struct {
	ch     chan reply
	loadID string
}

// message is any line mpv writes: a reply or an event.
type message struct {
	RequestID *int64          `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	ID        int64           `json:"id"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
	EntryID   int64           `json:"playlist_entry_id"`
}

// Start spawns mpv in idle mode and connects to its IPC socket.
func Start(ctx context.Context, opts ...Option) (*Player, error) {
	p := newPlayer(opts...)

	p.socketPath = filepath.Join(os.TempDir(), "jukebox-mpv-"+uuid.NewString()+".sock")
	cmd := commandContext(ctx, p.binary, Args(p.socketPath)...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start mpv: %w", jerrors.ErrDeviceUnavailable, err)
	}
	p.cmd = cmd

	conn, err := dial(ctx, p.socketPath)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: %w", jerrors.ErrDeviceUnavailable, err)
	}
	if err := p.attach(conn); err != nil {
		_ = p.Close()
		return nil, err
	}
	p.logger.Info("mpv started", slog.String("socket", p.socketPath), slog.Int("pid", cmd.Process.Pid))
	return p, nil
}

// New wraps an existing IPC connection. The caller owns the mpv process.
func New(conn io.ReadWriteCloser, opts ...Option) (*Player, error) {
	p := newPlayer(opts...)
	if err := p.attach(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

// Args returns the mpv command line for socket.
func Args(socket string) []string {
	return []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server=" + socket,
	}
}

func newPlayer(opts ...Option) *Player {
	p := &Player{
		binary:           "mpv",
		logger:           slog.New(slog.DiscardHandler),
		progressInterval: DefaultProgressInterval,
		replyTimeout:     defaultReplyTimeout,
		pending:          make(map[int64]*call),
		entries:          make(map[int64]string),
		events:           make(chan core.DeviceEvent, eventBuffer),
		closed:           make(chan struct{}),
		readDone:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func dial(ctx context.Context, socket string) (net.Conn, error) {
	deadline := time.Now().Add(dialTimeout)
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("connect to mpv socket: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (p *Player) attach(conn io.ReadWriteCloser) error {
	p.conn = conn
	go p.readLoop()

	if _, err := p.command("observe_property", observeTimePos, "time-pos"); err != nil {
		return fmt.Errorf("observe time-pos: %w", err)
	}
	if _, err := p.command("observe_property", observeDuration, "duration"); err != nil {
		return fmt.Errorf("observe duration: %w", err)
	}
	return nil
}

// Events returns the device event stream. It is closed by Close.
func (p *Player) Events() <-chan core.DeviceEvent {
	return p.events
}

// Load replaces the current file with url, paused. Events for the new file
// carry loadID.
//
// The playlist entry is bound to loadID when the loadfile reply is read, so
// loads issued back to back keep their own ids. mpv versions that do not
// report the entry id bind entries to loads in request order on start-file.
func (p *Player) Load(loadID, url string) error {
	p.mu.Lock()
	p.duration = 0
	p.mu.Unlock()

	if _, err := p.command("set_property", "pause", true); err != nil {
		return err
	}
	if _, err := p.roundTrip(p.replyTimeout, loadID, "loadfile", url, "replace"); err != nil {
		return err
	}
	return nil
}

// Play unpauses.
func (p *Player) Play() error {
	_, err := p.command("set_property", "pause", false)
	return err
}

// Pause pauses.
func (p *Player) Pause() error {
	_, err := p.command("set_property", "pause", true)
	return err
}

// Seek jumps to an absolute position.
func (p *Player) Seek(pos time.Duration) error {
	_, err := p.command("seek", pos.Seconds(), "absolute")
	return err
}

// SetVolume sets the volume from a 0..1 fraction.
func (p *Player) SetVolume(v float64) error {
	_, err := p.command("set_property", "volume", math.Round(v*100))
	return err
}

// Close quits mpv and releases the socket.
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.conn != nil {
			_, _ = p.commandTimeout(500*time.Millisecond, "quit")
		}
		close(p.closed)
		if p.conn != nil {
			err = p.conn.Close()
			<-p.readDone
		}
		if p.cmd != nil {
			waitErr := make(chan error, 1)
			go func() { waitErr <- p.cmd.Wait() }()
			select {
			case <-waitErr:
			case <-time.After(2 * time.Second):
				_ = p.cmd.Process.Kill()
				<-waitErr
			}
		}
		if p.socketPath != "" {
			_ = os.Remove(p.socketPath)
		}
		close(p.events)
	})
	return err
}

func (p *Player) command(args ...any) (json.RawMessage, error) {
	return p.commandTimeout(p.replyTimeout, args...)
}

func (p *Player) commandTimeout(timeout time.Duration, args ...any) (json.RawMessage, error) {
	return p.roundTrip(timeout, "", args...)
}

func (p *Player) roundTrip(timeout time.Duration, loadID string, args ...any) (json.RawMessage, error) {
	id := p.nextID.Add(1)
	c := &call{ch: make(chan reply, 1), loadID: loadID}

	p.mu.Lock()
	p.pending[id] = c
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	data, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}
	data = append(data, '\n')

	p.writeMu.Lock()
	_, err = p.conn.Write(data)
	p.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: write: %w", jerrors.ErrDeviceUnavailable, err)
	}

	select {
	case r := <-c.ch:
		if r.Error != "" && r.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], r.Error)
		}
		return r.Data, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("mpv %v: no reply after %s", args[0], timeout)
	case <-p.readDone:
		return nil, fmt.Errorf("%w: connection closed", jerrors.ErrDeviceUnavailable)
	}
}

func (p *Player) readLoop() {
	defer close(p.readDone)

	scanner := bufio.NewScanner(p.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			p.logger.Debug("ignoring unparseable mpv line", slog.String("error", err.Error()))
			continue
		}
		if msg.RequestID != nil {
			p.deliver(*msg.RequestID, reply{Error: msg.Error, Data: msg.Data})
			continue
		}
		if msg.Event != "" {
			p.handleEvent(msg)
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-p.closed:
		default:
			p.logger.Warn("mpv connection lost", slog.String("error", err.Error()))
		}
	}
}

// deliver hands a reply to its caller. Successful loadfile replies bind the
// new playlist entry before any later event line is read.
func (p *Player) deliver(id int64, r reply) {
	p.mu.Lock()
	c, ok := p.pending[id]
	if ok && c.loadID != "" && (r.Error == "" || r.Error == "success") {
		var data struct {
			EntryID *int64 `json:"playlist_entry_id"`
		}
		if len(r.Data) > 0 && json.Unmarshal(r.Data, &data) == nil && data.EntryID != nil {
			p.entries[*data.EntryID] = c.loadID
		} else {
			p.unbound = append(p.unbound, c.loadID)
		}
	}
	p.mu.Unlock()
	if ok {
		c.ch <- r
	}
}

func (p *Player) handleEvent(msg message) {
	switch msg.Event {
	case "start-file":
		p.mu.Lock()
		id, ok := p.entries[msg.EntryID]
		if !ok && len(p.unbound) > 0 {
			id, p.unbound = p.unbound[0], p.unbound[1:]
			p.entries[msg.EntryID] = id
		}
		p.current = id
		p.mu.Unlock()

	case "file-loaded":
		p.mu.Lock()
		id, d := p.current, p.duration
		p.mu.Unlock()
		p.send(core.DeviceEvent{Type: core.DeviceLoaded, LoadID: id, Duration: d})

	case "end-file":
		p.mu.Lock()
		id, ok := p.entries[msg.EntryID]
		delete(p.entries, msg.EntryID)
		p.mu.Unlock()
		if !ok {
			return
		}
		switch msg.Reason {
		case "eof":
			p.send(core.DeviceEvent{Type: core.DeviceEnded, LoadID: id})
		case "error":
			cause := msg.FileError
			if cause == "" {
				cause = "playback error"
			}
			p.send(core.DeviceEvent{Type: core.DeviceFailed, LoadID: id, Err: errors.New(cause)})
		}

	case "property-change":
		p.handleProperty(msg)
	}
}

func (p *Player) handleProperty(msg message) {
	var secs float64
	if len(msg.Data) == 0 || string(msg.Data) == "null" || json.Unmarshal(msg.Data, &secs) != nil {
		return
	}

	p.mu.Lock()
	id := p.current
	switch msg.ID {
	case observeDuration:
		p.duration = SecondsToDuration(secs)
		p.mu.Unlock()
		return
	case observeTimePos:
	default:
		p.mu.Unlock()
		return
	}
	now := time.Now()
	if now.Sub(p.lastTick) < p.progressInterval {
		p.mu.Unlock()
		return
	}
	p.lastTick = now
	d := p.duration
	p.mu.Unlock()

	if id == "" {
		return
	}
	ev := core.DeviceEvent{Type: core.DeviceProgress, LoadID: id, Elapsed: SecondsToDuration(secs), Duration: d}
	select {
	case p.events <- ev:
	default:
	}
}

// send delivers lifecycle events; they are never dropped while open.
func (p *Player) send(ev core.DeviceEvent) {
	if ev.LoadID == "" {
		return
	}
	select {
	case p.events <- ev:
	case <-p.closed:
	}
}

// SecondsToDuration converts mpv's float seconds. Non-finite and negative
// values become zero.
func SecondsToDuration(secs float64) time.Duration {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

var _ core.Device = (*Player)(nil)
