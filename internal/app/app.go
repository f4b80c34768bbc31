package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amm926616/april/internal/config"
	"github.com/amm926616/april/internal/library"
	"github.com/amm926616/april/internal/lyrics"
	"github.com/amm926616/april/internal/lyricsync"
	"github.com/amm926616/april/internal/notes"
	"github.com/amm926616/april/internal/player"
	"github.com/amm926616/april/internal/queue"
	"github.com/amm926616/april/internal/search"
	"github.com/amm926616/april/internal/task"
	"github.com/amm926616/april/internal/ui"
)

// Player is the playback surface the front end drives.
type Player interface {
	lyricsync.Playback
	Play(path string) error
	TogglePause(paused bool) error
	Seek(deltaSeconds float64) error
}

// Indexer produces library indexes, either by rescanning or from the cache.
type Indexer interface {
	Refresh(ctx context.Context) (*library.Index, error)
	Cached(ctx context.Context) (*library.Index, error)
}

type NoteStore interface {
	LoadNotes(ctx context.Context, trackID string) (map[int]string, error)
	SaveNote(ctx context.Context, trackID string, line int, content string) error
	DeleteNote(ctx context.Context, trackID string, line int) error
}

// Deps are the collaborators of the front end. Events and Changes may be nil.
type Deps struct {
	Library Indexer
	Notes   NoteStore
	Player  Player
	Events  <-chan player.Event
	Changes <-chan struct{}
	Logger  *slog.Logger
	Theme   ui.Theme
}

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeNote
)

type Model struct {
	cfg    *config.Config
	deps   Deps
	theme  ui.Theme
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	idx    *library.Index
	vis    search.Visibility
	rows   []row
	cursor int
	query  string
	mode   mode
	input  string

	queue    *queue.Queue
	resolver *lyricsync.Resolver
	loader   *lyrics.Loader
	snaps    chan lyricsync.Snapshot
	events   <-chan player.Event

	playing     library.TrackID
	playingPath string
	trackKey    string
	snap        lyricsync.Snapshot
	notes       map[int]string
	paused      bool
	duration    float64

	scanning bool
	status   string
	errorMsg string
	width    int
	height   int
}

func New(cfg *config.Config, deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	theme := deps.Theme
	if theme.Name == "" {
		theme = ui.Current()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		cfg:    cfg,
		deps:   deps,
		theme:  theme,
		logger: deps.Logger,
		ctx:    ctx,
		cancel: cancel,
		queue:  queue.New(),
		resolver: lyricsync.New(lyricsync.Options{
			Interval: cfg.Lyrics.SyncThreshold,
			Playback: deps.Player,
			Logger:   deps.Logger,
		}),
		loader:   lyrics.NewLoader(),
		snaps:    make(chan lyricsync.Snapshot, 1),
		playing:  -1,
		scanning: true,
		status:   "Loading library…",
	}
	m.snap = m.resolver.Snapshot()

	snaps := m.snaps
	m.resolver.Subscribe(func(s lyricsync.Snapshot) {
		select {
		case <-snaps:
		default:
		}
		select {
		case snaps <- s:
		default:
		}
	})
	if deps.Events != nil {
		positions, rest := player.SplitPositions(ctx, deps.Events)
		m.resolver.Connect(ctx, positions)
		m.events = rest
	}
	return m
}

// Close stops background work started by New.
func (m Model) Close() {
	m.resolver.Disconnect()
	m.loader.Close()
	m.cancel()
}

type (
	indexMsg struct {
		idx *library.Index
		err error
	}
	lyricsMsg   task.Result[lyrics.Loaded]
	snapshotMsg lyricsync.Snapshot
	playerMsg   player.Event
	notesMsg    struct {
		key   string
		notes map[int]string
		err   error
	}
	changesMsg    struct{}
	tickMsg       time.Time
	clearErrorMsg struct{}
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadIndexCmd(m.cfg.Library.ScanOnStartEnabled()),
		m.waitPlayerCmd(),
		m.waitSnapshotCmd(),
		m.waitLyricsCmd(),
		m.waitChangesCmd(),
		tickCmd(),
	)
}

func (m Model) loadIndexCmd(scan bool) tea.Cmd {
	return func() tea.Msg {
		var (
			idx *library.Index
			err error
		)
		if scan {
			idx, err = m.deps.Library.Refresh(m.ctx)
		} else {
			idx, err = m.deps.Library.Cached(m.ctx)
		}
		return indexMsg{idx: idx, err: err}
	}
}

func (m Model) waitPlayerCmd() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case evt, ok := <-m.events:
			if !ok {
				return nil
			}
			return playerMsg(evt)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) waitSnapshotCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.snaps:
			return snapshotMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) waitLyricsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case res := <-m.loader.Results():
			return lyricsMsg(res)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) waitChangesCmd() tea.Cmd {
	if m.deps.Changes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case _, ok := <-m.deps.Changes:
			if !ok {
				return nil
			}
			return changesMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) loadNotesCmd(key string) tea.Cmd {
	if m.deps.Notes == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := m.deps.Notes.LoadNotes(m.ctx, key)
		return notesMsg{key: key, notes: n, err: err}
	}
}

func (m Model) saveNoteCmd(key string, line int, content string) tea.Cmd {
	if m.deps.Notes == nil {
		return nil
	}
	return func() tea.Msg {
		var err error
		if content == "" {
			err = m.deps.Notes.DeleteNote(m.ctx, key, line)
		} else {
			err = m.deps.Notes.SaveNote(m.ctx, key, line, content)
		}
		if err != nil {
			return notesMsg{key: key, err: err}
		}
		n, err := m.deps.Notes.LoadNotes(m.ctx, key)
		return notesMsg{key: key, notes: n, err: err}
	}
}

func (m Model) clearErrorCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

func (m Model) setError(err error) (Model, tea.Cmd) {
	m.errorMsg = err.Error()
	return m, m.clearErrorCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeNote:
			return m.updateNote(msg)
		}
		return m.updateBrowse(msg)
	case indexMsg:
		m.scanning = false
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return m, nil
			}
			m.logger.Error("library load failed", slog.Any("err", msg.err))
			return m.setError(msg.err)
		}
		m.setIndex(msg.idx)
		m.status = "Library ready"
		return m, nil
	case lyricsMsg:
		m.applyLyrics(task.Result[lyrics.Loaded](msg))
		return m, m.waitLyricsCmd()
	case snapshotMsg:
		m.snap = lyricsync.Snapshot(msg)
		return m, m.waitSnapshotCmd()
	case playerMsg:
		return m.handlePlayer(player.Event(msg))
	case notesMsg:
		if msg.key != m.trackKey {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("notes unavailable", slog.String("track", msg.key), slog.Any("err", msg.err))
			return m.setError(msg.err)
		}
		m.notes = msg.notes
		return m, nil
	case changesMsg:
		if m.scanning {
			return m, m.waitChangesCmd()
		}
		m.scanning = true
		m.status = "Library changed, rescanning…"
		return m, tea.Batch(m.loadIndexCmd(true), m.waitChangesCmd())
	case tickMsg:
		return m, tickCmd()
	case clearErrorMsg:
		m.errorMsg = ""
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.mode = modeFilter
		m.status = "Filter: type to search, enter to play, esc to clear"
	case "esc":
		if m.query != "" {
			m.query = ""
			m.applyFilter()
			m.status = ""
		}
	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(len(m.rows)-1, 0)
	case "enter":
		if m.cursor < len(m.rows) {
			return m.start(m.rows[m.cursor].id)
		}
	case " ":
		if m.playing < 0 {
			return m, nil
		}
		paused := !m.paused
		if err := m.deps.Player.TogglePause(paused); err != nil {
			return m.setError(err)
		}
		m.paused = paused
	case "h", "left":
		if err := m.deps.Player.Seek(float64(-m.cfg.Player.SeekSmall)); err != nil {
			return m.setError(err)
		}
	case "l", "right":
		if err := m.deps.Player.Seek(float64(m.cfg.Player.SeekSmall)); err != nil {
			return m.setError(err)
		}
	case "]":
		return m.navigate(m.resolver.AdvanceToNext)
	case "[":
		return m.navigate(m.resolver.AdvanceToPrevious)
	case ".":
		return m.navigate(m.resolver.JumpToLineStart)
	case "n":
		if id, err := m.queue.Next(); err == nil {
			return m.playFile(id)
		} else if errors.Is(err, queue.ErrEndOfQueue) {
			m.status = "End of queue"
		}
	case "p":
		if id, err := m.queue.Prev(); err == nil {
			return m.playFile(id)
		}
	case "s":
		if m.queue.ToggleShuffle() {
			m.status = "Shuffle on"
		} else {
			m.status = "Shuffle off"
		}
	case "r":
		m.status = "Repeat " + m.queue.CycleRepeat().String()
	case "e":
		if m.playing < 0 || m.snap.Index < 0 || m.snap.State == lyricsync.Unloaded {
			m.status = "No lyric line to annotate"
			return m, nil
		}
		m.mode = modeNote
		m.input = m.notes[m.snap.Index]
	case "R":
		if !m.scanning {
			m.scanning = true
			m.status = "Rescanning…"
			return m, m.loadIndexCmd(true)
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.query = ""
		m.applyFilter()
		m.status = ""
	case tea.KeyEnter:
		m.mode = modeBrowse
		sel, ok := m.vis.Confirm()
		if !ok {
			m.status = "No match for " + m.query
			return m, nil
		}
		m.focus(sel)
		return m.start(sel.ID)
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
			m.applyFilter()
		}
	case tea.KeySpace:
		m.query += " "
		m.applyFilter()
	case tea.KeyRunes:
		m.query += string(msg.Runes)
		m.applyFilter()
	}
	return m, nil
}

func (m Model) updateNote(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input = ""
	case tea.KeyEnter:
		m.mode = modeBrowse
		content := strings.TrimSpace(m.input)
		m.input = ""
		line := m.snap.Index
		if line < 0 {
			return m, nil
		}
		if content == "" {
			m.status = "Note removed"
		} else {
			m.status = "Note saved"
		}
		return m, m.saveNoteCmd(m.trackKey, line, content)
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m Model) navigate(step func() error) (tea.Model, tea.Cmd) {
	err := step()
	switch {
	case err == nil:
		m.snap = m.resolver.Snapshot()
		return m, nil
	case errors.Is(err, lyricsync.ErrNotLoaded):
		m.status = lyricsync.NoLyricsText
		return m, nil
	default:
		return m.setError(err)
	}
}

func (m *Model) setIndex(idx *library.Index) {
	m.idx = idx
	m.applyFilter()
	if m.playingPath == "" {
		return
	}
	id, ok := idx.Lookup(m.playingPath)
	if !ok {
		m.playing = -1
		m.queue.Clear()
		return
	}
	m.playing = id
	m.resetQueue(id)
}

func (m *Model) applyFilter() {
	m.vis = search.Filter(m.idx, m.query, m.cfg.Search.FuzzyThreshold)
	m.rows = buildRows(m.idx, m.vis)
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

// focus moves the cursor onto the row for sel.
func (m *Model) focus(sel search.Selection) {
	for i, r := range m.rows {
		if r.kind == sel.Kind && r.id == sel.ID {
			m.cursor = i
			return
		}
	}
}

func (m *Model) resetQueue(id library.TrackID) {
	order := m.idx.Ordered()
	for i, o := range order {
		if o == id {
			_ = m.queue.Replace(order, i)
			return
		}
	}
}

// start plays id and makes the whole library, in tree order, the queue.
func (m Model) start(id library.TrackID) (tea.Model, tea.Cmd) {
	m.resetQueue(id)
	return m.playFile(id)
}

func (m Model) playFile(id library.TrackID) (tea.Model, tea.Cmd) {
	mf, ok := m.idx.File(id)
	if !ok {
		return m, nil
	}
	if err := m.deps.Player.Play(mf.Path); err != nil {
		return m.setError(err)
	}
	m.playing = id
	m.playingPath = mf.Path
	m.paused = false
	m.duration = float64(mf.DurationSeconds)
	m.trackKey = notes.TrackIdentity(mf.Path)
	m.notes = nil
	m.resolver.Load(nil)
	m.snap = m.resolver.Snapshot()
	m.loader.Load(m.ctx, mf.Path)
	m.status = "Playing " + mf.Label()
	m.logger.Info("playing", slog.String("path", mf.Path))
	return m, m.loadNotesCmd(m.trackKey)
}

func (m *Model) applyLyrics(res task.Result[lyrics.Loaded]) {
	if !m.loader.IsCurrent(res.Seq) || res.Value.AudioPath != m.playingPath {
		return
	}
	if res.Err != nil {
		m.logger.Warn("lyrics unreadable", slog.String("path", res.Value.LRCPath), slog.Any("err", res.Err))
		m.status = "Lyrics unreadable"
		return
	}
	m.resolver.Load(res.Value.Track)
	if m.deps.Player != nil {
		m.resolver.OnPositionChanged(float64(m.deps.Player.PositionMs()) / 1000)
	}
	m.snap = m.resolver.Snapshot()
}

func (m Model) handlePlayer(ev player.Event) (tea.Model, tea.Cmd) {
	if ev.Duration != nil {
		m.duration = *ev.Duration
	}
	if ev.Paused != nil {
		m.paused = *ev.Paused
	}
	if ev.Err != nil {
		m.logger.Warn("player error", slog.Any("err", ev.Err))
		next, cmd := m.setError(ev.Err)
		return next, tea.Batch(cmd, next.waitPlayerCmd())
	}
	if ev.Ended {
		id, err := m.queue.Next()
		if err != nil {
			m.status = "End of queue"
			return m, m.waitPlayerCmd()
		}
		next, cmd := m.playFile(id)
		return next, tea.Batch(cmd, next.(Model).waitPlayerCmd())
	}
	return m, m.waitPlayerCmd()
}
