// Package tui is cohort's Bubble Tea composition root: it wires the
// grid layout, session panes, modal input state, and workspace store
// into a single Elm-architecture Model.
package tui

import (
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/cohortcli/cohort/internal/config"
	"github.com/cohortcli/cohort/internal/grid"
	"github.com/cohortcli/cohort/internal/lazyload"
	"github.com/cohortcli/cohort/internal/modal"
	"github.com/cohortcli/cohort/internal/panectl"
	"github.com/cohortcli/cohort/internal/session"
	"github.com/cohortcli/cohort/internal/store"
	"github.com/cohortcli/cohort/internal/stream"
)

// truncateRuns clips a line's styled runs to at most maxWidth terminal
// columns, splitting a run if the cut falls in its middle so the
// remainder never renders only partially.
func truncateRuns(runs []stream.Run, maxWidth int) []stream.Run {
	var out []stream.Run
	remaining := maxWidth
	for _, r := range runs {
		if remaining <= 0 {
			break
		}
		w := runewidth.StringWidth(r.Text)
		if w <= remaining {
			out = append(out, r)
			remaining -= w
			continue
		}
		out = append(out, stream.Run{Text: runewidth.Truncate(r.Text, remaining, ""), Style: r.Style})
		remaining = 0
	}
	return out
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	activeBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("6"))
	idleBorder     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	statusBarStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
)

// sessionEventMsg carries a session.Event across from the PTY reader
// goroutine, via the program's message queue, onto the Update
// goroutine — the only path session output is allowed to reach the
// model through.
type sessionEventMsg struct {
	slot int
	id   session.ID
	ev   session.Event
}

// workspaceState is one workspace's live state: its session manager
// and the panes backing its grid. Switching slots with Alt+1..9 only
// changes which workspaceState is rendered; sessions in every other
// slot keep running in the background.
type workspaceState struct {
	id      string
	slot    int
	manager *session.Manager
	panes   map[session.ID]*panectl.Pane
	order   []session.ID
	activeIdx int
	layout  *grid.Grid
}

// Model is the top-level Bubble Tea model for a cohort process: a set
// of workspace slots, one of which is visible at a time.
type Model struct {
	cfg    config.Config
	st     *store.Store
	loader *lazyload.Loader
	root   string
	send   func(tea.Msg)

	workspaces map[int]*workspaceState
	activeSlot int

	width, height int
	quitting      bool
	statusLine    string
}

// New returns a Model whose initial workspace is workspaceID, occupying
// slot 1. Session callbacks aren't wired until Bind is called.
func New(cfg config.Config, st *store.Store, loader *lazyload.Loader, workspaceID string) *Model {
	m := &Model{
		cfg:        cfg,
		st:         st,
		loader:     loader,
		workspaces: make(map[int]*workspaceState),
		activeSlot: 1,
	}
	m.workspaces[1] = &workspaceState{id: workspaceID, slot: 1, panes: make(map[session.ID]*panectl.Pane)}
	return m
}

// Bind finishes wiring every workspace's session manager now that a
// program exists to deliver callback events to. root is cohort's data
// directory; each workspace slot gets its own subtree under it.
func (m *Model) Bind(send func(tea.Msg), root string) {
	m.send = send
	m.root = root
	for _, ws := range m.workspaces {
		m.bindWorkspace(ws)
	}
}

func (m *Model) bindWorkspace(ws *workspaceState) {
	slot := ws.slot
	ws.manager = session.NewManager(filepath.Join(m.root, "workspaces", ws.id), m.cfg, func(id session.ID, ev session.Event) {
		m.send(sessionEventMsg{slot: slot, id: id, ev: ev})
	})
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) activeWorkspace() *workspaceState {
	return m.workspaces[m.activeSlot]
}

func (m *Model) activePane() *panectl.Pane {
	ws := m.activeWorkspace()
	if ws == nil || ws.activeIdx < 0 || ws.activeIdx >= len(ws.order) {
		return nil
	}
	return ws.panes[ws.order[ws.activeIdx]]
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case sessionEventMsg:
		m.applySessionEvent(msg.slot, msg.id, msg.ev)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applySessionEvent(slot int, id session.ID, ev session.Event) {
	ws, ok := m.workspaces[slot]
	if !ok {
		return
	}
	p, ok := ws.panes[id]
	if !ok {
		return
	}
	if len(ev.Runs) > 0 {
		p.Log.Append(ev.Runs)
	}
	if ev.StatusChanged && ev.Status != "" && slot == m.activeSlot {
		m.statusLine = ev.Status
	}
	if m.cfg.AutoSave && (ev.StatusState == session.StatusCompleted || ev.StatusState == session.StatusTerminated) {
		m.saveWorkspace(ws)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+n":
		return m.handleNewSession()
	case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9":
		slot := int(msg.String()[len(msg.String())-1] - '0')
		m.switchSlot(slot)
		return m, nil
	}

	pane := m.activePane()
	if pane == nil {
		switch msg.String() {
		case "ctrl+c", "q":
			return m.quit()
		}
		return m, nil
	}

	key := modal.Key(msg.String())
	if pane.Modal.Handle(key) {
		return m, nil
	}

	switch pane.Modal.Mode() {
	case modal.Normal:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()
		case "tab":
			ws := m.activeWorkspace()
			ws.activeIdx = (ws.activeIdx + 1) % max(1, len(ws.order))
		case "up":
			pane.Log.Scroll(-1)
		case "down":
			pane.Log.Scroll(1)
		}
	case modal.Insert:
		switch msg.String() {
		case "enter":
			if pane.AutocompleteOpen() {
				pane.AutocompleteAccept()
				return m, nil
			}
			if err := pane.Submit(panectl.SubmitSend); err != nil {
				m.statusLine = submitErrorMessage(err)
			}
		case "shift+enter":
			_ = pane.Submit(panectl.SubmitNewline)
		case "ctrl+enter":
			if err := pane.Submit(panectl.SubmitSendAndClear); err != nil {
				m.statusLine = submitErrorMessage(err)
			}
		case "backspace":
			pane.Backspace()
		case "tab":
			if pane.AutocompleteOpen() {
				pane.AutocompleteAccept()
			}
		case "up":
			if pane.AutocompleteOpen() {
				pane.AutocompleteMoveUp()
			} else {
				pane.HistoryUp()
			}
		case "down":
			if pane.AutocompleteOpen() {
				pane.AutocompleteMoveDown()
			} else {
				pane.HistoryDown()
			}
		default:
			if msg.Type == tea.KeyRunes {
				for _, r := range msg.Runes {
					pane.TypeRune(r)
				}
			}
		}
	}
	return m, nil
}

// submitErrorMessage renders a Submit error for the status bar,
// special-casing the busy-session refusal with the user-facing wording
// the session manager's contract requires.
func submitErrorMessage(err error) string {
	if errors.Is(err, session.ErrBusySession) {
		return "session is busy"
	}
	return err.Error()
}

// quit saves every workspace that still has live sessions, if
// configured to save on exit, then ends the program.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.cfg.SaveOnExit {
		for _, ws := range m.workspaces {
			if ws.manager != nil && len(ws.order) > 0 {
				m.saveWorkspace(ws)
			}
		}
	}
	m.quitting = true
	return m, tea.Quit
}

// handleNewSession starts a session in the active workspace slot and
// gives it a pane.
func (m *Model) handleNewSession() (tea.Model, tea.Cmd) {
	ws := m.activeWorkspace()
	if ws == nil || ws.manager == nil {
		return m, nil
	}
	name := fmt.Sprintf("session-%d", len(ws.order)+1)
	rows, cols := uint16(max(1, m.height-2)), uint16(max(1, m.width))
	sess, err := ws.manager.Create(name, rows, cols)
	if err != nil {
		m.statusLine = err.Error()
		return m, nil
	}
	m.addPane(ws, sess)
	return m, nil
}

// switchSlot makes slot the visible workspace, creating and binding a
// fresh workspaceState the first time a slot is visited. Slot ids
// follow the fixed "slot-N" convention so a later run can address the
// same persisted workspace without needing a separate slot index.
func (m *Model) switchSlot(slot int) {
	if _, ok := m.workspaces[slot]; !ok {
		ws := &workspaceState{id: fmt.Sprintf("slot-%d", slot), slot: slot, panes: make(map[session.ID]*panectl.Pane)}
		m.workspaces[slot] = ws
		m.bindWorkspace(ws)
		if m.loader != nil {
			m.loader.Prefetch(ws.id, lazyload.High)
		}
	}
	m.activeSlot = slot
	m.statusLine = ""
}

// saveWorkspace persists ws's live sessions: their metadata, command
// count, lifecycle status, and a tail of their rendered output, so the
// next run can show what happened even though the process itself
// isn't resumed.
func (m *Model) saveWorkspace(ws *workspaceState) {
	if m.st == nil {
		return
	}
	snap := store.Workspace{ID: ws.id, Name: ws.id, Slot: ws.slot}
	for _, sess := range ws.manager.List() {
		p := ws.panes[sess.ID]
		var tail []string
		if p != nil {
			lines := p.Log.Lines()
			start := 0
			if n := m.cfg.SnapshotTailLines; n > 0 && len(lines) > n {
				start = len(lines) - n
			}
			for _, l := range lines[start:] {
				tail = append(tail, l.Text())
			}
		}
		snap.Sessions = append(snap.Sessions, store.SessionSnapshot{
			ID:           string(sess.ID),
			Name:         sess.Name,
			WorkingDir:   sess.WorkingDir,
			CreatedAt:    sess.CreatedAt,
			CommandCount: sess.CommandCount(),
			Status:       sess.StatusValue().String(),
			OutputTail:   tail,
		})
	}
	_ = m.st.Save(snap)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	ws := m.activeWorkspace()
	if ws == nil || len(ws.order) == 0 {
		return "cohort: no sessions yet in this workspace. Press ctrl+n to start one.\n"
	}

	var rects map[int]grid.Rect
	if ws.layout != nil {
		rects = ws.layout.Layout(m.width, m.height-1)
	}

	var body string
	for i, id := range ws.order {
		pane := ws.panes[id]
		rect, ok := rects[i]
		if !ok {
			rect = grid.Rect{W: m.width, H: m.height - 1}
		}
		body += m.renderPane(pane, rect, i == ws.activeIdx)
	}

	label := fmt.Sprintf("slot %d: %s  |  %s", ws.slot, ws.id, m.statusLine)
	status := statusBarStyle.Width(m.width).Render(label)
	return body + "\n" + status
}

func (m *Model) renderPane(p *panectl.Pane, rect grid.Rect, active bool) string {
	border := idleBorder
	if active {
		border = activeBorder
	}

	header := headerStyle.Render(fmt.Sprintf("%s [%s]", paneTitle(p), p.Modal.Mode()))

	innerWidth := rect.W - 2 // account for the border
	var body string
	for _, line := range p.Log.Lines() {
		if innerWidth > 0 && line.VisibleWidth() > innerWidth {
			for _, r := range truncateRuns(line.Runs, innerWidth) {
				body += r.Style.Lipgloss().Render(r.Text)
			}
		} else {
			for _, r := range line.Runs {
				body += r.Style.Lipgloss().Render(r.Text)
			}
		}
		body += "\n"
	}

	content := header + "\n" + body + "> " + p.InputText()
	return border.Width(rect.W).Height(rect.H).Render(content)
}

func paneTitle(p *panectl.Pane) string {
	if p.Session == nil {
		return "session"
	}
	return p.Session.Name
}

// addPane installs a pane for a session in ws and lays out its grid
// for the new pane count.
func (m *Model) addPane(ws *workspaceState, sess *session.Session) {
	p := panectl.New(sess, m.cfg.OutputLogMaxLines, m.cfg.HistoryDepth)
	ws.panes[sess.ID] = p
	ws.order = append(ws.order, sess.ID)
	ws.layout = grid.New(len(ws.order))
}
