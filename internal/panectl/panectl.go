// Package panectl controls one session pane: the accumulated output
// log, the modal input state, and the input box, including command
// history and slash-command autocomplete. The header and status bar
// are drawn by the tui package.
package panectl

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/cohortcli/cohort/internal/modal"
	"github.com/cohortcli/cohort/internal/outputlog"
	"github.com/cohortcli/cohort/internal/session"
)

// SlashCommand is one entry in the autocomplete catalog.
type SlashCommand struct {
	Name        string
	Description string
}

// DefaultSlashCommands is the built-in catalog panes offer via "/".
var DefaultSlashCommands = []SlashCommand{
	{Name: "/search", Description: "search this pane's output"},
	{Name: "/export", Description: "export this session's transcript"},
	{Name: "/model", Description: "show or change the assistant model"},
}

// SubmitAction distinguishes the three ways Enter can be pressed.
type SubmitAction int

const (
	SubmitSend SubmitAction = iota
	SubmitNewline
	SubmitSendAndClear
)

// history is a ring buffer of past submitted commands, skipping
// consecutive duplicates, with draft preservation so an in-progress
// edit isn't lost while browsing history with Up/Down.
type history struct {
	depth   int
	entries []string
	cursor  int // -1 means "not browsing", at entries length means "current draft"
	draft   string
}

func newHistory(depth int) *history {
	return &history{depth: depth, cursor: -1}
}

func (h *history) push(cmd string) {
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == cmd {
		h.cursor = -1
		return
	}
	h.entries = append(h.entries, cmd)
	if h.depth > 0 && len(h.entries) > h.depth {
		h.entries = h.entries[len(h.entries)-h.depth:]
	}
	h.cursor = -1
}

func (h *history) up(currentDraft string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor == -1 {
		h.draft = currentDraft
		h.cursor = len(h.entries)
	}
	if h.cursor == 0 {
		return h.entries[0], true
	}
	h.cursor--
	return h.entries[h.cursor], true
}

func (h *history) down() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return h.draft, true
	}
	return h.entries[h.cursor], true
}

// Pane is the controller for a single session's visible pane.
type Pane struct {
	Session *session.Session
	Log     *outputlog.Log
	Modal   *modal.State

	history *history
	input   textinput.Model

	autocompleteOpen  bool
	autocompleteIndex int
	autocompleteItems []SlashCommand
}

// New returns a Pane bound to sess, with a fresh output log capped at
// maxLines and a command history of the given depth.
func New(sess *session.Session, maxLines, historyDepth int) *Pane {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()
	return &Pane{
		Session: sess,
		Log:     outputlog.New(maxLines),
		Modal:   modal.New(),
		history: newHistory(historyDepth),
		input:   ti,
	}
}

// InputText returns the current input box contents.
func (p *Pane) InputText() string { return p.input.Value() }

// SetInputText replaces the input box contents, used by history
// navigation and autocomplete acceptance.
func (p *Pane) SetInputText(s string) {
	p.input.SetValue(s)
	p.input.CursorEnd()
	p.updateAutocomplete()
}

// TypeRune appends a rune to the input box and refreshes autocomplete.
func (p *Pane) TypeRune(r rune) {
	p.SetInputText(p.input.Value() + string(r))
}

// Backspace removes the last rune from the input box.
func (p *Pane) Backspace() {
	s := p.input.Value()
	if s == "" {
		return
	}
	runes := []rune(s)
	p.SetInputText(string(runes[:len(runes)-1]))
}

func (p *Pane) updateAutocomplete() {
	text := p.input.Value()
	if !strings.HasPrefix(text, "/") || strings.Contains(text, " ") {
		p.autocompleteOpen = false
		p.autocompleteItems = nil
		return
	}
	var matches []SlashCommand
	for _, c := range DefaultSlashCommands {
		if strings.HasPrefix(c.Name, text) {
			matches = append(matches, c)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	p.autocompleteItems = matches
	p.autocompleteOpen = len(matches) > 0
	if p.autocompleteIndex >= len(matches) {
		p.autocompleteIndex = 0
	}
}

// AutocompleteOpen reports whether the dropdown is showing.
func (p *Pane) AutocompleteOpen() bool { return p.autocompleteOpen }

// AutocompleteItems returns the currently matching slash commands.
func (p *Pane) AutocompleteItems() []SlashCommand { return p.autocompleteItems }

// AutocompleteMoveDown/Up cycle the dropdown selection.
func (p *Pane) AutocompleteMoveDown() {
	if len(p.autocompleteItems) == 0 {
		return
	}
	p.autocompleteIndex = (p.autocompleteIndex + 1) % len(p.autocompleteItems)
}

func (p *Pane) AutocompleteMoveUp() {
	if len(p.autocompleteItems) == 0 {
		return
	}
	p.autocompleteIndex--
	if p.autocompleteIndex < 0 {
		p.autocompleteIndex = len(p.autocompleteItems) - 1
	}
}

// AutocompleteAccept fills the input with the selected item's name and
// closes the dropdown, per Tab/Enter-to-accept semantics.
func (p *Pane) AutocompleteAccept() {
	if !p.autocompleteOpen || len(p.autocompleteItems) == 0 {
		return
	}
	p.SetInputText(p.autocompleteItems[p.autocompleteIndex].Name + " ")
	p.autocompleteOpen = false
}

// AutocompleteDismiss closes the dropdown without changing the input.
func (p *Pane) AutocompleteDismiss() {
	p.autocompleteOpen = false
}

// HistoryUp/Down browse command history, preserving the in-progress
// draft so it isn't lost while browsing.
func (p *Pane) HistoryUp() {
	if text, ok := p.history.up(p.InputText()); ok {
		p.SetInputText(text)
	}
}

func (p *Pane) HistoryDown() {
	if text, ok := p.history.down(); ok {
		p.SetInputText(text)
	}
}

// Submit sends the current input to the session per action:
// SubmitSend (Enter) and SubmitSendAndClear (Ctrl+Enter) both submit
// and clear the box, and are handled identically; SubmitNewline
// inserts a newline without submitting (Shift+Enter). Escape is
// handled by the modal state machine, not here.
func (p *Pane) Submit(action SubmitAction) error {
	switch action {
	case SubmitNewline:
		p.TypeRune('\n')
		return nil
	case SubmitSend, SubmitSendAndClear:
		text := p.InputText()
		if strings.TrimSpace(text) == "" {
			return nil
		}
		if p.Session == nil {
			return nil
		}
		// Submit before clearing: a busy session rejects the command and
		// the typed text (and history) must survive the refusal.
		if err := p.Session.SubmitCommand(text); err != nil {
			return err
		}
		p.history.push(text)
		p.SetInputText("")
		return nil
	}
	return nil
}
