// Package modal implements the pane input mode state machine: NORMAL,
// INSERT, COPY, and COMMAND modes, each routing keystrokes
// differently.
package modal

// Mode is one of the four input modes a pane can be in.
type Mode int

const (
	Normal Mode = iota
	Insert
	Copy
	Command
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "NORMAL"
	case Insert:
		return "INSERT"
	case Copy:
		return "COPY"
	case Command:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// Key is a normalized key event name, e.g. "i", "esc", "v", ":",
// "enter". The TUI layer is responsible for mapping bubbletea's
// tea.KeyMsg into these names.
type Key string

// State holds the current mode.
type State struct {
	mode Mode
}

// New returns a State starting in NORMAL mode.
func New() *State { return &State{mode: Normal} }

// Mode reports the current mode.
func (s *State) Mode() Mode { return s.mode }

// Handle applies a key event to the state machine and reports whether
// the key was consumed by a mode transition (false means the caller
// should route the key to the pane's normal input handling for the
// current mode instead).
func (s *State) Handle(k Key) (consumed bool) {
	switch s.mode {
	case Normal:
		switch k {
		case "i":
			s.mode = Insert
			return true
		case "v":
			s.mode = Copy
			return true
		case ":":
			s.mode = Command
			return true
		}
	case Insert:
		if k == "esc" {
			s.mode = Normal
			return true
		}
	case Copy:
		switch k {
		case "esc", "y":
			s.mode = Normal
			return true
		}
	case Command:
		switch k {
		case "esc", "enter":
			s.mode = Normal
			return true
		}
	}
	return false
}

// Force sets the mode directly, bypassing key-driven transitions. Used
// when an external event (e.g. the session the pane is attached to
// terminating) must reset input mode regardless of the current key.
func (s *State) Force(m Mode) { s.mode = m }
