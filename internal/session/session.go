// Package session owns the lifecycle of one interactive assistant
// session: its PTY process, its isolated working directory, its
// status state machine, and the completion-inactivity timer that
// promotes a session from "responding" to "completed".
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cohortcli/cohort/internal/config"
	"github.com/cohortcli/cohort/internal/ptyproc"
	"github.com/cohortcli/cohort/internal/stream"
)

// Status is a session's position in the idle/processing/responding/
// completed/terminated state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusProcessing
	StatusResponding
	StatusCompleted
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProcessing:
		return "processing"
	case StatusResponding:
		return "responding"
	case StatusCompleted:
		return "completed"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// UpdateFunc is invoked whenever a session's observable state changes:
// new styled runs, a status-line change, a new code block, or a
// lifecycle transition. It is called from the PTY reader goroutine or
// the completion timer's goroutine, not from the event loop, so an
// implementation must not touch UI state directly; it forwards the
// event onto the event loop instead.
type UpdateFunc func(id ID, ev Event)

// Event describes one state change a session wants to report.
type Event struct {
	Runs          []stream.Run
	Status        string
	StatusChanged bool
	NewBlocks     []stream.CodeBlock
	Metrics       stream.Metrics
	StatusState   Status
	Closed        bool
	CloseErr      error
}

// ErrBusySession is returned by SubmitCommand when a session already
// has a command outstanding (processing or responding); per the state
// machine at most one command is ever in flight at a time.
var ErrBusySession = fmt.Errorf("session is busy")

// ID identifies a session.
type ID string

// NewID mints a fresh opaque session identifier.
func NewID() ID { return ID(uuid.NewString()) }

// Session is one live (or recently live) assistant process.
type Session struct {
	ID          ID
	Name        string
	WorkingDir  string
	CreatedAt   time.Time
	onUpdate    UpdateFunc
	cfg         config.Config

	mu            sync.Mutex
	status        Status
	commandCount  int
	proc          *ptyproc.Handle
	stream        *stream.Processor
	snapshot      []stream.Run
	completeTimer *time.Timer
}

// New creates a session with its own working directory under
// <root>/sessions/<id>/ and returns it without starting a process.
func New(id ID, name, root string, cfg config.Config, onUpdate UpdateFunc) (*Session, error) {
	dir := filepath.Join(root, "sessions", string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session working dir: %w", err)
	}
	return &Session{
		ID:         id,
		Name:       name,
		WorkingDir: dir,
		CreatedAt:  time.Now(),
		onUpdate:   onUpdate,
		cfg:        cfg,
		status:     StatusIdle,
		stream:     stream.NewProcessor(),
	}, nil
}

// Start spawns the assistant CLI for this session.
func (s *Session) Start(rows, cols uint16) error {
	args := append([]string(nil), s.cfg.AssistantArgs...)
	if s.cfg.AssistantContinueFlag != "" {
		args = append(args, s.cfg.AssistantContinueFlag)
	}
	env := os.Environ()

	proc, err := ptyproc.Spawn(s.cfg.AssistantCommand, args, env, s.WorkingDir, rows, cols, s.cfg.PTYReadBuffer, s.handleOutput, s.handleClosed)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.proc = proc
	s.mu.Unlock()
	return nil
}

// SubmitCommand writes a command line to the session's PTY, arming the
// processing state and resetting the stream processor's per-command
// cycle. A session already processing or responding to a prior command
// rejects the submission with ErrBusySession and leaves its state
// untouched — at most one command is ever outstanding per session.
func (s *Session) SubmitCommand(text string) error {
	s.mu.Lock()
	if s.status != StatusIdle && s.status != StatusCompleted {
		s.mu.Unlock()
		return ErrBusySession
	}
	proc := s.proc
	s.status = StatusProcessing
	s.commandCount++
	s.stream.ResetCycle()
	s.cancelTimerLocked()
	s.mu.Unlock()

	if proc == nil {
		return fmt.Errorf("session %s: not started", s.ID)
	}

	s.emit(Event{Runs: []stream.Run{commandSeparator(text)}, StatusState: StatusProcessing})

	return proc.Write([]byte(text + "\n"))
}

// commandSeparator is the visible marker appended to the output log
// when a command is submitted: a timestamp and an echo of the text.
func commandSeparator(text string) stream.Run {
	return stream.Run{
		Text:  fmt.Sprintf("\n[%s] $ %s\n", time.Now().Format("15:04:05"), text),
		Style: stream.Style{Dim: true},
	}
}

// handleOutput runs on the PTY reader goroutine. It must not touch any
// shared UI state directly; it only feeds the stream processor (which
// is private to this session and guarded by mu) and forwards the
// resulting event to onUpdate, which callers are expected to dispatch
// back onto the event loop.
func (s *Session) handleOutput(chunk []byte) {
	s.mu.Lock()
	res := s.stream.Feed(chunk)
	if s.status == StatusProcessing {
		s.status = StatusResponding
	}
	s.rearmCompletionTimerLocked()
	status := s.status
	s.mu.Unlock()

	s.emit(Event{
		Runs:          res.Runs,
		Status:        res.Status,
		StatusChanged: res.StatusChanged,
		NewBlocks:     res.NewBlocks,
		Metrics:       res.Metrics,
		StatusState:   status,
	})
}

// appendSnapshotLocked appends runs to the retained output snapshot,
// evicting the oldest past OutputLogMaxLines. Callers hold mu.
func (s *Session) appendSnapshotLocked(runs []stream.Run) {
	s.snapshot = append(s.snapshot, runs...)
	if len(s.snapshot) > s.cfg.OutputLogMaxLines {
		s.snapshot = s.snapshot[len(s.snapshot)-s.cfg.OutputLogMaxLines:]
	}
}

// emit records ev's runs in the snapshot (if any) and forwards ev to
// onUpdate, the single path session state reaches the UI through.
func (s *Session) emit(ev Event) {
	if len(ev.Runs) > 0 {
		s.mu.Lock()
		s.appendSnapshotLocked(ev.Runs)
		s.mu.Unlock()
	}
	if s.onUpdate != nil {
		s.onUpdate(s.ID, ev)
	}
}

// rearmCompletionTimerLocked cancels any previously armed completion
// timer and starts a new one; it must be called with mu held.
func (s *Session) rearmCompletionTimerLocked() {
	s.cancelTimerLocked()
	s.completeTimer = time.AfterFunc(s.cfg.CompletionTimeout, s.markCompleted)
}

func (s *Session) cancelTimerLocked() {
	if s.completeTimer != nil {
		s.completeTimer.Stop()
		s.completeTimer = nil
	}
}

// markCompleted transitions a responding session to completed and
// appends a "Completed in Xs • N steps" marker to the output log,
// using the command cycle's elapsed time and distinct-status count.
func (s *Session) markCompleted() {
	s.mu.Lock()
	if s.status != StatusResponding {
		s.mu.Unlock()
		return
	}
	s.status = StatusCompleted
	metrics := s.stream.Metrics()
	steps := s.stream.StepCount()
	s.mu.Unlock()

	marker := stream.Run{
		Text:  fmt.Sprintf("\nCompleted in %.1fs • %d steps\n", metrics.Elapsed.Seconds(), steps),
		Style: stream.Style{Dim: true},
	}
	s.emit(Event{Runs: []stream.Run{marker}, StatusState: StatusCompleted})
}

func (s *Session) handleClosed(err error) {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.status = StatusTerminated
	s.mu.Unlock()

	s.emit(Event{StatusState: StatusTerminated, Closed: true, CloseErr: err})
}

// Close terminates the session's PTY process, if any.
func (s *Session) Close() {
	s.mu.Lock()
	proc := s.proc
	s.cancelTimerLocked()
	s.mu.Unlock()

	if proc != nil {
		proc.Terminate()
	}
}

// Resize forwards a new terminal size to the PTY.
func (s *Session) Resize(rows, cols uint16) error {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Resize(rows, cols)
}

// Snapshot returns the tail of accumulated styled output, up to n
// runs (0 means everything retained).
func (s *Session) Snapshot(n int) []stream.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n >= len(s.snapshot) {
		out := make([]stream.Run, len(s.snapshot))
		copy(out, s.snapshot)
		return out
	}
	out := make([]stream.Run, n)
	copy(out, s.snapshot[len(s.snapshot)-n:])
	return out
}

// StatusValue reports the session's current lifecycle state.
func (s *Session) StatusValue() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CommandCount reports how many commands have been submitted.
func (s *Session) CommandCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandCount
}
