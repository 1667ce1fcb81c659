// Package store persists Workspace snapshots to disk: atomic
// tmp-file-then-rename writes with a rotating .bak, and loads that
// fall back to the .bak copy and archive an unreadable primary file
// instead of losing it silently.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CommandRecord is one submitted command and when it was submitted.
type CommandRecord struct {
	Text      string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SessionSnapshot is the persisted form of a session: enough to
// reconstruct its pane on reload, but not a live process handle.
type SessionSnapshot struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	WorkingDir   string          `json:"working_dir"`
	CreatedAt    time.Time       `json:"created_at"`
	CommandCount int             `json:"command_count"`
	Status       string          `json:"status"`
	Commands     []CommandRecord `json:"commands,omitempty"`
	OutputTail   []string        `json:"output_tail,omitempty"`
}

// Workspace is the top-level persisted unit: a named grid of sessions.
type Workspace struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Slot       int               `json:"slot"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Sessions   []SessionSnapshot `json:"sessions"`
	GridLayout json.RawMessage   `json:"grid_layout,omitempty"`
}

// Store persists Workspace values under a root directory, one JSON
// file per workspace id.
type Store struct {
	root              string
	snapshotTailLines int
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string, snapshotTailLines int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: dir, snapshotTailLines: snapshotTailLines}, nil
}

func (s *Store) path(id string) string    { return filepath.Join(s.root, id+".json") }
func (s *Store) bakPath(id string) string { return filepath.Join(s.root, id+".json.bak") }

// Save writes w atomically: serialize to a temp file in the same
// directory, fsync it, rename the existing primary file to .bak (if
// any), then rename the temp file into place. A reader can never
// observe a partially written file, and the previous good copy always
// survives one generation as .bak.
func (s *Store) Save(w Workspace) error {
	w.UpdatedAt = time.Now()
	for i := range w.Sessions {
		if s.snapshotTailLines > 0 && len(w.Sessions[i].OutputTail) > s.snapshotTailLines {
			w.Sessions[i].OutputTail = w.Sessions[i].OutputTail[len(w.Sessions[i].OutputTail)-s.snapshotTailLines:]
		}
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workspace %s: %w", w.ID, err)
	}

	tmp, err := os.CreateTemp(s.root, w.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed into place

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	primary := s.path(w.ID)
	if _, err := os.Stat(primary); err == nil {
		if err := os.Rename(primary, s.bakPath(w.ID)); err != nil {
			return fmt.Errorf("rotate backup: %w", err)
		}
	}

	if err := os.Rename(tmpPath, primary); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Load reads the workspace with the given id. If the primary file is
// missing or fails to parse, Load falls back to the .bak copy. If both
// are unreadable, the corrupted primary file is archived with a
// timestamped name rather than left to collide with future writes or
// silently discarded.
func (s *Store) Load(id string) (Workspace, error) {
	w, err := readWorkspace(s.path(id))
	if err == nil {
		return w, nil
	}
	primaryErr := err

	w, bakErr := readWorkspace(s.bakPath(id))
	if bakErr == nil {
		return w, nil
	}

	if _, statErr := os.Stat(s.path(id)); statErr == nil {
		archived := filepath.Join(s.root, fmt.Sprintf("%s.corrupt-%d.json", id, time.Now().UnixNano()))
		_ = os.Rename(s.path(id), archived)
	}

	return Workspace{}, fmt.Errorf("load workspace %s: primary: %v, backup: %v", id, primaryErr, bakErr)
}

func readWorkspace(path string) (Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workspace{}, err
	}
	var w Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return Workspace{}, err
	}
	return w, nil
}

// List returns the ids of every workspace with a primary <id>.json
// file under the store root. The files are not opened or parsed;
// archived <id>.corrupt-<n>.json files are not listed.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".json" && !strings.Contains(name, ".corrupt-") {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

// Delete removes a workspace's primary and backup files.
func (s *Store) Delete(id string) error {
	err1 := os.Remove(s.path(id))
	err2 := os.Remove(s.bakPath(id))
	if err1 != nil && !os.IsNotExist(err1) {
		return err1
	}
	if err2 != nil && !os.IsNotExist(err2) {
		return err2
	}
	return nil
}
