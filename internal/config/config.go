// Package config holds cohort's enumerated configuration record: a
// single typed struct with fixed defaults, optionally overlaid from a
// YAML file on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of recognized runtime options.
type Config struct {
	MaxSessions             int           `yaml:"max_sessions"`
	PTYReadBuffer           int           `yaml:"pty_read_buffer"`
	CompletionTimeout       time.Duration `yaml:"-"`
	CompletionTimeoutMS     int           `yaml:"completion_timeout_ms"`
	HistoryDepth            int           `yaml:"history_depth"`
	OutputLogMaxLines       int           `yaml:"output_log_max_lines"`
	SnapshotTailLines       int           `yaml:"snapshot_tail_lines"`
	CacheSizeWorkspaces     int           `yaml:"cache_size_workspaces"`
	AutoSave                bool          `yaml:"auto_save"`
	SaveOnExit              bool          `yaml:"save_on_exit"`
	BroadcastMode           bool          `yaml:"broadcast_mode"`
	MaxSessionsPerWorkspace int           `yaml:"max_sessions_per_workspace"`

	// AssistantCommand and AssistantArgs describe how to invoke the
	// assistant CLI. AssistantContinueFlag, if non-empty, is appended to
	// AssistantArgs on every spawn so the assistant CLI resumes the
	// conversation state it finds in the working directory.
	AssistantCommand      string   `yaml:"assistant_command"`
	AssistantArgs         []string `yaml:"assistant_args"`
	AssistantContinueFlag string   `yaml:"assistant_continue_flag"`
}

// Default returns the recognized option defaults from the design's
// enumerated configuration table.
func Default() Config {
	c := Config{
		MaxSessions:             6,
		PTYReadBuffer:           4096,
		CompletionTimeoutMS:     2000,
		HistoryDepth:            100,
		OutputLogMaxLines:       10000,
		SnapshotTailLines:       50,
		CacheSizeWorkspaces:     20,
		AutoSave:                true,
		SaveOnExit:              true,
		BroadcastMode:           false,
		MaxSessionsPerWorkspace: 9,
		AssistantCommand:        "claude",
		AssistantArgs:           nil,
		AssistantContinueFlag:   "--continue",
	}
	c.CompletionTimeout = time.Duration(c.CompletionTimeoutMS) * time.Millisecond
	return c
}

// LoadOverlay reads a YAML file at path and overlays any fields it sets
// onto base. A missing file is not an error — cohort runs fine on
// defaults alone. Zero-value fields in the overlay are left untouched
// so a partial file (e.g. only max_sessions:) doesn't wipe the rest.
func LoadOverlay(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("read config %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}

	if overlay.MaxSessions != 0 {
		base.MaxSessions = overlay.MaxSessions
	}
	if overlay.PTYReadBuffer != 0 {
		base.PTYReadBuffer = overlay.PTYReadBuffer
	}
	if overlay.CompletionTimeoutMS != 0 {
		base.CompletionTimeoutMS = overlay.CompletionTimeoutMS
	}
	if overlay.HistoryDepth != 0 {
		base.HistoryDepth = overlay.HistoryDepth
	}
	if overlay.OutputLogMaxLines != 0 {
		base.OutputLogMaxLines = overlay.OutputLogMaxLines
	}
	if overlay.SnapshotTailLines != 0 {
		base.SnapshotTailLines = overlay.SnapshotTailLines
	}
	if overlay.CacheSizeWorkspaces != 0 {
		base.CacheSizeWorkspaces = overlay.CacheSizeWorkspaces
	}
	if overlay.BroadcastMode {
		base.BroadcastMode = true
	}
	if overlay.MaxSessionsPerWorkspace != 0 {
		base.MaxSessionsPerWorkspace = overlay.MaxSessionsPerWorkspace
	}
	if overlay.AssistantCommand != "" {
		base.AssistantCommand = overlay.AssistantCommand
	}
	if len(overlay.AssistantArgs) > 0 {
		base.AssistantArgs = overlay.AssistantArgs
	}
	if overlay.AssistantContinueFlag != "" {
		base.AssistantContinueFlag = overlay.AssistantContinueFlag
	}

	base.CompletionTimeout = time.Duration(base.CompletionTimeoutMS) * time.Millisecond
	return base, nil
}

// RootDir returns the cohort data directory.
// Precedence: COHORT_ROOT env var > ~/.cohort
func RootDir() string {
	if env := os.Getenv("COHORT_ROOT"); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cohort")
}
