// Command cohort is a terminal multiplexer that hosts several
// concurrent interactive assistant CLI sessions, each in its own PTY,
// arranged into a resizable grid of panes within a workspace.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/cohortcli/cohort/internal/applog"
	"github.com/cohortcli/cohort/internal/config"
	"github.com/cohortcli/cohort/internal/lazyload"
	"github.com/cohortcli/cohort/internal/store"
	"github.com/cohortcli/cohort/internal/tui"
)

const version = "0.1.0"

func main() {
	var (
		showVersion = flag.Bool("version", false, "print the version and exit")
		showTutorial = flag.Bool("tutorial", false, "print a short usage tutorial and exit")
		check       = flag.Bool("check", false, "validate the environment and exit")
		noMouse     = flag.Bool("no-mouse", false, "disable mouse reporting")
		debug       = flag.Bool("debug", false, "write a debug log to <root>/debug.log")
		configPath  = flag.String("config", "", "path to a YAML config overlay")
		workspace   = flag.String("workspace", "default", "workspace id to open")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("cohort " + version)
		return
	}
	if *showTutorial {
		printTutorial()
		return
	}

	cfg := config.Default()
	root := config.RootDir()

	if *configPath != "" {
		var err error
		cfg, err = config.LoadOverlay(cfg, *configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cohort: "+err.Error())
			os.Exit(1)
		}
	} else if overlay := filepath.Join(root, "config.yaml"); fileExists(overlay) {
		var err error
		cfg, err = config.LoadOverlay(cfg, overlay)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cohort: "+err.Error())
			os.Exit(1)
		}
	}

	if *check {
		os.Exit(runCheck(cfg, root))
	}

	if *debug {
		if f, err := applog.Enable(root); err == nil {
			defer f.Close()
		}
	}

	if err := run(cfg, root, *workspace, *noMouse); err != nil {
		fmt.Fprintln(os.Stderr, "cohort: "+err.Error())
		os.Exit(1)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// runCheck validates that the environment cohort needs is present:
// the assistant CLI is on PATH, the app data root is writable, and
// stdout is attached to a real terminal. It prints one line per check
// and returns a process exit code (0 if everything passed).
func runCheck(cfg config.Config, root string) int {
	ok := true

	if _, err := exec.LookPath(cfg.AssistantCommand); err != nil {
		fmt.Printf("FAIL  assistant CLI %q not found on PATH\n", cfg.AssistantCommand)
		ok = false
	} else {
		fmt.Printf("OK    assistant CLI %q found\n", cfg.AssistantCommand)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		fmt.Printf("FAIL  app data root %s not writable: %v\n", root, err)
		ok = false
	} else {
		probe := filepath.Join(root, ".write-probe")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			fmt.Printf("FAIL  app data root %s not writable: %v\n", root, err)
			ok = false
		} else {
			os.Remove(probe)
			fmt.Printf("OK    app data root %s is writable\n", root)
		}
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println("OK    stdout is a terminal")
	} else {
		fmt.Println("FAIL  stdout is not a terminal")
		ok = false
	}

	if !ok {
		return 1
	}
	return 0
}

func printTutorial() {
	fmt.Println(`cohort — concurrent assistant sessions in a resizable pane grid

  ctrl+n        start a new session in the current workspace
  tab           move focus to the next pane
  i             enter INSERT mode to type into the focused pane
  esc           return to NORMAL mode
  v             enter COPY mode to select output text
  :             enter COMMAND mode
  enter         submit input (INSERT mode)
  shift+enter   insert a newline without submitting
  alt+1..9      jump to workspace slot 1-9
  ctrl+c        quit`)
}

func run(cfg config.Config, root, workspaceID string, noMouse bool) error {
	st, err := store.New(filepath.Join(root, "workspaces"), cfg.SnapshotTailLines)
	if err != nil {
		return err
	}

	loader := lazyload.New(st, cfg.CacheSizeWorkspaces, 0, nil)
	defer loader.Shutdown()

	m := tui.New(cfg, st, loader, workspaceID)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if !noMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	prog := tea.NewProgram(m, opts...)
	m.Bind(func(msg tea.Msg) { prog.Send(msg) }, root)

	_, err = prog.Run()
	return err
}
