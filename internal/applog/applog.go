// Package applog is cohort's debug log sink.
//
// Background errors are converted into message events for the event
// loop to act on rather than propagating as exceptions, and are
// optionally written here for post-mortem debugging. By default
// everything is discarded, so a normal run never writes stray chatter
// to the user's terminal; --debug redirects it to a file under the
// app-data root.
package applog

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

var logger = log.New(io.Discard, "", log.LstdFlags)

// Enable points the package logger at <rootDir>/debug.log.
func Enable(rootDir string) (*os.File, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(rootDir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
	return f, nil
}

// Printf logs a formatted debug line. A no-op unless Enable was called.
func Printf(format string, args ...any) {
	logger.Printf(format, args...)
}
