// Package clipboard wraps the system clipboard with an in-process
// buffer fallback so a copy never silently drops when no system
// clipboard utility is available (e.g. headless CI, a bare tty without
// xclip/pbcopy/wl-copy installed).
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Buffer is a clipboard handle; the zero value is ready to use.
type Buffer struct {
	mu       sync.Mutex
	fallback string
	useFallback bool
}

// Copy writes text to the system clipboard, falling back to an
// in-process buffer if the system clipboard is unavailable.
func (b *Buffer) Copy(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		b.mu.Lock()
		b.fallback = text
		b.useFallback = true
		b.mu.Unlock()
		return nil
	}
	b.mu.Lock()
	b.useFallback = false
	b.mu.Unlock()
	return nil
}

// Paste reads the system clipboard, falling back to the in-process
// buffer if the system clipboard is unavailable or empty because a
// prior Copy had to use the fallback.
func (b *Buffer) Paste() (string, error) {
	b.mu.Lock()
	useFallback := b.useFallback
	fallback := b.fallback
	b.mu.Unlock()

	if useFallback {
		return fallback, nil
	}

	text, err := clipboard.ReadAll()
	if err != nil {
		return fallback, nil
	}
	return text, nil
}
