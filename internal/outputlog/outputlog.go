// Package outputlog holds the append-only, line-structured history a
// session pane renders: styled runs grouped into lines, FIFO eviction
// past a configured line cap, carriage-return overwrite semantics,
// case-insensitive substring search that leaves the stored runs
// unchanged, and line-range selection.
package outputlog

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/cohortcli/cohort/internal/stream"
)

// Line is one line of accumulated styled output.
type Line struct {
	Runs []stream.Run
}

func (l Line) text() string {
	var b strings.Builder
	for _, r := range l.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Text returns the line's plain text, stripped of styling.
func (l Line) Text() string { return l.text() }

// VisibleWidth returns the line's rendered terminal column width,
// accounting for double-width runes (CJK, emoji) the way a real
// terminal would — used by the pane renderer to decide wrap points
// without needing a cursor-grid model.
func (l Line) VisibleWidth() int {
	return runewidth.StringWidth(l.text())
}

// Match is one search hit: the line index and the byte offset range
// within that line's plain text.
type Match struct {
	Line       int
	Start, End int
}

// ScrollState tracks the viewport's vertical position.
type ScrollState struct {
	Offset       int
	FollowingTail bool
}

// Log is the append-only, line-structured output history for one
// session pane.
type Log struct {
	maxLines int
	lines    []Line
	// cursorCol is the write position within the last line, used to
	// implement carriage-return overwrite: a '\r' in incoming text
	// resets this to 0 without starting a new line.
	cursorCol int

	scroll ScrollState

	selStart, selEnd int // line indices, inclusive; selEnd < 0 means no selection
}

// New returns an empty log capped at maxLines.
func New(maxLines int) *Log {
	return &Log{
		maxLines: maxLines,
		lines:    []Line{{}},
		scroll:   ScrollState{FollowingTail: true},
		selEnd:   -1,
	}
}

// Append adds runs to the log, splitting on newlines and honoring
// carriage-return overwrite (a bare '\r' moves the write position back
// to the start of the current line; subsequent text replaces it up to
// its own length rather than inserting, matching a real terminal's
// line-redraw behavior for progress bars and spinners).
func (l *Log) Append(runs []stream.Run) {
	for _, r := range runs {
		l.appendText(r.Text, r.Style)
	}
	if l.scroll.FollowingTail {
		l.scrollToTail()
	}
}

func (l *Log) appendText(text string, style stream.Style) {
	for len(text) > 0 {
		switch idx := strings.IndexAny(text, "\r\n"); {
		case idx < 0:
			l.writeAt(text, style)
			l.cursorCol += len(text)
			return
		case text[idx] == '\n':
			l.writeAt(text[:idx], style)
			l.newLine()
			text = text[idx+1:]
		default: // '\r'
			l.writeAt(text[:idx], style)
			l.cursorCol = 0
			text = text[idx+1:]
		}
	}
}

// writeAt overwrites the current line starting at cursorCol with
// segment, appended as a styled run, extending the line if needed. It
// keeps the representation simple (a flat run list per line, not a
// cell grid) since there is no cursor-addressable model to maintain —
// only straight-line overwrite from the current column onward.
func (l *Log) writeAt(segment string, style stream.Style) {
	if segment == "" {
		return
	}
	last := &l.lines[len(l.lines)-1]
	existing := last.text()
	if l.cursorCol >= len(existing) {
		pad := strings.Repeat(" ", l.cursorCol-len(existing))
		last.Runs = append(last.Runs, stream.Run{Text: pad + segment, Style: style})
		return
	}
	tailStart := l.cursorCol + len(segment)
	var tail string
	if tailStart < len(existing) {
		tail = existing[tailStart:]
	}
	last.Runs = []stream.Run{
		{Text: existing[:l.cursorCol], Style: style},
		{Text: segment, Style: style},
	}
	if tail != "" {
		last.Runs = append(last.Runs, stream.Run{Text: tail, Style: style})
	}
}

func (l *Log) newLine() {
	l.lines = append(l.lines, Line{})
	l.cursorCol = 0
	if l.maxLines > 0 && len(l.lines) > l.maxLines {
		evict := len(l.lines) - l.maxLines
		l.lines = l.lines[evict:]
		if l.selEnd >= 0 {
			l.selStart -= evict
			l.selEnd -= evict
			if l.selStart < 0 {
				l.selStart = 0
			}
			if l.selEnd < 0 {
				l.selEnd = -1
			}
		}
	}
}

// Lines returns the retained lines, oldest first.
func (l *Log) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// LineCount reports how many lines are currently retained.
func (l *Log) LineCount() int { return len(l.lines) }

// FindMatches searches every retained line's plain text for query
// (case-insensitive) and returns every hit in line order.
func (l *Log) FindMatches(query string) []Match {
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)
	var matches []Match
	for i, line := range l.lines {
		text := strings.ToLower(line.text())
		start := 0
		for {
			idx := strings.Index(text[start:], q)
			if idx < 0 {
				break
			}
			abs := start + idx
			matches = append(matches, Match{Line: i, Start: abs, End: abs + len(q)})
			start = abs + len(q)
		}
	}
	return matches
}

// SetSelection marks an inclusive line range as selected.
func (l *Log) SetSelection(start, end int) {
	if start > end {
		start, end = end, start
	}
	l.selStart, l.selEnd = start, end
}

// ClearSelection removes any active selection.
func (l *Log) ClearSelection() { l.selEnd = -1 }

// Selection returns the selected line range and whether one is active.
func (l *Log) Selection() (start, end int, ok bool) {
	if l.selEnd < 0 {
		return 0, 0, false
	}
	return l.selStart, l.selEnd, true
}

// SelectedText concatenates the plain text of the selected lines.
func (l *Log) SelectedText() string {
	start, end, ok := l.Selection()
	if !ok {
		return ""
	}
	var b strings.Builder
	for i := start; i <= end && i < len(l.lines); i++ {
		if i > start {
			b.WriteByte('\n')
		}
		b.WriteString(l.lines[i].text())
	}
	return b.String()
}

// Scroll adjusts the viewport offset by delta lines. Scrolling away
// from the tail disables auto-follow; scrolling to (or past) the tail
// re-enables it.
func (l *Log) Scroll(delta int) {
	l.scroll.Offset += delta
	maxOffset := len(l.lines) - 1
	if l.scroll.Offset >= maxOffset {
		l.scrollToTail()
		return
	}
	if l.scroll.Offset < 0 {
		l.scroll.Offset = 0
	}
	l.scroll.FollowingTail = false
}

func (l *Log) scrollToTail() {
	if len(l.lines) == 0 {
		l.scroll.Offset = 0
	} else {
		l.scroll.Offset = len(l.lines) - 1
	}
	l.scroll.FollowingTail = true
}

// ScrollState reports the current viewport position.
func (l *Log) ScrollState() ScrollState { return l.scroll }
