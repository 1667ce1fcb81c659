package outputlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortcli/cohort/internal/stream"
)

func run(text string) []stream.Run {
	return []stream.Run{{Text: text}}
}

func TestLog_AppendSplitsOnNewlines(t *testing.T) {
	l := New(100)
	l.Append(run("line one\nline two\n"))
	lines := l.Lines()
	require.Len(t, lines, 3) // trailing empty line after the last \n
	assert.Equal(t, "line one", lines[0].text())
	assert.Equal(t, "line two", lines[1].text())
	assert.Equal(t, "", lines[2].text())
}

func TestLog_CarriageReturnOverwritesFromStart(t *testing.T) {
	l := New(100)
	l.Append(run("progress: 10%"))
	l.Append(run("\rprogress: 99%"))
	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "progress: 99%", lines[0].text())
}

func TestLog_FIFOEviction(t *testing.T) {
	l := New(3)
	for i := 0; i < 10; i++ {
		l.Append(run("x\n"))
	}
	assert.LessOrEqual(t, l.LineCount(), 3)
}

func TestLog_FindMatchesCaseInsensitive(t *testing.T) {
	l := New(100)
	l.Append(run("Hello World\nhello again\n"))
	matches := l.FindMatches("hello")
	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Line)
	assert.Equal(t, 1, matches[1].Line)
}

func TestLog_SelectionRoundTrip(t *testing.T) {
	l := New(100)
	l.Append(run("a\nb\nc\n"))
	l.SetSelection(2, 0) // reversed, should be normalized
	start, end, ok := l.Selection()
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)
	assert.Equal(t, "a\nb\nc", l.SelectedText())

	l.ClearSelection()
	_, _, ok = l.Selection()
	assert.False(t, ok)
}

func TestLog_ScrollDisablesThenRestoresFollowTail(t *testing.T) {
	l := New(100)
	for i := 0; i < 20; i++ {
		l.Append(run("line\n"))
	}
	assert.True(t, l.ScrollState().FollowingTail)

	l.Scroll(-10)
	assert.False(t, l.ScrollState().FollowingTail)

	l.Scroll(1000)
	assert.True(t, l.ScrollState().FollowingTail)
}
