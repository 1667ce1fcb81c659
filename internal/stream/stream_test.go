package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterANSI_StripsBlacklistedSequences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bracketed-paste-on", "before\x1b[?2004hafter", "beforeafter"},
		{"bracketed-paste-off", "before\x1b[?2004lafter", "beforeafter"},
		{"cursor-visibility", "\x1b[?25lhidden\x1b[?25hshown", "hiddenshown"},
		{"alt-screen", "\x1b[?1049hscreen\x1b[?1049l", "screen"},
		{"mouse-tracking", "\x1b[?1004h\x1b[?1004ltext", "text"},
		{"preserves-sgr", "\x1b[31mred\x1b[0m", "\x1b[31mred\x1b[0m"},
		{"preserves-plain", "no escapes here", "no escapes here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(FilterANSI([]byte(tc.in))))
		})
	}
}

func TestFilterANSI_Idempotent(t *testing.T) {
	in := []byte("\x1b[?2004h\x1b[31mhello\x1b[0m\x1b[?25lworld\x1b[?25h")
	once := FilterANSI(in)
	twice := FilterANSI(once)
	assert.Equal(t, once, twice)
}

func TestProcessor_StyledRuns(t *testing.T) {
	p := NewProcessor()
	res := p.Feed([]byte("\x1b[31mred text\x1b[0m\x1b[1mbold\x1b[0m"))
	require.Len(t, res.Runs, 2)
	assert.Equal(t, "red text", res.Runs[0].Text)
	assert.Equal(t, ColorNamed, res.Runs[0].Style.Foreground.Kind)
	assert.Equal(t, "red", res.Runs[0].Style.Foreground.Named)
	assert.Equal(t, "bold", res.Runs[1].Text)
	assert.True(t, res.Runs[1].Style.Bold)
}

func TestProcessor_StyleCarriesAcrossChunks(t *testing.T) {
	p := NewProcessor()
	_ = p.Feed([]byte("\x1b[32m"))
	res := p.Feed([]byte("still green"))
	require.Len(t, res.Runs, 1)
	assert.Equal(t, "green", res.Runs[0].Style.Foreground.Named)
}

func TestProcessor_SplitEscapeSequenceAcrossChunks(t *testing.T) {
	p := NewProcessor()
	res1 := p.Feed([]byte("hello\x1b[3"))
	assert.Len(t, res1.Runs, 1)
	assert.Equal(t, "hello", res1.Runs[0].Text)

	res2 := p.Feed([]byte("1mworld"))
	require.Len(t, res2.Runs, 1)
	assert.Equal(t, "world", res2.Runs[0].Text)
	assert.Equal(t, "red", res2.Runs[0].Style.Foreground.Named)
}

func TestProcessor_Extended256AndRGBColors(t *testing.T) {
	p := NewProcessor()
	res := p.Feed([]byte("\x1b[38;5;200mindexed\x1b[0m\x1b[38;2;10;20;30mrgb"))
	require.Len(t, res.Runs, 2)
	assert.Equal(t, ColorIndexed, res.Runs[0].Style.Foreground.Kind)
	assert.EqualValues(t, 200, res.Runs[0].Style.Foreground.Index)
	assert.Equal(t, ColorRGB, res.Runs[1].Style.Foreground.Kind)
	assert.EqualValues(t, 10, res.Runs[1].Style.Foreground.R)
}

func TestStatusTracker_PriorityOrder(t *testing.T) {
	st := newStatusTracker()

	status, changed := st.feed(`<invoke name="Bash">`)
	assert.True(t, changed)
	assert.Equal(t, "Using Bash", status)

	status, changed = st.feed("Reading main.go now")
	assert.True(t, changed)
	assert.Equal(t, "Reading main.go", status)

	// Same status again should not register as a change or grow history.
	_, changed = st.feed("Reading main.go again soon")
	assert.False(t, changed)
	assert.Equal(t, 2, st.StepCount())
}

func TestStatusTracker_BasenameStripsDirectoryAndQuotes(t *testing.T) {
	st := newStatusTracker()
	status, changed := st.feed(`Writing "/home/user/project/internal/session.go"`)
	assert.True(t, changed)
	assert.Equal(t, "Writing session.go", status)
}

func TestStatusTracker_SearchingTruncatesAndUsesColonForm(t *testing.T) {
	st := newStatusTracker()
	status, _ := st.feed("Searching for " + strings.Repeat("x", 60))
	assert.Equal(t, "Searching: "+strings.Repeat("x", 40), status)
}

func TestStatusTracker_AnalyzingRowAcceptsCheckAndVerify(t *testing.T) {
	st := newStatusTracker()

	status, _ := st.feed("Checking the build output")
	assert.Equal(t, "Checking: the build output", status)

	st.reset()
	status, _ = st.feed("Verifying the schema")
	assert.Equal(t, "Verifying: the schema", status)
}

func TestStatusTracker_InstallingRowAcceptsBuildAndCompile(t *testing.T) {
	st := newStatusTracker()

	status, _ := st.feed("Building the binary")
	assert.Equal(t, "Building: the binary", status)

	st.reset()
	status, _ = st.feed("Compiling the package")
	assert.Equal(t, "Compiling: the package", status)
}

func TestStatusTracker_LineStartPhraseBeforeGenericFallback(t *testing.T) {
	st := newStatusTracker()
	status, changed := st.feed("Initializing workspace binding\nsome other text")
	assert.True(t, changed)
	assert.Equal(t, "Initializing workspace binding", status)
}

func TestStatusTracker_BoundedHistory(t *testing.T) {
	st := newStatusTracker()
	for i := 0; i < 15; i++ {
		st.feed("Analyzing thing" + string(rune('a'+i)))
	}
	assert.LessOrEqual(t, st.StepCount(), maxStatusHistory)
}

func TestStatusTracker_ResetClearsHistory(t *testing.T) {
	st := newStatusTracker()
	st.feed("Running tests")
	require.Equal(t, 1, st.StepCount())
	st.reset()
	assert.Equal(t, 0, st.StepCount())
}

func TestCodeBlockTracker_DetectsFencedBlock(t *testing.T) {
	c := newCodeBlockTracker()
	lines := []string{"intro", "```go", "func main() {}", "```", "outro"}
	var got CodeBlock
	for _, l := range lines {
		if b, ok := c.feedLine(l); ok {
			got = b
		}
	}
	assert.Equal(t, "go", got.Language)
	assert.Equal(t, "func main() {}", got.Content)
	assert.Equal(t, 1, got.StartingLine)
}

func TestProcessor_DetectsCodeBlockAcrossChunks(t *testing.T) {
	p := NewProcessor()
	res1 := p.Feed([]byte("before\n```python\n"))
	assert.Empty(t, res1.NewBlocks)

	res2 := p.Feed([]byte("print('hi')\n```\nafter\n"))
	require.Len(t, res2.NewBlocks, 1)
	assert.Equal(t, "python", res2.NewBlocks[0].Language)
	assert.Equal(t, "print('hi')", res2.NewBlocks[0].Content)
}

func TestMetricsTracker_TokenEstimateAndReset(t *testing.T) {
	m := newMetricsTracker()
	m.reset()
	m.record(400)
	snap := m.Snapshot()
	assert.EqualValues(t, 400, snap.TotalBytes)
	assert.EqualValues(t, 100, snap.TokenEstimate)

	m.reset()
	snap = m.Snapshot()
	assert.EqualValues(t, 0, snap.TotalBytes)
}

func TestProcessor_ResetCycleClearsStatusButKeepsStyle(t *testing.T) {
	p := NewProcessor()
	p.Feed([]byte("\x1b[34mblue"))
	p.Feed([]byte("Running build"))
	require.Equal(t, 1, p.StepCount())

	p.ResetCycle()
	assert.Equal(t, 0, p.StepCount())

	res := p.Feed([]byte("still here"))
	require.Len(t, res.Runs, 1)
	assert.Equal(t, "blue", res.Runs[0].Style.Foreground.Named)
}
