package panectl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortcli/cohort/internal/config"
	"github.com/cohortcli/cohort/internal/session"
)

func TestPane_TypeAndBackspace(t *testing.T) {
	p := New(nil, 100, 10)
	p.TypeRune('h')
	p.TypeRune('i')
	assert.Equal(t, "hi", p.InputText())
	p.Backspace()
	assert.Equal(t, "h", p.InputText())
}

func TestPane_AutocompleteOpensOnSlash(t *testing.T) {
	p := New(nil, 100, 10)
	p.SetInputText("/se")
	assert.True(t, p.AutocompleteOpen())
	require.NotEmpty(t, p.AutocompleteItems())
	assert.Equal(t, "/search", p.AutocompleteItems()[0].Name)
}

func TestPane_AutocompleteAcceptFillsInput(t *testing.T) {
	p := New(nil, 100, 10)
	p.SetInputText("/mod")
	p.AutocompleteAccept()
	assert.Equal(t, "/model ", p.InputText())
	assert.False(t, p.AutocompleteOpen())
}

func TestHistory_SkipsConsecutiveDuplicates(t *testing.T) {
	h := newHistory(10)
	h.push("one")
	h.push("one")
	assert.Len(t, h.entries, 1)
}

func TestHistory_UpDownPreservesDraft(t *testing.T) {
	h := newHistory(10)
	h.push("first")
	h.push("second")

	val, ok := h.up("my draft")
	require.True(t, ok)
	assert.Equal(t, "second", val)

	val, ok = h.up("my draft")
	require.True(t, ok)
	assert.Equal(t, "first", val)

	val, ok = h.down()
	require.True(t, ok)
	assert.Equal(t, "second", val)

	val, ok = h.down()
	require.True(t, ok)
	assert.Equal(t, "my draft", val)
}

func TestHistory_DepthCap(t *testing.T) {
	h := newHistory(2)
	h.push("a")
	h.push("b")
	h.push("c")
	require.Len(t, h.entries, 2)
	assert.Equal(t, []string{"b", "c"}, h.entries)
}

func TestPane_SubmitIgnoresBlankInput(t *testing.T) {
	p := New(nil, 100, 10)
	p.SetInputText("   ")
	require.NoError(t, p.Submit(SubmitSend))
	assert.Equal(t, "   ", p.InputText()) // unchanged, nothing was submitted
}

func TestPane_SubmitNewlineDoesNotClearInput(t *testing.T) {
	p := New(nil, 100, 10)
	p.SetInputText("line one")
	require.NoError(t, p.Submit(SubmitNewline))
	assert.Equal(t, "line one\n", p.InputText())
}

func TestPane_SubmitRejectsWhenSessionBusyAndKeepsInput(t *testing.T) {
	cfg := config.Default()
	cfg.AssistantCommand = "cat"
	cfg.AssistantArgs = nil
	cfg.AssistantContinueFlag = ""
	cfg.CompletionTimeoutMS = 50
	cfg.CompletionTimeout = 50 * time.Millisecond

	sess, err := session.New(session.NewID(), "one", t.TempDir(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, sess.Start(24, 80))
	defer sess.Close()

	p := New(sess, 100, 10)
	p.SetInputText("first command")
	require.NoError(t, p.Submit(SubmitSend))
	assert.Equal(t, "", p.InputText())

	p.SetInputText("second command")
	err = p.Submit(SubmitSend)
	assert.ErrorIs(t, err, session.ErrBusySession)
	assert.Equal(t, "second command", p.InputText())
}
