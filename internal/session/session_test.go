package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortcli/cohort/internal/config"
)

func testConfig() config.Config {
	c := config.Default()
	c.AssistantCommand = "cat"
	c.AssistantArgs = nil
	c.AssistantContinueFlag = ""
	c.CompletionTimeoutMS = 50
	c.CompletionTimeout = 50 * time.Millisecond
	c.OutputLogMaxLines = 1000
	return c
}

func TestSession_LifecycleIdleToResponding(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var events []Event

	id := NewID()
	s, err := New(id, "one", dir, testConfig(), func(_ ID, ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(24, 80))
	defer s.Close()

	assert.Equal(t, StatusIdle, s.StatusValue())

	require.NoError(t, s.SubmitCommand("hello"))

	require.Eventually(t, func() bool {
		return s.StatusValue() == StatusResponding || s.StatusValue() == StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestSession_CompletionTimerFires(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	s, err := New(id, "one", dir, testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(24, 80))
	defer s.Close()

	require.NoError(t, s.SubmitCommand("hi"))

	require.Eventually(t, func() bool {
		return s.StatusValue() == StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_SubmitCommandRejectsWhenBusy(t *testing.T) {
	dir := t.TempDir()
	id := NewID()
	s, err := New(id, "one", dir, testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(24, 80))
	defer s.Close()

	require.NoError(t, s.SubmitCommand("first"))
	assert.ErrorIs(t, s.SubmitCommand("second"), ErrBusySession)
	assert.Equal(t, 1, s.CommandCount())
}

func TestSession_SubmitCommandEmitsCommandSeparator(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var events []Event

	id := NewID()
	s, err := New(id, "one", dir, testConfig(), func(_ ID, ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(24, 80))
	defer s.Close()

	require.NoError(t, s.SubmitCommand("hello there"))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	require.NotEmpty(t, events[0].Runs)
	assert.Contains(t, events[0].Runs[0].Text, "hello there")
}

func TestSession_CompletionMarkerReportsElapsedAndSteps(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var events []Event

	id := NewID()
	s, err := New(id, "one", dir, testConfig(), func(_ ID, ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(24, 80))
	defer s.Close()

	require.NoError(t, s.SubmitCommand("hi"))

	require.Eventually(t, func() bool {
		return s.StatusValue() == StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	var marker string
	for _, ev := range events {
		if ev.StatusState == StatusCompleted && len(ev.Runs) > 0 {
			marker = ev.Runs[0].Text
		}
	}
	assert.Contains(t, marker, "Completed in")
	assert.Contains(t, marker, "steps")
}

func TestManager_EnforcesSessionLimit(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.MaxSessionsPerWorkspace = 1

	m := NewManager(dir, cfg, nil)
	_, err := m.Create("a", 24, 80)
	require.NoError(t, err)

	_, err = m.Create("b", 24, 80)
	assert.ErrorIs(t, err, ErrSessionLimit)

	m.CloseAll()
}

func TestManager_CloseSessionRemovesFromList(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, testConfig(), nil)
	s, err := m.Create("a", 24, 80)
	require.NoError(t, err)
	require.Len(t, m.List(), 1)

	m.CloseSession(s.ID)
	assert.Len(t, m.List(), 0)
}
