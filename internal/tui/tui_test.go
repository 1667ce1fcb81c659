package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortcli/cohort/internal/config"
)

func TestModel_WindowSizeMsgUpdatesDimensions(t *testing.T) {
	m := New(config.Default(), nil, nil, "ws1")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	mm := updated.(*Model)
	assert.Equal(t, 120, mm.width)
	assert.Equal(t, 40, mm.height)
}

func TestModel_ViewWithNoSessionsShowsHint(t *testing.T) {
	m := New(config.Default(), nil, nil, "ws1")
	view := m.View()
	assert.Contains(t, view, "no sessions yet")
}

func TestModel_QuitOnCtrlC(t *testing.T) {
	m := New(config.Default(), nil, nil, "ws1")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
}
