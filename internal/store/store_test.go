package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 0)
	require.NoError(t, err)

	w := Workspace{ID: "ws1", Name: "first", Slot: 1, CreatedAt: time.Now()}
	require.NoError(t, s.Save(w))

	loaded, err := s.Load("ws1")
	require.NoError(t, err)
	assert.Equal(t, "first", loaded.Name)
}

func TestStore_SecondSaveRotatesBackup(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 0)
	require.NoError(t, err)

	w := Workspace{ID: "ws1", Name: "v1"}
	require.NoError(t, s.Save(w))
	w.Name = "v2"
	require.NoError(t, s.Save(w))

	_, err = os.Stat(filepath.Join(dir, "ws1.json.bak"))
	assert.NoError(t, err)

	loaded, err := s.Load("ws1")
	require.NoError(t, err)
	assert.Equal(t, "v2", loaded.Name)
}

func TestStore_LoadFallsBackToBackupWhenPrimaryCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 0)
	require.NoError(t, err)

	w := Workspace{ID: "ws1", Name: "good"}
	require.NoError(t, s.Save(w))
	w.Name = "also-good"
	require.NoError(t, s.Save(w)) // now ws1.json.bak holds "good"

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ws1.json"), []byte("{not json"), 0o644))

	loaded, err := s.Load("ws1")
	require.NoError(t, err)
	assert.Equal(t, "good", loaded.Name)
}

func TestStore_SnapshotTailLinesCapped(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 2)
	require.NoError(t, err)

	lines := []string{"a", "b", "c", "d"}
	w := Workspace{ID: "ws1", Sessions: []SessionSnapshot{{ID: "s1", OutputTail: lines}}}
	require.NoError(t, s.Save(w))

	loaded, err := s.Load("ws1")
	require.NoError(t, err)
	require.Len(t, loaded.Sessions, 1)
	assert.Equal(t, []string{"c", "d"}, loaded.Sessions[0].OutputTail)
}

func TestStore_ListAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 0)
	require.NoError(t, err)

	require.NoError(t, s.Save(Workspace{ID: "a"}))
	require.NoError(t, s.Save(Workspace{ID: "b"}))

	ids, err := s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, s.Delete("a"))
	ids, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}
