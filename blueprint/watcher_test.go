package blueprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchedBlueprint = `
[[types]]
name = "A"
`

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeBlueprint(t, dir, "graph.toml", watchedBlueprint)

	w, err := NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)

	reloaded := make(chan *File, 4)
	w.OnReload(func(f *File, err error) {
		if err == nil {
			reloaded <- f
		}
	})
	w.Start()
	defer w.Stop()

	writeBlueprint(t, dir, "graph.toml", watchedBlueprint+`
[[types]]
name = "B"
extends = "A"
`)

	select {
	case f := <-reloaded:
		assert.Equal(t, []string{"A", "B"}, f.Names())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeBlueprint(t, dir, "graph.toml", watchedBlueprint)

	w, err := NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)

	calls := make(chan struct{}, 4)
	w.OnReload(func(*File, error) { calls <- struct{}{} })
	w.Start()
	defer w.Stop()

	writeBlueprint(t, dir, "other.toml", watchedBlueprint)

	select {
	case <-calls:
		t.Fatal("reload triggered by an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReportsInvalidBlueprint(t *testing.T) {
	dir := t.TempDir()
	path := writeBlueprint(t, dir, "graph.toml", `[[types]]
name = "A"
extends = "Ghost"
`)

	w, err := NewWatcher(path, 0)
	require.NoError(t, err)
	defer w.Stop()

	var gotFile *File
	var gotErr error
	w.OnReload(func(f *File, err error) {
		gotFile, gotErr = f, err
	})
	w.Reload()

	assert.Nil(t, gotFile)
	assert.ErrorContains(t, gotErr, "Ghost")
}

func TestWatcher_StopClosesLoop(t *testing.T) {
	path := writeBlueprint(t, t.TempDir(), "graph.yaml", "types: [{name: A}]\n")

	w, err := NewWatcher(path, time.Millisecond)
	require.NoError(t, err)
	w.Start()
	require.NoError(t, w.Stop())

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not exit")
	}
}
