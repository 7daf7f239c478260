package route

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiroute/internal/model"
)

func TestBuiltinRoutes(t *testing.T) {
	reg := NewRegistry()
	routes := reg.List()
	require.Len(t, routes, 2)
	assert.Equal(t, SprintID, routes[0].ID)
	assert.Equal(t, TokyoKyotoID, routes[1].ID)

	tk, ok := reg.Get(TokyoKyotoID)
	require.True(t, ok)
	assert.Equal(t, "kana", tk.Segments[0].WordPoolID)
	assert.Equal(t, float64(60), tk.TotalDuration().Seconds())

	_, ok = reg.Get("nope")
	assert.False(t, ok)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "coast.toml"), `
name = "Coastline"
description = "Slow start."

[[segments]]
duration = 12.5
pool = "easy"

[[segments]]
duration = 30
pool = "hard"
speed = "faster"
`)
	writeFile(t, filepath.Join(dir, "sprint.toml"), `
id = "sprint"
[[segments]]
duration = 5
pool = "easy"
`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	reg := NewRegistry()
	loaded, err := reg.LoadDir(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"coast", "sprint"}, loaded)

	coast, ok := reg.Get("coast")
	require.True(t, ok)
	want := model.Route{
		ID:          "coast",
		Name:        "Coastline",
		Description: "Slow start.",
		Segments: []model.Segment{
			{DurationSec: 12.5, WordPoolID: "easy"},
			{DurationSec: 30, WordPoolID: "hard", SpeedHint: "faster"},
		},
	}
	if diff := cmp.Diff(want, coast); diff != "" {
		t.Fatalf("route mismatch (-want +got):\n%s", diff)
	}

	sprint, ok := reg.Get(SprintID)
	require.True(t, ok)
	assert.Equal(t, "sprint", sprint.Name)
	assert.Len(t, sprint.Segments, 1)
}

func TestLoadDirMissing(t *testing.T) {
	reg := NewRegistry()
	loaded, err := reg.LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadFileDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, "[[segments]]\nduration = \"soon\"\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode route")
}

func TestAddRejectsEmptyID(t *testing.T) {
	assert.Error(t, NewRegistry().Add(model.Route{Name: "x"}))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
