package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, time.January, 15, 14, 30, 22, 0, time.UTC)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestArchiveInputFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in", "censo.xlsx")
	writeFile(t, src, "data")

	fm := NewFileManager(filepath.Join(root, "imported"))
	fm.now = fixedClock

	got, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "imported", "censo.xlsx"), got)
	assert.False(t, FileExists(src))

	content, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))
}

func TestArchiveInputFileCollision(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "imported")
	writeFile(t, filepath.Join(archive, "censo.xlsx"), "old")

	fm := NewFileManager(archive)
	fm.now = fixedClock

	src := filepath.Join(root, "censo.xlsx")
	writeFile(t, src, "new")
	got, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive, "censo_20240115_143022.xlsx"), got)

	src2 := filepath.Join(root, "again", "censo.xlsx")
	writeFile(t, src2, "newer")
	got2, err := fm.ArchiveInputFile(src2)
	require.NoError(t, err)
	assert.NotEqual(t, got, got2)
	assert.Contains(t, filepath.Base(got2), "censo_20240115_143022_")

	old, _ := os.ReadFile(filepath.Join(archive, "censo.xlsx"))
	assert.Equal(t, "old", string(old))
}

func TestArchiveInputFileTimestampSubdirs(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "censo.csv")
	writeFile(t, src, "x")

	fm := NewFileManager(filepath.Join(root, "imported"))
	fm.now = fixedClock
	fm.UseTimestampSubdirs = true

	got, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "imported", "2024", "01", "15", "censo.csv"), got)
}

func TestArchiveDisabled(t *testing.T) {
	src := filepath.Join(t.TempDir(), "censo.xlsx")
	writeFile(t, src, "x")

	fm := NewFileManager(filepath.Join(t.TempDir(), "imported"))
	fm.ArchiveOnSuccess = false

	got, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, got)
	assert.True(t, FileExists(src))
}

func TestArchiveMissingSource(t *testing.T) {
	fm := NewFileManager(t.TempDir())
	_, err := fm.ArchiveInputFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.ErrorContains(t, err, "failed to copy file to archive")
}

func TestEnsureDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, NewFileManager(dir).EnsureDirectories())
	assert.DirExists(t, dir)

	assert.Error(t, NewFileManager("").EnsureDirectories())
}

func TestWriteRecoveryFile(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(dir)

	path, err := fm.WriteRecoveryFile("abc", map[string]any{"datos": []map[string]string{{"COMUNIDAD": "Norte"}}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pending", "import_abc.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		Datos []map[string]string `json:"datos"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Norte", decoded.Datos[0]["COMUNIDAD"])
}
