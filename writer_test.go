package main

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestWriteKeyFiles(t *testing.T) {
	dir := t.TempDir()
	files := []keyFile{
		{Path: filepath.Join(dir, "a.pem"), Profile: "a", Data: []byte("first\n")},
		{Path: filepath.Join(dir, "b.pem"), Profile: "b", Data: []byte("second\n")},
	}
	require.NoError(t, writeKeyFiles(files, discardLogger()))

	for _, f := range files {
		got, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		assert.Equal(t, f.Data, got)

		if runtime.GOOS != "windows" {
			fi, err := os.Stat(f.Path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
		}
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestWriteKeyFilesOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pem")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, writeKeyFiles([]keyFile{{Path: path, Data: []byte("new")}}, discardLogger()))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestWriteKeyFilesFirstUnwritable(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "b.pem")
	files := []keyFile{
		{Path: filepath.Join(dir, "missing", "a.pem"), Data: []byte("first")},
		{Path: second, Data: []byte("second")},
	}

	require.Error(t, writeKeyFiles(files, discardLogger()))
	assert.NoFileExists(t, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteKeyFilesSecondUnwritable(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.pem")
	require.NoError(t, os.WriteFile(first, []byte("old"), 0o600))

	files := []keyFile{
		{Path: first, Data: []byte("first")},
		{Path: filepath.Join(dir, "missing", "b.pem"), Data: []byte("second")},
	}
	require.Error(t, writeKeyFiles(files, discardLogger()))

	got, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got), "first file must be left untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
