package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileModeSet(t *testing.T) {
	var m FileMode
	require.NoError(t, m.Set("rotate"))
	assert.Equal(t, FileModeRotate, m)
	require.NoError(t, m.Set(""))
	assert.Equal(t, FileModeAppend, m)
	assert.Error(t, m.Set("sometimes"))
	assert.Error(t, m.UnmarshalText([]byte("never")))
}

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openrec.log")
	logger, err := New(Config{Path: path, Mode: FileModeTruncate, Level: zap.InfoLevel})
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("row skipped", zap.Int("row", 3))
	require.NoError(t, logger.Sync())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hidden")
	assert.Contains(t, string(b), `"msg":"row skipped"`)
	assert.Contains(t, string(b), `"row":3`)
}

func TestOpenFileModes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	w, err := OpenFile(path, FileModeAppend)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	b, _ := os.ReadFile(path)
	assert.Equal(t, "old\nnew\n", string(b))

	w, err = OpenFile(path, FileModeTruncate)
	require.NoError(t, err)
	_, err = w.Write([]byte("x\n"))
	require.NoError(t, err)
	b, _ = os.ReadFile(path)
	assert.Equal(t, "x\n", string(b))

	_, err = OpenFile(filepath.Join(dir, "nope", "b.log"), FileModeRotate)
	assert.Error(t, err)
	w, err = OpenFile(filepath.Join(dir, "r.log"), FileModeRotate)
	require.NoError(t, err)
	assert.NotNil(t, w)

	w, err = OpenFile("/dev/null", FileModeAppend)
	require.NoError(t, err)
	_, err = w.Write([]byte("gone"))
	assert.NoError(t, err)
}

func TestRotationDefaults(t *testing.T) {
	w, err := rotate(filepath.Join(t.TempDir(), "r.log"), RotationConfig{MaxBackups: 7})
	require.NoError(t, err)
	_, err = w.Write([]byte("{}\n"))
	require.NoError(t, err)
}
