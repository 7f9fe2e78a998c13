package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileMode string

const (
	// FileModeAppend appends to an existing log file.
	FileModeAppend FileMode = "append"
	// FileModeTruncate truncates an existing log file.
	FileModeTruncate FileMode = "truncate"
	// FileModeRotate hands the log file to lumberjack, which rotates it as
	// it grows.
	FileModeRotate FileMode = "rotate"
)

func (m *FileMode) Set(s string) error {
	switch mode := FileMode(s); mode {
	case "":
		*m = FileModeAppend
	case FileModeAppend, FileModeTruncate, FileModeRotate:
		*m = mode
	default:
		return fmt.Errorf("invalid log file mode: %q (want append, truncate or rotate)", s)
	}
	return nil
}

func (m FileMode) String() string {
	return string(m)
}

func (m *FileMode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

var streams = map[string]zapcore.WriteSyncer{
	"":          zapcore.Lock(os.Stderr),
	"stderr":    zapcore.Lock(os.Stderr),
	"stdout":    zapcore.Lock(os.Stdout),
	"/dev/null": zapcore.AddSync(io.Discard),
}

// OpenFile opens the log destination at path with the default rotation
// settings.  The names stdout, stderr and /dev/null are recognized.
func OpenFile(path string, mode FileMode) (zapcore.WriteSyncer, error) {
	return openFile(path, mode, RotationConfig{})
}

func openFile(path string, mode FileMode, rotation RotationConfig) (zapcore.WriteSyncer, error) {
	if w, ok := streams[path]; ok {
		return w, nil
	}
	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case FileModeRotate:
		return rotate(path, rotation)
	case FileModeTruncate:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_APPEND
	}
	return os.OpenFile(path, flags, 0644)
}

func rotate(path string, conf RotationConfig) (zapcore.WriteSyncer, error) {
	// lumberjack creates missing directories; a misspelled one should fail.
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return nil, err
	}
	l := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    conf.MaxSizeMB,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAgeDays,
		Compress:   conf.Compress,
	}
	if l.MaxSize == 0 {
		l.MaxSize = 5
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = 3
	}
	if l.MaxAge == 0 {
		l.MaxAge = 28
	}
	// lumberjack.Logger is safe for concurrent use.
	return zapcore.AddSync(l), nil
}
