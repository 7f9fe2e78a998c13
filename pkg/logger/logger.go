// Package logger builds zap loggers from a Config shared by the command
// line flags and the YAML configuration file.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Path string `yaml:"path"`
	// If Path is a file, Mode determines how the file is managed.
	Mode     FileMode       `yaml:"mode,omitempty"`
	Level    zapcore.Level  `yaml:"level"`
	DevMode  bool           `yaml:"devmode,omitempty"`
	Rotation RotationConfig `yaml:"rotation,omitempty"`
}

// RotationConfig controls a log file opened with FileModeRotate.  Zero
// values select the defaults.
type RotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb,omitempty"`
	MaxBackups int  `yaml:"max_backups,omitempty"`
	MaxAgeDays int  `yaml:"max_age_days,omitempty"`
	Compress   bool `yaml:"compress,omitempty"`
}

func New(conf Config) (*zap.Logger, error) {
	core, err := NewCore(conf)
	if err != nil {
		return nil, err
	}
	var opts []zap.Option
	if conf.DevMode {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}

func NewCore(conf Config) (zapcore.Core, error) {
	w, err := openFile(conf.Path, conf.Mode, conf.Rotation)
	if err != nil {
		return nil, err
	}
	return zapcore.NewCore(jsonEncoder(), w, conf.Level), nil
}

func jsonEncoder() zapcore.Encoder {
	conf := zap.NewProductionEncoderConfig()
	conf.CallerKey = ""
	return zapcore.NewJSONEncoder(conf)
}
